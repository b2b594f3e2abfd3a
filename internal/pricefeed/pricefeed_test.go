package pricefeed

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blues/lcs/internal/config"
)

func TestInitRequiresURL(t *testing.T) {
	_, err := Init(config.PriceFeedConfig{})
	assert.Error(t, err)
}

func TestRefreshNotifiesOnlyOnChange(t *testing.T) {
	var mu sync.Mutex
	price := 50000.0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BTC", r.URL.Query().Get("asset"))
		assert.Equal(t, "USD", r.URL.Query().Get("currency"))
		mu.Lock()
		defer mu.Unlock()
		json.NewEncoder(w).Encode(map[string]float64{"price": price})
	}))
	defer srv.Close()

	feed, err := Init(config.PriceFeedConfig{URL: srv.URL, Asset: "BTC", Currency: "USD"})
	require.NoError(t, err)
	defer feed.Stop()

	var ticks []Tick
	feed.Subscribe(func(tick Tick) {
		ticks = append(ticks, tick)
	})

	require.NoError(t, feed.refresh())
	// 价格未变时不重复通知
	require.NoError(t, feed.refresh())

	mu.Lock()
	price = 48000
	mu.Unlock()
	require.NoError(t, feed.refresh())

	require.Len(t, ticks, 2)
	assert.Equal(t, 50000.0, ticks[0].Price)
	assert.Equal(t, 48000.0, ticks[1].Price)

	last := feed.Last()
	require.NotNil(t, last)
	assert.Equal(t, 48000.0, last.Price)
	assert.Equal(t, "BTC", last.Asset)
}

func TestRefreshRejectsNonPositivePrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]float64{"price": 0})
	}))
	defer srv.Close()

	feed, err := Init(config.PriceFeedConfig{URL: srv.URL, Asset: "BTC", Currency: "USD"})
	require.NoError(t, err)
	defer feed.Stop()

	assert.Error(t, feed.refresh())
	assert.Nil(t, feed.Last())
}

func TestRefreshUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	feed, err := Init(config.PriceFeedConfig{URL: srv.URL, Asset: "BTC", Currency: "USD"})
	require.NoError(t, err)
	defer feed.Stop()

	assert.Error(t, feed.refresh())
}
