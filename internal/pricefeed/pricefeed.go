package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/blues/lcs/internal/config"
	"github.com/blues/lcs/internal/logger"
)

// Tick 一次价格观测
type Tick struct {
	Asset    string    `json:"asset"`
	Currency string    `json:"currency"`
	Price    float64   `json:"price"`
	At       time.Time `json:"at"`
}

// Subscriber 价格变化回调
type Subscriber func(Tick)

// Feed 实时价格源。定时拉取外部价格接口，缓存最新报价并通知订阅者。
type Feed struct {
	url        string
	asset      string
	currency   string
	interval   time.Duration
	httpClient *http.Client

	mu          sync.RWMutex
	last        *Tick
	subscribers []Subscriber

	ctx    context.Context
	cancel context.CancelFunc
}

// Init 创建价格源
func Init(cfg config.PriceFeedConfig) (*Feed, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("pricefeed url is required")
	}

	interval := time.Duration(cfg.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Feed{
		url:        cfg.URL,
		asset:      cfg.Asset,
		currency:   cfg.Currency,
		interval:   interval,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Subscribe 注册价格变化回调，Start 之前调用
func (f *Feed) Subscribe(s Subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribers = append(f.subscribers, s)
}

// Last 返回最近一次观测，尚无报价时返回 nil
func (f *Feed) Last() *Tick {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.last
}

// Start 启动拉取循环
func (f *Feed) Start() {
	logger.Info("Starting price feed for %s/%s", f.asset, f.currency)
	go f.loop()
}

// Stop 停止拉取循环
func (f *Feed) Stop() {
	f.cancel()
}

// loop 拉取循环
func (f *Feed) loop() {
	// 启动时先拉一次，避免等待整个间隔
	if err := f.refresh(); err != nil {
		logger.Warn("Initial price fetch failed: %v", err)
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-f.ctx.Done():
			logger.Info("Price feed stopped")
			return
		case <-ticker.C:
			if err := f.refresh(); err != nil {
				logger.Error("Failed to fetch price: %v", err)
			}
		}
	}
}

// refresh 拉取一次价格并在变化时通知订阅者
func (f *Feed) refresh() error {
	url := fmt.Sprintf("%s?asset=%s&currency=%s", f.url, f.asset, f.currency)
	req, err := http.NewRequestWithContext(f.ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build price request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read price response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("price request failed (status %d): %s", resp.StatusCode, string(data))
	}

	var payload struct {
		Price float64 `json:"price"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to decode price response: %w", err)
	}
	if payload.Price <= 0 {
		return fmt.Errorf("price feed returned non-positive price: %f", payload.Price)
	}

	tick := Tick{
		Asset:    f.asset,
		Currency: f.currency,
		Price:    payload.Price,
		At:       time.Now().UTC(),
	}

	f.mu.Lock()
	changed := f.last == nil || f.last.Price != tick.Price
	f.last = &tick
	subscribers := make([]Subscriber, len(f.subscribers))
	copy(subscribers, f.subscribers)
	f.mu.Unlock()

	if changed {
		for _, s := range subscribers {
			s(tick)
		}
	}
	return nil
}
