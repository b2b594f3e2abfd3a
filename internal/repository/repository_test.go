package repository

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/blues/lcs/internal/config"
	"github.com/blues/lcs/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Init(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	return db
}

func TestSnapshotUpsert(t *testing.T) {
	repo := NewSnapshotRepository(newTestDB(t))

	missing, err := repo.GetSnapshot("c-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	contract := &model.Contract{
		ID:             "c-1",
		Status:         model.ContractStatusPrincipalGiven,
		CollateralSats: 4_000_000,
		LoanAmount:     1000,
	}
	require.NoError(t, repo.SaveSnapshot(contract))

	// 同一合约再次写入是覆盖而不是新增
	contract.Status = model.ContractStatusRepaymentProvided
	contract.CollateralSats = 4_200_000
	require.NoError(t, repo.SaveSnapshot(contract))

	snapshot, err := repo.GetSnapshot("c-1")
	require.NoError(t, err)
	require.NotNil(t, snapshot)
	assert.Equal(t, model.ContractStatusRepaymentProvided, snapshot.Status)
	assert.Equal(t, int64(4_200_000), snapshot.CollateralSats)

	all, err := repo.ListSnapshots()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRecordTransition(t *testing.T) {
	repo := NewSnapshotRepository(newTestDB(t))

	require.NoError(t, repo.RecordTransition("c-1",
		model.ContractStatusRequested, model.ContractStatusApproved, true))
	require.NoError(t, repo.RecordTransition("c-1",
		model.ContractStatusApproved, model.ContractStatusRequested, false))

	events, err := repo.ListTransitions("c-1")
	require.NoError(t, err)
	require.Len(t, events, 2)

	var illegal int
	for _, e := range events {
		if !e.Legal {
			illegal++
		}
	}
	assert.Equal(t, 1, illegal)
}

func TestRecordHealthChange(t *testing.T) {
	repo := NewSnapshotRepository(newTestDB(t))

	require.NoError(t, repo.RecordHealthChange("c-1",
		model.LiquidationStatusHealthy, model.LiquidationStatusFirstMarginCall,
		0.714, 35000, 4_000_000))

	events, err := repo.ListHealthEvents("c-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.LiquidationStatusFirstMarginCall, events[0].ToTier)
	assert.InDelta(t, 0.714, events[0].LtvRatio, 1e-9)
}

func TestClaimRecordLifecycle(t *testing.T) {
	repo := NewClaimRepository(newTestDB(t))

	require.NoError(t, repo.CreateAttempt("a-1", "c-1", "claim", 5.0))
	require.NoError(t, repo.CreateAttempt("a-2", "c-1", "claim", 8.0))
	require.NoError(t, repo.CreateAttempt("a-3", "c-2", "recover", 3.0))

	require.NoError(t, repo.MarkFailed("a-1", "insufficient fee rate"))
	require.NoError(t, repo.MarkBroadcast("a-2", "txid-1"))
	require.NoError(t, repo.MarkAbandoned("a-3"))

	records, err := repo.ListByContract("c-1")
	require.NoError(t, err)
	require.Len(t, records, 2)

	byAttempt := make(map[string]model.ClaimRecord)
	for _, r := range records {
		byAttempt[r.AttemptID] = r
	}
	assert.Equal(t, ClaimRecordFailed, byAttempt["a-1"].Status)
	assert.Equal(t, "insufficient fee rate", byAttempt["a-1"].FailReason)
	assert.Equal(t, ClaimRecordBroadcast, byAttempt["a-2"].Status)
	assert.Equal(t, "txid-1", byAttempt["a-2"].Txid)

	others, err := repo.ListByContract("c-2")
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.Equal(t, ClaimRecordAbandoned, others[0].Status)
}
