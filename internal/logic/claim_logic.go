package logic

import (
	"context"
	"fmt"

	"github.com/blues/lcs/internal/backend"
	"github.com/blues/lcs/internal/claim"
	"github.com/blues/lcs/internal/model"
	"github.com/blues/lcs/internal/repository"
)

// ClaimLogic 取回抵押业务逻辑
type ClaimLogic struct {
	backend *backend.Client
	manager *claim.Manager
	records *repository.ClaimRepository
}

// NewClaimLogic 创建取回业务逻辑
func NewClaimLogic(client *backend.Client, manager *claim.Manager, records *repository.ClaimRepository) *ClaimLogic {
	return &ClaimLogic{
		backend: client,
		manager: manager,
		records: records,
	}
}

// StartClaim 发起合作取回：还款确认后借款人取回抵押
func (l *ClaimLogic) StartClaim(ctx context.Context, contractID string, feeRate float64) (string, error) {
	return l.start(ctx, contractID, claim.VariantClaim, feeRate)
}

// StartRecovery 发起时间锁恢复：违约/过期后借款人单方取回
func (l *ClaimLogic) StartRecovery(ctx context.Context, contractID string, feeRate float64) (string, error) {
	return l.start(ctx, contractID, claim.VariantRecover, feeRate)
}

// Abandon 放弃等待中的取回流程（例如用户拒绝解锁钱包）
func (l *ClaimLogic) Abandon(contractID string) {
	l.manager.Abandon(contractID)
}

// ListAttempts 按时间倒序列出某合约的历次取回尝试（仅元数据，不含 PSBT）
func (l *ClaimLogic) ListAttempts(contractID string) ([]model.ClaimRecord, error) {
	return l.records.ListByContract(contractID)
}

func (l *ClaimLogic) start(ctx context.Context, contractID string, variant claim.Variant, feeRate float64) (string, error) {
	if feeRate <= 0 {
		return "", fmt.Errorf("%w: fee rate must be positive, got %f", ErrInvalidInput, feeRate)
	}

	contract, err := l.backend.GetContract(ctx, contractID)
	if err != nil {
		return "", err
	}

	return l.manager.Run(ctx, contract, variant, feeRate)
}
