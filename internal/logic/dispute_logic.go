package logic

import (
	"context"
	"fmt"

	"github.com/blues/lcs/internal/backend"
	"github.com/blues/lcs/internal/lifecycle"
	"github.com/blues/lcs/internal/model"
)

// DisputeLogic 争议业务逻辑
type DisputeLogic struct {
	backend *backend.Client
}

// NewDisputeLogic 创建争议业务逻辑
func NewDisputeLogic(client *backend.Client) *DisputeLogic {
	return &DisputeLogic{backend: client}
}

// OpenDispute 发起争议。父合约必须处于非终态且未在争议中。
func (l *DisputeLogic) OpenDispute(ctx context.Context, contractID, reason, comment string) (*model.Dispute, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: dispute reason is required", ErrInvalidInput)
	}

	contract, err := l.backend.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}

	if !lifecycle.CanOpenDispute(contract) {
		return nil, fmt.Errorf("%w: cannot open dispute in status %s",
			lifecycle.ErrIllegalTransition, contract.Status)
	}

	return l.backend.CreateDispute(ctx, contractID, reason, comment)
}

// GetDispute 拉取争议快照
func (l *DisputeLogic) GetDispute(ctx context.Context, disputeID string) (*model.Dispute, error) {
	return l.backend.GetDispute(ctx, disputeID)
}
