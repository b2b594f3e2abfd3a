package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blues/lcs/internal/model"
)

func TestValidateDisputeTransition(t *testing.T) {
	assert.NoError(t, ValidateDisputeTransition(model.DisputeStatusStartedBorrower, model.DisputeStatusResolvedBorrower))
	assert.NoError(t, ValidateDisputeTransition(model.DisputeStatusStartedBorrower, model.DisputeStatusResolvedLender))
	assert.NoError(t, ValidateDisputeTransition(model.DisputeStatusStartedLender, model.DisputeStatusResolvedBorrower))

	// 已解决的争议不允许再变化
	assert.ErrorIs(t, ValidateDisputeTransition(model.DisputeStatusResolvedBorrower, model.DisputeStatusStartedBorrower), ErrIllegalTransition)
	assert.ErrorIs(t, ValidateDisputeTransition(model.DisputeStatusResolvedLender, model.DisputeStatusResolvedBorrower), ErrIllegalTransition)

	// Started 之间不允许互转
	assert.ErrorIs(t, ValidateDisputeTransition(model.DisputeStatusStartedBorrower, model.DisputeStatusStartedLender), ErrIllegalTransition)

	// 同状态为幂等
	assert.NoError(t, ValidateDisputeTransition(model.DisputeStatusStartedLender, model.DisputeStatusStartedLender))
}

func TestCanOpenDispute(t *testing.T) {
	assert.True(t, CanOpenDispute(&model.Contract{Status: model.ContractStatusPrincipalGiven}))
	assert.True(t, CanOpenDispute(&model.Contract{Status: model.ContractStatusUndercollateralized}))

	// 终态与争议中不允许发起
	assert.False(t, CanOpenDispute(&model.Contract{Status: model.ContractStatusClosed}))
	assert.False(t, CanOpenDispute(&model.Contract{Status: model.ContractStatusCancelled}))
	assert.False(t, CanOpenDispute(&model.Contract{Status: model.ContractStatusDisputeBorrowerStarted}))
	assert.False(t, CanOpenDispute(&model.Contract{Status: model.ContractStatusDisputeLenderResolved}))
}
