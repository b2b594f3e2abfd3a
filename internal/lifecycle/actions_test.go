package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/blues/lcs/internal/model"
)

func TestAvailableActionsTotal(t *testing.T) {
	// 动作映射对全部状态都必须有定义，空集也算定义
	for _, s := range model.AllContractStatuses {
		c := &model.Contract{Status: s, LoanAsset: model.LoanAssetUSDTEthereum}
		assert.NotNil(t, AvailableActions(c), "%s", s)
	}
}

func TestAvailableActions(t *testing.T) {
	tests := []struct {
		status model.ContractStatus
		want   []Action
	}{
		{model.ContractStatusRequested, []Action{ActionCancelRequest}},
		{model.ContractStatusRenewalRequested, []Action{ActionCancelRequest}},
		{model.ContractStatusPrincipalGiven, []Action{ActionManageLoan}},
		{model.ContractStatusUndercollateralized, []Action{ActionManageLoan}},
		{model.ContractStatusRepaymentConfirmed, []Action{ActionWithdrawCollateral}},
		{model.ContractStatusDisputeBorrowerStarted, []Action{}},
		{model.ContractStatusDisputeLenderStarted, []Action{}},
		{model.ContractStatusDisputeBorrowerResolved, []Action{ActionWithdrawCollateral}},
		{model.ContractStatusDisputeLenderResolved, []Action{ActionWithdrawCollateral}},
		{model.ContractStatusClosing, []Action{ActionManageLoan}},
		{model.ContractStatusClosed, []Action{}},
		{model.ContractStatusCancelled, []Action{}},
	}
	for _, tt := range tests {
		c := &model.Contract{Status: tt.status, LoanAsset: model.LoanAssetUSDTEthereum}
		assert.Equal(t, tt.want, AvailableActions(c), "%s", tt.status)
	}
}

func TestAvailableActionsApprovedFiat(t *testing.T) {
	// 法币放款且未提供收款信息时只能先补齐信息
	c := &model.Contract{Status: model.ContractStatusApproved, LoanAsset: model.LoanAssetUSD}
	assert.Equal(t, []Action{ActionProvideFiatDetails}, AvailableActions(c))

	c.FiatPayoutDetails = "IBAN DE89 3704 0044 0532 0130 00"
	assert.Equal(t, []Action{ActionFundContract}, AvailableActions(c))

	// 稳定币放款不需要收款信息
	stablecoin := &model.Contract{Status: model.ContractStatusApproved, LoanAsset: model.LoanAssetUSDCEthereum}
	assert.Equal(t, []Action{ActionFundContract}, AvailableActions(stablecoin))
}

func TestCanCancel(t *testing.T) {
	assert.True(t, CanCancel(&model.Contract{Status: model.ContractStatusRequested}))
	assert.True(t, CanCancel(&model.Contract{Status: model.ContractStatusRenewalRequested}))
	assert.False(t, CanCancel(&model.Contract{Status: model.ContractStatusApproved}))
	assert.False(t, CanCancel(&model.Contract{Status: model.ContractStatusPrincipalGiven}))
}

func TestCanClaim(t *testing.T) {
	assert.True(t, CanClaim(&model.Contract{Status: model.ContractStatusRepaymentConfirmed}))
	assert.True(t, CanClaim(&model.Contract{Status: model.ContractStatusDisputeBorrowerResolved}))
	assert.True(t, CanClaim(&model.Contract{Status: model.ContractStatusDisputeLenderResolved}))
	assert.False(t, CanClaim(&model.Contract{Status: model.ContractStatusPrincipalGiven}))
	assert.False(t, CanClaim(&model.Contract{Status: model.ContractStatusRepaymentProvided}))
}

func TestCanRecover(t *testing.T) {
	now := time.Now()

	assert.True(t, CanRecover(&model.Contract{Status: model.ContractStatusDefaulted}, now))

	// 抵押不足且已过期才允许走时间锁路径
	expired := &model.Contract{
		Status: model.ContractStatusUndercollateralized,
		Expiry: now.Add(-24 * time.Hour),
	}
	assert.True(t, CanRecover(expired, now))

	active := &model.Contract{
		Status: model.ContractStatusUndercollateralized,
		Expiry: now.Add(24 * time.Hour),
	}
	assert.False(t, CanRecover(active, now))

	assert.False(t, CanRecover(&model.Contract{Status: model.ContractStatusPrincipalGiven}, now))
}
