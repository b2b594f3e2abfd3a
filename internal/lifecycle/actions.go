package lifecycle

import (
	"time"

	"github.com/blues/lcs/internal/model"
)

// Action 当前状态下借贷双方可执行的操作，驱动上层 UI
type Action string

const (
	ActionCancelRequest      Action = "cancel_request"       // 取消借款请求
	ActionProvideFiatDetails Action = "provide_fiat_details" // 提供法币收款信息
	ActionFundContract       Action = "fund_contract"        // 存入抵押
	ActionManageLoan         Action = "manage_loan"          // 管理借款（还款、追保、争议等）
	ActionWithdrawCollateral Action = "withdraw_collateral"  // 取回抵押
)

// AvailableActions 由合约快照推导当前可执行的操作集合。
// 对全部状态都有定义（可能为空集），不允许漏判。
func AvailableActions(c *model.Contract) []Action {
	switch c.Status {
	case model.ContractStatusRequested, model.ContractStatusRenewalRequested:
		return []Action{ActionCancelRequest}

	case model.ContractStatusApproved:
		// 法币放款且尚未提供收款信息时必须先补齐
		if c.LoanAsset.IsFiat() && !c.HasFiatPayoutDetails() {
			return []Action{ActionProvideFiatDetails}
		}
		return []Action{ActionFundContract}

	case model.ContractStatusRepaymentConfirmed:
		return []Action{ActionWithdrawCollateral}

	// 争议进行中时一切操作冻结，等待解决
	case model.ContractStatusDisputeBorrowerStarted, model.ContractStatusDisputeLenderStarted:
		return []Action{}

	// 争议解决后解锁取回抵押
	case model.ContractStatusDisputeBorrowerResolved, model.ContractStatusDisputeLenderResolved:
		return []Action{ActionWithdrawCollateral}

	case model.ContractStatusRejected, model.ContractStatusRequestExpired,
		model.ContractStatusClosed, model.ContractStatusCancelled:
		return []Action{}

	case model.ContractStatusCollateralSeen, model.ContractStatusCollateralConfirmed,
		model.ContractStatusPrincipalGiven, model.ContractStatusRepaymentProvided,
		model.ContractStatusUndercollateralized, model.ContractStatusDefaulted,
		model.ContractStatusExtended, model.ContractStatusClosing:
		return []Action{ActionManageLoan}
	}

	// 未知状态不给任何操作
	return []Action{}
}

// CanCancel 仅允许从请求状态取消
func CanCancel(c *model.Contract) bool {
	return c.Status.IsInitial()
}

// CanClaim 是否满足合作取回前置条件
func CanClaim(c *model.Contract) bool {
	return c.Status == model.ContractStatusRepaymentConfirmed ||
		c.Status == model.ContractStatusDisputeBorrowerResolved ||
		c.Status == model.ContractStatusDisputeLenderResolved
}

// CanRecover 是否满足时间锁单方恢复前置条件：已违约，
// 或者抵押不足且合约已过期（走多签脚本的时间锁路径）
func CanRecover(c *model.Contract, now time.Time) bool {
	switch c.Status {
	case model.ContractStatusDefaulted:
		return true
	case model.ContractStatusUndercollateralized:
		return c.IsExpired(now)
	}
	return false
}
