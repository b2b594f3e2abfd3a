package model

// ContractStatus 合约状态
type ContractStatus string

const (
	// 注资阶段
	ContractStatusRequested           ContractStatus = "requested"            // 已发起借款请求
	ContractStatusRenewalRequested    ContractStatus = "renewal_requested"    // 已发起续约请求
	ContractStatusApproved            ContractStatus = "approved"             // 出借人已批准
	ContractStatusRejected            ContractStatus = "rejected"             // 出借人已拒绝
	ContractStatusRequestExpired      ContractStatus = "request_expired"      // 请求超时失效
	ContractStatusCollateralSeen      ContractStatus = "collateral_seen"      // 已观察到抵押交易
	ContractStatusCollateralConfirmed ContractStatus = "collateral_confirmed" // 抵押交易已确认

	// 活跃阶段
	ContractStatusPrincipalGiven      ContractStatus = "principal_given"      // 本金已放款
	ContractStatusRepaymentProvided   ContractStatus = "repayment_provided"   // 借款人已还款
	ContractStatusRepaymentConfirmed  ContractStatus = "repayment_confirmed"  // 还款已确认
	ContractStatusUndercollateralized ContractStatus = "undercollateralized"  // 抵押不足
	ContractStatusDefaulted           ContractStatus = "defaulted"            // 已违约
	ContractStatusExtended            ContractStatus = "extended"             // 已续约（派生新合约）

	// 争议阶段
	ContractStatusDisputeBorrowerStarted  ContractStatus = "dispute_borrower_started"  // 借款人发起争议
	ContractStatusDisputeLenderStarted    ContractStatus = "dispute_lender_started"    // 出借人发起争议
	ContractStatusDisputeBorrowerResolved ContractStatus = "dispute_borrower_resolved" // 借款人方争议已解决
	ContractStatusDisputeLenderResolved   ContractStatus = "dispute_lender_resolved"   // 出借人方争议已解决

	// 终止阶段
	ContractStatusClosing   ContractStatus = "closing"   // 结算中（取回交易已广播）
	ContractStatusClosed    ContractStatus = "closed"    // 已关闭
	ContractStatusCancelled ContractStatus = "cancelled" // 已取消
)

// AllContractStatuses 全部合约状态，动作映射与状态表必须对其保持全覆盖
var AllContractStatuses = []ContractStatus{
	ContractStatusRequested,
	ContractStatusRenewalRequested,
	ContractStatusApproved,
	ContractStatusRejected,
	ContractStatusRequestExpired,
	ContractStatusCollateralSeen,
	ContractStatusCollateralConfirmed,
	ContractStatusPrincipalGiven,
	ContractStatusRepaymentProvided,
	ContractStatusRepaymentConfirmed,
	ContractStatusUndercollateralized,
	ContractStatusDefaulted,
	ContractStatusExtended,
	ContractStatusDisputeBorrowerStarted,
	ContractStatusDisputeLenderStarted,
	ContractStatusDisputeBorrowerResolved,
	ContractStatusDisputeLenderResolved,
	ContractStatusClosing,
	ContractStatusClosed,
	ContractStatusCancelled,
}

// IsTerminal 是否为终态
func (s ContractStatus) IsTerminal() bool {
	switch s {
	case ContractStatusClosed, ContractStatusCancelled,
		ContractStatusRejected, ContractStatusRequestExpired:
		return true
	}
	return false
}

// IsDispute 是否处于争议阶段
func (s ContractStatus) IsDispute() bool {
	switch s {
	case ContractStatusDisputeBorrowerStarted, ContractStatusDisputeLenderStarted,
		ContractStatusDisputeBorrowerResolved, ContractStatusDisputeLenderResolved:
		return true
	}
	return false
}

// IsInitial 是否为初始状态（普通请求或续约请求）
func (s ContractStatus) IsInitial() bool {
	return s == ContractStatusRequested || s == ContractStatusRenewalRequested
}
