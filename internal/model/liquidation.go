package model

// LiquidationStatus 抵押健康状态，由 LTV 和清算阈值推导，不落库
type LiquidationStatus string

const (
	LiquidationStatusIndeterminate    LiquidationStatus = "indeterminate"      // 未注资，无法计算
	LiquidationStatusHealthy          LiquidationStatus = "healthy"            // 健康
	LiquidationStatusFirstMarginCall  LiquidationStatus = "first_margin_call"  // 第一次追加保证金通知
	LiquidationStatusSecondMarginCall LiquidationStatus = "second_margin_call" // 第二次追加保证金通知
	LiquidationStatusLiquidated       LiquidationStatus = "liquidated"         // 已达清算线
)

// 健康层级排序，Healthy < FirstMarginCall < SecondMarginCall < Liquidated
var liquidationTierOrder = map[LiquidationStatus]int{
	LiquidationStatusHealthy:          0,
	LiquidationStatusFirstMarginCall:  1,
	LiquidationStatusSecondMarginCall: 2,
	LiquidationStatusLiquidated:       3,
}

// Tier 返回层级序号，Indeterminate 返回 -1
func (s LiquidationStatus) Tier() int {
	if tier, ok := liquidationTierOrder[s]; ok {
		return tier
	}
	return -1
}
