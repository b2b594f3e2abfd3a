package model

// OriginationFee 借款手续费表条目，区间为月份半开区间 [FromMonth, ToMonth)
type OriginationFee struct {
	FromMonth int     `json:"from_month"`
	ToMonth   int     `json:"to_month"`
	Fee       float64 `json:"fee"` // 手续费比例（小数）
}
