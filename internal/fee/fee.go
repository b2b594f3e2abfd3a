package fee

import (
	"github.com/blues/lcs/internal/model"
)

// DefaultFee 无匹配区间时的默认手续费比例（1%）
const DefaultFee = 0.01

// 费率表以月为刻度，借款时长按30天折算为月
const daysPerMonth = 30

// Resolve 从费率表解析指定借款时长适用的手续费比例。
// 条目满足 FromMonth <= 月数 < ToMonth 即为相关，多条相关时取最低费率
// （对借款人最优），无相关条目时返回 DefaultFee。
func Resolve(table []model.OriginationFee, durationDays int) float64 {
	months := float64(durationDays) / daysPerMonth

	best := -1.0
	for _, entry := range table {
		if months < float64(entry.FromMonth) || months >= float64(entry.ToMonth) {
			continue
		}
		if best < 0 || entry.Fee < best {
			best = entry.Fee
		}
	}

	if best < 0 {
		return DefaultFee
	}
	return best
}
