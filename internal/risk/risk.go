package risk

import (
	"errors"
	"fmt"

	"github.com/blues/lcs/internal/model"
	"github.com/shopspring/decimal"
)

// ErrInvalidInput 健康度计算入参非法
var ErrInvalidInput = errors.New("invalid risk input")

const satsPerBtc = 1e8

// Thresholds 追加保证金与清算阈值（LTV 比例）。
// 来自配置或报价条款，不在代码里写死。
type Thresholds struct {
	FirstMarginCall  float64 `mapstructure:"first_margin_call"`
	SecondMarginCall float64 `mapstructure:"second_margin_call"`
	Liquidation      float64 `mapstructure:"liquidation"`
}

// DefaultThresholds 平台默认阈值 70%/80%/90%
func DefaultThresholds() Thresholds {
	return Thresholds{
		FirstMarginCall:  0.70,
		SecondMarginCall: 0.80,
		Liquidation:      0.90,
	}
}

// Validate 阈值必须为严格递增的正数
func (t Thresholds) Validate() error {
	if t.FirstMarginCall <= 0 || t.FirstMarginCall >= t.SecondMarginCall || t.SecondMarginCall >= t.Liquidation {
		return fmt.Errorf("%w: thresholds must be ascending positives: %f/%f/%f",
			ErrInvalidInput, t.FirstMarginCall, t.SecondMarginCall, t.Liquidation)
	}
	return nil
}

// Assessment 一次健康度评估结果
type Assessment struct {
	LtvRatio float64                 `json:"ltv_ratio"`
	Status   model.LiquidationStatus `json:"status"`
}

// Classify 由当前抵押、借款金额和实时价格计算 LTV 并归类健康层级。
// 纯函数：相同入参必然得到相同结果，每次价格或抵押变化都会重算。
// 未注资（collateralSats == 0）返回 Indeterminate，这是一个对调用方
// 可见的独立状态，不是错误，也绝不能当作 Healthy。
func Classify(collateralSats int64, loanAmountUsd, btcPrice float64, thresholds Thresholds) (Assessment, error) {
	if collateralSats < 0 {
		return Assessment{}, fmt.Errorf("%w: collateral must not be negative, got %d", ErrInvalidInput, collateralSats)
	}
	if btcPrice <= 0 {
		return Assessment{}, fmt.Errorf("%w: btc price must be positive, got %f", ErrInvalidInput, btcPrice)
	}
	if loanAmountUsd <= 0 {
		return Assessment{}, fmt.Errorf("%w: loan amount must be positive, got %f", ErrInvalidInput, loanAmountUsd)
	}
	if err := thresholds.Validate(); err != nil {
		return Assessment{}, err
	}

	if collateralSats == 0 {
		return Assessment{Status: model.LiquidationStatusIndeterminate}, nil
	}

	collateralValue := decimal.NewFromInt(collateralSats).
		Div(decimal.NewFromInt(satsPerBtc)).
		Mul(decimal.NewFromFloat(btcPrice))
	ltv, _ := decimal.NewFromFloat(loanAmountUsd).Div(collateralValue).Float64()

	return Assessment{LtvRatio: ltv, Status: tierOf(ltv, thresholds)}, nil
}

// tierOf 层级下界均为闭区间：[first, second) 为第一次追保，
// [second, liquidation) 为第二次追保，>= liquidation 为清算。
func tierOf(ltv float64, t Thresholds) model.LiquidationStatus {
	switch {
	case ltv >= t.Liquidation:
		return model.LiquidationStatusLiquidated
	case ltv >= t.SecondMarginCall:
		return model.LiquidationStatusSecondMarginCall
	case ltv >= t.FirstMarginCall:
		return model.LiquidationStatusFirstMarginCall
	default:
		return model.LiquidationStatusHealthy
	}
}

// LiquidationPrice 计算触及清算线的 BTC 价格。
// price = loan / (collateral_btc * liquidation_threshold)
func LiquidationPrice(collateralSats int64, loanAmountUsd float64, thresholds Thresholds) (float64, error) {
	if collateralSats <= 0 {
		return 0, fmt.Errorf("%w: collateral must be positive, got %d", ErrInvalidInput, collateralSats)
	}
	if loanAmountUsd <= 0 {
		return 0, fmt.Errorf("%w: loan amount must be positive, got %f", ErrInvalidInput, loanAmountUsd)
	}
	if err := thresholds.Validate(); err != nil {
		return 0, err
	}

	price, _ := decimal.NewFromFloat(loanAmountUsd).
		Div(decimal.NewFromInt(collateralSats).
			Div(decimal.NewFromInt(satsPerBtc)).
			Mul(decimal.NewFromFloat(thresholds.Liquidation))).
		Float64()
	return price, nil
}
