package sizing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput 抵押测算入参非法
var ErrInvalidInput = errors.New("invalid sizing input")

const satsPerBtc = 1e8

// Input 抵押测算入参
type Input struct {
	LoanAmount     float64 // 借款金额（USD）
	MinLTV         float64 // 报价允许的最低抵押率上限，(0,1]
	BtcPrice       float64 // 当前 BTC 价格（USD）
	InterestRate   float64 // 年化利率（小数）
	DurationDays   int     // 借款时长（天）
	OriginationFee float64 // 手续费比例（小数）
}

// Plan 抵押测算结果
type Plan struct {
	ActualInterest          float64 `json:"actual_interest"`             // 按时长折算后的利率
	TotalInterestUsd        float64 `json:"total_interest_usd"`          // 利息总额（USD）
	CollateralValueUsd      float64 `json:"collateral_value_usd"`        // 抵押价值（USD）
	CollateralSats          int64   `json:"collateral_sats"`             // 抵押数量（聪）
	OriginationFeeSats      int64   `json:"origination_fee_sats"`        // 手续费（聪）
	TotalValueToDepositSats int64   `json:"total_value_to_deposit_sats"` // 应存入总额（聪）
	TotalValueToDepositUsd  float64 `json:"total_value_to_deposit_usd"`  // 应存入总额（USD）
}

// Size 计算借款所需抵押、利息与应存入总额。
// 单利不复利，利率按 DurationDays/365 折算。纯函数，无副作用。
func Size(in Input) (*Plan, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	loanAmount := decimal.NewFromFloat(in.LoanAmount)
	btcPrice := decimal.NewFromFloat(in.BtcPrice)

	actualInterest := decimal.NewFromFloat(in.InterestRate).
		Mul(decimal.NewFromInt(int64(in.DurationDays))).
		Div(decimal.NewFromInt(365))
	totalInterestUsd := loanAmount.Mul(actualInterest)

	// 满足报价 LTV 上限所需的最小抵押价值
	collateralValueUsd := loanAmount.Div(decimal.NewFromFloat(in.MinLTV))

	collateralSats := collateralValueUsd.
		Div(btcPrice).
		Mul(decimal.NewFromInt(satsPerBtc)).
		Round(0).IntPart()
	originationFeeSats := decimal.NewFromInt(collateralSats).
		Mul(decimal.NewFromFloat(in.OriginationFee)).
		Round(0).IntPart()
	totalDepositSats := collateralSats + originationFeeSats

	totalDepositUsd := decimal.NewFromInt(totalDepositSats).
		Div(decimal.NewFromInt(satsPerBtc)).
		Mul(btcPrice)

	plan := &Plan{
		CollateralSats:          collateralSats,
		OriginationFeeSats:      originationFeeSats,
		TotalValueToDepositSats: totalDepositSats,
	}
	plan.ActualInterest, _ = actualInterest.Float64()
	plan.TotalInterestUsd, _ = totalInterestUsd.Float64()
	plan.CollateralValueUsd, _ = collateralValueUsd.Float64()
	plan.TotalValueToDepositUsd, _ = totalDepositUsd.Float64()

	return plan, nil
}

func validate(in Input) error {
	if in.BtcPrice <= 0 {
		return fmt.Errorf("%w: btc price must be positive, got %f", ErrInvalidInput, in.BtcPrice)
	}
	if in.MinLTV <= 0 || in.MinLTV > 1 {
		return fmt.Errorf("%w: min ltv must be in (0,1], got %f", ErrInvalidInput, in.MinLTV)
	}
	if in.DurationDays <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %d", ErrInvalidInput, in.DurationDays)
	}
	if in.LoanAmount <= 0 {
		return fmt.Errorf("%w: loan amount must be positive, got %f", ErrInvalidInput, in.LoanAmount)
	}
	if in.OriginationFee < 0 {
		return fmt.Errorf("%w: origination fee must not be negative, got %f", ErrInvalidInput, in.OriginationFee)
	}
	return nil
}
