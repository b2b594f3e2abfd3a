package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/blues/lcs/internal/backend"
	"github.com/blues/lcs/internal/fee"
	"github.com/blues/lcs/internal/lifecycle"
	"github.com/blues/lcs/internal/model"
	"github.com/blues/lcs/internal/monitor"
	"github.com/blues/lcs/internal/pricefeed"
	"github.com/blues/lcs/internal/risk"
	"github.com/blues/lcs/internal/sizing"
)

var (
	// ErrNoPrice 价格源尚未就绪
	ErrNoPrice = errors.New("no live price available yet")
	// ErrInvalidInput 请求参数非法，在任何网络调用之前拒绝
	ErrInvalidInput = errors.New("invalid input")
)

// ContractView 合约快照加上引擎推导出的视图字段
type ContractView struct {
	Contract          *model.Contract         `json:"contract"`
	LtvRatio          float64                 `json:"ltv_ratio"`
	LiquidationStatus model.LiquidationStatus `json:"liquidation_status"`
	LiquidationPrice  float64                 `json:"liquidation_price"`
	BtcPrice          float64                 `json:"btc_price"`
	AvailableActions  []lifecycle.Action      `json:"available_actions"`
}

// ContractLogic 合约业务逻辑
type ContractLogic struct {
	backend    *backend.Client
	monitor    *monitor.ContractMonitor
	feed       *pricefeed.Feed
	thresholds risk.Thresholds
}

// NewContractLogic 创建合约业务逻辑
func NewContractLogic(client *backend.Client, contractMonitor *monitor.ContractMonitor, feed *pricefeed.Feed, thresholds risk.Thresholds) *ContractLogic {
	return &ContractLogic{
		backend:    client,
		monitor:    contractMonitor,
		feed:       feed,
		thresholds: thresholds,
	}
}

// GetContract 拉取合约快照并补全推导字段。
// liquidation_status 永远是 (抵押, 借款额, 实时价格) 的纯函数，
// 不独立存储，每次展示现算。
func (l *ContractLogic) GetContract(ctx context.Context, contractID string) (*ContractView, error) {
	contract, err := l.backend.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}

	view := &ContractView{
		Contract:          contract,
		LiquidationStatus: model.LiquidationStatusIndeterminate,
		AvailableActions:  lifecycle.AvailableActions(contract),
	}

	if tick := l.feed.Last(); tick != nil && contract.LoanAmount > 0 {
		view.BtcPrice = tick.Price
		assessment, err := risk.Classify(contract.CollateralSats, contract.LoanAmount, tick.Price, l.thresholds)
		if err != nil {
			return nil, fmt.Errorf("failed to assess contract health: %w", err)
		}
		view.LtvRatio = assessment.LtvRatio
		view.LiquidationStatus = assessment.Status

		if contract.CollateralSats > 0 {
			price, err := risk.LiquidationPrice(contract.CollateralSats, contract.LoanAmount, l.thresholds)
			if err == nil {
				view.LiquidationPrice = price
			}
		}
	}

	return view, nil
}

// CreateContract 发起借款请求并开始跟踪
func (l *ContractLogic) CreateContract(ctx context.Context, req backend.CreateContractRequest) (*model.Contract, error) {
	if req.LoanAmount <= 0 || req.DurationDays <= 0 {
		return nil, fmt.Errorf("%w: loan amount and duration must be positive", ErrInvalidInput)
	}
	if req.BorrowerPk == "" || req.BorrowerBtcAddress == "" {
		return nil, fmt.Errorf("%w: borrower pubkey and refund address are required", ErrInvalidInput)
	}

	contract, err := l.backend.CreateContract(ctx, req)
	if err != nil {
		return nil, err
	}

	l.monitor.Track(contract.ID)
	return contract, nil
}

// CancelContract 取消借款请求。状态机约束：仅 Requested / RenewalRequested 可取消。
func (l *ContractLogic) CancelContract(ctx context.Context, contractID string) error {
	contract, err := l.backend.GetContract(ctx, contractID)
	if err != nil {
		return err
	}

	if !lifecycle.CanCancel(contract) {
		return fmt.Errorf("%w: %s -> %s", lifecycle.ErrIllegalTransition,
			contract.Status, model.ContractStatusCancelled)
	}

	return l.backend.CancelContract(ctx, contractID)
}

// MarkInstallmentPaid 登记一笔分期还款
func (l *ContractLogic) MarkInstallmentPaid(ctx context.Context, contractID, installmentID, paymentReference string) error {
	if installmentID == "" {
		return fmt.Errorf("%w: installment id is required", ErrInvalidInput)
	}
	return l.backend.MarkInstallmentPaid(ctx, contractID, installmentID, paymentReference)
}

// ContractHistory 本地审计到的某合约状态与健康变化记录
type ContractHistory struct {
	Transitions  []model.TransitionEvent `json:"transitions"`
	HealthEvents []model.HealthEvent     `json:"health_events"`
}

// GetContractHistory 列出监控器落库的状态跳变与健康层级变化
func (l *ContractLogic) GetContractHistory(contractID string) (*ContractHistory, error) {
	transitions, err := l.monitor.Transitions(contractID)
	if err != nil {
		return nil, err
	}
	healthEvents, err := l.monitor.HealthHistory(contractID)
	if err != nil {
		return nil, err
	}
	return &ContractHistory{Transitions: transitions, HealthEvents: healthEvents}, nil
}

// QuoteInput 报价测算入参
type QuoteInput struct {
	LoanAmount   float64                `json:"loan_amount"`
	MinLTV       float64                `json:"min_ltv"`
	InterestRate float64                `json:"interest_rate"`
	DurationDays int                    `json:"duration_days"`
	FeeTable     []model.OriginationFee `json:"fee_table"`
}

// Quote 按当前实时价格测算一笔报价所需的抵押与费用。
// 价格源未就绪时直接拒绝，不允许用过期或缺失的价格下单。
func (l *ContractLogic) Quote(in QuoteInput) (*sizing.Plan, error) {
	tick := l.feed.Last()
	if tick == nil {
		return nil, ErrNoPrice
	}

	originationFee := fee.Resolve(in.FeeTable, in.DurationDays)
	return sizing.Size(sizing.Input{
		LoanAmount:     in.LoanAmount,
		MinLTV:         in.MinLTV,
		BtcPrice:       tick.Price,
		InterestRate:   in.InterestRate,
		DurationDays:   in.DurationDays,
		OriginationFee: originationFee,
	})
}
