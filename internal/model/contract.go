package model

import (
	"time"
)

// Profile 借贷双方的用户信息
type Profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LoanAsset 借款资产类型（法币或稳定币+链）
type LoanAsset string

const (
	LoanAssetUSD          LoanAsset = "USD"           // 美元（法币）
	LoanAssetEUR          LoanAsset = "EUR"           // 欧元（法币）
	LoanAssetUSDTEthereum LoanAsset = "USDT_ETHEREUM" // USDT (Ethereum)
	LoanAssetUSDCEthereum LoanAsset = "USDC_ETHEREUM" // USDC (Ethereum)
	LoanAssetUSDTTron     LoanAsset = "USDT_TRON"     // USDT (Tron)
)

// IsFiat 是否为法币资产
func (a LoanAsset) IsFiat() bool {
	return a == LoanAssetUSD || a == LoanAssetEUR
}

// InstallmentStatus 还款分期状态
type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "pending" // 待还款
	InstallmentStatusPaid    InstallmentStatus = "paid"    // 已还款
)

// Installment 还款分期
type Installment struct {
	ID               string            `json:"id"`
	DueDate          time.Time         `json:"due_date"`
	Status           InstallmentStatus `json:"status"`
	PaymentReference string            `json:"payment_reference,omitempty"`
}

// Contract 借贷合约快照（后端为权威数据源，本服务只读镜像）
type Contract struct {
	ID string `json:"id"`

	// 参与方
	Lender   Profile `json:"lender"`
	Borrower Profile `json:"borrower"`

	// 借款条款
	LoanAmount   float64   `json:"loan_amount"`
	DurationDays int       `json:"duration_days"`
	InterestRate float64   `json:"interest_rate"` // 年化利率（小数）
	LoanAsset    LoanAsset `json:"loan_asset"`

	// 抵押信息
	InitialCollateralSats  int64   `json:"initial_collateral_sats"`
	CollateralSats         int64   `json:"collateral_sats"` // 当前抵押，未注资前为0
	OriginationFeeSats     int64   `json:"origination_fee_sats"`
	InitialLTV             float64 `json:"initial_ltv"`
	LiquidationPrice       float64 `json:"liquidation_price"`
	ContractAddress        string  `json:"contract_address"` // 2-of-3 多签托管地址
	BorrowerBtcAddress     string  `json:"borrower_btc_address"`
	BorrowerPk             string  `json:"borrower_pk"`
	BorrowerDerivationPath string  `json:"borrower_derivation_path"`

	// 还款信息
	LoanRepaymentAddress string        `json:"loan_repayment_address"`
	Installments         []Installment `json:"installments"`

	// 收款方式（法币放款时由借款人提供）
	FiatPayoutDetails string `json:"fiat_payout_details,omitempty"`

	// 状态
	Status ContractStatus `json:"status"`

	// 时间信息
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Expiry    time.Time  `json:"expiry"`
	RepaidAt  *time.Time `json:"repaid_at,omitempty"`

	// 续约链（双向最多各一条）
	ExtendsContract    string `json:"extends_contract,omitempty"`
	ExtendedByContract string `json:"extended_by_contract,omitempty"`
}

// IsExpired 合约是否已过期
func (c *Contract) IsExpired(now time.Time) bool {
	return !c.Expiry.IsZero() && now.After(c.Expiry)
}

// HasFiatPayoutDetails 是否已提供法币收款信息
func (c *Contract) HasFiatPayoutDetails() bool {
	return c.FiatPayoutDetails != ""
}
