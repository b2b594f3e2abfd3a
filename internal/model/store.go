package model

import (
	"time"

	"gorm.io/gorm"
)

// ContractSnapshot 本地合约快照，用于轮询 diff 与重启恢复。
// 后端为权威数据源，本表只是缓存。
type ContractSnapshot struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	ContractID     string         `json:"contract_id" gorm:"uniqueIndex;not null"`
	Status         ContractStatus `json:"status" gorm:"not null"`
	CollateralSats int64          `json:"collateral_sats"`
	LoanAmount     float64        `json:"loan_amount"`
	Expiry         time.Time      `json:"expiry"`
	Raw            string         `json:"raw" gorm:"type:text"` // 完整快照 JSON
}

// TransitionEvent 观察到的合约状态变化记录
type TransitionEvent struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	ContractID string         `json:"contract_id" gorm:"index;not null"`
	FromStatus ContractStatus `json:"from_status" gorm:"not null"`
	ToStatus   ContractStatus `json:"to_status" gorm:"not null"`
	Legal      bool           `json:"legal"` // false 表示状态表之外的非法跳变，数据完整性告警
	ObservedAt time.Time      `json:"observed_at"`
}

// HealthEvent 抵押健康层级变化记录
type HealthEvent struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	ContractID     string            `json:"contract_id" gorm:"index;not null"`
	FromTier       LiquidationStatus `json:"from_tier"`
	ToTier         LiquidationStatus `json:"to_tier" gorm:"not null"`
	LtvRatio       float64           `json:"ltv_ratio"`
	BtcPrice       float64           `json:"btc_price"`
	CollateralSats int64             `json:"collateral_sats"`
	ObservedAt     time.Time         `json:"observed_at"`
}

// ClaimRecord 取回流程结果记录。只存元数据，PSBT 本身从不落库。
type ClaimRecord struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	AttemptID  string  `json:"attempt_id" gorm:"uniqueIndex;not null"`
	ContractID string  `json:"contract_id" gorm:"index;not null"`
	Variant    string  `json:"variant" gorm:"not null"` // claim / recover
	FeeRate    float64 `json:"fee_rate"`
	Txid       string  `json:"txid"`
	Status     string  `json:"status" gorm:"default:'pending'"` // pending, broadcast, failed, abandoned
	FailReason string  `json:"fail_reason" gorm:"type:text"`
}
