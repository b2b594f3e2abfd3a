package model

import "time"

// DisputeStatus 争议状态
type DisputeStatus string

const (
	DisputeStatusStartedBorrower  DisputeStatus = "started_borrower"  // 借款人已发起
	DisputeStatusStartedLender    DisputeStatus = "started_lender"    // 出借人已发起
	DisputeStatusResolvedBorrower DisputeStatus = "resolved_borrower" // 借款人方已解决
	DisputeStatusResolvedLender   DisputeStatus = "resolved_lender"   // 出借人方已解决
)

// IsResolved 争议是否已解决（对争议本身而言为终态）
func (s DisputeStatus) IsResolved() bool {
	return s == DisputeStatusResolvedBorrower || s == DisputeStatusResolvedLender
}

// Dispute 争议记录，生命周期独立，但会限制父合约的争议阶段状态
type Dispute struct {
	ID         string        `json:"id"`
	ContractID string        `json:"contract_id"`
	BorrowerID string        `json:"borrower_id"`
	LenderID   string        `json:"lender_id"`
	Comment    string        `json:"comment"`
	Status     DisputeStatus `json:"status"`

	// 解决后的分账（聪）
	LenderPayoutSats   *int64 `json:"lender_payout_sats,omitempty"`
	BorrowerPayoutSats *int64 `json:"borrower_payout_sats,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
