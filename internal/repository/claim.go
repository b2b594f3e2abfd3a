package repository

import (
	"fmt"

	"github.com/blues/lcs/internal/model"
	"gorm.io/gorm"
)

// 取回记录状态
const (
	ClaimRecordPending   = "pending"
	ClaimRecordBroadcast = "broadcast"
	ClaimRecordFailed    = "failed"
	ClaimRecordAbandoned = "abandoned"
)

// ClaimRepository 取回流程结果记录存取
type ClaimRepository struct {
	db *gorm.DB
}

// NewClaimRepository 创建取回记录仓储
func NewClaimRepository(db *gorm.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

// CreateAttempt 登记一次新的取回尝试
func (r *ClaimRepository) CreateAttempt(attemptID, contractID, variant string, feeRate float64) error {
	record := model.ClaimRecord{
		AttemptID:  attemptID,
		ContractID: contractID,
		Variant:    variant,
		FeeRate:    feeRate,
		Status:     ClaimRecordPending,
	}
	return r.db.Create(&record).Error
}

// MarkBroadcast 广播成功，记录 txid
func (r *ClaimRepository) MarkBroadcast(attemptID, txid string) error {
	return r.update(attemptID, map[string]interface{}{
		"status": ClaimRecordBroadcast,
		"txid":   txid,
	})
}

// MarkFailed 流程失败，保留原始失败原因
func (r *ClaimRepository) MarkFailed(attemptID, reason string) error {
	return r.update(attemptID, map[string]interface{}{
		"status":      ClaimRecordFailed,
		"fail_reason": reason,
	})
}

// MarkAbandoned 用户在签名前放弃，无需回滚任何状态
func (r *ClaimRepository) MarkAbandoned(attemptID string) error {
	return r.update(attemptID, map[string]interface{}{
		"status": ClaimRecordAbandoned,
	})
}

func (r *ClaimRepository) update(attemptID string, updates map[string]interface{}) error {
	result := r.db.Model(&model.ClaimRecord{}).
		Where("attempt_id = ?", attemptID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update claim record %s: %w", attemptID, result.Error)
	}
	return nil
}

// ListByContract 按时间倒序列出某合约的取回尝试记录
func (r *ClaimRepository) ListByContract(contractID string) ([]model.ClaimRecord, error) {
	var records []model.ClaimRecord
	err := r.db.Where("contract_id = ?", contractID).
		Order("created_at desc").Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list claim records for %s: %w", contractID, err)
	}
	return records, nil
}
