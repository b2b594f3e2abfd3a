package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/blues/lcs/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SnapshotRepository 合约快照与审计记录存取
type SnapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository 创建快照仓储
func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// GetSnapshot 读取某合约的上次快照，不存在时返回 nil
func (r *SnapshotRepository) GetSnapshot(contractID string) (*model.ContractSnapshot, error) {
	var snapshot model.ContractSnapshot
	err := r.db.Where("contract_id = ?", contractID).First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot for %s: %w", contractID, err)
	}
	return &snapshot, nil
}

// ListSnapshots 列出全部被跟踪的合约快照
func (r *SnapshotRepository) ListSnapshots() ([]model.ContractSnapshot, error) {
	var snapshots []model.ContractSnapshot
	if err := r.db.Find(&snapshots).Error; err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return snapshots, nil
}

// SaveSnapshot 以合约ID为键写入最新快照
func (r *SnapshotRepository) SaveSnapshot(contract *model.Contract) error {
	raw, err := json.Marshal(contract)
	if err != nil {
		return fmt.Errorf("failed to encode contract %s: %w", contract.ID, err)
	}

	snapshot := model.ContractSnapshot{
		ContractID:     contract.ID,
		Status:         contract.Status,
		CollateralSats: contract.CollateralSats,
		LoanAmount:     contract.LoanAmount,
		Expiry:         contract.Expiry,
		Raw:            string(raw),
	}

	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "contract_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "collateral_sats", "loan_amount", "expiry", "raw", "updated_at",
		}),
	}).Create(&snapshot).Error
}

// RecordTransition 记录一次观察到的状态变化
func (r *SnapshotRepository) RecordTransition(contractID string, from, to model.ContractStatus, legal bool) error {
	event := model.TransitionEvent{
		ContractID: contractID,
		FromStatus: from,
		ToStatus:   to,
		Legal:      legal,
		ObservedAt: time.Now().UTC(),
	}
	return r.db.Create(&event).Error
}

// RecordHealthChange 记录一次健康层级变化
func (r *SnapshotRepository) RecordHealthChange(contractID string, from, to model.LiquidationStatus, ltv, price float64, collateralSats int64) error {
	event := model.HealthEvent{
		ContractID:     contractID,
		FromTier:       from,
		ToTier:         to,
		LtvRatio:       ltv,
		BtcPrice:       price,
		CollateralSats: collateralSats,
		ObservedAt:     time.Now().UTC(),
	}
	return r.db.Create(&event).Error
}

// ListTransitions 按时间倒序列出某合约的状态变化记录
func (r *SnapshotRepository) ListTransitions(contractID string) ([]model.TransitionEvent, error) {
	var events []model.TransitionEvent
	err := r.db.Where("contract_id = ?", contractID).
		Order("observed_at desc").Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transitions for %s: %w", contractID, err)
	}
	return events, nil
}

// ListHealthEvents 按时间倒序列出某合约的健康变化记录
func (r *SnapshotRepository) ListHealthEvents(contractID string) ([]model.HealthEvent, error) {
	var events []model.HealthEvent
	err := r.db.Where("contract_id = ?", contractID).
		Order("observed_at desc").Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list health events for %s: %w", contractID, err)
	}
	return events, nil
}
