package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/blues/lcs/internal/lifecycle"
	"github.com/blues/lcs/internal/logger"
	"github.com/blues/lcs/internal/model"
	"github.com/blues/lcs/internal/pricefeed"
	"github.com/blues/lcs/internal/repository"
	"github.com/blues/lcs/internal/risk"
)

// ContractSource 合约快照来源（权威后端）
type ContractSource interface {
	GetContract(ctx context.Context, contractID string) (*model.Contract, error)
}

// ContractMonitor 合约监控器。周期性拉取被跟踪合约的快照，按状态 diff，
// 用状态表校验每一次观察到的跳变；每次价格变化重算抵押健康层级。
// 新拉到的状态永远是权威的，本地乐观状态一律丢弃。
type ContractMonitor struct {
	source     ContractSource
	repo       *repository.SnapshotRepository
	thresholds risk.Thresholds
	pool       *ants.Pool

	mu       sync.RWMutex
	tracked  map[string]bool
	lastTier map[string]model.LiquidationStatus

	priceMu   sync.RWMutex
	lastPrice float64
}

// NewContractMonitor 创建合约监控器
func NewContractMonitor(source ContractSource, repo *repository.SnapshotRepository, thresholds risk.Thresholds) (*ContractMonitor, error) {
	pool, err := ants.NewPool(8)
	if err != nil {
		return nil, err
	}

	return &ContractMonitor{
		source:     source,
		repo:       repo,
		thresholds: thresholds,
		pool:       pool,
		tracked:    make(map[string]bool),
		lastTier:   make(map[string]model.LiquidationStatus),
	}, nil
}

// Start 从本地快照库恢复跟踪列表
func (m *ContractMonitor) Start() error {
	snapshots, err := m.repo.ListSnapshots()
	if err != nil {
		return err
	}

	m.mu.Lock()
	for _, s := range snapshots {
		if !s.Status.IsTerminal() {
			m.tracked[s.ContractID] = true
		}
	}
	count := len(m.tracked)
	m.mu.Unlock()

	logger.Info("Contract monitor started, tracking %d contracts", count)
	return nil
}

// Stop 释放协程池
func (m *ContractMonitor) Stop() {
	m.pool.Release()
	logger.Info("Contract monitor stopped")
}

// Track 开始跟踪一个合约
func (m *ContractMonitor) Track(contractID string) {
	m.mu.Lock()
	m.tracked[contractID] = true
	m.mu.Unlock()
}

// Untrack 停止跟踪一个合约
func (m *ContractMonitor) Untrack(contractID string) {
	m.mu.Lock()
	delete(m.tracked, contractID)
	delete(m.lastTier, contractID)
	m.mu.Unlock()
}

// Tracked 当前跟踪的合约ID列表
func (m *ContractMonitor) Tracked() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.tracked))
	for id := range m.tracked {
		ids = append(ids, id)
	}
	return ids
}

// Sweep 对所有被跟踪的合约做一轮同步，由调度器周期触发
func (m *ContractMonitor) Sweep(ctx context.Context) {
	ids := m.Tracked()
	if len(ids) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		contractID := id
		wg.Add(1)
		err := m.pool.Submit(func() {
			defer wg.Done()
			m.syncContract(ctx, contractID)
		})
		if err != nil {
			wg.Done()
			logger.Error("Failed to submit sync task for %s: %v", contractID, err)
		}
	}
	wg.Wait()
}

// OnPriceTick 价格变化回调：对所有被跟踪合约重算健康层级
func (m *ContractMonitor) OnPriceTick(tick pricefeed.Tick) {
	m.priceMu.Lock()
	m.lastPrice = tick.Price
	m.priceMu.Unlock()

	snapshots, err := m.repo.ListSnapshots()
	if err != nil {
		logger.Error("Failed to list snapshots on price tick: %v", err)
		return
	}

	for _, s := range snapshots {
		m.mu.RLock()
		watched := m.tracked[s.ContractID]
		m.mu.RUnlock()
		if !watched {
			continue
		}
		m.assessHealth(s.ContractID, s.CollateralSats, s.LoanAmount, tick.Price)
	}
}

// LastPrice 最近一次价格观测，尚无报价时返回0
func (m *ContractMonitor) LastPrice() float64 {
	m.priceMu.RLock()
	defer m.priceMu.RUnlock()
	return m.lastPrice
}

// syncContract 同步单个合约：拉取、diff、校验、落库
func (m *ContractMonitor) syncContract(ctx context.Context, contractID string) {
	contract, err := m.source.GetContract(ctx, contractID)
	if err != nil {
		logger.Error("Failed to fetch contract %s: %v", contractID, err)
		return
	}

	previous, err := m.repo.GetSnapshot(contractID)
	if err != nil {
		logger.Error("Failed to load snapshot for %s: %v", contractID, err)
		return
	}

	if previous != nil && previous.Status != contract.Status {
		m.handleTransition(contractID, previous.Status, contract.Status)
	}

	if err := m.repo.SaveSnapshot(contract); err != nil {
		logger.Error("Failed to save snapshot for %s: %v", contractID, err)
	}

	if price := m.LastPrice(); price > 0 {
		m.assessHealth(contractID, contract.CollateralSats, contract.LoanAmount, price)
	}

	// 终态合约不再跟踪
	if contract.Status.IsTerminal() {
		m.Untrack(contractID)
		logger.Info("Contract %s reached terminal status %s, untracked", contractID, contract.Status)
	}
}

// handleTransition 校验并记录一次观察到的状态跳变。
// 非法跳变只告警并落库，绝不中断：后端数据是权威的，
// 这里的职责是把数据完整性问题暴露出来而不是掩盖。
func (m *ContractMonitor) handleTransition(contractID string, from, to model.ContractStatus) {
	err := lifecycle.ValidateTransition(from, to)
	legal := err == nil

	if errors.Is(err, lifecycle.ErrIllegalTransition) {
		logger.Warn("Data integrity warning: contract %s observed illegal transition %s -> %s",
			contractID, from, to)
	} else if legal {
		logger.Info("Contract %s transitioned %s -> %s", contractID, from, to)
	}

	if err := m.repo.RecordTransition(contractID, from, to, legal); err != nil {
		logger.Error("Failed to record transition for %s: %v", contractID, err)
	}
}

// assessHealth 重算健康层级并记录变化
func (m *ContractMonitor) assessHealth(contractID string, collateralSats int64, loanAmount, price float64) {
	if loanAmount <= 0 {
		return
	}

	assessment, err := risk.Classify(collateralSats, loanAmount, price, m.thresholds)
	if err != nil {
		logger.Error("Failed to classify contract %s: %v", contractID, err)
		return
	}

	m.mu.Lock()
	previous, seen := m.lastTier[contractID]
	m.lastTier[contractID] = assessment.Status
	m.mu.Unlock()

	if seen && previous == assessment.Status {
		return
	}

	if assessment.Status == model.LiquidationStatusFirstMarginCall ||
		assessment.Status == model.LiquidationStatusSecondMarginCall {
		logger.Warn("Margin call for contract %s: tier %s, ltv %.4f at price %.2f",
			contractID, assessment.Status, assessment.LtvRatio, price)
	} else if assessment.Status == model.LiquidationStatusLiquidated {
		logger.Warn("Contract %s hit liquidation threshold: ltv %.4f at price %.2f",
			contractID, assessment.LtvRatio, price)
	}

	if err := m.repo.RecordHealthChange(contractID, previous, assessment.Status,
		assessment.LtvRatio, price, collateralSats); err != nil {
		logger.Error("Failed to record health change for %s: %v", contractID, err)
	}
}

// Transitions 某合约观察到的状态变化记录
func (m *ContractMonitor) Transitions(contractID string) ([]model.TransitionEvent, error) {
	return m.repo.ListTransitions(contractID)
}

// HealthHistory 某合约的健康层级变化记录
func (m *ContractMonitor) HealthHistory(contractID string) ([]model.HealthEvent, error) {
	return m.repo.ListHealthEvents(contractID)
}

// SnapshotContract 从本地快照还原完整合约，用于展示层兜底
func (m *ContractMonitor) SnapshotContract(contractID string) (*model.Contract, error) {
	snapshot, err := m.repo.GetSnapshot(contractID)
	if err != nil || snapshot == nil {
		return nil, err
	}
	var contract model.Contract
	if err := json.Unmarshal([]byte(snapshot.Raw), &contract); err != nil {
		return nil, err
	}
	return &contract, nil
}
