package task

import (
	"github.com/go-co-op/gocron/v2"

	"github.com/blues/lcs/internal/config"
	"github.com/blues/lcs/internal/logger"
	"github.com/blues/lcs/internal/monitor"
)

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	monitor   *monitor.ContractMonitor
	config    *config.Config
}

// NewManager 创建新的任务管理器
func NewManager(contractMonitor *monitor.ContractMonitor, cfg *config.Config) *Manager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &Manager{
		scheduler: s,
		monitor:   contractMonitor,
		config:    cfg,
	}
}

// Start 启动任务管理器
func Start(contractMonitor *monitor.ContractMonitor, cfg *config.Config) *Manager {
	manager := NewManager(contractMonitor, cfg)

	// 注册所有任务
	manager.RegisterJobs()

	// 启动调度器
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
	return manager
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() {
	// 注册合约同步任务
	m.RegisterContractSyncJob()
}

// RegisterContractSyncJob 注册合约同步任务
func (m *Manager) RegisterContractSyncJob() {
	job := NewContractSyncJob(m.monitor, m.config)

	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
