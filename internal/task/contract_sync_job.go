package task

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/blues/lcs/internal/config"
	"github.com/blues/lcs/internal/logger"
	"github.com/blues/lcs/internal/monitor"
)

// ContractSyncJob 合约同步任务：按秒级间隔轮询后端，diff 状态变化
type ContractSyncJob struct {
	monitor *monitor.ContractMonitor
	config  *config.Config
}

// NewContractSyncJob 创建合约同步任务
func NewContractSyncJob(contractMonitor *monitor.ContractMonitor, cfg *config.Config) *ContractSyncJob {
	return &ContractSyncJob{
		monitor: contractMonitor,
		config:  cfg,
	}
}

// GetName 获取任务名称
func (j *ContractSyncJob) GetName() string {
	return "contract_sync"
}

// GetSchedule 获取调度配置
func (j *ContractSyncJob) GetSchedule() gocron.JobDefinition {
	interval := j.config.Backend.PollIntervalSeconds
	if interval <= 0 {
		interval = 3
	}
	return gocron.DurationJob(time.Duration(interval) * time.Second)
}

// Execute 执行任务
func (j *ContractSyncJob) Execute() {
	timeout := time.Duration(j.config.Backend.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	j.monitor.Sweep(ctx)
	logger.Debug("Contract sync sweep completed")
}
