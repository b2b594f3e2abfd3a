package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/blues/lcs/internal/backend"
	"github.com/blues/lcs/internal/claim"
	"github.com/blues/lcs/internal/config"
	"github.com/blues/lcs/internal/logger"
	"github.com/blues/lcs/internal/logic"
	"github.com/blues/lcs/internal/monitor"
	"github.com/blues/lcs/internal/pricefeed"
	"github.com/blues/lcs/internal/repository"
	"github.com/blues/lcs/internal/router"
	"github.com/blues/lcs/internal/task"
	"github.com/blues/lcs/internal/wallet"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	if cfg.Log.Output == "file" {
		fileLogger, err := logger.NewWithFileRotation(logger.ParseLogLevel(cfg.Log.Level), cfg.Log.File)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		logger.SetDefaultLogger(fileLogger)
	}

	// 校验清算阈值
	if err := cfg.Risk.Validate(); err != nil {
		logger.Fatal("Invalid risk thresholds: %v", err)
	}

	// 初始化本地快照库
	db, err := repository.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化后端客户端
	backendClient, err := backend.Init(cfg.Backend)
	if err != nil {
		logger.Fatal("Failed to initialize backend client: %v", err)
	}

	// 初始化钱包客户端
	walletClient, err := wallet.Init(cfg.Wallet)
	if err != nil {
		logger.Fatal("Failed to initialize wallet client: %v", err)
	}

	// 初始化价格源
	feed, err := pricefeed.Init(cfg.PriceFeed)
	if err != nil {
		logger.Fatal("Failed to initialize price feed: %v", err)
	}

	// 初始化合约监控器
	snapshotRepo := repository.NewSnapshotRepository(db)
	contractMonitor, err := monitor.NewContractMonitor(backendClient, snapshotRepo, cfg.Risk)
	if err != nil {
		logger.Fatal("Failed to initialize contract monitor: %v", err)
	}
	if err := contractMonitor.Start(); err != nil {
		logger.Fatal("Failed to start contract monitor: %v", err)
	}
	feed.Subscribe(contractMonitor.OnPriceTick)
	feed.Start()

	// 初始化取回流程编排器
	verifier, err := claim.NewVerifier(cfg.Claim.Network, cfg.Claim.FeeRateTolerance)
	if err != nil {
		logger.Fatal("Failed to initialize claim verifier: %v", err)
	}
	claimRepo := repository.NewClaimRepository(db)
	claimManager := claim.NewManager(backendClient, walletClient, claimRepo, verifier)

	// 业务逻辑
	contractLogic := logic.NewContractLogic(backendClient, contractMonitor, feed, cfg.Risk)
	claimLogic := logic.NewClaimLogic(backendClient, claimManager, claimRepo)
	disputeLogic := logic.NewDisputeLogic(backendClient)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(contractLogic, claimLogic, disputeLogic)

	// 启动定时任务
	task.Start(contractMonitor, cfg)

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
