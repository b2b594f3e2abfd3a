package config

import (
	"github.com/blues/lcs/internal/logger"
	"github.com/blues/lcs/internal/risk"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	PriceFeed PriceFeedConfig `mapstructure:"pricefeed"`
	Risk      risk.Thresholds `mapstructure:"risk"`
	Claim     ClaimConfig     `mapstructure:"claim"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 本地 sqlite 快照库配置
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// BackendConfig 权威后端配置
type BackendConfig struct {
	BaseURL             string `mapstructure:"base_url"`
	TimeoutSeconds      int    `mapstructure:"timeout_seconds"`
	PollIntervalSeconds int    `mapstructure:"poll_interval_seconds"` // 合约轮询间隔（秒）
}

// WalletConfig 外部钱包签名服务配置。密钥托管与签名细节对本服务不可见。
type WalletConfig struct {
	RPCURL         string `mapstructure:"rpc_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// PriceFeedConfig 实时价格源配置
type PriceFeedConfig struct {
	URL             string `mapstructure:"url"`
	Asset           string `mapstructure:"asset"`
	Currency        string `mapstructure:"currency"`
	IntervalSeconds int    `mapstructure:"interval_seconds"`
}

// ClaimConfig 取回流程配置
type ClaimConfig struct {
	Network          string  `mapstructure:"network"`            // mainnet, testnet, regtest
	FeeRateTolerance float64 `mapstructure:"fee_rate_tolerance"` // 费率偏差容忍度（比例）
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/lcs")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.path", "lcs.db")
	viper.SetDefault("backend.timeout_seconds", 15)
	viper.SetDefault("backend.poll_interval_seconds", 3)
	viper.SetDefault("wallet.timeout_seconds", 30)
	viper.SetDefault("pricefeed.asset", "BTC")
	viper.SetDefault("pricefeed.currency", "USD")
	viper.SetDefault("pricefeed.interval_seconds", 5)
	// 追保/清算默认阈值，后端未按报价下发时使用
	viper.SetDefault("risk.first_margin_call", 0.70)
	viper.SetDefault("risk.second_margin_call", 0.80)
	viper.SetDefault("risk.liquidation", 0.90)
	viper.SetDefault("claim.network", "mainnet")
	viper.SetDefault("claim.fee_rate_tolerance", 0.25)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
