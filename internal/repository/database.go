package repository

import (
	"fmt"

	"github.com/blues/lcs/internal/config"
	"github.com/blues/lcs/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// Init 打开本地 sqlite 快照库并迁移表结构。
// 后端才是权威数据源，这里只存轮询 diff 所需的缓存和审计记录。
func Init(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent), // 禁用 GORM 的默认日志输出
		NamingStrategy: &schema.NamingStrategy{
			SingularTable: true, // 禁用复数表名
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}

	// 自动迁移
	if err := db.AutoMigrate(
		&model.ContractSnapshot{},
		&model.TransitionEvent{},
		&model.HealthEvent{},
		&model.ClaimRecord{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}
