package database

import (
	"fmt"

	"github.com/wfunc/scoresheet/internal/logger"
	"github.com/wfunc/scoresheet/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models 需要迁移的模型
func Models() []interface{} {
	return []interface{}{
		&models.Game{},
		&models.Move{},
	}
}

// AutoMigrate 迁移全局数据库
func AutoMigrate() error {
	return Migrate(DB)
}

// Migrate 自动迁移表结构并创建索引
func Migrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("数据库未初始化")
	}

	// 文件数据库加锁，避免服务端和命令行同时迁移
	if path := dbFilePath(db); path != "" {
		lockFile, err := acquireMigrationLock(path)
		if err != nil {
			logger.Error("无法获取迁移锁", zap.Error(err))
			return fmt.Errorf("获取迁移锁失败: %w", err)
		}
		defer releaseMigrationLock(lockFile)
	}

	logger.Info("开始数据库迁移...")
	for _, model := range Models() {
		if err := db.AutoMigrate(model); err != nil {
			logger.Error("迁移失败",
				zap.String("model", fmt.Sprintf("%T", model)),
				zap.Error(err),
			)
			return err
		}
	}

	if err := createIndexes(db); err != nil {
		return err
	}

	logger.Info("数据库迁移完成")
	return nil
}

// createIndexes 创建结构体标签之外的索引
func createIndexes(db *gorm.DB) error {
	indexes := map[string]string{
		"idx_games_created_at_desc": "CREATE INDEX IF NOT EXISTS idx_games_created_at_desc ON games(created_at DESC)",
		"idx_moves_game_id_id":      "CREATE INDEX IF NOT EXISTS idx_moves_game_id_id ON moves(game_id, id)",
	}
	for name, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			logger.Warn("创建索引失败", zap.String("index", name), zap.Error(err))
		}
	}
	return nil
}
