package repository

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/scoresheet/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB 创建内存数据库并迁移表结构
func SetupTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(err)
	}
	// 内存库每个连接各自独立，只保留一个连接
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&models.Game{}, &models.Move{}); err != nil {
		panic(err)
	}
	return db
}

// CleanupTestDB 关闭测试数据库
func CleanupTestDB(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

// CreateTestGame 创建测试对局
func CreateTestGame(t *testing.T, db *gorm.DB, name string) *models.Game {
	game := &models.Game{
		ID:         uuid.NewString(),
		Name:       name,
		White:      "White",
		Black:      "Black",
		Source:     models.SourceManual,
		InitialFEN: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
	}
	require.NoError(t, db.Create(game).Error)
	return game
}

// CreateTestMoves 为对局写入着法，局面使用占位字符串
func CreateTestMoves(t *testing.T, db *gorm.DB, gameID string, sans ...string) []models.Move {
	moves := make([]models.Move, len(sans))
	for i, san := range sans {
		moves[i] = models.Move{
			GameID:   gameID,
			Ply:      i + 1,
			SAN:      san,
			FENAfter: fmt.Sprintf("pos-%d", i+1),
			Legal:    true,
		}
	}
	if len(moves) > 0 {
		require.NoError(t, db.Create(&moves).Error)
	}
	return moves
}
