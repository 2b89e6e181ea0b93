package repository

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// Manager 仓储管理器，提供所有仓储的统一访问接口
type Manager struct {
	db *gorm.DB

	txManager TransactionManager

	// 仓储实例（懒加载）
	gameOnce sync.Once
	game     GameRepository

	moveOnce sync.Once
	move     MoveRepository
}

// NewManager 创建仓储管理器
func NewManager(db *gorm.DB) *Manager {
	return &Manager{
		db:        db,
		txManager: NewTransactionManager(db),
	}
}

// DB 获取数据库实例
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Games 对局仓储
func (m *Manager) Games() GameRepository {
	m.gameOnce.Do(func() {
		m.game = NewGameRepository(m.db)
	})
	return m.game
}

// Moves 着法仓储
func (m *Manager) Moves() MoveRepository {
	m.moveOnce.Do(func() {
		m.move = NewMoveRepository(m.db)
	})
	return m.move
}

// TxManager 事务管理器
func (m *Manager) TxManager() TransactionManager {
	return m.txManager
}

// WithTransaction 在事务中执行函数
func (m *Manager) WithTransaction(ctx context.Context, fn func(tx *Transaction) error) error {
	return m.txManager.WithTransaction(ctx, fn)
}
