package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wfunc/scoresheet/internal/errors"
	"gorm.io/gorm"
)

// TransactionManager 事务管理器接口
type TransactionManager interface {
	// Begin 开始事务
	Begin(ctx context.Context) (*Transaction, error)
	// BeginWithOptions 使用选项开始事务
	BeginWithOptions(ctx context.Context, opts *TxOptions) (*Transaction, error)
	// WithTransaction 在事务中执行函数，返回错误时回滚
	WithTransaction(ctx context.Context, fn func(tx *Transaction) error) error
	// WithTransactionOptions 使用选项在事务中执行函数
	WithTransactionOptions(ctx context.Context, opts *TxOptions, fn func(tx *Transaction) error) error
}

// TxOptions 事务选项
type TxOptions struct {
	// IsolationLevel 事务隔离级别
	IsolationLevel sql.IsolationLevel
	// ReadOnly 是否只读事务
	ReadOnly bool
}

// Transaction 事务包装器
type Transaction struct {
	tx         *gorm.DB
	ctx        context.Context
	committed  bool
	rolledback bool

	// 事务中的仓储实例
	games GameRepository
	moves MoveRepository
}

// txManager 事务管理器实现
type txManager struct {
	db *gorm.DB
}

// NewTransactionManager 创建事务管理器
func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &txManager{db: db}
}

// Begin 开始事务
func (m *txManager) Begin(ctx context.Context) (*Transaction, error) {
	return m.BeginWithOptions(ctx, nil)
}

// BeginWithOptions 使用选项开始事务
func (m *txManager) BeginWithOptions(ctx context.Context, opts *TxOptions) (*Transaction, error) {
	var sqlOpts *sql.TxOptions
	// SQLite 只支持默认隔离级别
	if opts != nil && m.db.Dialector.Name() != "sqlite" {
		sqlOpts = &sql.TxOptions{
			Isolation: opts.IsolationLevel,
			ReadOnly:  opts.ReadOnly,
		}
	}

	tx := m.db.WithContext(ctx).Begin(sqlOpts)
	if tx.Error != nil {
		return nil, errors.Wrap(tx.Error, errors.ErrTransaction, "开始事务")
	}

	return &Transaction{
		tx:  tx,
		ctx: ctx,
	}, nil
}

// WithTransaction 在事务中执行函数
func (m *txManager) WithTransaction(ctx context.Context, fn func(tx *Transaction) error) error {
	return m.WithTransactionOptions(ctx, nil, fn)
}

// WithTransactionOptions 使用选项在事务中执行函数
func (m *txManager) WithTransactionOptions(ctx context.Context, opts *TxOptions, fn func(tx *Transaction) error) (err error) {
	tx, err := m.BeginWithOptions(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
		if !tx.committed && !tx.rolledback {
			tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrTransaction, "提交事务")
	}
	return nil
}

// Commit 提交事务
func (t *Transaction) Commit() error {
	if t.committed {
		return fmt.Errorf("事务已提交")
	}
	if t.rolledback {
		return fmt.Errorf("事务已回滚")
	}

	if err := t.tx.Commit().Error; err != nil {
		return err
	}
	t.committed = true
	return nil
}

// Rollback 回滚事务
func (t *Transaction) Rollback() error {
	if t.committed {
		return fmt.Errorf("事务已提交，无法回滚")
	}
	if t.rolledback {
		return fmt.Errorf("事务已回滚")
	}

	if err := t.tx.Rollback().Error; err != nil {
		return err
	}
	t.rolledback = true
	return nil
}

// Context 事务的上下文
func (t *Transaction) Context() context.Context {
	return t.ctx
}

// GetDB 获取事务中的数据库实例
func (t *Transaction) GetDB() *gorm.DB {
	return t.tx
}

// Games 获取事务中的对局仓储
func (t *Transaction) Games() GameRepository {
	if t.games == nil {
		t.games = NewGameRepository(t.tx)
	}
	return t.games
}

// Moves 获取事务中的着法仓储
func (t *Transaction) Moves() MoveRepository {
	if t.moves == nil {
		t.moves = NewMoveRepository(t.tx)
	}
	return t.moves
}
