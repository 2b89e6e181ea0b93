package repository

import (
	"context"

	"github.com/wfunc/scoresheet/internal/errors"
	"github.com/wfunc/scoresheet/internal/models"
	"gorm.io/gorm"
)

// MoveRepository 着法仓储接口
type MoveRepository interface {
	BaseRepository
	// LoadSequence 按 ply 排序读取整盘着法，ply 相同时按写入顺序
	LoadSequence(ctx context.Context, gameID string) ([]models.Move, error)
	// SaveSequence 用给定着法整体替换对局的着法
	SaveSequence(ctx context.Context, gameID string, moves []models.Move) error
	// AppendSequence 追加着法，用于导入
	AppendSequence(ctx context.Context, gameID string, moves []models.Move) error
	Count(ctx context.Context, gameID string) (int64, error)
}

// moveRepo 着法仓储实现
type moveRepo struct {
	*BaseRepo
	batchSize int
}

// NewMoveRepository 创建着法仓储
func NewMoveRepository(db *gorm.DB) MoveRepository {
	return &moveRepo{
		BaseRepo:  &BaseRepo{db: db},
		batchSize: 200,
	}
}

// LoadSequence 读取着法序列
func (r *moveRepo) LoadSequence(ctx context.Context, gameID string) ([]models.Move, error) {
	var moves []models.Move
	err := r.db.WithContext(ctx).
		Where("game_id = ?", gameID).
		Order("ply ASC").
		Order("id ASC").
		Find(&moves).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery, "读取着法")
	}
	return moves, nil
}

// SaveSequence 在一个事务中删除旧着法并写入新着法
func (r *moveRepo) SaveSequence(ctx context.Context, gameID string, moves []models.Move) error {
	rows := rowsFor(gameID, moves)

	return r.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("game_id = ?", gameID).Delete(&models.Move{}).Error; err != nil {
			return errors.Wrap(err, errors.ErrDatabaseDelete, "清除旧着法")
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, r.batchSize).Error; err != nil {
			return errors.Wrap(err, errors.ErrDatabaseInsert, "写入着法")
		}
		return nil
	})
}

// AppendSequence 批量写入着法，不删除已有着法
func (r *moveRepo) AppendSequence(ctx context.Context, gameID string, moves []models.Move) error {
	if len(moves) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(rowsFor(gameID, moves), r.batchSize).Error; err != nil {
		return errors.Wrap(err, errors.ErrDatabaseInsert, "写入着法")
	}
	return nil
}

// Count 着法数量
func (r *moveRepo) Count(ctx context.Context, gameID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Move{}).Where("game_id = ?", gameID).Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrDatabaseQuery, "统计着法")
	}
	return count, nil
}

// rowsFor 复制着法并归属到对局，主键交给数据库生成
func rowsFor(gameID string, moves []models.Move) []models.Move {
	rows := make([]models.Move, len(moves))
	for i, m := range moves {
		m.ID = 0
		m.GameID = gameID
		rows[i] = m
	}
	return rows
}
