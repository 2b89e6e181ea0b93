package repository

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/wfunc/scoresheet/internal/errors"
	"github.com/wfunc/scoresheet/internal/models"
	"gorm.io/gorm"
)

// GameRepository 对局仓储接口
type GameRepository interface {
	BaseRepository
	Create(ctx context.Context, game *models.Game) error
	FindByID(ctx context.Context, id string) (*models.Game, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, pagination *Pagination) ([]*models.Game, error)
	Touch(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// gameRepo 对局仓储实现
type gameRepo struct {
	*BaseRepo
}

// NewGameRepository 创建对局仓储
func NewGameRepository(db *gorm.DB) GameRepository {
	return &gameRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建对局
func (r *gameRepo) Create(ctx context.Context, game *models.Game) error {
	if err := r.db.WithContext(ctx).Create(game).Error; err != nil {
		return errors.Wrap(err, errors.ErrDatabaseInsert, "创建对局")
	}
	return nil
}

// FindByID 根据ID查找对局
func (r *gameRepo) FindByID(ctx context.Context, id string) (*models.Game, error) {
	var game models.Game
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&game).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Newf(errors.ErrGameNotFound, "对局ID: %s", id)
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery, "查询对局")
	}
	return &game, nil
}

// Exists 对局是否存在
func (r *gameRepo) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Game{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, errors.ErrDatabaseQuery, "查询对局")
	}
	return count > 0, nil
}

// List 分页获取对局，最新的在前
func (r *gameRepo) List(ctx context.Context, pagination *Pagination) ([]*models.Game, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Game{}).Count(&total).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery, "统计对局")
	}
	pagination.Total = total

	var games []*models.Game
	err := r.db.WithContext(ctx).
		Scopes(Paginate(pagination)).
		Order("created_at DESC").
		Order("id").
		Find(&games).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery, "查询对局列表")
	}
	return games, nil
}

// Touch 更新对局的修改时间
func (r *gameRepo) Touch(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Game{}).
		Where("id = ?", id).
		Update("updated_at", time.Now())
	if res.Error != nil {
		return errors.Wrap(res.Error, errors.ErrDatabaseUpdate, "更新对局")
	}
	return nil
}

// Delete 删除对局及其全部着法
func (r *gameRepo) Delete(ctx context.Context, id string) error {
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("game_id = ?", id).Delete(&models.Move{}).Error; err != nil {
			return errors.Wrap(err, errors.ErrDatabaseDelete, "删除着法")
		}
		res := tx.Where("id = ?", id).Delete(&models.Game{})
		if res.Error != nil {
			return errors.Wrap(res.Error, errors.ErrDatabaseDelete, "删除对局")
		}
		if res.RowsAffected == 0 {
			return errors.Newf(errors.ErrGameNotFound, "对局ID: %s", id)
		}
		return nil
	})
}
