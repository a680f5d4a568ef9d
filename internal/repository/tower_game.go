package repository

import (
	"context"
	goerrors "errors"
	"time"

	"github.com/wfunc/tower-game/internal/errors"
	"github.com/wfunc/tower-game/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TowerGameRepository 爬塔游戏仓储接口
type TowerGameRepository interface {
	BaseRepository
	Create(ctx context.Context, game *models.TowerGame) error
	FindByID(ctx context.Context, id string) (*models.TowerGame, error)
	// LockForUpdate 锁定游戏行用于更新（悲观锁），不存在时返回错误
	LockForUpdate(ctx context.Context, id string) (*models.TowerGame, error)
	// FindActive 查找作用域内进行中的游戏，不存在时返回 (nil, nil)
	FindActive(ctx context.Context, scope Scope) (*models.TowerGame, error)
	// AdvanceLevel 推进层数（调用方必须已持有行锁）
	AdvanceLevel(ctx context.Context, id string, level int) error
	// Finish 以终态结束游戏并设置结束时间（调用方必须已持有行锁）
	Finish(ctx context.Context, id string, status models.TowerGameStatus, level int, endedAt time.Time) error
	// FindHistory 查询作用域内历史游戏，按创建时间倒序
	FindHistory(ctx context.Context, scope Scope, pagination *Pagination) ([]*models.TowerGame, error)
}

// towerGameRepo 爬塔游戏仓储实现
type towerGameRepo struct {
	*BaseRepo
}

// NewTowerGameRepository 创建爬塔游戏仓储
func NewTowerGameRepository(db *gorm.DB) TowerGameRepository {
	return &towerGameRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建游戏
func (r *towerGameRepo) Create(ctx context.Context, game *models.TowerGame) error {
	return r.db.WithContext(ctx).Create(game).Error
}

// FindByID 根据ID查找游戏
func (r *towerGameRepo) FindByID(ctx context.Context, id string) (*models.TowerGame, error) {
	var game models.TowerGame
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&game).Error
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.ErrGameNotFound)
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return &game, nil
}

// LockForUpdate 锁定游戏行用于更新（悲观锁）
func (r *towerGameRepo) LockForUpdate(ctx context.Context, id string) (*models.TowerGame, error) {
	var game models.TowerGame
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&game).Error
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.ErrGameNotFound)
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return &game, nil
}

// FindActive 查找作用域内进行中的游戏
func (r *towerGameRepo) FindActive(ctx context.Context, scope Scope) (*models.TowerGame, error) {
	var game models.TowerGame
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND casino_id = ? AND experience_id = ? AND status = ?",
			scope.UserID, scope.CasinoID, scope.ExperienceID, models.TowerGameActive).
		First(&game).Error
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return &game, nil
}

// AdvanceLevel 推进层数
func (r *towerGameRepo) AdvanceLevel(ctx context.Context, id string, level int) error {
	result := r.db.WithContext(ctx).
		Model(&models.TowerGame{}).
		Where("id = ? AND status = ?", id, models.TowerGameActive).
		Update("current_level", level)

	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrDatabaseUpdate)
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrGameNotActive)
	}
	return nil
}

// Finish 以终态结束游戏
//
// WHERE 条件限定 ACTIVE，终态游戏二次结束时影响0行并报错，
// 防止并发请求重复结算。
func (r *towerGameRepo) Finish(ctx context.Context, id string, status models.TowerGameStatus, level int, endedAt time.Time) error {
	if !status.IsTerminal() {
		return errors.Newf(errors.ErrInvalidParam, "非终态状态: %s", status)
	}

	result := r.db.WithContext(ctx).
		Model(&models.TowerGame{}).
		Where("id = ? AND status = ?", id, models.TowerGameActive).
		Updates(map[string]interface{}{
			"status":        status,
			"current_level": level,
			"ended_at":      endedAt,
		})

	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrDatabaseUpdate)
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrGameNotActive)
	}
	return nil
}

// FindHistory 查询历史游戏
func (r *towerGameRepo) FindHistory(ctx context.Context, scope Scope, pagination *Pagination) ([]*models.TowerGame, error) {
	var games []*models.TowerGame
	query := r.db.WithContext(ctx).
		Model(&models.TowerGame{}).
		Where("user_id = ? AND casino_id = ? AND experience_id = ?",
			scope.UserID, scope.CasinoID, scope.ExperienceID)

	// 获取总数
	var total int64
	query.Count(&total)
	pagination.Total = total

	// 分页查询
	err := query.
		Limit(pagination.PageSize).
		Offset(pagination.Offset()).
		Order("created_at DESC").
		Find(&games).Error

	return games, err
}

// WithTx 使用事务
func (r *towerGameRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &towerGameRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
