package repository

import (
	"context"
	goerrors "errors"

	"github.com/wfunc/tower-game/internal/errors"
	"github.com/wfunc/tower-game/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HashChainRepository 哈希链仓储接口
type HashChainRepository interface {
	BaseRepository
	Create(ctx context.Context, chain *models.HashChain) error
	FindByID(ctx context.Context, id string) (*models.HashChain, error)
	// LockActive 锁定作用域内激活的链（悲观锁），不存在时返回 (nil, nil)
	LockActive(ctx context.Context, scope Scope) (*models.HashChain, error)
	// LockByID 按链ID加作用域锁定链（悲观锁），不存在或作用域不符时返回 (nil, nil)
	LockByID(ctx context.Context, chainID string, scope Scope) (*models.HashChain, error)
	// ConsumeIteration 消耗一次迭代：CurrentIteration 严格减一，
	// 被消耗的迭代号是 fromIteration-1（调用方必须已持有行锁）
	ConsumeIteration(ctx context.Context, chainID string, fromIteration int) error
	// Deactivate 停用链（耗尽或轮换时）
	Deactivate(ctx context.Context, chainID string) error
	// CreateRecord 写入哈希消耗审计记录
	CreateRecord(ctx context.Context, record *models.HashRecord) error
	// FindRecords 查询链的审计记录，按创建时间正序
	FindRecords(ctx context.Context, chainID string, pagination *Pagination) ([]*models.HashRecord, error)
}

// hashChainRepo 哈希链仓储实现
type hashChainRepo struct {
	*BaseRepo
}

// NewHashChainRepository 创建哈希链仓储
func NewHashChainRepository(db *gorm.DB) HashChainRepository {
	return &hashChainRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建哈希链
func (r *hashChainRepo) Create(ctx context.Context, chain *models.HashChain) error {
	return r.db.WithContext(ctx).Create(chain).Error
}

// FindByID 根据ID查找链
func (r *hashChainRepo) FindByID(ctx context.Context, id string) (*models.HashChain, error) {
	var chain models.HashChain
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&chain).Error
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.ErrHashChainNotFound)
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return &chain, nil
}

// LockActive 锁定作用域内激活的链（悲观锁）
//
// 按作用域加激活标记查找而不是按链ID，链轮换后进行中的游戏
// 自动落在新链上。找不到激活链不是数据库错误，调用方据此
// 产出"哈希链不可用"业务结果，返回 (nil, nil)。
func (r *hashChainRepo) LockActive(ctx context.Context, scope Scope) (*models.HashChain, error) {
	var chain models.HashChain
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND casino_id = ? AND experience_id = ? AND active = ?",
			scope.UserID, scope.CasinoID, scope.ExperienceID, true).
		First(&chain).Error
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return &chain, nil
}

// LockByID 按链ID加作用域锁定链（悲观锁）
//
// 作用域条件和链ID一起下到查询里，别人的链和不存在的链
// 表现一致，调用方据此产出"哈希链不可用"业务结果。
func (r *hashChainRepo) LockByID(ctx context.Context, chainID string, scope Scope) (*models.HashChain, error) {
	var chain models.HashChain
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ? AND casino_id = ? AND experience_id = ?",
			chainID, scope.UserID, scope.CasinoID, scope.ExperienceID).
		First(&chain).Error
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return &chain, nil
}

// ConsumeIteration 消耗一次迭代
//
// WHERE 条件校验当前迭代号，确保每个迭代只被消耗一次。
func (r *hashChainRepo) ConsumeIteration(ctx context.Context, chainID string, fromIteration int) error {
	result := r.db.WithContext(ctx).
		Model(&models.HashChain{}).
		Where("id = ? AND current_iteration = ?", chainID, fromIteration).
		Update("current_iteration", fromIteration-1)

	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrDatabaseUpdate)
	}
	if result.RowsAffected == 0 {
		return errors.Newf(errors.ErrHashRetrieval, "迭代号已变更: chain=%s iteration=%d", chainID, fromIteration)
	}
	return nil
}

// Deactivate 停用链
func (r *hashChainRepo) Deactivate(ctx context.Context, chainID string) error {
	return r.db.WithContext(ctx).
		Model(&models.HashChain{}).
		Where("id = ?", chainID).
		Update("active", false).Error
}

// CreateRecord 写入哈希消耗审计记录
func (r *hashChainRepo) CreateRecord(ctx context.Context, record *models.HashRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// FindRecords 查询链的审计记录
func (r *hashChainRepo) FindRecords(ctx context.Context, chainID string, pagination *Pagination) ([]*models.HashRecord, error) {
	var records []*models.HashRecord
	query := r.db.WithContext(ctx).
		Model(&models.HashRecord{}).
		Where("hash_chain_id = ?", chainID)

	// 获取总数
	var total int64
	query.Count(&total)
	pagination.Total = total

	// 分页查询
	err := query.
		Limit(pagination.PageSize).
		Offset(pagination.Offset()).
		Order("created_at ASC").
		Find(&records).Error

	return records, err
}

// WithTx 使用事务
func (r *hashChainRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &hashChainRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
