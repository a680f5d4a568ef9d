package repository

import (
	"context"
	goerrors "errors"

	"github.com/wfunc/tower-game/internal/errors"
	"github.com/wfunc/tower-game/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CurrencyRepository 币种仓储接口
type CurrencyRepository interface {
	BaseRepository
	Create(ctx context.Context, currency *models.Currency) error
	FindByKey(ctx context.Context, casinoID, key string) (*models.Currency, error)
	List(ctx context.Context, casinoID string) ([]*models.Currency, error)
}

// currencyRepo 币种仓储实现
type currencyRepo struct {
	*BaseRepo
}

// NewCurrencyRepository 创建币种仓储
func NewCurrencyRepository(db *gorm.DB) CurrencyRepository {
	return &currencyRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建币种
func (r *currencyRepo) Create(ctx context.Context, currency *models.Currency) error {
	return r.db.WithContext(ctx).Create(currency).Error
}

// FindByKey 根据赌场和币种键查找
func (r *currencyRepo) FindByKey(ctx context.Context, casinoID, key string) (*models.Currency, error) {
	var currency models.Currency
	err := r.db.WithContext(ctx).
		Where("casino_id = ? AND key = ?", casinoID, key).
		First(&currency).Error
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Newf(errors.ErrCurrencyNotFound, "casino=%s key=%s", casinoID, key)
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return &currency, nil
}

// List 列出赌场的全部币种
func (r *currencyRepo) List(ctx context.Context, casinoID string) ([]*models.Currency, error) {
	var currencies []*models.Currency
	err := r.db.WithContext(ctx).
		Where("casino_id = ?", casinoID).
		Order("key ASC").
		Find(&currencies).Error
	return currencies, err
}

// WithTx 使用事务
func (r *currencyRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &currencyRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}

// BalanceRepository 玩家余额仓储接口
type BalanceRepository interface {
	BaseRepository
	Create(ctx context.Context, balance *models.PlayerBalance) error
	Find(ctx context.Context, scope Scope, currencyKey string) (*models.PlayerBalance, error)
	// LockForUpdate 锁定余额行用于更新（悲观锁），行不存在时返回错误
	LockForUpdate(ctx context.Context, scope Scope, currencyKey string) (*models.PlayerBalance, error)
	AddAmount(ctx context.Context, balanceID uint, delta int64) error
}

// balanceRepo 玩家余额仓储实现
type balanceRepo struct {
	*BaseRepo
}

// NewBalanceRepository 创建玩家余额仓储
func NewBalanceRepository(db *gorm.DB) BalanceRepository {
	return &balanceRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建余额账户
func (r *balanceRepo) Create(ctx context.Context, balance *models.PlayerBalance) error {
	return r.db.WithContext(ctx).Create(balance).Error
}

// Find 查找余额账户（不加锁，只读场景）
func (r *balanceRepo) Find(ctx context.Context, scope Scope, currencyKey string) (*models.PlayerBalance, error) {
	var balance models.PlayerBalance
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND casino_id = ? AND experience_id = ? AND currency_key = ?",
			scope.UserID, scope.CasinoID, scope.ExperienceID, currencyKey).
		First(&balance).Error
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.ErrBalanceNotFound)
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return &balance, nil
}

// LockForUpdate 锁定余额行用于更新（悲观锁）
func (r *balanceRepo) LockForUpdate(ctx context.Context, scope Scope, currencyKey string) (*models.PlayerBalance, error) {
	var balance models.PlayerBalance
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND casino_id = ? AND experience_id = ? AND currency_key = ?",
			scope.UserID, scope.CasinoID, scope.ExperienceID, currencyKey).
		First(&balance).Error
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.ErrBalanceNotFound)
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return &balance, nil
}

// AddAmount 调整余额（调用方必须已持有行锁）
func (r *balanceRepo) AddAmount(ctx context.Context, balanceID uint, delta int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.PlayerBalance{}).
		Where("id = ?", balanceID).
		Update("amount", gorm.Expr("amount + ?", delta))

	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrDatabaseUpdate)
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrBalanceNotFound)
	}
	return nil
}

// WithTx 使用事务
func (r *balanceRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &balanceRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}

// BankrollRepository 庄家资金池仓储接口
type BankrollRepository interface {
	BaseRepository
	Create(ctx context.Context, bankroll *models.HouseBankroll) error
	Find(ctx context.Context, casinoID, currencyKey string) (*models.HouseBankroll, error)
	// LockForUpdate 锁定资金池行用于更新（悲观锁），行不存在时返回错误
	LockForUpdate(ctx context.Context, casinoID, currencyKey string) (*models.HouseBankroll, error)
	// ApplySettlement 结算入账：资金池变动、投注额与局数累计、期望收益累计
	ApplySettlement(ctx context.Context, bankrollID uint, amountDelta, wagerDelta, betsDelta, evDelta int64) error
}

// bankrollRepo 庄家资金池仓储实现
type bankrollRepo struct {
	*BaseRepo
}

// NewBankrollRepository 创建庄家资金池仓储
func NewBankrollRepository(db *gorm.DB) BankrollRepository {
	return &bankrollRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// Create 创建资金池
func (r *bankrollRepo) Create(ctx context.Context, bankroll *models.HouseBankroll) error {
	return r.db.WithContext(ctx).Create(bankroll).Error
}

// Find 查找资金池（不加锁，只读场景）
func (r *bankrollRepo) Find(ctx context.Context, casinoID, currencyKey string) (*models.HouseBankroll, error) {
	var bankroll models.HouseBankroll
	err := r.db.WithContext(ctx).
		Where("casino_id = ? AND currency_key = ?", casinoID, currencyKey).
		First(&bankroll).Error
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.ErrBankrollNotFound)
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return &bankroll, nil
}

// LockForUpdate 锁定资金池行用于更新（悲观锁）
func (r *bankrollRepo) LockForUpdate(ctx context.Context, casinoID, currencyKey string) (*models.HouseBankroll, error) {
	var bankroll models.HouseBankroll
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("casino_id = ? AND currency_key = ?", casinoID, currencyKey).
		First(&bankroll).Error
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New(errors.ErrBankrollNotFound)
		}
		return nil, errors.Wrap(err, errors.ErrDatabaseQuery)
	}
	return &bankroll, nil
}

// ApplySettlement 结算入账（调用方必须已持有行锁）
func (r *bankrollRepo) ApplySettlement(ctx context.Context, bankrollID uint, amountDelta, wagerDelta, betsDelta, evDelta int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.HouseBankroll{}).
		Where("id = ?", bankrollID).
		Updates(map[string]interface{}{
			"amount":         gorm.Expr("amount + ?", amountDelta),
			"wagered":        gorm.Expr("wagered + ?", wagerDelta),
			"bets":           gorm.Expr("bets + ?", betsDelta),
			"expected_value": gorm.Expr("expected_value + ?", evDelta),
		})

	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrDatabaseUpdate)
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrBankrollNotFound)
	}
	return nil
}

// WithTx 使用事务
func (r *bankrollRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &bankrollRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
