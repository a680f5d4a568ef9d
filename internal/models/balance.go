package models

// Currency 币种表
//
// 币种按赌场注册，展示单位用于向玩家格式化金额（如 1000 分 = 10.00 元）。
type Currency struct {
	BaseModel
	CasinoID         string `gorm:"type:char(36);not null;uniqueIndex:idx_currency_casino_key" json:"casino_id"`
	Key              string `gorm:"size:50;not null;uniqueIndex:idx_currency_casino_key" json:"key"`
	DisplayUnitName  string `gorm:"size:50" json:"display_unit_name"`
	DisplayUnitScale int64  `gorm:"default:1" json:"display_unit_scale"`
}

// TableName 指定表名
func (Currency) TableName() string {
	return "currency"
}

// PlayerBalance 玩家余额表
//
// 按 (user, casino, experience, currency) 唯一，金额只在持有行锁的事务内变更。
type PlayerBalance struct {
	BaseModel
	UserID       string `gorm:"type:char(36);not null;uniqueIndex:idx_balance_scope" json:"user_id"`
	CasinoID     string `gorm:"type:char(36);not null;uniqueIndex:idx_balance_scope" json:"casino_id"`
	ExperienceID string `gorm:"type:char(36);not null;uniqueIndex:idx_balance_scope" json:"experience_id"`
	CurrencyKey  string `gorm:"size:50;not null;uniqueIndex:idx_balance_scope" json:"currency_key"`
	Amount       int64  `gorm:"not null;default:0" json:"amount"`
}

// TableName 指定表名
func (PlayerBalance) TableName() string {
	return "player_balance"
}

// CanAfford 余额是否足以支付投注
func (b *PlayerBalance) CanAfford(wager int64) bool {
	return b.Amount >= wager
}

// HouseBankroll 庄家资金池表
//
// 按 (casino, currency) 唯一，是跨玩家共享度最高的行，
// 所有操作中必须最后加锁以缩短持锁时间。
// Wagered/Bets/ExpectedValue 为庄家侧统计，随每局结算累加。
type HouseBankroll struct {
	BaseModel
	CasinoID      string `gorm:"type:char(36);not null;uniqueIndex:idx_bankroll_casino_key" json:"casino_id"`
	CurrencyKey   string `gorm:"size:50;not null;uniqueIndex:idx_bankroll_casino_key" json:"currency_key"`
	Amount        int64  `gorm:"not null;default:0" json:"amount"`
	Wagered       int64  `gorm:"not null;default:0" json:"wagered"`
	Bets          int64  `gorm:"not null;default:0" json:"bets"`
	ExpectedValue int64  `gorm:"not null;default:0" json:"expected_value"`
}

// TableName 指定表名
func (HouseBankroll) TableName() string {
	return "house_bankroll"
}
