package models

import (
	"time"
)

// TowerGameStatus 爬塔游戏状态枚举
type TowerGameStatus string

const (
	TowerGameActive  TowerGameStatus = "ACTIVE"  // 进行中
	TowerGameBust    TowerGameStatus = "BUST"    // 选错门，输掉投注
	TowerGameCashout TowerGameStatus = "CASHOUT" // 已兑现（主动或自动）
)

// IsTerminal 是否为终态（终态游戏不可再变更）
func (s TowerGameStatus) IsTerminal() bool {
	return s == TowerGameBust || s == TowerGameCashout
}

// TowerGame 爬塔游戏表
//
// 一局游戏由 (user, casino, experience) 三元组限定作用域，
// 同一作用域内同时最多存在一局 ACTIVE 游戏。
// 游戏结束后保留记录用于审计，不会被删除。
type TowerGame struct {
	UUIDModel
	UserID       string          `gorm:"type:char(36);not null;index:idx_tower_game_scope" json:"user_id"`
	CasinoID     string          `gorm:"type:char(36);not null;index:idx_tower_game_scope" json:"casino_id"`
	ExperienceID string          `gorm:"type:char(36);not null;index:idx_tower_game_scope" json:"experience_id"`
	CurrencyKey  string          `gorm:"size:50;not null" json:"currency_key"`
	HashChainID  string          `gorm:"type:char(36);index" json:"hash_chain_id"` // 开局时指定，本局只消耗这条链
	ClientSeed   string          `gorm:"size:32" json:"client_seed"`               // 开局时承诺，本局每层共用
	Status       TowerGameStatus `gorm:"size:20;not null;default:'ACTIVE';index" json:"status"`
	Wager        int64           `gorm:"not null" json:"wager"` // 投注额，创建后不可变
	Doors        int             `gorm:"not null" json:"doors"` // 每层门数 [2,4]
	CurrentLevel int             `gorm:"not null;default:0" json:"current_level"`
	EndedAt      *time.Time      `json:"ended_at,omitempty"` // 离开ACTIVE时设置，仅一次
}

// TableName 指定表名
func (TowerGame) TableName() string {
	return "tower_game"
}

// IsActive 游戏是否进行中
func (g *TowerGame) IsActive() bool {
	return g.Status == TowerGameActive
}

// ValidDoor 检查门编号是否在本局范围内
func (g *TowerGame) ValidDoor(door int) bool {
	return door >= 0 && door < g.Doors
}
