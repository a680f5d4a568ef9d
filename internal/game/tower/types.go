package tower

import (
	"github.com/wfunc/tower-game/internal/repository"
)

// Session 玩家会话标识
//
// 三元组与余额、哈希链、进行中游戏的作用域一一对应。
type Session struct {
	UserID       string `json:"user_id"`
	CasinoID     string `json:"casino_id"`
	ExperienceID string `json:"experience_id"`
}

// Scope 转换为仓储作用域
func (s Session) Scope() repository.Scope {
	return repository.Scope{
		UserID:       s.UserID,
		CasinoID:     s.CasinoID,
		ExperienceID: s.ExperienceID,
	}
}

// StartInput 开局参数
//
// 玩家在开局时指明要消耗的链并承诺玩家种子，之后每层爬塔
// 都用这对组合推导结果，换种子重roll在本局内不可能。
type StartInput struct {
	CurrencyKey string `json:"currency_key" binding:"required"`
	Wager       int64  `json:"wager" binding:"required"`
	Doors       int    `json:"doors" binding:"required"`
	HashChainID string `json:"hash_chain_id" binding:"required"`
	ClientSeed  string `json:"client_seed"`
}

// ClimbInput 爬塔参数
type ClimbInput struct {
	GameID string `json:"game_id" binding:"required"`
	Door   int    `json:"door"`
}

// CashoutInput 兑现参数
type CashoutInput struct {
	GameID string `json:"game_id" binding:"required"`
}
