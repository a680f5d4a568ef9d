package tower

import (
	"github.com/shopspring/decimal"
	"github.com/wfunc/tower-game/internal/models"
)

// ChainFailReason 哈希链不可用原因
type ChainFailReason string

const (
	// ChainUnavailable 指定的链不存在、不属于当前作用域或已停用
	ChainUnavailable ChainFailReason = "UNAVAILABLE"
	// ChainExhausted 链的迭代已消耗殆尽
	ChainExhausted ChainFailReason = "EXHAUSTED"
)

// StartOutcome 开局结果
//
// 封闭联合类型：StartSuccess、BadHashChain、RiskRejected 三选一。
// 这些是可预期的业务分支而不是错误，错误通道留给参数非法、
// 余额不足、基础设施故障等硬失败。
type StartOutcome interface {
	startOutcome()
}

// ClimbOutcome 爬塔结果
//
// 封闭联合类型：ClimbSuccess、BadHashChain 二选一。
type ClimbOutcome interface {
	climbOutcome()
}

// StartSuccess 开局成功
type StartSuccess struct {
	Game *models.TowerGame `json:"game"`
}

func (StartSuccess) startOutcome() {}

// BadHashChain 哈希链不可用，任何资金与游戏状态均未变更
//
// 调用方可换一条链重试。
type BadHashChain struct {
	Reason ChainFailReason `json:"reason"`
}

func (BadHashChain) startOutcome() {}
func (BadHashChain) climbOutcome() {}

// RiskRejected 超出风控限额，任何资金与游戏状态均未变更
type RiskRejected struct {
	// PotentialPayout 本局可能的最大赔付
	PotentialPayout int64 `json:"potential_payout"`
	// MaxPayout 风控允许的最大赔付
	MaxPayout int64 `json:"max_payout"`
}

func (RiskRejected) startOutcome() {}

// ClimbSuccess 爬塔已结算（存活、爆塔或触顶自动兑现）
type ClimbSuccess struct {
	Game *models.TowerGame `json:"game"`
	// Busted 是否选中了安全门以外的门
	Busted bool `json:"busted"`
	// SafeDoor 本层安全门编号，结算后公开
	SafeDoor int `json:"safe_door"`
	// AutoCashout 是否因触顶被强制兑现
	AutoCashout bool `json:"auto_cashout"`
	// Payout 赔付额，仅自动兑现时非零
	Payout int64 `json:"payout"`
	// Digest 本次消耗的链上摘要，供玩家回放验证
	Digest string `json:"digest"`
	// Iteration 本次消耗的迭代号
	Iteration int `json:"iteration"`
}

func (ClimbSuccess) climbOutcome() {}

// CashoutResult 主动兑现结果
type CashoutResult struct {
	Game *models.TowerGame `json:"game"`
	// Payout 赔付额
	Payout int64 `json:"payout"`
	// Multiplier 兑现倍数
	Multiplier decimal.Decimal `json:"multiplier"`
}
