package tower

import (
	"github.com/shopspring/decimal"
)

// RiskLimits 单局风控限额
type RiskLimits struct {
	// MaxPayout 本局允许的最大赔付额
	MaxPayout int64 `json:"max_payout"`
}

// RiskPolicy 风控策略
//
// 在资金池行锁内求值，bankroll 是当下真实余额。策略只读，
// 不允许在求值中发起数据库操作。
type RiskPolicy func(currencyKey string, bankroll int64) RiskLimits

// PercentOfBankrollPolicy 按资金池比例限额的默认策略
func PercentOfBankrollPolicy(percent float64) RiskPolicy {
	p := decimal.NewFromFloat(percent)
	return func(currencyKey string, bankroll int64) RiskLimits {
		if bankroll <= 0 {
			return RiskLimits{MaxPayout: 0}
		}
		max := decimal.NewFromInt(bankroll).Mul(p).Floor().IntPart()
		return RiskLimits{MaxPayout: max}
	}
}
