package tower

import (
	"github.com/shopspring/decimal"
)

// Multiplier 计算爬到 level 层后的兑现倍数
//
// 每层只有一扇安全门，存活概率为 1/doors，公平倍数是 doors 的
// level 次幂，每层再按 (1-houseEdge) 折减。level 为 0 时尚未爬层，
// 倍数恒为 1。
func Multiplier(level, doors int, houseEdge float64) decimal.Decimal {
	if level == 0 {
		return decimal.NewFromInt(1)
	}

	base := decimal.NewFromInt(int64(doors)).
		Mul(decimal.NewFromInt(1).Sub(decimal.NewFromFloat(houseEdge)))
	return base.Pow(decimal.NewFromInt(int64(level)))
}

// Payout 计算兑现赔付额，向下取整到最小货币单位
//
// 全程十进制精确运算，取整只在最后发生一次。
func Payout(wager int64, level, doors int, houseEdge float64) int64 {
	return decimal.NewFromInt(wager).
		Mul(Multiplier(level, doors, houseEdge)).
		Floor().
		IntPart()
}

// ExpectedHouseProfit 单局庄家期望收益，向下取整
//
// 倍数折减使每局期望赔付为投注额的 (1-houseEdge)，期望收益
// 即投注额乘以庄家优势。随每局结算累加到资金池统计。
func ExpectedHouseProfit(wager int64, houseEdge float64) int64 {
	return decimal.NewFromInt(wager).
		Mul(decimal.NewFromFloat(houseEdge)).
		Floor().
		IntPart()
}
