package tower

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// TestMultiplier_KnownValues 已知倍数值
func TestMultiplier_KnownValues(t *testing.T) {
	// 两门爬一层：2 × 0.99 = 1.98
	assert.True(t, decimal.NewFromFloat(1.98).Equal(Multiplier(1, 2, 0.01)),
		"got %s", Multiplier(1, 2, 0.01))

	// 零层倍数恒等于 1，不折减
	assert.True(t, decimal.NewFromInt(1).Equal(Multiplier(0, 2, 0.01)))
	assert.True(t, decimal.NewFromInt(1).Equal(Multiplier(0, 4, 0.05)))

	// 无庄家优势时倍数是精确的 doors^level
	assert.True(t, decimal.NewFromInt(8).Equal(Multiplier(3, 2, 0)),
		"got %s", Multiplier(3, 2, 0))
	assert.True(t, decimal.NewFromInt(9).Equal(Multiplier(2, 3, 0)),
		"got %s", Multiplier(2, 3, 0))
}

// TestPayout_KnownValues 已知赔付值
func TestPayout_KnownValues(t *testing.T) {
	assert.Equal(t, int64(198), Payout(100, 1, 2, 0.01))
	assert.Equal(t, int64(800), Payout(100, 3, 2, 0))

	// 3门一层：100 × 3 × 0.99 = 297
	assert.Equal(t, int64(297), Payout(100, 1, 3, 0.01))

	// 4门一层：100 × 4 × 0.99 = 396
	assert.Equal(t, int64(396), Payout(100, 1, 4, 0.01))

	// 两门爬满10层：100 × 1.98^10 向下取整
	assert.Equal(t, int64(92608), Payout(100, 10, 2, 0.01))
}

// TestPayout_MonotonicInLevel 层数越高赔付越高
func TestPayout_MonotonicInLevel(t *testing.T) {
	for doors := 2; doors <= 4; doors++ {
		prev := int64(0)
		for level := 1; level <= 10; level++ {
			payout := Payout(1000, level, doors, 0.01)
			assert.Greater(t, payout, prev,
				"doors=%d level=%d", doors, level)
			prev = payout
		}
	}
}

// TestMultiplier_MoreDoorsHigherMultiplier 门越多单层存活率越低，倍数越高
func TestMultiplier_MoreDoorsHigherMultiplier(t *testing.T) {
	for level := 1; level <= 5; level++ {
		m2 := Multiplier(level, 2, 0.01)
		m3 := Multiplier(level, 3, 0.01)
		m4 := Multiplier(level, 4, 0.01)
		assert.True(t, m4.GreaterThan(m3), "level=%d", level)
		assert.True(t, m3.GreaterThan(m2), "level=%d", level)
	}
}

// TestPayout_FloorNeverRoundsUp 赔付永不向上取整
func TestPayout_FloorNeverRoundsUp(t *testing.T) {
	for doors := 2; doors <= 4; doors++ {
		for level := 1; level <= 10; level++ {
			payout := Payout(97, level, doors, 0.01)
			exact := Multiplier(level, doors, 0.01).Mul(decimal.NewFromInt(97))
			assert.True(t, decimal.NewFromInt(payout).LessThanOrEqual(exact),
				"doors=%d level=%d payout=%d exact=%s", doors, level, payout, exact)
			assert.True(t, exact.Sub(decimal.NewFromInt(payout)).LessThan(decimal.NewFromInt(1)))
		}
	}
}

// TestExpectedHouseProfit 庄家单局期望收益
func TestExpectedHouseProfit(t *testing.T) {
	assert.Equal(t, int64(1), ExpectedHouseProfit(100, 0.01))
	assert.Equal(t, int64(0), ExpectedHouseProfit(99, 0.01))
	assert.Equal(t, int64(0), ExpectedHouseProfit(100, 0))
	assert.Equal(t, int64(10), ExpectedHouseProfit(1000, 0.01))
}
