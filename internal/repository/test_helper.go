package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wfunc/tower-game/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB 为测试套件设置测试数据库
func SetupTestDB() *gorm.DB {
	// 使用内存数据库进行测试（更快，不需要文件系统，在所有环境中都能工作）
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(err)
	}

	// 自动迁移所有模型
	err = db.AutoMigrate(
		// 币种与账户
		&models.Currency{},
		&models.PlayerBalance{},
		&models.HouseBankroll{},

		// 游戏
		&models.TowerGame{},

		// 哈希链
		&models.HashChain{},
		&models.HashRecord{},
	)
	if err != nil {
		panic(err)
	}

	// 进行中游戏唯一性索引（与生产迁移保持一致）
	db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_tower_game_one_active ON tower_game(user_id, casino_id, experience_id) WHERE status = 'ACTIVE'")

	return db
}

// CleanupTestDB 清理测试数据库
func CleanupTestDB(db *gorm.DB) {
	// 关闭数据库连接
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// TestScope 创建测试作用域
func TestScope(userID string) Scope {
	return Scope{
		UserID:       userID,
		CasinoID:     "casino-0001",
		ExperienceID: "experience-0001",
	}
}

// SeedCurrency 创建测试币种
func SeedCurrency(t *testing.T, db *gorm.DB, casinoID, key string) *models.Currency {
	currency := &models.Currency{
		CasinoID:         casinoID,
		Key:              key,
		DisplayUnitName:  "金币",
		DisplayUnitScale: 100,
	}
	err := db.Create(currency).Error
	require.NoError(t, err)
	return currency
}

// SeedBalance 创建测试余额账户
func SeedBalance(t *testing.T, db *gorm.DB, scope Scope, currencyKey string, amount int64) *models.PlayerBalance {
	balance := &models.PlayerBalance{
		UserID:       scope.UserID,
		CasinoID:     scope.CasinoID,
		ExperienceID: scope.ExperienceID,
		CurrencyKey:  currencyKey,
		Amount:       amount,
	}
	err := db.Create(balance).Error
	require.NoError(t, err)
	return balance
}

// SeedBankroll 创建测试资金池
func SeedBankroll(t *testing.T, db *gorm.DB, casinoID, currencyKey string, amount int64) *models.HouseBankroll {
	bankroll := &models.HouseBankroll{
		CasinoID:    casinoID,
		CurrencyKey: currencyKey,
		Amount:      amount,
	}
	err := db.Create(bankroll).Error
	require.NoError(t, err)
	return bankroll
}

// SeedHashChain 创建测试哈希链
func SeedHashChain(t *testing.T, db *gorm.DB, scope Scope, serverSeed string, total, current int) *models.HashChain {
	chain := &models.HashChain{
		UserID:           scope.UserID,
		CasinoID:         scope.CasinoID,
		ExperienceID:     scope.ExperienceID,
		ServerSeed:       serverSeed,
		TotalIterations:  total,
		CurrentIteration: current,
		Active:           true,
	}
	err := db.Create(chain).Error
	require.NoError(t, err)
	return chain
}

// SeedActiveGame 创建进行中的测试游戏
func SeedActiveGame(t *testing.T, db *gorm.DB, scope Scope, currencyKey string, wager int64, doors, level int) *models.TowerGame {
	game := &models.TowerGame{
		UserID:       scope.UserID,
		CasinoID:     scope.CasinoID,
		ExperienceID: scope.ExperienceID,
		CurrencyKey:  currencyKey,
		Status:       models.TowerGameActive,
		Wager:        wager,
		Doors:        doors,
		CurrentLevel: level,
	}
	err := db.Create(game).Error
	require.NoError(t, err)
	return game
}

// SeedFinishedGame 创建已结束的测试游戏
func SeedFinishedGame(t *testing.T, db *gorm.DB, scope Scope, currencyKey string, status models.TowerGameStatus, wager int64, doors, level int) *models.TowerGame {
	now := time.Now()
	game := &models.TowerGame{
		UserID:       scope.UserID,
		CasinoID:     scope.CasinoID,
		ExperienceID: scope.ExperienceID,
		CurrencyKey:  currencyKey,
		Status:       status,
		Wager:        wager,
		Doors:        doors,
		CurrentLevel: level,
		EndedAt:      &now,
	}
	err := db.Create(game).Error
	require.NoError(t, err)
	return game
}
