package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/wfunc/tower-game/internal/errors"
	"github.com/wfunc/tower-game/internal/models"
	"gorm.io/gorm"
)

// TowerGameRepositoryTestSuite 爬塔游戏仓储测试套件
type TowerGameRepositoryTestSuite struct {
	suite.Suite
	db       *gorm.DB
	gameRepo TowerGameRepository
}

func (suite *TowerGameRepositoryTestSuite) SetupTest() {
	suite.db = SetupTestDB()
	suite.gameRepo = NewTowerGameRepository(suite.db)
}

func (suite *TowerGameRepositoryTestSuite) TearDownTest() {
	CleanupTestDB(suite.db)
}

// TestTowerGameRepository_Create 测试创建游戏
func (suite *TowerGameRepositoryTestSuite) TestTowerGameRepository_Create() {
	ctx := context.Background()
	scope := TestScope("user-0001")

	game := &models.TowerGame{
		UserID:       scope.UserID,
		CasinoID:     scope.CasinoID,
		ExperienceID: scope.ExperienceID,
		CurrencyKey:  "gold",
		Status:       models.TowerGameActive,
		Wager:        100,
		Doors:        3,
	}

	err := suite.gameRepo.Create(ctx, game)
	assert.NoError(suite.T(), err)
	assert.NotEmpty(suite.T(), game.ID) // BeforeCreate 生成UUID

	found, err := suite.gameRepo.FindByID(ctx, game.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(100), found.Wager)
	assert.Equal(suite.T(), 3, found.Doors)
	assert.Equal(suite.T(), 0, found.CurrentLevel)
	assert.True(suite.T(), found.IsActive())
	assert.Nil(suite.T(), found.EndedAt)
}

// TestTowerGameRepository_FindActive 测试查找进行中游戏
func (suite *TowerGameRepositoryTestSuite) TestTowerGameRepository_FindActive() {
	ctx := context.Background()
	scope := TestScope("user-0001")

	// 无进行中游戏时返回 (nil, nil)
	found, err := suite.gameRepo.FindActive(ctx, scope)
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), found)

	// 已结束的游戏不算进行中
	SeedFinishedGame(suite.T(), suite.db, scope, "gold", models.TowerGameBust, 100, 3, 2)
	found, err = suite.gameRepo.FindActive(ctx, scope)
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), found)

	game := SeedActiveGame(suite.T(), suite.db, scope, "gold", 100, 3, 0)
	found, err = suite.gameRepo.FindActive(ctx, scope)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), game.ID, found.ID)
}

// TestTowerGameRepository_OneActivePerScope 测试进行中游戏唯一性约束
func (suite *TowerGameRepositoryTestSuite) TestTowerGameRepository_OneActivePerScope() {
	ctx := context.Background()
	scope := TestScope("user-0001")
	SeedActiveGame(suite.T(), suite.db, scope, "gold", 100, 3, 0)

	// 同一作用域的第二局 ACTIVE 被唯一索引拒绝
	dup := &models.TowerGame{
		UserID:       scope.UserID,
		CasinoID:     scope.CasinoID,
		ExperienceID: scope.ExperienceID,
		CurrencyKey:  "gold",
		Status:       models.TowerGameActive,
		Wager:        50,
		Doors:        2,
	}
	err := suite.gameRepo.Create(ctx, dup)
	assert.Error(suite.T(), err)

	// 不同作用域互不影响
	other := TestScope("user-0002")
	SeedActiveGame(suite.T(), suite.db, other, "gold", 50, 2, 0)
}

// TestTowerGameRepository_AdvanceLevel 测试推进层数
func (suite *TowerGameRepositoryTestSuite) TestTowerGameRepository_AdvanceLevel() {
	ctx := context.Background()
	scope := TestScope("user-0001")
	game := SeedActiveGame(suite.T(), suite.db, scope, "gold", 100, 3, 0)

	err := suite.gameRepo.AdvanceLevel(ctx, game.ID, 1)
	assert.NoError(suite.T(), err)

	found, err := suite.gameRepo.FindByID(ctx, game.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, found.CurrentLevel)
	assert.True(suite.T(), found.IsActive())
}

// TestTowerGameRepository_Finish 测试结束游戏
func (suite *TowerGameRepositoryTestSuite) TestTowerGameRepository_Finish() {
	ctx := context.Background()
	scope := TestScope("user-0001")
	game := SeedActiveGame(suite.T(), suite.db, scope, "gold", 100, 3, 2)

	endedAt := time.Now()
	err := suite.gameRepo.Finish(ctx, game.ID, models.TowerGameCashout, 2, endedAt)
	assert.NoError(suite.T(), err)

	found, err := suite.gameRepo.FindByID(ctx, game.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.TowerGameCashout, found.Status)
	assert.True(suite.T(), found.Status.IsTerminal())
	assert.NotNil(suite.T(), found.EndedAt)

	// 终态游戏二次结束被拒绝
	err = suite.gameRepo.Finish(ctx, game.ID, models.TowerGameBust, 2, time.Now())
	assert.True(suite.T(), errors.Is(err, errors.ErrGameNotActive))

	// 非终态状态被拒绝
	err = suite.gameRepo.Finish(ctx, game.ID, models.TowerGameActive, 2, time.Now())
	assert.True(suite.T(), errors.Is(err, errors.ErrInvalidParam))
}

// TestTowerGameRepository_FindHistory 测试历史游戏查询
func (suite *TowerGameRepositoryTestSuite) TestTowerGameRepository_FindHistory() {
	ctx := context.Background()
	scope := TestScope("user-0001")

	SeedFinishedGame(suite.T(), suite.db, scope, "gold", models.TowerGameBust, 100, 3, 1)
	SeedFinishedGame(suite.T(), suite.db, scope, "gold", models.TowerGameCashout, 200, 2, 4)
	SeedActiveGame(suite.T(), suite.db, scope, "gold", 50, 4, 0)

	// 其他作用域的游戏不应出现
	SeedFinishedGame(suite.T(), suite.db, TestScope("user-0002"), "gold", models.TowerGameBust, 999, 2, 0)

	pagination := NewPagination(1, 10)
	games, err := suite.gameRepo.FindHistory(ctx, scope, pagination)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), games, 3)
	assert.Equal(suite.T(), int64(3), pagination.Total)
}

// TestTowerGameRepository_LockForUpdate 测试锁定游戏行
func (suite *TowerGameRepositoryTestSuite) TestTowerGameRepository_LockForUpdate() {
	ctx := context.Background()
	scope := TestScope("user-0001")
	game := SeedActiveGame(suite.T(), suite.db, scope, "gold", 100, 3, 0)

	locked, err := suite.gameRepo.LockForUpdate(ctx, game.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), game.ID, locked.ID)

	_, err = suite.gameRepo.LockForUpdate(ctx, "no-such-game")
	assert.True(suite.T(), errors.Is(err, errors.ErrGameNotFound))
}

func TestTowerGameRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(TowerGameRepositoryTestSuite))
}

// TestTowerGameModel_ValidDoor 门编号校验
func TestTowerGameModel_ValidDoor(t *testing.T) {
	game := &models.TowerGame{Doors: 3}
	assert.True(t, game.ValidDoor(0))
	assert.True(t, game.ValidDoor(2))
	assert.False(t, game.ValidDoor(3))
	assert.False(t, game.ValidDoor(-1))
}
