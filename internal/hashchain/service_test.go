package hashchain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/wfunc/tower-game/internal/models"
	"github.com/wfunc/tower-game/internal/repository"
	"gorm.io/gorm"
)

// TestDigestAt_ChainLinks 相邻迭代的摘要构成哈希链
func TestDigestAt_ChainLinks(t *testing.T) {
	seed := "0123456789abcdef0123456789abcdef"
	total := 100

	for iteration := total; iteration > 0; iteration-- {
		child := DigestAt(seed, total, iteration)
		parent := DigestAt(seed, total, iteration-1)
		assert.True(t, VerifyLink(child, parent),
			"迭代 %d 的摘要哈希一次应等于迭代 %d 的摘要", iteration, iteration-1)
	}
}

// TestDigestAt_Deterministic 相同输入产生相同摘要
func TestDigestAt_Deterministic(t *testing.T) {
	seed := "feedface"
	assert.Equal(t, DigestAt(seed, 1000, 500), DigestAt(seed, 1000, 500))
	assert.NotEqual(t, DigestAt(seed, 1000, 500), DigestAt(seed, 1000, 499))
}

// TestDigestAt_TopIteration 最高迭代只哈希一次
func TestDigestAt_TopIteration(t *testing.T) {
	seed := "deadbeef"
	sum := sha256.Sum256([]byte(seed))
	assert.Equal(t, hex.EncodeToString(sum[:]), DigestAt(seed, 10, 10))
}

// HashChainServiceTestSuite 哈希链服务测试套件
type HashChainServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *Service
}

func (suite *HashChainServiceTestSuite) SetupTest() {
	suite.db = setupTestDB()
	suite.service = NewService(suite.db)
}

func (suite *HashChainServiceTestSuite) TearDownTest() {
	sqlDB, _ := suite.db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

func (suite *HashChainServiceTestSuite) testScope() repository.Scope {
	return repository.Scope{
		UserID:       "user-0001",
		CasinoID:     "casino-0001",
		ExperienceID: "experience-0001",
	}
}

// TestCreateChain 测试创建链与承诺摘要
func (suite *HashChainServiceTestSuite) TestCreateChain() {
	ctx := context.Background()
	scope := suite.testScope()

	chain, commitment, err := suite.service.CreateChain(ctx, scope, 1000)
	assert.NoError(suite.T(), err)
	assert.NotEmpty(suite.T(), chain.ID)
	assert.Equal(suite.T(), 1000, chain.CurrentIteration)
	assert.True(suite.T(), chain.Active)

	// 承诺摘要等于迭代0的摘要
	assert.Equal(suite.T(), DigestAt(chain.ServerSeed, 1000, 0), commitment)

	// TERMINAL 审计记录已写入
	records, err := suite.service.Records(ctx, chain.ID, repository.NewPagination(1, 10))
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), records, 1)
	assert.Equal(suite.T(), models.HashRecordTerminal, records[0].Kind)
	assert.Equal(suite.T(), commitment, records[0].Digest)
}

// TestCreateChain_RotatesOldChain 测试新链停用旧链
func (suite *HashChainServiceTestSuite) TestCreateChain_RotatesOldChain() {
	ctx := context.Background()
	scope := suite.testScope()

	old, _, err := suite.service.CreateChain(ctx, scope, 100)
	assert.NoError(suite.T(), err)

	renewed, _, err := suite.service.CreateChain(ctx, scope, 200)
	assert.NoError(suite.T(), err)

	chainRepo := repository.NewHashChainRepository(suite.db)
	active, err := chainRepo.LockActive(ctx, scope)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), renewed.ID, active.ID)

	oldChain, err := chainRepo.FindByID(ctx, old.ID)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), oldChain.Active)
}

// TestGetHash 测试按迭代号取摘要
func (suite *HashChainServiceTestSuite) TestGetHash() {
	ctx := context.Background()
	chain, _, err := suite.service.CreateChain(ctx, suite.testScope(), 100)
	assert.NoError(suite.T(), err)

	digest, err := suite.service.GetHash(ctx, chain.ID, 100)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), DigestAt(chain.ServerSeed, 100, 100), digest)

	// 越界迭代号
	_, err = suite.service.GetHash(ctx, chain.ID, 101)
	assert.Error(suite.T(), err)
	_, err = suite.service.GetHash(ctx, chain.ID, -1)
	assert.Error(suite.T(), err)
}

// TestRevealSeed 测试种子公开规则
func (suite *HashChainServiceTestSuite) TestRevealSeed() {
	ctx := context.Background()
	scope := suite.testScope()

	chain, _, err := suite.service.CreateChain(ctx, scope, 100)
	assert.NoError(suite.T(), err)

	// 激活中不可公开
	_, err = suite.service.RevealSeed(ctx, chain.ID)
	assert.Error(suite.T(), err)

	// 轮换后旧链可公开
	_, _, err = suite.service.CreateChain(ctx, scope, 100)
	assert.NoError(suite.T(), err)

	seed, err := suite.service.RevealSeed(ctx, chain.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), chain.ServerSeed, seed)
}

func TestHashChainServiceTestSuite(t *testing.T) {
	suite.Run(t, new(HashChainServiceTestSuite))
}
