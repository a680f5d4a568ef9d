package hashchain

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/wfunc/tower-game/internal/errors"
	"github.com/wfunc/tower-game/internal/logger"
	"github.com/wfunc/tower-game/internal/models"
	"github.com/wfunc/tower-game/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DigestAt 计算链上第 iteration 个迭代对应的摘要
//
// 链从服务端种子出发反复做 SHA-256：迭代号越小，哈希次数越多。
// 迭代 total 只哈希一次，迭代 1 哈希 total 次，迭代 0 是公开发布的
// 链尾承诺（total+1 次）。每一步对上一步的十六进制串取哈希，
// 玩家拿到任意迭代的摘要后再哈希一次即可对上更早公开的摘要，
// 从而验证服务端没有换链。
func DigestAt(serverSeed string, totalIterations, iteration int) string {
	h := serverSeed
	rounds := totalIterations - iteration + 1
	for i := 0; i < rounds; i++ {
		sum := sha256.Sum256([]byte(h))
		h = hex.EncodeToString(sum[:])
	}
	return h
}

// VerifyLink 验证 child 迭代摘要再哈希一次等于 parent 迭代摘要
func VerifyLink(childDigest, parentDigest string) bool {
	sum := sha256.Sum256([]byte(childDigest))
	return hex.EncodeToString(sum[:]) == parentDigest
}

// Service 哈希链服务
//
// 负责链的创建、轮换与按迭代号取摘要。消耗迭代由游戏事务内完成，
// 不在本服务职责内。
type Service struct {
	chainRepo repository.HashChainRepository
	log       *zap.Logger
}

// NewService 创建哈希链服务
func NewService(db *gorm.DB) *Service {
	return &Service{
		chainRepo: repository.NewHashChainRepository(db),
		log:       logger.GetModuleLogger("hashchain"),
	}
}

// CreateChain 为作用域创建新链并停用旧链
//
// 返回新链与链尾承诺摘要。承诺摘要写入 TERMINAL 审计记录，
// 调用方应将其公开给玩家。
func (s *Service) CreateChain(ctx context.Context, scope repository.Scope, totalIterations int) (*models.HashChain, string, error) {
	if totalIterations < 1 {
		return nil, "", errors.Newf(errors.ErrInvalidParam, "迭代总数必须 >= 1: %d", totalIterations)
	}

	seedBytes := make([]byte, 32)
	if _, err := rand.Read(seedBytes); err != nil {
		return nil, "", errors.Wrap(err, errors.ErrUnknown, "生成服务端种子失败")
	}
	serverSeed := hex.EncodeToString(seedBytes)

	chain := &models.HashChain{
		UserID:           scope.UserID,
		CasinoID:         scope.CasinoID,
		ExperienceID:     scope.ExperienceID,
		ServerSeed:       serverSeed,
		TotalIterations:  totalIterations,
		CurrentIteration: totalIterations,
		Active:           true,
	}

	commitment := DigestAt(serverSeed, totalIterations, 0)

	err := s.chainRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := s.chainRepo.WithTx(tx).(repository.HashChainRepository)

		// 旧链让位
		old, err := txRepo.LockActive(ctx, scope)
		if err != nil {
			return err
		}
		if old != nil {
			if err := txRepo.Deactivate(ctx, old.ID); err != nil {
				return err
			}
		}

		if err := txRepo.Create(ctx, chain); err != nil {
			return err
		}

		return txRepo.CreateRecord(ctx, &models.HashRecord{
			HashChainID: chain.ID,
			Kind:        models.HashRecordTerminal,
			Digest:      commitment,
			Iteration:   0,
		})
	})
	if err != nil {
		return nil, "", errors.Wrap(err, errors.ErrTransaction)
	}

	s.log.Info("哈希链已创建",
		zap.String("chain_id", chain.ID),
		zap.String("user_id", scope.UserID),
		zap.Int("total_iterations", totalIterations),
	)

	return chain, commitment, nil
}

// GetHash 按迭代号取链上摘要
func (s *Service) GetHash(ctx context.Context, chainID string, iteration int) (string, error) {
	chain, err := s.chainRepo.FindByID(ctx, chainID)
	if err != nil {
		return "", err
	}
	if iteration < 0 || iteration > chain.TotalIterations {
		return "", errors.Newf(errors.ErrHashRetrieval, "迭代号越界: %d (total=%d)", iteration, chain.TotalIterations)
	}
	return DigestAt(chain.ServerSeed, chain.TotalIterations, iteration), nil
}

// RevealSeed 公开已停用链的服务端种子，供玩家回放验证
//
// 激活中的链不允许公开，否则后续结果可被预测。
func (s *Service) RevealSeed(ctx context.Context, chainID string) (string, error) {
	chain, err := s.chainRepo.FindByID(ctx, chainID)
	if err != nil {
		return "", err
	}
	if chain.Active {
		return "", errors.New(errors.ErrPermissionDenied, "链未停用，种子不可公开")
	}
	return chain.ServerSeed, nil
}

// Records 查询链的审计记录
func (s *Service) Records(ctx context.Context, chainID string, pagination *repository.Pagination) ([]*models.HashRecord, error) {
	return s.chainRepo.FindRecords(ctx, chainID, pagination)
}
