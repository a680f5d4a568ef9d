package tower

import (
	"context"
	"time"

	"github.com/wfunc/tower-game/internal/config"
	"github.com/wfunc/tower-game/internal/errors"
	"github.com/wfunc/tower-game/internal/hashchain"
	"github.com/wfunc/tower-game/internal/logger"
	"github.com/wfunc/tower-game/internal/models"
	"github.com/wfunc/tower-game/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service 爬塔游戏服务
//
// 三个命令各自是一个全有或全无的事务。事务内的行锁顺序固定：
// 游戏 → 哈希链 → 玩家余额 → 庄家资金池。资金池是跨玩家共享
// 度最高的行，永远最后锁。任何命令只锁它实际要读改的行，
// 但凡要锁多行必须按此顺序。
type Service struct {
	db           *gorm.DB
	gameRepo     repository.TowerGameRepository
	currencyRepo repository.CurrencyRepository
	balanceRepo  repository.BalanceRepository
	bankrollRepo repository.BankrollRepository
	chainRepo    repository.HashChainRepository
	cfg          config.TowerConfig
	risk         RiskPolicy
	log          *zap.Logger
}

// Option 服务可选配置
type Option func(*Service)

// WithRiskPolicy 注入自定义风控策略
func WithRiskPolicy(policy RiskPolicy) Option {
	return func(s *Service) {
		s.risk = policy
	}
}

// NewService 创建爬塔游戏服务
func NewService(db *gorm.DB, cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		db:           db,
		gameRepo:     repository.NewTowerGameRepository(db),
		currencyRepo: repository.NewCurrencyRepository(db),
		balanceRepo:  repository.NewBalanceRepository(db),
		bankrollRepo: repository.NewBankrollRepository(db),
		chainRepo:    repository.NewHashChainRepository(db),
		cfg:          cfg.Game.Tower,
		risk:         PercentOfBankrollPolicy(cfg.Risk.MaxPayoutPercent),
		log:          logger.GetModuleLogger("game"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// txRepos 事务内重新绑定的仓储集合
type txRepos struct {
	game     repository.TowerGameRepository
	balance  repository.BalanceRepository
	bankroll repository.BankrollRepository
	chain    repository.HashChainRepository
}

func (s *Service) bindTx(tx *gorm.DB) txRepos {
	return txRepos{
		game:     s.gameRepo.WithTx(tx).(repository.TowerGameRepository),
		balance:  s.balanceRepo.WithTx(tx).(repository.BalanceRepository),
		bankroll: s.bankrollRepo.WithTx(tx).(repository.BankrollRepository),
		chain:    s.chainRepo.WithTx(tx).(repository.HashChainRepository),
	}
}

// lockChain 按链ID加作用域锁定链，不可用时产出业务分支
//
// 返回 (nil, reason) 表示链不可用，事务内尚无任何写入，
// 调用方直接提交空事务并返回 BadHashChain。
func lockChain(ctx context.Context, repos txRepos, chainID string, scope repository.Scope) (*models.HashChain, ChainFailReason, error) {
	chain, err := repos.chain.LockByID(ctx, chainID, scope)
	if err != nil {
		return nil, "", err
	}
	if chain == nil || !chain.Active {
		return nil, ChainUnavailable, nil
	}
	if chain.Exhausted() {
		return nil, ChainExhausted, nil
	}
	return chain, "", nil
}

// lockGame 按游戏ID锁定游戏并校验归属
//
// 别人的游戏和不存在的游戏表现一致：都报"游戏不存在"，
// 不泄露他人游戏ID是否有效。
func lockGame(ctx context.Context, repos txRepos, gameID string, scope repository.Scope) (*models.TowerGame, error) {
	game, err := repos.game.LockForUpdate(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.UserID != scope.UserID || game.CasinoID != scope.CasinoID || game.ExperienceID != scope.ExperienceID {
		return nil, errors.New(errors.ErrGameNotFound)
	}
	return game, nil
}

// StartGame 开局
//
// 校验参数与币种、确认作用域内没有进行中的游戏、确认玩家指定
// 的哈希链可用、扣除投注，然后落一条 ACTIVE 游戏记录。链ID与
// 玩家种子在此时一并落到游戏上，本局每层都用这对组合。投注
// 此时只离开玩家账户，庄家在爆塔或兑现结算时才入账。
func (s *Service) StartGame(ctx context.Context, session Session, input StartInput) (StartOutcome, error) {
	if err := validateSession(session); err != nil {
		return nil, err
	}
	if err := validateStart(&s.cfg, input); err != nil {
		return nil, err
	}

	scope := session.Scope()

	if _, err := s.currencyRepo.FindByKey(ctx, session.CasinoID, input.CurrencyKey); err != nil {
		return nil, err
	}

	var outcome StartOutcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.bindTx(tx)

		// 同一作用域内只允许一局进行中
		active, err := repos.game.FindActive(ctx, scope)
		if err != nil {
			return err
		}
		if active != nil {
			return errors.Newf(errors.ErrActiveGameExists, "game=%s", active.ID)
		}

		chain, reason, err := lockChain(ctx, repos, input.HashChainID, scope)
		if err != nil {
			return err
		}
		if chain == nil {
			outcome = BadHashChain{Reason: reason}
			return nil
		}

		balance, err := repos.balance.LockForUpdate(ctx, scope, input.CurrencyKey)
		if err != nil {
			return err
		}
		if !balance.CanAfford(input.Wager) {
			return errors.Newf(errors.ErrInsufficientFunds, "balance=%d wager=%d", balance.Amount, input.Wager)
		}

		bankroll, err := repos.bankroll.LockForUpdate(ctx, session.CasinoID, input.CurrencyKey)
		if err != nil {
			return err
		}

		// 风控：按满层赔付评估，锁内求值保证额度基于真实余额
		potential := Payout(input.Wager, s.cfg.MaxFloor, input.Doors, s.cfg.HouseEdge)
		limits := s.risk(input.CurrencyKey, bankroll.Amount)
		if potential > limits.MaxPayout {
			logger.LogRiskRejection(input.CurrencyKey, potential, limits.MaxPayout)
			outcome = RiskRejected{PotentialPayout: potential, MaxPayout: limits.MaxPayout}
			return nil
		}

		if err := repos.balance.AddAmount(ctx, balance.ID, -input.Wager); err != nil {
			return err
		}

		game := &models.TowerGame{
			UserID:       scope.UserID,
			CasinoID:     scope.CasinoID,
			ExperienceID: scope.ExperienceID,
			CurrencyKey:  input.CurrencyKey,
			HashChainID:  chain.ID,
			ClientSeed:   input.ClientSeed,
			Status:       models.TowerGameActive,
			Wager:        input.Wager,
			Doors:        input.Doors,
		}
		if err := repos.game.Create(ctx, game); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseInsert)
		}

		outcome = StartSuccess{Game: game}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if success, ok := outcome.(StartSuccess); ok {
		logger.LogGameEvent("tower_start", success.Game.ID, map[string]interface{}{
			"user_id":       session.UserID,
			"wager":         input.Wager,
			"doors":         input.Doors,
			"hash_chain_id": input.HashChainID,
		})
	}

	return outcome, nil
}

// ClimbTower 爬塔一层
//
// 消耗开局时指定链上的一个迭代推导安全门。没选中安全门即爆塔，
// 投注归庄家；存活则层数加一，触顶时强制兑现。哈希消耗与结算
// 在同一事务，链不可用时整个事务无任何写入。
func (s *Service) ClimbTower(ctx context.Context, session Session, input ClimbInput) (ClimbOutcome, error) {
	if err := validateSession(session); err != nil {
		return nil, err
	}

	scope := session.Scope()

	var (
		outcome ClimbOutcome
		chainID string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.bindTx(tx)

		game, err := lockGame(ctx, repos, input.GameID, scope)
		if err != nil {
			return err
		}
		if !game.IsActive() {
			return errors.New(errors.ErrGameNotActive)
		}

		if err := validateClimb(game.Doors, input); err != nil {
			return err
		}

		chain, reason, err := lockChain(ctx, repos, game.HashChainID, scope)
		if err != nil {
			return err
		}
		if chain == nil {
			outcome = BadHashChain{Reason: reason}
			return nil
		}

		// 消耗迭代并落审计记录，消耗的是 CurrentIteration-1
		chainID = chain.ID
		iteration := chain.CurrentIteration - 1
		digest := hashchain.DigestAt(chain.ServerSeed, chain.TotalIterations, iteration)

		if err := repos.chain.ConsumeIteration(ctx, chain.ID, chain.CurrentIteration); err != nil {
			return err
		}
		if iteration < 2 {
			// 迭代1已用掉，链上只剩公开的链尾承诺
			if err := repos.chain.Deactivate(ctx, chain.ID); err != nil {
				return err
			}
		}

		record := &models.HashRecord{
			HashChainID: chain.ID,
			Kind:        models.HashRecordIntermediate,
			Digest:      digest,
			Iteration:   iteration,
			ClientSeed:  game.ClientSeed,
			Metadata: models.JSONMap{
				"type":    "TOWER_CLIMB",
				"game_id": game.ID,
				"door":    input.Door,
			},
		}
		if err := repos.chain.CreateRecord(ctx, record); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseInsert)
		}

		safeDoor := ResolveSafeDoor(digest, game.ClientSeed, game.Doors)
		now := time.Now()

		if input.Door != safeDoor {
			// 爆塔：投注归庄家
			bankroll, err := repos.bankroll.LockForUpdate(ctx, scope.CasinoID, game.CurrencyKey)
			if err != nil {
				return err
			}
			ev := ExpectedHouseProfit(game.Wager, s.cfg.HouseEdge)
			if err := repos.bankroll.ApplySettlement(ctx, bankroll.ID, game.Wager, game.Wager, 1, ev); err != nil {
				return err
			}
			if err := repos.game.Finish(ctx, game.ID, models.TowerGameBust, game.CurrentLevel, now); err != nil {
				return err
			}

			game.Status = models.TowerGameBust
			game.EndedAt = &now
			outcome = ClimbSuccess{
				Game:      game,
				Busted:    true,
				SafeDoor:  safeDoor,
				Digest:    digest,
				Iteration: iteration,
			}
			return nil
		}

		newLevel := game.CurrentLevel + 1

		if newLevel >= s.cfg.MaxFloor {
			// 触顶强制兑现
			payout := Payout(game.Wager, newLevel, game.Doors, s.cfg.HouseEdge)

			balance, err := repos.balance.LockForUpdate(ctx, scope, game.CurrencyKey)
			if err != nil {
				return err
			}
			if err := repos.balance.AddAmount(ctx, balance.ID, payout); err != nil {
				return err
			}

			bankroll, err := repos.bankroll.LockForUpdate(ctx, scope.CasinoID, game.CurrencyKey)
			if err != nil {
				return err
			}
			ev := ExpectedHouseProfit(game.Wager, s.cfg.HouseEdge)
			if err := repos.bankroll.ApplySettlement(ctx, bankroll.ID, game.Wager-payout, game.Wager, 1, ev); err != nil {
				return err
			}

			if err := repos.game.Finish(ctx, game.ID, models.TowerGameCashout, newLevel, now); err != nil {
				return err
			}

			game.Status = models.TowerGameCashout
			game.CurrentLevel = newLevel
			game.EndedAt = &now
			outcome = ClimbSuccess{
				Game:        game,
				SafeDoor:    safeDoor,
				AutoCashout: true,
				Payout:      payout,
				Digest:      digest,
				Iteration:   iteration,
			}
			return nil
		}

		if err := repos.game.AdvanceLevel(ctx, game.ID, newLevel); err != nil {
			return err
		}

		game.CurrentLevel = newLevel
		outcome = ClimbSuccess{
			Game:      game,
			SafeDoor:  safeDoor,
			Digest:    digest,
			Iteration: iteration,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if success, ok := outcome.(ClimbSuccess); ok {
		logger.LogHashConsumed(chainID, success.Iteration, success.Game.ID)
		logger.LogGameEvent("tower_climb", success.Game.ID, map[string]interface{}{
			"door":         input.Door,
			"safe_door":    success.SafeDoor,
			"busted":       success.Busted,
			"auto_cashout": success.AutoCashout,
			"level":        success.Game.CurrentLevel,
		})
	}

	return outcome, nil
}

// CashoutTower 主动兑现
//
// 至少爬过一层才可兑现。赔付按当前层数倍数向下取整，
// 玩家入账与庄家结算在同一事务完成。
func (s *Service) CashoutTower(ctx context.Context, session Session, input CashoutInput) (*CashoutResult, error) {
	if err := validateSession(session); err != nil {
		return nil, err
	}

	scope := session.Scope()

	var result *CashoutResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.bindTx(tx)

		game, err := lockGame(ctx, repos, input.GameID, scope)
		if err != nil {
			return err
		}
		if !game.IsActive() {
			return errors.New(errors.ErrGameNotActive)
		}
		if game.CurrentLevel < 1 {
			return errors.New(errors.ErrCashoutAtGround)
		}

		payout := Payout(game.Wager, game.CurrentLevel, game.Doors, s.cfg.HouseEdge)

		balance, err := repos.balance.LockForUpdate(ctx, scope, game.CurrencyKey)
		if err != nil {
			return err
		}
		if err := repos.balance.AddAmount(ctx, balance.ID, payout); err != nil {
			return err
		}

		bankroll, err := repos.bankroll.LockForUpdate(ctx, scope.CasinoID, game.CurrencyKey)
		if err != nil {
			return err
		}
		ev := ExpectedHouseProfit(game.Wager, s.cfg.HouseEdge)
		if err := repos.bankroll.ApplySettlement(ctx, bankroll.ID, game.Wager-payout, game.Wager, 1, ev); err != nil {
			return err
		}

		now := time.Now()
		if err := repos.game.Finish(ctx, game.ID, models.TowerGameCashout, game.CurrentLevel, now); err != nil {
			return err
		}

		game.Status = models.TowerGameCashout
		game.EndedAt = &now
		result = &CashoutResult{
			Game:       game,
			Payout:     payout,
			Multiplier: Multiplier(game.CurrentLevel, game.Doors, s.cfg.HouseEdge),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.LogGameEvent("tower_cashout", result.Game.ID, map[string]interface{}{
		"payout": result.Payout,
		"level":  result.Game.CurrentLevel,
	})

	return result, nil
}

// History 查询作用域内的历史游戏
func (s *Service) History(ctx context.Context, session Session, pagination *repository.Pagination) ([]*models.TowerGame, error) {
	if err := validateSession(session); err != nil {
		return nil, err
	}
	return s.gameRepo.FindHistory(ctx, session.Scope(), pagination)
}
