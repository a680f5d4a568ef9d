package tower

import (
	"github.com/wfunc/tower-game/internal/config"
	"github.com/wfunc/tower-game/internal/errors"
)

// validateStart 校验开局参数
func validateStart(cfg *config.TowerConfig, input StartInput) error {
	if input.Wager < 1 {
		return errors.Newf(errors.ErrInvalidParam, "投注额必须 >= 1: %d", input.Wager)
	}
	if input.Doors < cfg.MinDoors || input.Doors > cfg.MaxDoors {
		return errors.Newf(errors.ErrInvalidDoor, "门数必须在 [%d,%d] 内: %d", cfg.MinDoors, cfg.MaxDoors, input.Doors)
	}
	if input.CurrencyKey == "" {
		return errors.New(errors.ErrInvalidParam, "币种不能为空")
	}
	if input.HashChainID == "" {
		return errors.New(errors.ErrInvalidParam, "必须指定哈希链")
	}
	if len(input.ClientSeed) > cfg.ClientSeedMaxLen {
		return errors.Newf(errors.ErrInvalidParam, "玩家种子过长: %d > %d", len(input.ClientSeed), cfg.ClientSeedMaxLen)
	}
	return nil
}

// validateClimb 校验爬塔参数
func validateClimb(doors int, input ClimbInput) error {
	if input.Door < 0 || input.Door >= doors {
		return errors.Newf(errors.ErrInvalidDoor, "门编号必须在 [0,%d) 内: %d", doors, input.Door)
	}
	return nil
}

// validateSession 校验会话完整性
func validateSession(session Session) error {
	if session.UserID == "" || session.CasinoID == "" || session.ExperienceID == "" {
		return errors.New(errors.ErrInvalidParam, "会话作用域不完整")
	}
	return nil
}
