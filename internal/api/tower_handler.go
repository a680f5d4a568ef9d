package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/tower-game/internal/errors"
	"github.com/wfunc/tower-game/internal/game/tower"
	"github.com/wfunc/tower-game/internal/middleware"
	"github.com/wfunc/tower-game/internal/repository"
	"go.uber.org/zap"
)

// TowerHandler 爬塔游戏处理器
type TowerHandler struct {
	service *tower.Service
	log     *zap.Logger
}

// NewTowerHandler 创建爬塔游戏处理器
func NewTowerHandler(service *tower.Service, log *zap.Logger) *TowerHandler {
	return &TowerHandler{
		service: service,
		log:     log,
	}
}

// resultEnvelope 业务结果响应
//
// kind 区分结果变体，客户端按 kind 解析 result。
type resultEnvelope struct {
	Success   bool        `json:"success"`
	Kind      string      `json:"kind"`
	Result    interface{} `json:"result"`
	Timestamp int64       `json:"timestamp"`
}

func respondResult(c *gin.Context, kind string, result interface{}) {
	c.JSON(http.StatusOK, resultEnvelope{
		Success:   true,
		Kind:      kind,
		Result:    result,
		Timestamp: time.Now().Unix(),
	})
}

func respondError(c *gin.Context, log *zap.Logger, err error) {
	appErr, ok := err.(*errors.AppError)
	if !ok {
		appErr = errors.Wrap(err, errors.ErrUnknown)
	}

	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		log.Error("请求处理失败", zap.Error(err))
	}

	c.JSON(status, errors.NewErrorResponse(appErr, c.GetString("requestID")))
}

// Start 开局
// POST /api/v1/tower/start
func (h *TowerHandler) Start(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		respondError(c, h.log, errors.New(errors.ErrAuthentication))
		return
	}

	var input tower.StartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, h.log, errors.Wrap(err, errors.ErrInvalidParam))
		return
	}

	outcome, err := h.service.StartGame(c.Request.Context(), session, input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	switch v := outcome.(type) {
	case tower.StartSuccess:
		respondResult(c, "START_SUCCESS", v)
	case tower.BadHashChain:
		respondResult(c, "BAD_HASH_CHAIN", v)
	case tower.RiskRejected:
		respondResult(c, "RISK_REJECTED", v)
	}
}

// Climb 爬塔一层
// POST /api/v1/tower/climb
func (h *TowerHandler) Climb(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		respondError(c, h.log, errors.New(errors.ErrAuthentication))
		return
	}

	var input tower.ClimbInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, h.log, errors.Wrap(err, errors.ErrInvalidParam))
		return
	}

	outcome, err := h.service.ClimbTower(c.Request.Context(), session, input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	switch v := outcome.(type) {
	case tower.ClimbSuccess:
		respondResult(c, "CLIMB_SUCCESS", v)
	case tower.BadHashChain:
		respondResult(c, "BAD_HASH_CHAIN", v)
	}
}

// Cashout 主动兑现
// POST /api/v1/tower/cashout
func (h *TowerHandler) Cashout(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		respondError(c, h.log, errors.New(errors.ErrAuthentication))
		return
	}

	var input tower.CashoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, h.log, errors.Wrap(err, errors.ErrInvalidParam))
		return
	}

	result, err := h.service.CashoutTower(c.Request.Context(), session, input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondResult(c, "CASHOUT_SUCCESS", result)
}

// History 历史游戏查询
// GET /api/v1/tower/games?page=1&page_size=20
func (h *TowerHandler) History(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		respondError(c, h.log, errors.New(errors.ErrAuthentication))
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	pagination := repository.NewPagination(page, pageSize)

	games, err := h.service.History(c.Request.Context(), session, pagination)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"games":      games,
		"pagination": pagination,
	})
}
