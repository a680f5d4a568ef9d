package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/tower-game/internal/errors"
	"github.com/wfunc/tower-game/internal/hashchain"
	"github.com/wfunc/tower-game/internal/middleware"
	"github.com/wfunc/tower-game/internal/repository"
	"go.uber.org/zap"
)

// HashChainHandler 哈希链处理器
type HashChainHandler struct {
	service *hashchain.Service
	log     *zap.Logger
}

// NewHashChainHandler 创建哈希链处理器
func NewHashChainHandler(service *hashchain.Service, log *zap.Logger) *HashChainHandler {
	return &HashChainHandler{
		service: service,
		log:     log,
	}
}

// createChainRequest 创建链请求
type createChainRequest struct {
	TotalIterations int `json:"total_iterations" binding:"required"`
}

// Create 为当前会话作用域创建新链
// POST /api/v1/chain
func (h *HashChainHandler) Create(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		respondError(c, h.log, errors.New(errors.ErrAuthentication))
		return
	}

	var req createChainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, errors.Wrap(err, errors.ErrInvalidParam))
		return
	}

	chain, commitment, err := h.service.CreateChain(c.Request.Context(), session.Scope(), req.TotalIterations)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"chain":      chain,
		"commitment": commitment,
	})
}

// Records 链的审计记录
// GET /api/v1/chain/:id/records?page=1&page_size=20
func (h *HashChainHandler) Records(c *gin.Context) {
	chainID := c.Param("id")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	pagination := repository.NewPagination(page, pageSize)

	records, err := h.service.Records(c.Request.Context(), chainID, pagination)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"records":    records,
		"pagination": pagination,
	})
}

// RevealSeed 公开已停用链的服务端种子
// GET /api/v1/chain/:id/seed
func (h *HashChainHandler) RevealSeed(c *gin.Context) {
	chainID := c.Param("id")

	seed, err := h.service.RevealSeed(c.Request.Context(), chainID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"server_seed": seed,
	})
}
