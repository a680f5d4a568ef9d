package api

import (
	"github.com/gin-gonic/gin"
	"github.com/wfunc/tower-game/internal/config"
	"github.com/wfunc/tower-game/internal/game/tower"
	"github.com/wfunc/tower-game/internal/hashchain"
	"github.com/wfunc/tower-game/internal/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Router API路由器
type Router struct {
	engine           *gin.Engine
	db               *gorm.DB
	towerHandler     *TowerHandler
	hashChainHandler *HashChainHandler
	authMiddleware   *middleware.AuthMiddleware
	log              *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(db *gorm.DB, cfg *config.Config, log *zap.Logger) *Router {
	// 创建Gin引擎
	engine := gin.New()

	// 全局中间件
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())

	// 创建服务
	towerService := tower.NewService(db, cfg)
	chainService := hashchain.NewService(db)

	// 创建处理器
	towerHandler := NewTowerHandler(towerService, log)
	hashChainHandler := NewHashChainHandler(chainService, log)

	// 创建中间件
	authMiddleware := middleware.NewAuthMiddleware(&cfg.Security.JWT)

	router := &Router{
		engine:           engine,
		db:               db,
		towerHandler:     towerHandler,
		hashChainHandler: hashChainHandler,
		authMiddleware:   authMiddleware,
		log:              log,
	}

	// 设置路由
	router.setupRoutes()

	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	// API v1路由组
	v1 := r.engine.Group("/api/v1")
	{
		// 爬塔游戏路由（需要会话）
		towerGroup := v1.Group("/tower")
		towerGroup.Use(r.authMiddleware.RequireSession())
		{
			towerGroup.POST("/start", r.towerHandler.Start)
			towerGroup.POST("/climb", r.towerHandler.Climb)
			towerGroup.POST("/cashout", r.towerHandler.Cashout)
			towerGroup.GET("/games", r.towerHandler.History)
		}

		// 哈希链路由
		chain := v1.Group("/chain")
		chain.Use(r.authMiddleware.RequireSession())
		{
			chain.POST("", r.hashChainHandler.Create)
			chain.GET("/:id/records", r.hashChainHandler.Records)
			chain.GET("/:id/seed", r.hashChainHandler.RevealSeed)
		}
	}

	// 404处理
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"code":    "NOT_FOUND",
			"message": "接口不存在",
		})
	})
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	// 检查数据库连接
	sqlDB, err := r.db.DB()
	if err != nil {
		c.JSON(500, gin.H{
			"status":  "unhealthy",
			"message": "数据库连接失败",
		})
		return
	}

	if err := sqlDB.Ping(); err != nil {
		c.JSON(500, gin.H{
			"status":  "unhealthy",
			"message": "数据库ping失败",
		})
		return
	}

	c.JSON(200, gin.H{
		"status":  "healthy",
		"message": "服务运行正常",
	})
}

// Run 运行服务器
func (r *Router) Run(addr string) error {
	r.log.Info("Starting API server", zap.String("address", addr))
	return r.engine.Run(addr)
}

// GetEngine 获取Gin引擎（用于测试）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
