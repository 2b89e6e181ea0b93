package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/scoresheet/internal/middleware"
	"github.com/wfunc/scoresheet/internal/service"
	"github.com/wfunc/scoresheet/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Router API路由器
type Router struct {
	engine      *gin.Engine
	db          *gorm.DB
	services    *service.Services
	gameHandler *GameHandler
	hub         *websocket.Hub
	log         *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(db *gorm.DB, config *service.Config, log *zap.Logger) (*Router, error) {
	if log == nil {
		log = zap.NewNop()
	}

	// 对局变更推送给WebSocket订阅者，Hub由调用方运行
	cfg := service.DefaultConfig()
	if config != nil {
		copied := *config
		cfg = &copied
	}
	hub := websocket.NewHub(log.Named("ws"))
	cfg.Events = hub

	// 创建服务
	services, err := service.NewServices(db, cfg, log)
	if err != nil {
		return nil, err
	}

	// 创建Gin引擎
	engine := gin.New()

	// 全局中间件
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery(log.Named("http")))
	engine.Use(middleware.RequestLogger(log.Named("http")))

	router := &Router{
		engine:      engine,
		db:          db,
		services:    services,
		gameHandler: NewGameHandler(services.Game),
		hub:         hub,
		log:         log,
	}

	// 设置路由
	router.setupRoutes()

	return router, nil
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	// API文档
	registerOpenAPIRoutes(r.engine)
	registerSwaggerRoutes(r.engine)

	// API v1路由组
	v1 := r.engine.Group("/api/v1")
	{
		games := v1.Group("/games")
		{
			games.GET("", r.gameHandler.ListGames)
			games.POST("/import-pgn", r.gameHandler.ImportPGN)
			games.POST("/save-manual", r.gameHandler.SaveManual)
			games.GET("/:id", r.gameHandler.GetGame)
			games.DELETE("/:id", r.gameHandler.DeleteGame)
			games.GET("/:id/pgn", r.gameHandler.ExportPGN)
			games.GET("/:id/verify", r.gameHandler.Verify)
			games.POST("/:id/rebuild", r.gameHandler.Rebuild)

			// 着法编辑
			games.PUT("/:id/moves/:ply", r.gameHandler.UpdateMove)
			games.POST("/:id/moves/insert", r.gameHandler.InsertMove)
		}

		// 对局变更推送
		v1.GET("/ws", websocket.NewHandler(r.hub).ServeWS)
	}

	// 404处理
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
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
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"message": "数据库连接失败",
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"message": "数据库ping失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "服务运行正常",
	})
}

// Handler 返回HTTP处理器
func (r *Router) Handler() http.Handler {
	return r.engine
}

// GetEngine 获取Gin引擎（用于测试）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// Hub WebSocket推送中心
func (r *Router) Hub() *websocket.Hub {
	return r.hub
}

// Services 服务集合
func (r *Router) Services() *service.Services {
	return r.services
}
