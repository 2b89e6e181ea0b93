package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/scoresheet/internal/api"
	"github.com/wfunc/scoresheet/internal/cache"
	"github.com/wfunc/scoresheet/internal/config"
	"github.com/wfunc/scoresheet/internal/database"
	"github.com/wfunc/scoresheet/internal/errors"
	"github.com/wfunc/scoresheet/internal/logger"
	"github.com/wfunc/scoresheet/internal/service"
	"go.uber.org/zap"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Server 服务器实例
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	cache      cache.GameCache
	httpServer *http.Server

	// 关闭控制
	shutdownCh chan struct{}
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

func main() {
	// 命令行参数
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
		showHelp    = flag.Bool("help", false, "显示帮助信息")
	)

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	// 加载配置
	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Get()

	// 初始化日志系统
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	server := NewServer(cfg)

	if err := server.Start(); err != nil {
		logger.Fatal("服务器启动失败", zap.Error(err))
	}

	// 等待退出信号
	server.WaitForShutdown()

	// 优雅关闭
	if err := server.Shutdown(); err != nil {
		logger.Error("服务器关闭失败", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("服务器已安全关闭")
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		cfg:        cfg,
		logger:     logger.GetLogger(),
		shutdownCh: make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("正在启动棋谱服务...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
	)

	if err := s.initDatabase(); err != nil {
		return err
	}

	gameCache, err := cache.New(s.ctx, &s.cfg.Cache, logger.GetModuleLogger("cache"))
	if err != nil {
		// 缓存不可用时继续运行，只是不缓存
		s.logger.Warn("缓存不可用，已禁用", zap.Error(err))
		gameCache = cache.NopCache{}
	}
	s.cache = gameCache

	gin.SetMode(ginMode(s.cfg.Server.Mode))
	router, err := api.NewRouter(
		database.GetDB(),
		service.ConfigFrom(s.cfg, s.cache),
		logger.GetLogger(),
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrUnknown, "创建路由失败")
	}

	// WebSocket推送中心随服务上下文退出
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		router.Hub().Run(s.ctx)
	}()

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP服务异常退出", zap.Error(err))
			s.requestShutdown()
		}
	}()

	// 监听配置变化
	config.Watch(func(newCfg *config.Config) {
		s.logger.Info("配置已更新，正在重新加载...")
		s.reloadConfig(newCfg)
	})

	s.logger.Info("服务器启动成功", zap.String("http", addr))
	return nil
}

// initDatabase 初始化数据库
func (s *Server) initDatabase() error {
	s.logger.Info("初始化数据库...", zap.String("driver", s.cfg.Database.Driver))

	if err := database.Init(&s.cfg.Database); err != nil {
		return errors.Wrap(err, errors.ErrDatabaseConnect, "初始化数据库连接失败")
	}

	if s.cfg.Database.AutoMigrate {
		s.logger.Info("执行数据库自动迁移...")
		if err := database.AutoMigrate(); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseConnect, "数据库迁移失败")
		}
	}

	if !database.IsConnected() {
		return errors.New(errors.ErrDatabaseConnect, "数据库连接检查失败")
	}

	s.logger.Info("数据库初始化完成")
	return nil
}

// WaitForShutdown 等待关闭信号
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case sig := <-sigCh:
		s.logger.Info("收到退出信号", zap.String("signal", sig.String()))
	case <-s.shutdownCh:
		s.logger.Info("服务请求退出")
	}
}

// requestShutdown 由内部错误触发关闭，只生效一次
func (s *Server) requestShutdown() {
	select {
	case <-s.shutdownCh:
	default:
		close(s.shutdownCh)
	}
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown() error {
	s.logger.Info("正在优雅关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	// 停止接收新请求，等待处理中的请求完成
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("HTTP服务关闭超时", zap.Error(err))
		}
	}

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("所有服务已正常关闭")
	case <-shutdownCtx.Done():
		s.logger.Warn("关闭超时，强制退出")
		return errors.New(errors.ErrTimeout, "关闭超时")
	}

	s.closeComponents()

	if err := logger.Sync(); err != nil {
		fmt.Printf("同步日志失败: %v\n", err)
	}
	return nil
}

// closeComponents 关闭组件
func (s *Server) closeComponents() {
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Error("关闭缓存失败", zap.Error(err))
		}
	}
	if err := database.Close(); err != nil {
		s.logger.Error("关闭数据库失败", zap.Error(err))
	}
	s.logger.Info("所有组件已关闭")
}

// reloadConfig 重新加载配置，目前只应用日志级别
func (s *Server) reloadConfig(newCfg *config.Config) {
	if newCfg.Log.Level != s.cfg.Log.Level {
		logger.SetLevel(newCfg.Log.Level)
		s.logger.Info("日志级别已更新", zap.String("level", newCfg.Log.Level))
	}
	s.cfg = newCfg
}

// ginMode 运行模式对应的gin模式
func ginMode(mode string) string {
	switch mode {
	case "production", "release":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("棋谱服务\n")
	fmt.Printf("版本: %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)
	fmt.Printf("Go版本: %s\n", runtime.Version())
	fmt.Printf("操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("棋谱服务")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  scoresheet-server [选项]")
	fmt.Println()
	fmt.Println("选项:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("环境变量:")
	fmt.Println("  SCORESHEET_SERVER_PORT      监听端口")
	fmt.Println("  SCORESHEET_DATABASE_DSN     数据库连接")
	fmt.Println("  SCORESHEET_CACHE_ENABLED    启用Redis缓存")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  scoresheet-server -config=/path/to/config.yaml")
	fmt.Println("  scoresheet-server -version")
}
