package main

import (
	"context"

	"github.com/wfunc/scoresheet/internal/cache"
	"github.com/wfunc/scoresheet/internal/config"
	"github.com/wfunc/scoresheet/internal/database"
	"github.com/wfunc/scoresheet/internal/logger"
	"github.com/wfunc/scoresheet/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// appOptions 全局命令行选项
type appOptions struct {
	configPath string
	verbose    bool
}

// app 一次命令执行所需的组件
type app struct {
	db       *gorm.DB
	cache    cache.GameCache
	log      *zap.Logger
	services *service.Services
}

// openApp 加载配置、打开数据库并创建服务。
// 启用缓存时连接同一个Redis，编辑后清除服务端的缓存。
func openApp(ctx context.Context, opts *appOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	// 默认只输出错误日志，避免干扰命令输出
	if !opts.verbose {
		cfg.Log.Level = "error"
	}
	// 标准输出留给命令结果
	if cfg.Log.Output == "stdout" {
		cfg.Log.Output = "stderr"
	}
	if err := logger.Init(&cfg.Log); err != nil {
		return nil, err
	}
	log := logger.GetLogger()

	db, err := database.Open(&cfg.Database, log.Named("database"))
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		closeDB(db)
		return nil, err
	}

	gameCache, err := cache.New(ctx, &cfg.Cache, log.Named("cache"))
	if err != nil {
		log.Warn("缓存不可用，继续执行", zap.Error(err))
		gameCache = cache.NopCache{}
	}

	services, err := service.NewServices(db, service.ConfigFrom(cfg, gameCache), log)
	if err != nil {
		gameCache.Close()
		closeDB(db)
		return nil, err
	}

	return &app{db: db, cache: gameCache, log: log, services: services}, nil
}

func (a *app) Close() {
	_ = a.cache.Close()
	_ = a.log.Sync()
	closeDB(a.db)
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
