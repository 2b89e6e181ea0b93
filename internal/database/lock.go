package database

import (
	"fmt"
	"os"
	"time"

	"github.com/wfunc/scoresheet/internal/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	lockAttempts = 30
	lockStaleAge = 5 * time.Minute
)

// acquireMigrationLock 获取迁移锁
func acquireMigrationLock(dbPath string) (*os.File, error) {
	lockPath := dbPath + ".migration.lock"

	for i := 0; i < lockAttempts; i++ {
		lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
		if err == nil {
			logger.Debug("获取迁移锁成功", zap.String("lock", lockPath))
			return lockFile, nil
		}

		// 锁文件过旧视为上次进程异常退出
		if info, err := os.Stat(lockPath); err == nil && time.Since(info.ModTime()) > lockStaleAge {
			logger.Warn("迁移锁文件过期，尝试删除", zap.String("lock", lockPath))
			os.Remove(lockPath)
			continue
		}

		logger.Debug("等待迁移锁...", zap.Int("attempt", i+1))
		time.Sleep(time.Second)
	}

	return nil, fmt.Errorf("无法获取迁移锁，可能有其他进程正在执行迁移")
}

// releaseMigrationLock 释放迁移锁
func releaseMigrationLock(lockFile *os.File) {
	if lockFile == nil {
		return
	}
	lockPath := lockFile.Name()
	lockFile.Close()
	os.Remove(lockPath)
	logger.Debug("释放迁移锁", zap.String("lock", lockPath))
}

// dbFilePath SQLite文件数据库的路径，其他驱动和内存库返回空
func dbFilePath(db *gorm.DB) string {
	if db.Dialector.Name() != "sqlite" {
		return ""
	}
	sqlDB, err := db.DB()
	if err != nil {
		return ""
	}

	var (
		seq        int
		name, file string
	)
	if err := sqlDB.QueryRow("PRAGMA database_list").Scan(&seq, &name, &file); err != nil {
		return ""
	}
	return file
}
