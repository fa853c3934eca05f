package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	db   *gorm.DB
	once sync.Once
)

// GetDB 获取数据库连接实例(单例模式)
func GetDB() *gorm.DB {
	once.Do(func() {
		var err error
		db, err = initDB(getDBPath())
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
	})
	return db
}

// Open 按指定路径打开数据库,供测试与自定义路径使用
func Open(dbPath string) (*gorm.DB, error) {
	return initDB(dbPath)
}

// initDB 初始化数据库连接
func initDB(dbPath string) (*gorm.DB, error) {
	// 确保数据目录存在
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// 连接数据库
	gdb, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect sqlite: %w", err)
	}

	// 获取底层数据库连接
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite database object: %w", err)
	}

	// SQLite 只支持单个写入连接
	sqlDB.SetMaxOpenConns(1)

	// 自动迁移数据库表结构
	if err := AutoMigrate(gdb); err != nil {
		return nil, fmt.Errorf("failed to auto migrate: %w", err)
	}

	log.Printf("Database initialized successfully at: %s", dbPath)
	return gdb, nil
}

// getDBPath 获取数据库文件路径
func getDBPath() string {
	// 优先使用环境变量
	if dbPath := os.Getenv("ZENSTAT_DB_PATH"); dbPath != "" {
		return dbPath
	}

	// 默认使用当前目录下的 data/zenstat.db
	return "./data/zenstat.db"
}

// SetPath 在首次 GetDB 之前指定数据库路径
func SetPath(dbPath string) {
	if dbPath != "" {
		os.Setenv("ZENSTAT_DB_PATH", dbPath)
	}
}

// Close 关闭数据库连接
func Close() error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
