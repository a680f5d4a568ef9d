package database

import (
	"context"
	"fmt"
	"time"

	"github.com/wfunc/tower-game/internal/config"
	"github.com/wfunc/tower-game/internal/logger"
	"github.com/wfunc/tower-game/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB 全局数据库实例
var DB *gorm.DB

// 三个命令事务靠悲观行锁互斥，锁等超过该阈值按慢查询告警
const slowQueryThreshold = time.Second

// Init 初始化数据库连接
//
// 结算链路全走悲观行锁，LockTimeout 下到各驱动的锁等待参数，
// 让锁冲突以可重试错误浮出来而不是无限排队。
func Init(cfg *config.DatabaseConfig) error {
	dialector, err := openDialector(cfg)
	if err != nil {
		return err
	}

	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger:                 newQueryLogger(logger.GetLogger(), cfg.LogLevel),
		SkipDefaultTransaction: true, // 事务边界由服务层显式划定
		PrepareStmt:            true,
	})
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("获取数据库实例失败: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("数据库连接测试失败: %w", err)
	}

	applyLockTimeout(cfg)

	logger.Info("数据库连接成功",
		zap.String("driver", cfg.Driver),
		zap.Int("max_idle", cfg.MaxIdleConns),
		zap.Int("max_open", cfg.MaxOpenConns),
		zap.Duration("lock_timeout", cfg.LockTimeout),
	)

	return nil
}

func openDialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "mysql":
		return mysql.Open(cfg.DSN), nil
	case "postgres", "postgresql":
		return postgres.Open(cfg.DSN), nil
	case "sqlite", "sqlite3":
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}
}

// applyLockTimeout 设置各驱动的行锁等待上限
//
// 设置失败不致命，只是锁冲突退化成默认的等待行为。
func applyLockTimeout(cfg *config.DatabaseConfig) {
	if cfg.LockTimeout <= 0 {
		return
	}

	var err error
	switch DB.Dialector.Name() {
	case "sqlite":
		err = DB.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.LockTimeout.Milliseconds())).Error
	case "mysql":
		err = DB.Exec(fmt.Sprintf("SET SESSION innodb_lock_wait_timeout = %d", int(cfg.LockTimeout.Seconds()))).Error
	case "postgres":
		err = DB.Exec(fmt.Sprintf("SET lock_timeout = '%dms'", cfg.LockTimeout.Milliseconds())).Error
	}
	if err != nil {
		logger.Warn("设置锁等待超时失败", zap.Error(err))
	}
}

// AutoMigrate 迁移表结构并创建索引
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}

	tables := []interface{}{
		&models.Currency{},
		&models.PlayerBalance{},
		&models.HouseBankroll{},
		&models.TowerGame{},
		&models.HashChain{},
		&models.HashRecord{},
	}

	logger.Info("开始数据库迁移...")

	if DB.Dialector.Name() == "sqlite" {
		DB.Exec("PRAGMA foreign_keys = OFF")
		defer DB.Exec("PRAGMA foreign_keys = ON")
	}

	for _, table := range tables {
		if err := DB.AutoMigrate(table); err != nil {
			logger.Error("迁移失败",
				zap.String("model", fmt.Sprintf("%T", table)),
				zap.Error(err),
			)
			return err
		}
	}

	createIndexes()

	logger.Info("数据库迁移完成")
	return nil
}

// createIndexes 创建 AutoMigrate 覆盖不到的索引
//
// 同一作用域最多一局 ACTIVE 游戏由部分唯一索引在数据库层兜底，
// 服务层的预检查只负责给出友好错误。失败只告警，表结构本身
// 已经可用。
func createIndexes() {
	indexes := []struct {
		name string
		sql  string
	}{
		{
			"idx_tower_game_created_at",
			"CREATE INDEX IF NOT EXISTS idx_tower_game_created_at ON tower_game(created_at)",
		},
		{
			"idx_hash_record_created_at",
			"CREATE INDEX IF NOT EXISTS idx_hash_record_created_at ON hash_record(created_at)",
		},
	}

	// mysql 不支持部分索引，唯一性只靠服务层事务保证
	if name := DB.Dialector.Name(); name == "sqlite" || name == "postgres" {
		indexes = append(indexes, struct {
			name string
			sql  string
		}{
			"idx_tower_game_one_active",
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_tower_game_one_active ON tower_game(user_id, casino_id, experience_id) WHERE status = 'ACTIVE'",
		})
	}

	for _, idx := range indexes {
		if err := DB.Exec(idx.sql).Error; err != nil {
			logger.Warn("创建索引失败", zap.String("index", idx.name), zap.Error(err))
		}
	}
}

// Close 关闭数据库连接
func Close() error {
	if DB != nil {
		sqlDB, err := DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

// GetDB 获取数据库实例
func GetDB() *gorm.DB {
	return DB
}

// IsConnected 检查数据库是否连接
func IsConnected() bool {
	if DB == nil {
		return false
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return false
	}

	return sqlDB.Ping() == nil
}

// Transaction 执行事务
func Transaction(fn func(*gorm.DB) error) error {
	return DB.Transaction(fn)
}

// queryLogger 把 gorm 日志接到 zap
type queryLogger struct {
	log       *zap.Logger
	level     gormlogger.LogLevel
	slowAfter time.Duration
}

func newQueryLogger(log *zap.Logger, level string) *queryLogger {
	l := gormlogger.Info
	switch level {
	case "silent":
		l = gormlogger.Silent
	case "error":
		l = gormlogger.Error
	case "warn":
		l = gormlogger.Warn
	}
	return &queryLogger{
		log:       log,
		level:     l,
		slowAfter: slowQueryThreshold,
	}
}

// LogMode 设置日志级别
func (l *queryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

// Info 输出信息日志
func (l *queryLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Info {
		l.log.Sugar().Infof(msg, data...)
	}
}

// Warn 输出警告日志
func (l *queryLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.log.Sugar().Warnf(msg, data...)
	}
}

// Error 输出错误日志
func (l *queryLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Error {
		l.log.Sugar().Errorf(msg, data...)
	}
}

// Trace 输出SQL追踪日志
func (l *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && l.level >= gormlogger.Error:
		l.log.Error("SQL执行错误",
			zap.Error(err),
			zap.String("sql", sql),
			zap.Duration("elapsed", elapsed),
			zap.Int64("rows", rows),
		)
	case elapsed > l.slowAfter && l.level >= gormlogger.Warn:
		l.log.Warn("SQL执行缓慢",
			zap.String("sql", sql),
			zap.Duration("elapsed", elapsed),
			zap.Int64("rows", rows),
		)
	case l.level >= gormlogger.Info:
		l.log.Debug("SQL执行",
			zap.String("sql", sql),
			zap.Duration("elapsed", elapsed),
			zap.Int64("rows", rows),
		)
	}
}
