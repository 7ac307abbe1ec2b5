package db

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// ConnOptions postgres 連線與連線池設定，0 表示使用 database/sql 預設
type ConnOptions struct {
	Name     string
	Host     string
	Port     string
	User     string
	Password string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (o ConnOptions) DSN() string {
	sslMode := o.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		o.User, o.Password, o.Host, o.Port, o.Name, sslMode)
}

// gorm 的 warn 與慢查詢走 zerolog
func gormLogger() logger.Interface {
	return logger.New(&log.Logger, logger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

func GetDbConn(opts ConnOptions) (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(opts.DSN()), &gorm.Config{
		Logger: gormLogger(),
	})
	if err != nil {
		return nil, err
	}
	if err := ApplyPool(conn, opts); err != nil {
		return nil, err
	}
	return conn, nil
}

func ApplyPool(conn *gorm.DB, opts ConnOptions) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	return nil
}
