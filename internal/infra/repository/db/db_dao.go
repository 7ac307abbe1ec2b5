package db

import (
	"context"
	"fmt"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"gorm.io/gorm"
)

// DbDao 所有 repo 共用的 gorm 連線
type DbDao struct {
	*gorm.DB
}

func NewDbDao(conn *gorm.DB) *DbDao {
	return &DbDao{
		DB: conn,
	}
}

// storefront 的資料表，順序即 migrate 順序
var schema = []any{
	&model.Product{},
	&model.Order{},
	&model.OrderItem{},
	&model.Setting{},
}

// InitMigrate 冪等
func (d *DbDao) InitMigrate() error {
	if err := d.AutoMigrate(schema...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func (d *DbDao) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *DbDao) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
