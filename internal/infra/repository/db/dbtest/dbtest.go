// Package dbtest 提供測試用的 in-memory sqlite DbDao
package dbtest

import (
	"testing"

	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDao 每次呼叫都是獨立的空資料庫，已完成 migrate
func NewDao(t testing.TB) *db.DbDao {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	// :memory: 每條連線都是不同的 DB
	sqlDB.SetMaxOpenConns(1)

	dao := db.NewDbDao(conn)
	require.NoError(t, dao.InitMigrate())
	t.Cleanup(func() { _ = dao.Close() })
	return dao
}
