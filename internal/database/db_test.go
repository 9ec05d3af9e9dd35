package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bookstore-api/internal/config"
)

func TestMySQLDSN(t *testing.T) {
	dsn := MySQLDSN(config.DBConfig{User: "app", Pass: "s3cret", Host: "db", Port: "3306", Name: "bookstore"})
	assert.Contains(t, dsn, "app:s3cret@tcp(db:3306)/bookstore")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
	assert.Contains(t, dsn, "clientFoundRows=true")

	assert.Equal(t, "custom", MySQLDSN(config.DBConfig{DSN: "custom"}))
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	db, err := Open(config.DBConfig{Driver: "sqlite", DSN: "file:dbtest?mode=memory&cache=shared"}, nil)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, table := range []string{"users", "refresh_tokens", "books", "orders", "order_items", "activity_logs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DBConfig{Driver: "oracle"}, nil)
	assert.Error(t, err)
}
