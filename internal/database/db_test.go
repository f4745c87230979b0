package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	assert.Equal(t,
		"efarm:pw@tcp(db:3306)/shop?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		DSN("efarm", "pw", "db", "3306", "shop"))
	assert.Equal(t,
		"efarm@tcp(db:3306)/shop?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		DSN("efarm", "", "db", "3306", "shop"))
}

func TestMigrateRunsEveryStatement(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer raw.Close()

	for range schema {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, Migrate(context.Background(), sqlx.NewDb(raw, "mysql")))
	assert.NoError(t, mock.ExpectationsWereMet())
}
