package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"dao-governance/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDatabaseConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:            "localhost",
		Port:            5432,
		User:            "dao",
		Password:        "dao",
		DBName:          "dao_governance",
		SSLMode:         "disable",
		MaxConns:        12,
		MinConns:        3,
		ConnMaxLifetime: 15 * time.Minute,
	}
}

func TestApplyPoolLimits(t *testing.T) {
	cfg := testDatabaseConfig()
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	require.NoError(t, err)

	applyPoolLimits(poolCfg, cfg)

	assert.Equal(t, int32(12), poolCfg.MaxConns)
	assert.Equal(t, int32(3), poolCfg.MinConns)
	assert.Equal(t, 15*time.Minute, poolCfg.MaxConnLifetime)
	assert.Equal(t, "dao_governance", poolCfg.ConnConfig.Database)
}

func TestApplyPoolLimits_KeepsDriverDefaults(t *testing.T) {
	cfg := testDatabaseConfig()
	cfg.MaxConns, cfg.MinConns, cfg.ConnMaxLifetime = 0, 0, 0
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	require.NoError(t, err)
	defaults := *poolCfg

	applyPoolLimits(poolCfg, cfg)

	assert.Equal(t, defaults.MaxConns, poolCfg.MaxConns)
	assert.Equal(t, defaults.MinConns, poolCfg.MinConns)
	assert.Equal(t, defaults.MaxConnLifetime, poolCfg.MaxConnLifetime)
}

func TestHealthCheck(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	hc := NewHealthCheck(mock)
	assert.Equal(t, "postgresql", hc.Name())

	mock.ExpectPing()
	assert.NoError(t, hc.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.Error(t, hc.Ping(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}
