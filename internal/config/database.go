package config

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxConfig translates the enablement database settings into a pool config.
func (c *DatabaseConfig) PgxConfig(ctx context.Context) (*pgxpool.Config, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	poolCfg.MaxConns = int32(c.MaxOpenConns)
	poolCfg.MinConns = int32(c.MaxIdleConns)
	poolCfg.MaxConnLifetime = c.ConnMaxLifetime
	poolCfg.MaxConnIdleTime = c.ConnMaxIdleTime
	// Enablement reads are sparse; one health check a minute is enough.
	poolCfg.HealthCheckPeriod = time.Minute

	return poolCfg, nil
}
