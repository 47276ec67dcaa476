package terminal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/restopay/terminalflow/internal/config"
)

// PostgresSource reads terminal enablement flags from the
// terminal_enablement table. The table is maintained by the back-office
// tooling that owns store configuration; this service only consumes it.
type PostgresSource struct {
	db *pgxpool.Pool
}

func NewPostgresSource(db *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) EnabledIDs(ctx context.Context) (map[string]bool, error) {
	query := `
		SELECT terminal_id, enabled
		FROM terminal_enablement
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query terminal enablement: %w", err)
	}
	defer rows.Close()

	flags := make(map[string]bool)
	for rows.Next() {
		var id string
		var enabled bool
		if err := rows.Scan(&id, &enabled); err != nil {
			return nil, fmt.Errorf("scan terminal enablement: %w", err)
		}
		flags[id] = enabled
	}

	return flags, rows.Err()
}

// SetEnabled upserts the flag for a terminal id.
func (s *PostgresSource) SetEnabled(ctx context.Context, terminalID string, enabled bool) error {
	query := `
		INSERT INTO terminal_enablement (terminal_id, enabled, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (terminal_id)
		DO UPDATE SET enabled = EXCLUDED.enabled, updated_at = NOW()
	`

	_, err := s.db.Exec(ctx, query, terminalID, enabled)
	if err != nil {
		return fmt.Errorf("upsert terminal enablement: %w", err)
	}

	return nil
}

// Connect opens a pgx pool using the shared database settings and verifies
// connectivity before returning it.
func Connect(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	pgxCfg, err := cfg.PgxConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connected", "host", cfg.Host, "name", cfg.Name)

	return pool, nil
}
