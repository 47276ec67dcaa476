package terminal_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/restopay/terminalflow/internal/config"
	"github.com/restopay/terminalflow/internal/terminal"
)

func setupTestDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dbConfig := &config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "testuser",
		Password:        "testpass",
		Name:            "testdb",
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}

	db, err := terminal.Connect(ctx, dbConfig, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(db.Close)

	migrationSQL, err := os.ReadFile(migrationPath())
	require.NoError(t, err)

	_, err = db.Exec(ctx, string(migrationSQL))
	require.NoError(t, err)

	return db
}

func migrationPath() string {
	_, filename, _, _ := runtime.Caller(0)
	root := filepath.Dir(filepath.Dir(filepath.Dir(filename)))
	return filepath.Join(root, "db", "migrations", "001_init.up.sql")
}

func TestPostgresSource_EnablementRoundTrip(t *testing.T) {
	db := setupTestDatabase(t)
	source := terminal.NewPostgresSource(db)
	ctx := context.Background()

	flags, err := source.EnabledIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, flags)

	require.NoError(t, source.SetEnabled(ctx, "term-1", true))
	require.NoError(t, source.SetEnabled(ctx, "term-2", false))

	flags, err = source.EnabledIDs(ctx)
	require.NoError(t, err)
	assert.True(t, flags["term-1"])
	assert.False(t, flags["term-2"])

	// Flip the flag: the upsert must overwrite.
	require.NoError(t, source.SetEnabled(ctx, "term-1", false))

	flags, err = source.EnabledIDs(ctx)
	require.NoError(t, err)
	assert.False(t, flags["term-1"])
}
