package db

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// testPool is shared by every test in the package. Nil when no container
// provider is available; tests then skip.
var (
	testPool *pgxpool.Pool
	testDSN  string
)

func TestMain(m *testing.M) {
	os.Exit(runWithPostgres(m))
}

func runWithPostgres(m *testing.M) int {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		slog.Warn("postgres container unavailable, db tests will skip", "error", err)
		return m.Run()
	}
	defer func() {
		_ = container.Terminate(ctx)
	}()

	host, err := container.Host(ctx)
	if err != nil {
		slog.Error("getting container host", "error", err)
		return 1
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		slog.Error("getting container port", "error", err)
		return 1
	}
	testDSN = fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	if err := RunMigrations(ctx, testDSN); err != nil {
		slog.Error("running migrations", "error", err)
		return 1
	}

	d, err := New(ctx, testDSN)
	if err != nil {
		slog.Error("connecting to test db", "error", err)
		return 1
	}
	defer d.Close()
	testPool = d.Pool()

	return m.Run()
}

// setupTestDB returns the shared pool with the journal emptied.
func setupTestDB(tb testing.TB) *pgxpool.Pool {
	tb.Helper()
	if testPool == nil {
		tb.Skip("postgres container not available")
	}

	if _, err := testPool.Exec(context.Background(), "TRUNCATE placements RESTART IDENTITY"); err != nil {
		tb.Fatalf("truncating placements: %v", err)
	}
	return testPool
}
