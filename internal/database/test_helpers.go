package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func testLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zap.NewNop()
}

// setupTestDB returns a hermetic SQLite database in a temp directory. The
// schema is the one createTables builds for the sqlite backend.
func setupTestDB(t *testing.T) (*DB, func()) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "framecast_test.db")
	db, err := NewDB(Config{Type: "sqlite", SQLitePath: dbPath})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return db, cleanup
}

// setupPostgresTestDB spins up a disposable PostgreSQL container for backend
// parity tests. Requires docker; enabled with FRAMECAST_PG_TESTS=1.
func setupPostgresTestDB(t *testing.T) (*DB, func()) {
	t.Helper()

	if os.Getenv("FRAMECAST_PG_TESTS") == "" {
		t.Skip("set FRAMECAST_PG_TESTS=1 to run PostgreSQL tests")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("framecast_test"),
		postgres.WithUsername("framecast_test"),
		postgres.WithPassword("framecast_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	db, err := NewDB(Config{
		Type:     "postgres",
		Host:     host,
		Port:     port.Int(),
		User:     "framecast_test",
		Password: "framecast_test_password",
		Name:     "framecast_test",
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	cleanup := func() {
		db.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}
