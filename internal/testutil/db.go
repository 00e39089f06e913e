package testutil

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewTestPool connects to TEST_DATABASE_URL and skips the test when it is
// unset or unreachable.
func NewTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("skip integration test: TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("skip integration test (db connect init): %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("skip integration test (db ping): %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func migrationsDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("locate testutil source")
	}
	dir := filepath.Join(filepath.Dir(file), "..", "db", "migrations")
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		t.Fatalf("migrations directory not found: %s", dir)
	}
	return dir
}

func ApplyMigrations(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	files, err := filepath.Glob(filepath.Join(migrationsDir(t), "*.up.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	sort.Strings(files)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			t.Fatalf("read migration %s: %v", file, err)
		}
		for _, stmt := range strings.Split(string(content), ";") {
			q := strings.TrimSpace(stmt)
			if q == "" {
				continue
			}
			if _, err := pool.Exec(ctx, q); err != nil {
				t.Fatalf("exec migration %s: %v\nstmt=%s", file, err, q)
			}
		}
	}
}

func ResetTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	q := `
TRUNCATE TABLE
  payments,
  loans,
  borrowers,
  admin_audit_logs,
  auth_sessions,
  users
RESTART IDENTITY CASCADE
`
	if _, err := pool.Exec(ctx, q); err != nil {
		t.Fatalf("reset tables: %v", err)
	}
}
