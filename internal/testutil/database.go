package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"stockledger/internal/infrastructure/database"
)

// SetupTestDB opens the integration database and applies the schema.
// It expects a MySQL database named 'stockledger_test' on localhost:3306,
// or TEST_DATABASE_DSN pointing elsewhere. Tests are skipped when it is
// not reachable.
func SetupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "root:@tcp(localhost:3306)/stockledger_test?parseTime=true&loc=UTC&clientFoundRows=true"
	}

	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		t.Skipf("test database not available: %v", err)
	}

	if err := database.Migrate(context.Background(), db); err != nil {
		_ = db.Close()
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// CleanupTestDB empties every ledger table and closes the connection.
func CleanupTestDB(t *testing.T, db *sqlx.DB) {
	if db == nil {
		return
	}

	for _, table := range database.Tables() {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	_ = db.Close()
}
