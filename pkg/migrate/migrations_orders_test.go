package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mintmotion/mintmotion-backend/pkg/migrate"
)

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_orders.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no orders migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS transactions",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_transactions_tx_hash ON transactions (tx_hash)",
		"CHECK (total_usd >= 0)",
		"FOREIGN KEY (transaction_id) REFERENCES transactions(id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS records",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir failed validation: %v", err)
	}
}
