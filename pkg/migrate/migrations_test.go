package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMigrationsDirValidates(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir invalid: %v", err)
	}
}

func TestItemsMigrationConstrainsList(t *testing.T) {
	entries, err := os.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}

	var itemsSQL string
	for _, e := range entries {
		if strings.Contains(e.Name(), "create_items") {
			b, err := os.ReadFile(filepath.Join("migrations", e.Name()))
			if err != nil {
				t.Fatalf("read items migration: %v", err)
			}
			itemsSQL = string(b)
		}
	}
	if itemsSQL == "" {
		t.Fatal("items migration not found")
	}

	for _, fragment := range []string{"'pantry'", "'grocery'", "items_owner_list_idx"} {
		if !strings.Contains(itemsSQL, fragment) {
			t.Fatalf("items migration missing %s", fragment)
		}
	}
}

// The same migration files run under both goose dialects, so postgres-only
// function defaults must stay out of them.
func TestMigrationsApplyUnderBothDialects(t *testing.T) {
	entries, err := os.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}

	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		b, err := os.ReadFile(filepath.Join("migrations", e.Name()))
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}
		sql := string(b)
		for _, fragment := range []string{"gen_random_uuid", "DEFAULT now()"} {
			if strings.Contains(sql, fragment) {
				t.Fatalf("%s uses %s, which sqlite cannot apply", e.Name(), fragment)
			}
		}
	}
}
