package database

import (
	"io/fs"
	"strings"
	"testing"
)

// TestMigrationsFS_ContainsUpDownPairs は埋め込まれたマイグレーションが
// up/downの対で揃っていることを検証する。
func TestMigrationsFS_ContainsUpDownPairs(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("failed to read embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no migration files embedded")
	}

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected migration file: %s", name)
		}
	}

	for base := range ups {
		if !downs[base] {
			t.Errorf("migration %s has no down counterpart", base)
		}
	}
	for base := range downs {
		if !ups[base] {
			t.Errorf("migration %s has no up counterpart", base)
		}
	}
}

// TestMigrationsFS_InitSchemaCoversCoreTables は初期マイグレーションが
// 主要テーブルを作成することを検証する。
func TestMigrationsFS_InitSchemaCoversCoreTables(t *testing.T) {
	data, err := fs.ReadFile(migrationsFS, "migrations/000001_init.up.sql")
	if err != nil {
		t.Fatalf("failed to read init migration: %v", err)
	}
	schema := string(data)

	for _, table := range []string{
		"users",
		"friendships",
		"films",
		"film_genres",
		"film_directors",
		"likes",
		"genres",
		"mpa_ratings",
		"directors",
		"reviews",
		"review_reactions",
		"feed_events",
	} {
		if !strings.Contains(schema, table) {
			t.Errorf("init migration should create table %q", table)
		}
	}
}

func TestNewMigrator_WithInvalidURL_ReturnsError(t *testing.T) {
	_, err := NewMigrator("not-a-database-url")
	if err == nil {
		t.Fatal("NewMigrator should fail for a URL without scheme")
	}
}
