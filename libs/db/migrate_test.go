package db

import (
	"testing"
	"testing/fstest"
)

func TestLoadMigrationsOrdersByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"010_outbox.sql":  {Data: []byte("CREATE TABLE outbox_events (id BIGSERIAL);")},
		"002_rules.sql":   {Data: []byte("CREATE TABLE availability_rules (id TEXT);")},
		"001_init.sql":    {Data: []byte("CREATE TABLE appointments (id TEXT);")},
		"README.md":       {Data: []byte("not a migration")},
		"notes_draft.sql": {Data: []byte("SELECT 1;")},
	}
	got, err := LoadMigrations(fsys)
	if err != nil {
		t.Fatalf("LoadMigrations: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(got))
	}
	for i, want := range []int{1, 2, 10} {
		if got[i].Version != want {
			t.Fatalf("migration %d has version %d, want %d", i, got[i].Version, want)
		}
	}
	if got[0].SQL != "CREATE TABLE appointments (id TEXT);" {
		t.Fatalf("unexpected SQL %q", got[0].SQL)
	}
}

func TestLoadMigrationsRejectsDuplicateVersions(t *testing.T) {
	fsys := fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"001_b.sql": {Data: []byte("SELECT 2;")},
	}
	if _, err := LoadMigrations(fsys); err == nil {
		t.Fatal("expected duplicate version error")
	}
}
