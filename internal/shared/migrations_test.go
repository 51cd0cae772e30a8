package shared

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
)

func memoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("NewDatabase() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func schemaObject(t *testing.T, db *sql.DB, kind, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?", kind, name).Scan(&n)
	if err != nil {
		t.Fatalf("sqlite_master query error = %v", err)
	}
	return n == 1
}

func TestMigrations(t *testing.T) {
	migrations, err := loadMigrations()
	if err != nil {
		t.Fatalf("loadMigrations() error = %v", err)
	}
	latest := migrations[len(migrations)-1].Version

	t.Run("embedded files pair up in order", func(t *testing.T) {
		for i, m := range migrations {
			if m.Version != i {
				t.Errorf("migration %d has version %d", i, m.Version)
			}
			if strings.TrimSpace(m.Up) == "" || strings.TrimSpace(m.Down) == "" {
				t.Errorf("migration %d missing up or down SQL", m.Version)
			}
		}
	})

	t.Run("up creates the kv_store schema", func(t *testing.T) {
		db := memoryDB(t)
		if err := RunMigrations(db); err != nil {
			t.Fatalf("RunMigrations() error = %v", err)
		}

		if !schemaObject(t, db, "table", "kv_store") {
			t.Error("kv_store table missing")
		}
		if !schemaObject(t, db, "index", "idx_kv_store_updated_at") {
			t.Error("updated_at index missing")
		}

		if _, err := db.Exec("INSERT INTO kv_store (key, value) VALUES ('guestId', 'abc')"); err != nil {
			t.Fatalf("insert error = %v", err)
		}
		var updated sql.NullString
		if err := db.QueryRow("SELECT updated_at FROM kv_store WHERE key = 'guestId'").Scan(&updated); err != nil {
			t.Fatal(err)
		}
		if !updated.Valid {
			t.Error("updated_at should default to the insert time")
		}

		if v, err := SchemaVersion(db); err != nil || v != latest {
			t.Errorf("SchemaVersion() = %d, %v; want %d", v, err, latest)
		}
	})

	t.Run("running twice applies nothing new", func(t *testing.T) {
		db := memoryDB(t)
		for range 2 {
			if err := RunMigrations(db); err != nil {
				t.Fatalf("RunMigrations() error = %v", err)
			}
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatal(err)
		}
		if count != len(migrations) {
			t.Errorf("applied = %d, want %d", count, len(migrations))
		}
	})

	t.Run("rollback steps down one version at a time", func(t *testing.T) {
		db := memoryDB(t)
		if err := RunMigrations(db); err != nil {
			t.Fatal(err)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("RollbackMigration() error = %v", err)
		}
		if schemaObject(t, db, "index", "idx_kv_store_updated_at") {
			t.Error("index should be dropped by the first rollback")
		}
		if !schemaObject(t, db, "table", "kv_store") {
			t.Error("kv_store should survive the first rollback")
		}

		for v, _ := SchemaVersion(db); v >= 0; v, _ = SchemaVersion(db) {
			if err := RollbackMigration(db); err != nil {
				t.Fatalf("rollback of %d error = %v", v, err)
			}
		}
		if schemaObject(t, db, "table", "kv_store") {
			t.Error("kv_store should be gone after a full rollback")
		}
		if err := RollbackMigration(db); err == nil {
			t.Error("expected error when nothing is applied")
		}
	})

	t.Run("file database reopens at the same version", func(t *testing.T) {
		cfg := DatabaseConfig{Path: filepath.Join(t.TempDir(), "vtx.db"), MaxOpenConns: 2}
		db, err := OpenMigrated(cfg)
		if err != nil {
			t.Fatalf("OpenMigrated() error = %v", err)
		}
		db.Close()

		db, err = OpenMigrated(cfg)
		if err != nil {
			t.Fatalf("second OpenMigrated() error = %v", err)
		}
		defer db.Close()
		if v, _ := SchemaVersion(db); v != latest {
			t.Errorf("SchemaVersion() = %d, want %d", v, latest)
		}
	})
}

func TestRemoveComments(t *testing.T) {
	tt := map[string]struct {
		in, want string
	}{
		"header and trailing": {"-- header\nCREATE TABLE x (id INT) -- trailing\n\n", "CREATE TABLE x (id INT)"},
		"only comments":       {"-- nothing here\n  -- or here", ""},
		"keeps line breaks":   {"CREATE TABLE y (\n  id INT -- pk\n)", "CREATE TABLE y (\nid INT\n)"},
	}
	for name, tc := range tt {
		t.Run(name, func(t *testing.T) {
			if got := removeComments(tc.in); got != tc.want {
				t.Errorf("removeComments() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSQLiteDSN(t *testing.T) {
	if got := sqliteDSN(":memory:"); got != ":memory:" {
		t.Errorf("memory dsn = %q", got)
	}
	if got := sqliteDSN("vtx.db?mode=ro"); got != "vtx.db?mode=ro" {
		t.Errorf("dsn with params = %q", got)
	}

	got := sqliteDSN("data/vtx.db")
	if !strings.HasPrefix(got, "data/vtx.db?") || !strings.Contains(got, "_busy_timeout=5000") || !strings.Contains(got, "_journal_mode=WAL") {
		t.Errorf("file dsn = %q", got)
	}
}
