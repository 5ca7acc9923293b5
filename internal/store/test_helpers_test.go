package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/roach88/polydb/internal/polygon"
)

// drivers lists every driver the store supports; driver-sensitive tests run
// against each.
var drivers = []string{DriverMattn, DriverModernc}

// createTestStore opens a fresh store in a temp dir with the table created.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.CreateTable(context.Background()); err != nil {
		t.Fatalf("CreateTable() failed: %v", err)
	}
	return s
}

// mustInsert inserts polygons in a single committed transaction.
func mustInsert(t *testing.T, s *Store, polygons ...polygon.Polygon) {
	t.Helper()
	err := s.Transaction(context.Background(), func(tx *Tx) error {
		for _, p := range polygons {
			if _, err := tx.Insert(context.Background(), p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("insert transaction failed: %v", err)
	}
}

// mustLookup looks up name outside a transaction and fails the test on error.
func mustLookup(t *testing.T, s *Store, name string) (polygon.Polygon, bool) {
	t.Helper()
	p, ok, err := s.Lookup(context.Background(), name)
	if err != nil {
		t.Fatalf("Lookup(%q) failed: %v", name, err)
	}
	return p, ok
}

func countRows(t *testing.T, db *sql.DB) int {
	t.Helper()
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM polygons").Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	return count
}

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("failed to get indexes for %q: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index name: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}

func polygonFixture(name string, sides int, sidesEnglish string) polygon.Polygon {
	return polygon.New(name, sides, sidesEnglish)
}
