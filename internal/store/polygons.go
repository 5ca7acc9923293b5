package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/polydb/internal/polygon"
)

// Statements are built once from the polygon column lists, so the column
// order in SQL always matches ScanDest, InsertValues and UpdateValues.
var (
	selectColumns = strings.Join(polygon.Columns, ", ")

	insertSQL = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		polygon.Table,
		strings.Join(polygon.InsertColumns, ", "),
		placeholders(len(polygon.InsertColumns)),
	)

	updateSQL = fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		polygon.Table,
		strings.Join(polygon.UpdateColumns, " = ?, ")+" = ?",
		polygon.ColumnName,
	)

	lookupSQL = fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? ORDER BY %s ASC LIMIT 1",
		selectColumns, polygon.Table, polygon.ColumnName, polygon.ColumnID)

	listSQL = fmt.Sprintf("SELECT %s FROM %s ORDER BY %s ASC",
		selectColumns, polygon.Table, polygon.ColumnID)
)

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// Insert writes p as a new row and returns its pkey.
// Names are not checked for uniqueness; a second insert of the same name
// adds a second row. p.ID is ignored.
func (t *Tx) Insert(ctx context.Context, p polygon.Polygon) (int64, error) {
	return insertPolygon(ctx, t.tx, p)
}

// Update overwrites sides and sides_english on every row named p.Name.
// Returns the number of rows changed; zero rows is not an error.
func (t *Tx) Update(ctx context.Context, p polygon.Polygon) (int64, error) {
	return updatePolygon(ctx, t.tx, p)
}

// Lookup reads the polygon named name within the transaction.
// ok is false when no row matches.
func (t *Tx) Lookup(ctx context.Context, name string) (p polygon.Polygon, ok bool, err error) {
	return lookupPolygon(ctx, t.tx, name)
}

// List returns every polygon within the transaction, ordered by pkey.
func (t *Tx) List(ctx context.Context) ([]polygon.Polygon, error) {
	return listPolygons(ctx, t.tx)
}

// Lookup reads the polygon named name outside any transaction scope.
// The read does not wait on the write mutex and sees the last committed state.
func (s *Store) Lookup(ctx context.Context, name string) (p polygon.Polygon, ok bool, err error) {
	return lookupPolygon(ctx, s.db, name)
}

// List returns every polygon outside any transaction scope, ordered by pkey.
func (s *Store) List(ctx context.Context) ([]polygon.Polygon, error) {
	return listPolygons(ctx, s.db)
}

func insertPolygon(ctx context.Context, q querier, p polygon.Polygon) (int64, error) {
	result, err := q.ExecContext(ctx, insertSQL, p.InsertValues()...)
	if err != nil {
		return 0, fmt.Errorf("insert polygon: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert polygon: last insert id: %w", err)
	}
	return id, nil
}

func updatePolygon(ctx context.Context, q querier, p polygon.Polygon) (int64, error) {
	args := append(p.UpdateValues(), polygon.NormalizeName(p.Name))
	result, err := q.ExecContext(ctx, updateSQL, args...)
	if err != nil {
		return 0, fmt.Errorf("update polygon: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update polygon: rows affected: %w", err)
	}
	return rows, nil
}

// lookupPolygon returns the first row (lowest pkey) with the given name.
func lookupPolygon(ctx context.Context, q querier, name string) (polygon.Polygon, bool, error) {
	row := q.QueryRowContext(ctx, lookupSQL, polygon.NormalizeName(name))

	var p polygon.Polygon
	err := row.Scan(p.ScanDest()...)
	if errors.Is(err, sql.ErrNoRows) {
		return polygon.Polygon{}, false, nil
	}
	if err != nil {
		return polygon.Polygon{}, false, fmt.Errorf("lookup polygon: %w", err)
	}
	return p, true, nil
}

func listPolygons(ctx context.Context, q querier) ([]polygon.Polygon, error) {
	rows, err := q.QueryContext(ctx, listSQL)
	if err != nil {
		return nil, fmt.Errorf("query polygons: %w", err)
	}
	defer rows.Close()

	var polygons []polygon.Polygon
	for rows.Next() {
		var p polygon.Polygon
		if err := rows.Scan(p.ScanDest()...); err != nil {
			return nil, fmt.Errorf("scan polygon: %w", err)
		}
		polygons = append(polygons, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate polygons: %w", err)
	}

	// Return empty slice instead of nil
	if polygons == nil {
		polygons = []polygon.Polygon{}
	}

	return polygons, nil
}
