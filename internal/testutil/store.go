// Package testutil holds helpers shared by polydb package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/polydb/internal/polygon"
	"github.com/roach88/polydb/internal/store"
)

// OpenStore opens a store in a fresh temp dir with the polygons table
// created. The store is closed when the test ends.
func OpenStore(t testing.TB, opts ...store.Option) *store.Store {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "polygons.sqlite"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.CreateTable(context.Background()))
	return st
}

// Seed inserts polygons in one committed transaction and returns their ids
// in order.
func Seed(t testing.TB, st *store.Store, polygons ...polygon.Polygon) []int64 {
	t.Helper()

	ctx := context.Background()
	ids := make([]int64, 0, len(polygons))
	err := st.Transaction(ctx, func(tx *store.Tx) error {
		for _, p := range polygons {
			id, err := tx.Insert(ctx, p)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	require.NoError(t, err)
	return ids
}

// Triangle and Square are the polygons the demo starts with.
var (
	Triangle = polygon.New("triangle", 3, "trienglish")
	Square   = polygon.New("square", 4, "squizare")
)
