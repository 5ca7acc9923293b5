package harness

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/polydb/internal/store"
	"github.com/roach88/polydb/internal/testutil"
)

func TestRun_DemoPasses(t *testing.T) {
	st := testutil.OpenStore(t)

	result, err := Run(context.Background(), st, DemoScenario())
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Trace, 6)

	sq, ok, err := st.Lookup(context.Background(), "square")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "squarezee", sq.SidesEnglish)
}

func TestRun_ExpectationMismatchesAreCollected(t *testing.T) {
	st := testutil.OpenStore(t)
	scenario, err := ParseScenario([]byte(`
name: mismatches
steps:
  - insert: {name: triangle, sides: 3, sides_english: three}
  - lookup: triangle
    expect: {sides: 4, sides_english: four}
  - lookup: circle
    expect: {found: true}
  - lookup: hexagon
    expect: {sides: 6}
  - update: {name: triangle, sides: 3, sides_english: tri}
    expect: {rows: 2}
  - list: true
    expect: {count: 5}
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), st, scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Len(t, result.Trace, 6, "mismatches must not stop the run")
	assert.Equal(t, []string{
		"step 2 (lookup): sides = 3, want 4",
		`step 2 (lookup): sides_english = "three", want "four"`,
		"step 3 (lookup): found = false, want true",
		`step 4 (lookup): polygon "hexagon" not found`,
		"step 5 (update): rows = 1, want 2",
		"step 6 (list): count = 1, want 5",
	}, result.Errors)
}

func TestRun_StorageErrorAborts(t *testing.T) {
	st := testutil.OpenStore(t)
	_, err := st.DB().Exec("DROP TABLE polygons")
	require.NoError(t, err)

	scenario, err := ParseScenario([]byte(`
name: no_table
steps:
  - insert: {name: triangle, sides: 3, sides_english: three}
  - list: true
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), st, scenario)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "step 1 (insert)")
}

func TestHarness_LogsSteps(t *testing.T) {
	st := testutil.OpenStore(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := New(st, logger).Run(context.Background(), DemoScenario())
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "scenario step executed")
	assert.Contains(t, buf.String(), "scenario=demo")
}

func TestRun_AgainstSeededStore(t *testing.T) {
	st := testutil.OpenStore(t)
	testutil.Seed(t, st, testutil.Triangle, testutil.Square)

	scenario, err := ParseScenario([]byte(`
name: seeded
steps:
  - lookup: square
    expect: {sides: 4, sides_english: squizare}
  - update: {name: triangle, sides: 3, sides_english: tri}
    expect: {rows: 1}
  - list: true
    expect: {count: 2}
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), st, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.NotNil(t, result.Trace[0].Polygon)
	assert.Equal(t, int64(2), result.Trace[0].Polygon.ID)
}

// runLogged runs the demo on a fresh store whose transaction ids come from
// gen and returns everything logged, without timestamps or the temp path.
func runLogged(t *testing.T, gen store.TxIDGenerator) string {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if (a.Key == slog.TimeKey && len(groups) == 0) || a.Key == "path" {
				return slog.Attr{}
			}
			return a
		},
	}))

	st := testutil.OpenStore(t, store.WithTxIDGenerator(gen), store.WithLogger(logger))
	_, err := New(st, logger).Run(context.Background(), DemoScenario())
	require.NoError(t, err)
	return buf.String()
}

func TestHarness_DeterministicTransactionLogs(t *testing.T) {
	gen := testutil.NewSequenceTxIDs()

	first := runLogged(t, gen)
	assert.Equal(t, int64(6), gen.Current(), "one transaction per step")
	assert.Contains(t, first, "tx_id=tx-1")
	assert.Contains(t, first, "tx_id=tx-6")

	gen.Reset()
	second := runLogged(t, gen)
	assert.Equal(t, first, second)
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)

	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
