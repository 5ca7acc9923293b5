package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/polydb/internal/logging"
	"github.com/roach88/polydb/internal/polygon"
	"github.com/roach88/polydb/internal/store"
)

// Harness executes scenarios against one store.
type Harness struct {
	store  *store.Store
	logger *slog.Logger
}

// New creates a harness over st. A nil logger discards output.
func New(st *store.Store, logger *slog.Logger) *Harness {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Harness{store: st, logger: logger}
}

// Run executes every step of scenario in order and evaluates expectations.
//
// Each step runs in its own transaction. A storage error stops the run and
// is returned; the steps before it stay committed. Expectation mismatches
// do not stop the run.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	result := NewResult()

	for i, step := range scenario.Steps {
		n := i + 1
		var ev TraceEvent
		err := h.store.Transaction(ctx, func(tx *store.Tx) error {
			var err error
			ev, err = executeStep(ctx, tx, n, step)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", n, step.Op(), err)
		}

		h.logger.DebugContext(ctx, "scenario step executed",
			"scenario", scenario.Name, "step", n, "op", ev.Op, "name", ev.Name)

		result.AddTrace(ev)
		for _, msg := range checkExpect(n, step, ev) {
			result.AddError(msg)
		}
	}

	return result, nil
}

// Run executes scenario against st with a discarding logger.
func Run(ctx context.Context, st *store.Store, scenario *Scenario) (*Result, error) {
	return New(st, nil).Run(ctx, scenario)
}

func executeStep(ctx context.Context, tx *store.Tx, n int, step Step) (TraceEvent, error) {
	ev := TraceEvent{Step: n, Op: step.Op()}

	switch ev.Op {
	case OpInsert:
		p := polygon.New(step.Insert.Name, step.Insert.Sides, step.Insert.SidesEnglish)
		id, err := tx.Insert(ctx, p)
		if err != nil {
			return ev, err
		}
		p.ID = id
		ev.Name = p.Name
		ev.Polygon = &p

	case OpUpdate:
		p := polygon.New(step.Update.Name, step.Update.Sides, step.Update.SidesEnglish)
		rows, err := tx.Update(ctx, p)
		if err != nil {
			return ev, err
		}
		ev.Name = p.Name
		ev.Rows = &rows

	case OpLookup:
		p, ok, err := tx.Lookup(ctx, step.Lookup)
		if err != nil {
			return ev, err
		}
		ev.Name = polygon.NormalizeName(step.Lookup)
		ev.Found = &ok
		if ok {
			ev.Polygon = &p
		}

	case OpList:
		list, err := tx.List(ctx)
		if err != nil {
			return ev, err
		}
		ev.Polygons = list

	default:
		return ev, fmt.Errorf("unknown step operation")
	}

	return ev, nil
}

// checkExpect compares the step's expectation with what the store returned.
func checkExpect(n int, step Step, ev TraceEvent) []string {
	exp := step.Expect
	if exp == nil {
		return nil
	}

	var errs []string
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf("step %d (%s): ", n, ev.Op)+fmt.Sprintf(format, args...))
	}

	switch ev.Op {
	case OpLookup:
		found := ev.Found != nil && *ev.Found
		if exp.Found != nil && *exp.Found != found {
			fail("found = %v, want %v", found, *exp.Found)
			return errs
		}
		if exp.Sides == nil && exp.SidesEnglish == nil {
			return errs
		}
		if !found {
			fail("polygon %q not found", ev.Name)
			return errs
		}
		if exp.Sides != nil && ev.Polygon.Sides != *exp.Sides {
			fail("sides = %d, want %d", ev.Polygon.Sides, *exp.Sides)
		}
		if exp.SidesEnglish != nil && ev.Polygon.SidesEnglish != *exp.SidesEnglish {
			fail("sides_english = %q, want %q", ev.Polygon.SidesEnglish, *exp.SidesEnglish)
		}

	case OpUpdate:
		if exp.Rows != nil && *ev.Rows != *exp.Rows {
			fail("rows = %d, want %d", *ev.Rows, *exp.Rows)
		}

	case OpList:
		if exp.Count != nil && len(ev.Polygons) != *exp.Count {
			fail("count = %d, want %d", len(ev.Polygons), *exp.Count)
		}
	}

	return errs
}
