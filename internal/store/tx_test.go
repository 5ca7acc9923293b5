package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTransaction_CommitsOnNil(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.Transaction(ctx, func(tx *Tx) error {
		_, err := tx.Insert(ctx, polygonFixture("triangle", 3, "three"))
		return err
	})
	if err != nil {
		t.Fatalf("Transaction() failed: %v", err)
	}

	if _, ok := mustLookup(t, s, "triangle"); !ok {
		t.Error("committed row not found")
	}
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	mustInsert(t, s, polygonFixture("square", 4, "four"))

	bodyErr := errors.New("body failed")
	err := s.Transaction(ctx, func(tx *Tx) error {
		if _, err := tx.Insert(ctx, polygonFixture("pentagon", 5, "five")); err != nil {
			return err
		}
		if _, err := tx.Update(ctx, polygonFixture("square", 4, "squizare")); err != nil {
			return err
		}
		return bodyErr
	})

	// Error must come back unchanged, not wrapped
	if err != bodyErr {
		t.Fatalf("Transaction() error = %v, want %v", err, bodyErr)
	}

	if _, ok := mustLookup(t, s, "pentagon"); ok {
		t.Error("insert from aborted scope was committed")
	}
	sq, ok := mustLookup(t, s, "square")
	if !ok {
		t.Fatal("square missing after rollback")
	}
	if sq.SidesEnglish != "four" {
		t.Errorf("square sides_english = %q, want %q", sq.SidesEnglish, "four")
	}
	if got := countRows(t, s.db); got != 1 {
		t.Errorf("row count = %d, want 1", got)
	}
}

func TestTransaction_StorageErrorRollsBack(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.db.Exec("DROP TABLE polygons"); err != nil {
		t.Fatalf("drop table failed: %v", err)
	}

	err := s.Transaction(ctx, func(tx *Tx) error {
		_, err := tx.Insert(ctx, polygonFixture("triangle", 3, "three"))
		return err
	})
	if err == nil {
		t.Fatal("expected insert into missing table to fail")
	}

	// The lock must have been released
	done := make(chan error, 1)
	go func() {
		done <- s.Transaction(ctx, func(tx *Tx) error { return nil })
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("follow-up Transaction() failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("lock not released after failed scope")
	}
}

func TestTransaction_PanicRollsBackAndRepanics(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	func() {
		defer func() {
			r := recover()
			if r != "boom" {
				t.Errorf("recovered %v, want %q", r, "boom")
			}
		}()
		_ = s.Transaction(ctx, func(tx *Tx) error {
			if _, err := tx.Insert(ctx, polygonFixture("hexagon", 6, "six")); err != nil {
				t.Fatalf("Insert() failed: %v", err)
			}
			panic("boom")
		})
	}()

	if _, ok := mustLookup(t, s, "hexagon"); ok {
		t.Error("insert from panicking scope was committed")
	}

	// Lock is reusable after the panic
	mustInsert(t, s, polygonFixture("octagon", 8, "eight"))
	if _, ok := mustLookup(t, s, "octagon"); !ok {
		t.Error("insert after panic not committed")
	}
}

func TestTransaction_AssignsUUIDv7(t *testing.T) {
	s := createTestStore(t)

	var ids []string
	for i := 0; i < 2; i++ {
		err := s.Transaction(context.Background(), func(tx *Tx) error {
			ids = append(ids, tx.ID())
			return nil
		})
		if err != nil {
			t.Fatalf("Transaction() failed: %v", err)
		}
	}

	for _, id := range ids {
		parsed, err := uuid.Parse(id)
		if err != nil {
			t.Fatalf("tx id %q is not a UUID: %v", id, err)
		}
		if parsed.Version() != 7 {
			t.Errorf("tx id version = %d, want 7", parsed.Version())
		}
	}
	if ids[0] == ids[1] {
		t.Error("transaction ids should differ between scopes")
	}
}

func TestTransaction_BeginFailsOnCanceledContext(t *testing.T) {
	s := createTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.Transaction(ctx, func(tx *Tx) error {
		called = true
		return nil
	})
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
	if called {
		t.Error("body ran despite failed BEGIN")
	}
}

func TestTransaction_ConcurrentScopesBothCommit(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			s := createTestStore(t, WithDriver(driver))
			ctx := context.Background()

			const workers = 8
			var wg sync.WaitGroup
			errs := make(chan error, workers)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					errs <- s.Transaction(ctx, func(tx *Tx) error {
						_, err := tx.Insert(ctx, polygonFixture(fmt.Sprintf("shape-%d", i), 3+i, "many"))
						return err
					})
				}(i)
			}
			wg.Wait()
			close(errs)

			for err := range errs {
				if err != nil {
					t.Errorf("concurrent Transaction() failed: %v", err)
				}
			}
			for i := 0; i < workers; i++ {
				name := fmt.Sprintf("shape-%d", i)
				p, ok := mustLookup(t, s, name)
				if !ok {
					t.Errorf("%s not found", name)
					continue
				}
				if p.Sides != 3+i {
					t.Errorf("%s sides = %d, want %d", name, p.Sides, 3+i)
				}
			}
		})
	}
}

func TestTransaction_SerializesScopes(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	firstEntered := make(chan struct{})
	releaseFirst := make(chan struct{})
	var secondEntered atomic.Bool

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = s.Transaction(ctx, func(tx *Tx) error {
			close(firstEntered)
			<-releaseFirst
			_, err := tx.Insert(ctx, polygonFixture("first", 3, "three"))
			return err
		})
	}()

	<-firstEntered
	go func() {
		defer wg.Done()
		_ = s.Transaction(ctx, func(tx *Tx) error {
			secondEntered.Store(true)
			_, err := tx.Insert(ctx, polygonFixture("second", 4, "four"))
			return err
		})
	}()

	time.Sleep(50 * time.Millisecond)
	if secondEntered.Load() {
		t.Fatal("second scope entered while first was open")
	}

	close(releaseFirst)
	wg.Wait()

	if !secondEntered.Load() {
		t.Error("second scope never ran")
	}
	for _, name := range []string{"first", "second"} {
		if _, ok := mustLookup(t, s, name); !ok {
			t.Errorf("%s not found", name)
		}
	}
}

func TestTransaction_ReadsOutsideScopeSeeCommittedSnapshot(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			s := createTestStore(t, WithDriver(driver))
			ctx := context.Background()

			err := s.Transaction(ctx, func(tx *Tx) error {
				if _, err := tx.Insert(ctx, polygonFixture("heptagon", 7, "seven")); err != nil {
					return err
				}

				// Same scope sees its own write
				if _, ok, err := tx.Lookup(ctx, "heptagon"); err != nil || !ok {
					return fmt.Errorf("tx lookup: ok=%v err=%v", ok, err)
				}

				// A read on another connection does not
				_, ok, err := s.Lookup(ctx, "heptagon")
				if err != nil {
					return err
				}
				if ok {
					return errors.New("uncommitted row visible outside scope")
				}
				return nil
			})
			if err != nil {
				t.Fatal(err)
			}

			if _, ok := mustLookup(t, s, "heptagon"); !ok {
				t.Error("row not visible after commit")
			}
		})
	}
}

type sequenceIDs struct {
	mu sync.Mutex
	n  int
}

func (g *sequenceIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("tx-%d", g.n)
}

func TestTransaction_CustomIDGenerator(t *testing.T) {
	s := createTestStore(t, WithTxIDGenerator(&sequenceIDs{}))

	var ids []string
	for i := 0; i < 3; i++ {
		err := s.Transaction(context.Background(), func(tx *Tx) error {
			ids = append(ids, tx.ID())
			return nil
		})
		if err != nil {
			t.Fatalf("Transaction() failed: %v", err)
		}
	}

	want := []string{"tx-1", "tx-2", "tx-3"}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}
