package testutil

import (
	"fmt"
	"sync"
)

// FixedTxIDs returns the same transaction id every time.
//
// Useful when a test compares log or response output byte for byte and does
// not care which scope produced which line.
//
// Thread-safety: FixedTxIDs is stateless and safe for concurrent use.
type FixedTxIDs struct {
	id string
}

// NewFixedTxIDs creates a fixed generator. If id is empty, Generate
// returns "tx-fixed".
func NewFixedTxIDs(id string) *FixedTxIDs {
	if id == "" {
		id = "tx-fixed"
	}
	return &FixedTxIDs{id: id}
}

// Generate returns the fixed id.
//
// Implements store.TxIDGenerator.
func (g *FixedTxIDs) Generate() string {
	return g.id
}

// SequenceTxIDs hands out "tx-1", "tx-2", ... in call order.
//
// Unlike FixedTxIDs each scope gets a distinct id, and Reset lets the same
// test run twice with identical ids.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequenceTxIDs struct {
	mu  sync.Mutex
	seq int64
}

// NewSequenceTxIDs creates a generator whose first id is "tx-1".
func NewSequenceTxIDs() *SequenceTxIDs {
	return &SequenceTxIDs{}
}

// Generate increments the sequence and returns the next id.
func (g *SequenceTxIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("tx-%d", g.seq)
}

// Current returns how many ids have been generated.
func (g *SequenceTxIDs) Current() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the sequence. The next Generate returns "tx-1".
func (g *SequenceTxIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
