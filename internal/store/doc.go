// Package store provides SQLite-backed storage for polygons.
//
// A Store owns one database handle and one write mutex. All writes go
// through Transaction, which holds the mutex from BEGIN until COMMIT or
// ROLLBACK so that at most one write transaction is in flight per Store.
//
// # Transaction Scope
//
//	err := st.Transaction(ctx, func(tx *store.Tx) error {
//	    _, err := tx.Insert(ctx, polygon.New("triangle", 3, "three"))
//	    return err
//	})
//
// The body's error is returned unchanged after rollback. A panic in the
// body rolls back and keeps unwinding. Insert and Update exist only on Tx;
// Lookup and List are also available on Store for reads outside a scope.
//
// Each scope gets an id from the Store's TxIDGenerator (UUIDv7 unless
// WithTxIDGenerator says otherwise); it is logged as tx_id and exposed
// through Tx.ID.
//
// # Lookup Semantics
//
//   - Not found is reported through the ok result, never as an error
//   - Names are not unique; the row with the lowest pkey wins
//   - Update touches every row with the name and returns the count
//
// # Database Configuration
//
// Pragmas are carried in the DSN so every pooled connection gets them:
//
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - WAL mode: Readers see a snapshot and are not blocked by the writer
//   - synchronous=NORMAL: Balance durability/performance
//   - foreign_keys=ON
//   - _txlock=immediate: BEGIN takes the RESERVED lock up front
package store
