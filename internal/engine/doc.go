// Package engine implements the state-reconciliation core: snapshotting the
// registered record collections to YAML files, and re-applying a snapshot
// against a live store with upsert semantics in a fixed dependency order.
//
// The engine owns no state between runs. Everything it touches lives either
// in the store it is given or in the snapshot directory it reads or writes.
//
// Failure handling is fail-fast at collection granularity: the first
// collection whose apply routine fails aborts the run, and the result names
// that collection and the records committed before it. There is no
// cross-collection atomicity; each collection's writes are wrapped in their
// own store transaction.
package engine
