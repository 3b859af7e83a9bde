package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/owrapper/configsync/internal/config"
)

// fakeStore is an in-memory Store for engine tests. It honors equality
// filters (including "id"), assigns sequential ids, and snapshots its
// tables around InTransaction so rollback behaves like the real store.
type fakeStore struct {
	tables map[string][]config.Record
	nextID int64

	// ops logs every call as "<op>:<collection>" in order.
	ops []string

	// failCreate/failUpdate force an error for a collection.
	failCreate map[string]error
	failUpdate map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tables:     make(map[string][]config.Record),
		failCreate: make(map[string]error),
		failUpdate: make(map[string]error),
	}
}

func (f *fakeStore) Find(ctx context.Context, collection string, filter map[string]any) ([]config.Record, error) {
	f.ops = append(f.ops, "find:"+collection)

	var out []config.Record
	for _, rec := range f.tables[collection] {
		if matches(rec, filter) {
			out = append(out, cloneRecord(rec))
		}
	}
	if out == nil {
		out = []config.Record{}
	}
	return out, nil
}

func (f *fakeStore) Create(ctx context.Context, collection string, fields map[string]any) (config.Record, error) {
	f.ops = append(f.ops, "create:"+collection)
	if err := f.failCreate[collection]; err != nil {
		return config.Record{}, err
	}

	f.nextID++
	rec := config.Record{ID: f.nextID, Fields: cloneFields(fields)}
	f.tables[collection] = append(f.tables[collection], rec)
	return cloneRecord(rec), nil
}

func (f *fakeStore) Update(ctx context.Context, collection string, id int64, fields map[string]any) error {
	f.ops = append(f.ops, "update:"+collection)
	if err := f.failUpdate[collection]; err != nil {
		return err
	}

	for i, rec := range f.tables[collection] {
		if rec.ID == id {
			for k, v := range fields {
				f.tables[collection][i].Fields[k] = v
			}
			return nil
		}
	}
	return fmt.Errorf("update %s: no record with id %d", collection, id)
}

func (f *fakeStore) InTransaction(ctx context.Context, fn func() error) error {
	snapshot := f.cloneTables()
	if err := fn(); err != nil {
		f.tables = snapshot
		return err
	}
	return nil
}

// seed inserts a record directly, bypassing the op log.
func (f *fakeStore) seed(collection string, fields map[string]any) config.Record {
	f.nextID++
	rec := config.Record{ID: f.nextID, Fields: cloneFields(fields)}
	f.tables[collection] = append(f.tables[collection], rec)
	return rec
}

// firstTouch returns collections in order of first appearance among write
// and lookup ops, restricted to the given set.
func (f *fakeStore) firstTouch(want map[string]bool) []string {
	var order []string
	seen := make(map[string]bool)
	for _, op := range f.ops {
		name := op[strings.IndexByte(op, ':')+1:]
		if want[name] && !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}
	return order
}

func (f *fakeStore) cloneTables() map[string][]config.Record {
	out := make(map[string][]config.Record, len(f.tables))
	for name, recs := range f.tables {
		cp := make([]config.Record, len(recs))
		for i, rec := range recs {
			cp[i] = cloneRecord(rec)
		}
		out[name] = cp
	}
	return out
}

func cloneRecord(rec config.Record) config.Record {
	return config.Record{ID: rec.ID, Fields: cloneFields(rec.Fields)}
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func matches(rec config.Record, filter map[string]any) bool {
	for k, want := range filter {
		var got any
		if k == "id" {
			got = rec.ID
		} else {
			got = rec.Fields[k]
		}
		if !valueEqual(got, want) {
			return false
		}
	}
	return true
}

// valueEqual compares scalars across the int widths the YAML decoder and
// the store produce.
func valueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if isNumeric(a) && isNumeric(b) {
		return config.AsInt(a) == config.AsInt(b)
	}
	return a == b
}

func isNumeric(v any) bool {
	switch v.(type) {
	case int, int64, uint64, float64:
		return true
	}
	return false
}
