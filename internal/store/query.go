package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/owrapper/configsync/internal/config"
)

// colKind drives scanning of a column value into a Record field.
type colKind int

const (
	colText colKind = iota
	colInt
	colBool
)

type column struct {
	name string
	kind colKind
}

// tables registers every queryable collection with its column set.
// SQL is only ever built from these names, never from caller input.
var tables = map[string][]column{
	"ir_config_parameter": {
		{"key", colText},
		{"value", colText},
	},
	"ir_sequence": {
		{"name", colText},
		{"code", colText},
		{"prefix", colText},
		{"suffix", colText},
		{"padding", colInt},
		{"number_next", colInt},
		{"number_increment", colInt},
		{"active", colBool},
	},
	"ir_module_category": {
		{"complete_name", colText},
	},
	"res_groups": {
		{"name", colText},
		{"category_id", colInt},
	},
	"res_users": {
		{"login", colText},
	},
	"res_groups_users_rel": {
		{"group_id", colInt},
		{"user_id", colInt},
	},
	"res_groups_implied_rel": {
		{"group_id", colInt},
		{"implied_id", colInt},
	},
	"ir_module_module": {
		{"name", colText},
		{"state", colText},
		{"auto_install", colBool},
		{"sequence", colInt},
	},
	"ir_model_data": {
		{"module", colText},
		{"name", colText},
		{"model", colText},
		{"res_id", colInt},
		{"noupdate", colBool},
	},
}

// Find returns all records of a collection matching the filter, a
// conjunction of equality predicates on named fields. A nil or empty filter
// returns the whole collection. Results are ordered by internal id so
// repeated exports of the same store are stable.
func (s *Store) Find(ctx context.Context, collection string, filter map[string]any) ([]config.Record, error) {
	cols, err := columnsFor(collection)
	if err != nil {
		return nil, err
	}

	query := "SELECT id"
	for _, c := range cols {
		query += ", " + c.name
	}
	query += " FROM " + collection

	where, args, err := buildWhere(collection, cols, filter)
	if err != nil {
		return nil, err
	}
	query += where + " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	defer rows.Close()

	var records []config.Record
	for rows.Next() {
		rec, err := scanRecord(rows, cols)
		if err != nil {
			return nil, fmt.Errorf("find %s: %w", collection, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}

	// Return empty slice instead of nil
	if records == nil {
		records = []config.Record{}
	}
	return records, nil
}

// Create inserts a new record and returns it with its assigned id.
func (s *Store) Create(ctx context.Context, collection string, fields map[string]any) (config.Record, error) {
	cols, err := columnsFor(collection)
	if err != nil {
		return config.Record{}, err
	}

	names, args, err := orderedFields(collection, cols, fields)
	if err != nil {
		return config.Record{}, err
	}
	if len(names) == 0 {
		return config.Record{}, fmt.Errorf("create %s: no fields given", collection)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		collection,
		strings.Join(names, ", "),
		placeholders(len(names)),
	)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return config.Record{}, fmt.Errorf("create %s: %w", collection, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return config.Record{}, fmt.Errorf("create %s: %w", collection, err)
	}

	out := config.Record{ID: id, Fields: make(map[string]any, len(fields))}
	for k, v := range fields {
		out.Fields[k] = v
	}
	return out, nil
}

// Update sets the given fields on an existing record identified by its
// internal id. Fields not named are left untouched.
func (s *Store) Update(ctx context.Context, collection string, id int64, fields map[string]any) error {
	cols, err := columnsFor(collection)
	if err != nil {
		return err
	}

	names, args, err := orderedFields(collection, cols, fields)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("update %s: no fields given", collection)
	}

	sets := make([]string, len(names))
	for i, n := range names {
		sets[i] = n + " = ?"
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", collection, strings.Join(sets, ", "))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", collection, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", collection, err)
	}
	if n == 0 {
		return fmt.Errorf("update %s: no record with id %d", collection, id)
	}
	return nil
}

// InTransaction runs fn inside a single SQLite transaction and commits on
// success, rolling back if fn returns an error.
//
// The store holds exactly one connection (see Open), so statements issued
// by fn through the usual Store methods join the open transaction.
func (s *Store) InTransaction(ctx context.Context, fn func() error) error {
	if _, err := s.db.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(); err != nil {
		if _, rbErr := s.db.ExecContext(ctx, "ROLLBACK"); rbErr != nil {
			return fmt.Errorf("rollback after %v: %w", err, rbErr)
		}
		return err
	}

	if _, err := s.db.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func columnsFor(collection string) ([]column, error) {
	cols, ok := tables[collection]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", collection)
	}
	return cols, nil
}

// buildWhere turns an equality-conjunction filter into a WHERE clause.
// nil values compare with IS NULL.
func buildWhere(collection string, cols []column, filter map[string]any) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var preds []string
	var args []any
	for _, k := range keys {
		if k != "id" && !hasColumn(cols, k) {
			return "", nil, fmt.Errorf("filter %s: unknown field %q", collection, k)
		}
		v := filter[k]
		if v == nil {
			preds = append(preds, k+" IS NULL")
			continue
		}
		preds = append(preds, k+" = ?")
		args = append(args, v)
	}
	return " WHERE " + strings.Join(preds, " AND "), args, nil
}

// orderedFields validates fields against the column registry and returns
// them in declared column order for deterministic SQL.
func orderedFields(collection string, cols []column, fields map[string]any) ([]string, []any, error) {
	var names []string
	var args []any
	for _, c := range cols {
		v, ok := fields[c.name]
		if !ok {
			continue
		}
		names = append(names, c.name)
		args = append(args, v)
	}
	for k := range fields {
		if !hasColumn(cols, k) {
			return nil, nil, fmt.Errorf("%s: unknown field %q", collection, k)
		}
	}
	return names, args, nil
}

func hasColumn(cols []column, name string) bool {
	for _, c := range cols {
		if c.name == name {
			return true
		}
	}
	return false
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// scanRecord reads one row into a Record, mapping SQLite storage types back
// to the field types the engine expects (NULL stays nil, booleans come back
// as bools, not 0/1).
func scanRecord(rows interface{ Scan(...any) error }, cols []column) (config.Record, error) {
	dest := make([]any, 0, len(cols)+1)
	var id int64
	dest = append(dest, &id)

	holders := make([]any, len(cols))
	for i, c := range cols {
		switch c.kind {
		case colText:
			holders[i] = new(*string)
		case colInt, colBool:
			holders[i] = new(*int64)
		}
		dest = append(dest, holders[i])
	}

	if err := rows.Scan(dest...); err != nil {
		return config.Record{}, err
	}

	fields := make(map[string]any, len(cols))
	for i, c := range cols {
		switch c.kind {
		case colText:
			p := *holders[i].(**string)
			if p == nil {
				fields[c.name] = nil
			} else {
				fields[c.name] = *p
			}
		case colInt:
			p := *holders[i].(**int64)
			if p == nil {
				fields[c.name] = nil
			} else {
				fields[c.name] = *p
			}
		case colBool:
			p := *holders[i].(**int64)
			if p == nil {
				fields[c.name] = nil
			} else {
				fields[c.name] = *p != 0
			}
		}
	}

	return config.Record{ID: id, Fields: fields}, nil
}
