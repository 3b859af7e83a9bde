package config

import "fmt"

// Str returns the named field as a string. Missing or null fields return "".
func (r Record) Str(field string) string {
	s, _ := r.Fields[field].(string)
	return s
}

// Int returns the named field as an int64, coercing the integer widths the
// store driver and the YAML decoder produce. Missing or null fields return 0.
func (r Record) Int(field string) int64 {
	return AsInt(r.Fields[field])
}

// Bool returns the named field as a bool. SQLite stores booleans as 0/1
// integers, so integer values are accepted too.
func (r Record) Bool(field string) bool {
	return AsBool(r.Fields[field])
}

// AsInt coerces a scalar to int64. Returns 0 for nil or non-numeric values.
func AsInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case uint64:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

// AsBool coerces a scalar to bool, accepting SQLite's 0/1 integers.
func AsBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case int64:
		return b != 0
	case int:
		return b != 0
	}
	return false
}

// AsString coerces a scalar to its string form. nil yields "".
func AsString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", s)
	}
}
