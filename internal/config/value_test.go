package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordAccessors(t *testing.T) {
	rec := Record{ID: 1, Fields: map[string]any{
		"name":    "Sale Order",
		"padding": int64(5),
		"active":  true,
		"missing": nil,
	}}

	assert.Equal(t, "Sale Order", rec.Str("name"))
	assert.Equal(t, int64(5), rec.Int("padding"))
	assert.True(t, rec.Bool("active"))
	assert.Equal(t, "", rec.Str("missing"))
	assert.Equal(t, "", rec.Str("absent"))
}

func TestAsInt(t *testing.T) {
	assert.Equal(t, int64(5), AsInt(5))
	assert.Equal(t, int64(5), AsInt(int64(5)))
	assert.Equal(t, int64(5), AsInt(5.0))
	assert.Equal(t, int64(0), AsInt(nil))
	assert.Equal(t, int64(0), AsInt("5"))
}

func TestAsBool(t *testing.T) {
	assert.True(t, AsBool(true))
	assert.True(t, AsBool(int64(1)))
	assert.False(t, AsBool(int64(0)))
	assert.False(t, AsBool(nil))
}

func TestAsString(t *testing.T) {
	assert.Equal(t, "x", AsString("x"))
	assert.Equal(t, "", AsString(nil))
	assert.Equal(t, "7", AsString(7))
}
