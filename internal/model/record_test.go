package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/daylog/internal/model"
)

func TestParseRawEntryKeepsKeyOrder(t *testing.T) {
	entry, err := model.ParseRawEntry([]byte(`{
		"morning": {"start_time": "08:00", "end_time": "12:00", "content": "a"},
		"midday":  {"start_time": "12:00", "end_time": "13:00", "content": "b"},
		"evening": {"start_time": "18:00", "end_time": "19:00", "content": "c"}
	}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"morning", "midday", "evening"}, entry.Keys)
	assert.Equal(t, []string{"morning", "midday", "evening"}, entry.OrderedKeys())
	assert.Equal(t, "12:00", entry.TimeBlocks["midday"].StartTime)
}

func TestParseRawEntryDuplicateKey(t *testing.T) {
	entry, err := model.ParseRawEntry([]byte(`{"b": {"content": "1"}, "a": {}, "b": {"content": "2"}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, entry.Keys)
	assert.Equal(t, "2", entry.TimeBlocks["b"].Content)
}

func TestParseRawEntryRejects(t *testing.T) {
	for _, in := range []string{``, `{bad`, `["morning"]`, `{"a": 1}`, `{"a": {}} trailing`, `{"a": {}`} {
		_, err := model.ParseRawEntry([]byte(in))
		assert.Error(t, err, "input %q", in)
	}
}

func TestOrderedKeysFallsBackToSorted(t *testing.T) {
	entry := model.RawEntry{TimeBlocks: map[string]model.RawBlock{"z": {}, "b": {}, "m": {}}}
	assert.Equal(t, []string{"b", "m", "z"}, entry.OrderedKeys())

	entry.Keys = []string{"m", "gone"}
	assert.Equal(t, []string{"m", "b", "z"}, entry.OrderedKeys())
}
