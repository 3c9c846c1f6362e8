package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

// DailyRecord is the top-level structure stored in each daily bucket file.
// Blocks accumulate across saves; block names are not unique.
type DailyRecord struct {
	Date        string      `json:"date"`
	Blocks      []TimeBlock `json:"blocks"`
	LastUpdated Timestamp   `json:"last_updated"`
}

// RawBlock is the plain data a frontend captures for one block.
type RawBlock struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Content   string `json:"content"`
}

// RawEntry is the data contract between a frontend and the journal: block
// key (e.g. "morning") to captured values. Keys holds the order in which the
// frontend sent the blocks, when known.
type RawEntry struct {
	TimeBlocks map[string]RawBlock `json:"time_blocks"`
	Keys       []string            `json:"-"`
}

// OrderedKeys returns the block keys in arrival order. Keys missing from
// that order follow, sorted.
func (e RawEntry) OrderedKeys() []string {
	keys := make([]string, 0, len(e.TimeBlocks))
	seen := make(map[string]bool, len(e.TimeBlocks))
	for _, k := range e.Keys {
		if _, ok := e.TimeBlocks[k]; ok && !seen[k] {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range e.TimeBlocks {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// ParseRawEntry decodes a JSON object of block key to RawBlock and records
// the key order of the document. A repeated key keeps its first position and
// its last value.
func ParseRawEntry(data []byte) (RawEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return RawEntry{}, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return RawEntry{}, errors.New("expected a JSON object")
	}

	entry := RawEntry{TimeBlocks: map[string]RawBlock{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return RawEntry{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return RawEntry{}, fmt.Errorf("unexpected token %v", tok)
		}
		var rb RawBlock
		if err := dec.Decode(&rb); err != nil {
			return RawEntry{}, fmt.Errorf("block %q: %w", key, err)
		}
		if _, dup := entry.TimeBlocks[key]; !dup {
			entry.Keys = append(entry.Keys, key)
		}
		entry.TimeBlocks[key] = rb
	}
	if _, err := dec.Token(); err != nil {
		return RawEntry{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return RawEntry{}, errors.New("unexpected data after JSON object")
	}
	return entry, nil
}

// Snapshot is the immutable audit copy of one save action.
type Snapshot struct {
	Timestamp  Timestamp           `json:"timestamp"`
	TimeBlocks map[string]RawBlock `json:"time_blocks"`
}
