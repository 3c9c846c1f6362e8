package snapshot_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/daylog/internal/model"
	"github.com/Tiliavir/daylog/internal/snapshot"
)

func sampleEntry() model.RawEntry {
	return model.RawEntry{TimeBlocks: map[string]model.RawBlock{
		"morning":   {StartTime: "08:00", EndTime: "12:00", Content: "Morning tasks text"},
		"afternoon": {StartTime: "13:00", EndTime: "17:00", Content: "Afternoon tasks text"},
	}}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestWriteFilesUnderDayBucket(t *testing.T) {
	base := t.TempDir()
	at := time.Date(2025, 2, 15, 14, 3, 27, 0, time.Local)
	store := snapshot.New(base, snapshot.WithClock(fixedClock(at)))

	path, err := store.Write(sampleEntry())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "25-02", "w07-02-15", "sat-15-02-25", "journal_entry_14-03-27.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var snap model.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.True(t, snap.Timestamp.Equal(at))
	require.Contains(t, snap.TimeBlocks, "morning")
	assert.Equal(t, model.RawBlock{StartTime: "08:00", EndTime: "12:00", Content: "Morning tasks text"}, snap.TimeBlocks["morning"])
	assert.Contains(t, snap.TimeBlocks, "afternoon")
}

func TestWriteNeverOverwritesWithinSameSecond(t *testing.T) {
	base := t.TempDir()
	at := time.Date(2025, 2, 15, 14, 3, 27, 0, time.Local)
	store := snapshot.New(base, snapshot.WithClock(fixedClock(at)))

	first, err := store.Write(sampleEntry())
	require.NoError(t, err)
	second, err := store.Write(model.RawEntry{})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, "journal_entry_14-03-27_2.json", filepath.Base(second))

	// The first snapshot is untouched.
	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Morning tasks text")
}

func TestWriteAtUsesGivenInstant(t *testing.T) {
	base := t.TempDir()
	store := snapshot.New(base, snapshot.WithClock(fixedClock(time.Date(2025, 2, 16, 0, 0, 1, 0, time.Local))))
	at := time.Date(2025, 2, 15, 23, 59, 59, 0, time.Local)

	path, err := store.WriteAt(sampleEntry(), at)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "25-02", "w07-02-15", "sat-15-02-25", "journal_entry_23-59-59.json"), path)
}

func TestLatestOnEmptyTree(t *testing.T) {
	store := snapshot.New(filepath.Join(t.TempDir(), "missing"))
	_, ok := store.Latest(context.Background())
	assert.False(t, ok)
}

func TestLatestReturnsLaterSnapshot(t *testing.T) {
	store := snapshot.New(t.TempDir())

	_, err := store.Write(model.RawEntry{TimeBlocks: map[string]model.RawBlock{"morning": {Content: "first"}}})
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)
	_, err = store.Write(model.RawEntry{TimeBlocks: map[string]model.RawBlock{"morning": {Content: "second"}}})
	require.NoError(t, err)

	latest, ok := store.Latest(context.Background())
	require.True(t, ok)
	assert.Equal(t, "second", latest.Snapshot.TimeBlocks["morning"].Content)
}

func TestLatestOrdersByEmbeddedTimestamp(t *testing.T) {
	base := t.TempDir()
	ctx := context.Background()

	later := snapshot.New(base, snapshot.WithClock(fixedClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.Local))))
	earlier := snapshot.New(base, snapshot.WithClock(fixedClock(time.Date(2025, 2, 1, 9, 0, 0, 0, time.Local))))

	// Written last, but captured earlier: must not win.
	_, err := later.Write(model.RawEntry{TimeBlocks: map[string]model.RawBlock{"k": {Content: "march"}}})
	require.NoError(t, err)
	_, err = earlier.Write(model.RawEntry{TimeBlocks: map[string]model.RawBlock{"k": {Content: "february"}}})
	require.NoError(t, err)

	latest, ok := later.Latest(ctx)
	require.True(t, ok)
	assert.Equal(t, "march", latest.Snapshot.TimeBlocks["k"].Content)
}

func TestLatestFallsBackToModTime(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "25-02", "w07-02-15", "sat-15-02-25")
	require.NoError(t, os.MkdirAll(dir, 0o700))

	old := filepath.Join(dir, "journal_entry_08-00-00.json")
	recent := filepath.Join(dir, "journal_entry_07-00-00.json")
	require.NoError(t, os.WriteFile(old, []byte(`{"time_blocks":{"k":{"content":"old"}}}`), 0o600))
	require.NoError(t, os.WriteFile(recent, []byte(`{"time_blocks":{"k":{"content":"recent"}}}`), 0o600))
	require.NoError(t, os.Chtimes(old, time.Now().Add(-time.Hour), time.Now().Add(-time.Hour)))

	latest, ok := snapshot.New(base).Latest(context.Background())
	require.True(t, ok)
	assert.Equal(t, "recent", latest.Snapshot.TimeBlocks["k"].Content)
}

func TestLatestTieBreaksOnLargestKey(t *testing.T) {
	base := t.TempDir()
	at := time.Date(2025, 2, 15, 14, 3, 27, 0, time.Local)
	store := snapshot.New(base, snapshot.WithClock(fixedClock(at)))

	_, err := store.Write(model.RawEntry{TimeBlocks: map[string]model.RawBlock{"k": {Content: "one"}}})
	require.NoError(t, err)
	_, err = store.Write(model.RawEntry{TimeBlocks: map[string]model.RawBlock{"k": {Content: "two"}}})
	require.NoError(t, err)

	latest, ok := store.Latest(context.Background())
	require.True(t, ok)
	assert.Equal(t, "25-02/w07-02-15/sat-15-02-25/journal_entry_14-03-27_2.json", latest.Key)
}

func TestLatestSkipsCorruptFiles(t *testing.T) {
	base := t.TempDir()
	store := snapshot.New(base)
	_, err := store.Write(model.RawEntry{TimeBlocks: map[string]model.RawBlock{"k": {Content: "good"}}})
	require.NoError(t, err)

	dir := filepath.Join(base, "99-12", "w52-12-31", "fri-31-12-99")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "journal_entry_23-59-59.json"), []byte("{oops"), 0o600))

	latest, ok := store.Latest(context.Background())
	require.True(t, ok)
	assert.Equal(t, "good", latest.Snapshot.TimeBlocks["k"].Content)
}

func TestByDateMissingBucket(t *testing.T) {
	store := snapshot.New(t.TempDir())
	got := store.ByDate(context.Background(), time.Date(2025, 2, 15, 0, 0, 0, 0, time.Local))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestByDateReadsOnlyTheDayFolder(t *testing.T) {
	base := t.TempDir()
	day := time.Date(2025, 2, 15, 9, 0, 0, 0, time.Local)
	store := snapshot.New(base, snapshot.WithClock(fixedClock(day)))

	_, err := store.Write(model.RawEntry{TimeBlocks: map[string]model.RawBlock{"k": {Content: "a"}}})
	require.NoError(t, err)
	store2 := snapshot.New(base, snapshot.WithClock(fixedClock(day.Add(3*time.Hour))))
	_, err = store2.Write(model.RawEntry{TimeBlocks: map[string]model.RawBlock{"k": {Content: "b"}}})
	require.NoError(t, err)

	// Nested and foreign files are ignored.
	dayDir := filepath.Join(base, "25-02", "w07-02-15", "sat-15-02-25")
	require.NoError(t, os.MkdirAll(filepath.Join(dayDir, "nested"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dayDir, "nested", "x.json"), []byte(`{}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dayDir, "notes.txt"), []byte("x"), 0o600))

	// Another day is not included.
	other := snapshot.New(base, snapshot.WithClock(fixedClock(day.AddDate(0, 0, 1))))
	_, err = other.Write(model.RawEntry{TimeBlocks: map[string]model.RawBlock{"k": {Content: "c"}}})
	require.NoError(t, err)

	got := store.ByDate(context.Background(), day)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Snapshot.TimeBlocks["k"].Content)
	assert.Equal(t, "b", got[1].Snapshot.TimeBlocks["k"].Content)
}

func TestWatchReportsNewSnapshots(t *testing.T) {
	base := t.TempDir()
	store := snapshot.New(base)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	keys, err := store.Watch(ctx)
	require.NoError(t, err)

	path, err := store.Write(sampleEntry())
	require.NoError(t, err)
	rel, err := filepath.Rel(base, path)
	require.NoError(t, err)

	select {
	case key := <-keys:
		assert.Equal(t, filepath.ToSlash(rel), key)
	case <-time.After(5 * time.Second):
		t.Fatal("no snapshot reported")
	}
}
