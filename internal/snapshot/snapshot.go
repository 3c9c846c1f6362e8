// Package snapshot files one immutable JSON copy of every save action in a
// calendar folder tree and reads those copies back.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/peterbourgon/diskv/v3"

	"github.com/Tiliavir/daylog/internal/bucket"
	"github.com/Tiliavir/daylog/internal/model"
)

// DirName is the folder under the journal root that holds snapshots.
const DirName = "journal_entries"

// incomingDir receives diskv temp files before they are renamed into place.
const incomingDir = ".incoming"

// Store writes and reads Raw Entry Snapshots. Keys are slash-separated paths
// relative to the store base, e.g. "25-02/w07-02-15/sat-15-02-25/journal_entry_14-03-27.json".
type Store struct {
	d    *diskv.Diskv
	base string
	now  func() time.Time
	log  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock that stamps and files new snapshots.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used to report unreadable snapshot files.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// New returns a Store rooted at base. Nothing is created on disk until the
// first write.
func New(base string, opts ...Option) *Store {
	s := &Store{
		base: base,
		now:  time.Now,
		log:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.d = diskv.New(diskv.Options{
		BasePath:          base,
		TempDir:           filepath.Join(base, incomingDir),
		AdvancedTransform: keyToPath,
		InverseTransform:  pathToKey,
		CacheSizeMax:      1024 * 1024, // 1MB
		PathPerm:          0o700,
		FilePerm:          0o600,
	})
	return s
}

// Base returns the directory holding the snapshot tree.
func (s *Store) Base() string { return s.base }

func keyToPath(key string) *diskv.PathKey {
	parts := strings.Split(key, "/")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKey(pk *diskv.PathKey) string {
	return strings.Join(append(append([]string{}, pk.Path...), pk.FileName), "/")
}

// fileName returns the snapshot file name for t, with a collision suffix when n > 1.
func fileName(t time.Time, n int) string {
	if n <= 1 {
		return fmt.Sprintf("journal_entry_%s.json", t.Format("15-04-05"))
	}
	return fmt.Sprintf("journal_entry_%s_%d.json", t.Format("15-04-05"), n)
}

// Write stores entry as a new snapshot under the day bucket of the current
// instant and returns the file written. An existing snapshot is never
// replaced: a second save within the same second gets a numeric suffix.
func (s *Store) Write(entry model.RawEntry) (string, error) {
	return s.WriteAt(entry, s.now())
}

// WriteAt is Write with the capture instant given by the caller.
func (s *Store) WriteAt(entry model.RawEntry, now time.Time) (string, error) {
	p := bucket.Resolve(now)

	key := p.Key(fileName(now, 1))
	for n := 2; s.d.Has(key); n++ {
		key = p.Key(fileName(now, n))
	}

	blocks := entry.TimeBlocks
	if blocks == nil {
		blocks = map[string]model.RawBlock{}
	}
	data, err := json.MarshalIndent(model.Snapshot{
		Timestamp:  model.NewTimestamp(now),
		TimeBlocks: blocks,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := s.d.Write(key, data); err != nil {
		return "", fmt.Errorf("writing snapshot %s: %w", key, err)
	}
	return s.filePath(key), nil
}

func (s *Store) filePath(key string) string {
	return filepath.Join(s.base, filepath.FromSlash(key))
}

// isSnapshotKey filters diskv keys down to snapshot files.
func isSnapshotKey(key string) bool {
	return strings.HasSuffix(key, ".json") && !strings.HasPrefix(key, ".")
}

func (s *Store) read(key string) (model.Snapshot, error) {
	data, err := s.d.Read(key)
	if err != nil {
		return model.Snapshot{}, err
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return model.Snapshot{}, err
	}
	return snap, nil
}

// Entry is a snapshot together with the key it was read from.
type Entry struct {
	Key      string
	Snapshot model.Snapshot
}

// Latest returns the most recent snapshot in the whole tree. Recency is the
// embedded timestamp; snapshots without one fall back to the file's
// modification time. Ties go to the lexicographically largest key. The
// boolean is false when the tree holds no readable snapshot.
func (s *Store) Latest(ctx context.Context) (Entry, bool) {
	var (
		best   Entry
		bestAt time.Time
		found  bool
	)
	for key := range s.d.Keys(ctx.Done()) {
		if !isSnapshotKey(key) {
			continue
		}
		snap, err := s.read(key)
		if err != nil {
			s.log.Warn("skipping unreadable snapshot", "key", key, "error", err)
			continue
		}
		at := snap.Timestamp.Time
		if at.IsZero() {
			info, err := os.Stat(s.filePath(key))
			if err != nil {
				s.log.Warn("skipping snapshot without timestamp", "key", key, "error", err)
				continue
			}
			at = info.ModTime()
		}
		if !found || at.After(bestAt) || (at.Equal(bestAt) && key > best.Key) {
			best, bestAt, found = Entry{Key: key, Snapshot: snap}, at, true
		}
	}
	return best, found
}

// ByDate returns every snapshot filed directly in the day bucket of day,
// ordered by key. Subfolders are not searched. A missing bucket yields an
// empty slice.
func (s *Store) ByDate(ctx context.Context, day time.Time) []Entry {
	prefix := bucket.Resolve(day).Prefix()
	entries := []Entry{}
	for key := range s.d.KeysPrefix(prefix, ctx.Done()) {
		rest := strings.TrimPrefix(key, prefix)
		if strings.Contains(rest, "/") || !isSnapshotKey(key) {
			continue
		}
		snap, err := s.read(key)
		if err != nil {
			s.log.Warn("skipping unreadable snapshot", "key", key, "error", err)
			continue
		}
		entries = append(entries, Entry{Key: key, Snapshot: snap})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}
