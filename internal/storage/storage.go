package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/Tiliavir/daylog/internal/bucket"
	"github.com/Tiliavir/daylog/internal/model"
)

var (
	// ErrNoBlocks is returned when a save is requested without any blocks.
	ErrNoBlocks = errors.New("no blocks to save")
	// ErrCorruptRecord is returned when an existing daily record cannot be parsed.
	ErrCorruptRecord = errors.New("corrupt existing record")
	// ErrLocked is returned when another writer holds the day's lock past the timeout.
	ErrLocked = errors.New("daily record is locked by another writer")
)

const (
	defaultLockTimeout = 5 * time.Second
	lockRetryDelay     = 25 * time.Millisecond
)

// Aggregator owns the daily bucket files under <root>/work-logs. Every save
// is a read-merge-write cycle guarded by a per-date lock file, so concurrent
// writers in other processes append instead of overwriting each other.
type Aggregator struct {
	root        string
	now         func() time.Time
	lockTimeout time.Duration
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock sets the clock used for last_updated.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithLockTimeout bounds how long a save waits for the day's lock.
func WithLockTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.lockTimeout = d
		}
	}
}

// New returns an Aggregator rooted at root.
func New(root string, opts ...Option) *Aggregator {
	a := &Aggregator{root: root, now: time.Now, lockTimeout: defaultLockTimeout}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Root returns the journal root directory.
func (a *Aggregator) Root() string { return a.root }

// Path returns the daily bucket file for the given date.
func (a *Aggregator) Path(day time.Time) string {
	return bucket.DailyFile(a.root, day)
}

// record mirrors model.DailyRecord but keeps stored blocks as raw JSON so a
// merge never rewrites or drops fields of blocks it did not create.
type record struct {
	Date        string            `json:"date"`
	Blocks      []json.RawMessage `json:"blocks"`
	LastUpdated model.Timestamp   `json:"last_updated"`
}

// SaveBlocks merges blocks into the daily record of the first block's date and
// returns the file written. The other blocks' dates are not consulted. New
// blocks are placed before the stored ones. The call is not idempotent:
// saving the same blocks twice stores them twice.
func (a *Aggregator) SaveBlocks(ctx context.Context, blocks []model.TimeBlock) (string, error) {
	if len(blocks) == 0 {
		return "", ErrNoBlocks
	}
	day := blocks[0].Date
	path := a.Path(day)

	fresh := make([]json.RawMessage, 0, len(blocks))
	for _, b := range blocks {
		data, err := json.Marshal(b)
		if err != nil {
			return "", fmt.Errorf("storage error marshalling block %q: %w", b.BlockName, err)
		}
		fresh = append(fresh, data)
	}

	if err := bucket.EnsureYearFolders(a.root, day.Year()); err != nil {
		return "", fmt.Errorf("storage error creating directories: %w", err)
	}

	unlock, err := a.lock(ctx, path)
	if err != nil {
		return "", err
	}
	defer unlock()

	existing, err := readBlocks(path)
	if err != nil {
		return "", err
	}

	merged := record{
		Date:        day.Format("2006-01-02"),
		Blocks:      append(fresh, existing...),
		LastUpdated: model.NewTimestamp(a.now()),
	}
	if err := writeAtomic(path, merged); err != nil {
		return "", err
	}
	return path, nil
}

// lock takes the exclusive lock for path and returns its release function.
func (a *Aggregator) lock(ctx context.Context, path string) (func(), error) {
	fl := flock.New(path + ".lock")
	ctx, cancel := context.WithTimeout(ctx, a.lockTimeout)
	defer cancel()

	ok, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return nil, fmt.Errorf("storage error locking %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return func() { _ = fl.Unlock() }, nil
}

// readBlocks returns the stored blocks, or none when the file does not exist.
// Only "blocks" is decoded; the other fields are rewritten on save anyway.
func readBlocks(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage error reading %s: %w", path, err)
	}
	var stored struct {
		Blocks []json.RawMessage `json:"blocks"`
	}
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrCorruptRecord, path, err)
	}
	return stored.Blocks, nil
}

// writeAtomic replaces path with the JSON encoding of v via a temp file and rename.
func writeAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("storage error marshalling JSON: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("storage error creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}

// LoadDay loads the daily record for the given date. Returns an empty record if not found.
func (a *Aggregator) LoadDay(day time.Time) (model.DailyRecord, error) {
	path := a.Path(day)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return model.DailyRecord{Date: day.Format("2006-01-02"), Blocks: []model.TimeBlock{}}, nil
	}
	if err != nil {
		return model.DailyRecord{}, fmt.Errorf("storage error reading %s: %w", path, err)
	}

	var rec model.DailyRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return model.DailyRecord{}, fmt.Errorf("%w %s: %v", ErrCorruptRecord, path, err)
	}
	if rec.Blocks == nil {
		rec.Blocks = []model.TimeBlock{}
	}
	return rec, nil
}

// LoadRange loads all blocks in [from, to] inclusive, day by day in order.
func (a *Aggregator) LoadRange(from, to time.Time) ([]model.TimeBlock, error) {
	var blocks []model.TimeBlock
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		rec, err := a.LoadDay(d)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, rec.Blocks...)
	}
	return blocks, nil
}
