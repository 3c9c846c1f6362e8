// Package journal turns captured block data into persisted journal records
// and reports every outcome as a Result instead of an error.
package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Tiliavir/daylog/internal/model"
	"github.com/Tiliavir/daylog/internal/snapshot"
	"github.com/Tiliavir/daylog/internal/storage"
)

// Result is the outcome reported to frontends.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func ok(format string, args ...any) Result {
	return Result{Success: true, Message: fmt.Sprintf(format, args...)}
}

func fail(format string, args ...any) Result {
	return Result{Success: false, Message: fmt.Sprintf(format, args...)}
}

// Processor builds TimeBlocks from raw frontend data and persists them.
type Processor struct {
	daily     *storage.Aggregator
	snapshots *snapshot.Store
	now       func() time.Time
	obs       Observer
}

// Option configures a Processor.
type Option func(*Processor)

// WithClock sets the clock that dates newly built blocks.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// WithObserver sets the observer notified after every operation.
func WithObserver(obs Observer) Option {
	return func(p *Processor) {
		if obs != nil {
			p.obs = obs
		}
	}
}

// NewProcessor returns a Processor writing daily records through daily and
// snapshots through snapshots.
func NewProcessor(daily *storage.Aggregator, snapshots *snapshot.Store, opts ...Option) *Processor {
	p := &Processor{
		daily:     daily,
		snapshots: snapshots,
		now:       time.Now,
		obs:       NoopObserver{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var titleCaser = cases.Title(language.English)

// BlockName maps a block key such as "morning" to "Morning Tasks". Words
// joined by underscores are capitalised separately: "mid_day" gives
// "Mid_Day Tasks".
func BlockName(key string) string {
	parts := strings.Split(key, "_")
	for i, part := range parts {
		parts[i] = titleCaser.String(part)
	}
	return strings.Join(parts, "_") + " Tasks"
}

// BuildTimeBlocks converts raw data into blocks dated at the current instant,
// in the order the frontend sent them (by key when that order is unknown).
// Placeholder prompts are stored as empty content.
func (p *Processor) BuildTimeBlocks(raw model.RawEntry) []model.TimeBlock {
	return buildTimeBlocks(raw, p.now())
}

func buildTimeBlocks(raw model.RawEntry, now time.Time) []model.TimeBlock {
	keys := raw.OrderedKeys()
	blocks := make([]model.TimeBlock, 0, len(keys))
	for _, k := range keys {
		rb := raw.TimeBlocks[k]
		blocks = append(blocks, model.NewTimeBlock(
			BlockName(k), rb.StartTime, rb.EndTime, model.CleanContent(k, rb.Content), now))
	}
	return blocks
}

// ProcessAndSave builds blocks from raw and merges them into the day's record.
func (p *Processor) ProcessAndSave(ctx context.Context, raw model.RawEntry) Result {
	return p.processAndSave(ctx, raw, p.now())
}

func (p *Processor) processAndSave(ctx context.Context, raw model.RawEntry, now time.Time) Result {
	return p.observe(ctx, "process_and_save", func() (Result, map[string]any, error) {
		return p.saveBlocks(ctx, buildTimeBlocks(raw, now))
	})
}

// SaveBlocks merges already built blocks into the record of the first block's date.
func (p *Processor) SaveBlocks(ctx context.Context, blocks []model.TimeBlock) Result {
	return p.observe(ctx, "save_blocks", func() (Result, map[string]any, error) {
		return p.saveBlocks(ctx, blocks)
	})
}

func (p *Processor) saveBlocks(ctx context.Context, blocks []model.TimeBlock) (Result, map[string]any, error) {
	fields := map[string]any{"blocks": len(blocks)}
	path, err := p.daily.SaveBlocks(ctx, blocks)
	switch {
	case errors.Is(err, storage.ErrNoBlocks):
		return fail("No blocks to save."), fields, err
	case err != nil:
		return fail("Error saving time blocks: %v", err), fields, err
	}
	fields["path"] = path
	fields["summary"] = Summarize(blocks).String()
	return ok("Time blocks saved successfully to %s", path), fields, nil
}

// ProcessJSON handles the one-shot entry point: arg is a JSON object mapping
// block keys to {start_time, end_time, content}.
func (p *Processor) ProcessJSON(ctx context.Context, arg string) Result {
	if strings.TrimSpace(arg) == "" {
		return fail("No data provided")
	}
	raw, err := model.ParseRawEntry([]byte(arg))
	if err != nil {
		return fail("Invalid JSON format")
	}
	return p.ProcessAndSave(ctx, raw)
}

// SaveEntry writes raw as an immutable snapshot.
func (p *Processor) SaveEntry(ctx context.Context, raw model.RawEntry) Result {
	return p.saveEntry(ctx, raw, time.Time{})
}

// saveEntry stamps the snapshot with at, or with the store's clock when at is zero.
func (p *Processor) saveEntry(ctx context.Context, raw model.RawEntry, at time.Time) Result {
	return p.observe(ctx, "save_entry", func() (Result, map[string]any, error) {
		var (
			path string
			err  error
		)
		if at.IsZero() {
			path, err = p.snapshots.Write(cleanEntry(raw))
		} else {
			path, err = p.snapshots.WriteAt(cleanEntry(raw), at)
		}
		if err != nil {
			return fail("Error saving entry: %v", err), nil, err
		}
		return ok("Entry saved successfully to %s", path), map[string]any{"path": path}, nil
	})
}

// Capture writes a snapshot of raw and then merges its blocks into the day's
// record. Both are stamped with one instant, so they land on the same day.
// The merge is skipped when the snapshot cannot be written.
func (p *Processor) Capture(ctx context.Context, raw model.RawEntry) Result {
	now := p.now()
	entry := p.saveEntry(ctx, raw, now)
	if !entry.Success {
		return entry
	}
	daily := p.processAndSave(ctx, raw, now)
	if !daily.Success {
		return fail("%s; %s", entry.Message, daily.Message)
	}
	return ok("%s; %s", entry.Message, daily.Message)
}

func cleanEntry(raw model.RawEntry) model.RawEntry {
	out := model.RawEntry{TimeBlocks: make(map[string]model.RawBlock, len(raw.TimeBlocks)), Keys: raw.Keys}
	for k, rb := range raw.TimeBlocks {
		rb.Content = model.CleanContent(k, rb.Content)
		out.TimeBlocks[k] = rb
	}
	return out
}

// observe runs fn, converts a panic into a failure Result and reports the
// outcome to the observer.
func (p *Processor) observe(ctx context.Context, op string, fn func() (Result, map[string]any, error)) (res Result) {
	started := time.Now()
	id := uuid.NewString()
	var (
		fields map[string]any
		err    error
	)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			res = fail("Error processing journal: %v", r)
		}
		p.obs.Observe(ctx, Event{
			Op:        op,
			ID:        id,
			StartedAt: started,
			Duration:  time.Since(started),
			Success:   res.Success,
			Err:       err,
			Fields:    fields,
		})
	}()
	res, fields, err = fn()
	return res
}
