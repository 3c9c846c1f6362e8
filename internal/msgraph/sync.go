package msgraph

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Tiliavir/daylog/internal/model"
	"github.com/Tiliavir/daylog/internal/storage"
	"github.com/Tiliavir/daylog/internal/timecalc"
)

// SyncResult holds counters for a sync operation.
type SyncResult struct {
	Imported int
	Skipped  int
	Errors   int
}

// SyncOptions configures a sync run.
type SyncOptions struct {
	Daily        *storage.Aggregator
	DryRun       bool
	DefaultBlock string // block name for events without a subject
	Timezone     string // IANA name; "" means UTC
	Out          io.Writer
}

func location(tz string) *time.Location {
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			return l
		}
	}
	return time.UTC
}

// parseGraphTime parses a Graph API dateTime string in the given timezone.
// Graph returns times like "2026-02-27T09:00:00.0000000" without a zone suffix
// when a Prefer: outlook.timezone header is set.
func parseGraphTime(dt, tz string) (time.Time, error) {
	loc := location(tz)
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, dt); err == nil {
			return t.In(loc), nil
		}
	}
	// Graph returns fractional seconds: "2026-02-27T09:00:00.0000000"
	for _, layout := range []string{
		"2006-01-02T15:04:05.0000000",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, dt, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse graph time %q", dt)
}

// eventContent combines bodyPreview and location into block content.
func eventContent(event CalendarEvent) string {
	parts := []string{}
	if s := strings.TrimSpace(event.BodyPreview); s != "" {
		parts = append(parts, s)
	}
	if event.Location.DisplayName != "" {
		parts = append(parts, event.Location.DisplayName)
	}
	return strings.Join(parts, "\n")
}

// shouldSkip returns true if the event should not be imported.
func shouldSkip(event CalendarEvent) bool {
	switch {
	case event.IsCancelled, event.IsAllDay:
		return true
	case event.Sensitivity == "private", event.ShowAs == "free":
		return true
	case event.Start.DateTime == "" || event.End.DateTime == "":
		return true
	}
	return false
}

// MapEventToBlock converts a Graph CalendarEvent into a TimeBlock dated at
// the event start.
func MapEventToBlock(event CalendarEvent, timezone, defaultBlock string) (model.TimeBlock, error) {
	start, err := parseGraphTime(event.Start.DateTime, timezone)
	if err != nil {
		return model.TimeBlock{}, fmt.Errorf("parsing start time: %w", err)
	}
	end, err := parseGraphTime(event.End.DateTime, timezone)
	if err != nil {
		return model.TimeBlock{}, fmt.Errorf("parsing end time: %w", err)
	}
	if end.Before(start) {
		return model.TimeBlock{}, fmt.Errorf("event ends before it starts")
	}
	endClock := end.Format(timecalc.ClockLayout)
	if !timecalc.SameDay(start, end) {
		// Blocks are single-day; clip at the end of the start day.
		endClock = "23:59"
	}

	name := strings.TrimSpace(event.Subject)
	if name == "" {
		name = defaultBlock
	}
	return model.NewTimeBlock(name, start.Format(timecalc.ClockLayout), endClock, eventContent(event), start), nil
}

func sameBlock(a, b model.TimeBlock) bool {
	return a.BlockName == b.BlockName &&
		a.StartTime == b.StartTime &&
		a.EndTime == b.EndTime &&
		timecalc.SameDay(a.Date, b.Date)
}

func containsBlock(blocks []model.TimeBlock, b model.TimeBlock) bool {
	for _, existing := range blocks {
		if sameBlock(existing, b) {
			return true
		}
	}
	return false
}

// SyncEvents merges events into the daily records, one save per day. Events
// already present in a day's record (same name, start and end) are skipped,
// so repeated syncs do not duplicate blocks.
func SyncEvents(ctx context.Context, events []CalendarEvent, opts SyncOptions) (SyncResult, error) {
	var result SyncResult
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	known := map[string][]model.TimeBlock{}
	pending := map[string][]model.TimeBlock{}
	var days []string

	for _, event := range events {
		if shouldSkip(event) {
			continue
		}

		block, err := MapEventToBlock(event, opts.Timezone, opts.DefaultBlock)
		if err != nil {
			fmt.Fprintf(out, "  ! Error mapping event %q: %v\n", event.Subject, err)
			result.Errors++
			continue
		}

		day := block.Date.Format("2006-01-02")
		if _, loaded := known[day]; !loaded {
			rec, err := opts.Daily.LoadDay(block.Date)
			if err != nil {
				fmt.Fprintf(out, "  ! Error loading day for %q: %v\n", event.Subject, err)
				result.Errors++
				continue
			}
			known[day] = rec.Blocks
		}

		if containsBlock(known[day], block) {
			fmt.Fprintf(out, "  – Skipped:  %s (already exists)\n", block.BlockName)
			result.Skipped++
			continue
		}
		known[day] = append(known[day], block)
		if _, seen := pending[day]; !seen {
			days = append(days, day)
		}
		pending[day] = append(pending[day], block)
	}

	for _, day := range days {
		blocks := pending[day]
		if !opts.DryRun {
			if _, err := opts.Daily.SaveBlocks(ctx, blocks); err != nil {
				fmt.Fprintf(out, "  ! Error saving %d blocks for %s: %v\n", len(blocks), day, err)
				result.Errors += len(blocks)
				continue
			}
		}
		for _, b := range blocks {
			fmt.Fprintf(out, "  ✓ Imported: %s %s-%s (%s)\n", b.BlockName, b.StartTime, b.EndTime,
				timecalc.FormatDuration(timecalc.BlockSeconds(b.StartTime, b.EndTime)))
		}
		result.Imported += len(blocks)
	}

	return result, nil
}
