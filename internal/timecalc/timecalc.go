package timecalc

import (
	"fmt"
	"math"
	"time"
)

// ClockLayout is the HH:MM layout used for block start and end times.
const ClockLayout = "15:04"

// BlockHours returns the span between two HH:MM clock strings in hours,
// rounded to two decimals. Unparsable input yields 0. An end before the start
// yields a negative span; callers decide whether that is meaningful.
func BlockHours(start, end string) float64 {
	s, err := time.Parse(ClockLayout, start)
	if err != nil {
		return 0
	}
	e, err := time.Parse(ClockLayout, end)
	if err != nil {
		return 0
	}
	return math.Round(e.Sub(s).Hours()*100) / 100
}

// BlockSeconds is BlockHours in whole seconds, clamped at zero.
func BlockSeconds(start, end string) int64 {
	s, err := time.Parse(ClockLayout, start)
	if err != nil {
		return 0
	}
	e, err := time.Parse(ClockLayout, end)
	if err != nil || e.Before(s) {
		return 0
	}
	return int64(e.Sub(s).Seconds())
}

// FormatDuration formats seconds as a human-readable string like "1h 40m" or "45m" or "30s".
func FormatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}

// WeekRange returns the Monday and Sunday of the ISO week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	// Go's weekday: Sunday=0, Monday=1, …, Saturday=6
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // treat Sunday as 7 (ISO)
	}
	monday := t.AddDate(0, 0, -(wd - 1))
	monday = time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, t.Location())
	sunday := monday.AddDate(0, 0, 6)
	sunday = time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 23, 59, 59, 0, t.Location())
	return monday, sunday
}

// ISOWeekLabel returns a label like "2026-W09".
func ISOWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59 of the same day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ParseDate parses a YYYY-MM-DD flag value in the local time zone.
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return d, nil
}
