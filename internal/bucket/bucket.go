// Package bucket derives calendar-keyed storage locations from timestamps.
//
// Two independent addressing schemes live here. Snapshots are filed under a
// three-level month/week/day folder tree (Resolve). Aggregated daily records
// are filed flat per year under work-logs/<year>/daily (DailyFile).
package bucket

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"
)

// weekdays is fixed so folder names never depend on the runtime locale.
var weekdays = [...]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// Path names the three snapshot folders for one instant.
type Path struct {
	Month string // YY-MM
	Week  string // wWW-MM-DD
	Day   string // wkd-DD-MM-YY
}

// Resolve returns the snapshot folders for t. It performs no I/O.
//
// The week folder is anchored on t's own month and day, not on the first day
// of the ISO week. Two instants in the same ISO week but on different days
// therefore resolve to different week folders.
func Resolve(t time.Time) Path {
	_, week := t.ISOWeek()
	return Path{
		Month: fmt.Sprintf("%02d-%02d", t.Year()%100, int(t.Month())),
		Week:  fmt.Sprintf("w%02d-%02d-%02d", week, int(t.Month()), t.Day()),
		Day: fmt.Sprintf("%s-%02d-%02d-%02d",
			weekdays[t.Weekday()], t.Day(), int(t.Month()), t.Year()%100),
	}
}

// Dir joins the folders with the OS separator.
func (p Path) Dir() string {
	return filepath.Join(p.Month, p.Week, p.Day)
}

// Key returns the slash-separated snapshot key for a file in the day folder.
func (p Path) Key(file string) string {
	return path.Join(p.Month, p.Week, p.Day, file)
}

// Prefix is the key prefix shared by all files directly in the day folder.
func (p Path) Prefix() string {
	return path.Join(p.Month, p.Week, p.Day) + "/"
}

// WorkLogsDir is the folder under the journal root holding aggregated records.
const WorkLogsDir = "work-logs"

// DailyFile returns <root>/work-logs/<YYYY>/daily/<YYYY-MM-DD>.json for t.
func DailyFile(root string, t time.Time) string {
	return filepath.Join(root, WorkLogsDir, t.Format("2006"), "daily", t.Format("2006-01-02")+".json")
}

// periodFolders are created per year so frontends find a stable layout.
var periodFolders = []string{"daily", "weekly", "monthly"}

// EnsureYearFolders creates work-logs/<year>/{daily,weekly,monthly} under root.
// It is safe to call repeatedly.
func EnsureYearFolders(root string, year int) error {
	for _, folder := range periodFolders {
		dir := filepath.Join(root, WorkLogsDir, fmt.Sprintf("%d", year), folder)
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}
