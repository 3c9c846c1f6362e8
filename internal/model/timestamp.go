package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// LocalLayout is the zone-less ISO-8601 layout used for block dates.
const LocalLayout = "2006-01-02T15:04:05.999999"

// isoLayouts are tried in order when reading timestamps written by any
// frontend. Zone-less values are interpreted in the local time zone.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseISO parses an ISO-8601 date or date-time in any of the layouts
// accepted by the journal files.
func ParseISO(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse ISO timestamp %q", s)
}

// Timestamp is an instant serialized as RFC 3339 with nanoseconds. It reads
// every layout accepted by ParseISO.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(ts.Format(time.RFC3339Nano))
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		ts.Time = time.Time{}
		return nil
	}
	t, err := ParseISO(s)
	if err != nil {
		return err
	}
	ts.Time = t
	return nil
}
