package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TimeBlock is one named span of activity captured for a day.
type TimeBlock struct {
	BlockName string
	StartTime string // HH:MM
	EndTime   string // HH:MM
	Content   string
	Date      time.Time
}

// NewTimeBlock builds a block with trimmed content. The date is always
// supplied by the caller.
func NewTimeBlock(name, start, end, content string, date time.Time) TimeBlock {
	return TimeBlock{
		BlockName: name,
		StartTime: start,
		EndTime:   end,
		Content:   strings.TrimSpace(content),
		Date:      date,
	}
}

// Placeholder returns the prompt a frontend shows in an empty block editor.
func Placeholder(key string) string {
	return fmt.Sprintf("Enter your %s tasks here...", key)
}

// CleanContent trims content and maps the block's placeholder prompt to "".
func CleanContent(key, content string) string {
	content = strings.TrimSpace(content)
	if content == Placeholder(key) {
		return ""
	}
	return content
}

// Text renders the block as plain text.
func (b TimeBlock) Text() string {
	return fmt.Sprintf("Block: %s\nTime: %s - %s\nContent:\n%s\n%s\n",
		b.BlockName, b.StartTime, b.EndTime, strings.TrimSpace(b.Content), strings.Repeat("-", 40))
}

type timeBlockJSON struct {
	BlockName string `json:"block_name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Content   string `json:"content"`
	Date      string `json:"date"`
}

func (b TimeBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(timeBlockJSON{
		BlockName: b.BlockName,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Content:   strings.TrimSpace(b.Content),
		Date:      b.Date.Format(LocalLayout),
	})
}

func (b *TimeBlock) UnmarshalJSON(data []byte) error {
	var raw timeBlockJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = TimeBlock{
		BlockName: raw.BlockName,
		StartTime: raw.StartTime,
		EndTime:   raw.EndTime,
		Content:   raw.Content,
	}
	if raw.Date != "" {
		d, err := ParseISO(raw.Date)
		if err != nil {
			return fmt.Errorf("block %q: %w", raw.BlockName, err)
		}
		b.Date = d
	}
	return nil
}
