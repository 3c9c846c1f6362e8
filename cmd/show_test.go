package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/Tiliavir/daylog/internal/model"
	"github.com/Tiliavir/daylog/internal/snapshot"
)

func init() {
	color.NoColor = true
}

func TestPrintRecord(t *testing.T) {
	day := time.Date(2025, 2, 15, 14, 3, 27, 0, time.Local)
	rec := model.DailyRecord{
		Date: "2025-02-15",
		Blocks: []model.TimeBlock{
			model.NewTimeBlock("Morning Tasks", "08:00", "10:30", "review\nplan", day),
		},
	}

	var buf bytes.Buffer
	printRecord(&buf, rec)
	out := buf.String()

	assert.Contains(t, out, "2025-02-15")
	assert.Contains(t, out, "Morning Tasks")
	assert.Contains(t, out, "08:00–10:30")
	assert.Contains(t, out, "2.50")
	assert.Contains(t, out, "Daily journal entry with 2 tasks spanning 2.5 hours across 1 time blocks.")
}

func TestPrintRecordEmpty(t *testing.T) {
	var buf bytes.Buffer
	printRecord(&buf, model.DailyRecord{Date: "2025-02-15"})
	assert.Equal(t, "No blocks recorded for 2025-02-15.\n", buf.String())
}

func TestPrintSnapshot(t *testing.T) {
	e := snapshot.Entry{
		Key: "25-02/w07-02-15/sat-15-02-25/journal_entry_14-03-27.json",
		Snapshot: model.Snapshot{
			Timestamp: model.NewTimestamp(time.Date(2025, 2, 15, 14, 3, 27, 0, time.Local)),
			TimeBlocks: map[string]model.RawBlock{
				"morning": {StartTime: "08:00", EndTime: "12:00", Content: "deep work"},
				"evening": {StartTime: "18:00", EndTime: "19:00"},
			},
		},
	}

	var buf bytes.Buffer
	printSnapshot(&buf, e)
	out := buf.String()

	assert.Contains(t, out, e.Key+"  2025-02-15 14:03:27")
	assert.Contains(t, out, "deep work")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("evening")), bytes.Index(buf.Bytes(), []byte("morning")))
}
