package journal_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Tiliavir/daylog/internal/journal"
	"github.com/Tiliavir/daylog/internal/model"
)

func TestAnalyze(t *testing.T) {
	b := model.NewTimeBlock("Morning Tasks", "08:00", "10:30",
		"Review pull requests\n\n  write design doc\nreview", time.Now())

	st := journal.Analyze(b)
	assert.Equal(t, "Morning Tasks", st.Name)
	assert.Equal(t, 2.5, st.Hours)
	assert.Equal(t, 3, st.Tasks)
	assert.Equal(t, []string{"design", "pull", "requests", "review", "write"}, st.Keywords)
}

func TestAnalyzeEmptyBlock(t *testing.T) {
	st := journal.Analyze(model.NewTimeBlock("Evening Tasks", "bad", "20:00", "", time.Now()))
	assert.Zero(t, st.Hours)
	assert.Zero(t, st.Tasks)
	assert.Empty(t, st.Keywords)
}

func TestSummarize(t *testing.T) {
	now := time.Now()
	s := journal.Summarize([]model.TimeBlock{
		model.NewTimeBlock("Morning Tasks", "08:00", "12:00", "one\ntwo", now),
		model.NewTimeBlock("Afternoon Tasks", "13:00", "14:30", "three", now),
	})

	assert.Equal(t, 3, s.TotalTasks)
	assert.Equal(t, 5.5, s.TotalHours)
	assert.Equal(t, "Daily journal entry with 3 tasks spanning 5.5 hours across 2 time blocks.", s.String())
}
