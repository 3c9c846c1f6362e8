package journal

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Tiliavir/daylog/internal/model"
	"github.com/Tiliavir/daylog/internal/timecalc"
)

const maxKeywords = 5

// BlockStats describes one block's workload.
type BlockStats struct {
	Name     string
	Hours    float64
	Tasks    int
	Keywords []string
}

// Summary aggregates BlockStats over a set of blocks.
type Summary struct {
	Blocks     []BlockStats
	TotalTasks int
	TotalHours float64
}

// Analyze computes the stats of a single block. Tasks are the non-blank
// lines of the content.
func Analyze(b model.TimeBlock) BlockStats {
	return BlockStats{
		Name:     b.BlockName,
		Hours:    timecalc.BlockHours(b.StartTime, b.EndTime),
		Tasks:    countTasks(b.Content),
		Keywords: keywords(b.Content),
	}
}

// Summarize analyzes every block in order.
func Summarize(blocks []model.TimeBlock) Summary {
	s := Summary{Blocks: make([]BlockStats, 0, len(blocks))}
	for _, b := range blocks {
		st := Analyze(b)
		s.Blocks = append(s.Blocks, st)
		s.TotalTasks += st.Tasks
		s.TotalHours += st.Hours
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("Daily journal entry with %d tasks spanning %.1f hours across %d time blocks.",
		s.TotalTasks, s.TotalHours, len(s.Blocks))
}

func countTasks(content string) int {
	n := 0
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

// keywords returns up to five distinct lower-cased words longer than three
// characters, in alphabetical order.
func keywords(content string) []string {
	seen := map[string]struct{}{}
	for _, w := range strings.Fields(strings.ToLower(content)) {
		if utf8.RuneCountInString(w) > 3 {
			seen[w] = struct{}{}
		}
	}
	words := make([]string, 0, len(seen))
	for w := range seen {
		words = append(words, w)
	}
	sort.Strings(words)
	if len(words) > maxKeywords {
		words = words[:maxKeywords]
	}
	return words
}
