package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/daylog/internal/model"
	"github.com/Tiliavir/daylog/internal/timecalc"
)

var (
	reportWeek   bool
	reportDate   string
	reportFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show time per block for a week",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportWeek, "week", false, "Report for this week (default)")
	reportCmd.Flags().StringVar(&reportDate, "date", "", "Report the week containing this date (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, csv, json")
}

// blockTotal is the logged time of one block name.
type blockTotal struct {
	Block           string `json:"block"`
	Blocks          int    `json:"blocks"`
	DurationMinutes int64  `json:"duration_minutes"`
	seconds         int64
}

// weeklyReport is the JSON shape of a report.
type weeklyReport struct {
	Week         string       `json:"week"`
	Blocks       []blockTotal `json:"blocks"`
	TotalMinutes int64        `json:"total_minutes"`
}

// aggregateBlocks totals block durations by block name, ordered by name.
func aggregateBlocks(blocks []model.TimeBlock) ([]blockTotal, int64) {
	byName := map[string]*blockTotal{}
	var grandTotal int64
	for _, b := range blocks {
		sec := timecalc.BlockSeconds(b.StartTime, b.EndTime)
		t, ok := byName[b.BlockName]
		if !ok {
			t = &blockTotal{Block: b.BlockName}
			byName[b.BlockName] = t
		}
		t.Blocks++
		t.seconds += sec
		grandTotal += sec
	}

	totals := make([]blockTotal, 0, len(byName))
	for _, t := range byName {
		t.DurationMinutes = t.seconds / 60
		totals = append(totals, *t)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Block < totals[j].Block })
	return totals, grandTotal
}

func runReport(cmd *cobra.Command, args []string) error {
	anchor := dateFlag("date", reportDate)
	a := mustLoadApp()

	from, to := timecalc.WeekRange(anchor)
	blocks, err := a.daily.LoadRange(from, to)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	return writeReport(cmd.OutOrStdout(), timecalc.ISOWeekLabel(anchor), blocks, reportFormat)
}

func writeReport(w io.Writer, label string, blocks []model.TimeBlock, format string) error {
	totals, grandTotal := aggregateBlocks(blocks)

	switch format {
	case "csv":
		fmt.Fprintln(w, "block,blocks,duration_minutes")
		for _, t := range totals {
			fmt.Fprintf(w, "%s,%d,%d\n", csvEscape(t.Block), t.Blocks, t.DurationMinutes)
		}
	case "json":
		return printJSON(w, weeklyReport{Week: label, Blocks: totals, TotalMinutes: grandTotal / 60})
	default: // md
		fmt.Fprintf(w, "Week %s\n", label)
		fmt.Fprintln(w, "--------------------------------")
		for _, t := range totals {
			fmt.Fprintf(w, "%-20s%s\n", t.Block, timecalc.FormatDuration(t.seconds))
		}
		fmt.Fprintln(w, "--------------------------------")
		fmt.Fprintf(w, "%-20s%s\n", "Total", timecalc.FormatDuration(grandTotal))
	}
	return nil
}
