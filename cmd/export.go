package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/daylog/internal/model"
	"github.com/Tiliavir/daylog/internal/timecalc"
)

var (
	exportFormat string
	exportDate   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a week of time blocks to stdout",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, json, md")
	exportCmd.Flags().StringVar(&exportDate, "date", "", "Export the week containing this date (YYYY-MM-DD)")
}

func runExport(cmd *cobra.Command, args []string) error {
	anchor := dateFlag("date", exportDate)
	a := mustLoadApp()

	from, to := timecalc.WeekRange(anchor)
	blocks, err := a.daily.LoadRange(from, to)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	out := cmd.OutOrStdout()
	switch exportFormat {
	case "json":
		if err := printJSON(out, blocks); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	case "md":
		printList(out, blocks)
	default: // csv
		printCSV(out, blocks)
	}
	return nil
}

// printList groups blocks by date and prints them as markdown.
func printList(w io.Writer, blocks []model.TimeBlock) {
	if len(blocks) == 0 {
		fmt.Fprintln(w, "No blocks found.")
		return
	}

	var currentDay string
	for _, b := range blocks {
		day := b.Date.Format("2006-01-02")
		if day != currentDay {
			if currentDay != "" {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "## %s\n\n", day)
			currentDay = day
		}
		dur := timecalc.FormatDuration(timecalc.BlockSeconds(b.StartTime, b.EndTime))
		fmt.Fprintf(w, "- %s–%s  %s (%s)\n", b.StartTime, b.EndTime, b.BlockName, dur)
	}
}

func printCSV(w io.Writer, blocks []model.TimeBlock) {
	fmt.Fprintln(w, "date,block,start,end,duration_minutes,content")
	for _, b := range blocks {
		fmt.Fprintf(w, "%s,%s,%s,%s,%d,%s\n",
			csvEscape(b.Date.Format("2006-01-02")),
			csvEscape(b.BlockName),
			csvEscape(b.StartTime),
			csvEscape(b.EndTime),
			timecalc.BlockSeconds(b.StartTime, b.EndTime)/60,
			csvEscape(b.Content),
		)
	}
}

// csvEscape wraps a field in quotes if it contains a comma, quote, or newline.
func csvEscape(s string) string {
	needsQuote := false
	for _, c := range s {
		if c == ',' || c == '"' || c == '\n' || c == '\r' {
			needsQuote = true
			break
		}
	}
	if !needsQuote {
		return s
	}
	// Escape internal double quotes by doubling them.
	escaped := ""
	for _, c := range s {
		if c == '"' {
			escaped += "\""
		}
		escaped += string(c)
	}
	return `"` + escaped + `"`
}
