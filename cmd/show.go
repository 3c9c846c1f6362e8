package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/daylog/internal/journal"
	"github.com/Tiliavir/daylog/internal/model"
	"github.com/Tiliavir/daylog/internal/snapshot"
	"github.com/Tiliavir/daylog/internal/timecalc"
)

var (
	showDate    string
	showText    bool
	entriesDate string
	entriesJSON bool
	latestJSON  bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the daily record for a date",
	Args:  cobra.NoArgs,
	RunE:  runShow,
}

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "List the snapshots captured on a date",
	Args:  cobra.NoArgs,
	RunE:  runEntries,
}

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the most recent snapshot",
	Args:  cobra.NoArgs,
	RunE:  runLatest,
}

func init() {
	showCmd.Flags().StringVar(&showDate, "date", "", "Date to show (YYYY-MM-DD); defaults to today")
	showCmd.Flags().BoolVar(&showText, "text", false, "Print each block as plain text instead of a table")
	entriesCmd.Flags().StringVar(&entriesDate, "date", "", "Date to list (YYYY-MM-DD); defaults to today")
	entriesCmd.Flags().BoolVar(&entriesJSON, "json", false, "Print snapshots as JSON")
	latestCmd.Flags().BoolVar(&latestJSON, "json", false, "Print the snapshot as JSON")
}

// dateFlag parses value, defaulting to today; a bad value exits with status 1.
func dateFlag(name, value string) time.Time {
	if value == "" {
		return time.Now()
	}
	d, err := timecalc.ParseDate(value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --%s value: %v\n", name, err)
		os.Exit(1)
	}
	return d
}

func runShow(cmd *cobra.Command, args []string) error {
	day := dateFlag("date", showDate)
	a := mustLoadApp()

	rec, err := a.daily.LoadDay(day)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if showText {
		for _, b := range rec.Blocks {
			fmt.Fprint(color.Output, b.Text())
		}
		return nil
	}
	printRecord(color.Output, rec)
	return nil
}

// printRecord renders the blocks of rec as a table followed by the summary.
func printRecord(w io.Writer, rec model.DailyRecord) {
	if len(rec.Blocks) == 0 {
		fmt.Fprintf(w, "No blocks recorded for %s.\n", rec.Date)
		return
	}

	fmt.Fprintln(w, color.New(color.Bold, color.Underline).Sprint(rec.Date))

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.Wrap = true
	tbl.AddRow("BLOCK", "TIME", "HOURS", "CONTENT")
	for _, b := range rec.Blocks {
		tbl.AddRow(b.BlockName, b.StartTime+"–"+b.EndTime,
			fmt.Sprintf("%.2f", timecalc.BlockHours(b.StartTime, b.EndTime)), b.Content)
	}
	fmt.Fprintln(w, tbl)
	fmt.Fprintln(w)
	fmt.Fprintln(w, journal.Summarize(rec.Blocks).String())
}

// printSnapshot renders one snapshot: its key, capture time and blocks by key.
func printSnapshot(w io.Writer, e snapshot.Entry) {
	header := e.Key
	if !e.Snapshot.Timestamp.IsZero() {
		header += "  " + e.Snapshot.Timestamp.Format("2006-01-02 15:04:05")
	}
	fmt.Fprintln(w, color.CyanString(header))

	keys := make([]string, 0, len(e.Snapshot.TimeBlocks))
	for k := range e.Snapshot.TimeBlocks {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.Wrap = true
	for _, k := range keys {
		rb := e.Snapshot.TimeBlocks[k]
		tbl.AddRow(k, rb.StartTime+"–"+rb.EndTime, rb.Content)
	}
	fmt.Fprintln(w, tbl)
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func runEntries(cmd *cobra.Command, args []string) error {
	day := dateFlag("date", entriesDate)
	a := mustLoadApp()

	entries := a.snapshots.ByDate(cmd.Context(), day)
	if entriesJSON {
		snaps := make([]model.Snapshot, 0, len(entries))
		for _, e := range entries {
			snaps = append(snaps, e.Snapshot)
		}
		return printJSON(cmd.OutOrStdout(), snaps)
	}

	if len(entries) == 0 {
		fmt.Printf("No snapshots for %s.\n", day.Format("2006-01-02"))
		return nil
	}
	for _, e := range entries {
		printSnapshot(color.Output, e)
	}
	return nil
}

func runLatest(cmd *cobra.Command, args []string) error {
	a := mustLoadApp()

	e, found := a.snapshots.Latest(cmd.Context())
	if !found {
		fmt.Println("No snapshots found.")
		return nil
	}
	if latestJSON {
		return printJSON(cmd.OutOrStdout(), e.Snapshot)
	}
	printSnapshot(color.Output, e)
	return nil
}
