package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/daylog/internal/timecalc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest capture and today's logged time",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	now := time.Now()
	a := mustLoadApp()

	if e, found := a.snapshots.Latest(cmd.Context()); found {
		fmt.Println("Last capture:")
		fmt.Printf("  Snapshot: %s\n", e.Key)
		if !e.Snapshot.Timestamp.IsZero() {
			age := int64(now.Sub(e.Snapshot.Timestamp.Time).Seconds())
			fmt.Printf("  Taken: %s (%s ago)\n", e.Snapshot.Timestamp.Format("2006-01-02 15:04"), formatElapsed(age))
		}
	} else {
		fmt.Println("No captures yet.")
	}

	rec, err := a.daily.LoadDay(now)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	var totalSeconds int64
	for _, b := range rec.Blocks {
		totalSeconds += timecalc.BlockSeconds(b.StartTime, b.EndTime)
	}
	fmt.Printf("Today: %s logged in %d blocks.\n", timecalc.FormatDuration(totalSeconds), len(rec.Blocks))
	return nil
}

func formatElapsed(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
