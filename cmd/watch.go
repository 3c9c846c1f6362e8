package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print new snapshots as they are captured",
	Long: `watch follows the snapshot tree and prints the key of every snapshot
written after it starts, until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	a := mustLoadApp()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	keys, err := a.snapshots.Watch(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Fprintf(os.Stderr, "Watching %s (Ctrl-C to stop)\n", a.snapshots.Base())
	for key := range keys {
		fmt.Fprintf(color.Output, "%s %s\n", color.GreenString("+"), key)
	}
	return nil
}
