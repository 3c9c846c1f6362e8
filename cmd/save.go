package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/daylog/internal/journal"
	"github.com/Tiliavir/daylog/internal/model"
)

var saveCmd = &cobra.Command{
	Use:   "save <json>",
	Short: "Merge time blocks into today's daily record",
	Long: `save builds time blocks from a JSON object and merges them into the
daily record of the current day.

The argument maps block keys to their fields, for example:

  daylog save '{"morning": {"start_time": "08:00", "end_time": "12:00", "content": "- review"}}'

Pass "-" to read the object from stdin. Arguments after the first are
ignored.

One JSON line {"success": bool, "message": string} is printed to stdout.
The exit status is always 0, including on failure: callers must inspect
the "success" field rather than the exit code.`,
	Args: cobra.ArbitraryArgs,
	Run:  runSave,
}

var captureCmd = &cobra.Command{
	Use:   "capture <json>",
	Short: "Write a snapshot and merge its blocks into today's record",
	Args:  cobra.ExactArgs(1),
	Run:   runCapture,
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <json>",
	Short: "Write an immutable snapshot of the given blocks",
	Args:  cobra.ExactArgs(1),
	Run:   runSnapshot,
}

// readArg returns args[0], or stdin when it is "-". Missing input yields ""
// and further arguments are ignored.
func readArg(args []string, stdin io.Reader) string {
	if len(args) == 0 {
		return ""
	}
	if args[0] != "-" {
		return args[0]
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return ""
	}
	return string(data)
}

// writeResult prints res as a single JSON line.
func writeResult(w io.Writer, res journal.Result) {
	_ = json.NewEncoder(w).Encode(res)
}

// saveJSON runs the one-shot entry point against proc and prints the result.
func saveJSON(ctx context.Context, proc *journal.Processor, arg string, w io.Writer) {
	writeResult(w, proc.ProcessJSON(ctx, arg))
}

func runSave(cmd *cobra.Command, args []string) {
	out := cmd.OutOrStdout()
	arg := readArg(args, cmd.InOrStdin())

	a, err := loadApp()
	if err != nil {
		writeResult(out, journal.Result{Success: false, Message: fmt.Sprintf("Error loading configuration: %v", err)})
		return
	}
	saveJSON(cmd.Context(), a.proc, arg, out)
}

// parseEntry decodes the block object accepted by capture and snapshot.
func parseEntry(arg string) (model.RawEntry, error) {
	if strings.TrimSpace(arg) == "" {
		return model.RawEntry{}, fmt.Errorf("no data provided")
	}
	entry, err := model.ParseRawEntry([]byte(arg))
	if err != nil {
		return model.RawEntry{}, fmt.Errorf("invalid JSON format: %w", err)
	}
	return entry, nil
}

func runCapture(cmd *cobra.Command, args []string) {
	runEntryCommand(cmd, args, (*journal.Processor).Capture)
}

func runSnapshot(cmd *cobra.Command, args []string) {
	runEntryCommand(cmd, args, (*journal.Processor).SaveEntry)
}

func runEntryCommand(cmd *cobra.Command, args []string, op func(*journal.Processor, context.Context, model.RawEntry) journal.Result) {
	entry, err := parseEntry(readArg(args, cmd.InOrStdin()))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	a := mustLoadApp()
	res := op(a.proc, cmd.Context(), entry)
	if !res.Success {
		fmt.Fprintln(os.Stderr, res.Message)
		os.Exit(2)
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Message)
}
