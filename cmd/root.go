package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/daylog/internal/config"
	"github.com/Tiliavir/daylog/internal/journal"
	"github.com/Tiliavir/daylog/internal/snapshot"
	"github.com/Tiliavir/daylog/internal/storage"
)

var (
	baseDirFlag string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "daylog",
	Short: "daylog – a file-based daily work journal",
	Long: `daylog stores time-block journal entries as human-readable JSON files.
Every capture is kept as an immutable snapshot under journal_entries/ and
merged into a per-day record under work-logs/<year>/daily/.
All data lives in ~/.daylog/ unless configured otherwise.`,
	SilenceUsage: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseDirFlag, "base-dir", "", "Journal root (overrides base_dir from the config file)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(captureCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(latestCmd)
	rootCmd.AddCommand(entriesCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(outlookCmd)
	rootCmd.AddCommand(watchCmd)
	addVersion(rootCmd)
}

// app bundles the configured stores shared by all commands.
type app struct {
	cfg       config.Config
	log       *slog.Logger
	daily     *storage.Aggregator
	snapshots *snapshot.Store
	proc      *journal.Processor
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newApp wires the stores for cfg rooted at cfg.BaseDir.
func newApp(cfg config.Config, logger *slog.Logger) *app {
	daily := storage.New(cfg.BaseDir, storage.WithLockTimeout(cfg.LockTimeout))
	snaps := snapshot.New(filepath.Join(cfg.BaseDir, snapshot.DirName), snapshot.WithLogger(logger))
	return &app{
		cfg:       cfg,
		log:       logger,
		daily:     daily,
		snapshots: snaps,
		proc:      journal.NewProcessor(daily, snaps, journal.WithObserver(journal.NewLogObserver(logger))),
	}
}

// loadApp reads the config file and applies the --base-dir override.
func loadApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if baseDirFlag != "" {
		dir, err := homedir.Expand(baseDirFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid --base-dir %q: %w", baseDirFlag, err)
		}
		cfg.BaseDir = dir
	}
	return newApp(cfg, newLogger()), nil
}

// mustLoadApp exits with status 2 when the configuration cannot be loaded.
func mustLoadApp() *app {
	a, err := loadApp()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return a
}
