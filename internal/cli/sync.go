package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/threadress/internal/domain/batch"
	"github.com/kailas-cloud/threadress/internal/domain/catalog"
	"github.com/kailas-cloud/threadress/internal/repository/checkpoint"
)

var (
	checkpointPath string
	forceSync      bool
	resetLedger    bool
	watchFiles     bool
	debounce       time.Duration
	maxFailures    int
)

var syncCmd = &cobra.Command{
	Use:   "sync [patterns...]",
	Short: "Index catalog exports (JSON or YAML rows)",
	Long: `Load catalog rows from files matching the given doublestar patterns,
map them to inventory items and index them in batches.

Files that synced cleanly and have not changed since are skipped; pass
--force to re-index everything. With --watch threadctl keeps running and
re-indexes a file every time it is saved.

Examples:
  threadctl sync                                # catalog/**/*.{json,yaml,yml}
  threadctl sync 'exports/*.json' --force
  threadctl sync --watch 'catalog/**/*.yaml'`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	f := syncCmd.Flags()
	f.StringVar(&checkpointPath, "checkpoint", filepath.Join(".threadress", "sync.db"), "checkpoint ledger path, empty disables it")
	f.BoolVar(&forceSync, "force", false, "re-index files even when unchanged")
	f.BoolVar(&resetLedger, "reset", false, "forget all checkpoints before syncing")
	f.BoolVarP(&watchFiles, "watch", "w", false, "keep running and re-index files on change")
	f.DurationVar(&debounce, "debounce", 500*time.Millisecond, "quiet period before a changed file is re-indexed")
	f.IntVar(&maxFailures, "max-failures", 20, "failed items to print per run")
}

func runSync(cmd *cobra.Command, args []string) error {
	patterns := args
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	files, err := ExpandGlobs(patterns)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(files) == 0 && !watchFiles {
		fmt.Fprintln(out, "No catalog files matched.")
		return nil
	}

	var ledger Checkpoints
	if checkpointPath != "" {
		if err := os.MkdirAll(filepath.Dir(checkpointPath), 0o755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
		l, err := checkpoint.Open(checkpointPath)
		if err != nil {
			return err
		}
		defer func() { _ = l.Close() }()
		if resetLedger {
			if err := l.Reset(); err != nil {
				return err
			}
		}
		ledger = l
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncer := NewSyncer(a.Indexing, ledger, SyncOptions{
		Defaults: catalog.DefaultRowDefaults(),
		Force:    forceSync,
	}, logger)

	if len(files) > 0 {
		bar := newBar(len(files), "[cyan]Syncing[reset]")
		skipped := 0
		total, err := syncer.SyncFiles(ctx, files, func(res FileResult) {
			if res.Skipped {
				skipped++
			}
			_ = bar.Add(1)
		})
		_ = bar.Finish()
		printSummary(out, len(files), skipped, total)
		if err != nil {
			return err
		}
	}

	if !watchFiles {
		return nil
	}
	fmt.Fprintln(out, "Watching for changes, Ctrl+C to stop...")
	return syncer.Watch(ctx, patterns, debounce, func(res FileResult, err error) {
		if err != nil {
			fmt.Fprintf(out, "  %s: %v\n", res.Path, err)
			return
		}
		fmt.Fprintf(out, "  %s: %d upserted, %d errors\n", res.Path, res.Report.Upserted, res.Report.Errors)
	})
}

func newBar(total int, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
}

func printSummary(w io.Writer, files, skipped int, r batch.Report) {
	fmt.Fprintf(w, "\nSync complete:\n")
	fmt.Fprintf(w, "  Files:    %d (%d unchanged)\n", files, skipped)
	fmt.Fprintf(w, "  Items:    %d\n", r.Total)
	fmt.Fprintf(w, "  Upserted: %d\n", r.Upserted)
	fmt.Fprintf(w, "  Errors:   %d\n", r.Errors)

	if len(r.Failures) == 0 {
		return
	}
	fmt.Fprintf(w, "\nFailures:\n")
	for i, f := range r.Failures {
		if i == maxFailures {
			fmt.Fprintf(w, "  ... and %d more\n", len(r.Failures)-maxFailures)
			break
		}
		fmt.Fprintf(w, "  - %s\n", f.Error())
	}
}
