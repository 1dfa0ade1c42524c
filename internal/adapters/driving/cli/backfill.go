package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/app"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/services"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Copy every row of the table into the index",
	Long: `Scans the whole DynamoDB table and indexes each row as if it had just
been inserted. Rows are grouped into batches of --flush-threshold and up to
--workers batches are submitted at once.

Interrupting a backfill waits for batches already in flight.`,
	Args: cobra.NoArgs,
	RunE: runBackfill,
}

func init() {
	addTargetFlags(backfillCmd)
	backfillCmd.Flags().String("table", "", "source table (DDB_TABLE)")
	backfillCmd.Flags().Int("page-size", 0, "rows per scan page (SCAN_PAGE_SIZE)")
	backfillCmd.Flags().Int("workers", 0, "concurrent batch submissions (BACKFILL_WORKERS)")
	backfillCmd.Flags().Int("flush-threshold", 0, "rows per batch (FLUSH_THRESHOLD)")
	rootCmd.AddCommand(backfillCmd)
}

// progressInterval is how often the progress line is redrawn.
var progressInterval = 500 * time.Millisecond

func runBackfill(cmd *cobra.Command, _ []string) error {
	if err := cfg.ValidateBackfill(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scanner, err := newScanner(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to table: %w", err)
	}
	if err := app.UseTableKeyOrder(ctx, cfg, scanner); err != nil {
		return err
	}

	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	b := services.NewBackfiller(scanner, rt.processor, app.BackfillOptions(cfg))
	cmd.Printf("Backfilling %s into %s...\n", cfg.Table, cfg.Index)

	done := make(chan struct{})
	stopped := make(chan struct{})
	if isTerminal(cmd.OutOrStderr()) {
		go func() {
			defer close(stopped)
			showProgress(cmd, b, done)
		}()
	} else {
		close(stopped)
	}
	report, err := b.Run(ctx)
	close(done)
	<-stopped

	cmd.Printf("Scanned %d rows in %d pages\n", report.Scanned, report.Pages)
	cmd.Printf("Submitted %d operations in %d batches (%d failed)\n",
		report.Submitted, report.Batches, report.FailedBatches)
	if err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}
	if report.FailedBatches > 0 {
		return fmt.Errorf("backfill %s finished with %d failed batches", report.RunID, report.FailedBatches)
	}
	return nil
}

// showProgress redraws a single progress line until done is closed.
func showProgress(cmd *cobra.Command, b *services.Backfiller, done <-chan struct{}) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			cmd.Print("\r\033[K")
			return
		case <-ticker.C:
			p := b.Progress()
			cmd.Printf("\r\033[K  %d rows scanned, %d batches, %d submitted", p.Scanned, p.Batches, p.Submitted)
		}
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
