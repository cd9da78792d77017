package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"connector-service/core/reconcile"
	"connector-service/feature/cleanup"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dryRunCleanup bool
	orphansOnly   bool
	stuckOnly     bool
	yesConfirm    bool
)

// cleanupCmd runs a single reconciliation sweep.
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete orphaned sync jobs and fail stuck ones",
	Long: `Runs one reconciliation sweep against the registry.

The orphan sweep deletes sync jobs whose connector no longer exists together
with their content indices. The stuck sweep marks in-progress jobs that have
not been updated within the threshold as failed.

Examples:
  # Plan only
  cleanup --dry-run

  # Only the stuck sweep, non-interactive
  cleanup --stuck-only --yes`,
	RunE: runCleanup,
}

func init() {
	cleanupCmd.Flags().BoolVar(&dryRunCleanup, "dry-run", false, "Plan both sweeps without changing anything")
	cleanupCmd.Flags().BoolVar(&orphansOnly, "orphans-only", false, "Run only the orphan sweep")
	cleanupCmd.Flags().BoolVar(&stuckOnly, "stuck-only", false, "Run only the stuck sweep")
	cleanupCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm destructive actions (non-interactive)")
	cleanupCmd.MarkFlagsMutuallyExclusive("orphans-only", "stuck-only")

	RootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	rt, err := bootstrap()
	if err != nil {
		return err
	}
	defer rt.close(ctx)
	l := rt.logg

	if !dryRunCleanup && !confirmDestructiveAction() {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	svc := cleanup.NewService(rt.newLoop(), l)
	report, err := svc.Run(ctx, dryRunCleanup, orphansOnly, stuckOnly)
	if report != nil {
		printCleanupReport(l, report)
	}
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	return nil
}

func printCleanupReport(l *zap.Logger, report *reconcile.Report) {
	if o := report.Orphans; o != nil {
		l.Info("Orphan sweep",
			zap.Int("deleted", o.Deleted),
			zap.Int("total", o.Total),
			zap.Int("indices", o.Indices),
			zap.Int("failures", len(o.Failures)),
			zap.Bool("dry_run", o.DryRun),
		)
	}
	if s := report.Stuck; s != nil {
		l.Info("Stuck sweep",
			zap.Int("marked", s.Marked),
			zap.Int("total", s.Total),
			zap.Int("skipped", s.Skipped),
			zap.Bool("dry_run", s.DryRun),
		)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		l.Warn("Failed to render report", zap.Error(err))
		return
	}
	fmt.Println(string(data))
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		return true
	}

	fmt.Print("Type 'yes' to delete orphaned jobs and fail stuck ones: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(response) == "yes"
}
