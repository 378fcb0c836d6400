// ABOUTME: The sync command: reconcile Google Contacts with the Notion database
// ABOUTME: Records each run and per-direction state in the local history database
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harperreed/contactsync/db"
	"github.com/harperreed/contactsync/logging"
	"github.com/harperreed/contactsync/sync"
)

type syncFlags struct {
	dryRun     bool
	googleOnly bool
	notionOnly bool
	workers    int
	noHistory  bool
}

func newSyncCommand() *cobra.Command {
	var flags syncFlags
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync Google Contacts into Notion and retract hidden birthdays",
		Long: `Copies every Google contact into the Notion database, matching existing rows
by Google ID, email, phone, then name. Rows marked "Hide Birthday" have their
birthday removed from Google.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, flags)
		},
	}
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "show what would change without writing")
	cmd.Flags().BoolVar(&flags.googleOnly, "google-only", false, "only sync Google -> Notion")
	cmd.Flags().BoolVar(&flags.notionOnly, "notion-only", false, "only sync Notion -> Google")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "concurrent writes (default from config)")
	cmd.Flags().BoolVar(&flags.noHistory, "no-history", false, "do not record this run in the history database")
	cmd.MarkFlagsMutuallyExclusive("google-only", "notion-only")
	return cmd
}

func runSync(cmd *cobra.Command, flags syncFlags) error {
	cfg := appFrom(cmd).cfg
	mode, err := sync.ParseMode(flags.googleOnly, flags.notionOnly)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logging.FromContext(ctx)

	store, err := newNotionStore(cfg)
	if err != nil {
		return err
	}
	reader, writer, err := newGoogle(ctx, cfg)
	if err != nil {
		return err
	}

	workers := cfg.Workers
	if flags.workers > 0 {
		workers = flags.workers
	}
	syncer := sync.NewSyncer(reader, writer, store, store, sync.Options{
		Mode:    mode,
		DryRun:  flags.dryRun,
		Workers: workers,
	})

	out := cmd.OutOrStdout()
	if flags.dryRun {
		started := time.Now()
		plan, err := syncer.Plan(ctx)
		if err != nil {
			return err
		}
		stats := sync.PlanStats(plan)
		stats.StartedAt = started
		stats.FinishedAt = time.Now()
		fmt.Fprintln(out, renderPlan(plan))
		fmt.Fprint(out, renderSummary(stats))
		return nil
	}

	var history *sql.DB
	if !flags.noHistory {
		history, err = openHistory(cfg)
		if err != nil {
			// A broken history database never blocks a sync.
			log.Warn().Err(err).Msg("run history disabled")
		} else {
			defer func() { _ = history.Close() }()
			markDirections(history, mode, "syncing", nil)
		}
	}

	stats, runErr := syncer.Run(ctx)
	return reportRun(ctx, out, history, mode, stats, runErr)
}

// reportRun records and prints the result of a run and turns it into the
// command's error. history may be nil.
func reportRun(ctx context.Context, out io.Writer, history *sql.DB, mode sync.Mode, stats *sync.Stats, runErr error) error {
	if stats == nil {
		stats = sync.NewStats(mode, false)
		stats.StartedAt = time.Now()
		stats.FinishedAt = stats.StartedAt
	}
	if history != nil {
		recordHistory(ctx, history, mode, stats, runErr)
	}

	fmt.Fprint(out, renderSummary(stats))
	if runErr != nil {
		return fmt.Errorf("sync failed: %w", runErr)
	}
	if len(stats.Errors) > 0 {
		return fmt.Errorf("sync finished with %d record errors", len(stats.Errors))
	}
	return nil
}

func directions(mode sync.Mode) []sync.Direction {
	var dirs []sync.Direction
	if mode != sync.ModeNotionOnly {
		dirs = append(dirs, sync.Forward)
	}
	if mode != sync.ModeGoogleOnly {
		dirs = append(dirs, sync.Reverse)
	}
	return dirs
}

func markDirections(history *sql.DB, mode sync.Mode, status string, msg *string) {
	for _, dir := range directions(mode) {
		if err := db.UpdateSyncStatus(history, dir.String(), status, msg); err != nil {
			logging.Default().Warn().Err(err).Str("direction", dir.String()).Msg("failed to update sync state")
		}
	}
}

func recordHistory(ctx context.Context, history *sql.DB, mode sync.Mode, stats *sync.Stats, runErr error) {
	log := logging.FromContext(ctx)

	run, runErrors := db.NewRun(stats, runErr)
	if err := db.RecordRun(history, run, runErrors); err != nil {
		log.Warn().Err(err).Msg("failed to record run")
	}

	if runErr != nil {
		msg := runErr.Error()
		markDirections(history, mode, "error", &msg)
		return
	}
	for _, dir := range directions(mode) {
		if err := db.MarkSynced(history, dir.String(), run.ID, stats.FinishedAt); err != nil {
			log.Warn().Err(err).Str("direction", dir.String()).Msg("failed to mark direction synced")
		}
	}
}
