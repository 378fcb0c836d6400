// ABOUTME: The status command: Notion row tally plus recent run history
// ABOUTME: History is optional; a missing database just shows no runs
package cli

import (
	"github.com/spf13/cobra"

	"github.com/harperreed/contactsync/db"
	"github.com/harperreed/contactsync/logging"
	"github.com/harperreed/contactsync/sync"
)

func newStatusCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show Notion database totals and recent sync runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := appFrom(cmd).cfg
			store, err := newNotionStore(cfg)
			if err != nil {
				return err
			}
			sum, err := store.Summarize(ctx)
			if err != nil {
				return err
			}

			var (
				states []*db.SyncState
				runs   []db.Run
			)
			history, err := openHistory(cfg)
			if err != nil {
				logging.FromContext(ctx).Warn().Err(err).Msg("run history unavailable")
			} else {
				defer func() { _ = history.Close() }()
				for _, dir := range []sync.Direction{sync.Forward, sync.Reverse} {
					st, err := db.GetSyncState(history, dir.String())
					if err != nil {
						return err
					}
					if st != nil {
						states = append(states, st)
					}
				}
				if runs, err = db.RecentRuns(history, limit); err != nil {
					return err
				}
			}

			renderStatus(cmd.OutOrStdout(), sum, states, runs)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "runs", 5, "number of recent runs to show")
	return cmd
}
