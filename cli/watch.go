package cli

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"kiraye/scheduler"
)

func newWatchCmd() *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run saved searches and log new listings",
		Long: "Re-run the saved searches in config/searches on WATCH_CRON or\n" +
			"WATCH_INTERVAL and log every listing not seen before.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			ctx := cmd.Context()

			a.logger.Info("loaded saved searches", "count", len(a.cfg.Searches))
			for name, s := range a.cfg.Searches {
				a.logger.Info("saved search", "name", name, "query", s.Query, "max_pages", s.MaxPages)
			}

			w := scheduler.New(a.cfg, a.client, a.store, a.logger)
			if once {
				return w.RunAll(ctx)
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := w.Start(ctx); err != nil {
				w.Stop()
				return err
			}
			if a.cfg.Scheduler.Cron == "" && a.cfg.Scheduler.Interval == 0 {
				return nil
			}

			a.logger.Info("watching, press Ctrl+C to stop")
			<-ctx.Done()

			a.logger.Info("shutting down")
			w.Stop()
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Run every saved search once and exit")
	return cmd
}

func newRunsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent saved-search runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := appFrom(cmd).store.RecentRuns(limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs yet.")
				return nil
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("Search", "Started", "Took", "Status", "Found", "New", "Error").
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return headerStyle
					}
					return cellStyle
				})
			for _, r := range runs {
				took := "-"
				if r.FinishedAt != nil {
					took = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
				}
				t.Row(r.Search, r.StartedAt.Local().Format("2006-01-02 15:04:05"), took, string(r.Status),
					fmt.Sprint(r.ListingsFound), fmt.Sprint(r.ListingsNew), r.Error)
			}
			fmt.Fprintln(out, t.Render())
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	return cmd
}
