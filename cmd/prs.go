package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spiffcs/ghstats/internal/ghclient"
	"github.com/spiffcs/ghstats/internal/model"
	"github.com/spiffcs/ghstats/internal/pulls"
	"github.com/spiffcs/ghstats/internal/store"
	"github.com/spiffcs/ghstats/internal/tui"
)

// NewCmdPRs creates the prs command.
func NewCmdPRs(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prs",
		Short: "Collect merged pull requests made to other people's repositories",
		Long: `Searches the pull requests you authored that were merged into
repositories owned by someone else, records each repository's star count,
and stores the list in the output document. Repository statistics already
in the document are left untouched.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPRs(cmd, opts)
		},
	}

	addSettingsFlags(cmd, opts)
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "Concurrent star lookups")
	cmd.Flags().Var(newTUIFlag(opts), "tui", "Enable/disable TUI progress (default: auto-detect)")
	cmd.Flags().Lookup("tui").NoOptDefVal = "true"

	return cmd
}

func runPRs(cmd *cobra.Command, opts *Options) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	rt, cleanup, err := setupRuntime(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg, settings, err := loadSettings(cmd.Flags(), opts)
	if err != nil {
		return err
	}

	client, err := rt.newClient(ctx, cfg)
	if err != nil {
		return err
	}

	rt.startTUI(tui.PRTasks())
	defer rt.close()

	username, err := rt.resolveUser(ctx, client, settings.Username)
	if err != nil {
		return err
	}

	st := store.New(settings.OutputPath)
	agg, err := st.Load()
	if err != nil {
		return err
	}

	if err := collectPRs(ctx, rt, client, username, agg, opts.Workers); err != nil {
		return err
	}
	if err := saveAggregate(rt, st, agg); err != nil {
		return err
	}

	rt.close()
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded %d merged pull requests in %s\n", len(agg.MergedPRs), st.Path())
	return nil
}

// collectPRs replaces the aggregate's merged pull requests with a fresh search.
func collectPRs(ctx context.Context, rt *collectRuntime, client *ghclient.Client, username string, agg *model.Aggregate, workers int) error {
	rt.sendEvent(tui.TaskPRs, tui.StatusRunning)

	collector := pulls.NewCollector(client,
		pulls.WithWorkers(workers),
		pulls.WithProgress(func(completed, total int) {
			rt.sendEvent(tui.TaskPRs, tui.StatusRunning,
				tui.WithProgress(float64(completed)/float64(total)),
				tui.WithMessage(fmt.Sprintf("%d/%d repositories", completed, total)))
		}),
	)

	prs, err := collector.Collect(ctx, username)
	if err != nil {
		rt.sendEvent(tui.TaskPRs, tui.StatusError, tui.WithError(err))
		return fmt.Errorf("failed to collect merged pull requests: %w", err)
	}

	agg.MergedPRs = prs
	rt.sendEvent(tui.TaskPRs, tui.StatusComplete, tui.WithCount(len(prs)))
	return nil
}
