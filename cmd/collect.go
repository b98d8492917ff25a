package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spiffcs/ghstats/config"
	"github.com/spiffcs/ghstats/internal/collect"
	"github.com/spiffcs/ghstats/internal/ghclient"
	"github.com/spiffcs/ghstats/internal/log"
	"github.com/spiffcs/ghstats/internal/model"
	"github.com/spiffcs/ghstats/internal/store"
	"github.com/spiffcs/ghstats/internal/tui"
)

// NewCmdCollect creates the collect command.
func NewCmdCollect(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect repository statistics (same as root ghstats)",
		Long: `Walks every repository you own, scans its commit history and source
files, and merges the results into the output document. Repositories
already in the document are skipped unless --overwrite is set, so an
interrupted run resumes where it stopped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCollect(cmd, opts)
		},
	}

	addCollectFlags(cmd, opts)
	return cmd
}

// addCollectFlags adds the collect-specific flags to a command.
func addCollectFlags(cmd *cobra.Command, opts *Options) {
	addSettingsFlags(cmd, opts)
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "Re-collect repositories already in the output file")
	cmd.Flags().IntVar(&opts.StepLimit, "step-limit", 0, "Stop after this many repositories (debugging)")
	cmd.Flags().StringVar(&opts.Timezone, "timezone", "", "IANA timezone for the commit-time heatmap")
	cmd.Flags().StringVar(&opts.RecentWindow, "recent", "", "Window for detailed recent commits (e.g., 90d, 12w)")
	cmd.Flags().BoolVar(&opts.WithPRs, "with-prs", false, "Also collect merged pull requests")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "Concurrent star lookups for merged pull requests")

	// TUI flag with tri-state: nil = auto, true = force, false = disable
	cmd.Flags().Var(newTUIFlag(opts), "tui", "Enable/disable TUI progress (default: auto-detect)")
	cmd.Flags().Lookup("tui").NoOptDefVal = "true"

	// Profiling flags
	cmd.Flags().StringVar(&opts.CPUProfile, "cpuprofile", "", "Write CPU profile to file")
	cmd.Flags().StringVar(&opts.MemProfile, "memprofile", "", "Write memory profile to file")
	cmd.Flags().StringVar(&opts.Trace, "trace", "", "Write execution trace to file")
}

// addSettingsFlags adds the flags shared by every command that talks to
// GitHub or reads the output document.
func addSettingsFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVarP(&opts.Username, "user", "u", "", "GitHub account to collect (default: the token's user)")
	cmd.Flags().StringVarP(&opts.OutputPath, "output-file", "f", "", "Path of the JSON statistics document")
}

// signalContext cancels on SIGINT or SIGTERM so a run stops at the next
// repository boundary with its checkpoint intact.
func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func runCollect(cmd *cobra.Command, opts *Options) error {
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

	rt.startTUI(tui.CollectTasks(opts.WithPRs))
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

	pipeline := newPipeline(client, st, settings, username)
	pipeline.OnEvent = rt.repoEvent

	rt.sendEvent(tui.TaskRepos, tui.StatusRunning)
	summary, err := pipeline.Run(ctx, agg)
	if err != nil {
		rt.sendEvent(tui.TaskRepos, tui.StatusError, tui.WithError(err))
		return fmt.Errorf("collection stopped after %d repositories: %w", summary.Processed, err)
	}
	rt.sendEvent(tui.TaskRepos, tui.StatusComplete, tui.WithMessage(describeSummary(summary)))

	changed := summary.Changed()
	if opts.WithPRs {
		if err := collectPRs(ctx, rt, client, username, agg, opts.Workers); err != nil {
			return err
		}
		changed = true
	}

	if !changed {
		rt.sendEvent(tui.TaskSave, tui.StatusSkipped, tui.WithMessage("nothing new"))
		rt.close()
		log.Info("no repositories needed collecting", "skipped", summary.Skipped)
		fmt.Fprintf(cmd.OutOrStdout(), "Nothing new to collect (%d repositories already recorded).\n", summary.Skipped)
		return nil
	}

	// The pipeline checkpoints after every repository; PR results still
	// need writing.
	if opts.WithPRs {
		if err := saveAggregate(rt, st, agg); err != nil {
			return err
		}
	} else {
		rt.sendEvent(tui.TaskSave, tui.StatusComplete, tui.WithMessage(st.Path()))
	}

	rt.close()
	fmt.Fprintf(cmd.OutOrStdout(), "%s. Statistics written to %s\n", describeSummary(summary), st.Path())
	return nil
}

// newPipeline wires the enumerator, scanners and store for one account.
func newPipeline(client *ghclient.Client, st *store.Store, s config.Settings, username string) *collect.Pipeline {
	repos := collect.NewEnumerator(client, collect.EnumeratorOptions{
		Owner:              username,
		IncludeProfileRepo: s.IncludeProfileRepo,
		Ignored:            s.IgnoredRepos,
		StepLimit:          stepLimit(s),
	})
	commits := collect.NewCommitScanner(client, s.Location, s.RecentWindow, s.CollectCommitMessages)
	tree := collect.NewTreeWalker(client, collect.TreeOptions{
		ExcludedDirs:     s.ExcludedDirs,
		SourceExtensions: s.SourceExtensions,
		MaxFileBytes:     s.MaxFileBytes,
	})
	return collect.NewPipeline(repos, commits, tree, st, s.Overwrite)
}

func saveAggregate(rt *collectRuntime, st *store.Store, agg *model.Aggregate) error {
	rt.sendEvent(tui.TaskSave, tui.StatusRunning)
	if err := st.Save(agg); err != nil {
		rt.sendEvent(tui.TaskSave, tui.StatusError, tui.WithError(err))
		return err
	}
	rt.sendEvent(tui.TaskSave, tui.StatusComplete, tui.WithMessage(st.Path()))
	return nil
}

func describeSummary(s collect.Summary) string {
	msg := fmt.Sprintf("%d scanned, %d skipped", s.Processed, s.Skipped)
	if s.Failed > 0 {
		msg += fmt.Sprintf(", %d failed", s.Failed)
	}
	return msg
}
