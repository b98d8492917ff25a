package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/spiffcs/ghstats/internal/log"
	"github.com/spiffcs/ghstats/internal/readme"
	"github.com/spiffcs/ghstats/internal/store"
)

// NewCmdReadme creates the readme command.
func NewCmdReadme(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "readme",
		Short: "Update the statistics section of a README",
		Long: `Rewrites everything after the first '---' line of the README with a
generated section: recent commits, merged pull requests and code totals.
If the README has no '---' line one is appended first.

When GITHUB_RUN_ID and GITHUB_REPOSITORY are set (as in GitHub Actions)
the generation date links to the workflow run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReadme(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.OutputPath, "output-file", "f", "", "Path of the JSON statistics document")
	cmd.Flags().StringVar(&opts.ReadmePath, "readme", "", "README to update (default: readme.path)")

	return cmd
}

func runReadme(cmd *cobra.Command, opts *Options) error {
	log.Initialize(opts.Verbosity, os.Stderr)

	cfg, settings, err := loadSettings(cmd.Flags(), opts)
	if err != nil {
		return err
	}
	rs := cfg.GetReadmeSettings()
	path := rs.Path
	if opts.ReadmePath != "" {
		path = opts.ReadmePath
	}

	// Reporters never modify or quarantine the statistics document.
	agg, err := store.New(settings.OutputPath).Read()
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("no statistics at %s; run 'ghstats collect' first", settings.OutputPath)
	}
	if err != nil {
		return err
	}

	ro := readme.Options{
		ShowRecentCommits: rs.ShowRecentCommits,
		ShowMergedPRs:     rs.GenerateMergedPRs,
		ShowTotalLines:    rs.ShowTotalLinesOfCode,
		ShowTotalLibs:     rs.ShowTotalLibsUsed,
		ImagePath:         rs.ImagePath,
		ExcludedLibraries: rs.ExcludedLibraries,
		Date:              time.Now().In(settings.Location),
		RunID:             os.Getenv("GITHUB_RUN_ID"),
		Repository:        os.Getenv("GITHUB_REPOSITORY"),
	}
	if err := readme.Update(path, agg, ro); err != nil {
		return err
	}

	log.Info("updated readme", "path", path, "repositories", len(agg.RepoStats))
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", path)
	return nil
}
