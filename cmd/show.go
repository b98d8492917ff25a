package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/spiffcs/ghstats/internal/log"
	"github.com/spiffcs/ghstats/internal/model"
	"github.com/spiffcs/ghstats/internal/output"
	"github.com/spiffcs/ghstats/internal/store"
)

// NewCmdShow creates the show command.
func NewCmdShow(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a summary of the collected statistics",
		Long: `Reads the statistics document and prints totals, a per-repository
table, the most used libraries, file types, construct counts and the
commit-time heatmap. No API calls are made.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShow(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "output", "o", "table", "Output format (table, json, markdown)")
	cmd.Flags().StringVarP(&opts.OutputPath, "output-file", "f", "", "Path of the JSON statistics document")

	return cmd
}

func runShow(cmd *cobra.Command, opts *Options) error {
	log.Initialize(opts.Verbosity, os.Stderr)

	format, err := output.ParseFormat(opts.Format)
	if err != nil {
		return err
	}

	cfg, settings, err := loadSettings(cmd.Flags(), opts)
	if err != nil {
		return err
	}

	agg, err := store.New(settings.OutputPath).Read()
	switch {
	case errors.Is(err, os.ErrNotExist):
		agg = model.NewAggregate()
	case err != nil:
		return err
	}

	formatter := output.NewFormatter(format, output.Options{
		ExcludedFileTypes: cfg.GetChartSettings().ExcludedFileTypes,
		ExcludedLibraries: cfg.GetReadmeSettings().ExcludedLibraries,
	})
	return formatter.Format(agg, cmd.OutOrStdout())
}
