package cmd

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := NewOptions()

	rootCmd := &cobra.Command{
		Use:   "ghstats",
		Short: "Personal GitHub statistics collector",
		Long: `Collects statistics about the repositories you own: source lines,
imported libraries, language constructs, file types and a commit-time
heatmap. Results are kept in a JSON document that reporters read.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadDotEnv(opts.EnvFile)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCollect(cmd, opts)
		},
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")
	rootCmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "Load environment variables from this file if it exists")

	// `ghstats` and `ghstats collect` work identically
	addCollectFlags(rootCmd, opts)

	rootCmd.AddCommand(NewCmdCollect(opts))
	rootCmd.AddCommand(NewCmdPRs(opts))
	rootCmd.AddCommand(NewCmdReadme(opts))
	rootCmd.AddCommand(NewCmdShow(opts))
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdRateLimit(opts))
	rootCmd.AddCommand(NewCmdVersion())

	return rootCmd
}

// loadDotEnv loads KEY=value pairs from path without overriding variables
// that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
