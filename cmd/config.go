package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spiffcs/ghstats/config"
)

// NewCmdConfig creates the config command with subcommands.
func NewCmdConfig() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or manage configuration",
		Long: `Show or manage configuration. Without a subcommand the merged
configuration is printed.

Settings are read from the global file, then the local .ghstats.yaml,
then command line flags; later sources win.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd.OutOrStdout(), outputFormat)
		},
	}
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "yaml", "Output format (yaml, json)")

	cmd.AddCommand(
		newCmdConfigInit(),
		newCmdConfigPath(),
		newCmdConfigDefaults(),
		newCmdConfigShow(),
		newCmdConfigSet(),
	)
	return cmd
}

func newCmdConfigInit() *cobra.Command {
	var global, local bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter config file",
		Long: `Create a starter config file. --global writes the per-user file,
--local writes ./.ghstats.yaml. With neither flag you are asked which.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if global && local {
				return fmt.Errorf("cannot specify both --global and --local")
			}
			paths := config.GetConfigPaths()
			var target string
			switch {
			case global:
				target = paths.GlobalPath
			case local:
				target = paths.LocalPath
			default:
				var err error
				if target, err = promptConfigPath(cmd.InOrStdin(), cmd.OutOrStdout(), paths); err != nil {
					return err
				}
			}
			return runConfigInit(cmd.OutOrStdout(), target)
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "Create the global config file")
	cmd.Flags().BoolVar(&local, "local", false, "Create ./.ghstats.yaml")
	return cmd
}

func newCmdConfigPath() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file locations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			paths := config.GetConfigPaths()
			fmt.Fprintf(w, "Global: %s (%s)\n", paths.GlobalPath, existence(paths.GlobalExists))
			fmt.Fprintf(w, "Local:  %s (%s)\n", paths.LocalPath, existence(paths.LocalExists))
			return nil
		},
	}
}

func newCmdConfigDefaults() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Show every setting with its default value",
		Long: `Show a complete configuration with every default filled in. Redirect
it to start a config file from the full set of options:

  ghstats config defaults > .ghstats.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeConfig(cmd.OutOrStdout(), config.DefaultConfig(), outputFormat)
		},
	}
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "yaml", "Output format (yaml, json)")
	return cmd
}

func newCmdConfigShow() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the merged configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd.OutOrStdout(), outputFormat)
		},
	}
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "yaml", "Output format (yaml, json)")
	return cmd
}

func newCmdConfigSet() *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a value in ./.ghstats.yaml, or in the global file with --global.

Keys:
  username       account to collect
  timezone       IANA timezone for the commit heatmap
  output_path    path of the JSON statistics document
  recent_window  window for detailed recent commits (e.g. 90d)
  readme_path    README updated by 'ghstats readme'

The API token cannot be stored; set GITHUB_TOKEN instead.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.LocalConfigPath()
			if global {
				path = config.ConfigPath()
			}
			return runConfigSet(cmd, path, args[0], args[1])
		},
	}
	cmd.Flags().BoolVar(&global, "global", false, "Write to the global config file")
	return cmd
}

func promptConfigPath(in io.Reader, out io.Writer, paths config.ConfigPathInfo) (string, error) {
	fmt.Fprintf(out, "  [1] global %s\n", paths.GlobalPath)
	fmt.Fprintf(out, "  [2] local  %s\n", paths.LocalPath)
	fmt.Fprint(out, "Create which config file? [1/2]: ")

	choice, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && choice == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	switch strings.TrimSpace(choice) {
	case "1":
		return paths.GlobalPath, nil
	case "2":
		return paths.LocalPath, nil
	default:
		return "", fmt.Errorf("invalid choice %q (must be 1 or 2)", strings.TrimSpace(choice))
	}
}

func runConfigInit(w io.Writer, path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := config.SaveTo(path, config.MinimalConfig()); err != nil {
		return err
	}
	fmt.Fprintf(w, "Created %s\n", path)
	fmt.Fprintln(w, "Run 'ghstats config defaults' to see every option.")
	return nil
}

func runConfigShow(w io.Writer, format string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	return writeConfig(w, cfg, format)
}

func writeConfig(w io.Writer, cfg *config.Config, format string) error {
	switch format {
	case "yaml":
		s, err := cfg.ToYAML()
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, s)
		return err
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config to JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	default:
		return fmt.Errorf("invalid format: %s (must be yaml or json)", format)
	}
}

func runConfigSet(cmd *cobra.Command, path, key, value string) error {
	switch key {
	case "token", "github_token":
		return fmt.Errorf("tokens are never stored in config files; set the GITHUB_TOKEN environment variable instead")
	}

	if err := config.SetValue(path, key, value); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s\n", key, value, path)
	return nil
}

func existence(ok bool) string {
	if ok {
		return "exists"
	}
	return "not found"
}
