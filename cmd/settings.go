package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/spiffcs/ghstats/config"
	"github.com/spiffcs/ghstats/internal/duration"
)

// loadSettings loads the merged config files and applies the flags the user
// set on the command line.
func loadSettings(flags *pflag.FlagSet, opts *Options) (*config.Config, config.Settings, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, config.Settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	s, err := cfg.GetSettings()
	if err != nil {
		return nil, config.Settings{}, err
	}
	if err := applyFlagOverrides(flags, opts, &s); err != nil {
		return nil, config.Settings{}, err
	}
	return cfg, s, nil
}

// applyFlagOverrides copies changed flags onto s. Flags that were not set
// leave the config value alone.
func applyFlagOverrides(flags *pflag.FlagSet, opts *Options, s *config.Settings) error {
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	if changed("user") {
		s.Username = opts.Username
	}
	if changed("output-file") {
		s.OutputPath = opts.OutputPath
	}
	if changed("overwrite") {
		s.Overwrite = opts.Overwrite
	}
	if changed("step-limit") {
		if opts.StepLimit < 0 {
			return fmt.Errorf("--step-limit must not be negative, got %d", opts.StepLimit)
		}
		s.Debug = opts.StepLimit > 0
		s.DebugStepLimit = opts.StepLimit
	}
	if changed("timezone") {
		loc, err := time.LoadLocation(opts.Timezone)
		if err != nil {
			return fmt.Errorf("invalid --timezone %q: %w", opts.Timezone, err)
		}
		s.Location = loc
	}
	if changed("recent") {
		d, err := duration.Parse(opts.RecentWindow)
		if err != nil {
			return fmt.Errorf("invalid --recent: %w", err)
		}
		s.RecentWindow = d
	}
	return nil
}

// stepLimit is the enumeration cap in effect; it only applies in debug mode.
func stepLimit(s config.Settings) int {
	if !s.Debug {
		return 0
	}
	return s.DebugStepLimit
}
