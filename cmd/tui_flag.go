package cmd

import (
	"fmt"
	"strconv"

	"github.com/spiffcs/ghstats/internal/tui"
)

// tuiFlag is a tri-state pflag.Value: "auto" leaves Options.TUI nil so the
// terminal is probed, anything strconv.ParseBool accepts forces it.
type tuiFlag struct {
	opts *Options
}

func newTUIFlag(opts *Options) *tuiFlag {
	return &tuiFlag{opts: opts}
}

func (f *tuiFlag) String() string {
	if f.opts.TUI == nil {
		return "auto"
	}
	return strconv.FormatBool(*f.opts.TUI)
}

func (f *tuiFlag) Set(s string) error {
	switch s {
	case "auto", "":
		f.opts.TUI = nil
		return nil
	case "yes":
		s = "true"
	case "no":
		s = "false"
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid value %q: use true, false, or auto", s)
	}
	f.opts.TUI = &v
	return nil
}

func (f *tuiFlag) Type() string {
	return "auto|bool"
}

// shouldUseTUI determines whether to use TUI based on options.
func shouldUseTUI(opts *Options) bool {
	// Verbose logging goes to stderr, which the TUI would overwrite
	if opts.Verbosity > 0 {
		return false
	}
	if opts.TUI != nil {
		return *opts.TUI
	}
	return tui.ShouldUseTUI()
}
