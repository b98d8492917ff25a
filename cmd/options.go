package cmd

// Options holds the shared command-line options for the ghstats CLI.
type Options struct {
	Verbosity int
	EnvFile   string
	TUI       *bool // nil = auto-detect, true = force TUI, false = disable TUI

	// Overrides for config settings. Only flags the user actually set are
	// applied; see applyFlagOverrides.
	Username     string
	Timezone     string
	OutputPath   string
	Overwrite    bool
	StepLimit    int
	RecentWindow string

	// WithPRs also collects merged pull requests during collect.
	WithPRs bool
	// Workers bounds concurrent star lookups for merged pull requests.
	Workers int

	// Format selects the show output (table, json, markdown).
	Format string
	// ReadmePath overrides readme.path.
	ReadmePath string

	// Profiling options
	CPUProfile string // Write CPU profile to file
	MemProfile string // Write memory profile to file
	Trace      string // Write execution trace to file
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options with defaults and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{
		EnvFile: ".env",
		Format:  "table",
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithVerbosity sets the verbosity level.
func WithVerbosity(v int) Option {
	return func(o *Options) {
		o.Verbosity = v
	}
}

// WithTUI controls TUI mode (nil = auto-detect, true = force, false = disable).
func WithTUI(tui *bool) Option {
	return func(o *Options) {
		o.TUI = tui
	}
}

// WithFormat sets the show output format.
func WithFormat(format string) Option {
	return func(o *Options) {
		o.Format = format
	}
}

// WithOutputPath sets the aggregate document path.
func WithOutputPath(path string) Option {
	return func(o *Options) {
		o.OutputPath = path
	}
}
