// Package constants provides a centralized location for the thresholds and
// magic numbers used throughout ghstats.
package constants

import "time"

// TUI update and display constants
const (
	// TUIUpdateInterval is the minimum time between TUI progress updates.
	TUIUpdateInterval = 50 * time.Millisecond

	// TruncationSuffixWidth is the width of the "..." suffix when truncating strings.
	TruncationSuffixWidth = 3
)

// Rate limiting constants
const (
	// RateLimitFloor is the remaining-call count below which the gateway
	// waits for the budget to reset before starting a batch of calls.
	RateLimitFloor = 5

	// RateLimitLowWatermark is the threshold below which rate limit
	// warnings are logged.
	RateLimitLowWatermark = 100

	// ResetBuffer is added to every wait so the budget has actually reset
	// on GitHub's side before the next call.
	ResetBuffer = 1 * time.Second

	// SecondaryLimitWait is used when a secondary rate limit response
	// carries no Retry-After value.
	SecondaryLimitWait = 60 * time.Second
)

// Collection constants
const (
	// DefaultRecentWindow is the trailing window for detailed recent commits.
	DefaultRecentWindow = 90 * 24 * time.Hour

	// ImportStreakLimit is the number of consecutive non-import lines after
	// which the construct counter stops looking for imports.
	ImportStreakLimit = 10

	// BinarySniffBytes is the prefix window sampled by the binary heuristic.
	BinarySniffBytes = 8000

	// BinaryControlRatio is the control-character density above which a
	// blob is treated as binary.
	BinaryControlRatio = 0.30

	// DefaultMaxFileBytes is the default blob size ceiling.
	DefaultMaxFileBytes = 1 << 20

	// PerPage is the page size requested from list endpoints.
	PerPage = 100
)

// Reporting constants
const (
	// RecentCommitsShown is the number of recent commits spliced into the README.
	RecentCommitsShown = 3

	// MergedPRsShown is the number of merged pull requests spliced into the README.
	MergedPRsShown = 3

	// TopLibraries is the number of libraries listed by the summary reporter.
	TopLibraries = 15

	// StarFetchWorkers bounds concurrent star-count lookups.
	StarFetchWorkers = 4
)
