package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spiffcs/ghstats/config"
	"github.com/spiffcs/ghstats/internal/collect"
	"github.com/spiffcs/ghstats/internal/ghclient"
	"github.com/spiffcs/ghstats/internal/log"
	"github.com/spiffcs/ghstats/internal/tui"
)

// collectRuntime bundles the TUI state threaded through a collection command.
type collectRuntime struct {
	useTUI  bool
	events  chan tui.Event
	tuiDone chan error
	scanned int
}

// setupRuntime starts profiling, initializes logging, and returns a cleanup
// function that stops the profiler.
func setupRuntime(opts *Options) (*collectRuntime, func(), error) {
	profiler := NewProfiler(opts.CPUProfile, opts.MemProfile, opts.Trace)
	if err := profiler.Start(); err != nil {
		return nil, nil, err
	}

	useTUI := shouldUseTUI(opts)

	// Suppress logs during TUI to avoid interleaving with the display
	if useTUI {
		log.Initialize(opts.Verbosity, io.Discard)
	} else {
		log.Initialize(opts.Verbosity, os.Stderr)
	}

	return &collectRuntime{useTUI: useTUI}, profiler.Stop, nil
}

// startTUI starts the TUI goroutine if TUI mode is enabled.
func (rt *collectRuntime) startTUI(tasks []tui.Task) {
	if !rt.useTUI {
		return
	}
	rt.events = make(chan tui.Event, 100)
	rt.tuiDone = make(chan error, 1)
	go func() {
		rt.tuiDone <- tui.Run(rt.events, tui.WithTasks(tasks))
	}()
}

// close closes the event channel and waits for the TUI to finish.
func (rt *collectRuntime) close() {
	if rt.events == nil {
		log.ProgressClear()
		return
	}
	close(rt.events)
	if rt.tuiDone != nil {
		<-rt.tuiDone
	}
	rt.events = nil
}

// sendEvent sends a task event to the TUI channel if it exists.
func (rt *collectRuntime) sendEvent(task tui.TaskID, status tui.TaskStatus, opts ...tui.TaskEventOption) {
	if rt.events == nil {
		return
	}
	tui.SendTaskEvent(rt.events, task, status, opts...)
}

// repoEvent forwards pipeline progress to the TUI, or to the progress line
// when the TUI is off.
func (rt *collectRuntime) repoEvent(ev collect.Event) {
	if rt.events == nil {
		switch ev.Kind {
		case collect.EventStarted:
			log.Progress("Scanning %s (%d done)", ev.Repo, rt.scanned)
		case collect.EventDone, collect.EventFailed:
			rt.scanned++
		}
		return
	}

	switch ev.Kind {
	case collect.EventStarted:
		tui.SendEvent(rt.events, tui.TaskEvent{Task: tui.TaskRepos, Status: tui.StatusRunning, Message: ev.Repo})
	case collect.EventSkipped:
		tui.SendEvent(rt.events, tui.RepoEvent{Repo: ev.Repo, Skipped: true})
	case collect.EventDone:
		tui.SendEvent(rt.events, tui.RepoEvent{Repo: ev.Repo})
	case collect.EventFailed:
		tui.SendEvent(rt.events, tui.RepoEvent{Repo: ev.Repo, Failed: true})
	}
}

// rateLimitWait reports a budget wait. It is installed as the gateway's OnWait.
func (rt *collectRuntime) rateLimitWait(resource string, until time.Time) {
	if rt.events != nil {
		tui.SendEvent(rt.events, tui.RateLimitEvent{Resource: resource, Limited: true, ResetAt: until})
		return
	}
	log.Warn("rate limit reached, waiting for reset", "resource", resource, "until", until.Format(time.RFC3339))
}

// newClient builds an authenticated API client and hooks rate limit waits
// into the runtime.
func (rt *collectRuntime) newClient(ctx context.Context, cfg *config.Config) (*ghclient.Client, error) {
	client, err := ghclient.NewClient(ctx, cfg.GetGitHubToken())
	if err != nil {
		return nil, err
	}
	client.Gateway().OnWait = rt.rateLimitWait
	return client, nil
}

// resolveUser returns the configured username, or the token's user when
// none is configured.
func (rt *collectRuntime) resolveUser(ctx context.Context, client *ghclient.Client, username string) (string, error) {
	rt.sendEvent(tui.TaskAuth, tui.StatusRunning)
	current, err := client.AuthenticatedUser(ctx)
	if err != nil {
		rt.sendEvent(tui.TaskAuth, tui.StatusError, tui.WithError(err))
		return "", fmt.Errorf("failed to get authenticated user: %w", err)
	}
	rt.sendEvent(tui.TaskAuth, tui.StatusComplete, tui.WithMessage(current))

	if username == "" {
		return current, nil
	}
	return username, nil
}
