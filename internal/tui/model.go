package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/spiffcs/ghstats/internal/format"
)

// Model is the Bubble Tea model for the TUI progress display.
type Model struct {
	tasks          []Task
	spinner        spinner.Model
	progress       progress.Model
	events         <-chan Event
	done           bool
	username       string
	windowWidth    int
	processed      int
	skipped        int
	failed         int
	lastRepo       string
	rateLimited    bool
	rateResource   string
	rateLimitReset time.Time
	now            func() time.Time
}

// doneMsg signals that all events have been processed.
type doneMsg struct{}

// ModelOption is a functional option for configuring a Model.
type ModelOption func(*Model)

// WithTasks sets the tasks to display in the TUI.
func WithTasks(tasks []Task) ModelOption {
	return func(m *Model) {
		m.tasks = tasks
	}
}

// CollectTasks returns the task list for the collect command.
func CollectTasks(withPRs bool) []Task {
	tasks := []Task{
		NewTask(TaskAuth, "Authenticating"),
		NewTask(TaskRepos, "Scanning repositories"),
	}
	if withPRs {
		tasks = append(tasks, NewTask(TaskPRs, "Collecting merged pull requests"))
	}
	return append(tasks, NewTask(TaskSave, "Writing statistics"))
}

// PRTasks returns the task list for the prs command.
func PRTasks() []Task {
	return []Task{
		NewTask(TaskAuth, "Authenticating"),
		NewTask(TaskPRs, "Collecting merged pull requests"),
		NewTask(TaskSave, "Writing statistics"),
	}
}

// NewModel creates a new TUI model.
func NewModel(events <-chan Event, opts ...ModelOption) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	p := progress.New(
		progress.WithScaledGradient("#60a5fa", "#1e3a8a"),
		progress.WithWidth(25),
		progress.WithoutPercentage(),
	)

	m := Model{
		tasks:    CollectTasks(false),
		spinner:  s,
		progress: p,
		events:   events,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(&m)
	}

	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		waitForEvent(m.events),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case TaskEvent:
		var cmd tea.Cmd
		m, cmd = m.updateTask(msg)
		return m, tea.Batch(cmd, waitForEvent(m.events))

	case RepoEvent:
		m = m.recordRepo(msg)
		return m, waitForEvent(m.events)

	case RateLimitEvent:
		m.rateLimited = msg.Limited
		m.rateResource = msg.Resource
		m.rateLimitReset = msg.ResetAt
		return m, waitForEvent(m.events)

	case DoneEvent, doneMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

// updateTask updates a task based on a TaskEvent.
func (m Model) updateTask(e TaskEvent) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for i := range m.tasks {
		if m.tasks[i].ID != e.Task {
			continue
		}
		m.tasks[i].Status = e.Status
		if e.Message != "" {
			m.tasks[i].Message = e.Message
		}
		if e.Count > 0 {
			m.tasks[i].Count = e.Count
		}
		if e.Progress > 0 {
			m.tasks[i].Progress = e.Progress
			cmd = m.progress.SetPercent(e.Progress)
		}
		if e.Error != nil {
			m.tasks[i].Error = e.Error
		}
		if e.Task == TaskAuth && e.Status == StatusComplete && e.Message != "" {
			m.username = e.Message
		}
		break
	}
	// Any progress means a wait has ended.
	if e.Status != StatusPending {
		m.rateLimited = false
	}
	return m, cmd
}

// recordRepo tallies a repository outcome and mirrors it on the repos task.
func (m Model) recordRepo(e RepoEvent) Model {
	switch {
	case e.Skipped:
		m.skipped++
	case e.Failed:
		m.failed++
	default:
		m.processed++
	}
	m.lastRepo = e.Repo
	m.rateLimited = false

	for i := range m.tasks {
		if m.tasks[i].ID == TaskRepos {
			m.tasks[i].Status = StatusRunning
			m.tasks[i].Message = m.repoSummary()
		}
	}
	return m
}

func (m Model) repoSummary() string {
	parts := []string{fmt.Sprintf("%d scanned", m.processed)}
	if m.skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", m.skipped))
	}
	if m.failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", m.failed))
	}
	return strings.Join(parts, ", ")
}

// View renders the model.
func (m Model) View() string {
	var b strings.Builder

	for _, task := range m.tasks {
		if task.ID == TaskAuth {
			b.WriteString(m.authLine(task) + "\n")
			continue
		}
		b.WriteString(task.View(m.spinner.View(), m.progress) + "\n")
	}

	if !m.done && m.lastRepo != "" {
		repo, _ := format.TruncateToWidth(m.lastRepo, max(m.windowWidth-12, 20))
		b.WriteString(messageStyle.Render("      last: "+repo) + "\n")
	}

	if m.rateLimited {
		wait := m.rateLimitReset.Sub(m.now())
		if wait > 0 {
			b.WriteString(warnStyle.Render(fmt.Sprintf("\n  Rate limited on %s API (resumes in %s)\n", m.rateResource, format.Compact(wait))))
		}
	}

	if !m.done {
		b.WriteString(footerStyle.Render("\n  Press Ctrl+C to cancel"))
	}
	b.WriteString("\n")

	return b.String()
}

// authLine shows who the token belongs to once authentication succeeds.
func (m Model) authLine(task Task) string {
	switch {
	case task.Status == StatusComplete && m.username != "":
		return fmt.Sprintf("  %s Authenticated as %s", StatusIcon(StatusComplete, ""), userStyle.Render(m.username))
	case task.Status == StatusError && task.Error != nil:
		return fmt.Sprintf("  %s Authenticating %s", StatusIcon(StatusError, ""), errorStyle.Render(task.Error.Error()))
	case task.Status == StatusPending:
		return task.View(m.spinner.View(), m.progress)
	default:
		return fmt.Sprintf("  %s Authenticating...", StatusIcon(StatusRunning, m.spinner.View()))
	}
}

// waitForEvent creates a command that waits for the next event.
func waitForEvent(events <-chan Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return doneMsg{}
		}
		return event
	}
}
