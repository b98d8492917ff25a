package tui

import "time"

// TaskID identifies a task in the TUI progress display.
type TaskID int

const (
	TaskAuth  TaskID = iota // Authenticating with GitHub
	TaskRepos               // Scanning owned repositories
	TaskPRs                 // Searching merged pull requests and their stars
	TaskSave                // Writing the aggregate document
)

// TaskStatus represents the current status of a task.
type TaskStatus int

const (
	StatusPending TaskStatus = iota
	StatusRunning
	StatusComplete
	StatusError
	StatusSkipped
)

// Event is the interface for all TUI events.
type Event interface {
	isEvent()
}

// TaskEvent represents an update to a task's status.
type TaskEvent struct {
	Task     TaskID
	Status   TaskStatus
	Message  string  // Optional message (e.g., the repository being scanned)
	Count    int     // Count of items (e.g., repositories processed)
	Progress float64 // Progress from 0.0 to 1.0
	Error    error   // Error if status is StatusError
}

func (TaskEvent) isEvent() {}

// RepoEvent reports the outcome of one repository.
type RepoEvent struct {
	Repo    string
	Skipped bool
	Failed  bool
}

func (RepoEvent) isEvent() {}

// RateLimitEvent reports that the run is paused until a budget resets.
type RateLimitEvent struct {
	Resource string
	Limited  bool
	ResetAt  time.Time
}

func (RateLimitEvent) isEvent() {}

// DoneEvent signals that all work is complete.
type DoneEvent struct{}

func (DoneEvent) isEvent() {}
