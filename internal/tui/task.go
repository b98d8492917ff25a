package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
)

// Task is one line of the progress display.
type Task struct {
	ID       TaskID
	Name     string
	Status   TaskStatus
	Message  string
	Count    int
	Progress float64
	Error    error
}

// NewTask creates a pending task.
func NewTask(id TaskID, name string) Task {
	return Task{
		ID:     id,
		Name:   name,
		Status: StatusPending,
	}
}

// View renders the task as a string.
func (t Task) View(spinnerFrame string, prog progress.Model) string {
	name := taskNameStyle.Render(t.Name)
	if t.Status == StatusPending || t.Status == StatusSkipped {
		name = taskDimStyle.Render(t.Name)
	}

	parts := []string{" ", StatusIcon(t.Status, spinnerFrame), name}

	if t.Status == StatusRunning && t.Progress > 0 {
		parts = append(parts, prog.ViewAs(t.Progress), fmt.Sprintf("%d%%", int(t.Progress*100)))
	}

	switch {
	case t.Message != "":
		parts = append(parts, messageStyle.Render("("+t.Message+")"))
	case t.Count > 0:
		parts = append(parts, messageStyle.Render(fmt.Sprintf("(%d)", t.Count)))
	}

	if t.Error != nil {
		parts = append(parts, errorStyle.Render(t.Error.Error()))
	}

	return strings.Join(parts, " ")
}
