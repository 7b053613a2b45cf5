// Package models defines the core data types for the task tracker.
package models

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Journal actions recorded for successful mutations.
const (
	ActionAdd    = "add"
	ActionDone   = "done"
	ActionRemove = "remove"
	ActionClear  = "clear"
)

// ValidActions lists the accepted Event.Action values.
var ValidActions = []string{ActionAdd, ActionDone, ActionRemove, ActionClear}

// Task is a single to-do item. The JSON tags define the on-disk format.
type Task struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	Done        bool   `json:"done"`
}

// Event is one entry of the history journal.
type Event struct {
	ID          string    `json:"id"`
	Action      string    `json:"action"`
	TaskID      int       `json:"task_id"`     // 0 for clear
	Description string    `json:"description"` // task description, or the removed count for clear
	At          time.Time `json:"at"`
}

// NewTaskEvent builds an Event for an action applied to a single task,
// assigning a new UUID and stamping the current UTC time.
func NewTaskEvent(action string, task Task) *Event {
	return &Event{
		ID:          uuid.NewString(),
		Action:      action,
		TaskID:      task.ID,
		Description: task.Description,
		At:          time.Now().UTC(),
	}
}

// NewClearEvent builds an Event for a clear that removed n tasks.
func NewClearEvent(n int) *Event {
	return &Event{
		ID:          uuid.NewString(),
		Action:      ActionClear,
		Description: strconv.Itoa(n),
		At:          time.Now().UTC(),
	}
}

// IsValidAction reports whether a is one of ValidActions.
func IsValidAction(a string) bool {
	for _, v := range ValidActions {
		if v == a {
			return true
		}
	}
	return false
}
