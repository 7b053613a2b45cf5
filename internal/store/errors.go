package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Error kinds surfaced to the user. Match with errors.Is.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("task not found")
	ErrCorruptStore = errors.New("corrupt task store")
	ErrPersistence  = errors.New("persistence error")
	ErrLocked       = errors.New("task store is locked by another process")
)

// NotFoundError reports an operation on an id absent from the store.
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task #%d not found", e.ID)
}

// Is makes errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ParseID parses a task id given on the command line or over MCP.
// Only positive base-10 integers are accepted.
func ParseID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: task id %q is not a number", ErrInvalidInput, s)
	}
	if id <= 0 {
		return 0, fmt.Errorf("%w: task id must be positive, got %d", ErrInvalidInput, id)
	}
	return id, nil
}

// CheckDescription reports ErrInvalidInput for a blank or non-UTF-8 description.
func CheckDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("%w: task description is empty", ErrInvalidInput)
	}
	if !utf8.ValidString(description) {
		return fmt.Errorf("%w: task description is not valid UTF-8", ErrInvalidInput)
	}
	return nil
}
