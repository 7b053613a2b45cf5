// Package store owns the ordered task list and its JSON file.
//
// A Store is not safe for concurrent use; callers that share one across
// goroutines or processes serialise access themselves (see internal/service).
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"slices"

	"github.com/go-ports/todo/internal/models"
)

const (
	dirPerm  = 0o755
	filePerm = 0o600
)

// Task is re-exported so store callers need not import models.
type Task = models.Task

// Store is the in-memory task list bound to a file path.
type Store struct {
	path   string
	tasks  []Task
	loaded bool
}

// New returns a Store backed by the tasks file at path. Nothing is read
// until the first operation.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the tasks file path.
func (s *Store) Path() string { return s.path }

// ---------------------------------------------------------------------------
// Persistence
// ---------------------------------------------------------------------------

// Load (re)reads the tasks file, discarding any in-memory state.
// A missing, zero-byte, or whitespace-only file yields an empty list.
func (s *Store) Load() error {
	tasks, err := readFile(s.path)
	if err != nil {
		return err
	}
	s.tasks = tasks
	s.loaded = true
	return nil
}

func (s *Store) ensureLoaded() error {
	if s.loaded {
		return nil
	}
	return s.Load()
}

func readFile(path string) ([]Task, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from resolved configuration
	if errors.Is(err, fs.ErrNotExist) {
		return make([]Task, 0), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrPersistence, path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return make([]Task, 0), nil
	}

	if err := validateDocument(data); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptStore, path, err)
	}
	var tasks []Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptStore, path, err)
	}

	seen := make(map[int]bool, len(tasks))
	for _, t := range tasks {
		if seen[t.ID] {
			return nil, fmt.Errorf("%w: %s: duplicate task id %d", ErrCorruptStore, path, t.ID)
		}
		seen[t.ID] = true
	}
	return tasks, nil
}

// Save writes the list to the tasks file, creating parent directories.
// The file is replaced atomically via a temp file in the same directory.
func (s *Store) Save() error {
	tasks := s.tasks
	if tasks == nil {
		tasks = make([]Task, 0)
	}
	data, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode tasks: %w", ErrPersistence, err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(s.path), dirPerm); err != nil {
		return fmt.Errorf("%w: create data directory: %w", ErrPersistence, err)
	}
	if err := atomicWrite(s.path, data); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return nil
}

func atomicWrite(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, filePerm); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Operations
// ---------------------------------------------------------------------------

// Add appends a new pending task and saves. The id is one more than the
// current maximum, so removing the highest id frees it for reuse.
func (s *Store) Add(description string) (Task, error) {
	if err := CheckDescription(description); err != nil {
		return Task{}, err
	}
	if err := s.ensureLoaded(); err != nil {
		return Task{}, err
	}

	id, ok := nextID(s.tasks)
	if !ok {
		return Task{}, fmt.Errorf("%w: task id space exhausted (highest id is %d)", ErrInvalidInput, math.MaxInt)
	}
	t := Task{ID: id, Description: description}
	s.tasks = append(s.tasks, t)
	if err := s.Save(); err != nil {
		return Task{}, err
	}
	return t, nil
}

// List returns a copy of the tasks in insertion order.
func (s *Store) List() ([]Task, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	return slices.Clone(s.tasks), nil
}

// Complete marks the task done and saves. Completing a done task succeeds.
func (s *Store) Complete(id int) (Task, error) {
	if err := s.ensureLoaded(); err != nil {
		return Task{}, err
	}
	i := s.indexOf(id)
	if i < 0 {
		return Task{}, &NotFoundError{ID: id}
	}
	s.tasks[i].Done = true
	if err := s.Save(); err != nil {
		return Task{}, err
	}
	return s.tasks[i], nil
}

// Remove deletes the task, keeping the order of the rest, and saves.
func (s *Store) Remove(id int) (Task, error) {
	if err := s.ensureLoaded(); err != nil {
		return Task{}, err
	}
	i := s.indexOf(id)
	if i < 0 {
		return Task{}, &NotFoundError{ID: id}
	}
	removed := s.tasks[i]
	s.tasks = slices.Delete(s.tasks, i, i+1)
	if err := s.Save(); err != nil {
		return Task{}, err
	}
	return removed, nil
}

// Clear empties the list and saves, returning how many tasks were dropped.
func (s *Store) Clear() (int, error) {
	if err := s.ensureLoaded(); err != nil {
		return 0, err
	}
	n := len(s.tasks)
	s.tasks = make([]Task, 0)
	if err := s.Save(); err != nil {
		return 0, err
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func (s *Store) indexOf(id int) int {
	return slices.IndexFunc(s.tasks, func(t Task) bool { return t.ID == id })
}

// nextID returns max(ids)+1, or false when that would overflow int.
func nextID(tasks []Task) (int, bool) {
	maxID := 0
	for _, t := range tasks {
		maxID = max(maxID, t.ID)
	}
	if maxID == math.MaxInt {
		return 0, false
	}
	return maxID + 1, true
}
