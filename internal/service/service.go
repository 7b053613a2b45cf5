// Package service implements the task Service orchestrator that wires together
// configuration, the task store, advisory locking, and the history journal.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/go-ports/todo/internal/config"
	"github.com/go-ports/todo/internal/journal"
	"github.com/go-ports/todo/internal/models"
	"github.com/go-ports/todo/internal/store"
)

// lockRetryDelay is how often a blocked lock attempt is retried.
const lockRetryDelay = 25 * time.Millisecond

// Service orchestrates all task operations for one data directory.
type Service struct {
	DataDir string
	Config  *config.Config

	store   *store.Store
	lock    *flock.Flock
	journal *journal.Journal
	mu      sync.Mutex
}

// New initialises a Service rooted at dataDir.
// If cfg is nil the per-data-dir config.yaml is loaded. Nothing is created on disk.
func New(dataDir string, cfg *config.Config) (*Service, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("service.New: %w: empty data directory", store.ErrInvalidInput)
	}
	if cfg == nil {
		var err error
		cfg, err = config.Load(config.FilePath(dataDir))
		if err != nil {
			return nil, fmt.Errorf("service.New: load config: %w", err)
		}
	}

	tasksPath := config.TasksPath(dataDir)
	return &Service{
		DataDir: dataDir,
		Config:  cfg,
		store:   store.New(tasksPath),
		lock:    flock.New(tasksPath + ".lock"),
	}, nil
}

// Close releases all resources held by the service.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.journal == nil {
		return nil
	}
	err := s.journal.Close()
	s.journal = nil
	return err
}

// ---------------------------------------------------------------------------
// Task operations
// ---------------------------------------------------------------------------

// Add appends a new open task.
func (s *Service) Add(ctx context.Context, description string) (models.Task, error) {
	if err := store.CheckDescription(description); err != nil {
		return models.Task{}, err
	}
	var task models.Task
	err := s.mutate(ctx, func() (err error) {
		task, err = s.store.Add(description)
		return err
	})
	if err != nil {
		return models.Task{}, err
	}
	slog.Debug("task added", "id", task.ID)
	s.record(ctx, models.NewTaskEvent(models.ActionAdd, task))
	return task, nil
}

// List returns every task in insertion order.
func (s *Service) List(ctx context.Context) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tasks []models.Task
	err := s.withLock(ctx, false, func() error {
		if err := s.store.Load(); err != nil {
			return err
		}
		var err error
		tasks, err = s.store.List()
		return err
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("tasks listed", "count", len(tasks))
	return tasks, nil
}

// Complete marks the task with id as done.
func (s *Service) Complete(ctx context.Context, id int) (models.Task, error) {
	var task models.Task
	err := s.mutate(ctx, func() (err error) {
		task, err = s.store.Complete(id)
		return err
	})
	if err != nil {
		return models.Task{}, err
	}
	slog.Debug("task completed", "id", task.ID)
	s.record(ctx, models.NewTaskEvent(models.ActionDone, task))
	return task, nil
}

// Remove deletes the task with id.
func (s *Service) Remove(ctx context.Context, id int) (models.Task, error) {
	var task models.Task
	err := s.mutate(ctx, func() (err error) {
		task, err = s.store.Remove(id)
		return err
	})
	if err != nil {
		return models.Task{}, err
	}
	slog.Debug("task removed", "id", task.ID)
	s.record(ctx, models.NewTaskEvent(models.ActionRemove, task))
	return task, nil
}

// Clear removes every task and returns how many were removed.
func (s *Service) Clear(ctx context.Context) (int, error) {
	var n int
	err := s.mutate(ctx, func() (err error) {
		n, err = s.store.Clear()
		return err
	})
	if err != nil {
		return 0, err
	}
	slog.Debug("tasks cleared", "count", n)
	s.record(ctx, models.NewClearEvent(n))
	return n, nil
}

// History returns up to limit journal events, newest first, optionally
// filtered by action. A limit <= 0 uses history.limit from the config.
// A missing journal yields an empty slice and creates nothing.
func (s *Service) History(ctx context.Context, limit int, action string) ([]models.Event, error) {
	if action != "" && !models.IsValidAction(action) {
		return nil, fmt.Errorf("%w: unknown action %q", store.ErrInvalidInput, action)
	}
	if limit <= 0 {
		limit = s.Config.History.Limit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.journal == nil {
		if _, err := os.Stat(config.HistoryPath(s.DataDir)); errors.Is(err, os.ErrNotExist) {
			return make([]models.Event, 0), nil
		}
	}
	j, err := s.openJournal()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrPersistence, err)
	}
	events, err := j.Recent(ctx, limit, action)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrPersistence, err)
	}
	return events, nil
}

// ---------------------------------------------------------------------------
// Internal helpers
// ---------------------------------------------------------------------------

// mutate runs fn against a freshly loaded store under the exclusive lock.
func (s *Service) mutate(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withLock(ctx, true, func() error {
		if err := s.store.Load(); err != nil {
			return err
		}
		return fn()
	})
}

// withLock runs fn while holding the advisory lock next to the tasks file.
// A shared lock is skipped when the data directory does not exist yet so
// read-only calls create nothing on disk.
func (s *Service) withLock(ctx context.Context, exclusive bool, fn func() error) error {
	if !s.Config.Store.Lock {
		return fn()
	}
	if exclusive {
		if err := os.MkdirAll(s.DataDir, 0o755); err != nil {
			return fmt.Errorf("%w: create data dir: %w", store.ErrPersistence, err)
		}
	} else if _, err := os.Stat(s.DataDir); errors.Is(err, os.ErrNotExist) {
		return fn()
	}

	lctx := ctx
	if s.Config.Store.LockTimeout > 0 {
		var cancel context.CancelFunc
		lctx, cancel = context.WithTimeout(ctx, s.Config.Store.LockTimeout)
		defer cancel()
	}

	var (
		ok  bool
		err error
	)
	if exclusive {
		ok, err = s.lock.TryLockContext(lctx, lockRetryDelay)
	} else {
		ok, err = s.lock.TryRLockContext(lctx, lockRetryDelay)
	}
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", store.ErrPersistence, s.lock.Path(), err)
	}
	if !ok {
		return fmt.Errorf("%w (waited %s)", store.ErrLocked, s.Config.Store.LockTimeout)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			slog.Warn("unlock task store", "path", s.lock.Path(), "err", err)
		}
	}()
	return fn()
}

// openJournal returns the journal, lazily opening it. Callers hold s.mu.
func (s *Service) openJournal() (*journal.Journal, error) {
	if s.journal != nil {
		return s.journal, nil
	}
	j, err := journal.Open(config.HistoryPath(s.DataDir))
	if err != nil {
		return nil, err
	}
	s.journal = j
	return j, nil
}

// record appends ev to the journal. Failures are only logged.
func (s *Service) record(ctx context.Context, ev *models.Event) {
	if !s.Config.History.Enabled {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	j, err := s.openJournal()
	if err != nil {
		slog.Warn("history journal unavailable", "err", err)
		return
	}
	if err := j.Record(ctx, ev); err != nil {
		slog.Warn("history journal write failed", "action", ev.Action, "err", err)
	}
}
