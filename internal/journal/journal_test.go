package journal_test

import (
	"context"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/todo/internal/journal"
	"github.com/go-ports/todo/internal/models"
)

// openTestJournal opens a fresh journal in a temp directory and registers
// t.Cleanup to close it.
func openTestJournal(t *testing.T) *journal.Journal {
	t.Helper()
	j, err := journal.Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("openTestJournal: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

// ---------------------------------------------------------------------------
// Open
// ---------------------------------------------------------------------------

func TestOpen_HappyPath(t *testing.T) {
	c := qt.New(t)
	j := openTestJournal(t)
	c.Assert(j, qt.IsNotNil)

	n, err := j.Count(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 0)
}

func TestOpen_ReopenKeepsEvents(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	j, err := journal.Open(path)
	c.Assert(err, qt.IsNil)
	c.Assert(j.Record(ctx, models.NewTaskEvent(models.ActionAdd, models.Task{ID: 1, Description: "a"})), qt.IsNil)
	c.Assert(j.Close(), qt.IsNil)

	j, err = journal.Open(path)
	c.Assert(err, qt.IsNil)
	defer j.Close()
	n, err := j.Count(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 1)
}

// ---------------------------------------------------------------------------
// Record / Recent
// ---------------------------------------------------------------------------

func TestRecent_NewestFirst(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	j := openTestJournal(t)

	c.Assert(j.Record(ctx, models.NewTaskEvent(models.ActionAdd, models.Task{ID: 1, Description: "A"})), qt.IsNil)
	c.Assert(j.Record(ctx, models.NewTaskEvent(models.ActionAdd, models.Task{ID: 2, Description: "B"})), qt.IsNil)
	c.Assert(j.Record(ctx, models.NewTaskEvent(models.ActionDone, models.Task{ID: 1, Description: "A", Done: true})), qt.IsNil)
	c.Assert(j.Record(ctx, models.NewClearEvent(2)), qt.IsNil)

	events, err := j.Recent(ctx, 10, "")
	c.Assert(err, qt.IsNil)
	c.Assert(events, qt.HasLen, 4)

	actions := make([]string, len(events))
	for i, ev := range events {
		actions[i] = ev.Action
	}
	c.Assert(actions, qt.DeepEquals, []string{"clear", "done", "add", "add"})
	c.Assert(events[0].Description, qt.Equals, "2")
	c.Assert(events[3].TaskID, qt.Equals, 1)
	c.Assert(events[3].Description, qt.Equals, "A")
}

func TestRecent_LimitAndFilter(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	j := openTestJournal(t)

	for i := 1; i <= 5; i++ {
		c.Assert(j.Record(ctx, models.NewTaskEvent(models.ActionAdd, models.Task{ID: i, Description: "t"})), qt.IsNil)
	}
	c.Assert(j.Record(ctx, models.NewTaskEvent(models.ActionRemove, models.Task{ID: 5, Description: "t"})), qt.IsNil)

	c.Run("limit caps the result", func(c *qt.C) {
		events, err := j.Recent(ctx, 2, "")
		c.Assert(err, qt.IsNil)
		c.Assert(events, qt.HasLen, 2)
		c.Assert(events[0].Action, qt.Equals, models.ActionRemove)
		c.Assert(events[1].TaskID, qt.Equals, 5)
	})

	c.Run("action filter", func(c *qt.C) {
		events, err := j.Recent(ctx, 10, models.ActionRemove)
		c.Assert(err, qt.IsNil)
		c.Assert(events, qt.HasLen, 1)
		c.Assert(events[0].TaskID, qt.Equals, 5)
	})

	c.Run("empty result is a non-nil slice", func(c *qt.C) {
		events, err := j.Recent(ctx, 10, models.ActionClear)
		c.Assert(err, qt.IsNil)
		c.Assert(events, qt.IsNotNil)
		c.Assert(events, qt.HasLen, 0)
	})
}

func TestRecord_PreservesTimestamp(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	j := openTestJournal(t)

	ev := models.NewTaskEvent(models.ActionAdd, models.Task{ID: 1, Description: "x"})
	c.Assert(j.Record(ctx, ev), qt.IsNil)

	events, err := j.Recent(ctx, 1, "")
	c.Assert(err, qt.IsNil)
	c.Assert(events[0].ID, qt.Equals, ev.ID)
	c.Assert(events[0].At.Equal(ev.At), qt.IsTrue)
}

func TestRecord_FailurePath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	j := openTestJournal(t)

	c.Run("unknown action", func(c *qt.C) {
		ev := models.NewTaskEvent("archive", models.Task{ID: 1})
		c.Assert(j.Record(ctx, ev), qt.ErrorMatches, `Record: unknown action "archive"`)
	})

	c.Run("duplicate event id", func(c *qt.C) {
		ev := models.NewTaskEvent(models.ActionAdd, models.Task{ID: 1, Description: "x"})
		c.Assert(j.Record(ctx, ev), qt.IsNil)
		c.Assert(j.Record(ctx, ev), qt.IsNotNil)
	})
}
