package store_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/todo/internal/store"
)

// newStore returns a Store backed by tasks.json inside a fresh temp dir.
func newStore(t *testing.T) (*store.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "todo", "tasks.json")
	return store.New(path), path
}

// writeFile places raw contents at path, creating parent dirs.
func writeFile(c *qt.C, path, contents string) {
	c.Assert(os.MkdirAll(filepath.Dir(path), 0o755), qt.IsNil)
	c.Assert(os.WriteFile(path, []byte(contents), 0o600), qt.IsNil)
}

func ids(tasks []store.Task) []int {
	out := make([]int, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

func TestLoad_HappyPath(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		name     string
		contents *string
		wantIDs  []int
	}{
		{name: "missing file yields empty list", contents: nil, wantIDs: []int{}},
		{name: "zero-byte file yields empty list", contents: ptr(""), wantIDs: []int{}},
		{name: "whitespace-only file yields empty list", contents: ptr(" \n\t\n"), wantIDs: []int{}},
		{name: "empty array", contents: ptr("[]"), wantIDs: []int{}},
		{
			name:     "compact document keeps file order",
			contents: ptr(`[{"id":2,"description":"Test CLI","done":false},{"id":1,"description":"Write README","done":true}]`),
			wantIDs:  []int{2, 1},
		},
		{
			name:     "unknown fields are ignored",
			contents: ptr(`[{"id":1,"description":"x","done":false,"note":"extra"}]`),
			wantIDs:  []int{1},
		},
	}

	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			s, path := newStore(t)
			if tc.contents != nil {
				writeFile(c, path, *tc.contents)
			}
			c.Assert(s.Load(), qt.IsNil)
			tasks, err := s.List()
			c.Assert(err, qt.IsNil)
			c.Assert(ids(tasks), qt.DeepEquals, tc.wantIDs)
		})
	}
}

func TestLoad_FailurePath(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		name     string
		contents string
	}{
		{"malformed json", `[{"id":1,`},
		{"object instead of array", `{"id":1,"description":"x","done":false}`},
		{"id is a string", `[{"id":"1","description":"x","done":false}]`},
		{"id is zero", `[{"id":0,"description":"x","done":false}]`},
		{"id is fractional", `[{"id":1.5,"description":"x","done":false}]`},
		{"missing done", `[{"id":1,"description":"x"}]`},
		{"empty description", `[{"id":1,"description":"","done":false}]`},
		{"duplicate ids", `[{"id":1,"description":"a","done":false},{"id":1,"description":"b","done":true}]`},
		{"trailing garbage", `[] []`},
	}

	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			s, path := newStore(t)
			writeFile(c, path, tc.contents)

			err := s.Load()
			c.Assert(err, qt.ErrorIs, store.ErrCorruptStore)

			_, err = s.List()
			c.Assert(err, qt.ErrorIs, store.ErrCorruptStore)
		})
	}
}

func TestLoad_DirectoryInPlaceOfFile(t *testing.T) {
	c := qt.New(t)

	s, path := newStore(t)
	c.Assert(os.MkdirAll(path, 0o755), qt.IsNil)

	err := s.Load()
	c.Assert(err, qt.ErrorIs, store.ErrPersistence)
}

func TestLoad_ReloadDiscardsMemory(t *testing.T) {
	c := qt.New(t)

	s, path := newStore(t)
	_, err := s.Add("first")
	c.Assert(err, qt.IsNil)

	writeFile(c, path, `[{"id":7,"description":"edited elsewhere","done":true}]`)
	c.Assert(s.Load(), qt.IsNil)

	tasks, err := s.List()
	c.Assert(err, qt.IsNil)
	c.Assert(tasks, qt.DeepEquals, []store.Task{{ID: 7, Description: "edited elsewhere", Done: true}})
}

// ---------------------------------------------------------------------------
// Save
// ---------------------------------------------------------------------------

func TestSave_RoundTrip(t *testing.T) {
	c := qt.New(t)

	s, path := newStore(t)
	for _, d := range []string{"Write README", "Test CLI", "Ship it"} {
		_, err := s.Add(d)
		c.Assert(err, qt.IsNil)
	}
	_, err := s.Complete(2)
	c.Assert(err, qt.IsNil)
	want, err := s.List()
	c.Assert(err, qt.IsNil)

	reloaded := store.New(path)
	c.Assert(reloaded.Load(), qt.IsNil)
	got, err := reloaded.List()
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, want)
}

func TestSave_EmptyListWritesArray(t *testing.T) {
	c := qt.New(t)

	s, path := newStore(t)
	c.Assert(s.Save(), qt.IsNil)

	data, err := os.ReadFile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "[]\n")
}

func TestSave_CreatesParentDirectories(t *testing.T) {
	c := qt.New(t)

	path := filepath.Join(t.TempDir(), "a", "b", "c", "tasks.json")
	s := store.New(path)
	_, err := s.Add("nested")
	c.Assert(err, qt.IsNil)

	info, err := os.Stat(path)
	c.Assert(err, qt.IsNil)
	c.Assert(info.Mode().IsRegular(), qt.IsTrue)
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	c := qt.New(t)

	s, path := newStore(t)
	_, err := s.Add("one")
	c.Assert(err, qt.IsNil)
	_, err = s.Add("two")
	c.Assert(err, qt.IsNil)

	entries, err := os.ReadDir(filepath.Dir(path))
	c.Assert(err, qt.IsNil)
	c.Assert(entries, qt.HasLen, 1)
	c.Assert(entries[0].Name(), qt.Equals, "tasks.json")
}

func TestSave_FailurePath(t *testing.T) {
	c := qt.New(t)

	// A regular file where the data directory should be makes mkdir fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	c.Assert(os.WriteFile(blocker, []byte("x"), 0o600), qt.IsNil)
	s := store.New(filepath.Join(blocker, "todo", "tasks.json"))

	c.Run("add reports persistence failure", func(c *qt.C) {
		_, err := s.Add("never saved")
		c.Assert(err, qt.ErrorIs, store.ErrPersistence)
	})

	c.Run("clear reports persistence failure", func(c *qt.C) {
		_, err := s.Clear()
		c.Assert(err, qt.ErrorIs, store.ErrPersistence)
	})
}

// ---------------------------------------------------------------------------
// Add
// ---------------------------------------------------------------------------

func TestAdd_SequentialIDs(t *testing.T) {
	c := qt.New(t)

	s, _ := newStore(t)
	for want := 1; want <= 10; want++ {
		task, err := s.Add("task")
		c.Assert(err, qt.IsNil)
		c.Assert(task.ID, qt.Equals, want)
		c.Assert(task.Done, qt.IsFalse)
	}
}

func TestAdd_ReusesRemovedMaximum(t *testing.T) {
	c := qt.New(t)

	s, _ := newStore(t)
	for _, d := range []string{"a", "b", "c"} {
		_, err := s.Add(d)
		c.Assert(err, qt.IsNil)
	}
	_, err := s.Remove(3)
	c.Assert(err, qt.IsNil)

	task, err := s.Add("d")
	c.Assert(err, qt.IsNil)
	c.Assert(task.ID, qt.Equals, 3)
}

func TestAdd_IDFollowsMaximumNotCount(t *testing.T) {
	c := qt.New(t)

	s, path := newStore(t)
	writeFile(c, path, `[{"id":5,"description":"a","done":false},{"id":2,"description":"b","done":false}]`)

	task, err := s.Add("c")
	c.Assert(err, qt.IsNil)
	c.Assert(task.ID, qt.Equals, 6)

	_, err = s.Remove(2)
	c.Assert(err, qt.IsNil)
	task, err = s.Add("d")
	c.Assert(err, qt.IsNil)
	c.Assert(task.ID, qt.Equals, 7)
}

func TestAdd_StoresDescriptionVerbatim(t *testing.T) {
	c := qt.New(t)

	s, _ := newStore(t)
	task, err := s.Add("  Buy  groceries ✓ ")
	c.Assert(err, qt.IsNil)
	c.Assert(task.Description, qt.Equals, "  Buy  groceries ✓ ")
}

func TestAdd_FailurePath(t *testing.T) {
	c := qt.New(t)

	for _, d := range []string{"", " ", "\t\n", "bad \xff byte"} {
		c.Run("description "+strconv.Quote(d), func(c *qt.C) {
			s, path := newStore(t)
			_, err := s.Add(d)
			c.Assert(err, qt.ErrorIs, store.ErrInvalidInput)

			_, statErr := os.Stat(path)
			c.Assert(errors.Is(statErr, os.ErrNotExist), qt.IsTrue)
		})
	}
}

func TestAdd_IDSpaceExhausted(t *testing.T) {
	c := qt.New(t)

	s, path := newStore(t)
	contents := `[{"id":` + strconv.Itoa(math.MaxInt) + `,"description":"last","done":false}]`
	writeFile(c, path, contents)

	_, err := s.Add("one more")
	c.Assert(err, qt.ErrorIs, store.ErrInvalidInput)
	c.Assert(err, qt.ErrorMatches, `invalid input: task id space exhausted.*`)

	data, err := os.ReadFile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, contents)

	reloaded := store.New(path)
	c.Assert(reloaded.Load(), qt.IsNil)
	tasks, err := reloaded.List()
	c.Assert(err, qt.IsNil)
	c.Assert(ids(tasks), qt.DeepEquals, []int{math.MaxInt})
}

// ---------------------------------------------------------------------------
// Complete / Remove / Clear
// ---------------------------------------------------------------------------

func TestComplete_Idempotent(t *testing.T) {
	c := qt.New(t)

	s, _ := newStore(t)
	_, err := s.Add("A")
	c.Assert(err, qt.IsNil)

	for i := 0; i < 2; i++ {
		task, err := s.Complete(1)
		c.Assert(err, qt.IsNil)
		c.Assert(task.Done, qt.IsTrue)
	}
}

func TestComplete_NotFound(t *testing.T) {
	c := qt.New(t)

	s, path := newStore(t)
	_, err := s.Add("A")
	c.Assert(err, qt.IsNil)
	before, err := os.ReadFile(path)
	c.Assert(err, qt.IsNil)

	_, err = s.Complete(99)
	c.Assert(err, qt.ErrorIs, store.ErrNotFound)
	c.Assert(err, qt.ErrorMatches, `task #99 not found`)

	var nf *store.NotFoundError
	c.Assert(errors.As(err, &nf), qt.IsTrue)
	c.Assert(nf.ID, qt.Equals, 99)

	after, err := os.ReadFile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(string(after), qt.Equals, string(before))
}

func TestRemove_PreservesOrder(t *testing.T) {
	c := qt.New(t)

	s, _ := newStore(t)
	for _, d := range []string{"a", "b", "c", "d"} {
		_, err := s.Add(d)
		c.Assert(err, qt.IsNil)
	}

	removed, err := s.Remove(2)
	c.Assert(err, qt.IsNil)
	c.Assert(removed.Description, qt.Equals, "b")

	tasks, err := s.List()
	c.Assert(err, qt.IsNil)
	c.Assert(ids(tasks), qt.DeepEquals, []int{1, 3, 4})
}

func TestRemove_NotFound(t *testing.T) {
	c := qt.New(t)

	s, _ := newStore(t)
	_, err := s.Remove(1)
	c.Assert(err, qt.ErrorIs, store.ErrNotFound)
}

func TestClear_HappyPath(t *testing.T) {
	c := qt.New(t)

	c.Run("empty store", func(c *qt.C) {
		s, _ := newStore(t)
		n, err := s.Clear()
		c.Assert(err, qt.IsNil)
		c.Assert(n, qt.Equals, 0)
		tasks, err := s.List()
		c.Assert(err, qt.IsNil)
		c.Assert(tasks, qt.HasLen, 0)
	})

	c.Run("populated store", func(c *qt.C) {
		s, path := newStore(t)
		for _, d := range []string{"a", "b"} {
			_, err := s.Add(d)
			c.Assert(err, qt.IsNil)
		}
		n, err := s.Clear()
		c.Assert(err, qt.IsNil)
		c.Assert(n, qt.Equals, 2)

		reloaded := store.New(path)
		tasks, err := reloaded.List()
		c.Assert(err, qt.IsNil)
		c.Assert(tasks, qt.HasLen, 0)

		task, err := s.Add("fresh")
		c.Assert(err, qt.IsNil)
		c.Assert(task.ID, qt.Equals, 1)
	})
}

func TestScenario_AddDoneRemove(t *testing.T) {
	c := qt.New(t)

	s, _ := newStore(t)
	_, err := s.Add("A")
	c.Assert(err, qt.IsNil)
	_, err = s.Add("B")
	c.Assert(err, qt.IsNil)
	_, err = s.Complete(1)
	c.Assert(err, qt.IsNil)
	_, err = s.Remove(2)
	c.Assert(err, qt.IsNil)

	tasks, err := s.List()
	c.Assert(err, qt.IsNil)
	c.Assert(tasks, qt.DeepEquals, []store.Task{{ID: 1, Description: "A", Done: true}})
}

// ---------------------------------------------------------------------------
// ParseID
// ---------------------------------------------------------------------------

func TestParseID(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"1", 1, false},
		{"42", 42, false},
		{" 7 ", 7, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
		{"1.5", 0, true},
		{"", 0, true},
	}

	for _, tc := range cases {
		c.Run(strconv.Quote(tc.in), func(c *qt.C) {
			got, err := store.ParseID(tc.in)
			if tc.wantErr {
				c.Assert(err, qt.ErrorIs, store.ErrInvalidInput)
				return
			}
			c.Assert(err, qt.IsNil)
			c.Assert(got, qt.Equals, tc.want)
		})
	}
}

func ptr(s string) *string { return &s }
