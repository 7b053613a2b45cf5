// Package render formats command results for the terminal.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/go-ports/todo/internal/models"
)

// Colour modes accepted by output.color and ShouldColorize.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// ShouldColorize reports whether output to w should carry ANSI colour.
// In auto mode only terminals are coloured.
func ShouldColorize(w io.Writer, mode string) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Printer writes status lines, task lists and history to one writer.
type Printer struct {
	w io.Writer

	ok   *color.Color
	warn *color.Color
	bad  *color.Color
	dim  *color.Color
}

// NewPrinter returns a Printer writing to w, coloured when colorize is set.
func NewPrinter(w io.Writer, colorize bool) *Printer {
	p := &Printer{
		w:    w,
		ok:   color.New(color.FgGreen, color.Bold),
		warn: color.New(color.FgYellow, color.Bold),
		bad:  color.New(color.FgRed, color.Bold),
		dim:  color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.ok, p.warn, p.bad, p.dim} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// ---------------------------------------------------------------------------
// Status lines
// ---------------------------------------------------------------------------

// Added confirms a new task.
func (p *Printer) Added(task models.Task) {
	fmt.Fprintf(p.w, "%s Added #%d: %s\n", p.ok.Sprint("[+]"), task.ID, task.Description)
}

// Completed confirms a task was marked done.
func (p *Printer) Completed(task models.Task) {
	fmt.Fprintf(p.w, "%s Marked #%d done.\n", p.ok.Sprint("[✓]"), task.ID)
}

// Removed confirms a task was deleted.
func (p *Printer) Removed(task models.Task) {
	fmt.Fprintf(p.w, "%s Removed #%d.\n", p.warn.Sprint("[-]"), task.ID)
}

// Cleared confirms the list was emptied.
func (p *Printer) Cleared() {
	fmt.Fprintf(p.w, "%s All tasks cleared.\n", p.bad.Sprint("[!]"))
}

// Line writes a plain line.
func (p *Printer) Line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

// History writes one line per event, in the order given.
func (p *Printer) History(events []models.Event) {
	if len(events) == 0 {
		fmt.Fprintln(p.w, "No history found.")
		return
	}
	for i := range events {
		fmt.Fprintln(p.w, p.eventLine(&events[i]))
	}
}

func (p *Printer) eventLine(ev *models.Event) string {
	at := p.dim.Sprint(ev.At.UTC().Format("2006-01-02 15:04:05Z"))
	action := fmt.Sprintf("%-6s", ev.Action)
	switch ev.Action {
	case models.ActionClear:
		return fmt.Sprintf("%s  %s  %s task(s)", at, p.bad.Sprint(action), ev.Description)
	case models.ActionRemove:
		return fmt.Sprintf("%s  %s  #%d %s", at, p.warn.Sprint(action), ev.TaskID, ev.Description)
	default:
		return fmt.Sprintf("%s  %s  #%d %s", at, p.ok.Sprint(action), ev.TaskID, ev.Description)
	}
}
