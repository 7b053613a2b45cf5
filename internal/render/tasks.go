package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/go-ports/todo/internal/models"
	"github.com/go-ports/todo/internal/store"
)

// Format selects how a task list is written.
type Format string

// Supported list formats.
const (
	FormatText     Format = "text"
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// Formats lists every supported format in display order.
var Formats = []Format{FormatText, FormatTable, FormatMarkdown, FormatJSON}

// emptyList is printed by the human formats when there is nothing to show.
const emptyList = "No tasks found."

// ParseFormat validates a format name. "md" is accepted for markdown.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatTable, FormatMarkdown, FormatJSON:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		names := make([]string, len(Formats))
		for i, f := range Formats {
			names[i] = string(f)
		}
		return "", fmt.Errorf("%w: unknown format %q (want %s)", store.ErrInvalidInput, s, strings.Join(names, ", "))
	}
}

// Tasks writes tasks in the requested format.
func (p *Printer) Tasks(tasks []models.Task, format Format) error {
	switch format {
	case FormatText, "":
		p.textList(tasks)
	case FormatTable:
		p.tableList(tasks)
	case FormatMarkdown:
		writeMarkdown(p.w, tasks)
	case FormatJSON:
		return writeJSON(p.w, tasks)
	default:
		return fmt.Errorf("%w: unknown format %q", store.ErrInvalidInput, format)
	}
	return nil
}

func (p *Printer) textList(tasks []models.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(p.w, emptyList)
		return
	}
	for _, t := range tasks {
		mark := "[ ]"
		if t.Done {
			mark = p.ok.Sprint("[x]")
		}
		fmt.Fprintf(p.w, "%s %d: %s\n", mark, t.ID, t.Description)
	}
}

func (p *Printer) tableList(tasks []models.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(p.w, emptyList)
		return
	}

	tw := table.NewWriter()
	style := table.StyleRounded
	style.Format.Header = text.FormatDefault
	style.Format.Footer = text.FormatDefault
	tw.SetStyle(style)
	tw.AppendHeader(table.Row{"ID", "Status", "Description"})

	open := 0
	for _, t := range tasks {
		status := p.ok.Sprint("done")
		if !t.Done {
			status = "open"
			open++
		}
		tw.AppendRow(table.Row{strconv.Itoa(t.ID), status, t.Description})
	}
	tw.AppendFooter(table.Row{"", "", fmt.Sprintf("%d open / %d total", open, len(tasks))})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignLeft, AlignFooter: text.AlignRight},
	})

	fmt.Fprintln(p.w, tw.Render())
}

// writeMarkdown writes a GitHub-style checklist. Descriptions are kept on one line.
func writeMarkdown(w io.Writer, tasks []models.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, emptyList)
		return
	}
	var sb strings.Builder
	for _, t := range tasks {
		sb.WriteString("- [")
		if t.Done {
			sb.WriteString("x")
		} else {
			sb.WriteString(" ")
		}
		sb.WriteString("] ")
		sb.WriteString(singleLine(t.Description))
		sb.WriteString(" (#")
		sb.WriteString(strconv.Itoa(t.ID))
		sb.WriteString(")\n")
	}
	_, _ = io.WriteString(w, sb.String())
}

// writeJSON writes the same document shape as the tasks file.
func writeJSON(w io.Writer, tasks []models.Task) error {
	if tasks == nil {
		tasks = make([]models.Task, 0)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(tasks)
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
