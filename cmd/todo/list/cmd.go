// Package listcmd implements the `todo list` command.
package listcmd

import (
	"github.com/spf13/cobra"

	"github.com/go-ports/todo/cmd/todo/shared"
	"github.com/go-ports/todo/internal/models"
	"github.com/go-ports/todo/internal/render"
)

// Command implements `todo list`.
type Command struct {
	ctx     *shared.Context
	cmd     *cobra.Command
	format  string
	pending bool
}

// New creates the list command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all tasks",
		Args:    cobra.NoArgs,
		RunE:    c.run,
	}
	c.cmd.Flags().StringVarP(&c.format, "format", "f", "", "Output format: text, table, markdown, json (default: output.format)")
	c.cmd.Flags().BoolVar(&c.pending, "pending", false, "Only show tasks that are not done")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	name := c.format
	if name == "" {
		name = c.ctx.Config.Output.Format
	}
	format, err := render.ParseFormat(name)
	if err != nil {
		return err
	}

	svc, err := c.ctx.Service()
	if err != nil {
		return err
	}
	defer svc.Close()

	tasks, err := svc.List(cmd.Context())
	if err != nil {
		return err
	}
	if c.pending {
		tasks = openOnly(tasks)
	}
	return c.ctx.Printer(cmd).Tasks(tasks, format)
}

func openOnly(tasks []models.Task) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.Done {
			out = append(out, t)
		}
	}
	return out
}
