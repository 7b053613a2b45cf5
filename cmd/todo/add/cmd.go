// Package addcmd implements the `todo add` command.
package addcmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-ports/todo/cmd/todo/shared"
)

// Command implements `todo add`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the add command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "add <description...>",
		Short: "Add a new task",
		Long:  "Add a new task. All arguments are joined with single spaces to form the description.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	svc, err := c.ctx.Service()
	if err != nil {
		return err
	}
	defer svc.Close()

	task, err := svc.Add(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	c.ctx.Printer(cmd).Added(task)
	return nil
}
