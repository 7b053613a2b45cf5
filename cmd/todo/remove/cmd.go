// Package removecmd implements the `todo remove` command.
package removecmd

import (
	"github.com/spf13/cobra"

	"github.com/go-ports/todo/cmd/todo/shared"
	"github.com/go-ports/todo/internal/store"
)

// Command implements `todo remove`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the remove command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE:    c.run,
	}
	c.cmd.SetFlagErrorFunc(shared.IDFlagError)
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	id, err := store.ParseID(args[0])
	if err != nil {
		return err
	}

	svc, err := c.ctx.Service()
	if err != nil {
		return err
	}
	defer svc.Close()

	task, err := svc.Remove(cmd.Context(), id)
	if err != nil {
		return err
	}
	c.ctx.Printer(cmd).Removed(task)
	return nil
}
