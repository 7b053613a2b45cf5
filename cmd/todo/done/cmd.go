// Package donecmd implements the `todo done` command.
package donecmd

import (
	"github.com/spf13/cobra"

	"github.com/go-ports/todo/cmd/todo/shared"
	"github.com/go-ports/todo/internal/store"
)

// Command implements `todo done`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the done command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task as done",
		Args:  cobra.ExactArgs(1),
		RunE:  c.run,
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

	task, err := svc.Complete(cmd.Context(), id)
	if err != nil {
		return err
	}
	c.ctx.Printer(cmd).Completed(task)
	return nil
}
