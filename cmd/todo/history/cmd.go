// Package historycmd implements the `todo history` command.
package historycmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-ports/todo/cmd/todo/shared"
	"github.com/go-ports/todo/internal/models"
	"github.com/go-ports/todo/internal/store"
)

// Command implements `todo history`.
type Command struct {
	ctx    *shared.Context
	cmd    *cobra.Command
	limit  int
	action string
}

// New creates the history command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "history",
		Short: "Show recent changes to the task list, newest first",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	c.cmd.Flags().IntVarP(&c.limit, "limit", "n", 0, "Max events to show (default: history.limit)")
	c.cmd.Flags().StringVar(&c.action, "action", "",
		"Only show one action: "+strings.Join(models.ValidActions, ", "))
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	if c.limit < 0 {
		return fmt.Errorf("%w: --limit must not be negative", store.ErrInvalidInput)
	}

	svc, err := c.ctx.Service()
	if err != nil {
		return err
	}
	defer svc.Close()

	events, err := svc.History(cmd.Context(), c.limit, strings.ToLower(c.action))
	if err != nil {
		return err
	}
	c.ctx.Printer(cmd).History(events)
	return nil
}
