// Package setupcmd implements the `todo setup` command group.
package setupcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/todo/cmd/todo/shared"
	"github.com/go-ports/todo/internal/setup"
)

// Command implements `todo setup`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

var shorts = map[string]string{
	setup.AgentClaudeCode: "Register the todo MCP server with Claude Code",
	setup.AgentCursor:     "Register the todo MCP server with Cursor",
	setup.AgentCodex:      "Register the todo MCP server in Codex config.toml",
	setup.AgentOpencode:   "Register the todo MCP server with OpenCode",
}

// New creates the setup command group.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "setup",
		Short: "Register the todo MCP server with a coding agent",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.InitLenient(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}
	for _, agent := range setup.Agents {
		c.cmd.AddCommand(c.newAgent(agent))
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) newAgent(agent string) *cobra.Command {
	var opts setup.Options
	cmd := &cobra.Command{
		Use:   agent,
		Short: shorts[agent],
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.ctx.DataDir != "" {
				opts.DataDir = c.ctx.Home
			}
			res, err := setup.Install(agent, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
	if agent != setup.AgentOpencode {
		cmd.Flags().StringVar(&opts.ConfigDir, "config-dir", "", "Path to the agent's config directory")
	}
	cmd.Flags().BoolVar(&opts.Project, "project", false, "Install in current project instead of globally")
	return cmd
}
