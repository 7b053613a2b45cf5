// Package configcmd implements the `todo config` command group.
package configcmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/go-ports/todo/cmd/todo/shared"
	"github.com/go-ports/todo/internal/config"
)

const configTemplate = `# todo configuration. Every key is optional.

log:
  level: warn          # debug | info | warn | error
  format: text         # text | logfmt | json

store:
  lock: true           # advisory lock on tasks.json.lock
  lock_timeout: 5s     # how long to wait for another todo process

history:
  enabled: true        # record changes in history.db
  limit: 20            # default for 'todo history'

output:
  color: auto          # auto | always | never
  format: text         # default for 'todo list': text | table | markdown | json
`

// Command implements `todo config`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the config command group.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "config",
		Short: "Show or manage configuration",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.InitLenient(cmd)
		},
		RunE: c.runShow,
	}
	c.cmd.AddCommand(
		newConfigInit(ctx),
		newSetDataDir(ctx),
		newClearDataDir(ctx),
	)
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) runShow(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.FilePath(c.ctx.Home))
	if err != nil {
		return err
	}
	data := map[string]any{
		"log": map[string]any{
			"level":  cfg.Log.Level,
			"format": cfg.Log.Format,
		},
		"store": map[string]any{
			"lock":         cfg.Store.Lock,
			"lock_timeout": cfg.Store.LockTimeout.String(),
		},
		"history": map[string]any{
			"enabled": cfg.History.Enabled,
			"limit":   cfg.History.Limit,
		},
		"output": map[string]any{
			"color":  cfg.Output.Color,
			"format": cfg.Output.Format,
		},
		"data_dir":        c.ctx.Home,
		"data_dir_source": c.ctx.Source,
		"tasks_file":      config.TasksPath(c.ctx.Home),
	}
	b, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(b))
	return nil
}

// ---------------------------------------------------------------------------
// config init
// ---------------------------------------------------------------------------

func newConfigInit(ctx *shared.Context) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a starter config.yaml in the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath := config.FilePath(ctx.Home)
			out := cmd.OutOrStdout()
			if _, err := os.Stat(cfgPath); err == nil && !force {
				fmt.Fprintf(out, "Config already exists at %s\n", cfgPath)
				fmt.Fprintln(out, "Use --force to overwrite.")
				return nil
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := os.MkdirAll(ctx.Home, 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(cfgPath, []byte(configTemplate), 0o600); err != nil {
				return err
			}
			fmt.Fprintf(out, "Created %s\n", cfgPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config")
	return cmd
}

// ---------------------------------------------------------------------------
// config set-data-dir
// ---------------------------------------------------------------------------

func newSetDataDir(_ *shared.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "set-data-dir <path>",
		Short: "Persist the data directory (used when TODO_DATA_DIR is unset)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := config.SetPersistedDataDir(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Persisted data directory: %s\n", resolved)
			fmt.Fprintf(out, "Override anytime with %s or --data-dir.\n", config.DataDirEnv)
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// config clear-data-dir
// ---------------------------------------------------------------------------

func newClearDataDir(_ *shared.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-data-dir",
		Short: "Remove the persisted data directory from the global config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			changed, err := config.ClearPersistedDataDir()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if changed {
				fmt.Fprintln(out, "Cleared persisted data directory setting.")
			} else {
				fmt.Fprintln(out, "No persisted data directory setting was found.")
			}
			return nil
		},
	}
}
