// Package shared holds the context passed to all CLI commands.
package shared

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/go-ports/todo/internal/config"
	"github.com/go-ports/todo/internal/logging"
	"github.com/go-ports/todo/internal/render"
	"github.com/go-ports/todo/internal/service"
)

// Context carries global CLI state (flags set on the root command) and the
// values resolved from them before any verb runs.
type Context struct {
	// DataDir overrides the data directory.
	// When empty, resolution falls through to TODO_DATA_DIR → persisted config → platform default.
	DataDir string
	NoColor bool
	Verbose bool

	// Set by Init.
	Home   string
	Source string
	Config *config.Config
}

// Init resolves the data directory, loads its config and configures logging
// on the command's stderr.
func (c *Context) Init(cmd *cobra.Command) error {
	return c.init(cmd, true)
}

// InitLenient is Init for commands that must work with a broken config.yaml:
// a load failure is logged and defaults are used instead.
func (c *Context) InitLenient(cmd *cobra.Command) error {
	return c.init(cmd, false)
}

func (c *Context) init(cmd *cobra.Command, strict bool) error {
	home, source, err := config.ResolveDataDir(c.DataDir)
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	c.Home, c.Source = home, source

	cfg, loadErr := config.Load(config.FilePath(home))
	if loadErr != nil {
		if strict {
			return fmt.Errorf("load config: %w", loadErr)
		}
		cfg = config.Default()
	}
	c.Config = cfg

	level := cfg.Log.Level
	if c.Verbose {
		level = "debug"
	}
	logging.Setup(cmd.ErrOrStderr(), level, cfg.Log.Format)
	if loadErr != nil {
		slog.Warn("ignoring unreadable config", "path", config.FilePath(home), "err", loadErr)
	}
	slog.Debug("data dir resolved", "path", home, "source", source)
	return nil
}

// Service opens a Service over the resolved data directory.
func (c *Context) Service() (*service.Service, error) {
	return service.New(c.Home, c.Config)
}

// Printer returns a Printer for the command's stdout honouring --no-color
// and output.color.
func (c *Context) Printer(cmd *cobra.Command) *render.Printer {
	mode := render.ColorAuto
	if c.Config != nil {
		mode = c.Config.Output.Color
	}
	if c.NoColor {
		mode = render.ColorNever
	}
	out := cmd.OutOrStdout()
	return render.NewPrinter(out, render.ShouldColorize(out, mode))
}
