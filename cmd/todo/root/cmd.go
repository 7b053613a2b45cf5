// Package rootcmd wires the root cobra.Command for the todo CLI binary.
package rootcmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	addcmd "github.com/go-ports/todo/cmd/todo/add"
	clearcmd "github.com/go-ports/todo/cmd/todo/clear"
	configcmd "github.com/go-ports/todo/cmd/todo/config"
	donecmd "github.com/go-ports/todo/cmd/todo/done"
	historycmd "github.com/go-ports/todo/cmd/todo/history"
	listcmd "github.com/go-ports/todo/cmd/todo/list"
	mcpcmd "github.com/go-ports/todo/cmd/todo/mcp"
	removecmd "github.com/go-ports/todo/cmd/todo/remove"
	setupcmd "github.com/go-ports/todo/cmd/todo/setup"
	"github.com/go-ports/todo/cmd/todo/shared"
	uninstallcmd "github.com/go-ports/todo/cmd/todo/uninstall"
	"github.com/go-ports/todo/internal/buildinfo"
)

// ErrMissingCommand is returned when todo is run without a verb.
var ErrMissingCommand = errors.New("missing command")

// New creates and returns the root cobra.Command for the todo CLI.
func New() *cobra.Command {
	ctx := &shared.Context{}

	root := &cobra.Command{
		Use:           "todo",
		Short:         "A small personal task list for the terminal",
		Version:       buildinfo.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.Init(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
			return fmt.Errorf("%w; run 'todo --help' for usage", ErrMissingCommand)
		},
	}
	root.SetVersionTemplate("todo {{.Version}}\n")

	root.PersistentFlags().StringVar(
		&ctx.DataDir, "data-dir", "",
		"Override data directory (default: $TODO_DATA_DIR env → persisted config → platform data dir)",
	)
	root.PersistentFlags().BoolVar(&ctx.NoColor, "no-color", false, "Disable coloured output")
	root.PersistentFlags().BoolVarP(&ctx.Verbose, "verbose", "v", false, "Enable debug logging on stderr")

	root.AddCommand(
		addcmd.New(ctx).Cmd(),
		listcmd.New(ctx).Cmd(),
		donecmd.New(ctx).Cmd(),
		removecmd.New(ctx).Cmd(),
		clearcmd.New(ctx).Cmd(),
		historycmd.New(ctx).Cmd(),
		configcmd.New(ctx).Cmd(),
		mcpcmd.New(ctx).Cmd(),
		setupcmd.New(ctx).Cmd(),
		uninstallcmd.New(ctx).Cmd(),
	)

	return root
}
