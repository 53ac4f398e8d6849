// Package rootcmd wires the root cobra.Command for the shipkit CLI binary.
package rootcmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	configcmd "github.com/go-ports/shipkit/cmd/shipkit/config"
	historycmd "github.com/go-ports/shipkit/cmd/shipkit/history"
	installcmd "github.com/go-ports/shipkit/cmd/shipkit/install"
	mcpcmd "github.com/go-ports/shipkit/cmd/shipkit/mcp"
	patchescmd "github.com/go-ports/shipkit/cmd/shipkit/patches"
	"github.com/go-ports/shipkit/cmd/shipkit/shared"
	statuscmd "github.com/go-ports/shipkit/cmd/shipkit/status"
	uninstallcmd "github.com/go-ports/shipkit/cmd/shipkit/uninstall"
	"github.com/go-ports/shipkit/internal/buildinfo"
)

// New creates and returns the root cobra.Command for the shipkit CLI.
func New() *cobra.Command {
	ctx := &shared.Context{}

	root := &cobra.Command{
		Use:           "shipkit",
		Short:         "shipkit — install and upgrade agent commands, agents and workflows",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", buildinfo.Version, buildinfo.GitCommit, buildinfo.BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if ctx.Verbose {
				slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})))
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}

	root.PersistentFlags().StringVar(
		&ctx.TargetDir, "config-dir", "",
		"Target configuration directory (default: --local → $CLAUDE_CONFIG_DIR → persisted config → ~/.claude)",
	)
	root.PersistentFlags().BoolVar(&ctx.Local, "local", false, "Use ./.claude in the current directory")
	root.PersistentFlags().BoolVar(&ctx.Verbose, "verbose", false, "Log debug diagnostics to stderr")

	root.AddCommand(
		installcmd.New(ctx).Cmd(),
		uninstallcmd.New(ctx).Cmd(),
		statuscmd.New(ctx).Cmd(),
		patchescmd.New(ctx).Cmd(),
		historycmd.New(ctx).Cmd(),
		configcmd.New(ctx).Cmd(),
		mcpcmd.New(ctx).Cmd(),
	)

	return root
}
