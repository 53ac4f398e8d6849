// Package uninstallcmd implements the `shipkit uninstall` command.
package uninstallcmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/go-ports/shipkit/cmd/shipkit/shared"
	"github.com/go-ports/shipkit/internal/history"
	"github.com/go-ports/shipkit/internal/install"
)

// Command implements `shipkit uninstall`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the uninstall command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "uninstall",
		Short: "Remove shipkit from the target directory, keeping your own files",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	target, source := c.ctx.Target()
	slog.Debug("resolved target", "path", target, "source", source)

	rep, err := install.Uninstall(target, c.ctx.Printer(cmd, false))
	if err != nil {
		return err
	}
	if len(rep.Removed) == 0 {
		return nil
	}
	c.ctx.RecordRun(c.ctx.Config(), &history.Run{
		Action:  history.ActionUninstall,
		Target:  target,
		Removed: len(rep.Removed),
	})
	return nil
}
