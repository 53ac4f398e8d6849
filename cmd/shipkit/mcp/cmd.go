// Package mcpcmd implements the `shipkit mcp` command.
package mcpcmd

import (
	"github.com/spf13/cobra"

	"github.com/go-ports/shipkit/cmd/shipkit/shared"
	internalmcp "github.com/go-ports/shipkit/internal/mcp"
)

// Command implements `shipkit mcp`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the mcp command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "mcp",
		Short: "Start the shipkit MCP server (stdio transport)",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	target, _ := c.ctx.Target()
	historyPath, err := c.ctx.HistoryPath()
	if err != nil {
		return err
	}
	return internalmcp.Serve(cmd.Context(), internalmcp.Options{
		Target:      target,
		HistoryPath: historyPath,
	})
}
