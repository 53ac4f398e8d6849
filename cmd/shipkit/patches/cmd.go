// Package patchescmd implements the `shipkit patches` command.
package patchescmd

import (
	"github.com/spf13/cobra"

	"github.com/go-ports/shipkit/cmd/shipkit/shared"
	"github.com/go-ports/shipkit/internal/layout"
	"github.com/go-ports/shipkit/internal/patches"
)

// Command implements `shipkit patches`.
type Command struct {
	ctx      *shared.Context
	cmd      *cobra.Command
	jsonMode bool
}

// New creates the patches command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "patches",
		Short: "List local edits backed up by the last upgrade",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	c.cmd.Flags().BoolVar(&c.jsonMode, "json", false, "Output as JSON")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	target, _ := c.ctx.Target()
	p := c.ctx.Printer(cmd, c.jsonMode)

	rec, ok := patches.Load(target)
	if p.IsJSON() {
		if !ok {
			return p.WriteJSON(map[string]any{"files": []string{}})
		}
		return p.WriteJSON(rec)
	}
	if !ok {
		p.Println("No backed-up local edits in " + target)
		return nil
	}

	p.KeyValue("Backed up", rec.BackedUpAt)
	p.KeyValue("From version", rec.FromVersion)
	p.KeyValue("Location", patches.Dir(target))
	p.Step("Files")
	for _, f := range rec.Files {
		p.Item("%s", f)
	}
	p.Println()
	p.Println("Run /shipkit:reapply-patches in your agent to merge them into the installed release.")
	p.Println("The backup stays in " + layout.PatchesDir + " until you uninstall.")
	return nil
}
