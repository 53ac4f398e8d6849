// Package statuscmd implements the `shipkit status` command.
package statuscmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/go-ports/shipkit/cmd/shipkit/shared"
	"github.com/go-ports/shipkit/internal/install"
	"github.com/go-ports/shipkit/internal/layout"
)

// Command implements `shipkit status`.
type Command struct {
	ctx      *shared.Context
	cmd      *cobra.Command
	jsonMode bool
}

// New creates the status command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "status",
		Short: "Show the installed version and any local edits to shipped files",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	c.cmd.Flags().BoolVar(&c.jsonMode, "json", false, "Output as JSON")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	target, source := c.ctx.Target()
	st, err := install.Inspect(target)
	if err != nil {
		return err
	}

	p := c.ctx.Printer(cmd, c.jsonMode)
	if p.IsJSON() {
		return p.WriteJSON(st)
	}

	p.KeyValue("Target", fmt.Sprintf("%s (%s)", target, source))
	if !st.Installed {
		p.KeyValue("Installed", "no")
		if st.Version != "" {
			p.Warn("found %s (%s) but no readable %s; the next install re-hashes everything", layout.VersionFile, st.Version, layout.ManifestFile)
		}
		return nil
	}
	p.KeyValue("Installed", "yes")
	p.KeyValue("Version", st.Version)
	p.KeyValue("Installed at", st.InstalledAt)
	p.KeyValue("Files", strconv.Itoa(st.Files))
	p.KeyValue("Modified", strconv.Itoa(len(st.Modified)))
	for _, f := range st.Modified {
		p.Item("%s", f)
	}
	p.KeyValue("Missing", strconv.Itoa(len(st.Missing)))
	for _, f := range st.Missing {
		p.Item("%s", f)
	}
	p.KeyValue("Status line", yesNo(st.StatusLine))
	if st.Patches != nil {
		p.KeyValue("Patch backup", fmt.Sprintf("%d file(s) from %s, run `shipkit patches` for details", len(st.Patches.Files), st.Patches.FromVersion))
	}
	return nil
}

//revive:disable:flag-parameter
func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

//revive:enable:flag-parameter
