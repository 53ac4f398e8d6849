// Package historycmd implements the `shipkit history` command.
package historycmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/go-ports/shipkit/cmd/shipkit/shared"
	"github.com/go-ports/shipkit/internal/history"
)

// Command implements `shipkit history`.
type Command struct {
	ctx      *shared.Context
	cmd      *cobra.Command
	limit    int
	all      bool
	jsonMode bool
}

// New creates the history command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "history",
		Short: "List recorded install and uninstall runs",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	c.cmd.Flags().IntVarP(&c.limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	c.cmd.Flags().BoolVar(&c.all, "all", false, "Include runs against every target directory")
	c.cmd.Flags().BoolVar(&c.jsonMode, "json", false, "Output as JSON")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	p := c.ctx.Printer(cmd, c.jsonMode)

	target := ""
	if !c.all {
		target, _ = c.ctx.Target()
	}

	runs := make([]history.Run, 0)
	db, err := c.ctx.OpenHistory()
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		list, err := db.List(c.limit, target)
		if err != nil {
			return err
		}
		runs = append(runs, list...)
	}

	if p.IsJSON() {
		return p.WriteJSON(runs)
	}
	if len(runs) == 0 {
		p.Println("No runs recorded.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Action,
			versionCell(r),
			strconv.Itoa(r.Files),
			strconv.Itoa(r.BackedUp),
			strconv.Itoa(r.Removed),
			r.Target,
		})
	}
	p.Table([]string{"WHEN", "ACTION", "VERSION", "FILES", "BACKED UP", "REMOVED", "TARGET"}, rows)
	return nil
}

func versionCell(r history.Run) string {
	switch {
	case r.Action != history.ActionInstall:
		return "-"
	case r.FromVersion != "" && r.FromVersion != r.ToVersion:
		return r.FromVersion + " -> " + r.ToVersion
	default:
		return r.ToVersion
	}
}
