// Package configcmd implements the `shipkit config` command group.
package configcmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/go-ports/shipkit/cmd/shipkit/shared"
	"github.com/go-ports/shipkit/internal/config"
)

// Command implements `shipkit config`.
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
		RunE:  c.runShow,
	}
	c.cmd.AddCommand(
		newSetTarget(ctx),
		newClearTarget(ctx),
	)
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) runShow(cmd *cobra.Command, _ []string) error {
	target, source := c.ctx.Target()
	cfgPath, err := config.Path()
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	data := map[string]any{
		"config_file":   cfgPath,
		"target_dir":    target,
		"target_source": source,
		"statusline":    cfg.StatusLine,
		"history":       cfg.History,
	}
	b, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(b))
	return nil
}

// ---------------------------------------------------------------------------
// config set-target
// ---------------------------------------------------------------------------

func newSetTarget(_ *shared.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "set-target <path>",
		Short: "Persist the target directory (used when --config-dir, --local and CLAUDE_CONFIG_DIR are unset)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved, err := config.SetPersistedTarget(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Persisted target directory: %s\n", resolved)
			fmt.Fprintln(out, "Override anytime with --config-dir or CLAUDE_CONFIG_DIR.")
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// config clear-target
// ---------------------------------------------------------------------------

func newClearTarget(_ *shared.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-target",
		Short: "Remove the persisted target directory from global config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			changed, err := config.ClearPersistedTarget()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if changed {
				fmt.Fprintln(out, "Cleared persisted target directory.")
			} else {
				fmt.Fprintln(out, "No persisted target directory was found.")
			}
			return nil
		},
	}
}
