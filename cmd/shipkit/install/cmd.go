// Package installcmd implements the `shipkit install` command.
package installcmd

import (
	"io/fs"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/go-ports/shipkit/cmd/shipkit/shared"
	"github.com/go-ports/shipkit/internal/buildinfo"
	"github.com/go-ports/shipkit/internal/history"
	"github.com/go-ports/shipkit/internal/install"
	"github.com/go-ports/shipkit/internal/release"
	"github.com/go-ports/shipkit/internal/setup"
)

// Command implements `shipkit install`.
type Command struct {
	ctx        *shared.Context
	cmd        *cobra.Command
	source     string
	statusLine bool
	force      bool
}

// New creates the install command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "install",
		Short: "Install or upgrade shipkit in the target directory",
		Long: `Install or upgrade shipkit in the target directory.

On upgrade, files you edited since the last install are copied to
shipkit-local-patches/ before being replaced, and files the new release no
longer ships are removed. Files outside shipkit's directories are never
touched.`,
		Args: cobra.NoArgs,
		RunE: c.run,
	}
	c.cmd.Flags().StringVar(&c.source, "source", "", "Install from a release directory instead of the bundled release")
	c.cmd.Flags().BoolVar(&c.statusLine, "statusline", false, "Install the shipkit status line in settings.json")
	c.cmd.Flags().BoolVar(&c.force, "force", false, "Replace a status line configured by something else")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	target, source := c.ctx.Target()
	slog.Debug("resolved target", "path", target, "source", source)
	cfg := c.ctx.Config()
	p := c.ctx.Printer(cmd, false)

	var src fs.FS = release.Bundled()
	version := buildinfo.Version
	if c.source != "" {
		dir, err := release.FromDir(c.source)
		if err != nil {
			return err
		}
		src = dir
		version = release.Version(dir, version)
	}

	rep, err := install.New(install.Options{
		Target:  target,
		Source:  src,
		Version: version,
		Printer: p,
	}).Run()
	if err != nil {
		return err
	}

	if c.statusLine || cfg.StatusLine {
		res, err := setup.InstallStatusLine(target, c.force)
		switch {
		case err != nil:
			p.Warn("status line not installed: %v", err)
		case res.Changed:
			p.Success("%s", res.Message)
		default:
			p.Item("%s", res.Message)
		}
	}

	c.ctx.RecordRun(cfg, &history.Run{
		Action:      history.ActionInstall,
		Target:      target,
		Mode:        string(rep.Mode),
		FromVersion: rep.FromVersion,
		ToVersion:   rep.ToVersion,
		Transition:  string(rep.Transition),
		Files:       rep.Files,
		BackedUp:    len(rep.BackedUp),
		Removed:     len(rep.Orphans),
	})
	return nil
}
