// Package shared holds the context passed to all CLI commands.
package shared

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-ports/shipkit/internal/config"
	"github.com/go-ports/shipkit/internal/history"
	"github.com/go-ports/shipkit/internal/output"
)

// Context carries global CLI state (flags set on the root command).
type Context struct {
	// TargetDir overrides the configuration directory to install into.
	// When empty, resolution falls through to --local → CLAUDE_CONFIG_DIR env
	// var → persisted config → ~/.claude.
	TargetDir string
	// Local installs into ./.claude in the working directory.
	Local bool
	// Verbose enables debug logging on stderr.
	Verbose bool
}

// Target resolves the target directory and the source of the resolution.
func (c *Context) Target() (path, source string) {
	return config.ResolveTarget(c.TargetDir, c.Local)
}

// Config loads the global config. An unreadable file falls back to the
// defaults with a warning.
func (*Context) Config() *config.Config {
	cfg, err := config.LoadGlobal()
	if err != nil {
		slog.Warn("config unreadable, using defaults", "err", err)
		return config.Default()
	}
	return cfg
}

// Printer returns a printer on cmd's output streams.
//
//revive:disable:flag-parameter
func (*Context) Printer(cmd *cobra.Command, jsonMode bool) *output.Printer {
	out := cmd.OutOrStdout()
	return output.NewPrinter(out, jsonMode, output.IsTTY(out)).WithStderr(cmd.ErrOrStderr())
}

//revive:enable:flag-parameter

// HistoryPath returns the history database location.
func (*Context) HistoryPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return history.Path(dir), nil
}

// OpenHistory opens the history database for reading. Returns (nil, nil)
// when no run has been recorded yet.
func (c *Context) OpenHistory() (*history.DB, error) {
	p, err := c.HistoryPath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return history.Open(p)
}

// RecordRun appends run to the history database when history is enabled.
// Failures are logged and never fail the command.
func (c *Context) RecordRun(cfg *config.Config, run *history.Run) {
	if !cfg.History {
		return
	}
	p, err := c.HistoryPath()
	if err != nil {
		slog.Warn("history: resolve path", "err", err)
		return
	}
	db, err := history.Open(p)
	if err != nil {
		slog.Warn("history: open", "err", err)
		return
	}
	defer db.Close()
	if _, err := db.Record(run); err != nil {
		slog.Warn("history: record run", "err", err)
	}
}
