// End-to-end tests that exercise the full shipkit CLI by running the root
// command in-process against temporary target and config directories.
// Output is captured via cobra's SetOut so os.Stdout is never touched.
package rootcmd_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	rootcmd "github.com/go-ports/shipkit/cmd/shipkit/root"
	"github.com/go-ports/shipkit/internal/checkers"
	"github.com/go-ports/shipkit/internal/release"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// runCmd executes the root command with the provided args and returns the
// captured stdout output along with any execution error.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	root := rootcmd.New()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	execErr := root.ExecuteContext(context.Background())

	return out.String(), execErr
}

// env isolates the global config and returns a fresh target directory.
func env(t *testing.T) (target, configHome string) {
	t.Helper()
	configHome = t.TempDir()
	t.Setenv("SHIPKIT_CONFIG_HOME", configHome)
	t.Setenv("CLAUDE_CONFIG_DIR", "")
	return filepath.Join(t.TempDir(), ".claude"), configHome
}

func writeFile(c *qt.C, root, rel, content string) {
	c.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	c.Assert(os.MkdirAll(filepath.Dir(p), 0o755), qt.IsNil)
	c.Assert(os.WriteFile(p, []byte(content), 0o600), qt.IsNil)
}

func exists(root, rel string) bool {
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	return err == nil
}

// ---------------------------------------------------------------------------
// Help
// ---------------------------------------------------------------------------

func TestHelp_HappyPath(t *testing.T) {
	c := qt.New(t)

	out, err := runCmd(t, "--help")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "shipkit")
	c.Assert(out, qt.Contains, "install")
	c.Assert(out, qt.Contains, "--config-dir")
}

// ---------------------------------------------------------------------------
// Install
// ---------------------------------------------------------------------------

func TestInstall_HappyPath(t *testing.T) {
	c := qt.New(t)
	target, _ := env(t)

	out, err := runCmd(t, "--config-dir", target, "install")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "Installing shipkit")
	c.Assert(out, qt.Contains, "Installed")

	c.Assert(exists(target, "commands/shipkit/plan.md"), qt.IsTrue)
	c.Assert(exists(target, "agents/shipkit-planner.md"), qt.IsTrue)
	c.Assert(exists(target, "shipkit/VERSION"), qt.IsTrue)
	c.Assert(exists(target, "shipkit-file-manifest.json"), qt.IsTrue)
	c.Assert(exists(target, "settings.json"), qt.IsFalse)

	out, err = runCmd(t, "--config-dir", target, "status", "--json")
	c.Assert(err, qt.IsNil)
	c.Assert(out, checkers.JSONPathEquals("$.installed"), true)
	c.Assert(out, checkers.JSONPathEquals("$.modified"), []any{})
}

func TestInstall_UpgradeBacksUpEdits(t *testing.T) {
	c := qt.New(t)
	target, _ := env(t)

	_, err := runCmd(t, "--config-dir", target, "install")
	c.Assert(err, qt.IsNil)
	writeFile(c, target, "commands/shipkit/plan.md", "my tweaks\n")
	writeFile(c, target, "agents/my-reviewer.md", "mine\n")

	out, err := runCmd(t, "--config-dir", target, "install")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "Backed up 1 locally modified file(s)")
	c.Assert(out, qt.Contains, "commands/shipkit/plan.md")

	backup, err := os.ReadFile(filepath.Join(target, "shipkit-local-patches", "commands", "shipkit", "plan.md"))
	c.Assert(err, qt.IsNil)
	c.Assert(string(backup), qt.Equals, "my tweaks\n")

	out, err = runCmd(t, "--config-dir", target, "patches")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "commands/shipkit/plan.md")
	c.Assert(out, qt.Contains, "/shipkit:reapply-patches")

	mine, err := os.ReadFile(filepath.Join(target, "agents", "my-reviewer.md"))
	c.Assert(err, qt.IsNil)
	c.Assert(string(mine), qt.Equals, "mine\n")
}

func TestInstall_FromSourceDir(t *testing.T) {
	c := qt.New(t)
	target, _ := env(t)

	src := t.TempDir()
	writeFile(c, src, "VERSION", "2.0.0\n")
	writeFile(c, src, "commands/shipkit/only.md", "only\n")

	_, err := runCmd(t, "--config-dir", target, "install")
	c.Assert(err, qt.IsNil)
	out, err := runCmd(t, "--config-dir", target, "install", "--source", src)
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "Removed")

	c.Assert(exists(target, "commands/shipkit/only.md"), qt.IsTrue)
	c.Assert(exists(target, "commands/shipkit/plan.md"), qt.IsFalse)
	c.Assert(exists(target, "agents/shipkit-planner.md"), qt.IsFalse)

	out, err = runCmd(t, "--config-dir", target, "status", "--json")
	c.Assert(err, qt.IsNil)
	c.Assert(out, checkers.JSONPathEquals("$.version"), "2.0.0")
}

func TestInstall_FailurePath(t *testing.T) {
	c := qt.New(t)
	target, _ := env(t)

	c.Run("source without managed roots", func(c *qt.C) {
		_, err := runCmd(t, "--config-dir", target, "install", "--source", t.TempDir())
		c.Assert(errors.Is(err, release.ErrMissingRoots), qt.IsTrue)
		c.Assert(exists(target, ""), qt.IsFalse)
	})

	c.Run("unexpected argument", func(c *qt.C) {
		_, err := runCmd(t, "--config-dir", target, "install", "extra")
		c.Assert(err, qt.IsNotNil)
	})
}

func TestInstall_StatusLine(t *testing.T) {
	c := qt.New(t)
	target, _ := env(t)

	_, err := runCmd(t, "--config-dir", target, "install", "--statusline")
	c.Assert(err, qt.IsNil)

	settings, err := os.ReadFile(filepath.Join(target, "settings.json"))
	c.Assert(err, qt.IsNil)
	c.Assert(string(settings), qt.Contains, "shipkit-statusline.sh")

	out, err := runCmd(t, "--config-dir", target, "status", "--json")
	c.Assert(err, qt.IsNil)
	c.Assert(out, checkers.JSONPathEquals("$.statusline"), true)
}

// ---------------------------------------------------------------------------
// Uninstall
// ---------------------------------------------------------------------------

func TestUninstall_HappyPath(t *testing.T) {
	c := qt.New(t)
	target, _ := env(t)
	writeFile(c, target, "agents/my-reviewer.md", "mine\n")
	writeFile(c, target, "CLAUDE.md", "notes\n")

	_, err := runCmd(t, "--config-dir", target, "install", "--statusline")
	c.Assert(err, qt.IsNil)
	out, err := runCmd(t, "--config-dir", target, "uninstall")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "Removed")

	c.Assert(exists(target, "commands/shipkit"), qt.IsFalse)
	c.Assert(exists(target, "shipkit"), qt.IsFalse)
	c.Assert(exists(target, "agents/shipkit-planner.md"), qt.IsFalse)
	c.Assert(exists(target, "shipkit-file-manifest.json"), qt.IsFalse)
	c.Assert(exists(target, "settings.json"), qt.IsFalse)
	c.Assert(exists(target, "agents/my-reviewer.md"), qt.IsTrue)
	c.Assert(exists(target, "CLAUDE.md"), qt.IsTrue)
}

func TestUninstall_MissingTarget(t *testing.T) {
	c := qt.New(t)
	target, configHome := env(t)

	out, err := runCmd(t, "--config-dir", target, "uninstall")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "Nothing to remove")
	c.Assert(exists(configHome, "history.db"), qt.IsFalse)
}

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

func TestHistory_HappyPath(t *testing.T) {
	c := qt.New(t)
	target, _ := env(t)

	out, err := runCmd(t, "--config-dir", target, "history")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "No runs recorded.")

	_, err = runCmd(t, "--config-dir", target, "install")
	c.Assert(err, qt.IsNil)
	_, err = runCmd(t, "--config-dir", target, "uninstall")
	c.Assert(err, qt.IsNil)

	out, err = runCmd(t, "--config-dir", target, "history")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "ACTION")
	c.Assert(out, qt.Contains, "install")
	c.Assert(out, qt.Contains, "uninstall")

	out, err = runCmd(t, "--config-dir", target, "history", "--json", "--limit", "1")
	c.Assert(err, qt.IsNil)
	c.Assert(out, checkers.JSONPathEquals("$[0].action"), "uninstall")
}

func TestHistory_Disabled(t *testing.T) {
	c := qt.New(t)
	target, configHome := env(t)
	writeFile(c, configHome, "config.yaml", "history: false\n")

	_, err := runCmd(t, "--config-dir", target, "install")
	c.Assert(err, qt.IsNil)
	c.Assert(exists(configHome, "history.db"), qt.IsFalse)
}

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

func TestConfig_TargetRoundTrip(t *testing.T) {
	c := qt.New(t)
	_, _ = env(t)
	persisted := t.TempDir()

	out, err := runCmd(t, "config", "set-target", persisted)
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, persisted)

	out, err = runCmd(t, "config")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "target_source: config")
	c.Assert(out, qt.Contains, "target_dir: "+persisted)

	_, err = runCmd(t, "install")
	c.Assert(err, qt.IsNil)
	c.Assert(exists(persisted, "commands/shipkit/plan.md"), qt.IsTrue)

	out, err = runCmd(t, "config", "clear-target")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "Cleared")
}

func TestVersion_HappyPath(t *testing.T) {
	c := qt.New(t)

	out, err := runCmd(t, "--version")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "shipkit version dev")
}
