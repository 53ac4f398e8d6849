package setup_test

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/shipkit/internal/checkers"
	"github.com/go-ports/shipkit/internal/setup"
)

func writeSettings(c *qt.C, claudeHome, content string) {
	c.Helper()
	c.Assert(os.MkdirAll(claudeHome, 0o755), qt.IsNil)
	c.Assert(os.WriteFile(filepath.Join(claudeHome, "settings.json"), []byte(content), 0o600), qt.IsNil)
}

func readSettings(c *qt.C, claudeHome string) []byte {
	c.Helper()
	data, err := os.ReadFile(filepath.Join(claudeHome, "settings.json"))
	c.Assert(err, qt.IsNil)
	return data
}

// ---------------------------------------------------------------------------
// InstallStatusLine
// ---------------------------------------------------------------------------

func TestInstallStatusLine_HappyPath(t *testing.T) {
	c := qt.New(t)

	c.Run("first install creates settings.json with shipkit status line", func(c *qt.C) {
		claudeHome := filepath.Join(c.TempDir(), ".claude")

		result, err := setup.InstallStatusLine(claudeHome, false)
		c.Assert(err, qt.IsNil)
		c.Assert(result.Changed, qt.IsTrue)

		data := readSettings(c, claudeHome)
		c.Assert(data, checkers.JSONPathEquals("$.statusLine.type"), "command")
		c.Assert(setup.IsStatusLineInstalled(claudeHome), qt.IsTrue)
	})

	c.Run("second install is idempotent", func(c *qt.C) {
		claudeHome := c.TempDir()

		_, err := setup.InstallStatusLine(claudeHome, false)
		c.Assert(err, qt.IsNil)
		result, err := setup.InstallStatusLine(claudeHome, false)
		c.Assert(err, qt.IsNil)
		c.Assert(result.Changed, qt.IsFalse)
		c.Assert(result.Message, qt.Equals, "Status line already installed")
	})

	c.Run("other settings are preserved", func(c *qt.C) {
		claudeHome := c.TempDir()
		writeSettings(c, claudeHome, `{"model":"opus","hooks":{}}`)

		_, err := setup.InstallStatusLine(claudeHome, false)
		c.Assert(err, qt.IsNil)
		c.Assert(readSettings(c, claudeHome), checkers.JSONPathEquals("$.model"), "opus")
	})
}

func TestInstallStatusLine_ForeignStatusLine(t *testing.T) {
	c := qt.New(t)

	c.Run("left alone without force", func(c *qt.C) {
		claudeHome := c.TempDir()
		writeSettings(c, claudeHome, `{"statusLine":{"type":"command","command":"my-line.sh"}}`)

		result, err := setup.InstallStatusLine(claudeHome, false)
		c.Assert(err, qt.IsNil)
		c.Assert(result.Changed, qt.IsFalse)
		c.Assert(readSettings(c, claudeHome), checkers.JSONPathEquals("$.statusLine.command"), "my-line.sh")
	})

	c.Run("replaced with force", func(c *qt.C) {
		claudeHome := c.TempDir()
		writeSettings(c, claudeHome, `{"statusLine":{"type":"command","command":"my-line.sh"}}`)

		result, err := setup.InstallStatusLine(claudeHome, true)
		c.Assert(err, qt.IsNil)
		c.Assert(result.Changed, qt.IsTrue)
		c.Assert(setup.IsStatusLineInstalled(claudeHome), qt.IsTrue)
	})

	c.Run("malformed settings are not overwritten", func(c *qt.C) {
		claudeHome := c.TempDir()
		writeSettings(c, claudeHome, `{not json`)

		_, err := setup.InstallStatusLine(claudeHome, true)
		c.Assert(err, qt.ErrorMatches, `setup.InstallStatusLine: .* is not valid JSON: .*`)
		c.Assert(string(readSettings(c, claudeHome)), qt.Equals, `{not json`)
	})
}

// ---------------------------------------------------------------------------
// UninstallStatusLine
// ---------------------------------------------------------------------------

func TestUninstallStatusLine(t *testing.T) {
	c := qt.New(t)

	c.Run("nothing to remove when settings.json is missing", func(c *qt.C) {
		result, err := setup.UninstallStatusLine(c.TempDir())
		c.Assert(err, qt.IsNil)
		c.Assert(result.Message, qt.Equals, "Nothing to remove")
	})

	c.Run("foreign status line survives", func(c *qt.C) {
		claudeHome := c.TempDir()
		writeSettings(c, claudeHome, `{"statusLine":{"type":"command","command":"my-line.sh"}}`)

		result, err := setup.UninstallStatusLine(claudeHome)
		c.Assert(err, qt.IsNil)
		c.Assert(result.Changed, qt.IsFalse)
		c.Assert(readSettings(c, claudeHome), checkers.JSONPathEquals("$.statusLine.command"), "my-line.sh")
	})

	c.Run("shipkit status line is removed and other keys kept", func(c *qt.C) {
		claudeHome := c.TempDir()
		writeSettings(c, claudeHome, `{"model":"opus"}`)
		_, err := setup.InstallStatusLine(claudeHome, false)
		c.Assert(err, qt.IsNil)

		result, err := setup.UninstallStatusLine(claudeHome)
		c.Assert(err, qt.IsNil)
		c.Assert(result.Changed, qt.IsTrue)
		c.Assert(setup.IsStatusLineInstalled(claudeHome), qt.IsFalse)
		c.Assert(readSettings(c, claudeHome), checkers.JSONPathEquals("$.model"), "opus")
	})

	c.Run("settings.json created only for the status line is removed", func(c *qt.C) {
		claudeHome := c.TempDir()
		_, err := setup.InstallStatusLine(claudeHome, false)
		c.Assert(err, qt.IsNil)

		_, err = setup.UninstallStatusLine(claudeHome)
		c.Assert(err, qt.IsNil)
		_, err = os.Stat(filepath.Join(claudeHome, "settings.json"))
		c.Assert(os.IsNotExist(err), qt.IsTrue)
	})
}
