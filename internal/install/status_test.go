package install_test

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/shipkit/internal/install"
)

func TestInspect(t *testing.T) {
	c := qt.New(t)

	c.Run("empty target", func(c *qt.C) {
		st, err := install.Inspect(c.TempDir())
		c.Assert(err, qt.IsNil)
		c.Assert(st.Installed, qt.IsFalse)
		c.Assert(st.Version, qt.Equals, "")
		c.Assert(st.Patches, qt.IsNil)
	})

	c.Run("installed with local edits", func(c *qt.C) {
		target := c.TempDir()
		run(c, target, install.Options{Source: releaseV1(), Version: "1.0.0"})
		writeFile(c, target, "agents/shipkit-planner.md", "mine\n")
		c.Assert(os.Remove(filepath.Join(target, "commands", "shipkit", "old.md")), qt.IsNil)

		st, err := install.Inspect(target)
		c.Assert(err, qt.IsNil)
		c.Assert(st.Installed, qt.IsTrue)
		c.Assert(st.Version, qt.Equals, "1.0.0")
		c.Assert(st.InstalledAt, qt.Equals, "2026-03-01T12:00:00Z")
		c.Assert(st.Files, qt.Equals, 7)
		c.Assert(st.Modified, qt.DeepEquals, []string{"agents/shipkit-planner.md"})
		c.Assert(st.Missing, qt.DeepEquals, []string{"commands/shipkit/old.md"})
		c.Assert(st.StatusLine, qt.IsFalse)
	})

	c.Run("patch record is surfaced", func(c *qt.C) {
		target := c.TempDir()
		run(c, target, install.Options{Source: releaseV1(), Version: "1.0.0"})
		writeFile(c, target, "commands/shipkit/plan.md", "mine\n")
		run(c, target, install.Options{Source: releaseV2(), Version: "1.1.0"})

		st, err := install.Inspect(target)
		c.Assert(err, qt.IsNil)
		c.Assert(st.Patches, qt.Not(qt.IsNil))
		c.Assert(st.Patches.FromVersion, qt.Equals, "1.0.0")
		c.Assert(st.Patches.Files, qt.DeepEquals, []string{"commands/shipkit/plan.md"})
	})

	c.Run("ledger lost but version marker kept", func(c *qt.C) {
		target := c.TempDir()
		run(c, target, install.Options{Source: releaseV1(), Version: "1.0.0"})
		c.Assert(os.Remove(filepath.Join(target, "shipkit-file-manifest.json")), qt.IsNil)

		st, err := install.Inspect(target)
		c.Assert(err, qt.IsNil)
		c.Assert(st.Installed, qt.IsFalse)
		c.Assert(st.Version, qt.Equals, "1.0.0")
	})
}
