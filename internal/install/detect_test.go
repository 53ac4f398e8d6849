package install_test

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/shipkit/internal/install"
	"github.com/go-ports/shipkit/internal/manifest"
)

func TestClassify(t *testing.T) {
	c := qt.New(t)
	root := c.TempDir()
	writeFile(c, root, "commands/shipkit/plan.md", "plan\n")
	c.Assert(os.MkdirAll(filepath.Join(root, "commands", "shipkit", "now-a-dir"), 0o755), qt.IsNil)
	digest := manifest.Digest([]byte("plan\n"))

	cases := []struct {
		name   string
		rel    string
		digest string
		want   install.FileStatus
	}{
		{"same content", "commands/shipkit/plan.md", digest, install.StatusUnmodified},
		{"different content", "commands/shipkit/plan.md", manifest.Digest([]byte("other")), install.StatusModified},
		{"file gone", "commands/shipkit/gone.md", digest, install.StatusMissing},
		{"replaced by directory", "commands/shipkit/now-a-dir", digest, install.StatusMissing},
	}
	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			got, err := install.Classify(root, tc.rel, tc.digest)
			c.Assert(err, qt.IsNil)
			c.Assert(got, qt.Equals, tc.want)
		})
	}
}

func TestDetectChanges(t *testing.T) {
	c := qt.New(t)
	root := c.TempDir()
	writeFile(c, root, "shipkit/a.md", "a\n")
	writeFile(c, root, "shipkit/b.md", "b edited\n")
	writeFile(c, root, "CLAUDE.md", "notes\n")

	l := &manifest.Ledger{
		Version: "1.0.0",
		Files: map[string]string{
			"shipkit/a.md": manifest.Digest([]byte("a\n")),
			"shipkit/b.md": manifest.Digest([]byte("b\n")),
			"shipkit/c.md": manifest.Digest([]byte("c\n")),
			"CLAUDE.md":    manifest.Digest([]byte("other\n")),
		},
	}
	ch, err := install.DetectChanges(root, l)
	c.Assert(err, qt.IsNil)
	c.Assert(ch.Unmodified, qt.DeepEquals, []string{"shipkit/a.md"})
	c.Assert(ch.Modified, qt.DeepEquals, []string{"shipkit/b.md"})
	c.Assert(ch.Missing, qt.DeepEquals, []string{"shipkit/c.md"})
}
