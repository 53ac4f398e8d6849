package install_test

import (
	"os"
	"path/filepath"
	"testing/fstest"
	"time"

	qt "github.com/frankban/quicktest"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// releaseV1 ships a nested command directory and an extra agent that
// releaseV2 drops.
func releaseV1() fstest.MapFS {
	return fstest.MapFS{
		"commands/shipkit/plan.md":          {Data: []byte("plan v1\n")},
		"commands/shipkit/old.md":           {Data: []byte("old\n")},
		"commands/shipkit/legacy/deep.md":   {Data: []byte("deep\n")},
		"agents/shipkit-planner.md":         {Data: []byte("planner v1\n")},
		"agents/shipkit-retired.md":         {Data: []byte("retired\n")},
		"shipkit/workflows/plan.md":         {Data: []byte("workflow v1\n")},
		"shipkit/bin/shipkit-statusline.sh": {Data: []byte("#!/bin/sh\necho shipkit\n"), Mode: 0o755},
	}
}

func releaseV2() fstest.MapFS {
	return fstest.MapFS{
		"commands/shipkit/plan.md":          {Data: []byte("plan v2\n")},
		"commands/shipkit/verify.md":        {Data: []byte("verify v2\n")},
		"agents/shipkit-planner.md":         {Data: []byte("planner v2\n")},
		"shipkit/workflows/plan.md":         {Data: []byte("workflow v2\n")},
		"shipkit/bin/shipkit-statusline.sh": {Data: []byte("#!/bin/sh\necho shipkit v2\n"), Mode: 0o755},
	}
}

func writeFile(c *qt.C, root, rel, content string) {
	c.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	c.Assert(os.MkdirAll(filepath.Dir(p), 0o755), qt.IsNil)
	c.Assert(os.WriteFile(p, []byte(content), 0o600), qt.IsNil)
}

func readFile(c *qt.C, root, rel string) string {
	c.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	c.Assert(err, qt.IsNil)
	return string(data)
}

func exists(root, rel string) bool {
	_, err := os.Lstat(filepath.Join(root, filepath.FromSlash(rel)))
	return err == nil
}
