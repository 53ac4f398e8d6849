package install

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/go-ports/shipkit/internal/layout"
	"github.com/go-ports/shipkit/internal/manifest"
	"github.com/go-ports/shipkit/internal/release"
)

// ---------------------------------------------------------------------------
// Owned roots
// ---------------------------------------------------------------------------

// copyOwnedRoot replaces root/dir with the matching subtree of src. Returns
// the number of files written. A release without the subtree leaves the
// target untouched.
func copyOwnedRoot(src fs.FS, root, dir string) (int, error) {
	if !release.HasRoot(src, dir) {
		slog.Debug("copyOwnedRoot: release has no such root, skipped", "root", dir)
		return 0, nil
	}

	dst := layout.Abs(root, dir)
	if err := os.RemoveAll(dst); err != nil {
		return 0, err
	}

	n := 0
	err := fs.WalkDir(src, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := layout.Abs(root, p)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := copyFile(src, p, target); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

// ---------------------------------------------------------------------------
// Shared roots
// ---------------------------------------------------------------------------

// copySharedRoot installs the managed files of a shared root by name. Files
// not matching the managed-name predicate are never read or written, and
// nothing already in the directory is removed.
func copySharedRoot(src fs.FS, root, dir string) (int, error) {
	if err := os.MkdirAll(layout.Abs(root, dir), 0o755); err != nil {
		return 0, err
	}

	files, err := release.Files(src, dir)
	if err != nil {
		return 0, err
	}
	for _, rel := range files {
		if err := copyFile(src, rel, layout.Abs(root, rel)); err != nil {
			return 0, err
		}
	}
	return len(files), nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// copyFile writes the file at srcPath in src to dst atomically. The file is
// executable when any execute bit is set on the source.
func copyFile(src fs.FS, srcPath, dst string) error {
	data, err := fs.ReadFile(src, srcPath)
	if err != nil {
		return err
	}
	info, err := fs.Stat(src, srcPath)
	if err != nil {
		return err
	}
	mode := os.FileMode(0o644)
	if info.Mode().Perm()&0o111 != 0 {
		mode = 0o755
	}
	if err := manifest.WriteFileAtomic(dst, data, mode); err != nil {
		return fmt.Errorf("write %s: %w", srcPath, err)
	}
	return nil
}

// writeVersion records the installed version inside the content root.
func writeVersion(root, version string) error {
	return manifest.WriteFileAtomic(layout.Abs(root, layout.VersionFile), []byte(version+"\n"), 0o644)
}

// readVersion returns the version marker under root, or "" when absent.
func readVersion(root string) string {
	data, err := os.ReadFile(layout.Abs(root, layout.VersionFile))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
