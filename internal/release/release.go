// Package release exposes the content tree a shipkit build installs: the
// bundle compiled into the binary, or a directory supplied at run time.
package release

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/go-ports/shipkit/internal/layout"
)

// bundleFS holds the commands, agents and content files shipped with this
// build.
//
//go:embed all:bundle
var bundleFS embed.FS

// ErrMissingRoots is returned when a source directory contains none of the
// managed roots.
var ErrMissingRoots = errors.New("source has no commands, agents or content root")

// Bundled returns the release tree compiled into the binary.
func Bundled() fs.FS {
	sub, err := fs.Sub(bundleFS, "bundle")
	if err != nil {
		// fs.Sub only fails on an invalid path literal.
		panic(err)
	}
	return sub
}

// FromDir returns the release tree rooted at dir.
func FromDir(dir string) (fs.FS, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("release.FromDir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("release.FromDir: %s is not a directory", dir)
	}
	src := os.DirFS(dir)
	for _, root := range layout.ManagedRoots() {
		if HasRoot(src, root) {
			return src, nil
		}
	}
	return nil, fmt.Errorf("release.FromDir %s: %w", dir, ErrMissingRoots)
}

// HasRoot reports whether src contains root as a directory.
func HasRoot(src fs.FS, root string) bool {
	info, err := fs.Stat(src, root)
	return err == nil && info.IsDir()
}

// ManagedPaths returns the set of target-relative paths the release would
// install. It is computed from src on every call.
func ManagedPaths(src fs.FS) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	for _, root := range layout.ManagedRoots() {
		files, err := Files(src, root)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			set[f] = struct{}{}
		}
	}
	return set, nil
}

// Files lists the managed regular files under one root of src in sorted
// order. Owned roots are walked recursively; shared roots are read flat and
// filtered by the managed-name predicate. A missing root yields no files.
func Files(src fs.FS, root string) ([]string, error) {
	if !HasRoot(src, root) {
		return nil, nil
	}

	var files []string
	if !layout.IsOwnedRoot(root) {
		entries, err := fs.ReadDir(src, root)
		if err != nil {
			return nil, fmt.Errorf("release.Files %s: %w", root, err)
		}
		for _, e := range entries {
			rel := path.Join(root, e.Name())
			if e.Type().IsRegular() && layout.IsManaged(rel) {
				files = append(files, rel)
			}
		}
		return files, nil
	}

	err := fs.WalkDir(src, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && layout.IsManaged(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("release.Files %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// Version returns the release version recorded in a VERSION file at the top
// of src, or fallback when there is none.
func Version(src fs.FS, fallback string) string {
	data, err := fs.ReadFile(src, "VERSION")
	if err != nil {
		return fallback
	}
	if v := strings.TrimSpace(string(data)); v != "" {
		return v
	}
	return fallback
}
