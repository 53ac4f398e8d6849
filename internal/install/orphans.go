package install

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-ports/shipkit/internal/layout"
	"github.com/go-ports/shipkit/internal/manifest"
)

// FindOrphans returns the paths tracked by prior that the new release no
// longer ships, sorted. Tracked paths outside the managed roots are never
// orphans.
func FindOrphans(prior *manifest.Ledger, managed map[string]struct{}) []string {
	if prior == nil {
		return nil
	}
	var orphans []string
	for _, rel := range prior.Paths() {
		if !manifest.ValidPath(rel) {
			slog.Warn("FindOrphans: ignoring path outside the managed roots", "path", rel)
			continue
		}
		if _, ok := managed[rel]; !ok {
			orphans = append(orphans, rel)
		}
	}
	return orphans
}

// ReclaimOrphans deletes each orphan still present under root, then removes
// directories left empty. Directories are only ever removed when empty.
// Returns the orphans that were actually deleted.
func ReclaimOrphans(root string, orphans []string) ([]string, error) {
	var removed []string
	parents := make(map[string]struct{})
	for _, rel := range orphans {
		p := layout.Abs(root, rel)
		info, err := os.Lstat(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("stat %s: %w", rel, err)
		}
		if info.IsDir() {
			slog.Debug("ReclaimOrphans: tracked path is now a directory, skipped", "path", rel)
			continue
		}
		if err := os.Remove(p); err != nil {
			return removed, fmt.Errorf("remove %s: %w", rel, err)
		}
		removed = append(removed, rel)
		parents[path.Dir(rel)] = struct{}{}
	}

	if err := pruneOwnedRoots(root); err != nil {
		return removed, err
	}
	dirs := make([]string, 0, len(parents))
	for d := range parents {
		dirs = append(dirs, d)
	}
	// Deepest first so a parent sees its children already gone.
	sort.Slice(dirs, func(i, j int) bool { return depth(dirs[i]) > depth(dirs[j]) })
	for _, d := range dirs {
		if err := pruneUpward(root, d); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// pruneOwnedRoots removes every empty directory inside the owned roots,
// deepest first, including the roots themselves.
func pruneOwnedRoots(root string) error {
	for _, dir := range layout.OwnedRoots {
		base := layout.Abs(root, dir)
		var found []string
		err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) && p == base {
					return fs.SkipDir
				}
				return err
			}
			if d.IsDir() {
				found = append(found, p)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("prune %s: %w", dir, err)
		}
		// WalkDir visits parents before children, so reverse order is
		// bottom-up.
		for i := len(found) - 1; i >= 0; i-- {
			if _, err := removeIfEmpty(found[i]); err != nil {
				return fmt.Errorf("prune %s: %w", dir, err)
			}
		}
	}
	return nil
}

// pruneUpward removes rel and its ancestors while they are empty, stopping
// at the target root and at shared roots.
func pruneUpward(root, rel string) error {
	for rel != "." && rel != "/" && rel != "" && !isSharedRoot(rel) {
		ok, err := removeIfEmpty(layout.Abs(root, rel))
		if err != nil {
			return fmt.Errorf("prune %s: %w", rel, err)
		}
		if !ok {
			return nil
		}
		rel = path.Dir(rel)
	}
	return nil
}

// removeIfEmpty removes dir when it exists and has no entries. A non-empty or
// missing directory is not an error.
func removeIfEmpty(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		// Already gone: keep walking up.
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if len(entries) > 0 {
		return false, nil
	}
	if err := os.Remove(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	return true, nil
}

func isSharedRoot(rel string) bool {
	for _, r := range layout.SharedRoots {
		if rel == r {
			return true
		}
	}
	return false
}

func depth(rel string) int {
	return strings.Count(rel, "/")
}
