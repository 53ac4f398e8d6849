package install

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"

	"github.com/go-ports/shipkit/internal/layout"
	"github.com/go-ports/shipkit/internal/manifest"
	"github.com/go-ports/shipkit/internal/output"
	"github.com/go-ports/shipkit/internal/patches"
	"github.com/go-ports/shipkit/internal/setup"
)

// UninstallReport lists what an uninstall removed, relative to the target.
// Directories carry a trailing slash.
type UninstallReport struct {
	Removed []string `json:"removed"`
}

// Uninstall removes everything shipkit manages from target. It works from
// the managed-path predicate alone, so it also cleans installs whose ledger
// is missing. Files the user owns are left in place. A missing target is a
// no-op.
func Uninstall(target string, p *output.Printer) (*UninstallReport, error) {
	if p == nil {
		p = output.Discard()
	}
	rep := &UninstallReport{Removed: []string{}}

	if _, err := os.Stat(target); errors.Is(err, fs.ErrNotExist) {
		p.Success("Nothing to remove: %s does not exist", target)
		return rep, nil
	}
	p.Step("Removing shipkit from %s", target)

	for _, dir := range layout.OwnedRoots {
		ok, err := removeTree(layout.Abs(target, dir))
		if err != nil {
			return nil, fmt.Errorf("install: remove %s: %w", dir, err)
		}
		if ok {
			rep.Removed = append(rep.Removed, dir+"/")
		}
	}

	for _, dir := range layout.SharedRoots {
		removed, err := removeManagedFiles(target, dir)
		if err != nil {
			return nil, fmt.Errorf("install: remove %s: %w", dir, err)
		}
		rep.Removed = append(rep.Removed, removed...)
		if _, err := removeIfEmpty(layout.Abs(target, dir)); err != nil {
			return nil, fmt.Errorf("install: prune %s: %w", dir, err)
		}
	}
	for _, dir := range layout.OwnedRoots {
		// Parents of owned roots, e.g. commands/.
		if parent := path.Dir(dir); parent != "." {
			if _, err := removeIfEmpty(layout.Abs(target, parent)); err != nil {
				return nil, fmt.Errorf("install: prune %s: %w", parent, err)
			}
		}
	}

	ok, err := patches.Remove(target)
	if err != nil {
		return nil, fmt.Errorf("install: remove patches: %w", err)
	}
	if ok {
		rep.Removed = append(rep.Removed, layout.PatchesDir+"/")
	}

	ok, err = manifest.Remove(target)
	if err != nil {
		return nil, fmt.Errorf("install: remove manifest: %w", err)
	}
	if ok {
		rep.Removed = append(rep.Removed, layout.ManifestFile)
	}

	res, err := setup.UninstallStatusLine(target)
	switch {
	case err != nil:
		slog.Warn("install.Uninstall: status line left in place", "err", err)
		p.Warn("status line not removed: %v", err)
	case res.Changed:
		rep.Removed = append(rep.Removed, layout.SettingsFile+"#statusLine")
	}

	for _, r := range rep.Removed {
		p.Item("%s", r)
	}
	p.Success("Removed %d item(s)", len(rep.Removed))
	return rep, nil
}

// removeTree removes dir recursively. Returns true when it existed.
func removeTree(dir string) (bool, error) {
	if _, err := os.Lstat(dir); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return false, err
	}
	return true, nil
}

// removeManagedFiles deletes the regular files directly inside dir whose
// names match the managed-name predicate.
func removeManagedFiles(target, dir string) ([]string, error) {
	entries, err := os.ReadDir(layout.Abs(target, dir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, e := range entries {
		rel := path.Join(dir, e.Name())
		if !e.Type().IsRegular() || !layout.IsManaged(rel) {
			continue
		}
		if err := os.Remove(layout.Abs(target, rel)); err != nil {
			return removed, err
		}
		removed = append(removed, rel)
	}
	return removed, nil
}
