// Package install reconciles a target configuration directory with a shipkit
// release. An upgrade backs up locally modified files, removes files the new
// release no longer ships, then lays the release down and records what it
// wrote. Files outside the managed roots are never touched.
package install

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/go-ports/shipkit/internal/layout"
	"github.com/go-ports/shipkit/internal/manifest"
	"github.com/go-ports/shipkit/internal/output"
	"github.com/go-ports/shipkit/internal/patches"
	"github.com/go-ports/shipkit/internal/release"
)

// ErrNoSource is returned by Run when Options.Source is nil.
var ErrNoSource = errors.New("install: no release source")

// Mode is the path the reconciler took.
type Mode string

const (
	ModeFresh   Mode = "fresh"
	ModeUpgrade Mode = "upgrade"
)

// Options configures an Installer.
type Options struct {
	// Target is the configuration directory to install into.
	Target string
	// Source is the release tree, rooted at the directory holding the
	// managed roots.
	Source fs.FS
	// Version is recorded in the ledger and the version marker.
	Version string
	// Printer receives progress lines. Nil discards them.
	Printer *output.Printer
	// Now stamps the ledger and backup record. Nil means time.Now.
	Now func() time.Time
}

// Report summarizes a completed run.
type Report struct {
	Mode        Mode       `json:"mode"`
	FromVersion string     `json:"from_version,omitempty"`
	ToVersion   string     `json:"to_version"`
	Transition  Transition `json:"transition"`
	Files       int        `json:"files"`
	BackedUp    []string   `json:"backed_up,omitempty"`
	Orphans     []string   `json:"orphans,omitempty"`
}

// Installer performs one install or upgrade run.
type Installer struct {
	opts Options
}

// New returns an Installer for opts.
func New(opts Options) *Installer {
	if opts.Printer == nil {
		opts.Printer = output.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Installer{opts: opts}
}

// Run installs the release into the target. Any failure aborts the run and
// is returned wrapped with the step that failed; re-running is always safe.
func (in *Installer) Run() (*Report, error) {
	if in.opts.Source == nil {
		return nil, ErrNoSource
	}
	src, target, p := in.opts.Source, in.opts.Target, in.opts.Printer
	now := in.opts.Now()

	managed, err := release.ManagedPaths(src)
	if err != nil {
		return nil, fmt.Errorf("install: read release: %w", err)
	}

	prior, upgrading := manifest.Load(target)
	rep := &Report{Mode: ModeFresh, ToVersion: in.opts.Version}
	if upgrading {
		rep.Mode = ModeUpgrade
		rep.FromVersion = prior.Version
	}
	rep.Transition = VersionTransition(rep.FromVersion, rep.ToVersion, upgrading)
	in.announce(rep)

	if upgrading {
		changes, err := DetectChanges(target, prior)
		if err != nil {
			return nil, fmt.Errorf("install: detect changes: %w", err)
		}
		rec, err := patches.Backup(target, changes.Modified, prior.Version, now)
		if err != nil {
			return nil, fmt.Errorf("install: backup modified files: %w", err)
		}
		if rec != nil {
			rep.BackedUp = rec.Files
			p.Step("Backed up %d locally modified file(s) to %s", len(rec.Files), layout.PatchesDir)
			for _, f := range rec.Files {
				p.Item("%s", f)
			}
			p.Item("Run /shipkit:reapply-patches to merge them back")
		}

		removed, err := ReclaimOrphans(target, FindOrphans(prior, managed))
		if err != nil {
			return nil, fmt.Errorf("install: reclaim orphans: %w", err)
		}
		if len(removed) > 0 {
			rep.Orphans = removed
			p.Step("Removed %d file(s) no longer shipped", len(removed))
			for _, f := range removed {
				p.Item("%s", f)
			}
		}
	}

	if err := os.MkdirAll(target, 0o755); err != nil {
		return nil, fmt.Errorf("install: create target: %w", err)
	}
	for _, dir := range layout.OwnedRoots {
		n, err := copyOwnedRoot(src, target, dir)
		if err != nil {
			return nil, fmt.Errorf("install: copy %s: %w", dir, err)
		}
		if n > 0 {
			p.Item("%s: %d file(s)", dir, n)
		}
	}
	for _, dir := range layout.SharedRoots {
		n, err := copySharedRoot(src, target, dir)
		if err != nil {
			return nil, fmt.Errorf("install: copy %s: %w", dir, err)
		}
		if n > 0 {
			p.Item("%s: %d file(s)", dir, n)
		}
	}

	if err := writeVersion(target, in.opts.Version); err != nil {
		return nil, fmt.Errorf("install: write version: %w", err)
	}
	ledger, err := manifest.Build(target, in.opts.Version, now)
	if err != nil {
		return nil, fmt.Errorf("install: build manifest: %w", err)
	}
	if upgrading && sameContent(prior, ledger) {
		// Nothing changed on disk: keep the ledger byte-identical.
		ledger.Timestamp = prior.Timestamp
	}
	if err := manifest.Save(target, ledger); err != nil {
		return nil, fmt.Errorf("install: write manifest: %w", err)
	}
	rep.Files = len(ledger.Files)

	p.Success("Installed %d file(s) into %s", rep.Files, target)
	return rep, nil
}

func (in *Installer) announce(rep *Report) {
	p, target := in.opts.Printer, in.opts.Target
	switch rep.Transition {
	case TransitionFresh:
		p.Step("Installing shipkit %s into %s", rep.ToVersion, target)
	case TransitionUpgrade:
		p.Step("Upgrading shipkit %s -> %s in %s", rep.FromVersion, rep.ToVersion, target)
	case TransitionDowngrade:
		p.Warn("downgrading shipkit %s -> %s", rep.FromVersion, rep.ToVersion)
		p.Step("Installing shipkit %s into %s", rep.ToVersion, target)
	case TransitionReinstall:
		p.Step("Reinstalling shipkit %s into %s", rep.ToVersion, target)
	default:
		p.Step("Replacing shipkit %s with %s in %s", rep.FromVersion, rep.ToVersion, target)
	}
}

func sameContent(a, b *manifest.Ledger) bool {
	if a.Version != b.Version || len(a.Files) != len(b.Files) {
		return false
	}
	for p, d := range a.Files {
		if b.Files[p] != d {
			return false
		}
	}
	return true
}
