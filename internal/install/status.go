package install

import (
	"fmt"

	"github.com/go-ports/shipkit/internal/manifest"
	"github.com/go-ports/shipkit/internal/patches"
	"github.com/go-ports/shipkit/internal/setup"
)

// Status describes the shipkit install found in a target directory.
type Status struct {
	Target      string          `json:"target"`
	Installed   bool            `json:"installed"`
	Version     string          `json:"version,omitempty"`
	InstalledAt string          `json:"installed_at,omitempty"`
	Files       int             `json:"files"`
	Modified    []string        `json:"modified"`
	Missing     []string        `json:"missing"`
	Patches     *patches.Record `json:"patches,omitempty"`
	StatusLine  bool            `json:"statusline"`
}

// Inspect reports on the install in root without changing anything. With no
// readable ledger the target is reported as not installed, although a
// version marker left by an earlier install is still surfaced.
func Inspect(root string) (*Status, error) {
	st := &Status{
		Target:     root,
		Modified:   []string{},
		Missing:    []string{},
		StatusLine: setup.IsStatusLineInstalled(root),
	}
	if rec, ok := patches.Load(root); ok {
		st.Patches = rec
	}

	l, ok := manifest.Load(root)
	if !ok {
		st.Version = readVersion(root)
		return st, nil
	}
	st.Installed = true
	st.Version = l.Version
	st.InstalledAt = l.Timestamp
	st.Files = len(l.Files)

	changes, err := DetectChanges(root, l)
	if err != nil {
		return nil, fmt.Errorf("install.Inspect: %w", err)
	}
	st.Modified = append(st.Modified, changes.Modified...)
	st.Missing = append(st.Missing, changes.Missing...)
	return st, nil
}
