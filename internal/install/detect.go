package install

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-ports/shipkit/internal/layout"
	"github.com/go-ports/shipkit/internal/manifest"
)

// FileStatus classifies a tracked file against its ledger digest.
type FileStatus string

const (
	StatusUnmodified FileStatus = "unmodified"
	StatusModified   FileStatus = "modified"
	// StatusMissing means there is no file to compare; it is not a
	// modification and there is nothing to back up.
	StatusMissing FileStatus = "missing"
)

// Changes groups tracked paths by status, each list sorted.
type Changes struct {
	Unmodified []string
	Modified   []string
	Missing    []string
}

// Classify compares the file at rel under root with the digest recorded for
// it. It has no side effects.
func Classify(root, rel, digest string) (FileStatus, error) {
	p := layout.Abs(root, rel)
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return StatusMissing, nil
	}
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return StatusMissing, nil
	}
	got, err := manifest.FileDigest(p)
	if err != nil {
		return "", err
	}
	if got == digest {
		return StatusUnmodified, nil
	}
	return StatusModified, nil
}

// DetectChanges classifies every path tracked by l. Paths outside the
// managed roots are skipped.
func DetectChanges(root string, l *manifest.Ledger) (*Changes, error) {
	ch := &Changes{}
	for _, rel := range l.Paths() {
		if !manifest.ValidPath(rel) {
			continue
		}
		st, err := Classify(root, rel, l.Files[rel])
		if err != nil {
			return nil, fmt.Errorf("classify %s: %w", rel, err)
		}
		switch st {
		case StatusUnmodified:
			ch.Unmodified = append(ch.Unmodified, rel)
		case StatusModified:
			ch.Modified = append(ch.Modified, rel)
		case StatusMissing:
			ch.Missing = append(ch.Missing, rel)
		}
	}
	return ch, nil
}
