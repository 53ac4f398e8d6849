// Package patches preserves locally modified managed files before an upgrade
// overwrites them. Backed-up files are never reapplied automatically.
package patches

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/go-ports/shipkit/internal/layout"
	"github.com/go-ports/shipkit/internal/manifest"
)

//go:embed schema/backup-meta.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

// ErrUnmanagedPath is returned by Backup for a path outside the managed roots.
var ErrUnmanagedPath = errors.New("path is outside the managed roots")

// Record describes the most recent patch backup.
type Record struct {
	BackedUpAt  string   `json:"backed_up_at"`
	FromVersion string   `json:"from_version"`
	Files       []string `json:"files"`
}

// Dir returns the patch-backup area inside root.
func Dir(root string) string {
	return filepath.Join(root, layout.PatchesDir)
}

// MetaPath returns the patch-backup record location inside root.
func MetaPath(root string) string {
	return filepath.Join(Dir(root), layout.BackupMetaFile)
}

// Backup copies every modified file into the patch-backup area, mirroring
// its relative path, then writes a record naming exactly those files and the
// version they were modified against. With no modified files it does nothing
// and returns a nil record.
//
// All copies complete before Backup returns; a failure on any file aborts the
// backup so the caller never overwrites an uncaptured edit.
func Backup(root string, modified []string, fromVersion string, now time.Time) (*Record, error) {
	if len(modified) == 0 {
		return nil, nil
	}

	files := append([]string(nil), modified...)
	sort.Strings(files)

	for _, rel := range files {
		if !manifest.ValidPath(rel) {
			return nil, fmt.Errorf("patches.Backup %s: %w", rel, ErrUnmanagedPath)
		}
		data, err := os.ReadFile(layout.Abs(root, rel))
		if err != nil {
			return nil, fmt.Errorf("patches.Backup %s: %w", rel, err)
		}
		dst := layout.Abs(Dir(root), rel)
		if err := manifest.WriteFileAtomic(dst, data, 0o644); err != nil {
			return nil, fmt.Errorf("patches.Backup %s: %w", rel, err)
		}
	}

	rec := &Record{
		BackedUpAt:  now.UTC().Format(time.RFC3339),
		FromVersion: fromVersion,
		Files:       files,
	}
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("patches.Backup: %w", err)
	}
	b = append(b, '\n')
	if err := manifest.WriteFileAtomic(MetaPath(root), b, 0o644); err != nil {
		return nil, fmt.Errorf("patches.Backup: write record: %w", err)
	}
	return rec, nil
}

func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling backup-meta schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("backup-meta.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("adding backup-meta schema: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("backup-meta.schema.json")
	})
	return compiledSchema, compileErr
}

// Load reads the patch-backup record under root. A missing or malformed
// record is reported as absent.
func Load(root string) (*Record, bool) {
	data, err := os.ReadFile(MetaPath(root))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("patches.Load: unreadable record", "err", err)
		}
		return nil, false
	}
	schema, err := getSchema()
	if err != nil {
		slog.Warn("patches.Load: schema unavailable", "err", err)
		return nil, false
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		slog.Warn("patches.Load: malformed record treated as absent", "err", err)
		return nil, false
	}
	if err := schema.Validate(doc); err != nil {
		slog.Warn("patches.Load: invalid record treated as absent", "err", err)
		return nil, false
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false
	}
	return &rec, true
}

// Remove deletes the patch-backup area and its record. Returns true when
// something was removed.
func Remove(root string) (bool, error) {
	dir := Dir(root)
	if _, err := os.Lstat(dir); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return false, fmt.Errorf("patches.Remove: %w", err)
	}
	return true, nil
}
