// Package manifest loads, builds and persists the ledger of files installed
// by shipkit. The ledger is the only record of what an earlier install wrote.
package manifest

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/go-ports/shipkit/internal/layout"
)

//go:embed schema/ledger.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

// Ledger maps installed relative paths to their SHA-256 content digests.
type Ledger struct {
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Files     map[string]string `json:"files"`
}

// Paths returns the tracked relative paths in sorted order.
func (l *Ledger) Paths() []string {
	paths := make([]string, 0, len(l.Files))
	for p := range l.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Path returns the ledger location inside root.
func Path(root string) string {
	return filepath.Join(root, layout.ManifestFile)
}

func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling ledger schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("ledger.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("adding ledger schema: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("ledger.schema.json")
	})
	return compiledSchema, compileErr
}

// Load reads the ledger under root. A missing, unreadable, unparsable or
// schema-invalid ledger is reported as absent (ok == false), which callers
// treat as a fresh install.
func Load(root string) (*Ledger, bool) {
	data, err := os.ReadFile(Path(root))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("manifest.Load: unreadable ledger treated as absent", "err", err)
		}
		return nil, false
	}

	schema, err := getSchema()
	if err != nil {
		slog.Warn("manifest.Load: schema unavailable", "err", err)
		return nil, false
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		slog.Warn("manifest.Load: malformed ledger treated as absent", "err", err)
		return nil, false
	}
	if err := schema.Validate(doc); err != nil {
		slog.Warn("manifest.Load: invalid ledger treated as absent", "err", err)
		return nil, false
	}

	var l Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, false
	}
	if l.Files == nil {
		l.Files = make(map[string]string)
	}
	for rel := range l.Files {
		if !ValidPath(rel) {
			slog.Warn("manifest.Load: ledger tracks a path outside the managed roots, treated as absent", "path", rel)
			return nil, false
		}
	}
	return &l, true
}

// ValidPath reports whether rel may appear as a ledger key: a clean,
// slash-separated relative path under a managed root. Keys that fail it are
// never turned into filesystem paths.
func ValidPath(rel string) bool {
	if rel == "" || strings.Contains(rel, "\\") {
		return false
	}
	return path.Clean(rel) == rel && layout.IsManaged(rel)
}

// Save writes the ledger under root, replacing any previous one in full.
func Save(root string, l *Ledger) error {
	if l.Files == nil {
		l.Files = make(map[string]string)
	}
	b, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest.Save: %w", err)
	}
	b = append(b, '\n')
	if err := WriteFileAtomic(Path(root), b, 0o644); err != nil {
		return fmt.Errorf("manifest.Save: %w", err)
	}
	return nil
}

// Remove deletes the ledger under root. Returns true when a file was removed.
func Remove(root string) (bool, error) {
	err := os.Remove(Path(root))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// Build hashes every managed file currently present under root. The result
// reflects installed bytes, not the release the bytes were copied from.
func Build(root, version string, now time.Time) (*Ledger, error) {
	l := &Ledger{
		Version:   version,
		Timestamp: now.UTC().Format(time.RFC3339),
		Files:     make(map[string]string),
	}

	for _, dir := range layout.ManagedRoots() {
		base := layout.Abs(root, dir)
		err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) && p == base {
					return fs.SkipDir
				}
				return err
			}
			if d.IsDir() {
				// Shared roots are flat; user subdirectories are not ours to hash.
				if p != base && !layout.IsOwnedRoot(dir) {
					return fs.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if !layout.IsManaged(rel) {
				return nil
			}
			digest, err := FileDigest(p)
			if err != nil {
				return err
			}
			l.Files[rel] = digest
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("manifest.Build %s: %w", dir, err)
		}
	}
	return l, nil
}

// FileDigest returns the lowercase hex SHA-256 of the file at path.
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Digest returns the lowercase hex SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place, creating parent directories as needed.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".shipkit-tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}() // cleanup on error

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
