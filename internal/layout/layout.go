// Package layout names the files and directories shipkit owns inside a
// target root, and the predicate that decides ownership in shared directories.
package layout

import (
	"path"
	"path/filepath"
	"strings"
)

const (
	// CommandsDir holds slash commands. Fully owned.
	CommandsDir = "commands/shipkit"
	// AgentsDir holds agent definitions. Shared with user files.
	AgentsDir = "agents"
	// ContentDir holds workflows, templates and references. Fully owned.
	ContentDir = "shipkit"

	// AgentPrefix identifies managed files inside AgentsDir.
	AgentPrefix = "shipkit-"

	// VersionFile is the installed version marker. It is never recorded in
	// the ledger.
	VersionFile = ContentDir + "/VERSION"

	// ManifestFile is the ledger of installed files.
	ManifestFile = "shipkit-file-manifest.json"

	// PatchesDir is the patch-backup area.
	PatchesDir = "shipkit-local-patches"
	// BackupMetaFile is the patch-backup record inside PatchesDir.
	BackupMetaFile = "backup-meta.json"

	// SettingsFile is the agent settings file that may carry the status-line hook.
	SettingsFile = "settings.json"
	// StatusLineScript is the hook script shipped in the content root.
	StatusLineScript = ContentDir + "/bin/shipkit-statusline.sh"
	// StatusLineMarker identifies a status-line hook installed by shipkit.
	StatusLineMarker = "shipkit-statusline"
)

// OwnedRoots are replaced wholesale on every install and removed entirely on
// uninstall.
var OwnedRoots = []string{CommandsDir, ContentDir}

// SharedRoots contain both managed and user files.
var SharedRoots = []string{AgentsDir}

// ManagedRoots returns every root shipkit manages, owned roots first.
func ManagedRoots() []string {
	roots := make([]string, 0, len(OwnedRoots)+len(SharedRoots))
	roots = append(roots, OwnedRoots...)
	return append(roots, SharedRoots...)
}

// IsManagedAgent reports whether a file name inside AgentsDir belongs to
// shipkit. It is the only ownership test applied to the shared agents root:
// anything it rejects is user content and is never written or removed.
func IsManagedAgent(name string) bool {
	return strings.HasPrefix(name, AgentPrefix)
}

// IsManaged reports whether rel (slash-separated, relative to the target
// root) falls under a managed root and would be tracked in the ledger.
func IsManaged(rel string) bool {
	rel = path.Clean(filepath.ToSlash(rel))
	if rel == VersionFile {
		return false
	}
	for _, root := range OwnedRoots {
		if strings.HasPrefix(rel, root+"/") {
			return true
		}
	}
	dir, name := path.Split(rel)
	return dir == AgentsDir+"/" && IsManagedAgent(name)
}

// IsOwnedRoot reports whether dir is one of the fully owned roots.
func IsOwnedRoot(dir string) bool {
	dir = path.Clean(filepath.ToSlash(dir))
	for _, root := range OwnedRoots {
		if dir == root {
			return true
		}
	}
	return false
}

// Abs joins a slash-separated relative path onto root.
func Abs(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}
