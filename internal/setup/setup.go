// Package setup installs and removes the shipkit status-line hook in an
// agent's settings.json. A hook is only ever touched when its command carries
// the shipkit marker.
package setup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ports/shipkit/internal/layout"
)

// Result is the return value from the status-line Install/Uninstall functions.
type Result struct {
	Changed bool
	Message string
}

func unchanged(msg string) Result           { return Result{Message: msg} }
func changed(f string, a ...any) Result     { return Result{Changed: true, Message: fmt.Sprintf(f, a...)} }
func settingsPath(claudeHome string) string { return filepath.Join(claudeHome, layout.SettingsFile) }

func statusLineCommand(claudeHome string) string {
	script := filepath.Join(claudeHome, filepath.FromSlash(layout.StatusLineScript))
	return fmt.Sprintf("bash %q", script)
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

// readJSON returns the object stored at path. A missing file is an empty
// object; a file that is not a JSON object is an error so that user settings
// are never overwritten with a partial view.
func readJSON(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]any), nil
	}
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%s is not valid JSON: %w", path, err)
	}
	if m == nil {
		m = make(map[string]any)
	}
	return m, nil
}

func writeJSON(path string, data map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644) // #nosec G306 -- agent settings do not contain secrets
}

// statusLineOwner classifies the statusLine entry of settings.
// Returns the entry's command and whether it carries the shipkit marker.
func statusLineOwner(settings map[string]any) (command string, present, ours bool) {
	raw, present := settings["statusLine"]
	if !present {
		return "", false, false
	}
	entry, _ := raw.(map[string]any)
	command, _ = entry["command"].(string)
	return command, true, strings.Contains(command, layout.StatusLineMarker)
}

// ---------------------------------------------------------------------------
// Status line
// ---------------------------------------------------------------------------

// IsStatusLineInstalled reports whether claudeHome's settings carry a
// shipkit status line.
func IsStatusLineInstalled(claudeHome string) bool {
	settings, err := readJSON(settingsPath(claudeHome))
	if err != nil {
		return false
	}
	_, _, ours := statusLineOwner(settings)
	return ours
}

// InstallStatusLine points settings.json's statusLine at the shipkit script.
// A status line configured by something else is left alone unless force is
// set.
//
//revive:disable:flag-parameter
func InstallStatusLine(claudeHome string, force bool) (Result, error) {
	path := settingsPath(claudeHome)
	settings, err := readJSON(path)
	if err != nil {
		return Result{}, fmt.Errorf("setup.InstallStatusLine: %w", err)
	}

	want := statusLineCommand(claudeHome)
	command, present, ours := statusLineOwner(settings)
	switch {
	case ours && command == want:
		return unchanged("Status line already installed"), nil
	case present && !ours && !force:
		return unchanged("Status line left unchanged: settings.json already configures one (use --force to replace it)"), nil
	}

	settings["statusLine"] = map[string]any{
		"type":    "command",
		"command": want,
	}
	if err := writeJSON(path, settings); err != nil {
		return Result{}, fmt.Errorf("setup.InstallStatusLine: %w", err)
	}
	return changed("Installed status line in %s", layout.SettingsFile), nil
}

//revive:enable:flag-parameter

// UninstallStatusLine removes settings.json's statusLine only when it was
// installed by shipkit.
func UninstallStatusLine(claudeHome string) (Result, error) {
	path := settingsPath(claudeHome)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return unchanged("Nothing to remove"), nil
	}
	settings, err := readJSON(path)
	if err != nil {
		return Result{}, fmt.Errorf("setup.UninstallStatusLine: %w", err)
	}
	if _, _, ours := statusLineOwner(settings); !ours {
		return unchanged("Nothing to remove"), nil
	}

	delete(settings, "statusLine")
	if len(settings) == 0 {
		if err := os.Remove(path); err != nil {
			return Result{}, fmt.Errorf("setup.UninstallStatusLine: %w", err)
		}
		return changed("Removed status line (%s was otherwise empty)", layout.SettingsFile), nil
	}
	if err := writeJSON(path, settings); err != nil {
		return Result{}, fmt.Errorf("setup.UninstallStatusLine: %w", err)
	}
	return changed("Removed status line from %s", layout.SettingsFile), nil
}
