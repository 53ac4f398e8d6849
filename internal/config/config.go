// Package config handles configuration loading and target directory
// resolution.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the global config file inside Dir.
const FileName = "config.yaml"

// ---------------------------------------------------------------------------
// Config types
// ---------------------------------------------------------------------------

// Config is the global shipkit configuration.
type Config struct {
	TargetDir  string `yaml:"target_dir,omitempty"`
	StatusLine bool   `yaml:"statusline"` // install the status-line hook by default
	History    bool   `yaml:"history"`    // record runs in history.db
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		StatusLine: false,
		History:    true,
	}
}

// Load reads a config.yaml from path.
// If the file does not exist it returns Default() with no error.
// Missing keys retain their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	// Unmarshal into a plain map so we can apply only the keys that are present.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	if v, ok := raw["target_dir"].(string); ok {
		cfg.TargetDir = strings.TrimSpace(v)
	}
	if v, ok := raw["statusline"].(bool); ok {
		cfg.StatusLine = v
	}
	if v, ok := raw["history"].(bool); ok {
		cfg.History = v
	}

	return cfg, nil
}

// LoadGlobal reads the config file in Dir.
func LoadGlobal() (*Config, error) {
	p, err := Path()
	if err != nil {
		return nil, err
	}
	return Load(p)
}

// ---------------------------------------------------------------------------
// Config directory
// ---------------------------------------------------------------------------

// Dir returns the shipkit config directory.
// Priority: SHIPKIT_CONFIG_HOME → $XDG_CONFIG_HOME/shipkit → ~/.config/shipkit.
func Dir() (string, error) {
	if env := os.Getenv("SHIPKIT_CONFIG_HOME"); env != "" {
		return normalizePath(env)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "shipkit"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "shipkit"), nil
}

// Path returns the path to the global config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// normalizePath expands ~ and makes the path absolute.
func normalizePath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[2:])
	}
	return filepath.Abs(os.ExpandEnv(path))
}

// ---------------------------------------------------------------------------
// Target resolution
// ---------------------------------------------------------------------------

// ResolveTarget returns the directory to install into and the source of the
// resolution.
// Priority: override → local ($PWD/.claude) → CLAUDE_CONFIG_DIR env →
// persisted target_dir → ~/.claude.
// source is one of "flag", "local", "env", "config", or "default".
//
//revive:disable:flag-parameter
func ResolveTarget(override string, local bool) (path, source string) {
	if override != "" {
		if p, err := normalizePath(override); err == nil {
			return p, "flag"
		}
	}

	if local {
		if wd, err := os.Getwd(); err == nil {
			return filepath.Join(wd, ".claude"), "local"
		}
	}

	if env := os.Getenv("CLAUDE_CONFIG_DIR"); env != "" {
		if p, err := normalizePath(env); err == nil {
			return p, "env"
		}
	}

	if persisted, ok, _ := GetPersistedTarget(); ok {
		return persisted, "config"
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude"), "default"
}

//revive:enable:flag-parameter

// GetPersistedTarget reads target_dir from the global config.
// Returns ("", false, nil) if not set.
func GetPersistedTarget() (string, bool, error) {
	raw, err := readRaw()
	if err != nil || raw == nil {
		return "", false, err
	}

	val, _ := raw["target_dir"].(string)
	val = strings.TrimSpace(val)
	if val == "" {
		return "", false, nil
	}

	p, err := normalizePath(val)
	if err != nil {
		return "", false, err
	}
	return p, true, nil
}

// SetPersistedTarget normalizes path and persists it in the global config.
// Returns the normalized path.
func SetPersistedTarget(path string) (string, error) {
	normalized, err := normalizePath(path)
	if err != nil {
		return "", err
	}

	// Read existing global config, preserving any other keys.
	raw, _ := readRaw()
	if raw == nil {
		raw = make(map[string]any)
	}
	raw["target_dir"] = normalized

	if err := writeRaw(raw); err != nil {
		return "", err
	}
	return normalized, nil
}

// ClearPersistedTarget removes target_dir from the global config.
// Returns true if the key was present and removed.
// If the file becomes empty after removal it is deleted.
func ClearPersistedTarget() (bool, error) {
	raw, err := readRaw()
	if err != nil || raw == nil {
		return false, err
	}
	if _, ok := raw["target_dir"]; !ok {
		return false, nil
	}
	delete(raw, "target_dir")

	if len(raw) == 0 {
		cfgPath, err := Path()
		if err != nil {
			return false, err
		}
		_ = os.Remove(cfgPath)
		return true, nil
	}
	return true, writeRaw(raw)
}

// readRaw returns the global config as a plain map. A missing or unparsable
// file yields a nil map and no error.
func readRaw() (map[string]any, error) {
	cfgPath, err := Path()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(cfgPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, nil
	}
	return raw, nil
}

func writeRaw(raw map[string]any) error {
	cfgPath, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return err
	}
	out, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(cfgPath, out, 0o600)
}
