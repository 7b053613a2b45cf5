// Package config handles configuration loading and data directory resolution.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppName names the per-user data and config subdirectories.
const AppName = "todo"

// File names inside the data directory.
const (
	TasksFile   = "tasks.json"
	HistoryFile = "history.db"
	ConfigFile  = "config.yaml"
)

// DataDirEnv overrides the data directory when set.
const DataDirEnv = "TODO_DATA_DIR"

// ---------------------------------------------------------------------------
// Config types
// ---------------------------------------------------------------------------

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `yaml:"format"` // "text" | "logfmt" | "json"
}

// StoreConfig controls access to the tasks file.
type StoreConfig struct {
	Lock        bool          `yaml:"lock"`
	LockTimeout time.Duration `yaml:"lock_timeout"`
}

// HistoryConfig controls the mutation journal.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`
	Limit   int  `yaml:"limit"` // default row count for `todo history`
}

// OutputConfig controls terminal rendering.
type OutputConfig struct {
	Color  string `yaml:"color"`  // "auto" | "always" | "never"
	Format string `yaml:"format"` // default `todo list` format
}

// Config is the per-data-dir configuration.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Store   StoreConfig   `yaml:"store"`
	History HistoryConfig `yaml:"history"`
	Output  OutputConfig  `yaml:"output"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Store: StoreConfig{
			Lock:        true,
			LockTimeout: 5 * time.Second,
		},
		History: HistoryConfig{
			Enabled: true,
			Limit:   20,
		},
		Output: OutputConfig{
			Color:  "auto",
			Format: "text",
		},
	}
}

// Load reads a per-data-dir config.yaml from path.
// If the file does not exist it returns Default() with no error.
// Missing keys retain their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path) // #nosec G304 -- config path is resolved by the caller
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	// Unmarshal into a plain map so only the keys that are present apply.
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		if v, ok := lg["level"].(string); ok && v != "" {
			cfg.Log.Level = strings.ToLower(v)
		}
		if v, ok := lg["format"].(string); ok && v != "" {
			cfg.Log.Format = strings.ToLower(v)
		}
	}

	if st, ok := raw["store"].(map[string]any); ok {
		if v, ok := st["lock"].(bool); ok {
			cfg.Store.Lock = v
		}
		if v, ok := st["lock_timeout"]; ok {
			d, err := parseDuration(v)
			if err != nil {
				return nil, fmt.Errorf("parse %s: store.lock_timeout: %w", path, err)
			}
			cfg.Store.LockTimeout = d
		}
	}

	if h, ok := raw["history"].(map[string]any); ok {
		if v, ok := h["enabled"].(bool); ok {
			cfg.History.Enabled = v
		}
		if v, ok := h["limit"].(int); ok && v > 0 {
			cfg.History.Limit = v
		}
	}

	if out, ok := raw["output"].(map[string]any); ok {
		if v, ok := out["color"].(string); ok && v != "" {
			cfg.Output.Color = strings.ToLower(v)
		}
		if v, ok := out["format"].(string); ok && v != "" {
			cfg.Output.Format = strings.ToLower(v)
		}
	}

	return cfg, nil
}

// parseDuration accepts "5s"-style strings or a plain number of seconds.
func parseDuration(v any) (time.Duration, error) {
	switch t := v.(type) {
	case string:
		return time.ParseDuration(t)
	case int:
		return time.Duration(t) * time.Second, nil
	case float64:
		return time.Duration(t * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("unsupported value %v", v)
	}
}

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

// TasksPath returns the tasks file path inside dataDir.
func TasksPath(dataDir string) string { return filepath.Join(dataDir, TasksFile) }

// HistoryPath returns the journal database path inside dataDir.
func HistoryPath(dataDir string) string { return filepath.Join(dataDir, HistoryFile) }

// FilePath returns the per-data-dir config path.
func FilePath(dataDir string) string { return filepath.Join(dataDir, ConfigFile) }

// DefaultDataDir returns the platform data directory for the app:
// %APPDATA%\todo on Windows, $XDG_DATA_HOME/todo or ~/.local/share/todo elsewhere.
func DefaultDataDir() (string, error) {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, AppName), nil
		}
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" && filepath.IsAbs(xdg) {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine data directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", AppName), nil
}

// globalConfigPath returns the path to the global config file.
// This file stores only data_dir (and future global settings).
func globalConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName, ConfigFile), nil
}

// normalizePath expands ~ and makes the path absolute.
func normalizePath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return filepath.Abs(os.ExpandEnv(path))
}

// ResolveDataDir returns the data directory and the source of the resolution.
// Priority: override (flag) → TODO_DATA_DIR env → persisted global config → platform default.
// source is one of "flag", "env", "config", or "default".
func ResolveDataDir(override string) (path, source string, err error) {
	if override != "" {
		p, err := normalizePath(override)
		if err != nil {
			return "", "", err
		}
		return p, "flag", nil
	}

	if env := os.Getenv(DataDirEnv); env != "" {
		if p, err := normalizePath(env); err == nil {
			return p, "env", nil
		}
	}

	if persisted, ok, _ := GetPersistedDataDir(); ok {
		return persisted, "config", nil
	}

	p, err := DefaultDataDir()
	if err != nil {
		return "", "", err
	}
	return p, "default", nil
}

// GetPersistedDataDir reads data_dir from the global config.
// Returns ("", false, nil) if not set.
func GetPersistedDataDir() (string, bool, error) {
	cfgPath, err := globalConfigPath()
	if err != nil {
		return "", false, err
	}

	data, err := os.ReadFile(cfgPath) // #nosec G304 -- fixed location under the user config dir
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return "", false, nil
	}

	val, _ := raw["data_dir"].(string)
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

// SetPersistedDataDir normalizes path and persists it in the global config.
// Returns the normalized path.
func SetPersistedDataDir(path string) (string, error) {
	normalized, err := normalizePath(path)
	if err != nil {
		return "", err
	}

	cfgPath, err := globalConfigPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return "", err
	}

	// Preserve any other keys already in the global config.
	var raw map[string]any
	if data, err := os.ReadFile(cfgPath); err == nil { // #nosec G304 -- fixed location
		_ = yaml.Unmarshal(data, &raw)
	}
	if raw == nil {
		raw = make(map[string]any)
	}
	raw["data_dir"] = normalized

	out, err := yaml.Marshal(raw)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(cfgPath, out, 0o600); err != nil {
		return "", err
	}
	return normalized, nil
}

// ClearPersistedDataDir removes data_dir from the global config.
// Returns true if the key was present and removed.
// If the file becomes empty after removal it is deleted.
func ClearPersistedDataDir() (bool, error) {
	cfgPath, err := globalConfigPath()
	if err != nil {
		return false, err
	}

	data, err := os.ReadFile(cfgPath) // #nosec G304 -- fixed location
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return false, nil
	}

	if _, ok := raw["data_dir"]; !ok {
		return false, nil
	}
	delete(raw, "data_dir")

	if len(raw) == 0 {
		_ = os.Remove(cfgPath)
		return true, nil
	}

	out, err := yaml.Marshal(raw)
	if err != nil {
		return false, err
	}
	return true, os.WriteFile(cfgPath, out, 0o600)
}
