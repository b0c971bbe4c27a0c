// Package settings loads the host CLI's own configuration: where the
// project root is, how verbose to log, how long to debounce filesystem
// events before triggering a rebuild, and a cache directory setting. This
// is distinct from
// pluginconfig, which resolves the per-project .atlaspackrc pipeline.
package settings

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Settings holds all configuration for the atlaspack-core CLI.
// Precedence: environment variables > config file > defaults.
type Settings struct {
	Project ProjectSettings `toml:"project"`
	Watch   WatchSettings   `toml:"watch"`
	Cache   CacheSettings   `toml:"cache"`
	Log     LogSettings     `toml:"log"`
}

// ProjectSettings locates the project being built.
type ProjectSettings struct {
	Root  string `toml:"root"`  // defaults to the current working directory
	Entry string `toml:"entry"` // optional explicit entry file/glob
}

// WatchSettings controls the Watcher's debounce behavior in watch mode.
type WatchSettings struct {
	DebounceMillis int  `toml:"debounce_millis"`
	Enabled        bool `toml:"enabled"`
}

// CacheSettings holds the cache directory setting. Nothing in this module
// reads Dir: the request tracker keeps its graph in memory and persists
// nothing.
type CacheSettings struct {
	Dir string `toml:"dir"`
}

// LogSettings controls the structured logger's verbosity.
type LogSettings struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// Load builds a Settings by layering environment variables, an optional
// TOML config file, and defaults.
//
// Config file search order (first found wins):
//  1. Path passed via configPath parameter (from --config flag)
//  2. ATLASPACK_CORE_CONFIG environment variable
//  3. ./atlaspack-core.toml (current directory)
//  4. ~/.config/atlaspack-core/atlaspack-core.toml (XDG-style)
//
// All fields are optional in the config file. Environment variables always
// override file values.
func Load(configPath string) (*Settings, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}

	cfg := &Settings{
		Project: ProjectSettings{Root: cwd},
		Watch:   WatchSettings{DebounceMillis: 50, Enabled: true},
		Cache:   CacheSettings{Dir: ".atlaspack-cache"},
		Log:     LogSettings{Level: "info"},
	}

	if err := cfg.loadFile(configPath); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Settings) loadFile(configPath string) error {
	path := resolveConfigPath(configPath)
	if path == "" {
		return nil
	}
	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	return nil
}

func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv("ATLASPACK_CORE_CONFIG"); p != "" {
		return p
	}
	if _, err := os.Stat("atlaspack-core.toml"); err == nil {
		return "atlaspack-core.toml"
	}
	if home, err := os.UserHomeDir(); err == nil {
		p := home + "/.config/atlaspack-core/atlaspack-core.toml"
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (c *Settings) applyEnv() {
	envOverride("ATLASPACK_CORE_PROJECT_ROOT", &c.Project.Root)
	envOverride("ATLASPACK_CORE_ENTRY", &c.Project.Entry)
	envOverride("ATLASPACK_CORE_CACHE_DIR", &c.Cache.Dir)
	envOverride("ATLASPACK_CORE_LOG_LEVEL", &c.Log.Level)

	if v := os.Getenv("ATLASPACK_CORE_WATCH_DEBOUNCE_MILLIS"); v != "" {
		var ms int
		if _, err := fmt.Sscanf(v, "%d", &ms); err == nil && ms > 0 {
			c.Watch.DebounceMillis = ms
		}
	}
	if v := os.Getenv("ATLASPACK_CORE_WATCH_ENABLED"); v != "" {
		c.Watch.Enabled = v == "true" || v == "1"
	}
}

// Validate checks that required fields are present and sane.
func (c *Settings) Validate() error {
	if c.Project.Root == "" {
		return fmt.Errorf("project root must not be empty")
	}
	if c.Watch.DebounceMillis <= 0 {
		return fmt.Errorf("watch.debounce_millis must be positive")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q (must be debug, info, warn, or error)", c.Log.Level)
	}
	return nil
}

// DebounceDuration returns Watch.DebounceMillis as a time.Duration.
func (c *Settings) DebounceDuration() time.Duration {
	return time.Duration(c.Watch.DebounceMillis) * time.Millisecond
}

func envOverride(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
