package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Defaults
const (
	DefaultAutosaveIntervalMS = 5000
	DefaultWebBind            = "127.0.0.1"
	DefaultWebPort            = 8437
)

// Config holds application configuration.
type Config struct {
	// AutosaveIntervalMS is the fixed checkpoint interval for open edit sessions.
	// A failed checkpoint is retried on the next tick; there is no backoff.
	AutosaveIntervalMS int `json:"autosave_interval_ms"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// WebBind is the interface the web UI listens on.
	WebBind string `json:"web_bind,omitempty"`

	// WebPort is the TCP port the web UI listens on.
	WebPort int `json:"web_port,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		AutosaveIntervalMS: DefaultAutosaveIntervalMS,
		WebBind:            DefaultWebBind,
		WebPort:            DefaultWebPort,
	}
}

// AutosaveInterval returns the checkpoint interval as a duration.
func (c *Config) AutosaveInterval() time.Duration {
	if c == nil || c.AutosaveIntervalMS <= 0 {
		return DefaultAutosaveIntervalMS * time.Millisecond
	}
	return time.Duration(c.AutosaveIntervalMS) * time.Millisecond
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both the global (~/.thoughts) and
// repo (.thoughts) directories. Repo config is found by walking upward from
// startDir. Repo config takes precedence for scalars; arrays are merged.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .thoughts/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".thoughts", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		AutosaveIntervalMS: firstPositive(overlay.AutosaveIntervalMS, base.AutosaveIntervalMS),
		DBMaxOpenConns:     firstPositive(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns:     firstPositive(overlay.DBMaxIdleConns, base.DBMaxIdleConns),
		WebPort:            firstPositive(overlay.WebPort, base.WebPort),
		WebBind:            overlay.WebBind,
	}
	if strings.TrimSpace(result.WebBind) == "" {
		result.WebBind = base.WebBind
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func firstPositive(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
