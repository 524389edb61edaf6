package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const appName = "lyricfinder"

// Backend names accepted in the backends list.
const (
	BackendLrcDB   = "lrcdb"
	BackendLocal   = "local"
	BackendLrclib  = "lrclib"
	BackendNetease = "netease"
)

var validBackends = []string{BackendLrcDB, BackendLocal, BackendLrclib, BackendNetease}

// Config contains the program configuration
type Config struct {
	Verbose          bool          `yaml:"verbose"`
	AutoDownloadBest bool          `yaml:"auto_download_best"`
	Backends         []string      `yaml:"backends"`
	LyricDirs        []string      `yaml:"lyric_dirs"`
	SaveDir          string        `yaml:"save_dir"`
	QueryTimeout     time.Duration `yaml:"query_timeout"`
	LrclibURL        string        `yaml:"lrclib_url"`
	NeteaseURL       string        `yaml:"netease_url"`
	DatabasePath     string        `yaml:"database_path"`
	StatePath        string        `yaml:"state_path"`
	Listen           string        `yaml:"listen"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	lyricDir := filepath.Join(xdg.DataHome, appName, "lyrics")
	return Config{
		Verbose:          false,
		AutoDownloadBest: true,
		Backends:         []string{BackendLrcDB, BackendLrclib, BackendNetease, BackendLocal},
		LyricDirs:        []string{lyricDir},
		SaveDir:          lyricDir,
		QueryTimeout:     10 * time.Second,
		LrclibURL:        "https://lrclib.net/api",
		NeteaseURL:       "https://music.163.com/api",
		DatabasePath:     filepath.Join(xdg.DataHome, appName, "lyrics.db"),
		StatePath:        GetDefaultStatePath(),
		Listen:           "127.0.0.1:8765",
	}
}

// LoadConfigFile loads configuration from a YAML file.
// If path is empty, searches standard locations. Returns defaults if no file found.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	for i, dir := range cfg.LyricDirs {
		cfg.LyricDirs[i] = ExpandHome(dir)
	}
	cfg.SaveDir = ExpandHome(cfg.SaveDir)
	cfg.DatabasePath = ExpandHome(cfg.DatabasePath)
	cfg.StatePath = ExpandHome(cfg.StatePath)

	return cfg, nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(xdg.Home, path[2:])
	}
	return path
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	locations := []string{
		"./lyricfinder.yaml",
		"./lyricfinder.yml",
		filepath.Join(xdg.ConfigHome, appName, "config.yaml"),
		filepath.Join(xdg.ConfigHome, appName, "config.yml"),
		filepath.Join(xdg.Home, ".lyricfinder.yaml"),
		filepath.Join(xdg.Home, ".lyricfinder.yml"),
	}

	for _, path := range locations {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// SaveConfigFile saves the current configuration to a YAML file
func SaveConfigFile(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default config file path
func GetDefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// GetDefaultStatePath returns the default path of the state file holding
// the ignore list.
func GetDefaultStatePath() string {
	return filepath.Join(xdg.StateHome, appName, "state.yaml")
}

// GetDefaultLogPath returns the default log directory path
func GetDefaultLogPath() string {
	return filepath.Join(xdg.StateHome, appName, "logs")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Backends) == 0 {
		return fmt.Errorf("at least one backend must be configured, valid backends: %s", strings.Join(validBackends, ", "))
	}

	seen := make(map[string]bool, len(c.Backends))
	for _, b := range c.Backends {
		if !isValidBackend(b) {
			return fmt.Errorf("unknown backend %q, valid backends: %s", b, strings.Join(validBackends, ", "))
		}
		if seen[b] {
			return fmt.Errorf("backend %q listed more than once", b)
		}
		seen[b] = true
	}

	if c.QueryTimeout <= 0 {
		return fmt.Errorf("query_timeout must be positive, got %s", c.QueryTimeout)
	}
	if c.QueryTimeout > 2*time.Minute {
		return fmt.Errorf("query_timeout cannot exceed 2m, got %s", c.QueryTimeout)
	}

	if c.HasBackend(BackendLocal) && len(c.LyricDirs) == 0 {
		return fmt.Errorf("lyric_dirs is required when local is in backends")
	}
	if c.HasBackend(BackendLrcDB) && c.DatabasePath == "" {
		return fmt.Errorf("database_path is required when lrcdb is in backends")
	}
	if c.HasBackend(BackendLrclib) && !isHTTPURL(c.LrclibURL) {
		return fmt.Errorf("lrclib_url must start with http:// or https://")
	}
	if c.HasBackend(BackendNetease) && !isHTTPURL(c.NeteaseURL) {
		return fmt.Errorf("netease_url must start with http:// or https://")
	}

	return nil
}

// HasBackend reports whether name is in the backends list.
func (c *Config) HasBackend(name string) bool {
	for _, b := range c.Backends {
		if b == name {
			return true
		}
	}
	return false
}

func isValidBackend(name string) bool {
	for _, b := range validBackends {
		if b == name {
			return true
		}
	}
	return false
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
