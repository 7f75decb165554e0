package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Probe modes accepted by ProbeConfig.Mode.
const (
	ProbeModeBuiltin = "builtin"
	ProbeModeCommand = "command"
	ProbeModeNone    = "none"
)

// ProjectConfigNames are the project-level config file names, in lookup order.
var ProjectConfigNames = []string{".shipcheck.yaml", ".shipcheck.yml"}

// Config represents the complete shipcheck configuration.
type Config struct {
	Version  int            `yaml:"version" json:"version"`
	Profile  string         `yaml:"profile" json:"profile"`
	Rules    RulesConfig    `yaml:"rules" json:"rules"`
	Resolver ResolverConfig `yaml:"resolver" json:"resolver"`
	Probe    ProbeConfig    `yaml:"probe" json:"probe"`
	VCS      VCSConfig      `yaml:"vcs" json:"vcs"`
	Watch    WatchConfig    `yaml:"watch" json:"watch"`
	LogLevel string         `yaml:"log_level" json:"log_level"`
}

// RulesConfig tunes the rule catalog thresholds.
type RulesConfig struct {
	// MinTargetSDK is the lowest accepted Android target SDK (default: 35).
	MinTargetSDK int `yaml:"min_target_sdk" json:"min_target_sdk"`
	// ReservedPrefixes are added to the built-in placeholder identifier prefixes.
	ReservedPrefixes []string `yaml:"reserved_prefixes" json:"reserved_prefixes"`
	// Lockfiles are the recognized dependency lockfile names.
	Lockfiles []string `yaml:"lockfiles" json:"lockfiles"`
}

// ResolverConfig configures the compute-configuration subprocess.
type ResolverConfig struct {
	// Command is argv of the process that prints the resolved config as JSON.
	Command []string `yaml:"command" json:"command"`
	// Timeout bounds the process (e.g., "60s").
	Timeout string `yaml:"timeout" json:"timeout"`
}

// ProbeConfig configures the image dimension probe.
type ProbeConfig struct {
	// Mode is "builtin", "command" or "none".
	Mode string `yaml:"mode" json:"mode"`
	// CacheSize is the number of decoded dimensions kept in memory.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// VCSConfig configures the working-tree cleanliness probe.
type VCSConfig struct {
	// Enabled is nil when unset; nil means enabled.
	Enabled *bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// Debounce coalesces bursts of file events (e.g., "300ms").
	Debounce string `yaml:"debounce" json:"debounce"`
}

// DefaultLockfiles are the lockfile names recognized in the project root.
var DefaultLockfiles = []string{
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"bun.lockb",
	"bun.lock",
}

// DefaultResolverCommand prints the public app config of an Expo project.
var DefaultResolverCommand = []string{"npx", "expo", "config", "--json", "--type", "public"}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Profile: "production",
		Rules: RulesConfig{
			MinTargetSDK:     35, // Google Play target API requirement
			ReservedPrefixes: []string{},
			Lockfiles:        append([]string(nil), DefaultLockfiles...),
		},
		Resolver: ResolverConfig{
			Command: append([]string(nil), DefaultResolverCommand...),
			Timeout: "60s",
		},
		Probe: ProbeConfig{
			Mode:      ProbeModeBuiltin,
			CacheSize: 128,
		},
		VCS: VCSConfig{
			Enabled: boolPtr(true),
		},
		Watch: WatchConfig{
			Debounce: "300ms",
		},
		LogLevel: "info",
	}
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/shipcheck/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/shipcheck/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "shipcheck", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "shipcheck", "config.yaml")
	}
	return filepath.Join(home, ".config", "shipcheck", "config.yaml")
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist.
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	var parsed Config
	if err := parseYAMLFile(configPath, &parsed); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return &parsed, nil
}

// Load loads configuration for the project in dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/shipcheck/config.yaml)
//  3. Project config (.shipcheck.yaml in dir)
//  4. Environment variables (SHIPCHECK_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, err
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ProjectConfigPath returns the project config file in dir, or "" if none exists.
func ProjectConfigPath(dir string) string {
	for _, name := range ProjectConfigNames {
		p := filepath.Join(dir, name)
		if fileExists(p) {
			return p
		}
	}
	return ""
}

// loadFromFile merges the first project config file found in dir.
func (c *Config) loadFromFile(dir string) error {
	path := ProjectConfigPath(dir)
	if path == "" {
		return nil
	}

	var parsed Config
	if err := parseYAMLFile(path, &parsed); err != nil {
		return err
	}
	c.mergeWith(&parsed)
	return nil
}

func parseYAMLFile(path string, into *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, into); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.Profile != "" {
		c.Profile = other.Profile
	}

	if other.Rules.MinTargetSDK != 0 {
		c.Rules.MinTargetSDK = other.Rules.MinTargetSDK
	}
	if len(other.Rules.ReservedPrefixes) > 0 {
		// Extend rather than replace
		c.Rules.ReservedPrefixes = append(c.Rules.ReservedPrefixes, other.Rules.ReservedPrefixes...)
	}
	if len(other.Rules.Lockfiles) > 0 {
		c.Rules.Lockfiles = other.Rules.Lockfiles
	}

	if len(other.Resolver.Command) > 0 {
		c.Resolver.Command = other.Resolver.Command
	}
	if other.Resolver.Timeout != "" {
		c.Resolver.Timeout = other.Resolver.Timeout
	}

	if other.Probe.Mode != "" {
		c.Probe.Mode = other.Probe.Mode
	}
	if other.Probe.CacheSize != 0 {
		c.Probe.CacheSize = other.Probe.CacheSize
	}

	if other.VCS.Enabled != nil {
		c.VCS.Enabled = boolPtr(*other.VCS.Enabled)
	}

	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}

// applyEnvOverrides applies SHIPCHECK_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SHIPCHECK_PROFILE"); v != "" {
		c.Profile = v
	}
	if v := os.Getenv("SHIPCHECK_MIN_TARGET_SDK"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			c.Rules.MinTargetSDK = n
		}
	}
	if v := os.Getenv("SHIPCHECK_RESOLVER_TIMEOUT"); v != "" {
		c.Resolver.Timeout = v
	}
	if v := os.Getenv("SHIPCHECK_PROBE_MODE"); v != "" {
		c.Probe.Mode = v
	}
	if v := os.Getenv("SHIPCHECK_VCS_ENABLED"); v != "" {
		c.VCS.Enabled = boolPtr(strings.ToLower(v) == "true" || v == "1")
	}
	if v := os.Getenv("SHIPCHECK_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// VCSEnabled reports whether the working-tree probe should run.
func (c *Config) VCSEnabled() bool {
	return c.VCS.Enabled == nil || *c.VCS.Enabled
}

// ResolverTimeout returns the parsed resolver timeout.
func (c *Config) ResolverTimeout() time.Duration {
	d, err := time.ParseDuration(c.Resolver.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// WatchDebounce returns the parsed watch debounce window.
func (c *Config) WatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 300 * time.Millisecond
	}
	return d
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Profile) == "" {
		return fmt.Errorf("profile must not be empty")
	}
	if c.Rules.MinTargetSDK <= 0 {
		return fmt.Errorf("rules.min_target_sdk must be positive, got %d", c.Rules.MinTargetSDK)
	}
	if len(c.Rules.Lockfiles) == 0 {
		return fmt.Errorf("rules.lockfiles must list at least one file name")
	}
	if len(c.Resolver.Command) == 0 {
		return fmt.Errorf("resolver.command must not be empty")
	}
	if d, err := time.ParseDuration(c.Resolver.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("resolver.timeout must be a positive duration, got %q", c.Resolver.Timeout)
	}
	if d, err := time.ParseDuration(c.Watch.Debounce); err != nil || d < 0 {
		return fmt.Errorf("watch.debounce must be a duration, got %q", c.Watch.Debounce)
	}

	validModes := map[string]bool{ProbeModeBuiltin: true, ProbeModeCommand: true, ProbeModeNone: true}
	if !validModes[strings.ToLower(c.Probe.Mode)] {
		return fmt.Errorf("probe.mode must be 'builtin', 'command', or 'none', got %s", c.Probe.Mode)
	}
	if c.Probe.CacheSize < 0 {
		return fmt.Errorf("probe.cache_size must be non-negative, got %d", c.Probe.CacheSize)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.LogLevel)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// fileExists checks if a regular file exists.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func boolPtr(b bool) *bool {
	return &b
}
