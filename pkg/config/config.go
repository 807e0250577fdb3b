// Package config loads and saves the agentloom configuration file.
//
// The configuration is TOML, stored at <app dir>/config.toml. A missing
// file is not an error: defaults apply until the first save.
package config

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/arthur-debert/agentloom/pkg/errors"
	"github.com/arthur-debert/agentloom/pkg/logging"
)

// Config is the top-level application configuration.
type Config struct {
	// SkillsDir overrides the skill repository location when set
	SkillsDir string `toml:"skills_dir,omitempty"`

	// Targets holds per-target settings keyed by target id
	Targets map[string]TargetConfig `toml:"targets,omitempty"`

	// Preferences holds user preferences
	Preferences Preferences `toml:"preferences"`
}

// TargetConfig holds settings for one sync target.
type TargetConfig struct {
	// Enabled controls whether the syncer acts on this target
	Enabled bool `toml:"enabled"`

	// SkillsPath overrides the auto-detected skills directory.
	// Required for custom (non auto-detected) targets.
	SkillsPath string `toml:"skills_path,omitempty"`

	// Name is the display name, used for custom folder targets
	Name string `toml:"name,omitempty"`

	// SkillOverrides enables or disables individual skills on this
	// target, keyed by folder name. Absent means enabled.
	SkillOverrides map[string]bool `toml:"skill_overrides,omitempty"`
}

// Preferences holds global user preferences.
type Preferences struct {
	// ValidateOnSync restricts syncing to skills that validated clean
	ValidateOnSync bool `toml:"validate_on_sync"`

	// StrictValidation promotes validation warnings to blocking errors
	StrictValidation bool `toml:"strict_validation"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Targets: make(map[string]TargetConfig),
		Preferences: Preferences{
			ValidateOnSync: true,
		},
	}
}

// Load reads the configuration from path. A missing file yields defaults.
func Load(path string) (*Config, error) {
	logger := logging.GetLogger("config")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug().Str("path", path).Msg("No config file, using defaults")
			return Default(), nil
		}
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "cannot read config file").
			WithDetail("path", path)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "cannot parse config file").
			WithDetail("path", path)
	}
	if cfg.Targets == nil {
		cfg.Targets = make(map[string]TargetConfig)
	}

	logger.Debug().Str("path", path).Int("targets", len(cfg.Targets)).Msg("Config loaded")
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, errors.ErrDirCreate, "cannot create config directory").
			WithDetail("path", filepath.Dir(path))
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, errors.ErrConfigSave, "cannot serialize config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, errors.ErrConfigSave, "cannot write config file").
			WithDetail("path", path)
	}
	return nil
}

// Target returns the config entry for a target id, falling back to a
// default-enabled entry when absent.
func (c *Config) Target(id string) TargetConfig {
	if tc, ok := c.Targets[id]; ok {
		return tc
	}
	return TargetConfig{Enabled: true}
}

// SetTargetEnabled records a target's enabled state.
func (c *Config) SetTargetEnabled(id string, enabled bool) {
	tc := c.Target(id)
	tc.Enabled = enabled
	c.Targets[id] = tc
}

// SetSkillOverride records a per-skill enable flag on a target.
func (c *Config) SetSkillOverride(targetID, folderName string, enabled bool) {
	tc := c.Target(targetID)
	if tc.SkillOverrides == nil {
		tc.SkillOverrides = make(map[string]bool)
	}
	tc.SkillOverrides[folderName] = enabled
	c.Targets[targetID] = tc
}
