package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// DefaultPath is the config file location when CONFIG_PATH is unset.
const DefaultPath = ".env.json"

// Config holds all application configuration.
type Config struct {
	Teams     map[string]Team `json:"teams"`
	Handlers  HandlersConfig  `json:"handlers"`
	Highlight HighlightConfig `json:"highlight"`
	Logging   LoggingConfig   `json:"logging"`
	Metrics   MetricsConfig   `json:"metrics"`
}

// Team holds one workspace's credentials and channel subscriptions.
type Team struct {
	AppToken string   `json:"appToken"`
	BotToken string   `json:"botToken"`
	Channels []string `json:"channels"`
}

// HandlersConfig holds the per-handler toggles.
type HandlersConfig struct {
	Console      ConsoleConfig      `json:"console"`
	Notification NotificationConfig `json:"notification"`
	Speech       SpeechConfig       `json:"speech"`
}

// ConsoleConfig holds console handler settings.
type ConsoleConfig struct {
	Enabled bool `json:"enabled"`
}

// NotificationConfig holds desktop notification handler settings.
type NotificationConfig struct {
	Enabled bool `json:"enabled"`
}

// SpeechConfig holds speech handler settings.
type SpeechConfig struct {
	Enabled bool   `json:"enabled"`
	Command string `json:"command"`
}

// HighlightConfig holds render-time keyword matching settings.
type HighlightConfig struct {
	Keywords []string `json:"keywords"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// MetricsConfig holds the optional ops listener settings.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Listen  string `json:"listen"`
}

// Load reads configuration from file and environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables so secrets can be referenced as
	// ${SLACK_APP_TOKEN} instead of living in the file.
	expanded := os.ExpandEnv(string(data))

	cfg := defaultConfig()
	dec := json.NewDecoder(strings.NewReader(expanded))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Apply defaults
	cfg.applyDefaults()

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Path returns the config file location, honoring the CONFIG_PATH
// environment variable.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// defaultConfig seeds the values that hold when the file leaves them out.
// Decoding writes over only the fields the file actually sets, which is
// what lets console stay enabled by default.
func defaultConfig() *Config {
	return &Config{
		Handlers: HandlersConfig{
			Console: ConsoleConfig{Enabled: true},
			Speech:  SpeechConfig{Command: "say"},
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Metrics: MetricsConfig{Listen: ":9090"},
	}
}

// overrideFromEnv overrides config values from environment variables.
func (c *Config) overrideFromEnv() {
	// Logging
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

// applyDefaults restores defaults for values set to the empty string.
func (c *Config) applyDefaults() {
	if c.Handlers.Speech.Command == "" {
		c.Handlers.Speech.Command = "say"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = ":9090"
	}
}

// TeamNames returns the configured team names in sorted order. The teams
// mapping is keyed by name, so sorting gives every startup the same
// connect and report order.
func (c *Config) TeamNames() []string {
	names := make([]string, 0, len(c.Teams))
	for name := range c.Teams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	out.Teams = make(map[string]Team, len(c.Teams))
	for name, team := range c.Teams {
		team.Channels = append([]string(nil), team.Channels...)
		out.Teams[name] = team
	}
	out.Highlight.Keywords = append([]string(nil), c.Highlight.Keywords...)
	return &out
}
