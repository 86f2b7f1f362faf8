package config

import (
	"fmt"
	"net"
	"reflect"
	"regexp"
	"slices"

	"github.com/slacktail/slacktail/internal/highlight"
)

// Credential and channel shapes enforced at load time.
var (
	appTokenShape  = regexp.MustCompile(`^xapp-1-[A-Za-z0-9-]+$`)
	botTokenShape  = regexp.MustCompile(`^xoxb-[A-Za-z0-9-]+$`)
	channelIDShape = regexp.MustCompile(`^C[A-Z0-9]{10}$`)
)

// reloadableKeys defines the whitelist of configuration keys that can be hot-reloaded.
var reloadableKeys = map[string]bool{
	"handlers.console.enabled":      true,
	"handlers.notification.enabled": true,
	"handlers.speech.enabled":       true,
	"handlers.speech.command":       true,
	"highlight.keywords":            true,
	"logging.level":                 true,
}

// staticKeys defines configuration keys that require application restart.
var staticKeys = map[string]string{
	"teams":          "team clients must be rebuilt",
	"metrics":        "ops listener restart required",
	"logging.format": "log handler recreation required",
}

// IsReloadable returns true if the given config key can be hot-reloaded.
func IsReloadable(key string) bool {
	return reloadableKeys[key]
}

// restartReason returns why a static config key requires restart.
func restartReason(key string) string {
	if reason, ok := staticKeys[key]; ok {
		return reason
	}
	return "unknown configuration requires restart"
}

// ValidateLogLevel checks if the log level is valid.
func ValidateLogLevel(level string) error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", level)
	}
	return nil
}

// ValidateLogFormat checks if the log format is valid.
func ValidateLogFormat(format string) error {
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
		"text":    true,
	}
	if !validFormats[format] {
		return fmt.Errorf("invalid log format: %s (must be console, json, or text)", format)
	}
	return nil
}

// ValidateListen checks if a listen address has host:port shape.
func ValidateListen(listen string, fieldName string) error {
	if _, _, err := net.SplitHostPort(listen); err != nil {
		return fmt.Errorf("%s must be a host:port address, got %q", fieldName, listen)
	}
	return nil
}

// Validate performs comprehensive validation on the configuration.
// Violations are collected so a single pass reports every problem.
func (c *Config) Validate() error {
	var errors []string

	// Team validation
	if len(c.Teams) == 0 {
		errors = append(errors, "teams cannot be empty")
	}
	for _, name := range c.TeamNames() {
		team := c.Teams[name]
		if name == "" {
			errors = append(errors, "teams contains an entry with an empty name")
			continue
		}
		// Token values never go into error messages.
		if !appTokenShape.MatchString(team.AppToken) {
			errors = append(errors, fmt.Sprintf("teams.%s.appToken is not an app-level token (must match %s)", name, appTokenShape))
		}
		if !botTokenShape.MatchString(team.BotToken) {
			errors = append(errors, fmt.Sprintf("teams.%s.botToken is not a bot token (must match %s)", name, botTokenShape))
		}
		if len(team.Channels) == 0 {
			errors = append(errors, fmt.Sprintf("teams.%s.channels cannot be empty", name))
		}
		for i, id := range team.Channels {
			if !channelIDShape.MatchString(id) {
				errors = append(errors, fmt.Sprintf("teams.%s.channels[%d]: %q is not a channel ID (must match %s)", name, i, id, channelIDShape))
			}
		}
	}

	// Highlight validation: every keyword must compile so a bad pattern
	// fails at startup instead of at render time.
	for i, spec := range c.Highlight.Keywords {
		if _, err := highlight.New(spec); err != nil {
			errors = append(errors, fmt.Sprintf("highlight.keywords[%d]: %v", i, err))
		}
	}

	// Handler validation
	if c.Handlers.Speech.Enabled && c.Handlers.Speech.Command == "" {
		errors = append(errors, "handlers.speech.command cannot be empty when speech is enabled")
	}

	// Logging validation
	if err := ValidateLogLevel(c.Logging.Level); err != nil {
		errors = append(errors, err.Error())
	}
	if err := ValidateLogFormat(c.Logging.Format); err != nil {
		errors = append(errors, err.Error())
	}

	// Metrics validation
	if c.Metrics.Enabled {
		if err := ValidateListen(c.Metrics.Listen, "metrics.listen"); err != nil {
			errors = append(errors, err.Error())
		}
	}

	// Return all validation errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", joinErrors(errors))
	}

	return nil
}

// joinErrors joins multiple error messages with newlines and bullets.
func joinErrors(errors []string) string {
	if len(errors) == 0 {
		return ""
	}
	result := errors[0]
	for i := 1; i < len(errors); i++ {
		result += "\n  - " + errors[i]
	}
	return result
}

// staticChanges lists the static keys whose values differ between two
// configurations.
func staticChanges(old, next *Config) []string {
	var changed []string
	if !reflect.DeepEqual(old.Teams, next.Teams) {
		changed = append(changed, "teams")
	}
	if old.Metrics != next.Metrics {
		changed = append(changed, "metrics")
	}
	if old.Logging.Format != next.Logging.Format {
		changed = append(changed, "logging.format")
	}
	return changed
}

// reloadableChanges lists the reloadable keys whose values differ between
// two configurations.
func reloadableChanges(old, next *Config) []string {
	var changed []string
	if old.Handlers.Console.Enabled != next.Handlers.Console.Enabled {
		changed = append(changed, "handlers.console.enabled")
	}
	if old.Handlers.Notification.Enabled != next.Handlers.Notification.Enabled {
		changed = append(changed, "handlers.notification.enabled")
	}
	if old.Handlers.Speech.Enabled != next.Handlers.Speech.Enabled {
		changed = append(changed, "handlers.speech.enabled")
	}
	if old.Handlers.Speech.Command != next.Handlers.Speech.Command {
		changed = append(changed, "handlers.speech.command")
	}
	if !slices.Equal(old.Highlight.Keywords, next.Highlight.Keywords) {
		changed = append(changed, "highlight.keywords")
	}
	if old.Logging.Level != next.Logging.Level {
		changed = append(changed, "logging.level")
	}
	return changed
}
