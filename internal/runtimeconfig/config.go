package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var ErrConfluenceEndpointRequired = errors.New("wikisync config: confluence endpoint is required")
var ErrConfluenceInvalid = errors.New("wikisync config: confluence settings are invalid")
var ErrPublishSpaceRequired = errors.New("wikisync config: default space is required")
var ErrPublishSpaceInvalid = errors.New("wikisync config: default space must be a space key")
var ErrLoggingProviderUnknown = errors.New("wikisync config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("wikisync config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("wikisync config: logging format is invalid")
var ErrWatchDebounceInvalid = errors.New("wikisync config: watch debounce must be zero or positive")

// Config is the complete runtime configuration. Field tags match the keys
// read from the config file and WIKISYNC_* environment variables.
type Config struct {
	Confluence ConfluenceConfig `mapstructure:"confluence"`
	Publish    PublishConfig    `mapstructure:"publish"`
	Markdown   MarkdownConfig   `mapstructure:"markdown"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Watch      WatchConfig      `mapstructure:"watch"`
}

// ConfluenceConfig locates and authenticates against the wiki.
type ConfluenceConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RetryAttempts uint          `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
}

// PublishConfig controls how documents are assembled and published.
type PublishConfig struct {
	DefaultSpace string   `mapstructure:"default_space"`
	Labels       []string `mapstructure:"labels"`
	Pattern      string   `mapstructure:"pattern"`
	Notice       string   `mapstructure:"notice"`
	// DryRun publishes into an in-memory store instead of the wiki.
	DryRun bool `mapstructure:"dry_run"`
}

// MarkdownConfig selects goldmark extensions.
type MarkdownConfig struct {
	Extensions []string `mapstructure:"extensions"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `mapstructure:"provider"`
	Level     string   `mapstructure:"level"`
	Format    string   `mapstructure:"format"`
	AddSource bool     `mapstructure:"add_source"`
	Focus     []string `mapstructure:"focus"`
}

// WatchConfig controls the watch command.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// DefaultConfig returns the defaults used when neither flags, environment
// nor a config file say otherwise.
func DefaultConfig() Config {
	return Config{
		Confluence: ConfluenceConfig{
			Endpoint:      "https://confluence.example.com",
			Timeout:       60 * time.Second,
			RetryAttempts: 3,
			RetryDelay:    500 * time.Millisecond,
		},
		Publish: PublishConfig{
			DefaultSpace: "IN",
			Pattern:      "**/*.{md,markdown,mdown,mkd}",
		},
		Markdown: MarkdownConfig{
			Extensions: []string{"gfm"},
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if !cfg.Publish.DryRun {
		if strings.TrimSpace(cfg.Confluence.Endpoint) == "" {
			return ErrConfluenceEndpointRequired
		}
		if err := cfg.Confluence.validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrConfluenceInvalid, err)
		}
	}

	space := strings.TrimSpace(cfg.Publish.DefaultSpace)
	if space == "" {
		return ErrPublishSpaceRequired
	}
	if err := validation.Validate(space, is.Alphanumeric); err != nil {
		return fmt.Errorf("%w: %s", ErrPublishSpaceInvalid, space)
	}

	provider := normalizeProvider(cfg.Logging.Provider)
	if provider != "" && !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	if cfg.Watch.Debounce < 0 {
		return ErrWatchDebounceInvalid
	}
	return nil
}

func (c ConfluenceConfig) validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Endpoint, validation.Required, is.URL),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.RetryAttempts, validation.Max(uint(10))),
		validation.Field(&c.RetryDelay, validation.Min(time.Duration(0))),
	)
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
