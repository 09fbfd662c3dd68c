package bootstrap

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	wikisync "github.com/goliatone/go-wikisync"
	"github.com/goliatone/go-wikisync/internal/di"
	"github.com/goliatone/go-wikisync/internal/logging"
	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

const envPrefix = "WIKISYNC"

// Options captures configuration for CLI bootstraps.
type Options struct {
	// ConfigFile is an explicit config path. When empty, wikisync.yaml is
	// looked up in the working directory and $HOME/.config/wikisync.
	ConfigFile string
	// Viper carries flag bindings; a fresh instance is used when nil.
	Viper *viper.Viper
	Debug bool
	// Offline forces a dry run, for commands that never talk to the wiki.
	Offline       bool
	ModuleOptions []wikisync.Option
}

// Module wraps the wikisync module and the CLI logger.
type Module struct {
	Module    *wikisync.Module
	Container *di.Container
	Logger    interfaces.Logger
}

// NewViper returns a viper instance with defaults and environment bindings.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v, wikisync.DefaultConfig())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("confluence.endpoint", "CONFLUENCE_ENDPOINT", envPrefix+"_CONFLUENCE_ENDPOINT")
	_ = v.BindEnv("confluence.user", "CONFLUENCE_USER", envPrefix+"_CONFLUENCE_USER")
	_ = v.BindEnv("confluence.password", "CONFLUENCE_PASS", envPrefix+"_CONFLUENCE_PASSWORD")
	return v
}

func setDefaults(v *viper.Viper, cfg wikisync.Config) {
	v.SetDefault("confluence.endpoint", cfg.Confluence.Endpoint)
	v.SetDefault("confluence.user", cfg.Confluence.User)
	v.SetDefault("confluence.password", cfg.Confluence.Password)
	v.SetDefault("confluence.timeout", cfg.Confluence.Timeout)
	v.SetDefault("confluence.retry_attempts", cfg.Confluence.RetryAttempts)
	v.SetDefault("confluence.retry_delay", cfg.Confluence.RetryDelay)
	v.SetDefault("publish.default_space", cfg.Publish.DefaultSpace)
	v.SetDefault("publish.labels", cfg.Publish.Labels)
	v.SetDefault("publish.pattern", cfg.Publish.Pattern)
	v.SetDefault("publish.notice", cfg.Publish.Notice)
	v.SetDefault("publish.dry_run", cfg.Publish.DryRun)
	v.SetDefault("markdown.extensions", cfg.Markdown.Extensions)
	v.SetDefault("logging.provider", cfg.Logging.Provider)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.add_source", cfg.Logging.AddSource)
	v.SetDefault("logging.focus", cfg.Logging.Focus)
	v.SetDefault("watch.debounce", cfg.Watch.Debounce)
}

// LoadConfig reads the optional config file and decodes the merged view of
// defaults, file, environment and flags.
func LoadConfig(v *viper.Viper, file string) (wikisync.Config, error) {
	if v == nil {
		v = NewViper()
	}
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("wikisync")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/wikisync")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return wikisync.Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := wikisync.DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return wikisync.Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// BuildModule loads the configuration and constructs a module.
func BuildModule(opts Options) (*Module, error) {
	cfg, err := LoadConfig(opts.Viper, opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if opts.Debug {
		cfg.Logging.Level = "debug"
	}
	if opts.Offline {
		cfg.Publish.DryRun = true
	}

	module, err := wikisync.New(cfg, opts.ModuleOptions...)
	if err != nil {
		return nil, err
	}
	container := module.Container()
	return &Module{
		Module:    module,
		Container: container,
		Logger:    logging.ModuleLogger(container.LoggerProvider(), "wikisync.cli"),
	}, nil
}
