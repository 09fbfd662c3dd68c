package wikisync

import "github.com/goliatone/go-wikisync/internal/runtimeconfig"

var (
	ErrConfluenceEndpointRequired = runtimeconfig.ErrConfluenceEndpointRequired
	ErrConfluenceInvalid          = runtimeconfig.ErrConfluenceInvalid
	ErrPublishSpaceRequired       = runtimeconfig.ErrPublishSpaceRequired
	ErrPublishSpaceInvalid        = runtimeconfig.ErrPublishSpaceInvalid
	ErrLoggingProviderUnknown     = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid        = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid       = runtimeconfig.ErrLoggingFormatInvalid
	ErrWatchDebounceInvalid       = runtimeconfig.ErrWatchDebounceInvalid
)

type (
	Config           = runtimeconfig.Config
	ConfluenceConfig = runtimeconfig.ConfluenceConfig
	PublishConfig    = runtimeconfig.PublishConfig
	MarkdownConfig   = runtimeconfig.MarkdownConfig
	LoggingConfig    = runtimeconfig.LoggingConfig
	WatchConfig      = runtimeconfig.WatchConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
