package di

import (
	"io"
	"net/http"
	"time"

	"github.com/goliatone/go-wikisync/internal/commands"
	publishcmd "github.com/goliatone/go-wikisync/internal/commands/publish"
	"github.com/goliatone/go-wikisync/internal/confluence"
	"github.com/goliatone/go-wikisync/internal/logging"
	"github.com/goliatone/go-wikisync/internal/logging/console"
	"github.com/goliatone/go-wikisync/internal/logging/gologger"
	"github.com/goliatone/go-wikisync/internal/markdown"
	"github.com/goliatone/go-wikisync/internal/pages"
	"github.com/goliatone/go-wikisync/internal/publish"
	"github.com/goliatone/go-wikisync/internal/runtimeconfig"
	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

// Container wires the runtime collaborators from a Config.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logWriter      io.Writer
	httpClient     *http.Client
	store          interfaces.ContentStore
	renderer       *markdown.Renderer
	clock          func() time.Time
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider selected by Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

// WithLogWriter redirects the console provider, which writes to stderr by default.
func WithLogWriter(w io.Writer) Option {
	return func(c *Container) {
		c.logWriter = w
	}
}

// WithContentStore replaces the REST client, mostly for tests.
func WithContentStore(store interfaces.ContentStore) Option {
	return func(c *Container) {
		if store != nil {
			c.store = store
		}
	}
}

// WithHTTPClient sets the client used by the REST adapter.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Container) {
		c.httpClient = client
	}
}

// WithClock fixes the time used in edit messages.
func WithClock(now func() time.Time) Option {
	return func(c *Container) {
		c.clock = now
	}
}

// NewContainer validates cfg and builds every collaborator.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	if err := c.configureStore(); err != nil {
		return nil, err
	}
	c.renderer = markdown.NewRenderer(markdown.RenderOptions{
		Extensions: c.Config.Markdown.Extensions,
		Logger:     logging.MarkdownLogger(c.loggerProvider),
	})
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}
	cfg := c.Config.Logging
	switch cfg.Provider {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
			Focus:     cfg.Focus,
		})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	default:
		level, err := console.ParseLevel(cfg.Level)
		if err != nil {
			return err
		}
		c.loggerProvider = console.NewProvider(console.Options{
			Writer:   c.logWriter,
			MinLevel: &level,
			OmitTime: true,
		})
	}
	return nil
}

func (c *Container) configureStore() error {
	if c.store != nil {
		return nil
	}
	if c.Config.Publish.DryRun {
		c.store = confluence.NewMemoryStore()
		return nil
	}
	cfg := c.Config.Confluence
	client, err := confluence.NewClient(confluence.Config{
		Endpoint:      cfg.Endpoint,
		User:          cfg.User,
		Password:      cfg.Password,
		Timeout:       cfg.Timeout,
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    cfg.RetryDelay,
		HTTPClient:    c.httpClient,
		Logger:        logging.ConfluenceLogger(c.loggerProvider),
	})
	if err != nil {
		return err
	}
	c.store = client
	return nil
}

func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

func (c *Container) ContentStore() interfaces.ContentStore {
	return c.store
}

func (c *Container) Renderer() *markdown.Renderer {
	return c.renderer
}

// BookOptions returns the options every run starts its book from.
func (c *Container) BookOptions() pages.BookOptions {
	return pages.BookOptions{
		Labels:  c.Config.Publish.Labels,
		Pattern: c.Config.Publish.Pattern,
		Document: pages.Options{
			DefaultSpace: c.Config.Publish.DefaultSpace,
			Notice:       c.Config.Publish.Notice,
			Renderer:     c.renderer,
			Logger:       logging.PagesLogger(c.loggerProvider),
		},
		Logger: logging.PagesLogger(c.loggerProvider),
	}
}

func (c *Container) publishOptions() []publish.Option {
	opts := []publish.Option{publish.WithLogger(logging.PublishLogger(c.loggerProvider))}
	if c.clock != nil {
		opts = append(opts, publish.WithClock(c.clock))
	}
	return opts
}

// Publisher returns a publisher bound to the container's store.
func (c *Container) Publisher() *publish.Publisher {
	return publish.New(c.store, c.publishOptions()...)
}

// PublishTreeHandler builds the command handler used by the CLI.
func (c *Container) PublishTreeHandler(onReport func(publishcmd.Report)) *publishcmd.PublishTreeHandler {
	return publishcmd.NewPublishTreeHandler(publishcmd.Dependencies{
		Store:          c.store,
		Book:           c.BookOptions(),
		PublishOptions: c.publishOptions(),
		Logger:         commands.CommandLogger(c.loggerProvider, "publish"),
		OnReport:       onReport,
	})
}
