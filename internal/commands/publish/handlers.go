package publishcmd

import (
	"context"
	"slices"

	command "github.com/goliatone/go-command"
	"github.com/google/uuid"

	"github.com/goliatone/go-wikisync/internal/commands"
	"github.com/goliatone/go-wikisync/internal/confluence"
	"github.com/goliatone/go-wikisync/internal/logging"
	"github.com/goliatone/go-wikisync/internal/pages"
	"github.com/goliatone/go-wikisync/internal/publish"
	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

const publishTreeOperation = "publish.tree"

var _ command.Commander[PublishTreeCommand] = (*PublishTreeHandler)(nil)

// Report summarises one run for the caller.
type Report struct {
	RunID  string
	DryRun bool
	Book   *pages.Book
	Result *publish.Result
	// Store is the store the run wrote to, the in-memory one on dry runs.
	Store interfaces.ContentStore
}

// Dependencies wires a PublishTreeHandler.
type Dependencies struct {
	// Store may be nil when every run is a dry run.
	Store          interfaces.ContentStore
	Book           pages.BookOptions
	PublishOptions []publish.Option
	Logger         interfaces.Logger
	// OnReport receives every run that got as far as publishing, including
	// runs that stopped on an error.
	OnReport func(Report)
}

// PublishTreeHandler loads a tree into a book and publishes it.
type PublishTreeHandler struct {
	inner *commands.Handler[PublishTreeCommand]
}

// NewPublishTreeHandler creates a handler bound to deps.
func NewPublishTreeHandler(deps Dependencies, opts ...commands.HandlerOption[PublishTreeCommand]) *PublishTreeHandler {
	baseLogger := commands.EnsureLogger(deps.Logger)

	exec := func(ctx context.Context, msg PublishTreeCommand) error {
		runID := uuid.NewString()
		ctx = logging.ContextWithFields(ctx, map[string]any{"run_id": runID})
		logger := baseLogger.WithContext(ctx)

		store := deps.Store
		if msg.DryRun {
			store = confluence.NewMemoryStore()
		}
		if store == nil {
			return publish.ErrStoreRequired
		}

		bookOpts := deps.Book
		bookOpts.Labels = append(slices.Clone(bookOpts.Labels), msg.Labels...)
		book := pages.NewBook(bookOpts)
		if err := book.AddPath(ctx, msg.Path); err != nil {
			return err
		}
		logger.Info("publish.tree.loaded",
			"documents", book.Len(),
			"problems", len(book.Problems()),
			"labels", book.Labels().String(),
		)

		publisher := publish.New(store, deps.PublishOptions...)
		result, err := publisher.Publish(ctx, book.Documents())
		if result != nil {
			logging.WithFields(logger, map[string]any{
				"created_count": len(result.Created),
				"updated_count": len(result.Updated),
				"skipped_count": len(result.Skipped),
				"dry_run":       msg.DryRun,
			}).Info("publish.tree.completed")
		}
		if deps.OnReport != nil {
			deps.OnReport(Report{
				RunID:  runID,
				DryRun: msg.DryRun,
				Book:   book,
				Result: result,
				Store:  store,
			})
		}
		return err
	}

	handlerOpts := []commands.HandlerOption[PublishTreeCommand]{
		commands.WithLogger[PublishTreeCommand](baseLogger),
		commands.WithOperation[PublishTreeCommand](publishTreeOperation),
		commands.WithMessageFields(func(msg PublishTreeCommand) map[string]any {
			fields := map[string]any{"path": msg.Path}
			if len(msg.Labels) > 0 {
				fields["labels"] = msg.Labels
			}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[PublishTreeCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PublishTreeHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[PublishTreeCommand].
func (h *PublishTreeHandler) Execute(ctx context.Context, msg PublishTreeCommand) error {
	return h.inner.Execute(ctx, msg)
}
