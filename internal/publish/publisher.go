// Package publish reconciles documents with the remote wiki: each document
// is created or updated, then its labels and attachments are brought in line.
package publish

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-wikisync/internal/logging"
	"github.com/goliatone/go-wikisync/internal/pages"
	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

var ErrStoreRequired = errors.New("publish: content store is required")

const (
	editMessageFormat = "2006-01-02 15:04:05"
	defaultTool       = "wikisync"
)

// Outcome is the terminal state of one document.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped"
)

// Result lists document titles by outcome. Problems holds the reason for
// every skipped document.
type Result struct {
	Created  []string
	Updated  []string
	Skipped  []string
	Problems []*goerrors.Error
}

// Total counts the documents the run looked at.
func (r *Result) Total() int {
	return len(r.Created) + len(r.Updated) + len(r.Skipped)
}

func (r *Result) record(title string, outcome Outcome) {
	switch outcome {
	case OutcomeCreated:
		r.Created = append(r.Created, title)
	case OutcomeUpdated:
		r.Updated = append(r.Updated, title)
	default:
		r.Skipped = append(r.Skipped, title)
	}
}

// Option customises a Publisher.
type Option func(*Publisher)

func WithLogger(logger interfaces.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock replaces time.Now in edit messages.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		if now != nil {
			p.now = now
		}
	}
}

// WithToolName changes the name used in edit messages.
func WithToolName(name string) Option {
	return func(p *Publisher) {
		if name = strings.TrimSpace(name); name != "" {
			p.tool = name
		}
	}
}

// Publisher pushes documents to a ContentStore, one call at a time.
type Publisher struct {
	store  interfaces.ContentStore
	logger interfaces.Logger
	now    func() time.Time
	tool   string
}

func New(store interfaces.ContentStore, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: logging.NoOp(),
		now:    time.Now,
		tool:   defaultTool,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Publish reconciles docs in ascending Order, ties broken by title. A
// document whose parent cannot be resolved or whose creation is rejected is
// skipped; any other failure stops the run and is returned together with
// the partial result.
func (p *Publisher) Publish(ctx context.Context, docs []*pages.Document) (*Result, error) {
	if p.store == nil {
		return nil, ErrStoreRequired
	}

	ordered := sortDocuments(docs)
	result := &Result{}
	logger := p.logger.WithContext(ctx)

	for i, doc := range ordered {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		docLogger := logging.WithDocumentContext(logger, doc.Path, doc.Title, doc.Space)
		docLogger.Debug("publish.page.started", "position", i+1, "total", len(ordered), "order", doc.Order)

		outcome, err := p.publishDocument(ctx, doc, docLogger)
		if err != nil {
			var skip *goerrors.Error
			if errors.As(err, &skip) && isSkip(skip) {
				docLogger.Error("publish.page.skipped", "error", err)
				result.record(doc.Title, OutcomeSkipped)
				result.Problems = append(result.Problems, skip)
				continue
			}
			docLogger.Error("publish.page.failed", "error", err)
			return result, err
		}
		result.record(doc.Title, outcome)
		docLogger.Info("publish.page."+string(outcome), "labels", doc.Labels.Len(), "media", len(doc.Media))
	}
	return result, nil
}

// PublishDocument reconciles a single document.
func (p *Publisher) PublishDocument(ctx context.Context, doc *pages.Document) (Outcome, error) {
	if p.store == nil {
		return OutcomeSkipped, ErrStoreRequired
	}
	logger := logging.WithDocumentContext(p.logger.WithContext(ctx), doc.Path, doc.Title, doc.Space)
	return p.publishDocument(ctx, doc, logger)
}

func (p *Publisher) publishDocument(ctx context.Context, doc *pages.Document, logger interfaces.Logger) (Outcome, error) {
	exists, err := p.exists(ctx, doc)
	if err != nil {
		return OutcomeSkipped, err
	}

	var (
		content *interfaces.Content
		outcome Outcome
	)
	if exists {
		content, err = p.update(ctx, doc, logger)
		outcome = OutcomeUpdated
	} else {
		content, err = p.create(ctx, doc, logger)
		outcome = OutcomeCreated
	}
	if err != nil {
		return OutcomeSkipped, err
	}
	if content == nil || content.ID == "" {
		return outcome, goerrors.New("store returned no content id", goerrors.CategoryExternal).
			WithMetadata(map[string]any{"title": doc.Title})
	}

	if err := p.syncLabels(ctx, content.ID, doc.Labels, logger); err != nil {
		return outcome, err
	}
	if err := p.syncAttachments(ctx, content.ID, doc, logger); err != nil {
		return outcome, err
	}
	return outcome, nil
}

func (p *Publisher) exists(ctx context.Context, doc *pages.Document) (bool, error) {
	matches, err := p.store.Search(ctx, PageQuery(doc.Title, doc.Space))
	if err != nil {
		return false, wrapStoreError(err, "page search failed")
	}
	return len(matches) > 0, nil
}

func (p *Publisher) create(ctx context.Context, doc *pages.Document, logger interfaces.Logger) (*interfaces.Content, error) {
	parentID, err := p.resolveParent(ctx, doc)
	if err != nil {
		return nil, err
	}
	if parentID != "" {
		logger.Debug("publish.parent.resolved", "parent", doc.Parent, "parent_id", parentID)
	}

	content, err := p.store.CreateContent(ctx, interfaces.CreateContentRequest{
		Type:     interfaces.ContentTypePage,
		Title:    doc.Title,
		Space:    doc.Space,
		Body:     doc.Markup,
		ParentID: parentID,
	})
	if err != nil {
		if recoverable(err) {
			return nil, createPageError(doc.Title, err)
		}
		return nil, wrapStoreError(err, "page create failed")
	}
	return content, nil
}

func (p *Publisher) resolveParent(ctx context.Context, doc *pages.Document) (string, error) {
	if doc.Parent == "" {
		return "", nil
	}

	parentID := doc.Parent
	if !doc.ParentIsID() {
		matches, err := p.store.GetContent(ctx, doc.Space, doc.Parent)
		if err != nil {
			if recoverable(err) {
				return "", invalidParentError(doc.Title, doc.Parent, err)
			}
			return "", wrapStoreError(err, "parent lookup failed")
		}
		if len(matches) == 0 {
			return "", invalidParentError(doc.Title, doc.Parent, nil)
		}
		parentID = matches[0].ID
	}

	if _, err := p.store.GetContentByID(ctx, parentID); err != nil {
		if recoverable(err) {
			return "", invalidParentError(doc.Title, doc.Parent, err)
		}
		return "", wrapStoreError(err, "parent lookup failed")
	}
	return parentID, nil
}

func (p *Publisher) update(ctx context.Context, doc *pages.Document, logger interfaces.Logger) (*interfaces.Content, error) {
	matches, err := p.store.GetContent(ctx, doc.Space, doc.Title, "version")
	if err != nil {
		return nil, wrapStoreError(err, "page lookup failed")
	}
	if len(matches) == 0 {
		return nil, pageMissingError(doc.Title, doc.Space)
	}
	current := matches[0]

	next := current.Version.Number + 1
	logger.Debug("publish.page.updating", "id", current.ID, "version", next)

	content, err := p.store.UpdateContent(ctx, interfaces.UpdateContentRequest{
		ID:          current.ID,
		Type:        current.Type,
		Title:       current.Title,
		Body:        doc.Markup,
		Version:     next,
		MinorEdit:   true,
		EditMessage: p.editMessage(),
		Status:      current.Status,
		NewStatus:   interfaces.ContentStatusCurrent,
	})
	if err != nil {
		return nil, wrapStoreError(err, "page update failed")
	}
	return content, nil
}

func (p *Publisher) editMessage() string {
	return "Updated via " + p.tool + " at " + p.now().Format(editMessageFormat)
}

func isSkip(err *goerrors.Error) bool {
	return err.TextCode == TextCodeInvalidParent || err.TextCode == TextCodeCreatePage
}

func sortDocuments(docs []*pages.Document) []*pages.Document {
	ordered := make([]*pages.Document, 0, len(docs))
	for _, doc := range docs {
		if doc != nil {
			ordered = append(ordered, doc)
		}
	}
	slices.SortStableFunc(ordered, func(a, b *pages.Document) int {
		return cmp.Or(cmp.Compare(a.Order, b.Order), strings.Compare(a.Title, b.Title))
	})
	return ordered
}
