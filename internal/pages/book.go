package pages

import (
	"context"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-wikisync/internal/logging"
	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

// BookOptions configures a Book.
type BookOptions struct {
	// Labels are applied to every document added to the book.
	Labels []string
	// Pattern overrides DefaultPattern when a directory is added.
	Pattern  string
	Document Options
	Logger   interfaces.Logger
}

// Book is the set of documents published by one run, keyed by title.
type Book struct {
	labels   Labels
	pattern  string
	docOpts  Options
	logger   interfaces.Logger
	docs     []*Document
	byTitle  map[string]*Document
	problems *goerrors.ErrorCollector
}

func NewBook(opts BookOptions) *Book {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	docOpts := opts.Document
	if docOpts.Logger == nil {
		docOpts.Logger = logger
	}
	return &Book{
		labels:   NormalizeLabels(opts.Labels...),
		pattern:  opts.Pattern,
		docOpts:  docOpts.withDefaults(),
		logger:   logger,
		byTitle:  map[string]*Document{},
		problems: goerrors.NewCollector(goerrors.WithMaxErrors(1000)),
	}
}

// AddPath discovers and loads every markdown document below root. An invalid
// root is returned as an error before anything is loaded; files that fail to
// parse are logged, recorded in Problems and skipped.
func (b *Book) AddPath(ctx context.Context, root string) error {
	paths, err := Discover(root, b.pattern)
	if err != nil {
		return err
	}
	b.logger.Debug("pages.discover.completed", "root", root, "files", len(paths))

	docs, err := loadAll(ctx, paths, b.docOpts, func(path string, err error) {
		b.logger.Warn("pages.document.parse_failed", "path", path, "error", err)
		b.problems.Add(err)
	})
	b.AddDocuments(docs...)
	return err
}

// AddDocuments adds the publishable documents, tagging each with the book's
// global labels. A title already present keeps its first document; the
// duplicate is logged and recorded as a DUPLICATE_TITLE problem. It returns
// the number of documents added.
func (b *Book) AddDocuments(docs ...*Document) int {
	added := 0
	for _, doc := range docs {
		if !doc.IsPublishable() {
			if doc != nil {
				b.logger.Info("pages.document.unpublishable", "path", doc.Path)
			}
			continue
		}
		if kept, ok := b.byTitle[doc.Title]; ok {
			err := duplicateTitleError(doc.Title, doc.Path, kept.Path)
			b.logger.Warn("pages.document.duplicate_title",
				"title", doc.Title,
				"path", doc.Path,
				"kept", kept.Path,
			)
			b.problems.Add(err)
			continue
		}
		tagged := doc.WithLabels(b.labels)
		b.byTitle[tagged.Title] = tagged
		b.docs = append(b.docs, tagged)
		added++
	}
	return added
}

// Documents returns the documents in the order they were added.
func (b *Book) Documents() []*Document {
	return append([]*Document(nil), b.docs...)
}

// Document returns the document published under title.
func (b *Book) Document(title string) (*Document, bool) {
	doc, ok := b.byTitle[title]
	return doc, ok
}

func (b *Book) Labels() Labels {
	return b.labels
}

func (b *Book) Len() int {
	return len(b.docs)
}

// Problems returns the per-document failures recorded while filling the book.
func (b *Book) Problems() []*goerrors.Error {
	return b.problems.Errors()
}
