// Package wikisync publishes a tree of markdown documents to a Confluence
// wiki, creating or updating one page per document together with its labels
// and attachments.
package wikisync

import (
	"context"

	publishcmd "github.com/goliatone/go-wikisync/internal/commands/publish"
	"github.com/goliatone/go-wikisync/internal/di"
	"github.com/goliatone/go-wikisync/internal/pages"
	"github.com/goliatone/go-wikisync/internal/publish"
)

// Document exports the assembled document type.
type Document = pages.Document

// Result exports the per-run outcome lists.
type Result = publish.Result

// Report exports the summary handed back by Publish.
type Report = publishcmd.Report

// Option customises the runtime container.
type Option = di.Option

var (
	WithLoggerProvider = di.WithLoggerProvider
	WithLogWriter      = di.WithLogWriter
	WithContentStore   = di.WithContentStore
	WithHTTPClient     = di.WithHTTPClient
	WithClock          = di.WithClock
)

// Module represents the top level runtime façade.
type Module struct {
	container *di.Container
}

// New validates cfg and wires a module.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Publish loads every document under path and publishes it. The report is
// returned even when the run stopped early, as long as publishing started.
func (m *Module) Publish(ctx context.Context, path string, labels ...string) (*Report, error) {
	var report *Report
	handler := m.container.PublishTreeHandler(func(r publishcmd.Report) {
		report = &r
	})
	err := handler.Execute(ctx, publishcmd.PublishTreeCommand{
		Path:   path,
		Labels: labels,
		DryRun: m.container.Config.Publish.DryRun,
	})
	return report, err
}

// Render assembles a single document without publishing it.
func (m *Module) Render(path string) (*Document, error) {
	return pages.LoadDocument(path, m.container.BookOptions().Document)
}
