package logging

import (
	"context"
	"maps"
	"strings"

	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

const (
	rootModule       = "wikisync"
	markdownModule   = "wikisync.markdown"
	pagesModule      = "wikisync.pages"
	publishModule    = "wikisync.publish"
	confluenceModule = "wikisync.confluence"
)

const (
	fieldDocumentPath  = "path"
	fieldDocumentTitle = "title"
	fieldDocumentSpace = "space"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field so entries can be filtered per module.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// MarkdownLogger returns the logger namespace reserved for rendering.
func MarkdownLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, markdownModule)
}

// PagesLogger returns the logger namespace reserved for document collection.
func PagesLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, pagesModule)
}

// PublishLogger returns the logger namespace reserved for reconciliation.
func PublishLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, publishModule)
}

// ConfluenceLogger returns the logger namespace reserved for the REST client.
func ConfluenceLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, confluenceModule)
}

// WithFields attaches structured fields to a logger when the implementation
// supports the optional FieldsLogger extension. Nil or empty maps are a no-op.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		copied := make(map[string]any, len(fields))
		maps.Copy(copied, fields)
		return fieldsLogger.WithFields(copied)
	}

	return logger
}

// WithDocumentContext enriches logger with the document's path, title and
// space. Empty values are ignored.
func WithDocumentContext(logger interfaces.Logger, path, title, space string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		fields[fieldDocumentPath] = trimmed
	}
	if trimmed := strings.TrimSpace(title); trimmed != "" {
		fields[fieldDocumentTitle] = trimmed
	}
	if trimmed := strings.TrimSpace(space); trimmed != "" {
		fields[fieldDocumentSpace] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
