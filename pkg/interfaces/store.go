package interfaces

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrContentNotFound is returned by ContentStore implementations when a lookup
// by ID does not match any remote content.
var ErrContentNotFound = errors.New("content store: content not found")

// ContentType enumerates the remote content kinds the publisher writes.
type ContentType string

const (
	ContentTypePage       ContentType = "page"
	ContentTypeAttachment ContentType = "attachment"
)

// ContentStatus mirrors the lifecycle states exposed by the wiki.
type ContentStatus string

const (
	ContentStatusCurrent ContentStatus = "current"
	ContentStatusDraft   ContentStatus = "draft"
)

// LabelPrefix scopes labels to a namespace on the remote side.
type LabelPrefix string

const (
	LabelPrefixGlobal LabelPrefix = "global"
)

// ContentStore is the remote wiki as seen by the publisher: a transactional
// content store exposing search, CRUD, label and attachment operations. Every
// call blocks until the remote side answers.
type ContentStore interface {
	// Search runs a structured query (CQL) and returns every match.
	Search(ctx context.Context, cql string) ([]Content, error)
	// GetContentByID returns ErrContentNotFound when the ID is unknown.
	GetContentByID(ctx context.Context, id string) (*Content, error)
	// GetContent lists content matching space and title, expanding the
	// requested fields (e.g. "version").
	GetContent(ctx context.Context, space, title string, expand ...string) ([]Content, error)
	CreateContent(ctx context.Context, req CreateContentRequest) (*Content, error)
	UpdateContent(ctx context.Context, req UpdateContentRequest) (*Content, error)

	GetLabels(ctx context.Context, contentID string, prefix LabelPrefix) ([]Label, error)
	CreateLabels(ctx context.Context, contentID string, labels []Label) error
	DeleteLabel(ctx context.Context, contentID, name string) error

	GetAttachments(ctx context.Context, contentID string, expand ...string) ([]Attachment, error)
	AddAttachment(ctx context.Context, req AddAttachmentRequest) (*Attachment, error)
	UpdateAttachment(ctx context.Context, req UpdateAttachmentRequest) (*Attachment, error)
}

// Content is a remote page (or other content entity) as returned by the store.
type Content struct {
	ID      string
	Type    ContentType
	Title   string
	Space   string
	Status  ContentStatus
	Version Version
}

// Version captures the remote revision of a content entity.
type Version struct {
	Number    int
	MinorEdit bool
	Message   string
}

// Label is a remote tag attached to content.
type Label struct {
	Prefix LabelPrefix
	Name   string
}

// Attachment is a binary file stored under a page, addressed by Title.
type Attachment struct {
	ID      string
	Title   string
	Version Version
}

// CreateContentRequest describes a new page. ParentID is optional.
type CreateContentRequest struct {
	Type     ContentType
	Title    string
	Space    string
	Body     string
	ParentID string
}

// UpdateContentRequest replaces the body of existing content. Version must be
// the next revision number (current + 1).
type UpdateContentRequest struct {
	ID          string
	Type        ContentType
	Title       string
	Body        string
	Version     int
	MinorEdit   bool
	EditMessage string
	Status      ContentStatus
	NewStatus   ContentStatus
}

// AddAttachmentRequest uploads Path as a new attachment called Name.
type AddAttachmentRequest struct {
	ContentID string
	Path      string
	Name      string
}

// UpdateAttachmentRequest uploads new data for an existing attachment.
// Version is the attachment's current revision number.
type UpdateAttachmentRequest struct {
	ContentID    string
	AttachmentID string
	Version      int
	Path         string
	Name         string
}

// RemoteError is returned when the store rejects a request. Message carries
// the store's own explanation, extracted from the response body.
type RemoteError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("content store: status %d", e.StatusCode)
	}
	return fmt.Sprintf("content store: status %d: %s", e.StatusCode, e.Message)
}

// IsAuth reports whether the rejection is an authentication or authorization
// failure, which callers treat as fatal.
func (e *RemoteError) IsAuth() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}
