package confluence

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

// Store operations, as recorded by MemoryStore.
const (
	OpSearch           = "Search"
	OpGetContentByID   = "GetContentByID"
	OpGetContent       = "GetContent"
	OpCreateContent    = "CreateContent"
	OpUpdateContent    = "UpdateContent"
	OpGetLabels        = "GetLabels"
	OpCreateLabels     = "CreateLabels"
	OpDeleteLabel      = "DeleteLabel"
	OpGetAttachments   = "GetAttachments"
	OpAddAttachment    = "AddAttachment"
	OpUpdateAttachment = "UpdateAttachment"
)

// Call is one recorded MemoryStore invocation. Key is the title for
// CreateContent and GetContent, the CQL for Search, and the content ID
// otherwise. Detail carries the label or attachment name where relevant.
type Call struct {
	Op     string
	Key    string
	Detail string
}

var pageQueryPattern = regexp.MustCompile(`^\(title="((?:[^"\\]|\\.)*)" and space='((?:[^'\\]|\\.)*)' and type=page\)$`)

var cqlUnescape = regexp.MustCompile(`\\(.)`)

type memoryPage struct {
	content     interfaces.Content
	body        string
	parentID    string
	labels      []string
	attachments []memoryAttachment
}

type memoryAttachment struct {
	attachment interfaces.Attachment
	path       string
}

type failure struct {
	op  string
	key string
}

// MemoryStore is an in-process ContentStore. It backs dry runs and tests:
// writes are kept in memory and every call is recorded. Search understands
// the page query built by the publisher and nothing else.
type MemoryStore struct {
	mu       sync.Mutex
	seq      int
	pages    map[string]*memoryPage
	failures map[failure]error
	calls    []Call
}

var _ interfaces.ContentStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		seq:      1000,
		pages:    map[string]*memoryPage{},
		failures: map[failure]error{},
	}
}

// Seed stores content as if it already existed remotely and returns it with
// its assigned ID.
func (m *MemoryStore) Seed(content interfaces.Content, body string) interfaces.Content {
	m.mu.Lock()
	defer m.mu.Unlock()
	if content.ID == "" {
		content.ID = m.nextID()
	}
	if content.Type == "" {
		content.Type = interfaces.ContentTypePage
	}
	if content.Status == "" {
		content.Status = interfaces.ContentStatusCurrent
	}
	if content.Version.Number == 0 {
		content.Version.Number = 1
	}
	m.pages[content.ID] = &memoryPage{content: content, body: body}
	return content
}

// SeedLabels attaches global labels to seeded content.
func (m *MemoryStore) SeedLabels(contentID string, names ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if page, ok := m.pages[contentID]; ok {
		page.labels = append(page.labels, names...)
	}
}

// SeedAttachment attaches a file record to seeded content.
func (m *MemoryStore) SeedAttachment(contentID, name string, version int) interfaces.Attachment {
	m.mu.Lock()
	defer m.mu.Unlock()
	att := interfaces.Attachment{ID: "att" + m.nextID(), Title: name, Version: interfaces.Version{Number: version}}
	if page, ok := m.pages[contentID]; ok {
		page.attachments = append(page.attachments, memoryAttachment{attachment: att})
	}
	return att
}

// Fail makes op return err whenever its key matches. An empty key matches
// every call of op.
func (m *MemoryStore) Fail(op, key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[failure{op: op, key: key}] = err
}

// Find returns the page titled title in space.
func (m *MemoryStore) Find(space, title string) (interfaces.Content, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if page := m.lookup(space, title); page != nil {
		return page.content, true
	}
	return interfaces.Content{}, false
}

func (m *MemoryStore) Body(contentID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if page, ok := m.pages[contentID]; ok {
		return page.body
	}
	return ""
}

func (m *MemoryStore) ParentID(contentID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if page, ok := m.pages[contentID]; ok {
		return page.parentID
	}
	return ""
}

func (m *MemoryStore) LabelNames(contentID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if page, ok := m.pages[contentID]; ok {
		return slices.Clone(page.labels)
	}
	return nil
}

func (m *MemoryStore) AttachmentList(contentID string) []interfaces.Attachment {
	m.mu.Lock()
	defer m.mu.Unlock()
	page, ok := m.pages[contentID]
	if !ok {
		return nil
	}
	out := make([]interfaces.Attachment, 0, len(page.attachments))
	for _, att := range page.attachments {
		out = append(out, att.attachment)
	}
	return out
}

// Calls returns every recorded call, optionally filtered by operation.
func (m *MemoryStore) Calls(ops ...string) []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(ops) == 0 {
		return slices.Clone(m.calls)
	}
	var out []Call
	for _, call := range m.calls {
		if slices.Contains(ops, call.Op) {
			out = append(out, call)
		}
	}
	return out
}

func (m *MemoryStore) Search(_ context.Context, cql string) ([]interfaces.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpSearch, cql, ""); err != nil {
		return nil, err
	}
	match := pageQueryPattern.FindStringSubmatch(cql)
	if match == nil {
		return nil, &interfaces.RemoteError{StatusCode: http.StatusBadRequest, Message: "unsupported query: " + cql}
	}
	title := cqlUnescape.ReplaceAllString(match[1], "$1")
	space := cqlUnescape.ReplaceAllString(match[2], "$1")
	if page := m.lookup(space, title); page != nil {
		return []interfaces.Content{page.content}, nil
	}
	return nil, nil
}

func (m *MemoryStore) GetContentByID(_ context.Context, id string) (*interfaces.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpGetContentByID, id, ""); err != nil {
		return nil, err
	}
	page, ok := m.pages[id]
	if !ok {
		return nil, interfaces.ErrContentNotFound
	}
	content := page.content
	return &content, nil
}

func (m *MemoryStore) GetContent(_ context.Context, space, title string, _ ...string) ([]interfaces.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpGetContent, title, space); err != nil {
		return nil, err
	}
	if page := m.lookup(space, title); page != nil {
		return []interfaces.Content{page.content}, nil
	}
	return nil, nil
}

func (m *MemoryStore) CreateContent(_ context.Context, req interfaces.CreateContentRequest) (*interfaces.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpCreateContent, req.Title, req.Space); err != nil {
		return nil, err
	}
	if m.lookup(req.Space, req.Title) != nil {
		return nil, &interfaces.RemoteError{
			StatusCode: http.StatusBadRequest,
			Message:    "A page with this title already exists: " + req.Title,
		}
	}
	if req.ParentID != "" {
		if _, ok := m.pages[req.ParentID]; !ok {
			return nil, &interfaces.RemoteError{StatusCode: http.StatusBadRequest, Message: "parent page not found: " + req.ParentID}
		}
	}
	page := &memoryPage{
		content: interfaces.Content{
			ID:      m.nextID(),
			Type:    req.Type,
			Title:   req.Title,
			Space:   req.Space,
			Status:  interfaces.ContentStatusCurrent,
			Version: interfaces.Version{Number: 1},
		},
		body:     req.Body,
		parentID: req.ParentID,
	}
	m.pages[page.content.ID] = page
	content := page.content
	return &content, nil
}

func (m *MemoryStore) UpdateContent(_ context.Context, req interfaces.UpdateContentRequest) (*interfaces.Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpUpdateContent, req.ID, req.EditMessage); err != nil {
		return nil, err
	}
	page, ok := m.pages[req.ID]
	if !ok {
		return nil, &interfaces.RemoteError{StatusCode: http.StatusNotFound, Message: "no content with id " + req.ID}
	}
	if req.Version != page.content.Version.Number+1 {
		return nil, &interfaces.RemoteError{
			StatusCode: http.StatusConflict,
			Message:    fmt.Sprintf("version must be incremented: got %d, current %d", req.Version, page.content.Version.Number),
		}
	}
	page.body = req.Body
	page.content.Title = req.Title
	page.content.Status = req.NewStatus
	page.content.Version = interfaces.Version{Number: req.Version, MinorEdit: req.MinorEdit, Message: req.EditMessage}
	content := page.content
	return &content, nil
}

func (m *MemoryStore) GetLabels(_ context.Context, contentID string, prefix interfaces.LabelPrefix) ([]interfaces.Label, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpGetLabels, contentID, string(prefix)); err != nil {
		return nil, err
	}
	page, err := m.page(contentID)
	if err != nil {
		return nil, err
	}
	out := make([]interfaces.Label, 0, len(page.labels))
	for _, name := range page.labels {
		out = append(out, interfaces.Label{Prefix: interfaces.LabelPrefixGlobal, Name: name})
	}
	return out, nil
}

func (m *MemoryStore) CreateLabels(_ context.Context, contentID string, labels []interfaces.Label) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(labels))
	for _, label := range labels {
		names = append(names, label.Name)
	}
	if err := m.record(OpCreateLabels, contentID, strings.Join(names, ",")); err != nil {
		return err
	}
	page, err := m.page(contentID)
	if err != nil {
		return err
	}
	for _, name := range names {
		if !slices.Contains(page.labels, name) {
			page.labels = append(page.labels, name)
		}
	}
	return nil
}

func (m *MemoryStore) DeleteLabel(_ context.Context, contentID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpDeleteLabel, contentID, name); err != nil {
		return err
	}
	page, err := m.page(contentID)
	if err != nil {
		return err
	}
	page.labels = slices.DeleteFunc(page.labels, func(existing string) bool { return existing == name })
	return nil
}

func (m *MemoryStore) GetAttachments(_ context.Context, contentID string, _ ...string) ([]interfaces.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpGetAttachments, contentID, ""); err != nil {
		return nil, err
	}
	page, err := m.page(contentID)
	if err != nil {
		return nil, err
	}
	out := make([]interfaces.Attachment, 0, len(page.attachments))
	for _, att := range page.attachments {
		out = append(out, att.attachment)
	}
	return out, nil
}

func (m *MemoryStore) AddAttachment(_ context.Context, req interfaces.AddAttachmentRequest) (*interfaces.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpAddAttachment, req.ContentID, req.Name); err != nil {
		return nil, err
	}
	page, err := m.page(req.ContentID)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(req.Path); err != nil {
		return nil, fmt.Errorf("memory store: attachment source: %w", err)
	}
	for _, existing := range page.attachments {
		if existing.attachment.Title == req.Name {
			return nil, &interfaces.RemoteError{
				StatusCode: http.StatusBadRequest,
				Message:    "Cannot add a new attachment with same file name as an existing attachment: " + req.Name,
			}
		}
	}
	att := interfaces.Attachment{ID: "att" + m.nextID(), Title: req.Name, Version: interfaces.Version{Number: 1}}
	page.attachments = append(page.attachments, memoryAttachment{attachment: att, path: req.Path})
	return &att, nil
}

func (m *MemoryStore) UpdateAttachment(_ context.Context, req interfaces.UpdateAttachmentRequest) (*interfaces.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpUpdateAttachment, req.ContentID, req.Name); err != nil {
		return nil, err
	}
	page, err := m.page(req.ContentID)
	if err != nil {
		return nil, err
	}
	for i := range page.attachments {
		current := &page.attachments[i]
		if current.attachment.ID != req.AttachmentID {
			continue
		}
		if current.attachment.Version.Number != req.Version {
			return nil, &interfaces.RemoteError{
				StatusCode: http.StatusConflict,
				Message:    fmt.Sprintf("stale attachment version %d, current %d", req.Version, current.attachment.Version.Number),
			}
		}
		current.attachment.Version.Number++
		current.path = req.Path
		att := current.attachment
		return &att, nil
	}
	return nil, &interfaces.RemoteError{StatusCode: http.StatusNotFound, Message: "no attachment with id " + req.AttachmentID}
}

// record must be called with mu held.
func (m *MemoryStore) record(op, key, detail string) error {
	m.calls = append(m.calls, Call{Op: op, Key: key, Detail: detail})
	if err, ok := m.failures[failure{op: op, key: key}]; ok {
		return err
	}
	if err, ok := m.failures[failure{op: op}]; ok {
		return err
	}
	return nil
}

func (m *MemoryStore) page(contentID string) (*memoryPage, error) {
	page, ok := m.pages[contentID]
	if !ok {
		return nil, &interfaces.RemoteError{StatusCode: http.StatusNotFound, Message: "no content with id " + contentID}
	}
	return page, nil
}

func (m *MemoryStore) lookup(space, title string) *memoryPage {
	for _, page := range m.pages {
		if page.content.Space == space && page.content.Title == title {
			return page
		}
	}
	return nil
}

func (m *MemoryStore) nextID() string {
	m.seq++
	return strconv.Itoa(m.seq)
}
