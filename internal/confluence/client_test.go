package confluence

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		Endpoint:      server.URL + "/wiki",
		User:          "bot",
		Password:      "secret",
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	})
	require.NoError(t, err)
	return client, server
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClientValidatesEndpoint(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrEndpointRequired)

	_, err = NewClient(Config{Endpoint: "ftp://example.com"})
	assert.Error(t, err)

	client, err := NewClient(Config{Endpoint: "https://confluence.example.com/"})
	require.NoError(t, err)
	assert.Equal(t, "https://confluence.example.com", client.Endpoint())
}

func TestSearchFollowsPagination(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "bot", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "/wiki/rest/api/content/search", r.URL.Path)
		assert.Equal(t, `(title="A" and space='IN' and type=page)`, r.URL.Query().Get("cql"))

		if r.URL.Query().Get("start") == "" {
			writeJSON(w, http.StatusOK, map[string]any{
				"results": []map[string]any{{"id": "1", "type": "page", "title": "A", "status": "current"}},
				"_links":  map[string]any{"next": "/wiki/rest/api/content/search?cql=" + r.URL.Query().Get("cql") + "&start=1"},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"results": []map[string]any{{"id": "2", "type": "page", "title": "A", "space": map[string]any{"key": "IN"}, "version": map[string]any{"number": 7}}},
		})
	})

	results, err := client.Search(context.Background(), `(title="A" and space='IN' and type=page)`)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "1", results[0].ID)
	assert.Equal(t, interfaces.ContentTypePage, results[0].Type)
	assert.Equal(t, "IN", results[1].Space)
	assert.Equal(t, 7, results[1].Version.Number)
	assert.EqualValues(t, 2, calls.Load())
}

func TestGetContentByIDMapsNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wiki/rest/api/content/42", r.URL.Path)
		writeJSON(w, http.StatusNotFound, map[string]any{"statusCode": 404, "message": "No content found with id: 42"})
	})

	_, err := client.GetContentByID(context.Background(), "42")

	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)
}

func TestGetContentSendsFilters(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "IN", q.Get("spaceKey"))
		assert.Equal(t, "Setup Guide", q.Get("title"))
		assert.Equal(t, "version", q.Get("expand"))
		writeJSON(w, http.StatusOK, map[string]any{
			"results": []map[string]any{{"id": "9", "title": "Setup Guide", "status": "draft", "version": map[string]any{"number": 2}}},
		})
	})

	results, err := client.GetContent(context.Background(), "IN", "Setup Guide", "version")

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, interfaces.ContentStatusDraft, results[0].Status)
	assert.Equal(t, 2, results[0].Version.Number)
}

func TestReadsRetryServerErrors(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"message": "busy"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": "5", "title": "Back"})
	})

	content, err := client.GetContentByID(context.Background(), "5")

	require.NoError(t, err)
	assert.Equal(t, "Back", content.Title)
	assert.EqualValues(t, 2, calls.Load())
}

func TestReadsDoNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusUnauthorized, map[string]any{"statusCode": 401, "message": "Authentication required"})
	})

	_, err := client.Search(context.Background(), "type=page")

	var remote *interfaces.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.True(t, remote.IsAuth())
	assert.Equal(t, "Authentication required", remote.Message)
	assert.EqualValues(t, 1, calls.Load())
}

func TestCreateContentPayload(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/wiki/rest/api/content", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "page", body["type"])
		assert.Equal(t, "Setup Guide", body["title"])
		assert.Equal(t, map[string]any{"key": "IN"}, body["space"])
		assert.Equal(t, []any{map[string]any{"id": "77"}}, body["ancestors"])
		assert.Equal(t, map[string]any{"storage": map[string]any{"value": "<p>x</p>", "representation": "storage"}}, body["body"])

		writeJSON(w, http.StatusOK, map[string]any{"id": "100", "type": "page", "title": "Setup Guide", "version": map[string]any{"number": 1}})
	})

	content, err := client.CreateContent(context.Background(), interfaces.CreateContentRequest{
		Type:     interfaces.ContentTypePage,
		Title:    "Setup Guide",
		Space:    "IN",
		Body:     "<p>x</p>",
		ParentID: "77",
	})

	require.NoError(t, err)
	assert.Equal(t, "100", content.ID)
	assert.EqualValues(t, 1, calls.Load())
}

func TestCreateContentSurfacesRemoteMessage(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"statusCode": 500, "message": "Error parsing xhtml"})
	})

	_, err := client.CreateContent(context.Background(), interfaces.CreateContentRequest{Title: "Bad", Space: "IN"})

	var remote *interfaces.RemoteError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, http.StatusInternalServerError, remote.StatusCode)
	assert.Equal(t, "Error parsing xhtml", remote.Message)
	assert.EqualValues(t, 1, calls.Load(), "writes are not retried")
}

func TestUpdateContentPayload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/wiki/rest/api/content/9", r.URL.Path)
		assert.Equal(t, "draft", r.URL.Query().Get("status"))

		var body contentJSON
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "current", body.Status)
		require.NotNil(t, body.Version)
		assert.Equal(t, 3, body.Version.Number)
		assert.True(t, body.Version.MinorEdit)
		assert.Equal(t, "Updated via wikisync", body.Version.Message)

		writeJSON(w, http.StatusOK, map[string]any{"id": "9", "version": map[string]any{"number": 3}})
	})

	content, err := client.UpdateContent(context.Background(), interfaces.UpdateContentRequest{
		ID:          "9",
		Type:        interfaces.ContentTypePage,
		Title:       "T",
		Body:        "<p>new</p>",
		Version:     3,
		MinorEdit:   true,
		EditMessage: "Updated via wikisync",
		Status:      interfaces.ContentStatusDraft,
		NewStatus:   interfaces.ContentStatusCurrent,
	})

	require.NoError(t, err)
	assert.Equal(t, 3, content.Version.Number)
}

func TestLabelOperations(t *testing.T) {
	var deleted, created []string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wiki/rest/api/content/9/label", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "global", r.URL.Query().Get("prefix"))
			writeJSON(w, http.StatusOK, map[string]any{"results": []map[string]any{{"prefix": "global", "name": "docs"}}})
		case http.MethodPost:
			var body []labelJSON
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			for _, label := range body {
				assert.Equal(t, "global", label.Prefix)
				created = append(created, label.Name)
			}
			writeJSON(w, http.StatusOK, map[string]any{"results": body})
		case http.MethodDelete:
			deleted = append(deleted, r.URL.Query().Get("name"))
			w.WriteHeader(http.StatusNoContent)
		}
	})
	ctx := context.Background()

	labels, err := client.GetLabels(ctx, "9", interfaces.LabelPrefixGlobal)
	require.NoError(t, err)
	assert.Equal(t, []interfaces.Label{{Prefix: interfaces.LabelPrefixGlobal, Name: "docs"}}, labels)

	require.NoError(t, client.CreateLabels(ctx, "9", []interfaces.Label{{Name: "a"}, {Prefix: interfaces.LabelPrefixGlobal, Name: "b"}}))
	require.NoError(t, client.DeleteLabel(ctx, "9", "old label"))
	require.NoError(t, client.CreateLabels(ctx, "9", nil))

	assert.Equal(t, []string{"a", "b"}, created)
	assert.Equal(t, []string{"old label"}, deleted)
}

func TestAttachmentUploads(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "diagram.png")
	require.NoError(t, os.WriteFile(src, []byte("png-bytes"), 0o644))

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			assert.Equal(t, "/wiki/rest/api/content/9/child/attachment", r.URL.Path)
			assert.Equal(t, "version", r.URL.Query().Get("expand"))
			writeJSON(w, http.StatusOK, map[string]any{
				"results": []map[string]any{{"id": "att1", "title": "diagram.png", "version": map[string]any{"number": 4}}},
			})
			return
		}

		assert.Equal(t, "nocheck", r.Header.Get("X-Atlassian-Token"))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "png-bytes", string(data))
		assert.Equal(t, "diagram.png", header.Filename)

		switch r.URL.Path {
		case "/wiki/rest/api/content/9/child/attachment":
			writeJSON(w, http.StatusOK, map[string]any{
				"results": []map[string]any{{"id": "att2", "title": "diagram.png", "version": map[string]any{"number": 1}}},
			})
		case "/wiki/rest/api/content/9/child/attachment/att1/data":
			assert.Equal(t, "replaces version 4", r.FormValue("comment"))
			writeJSON(w, http.StatusOK, map[string]any{"id": "att1", "title": "diagram.png", "version": map[string]any{"number": 5}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	ctx := context.Background()

	existing, err := client.GetAttachments(ctx, "9", "version")
	require.NoError(t, err)
	require.Len(t, existing, 1)
	assert.Equal(t, 4, existing[0].Version.Number)

	added, err := client.AddAttachment(ctx, interfaces.AddAttachmentRequest{ContentID: "9", Path: src, Name: "diagram.png"})
	require.NoError(t, err)
	assert.Equal(t, "att2", added.ID)

	updated, err := client.UpdateAttachment(ctx, interfaces.UpdateAttachmentRequest{
		ContentID:    "9",
		AttachmentID: "att1",
		Version:      4,
		Path:         src,
		Name:         "diagram.png",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Version.Number)
}

func TestAddAttachmentMissingFile(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected")
	})

	_, err := client.AddAttachment(context.Background(), interfaces.AddAttachmentRequest{
		ContentID: "9",
		Path:      filepath.Join(t.TempDir(), "missing.png"),
	})

	assert.Error(t, err)
}
