package confluence

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

// maxPages caps how many result pages a listing follows.
const maxPages = 50

func (c *Client) Search(ctx context.Context, cql string) ([]interfaces.Content, error) {
	return c.list(ctx, contentPath+"/search", url.Values{"cql": {cql}})
}

func (c *Client) GetContentByID(ctx context.Context, id string) (*interfaces.Content, error) {
	var payload contentJSON
	if err := c.get(ctx, contentPath+"/"+url.PathEscape(id), nil, &payload); err != nil {
		var remote *interfaces.RemoteError
		if errors.As(err, &remote) && remote.StatusCode == http.StatusNotFound {
			return nil, interfaces.ErrContentNotFound
		}
		return nil, err
	}
	content := payload.toContent()
	return &content, nil
}

func (c *Client) GetContent(ctx context.Context, space, title string, expand ...string) ([]interfaces.Content, error) {
	query := url.Values{}
	if space != "" {
		query.Set("spaceKey", space)
	}
	if title != "" {
		query.Set("title", title)
	}
	if len(expand) > 0 {
		query.Set("expand", strings.Join(expand, ","))
	}
	return c.list(ctx, contentPath, query)
}

func (c *Client) CreateContent(ctx context.Context, req interfaces.CreateContentRequest) (*interfaces.Content, error) {
	payload := contentJSON{
		Type:  string(req.Type),
		Title: req.Title,
		Space: &spaceJSON{Key: req.Space},
		Body:  storageBody(req.Body),
	}
	if payload.Type == "" {
		payload.Type = string(interfaces.ContentTypePage)
	}
	if req.ParentID != "" {
		payload.Ancestors = []ancestorJSON{{ID: req.ParentID}}
	}

	var created contentJSON
	if err := c.send(ctx, http.MethodPost, contentPath, nil, payload, &created); err != nil {
		return nil, err
	}
	content := created.toContent()
	return &content, nil
}

// UpdateContent sends the old status as the status query parameter and the
// new status in the body, which lets drafts be published in the same call.
func (c *Client) UpdateContent(ctx context.Context, req interfaces.UpdateContentRequest) (*interfaces.Content, error) {
	payload := contentJSON{
		Type:   string(req.Type),
		Title:  req.Title,
		Status: string(req.NewStatus),
		Body:   storageBody(req.Body),
		Version: &versionJSON{
			Number:    req.Version,
			MinorEdit: req.MinorEdit,
			Message:   req.EditMessage,
		},
	}
	query := url.Values{}
	if req.Status != "" {
		query.Set("status", string(req.Status))
	}

	var updated contentJSON
	if err := c.send(ctx, http.MethodPut, contentPath+"/"+url.PathEscape(req.ID), query, payload, &updated); err != nil {
		return nil, err
	}
	content := updated.toContent()
	return &content, nil
}

// list follows _links.next until the listing is exhausted.
func (c *Client) list(ctx context.Context, path string, query url.Values) ([]interfaces.Content, error) {
	var out []interfaces.Content
	for range maxPages {
		var page contentPageJSON
		if err := c.get(ctx, path, query, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Results {
			out = append(out, item.toContent())
		}
		if page.Links.Next == "" {
			return out, nil
		}
		path, query = c.relative(page.Links.Next), nil
	}
	c.logger.Warn("confluence.list.truncated", "path", path, "results", len(out))
	return out, nil
}

// relative strips the endpoint's context path from a _links.next value so it
// can be joined with the endpoint again.
func (c *Client) relative(next string) string {
	prefix := strings.TrimRight(c.base.Path, "/")
	if prefix != "" && strings.HasPrefix(next, prefix+"/") {
		return strings.TrimPrefix(next, prefix)
	}
	return next
}
