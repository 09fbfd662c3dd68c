package confluence

import (
	"context"
	"net/http"
	"net/url"

	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

func labelPath(contentID string) string {
	return contentPath + "/" + url.PathEscape(contentID) + "/label"
}

func (c *Client) GetLabels(ctx context.Context, contentID string, prefix interfaces.LabelPrefix) ([]interfaces.Label, error) {
	query := url.Values{}
	if prefix != "" {
		query.Set("prefix", string(prefix))
	}
	var payload labelResultJSON
	if err := c.get(ctx, labelPath(contentID), query, &payload); err != nil {
		return nil, err
	}
	out := make([]interfaces.Label, 0, len(payload.Results))
	for _, label := range payload.Results {
		out = append(out, interfaces.Label{Prefix: interfaces.LabelPrefix(label.Prefix), Name: label.Name})
	}
	return out, nil
}

func (c *Client) CreateLabels(ctx context.Context, contentID string, labels []interfaces.Label) error {
	if len(labels) == 0 {
		return nil
	}
	payload := make([]labelJSON, 0, len(labels))
	for _, label := range labels {
		prefix := label.Prefix
		if prefix == "" {
			prefix = interfaces.LabelPrefixGlobal
		}
		payload = append(payload, labelJSON{Prefix: string(prefix), Name: label.Name})
	}
	return c.send(ctx, http.MethodPost, labelPath(contentID), nil, payload, nil)
}

func (c *Client) DeleteLabel(ctx context.Context, contentID, name string) error {
	return c.send(ctx, http.MethodDelete, labelPath(contentID), url.Values{"name": {name}}, nil, nil)
}
