package confluence

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

// upload is a multipart file body.
type upload struct {
	path    string
	name    string
	comment string
}

func (u *upload) encode() (io.Reader, string, error) {
	file, err := os.Open(u.path)
	if err != nil {
		return nil, "", fmt.Errorf("confluence: open attachment: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	name := u.name
	if name == "" {
		name = filepath.Base(u.path)
	}
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("confluence: read attachment: %w", err)
	}
	if u.comment != "" {
		if err := writer.WriteField("comment", u.comment); err != nil {
			return nil, "", err
		}
	}
	if err := writer.WriteField("minorEdit", "true"); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}

func attachmentPath(contentID string) string {
	return contentPath + "/" + url.PathEscape(contentID) + "/child/attachment"
}

func (c *Client) GetAttachments(ctx context.Context, contentID string, expand ...string) ([]interfaces.Attachment, error) {
	query := url.Values{}
	if len(expand) > 0 {
		query.Set("expand", strings.Join(expand, ","))
	}
	var out []interfaces.Attachment
	path := attachmentPath(contentID)
	for range maxPages {
		var page contentPageJSON
		if err := c.get(ctx, path, query, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Results {
			out = append(out, item.toAttachment())
		}
		if page.Links.Next == "" {
			break
		}
		path, query = c.relative(page.Links.Next), nil
	}
	return out, nil
}

func (c *Client) AddAttachment(ctx context.Context, req interfaces.AddAttachmentRequest) (*interfaces.Attachment, error) {
	var page contentPageJSON
	body := &upload{path: req.Path, name: req.Name}
	if err := c.send(ctx, http.MethodPost, attachmentPath(req.ContentID), nil, body, &page); err != nil {
		return nil, err
	}
	if len(page.Results) == 0 {
		return &interfaces.Attachment{Title: req.Name}, nil
	}
	att := page.Results[0].toAttachment()
	return &att, nil
}

// UpdateAttachment uploads new data for an existing attachment. The current
// version is recorded in the upload comment.
func (c *Client) UpdateAttachment(ctx context.Context, req interfaces.UpdateAttachmentRequest) (*interfaces.Attachment, error) {
	var updated contentJSON
	body := &upload{
		path:    req.Path,
		name:    req.Name,
		comment: "replaces version " + strconv.Itoa(req.Version),
	}
	path := attachmentPath(req.ContentID) + "/" + url.PathEscape(req.AttachmentID) + "/data"
	if err := c.send(ctx, http.MethodPost, path, nil, body, &updated); err != nil {
		return nil, err
	}
	att := updated.toAttachment()
	return &att, nil
}
