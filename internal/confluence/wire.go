package confluence

import (
	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

type contentJSON struct {
	ID        string         `json:"id,omitempty"`
	Type      string         `json:"type,omitempty"`
	Status    string         `json:"status,omitempty"`
	Title     string         `json:"title,omitempty"`
	Space     *spaceJSON     `json:"space,omitempty"`
	Version   *versionJSON   `json:"version,omitempty"`
	Body      *bodyJSON      `json:"body,omitempty"`
	Ancestors []ancestorJSON `json:"ancestors,omitempty"`
}

type spaceJSON struct {
	Key string `json:"key"`
}

type versionJSON struct {
	Number    int    `json:"number"`
	MinorEdit bool   `json:"minorEdit,omitempty"`
	Message   string `json:"message,omitempty"`
}

type bodyJSON struct {
	Storage storageJSON `json:"storage"`
}

type storageJSON struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

type ancestorJSON struct {
	ID string `json:"id"`
}

type linksJSON struct {
	Base string `json:"base,omitempty"`
	Next string `json:"next,omitempty"`
}

type contentPageJSON struct {
	Results []contentJSON `json:"results"`
	Size    int           `json:"size"`
	Links   linksJSON     `json:"_links"`
}

type labelJSON struct {
	Prefix string `json:"prefix"`
	Name   string `json:"name"`
}

type labelResultJSON struct {
	Results []labelJSON `json:"results"`
	Links   linksJSON   `json:"_links"`
}

type errorJSON struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func (c contentJSON) toContent() interfaces.Content {
	out := interfaces.Content{
		ID:     c.ID,
		Type:   interfaces.ContentType(c.Type),
		Title:  c.Title,
		Status: interfaces.ContentStatus(c.Status),
	}
	if c.Space != nil {
		out.Space = c.Space.Key
	}
	if c.Version != nil {
		out.Version = interfaces.Version{
			Number:    c.Version.Number,
			MinorEdit: c.Version.MinorEdit,
			Message:   c.Version.Message,
		}
	}
	return out
}

func (c contentJSON) toAttachment() interfaces.Attachment {
	out := interfaces.Attachment{ID: c.ID, Title: c.Title}
	if c.Version != nil {
		out.Version = interfaces.Version{Number: c.Version.Number, Message: c.Version.Message}
	}
	return out
}

func storageBody(markup string) *bodyJSON {
	return &bodyJSON{Storage: storageJSON{Value: markup, Representation: "storage"}}
}
