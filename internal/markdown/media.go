package markdown

import (
	"fmt"
	"path/filepath"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Media is a local binary file referenced by a document. Source is the
// absolute path on disk, Name the attachment name used on the wiki.
type Media struct {
	Source string
	Name   string
}

// ExtractMedia lists every image or link in source that points at an existing
// local file with a media type, in document order. Repeated references are
// kept; plain text targets are pages, not attachments, and are skipped.
func (r *Renderer) ExtractMedia(source []byte, root string) ([]Media, error) {
	doc := newGoldmarkEngine(r.extensions).Parser().Parse(text.NewReader(source))

	var media []Media
	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		var destination []byte
		switch n := node.(type) {
		case *ast.Image:
			destination = n.Destination
		case *ast.Link:
			destination = n.Destination
		default:
			return ast.WalkContinue, nil
		}

		path, ok := ResolveLocal(root, string(destination))
		if !ok || !IsMedia(path) {
			return ast.WalkContinue, nil
		}
		r.logger.Debug("markdown.media.found", "source", path)
		media = append(media, Media{
			Source: path,
			Name:   filepath.Base(path),
		})
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("markdown media: %w", err)
	}
	return media, nil
}
