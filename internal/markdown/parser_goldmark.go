package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// storageRendererPriority places the storage renderer ahead of goldmark's
// HTML renderer (priority 1000) so its registrations win.
const storageRendererPriority = 100

// newGoldmarkEngine builds a goldmark.Markdown for the supplied extension
// names. Output is XHTML since the wiki stores pages as XML; raw HTML in the
// source is passed through. Heading IDs are left to the wiki.
func newGoldmarkEngine(extensions []string, nodeRenderers ...renderer.NodeRenderer) goldmark.Markdown {
	rendererOptions := []renderer.Option{
		html.WithXHTML(),
		html.WithUnsafe(),
	}

	if len(nodeRenderers) > 0 {
		prioritized := make([]util.PrioritizedValue, 0, len(nodeRenderers))
		for _, nr := range nodeRenderers {
			prioritized = append(prioritized, util.Prioritized(nr, storageRendererPriority))
		}
		rendererOptions = append(rendererOptions, renderer.WithNodeRenderers(prioritized...))
	}

	engineOptions := []goldmark.Option{
		goldmark.WithRendererOptions(rendererOptions...),
	}

	if exts := collectExtensions(extensions); len(exts) > 0 {
		engineOptions = append(engineOptions, goldmark.WithExtensions(exts...))
	}

	return goldmark.New(engineOptions...)
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
}

// collectExtensions maps configured names onto goldmark extenders. Unknown
// names are ignored; an empty list selects GFM.
func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{
			extension.GFM,
		}
	}

	var extenders []goldmark.Extender
	seen := map[string]struct{}{}

	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}

		if _, ok := seen[key]; ok {
			continue
		}

		ext, ok := extensionRegistry[key]
		if !ok {
			continue
		}

		extenders = append(extenders, ext)
		seen[key] = struct{}{}
	}

	return extenders
}
