package markdown

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"

	"github.com/goliatone/go-wikisync/internal/logging"
	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

// RenderOptions configures a Renderer.
type RenderOptions struct {
	// Extensions selects goldmark extensions by name (defaults to GFM).
	Extensions []string
	Logger     interfaces.Logger
}

// Target describes the document being rendered: Root is the directory that
// relative links and images resolve against, Space the wiki space the page
// is published to.
type Target struct {
	Root  string
	Space string
}

// Renderer converts markdown into Confluence storage markup. It holds no
// per-document state and can be shared.
type Renderer struct {
	extensions []string
	logger     interfaces.Logger
}

// NewRenderer constructs a Renderer.
func NewRenderer(opts RenderOptions) *Renderer {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Renderer{
		extensions: append([]string(nil), opts.Extensions...),
		logger:     logger,
	}
}

// WithLogger returns a renderer sharing r's configuration that reports to
// logger, typically one already carrying document fields.
func (r *Renderer) WithLogger(logger interfaces.Logger) *Renderer {
	if logger == nil {
		return r
	}
	return &Renderer{extensions: r.extensions, logger: logger}
}

// Render converts source into storage markup. Rendering only touches the
// filesystem, to resolve local links and read the front matter of linked
// pages.
func (r *Renderer) Render(source []byte, target Target) ([]byte, error) {
	nr := &storageRenderer{
		root:   target.Root,
		space:  target.Space,
		logger: r.logger,
		links:  map[*ast.Link]linkTarget{},
	}

	engine := newGoldmarkEngine(r.extensions, nr)
	var buf bytes.Buffer
	if err := engine.Convert(source, &buf); err != nil {
		return nil, fmt.Errorf("markdown render: %w", err)
	}
	return buf.Bytes(), nil
}

type linkKind int

const (
	linkExternal linkKind = iota
	linkPage
	linkAttachment
)

type linkTarget struct {
	kind     linkKind
	title    string
	space    string
	anchor   string
	filename string
}

// storageRenderer overrides the node kinds whose storage form differs from
// plain XHTML. Everything else falls through to goldmark's HTML renderer.
type storageRenderer struct {
	root   string
	space  string
	logger interfaces.Logger
	// links keeps the decision made when entering a link so the closing
	// markup matches the opening one.
	links map[*ast.Link]linkTarget
}

var _ renderer.NodeRenderer = (*storageRenderer)(nil)

func (r *storageRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	for _, kind := range []ast.NodeKind{
		ast.KindFencedCodeBlock,
		ast.KindCodeBlock,
		ast.KindImage,
		ast.KindLink,
	} {
		reg.Register(kind, r.render)
	}
}

func (r *storageRenderer) render(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n := node.(type) {
	case *ast.FencedCodeBlock:
		if entering {
			writeCodeMacro(w, string(n.Language(source)), codeBody(n, source))
		}
		return ast.WalkSkipChildren, nil
	case *ast.CodeBlock:
		if entering {
			writeCodeMacro(w, "", codeBody(n, source))
		}
		return ast.WalkSkipChildren, nil
	case *ast.Image:
		if entering {
			r.writeImage(w, n)
		}
		return ast.WalkSkipChildren, nil
	case *ast.Link:
		if entering {
			target := r.classifyLink(n)
			r.links[n] = target
			openLink(w, n, target)
			return ast.WalkContinue, nil
		}
		closeLink(w, r.links[n])
		delete(r.links, n)
		return ast.WalkContinue, nil
	default:
		return ast.WalkContinue, nil
	}
}

func (r *storageRenderer) writeImage(w util.BufWriter, n *ast.Image) {
	if path, ok := ResolveLocal(r.root, string(n.Destination)); ok {
		_, _ = w.WriteString(`<ac:image><ri:attachment ri:filename="`)
		_, _ = w.Write(util.EscapeHTML([]byte(filepath.Base(path))))
		_, _ = w.WriteString(`" /></ac:image>`)
		return
	}
	_, _ = w.WriteString(`<ac:image><ri:url ri:value="`)
	_, _ = w.Write(util.EscapeHTML(n.Destination))
	_, _ = w.WriteString(`" /></ac:image>`)
}

func (r *storageRenderer) classifyLink(n *ast.Link) linkTarget {
	destination := string(n.Destination)
	path, ok := ResolveLocal(r.root, destination)
	if !ok {
		return linkTarget{kind: linkExternal}
	}

	if IsMedia(path) {
		return linkTarget{kind: linkAttachment, filename: filepath.Base(path)}
	}

	meta, _, err := LoadFrontMatter(path)
	if err != nil {
		r.logger.Warn("markdown.link.front_matter_failed", "target", path, "error", err)
		return linkTarget{kind: linkExternal}
	}
	title, err := meta.String(KeyTitle)
	if err != nil || title == "" {
		r.logger.Warn("markdown.link.title_missing", "target", path)
		return linkTarget{kind: linkExternal}
	}
	space, err := meta.String(KeySpace)
	if err != nil {
		r.logger.Warn("markdown.link.space_invalid", "target", path, "error", err)
		space = ""
	}
	space = strings.TrimSpace(space)

	target := linkTarget{kind: linkPage, title: title}
	if space != "" && space != r.space {
		target.space = space
	}
	if _, fragment, found := strings.Cut(destination, "#"); found {
		target.anchor = PageAnchor(title, fragment)
	}
	return target
}

func openLink(w util.BufWriter, n *ast.Link, target linkTarget) {
	switch target.kind {
	case linkPage:
		_, _ = w.WriteString("<ac:link")
		if target.anchor != "" {
			_, _ = w.WriteString(` ac:anchor="`)
			_, _ = w.Write(util.EscapeHTML([]byte(target.anchor)))
			_ = w.WriteByte('"')
		}
		_, _ = w.WriteString(`><ri:page ri:content-title="`)
		_, _ = w.Write(util.EscapeHTML([]byte(target.title)))
		_ = w.WriteByte('"')
		if target.space != "" {
			_, _ = w.WriteString(` ri:space-key="`)
			_, _ = w.Write(util.EscapeHTML([]byte(target.space)))
			_ = w.WriteByte('"')
		}
		_, _ = w.WriteString(` /><ac:plain-text-link-body><![CDATA[`)
	case linkAttachment:
		_, _ = w.WriteString(`<ac:link><ri:attachment ri:filename="`)
		_, _ = w.Write(util.EscapeHTML([]byte(target.filename)))
		_, _ = w.WriteString(`" /><ac:plain-text-link-body><![CDATA[`)
	default:
		_, _ = w.WriteString(`<a href="`)
		_, _ = w.Write(util.EscapeHTML(util.URLEscape(n.Destination, true)))
		_ = w.WriteByte('"')
		if n.Title != nil {
			_, _ = w.WriteString(` title="`)
			html.DefaultWriter.Write(w, n.Title)
			_ = w.WriteByte('"')
		}
		_ = w.WriteByte('>')
	}
}

func closeLink(w util.BufWriter, target linkTarget) {
	switch target.kind {
	case linkPage, linkAttachment:
		_, _ = w.WriteString(`]]></ac:plain-text-link-body></ac:link>`)
	default:
		_, _ = w.WriteString("</a>")
	}
}

// writeCodeMacro emits the wiki's code macro. The body goes into CDATA as
// written; entity-escaping it would show the entities in the rendered page.
func writeCodeMacro(w util.BufWriter, language, body string) {
	if strings.TrimSpace(language) == "" {
		language = "text"
	}
	_, _ = w.WriteString("<ac:structured-macro ac:name=\"code\">\n")
	_, _ = w.WriteString(`<ac:parameter ac:name="language">`)
	_, _ = w.Write(util.EscapeHTML([]byte(language)))
	_, _ = w.WriteString("</ac:parameter>\n")
	_, _ = w.WriteString("<ac:plain-text-body><![CDATA[")
	_, _ = w.WriteString(escapeCDATA(body))
	_, _ = w.WriteString("]]></ac:plain-text-body>\n")
	_, _ = w.WriteString("</ac:structured-macro>\n")
}

func codeBody(n ast.Node, source []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		b.Write(line.Value(source))
	}
	return strings.TrimRight(b.String(), " \t\r\n")
}

// escapeCDATA splits any "]]>" across two CDATA sections.
func escapeCDATA(s string) string {
	return strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>")
}
