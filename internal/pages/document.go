package pages

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-wikisync/internal/logging"
	"github.com/goliatone/go-wikisync/internal/markdown"
	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

const (
	// DefaultSpace is used for documents that do not declare c_space.
	DefaultSpace = "IN"
	// DefaultNotice is appended to every page unless c_notice is false.
	DefaultNotice = `<p><i style="font-size: 80%;">This page is managed by wikisync, edits in Confluence will not persist.</i></p>`

	tocMacro = `<ac:structured-macro ac:name="toc"></ac:structured-macro>`
)

// Options carries the collaborators used to assemble documents.
type Options struct {
	// DefaultSpace overrides DefaultSpace.
	DefaultSpace string
	// Notice overrides DefaultNotice.
	Notice   string
	Renderer *markdown.Renderer
	Logger   interfaces.Logger
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.DefaultSpace) == "" {
		o.DefaultSpace = DefaultSpace
	}
	if strings.TrimSpace(o.Notice) == "" {
		o.Notice = DefaultNotice
	}
	if o.Logger == nil {
		o.Logger = logging.NoOp()
	}
	if o.Renderer == nil {
		o.Renderer = markdown.NewRenderer(markdown.RenderOptions{Logger: o.Logger})
	}
	return o
}

// Document is one markdown file ready to publish. Documents are built by
// NewDocument or LoadDocument and are not modified afterwards; WithLabels
// returns a copy.
type Document struct {
	Path     string
	Title    string
	Parent   string
	Space    string
	TOC      bool
	Notice   bool
	Order    int
	Markdown string
	Markup   string
	Labels   Labels
	Media    []markdown.Media
	Metadata markdown.Metadata
}

// LoadDocument reads path and assembles its Document.
func LoadDocument(path string, opts Options) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, documentParseError(path, err)
	}
	meta, body, err := markdown.ParseFrontMatter(data)
	if err != nil {
		return nil, documentParseError(path, err)
	}
	return NewDocument(path, meta, body, opts)
}

// NewDocument builds a Document from decoded front matter and the markdown
// body that followed it. Links and images in body resolve against the
// directory holding path.
func NewDocument(path string, meta markdown.Metadata, body []byte, opts Options) (*Document, error) {
	opts = opts.withDefaults()
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if meta == nil {
		meta = markdown.Metadata{}
	}

	doc := &Document{
		Path:     path,
		Markdown: string(body),
		Metadata: meta,
	}
	if err := doc.readMetadata(meta, opts.DefaultSpace); err != nil {
		return nil, documentParseError(path, err)
	}

	root := filepath.Dir(path)
	media, err := opts.Renderer.ExtractMedia(body, root)
	if err != nil {
		return nil, documentParseError(path, err)
	}
	doc.Media = media

	logger := logging.WithDocumentContext(opts.Logger, path, doc.Title, doc.Space)
	renderer := opts.Renderer.WithLogger(logger)
	markup, err := renderer.Render(body, markdown.Target{Root: root, Space: doc.Space})
	if err != nil {
		return nil, documentParseError(path, err)
	}

	out := string(markup)
	if doc.Notice {
		out = out + "\n" + opts.Notice
	}
	if doc.TOC {
		out = tocMacro + "\n" + out
	}
	doc.Markup = out

	return doc, nil
}

func (d *Document) readMetadata(meta markdown.Metadata, defaultSpace string) error {
	var err error
	if d.Title, err = meta.String(markdown.KeyTitle); err != nil {
		return err
	}
	if d.Parent, err = meta.String(markdown.KeyParent); err != nil {
		return err
	}
	if d.Space, err = meta.String(markdown.KeySpace); err != nil {
		return err
	}
	d.Space = strings.TrimSpace(d.Space)
	if d.Space == "" {
		d.Space = defaultSpace
	}
	if d.TOC, err = meta.Bool(markdown.KeyTOC, false); err != nil {
		return err
	}
	if d.Notice, err = meta.Bool(markdown.KeyNotice, true); err != nil {
		return err
	}
	if d.Order, err = meta.Int(markdown.KeyOrder, 0); err != nil {
		return err
	}
	labels, err := meta.Strings(markdown.KeyLabels)
	if err != nil {
		return err
	}
	d.Labels = NormalizeLabels(labels...)
	return nil
}

// IsPublishable reports whether the document carries front matter and a
// title. Documents failing this check are never sent to the wiki.
func (d *Document) IsPublishable() bool {
	return d != nil && len(d.Metadata) > 0 && d.Title != ""
}

// ParentIsID reports whether Parent names a remote content ID rather than a
// page title.
func (d *Document) ParentIsID() bool {
	if d.Parent == "" {
		return false
	}
	for _, r := range d.Parent {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// WithLabels returns a copy of d whose labels also include extra.
func (d *Document) WithLabels(extra Labels) *Document {
	clone := *d
	clone.Labels = d.Labels.Union(extra)
	clone.Media = append([]markdown.Media(nil), d.Media...)
	return &clone
}

func (d *Document) String() string {
	if d.Title == "" {
		return fmt.Sprintf("<Document %s>", d.Path)
	}
	return fmt.Sprintf("<Document %s (%s)>", d.Title, d.Path)
}
