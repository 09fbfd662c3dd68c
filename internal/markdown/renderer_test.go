package markdown

import (
	"encoding/xml"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-wikisync/pkg/testsupport"
)

func render(tb testing.TB, root, space, source string) string {
	tb.Helper()
	out, err := NewRenderer(RenderOptions{}).Render([]byte(source), Target{Root: root, Space: space})
	if err != nil {
		tb.Fatalf("Render: %v", err)
	}
	return string(out)
}

func TestRenderCodeBlockWithoutLanguageUsesText(t *testing.T) {
	got := render(t, t.TempDir(), "IN", "```\nplain\n```\n")

	want := "<ac:structured-macro ac:name=\"code\">\n" +
		"<ac:parameter ac:name=\"language\">text</ac:parameter>\n" +
		"<ac:plain-text-body><![CDATA[plain]]></ac:plain-text-body>\n" +
		"</ac:structured-macro>\n"
	if got != want {
		t.Fatalf("unexpected code macro\nwant: %q\ngot:  %q", want, got)
	}
}

func TestRenderCodeBlockKeepsBodyVerbatim(t *testing.T) {
	body := `if a < b && c > "d" { print('&amp;') }`
	got := render(t, t.TempDir(), "IN", "```python\n"+body+"\n\n```\n")

	if !strings.Contains(got, `<ac:parameter ac:name="language">python</ac:parameter>`) {
		t.Fatalf("expected python language parameter, got %q", got)
	}
	if !strings.Contains(got, "<![CDATA["+body+"]]>") {
		t.Fatalf("expected unescaped body inside CDATA, got %q", got)
	}
}

func TestRenderIndentedCodeBlock(t *testing.T) {
	got := render(t, t.TempDir(), "IN", "Intro\n\n    x := 1 < 2\n")

	if !strings.Contains(got, `<ac:parameter ac:name="language">text</ac:parameter>`) {
		t.Fatalf("expected text language for indented code, got %q", got)
	}
	if !strings.Contains(got, "<![CDATA[x := 1 < 2]]>") {
		t.Fatalf("expected indented body, got %q", got)
	}
}

func TestRenderCodeBlockSplitsCDATATerminator(t *testing.T) {
	got := render(t, t.TempDir(), "IN", "```xml\n<a><![CDATA[x]]></a>\n```\n")

	if !strings.Contains(got, "<![CDATA[<a><![CDATA[x]]]]><![CDATA[></a>]]>") {
		t.Fatalf("expected split CDATA section, got %q", got)
	}
}

func TestRenderLocalImageUsesBaseName(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "assets", "img", "diagram.png"), "png")
	docs := filepath.Join(root, "docs", "guides")
	if err := os.MkdirAll(docs, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got := render(t, docs, "IN", "![Diagram](../../assets/img/diagram.png)\n")

	want := `<ac:image><ri:attachment ri:filename="diagram.png" /></ac:image>`
	if !strings.Contains(got, want) {
		t.Fatalf("expected %q in %q", want, got)
	}
}

func TestRenderRemoteImageKeepsSource(t *testing.T) {
	got := render(t, t.TempDir(), "IN", "![logo](https://example.com/logo.png)\n")

	want := `<ac:image><ri:url ri:value="https://example.com/logo.png" /></ac:image>`
	if !strings.Contains(got, want) {
		t.Fatalf("expected %q in %q", want, got)
	}
}

func TestRenderRemoteImageEscapesQuery(t *testing.T) {
	got := render(t, t.TempDir(), "IN", "![chart](https://img.test/a.png?w=1&h=2)\n")

	want := `<ac:image><ri:url ri:value="https://img.test/a.png?w=1&amp;h=2" /></ac:image>`
	if !strings.Contains(got, want) {
		t.Fatalf("expected %q in %q", want, got)
	}
	dec := xml.NewDecoder(strings.NewReader(want))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("image markup is not well formed: %v", err)
		}
	}
}

func TestRenderExternalLinkTitleResolvesEscapes(t *testing.T) {
	got := render(t, t.TempDir(), "IN", `[docs](https://x.test "Tom \& Jerry &lt;3 \"notes\"")`+"\n")

	want := `<a href="https://x.test" title="Tom &amp; Jerry &lt;3 &quot;notes&quot;">docs</a>`
	if !strings.Contains(got, want) {
		t.Fatalf("expected %q in %q", want, got)
	}
}

func TestRenderMissingLocalLinkIsExternalAnchor(t *testing.T) {
	got := render(t, t.TempDir(), "IN", `[notes](<missing notes.md> "Some \"notes\"")`+"\n")

	want := `<a href="missing%20notes.md" title="Some &quot;notes&quot;">notes</a>`
	if !strings.Contains(got, want) {
		t.Fatalf("expected %q in %q", want, got)
	}
}

func TestRenderPageLinkInSameSpace(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "setup.md"), "---\nc_title: \"Setup Guide\"\n---\n# Setup\n")

	got := render(t, root, "IN", "See [the setup](setup.md).\n")

	want := `<ac:link><ri:page ri:content-title="Setup Guide" /><ac:plain-text-link-body><![CDATA[the setup]]></ac:plain-text-link-body></ac:link>`
	if !strings.Contains(got, want) {
		t.Fatalf("expected %q in %q", want, got)
	}
}

func TestRenderPageLinkAcrossSpacesWithAnchor(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "ops", "runbook.md"), "---\nc_title: Run Book\nc_space: OPS\n---\nbody\n")

	got := render(t, root, "IN", "[restart](ops/runbook.md#restart-the-service)\n")

	want := `<ac:link ac:anchor="RunBook-RestartTheService"><ri:page ri:content-title="Run Book" ri:space-key="OPS" /><ac:plain-text-link-body><![CDATA[restart]]></ac:plain-text-link-body></ac:link>`
	if !strings.Contains(got, want) {
		t.Fatalf("expected %q in %q", want, got)
	}
}

func TestRenderPageLinkOmitsAmbientSpace(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "faq.md"), "---\nc_title: FAQ\nc_space: IN\n---\n")

	got := render(t, root, "IN", "[faq](faq.md)\n")

	if strings.Contains(got, "ri:space-key") {
		t.Fatalf("did not expect a space key for the ambient space, got %q", got)
	}
}

func TestRenderPageLinkWithoutTitleFallsBack(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "untitled.md"), "no front matter here\n")

	got := render(t, root, "IN", "[plain](untitled.md)\n")

	if !strings.Contains(got, `<a href="untitled.md">plain</a>`) {
		t.Fatalf("expected plain anchor fallback, got %q", got)
	}
}

func TestRenderAttachmentLink(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "files", "manual.pdf"), "%PDF")

	got := render(t, root, "IN", "Read the [*manual*](files/manual.pdf).\n")

	want := `<ac:link><ri:attachment ri:filename="manual.pdf" /><ac:plain-text-link-body><![CDATA[<em>manual</em>]]></ac:plain-text-link-body></ac:link>`
	if !strings.Contains(got, want) {
		t.Fatalf("expected %q in %q", want, got)
	}
}

func TestRenderPassesThroughRegularMarkdown(t *testing.T) {
	got := render(t, t.TempDir(), "IN", "# Title\n\nHello **world**\n")

	if !strings.Contains(got, "<h1>Title</h1>") {
		t.Fatalf("expected heading without generated id, got %q", got)
	}
	if !strings.Contains(got, "<strong>world</strong>") {
		t.Fatalf("expected strong emphasis, got %q", got)
	}
}
