package markdown

import (
	"path/filepath"
	"testing"

	"github.com/goliatone/go-wikisync/pkg/testsupport"
)

func TestExtractMediaKeepsOrderAndDuplicates(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "img", "a.png"), "png")
	testsupport.WriteFile(t, filepath.Join(root, "manual.pdf"), "%PDF")
	testsupport.WriteFile(t, filepath.Join(root, "other.md"), "---\nc_title: Other\n---\n")

	source := "![a](img/a.png)\n\n" +
		"Read [the manual](manual.pdf) or [again](img/a.png#top).\n\n" +
		"- [page](other.md)\n" +
		"- [missing](missing.png)\n\n" +
		"![remote](https://example.com/x.png)\n"

	media, err := NewRenderer(RenderOptions{}).ExtractMedia([]byte(source), root)
	if err != nil {
		t.Fatalf("ExtractMedia: %v", err)
	}

	want := []string{"a.png", "manual.pdf", "a.png"}
	if len(media) != len(want) {
		t.Fatalf("expected %d media entries, got %#v", len(want), media)
	}
	for i, name := range want {
		if media[i].Name != name {
			t.Fatalf("entry %d: expected %s, got %s", i, name, media[i].Name)
		}
		if !filepath.IsAbs(media[i].Source) {
			t.Fatalf("entry %d: expected absolute source, got %s", i, media[i].Source)
		}
	}
}

func TestExtractMediaEmptyDocument(t *testing.T) {
	media, err := NewRenderer(RenderOptions{}).ExtractMedia(nil, t.TempDir())
	if err != nil {
		t.Fatalf("ExtractMedia: %v", err)
	}
	if len(media) != 0 {
		t.Fatalf("expected no media, got %#v", media)
	}
}

func TestMediaType(t *testing.T) {
	cases := map[string]bool{
		"diagram.png":    true,
		"manual.PDF":     true,
		"readme.md":      false,
		"notes.MARKDOWN": false,
		"Makefile":       false,
	}
	for name, media := range cases {
		if got := IsMedia(name); got != media {
			t.Fatalf("IsMedia(%q) = %v, want %v", name, got, media)
		}
	}
}
