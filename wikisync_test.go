package wikisync_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	wikisync "github.com/goliatone/go-wikisync"
	"github.com/goliatone/go-wikisync/internal/confluence"
)

func writeDoc(tb testing.TB, dir, name, content string) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := wikisync.DefaultConfig()
	cfg.Confluence.Endpoint = ""

	if _, err := wikisync.New(cfg); !errors.Is(err, wikisync.ErrConfluenceEndpointRequired) {
		t.Fatalf("expected ErrConfluenceEndpointRequired, got %v", err)
	}
}

func TestModulePublishDryRun(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "one.md", "---\nc_title: One\nc_order: 2\n---\nfirst\n")
	writeDoc(t, dir, "two.md", "---\nc_title: Two\nc_order: 1\n---\nsecond\n")

	cfg := wikisync.DefaultConfig()
	cfg.Publish.DryRun = true
	module, err := wikisync.New(cfg, wikisync.WithLogWriter(&strings.Builder{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	report, err := module.Publish(context.Background(), dir, "docs")
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if report == nil || !report.DryRun {
		t.Fatalf("expected a dry run report, got %#v", report)
	}
	if got := strings.Join(report.Result.Created, ","); got != "Two,One" {
		t.Fatalf("expected creation in order, got %q", got)
	}
}

func TestModulePublishUsesInjectedStore(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "page.md", "---\nc_title: Page\nc_space: OPS\n---\nbody\n")
	store := confluence.NewMemoryStore()

	module, err := wikisync.New(wikisync.DefaultConfig(),
		wikisync.WithContentStore(store),
		wikisync.WithLogWriter(&strings.Builder{}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := module.Publish(context.Background(), dir); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if _, ok := store.Find("OPS", "Page"); !ok {
		t.Fatal("expected Page in OPS")
	}
}

func TestModuleRender(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "guide.md", "---\nc_title: Guide\nc_notice: false\n---\n# Guide\n")

	cfg := wikisync.DefaultConfig()
	cfg.Publish.DryRun = true
	module, err := wikisync.New(cfg, wikisync.WithLogWriter(&strings.Builder{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	doc, err := module.Render(path)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if doc.Title != "Guide" || doc.Markup != "<h1>Guide</h1>\n" {
		t.Fatalf("unexpected document %q %q", doc.Title, doc.Markup)
	}
}
