package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	wikisync "github.com/goliatone/go-wikisync"
	"github.com/goliatone/go-wikisync/cmd/wikisync/internal/bootstrap"
	"github.com/goliatone/go-wikisync/internal/confluence"
	"github.com/goliatone/go-wikisync/pkg/testsupport"
)

// useStore routes every module built by the CLI to store and silences logs.
func useStore(t *testing.T, store *confluence.MemoryStore) *bootstrap.Module {
	t.Helper()
	original := moduleBuilder
	t.Cleanup(func() { moduleBuilder = original })

	built := &bootstrap.Module{}
	moduleBuilder = func(opts bootstrap.Options) (*bootstrap.Module, error) {
		opts.ModuleOptions = append(opts.ModuleOptions,
			wikisync.WithLogWriter(io.Discard),
			wikisync.WithContentStore(store),
		)
		module, err := bootstrap.BuildModule(opts)
		if module != nil {
			*built = *module
		}
		return module, err
	}
	return built
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestPublishCommandPublishesTreeWithLabels(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "guide.md"), "---\nc_title: Guide\n---\n# Guide\n")
	store := confluence.NewMemoryStore()
	useStore(t, store)

	out, _, err := execute(t, "publish", "-l", "docs,extra", "-l", "bad label", dir)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "  created  Guide\n") || !strings.Contains(out, "1 created, 0 updated, 0 skipped") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	page, ok := store.Find("IN", "Guide")
	if !ok {
		t.Fatal("expected Guide in the store")
	}
	labels := store.LabelNames(page.ID)
	slices.Sort(labels)
	if !slices.Equal(labels, []string{"docs", "extra"}) {
		t.Fatalf("unexpected labels %v", labels)
	}
}

func TestRootCommandDefaultsToPublish(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "a.md"), "---\nc_title: A\n---\n")
	store := confluence.NewMemoryStore()
	useStore(t, store)

	if _, _, err := execute(t, dir); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, ok := store.Find("IN", "A"); !ok {
		t.Fatal("expected the root command to publish")
	}
}

func TestDryRunLeavesStoreUntouched(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "a.md"), "---\nc_title: A\n---\n")
	store := confluence.NewMemoryStore()
	useStore(t, store)

	out, _, err := execute(t, "--dry-run", dir)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "(dry run)") || !strings.Contains(out, "created  A") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if calls := store.Calls(); len(calls) != 0 {
		t.Fatalf("expected no store calls, got %v", calls)
	}
}

func TestInvalidPathFailsBeforeRemoteCalls(t *testing.T) {
	store := confluence.NewMemoryStore()
	useStore(t, store)

	_, errOut, err := execute(t, "publish", filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("expected an error for a missing path")
	}
	if !strings.HasPrefix(errOut, "wikisync: ") {
		t.Fatalf("expected the error on stderr, got %q", errOut)
	}
	if calls := store.Calls(); len(calls) != 0 {
		t.Fatalf("expected no store calls, got %v", calls)
	}
}

func TestEndpointFlagReachesConfig(t *testing.T) {
	dir := t.TempDir()
	store := confluence.NewMemoryStore()
	built := useStore(t, store)

	if _, _, err := execute(t, "--conf-endpoint", "https://wiki.test", "--conf-user", "robot", "publish", dir); err != nil {
		t.Fatalf("execute: %v", err)
	}
	cfg := built.Container.Config
	if cfg.Confluence.Endpoint != "https://wiki.test" || cfg.Confluence.User != "robot" {
		t.Fatalf("expected flags in config, got %#v", cfg.Confluence)
	}
}

func TestRenderCommandPrintsMarkup(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "img", "logo.png"), "png")
	path := testsupport.WriteFile(t, filepath.Join(dir, "guide.md"), "---\nc_title: Guide\nc_labels: one,two\n---\n# Guide\n\n![logo](img/logo.png)\n")
	store := confluence.NewMemoryStore()
	useStore(t, store)

	out, _, err := execute(t, "render", path)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, want := range []string{
		"Title: Guide\n",
		"Labels: one, two\n",
		"Attachments: logo.png\n",
		"<h1>Guide</h1>",
		`<ri:attachment ri:filename="logo.png" />`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if calls := store.Calls(); len(calls) != 0 {
		t.Fatalf("render must not call the store, got %v", calls)
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out != "wikisync dev\n" {
		t.Fatalf("unexpected version output %q", out)
	}
}
