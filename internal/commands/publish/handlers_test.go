package publishcmd

import (
	"bytes"
	"context"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-wikisync/internal/confluence"
	"github.com/goliatone/go-wikisync/internal/logging"
	"github.com/goliatone/go-wikisync/internal/logging/console"
	"github.com/goliatone/go-wikisync/internal/pages"
	"github.com/goliatone/go-wikisync/internal/publish"
	"github.com/goliatone/go-wikisync/pkg/interfaces"
	"github.com/goliatone/go-wikisync/pkg/testsupport"
)

func writeTree(tb testing.TB) string {
	tb.Helper()
	return testsupport.WriteTree(tb, map[string]string{
		"intro.md":       "---\nc_title: Intro\nc_order: 1\nc_labels: guide\n---\n# Intro\n",
		"setup/index.md": "---\nc_title: Setup\nc_parent: Intro\nc_order: 2\n---\nSee [intro](../intro.md).\n",
		"draft.md":       "# no front matter\n",
	})
}

func TestPublishTreeHandlerPublishesTree(t *testing.T) {
	root := writeTree(t)
	store := confluence.NewMemoryStore()
	var buf bytes.Buffer
	provider := console.NewProvider(console.Options{Writer: &buf, OmitTime: true})

	var report Report
	handler := NewPublishTreeHandler(Dependencies{
		Store:          store,
		Book:           pages.BookOptions{Labels: []string{"managed"}},
		PublishOptions: []publish.Option{publish.WithLogger(logging.PublishLogger(provider))},
		Logger:         logging.ModuleLogger(provider, "wikisync.commands.publish"),
		OnReport:       func(r Report) { report = r },
	})

	err := handler.Execute(context.Background(), PublishTreeCommand{Path: root, Labels: []string{"docs"}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if report.Result == nil || len(report.Result.Created) != 2 {
		t.Fatalf("expected two created pages, got %#v", report.Result)
	}
	if report.RunID == "" {
		t.Fatal("expected a run id")
	}
	intro, ok := store.Find("IN", "Intro")
	if !ok {
		t.Fatal("expected Intro to be created")
	}
	got := store.LabelNames(intro.ID)
	slices.Sort(got)
	if !slices.Equal(got, []string{"docs", "guide", "managed"}) {
		t.Fatalf("unexpected labels %v", got)
	}
	setup, ok := store.Find("IN", "Setup")
	if !ok || store.ParentID(setup.ID) != intro.ID {
		t.Fatalf("expected Setup under Intro")
	}

	out := buf.String()
	if !strings.Contains(out, "run_id="+report.RunID) {
		t.Fatalf("expected publish logs to carry the run id, got:\n%s", out)
	}
	if !strings.Contains(out, "command.execute.success") {
		t.Fatalf("expected telemetry line, got:\n%s", out)
	}
}

func TestPublishTreeHandlerDryRunLeavesStoreUntouched(t *testing.T) {
	root := writeTree(t)
	store := confluence.NewMemoryStore()

	var report Report
	handler := NewPublishTreeHandler(Dependencies{
		Store:    store,
		OnReport: func(r Report) { report = r },
	})

	if err := handler.Execute(context.Background(), PublishTreeCommand{Path: root, DryRun: true}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if calls := store.Calls(); len(calls) != 0 {
		t.Fatalf("expected no calls against the real store, got %v", calls)
	}
	if !report.DryRun || report.Store == interfaces.ContentStore(store) {
		t.Fatalf("expected the dry run to use its own store")
	}
	if len(report.Result.Created) != 2 {
		t.Fatalf("expected dry run to create two pages, got %v", report.Result.Created)
	}
}

func TestPublishTreeHandlerRequiresStore(t *testing.T) {
	handler := NewPublishTreeHandler(Dependencies{})

	err := handler.Execute(context.Background(), PublishTreeCommand{Path: t.TempDir()})
	if err == nil {
		t.Fatal("expected an error without a store")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
}

func TestPublishTreeHandlerValidatesPath(t *testing.T) {
	called := false
	handler := NewPublishTreeHandler(Dependencies{
		Store:    confluence.NewMemoryStore(),
		OnReport: func(Report) { called = true },
	})

	err := handler.Execute(context.Background(), PublishTreeCommand{Path: "   "})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if called {
		t.Fatal("expected no run for an invalid command")
	}
}

func TestPublishTreeHandlerInvalidRoot(t *testing.T) {
	handler := NewPublishTreeHandler(Dependencies{Store: confluence.NewMemoryStore()})

	err := handler.Execute(context.Background(), PublishTreeCommand{Path: filepath.Join(t.TempDir(), "missing")})
	if !goerrors.IsCategory(err, goerrors.CategoryBadInput) {
		t.Fatalf("expected bad input error, got %v", err)
	}
}
