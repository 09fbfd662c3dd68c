package main

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-wikisync/internal/markdown"
	"github.com/goliatone/go-wikisync/internal/pages"
	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

func (a *app) runWatch(cmd *cobra.Command, args []string) error {
	module, err := a.build(false)
	if err != nil {
		return a.fail(err)
	}
	path := pathArg(args)
	ctx := cmd.Context()

	// A failed first run is reported but does not stop the watch.
	_ = a.fail(a.publishOnce(ctx, module, path))

	w := &treeWatcher{
		root:     path,
		pattern:  module.Container.Config.Publish.Pattern,
		debounce: module.Container.Config.Watch.Debounce,
		logger:   module.Logger,
		run: func(ctx context.Context) error {
			return a.fail(a.publishOnce(ctx, module, path))
		},
	}
	return a.fail(w.Run(ctx))
}

// treeWatcher calls run after markdown or media files below root change.
// Bursts of events within debounce collapse into one run, and runs never
// overlap.
type treeWatcher struct {
	root     string
	pattern  string
	debounce time.Duration
	logger   interfaces.Logger
	run      func(context.Context) error
}

// Run blocks until ctx is done.
func (w *treeWatcher) Run(ctx context.Context) error {
	root, err := filepath.Abs(w.root)
	if err != nil {
		return err
	}
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	single := ""
	dir := root
	if !info.IsDir() {
		single = root
		dir = filepath.Dir(root)
	}
	if w.pattern == "" {
		w.pattern = pages.DefaultPattern
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if single != "" {
		err = watcher.Add(dir)
	} else {
		err = addTree(watcher, dir)
	}
	if err != nil {
		return err
	}
	w.logger.Info("watch.started", "root", root, "debounce", w.debounce)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch.stopped")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) && single == "" {
				if st, err := os.Stat(event.Name); err == nil && st.IsDir() {
					if err := addTree(watcher, event.Name); err != nil {
						w.logger.Warn("watch.add_failed", "path", event.Name, "error", err)
					}
					continue
				}
			}
			if !w.relevant(dir, single, event) {
				continue
			}
			w.logger.Debug("watch.event", "path", event.Name, "op", event.Op.String())
			timer.Reset(w.debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch.error", "error", err)
		case <-timer.C:
			if err := w.run(ctx); err != nil {
				w.logger.Error("watch.publish_failed", "error", err)
			}
		}
	}
}

func (w *treeWatcher) relevant(dir, single string, event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if single != "" {
		return event.Name == single || markdown.IsMedia(event.Name)
	}
	if markdown.IsMedia(event.Name) {
		return true
	}
	rel, err := filepath.Rel(dir, event.Name)
	if err != nil {
		return false
	}
	ok, err := doublestar.Match(w.pattern, filepath.ToSlash(rel))
	return err == nil && ok
}

// addTree watches dir and every directory below it, hidden ones excepted.
func addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
