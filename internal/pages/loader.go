package pages

import (
	"context"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPattern selects every markdown file below the root.
const DefaultPattern = "**/*.{md,markdown,mdown,mkd}"

// Discover lists the markdown files named by root. A directory is searched
// recursively with pattern; a regular file is returned as the only input.
// Anything else is an INVALID_PATH error.
func Discover(root, pattern string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, invalidPathError(root, err)
	}
	if info.Mode().IsRegular() {
		return []string{root}, nil
	}
	if !info.IsDir() {
		return nil, invalidPathError(root, nil)
	}

	if pattern == "" {
		pattern = DefaultPattern
	}
	matches, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, invalidPathError(root, err)
	}
	slices.Sort(matches)

	paths := make([]string, 0, len(matches))
	for _, match := range matches {
		paths = append(paths, filepath.Join(root, filepath.FromSlash(match)))
	}
	return paths, nil
}

// loadAll assembles every path. Files that fail are reported through onError
// and skipped; only context cancellation stops the loop.
func loadAll(ctx context.Context, paths []string, opts Options, onError func(string, error)) ([]*Document, error) {
	docs := make([]*Document, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return docs, err
		}
		doc, err := LoadDocument(path, opts)
		if err != nil {
			onError(path, err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
