package markdown

import (
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

var markdownExtensions = map[string]struct{}{
	".md":       {},
	".markdown": {},
	".mdown":    {},
	".mkd":      {},
}

// ResolveLocal maps a link or image destination onto an existing regular file.
// Relative destinations are resolved against root and any "#fragment" is
// dropped. Destinations carrying a URL scheme never resolve.
func ResolveLocal(root, destination string) (string, bool) {
	target, _, _ := strings.Cut(destination, "#")
	if strings.TrimSpace(target) == "" || hasScheme(target) {
		return "", false
	}

	path := filepath.FromSlash(target)
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return abs, true
}

// MediaType returns the MIME type guessed from the file extension, or "" when
// the file is text the publisher treats as another page. Markdown files are
// always pages.
func MediaType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return ""
	}
	if _, ok := markdownExtensions[ext]; ok {
		return ""
	}
	return mime.TypeByExtension(ext)
}

// IsMedia reports whether path is a binary attachment rather than a page.
func IsMedia(path string) bool {
	return MediaType(path) != ""
}

func hasScheme(target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	// single letters are drive names, not schemes
	return len(u.Scheme) > 1
}
