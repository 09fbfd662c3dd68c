package markdown

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/spf13/cast"
)

// Recognised front matter keys. Anything else is ignored.
const (
	KeyTitle  = "c_title"
	KeyParent = "c_parent"
	KeySpace  = "c_space"
	KeyTOC    = "c_toc"
	KeyNotice = "c_notice"
	KeyOrder  = "c_order"
	KeyLabels = "c_labels"
)

// Metadata holds the decoded front matter of a markdown file.
type Metadata map[string]any

// ParseFrontMatter extracts metadata and the markdown body from source. When
// no front matter block is present the metadata is empty and the body is the
// full source.
func ParseFrontMatter(source []byte) (Metadata, []byte, error) {
	meta := Metadata{}

	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return nil, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	if meta == nil {
		meta = Metadata{}
	}

	return meta, body, nil
}

// LoadFrontMatter reads path and parses its front matter.
func LoadFrontMatter(path string) (Metadata, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	meta, body, err := ParseFrontMatter(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return meta, body, nil
}

// Has reports whether key is present with a non-nil value.
func (m Metadata) Has(key string) bool {
	value, ok := m[key]
	return ok && value != nil
}

// String returns key coerced to a string as written, or "" when absent.
func (m Metadata) String(key string) (string, error) {
	if !m.Has(key) {
		return "", nil
	}
	value, err := cast.ToStringE(m[key])
	if err != nil {
		return "", fmt.Errorf("front matter %s: %w", key, err)
	}
	return value, nil
}

// Bool returns key coerced to a bool, or fallback when absent.
func (m Metadata) Bool(key string, fallback bool) (bool, error) {
	if !m.Has(key) {
		return fallback, nil
	}
	value, err := cast.ToBoolE(m[key])
	if err != nil {
		return fallback, fmt.Errorf("front matter %s: %w", key, err)
	}
	return value, nil
}

// Int returns key coerced to an int, or fallback when absent.
func (m Metadata) Int(key string, fallback int) (int, error) {
	if !m.Has(key) {
		return fallback, nil
	}
	value, err := cast.ToIntE(m[key])
	if err != nil {
		return fallback, fmt.Errorf("front matter %s: %w", key, err)
	}
	return value, nil
}

// Strings returns key as a list. A single string is split on commas; values
// are returned as written, normalisation is left to the caller.
func (m Metadata) Strings(key string) ([]string, error) {
	if !m.Has(key) {
		return nil, nil
	}
	switch value := m[key].(type) {
	case string:
		return strings.Split(value, ","), nil
	case []string:
		return append([]string(nil), value...), nil
	case []any:
		out := make([]string, 0, len(value))
		for _, item := range value {
			str, err := cast.ToStringE(item)
			if err != nil {
				return nil, fmt.Errorf("front matter %s: %w", key, err)
			}
			out = append(out, str)
		}
		return out, nil
	default:
		str, err := cast.ToStringE(value)
		if err != nil {
			return nil, fmt.Errorf("front matter %s: %w", key, err)
		}
		return []string{str}, nil
	}
}
