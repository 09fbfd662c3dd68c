package pages

import (
	"regexp"
	"slices"
	"strings"
)

var labelPattern = regexp.MustCompile(`^[\w-]+$`)

// Labels is a normalised, duplicate free label set. The zero value is the
// empty set, which means "no labels" when publishing.
type Labels struct {
	names []string
}

// NormalizeLabels trims every candidate and keeps the non-empty ones made
// only of word characters and hyphens. First occurrence order is preserved.
func NormalizeLabels(candidates ...string) Labels {
	var out Labels
	for _, candidate := range candidates {
		name := strings.TrimSpace(candidate)
		if name == "" || !labelPattern.MatchString(name) {
			continue
		}
		if !slices.Contains(out.names, name) {
			out.names = append(out.names, name)
		}
	}
	return out
}

// Union returns a set holding the labels of l followed by the new labels of
// other.
func (l Labels) Union(other Labels) Labels {
	return NormalizeLabels(append(l.Slice(), other.names...)...)
}

func (l Labels) Contains(name string) bool {
	return slices.Contains(l.names, name)
}

func (l Labels) Len() int {
	return len(l.names)
}

// Slice returns a copy of the label names.
func (l Labels) Slice() []string {
	return slices.Clone(l.names)
}

func (l Labels) String() string {
	return strings.Join(l.names, ",")
}
