package markdown

import (
	"strings"
	"unicode"
)

// PageAnchor guesses the anchor the wiki generates for a heading on the page
// titled pageTitle, given a kramdown style fragment such as "getting-started".
// Hyphens become word breaks, every word is title-cased and the words are
// joined, then the page title (spaces removed) and a hyphen are prefixed:
// ("Setup Guide", "getting-started") -> "SetupGuide-GettingStarted".
//
// The guess is lossy. The wiki keeps punctuation from the heading text
// ("Why Not?" becomes "WhyNot?") while the fragment has already dropped it
// ("why-not"), so such headings will not match.
func PageAnchor(pageTitle, fragment string) string {
	words := titleCase(strings.ReplaceAll(fragment, "-", " "))
	return strings.ReplaceAll(pageTitle, " ", "") + "-" + strings.ReplaceAll(words, " ", "")
}

// titleCase upper-cases every cased rune that follows an uncased one and
// lower-cases the rest, so "2nd step" becomes "2Nd Step".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	prevCased := false
	for _, r := range s {
		cased := unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r)
		switch {
		case cased && prevCased:
			b.WriteRune(unicode.ToLower(r))
		case cased:
			b.WriteRune(unicode.ToTitle(r))
		default:
			b.WriteRune(r)
		}
		prevCased = cased
	}
	return b.String()
}
