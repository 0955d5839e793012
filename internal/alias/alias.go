// Package alias parses the semicolon-separated alias preference and matches
// chat messages against the resulting list.
package alias

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Separator delimits aliases in the raw preference string.
const Separator = ';'

// Alias is a trimmed, case-folded, non-empty token.
type Alias string

// List is an immutable, ordered set of aliases. The zero value is empty.
type List struct {
	items []Alias
}

// Parse splits raw on ';', trims Unicode whitespace around each token, drops
// empty tokens and case-folds what is left. It never fails; malformed input
// just yields fewer aliases.
func Parse(raw string) List {
	raw = strings.ToValidUTF8(raw, string(unicode.ReplacementChar))
	var items []Alias
	for _, tok := range strings.Split(raw, string(Separator)) {
		tok = strings.TrimFunc(tok, unicode.IsSpace)
		if tok == "" {
			continue
		}
		items = append(items, Alias(Fold(tok)))
	}
	return List{items: items}
}

// Fold returns the Unicode case-folded form of s. Invalid UTF-8 is replaced
// with U+FFFD first so folded text can always be compared rune-aligned.
func Fold(s string) string {
	s = strings.ToValidUTF8(s, string(unicode.ReplacementChar))
	// A Caser carries state, so each call gets a fresh one.
	return cases.Fold().String(s)
}

// Len returns the number of aliases.
func (l List) Len() int { return len(l.items) }

// Empty reports whether the list holds no aliases.
func (l List) Empty() bool { return len(l.items) == 0 }

// Strings returns a copy of the aliases in parse order.
func (l List) Strings() []string {
	out := make([]string, len(l.items))
	for i, a := range l.items {
		out[i] = string(a)
	}
	return out
}

// Equal reports whether both lists hold the same aliases in the same order.
func (l List) Equal(o List) bool {
	if len(l.items) != len(o.items) {
		return false
	}
	for i := range l.items {
		if l.items[i] != o.items[i] {
			return false
		}
	}
	return true
}

// String renders the list back into preference form.
func (l List) String() string {
	return strings.Join(l.Strings(), string(Separator)+" ")
}
