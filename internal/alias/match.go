package alias

import "strings"

// Match folds message once and returns the first alias contained in it.
func (l List) Match(message string) (Alias, bool) {
	if len(l.items) == 0 {
		return "", false
	}
	folded := Fold(message)
	for _, a := range l.items {
		// Both sides are valid UTF-8, so a byte match always starts on a rune boundary.
		if strings.Contains(folded, string(a)) {
			return a, true
		}
	}
	return "", false
}

// Matches reports whether any alias in l occurs in message, ignoring case.
// Matching is substring based; "bob" matches "bobby".
func Matches(l List, message string) bool {
	_, ok := l.Match(message)
	return ok
}
