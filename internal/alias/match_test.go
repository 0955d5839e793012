package alias

import "testing"

func TestMatches(t *testing.T) {
	cases := []struct {
		aliases string
		message string
		expect  bool
	}{
		{"", "anything", false},
		{"bob", "Hey BOB, you there?", true},
		{"bob", "bobby", true},
		{"bob", "rob", false},
		{"bob", "", false},
		{"alice; bob", "ALICE!", true},
		{"nick name", "hello Nick Name", true},
		{"nick name", "nick  name", false},
		{"über", "ÜBER alles", true},
		{"straße", "STRASSE", true},
		{"σίσυφος", "ΣΊΣΥΦΟΣ", true},
		{"é", "café", false},
	}
	for _, c := range cases {
		l := Parse(c.aliases)
		if got := Matches(l, c.message); got != c.expect {
			t.Fatalf("Matches(%q, %q)=%v want %v", c.aliases, c.message, got, c.expect)
		}
	}
}

// No Unicode normalization is applied: a precomposed alias does not match
// the decomposed spelling of the same text, and vice versa.
func TestMatchesWithoutNormalization(t *testing.T) {
	cases := []struct {
		aliases string
		message string
		expect  bool
	}{
		{"caf\u00e9", "caf\u00e9", true},
		{"cafe\u0301", "CAFE\u0301", true},
		{"\u00e9", "cafe\u0301", false},
		{"caf\u00e9", "cafe\u0301", false},
		{"cafe\u0301", "caf\u00e9", false},
	}
	for _, c := range cases {
		if got := Matches(Parse(c.aliases), c.message); got != c.expect {
			t.Fatalf("Matches(%+q, %+q)=%v want %v", c.aliases, c.message, got, c.expect)
		}
	}
}

func TestMatchReturnsFirstAlias(t *testing.T) {
	l := Parse("two; one")
	a, ok := l.Match("one two")
	if !ok || a != "two" {
		t.Fatalf("got %q %v, want first alias in list order", a, ok)
	}
}

func TestMatchesRoundTrip(t *testing.T) {
	l := Parse("My Name; NiCk; Ölfaß; 名前; x y z")
	for _, a := range l.Strings() {
		if !Matches(Parse(a), a) {
			t.Fatalf("alias %q does not match itself", a)
		}
	}
}

func TestMatchDoesNotMutate(t *testing.T) {
	l := Parse("Bob")
	msg := "BOB"
	_ = Matches(l, msg)
	if msg != "BOB" || l.Strings()[0] != "bob" {
		t.Fatalf("match mutated inputs")
	}
}

func TestMatchesZeroList(t *testing.T) {
	var l List
	if Matches(l, "anything") {
		t.Fatalf("zero list should never match")
	}
}
