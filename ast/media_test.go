package ast

import "testing"

func mq(mod Modifier, typ string, features ...string) *MediaQuery {
	q := &MediaQuery{Modifier: mod}
	if typ != "" {
		q.Type = &Ident{Name: typ}
	}
	for _, f := range features {
		q.Features = append(q.Features, &Raw{Text: f})
	}
	return q
}

func TestMediaQueryString(t *testing.T) {
	tests := []struct {
		q    *MediaQuery
		want string
	}{
		{mq(ModifierNone, "screen"), "screen"},
		{mq(ModifierNot, "screen"), "not screen"},
		{mq(ModifierOnly, "screen", "(color)"), "only screen and (color)"},
		{mq(ModifierNone, "", "(min-width: 10px)", "(max-width: 20px)"), "(min-width: 10px) and (max-width: 20px)"},
		{&MediaQuery{Type: &String{Value: "tv", Quote: '\''}}, "'tv'"},
		{&MediaQuery{Type: &String{Value: "tv", Quote: '"'}}, `"tv"`},
	}
	for _, tt := range tests {
		if got := tt.q.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestMediaQueryEqual(t *testing.T) {
	a := mq(ModifierNone, "screen", "(color)")
	b := mq(ModifierNone, "screen", "(color)")
	b.Position = Position{Path: "other.css", Line: 9}

	if !a.Equal(b) {
		t.Error("queries differing only by position should be equal")
	}
	if a.Equal(mq(ModifierOnly, "screen", "(color)")) {
		t.Error("modifier ignored")
	}
	if a.Equal(mq(ModifierNone, "", "(color)")) {
		t.Error("missing type ignored")
	}
	if a.Equal(mq(ModifierNone, "screen")) {
		t.Error("features ignored")
	}
	if (&MediaQuery{Type: &Ident{Name: "tv"}}).Equal(&MediaQuery{Type: &String{Value: "tv"}}) {
		t.Error("identifier equal to string")
	}

	var nq *MediaQuery
	if !nq.Equal(nil) || nq.Equal(a) || a.Equal(nil) {
		t.Error("nil handling")
	}
}

func TestQueriesEqual(t *testing.T) {
	x := []*MediaQuery{mq(ModifierNone, "screen"), mq(ModifierNone, "print")}
	y := []*MediaQuery{mq(ModifierNone, "screen"), mq(ModifierNone, "print")}
	if !QueriesEqual(x, y) {
		t.Error("equal lists reported different")
	}
	if QueriesEqual(x, y[:1]) {
		t.Error("lists of different length reported equal")
	}
	if QueriesEqual(x, []*MediaQuery{y[1], y[0]}) {
		t.Error("order ignored")
	}
	if got := QueriesString(x); got != "screen, print" {
		t.Errorf("QueriesString() = %q", got)
	}
}

func TestMediaQueryClone(t *testing.T) {
	q := mq(ModifierNot, "print", "(color)")
	c := q.Clone()
	c.Features[0] = &Raw{Text: "(monochrome)"}
	c.Modifier = ModifierNone
	if q.String() != "not print and (color)" {
		t.Errorf("original changed: %q", q.String())
	}
}

func TestStringEscaping(t *testing.T) {
	tests := []struct {
		s    *String
		want string
	}{
		{&String{Value: `a"b\c`}, `"a\"b\\c"`},
		{&String{Value: `it's`, Quote: '\''}, `'it\'s'`},
		{&String{Value: `say "hi"`, Quote: '\''}, `'say "hi"'`},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("String() = %s, want %s", got, tt.want)
		}
	}
}
