package ast

import (
	"fmt"
	"slices"
	"strings"
)

// Expression is a value inside media query prelude.
type Expression interface {
	fmt.Stringer
	Equal(Expression) bool

	expressionNode()
}

// Ident is a bare identifier, e.g. media type "screen".
type Ident struct {
	Name string
}

func (i *Ident) String() string  { return i.Name }
func (i *Ident) expressionNode() {}

func (i *Ident) Equal(e Expression) bool {
	o, ok := e.(*Ident)
	return ok && o.Name == i.Name
}

// String is a quoted string literal.
type String struct {
	Value string
	Quote byte
}

// String returns literal in CSS syntax, only the quote and backslash are
// escaped.
func (s *String) String() string {
	q := s.Quote
	if q != '\'' {
		q = '"'
	}
	var b strings.Builder
	b.Grow(len(s.Value) + 2)
	b.WriteByte(q)
	for i := 0; i < len(s.Value); i++ {
		if c := s.Value[i]; c == q || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(s.Value[i])
	}
	b.WriteByte(q)
	return b.String()
}

func (s *String) expressionNode() {}

func (s *String) Equal(e Expression) bool {
	o, ok := e.(*String)
	return ok && o.Value == s.Value
}

// Raw is uninterpreted text, used for media features like "(min-width: 10px)".
type Raw struct {
	Text string
}

func (r *Raw) String() string  { return r.Text }
func (r *Raw) expressionNode() {}

func (r *Raw) Equal(e Expression) bool {
	o, ok := e.(*Raw)
	return ok && o.Text == r.Text
}

// Modifier of the media query.
type Modifier int

const (
	ModifierNone Modifier = iota
	ModifierNot
	ModifierOnly
)

func (m Modifier) String() string {
	switch m {
	case ModifierNot:
		return "not"
	case ModifierOnly:
		return "only"
	default:
		return ""
	}
}

// MediaQuery is a single query of @media prelude: optional modifier,
// optional type and list of features.
type MediaQuery struct {
	Position Position
	Modifier Modifier
	Type     Expression // nil when absent
	Features []Expression
}

func (q *MediaQuery) Negated() bool    { return q.Modifier == ModifierNot }
func (q *MediaQuery) Restricted() bool { return q.Modifier == ModifierOnly }

// Clone returns copy of the query. Expressions are immutable and shared.
func (q *MediaQuery) Clone() *MediaQuery {
	return &MediaQuery{
		Position: q.Position,
		Modifier: q.Modifier,
		Type:     q.Type,
		Features: slices.Clone(q.Features),
	}
}

// Equal compares queries structurally ignoring positions.
func (q *MediaQuery) Equal(o *MediaQuery) bool {
	if q == nil || o == nil {
		return q == o
	}
	if q.Modifier != o.Modifier || len(q.Features) != len(o.Features) {
		return false
	}
	if (q.Type == nil) != (o.Type == nil) {
		return false
	}
	if q.Type != nil && !q.Type.Equal(o.Type) {
		return false
	}
	for i := range q.Features {
		if !q.Features[i].Equal(o.Features[i]) {
			return false
		}
	}
	return true
}

// String returns query as it appears in the source.
func (q *MediaQuery) String() string {
	var out string
	if q.Modifier != ModifierNone {
		out = q.Modifier.String() + " "
	}
	if q.Type != nil {
		out += q.Type.String()
	}
	for i, f := range q.Features {
		if i > 0 || q.Type != nil {
			out += " and "
		}
		out += f.String()
	}
	return out
}

// QueriesEqual compares two query lists element by element.
func QueriesEqual(a, b []*MediaQuery) bool {
	return slices.EqualFunc(a, b, func(x, y *MediaQuery) bool { return x.Equal(y) })
}

// QueriesString joins query list the way it appears after "@media".
func QueriesString(qs []*MediaQuery) string {
	var out string
	for i, q := range qs {
		if i > 0 {
			out += ", "
		}
		out += q.String()
	}
	return out
}
