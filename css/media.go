package css

import (
	"strings"

	"github.com/tdewolff/parse/v2/css"

	"cssnest/ast"
)

// CanonicalText returns text used to compare media query expressions:
// identifiers and strings are compared case-insensitively and without quotes.
func CanonicalText(e ast.Expression) string {
	switch v := e.(type) {
	case *ast.Ident:
		return strings.ToLower(v.Name)
	case *ast.String:
		return strings.ToLower(v.Value)
	case *ast.Raw:
		return strings.TrimSpace(v.Text)
	default:
		return e.String()
	}
}

// parseMediaQueries splits @media prelude into queries. Anything which does
// not fit "[not|only] type [and feature]..." or "feature [and feature]..." is
// kept as a single raw feature, queries are not validated.
func parseMediaQueries(source string, toks []token) []*ast.MediaQuery {
	var out []*ast.MediaQuery
	for _, part := range split(toks) {
		sig := significant(part)
		if len(sig) == 0 {
			continue
		}
		q := parseMediaQuery(sig)
		if q == nil {
			q = &ast.MediaQuery{Features: []ast.Expression{&ast.Raw{Text: text(part)}}}
		}
		q.Position = position(source, sig[0])
		out = append(out, q)
	}
	return out
}

// parseMediaQuery returns nil when query does not have expected shape.
func parseMediaQuery(toks []token) *ast.MediaQuery {
	q := &ast.MediaQuery{}
	rest := toks

	if len(rest) > 1 && isMediaType(rest[1]) {
		switch {
		case rest[0].ident("not"):
			q.Modifier, rest = ast.ModifierNot, rest[1:]
		case rest[0].ident("only"):
			q.Modifier, rest = ast.ModifierOnly, rest[1:]
		}
	}

	if isMediaType(rest[0]) && !rest[0].ident("not") {
		q.Type = mediaType(rest[0])
		rest = rest[1:]
		if len(rest) == 0 {
			return q
		}
		if !rest[0].ident("and") || len(rest) == 1 {
			return nil
		}
		rest = rest[1:]
	} else if q.Modifier != ast.ModifierNone {
		return nil
	}

	for len(rest) > 0 {
		feature, n := mediaFeature(rest)
		if n == 0 {
			return nil
		}
		q.Features = append(q.Features, feature)
		rest = rest[n:]
		if len(rest) == 0 {
			break
		}
		if !rest[0].ident("and") || len(rest) == 1 {
			return nil
		}
		rest = rest[1:]
	}
	return q
}

func isMediaType(t token) bool {
	switch t.tt {
	case css.IdentToken:
		return !t.ident("and") && !t.ident("or")
	case css.StringToken:
		return true
	}
	return false
}

func mediaType(t token) ast.Expression {
	if t.tt == css.StringToken {
		return &ast.String{Value: unquote(t.text), Quote: t.text[0]}
	}
	return &ast.Ident{Name: t.text}
}

// mediaFeature consumes single parenthesized feature, returns number of
// tokens used or 0 when tokens do not start with one.
func mediaFeature(toks []token) (ast.Expression, int) {
	if !toks[0].is(css.LeftParenthesisToken) {
		return nil, 0
	}
	depth := 0
	for i, t := range toks {
		switch t.tt {
		case css.LeftParenthesisToken, css.FunctionToken:
			depth++
		case css.RightParenthesisToken:
			depth--
			if depth == 0 {
				return &ast.Raw{Text: featureText(toks[:i+1])}, i + 1
			}
		}
	}
	return nil, 0
}

// featureText normalizes "( min-width:10px )" to "(min-width: 10px)".
func featureText(toks []token) string {
	var (
		b     strings.Builder
		space bool
	)
	for _, t := range toks {
		switch t.tt {
		case css.WhitespaceToken, css.CommentToken:
			space = true
			continue
		case css.ColonToken:
			b.WriteString(": ")
			space = false
			continue
		case css.RightParenthesisToken:
			space = false
		}
		if s := b.String(); space && !strings.HasSuffix(s, " ") && !strings.HasSuffix(s, "(") {
			b.WriteByte(' ')
		}
		space = false
		b.WriteString(t.text)
	}
	return b.String()
}

// significant drops all whitespace and comments except whitespace inside
// parentheses which is needed to render features.
func significant(toks []token) []token {
	var (
		out   []token
		depth int
	)
	for _, t := range trim(toks) {
		switch t.tt {
		case css.LeftParenthesisToken, css.FunctionToken:
			depth++
		case css.RightParenthesisToken:
			depth--
		case css.CommentToken:
			continue
		case css.WhitespaceToken:
			if depth == 0 {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// unquote removes surrounding quotes from a string.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
