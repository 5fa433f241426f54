package css

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"

	"cssnest/ast"
)

type token struct {
	tt     css.TokenType
	text   string
	offset int
	line   int
	col    int
}

func (t token) is(tt css.TokenType) bool { return t.tt == tt }

func (t token) delim(c byte) bool {
	return t.tt == css.DelimToken && len(t.text) == 1 && t.text[0] == c
}

func (t token) ident(name string) bool {
	return t.tt == css.IdentToken && strings.EqualFold(t.text, name)
}

// insignificant tokens are dropped from preludes and values
func (t token) insignificant() bool {
	return t.tt == css.WhitespaceToken || t.tt == css.CommentToken
}

// tokenize runs lexer over the whole input. Line comments ("// ...") are
// removed since plain CSS never has "//" outside of strings and urls. The last
// token is always ErrorToken marking the end of input.
func tokenize(data []byte) ([]token, error) {
	l := css.NewLexer(parse.NewInput(bytes.NewReader(data)))

	var (
		toks      []token
		offset    int
		line, col = 1, 1
		inComment bool
	)
	for {
		tt, raw := l.Next()
		if tt == css.ErrorToken {
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, parse.NewError(bytes.NewReader(data), offset, "%s", err.Error())
			}
			toks = append(toks, token{tt: css.ErrorToken, offset: offset, line: line, col: col})
			return toks, nil
		}

		t := token{tt: tt, text: string(raw), offset: offset, line: line, col: col}
		offset += len(raw)
		if nl := strings.LastIndexByte(t.text, '\n'); nl >= 0 {
			line += strings.Count(t.text, "\n")
			col = 1 + utf8.RuneCountInString(t.text[nl+1:])
		} else {
			col += utf8.RuneCountInString(t.text)
		}

		switch {
		case inComment:
			if strings.ContainsRune(t.text, '\n') {
				inComment = false
				if t.tt == css.WhitespaceToken {
					toks = append(toks, t)
				}
			}
			continue
		case t.delim('/') && offset < len(data) && data[offset] == '/':
			inComment = true
			continue
		}
		toks = append(toks, t)
	}
}

// stream is a cursor over tokens.
type stream struct {
	toks []token
	i    int
}

func (s *stream) peek() token {
	if s.i >= len(s.toks) {
		return s.toks[len(s.toks)-1]
	}
	return s.toks[s.i]
}

func (s *stream) next() token {
	t := s.peek()
	if s.i < len(s.toks) {
		s.i++
	}
	return t
}

// prelude collects tokens up to ";", "{" or "}" on the outermost nesting
// level. Terminating ";" and "{" are consumed, "}" and end of input are not.
func (s *stream) prelude() ([]token, token) {
	var (
		out   []token
		depth int
	)
	for {
		t := s.peek()
		switch t.tt {
		case css.ErrorToken:
			return out, t
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		case css.SemicolonToken, css.LeftBraceToken:
			if depth == 0 {
				s.next()
				return out, t
			}
		case css.RightBraceToken:
			if depth == 0 {
				return out, t
			}
		}
		out = append(out, s.next())
	}
}

// trim drops leading and trailing insignificant tokens.
func trim(toks []token) []token {
	for len(toks) > 0 && toks[0].insignificant() {
		toks = toks[1:]
	}
	for len(toks) > 0 && toks[len(toks)-1].insignificant() {
		toks = toks[:len(toks)-1]
	}
	return toks
}

// split breaks token list on top level commas.
func split(toks []token) [][]token {
	var (
		parts [][]token
		start int
		depth int
	)
	for i, t := range toks {
		switch t.tt {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			if depth > 0 {
				depth--
			}
		case css.CommaToken:
			if depth == 0 {
				parts = append(parts, toks[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, toks[start:])
}

// text renders tokens collapsing whitespace and dropping comments.
func text(toks []token) string {
	var (
		b     strings.Builder
		space bool
	)
	for _, t := range trim(toks) {
		if t.insignificant() {
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteString(t.text)
	}
	return b.String()
}

func position(source string, t token) ast.Position {
	return ast.Position{Path: source, Line: t.line, Column: t.col}
}
