package css

import (
	"bytes"
	"fmt"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"

	"cssnest/ast"
)

// Parser parses stylesheets with nested rules into the tree.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses stylesheet text. Selectors of nested style rules are resolved
// against their parents, so every style rule in the result carries its final
// selector list. Nesting itself is kept. Source is used in positions and
// messages only.
func (p *Parser) Parse(data []byte, source string) (*Stylesheet, error) {
	p.log.Debug("Parsing CSS", zap.String("source", source), zap.Int("bytes", len(data)))

	toks, err := tokenize(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	st := &state{
		log:    p.log,
		source: source,
		data:   data,
		stream: stream{toks: toks},
		sheet: &Stylesheet{
			Source: source,
			Root:   &ast.Block{Position: ast.Position{Path: source}, Root: true},
			Format: DefaultFormat(),
		},
	}
	if err := st.block(st.sheet.Root, nil, false); err != nil {
		return nil, err
	}
	return st.sheet, nil
}

// state of a single Parse call
type state struct {
	stream
	log    *zap.Logger
	source string
	data   []byte
	sheet  *Stylesheet
}

func (st *state) errorf(t token, format string, args ...any) error {
	return fmt.Errorf("%s: %w", st.source, parse.NewError(bytes.NewReader(st.data), t.offset, format, args...))
}

func (st *state) warn(t token, msg string) {
	w := fmt.Sprintf("%s: %s", position(st.source, t), msg)
	st.sheet.Warnings = append(st.sheet.Warnings, w)
	st.log.Debug("CSS warning", zap.String("warning", w))
}

// block parses statements into b until closing brace (nested) or end of
// input. Parents is selector list of the enclosing style rule, nil when
// there is none.
func (st *state) block(b *ast.Block, parents []string, nested bool) error {
	for {
		t := st.peek()
		switch t.tt {
		case css.ErrorToken:
			if nested {
				return st.errorf(t, "unexpected end of input, expected '}'")
			}
			return nil
		case css.RightBraceToken:
			if !nested {
				return st.errorf(t, "unexpected '}'")
			}
			st.next()
			return nil
		case css.WhitespaceToken, css.SemicolonToken, css.CDOToken, css.CDCToken:
			st.next()
		case css.CommentToken:
			st.next()
			b.Append(&ast.Comment{Position: position(st.source, t), Text: t.text})
		case css.AtKeywordToken:
			if err := st.atRule(b, parents); err != nil {
				return err
			}
		default:
			if err := st.ruleOrDeclaration(b, parents); err != nil {
				return err
			}
		}
	}
}

func (st *state) atRule(b *ast.Block, parents []string) error {
	kw := st.next()
	name := kw.text[1:]
	prelude, term := st.prelude()
	pos := position(st.source, kw)

	if strings.EqualFold(name, "media") {
		if !term.is(css.LeftBraceToken) {
			return st.errorf(term, "expected '{' after @media prelude")
		}
		queries := parseMediaQueries(st.source, prelude)
		if len(queries) == 0 {
			return st.errorf(kw, "media query expected")
		}
		m := &ast.MediaBlock{Position: pos, Queries: queries, Body: &ast.Block{Position: pos}}
		st.log.Debug("Parsed @media block", zap.String("query", ast.QueriesString(queries)), zap.Stringer("pos", pos))
		b.Append(m)
		// media block does not change selector context
		return st.block(m.Body, parents, true)
	}

	a := &ast.AtRule{Position: pos, Name: name, Params: text(prelude)}
	b.Append(a)
	switch {
	case strings.EqualFold(name, "charset") && b.Root:
		st.sheet.Charset = unquote(a.Params)
	case strings.EqualFold(name, "import"):
		st.sheet.Imports = append(st.sheet.Imports, importURL(prelude))
	}
	if !term.is(css.LeftBraceToken) {
		return nil
	}
	if parents != nil && !a.Bubbles() {
		st.log.Debug("At-rule left inside style rule", zap.String("rule", name), zap.Stringer("pos", pos))
	}
	// at-rule bodies are opaque, nested selectors there start over
	a.Body = &ast.Block{Position: pos}
	return st.block(a.Body, nil, true)
}

func (st *state) ruleOrDeclaration(b *ast.Block, parents []string) error {
	first := st.peek()
	prelude, term := st.prelude()
	pos := position(st.source, first)

	if term.is(css.LeftBraceToken) {
		selectors, err := resolveSelectors(prelude, parents)
		if err != nil {
			return st.errorf(first, "%s", err.Error())
		}
		if len(selectors) == 0 {
			return st.errorf(first, "selector expected")
		}
		r := &ast.StyleRule{Position: pos, Selector: selectors, Body: &ast.Block{Position: pos}}
		b.Append(r)
		return st.block(r.Body, selectors, true)
	}

	d, err := st.declaration(prelude)
	if err != nil || d == nil {
		return err
	}
	d.Position = pos
	if b.Root {
		st.warn(first, fmt.Sprintf("declaration %q outside of any rule", d.Property))
	}
	b.Append(d)
	return nil
}

// declaration parses "name: value [!important]".
func (st *state) declaration(toks []token) (*ast.Declaration, error) {
	toks = trim(toks)
	if len(toks) == 0 {
		return nil, nil
	}
	name := toks[0]
	if !name.is(css.IdentToken) && !name.is(css.CustomPropertyNameToken) {
		return nil, st.errorf(name, "property name expected, got %q", name.text)
	}

	rest := trim(toks[1:])
	if len(rest) == 0 || !rest[0].is(css.ColonToken) {
		return nil, st.errorf(name, "expected ':' after property %q", name.text)
	}
	rest = trim(rest[1:])

	d := &ast.Declaration{Property: name.text}
	if n := len(rest); n >= 2 && rest[n-1].ident("important") {
		before := trim(rest[:n-1])
		if k := len(before); k > 0 && before[k-1].delim('!') {
			d.Important = true
			rest = trim(before[:k-1])
		}
	}
	d.Value = text(rest)

	if d.Value == "" && !strings.HasPrefix(d.Property, "--") {
		return nil, st.errorf(name, "value expected for property %q", name.text)
	}
	return d, nil
}

// importURL extracts the URL from @import prelude.
// Handles: @import "url"; @import url("url"); @import url(url);
func importURL(toks []token) string {
	for i, t := range toks {
		switch t.tt {
		case css.StringToken:
			return unquote(t.text)
		case css.URLToken:
			s := strings.TrimSuffix(t.text[strings.IndexByte(t.text, '(')+1:], ")")
			return unquote(strings.TrimSpace(s))
		case css.FunctionToken:
			if strings.EqualFold(t.text, "url(") && i+1 < len(toks) {
				return importURL(toks[i+1:])
			}
		}
	}
	return ""
}
