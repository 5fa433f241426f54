package css

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"cssnest/ast"
	"cssnest/common"
)

// ErrBubble is returned when tree still holds hoisting markers and so cannot
// be rendered.
var ErrBubble = errors.New("unresolved bubble in output tree")

// Format controls stylesheet rendering.
type Format struct {
	Style        common.OutputStyle
	Indent       int
	LineEnding   common.LineEnding
	KeepComments bool
}

// DefaultFormat returns expanded style with two space indentation.
func DefaultFormat() Format {
	return Format{
		Style:        common.OutputStyleExpanded,
		Indent:       2,
		LineEnding:   common.LineEndingLf,
		KeepComments: true,
	}
}

// Stylesheet is a parsed stylesheet.
type Stylesheet struct {
	Source   string
	Root     *ast.Block
	Charset  string   // from leading @charset, if any
	Imports  []string // urls of @import rules in source order
	Warnings []string
	Format   Format
}

// WriteTo writes the stylesheet to w in source order, implementing io.WriterTo.
// Rules and media blocks without visible content are skipped.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	p := &printer{w: w, f: s.Format}
	items := p.items(s.Root)
	for i, item := range items {
		if p.f.Style == common.OutputStyleCompact {
			p.compact(item)
			p.nl()
			continue
		}
		// Add blank line between items (except after last)
		if i > 0 {
			p.nl()
		}
		p.expanded(item, 0)
	}
	return p.total, p.err
}

// String returns rendered stylesheet or empty string when it cannot be
// rendered.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	if _, err := s.WriteTo(&sb); err != nil {
		return ""
	}
	return sb.String()
}

type printer struct {
	w     io.Writer
	f     Format
	total int64
	err   error
}

func (p *printer) print(parts ...string) {
	for _, s := range parts {
		if p.err != nil {
			return
		}
		n, err := io.WriteString(p.w, s)
		p.total += int64(n)
		p.err = err
	}
}

func (p *printer) nl() {
	p.print(p.f.LineEnding.Newline())
}

func (p *printer) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *printer) indent(depth int) string {
	return strings.Repeat(" ", depth*max(p.f.Indent, 0))
}

// items returns visible children of the block with anonymous blocks spliced.
func (p *printer) items(b *ast.Block) []ast.Statement {
	if b == nil {
		return nil
	}
	var out []ast.Statement
	for _, c := range b.Children {
		if nb, ok := c.(*ast.Block); ok {
			out = append(out, p.items(nb)...)
			continue
		}
		if p.visible(c) {
			out = append(out, c)
		}
	}
	return out
}

func (p *printer) visible(s ast.Statement) bool {
	switch n := s.(type) {
	case *ast.Comment:
		return p.f.KeepComments
	case *ast.StyleRule:
		return len(p.items(n.Body)) > 0
	case *ast.MediaBlock:
		return len(p.items(n.Body)) > 0
	case *ast.Block:
		return len(p.items(n)) > 0
	default:
		return true
	}
}

func declaration(d *ast.Declaration) string {
	var b strings.Builder
	b.WriteString(d.Property)
	b.WriteByte(':')
	if d.Value != "" {
		b.WriteByte(' ')
		b.WriteString(d.Value)
	}
	if d.Important {
		b.WriteString(" !important")
	}
	b.WriteByte(';')
	return b.String()
}

func atRuleHead(a *ast.AtRule) string {
	if a.Params == "" {
		return "@" + a.Name
	}
	return "@" + a.Name + " " + a.Params
}

func (p *printer) expanded(s ast.Statement, depth int) {
	ind := p.indent(depth)
	switch n := s.(type) {
	case *ast.Declaration:
		p.print(ind, declaration(n))
		p.nl()
	case *ast.Comment:
		p.print(ind, n.Text)
		p.nl()
	case *ast.StyleRule:
		p.print(ind, strings.Join(n.Selector, ","+p.f.LineEnding.Newline()+ind), " {")
		p.nl()
		p.expandedBody(n.Body, depth)
	case *ast.MediaBlock:
		p.print(ind, "@media ", ast.QueriesString(n.Queries), " {")
		p.nl()
		p.expandedBody(n.Body, depth)
	case *ast.AtRule:
		if n.Body == nil {
			p.print(ind, atRuleHead(n), ";")
			p.nl()
			return
		}
		p.print(ind, atRuleHead(n), " {")
		p.nl()
		p.expandedBody(n.Body, depth)
	case *ast.Bubble:
		p.fail(fmt.Errorf("%w at %s", ErrBubble, n.Pos()))
	default:
		p.fail(fmt.Errorf("unable to render %T at %s", s, s.Pos()))
	}
}

func (p *printer) expandedBody(b *ast.Block, depth int) {
	for _, c := range p.items(b) {
		p.expanded(c, depth+1)
	}
	p.print(p.indent(depth), "}")
	p.nl()
}

func (p *printer) compact(s ast.Statement) {
	switch n := s.(type) {
	case *ast.Declaration:
		p.print(declaration(n))
	case *ast.Comment:
		p.print(n.Text)
	case *ast.StyleRule:
		p.print(strings.Join(n.Selector, ", "), " {")
		p.compactBody(n.Body)
	case *ast.MediaBlock:
		p.print("@media ", ast.QueriesString(n.Queries), " {")
		p.compactBody(n.Body)
	case *ast.AtRule:
		if n.Body == nil {
			p.print(atRuleHead(n), ";")
			return
		}
		p.print(atRuleHead(n), " {")
		p.compactBody(n.Body)
	case *ast.Bubble:
		p.fail(fmt.Errorf("%w at %s", ErrBubble, n.Pos()))
	default:
		p.fail(fmt.Errorf("unable to render %T at %s", s, s.Pos()))
	}
}

func (p *printer) compactBody(b *ast.Block) {
	for _, c := range p.items(b) {
		p.print(" ")
		p.compact(c)
	}
	p.print(" }")
}
