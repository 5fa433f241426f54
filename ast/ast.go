// Package ast defines the stylesheet tree shared by the parser, the nesting
// resolution pass and the printer.
package ast

import (
	"fmt"
	"slices"
	"strings"
)

// Position is a source location. It is carried for diagnostics only.
type Position struct {
	Path   string
	Line   int
	Column int
}

func (p Position) String() string {
	switch {
	case p.Path == "" && p.Line == 0:
		return "-"
	case p.Line == 0:
		return p.Path
	default:
		return fmt.Sprintf("%s:%d:%d", p.Path, p.Line, p.Column)
	}
}

// Kind identifies statement variant.
type Kind int

const (
	KindBlock Kind = iota
	KindStyleRule
	KindMediaBlock
	KindBubble
	KindDeclaration
	KindComment
	KindAtRule
)

func (k Kind) String() string {
	switch k {
	case KindBlock:
		return "block"
	case KindStyleRule:
		return "rule"
	case KindMediaBlock:
		return "media"
	case KindBubble:
		return "bubble"
	case KindDeclaration:
		return "declaration"
	case KindComment:
		return "comment"
	case KindAtRule:
		return "at-rule"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Statement is a node of the stylesheet tree. The set of implementations is
// closed: Block, StyleRule, MediaBlock, Bubble, Declaration, Comment and
// AtRule.
type Statement interface {
	Kind() Kind
	Pos() Position
	// Clone returns deep copy of the statement.
	Clone() Statement

	statementNode()
}

// BlockBearing is implemented by statements owning a body.
type BlockBearing interface {
	Statement
	Block() *Block
	// WithBlock returns shallow copy of the statement with body replaced.
	WithBlock(b *Block) BlockBearing
}

// Bubbler is implemented by statements which may float out of style rules.
type Bubbler interface {
	Bubbles() bool
}

// Bubblable reports whether statement cannot stay inside style rule body.
func Bubblable(s Statement) bool {
	if s.Kind() == KindStyleRule {
		return true
	}
	if b, ok := s.(Bubbler); ok {
		return b.Bubbles()
	}
	return false
}

// Block is an ordered list of statements. A block which is not owned by a
// style rule or media block is anonymous grouping and gets dissolved into its
// parent during flattening.
type Block struct {
	Position Position
	Root     bool
	Children []Statement
}

// NewBlock creates empty block sharing metadata with the template (if any).
func NewBlock(like *Block) *Block {
	if like == nil {
		return &Block{}
	}
	return &Block{Position: like.Position, Root: like.Root}
}

func (b *Block) Kind() Kind     { return KindBlock }
func (b *Block) Pos() Position  { return b.Position }
func (b *Block) statementNode() {}

func (b *Block) Clone() Statement {
	nb := NewBlock(b)
	nb.Children = make([]Statement, 0, len(b.Children))
	for _, c := range b.Children {
		nb.Children = append(nb.Children, c.Clone())
	}
	return nb
}

// Len returns number of direct children. Nil block is empty.
func (b *Block) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Children)
}

// Append adds statements to the end of the block.
func (b *Block) Append(s ...Statement) {
	b.Children = append(b.Children, s...)
}

// Concat appends all children of other block.
func (b *Block) Concat(other *Block) {
	if other == nil {
		return
	}
	b.Children = append(b.Children, other.Children...)
}

// StyleRule is a selector list with declarations. Selectors are expected to
// be fully resolved.
type StyleRule struct {
	Position Position
	Selector []string
	Body     *Block
}

func (r *StyleRule) Kind() Kind     { return KindStyleRule }
func (r *StyleRule) Pos() Position  { return r.Position }
func (r *StyleRule) Block() *Block  { return r.Body }
func (r *StyleRule) statementNode() {}

func (r *StyleRule) WithBlock(b *Block) BlockBearing {
	return &StyleRule{Position: r.Position, Selector: slices.Clone(r.Selector), Body: b}
}

func (r *StyleRule) Clone() Statement {
	return r.WithBlock(cloneBlock(r.Body))
}

// SelectorText returns selector list as written in output.
func (r *StyleRule) SelectorText() string {
	return strings.Join(r.Selector, ", ")
}

// MediaBlock is a @media rule guarded by the list of queries.
type MediaBlock struct {
	Position Position
	Queries  []*MediaQuery
	Body     *Block
}

func (m *MediaBlock) Kind() Kind     { return KindMediaBlock }
func (m *MediaBlock) Pos() Position  { return m.Position }
func (m *MediaBlock) Block() *Block  { return m.Body }
func (m *MediaBlock) statementNode() {}

func (m *MediaBlock) WithBlock(b *Block) BlockBearing {
	return &MediaBlock{Position: m.Position, Queries: m.Queries, Body: b}
}

func (m *MediaBlock) Clone() Statement {
	qs := make([]*MediaQuery, 0, len(m.Queries))
	for _, q := range m.Queries {
		qs = append(qs, q.Clone())
	}
	return &MediaBlock{Position: m.Position, Queries: qs, Body: cloneBlock(m.Body)}
}

// Bubble wraps statement which has to be hoisted to an outer scope. It only
// exists while nesting is being resolved.
type Bubble struct {
	Position Position
	Node     Statement
}

func (b *Bubble) Kind() Kind     { return KindBubble }
func (b *Bubble) Pos() Position  { return b.Position }
func (b *Bubble) Bubbles() bool  { return true }
func (b *Bubble) statementNode() {}

func (b *Bubble) Clone() Statement {
	return &Bubble{Position: b.Position, Node: b.Node.Clone()}
}

// Declaration is a "property: value" pair.
type Declaration struct {
	Position  Position
	Property  string
	Value     string
	Important bool
}

func (d *Declaration) Kind() Kind     { return KindDeclaration }
func (d *Declaration) Pos() Position  { return d.Position }
func (d *Declaration) statementNode() {}

func (d *Declaration) Clone() Statement {
	nd := *d
	return &nd
}

// Comment keeps comment text including delimiters.
type Comment struct {
	Position Position
	Text     string
}

func (c *Comment) Kind() Kind     { return KindComment }
func (c *Comment) Pos() Position  { return c.Position }
func (c *Comment) statementNode() {}

func (c *Comment) Clone() Statement {
	nc := *c
	return &nc
}

// AtRule is any at-rule other than @media. Its body (if any) is kept
// verbatim and is never rewritten.
type AtRule struct {
	Position Position
	Name     string // without "@"
	Params   string
	Body     *Block // nil for statement at-rules like @import
}

// floating at-rules are hoisted out of style rules
var floating = map[string]bool{
	"font-face":           true,
	"keyframes":           true,
	"page":                true,
	"counter-style":       true,
	"font-feature-values": true,
	"property":            true,
}

func (a *AtRule) Kind() Kind     { return KindAtRule }
func (a *AtRule) Pos() Position  { return a.Position }
func (a *AtRule) statementNode() {}

// Bubbles reports whether at-rule must be hoisted out of style rule.
func (a *AtRule) Bubbles() bool {
	name := strings.ToLower(a.Name)
	if strings.HasPrefix(name, "-") {
		// vendor prefixed: -webkit-keyframes, -moz-keyframes
		if i := strings.IndexByte(name[1:], '-'); i >= 0 {
			name = name[i+2:]
		}
	}
	return floating[name]
}

func (a *AtRule) Clone() Statement {
	return &AtRule{Position: a.Position, Name: a.Name, Params: a.Params, Body: cloneBlock(a.Body)}
}

func cloneBlock(b *Block) *Block {
	if b == nil {
		return nil
	}
	return b.Clone().(*Block)
}
