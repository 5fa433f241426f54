// Package cssize resolves nesting of evaluated stylesheet tree so that it
// could be written as plain CSS: style rules nested in style rules are hoisted
// next to their parents, @media blocks nested in style rules or other @media
// blocks are bubbled up with their queries merged.
package cssize

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"cssnest/ast"
)

// TextFunc returns canonical text of the expression. It is only used to
// compare media types.
type TextFunc func(ast.Expression) string

// Option configures Rewriter.
type Option func(*Rewriter)

// WithCanonicalText sets function used to compare media types.
func WithCanonicalText(fn TextFunc) Option {
	return func(r *Rewriter) {
		if fn != nil {
			r.text = fn
		}
	}
}

// WithoutVerify disables postcondition check of Rewrite results.
func WithoutVerify() Option {
	return func(r *Rewriter) {
		r.verify = false
	}
}

// Rewriter is the nesting resolution pass. It keeps no per-call state and
// may be reused.
type Rewriter struct {
	log    *zap.Logger
	text   TextFunc
	verify bool
}

// New creates rewriter.
func New(log *zap.Logger, opts ...Option) *Rewriter {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Rewriter{
		log:    log.Named("cssize"),
		text:   plainText,
		verify: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func plainText(e ast.Expression) string {
	return e.String()
}

// scope is the nearest enclosing style rule or media block, or the root block
// at the top level.
type scope struct {
	parent ast.Statement
}

// outcome of visiting a single statement. Pending statement could not stay
// where it was found and has to be wrapped into bubble by the caller.
type outcome struct {
	stmt    ast.Statement
	pending bool
}

func resolved(s ast.Statement) outcome { return outcome{stmt: s} }
func pending(s ast.Statement) outcome  { return outcome{stmt: s, pending: true} }

// Rewrite returns new tree equivalent to root with all illegal nesting
// resolved. Input tree is not modified.
func (r *Rewriter) Rewrite(root *ast.Block) (*ast.Block, error) {
	if root == nil {
		return nil, errors.New("nothing to rewrite")
	}
	out := r.block(root, scope{parent: root})
	if !r.verify {
		return out, nil
	}
	if err := Verify(out); err != nil {
		return out, fmt.Errorf("nesting was not fully resolved: %w", err)
	}
	return out, nil
}

func (r *Rewriter) visit(s ast.Statement, sc scope) outcome {
	switch n := s.(type) {
	case *ast.Block:
		return resolved(r.block(n, sc))
	case *ast.StyleRule:
		return resolved(r.styleRule(n, sc))
	case *ast.MediaBlock:
		return r.media(n, sc)
	case *ast.Bubble, *ast.Declaration, *ast.Comment, *ast.AtRule:
		return resolved(n)
	default:
		// malformed input, nothing could be done here
		panic(fmt.Sprintf("cssize: unexpected statement %T at %s", s, s.Pos()))
	}
}

// add places visit result into the block being assembled: anonymous blocks
// are spliced, pending statements are wrapped into bubbles.
func add(out *ast.Block, res outcome) {
	switch {
	case res.stmt == nil:
	case res.pending:
		out.Append(&ast.Bubble{Position: res.stmt.Pos(), Node: res.stmt})
	default:
		if b, ok := res.stmt.(*ast.Block); ok {
			out.Concat(b)
			return
		}
		out.Append(res.stmt)
	}
}

func (r *Rewriter) block(b *ast.Block, sc scope) *ast.Block {
	out := ast.NewBlock(b)
	if b == nil {
		return out
	}
	for _, child := range b.Children {
		add(out, r.visit(child, sc))
	}
	return out
}

func (r *Rewriter) styleRule(rule *ast.StyleRule, sc scope) ast.Statement {
	body := r.block(bodyOf(rule), scope{parent: rule})

	props, rules := ast.NewBlock(body), ast.NewBlock(body)
	for _, s := range body.Children {
		if ast.Bubblable(s) {
			rules.Append(s)
		} else {
			props.Append(s)
		}
	}
	if rules.Len() == 0 {
		return rule.WithBlock(body)
	}

	r.log.Debug("Hoisting out of style rule",
		zap.String("selector", rule.SelectorText()), zap.Stringer("pos", rule.Position),
		zap.Int("props", props.Len()), zap.Int("hoisted", rules.Len()))

	group := ast.NewBlock(body)
	if props.Len() > 0 {
		group.Append(rule.WithBlock(props))
	}
	group.Concat(rules)
	return r.debubble(group, nil, sc)
}

func (r *Rewriter) media(m *ast.MediaBlock, sc scope) outcome {
	switch p := sc.parent.(type) {
	case *ast.StyleRule:
		r.log.Debug("Bubbling media out of style rule",
			zap.String("query", ast.QueriesString(m.Queries)), zap.String("selector", p.SelectorText()), zap.Stringer("pos", m.Position))
		return pending(bubbleOutOfRule(m, p))
	case *ast.MediaBlock:
		r.log.Debug("Bubbling media out of media",
			zap.String("query", ast.QueriesString(m.Queries)), zap.String("parent", ast.QueriesString(p.Queries)), zap.Stringer("pos", m.Position))
		// processing is deferred until bubble lands
		return pending(m)
	}

	body := r.block(bodyOf(m), scope{parent: m})
	mm := m.WithBlock(body).(*ast.MediaBlock)
	return resolved(r.debubble(body, mm, sc))
}

// bubbleOutOfRule turns "rule { @media q { body } }" into
// "@media q { rule { body } }". Both bodies are left unprocessed.
func bubbleOutOfRule(m *ast.MediaBlock, rule *ast.StyleRule) *ast.MediaBlock {
	inner := ast.NewBlock(bodyOf(rule))
	inner.Concat(bodyOf(m))

	wrapper := ast.NewBlock(bodyOf(m))
	wrapper.Append(rule.WithBlock(inner))

	return &ast.MediaBlock{Position: m.Position, Queries: m.Queries, Body: wrapper}
}

func bodyOf(s ast.BlockBearing) *ast.Block {
	if b := s.Block(); b != nil {
		return b
	}
	return &ast.Block{Position: s.Pos()}
}
