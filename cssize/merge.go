package cssize

import (
	"slices"

	"cssnest/ast"
)

// MergeQueries returns conjunction of two query lists: every query of a
// merged with every query of b, row by row. Unsatisfiable pairs are skipped,
// so empty result means the lists can never match together.
func MergeQueries(a, b []*ast.MediaQuery, text TextFunc) []*ast.MediaQuery {
	if text == nil {
		text = plainText
	}
	merged := make([]*ast.MediaQuery, 0, len(a)*len(b))
	for _, p := range a {
		for _, q := range b {
			if m := MergeQuery(p, q, text); m != nil {
				merged = append(merged, m)
			}
		}
	}
	return merged
}

// MergeQuery returns conjunction of two queries or nil when it is
// unsatisfiable. Missing media type matches any type. Features of q come
// first in the result.
//
// Two different negated types are treated as unsatisfiable since the result
// cannot be expressed as a single query.
func MergeQuery(p, q *ast.MediaQuery, text TextFunc) *ast.MediaQuery {
	if text == nil {
		text = plainText
	}

	tp, tq := p.Type, q.Type
	if tp == nil {
		tp = tq
	}
	if tq == nil {
		tq = tp
	}
	sp, sq := canonical(tp, text), canonical(tq, text)

	var (
		typ ast.Expression
		mod ast.Modifier
	)
	switch {
	case p.Negated() != q.Negated():
		if sp == sq {
			return nil
		}
		if p.Negated() {
			typ, mod = tq, q.Modifier
		} else {
			typ, mod = tp, p.Modifier
		}
	case p.Negated():
		if sp != sq {
			return nil
		}
		typ, mod = tp, ast.ModifierNot
	default:
		if sp != sq {
			return nil
		}
		typ, mod = tp, ast.ModifierNone
		if p.Restricted() || q.Restricted() {
			mod = ast.ModifierOnly
		}
	}

	features := make([]ast.Expression, 0, len(p.Features)+len(q.Features))
	features = append(features, q.Features...)
	features = append(features, p.Features...)

	return &ast.MediaQuery{
		Position: p.Position,
		Modifier: mod,
		Type:     typ,
		Features: slices.Clip(features),
	}
}

func canonical(e ast.Expression, text TextFunc) string {
	if e == nil {
		return ""
	}
	return text(e)
}
