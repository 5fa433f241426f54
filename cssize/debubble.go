package cssize

import (
	"go.uber.org/zap"

	"cssnest/ast"
)

// slice is a maximal run of statements of the same kind: either all bubbles
// or all plain statements.
type slice struct {
	bubble bool
	block  *ast.Block
}

func sliceByBubble(b *ast.Block) []slice {
	var results []slice
	for _, s := range b.Children {
		isBubble := s.Kind() == ast.KindBubble
		if n := len(results); n > 0 && results[n-1].bubble == isBubble {
			results[n-1].block.Append(s)
			continue
		}
		wrapper := &ast.Block{Position: s.Pos()}
		wrapper.Append(s)
		results = append(results, slice{bubble: isBubble, block: wrapper})
	}
	return results
}

// debubble splits children into runs. Plain runs end up in copies of
// enclosing statement (or directly in result when there is none), bubbled
// statements are settled against enclosing media block and processed in sc,
// the scope enclosing statement lives in.
//
// Plain runs which follow each other without any output from bubbles in
// between share the same copy of enclosing statement. A plain run following
// non-empty bubbled output gets its own copy so source order is kept.
func (r *Rewriter) debubble(children *ast.Block, enclosing ast.BlockBearing, sc scope) *ast.Block {
	result := ast.NewBlock(children)

	var current ast.BlockBearing
	for _, sl := range sliceByBubble(children) {
		if !sl.bubble {
			switch {
			case enclosing == nil:
				result.Append(sl.block)
			case current != nil:
				current.Block().Concat(sl.block)
			default:
				current = enclosing.WithBlock(sl.block)
				result.Append(current)
			}
			continue
		}

		for _, s := range sl.block.Children {
			node := r.settle(s.(*ast.Bubble).Node, enclosing)
			if node == nil {
				continue
			}
			bb := ast.NewBlock(children)
			add(bb, r.visit(node, sc))

			wrapper := Flatten(bb)
			if wrapper.Len() > 0 {
				current = nil
			}
			result.Append(wrapper)
		}
	}
	return Flatten(result)
}

// settle prepares bubbled statement for its new place. Media block leaving
// enclosing media block gets queries merged with the enclosing ones, nil is
// returned when the merge is unsatisfiable.
func (r *Rewriter) settle(node ast.Statement, enclosing ast.BlockBearing) ast.Statement {
	outer, ok := enclosing.(*ast.MediaBlock)
	if !ok {
		return node
	}
	inner, ok := node.(*ast.MediaBlock)
	if !ok || ast.QueriesEqual(inner.Queries, outer.Queries) {
		return node
	}

	merged := MergeQueries(inner.Queries, outer.Queries, r.text)
	if len(merged) == 0 {
		r.log.Debug("Dropping media block, queries could never match",
			zap.String("query", ast.QueriesString(inner.Queries)), zap.String("parent", ast.QueriesString(outer.Queries)), zap.Stringer("pos", inner.Position))
		return nil
	}
	r.log.Debug("Merged media queries",
		zap.String("query", ast.QueriesString(inner.Queries)), zap.String("parent", ast.QueriesString(outer.Queries)),
		zap.String("result", ast.QueriesString(merged)))
	return &ast.MediaBlock{Position: inner.Position, Queries: merged, Body: inner.Body}
}
