package cssize

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"cssnest/ast"
)

var (
	ErrUnresolvedBubble = errors.New("unresolved bubble")
	ErrNestedMedia      = errors.New("media block nested in media block")
	ErrNestedRule       = errors.New("style rule nested in style rule")
)

// Verify checks that tree could be written as plain CSS: there are no
// bubbles left, no media block has another media block among its
// descendants and no style rule directly contains another style rule. All
// violations are reported.
func Verify(root *ast.Block) error {
	var err error
	verify(root, false, &err)
	return err
}

func verify(s ast.Statement, inMedia bool, err *error) {
	switch n := s.(type) {
	case *ast.Block:
		for _, c := range n.Children {
			verify(c, inMedia, err)
		}
	case *ast.StyleRule:
		if n.Body == nil {
			return
		}
		for _, c := range n.Body.Children {
			if c.Kind() == ast.KindStyleRule {
				*err = multierr.Append(*err, fmt.Errorf("%s: %q inside %q: %w",
					c.Pos(), c.(*ast.StyleRule).SelectorText(), n.SelectorText(), ErrNestedRule))
			}
			verify(c, inMedia, err)
		}
	case *ast.MediaBlock:
		if inMedia {
			*err = multierr.Append(*err, fmt.Errorf("%s: @media %s: %w", n.Position, ast.QueriesString(n.Queries), ErrNestedMedia))
		}
		if n.Body != nil {
			verify(n.Body, true, err)
		}
	case *ast.Bubble:
		*err = multierr.Append(*err, fmt.Errorf("%s: %w", n.Position, ErrUnresolvedBubble))
	}
}
