package cssize

import (
	"cssnest/ast"
)

// Flatten returns new block with the content carried by s where all nested
// anonymous blocks are dissolved in place. Style rules and media blocks are
// kept as they are. For leaf statements the block holds the statement itself.
func Flatten(s ast.Statement) *ast.Block {
	var src *ast.Block
	switch n := s.(type) {
	case *ast.Block:
		src = n
	case ast.BlockBearing:
		src = n.Block()
	default:
		out := &ast.Block{Position: s.Pos()}
		out.Append(s)
		return out
	}

	result := ast.NewBlock(src)
	if src == nil {
		return result
	}
	for _, c := range src.Children {
		if b, ok := c.(*ast.Block); ok {
			result.Concat(Flatten(b))
			continue
		}
		result.Append(c)
	}
	return result
}
