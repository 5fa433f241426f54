package cssize

import (
	"strings"

	"cssnest/ast"
)

// shape renders tree in compact form convenient for comparisons.
func shape(s ast.Statement) string {
	switch n := s.(type) {
	case nil:
		return "<nil>"
	case *ast.Block:
		parts := make([]string, 0, len(n.Children))
		for _, c := range n.Children {
			parts = append(parts, shape(c))
		}
		return strings.Join(parts, " ")
	case *ast.StyleRule:
		return n.SelectorText() + "{" + shape(n.Body) + "}"
	case *ast.MediaBlock:
		return "@media " + ast.QueriesString(n.Queries) + "{" + shape(n.Body) + "}"
	case *ast.Bubble:
		return "bubble(" + shape(n.Node) + ")"
	case *ast.Declaration:
		return n.Property + ":" + n.Value + ";"
	case *ast.Comment:
		return n.Text
	case *ast.AtRule:
		out := "@" + n.Name
		if n.Params != "" {
			out += " " + n.Params
		}
		if n.Body != nil {
			return out + "{" + shape(n.Body) + "}"
		}
		return out + ";"
	default:
		return "?"
	}
}

func root(children ...ast.Statement) *ast.Block {
	return &ast.Block{Root: true, Children: children}
}

func group(children ...ast.Statement) *ast.Block {
	return &ast.Block{Children: children}
}

func rule(sel string, children ...ast.Statement) *ast.StyleRule {
	return &ast.StyleRule{Selector: strings.Split(sel, ", "), Body: &ast.Block{Children: children}}
}

func media(qs []*ast.MediaQuery, children ...ast.Statement) *ast.MediaBlock {
	return &ast.MediaBlock{Queries: qs, Body: &ast.Block{Children: children}}
}

func decl(prop, value string) *ast.Declaration {
	return &ast.Declaration{Property: prop, Value: value}
}

func bubble(s ast.Statement) *ast.Bubble {
	return &ast.Bubble{Node: s}
}

// query builds media query from its parts, empty typ means no type.
func query(mod ast.Modifier, typ string, features ...string) *ast.MediaQuery {
	q := &ast.MediaQuery{Modifier: mod}
	if typ != "" {
		q.Type = &ast.Ident{Name: typ}
	}
	for _, f := range features {
		q.Features = append(q.Features, &ast.Raw{Text: f})
	}
	return q
}

func queries(qs ...*ast.MediaQuery) []*ast.MediaQuery {
	return qs
}

func screen() []*ast.MediaQuery {
	return queries(query(ast.ModifierNone, "screen"))
}
