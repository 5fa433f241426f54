package ast

import (
	"cssnest/utils/debug"
)

// Dump returns readable tree of the statement. It exists for debug reports
// and tests.
func Dump(s Statement) string {
	tw := debug.NewTreeWriter()
	dump(tw, 0, s)
	return tw.String()
}

func dump(tw *debug.TreeWriter, depth int, s Statement) {
	if s == nil {
		tw.Line(depth, "<nil>")
		return
	}
	switch n := s.(type) {
	case *Block:
		if n.Root {
			tw.Line(depth, "Block root [%d] @%s", len(n.Children), n.Position)
		} else {
			tw.Line(depth, "Block [%d] @%s", len(n.Children), n.Position)
		}
		for _, c := range n.Children {
			dump(tw, depth+1, c)
		}
	case *StyleRule:
		tw.Line(depth, "Rule %q @%s", n.SelectorText(), n.Position)
		dumpBody(tw, depth+1, n.Body)
	case *MediaBlock:
		tw.Line(depth, "Media %q @%s", QueriesString(n.Queries), n.Position)
		dumpBody(tw, depth+1, n.Body)
	case *Bubble:
		tw.Line(depth, "Bubble @%s", n.Position)
		dump(tw, depth+1, n.Node)
	case *Declaration:
		if n.Important {
			tw.Line(depth, "Decl %s: %s !important", n.Property, n.Value)
		} else {
			tw.Line(depth, "Decl %s: %s", n.Property, n.Value)
		}
	case *Comment:
		tw.TextBlock(depth, "Comment", n.Text)
	case *AtRule:
		tw.Line(depth, "AtRule @%s %q bubbles=%t", n.Name, n.Params, n.Bubbles())
		if n.Body != nil {
			dumpBody(tw, depth+1, n.Body)
		}
	default:
		tw.Line(depth, "Unknown %T", s)
	}
}

func dumpBody(tw *debug.TreeWriter, depth int, b *Block) {
	if b == nil {
		tw.Line(depth, "<no body>")
		return
	}
	for _, c := range b.Children {
		dump(tw, depth, c)
	}
}
