package cssize

import (
	"testing"

	"cssnest/ast"
)

func TestFlatten(t *testing.T) {
	tests := []struct {
		name string
		in   ast.Statement
		want string
		size int
	}{
		{
			name: "nested groups",
			in:   group(decl("a", "1"), group(decl("b", "2"), group(decl("c", "3"))), decl("d", "4")),
			want: "a:1; b:2; c:3; d:4;",
			size: 4,
		},
		{
			name: "rules and media kept",
			in:   group(group(rule(".a", group(decl("x", "1")))), media(screen(), decl("y", "2"))),
			want: ".a{x:1;} @media screen{y:2;}",
			size: 2,
		},
		{
			name: "block bearing statement gives its body",
			in:   rule(".a", decl("a", "1"), group(decl("b", "2"))),
			want: "a:1; b:2;",
			size: 2,
		},
		{
			name: "leaf",
			in:   decl("a", "1"),
			want: "a:1;",
			size: 1,
		},
		{
			name: "empty groups vanish",
			in:   group(group(), group(group())),
			want: "",
			size: 0,
		},
		{
			name: "missing body",
			in:   &ast.StyleRule{Selector: []string{".a"}},
			want: "",
			size: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Flatten(tt.in)
			if got.Len() != tt.size {
				t.Errorf("Flatten() has %d children, want %d", got.Len(), tt.size)
			}
			if shape(got) != tt.want {
				t.Errorf("Flatten() = %q, want %q", shape(got), tt.want)
			}
		})
	}
}

func TestFlatten_Idempotent(t *testing.T) {
	in := group(group(decl("a", "1")), rule(".a", group(decl("b", "2"))), group(group(media(screen()))))
	once := Flatten(in)
	twice := Flatten(once)
	if shape(once) != shape(twice) {
		t.Errorf("Flatten is not idempotent:\n%s\n%s", shape(once), shape(twice))
	}
	for _, c := range once.Children {
		if c.Kind() == ast.KindBlock {
			t.Errorf("anonymous block survived: %s", ast.Dump(c))
		}
	}
}

func TestFlatten_KeepsRootFlag(t *testing.T) {
	in := root(group(decl("a", "1")))
	in.Position = ast.Position{Path: "a.css", Line: 1, Column: 1}
	got := Flatten(in)
	if !got.Root {
		t.Error("root flag lost")
	}
	if got.Position != in.Position {
		t.Errorf("position = %s, want %s", got.Position, in.Position)
	}
	if got == in {
		t.Error("Flatten returned its input")
	}
}
