package css

import (
	"errors"
	"strings"
)

var errParentAtTop = errors.New(`top-level selector may not contain the parent selector "&"`)

// resolveSelectors combines nested selector list with the list of its parent
// rule. Every child is combined with every parent, parent-major. Child which
// mentions "&" gets parent substituted in place, otherwise it becomes
// a descendant of the parent.
func resolveSelectors(toks []token, parents []string) ([]string, error) {
	var out []string
	for _, part := range split(toks) {
		part = trim(part)
		if len(part) == 0 {
			continue
		}
		if parents == nil {
			if hasParentRef(part) {
				return nil, errParentAtTop
			}
			out = append(out, text(part))
		}
	}
	if parents == nil {
		return out, nil
	}

	children := split(toks)
	for _, parent := range parents {
		for _, child := range children {
			child = trim(child)
			if len(child) == 0 {
				continue
			}
			if hasParentRef(child) {
				out = append(out, substitute(child, parent))
				continue
			}
			out = append(out, parent+" "+text(child))
		}
	}
	return out, nil
}

func hasParentRef(toks []token) bool {
	for _, t := range toks {
		if t.delim('&') {
			return true
		}
	}
	return false
}

func substitute(toks []token, parent string) string {
	var (
		b     strings.Builder
		space bool
	)
	for _, t := range toks {
		switch {
		case t.insignificant():
			space = true
			continue
		case space && b.Len() > 0:
			b.WriteByte(' ')
		}
		space = false
		if t.delim('&') {
			b.WriteString(parent)
			continue
		}
		b.WriteString(t.text)
	}
	return b.String()
}
