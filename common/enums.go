// The only reason this package exists is that both configuration and the
// printer need the same enums and printer should not depend on configuration
// loading.
package common

// Layout of generated stylesheet.
// ENUM(expanded, compact)
type OutputStyle int

// Line ending used in generated stylesheet.
// ENUM(lf, crlf)
type LineEnding int

func (l LineEnding) Newline() string {
	if l == LineEndingCrlf {
		return "\r\n"
	}
	return "\n"
}
