package ast

import "github.com/raek/rasm/token"

// LocalLabel is a numeric-suffix local label definition ("1:", "2:")
// before the parser's local-label fixup pass rewrites it into an
// ordinary Label with a synthesized unique name (spec.md §3, §9).
type LocalLabel struct {
	Num string
	At  token.Pos
}

func (l *LocalLabel) Pos() token.Pos { return l.At }
