// Package ast defines the parsed representation produced by the parser:
// expression trees (evaluated lazily against a symbol environment) and
// the linear list of parsed items (labels, instructions, directives)
// that the layout pass and encoder walk.
package ast

import (
	"fmt"

	"github.com/raek/rasm/token"
)

// Env is the subset of the symbol environment that expressions need to
// resolve identifiers. Implemented by *symtab.Env; kept as an interface
// here so ast has no dependency on symtab (symtab depends on ast instead).
type Env interface {
	Lookup(name string) (int64, error)
}

// Expr is a lazily-evaluated expression tree node.
type Expr interface {
	Eval(env Env) (int64, error)
	Pos() token.Pos
}

// Const is an already-known integer literal.
type Const struct {
	Value int64
	At    token.Pos
}

func (c *Const) Eval(Env) (int64, error) { return c.Value, nil }
func (c *Const) Pos() token.Pos          { return c.At }

// Ident is a reference to a named symbol, resolved against Env.
type Ident struct {
	Name string
	At   token.Pos
}

func (i *Ident) Eval(env Env) (int64, error) {
	v, err := env.Lookup(i.Name)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", i.At, err)
	}
	return v, nil
}
func (i *Ident) Pos() token.Pos { return i.At }

// UnaryOp enumerates the unary operators.
type UnaryOp int

const (
	UNeg UnaryOp = iota
	UNot
	ULogicalNot
	ULo8
	UHi8
)

// Unary is a unary operator applied to a sub-expression.
type Unary struct {
	X  Expr
	Op UnaryOp
	At token.Pos
}

func (u *Unary) Eval(env Env) (int64, error) {
	v, err := u.X.Eval(env)
	if err != nil {
		return 0, err
	}
	switch u.Op {
	case UNeg:
		return -v, nil
	case UNot:
		return ^v, nil
	case ULogicalNot:
		if v == 0 {
			return 1, nil
		}
		return 0, nil
	case ULo8:
		return v & 0xFF, nil
	case UHi8:
		return (v >> 8) & 0xFF, nil
	}
	return 0, fmt.Errorf("%s: unknown unary operator", u.At)
}
func (u *Unary) Pos() token.Pos { return u.At }

// BinOp enumerates the binary operators.
type BinOp int

const (
	BAdd BinOp = iota
	BSub
	BMul
	BDiv
	BMod
	BAnd
	BOr
	BXor
	BShl
	BShr
)

// Binary is a binary operator applied to two sub-expressions.
type Binary struct {
	X, Y Expr
	Op   BinOp
	At   token.Pos
}

func (b *Binary) Eval(env Env) (int64, error) {
	x, err := b.X.Eval(env)
	if err != nil {
		return 0, err
	}
	y, err := b.Y.Eval(env)
	if err != nil {
		return 0, err
	}
	switch b.Op {
	case BAdd:
		return x + y, nil
	case BSub:
		return x - y, nil
	case BMul:
		return x * y, nil
	case BDiv:
		if y == 0 {
			return 0, fmt.Errorf("%s: division by zero", b.At)
		}
		return x / y, nil
	case BMod:
		if y == 0 {
			return 0, fmt.Errorf("%s: modulo by zero", b.At)
		}
		return x % y, nil
	case BAnd:
		return x & y, nil
	case BOr:
		return x | y, nil
	case BXor:
		return x ^ y, nil
	case BShl:
		if y < 0 {
			return 0, fmt.Errorf("%s: shift by negative amount", b.At)
		}
		return x << uint(y), nil
	case BShr:
		if y < 0 {
			return 0, fmt.Errorf("%s: shift by negative amount", b.At)
		}
		return x >> uint(y), nil
	}
	return 0, fmt.Errorf("%s: unknown binary operator", b.At)
}
func (b *Binary) Pos() token.Pos { return b.At }
