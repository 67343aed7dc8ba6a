package ast

import "github.com/raek/rasm/token"

// OperandKind tags the operand variants spec.md §3 describes.
type OperandKind int

const (
	OpRegister OperandKind = iota
	OpRegisterPair
	OpExpr
	OpIndirectX
	OpIndirectY
	OpIndirectZ
	OpIOAddr
	OpPortBit
)

// Operand is one argument to an instruction mnemonic.
//
// Indirect forms (X/Y/Z) carry an optional PostOp (+1 post-increment, -1
// pre-decrement, 0 plain) and an optional Disp expression for the "Y+q"/
// "Z+q" displacement form. IOAddr and PortBit carry their address/bit in
// Expr/Bit.
type Operand struct {
	Kind OperandKind
	At   token.Pos

	Reg uint8 // OpRegister

	PairHi uint8 // OpRegisterPair
	PairLo uint8

	Expr Expr // OpExpr, OpIOAddr (address), OpPortBit (port)
	Bit  Expr // OpPortBit (bit index)

	PostOp int  // indirect forms: +1, -1, or 0
	Disp   Expr // indirect forms: Y+q / Z+q displacement, nil if none
}

func (o Operand) Pos() token.Pos { return o.At }

// Label marks a byte-address target; it does not itself advance a cursor.
type Label struct {
	Name string
	At   token.Pos
}

// Instruction is a mnemonic with its resolved-later operand list.
type Instruction struct {
	Mnemonic string
	Operands []Operand
	At       token.Pos
}

// DataKind distinguishes the reservation/data directives.
type DataKind int

const (
	DataByte DataKind = iota
	DataWord
	DataAlign
	DataGlobal
)

// DataDirective covers .byte, .word, .align, and .global.
type DataDirective struct {
	Kind    DataKind
	Values  []Expr // .byte/.word payload
	N       int64  // .align operand
	Name    string // .global operand
	At      token.Pos
}

// SymbolKind distinguishes .equ (strong) from .default (weak).
type SymbolKind int

const (
	SymEqu SymbolKind = iota
	SymDefault
)

// SymbolDirective is a .equ or .default binding.
type SymbolDirective struct {
	Kind SymbolKind
	Name string
	Expr Expr
	At   token.Pos
}

// Item is one element of the linear parsed-item list: a Label,
// Instruction, DataDirective, or SymbolDirective.
type Item interface {
	Pos() token.Pos
}

func (l *Label) Pos() token.Pos             { return l.At }
func (i *Instruction) Pos() token.Pos       { return i.At }
func (d *DataDirective) Pos() token.Pos     { return d.At }
func (s *SymbolDirective) Pos() token.Pos   { return s.At }
