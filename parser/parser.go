// Package parser recognises directives, labels, mnemonics, and operand
// forms, emitting a linear ast.Item list (spec.md §4.2). It does not
// resolve symbols — that happens later against the symbol environment.
package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/raek/rasm/ast"
	"github.com/raek/rasm/lexer"
	"github.com/raek/rasm/token"
)

// Parser turns a token stream into an ast.Item list.
type Parser struct {
	lex *lexer.Lexer
	tok token.Token
	// buf holds pushed-back tokens, most recent last.
	buf  []token.Token
	file string
}

// New returns a Parser reading from r, attributing diagnostics to file.
func New(file string, r io.Reader) *Parser {
	return &Parser{lex: lexer.New(file, r), file: file}
}

func (p *Parser) next() token.Token {
	if n := len(p.buf); n > 0 {
		t := p.buf[n-1]
		p.buf = p.buf[:n-1]
		return t
	}
	return p.lex.Next()
}

func (p *Parser) unscan(t token.Token) {
	p.buf = append(p.buf, t)
}

func perr(at token.Pos, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %s", at, fmt.Sprintf(format, args...))
}

// Parse consumes the whole token stream and returns the parsed-item list.
func (p *Parser) Parse() ([]ast.Item, error) {
	var items []ast.Item
	for {
		t := p.next()
		switch {
		case t.Kind == token.EOF:
			return resolveLocalLabels(items)
		case t.Kind == token.NEWLINE:
			continue
		case t.Kind == token.NUMBER:
			item, err := p.parseLocalLabelDef(t)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		case t.Kind == token.IDENT && strings.HasPrefix(t.Lit, "."):
			item, err := p.parseDirective(t)
			if err != nil {
				return nil, err
			}
			items = append(items, flatten(item)...)
		case t.Kind == token.IDENT:
			item, err := p.parseLabelOrInstruction(t)
			if err != nil {
				return nil, err
			}
			items = append(items, item...)
		default:
			return nil, perr(t.Pos, "unexpected %s", t.Kind)
		}
	}
}

// parseLocalLabelDef handles a bare numeric label definition, e.g. "1:".
// t is the already-scanned NUMBER token.
func (p *Parser) parseLocalLabelDef(t token.Token) (ast.Item, error) {
	c := p.next()
	if c.Kind != token.COLON {
		return nil, perr(c.Pos, "expected ':' after numeric label %q, found %s", t.Lit, c.Kind)
	}
	return &ast.LocalLabel{Num: t.Lit, At: t.Pos}, nil
}

// flatten expands a *reptGroup produced by a top-level ".rept" into its
// constituent items; any other directive item (or nil) passes through
// unchanged.
func flatten(item ast.Item) []ast.Item {
	if item == nil {
		return nil
	}
	if g, ok := item.(*reptGroup); ok {
		return g.items
	}
	return []ast.Item{item}
}

// parseLabelOrInstruction handles "NAME:" (optionally followed by more on
// the same line) and "MNEMONIC operands...".
func (p *Parser) parseLabelOrInstruction(name token.Token) ([]ast.Item, error) {
	nt := p.next()
	if nt.Kind == token.COLON {
		var out []ast.Item
		out = append(out, &ast.Label{Name: name.Lit, At: name.Pos})
		after := p.next()
		if after.Kind == token.NEWLINE || after.Kind == token.EOF {
			if after.Kind == token.EOF {
				p.unscan(after)
			}
			return out, nil
		}
		if after.Kind == token.IDENT && !strings.HasPrefix(after.Lit, ".") {
			rest, err := p.parseInstruction(after)
			if err != nil {
				return nil, err
			}
			out = append(out, rest)
			return out, nil
		}
		if after.Kind == token.IDENT {
			item, err := p.parseDirective(after)
			if err != nil {
				return nil, err
			}
			out = append(out, flatten(item)...)
			return out, nil
		}
		return nil, perr(after.Pos, "unexpected %s after label", after.Kind)
	}
	p.unscan(nt)
	item, err := p.parseInstruction(name)
	if err != nil {
		return nil, err
	}
	return []ast.Item{item}, nil
}

// parseInstruction parses "MNEMONIC [operand [, operand]*]".
func (p *Parser) parseInstruction(mnem token.Token) (ast.Item, error) {
	mnemonic := strings.ToUpper(mnem.Lit)
	var ops []ast.Operand

	t := p.next()
	if t.Kind == token.NEWLINE || t.Kind == token.EOF {
		if t.Kind == token.EOF {
			p.unscan(t)
		}
		return &ast.Instruction{Mnemonic: mnemonic, Operands: ops, At: mnem.Pos}, nil
	}
	p.unscan(t)

	for {
		op, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)

		t := p.next()
		if t.Kind == token.COMMA {
			continue
		}
		if t.Kind == token.NEWLINE || t.Kind == token.EOF {
			if t.Kind == token.EOF {
				p.unscan(t)
			}
			break
		}
		return nil, perr(t.Pos, "expected ',' or end of line in operand list, found %s", t.Kind)
	}
	return &ast.Instruction{Mnemonic: mnemonic, Operands: ops, At: mnem.Pos}, nil
}

// parseOperand recognises a register, register pair, indirect X/Y/Z
// form, or a bare expression.
func (p *Parser) parseOperand() (ast.Operand, error) {
	t := p.next()
	switch {
	case t.Kind == token.REGISTER:
		n, err := regNum(t.Lit)
		if err != nil {
			return ast.Operand{}, perr(t.Pos, "%v", err)
		}
		return ast.Operand{Kind: ast.OpRegister, Reg: n, At: t.Pos}, nil

	case t.Kind == token.REGPAIR:
		hi, lo, err := regPair(t.Lit)
		if err != nil {
			return ast.Operand{}, perr(t.Pos, "%v", err)
		}
		return ast.Operand{Kind: ast.OpRegisterPair, PairHi: hi, PairLo: lo, At: t.Pos}, nil

	case t.Kind == token.IDENT && isPointerReg(t.Lit):
		return p.parseIndirect(t, false)

	case t.Kind == token.MINUS:
		nt := p.next()
		if nt.Kind == token.IDENT && isPointerReg(nt.Lit) {
			return p.parseIndirect(nt, true)
		}
		p.unscan(nt)
		p.unscan(t)
		e, err := p.parseExpr()
		if err != nil {
			return ast.Operand{}, err
		}
		return ast.Operand{Kind: ast.OpExpr, Expr: e, At: e.Pos()}, nil

	default:
		p.unscan(t)
		e, err := p.parseExpr()
		if err != nil {
			return ast.Operand{}, err
		}
		return ast.Operand{Kind: ast.OpExpr, Expr: e, At: e.Pos()}, nil
	}
}

// isPointerReg reports whether s names a pointer register. Only the
// upper-case X, Y, Z are pointer registers; lower-case x, y, z are
// ordinary identifiers, matching the reserved names in symtab.
func isPointerReg(s string) bool {
	switch s {
	case "X", "Y", "Z":
		return true
	}
	return false
}

// parseIndirect parses X, X+, -X, Y, Y+, -Y, Y+q, Z, Z+, -Z, Z+q. X has no
// +q displacement form (AVR defines LDD/STD only for Y and Z); that
// combination is rejected here rather than left for the encoder to reject.
// The pre-decrement marker '-' has already been consumed by the caller
// when preDec is true; the pointer register token itself is reg.
func (p *Parser) parseIndirect(reg token.Token, preDec bool) (ast.Operand, error) {
	kind := map[string]ast.OperandKind{"X": ast.OpIndirectX, "Y": ast.OpIndirectY, "Z": ast.OpIndirectZ}[strings.ToUpper(reg.Lit)]
	op := ast.Operand{Kind: kind, At: reg.Pos}
	if preDec {
		op.PostOp = -1
		return op, nil
	}

	t := p.next()
	if t.Kind != token.PLUS {
		p.unscan(t)
		return op, nil
	}

	// "+" could be bare post-increment or the start of a "+q" displacement.
	nt := p.next()
	if nt.Kind == token.COMMA || nt.Kind == token.NEWLINE || nt.Kind == token.EOF {
		p.unscan(nt)
		op.PostOp = 1
		return op, nil
	}
	p.unscan(nt)
	disp, err := p.parseExpr()
	if err != nil {
		return ast.Operand{}, fmt.Errorf("%s: bad displacement: %w", reg.Pos, err)
	}
	if kind == ast.OpIndirectX {
		return ast.Operand{}, fmt.Errorf("%s: X has no displaced addressing mode (only Y+q, Z+q)", reg.Pos)
	}
	op.Disp = disp
	return op, nil
}

func regNum(lit string) (uint8, error) {
	n, err := strconv.Atoi(lit[1:])
	if err != nil || n < 0 || n > 31 {
		return 0, fmt.Errorf("invalid register %q", lit)
	}
	return uint8(n), nil
}

func regPair(lit string) (hi, lo uint8, err error) {
	parts := strings.SplitN(lit, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed register pair %q", lit)
	}
	a, err1 := regNum(parts[0])
	b, err2 := regNum(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, fmt.Errorf("malformed register pair %q", lit)
	}
	return a, b, nil
}
