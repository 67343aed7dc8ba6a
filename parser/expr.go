package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/raek/rasm/ast"
	"github.com/raek/rasm/token"
)

// Grammar (spec.md §3, §9):
//
//	expr   := addExpr
//	addExpr:= mulExpr (('+'|'-'|'|'|'^') mulExpr)*
//	mulExpr:= unary (('*'|'/'|'%'|'&'|'<<'|'>>') unary)*
//	unary  := ('-'|'~'|'!'|'lo8'|'hi8') unary | atom
//	atom   := IDENT | NUMBER | REGPAIR | '(' expr ')'

func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseAdd()
}

func (p *Parser) parseAdd() (ast.Expr, error) {
	x, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for {
		t := p.next()
		var op ast.BinOp
		switch t.Kind {
		case token.PLUS:
			op = ast.BAdd
		case token.MINUS:
			op = ast.BSub
		case token.PIPE:
			op = ast.BOr
		case token.CARET:
			op = ast.BXor
		default:
			p.unscan(t)
			return x, nil
		}
		y, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		x = &ast.Binary{X: x, Y: y, Op: op, At: t.Pos}
	}
}

func (p *Parser) parseMul() (ast.Expr, error) {
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.next()
		var op ast.BinOp
		switch t.Kind {
		case token.STAR:
			op = ast.BMul
		case token.SLASH:
			op = ast.BDiv
		case token.PERCENT:
			op = ast.BMod
		case token.AMP:
			op = ast.BAnd
		case token.SHL:
			op = ast.BShl
		case token.SHR:
			op = ast.BShr
		default:
			p.unscan(t)
			return x, nil
		}
		y, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		x = &ast.Binary{X: x, Y: y, Op: op, At: t.Pos}
	}
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	t := p.next()
	switch t.Kind {
	case token.MINUS:
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{X: x, Op: ast.UNeg, At: t.Pos}, nil
	case token.TILDE:
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{X: x, Op: ast.UNot, At: t.Pos}, nil
	case token.BANG:
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{X: x, Op: ast.ULogicalNot, At: t.Pos}, nil
	case token.IDENT:
		lower := strings.ToLower(t.Lit)
		if lower == "lo8" || lower == "hi8" {
			if lp := p.next(); lp.Kind == token.LPAREN {
				x, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				if rp := p.next(); rp.Kind != token.RPAREN {
					return nil, perr(rp.Pos, "expected ')' to close %s(...)", lower)
				}
				op := ast.ULo8
				if lower == "hi8" {
					op = ast.UHi8
				}
				return &ast.Unary{X: x, Op: op, At: t.Pos}, nil
			} else {
				p.unscan(lp)
			}
		}
	}
	p.unscan(t)
	return p.parseAtom()
}

func (p *Parser) parseAtom() (ast.Expr, error) {
	t := p.next()
	switch t.Kind {
	case token.NUMBER:
		v, err := parseNumber(t.Lit)
		if err != nil {
			return nil, perr(t.Pos, "%v", err)
		}
		return &ast.Const{Value: v, At: t.Pos}, nil
	case token.IDENT:
		return &ast.Ident{Name: t.Lit, At: t.Pos}, nil
	case token.REGPAIR:
		hi, lo, err := regPair(t.Lit)
		if err != nil {
			return nil, perr(t.Pos, "%v", err)
		}
		return &ast.RegPair{Hi: hi, Lo: lo, At: t.Pos}, nil
	case token.LPAREN:
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		rp := p.next()
		if rp.Kind != token.RPAREN {
			return nil, perr(rp.Pos, "expected ')', found %s", rp.Kind)
		}
		return x, nil
	}
	return nil, perr(t.Pos, "expected expression, found %s", t.Kind)
}

// parseNumber parses the literal forms spec.md §4.1 describes: decimal,
// 0x/$ hex (already normalised to 0x by the lexer), 0b binary, and
// leading-zero octal.
func parseNumber(lit string) (int64, error) {
	if strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X") {
		v, err := strconv.ParseInt(lit[2:], 16, 64)
		return v, err
	}
	if strings.HasPrefix(lit, "0b") || strings.HasPrefix(lit, "0B") {
		v, err := strconv.ParseInt(lit[2:], 2, 64)
		return v, err
	}
	if len(lit) > 1 && lit[0] == '0' {
		v, err := strconv.ParseInt(lit, 8, 64)
		return v, err
	}
	v, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed integer literal %q", lit)
	}
	return v, nil
}
