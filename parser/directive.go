package parser

import (
	"strings"

	"github.com/raek/rasm/ast"
	"github.com/raek/rasm/token"
)

// parseDirective dispatches on the already-scanned directive token (its
// literal carries the leading '.', e.g. ".equ"). It returns a nil item for
// ".section", which produces no ast.Item; ".rept" returns a *reptGroup
// that the caller flattens into its item list.
func (p *Parser) parseDirective(dot token.Token) (ast.Item, error) {
	name := strings.ToLower(dot.Lit)
	switch name {
	case ".equ":
		return p.parseSymbolDirective(dot, ast.SymEqu)
	case ".default":
		return p.parseSymbolDirective(dot, ast.SymDefault)
	case ".section":
		t := p.next()
		if t.Kind != token.IDENT {
			return nil, perr(t.Pos, "expected section name after .section, found %s", t.Kind)
		}
		if err := p.expectLineEnd(); err != nil {
			return nil, err
		}
		// Sections are accepted and ignored: rasm emits one flat image
		// (spec.md §1 Non-goals).
		return nil, nil
	case ".global":
		t := p.next()
		if t.Kind != token.IDENT {
			return nil, perr(t.Pos, "expected name after .global, found %s", t.Kind)
		}
		if err := p.expectLineEnd(); err != nil {
			return nil, err
		}
		return &ast.DataDirective{Kind: ast.DataGlobal, Name: t.Lit, At: dot.Pos}, nil
	case ".byte":
		vals, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		return &ast.DataDirective{Kind: ast.DataByte, Values: vals, At: dot.Pos}, nil
	case ".word":
		vals, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		return &ast.DataDirective{Kind: ast.DataWord, Values: vals, At: dot.Pos}, nil
	case ".align":
		t := p.next()
		if t.Kind != token.NUMBER {
			return nil, perr(t.Pos, "expected integer literal after .align, found %s", t.Kind)
		}
		n, err := parseNumber(t.Lit)
		if err != nil {
			return nil, perr(t.Pos, "%v", err)
		}
		if err := p.expectLineEnd(); err != nil {
			return nil, err
		}
		return &ast.DataDirective{Kind: ast.DataAlign, N: n, At: dot.Pos}, nil
	case ".rept":
		return p.parseRept(dot)
	case ".endr":
		return nil, perr(dot.Pos, ".endr without a matching .rept")
	default:
		return nil, perr(dot.Pos, "unknown directive %q", dot.Lit)
	}
}

// parseSymbolDirective handles ".equ NAME = EXPR" and ".default NAME = EXPR".
func (p *Parser) parseSymbolDirective(dot token.Token, kind ast.SymbolKind) (ast.Item, error) {
	nt := p.next()
	if nt.Kind != token.IDENT {
		return nil, perr(nt.Pos, "expected name after %s, found %s", dot.Lit, nt.Kind)
	}
	eq := p.next()
	if eq.Kind != token.EQUALS {
		return nil, perr(eq.Pos, "expected '=' after %s %s, found %s", dot.Lit, nt.Lit, eq.Kind)
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectLineEnd(); err != nil {
		return nil, err
	}
	return &ast.SymbolDirective{Kind: kind, Name: nt.Lit, Expr: e, At: dot.Pos}, nil
}

// parseExprList parses a comma-separated list of expressions terminated by
// end of line, used by .byte/.word.
func (p *Parser) parseExprList() ([]ast.Expr, error) {
	var out []ast.Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		t := p.next()
		if t.Kind == token.COMMA {
			continue
		}
		if t.Kind == token.NEWLINE || t.Kind == token.EOF {
			if t.Kind == token.EOF {
				p.unscan(t)
			}
			return out, nil
		}
		return nil, perr(t.Pos, "expected ',' or end of line, found %s", t.Kind)
	}
}

// expectLineEnd consumes a NEWLINE or EOF, failing on anything else.
func (p *Parser) expectLineEnd() error {
	t := p.next()
	if t.Kind == token.EOF {
		p.unscan(t)
		return nil
	}
	if t.Kind != token.NEWLINE {
		return perr(t.Pos, "expected end of line, found %s", t.Kind)
	}
	return nil
}

// parseRept expands ".rept N ... .endr" at parse time by duplicating the
// enclosed items N times (spec.md §4.2, §9 Design Notes). N must be an
// integer literal; labels inside the body are rejected since the corpus
// only uses .rept for repeated instructions/.byte (spec.md §9).
func (p *Parser) parseRept(dot token.Token) (ast.Item, error) {
	nt := p.next()
	if nt.Kind != token.NUMBER {
		return nil, perr(nt.Pos, "expected integer literal after .rept, found %s", nt.Kind)
	}
	n, err := parseNumber(nt.Lit)
	if err != nil {
		return nil, perr(nt.Pos, "%v", err)
	}
	if n < 0 {
		return nil, perr(nt.Pos, ".rept count must not be negative")
	}
	if err := p.expectLineEnd(); err != nil {
		return nil, err
	}

	var body []ast.Item
	for {
		t := p.next()
		switch {
		case t.Kind == token.EOF:
			return nil, perr(dot.Pos, ".rept without matching .endr")
		case t.Kind == token.NEWLINE:
			continue
		case t.Kind == token.IDENT && strings.ToLower(t.Lit) == ".endr":
			if err := p.expectLineEnd(); err != nil {
				return nil, err
			}
			return &reptGroup{items: repeatItems(body, int(n))}, nil
		case t.Kind == token.IDENT && strings.HasPrefix(t.Lit, "."):
			item, err := p.parseDirective(t)
			if err != nil {
				return nil, err
			}
			body = append(body, flatten(item)...)
		case t.Kind == token.IDENT:
			items, err := p.parseLabelOrInstruction(t)
			if err != nil {
				return nil, err
			}
			for _, it := range items {
				if _, ok := it.(*ast.Label); ok {
					return nil, perr(it.Pos(), ".rept bodies must not contain labels")
				}
			}
			body = append(body, items...)
		default:
			return nil, perr(t.Pos, "unexpected %s inside .rept", t.Kind)
		}
	}
}

func repeatItems(body []ast.Item, n int) []ast.Item {
	out := make([]ast.Item, 0, len(body)*n)
	for i := 0; i < n; i++ {
		out = append(out, body...)
	}
	return out
}

// reptGroup is a transient marker produced by parseRept; its caller (Parse,
// parseLabelOrInstruction, or an enclosing parseRept) flattens it into the
// enclosing item list immediately (it is never seen downstream).
type reptGroup struct {
	items []ast.Item
}

func (r *reptGroup) Pos() token.Pos {
	if len(r.items) == 0 {
		return token.Pos{}
	}
	return r.items[0].Pos()
}
