package parser

import (
	"fmt"

	"github.com/raek/rasm/ast"
)

// resolveLocalLabels implements the backward/forward local-label fixup
// (spec.md §3, §9 Design Notes): a numeric-suffixed label ("1:", "2:")
// may be defined more than once; "1b"/"2f" resolve to the nearest
// preceding/following definition of that digit relative to the
// reference. It rewrites every *ast.LocalLabel into an ordinary *ast.Label
// with a synthesized unique name and patches matching *ast.Ident nodes
// in place to point at it.
func resolveLocalLabels(items []ast.Item) ([]ast.Item, error) {
	type def struct {
		name string
		idx  int
	}
	defsByNum := make(map[string][]def)
	out := make([]ast.Item, len(items))
	counter := 0
	for i, it := range items {
		ll, ok := it.(*ast.LocalLabel)
		if !ok {
			out[i] = it
			continue
		}
		counter++
		unique := fmt.Sprintf(".L%s$%d", ll.Num, counter)
		defsByNum[ll.Num] = append(defsByNum[ll.Num], def{name: unique, idx: i})
		out[i] = &ast.Label{Name: unique, At: ll.At}
	}

	for i, it := range out {
		err := walkExprs(it, func(e ast.Expr) error {
			id, ok := e.(*ast.Ident)
			if !ok {
				return nil
			}
			num, dir, ok := splitLocalRef(id.Name)
			if !ok {
				return nil
			}
			ds := defsByNum[num]
			var target string
			found := false
			if dir == 'b' {
				for j := len(ds) - 1; j >= 0; j-- {
					if ds[j].idx <= i {
						target = ds[j].name
						found = true
						break
					}
				}
			} else {
				for _, d := range ds {
					if d.idx >= i {
						target = d.name
						found = true
						break
					}
				}
			}
			if !found {
				return fmt.Errorf("%s: no matching local label %q", id.At, id.Name)
			}
			id.Name = target
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// splitLocalRef recognises identifiers of the form "<digits>b" or
// "<digits>f" (case-insensitive) produced by the lexer for local-label
// references, e.g. "1b", "2f".
func splitLocalRef(name string) (num string, dir byte, ok bool) {
	if len(name) < 2 {
		return "", 0, false
	}
	last := name[len(name)-1]
	if last != 'b' && last != 'f' && last != 'B' && last != 'F' {
		return "", 0, false
	}
	digits := name[:len(name)-1]
	if digits == "" {
		return "", 0, false
	}
	for _, ch := range digits {
		if ch < '0' || ch > '9' {
			return "", 0, false
		}
	}
	if last == 'B' {
		last = 'b'
	}
	if last == 'F' {
		last = 'f'
	}
	return digits, last, true
}

// walkExpr visits e and every sub-expression reachable from it.
func walkExpr(e ast.Expr, fn func(ast.Expr) error) error {
	if e == nil {
		return nil
	}
	if err := fn(e); err != nil {
		return err
	}
	switch x := e.(type) {
	case *ast.Unary:
		return walkExpr(x.X, fn)
	case *ast.Binary:
		if err := walkExpr(x.X, fn); err != nil {
			return err
		}
		return walkExpr(x.Y, fn)
	}
	return nil
}

// walkExprs visits every expression tree embedded in item.
func walkExprs(item ast.Item, fn func(ast.Expr) error) error {
	switch it := item.(type) {
	case *ast.Instruction:
		for i := range it.Operands {
			op := &it.Operands[i]
			if err := walkExpr(op.Expr, fn); err != nil {
				return err
			}
			if err := walkExpr(op.Bit, fn); err != nil {
				return err
			}
			if err := walkExpr(op.Disp, fn); err != nil {
				return err
			}
		}
	case *ast.DataDirective:
		for _, v := range it.Values {
			if err := walkExpr(v, fn); err != nil {
				return err
			}
		}
	case *ast.SymbolDirective:
		return walkExpr(it.Expr, fn)
	}
	return nil
}
