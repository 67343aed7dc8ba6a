// Package layout implements the single left-to-right cursor pass over the
// parsed-item list (spec.md §4.4): it sizes every Instruction from the
// encoder's mnemonic table, advances past .byte/.word/.align reservations,
// and installs every Label's address into the symbol environment as a
// Strong binding before the encoder runs.
package layout

import (
	"fmt"

	"github.com/raek/rasm/ast"
	"github.com/raek/rasm/encoder"
	"github.com/raek/rasm/symtab"
)

// Result is the outcome of a layout pass: the number of bytes laid out
// (the final cursor minus base, i.e. the body length without any
// vector-table prefix) and, per-instruction, the byte address it was
// placed at.
type Result struct {
	Length    int64
	Addresses map[*ast.Instruction]int64
}

// Run walks items in order, sizing each one and installing label addresses
// into env. base is the starting byte address (0 for a build with no
// vector table, or the vector table's length when one is prefixed).
func Run(items []ast.Item, env *symtab.Env, base int64) (*Result, error) {
	cursor := base
	addrs := make(map[*ast.Instruction]int64)

	for _, it := range items {
		switch v := it.(type) {
		case *ast.Label:
			if err := env.DefineLabel(v.Name, cursor, v.At); err != nil {
				return nil, err
			}

		case *ast.Instruction:
			n, ok := encoder.Length(v.Mnemonic)
			if !ok {
				return nil, fmt.Errorf("%s: unknown mnemonic %q", v.At, v.Mnemonic)
			}
			addrs[v] = cursor
			cursor += int64(n)

		case *ast.DataDirective:
			switch v.Kind {
			case ast.DataByte:
				cursor += int64(len(v.Values))
			case ast.DataWord:
				cursor += int64(len(v.Values)) * 2
			case ast.DataAlign:
				if v.N <= 0 {
					return nil, fmt.Errorf("%s: .align operand must be positive, got %d", v.At, v.N)
				}
				if rem := cursor % v.N; rem != 0 {
					cursor += v.N - rem
				}
			case ast.DataGlobal:
				// No cursor effect; recorded for completeness only.
			}

		case *ast.SymbolDirective:
			// Symbol directives are applied to env by the caller before
			// layout runs (spec.md §4.3 step 2); nothing to do here.

		default:
			return nil, fmt.Errorf("layout: unhandled item type %T", it)
		}
	}

	return &Result{Length: cursor - base, Addresses: addrs}, nil
}
