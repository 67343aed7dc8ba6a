// Package assembler orchestrates the lexer, parser, symbol environment,
// layout pass, encoder, and image assembler into the single entry point
// external callers use (spec.md §4.7; mirrors the teacher's
// IE64Assembler.Assemble two-pass orchestration).
package assembler

import (
	"fmt"
	"io"
	"strings"

	"github.com/raek/rasm/ast"
	"github.com/raek/rasm/encoder"
	"github.com/raek/rasm/image"
	"github.com/raek/rasm/layout"
	"github.com/raek/rasm/parser"
	"github.com/raek/rasm/symtab"
)

// Options configures a single Assemble call.
type Options struct {
	// Vectors selects the vector table prefixed to the output. Nil means
	// --no-vectors: the output is the .text body alone.
	Vectors *image.VectorTable
}

// Assemble reads one source file from r (file is used only to attribute
// diagnostics) and returns the flat binary image, or a *Diagnostic on
// failure. No partial output is ever returned alongside an error
// (spec.md §7: "there is no partial output on error").
func Assemble(file string, r io.Reader, opts Options) ([]byte, error) {
	items, err := parser.New(file, r).Parse()
	if err != nil {
		return nil, diag(ParseError, err)
	}

	env := symtab.New()
	if err := applySymbolDirectives(items, env); err != nil {
		return nil, diag(SymbolError, err)
	}

	base := int64(0)
	if opts.Vectors != nil {
		base = int64(opts.Vectors.Count) * 2
	}

	lay, err := layout.Run(items, env, base)
	if err != nil {
		return nil, diag(classifyLayout(err), err)
	}

	body, err := emit(items, lay, env, base)
	if err != nil {
		return nil, diag(classifyEncode(err), err)
	}

	return image.Build(opts.Vectors, env, body), nil
}

// applySymbolDirectives installs every .equ/.default binding into env in
// source order, before layout runs (spec.md §4.3 step 2).
func applySymbolDirectives(items []ast.Item, env *symtab.Env) error {
	for _, it := range items {
		s, ok := it.(*ast.SymbolDirective)
		if !ok {
			continue
		}
		switch s.Kind {
		case ast.SymEqu:
			if err := env.DefineEqu(s.Name, s.Expr, s.At); err != nil {
				return err
			}
		case ast.SymDefault:
			if err := env.DefineDefault(s.Name, s.Expr, s.At); err != nil {
				return err
			}
		}
	}
	return nil
}

// emit walks items a second time, now with every label address installed
// in env, producing the final .text byte sequence. The cursor arithmetic
// mirrors layout.Run exactly; since layout already validated every
// directive operand, this walk cannot diverge from it.
func emit(items []ast.Item, lay *layout.Result, env *symtab.Env, base int64) ([]byte, error) {
	cursor := base
	out := make([]byte, 0, lay.Length)

	for _, it := range items {
		switch v := it.(type) {
		case *ast.Label:
			// Addresses were already installed during layout.

		case *ast.Instruction:
			pc, ok := lay.Addresses[v]
			if !ok {
				return nil, fmt.Errorf("%s: internal error: %s has no laid-out address", v.At, v.Mnemonic)
			}
			bytes, err := encoder.Encode(v, pc, env)
			if err != nil {
				return nil, err
			}
			out = append(out, bytes...)
			cursor += int64(len(bytes))

		case *ast.DataDirective:
			switch v.Kind {
			case ast.DataByte:
				for _, e := range v.Values {
					val, err := e.Eval(env)
					if err != nil {
						return nil, err
					}
					out = append(out, byte(val))
				}
				cursor += int64(len(v.Values))

			case ast.DataWord:
				for _, e := range v.Values {
					val, err := e.Eval(env)
					if err != nil {
						return nil, err
					}
					out = append(out, byte(val), byte(val>>8))
				}
				cursor += int64(len(v.Values)) * 2

			case ast.DataAlign:
				if rem := cursor % v.N; rem != 0 {
					pad := v.N - rem
					out = append(out, make([]byte, pad)...)
					cursor += pad
				}

			case ast.DataGlobal:
				// No bytes emitted.
			}

		case *ast.SymbolDirective:
			// Already applied before layout.

		default:
			return nil, fmt.Errorf("assembler: unhandled item type %T", it)
		}
	}

	return out, nil
}

// classifyLayout assigns a Kind to an error surfaced by layout.Run: label
// collisions are symbol errors, everything else (bad .align operand,
// unknown mnemonic) is a directive or encode concern respectively.
func classifyLayout(err error) Kind {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "strong binding"):
		return SymbolError
	case strings.Contains(msg, "unknown mnemonic"):
		return EncodeError
	default:
		return DirectiveError
	}
}

// classifyEncode assigns a Kind to an error surfaced during the encode
// walk: undefined/cyclic symbol lookups are symbol errors, out-of-range
// values and registers outside a mnemonic's allowed range are range
// errors, everything else (bad operand signature,
// wrong addressing mode) is an encode error.
func classifyEncode(err error) Kind {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "undefined name"), strings.Contains(msg, "cyclic definition"):
		return SymbolError
	case strings.Contains(msg, "out of range"):
		return RangeError
	default:
		return EncodeError
	}
}
