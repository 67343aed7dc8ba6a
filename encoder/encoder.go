package encoder

import (
	"fmt"

	"github.com/raek/rasm/ast"
	"github.com/raek/rasm/token"
)

// encodeFunc produces the 2 or 4 byte encoding of one instruction. pc is
// the byte address the instruction is laid out at (needed for PC-relative
// displacement arithmetic); env resolves every operand expression.
type encodeFunc func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error)

// table is the mnemonic dispatch table (spec.md §4.5): one entry per
// mnemonic, each owning its operand-signature validation and bit packing.
// Individual categories register their entries from init() functions in
// sibling files so this file stays a thin dispatcher.
var table = make(map[string]encodeFunc)

func register(mnemonic string, fn encodeFunc) {
	if _, dup := table[mnemonic]; dup {
		panic("encoder: duplicate mnemonic registration: " + mnemonic)
	}
	table[mnemonic] = fn
}

// Encode dispatches ins to its mnemonic's encode function.
func Encode(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
	fn, ok := table[ins.Mnemonic]
	if !ok {
		return nil, fmt.Errorf("%s: unknown mnemonic %q", ins.At, ins.Mnemonic)
	}
	return fn(ins, pc, env)
}

// word16 packs a word into its little-endian byte pair (spec.md §4.5:
// "byte N = low 8 bits of word N, byte N+1 = high 8").
func word16(w uint16) []byte {
	return []byte{byte(w), byte(w >> 8)}
}

func arity(ins *ast.Instruction, n int) error {
	if len(ins.Operands) != n {
		return fmt.Errorf("%s: %s expects %d operand(s), got %d", ins.At, ins.Mnemonic, n, len(ins.Operands))
	}
	return nil
}

func reg(ins *ast.Instruction, i int) (uint8, error) {
	op := ins.Operands[i]
	if op.Kind != ast.OpRegister {
		return 0, fmt.Errorf("%s: operand %d of %s must be a register", op.At, i+1, ins.Mnemonic)
	}
	return op.Reg, nil
}

func regRange(ins *ast.Instruction, i int, lo, hi uint8) (uint8, error) {
	r, err := reg(ins, i)
	if err != nil {
		return 0, err
	}
	if r < lo || r > hi {
		return 0, fmt.Errorf("%s: operand %d of %s out of range: must be r%d..r%d, got r%d", ins.Operands[i].At, i+1, ins.Mnemonic, lo, hi, r)
	}
	return r, nil
}

func regEven(ins *ast.Instruction, i int) (uint8, error) {
	r, err := reg(ins, i)
	if err != nil {
		return 0, err
	}
	if r%2 != 0 {
		return 0, fmt.Errorf("%s: operand %d of %s must be an even register, got r%d", ins.Operands[i].At, i+1, ins.Mnemonic, r)
	}
	return r, nil
}

func evalOperand(ins *ast.Instruction, i int, env ast.Env) (int64, token.Pos, error) {
	op := ins.Operands[i]
	if op.Kind != ast.OpExpr {
		return 0, op.At, fmt.Errorf("%s: operand %d of %s must be an expression", op.At, i+1, ins.Mnemonic)
	}
	v, err := op.Expr.Eval(env)
	if err != nil {
		return 0, op.At, err
	}
	return v, op.At, nil
}

func evalBit(op ast.Operand, env ast.Env, mnemonic string) (int64, error) {
	e := op.Expr
	if e == nil {
		return 0, fmt.Errorf("%s: missing bit operand for %s", op.At, mnemonic)
	}
	return e.Eval(env)
}

func checkRange(v, lo, hi int64, at token.Pos, what string) error {
	if v < lo || v > hi {
		return fmt.Errorf("%s: %s %d out of range %d..%d", at, what, v, lo, hi)
	}
	return nil
}

// pairIndex validates that r is the low register of an even/odd register
// pair and returns r (spec.md §4.5: "register-pair operands decompose as
// lo = 2*N, hi = 2*N+1").
func pairIndex(ins *ast.Instruction, i int) (uint8, error) {
	return regEven(ins, i)
}
