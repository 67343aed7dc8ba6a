package encoder

import (
	"fmt"

	"github.com/raek/rasm/ast"
)

// rdRrWord packs the common "0bbbbb rd dddd rrrr" two-register form shared
// by ADD, ADC, SUB, SBC, AND, OR, EOR, MOV, CP, CPC, CPSE, and MUL.
func rdRrWord(base uint16, d, r uint8) uint16 {
	w := base
	w |= uint16(d&0x1F) << 4
	w |= uint16(r&0x10) << 5
	w |= uint16(r & 0x0F)
	return w
}

func rdRrEntry(base uint16) encodeFunc {
	return func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 2); err != nil {
			return nil, err
		}
		d, err := reg(ins, 0)
		if err != nil {
			return nil, err
		}
		r, err := reg(ins, 1)
		if err != nil {
			return nil, err
		}
		return word16(rdRrWord(base, d, r)), nil
	}
}

// rdImmWord packs the "ooo KKKK dddd KKKK" Rd(16..31),K8 form shared by
// SUBI, SBCI, ANDI, ORI, CPI, and LDI.
func rdImmWord(base uint16, d4 uint8, k uint8) uint16 {
	w := base
	w |= uint16(k&0xF0) << 4
	w |= uint16(d4&0x0F) << 4
	w |= uint16(k & 0x0F)
	return w
}

func rdImmEntry(base uint16) encodeFunc {
	return func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 2); err != nil {
			return nil, err
		}
		d, err := regRange(ins, 0, 16, 31)
		if err != nil {
			return nil, err
		}
		k, at, err := evalOperand(ins, 1, env)
		if err != nil {
			return nil, err
		}
		if err := checkRange(k, 0, 255, at, "immediate"); err != nil {
			return nil, err
		}
		return word16(rdImmWord(base, d-16, uint8(k))), nil
	}
}

func init() {
	register("ADD", rdRrEntry(0x0C00))
	register("ADC", rdRrEntry(0x1C00))
	register("SUB", rdRrEntry(0x1800))
	register("SBC", rdRrEntry(0x0800))
	register("AND", rdRrEntry(0x2000))
	register("OR", rdRrEntry(0x2800))
	register("EOR", rdRrEntry(0x2400))
	register("MOV", rdRrEntry(0x2C00))
	register("CP", rdRrEntry(0x1400))
	register("CPC", rdRrEntry(0x0400))
	register("CPSE", rdRrEntry(0x1000))
	register("MUL", rdRrEntry(0x9C00))

	register("SUBI", rdImmEntry(0x5000))
	register("SBCI", rdImmEntry(0x4000))
	register("ANDI", rdImmEntry(0x7000))
	register("ORI", rdImmEntry(0x6000))
	register("SBR", rdImmEntry(0x6000))
	register("CPI", rdImmEntry(0x3000))
	register("LDI", rdImmEntry(0xE000))

	register("CBR", func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 2); err != nil {
			return nil, err
		}
		d, err := regRange(ins, 0, 16, 31)
		if err != nil {
			return nil, err
		}
		k, at, err := evalOperand(ins, 1, env)
		if err != nil {
			return nil, err
		}
		if err := checkRange(k, 0, 255, at, "immediate"); err != nil {
			return nil, err
		}
		return word16(rdImmWord(0x7000, d-16, uint8(0xFF&^uint8(k)))), nil
	})

	register("ADIW", adiwSbiwEntry(0x9600))
	register("SBIW", adiwSbiwEntry(0x9700))

	register("COM", rdOnlyEntry(0x9400))
	register("NEG", rdOnlyEntry(0x9401))
	register("SWAP", rdOnlyEntry(0x9402))
	register("INC", rdOnlyEntry(0x9403))
	register("ASR", rdOnlyEntry(0x9405))
	register("LSR", rdOnlyEntry(0x9406))
	register("ROR", rdOnlyEntry(0x9407))
	register("DEC", rdOnlyEntry(0x940A))

	register("MULS", func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 2); err != nil {
			return nil, err
		}
		d, err := regRange(ins, 0, 16, 31)
		if err != nil {
			return nil, err
		}
		r, err := regRange(ins, 1, 16, 31)
		if err != nil {
			return nil, err
		}
		w := uint16(0x0200) | uint16(d-16)<<4 | uint16(r-16)
		return word16(w), nil
	})

	register("MULSU", narrowMulEntry(0x0300))
	register("FMUL", narrowMulEntry(0x0308))
	register("FMULS", narrowMulEntry(0x0380))
	register("FMULSU", narrowMulEntry(0x0388))

	register("MOVW", func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 2); err != nil {
			return nil, err
		}
		d, r, err := movwPair(ins, env)
		if err != nil {
			return nil, err
		}
		w := uint16(0x0100) | uint16(d/2)<<4 | uint16(r/2)
		return word16(w), nil
	})

	register("LSL", func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 1); err != nil {
			return nil, err
		}
		d, err := reg(ins, 0)
		if err != nil {
			return nil, err
		}
		return word16(rdRrWord(0x0C00, d, d)), nil
	})
	register("ROL", func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 1); err != nil {
			return nil, err
		}
		d, err := reg(ins, 0)
		if err != nil {
			return nil, err
		}
		return word16(rdRrWord(0x1C00, d, d)), nil
	})
}

func adiwSbiwEntry(base uint16) encodeFunc {
	return func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 2); err != nil {
			return nil, err
		}
		d, err := reg(ins, 0)
		if err != nil {
			return nil, err
		}
		code, err := adiwPairCode(d)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", ins.Operands[0].At, err)
		}
		k, at, err := evalOperand(ins, 1, env)
		if err != nil {
			return nil, err
		}
		if err := checkRange(k, 0, 63, at, "immediate"); err != nil {
			return nil, err
		}
		w := base | uint16(k&0x30)<<2 | uint16(code)<<4 | uint16(k&0x0F)
		return word16(w), nil
	}
}

func adiwPairCode(r uint8) (uint8, error) {
	switch r {
	case 24:
		return 0, nil
	case 26:
		return 1, nil
	case 28:
		return 2, nil
	case 30:
		return 3, nil
	}
	return 0, fmt.Errorf("register must be one of r24, r26, r28, r30, got r%d", r)
}

func rdOnlyEntry(base uint16) encodeFunc {
	return func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 1); err != nil {
			return nil, err
		}
		d, err := reg(ins, 0)
		if err != nil {
			return nil, err
		}
		return word16(base | uint16(d&0x1F)<<4), nil
	}
}

func narrowMulEntry(base uint16) encodeFunc {
	return func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 2); err != nil {
			return nil, err
		}
		d, err := regRange(ins, 0, 16, 23)
		if err != nil {
			return nil, err
		}
		r, err := regRange(ins, 1, 16, 23)
		if err != nil {
			return nil, err
		}
		w := base | uint16(d-16)<<4 | uint16(r-16)
		return word16(w), nil
	}
}

// movwPair validates a MOVW operand pair, accepting either a literal
// register pair ("r25:r24", lexed directly as OpRegisterPair) or an
// expression operand naming a symbol .equ-bound to a register pair
// literal (spec.md §8 scenario 4: ".equ dstpair = r1:r0").
func movwPair(ins *ast.Instruction, env ast.Env) (dst, src uint8, err error) {
	d, err := pairOperandLow(ins.Operands[0], env)
	if err != nil {
		return 0, 0, err
	}
	s, err := pairOperandLow(ins.Operands[1], env)
	if err != nil {
		return 0, 0, err
	}
	return d, s, nil
}

// pairOperandLow resolves op to its low register number, accepting
// either an OpRegisterPair operand directly or an OpExpr operand whose
// value unpacks (per ast.RegPair.Eval) into a hi/lo pair.
func pairOperandLow(op ast.Operand, env ast.Env) (uint8, error) {
	hi, lo := op.PairHi, op.PairLo
	switch op.Kind {
	case ast.OpRegisterPair:
		// hi, lo already set above.
	case ast.OpExpr:
		v, err := op.Expr.Eval(env)
		if err != nil {
			return 0, err
		}
		lo = uint8(v & 0xFF)
		hi = uint8((v >> 8) & 0xFF)
	default:
		return 0, fmt.Errorf("%s: MOVW operand must be a register pair (e.g. r25:r24)", op.At)
	}
	if lo%2 != 0 {
		return 0, fmt.Errorf("%s: MOVW register pair must start on an even register, got r%d", op.At, lo)
	}
	if hi != lo+1 {
		return 0, fmt.Errorf("%s: MOVW register pair must be Rd+1:Rd, got r%d:r%d", op.At, hi, lo)
	}
	return lo, nil
}
