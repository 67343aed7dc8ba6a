package encoder

import (
	"fmt"

	"github.com/raek/rasm/ast"
)

// ptrLoadEntry builds LD Rd,<ptr>[+|-] for X, Y, or Z. plainBase is the
// "LD Rd,PTR" encoding (also the q=0 LDD form for Y/Z); incBase/decBase
// are the post-increment/pre-decrement encodings. For X, incBase/decBase
// are the only valid non-displacement forms (plainBase is also used for
// bare "X").
func ptrLoadEntry(kind ast.OperandKind, plainBase, incBase, decBase uint16) encodeFunc {
	return func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 2); err != nil {
			return nil, err
		}
		d, err := reg(ins, 0)
		if err != nil {
			return nil, err
		}
		op := ins.Operands[1]
		if op.Kind != kind {
			return nil, fmt.Errorf("%s: bad addressing mode for %s", op.At, ins.Mnemonic)
		}
		if kind == ast.OpIndirectX && op.Disp != nil {
			return nil, fmt.Errorf("%s: X has no displaced addressing mode (only Y+q, Z+q)", op.At)
		}
		switch {
		case op.PostOp == -1:
			return word16(decBase | uint16(d&0x1F)<<4), nil
		case op.PostOp == 1:
			return word16(incBase | uint16(d&0x1F)<<4), nil
		case op.Disp != nil:
			q, err := op.Disp.Eval(env)
			if err != nil {
				return nil, err
			}
			if err := checkRange(q, 0, 63, op.At, "displacement"); err != nil {
				return nil, err
			}
			return word16(qDisplaced(plainBase, d, uint8(q))), nil
		default:
			return word16(plainBase | uint16(d&0x1F)<<4), nil
		}
	}
}

func ptrStoreEntry(kind ast.OperandKind, plainBase, incBase, decBase uint16) encodeFunc {
	return func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 2); err != nil {
			return nil, err
		}
		op := ins.Operands[0]
		if op.Kind != kind {
			return nil, fmt.Errorf("%s: bad addressing mode for %s", op.At, ins.Mnemonic)
		}
		r, err := reg(ins, 1)
		if err != nil {
			return nil, err
		}
		if kind == ast.OpIndirectX && op.Disp != nil {
			return nil, fmt.Errorf("%s: X has no displaced addressing mode (only Y+q, Z+q)", op.At)
		}
		switch {
		case op.PostOp == -1:
			return word16(decBase | uint16(r&0x1F)<<4), nil
		case op.PostOp == 1:
			return word16(incBase | uint16(r&0x1F)<<4), nil
		case op.Disp != nil:
			q, err := op.Disp.Eval(env)
			if err != nil {
				return nil, err
			}
			if err := checkRange(q, 0, 63, op.At, "displacement"); err != nil {
				return nil, err
			}
			return word16(qDisplaced(plainBase, r, uint8(q))), nil
		default:
			return word16(plainBase | uint16(r&0x1F)<<4), nil
		}
	}
}

// qDisplaced packs the 6-bit q displacement scattered across bit13
// (q5), bits11:10 (q4:3), and bits2:0 (q2:0) of the LDD/STD word, on top
// of the register field already present in base.
func qDisplaced(base uint16, reg uint8, q uint8) uint16 {
	w := base | uint16(reg&0x1F)<<4
	w |= uint16(q&0x20) << 8 // q5 -> bit13
	w |= uint16(q&0x18) << 7 // q4:3 -> bits11:10
	w |= uint16(q & 0x07)    // q2:0 -> bits2:0
	return w
}

func ioAddrAndBit(ins *ast.Instruction, addrIdx, bitIdx int, env ast.Env) (addr uint8, bit uint8, err error) {
	a, at, err := evalOperand(ins, addrIdx, env)
	if err != nil {
		return 0, 0, err
	}
	if err := checkRange(a, 0, 31, at, "I/O address"); err != nil {
		return 0, 0, err
	}
	b, at, err := evalOperand(ins, bitIdx, env)
	if err != nil {
		return 0, 0, err
	}
	if err := checkRange(b, 0, 7, at, "bit"); err != nil {
		return 0, 0, err
	}
	return uint8(a), uint8(b), nil
}

func init() {
	register("LD", func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 2); err != nil {
			return nil, err
		}
		switch ins.Operands[1].Kind {
		case ast.OpIndirectX:
			return ptrLoadEntry(ast.OpIndirectX, 0x900C, 0x900D, 0x900E)(ins, pc, env)
		case ast.OpIndirectY:
			return ptrLoadEntry(ast.OpIndirectY, 0x8008, 0x9009, 0x900A)(ins, pc, env)
		case ast.OpIndirectZ:
			return ptrLoadEntry(ast.OpIndirectZ, 0x8000, 0x9001, 0x9002)(ins, pc, env)
		}
		return nil, fmt.Errorf("%s: LD requires an X/Y/Z indirect operand", ins.Operands[1].At)
	})
	register("LDD", func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 2); err != nil {
			return nil, err
		}
		switch ins.Operands[1].Kind {
		case ast.OpIndirectY:
			return ptrLoadEntry(ast.OpIndirectY, 0x8008, 0x9009, 0x900A)(ins, pc, env)
		case ast.OpIndirectZ:
			return ptrLoadEntry(ast.OpIndirectZ, 0x8000, 0x9001, 0x9002)(ins, pc, env)
		}
		return nil, fmt.Errorf("%s: LDD requires a Y/Z indirect operand", ins.Operands[1].At)
	})
	register("ST", func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 2); err != nil {
			return nil, err
		}
		switch ins.Operands[0].Kind {
		case ast.OpIndirectX:
			return ptrStoreEntry(ast.OpIndirectX, 0x920C, 0x920D, 0x920E)(ins, pc, env)
		case ast.OpIndirectY:
			return ptrStoreEntry(ast.OpIndirectY, 0x8208, 0x9209, 0x920A)(ins, pc, env)
		case ast.OpIndirectZ:
			return ptrStoreEntry(ast.OpIndirectZ, 0x8200, 0x9201, 0x9202)(ins, pc, env)
		}
		return nil, fmt.Errorf("%s: ST requires an X/Y/Z indirect operand", ins.Operands[0].At)
	})
	register("STD", func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 2); err != nil {
			return nil, err
		}
		switch ins.Operands[0].Kind {
		case ast.OpIndirectY:
			return ptrStoreEntry(ast.OpIndirectY, 0x8208, 0x9209, 0x920A)(ins, pc, env)
		case ast.OpIndirectZ:
			return ptrStoreEntry(ast.OpIndirectZ, 0x8200, 0x9201, 0x9202)(ins, pc, env)
		}
		return nil, fmt.Errorf("%s: STD requires a Y/Z indirect operand", ins.Operands[0].At)
	})

	register("LDS", func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 2); err != nil {
			return nil, err
		}
		d, err := reg(ins, 0)
		if err != nil {
			return nil, err
		}
		k, at, err := evalOperand(ins, 1, env)
		if err != nil {
			return nil, err
		}
		if err := checkRange(k, 0, 0xFFFF, at, "data address"); err != nil {
			return nil, err
		}
		w1 := word16(0x9000 | uint16(d&0x1F)<<4)
		w2 := word16(uint16(k))
		return append(w1, w2...), nil
	})
	register("STS", func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 2); err != nil {
			return nil, err
		}
		k, at, err := evalOperand(ins, 0, env)
		if err != nil {
			return nil, err
		}
		if err := checkRange(k, 0, 0xFFFF, at, "data address"); err != nil {
			return nil, err
		}
		r, err := reg(ins, 1)
		if err != nil {
			return nil, err
		}
		w1 := word16(0x9200 | uint16(r&0x1F)<<4)
		w2 := word16(uint16(k))
		return append(w1, w2...), nil
	})

	register("PUSH", func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 1); err != nil {
			return nil, err
		}
		r, err := reg(ins, 0)
		if err != nil {
			return nil, err
		}
		return word16(0x920F | uint16(r&0x1F)<<4), nil
	})
	register("POP", func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 1); err != nil {
			return nil, err
		}
		d, err := reg(ins, 0)
		if err != nil {
			return nil, err
		}
		return word16(0x900F | uint16(d&0x1F)<<4), nil
	})

	register("LPM", lpmElpmEntry(0x95C8, 0x9004, 0x9005))
	register("ELPM", lpmElpmEntry(0x95D8, 0x9006, 0x9007))
	register("SPM", fixedWord(0x95E8))

	register("IN", func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 2); err != nil {
			return nil, err
		}
		d, err := reg(ins, 0)
		if err != nil {
			return nil, err
		}
		a, at, err := evalOperand(ins, 1, env)
		if err != nil {
			return nil, err
		}
		if err := checkRange(a, 0, 63, at, "I/O address"); err != nil {
			return nil, err
		}
		w := uint16(0xB000) | uint16(a&0x30)<<5 | uint16(d&0x1F)<<4 | uint16(a&0x0F)
		return word16(w), nil
	})
	register("OUT", func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 2); err != nil {
			return nil, err
		}
		a, at, err := evalOperand(ins, 0, env)
		if err != nil {
			return nil, err
		}
		if err := checkRange(a, 0, 63, at, "I/O address"); err != nil {
			return nil, err
		}
		r, err := reg(ins, 1)
		if err != nil {
			return nil, err
		}
		w := uint16(0xB800) | uint16(a&0x30)<<5 | uint16(r&0x1F)<<4 | uint16(a&0x0F)
		return word16(w), nil
	})

	register("CBI", ioBitEntry(0x9800))
	register("SBI", ioBitEntry(0x9A00))
	register("SBIC", ioBitEntry(0x9900))
	register("SBIS", ioBitEntry(0x9B00))
}

// lpmElpmEntry handles the implicit (r0,Z), explicit Rd,Z, and
// post-increment Rd,Z+ forms sharing one mnemonic.
func lpmElpmEntry(implicitWord, plainBase, incBase uint16) encodeFunc {
	return func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if len(ins.Operands) == 0 {
			return word16(implicitWord), nil
		}
		if err := arity(ins, 2); err != nil {
			return nil, err
		}
		d, err := reg(ins, 0)
		if err != nil {
			return nil, err
		}
		op := ins.Operands[1]
		if op.Kind != ast.OpIndirectZ || op.Disp != nil {
			return nil, fmt.Errorf("%s: %s requires Z or Z+", op.At, ins.Mnemonic)
		}
		if op.PostOp == 1 {
			return word16(incBase | uint16(d&0x1F)<<4), nil
		}
		return word16(plainBase | uint16(d&0x1F)<<4), nil
	}
}

func ioBitEntry(base uint16) encodeFunc {
	return func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 2); err != nil {
			return nil, err
		}
		a, b, err := ioAddrAndBit(ins, 0, 1, env)
		if err != nil {
			return nil, err
		}
		w := base | uint16(a&0x1F)<<3 | uint16(b&0x7)
		return word16(w), nil
	}
}
