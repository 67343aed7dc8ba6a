package encoder

import (
	"fmt"

	"github.com/raek/rasm/ast"
	"github.com/raek/rasm/token"
)

// pcRelWords computes the signed half-word displacement from the
// instruction at pc to target (spec.md §4.5: "k = (target_byte_addr -
// (source_byte_addr + 2)) / 2"). The +2 accounts for AVR's pre-increment
// of PC past the instruction itself before the branch is taken.
func pcRelWords(target, pc int64, at token.Pos) (int64, error) {
	diff := target - (pc + 2)
	if diff%2 != 0 {
		return 0, fmt.Errorf("%s: branch target is not word-aligned", at)
	}
	return diff / 2, nil
}

func targetOperand(ins *ast.Instruction, i int, env ast.Env) (int64, token.Pos, error) {
	return evalOperand(ins, i, env)
}

func rjmpRcallEntry(base uint16) encodeFunc {
	return func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 1); err != nil {
			return nil, err
		}
		target, at, err := targetOperand(ins, 0, env)
		if err != nil {
			return nil, err
		}
		k, err := pcRelWords(target, pc, at)
		if err != nil {
			return nil, err
		}
		if err := checkRange(k, -2048, 2047, at, "relative jump offset"); err != nil {
			return nil, err
		}
		w := base | (uint16(k) & 0x0FFF)
		return word16(w), nil
	}
}

// brEntry builds a conditional branch mnemonic's entry. isSet selects
// BRBS (base 0xF000) vs BRBC (base 0xF400); bit is the SREG flag index.
func brEntry(isSet bool, bit uint8) encodeFunc {
	base := uint16(0xF400)
	if isSet {
		base = 0xF000
	}
	return func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 1); err != nil {
			return nil, err
		}
		target, at, err := targetOperand(ins, 0, env)
		if err != nil {
			return nil, err
		}
		k, err := pcRelWords(target, pc, at)
		if err != nil {
			return nil, err
		}
		if err := checkRange(k, -64, 63, at, "branch offset"); err != nil {
			return nil, err
		}
		w := base | ((uint16(k) & 0x7F) << 3) | uint16(bit&0x7)
		return word16(w), nil
	}
}

func absoluteWord22(target int64, at token.Pos) (int64, error) {
	if target%2 != 0 {
		return 0, fmt.Errorf("%s: jump/call target is not word-aligned", at)
	}
	k := target / 2
	if k < 0 || k > 0x3FFFFF {
		return 0, fmt.Errorf("%s: address %#x exceeds the 22-bit JMP/CALL range", at, target)
	}
	return k, nil
}

func jmpCallEntry(base uint16) encodeFunc {
	return func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 1); err != nil {
			return nil, err
		}
		target, at, err := targetOperand(ins, 0, env)
		if err != nil {
			return nil, err
		}
		k, err := absoluteWord22(target, at)
		if err != nil {
			return nil, err
		}
		k21 := uint16((k >> 21) & 0x1)
		k2017 := uint16((k >> 17) & 0xF)
		k16 := uint16((k >> 16) & 0x1)
		w1 := base | (k21 << 8) | (k2017 << 4) | k16
		w2 := uint16(k & 0xFFFF)
		return append(word16(w1), word16(w2)...), nil
	}
}

func fixedWord(w uint16) encodeFunc {
	return func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 0); err != nil {
			return nil, err
		}
		return word16(w), nil
	}
}

func init() {
	register("RJMP", rjmpRcallEntry(0xC000))
	register("RCALL", rjmpRcallEntry(0xD000))
	register("JMP", jmpCallEntry(0x940C))
	register("CALL", jmpCallEntry(0x940E))

	register("BRCS", brEntry(true, 0))
	register("BRLO", brEntry(true, 0))
	register("BREQ", brEntry(true, 1))
	register("BRMI", brEntry(true, 2))
	register("BRVS", brEntry(true, 3))
	register("BRLT", brEntry(true, 4))
	register("BRHS", brEntry(true, 5))
	register("BRTS", brEntry(true, 6))
	register("BRIE", brEntry(true, 7))

	register("BRCC", brEntry(false, 0))
	register("BRSH", brEntry(false, 0))
	register("BRNE", brEntry(false, 1))
	register("BRPL", brEntry(false, 2))
	register("BRVC", brEntry(false, 3))
	register("BRGE", brEntry(false, 4))
	register("BRHC", brEntry(false, 5))
	register("BRTC", brEntry(false, 6))
	register("BRID", brEntry(false, 7))

	register("RET", fixedWord(0x9508))
	register("RETI", fixedWord(0x9518))
	register("IJMP", fixedWord(0x9409))
	register("ICALL", fixedWord(0x9509))
	register("EIJMP", fixedWord(0x9419))
	register("EICALL", fixedWord(0x9519))
}
