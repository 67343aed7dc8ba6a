package encoder

import "github.com/raek/rasm/ast"

func bitOpEntry(base uint16) encodeFunc {
	return func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 2); err != nil {
			return nil, err
		}
		r, err := reg(ins, 0)
		if err != nil {
			return nil, err
		}
		b, at, err := evalOperand(ins, 1, env)
		if err != nil {
			return nil, err
		}
		if err := checkRange(b, 0, 7, at, "bit"); err != nil {
			return nil, err
		}
		w := base | uint16(r&0x1F)<<4 | uint16(b&0x7)
		return word16(w), nil
	}
}

func bsetBclrEntry(base uint16) encodeFunc {
	return func(ins *ast.Instruction, pc int64, env ast.Env) ([]byte, error) {
		if err := arity(ins, 1); err != nil {
			return nil, err
		}
		s, at, err := evalOperand(ins, 0, env)
		if err != nil {
			return nil, err
		}
		if err := checkRange(s, 0, 7, at, "SREG bit"); err != nil {
			return nil, err
		}
		return word16(base | uint16(s&0x7)<<4), nil
	}
}

func namedFlagEntry(base uint16, bit uint16) encodeFunc {
	w := base | bit<<4
	return fixedWord(w)
}

func init() {
	register("BST", bitOpEntry(0xFA00))
	register("BLD", bitOpEntry(0xF800))
	register("SBRC", bitOpEntry(0xFC00))
	register("SBRS", bitOpEntry(0xFE00))

	register("BSET", bsetBclrEntry(0x9408))
	register("BCLR", bsetBclrEntry(0x9488))

	register("SEC", namedFlagEntry(0x9408, 0))
	register("SEZ", namedFlagEntry(0x9408, 1))
	register("SEN", namedFlagEntry(0x9408, 2))
	register("SEV", namedFlagEntry(0x9408, 3))
	register("SES", namedFlagEntry(0x9408, 4))
	register("SEH", namedFlagEntry(0x9408, 5))
	register("SET", namedFlagEntry(0x9408, 6))
	register("SEI", namedFlagEntry(0x9408, 7))

	register("CLC", namedFlagEntry(0x9488, 0))
	register("CLZ", namedFlagEntry(0x9488, 1))
	register("CLN", namedFlagEntry(0x9488, 2))
	register("CLV", namedFlagEntry(0x9488, 3))
	register("CLS", namedFlagEntry(0x9488, 4))
	register("CLH", namedFlagEntry(0x9488, 5))
	register("CLT", namedFlagEntry(0x9488, 6))
	register("CLI", namedFlagEntry(0x9488, 7))

	register("NOP", fixedWord(0x0000))
	register("SLEEP", fixedWord(0x9588))
	register("WDR", fixedWord(0x95A8))
	register("BREAK", fixedWord(0x9598))
}
