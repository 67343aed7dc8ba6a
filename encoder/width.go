// Package encoder implements the table-driven mnemonic dispatcher (spec.md
// §4.5): one entry per mnemonic, each validating its own operand signature
// and producing the instruction's 16-bit word(s).
package encoder

import "strings"

// wideMnemonics is the fixed set of 32-bit (two-word) instructions (spec.md
// §4.4: "the two 32-bit instructions are LDS, STS, JMP, CALL"). Width is a
// property of the mnemonic alone, never of its operands, so the layout pass
// can size an Instruction before any operand expression is resolvable.
var wideMnemonics = map[string]bool{
	"LDS":  true,
	"STS":  true,
	"JMP":  true,
	"CALL": true,
}

// Length returns the instruction's encoded length in bytes: 2 for every
// mnemonic except LDS/STS/JMP/CALL, which are 4.
func Length(mnemonic string) (int, bool) {
	m := strings.ToUpper(mnemonic)
	if _, ok := table[m]; !ok {
		return 0, false
	}
	if wideMnemonics[m] {
		return 4, true
	}
	return 2, true
}

// Known reports whether mnemonic is recognised at all.
func Known(mnemonic string) bool {
	_, ok := table[strings.ToUpper(mnemonic)]
	return ok
}
