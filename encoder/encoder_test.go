package encoder

import (
	"testing"

	"github.com/raek/rasm/ast"
)

// constEnv resolves each name listed in the map to its value and every
// other name to 0.
type constEnv map[string]int64

func (e constEnv) Lookup(name string) (int64, error) {
	if v, ok := e[name]; ok {
		return v, nil
	}
	return 0, nil
}

func regOp(n uint8) ast.Operand {
	return ast.Operand{Kind: ast.OpRegister, Reg: n}
}

func pairOp(hi, lo uint8) ast.Operand {
	return ast.Operand{Kind: ast.OpRegisterPair, PairHi: hi, PairLo: lo}
}

func exprOp(v int64) ast.Operand {
	return ast.Operand{Kind: ast.OpExpr, Expr: &ast.Const{Value: v}}
}

func indirectOp(kind ast.OperandKind, postOp int, disp ast.Expr) ast.Operand {
	return ast.Operand{Kind: kind, PostOp: postOp, Disp: disp}
}

func ins(mnemonic string, ops ...ast.Operand) *ast.Instruction {
	return &ast.Instruction{Mnemonic: mnemonic, Operands: ops}
}

func encodeAt(t *testing.T, mnemonic string, pc int64, ops ...ast.Operand) []byte {
	t.Helper()
	got, err := Encode(ins(mnemonic, ops...), pc, constEnv{})
	if err != nil {
		t.Fatalf("encode %s failed: %v", mnemonic, err)
	}
	return got
}

func wantBytes(t *testing.T, got []byte, want ...byte) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d bytes %v, want %d bytes %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d: got %#02x, want %#02x (full: got %v want %v)", i, got[i], want[i], got, want)
		}
	}
}

func TestEncoder_NOP(t *testing.T) {
	wantBytes(t, encodeAt(t, "NOP", 0), 0x00, 0x00)
}

func TestEncoder_ADD(t *testing.T) {
	// ADD r1, r2: 0000 1100 0001 0010 = 0x0C12 -> LE bytes 0x12, 0x0C
	wantBytes(t, encodeAt(t, "ADD", 0, regOp(1), regOp(2)), 0x12, 0x0C)
}

func TestEncoder_LDI(t *testing.T) {
	// LDI r16, 0xAB: d=0 (r16-16), K=0xAB -> 1110 1010 0000 1011 = 0xEA0B
	got := encodeAt(t, "LDI", 0, regOp(16), exprOp(0xAB))
	wantBytes(t, got, 0x0B, 0xEA)
}

func TestEncoder_LDI_RegisterTooLow(t *testing.T) {
	_, err := Encode(ins("LDI", regOp(15), exprOp(1)), 0, constEnv{})
	if err == nil {
		t.Fatal("expected error for LDI r15 (out of range)")
	}
}

func TestEncoder_MOVW(t *testing.T) {
	// MOVW r25:r24, r17:r16 -> d=24/2=12=0xC, r=16/2=8 -> 0000 0001 1100 1000 = 0x01C8
	got := encodeAt(t, "MOVW", 0, pairOp(25, 24), pairOp(17, 16))
	wantBytes(t, got, 0xC8, 0x01)
}

func TestEncoder_ADIW(t *testing.T) {
	// ADIW r25:r24, 1 -> base 0x9600, code 0 (r24), K=1 -> 0x9601
	got := encodeAt(t, "ADIW", 0, regOp(24), exprOp(1))
	wantBytes(t, got, 0x01, 0x96)
}

func TestEncoder_RJMP_Forward(t *testing.T) {
	// rjmp from pc=0 to target=4: k = (4 - (0+2))/2 = 1
	got := encodeAt(t, "RJMP", 0, exprOp(4))
	wantBytes(t, got, 0x01, 0xC0)
}

func TestEncoder_RJMP_Backward(t *testing.T) {
	// rjmp from pc=10 to target=0: k = (0-12)/2 = -6 -> 12-bit two's complement 0xFFA
	got := encodeAt(t, "RJMP", 10, exprOp(0))
	w := uint16(got[0]) | uint16(got[1])<<8
	if k := int16(w<<4) >> 4; k != -6 { // sign-extend the low 12 bits
		t.Fatalf("expected k=-6, got %d (word %#04x)", k, w)
	}
}

func TestEncoder_RJMP_OutOfRange(t *testing.T) {
	_, err := Encode(ins("RJMP", exprOp(100000)), 0, constEnv{})
	if err == nil {
		t.Fatal("expected range error for oversized RJMP displacement")
	}
}

func TestEncoder_JMP(t *testing.T) {
	// jmp 0x10000 (word addr 0x8000, fits entirely in the 16-bit second
	// word): k21..16 all zero -> w1=0x940C unchanged; w2=0x8000.
	got, err := Encode(ins("JMP", exprOp(0x10000)), 0, constEnv{})
	if err != nil {
		t.Fatalf("encode JMP failed: %v", err)
	}
	wantBytes(t, got, 0x0C, 0x94, 0x00, 0x80)
}

func TestEncoder_JMP_HighBits(t *testing.T) {
	// jmp 0x400000 (word addr 0x200000 = 2^21): k21=1, all other k bits 0.
	got, err := Encode(ins("JMP", exprOp(0x400000)), 0, constEnv{})
	if err != nil {
		t.Fatalf("encode JMP failed: %v", err)
	}
	w1 := uint16(0x940C) | uint16(1)<<8
	wantBytes(t, got, byte(w1), byte(w1>>8), 0x00, 0x00)
}

func TestEncoder_BREQ(t *testing.T) {
	// breq from pc=0 to target=4: k=(4-2)/2=1 -> BRBS base 0xF000 | (1&0x7F)<<3 | bit1 -> 0xF000|0x08|0x01=0xF009
	got := encodeAt(t, "BREQ", 0, exprOp(4))
	wantBytes(t, got, 0x09, 0xF0)
}

func TestEncoder_CBI(t *testing.T) {
	// cbi 0x0C, 3 -> base 0x9800 | (0x0C&0x1F)<<3 | 3 = 0x9800|0x60|0x03=0x9863
	got := encodeAt(t, "CBI", 0, exprOp(0x0C), exprOp(3))
	wantBytes(t, got, 0x63, 0x98)
}

func TestEncoder_INOUT(t *testing.T) {
	// in r16, 0x16 -> 0xB000 | (0x16&0x30)<<5 | (16&0x1F)<<4 | (0x16&0xF)
	//              = 0xB000 | 0x200 | 0x100 | 0x6 = 0xB306
	got := encodeAt(t, "IN", 0, regOp(16), exprOp(0x16))
	wantBytes(t, got, 0x06, 0xB3)
}

func TestEncoder_LD_PostIncrement(t *testing.T) {
	// ld r0, X+ -> 0x900D | (0&0x1F)<<4 = 0x900D
	got := encodeAt(t, "LD", 0, regOp(0), indirectOp(ast.OpIndirectX, 1, nil))
	wantBytes(t, got, 0x0D, 0x90)
}

func TestEncoder_LDD_Displacement(t *testing.T) {
	// ldd r2, Z+5: base 0x8000, d=2, q=5 (q5=0,q4_3=0,q2_0=5)
	// w = 0x8000 | d<<4 | q2_0 = 0x8000 | 0x20 | 0x05 = 0x8025
	got := encodeAt(t, "LDD", 0, regOp(2), indirectOp(ast.OpIndirectZ, 0, &ast.Const{Value: 5}))
	wantBytes(t, got, 0x25, 0x80)
}

func TestEncoder_LD_XWithDisplacementIsRejected(t *testing.T) {
	// X has no LDD-style displaced addressing mode; only Y+q and Z+q exist.
	_, err := Encode(ins("LD", regOp(0), indirectOp(ast.OpIndirectX, 0, &ast.Const{Value: 5})), 0, constEnv{})
	if err == nil {
		t.Fatal("expected an error for ld r0, X+5 (no such addressing mode)")
	}
}

func TestEncoder_ST_XWithDisplacementIsRejected(t *testing.T) {
	_, err := Encode(ins("ST", indirectOp(ast.OpIndirectX, 0, &ast.Const{Value: 5}), regOp(0)), 0, constEnv{})
	if err == nil {
		t.Fatal("expected an error for st X+5, r0 (no such addressing mode)")
	}
}

func TestEncoder_UnknownMnemonic(t *testing.T) {
	_, err := Encode(ins("BOGUS"), 0, constEnv{})
	if err == nil {
		t.Fatal("expected error for unknown mnemonic")
	}
}

func TestEncoder_ArityMismatch(t *testing.T) {
	_, err := Encode(ins("ADD", regOp(1)), 0, constEnv{})
	if err == nil {
		t.Fatal("expected arity error")
	}
}

func TestEncoder_Length(t *testing.T) {
	cases := map[string]int{"NOP": 2, "ADD": 2, "LDI": 2, "JMP": 4, "CALL": 4, "LDS": 4, "STS": 4}
	for m, want := range cases {
		got, ok := Length(m)
		if !ok {
			t.Fatalf("Length(%q): not found", m)
		}
		if got != want {
			t.Fatalf("Length(%q) = %d, want %d", m, got, want)
		}
	}
	if _, ok := Length("NOTAMNEMONIC"); ok {
		t.Fatal("expected Length to report unknown mnemonic as not-ok")
	}
}
