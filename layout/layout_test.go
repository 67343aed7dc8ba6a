package layout

import (
	"strings"
	"testing"

	"github.com/raek/rasm/ast"
	"github.com/raek/rasm/parser"
	"github.com/raek/rasm/symtab"
)

func parseItems(t *testing.T, src string) []ast.Item {
	t.Helper()
	items, err := parser.New("test.s", strings.NewReader(src)).Parse()
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return items
}

func TestRun_LabelAddressesInstalled(t *testing.T) {
	items := parseItems(t, "start:\n\tnop\n\trjmp start\nend:\n")
	env := symtab.New()

	res, err := Run(items, env, 0)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	start, err := env.Lookup("start")
	if err != nil || start != 0 {
		t.Fatalf("start = %d, %v; want 0, nil", start, err)
	}
	end, err := env.Lookup("end")
	if err != nil || end != 4 {
		t.Fatalf("end = %d, %v; want 4, nil", end, err)
	}
	if res.Length != 4 {
		t.Fatalf("Length = %d, want 4", res.Length)
	}
}

func TestRun_BaseOffsetsAllAddresses(t *testing.T) {
	items := parseItems(t, "start:\n\tnop\n")
	env := symtab.New()

	res, err := Run(items, env, 52)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	start, err := env.Lookup("start")
	if err != nil || start != 52 {
		t.Fatalf("start = %d, %v; want 52, nil", start, err)
	}
	if res.Length != 2 {
		t.Fatalf("Length = %d, want 2 (base excluded)", res.Length)
	}
}

func TestRun_InstructionAddressesRecorded(t *testing.T) {
	items := parseItems(t, "\tnop\n\tldi r16, 1\n\tjmp 0\n")
	env := symtab.New()

	res, err := Run(items, env, 0)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var wantAddr int64
	var n int
	for _, it := range items {
		ins, ok := it.(*ast.Instruction)
		if !ok {
			continue
		}
		got, ok := res.Addresses[ins]
		if !ok {
			t.Fatalf("instruction %d (%s) missing from Addresses", n, ins.Mnemonic)
		}
		if got != wantAddr {
			t.Fatalf("instruction %d (%s): address = %d, want %d", n, ins.Mnemonic, got, wantAddr)
		}
		switch ins.Mnemonic {
		case "NOP", "LDI":
			wantAddr += 2
		case "JMP":
			wantAddr += 4
		}
		n++
	}
}

func TestRun_DataByteAndWordAdvanceCursor(t *testing.T) {
	items := parseItems(t, ".byte 1, 2, 3\n.word 1, 2\nend:\n")
	env := symtab.New()

	res, err := Run(items, env, 0)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	end, err := env.Lookup("end")
	if err != nil || end != 7 {
		t.Fatalf("end = %d, %v; want 7 (3 + 4), nil", end, err)
	}
	if res.Length != 7 {
		t.Fatalf("Length = %d, want 7", res.Length)
	}
}

func TestRun_AlignPadsToBoundary(t *testing.T) {
	items := parseItems(t, ".byte 1\n.align 4\nend:\n")
	env := symtab.New()

	res, err := Run(items, env, 0)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	end, err := env.Lookup("end")
	if err != nil || end != 4 {
		t.Fatalf("end = %d, %v; want 4", end, err)
	}
	if res.Length != 4 {
		t.Fatalf("Length = %d, want 4", res.Length)
	}
}

func TestRun_AlignAlreadyOnBoundaryIsNoop(t *testing.T) {
	items := parseItems(t, ".byte 1, 2, 3, 4\n.align 4\nend:\n")
	env := symtab.New()

	res, err := Run(items, env, 0)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	end, err := env.Lookup("end")
	if err != nil || end != 4 {
		t.Fatalf("end = %d, %v; want 4", end, err)
	}
	if res.Length != 4 {
		t.Fatalf("Length = %d, want 4", res.Length)
	}
}

func TestRun_GlobalDirectiveHasNoCursorEffect(t *testing.T) {
	items := parseItems(t, ".global start\nstart:\n\tnop\n")
	env := symtab.New()

	res, err := Run(items, env, 0)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	start, err := env.Lookup("start")
	if err != nil || start != 0 {
		t.Fatalf("start = %d, %v; want 0", start, err)
	}
	if res.Length != 2 {
		t.Fatalf("Length = %d, want 2", res.Length)
	}
}

func TestRun_UnknownMnemonicIsError(t *testing.T) {
	items := []ast.Item{&ast.Instruction{Mnemonic: "bogus"}}
	env := symtab.New()

	if _, err := Run(items, env, 0); err == nil {
		t.Fatalf("expected an error for an unknown mnemonic, got nil")
	}
}

func TestRun_NonPositiveAlignIsError(t *testing.T) {
	items := []ast.Item{&ast.DataDirective{Kind: ast.DataAlign, N: 0}}
	env := symtab.New()

	if _, err := Run(items, env, 0); err == nil {
		t.Fatalf("expected an error for a non-positive .align operand, got nil")
	}
}

func TestRun_DuplicateLabelIsError(t *testing.T) {
	items := parseItems(t, "start:\nstart:\n")
	env := symtab.New()

	if _, err := Run(items, env, 0); err == nil {
		t.Fatalf("expected an error for a duplicate label, got nil")
	}
}
