package lexer

import (
	"strings"
	"testing"

	"github.com/raek/rasm/token"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	l := New("test.s", strings.NewReader(src))
	var out []token.Token
	for {
		tok := l.Next()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

func wantKinds(t *testing.T, toks []token.Token, kinds ...token.Kind) {
	t.Helper()
	if len(toks) != len(kinds) {
		t.Fatalf("got %d tokens %v, want %d kinds %v", len(toks), toks, len(kinds), kinds)
	}
	for i, k := range kinds {
		if toks[i].Kind != k {
			t.Fatalf("token %d: got %s (%q), want %s", i, toks[i].Kind, toks[i].Lit, k)
		}
	}
}

func TestNumbers(t *testing.T) {
	cases := []struct {
		src  string
		lit  string
		kind token.Kind
	}{
		{"123", "123", token.NUMBER},
		{"0x1F", "0x1F", token.NUMBER},
		{"0b101", "0b101", token.NUMBER},
		{"$FF", "0xFF", token.NUMBER},
		{"1_000", "1000", token.NUMBER},
	}
	for _, c := range cases {
		toks := scanAll(t, c.src)
		wantKinds(t, toks, token.NUMBER, token.EOF)
		if toks[0].Lit != c.lit {
			t.Errorf("%q: got literal %q, want %q", c.src, toks[0].Lit, c.lit)
		}
	}
}

func TestLocalLabelReferencesAreIdents(t *testing.T) {
	toks := scanAll(t, "2b 1f")
	wantKinds(t, toks, token.IDENT, token.IDENT, token.EOF)
	if toks[0].Lit != "2b" || toks[1].Lit != "1f" {
		t.Fatalf("got literals %q, %q; want \"2b\", \"1f\"", toks[0].Lit, toks[1].Lit)
	}
}

func TestNumberFollowedByIdentCharIsNotALocalLabelRef(t *testing.T) {
	toks := scanAll(t, "2big")
	wantKinds(t, toks, token.NUMBER, token.IDENT, token.EOF)
	if toks[0].Lit != "2" || toks[1].Lit != "big" {
		t.Fatalf("got literals %q, %q; want \"2\", \"big\"", toks[0].Lit, toks[1].Lit)
	}
}

func TestRegisterAndRegisterPair(t *testing.T) {
	toks := scanAll(t, "r16 r25:r24")
	wantKinds(t, toks, token.REGISTER, token.REGPAIR, token.EOF)
	if toks[0].Lit != "r16" {
		t.Fatalf("got register literal %q, want \"r16\"", toks[0].Lit)
	}
	if toks[1].Lit != "r25:r24" {
		t.Fatalf("got register pair literal %q, want \"r25:r24\"", toks[1].Lit)
	}
}

func TestLabelColonDoesNotBecomeRegisterPair(t *testing.T) {
	toks := scanAll(t, "loop:\n\tnop\n")
	wantKinds(t, toks, token.IDENT, token.COLON, token.NEWLINE, token.IDENT, token.NEWLINE, token.EOF)
}

func TestIdentifiersAndDirectivesAreCaseSensitiveLiterals(t *testing.T) {
	toks := scanAll(t, ".equ Foo = 1")
	wantKinds(t, toks, token.IDENT, token.IDENT, token.EQUALS, token.NUMBER, token.EOF)
	if toks[0].Lit != ".equ" {
		t.Fatalf("got directive literal %q, want \".equ\"", toks[0].Lit)
	}
	if toks[1].Lit != "Foo" {
		t.Fatalf("got identifier literal %q, want \"Foo\" (case preserved)", toks[1].Lit)
	}
}

func TestCommentsAreSkippedButNewlinesKept(t *testing.T) {
	toks := scanAll(t, "nop ; a comment\nnop\n")
	wantKinds(t, toks, token.IDENT, token.NEWLINE, token.IDENT, token.NEWLINE, token.EOF)
}

func TestStringWithEscapes(t *testing.T) {
	toks := scanAll(t, `"a\nb"`)
	wantKinds(t, toks, token.STRING, token.EOF)
	if toks[0].Lit != "a\nb" {
		t.Fatalf("got string literal %q, want %q", toks[0].Lit, "a\nb")
	}
}

func TestUnterminatedStringIsIllegal(t *testing.T) {
	toks := scanAll(t, "\"abc")
	wantKinds(t, toks, token.ILLEGAL, token.EOF)
}

func TestOperatorsAndShifts(t *testing.T) {
	toks := scanAll(t, "+ - * / % ^ ~ & | << >>")
	wantKinds(t, toks,
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.CARET, token.TILDE, token.AMP, token.PIPE, token.SHL, token.SHR,
		token.EOF)
}

func TestIllegalCharacter(t *testing.T) {
	toks := scanAll(t, "@")
	wantKinds(t, toks, token.ILLEGAL, token.EOF)
}

func TestBangIsLexed(t *testing.T) {
	toks := scanAll(t, "!0")
	wantKinds(t, toks, token.BANG, token.NUMBER, token.EOF)
}

func TestColAfterCommentOnlyLineIsRestored(t *testing.T) {
	// skipComment reads through to (and unreads) the trailing newline on a
	// comment-only line; the position reported for the second line's first
	// token must match what an equivalent blank line would produce, not
	// whatever skipComment's read() left line/col at.
	withComment := scanAll(t, "; a comment\nnop\n")
	blank := scanAll(t, "\nnop\n")
	wantKinds(t, withComment, token.NEWLINE, token.IDENT, token.NEWLINE, token.EOF)
	wantKinds(t, blank, token.NEWLINE, token.IDENT, token.NEWLINE, token.EOF)
	if withComment[1].Pos != blank[1].Pos {
		t.Fatalf("ident after comment-only line: got %+v, want %+v (same as after a blank line)", withComment[1].Pos, blank[1].Pos)
	}
	if withComment[1].Pos.Line != 2 {
		t.Fatalf("ident after comment-only line: got line %d, want 2", withComment[1].Pos.Line)
	}
}

func TestNormalizeIdent(t *testing.T) {
	if got := NormalizeIdent("ldi"); got != "LDI" {
		t.Fatalf("NormalizeIdent(%q) = %q, want %q", "ldi", got, "LDI")
	}
}
