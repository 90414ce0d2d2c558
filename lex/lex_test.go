package lex

import (
	"errors"
	"io"
	"strings"
	"testing"
)

type stubClassifier struct{}

func (stubClassifier) Classify(name string) TokenFrame {
	return TokenFrame{Kind: NONE, Lexeme: name}
}

type collectingDiag struct {
	warnings []string
}

func (d *collectingDiag) Warning(line int, format string, args ...interface{}) {
	d.warnings = append(d.warnings, format)
}

func scanAll(t *testing.T, src string) ([]TokenFrame, *collectingDiag) {
	t.Helper()
	diag := &collectingDiag{}
	s := NewScanner(strings.NewReader(src), stubClassifier{}, diag)
	var toks []TokenFrame
	for {
		tok, err := s.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				t.Fatalf("unexpected scan error: %v", err)
			}
			break
		}
		toks = append(toks, tok)
	}
	return toks, diag
}

func TestOperators(t *testing.T) {
	toks, _ := scanAll(t, ": ; , + - * / ( ) < <= > >= != = := { } & | [ ] ==")
	want := []string{":", ";", ",", "+", "-", "*", "/", "(", ")", "<", "<=", ">", ">=", "!=", "=", ":=", "{", "}", "&", "|", "[", "]", "=="}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, tok := range toks {
		if tok.Kind != OPERATOR || tok.Lexeme != want[i] {
			t.Fatalf("token %d = %v, want OPERATOR %q", i, tok, want[i])
		}
	}
}

func TestNumberUnderscoreElision(t *testing.T) {
	toks, _ := scanAll(t, "1_000_000 3.14_15")
	if len(toks) != 2 {
		t.Fatalf("got %d tokens, want 2", len(toks))
	}
	if toks[0].Kind != NUMBER || toks[0].Lexeme != "1000000" {
		t.Fatalf("token 0 = %v, want NUMBER 1000000", toks[0])
	}
	if toks[1].Kind != NUMBER || toks[1].Lexeme != "3.1415" {
		t.Fatalf("token 1 = %v, want NUMBER 3.1415", toks[1])
	}
}

func TestLineComment(t *testing.T) {
	toks, _ := scanAll(t, "1 // a comment\n2")
	if len(toks) != 2 || toks[0].Lexeme != "1" || toks[1].Lexeme != "2" {
		t.Fatalf("comment was not skipped cleanly: %v", toks)
	}
}

func TestStringLiteral(t *testing.T) {
	toks, diag := scanAll(t, `"hello, world.'"`)
	if len(toks) != 1 || toks[0].Kind != STRING {
		t.Fatalf("got %v, want a single STRING token", toks)
	}
	if toks[0].Lexeme != "hello, world.'" {
		t.Fatalf("lexeme = %q", toks[0].Lexeme)
	}
	if len(diag.warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", diag.warnings)
	}
}

func TestUnterminatedStringAtEOLWarns(t *testing.T) {
	toks, diag := scanAll(t, "\"abc\n123")
	if len(toks) != 2 {
		t.Fatalf("got %d tokens, want 2: %v", len(toks), toks)
	}
	if toks[0].Kind != STRING || toks[0].Lexeme != "abc" {
		t.Fatalf("token 0 = %v", toks[0])
	}
	if toks[1].Kind != NUMBER || toks[1].Lexeme != "123" {
		t.Fatalf("token 1 = %v", toks[1])
	}
	if len(diag.warnings) != 1 {
		t.Fatalf("got %d warnings, want 1: %v", len(diag.warnings), diag.warnings)
	}
}

func TestIllegalCharInStringWarnsAndResumes(t *testing.T) {
	toks, diag := scanAll(t, "\"abc#def\"")
	if len(toks) != 1 || toks[0].Lexeme != "abc" {
		t.Fatalf("token = %v, want STRING \"abc\"", toks)
	}
	if len(diag.warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(diag.warnings))
	}
}

func TestBareBangWarnsAndResumes(t *testing.T) {
	toks, diag := scanAll(t, "1 ! 2")
	if len(toks) != 2 || toks[0].Lexeme != "1" || toks[1].Lexeme != "2" {
		t.Fatalf("got %v", toks)
	}
	if len(diag.warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(diag.warnings))
	}
}

func TestIllegalCharacterWarnsAndContinues(t *testing.T) {
	toks, diag := scanAll(t, "1 @ 2")
	if len(toks) != 2 {
		t.Fatalf("got %v", toks)
	}
	if len(diag.warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(diag.warnings))
	}
}

// TestTokenizationTotality is spec §8 property 1: every byte sequence
// terminated by EOF yields a finite token sequence, every non-EOF lexeme is
// non-empty, and the line counter is monotonically non-decreasing.
func TestTokenizationTotality(t *testing.T) {
	src := "program x is\n  integer a;\nbegin\n  a := 1 + 2;\nend program\n"
	diag := &collectingDiag{}
	s := NewScanner(strings.NewReader(src), stubClassifier{}, diag)
	lastLine := 1
	count := 0
	for {
		tok, err := s.Next()
		if err != nil {
			break
		}
		count++
		if tok.Lexeme == "" {
			t.Fatalf("token %d has an empty lexeme", count)
		}
		if s.Line() < lastLine {
			t.Fatalf("line number decreased: %d -> %d", lastLine, s.Line())
		}
		lastLine = s.Line()
		if count > 1000 {
			t.Fatal("tokenization did not terminate")
		}
	}
}
