package lex

import (
	"bufio"
	"bytes"
	"io"
)

// CharClass is the total classification of a byte (plus EOF) that spec §4.1
// requires: every rune in the input, and EOF, belongs to exactly one class.
type CharClass int

const (
	ENDOFFILE CharClass = iota
	LETTER
	DIGIT
	PUNCTUATION
	ILLEGAL
)

const punctuation = ":;,+-*/()<>!={}\"&|[]"

func classOf(r rune, eof bool) CharClass {
	switch {
	case eof:
		return ENDOFFILE
	case isLetter(r):
		return LETTER
	case isDigit(r):
		return DIGIT
	case isPunct(r):
		return PUNCTUATION
	default:
		return ILLEGAL
	}
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isPunct(r rune) bool {
	for _, p := range punctuation {
		if p == r {
			return true
		}
	}
	return false
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}

// Scanner tokenizes a character stream one TokenFrame at a time. It
// exclusively owns the stream's read position and line counter (spec §5).
type Scanner struct {
	r        *bufio.Reader
	line     int
	lastRune rune
	lastSize int
	table    Classifier
	diag     Diagnostics
}

// NewScanner returns a Scanner reading from r. table classifies assembled
// identifiers; diag receives lexical warnings.
func NewScanner(r io.Reader, table Classifier, diag Diagnostics) *Scanner {
	return &Scanner{
		r:     bufio.NewReader(r),
		line:  1,
		table: table,
		diag:  diag,
	}
}

// Line returns the scanner's current 1-based line number.
func (s *Scanner) Line() int {
	return s.line
}

func (s *Scanner) readRune() (rune, bool) {
	r, size, err := s.r.ReadRune()
	if err != nil {
		return 0, true
	}
	s.lastRune = r
	s.lastSize = size
	if r == '\n' {
		s.line++
	}
	return r, false
}

func (s *Scanner) unreadRune() {
	_ = s.r.UnreadRune()
	if s.lastRune == '\n' {
		s.line--
	}
}

func (s *Scanner) warn(format string, args ...interface{}) {
	if s.diag != nil {
		s.diag.Warning(s.line, format, args...)
	}
}

// Next returns the next TokenFrame in the stream. It returns io.EOF, and a
// zero TokenFrame, once the stream is exhausted: per spec §4.1 the scanner
// never fails except at end of file.
func (s *Scanner) Next() (TokenFrame, error) {
	for {
		r, eof := s.readRune()
		if eof {
			return TokenFrame{}, io.EOF
		}
		if isWhitespace(r) {
			continue
		}
		switch classOf(r, false) {
		case LETTER:
			s.unreadRune()
			return s.readIdentifier(), nil
		case DIGIT:
			s.unreadRune()
			return s.readNumber(), nil
		case PUNCTUATION:
			tok, ok := s.readPunctuation(r)
			if !ok {
				continue
			}
			return tok, nil
		default:
			s.warn("Illegal character found. Assuming whitespace.")
			continue
		}
	}
}

func (s *Scanner) readIdentifier() TokenFrame {
	var buf bytes.Buffer
	for {
		r, eof := s.readRune()
		if eof {
			break
		}
		if isLetter(r) || isDigit(r) || r == '_' {
			buf.WriteRune(r)
			continue
		}
		s.unreadRune()
		break
	}
	lexeme := buf.String()
	if s.table != nil {
		return s.table.Classify(lexeme)
	}
	return TokenFrame{Kind: NONE, Lexeme: lexeme}
}

func (s *Scanner) readNumber() TokenFrame {
	var buf bytes.Buffer
	for {
		r, eof := s.readRune()
		if eof {
			break
		}
		if isDigit(r) {
			buf.WriteRune(r)
			continue
		}
		if r == '_' {
			continue
		}
		s.unreadRune()
		break
	}
	r, eof := s.readRune()
	if !eof && r == '.' {
		buf.WriteRune('.')
		for {
			r, eof := s.readRune()
			if eof {
				break
			}
			if isDigit(r) {
				buf.WriteRune(r)
				continue
			}
			if r == '_' {
				continue
			}
			s.unreadRune()
			break
		}
	} else if !eof {
		s.unreadRune()
	}
	return TokenFrame{Kind: NUMBER, Lexeme: buf.String()}
}

// readPunctuation consumes the operator, comment, or string literal that
// starts with first. The bool return is false when no token was produced
// (a comment was skipped, or a bare '!' was discarded as a warning) and
// the caller should resume scanning.
func (s *Scanner) readPunctuation(first rune) (TokenFrame, bool) {
	switch first {
	case '"':
		return s.readString(), true
	case '/':
		r, eof := s.readRune()
		if !eof && r == '/' {
			s.skipLineComment()
			return TokenFrame{}, false
		}
		if !eof {
			s.unreadRune()
		}
		return op("/"), true
	case '<':
		if s.peekEquals() {
			return op("<="), true
		}
		return op("<"), true
	case '>':
		if s.peekEquals() {
			return op(">="), true
		}
		return op(">"), true
	case '!':
		if s.peekEquals() {
			return op("!="), true
		}
		s.warn("Illegal character: '!'. Assuming whitespace.")
		return TokenFrame{}, false
	case ':':
		if s.peekEquals() {
			return op(":="), true
		}
		return op(":"), true
	case '=':
		if s.peekEquals() {
			return op("=="), true
		}
		return op("="), true
	default:
		return op(string(first)), true
	}
}

func (s *Scanner) peekEquals() bool {
	r, eof := s.readRune()
	if eof {
		return false
	}
	if r == '=' {
		return true
	}
	s.unreadRune()
	return false
}

func (s *Scanner) skipLineComment() {
	for {
		r, eof := s.readRune()
		if eof || r == '\n' {
			return
		}
	}
}

// legal inner characters of a string literal besides letters and digits.
const stringPunct = " _,;:.'"

func isStringChar(r rune) bool {
	if isLetter(r) || isDigit(r) {
		return true
	}
	for _, p := range stringPunct {
		if p == r {
			return true
		}
	}
	return false
}

func (s *Scanner) readString() TokenFrame {
	var buf bytes.Buffer
	for {
		r, eof := s.readRune()
		if eof {
			s.warn("Unexpected end of file in string literal. Assuming end of string literal.")
			break
		}
		if r == '"' {
			break
		}
		if r == '\n' {
			s.warn("Unexpected end of line in string literal. Assuming end of string literal.")
			break
		}
		if !isStringChar(r) {
			s.warn("Encountered illegal character in string literal. Assuming end of string literal.")
			s.unreadRune()
			break
		}
		buf.WriteRune(r)
	}
	return TokenFrame{Kind: STRING, Lexeme: buf.String()}
}

func op(lexeme string) TokenFrame {
	return TokenFrame{Kind: OPERATOR, Lexeme: lexeme}
}
