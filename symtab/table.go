package symtab

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/moon45140/narcomp/lex"
)

// internalErrorf panics on one of spec §7's "internal invariants" (the
// implementer-bug class of error, as opposed to a lexical/syntax/semantic
// one). Grounded on the teacher's parse.go errorPos/error pair: NARCOMPDEBUG=true
// appends a Go stack trace to the message.
func internalErrorf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if os.Getenv("NARCOMPDEBUG") == "true" {
		msg = fmt.Sprintf("%s\n%s", msg, debug.Stack())
	}
	panic("internal error: " + msg)
}

// reservedWords and operators are the closed sets of spec §6.1, prepopulated
// into the global scope as the reference scanner's initializeScanner does
// (_examples/original_source/src/scanner.cpp), plus one addition: the "=="
// operator, which the relation grammar uses (see DESIGN.md §2).
var reservedWords = []string{
	"and", "begin", "bool", "case", "else", "end", "false", "float",
	"for", "global", "if", "in", "integer", "is", "not", "or", "out",
	"procedure", "program", "return", "string", "then", "true",
}

var operators = []string{
	":", ";", ",", "+", "-", "*", "/", "(", ")", "<", "<=", ">", ">=",
	"!=", "=", ":=", "{", "}", "&", "|", "[", "]", "==",
}

// runtimeProcs are the eight pre-declared I/O procedures of spec §6.2.
var runtimeProcs = []struct {
	name      string
	paramName string
	paramType DataType
	in        bool
}{
	{"getBool", "newBool", BOOL, false},
	{"getInteger", "newInteger", INTEGER, false},
	{"getFloat", "newFloat", FLOAT, false},
	{"getString", "newString", STRINGT, false},
	{"putBool", "oldBool", BOOL, true},
	{"putInteger", "oldInteger", INTEGER, true},
	{"putFloat", "oldFloat", FLOAT, true},
	{"putString", "oldString", STRINGT, true},
}

// Table is the process-wide symbol table of spec §3/§4.2: one global
// mapping and a depth-indexed stack of local mappings. locals[0] is the
// implicit outermost frame used while CurrentScope() == 0.
type Table struct {
	global map[string]Symbol
	locals []map[string]Symbol
}

// NewTable returns a Table pre-populated with the reserved words,
// operators and runtime procedure signatures of spec §6.1/§6.2.
func NewTable() *Table {
	t := &Table{
		global: make(map[string]Symbol),
		locals: []map[string]Symbol{make(map[string]Symbol)},
	}
	for _, w := range reservedWords {
		t.global[w] = &Reserved{Lexeme: w}
	}
	for _, o := range operators {
		t.global[o] = &Operator{Lexeme: o}
	}
	for _, rp := range runtimeProcs {
		proc := &Procedure{Ident: rp.name, IsGlobal: true}
		param := &Variable{
			Ident:       rp.paramName,
			Type:        rp.paramType,
			IsParameter: true,
			Address:     proc.ParamAddressCursor,
		}
		proc.ParamAddressCursor++
		proc.Parameters = append(proc.Parameters, param)
		proc.Directions = append(proc.Directions, rp.in)
		proc.LocalAddressCursor = proc.ParamAddressCursor
		t.global[rp.name] = proc
	}
	return t
}

// CurrentScope returns the 0-based depth of the innermost local scope.
func (t *Table) CurrentScope() int { return len(t.locals) - 1 }

// EnterScope pushes a fresh, empty local mapping (spec §4.2).
func (t *Table) EnterScope() {
	t.locals = append(t.locals, make(map[string]Symbol))
}

// ExitScope retires the innermost local mapping. In a garbage-collected
// implementation there is nothing to explicitly free (see DESIGN.md):
// dropping the map makes every entry but the procedure's own
// parent-aliased self-reference collectible, exactly the invariant
// spec §4.2 describes.
func (t *Table) ExitScope() {
	if len(t.locals) <= 1 {
		internalErrorf("unable to remove scope")
	}
	t.locals = t.locals[:len(t.locals)-1]
}

// Insert adds sym under name, routed to the global map or the innermost
// local map depending on global.
func (t *Table) Insert(name string, sym Symbol, global bool) {
	if global {
		t.global[name] = sym
	} else {
		t.locals[t.CurrentScope()][name] = sym
	}
}

// InsertIntoParent aliases sym into the scope enclosing the current one —
// used once a procedure's header is parsed, so the procedure is visible
// both to itself (for recursion) and to its caller (spec §3 "Insertion
// policy", §4.4 proc_decl).
func (t *Table) InsertIntoParent(name string, sym Symbol, parentIsGlobal bool) {
	if parentIsGlobal {
		t.global[name] = sym
		return
	}
	parent := t.CurrentScope() - 1
	if parent < 0 {
		internalErrorf("no parent scope to alias into")
	}
	t.locals[parent][name] = sym
}

// Lookup resolves name against the local scope first, then the global
// scope, per spec §3's two-tier lookup policy. ok is false on a full miss.
func (t *Table) Lookup(name string) (Symbol, bool) {
	if sym, ok := t.locals[t.CurrentScope()][name]; ok {
		return sym, true
	}
	if sym, ok := t.global[name]; ok {
		return sym, true
	}
	return nil, false
}

// Classify implements lex.Classifier: it resolves an assembled identifier
// lexeme into the TokenFrame the scanner hands to the parser.
func (t *Table) Classify(name string) lex.TokenFrame {
	if sym, ok := t.locals[t.CurrentScope()][name]; ok {
		return lex.TokenFrame{Kind: kindOf(sym), Lexeme: name, IsGlobal: false}
	}
	if sym, ok := t.global[name]; ok {
		return lex.TokenFrame{Kind: kindOf(sym), Lexeme: name, IsGlobal: true}
	}
	return lex.TokenFrame{Kind: lex.NONE, Lexeme: name}
}

func kindOf(sym Symbol) lex.TokenKind {
	switch sym.(type) {
	case *Reserved:
		return lex.RESERVED
	case *Operator:
		return lex.OPERATOR
	default:
		return lex.IDENTIFIER
	}
}

// VisibleNames returns the set of names resolvable at the current scope
// (local shadowing global), used by tests to check the scope-balance
// invariant of spec §8 property 2.
func (t *Table) VisibleNames() map[string]Symbol {
	out := make(map[string]Symbol, len(t.global))
	for k, v := range t.global {
		out[k] = v
	}
	for k, v := range t.locals[t.CurrentScope()] {
		out[k] = v
	}
	return out
}

func (t *Table) String() string {
	return fmt.Sprintf("Table{scope=%d, globals=%d, locals=%d}", t.CurrentScope(), len(t.global), len(t.locals[t.CurrentScope()]))
}
