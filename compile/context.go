// Package compile implements the parser/checker/emitter of spec §4.3-§4.5:
// a recursive-descent walker over the token stream lex.Scanner produces,
// consulting and mutating a symtab.Table as it goes, that interleaves
// syntax checking, type checking and C emission in a single pass.
package compile

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/moon45140/narcomp/symtab"
)

// diagnosticColor mirrors the teacher's report.go, retargeted from an
// always-plain caret printer to a terminal-aware one (grounded on
// lollipopkit-lk's term-backed diagnostic printer): color is only added
// when stderr is a terminal and NO_COLOR is unset.
var diagnosticColor = term.IsTerminal(int(os.Stderr.Fd())) && os.Getenv("NO_COLOR") == ""

const (
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
	ansiReset  = "\x1b[0m"
)

func diagTag(label, color string) string {
	if !diagnosticColor {
		return label
	}
	return color + label + ansiReset
}

// Abstract-machine dimensions referenced by the emitted C (spec §3/§6.3).
const (
	RegisterSize = 256
	MemorySize   = 65536
	// ArgBase is the first of the R[200..200+arity) registers the caller
	// stages actual arguments into before a procedure call (spec §4.5).
	ArgBase = 200
)

// CompilerContext gathers the module-scope mutable state the reference
// implementation threads through package-level variables — line number,
// diagnostic counters, and the emitter's register/memory/label cursors —
// into one value passed explicitly to every parser and emitter method
// (spec §9 "Global mutable state"). This also makes the core testable
// without any process-level setup.
type CompilerContext struct {
	Table *symtab.Table

	LinesRead    int
	WarningCount int
	ErrorCount   int

	RegisterPointer    int
	MemoryPointer      int
	LocalMemoryPointer int
	IfID               int
	LoopID             int

	stderr *os.File
}

// NewCompilerContext returns a context with storage cursors initialized
// per the address plan of spec §3: address 0 is reserved, so globals
// start at 1; the register cursor starts at 2 since R[0]/R[1] are
// reserved for the stack pointer and the string high-water mark.
func NewCompilerContext(table *symtab.Table) *CompilerContext {
	return &CompilerContext{
		Table:              table,
		MemoryPointer:      1,
		LocalMemoryPointer: 0,
		RegisterPointer:    2,
		stderr:             os.Stderr,
	}
}

// Warning implements lex.Diagnostics: it is handed to the Scanner so
// lexical issues are reported in the format of spec §6.5.
func (c *CompilerContext) Warning(line int, format string, args ...interface{}) {
	c.WarningCount++
	fmt.Fprintf(c.stderr, "%s: Line %d: "+format+"\n", append([]interface{}{diagTag("Warning", ansiYellow), line}, args...)...)
}

// Errorf records a syntax or semantic error in the format of spec §6.5.
// Unlike Warning, errors gate emission: once ErrorCount > 0, the
// Emitter's writes become no-ops for the remainder of the run.
func (c *CompilerContext) Errorf(line int, format string, args ...interface{}) {
	c.ErrorCount++
	fmt.Fprintf(c.stderr, "%s: Line %d: "+format+"\n", append([]interface{}{diagTag("Error", ansiRed), line}, args...)...)
}

// ResetRegisters reclaims the per-statement temporary registers (spec
// §4.5: "a per-statement cursor register_pointer is reset to 2 before
// each statement").
func (c *CompilerContext) ResetRegisters() {
	c.RegisterPointer = 2
}

// AllocRegister hands out the next free temporary register.
func (c *CompilerContext) AllocRegister() int {
	r := c.RegisterPointer
	c.RegisterPointer++
	return r
}

// NextIfID and NextLoopID hand out the monotonic label-id sequences spec
// §4.5's control-flow emission rules require.
func (c *CompilerContext) NextIfID() int {
	id := c.IfID
	c.IfID++
	return id
}

func (c *CompilerContext) NextLoopID() int {
	id := c.LoopID
	c.LoopID++
	return id
}
