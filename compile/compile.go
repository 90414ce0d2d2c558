package compile

import (
	"fmt"
	"io"
	"os"

	"github.com/moon45140/narcomp/lex"
	"github.com/moon45140/narcomp/symtab"
)

// Result reports the run summary spec §6.4's CLI surface prints: lines
// read, and the warning/error counts accumulated in the CompilerContext.
type Result struct {
	LinesRead    int
	WarningCount int
	ErrorCount   int
}

// CompileFile reads path, runs it through the lex -> symtab ->
// parser/checker/emitter pipeline of spec §2, and writes the resulting C
// translation unit to out when the run is error-free. It does not decide
// whether to keep or delete an already-created output file — that
// decision, and the open/close of the fixed-name output artifact, belongs
// to the driver (mirroring the reference implementation's compileFile,
// which is likewise indifferent to what out actually is).
func CompileFile(path string, out io.Writer) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open source file %s for compiling: %s", path, err)
	}
	defer f.Close()

	table := symtab.NewTable()
	ctx := NewCompilerContext(table)
	scanner := lex.NewScanner(f, table, ctx)
	parser := NewParser(scanner, table, ctx)

	parser.Parse()

	ctx.LinesRead = scanner.Line()
	result := Result{
		LinesRead:    ctx.LinesRead,
		WarningCount: ctx.WarningCount,
		ErrorCount:   ctx.ErrorCount,
	}

	// Non-local invariant (spec §4.4): once any error was recorded,
	// emission writes became no-ops from that error on, and no output
	// artifact is produced at all.
	if ctx.ErrorCount > 0 {
		return result, nil
	}

	fmt.Fprint(out, parser.emit.Finish(table))
	return result, nil
}
