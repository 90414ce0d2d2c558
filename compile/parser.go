package compile

import (
	"strconv"
	"strings"

	"github.com/moon45140/narcomp/lex"
	"github.com/moon45140/narcomp/symtab"
)

// resyncSignal is panicked by syntaxErrorf to unwind to the nearest
// block-structured routine's recovery point, generalizing the reference
// implementation's single top-level panic/recover (cc's parseErrorBreakOut)
// into the per-nonterminal resync spec §4.4 requires.
type resyncSignal struct{}

// runtimeProcNames is the closed set of pre-bound I/O procedures of spec
// §6.2; a call to one of them flags its trailing trampoline as needed
// (spec §4.5 "Runtime wiring") rather than a user-declared procedure body.
var runtimeProcNames = map[string]bool{
	"getBool": true, "getInteger": true, "getFloat": true, "getString": true,
	"putBool": true, "putInteger": true, "putFloat": true, "putString": true,
}

// Parser is the recursive-descent walker of spec §4.3-§4.5: it maintains
// a two-token lookahead window over the Scanner's output, consults and
// mutates the Table as it recognizes declarations, and drives the
// Emitter in lockstep with recognition (no intermediate tree).
type Parser struct {
	scanner *lex.Scanner
	table   *symtab.Table
	ctx     *CompilerContext
	emit    *Emitter

	curr     lex.TokenFrame
	currLine int
	curEOF   bool

	next     lex.TokenFrame
	nextLine int
	nextEOF  bool

	currentProc     *symtab.Procedure
	frameLocalCount int
}

// NewParser wires a Scanner (which must already be configured to consult
// table for identifier classification) to a fresh Parser/Emitter pair.
func NewParser(scanner *lex.Scanner, table *symtab.Table, ctx *CompilerContext) *Parser {
	p := &Parser{
		scanner: scanner,
		table:   table,
		ctx:     ctx,
		emit:    NewEmitter(ctx),
	}
	p.curr, p.currLine, p.curEOF = p.fetch()
	p.next, p.nextLine, p.nextEOF = p.fetch()
	return p
}

func (p *Parser) fetch() (lex.TokenFrame, int, bool) {
	tok, err := p.scanner.Next()
	line := p.scanner.Line()
	if err != nil {
		return lex.TokenFrame{Kind: lex.UNKNOWN}, line, true
	}
	return tok, line, false
}

func (p *Parser) advance() {
	p.curr, p.currLine, p.curEOF = p.next, p.nextLine, p.nextEOF
	p.next, p.nextLine, p.nextEOF = p.fetch()
}

func (p *Parser) curIsKeyword(w string) bool {
	return !p.curEOF && p.curr.Kind == lex.RESERVED && p.curr.Lexeme == w
}

func (p *Parser) curIsOperator(op string) bool {
	return !p.curEOF && p.curr.Kind == lex.OPERATOR && p.curr.Lexeme == op
}

func (p *Parser) nextIsOperator(op string) bool {
	return !p.nextEOF && p.next.Kind == lex.OPERATOR && p.next.Lexeme == op
}

func (p *Parser) curDesc() string {
	if p.curEOF {
		return "end of file"
	}
	return p.curr.String()
}

func (p *Parser) syntaxErrorf(format string, args ...interface{}) {
	p.ctx.Errorf(p.currLine, format, args...)
	panic(resyncSignal{})
}

func (p *Parser) semanticErrorf(format string, args ...interface{}) {
	p.ctx.Errorf(p.currLine, format, args...)
}

func (p *Parser) expectKeyword(w string) {
	if !p.curIsKeyword(w) {
		p.syntaxErrorf("expected %q, got %s", w, p.curDesc())
	}
	p.advance()
}

func (p *Parser) expectOperator(op string) {
	if !p.curIsOperator(op) {
		p.syntaxErrorf("expected %q, got %s", op, p.curDesc())
	}
	p.advance()
}

// resyncBlock is the panic-mode recovery of spec §4.4: it advances past
// tokens until the "end" closeWord balancing the current block has been
// consumed, tracking nested openers of openKeyword. The authoritative
// reference stage increments the nesting counter as soon as another
// opener is seen and decrements only once it has been established that
// an "end" pair is not the outermost one — the earlier, superseded stage
// gets this ordering backwards (spec §9 Open Questions).
func (p *Parser) resyncBlock(openKeyword, closeWord string) {
	depth := 0
	for !p.curEOF {
		if p.curIsKeyword(openKeyword) {
			depth++
			p.advance()
			continue
		}
		if p.curIsKeyword("end") {
			p.advance()
			if p.curIsKeyword(closeWord) {
				p.advance()
				if depth == 0 {
					return
				}
				depth--
			}
			continue
		}
		p.advance()
	}
}

// resyncToSemicolon is the follow-set boundary for declarations and
// simple statements: advance past the offending tokens up to and
// including the next ";", or up to (not including) an enclosing "end".
func (p *Parser) resyncToSemicolon() {
	for !p.curEOF {
		if p.curIsOperator(";") {
			p.advance()
			return
		}
		if p.curIsKeyword("end") {
			return
		}
		p.advance()
	}
}

// parseDeclName consumes a name being freshly declared. ok is false when
// the name cannot be used for a declaration (a reserve word, spec §8
// property 3) or when the current token isn't identifier-shaped at all.
func (p *Parser) parseDeclName(context string) (string, bool) {
	if p.curr.Kind == lex.RESERVED {
		name := p.curr.Lexeme
		p.semanticErrorf("cannot use reserve word %q as %s", name, context)
		p.advance()
		return name, false
	}
	if p.curr.Kind != lex.IDENTIFIER && p.curr.Kind != lex.NONE {
		p.syntaxErrorf("expected an identifier for %s, got %s", context, p.curDesc())
		return "", false
	}
	name := p.curr.Lexeme
	p.advance()
	return name, true
}

// parseIdentRef consumes a reference to a previously declared name,
// reporting "undeclared identifier" (spec scenario S4) when the scanner
// classified it NONE.
func (p *Parser) parseIdentRef(context string) (symtab.Symbol, string, bool) {
	line := p.currLine
	if p.curr.Kind == lex.RESERVED {
		name := p.curr.Lexeme
		p.semanticErrorf("cannot use reserve word %q as %s", name, context)
		p.advance()
		return nil, name, false
	}
	if p.curr.Kind != lex.IDENTIFIER && p.curr.Kind != lex.NONE {
		p.syntaxErrorf("expected an identifier for %s, got %s", context, p.curDesc())
		return nil, "", false
	}
	name := p.curr.Lexeme
	if p.curr.Kind == lex.NONE {
		p.ctx.Errorf(line, "undeclared identifier %q", name)
		p.advance()
		return nil, name, false
	}
	sym, _ := p.table.Lookup(name)
	p.advance()
	return sym, name, true
}

// Parse is the compiler's entry point: spec §4.3's "entry is the start
// nonterminal". The outer recover is a safety net for a syntax error at a
// point with no enclosing per-nonterminal resync (e.g. a malformed
// "program"/"is"/"begin"/"end" skeleton keyword); everything else is
// caught and resynced locally by parseProcDecl/parseIf/parseLoop/
// parseVarDecl/parseStatement.
func (p *Parser) Parse() {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(resyncSignal); ok {
				return
			}
			panic(r)
		}
	}()
	p.parseProgram()
}

// program = "program" IDENT "is" declarations? "begin" statements? "end" "program"
func (p *Parser) parseProgram() {
	p.expectKeyword("program")
	p.parseDeclName("a program name")
	p.expectKeyword("is")
	p.parseDeclarations()
	p.expectKeyword("begin")
	p.parseStatements()
	p.expectKeyword("end")
	p.expectKeyword("program")
}

func (p *Parser) startsDeclaration() bool {
	return p.curIsKeyword("global") || p.curIsKeyword("procedure") || p.isTypeKeyword()
}

func (p *Parser) isTypeKeyword() bool {
	if p.curEOF || p.curr.Kind != lex.RESERVED {
		return false
	}
	switch p.curr.Lexeme {
	case "integer", "float", "bool", "string":
		return true
	}
	return false
}

func (p *Parser) parseDeclarations() {
	for p.startsDeclaration() {
		p.parseDeclaration()
	}
}

// declaration = ( "global"? ( proc_decl | var_decl ) ) ";"
//
// Absent an explicit "global" prefix, a declaration is local to whatever
// scope is current — at depth 0 that is the implicit outermost frame,
// not the global map (spec §3 symbol table lookup/insertion policy).
func (p *Parser) parseDeclaration() {
	global := false
	if p.curIsKeyword("global") {
		global = true
		p.advance()
	}
	if p.curIsKeyword("procedure") {
		p.parseProcDecl(global)
	} else {
		p.parseVarDecl(global)
	}
}

// parseType = "integer" | "float" | "bool" | "string"
func (p *Parser) parseType() symtab.DataType {
	if p.curr.Kind == lex.RESERVED {
		switch p.curr.Lexeme {
		case "integer":
			p.advance()
			return symtab.INTEGER
		case "float":
			p.advance()
			return symtab.FLOAT
		case "bool":
			p.advance()
			return symtab.BOOL
		case "string":
			p.advance()
			return symtab.STRINGT
		}
	}
	p.syntaxErrorf("expected a type, got %s", p.curDesc())
	return symtab.INVALID
}

// allocAddress hands out the next storage slot(s) for a declaration,
// routed to the global region, the current procedure's local region, or
// the top-level local region, per the address plan of spec §3.
func (p *Parser) allocAddress(global bool, length int) int {
	if global {
		addr := p.ctx.MemoryPointer
		p.ctx.MemoryPointer += length
		return addr
	}
	if p.currentProc != nil {
		addr := p.currentProc.LocalAddressCursor
		p.currentProc.LocalAddressCursor += length
		return addr
	}
	addr := p.ctx.LocalMemoryPointer
	p.ctx.LocalMemoryPointer += length
	return addr
}

// var_decl = type IDENT ("[" NUMBER "]")?
func (p *Parser) parseVarDecl(global bool) (v *symtab.Variable) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(resyncSignal); ok {
				p.resyncToSemicolon()
				return
			}
			panic(r)
		}
	}()
	v = p.parseVarDeclInner(global)
	p.expectOperator(";")
	return v
}

func (p *Parser) parseVarDeclInner(global bool) *symtab.Variable {
	dtype := p.parseType()
	name, ok := p.parseDeclName("a variable name")
	if !ok {
		return nil
	}
	if _, exists := p.table.Lookup(name); exists {
		p.semanticErrorf("redeclaration of %q", name)
	}

	length := 1
	isArray := false
	if p.curIsOperator("[") {
		p.advance()
		if p.curr.Kind != lex.NUMBER {
			p.syntaxErrorf("expected an array length, got %s", p.curDesc())
		}
		n, err := strconv.Atoi(p.curr.Lexeme)
		if err != nil || n < 1 {
			p.semanticErrorf("array length must be a positive integer")
			n = 1
		}
		length = n
		isArray = true
		p.advance()
		p.expectOperator("]")
	}

	addr := p.allocAddress(global, length)
	base := symtab.Variable{Ident: name, Type: dtype, Address: addr, IsGlobal: global}
	var sym symtab.Symbol
	var result *symtab.Variable
	if isArray {
		arr := &symtab.Array{Variable: base, Length: length}
		sym = arr
		result = &arr.Variable
	} else {
		v := &base
		sym = v
		result = v
	}
	p.table.Insert(name, sym, global)
	return result
}

// parameter = var_decl ("in" | "out")
func (p *Parser) parseParameter(proc *symtab.Procedure) {
	dtype := p.parseType()
	name, ok := p.parseDeclName("a parameter name")

	length := 1
	isArray := false
	if p.curIsOperator("[") {
		p.advance()
		if p.curr.Kind != lex.NUMBER {
			p.syntaxErrorf("expected an array length, got %s", p.curDesc())
		}
		n, err := strconv.Atoi(p.curr.Lexeme)
		if err != nil || n < 1 {
			p.semanticErrorf("array length must be a positive integer")
			n = 1
		}
		length = n
		isArray = true
		p.advance()
		p.expectOperator("]")
	}

	dir := true
	switch {
	case p.curIsKeyword("in"):
		dir = true
		p.advance()
	case p.curIsKeyword("out"):
		dir = false
		p.advance()
	default:
		p.syntaxErrorf("expected 'in' or 'out', got %s", p.curDesc())
	}

	addr := proc.ParamAddressCursor
	proc.ParamAddressCursor += length
	base := symtab.Variable{Ident: name, Type: dtype, Address: addr, IsParameter: true}
	var sym symtab.Symbol = &base
	if isArray {
		sym = &symtab.Array{Variable: base, Length: length}
	}
	if ok {
		p.table.Insert(name, sym, false)
	}
	proc.Parameters = append(proc.Parameters, sym)
	proc.Directions = append(proc.Directions, dir)
}

// parameter_list = parameter ("," parameter)*
func (p *Parser) parseParameterList(proc *symtab.Procedure) {
	if p.curIsOperator(")") {
		return
	}
	p.parseParameter(proc)
	for p.curIsOperator(",") {
		p.advance()
		p.parseParameter(proc)
	}
}

// proc_decl = "procedure" IDENT "(" parameter_list? ")" declarations? "begin" statements? "end" "procedure"
func (p *Parser) parseProcDecl(global bool) {
	var outerProc *symtab.Procedure
	var outerLocalCount int
	enteredScope := false

	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(resyncSignal); ok {
				p.resyncBlock("procedure", "procedure")
				if p.curIsOperator(";") {
					p.advance()
				}
				if enteredScope {
					p.table.ExitScope()
					p.currentProc, p.frameLocalCount = outerProc, outerLocalCount
				}
				return
			}
			panic(r)
		}
	}()

	p.expectKeyword("procedure")
	name, ok := p.parseDeclName("a procedure name")
	if ok {
		if _, exists := p.table.Lookup(name); exists {
			p.semanticErrorf("redeclaration of %q", name)
		}
	}
	proc := &symtab.Procedure{Ident: name, IsGlobal: global}

	p.table.EnterScope()
	enteredScope = true
	outerProc, outerLocalCount = p.currentProc, p.frameLocalCount
	p.currentProc = proc

	p.expectOperator("(")
	p.parseParameterList(proc)
	p.expectOperator(")")

	if ok {
		p.table.InsertIntoParent(name, proc, global)
	}
	p.table.Insert(name, proc, false)

	p.parseDeclarations()
	p.frameLocalCount = proc.LocalAddressCursor

	p.expectKeyword("begin")
	p.emit.ProcedureStart(proc, p.frameLocalCount)
	p.parseStatements()
	p.emit.ProcedureEnd(proc, p.frameLocalCount)
	p.expectKeyword("end")
	p.expectKeyword("procedure")

	p.table.ExitScope()
	enteredScope = false
	p.currentProc, p.frameLocalCount = outerProc, outerLocalCount

	p.expectOperator(";")
}

func (p *Parser) startsStatement() bool {
	if p.curEOF {
		return false
	}
	if p.curr.Kind == lex.IDENTIFIER || p.curr.Kind == lex.NONE {
		return true
	}
	return p.curIsKeyword("if") || p.curIsKeyword("for") || p.curIsKeyword("return")
}

func (p *Parser) parseStatements() {
	for p.startsStatement() {
		p.parseStatement()
	}
}

// statement = assignment | proc_call | if | loop | "return"
func (p *Parser) parseStatement() {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(resyncSignal); ok {
				p.resyncToSemicolon()
				return
			}
			panic(r)
		}
	}()

	p.ctx.ResetRegisters()

	switch {
	case p.curIsKeyword("if"):
		p.parseIf()
	case p.curIsKeyword("for"):
		p.parseLoop()
	case p.curIsKeyword("return"):
		p.parseReturn()
	case p.curr.Kind == lex.IDENTIFIER || p.curr.Kind == lex.NONE:
		if p.nextIsOperator("(") {
			p.parseProcCall()
		} else {
			p.parseAssignment()
		}
		p.expectOperator(";")
	default:
		p.syntaxErrorf("unexpected token %s at start of statement", p.curDesc())
	}
}

func (p *Parser) parseReturn() {
	p.expectKeyword("return")
	if p.currentProc != nil {
		p.emit.ProcedureEnd(p.currentProc, p.frameLocalCount)
	} else {
		p.emit.ReturnMain()
	}
}

// resolveVariableRef narrows a looked-up Symbol to its underlying
// Variable (an Array's embedded Variable, for a subscripted reference).
func resolveVariableRef(sym symtab.Symbol) (*symtab.Variable, bool) {
	switch v := sym.(type) {
	case *symtab.Variable:
		return v, true
	case *symtab.Array:
		return &v.Variable, true
	default:
		return nil, false
	}
}

// destination = IDENT ("[" expression "]")?
// assignment  = destination ":=" expression
func (p *Parser) parseAssignment() {
	sym, name, ok := p.parseIdentRef("an assignment target")
	var variable *symtab.Variable
	if ok {
		var isVar bool
		variable, isVar = resolveVariableRef(sym)
		if !isVar {
			p.semanticErrorf("%q is not a variable", name)
			ok = false
		}
	}

	indexReg := -1
	if p.curIsOperator("[") {
		p.advance()
		idxReg, idxType := p.parseExpression()
		if idxType != symtab.INTEGER {
			p.semanticErrorf("array index must be type integer")
		}
		indexReg = idxReg
		p.expectOperator("]")
	}

	p.expectOperator(":=")
	valReg, valType := p.parseExpression()

	if ok && variable != nil {
		if !assignable(variable.Type, valType) {
			p.semanticErrorf("incompatible data types in assignment statement")
			return
		}
		p.emit.StoreVariable(variable, indexReg, valReg, valType, p.frameLocalCount)
	}
}

// proc_call = IDENT "(" argument_list? ")"
func (p *Parser) parseProcCall() {
	sym, name, ok := p.parseIdentRef("a procedure call target")
	var proc *symtab.Procedure
	if ok {
		pr, isProc := sym.(*symtab.Procedure)
		if !isProc {
			p.semanticErrorf("%q is not a procedure", name)
			ok = false
		} else {
			proc = pr
		}
	}

	p.expectOperator("(")

	var argRegs []int
	var argTypes []symtab.DataType
	var argDest []*symtab.Variable
	var argDestIndex []int

	if !p.curIsOperator(")") {
		idx := 0
		for {
			var dest *symtab.Variable
			destIdx := -1
			var r int
			var t symtab.DataType

			wantsOut := ok && idx < proc.Arity() && !proc.Directions[idx]
			if wantsOut && (p.curr.Kind == lex.IDENTIFIER) {
				asym, aname, refOK := p.parseIdentRef("an argument")
				if refOK {
					var isVar bool
					dest, isVar = resolveVariableRef(asym)
					if !isVar {
						p.semanticErrorf("%q is not a variable", aname)
						dest = nil
					}
				}
				if dest != nil && p.curIsOperator("[") {
					p.advance()
					ir, it := p.parseExpression()
					if it != symtab.INTEGER {
						p.semanticErrorf("array index must be type integer")
					}
					destIdx = ir
					p.expectOperator("]")
				}
				if dest != nil {
					r = p.emit.LoadVariable(dest, destIdx, p.frameLocalCount)
					t = dest.Type
				}
			} else {
				r, t = p.parseExpression()
			}

			argRegs = append(argRegs, r)
			argTypes = append(argTypes, t)
			argDest = append(argDest, dest)
			argDestIndex = append(argDestIndex, destIdx)
			idx++

			if p.curIsOperator(",") {
				p.advance()
				continue
			}
			break
		}
	}

	p.expectOperator(")")

	if !ok {
		return
	}
	if len(argRegs) != proc.Arity() {
		p.semanticErrorf("procedure %q expects %d argument(s), got %d", name, proc.Arity(), len(argRegs))
		return
	}
	for i, t := range argTypes {
		if t != proc.ParamType(i) {
			p.semanticErrorf("argument %d of %q has the wrong type", i+1, name)
			return
		}
	}

	if runtimeProcNames[name] {
		p.emit.MarkRuntimeUsed(name)
	}
	for i, r := range argRegs {
		p.emit.CallArgument(i, r, argTypes[i])
	}
	p.emit.Call(proc)
	for i, d := range proc.Directions {
		if d {
			continue
		}
		resReg := p.emit.CallResult(i, proc.ParamType(i))
		if argDest[i] != nil {
			p.emit.StoreVariable(argDest[i], argDestIndex[i], resReg, proc.ParamType(i), p.frameLocalCount)
		}
	}
}

// if = "if" "(" expression ")" "then" statements ("else" statements)? "end" "if"
func (p *Parser) parseIf() {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(resyncSignal); ok {
				p.resyncBlock("if", "if")
				return
			}
			panic(r)
		}
	}()

	p.expectKeyword("if")
	p.expectOperator("(")
	condReg, condType := p.parseExpression()
	if !isBoolOrInt(condType) {
		p.semanticErrorf("if condition must be type bool or integer")
	}
	p.expectOperator(")")
	p.expectKeyword("then")

	id := p.emit.IfTest(condReg)
	p.parseStatements()
	p.emit.IfElse(id)
	if p.curIsKeyword("else") {
		p.advance()
		p.parseStatements()
	}
	p.emit.IfEnd(id)

	p.expectKeyword("end")
	p.expectKeyword("if")
}

// loop = "for" "(" assignment ";" expression ")" statements "end" "for"
func (p *Parser) parseLoop() {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(resyncSignal); ok {
				p.resyncBlock("for", "for")
				return
			}
			panic(r)
		}
	}()

	p.expectKeyword("for")
	p.expectOperator("(")
	p.parseAssignment()
	p.expectOperator(";")

	id := p.emit.LoopCheck()
	condReg, condType := p.parseExpression()
	if !isBoolOrInt(condType) {
		p.semanticErrorf("for condition must be type bool or integer")
	}
	p.expectOperator(")")
	p.emit.LoopTest(id, condReg)

	p.parseStatements()
	p.emit.LoopEnd(id)

	p.expectKeyword("end")
	p.expectKeyword("for")
}

func cOp(op string) string {
	switch op {
	case "&":
		return "&&"
	case "|":
		return "||"
	default:
		return op
	}
}

// expression = "not" arith_op | arith_op (("&"|"|") arith_op)*
func (p *Parser) parseExpression() (int, symtab.DataType) {
	if p.curIsKeyword("not") {
		p.advance()
		r, t := p.parseArithOp()
		if !isBoolOrInt(t) {
			p.semanticErrorf("operand of 'not' must be type bool or integer")
		}
		return p.emit.Not(r, t), t
	}

	r, t := p.parseArithOp()
	for p.curIsOperator("&") || p.curIsOperator("|") {
		op := p.curr.Lexeme
		p.advance()
		r2, t2 := p.parseArithOp()
		if !isBoolOrInt(t) || !isBoolOrInt(t2) {
			p.semanticErrorf("operands of %q must be type bool or integer", op)
		}
		result := symtab.MaxType(t, t2)
		r = p.emit.BinOp(r, t, cOp(op), r2, t2, result)
		t = result
	}
	return r, t
}

// arith_op = relation (("+"|"-") relation)*
func (p *Parser) parseArithOp() (int, symtab.DataType) {
	r, t := p.parseRelation()
	for p.curIsOperator("+") || p.curIsOperator("-") {
		op := p.curr.Lexeme
		p.advance()
		r2, t2 := p.parseRelation()
		if !isNumeric(t) || !isNumeric(t2) {
			p.semanticErrorf("operands of %q must be type integer or float", op)
		}
		result := symtab.MaxType(t, t2)
		r = p.emit.BinOp(r, t, op, r2, t2, result)
		t = result
	}
	return r, t
}

func (p *Parser) curIsRelOp() bool {
	if p.curEOF || p.curr.Kind != lex.OPERATOR {
		return false
	}
	switch p.curr.Lexeme {
	case "<", ">", "<=", ">=", "==", "!=":
		return true
	}
	return false
}

// relation = term (("<"|">"|"<="|">="|"=="|"!=") term)*
func (p *Parser) parseRelation() (int, symtab.DataType) {
	r, t := p.parseTerm()
	for p.curIsRelOp() {
		op := p.curr.Lexeme
		p.advance()
		r2, t2 := p.parseTerm()
		if !isBoolOrInt(t) || !isBoolOrInt(t2) {
			p.semanticErrorf("operands of %q must be type bool or integer", op)
		}
		r = p.emit.Relation(r, t, op, r2, t2)
		t = symtab.BOOL
	}
	return r, t
}

// term = factor (("*"|"/") factor)*
func (p *Parser) parseTerm() (int, symtab.DataType) {
	r, t := p.parseFactor()
	for p.curIsOperator("*") || p.curIsOperator("/") {
		op := p.curr.Lexeme
		p.advance()
		r2, t2 := p.parseFactor()
		if !isNumeric(t) || !isNumeric(t2) {
			p.semanticErrorf("operands of %q must be type integer or float", op)
		}
		result := symtab.MaxType(t, t2)
		r = p.emit.BinOp(r, t, op, r2, t2, result)
		t = result
	}
	return r, t
}

// factor = "(" expression ")" | "-"? (IDENT destination-suffix | NUMBER) | STRING | "true" | "false"
func (p *Parser) parseFactor() (int, symtab.DataType) {
	if p.curIsOperator("(") {
		p.advance()
		r, t := p.parseExpression()
		p.expectOperator(")")
		return r, t
	}

	negate := false
	if p.curIsOperator("-") {
		negate = true
		p.advance()
	}

	switch {
	case p.curr.Kind == lex.IDENTIFIER || p.curr.Kind == lex.NONE:
		sym, name, ok := p.parseIdentRef("an expression operand")
		var variable *symtab.Variable
		if ok {
			var isVar bool
			variable, isVar = resolveVariableRef(sym)
			if !isVar {
				p.semanticErrorf("%q cannot be used as a value", name)
				ok = false
			}
		}

		indexReg := -1
		if p.curIsOperator("[") {
			p.advance()
			ir, it := p.parseExpression()
			if it != symtab.INTEGER {
				p.semanticErrorf("array index must be type integer")
			}
			indexReg = ir
			p.expectOperator("]")
		}

		if !ok || variable == nil {
			return p.ctx.AllocRegister(), symtab.INVALID
		}

		r := p.emit.LoadVariable(variable, indexReg, p.frameLocalCount)
		t := variable.Type
		if negate {
			r = p.emit.Negate(r, t)
		}
		return r, t

	case p.curr.Kind == lex.NUMBER:
		lexeme := p.curr.Lexeme
		isFloat := strings.Contains(lexeme, ".")
		p.advance()
		r, t := p.emit.LoadNumberLiteral(lexeme, isFloat)
		if negate {
			r = p.emit.Negate(r, t)
		}
		return r, t

	case p.curr.Kind == lex.STRING:
		value := p.curr.Lexeme
		p.advance()
		if negate {
			p.semanticErrorf("unary '-' cannot be applied to a string literal")
		}
		return p.emit.LoadStringLiteral(value), symtab.STRINGT

	case p.curIsKeyword("true"):
		p.advance()
		r := p.emit.LoadBoolLiteral(true)
		if negate {
			r = p.emit.Negate(r, symtab.BOOL)
		}
		return r, symtab.BOOL

	case p.curIsKeyword("false"):
		p.advance()
		r := p.emit.LoadBoolLiteral(false)
		if negate {
			r = p.emit.Negate(r, symtab.BOOL)
		}
		return r, symtab.BOOL

	default:
		p.syntaxErrorf("unexpected token %s in expression", p.curDesc())
		return 0, symtab.INVALID
	}
}
