package compile

import (
	"bytes"
	"fmt"

	"github.com/moon45140/narcomp/symtab"
)

// Emitter writes the C text fragments the parser's grammar routines
// produce as they recognize constructs (spec §4.5: "emission is
// interleaved with parsing"). Its raw/line helper pair mirrors the
// reference emitter's raw/asm split: raw appends unindented text (labels,
// braces), line appends one indented statement. Writes are no-ops once
// ctx.ErrorCount > 0, so analysis can run to completion while the body
// already written is discarded at CompileFile's end (spec §4.4 "non-local
// invariant").
type Emitter struct {
	ctx *CompilerContext

	body    bytes.Buffer // programbody and procedure definitions
	prelude bytes.Buffer // deferred string-literal cell initializations
	runtime bytes.Buffer // trailing <name>_start trampolines for used runtime procs

	stringAddrs map[string]*symtab.Variable
	usedRuntime map[string]bool
}

func NewEmitter(ctx *CompilerContext) *Emitter {
	return &Emitter{
		ctx:         ctx,
		stringAddrs: make(map[string]*symtab.Variable),
		usedRuntime: make(map[string]bool),
	}
}

func (e *Emitter) raw(format string, args ...interface{}) {
	if e.ctx.ErrorCount > 0 {
		return
	}
	fmt.Fprintf(&e.body, format, args...)
}

func (e *Emitter) line(format string, args ...interface{}) {
	e.raw("  "+format+"\n", args...)
}

func (e *Emitter) label(name string) {
	e.raw("%s:\n", name)
}

// StringLiteral interns value, emitting its cell initializations into the
// prelude exactly once (spec §4.5 "String literals" / scenario S6), and
// returns the pseudo-variable symbol every occurrence of value resolves
// to. The key used for the symbol table entry can never collide with a
// source identifier, since '"' is not a LETTER.
func (e *Emitter) StringLiteral(value string) *symtab.Variable {
	if v, ok := e.stringAddrs[value]; ok {
		return v
	}
	key := "\"" + value
	addr := e.ctx.MemoryPointer
	v := &symtab.Variable{Ident: key, Type: symtab.STRINGT, Address: addr, IsGlobal: true}
	e.stringAddrs[value] = v
	e.ctx.Table.Insert(key, v, true)

	if e.ctx.ErrorCount == 0 {
		for _, ch := range value {
			fmt.Fprintf(&e.prelude, "  MM[%d].charVal = '%c';\n", e.ctx.MemoryPointer, ch)
			e.ctx.MemoryPointer++
		}
		fmt.Fprintf(&e.prelude, "  MM[%d].charVal = '\\0';\n", e.ctx.MemoryPointer)
		e.ctx.MemoryPointer++
	}
	return v
}

// operand renders a read of register reg holding a value of type actual,
// promoted to the field resultType will be stored under — the "mixed
// int/float arithmetic is emitted as a float operation with the
// appropriate field reads on each side" rule of spec §4.5.
func operand(reg int, actual, resultType symtab.DataType) string {
	field := fieldOf(actual)
	expr := fmt.Sprintf("R[%d].%s", reg, field)
	if resultType == symtab.FLOAT && actual != symtab.FLOAT {
		expr = "(float)" + expr
	}
	return expr
}

// LoadNumberLiteral emits a load of a NUMBER token's value into a fresh
// register and returns (register, type): FLOAT if the lexeme contains
// '.', INTEGER otherwise.
func (e *Emitter) LoadNumberLiteral(lexeme string, isFloat bool) (int, symtab.DataType) {
	r := e.ctx.AllocRegister()
	if isFloat {
		e.line("R[%d].floatVal = %s;", r, lexeme)
		return r, symtab.FLOAT
	}
	e.line("R[%d].intVal = %s;", r, lexeme)
	return r, symtab.INTEGER
}

func (e *Emitter) LoadBoolLiteral(v bool) int {
	r := e.ctx.AllocRegister()
	if v {
		e.line("R[%d].intVal = 1;", r)
	} else {
		e.line("R[%d].intVal = 0;", r)
	}
	return r
}

// LoadStringLiteral emits a load of the pointer to value's interned
// storage into a fresh register.
func (e *Emitter) LoadStringLiteral(value string) int {
	v := e.StringLiteral(value)
	r := e.ctx.AllocRegister()
	e.line("R[%d].stringVal = (char *)&MM[%d];", r, v.Address)
	return r
}

// LoadVariable emits a load of sym's storage cell into a fresh register
// and returns the register. index, if non-negative, is an already
// evaluated INTEGER-typed register holding an array subscript.
// frameLocalCount is the enclosing procedure's local-slot count (0 at
// top level or when sym is not a parameter); it resolves the parameter
// addressing offset described in cellRef.
func (e *Emitter) LoadVariable(sym *symtab.Variable, indexReg int, frameLocalCount int) int {
	r := e.ctx.AllocRegister()
	addr := cellRef(sym, indexReg, frameLocalCount)
	e.line("R[%d].%s = %s.%s;", r, fieldOf(sym.Type), addr, fieldOf(sym.Type))
	return r
}

// cellRef renders the MM[] cell expression for sym, per the addressing
// plan of spec §3: a global's Address is an absolute MM index; a local's
// Address is an offset from the current frame pointer R[0]; a parameter's
// Address is a 0-based slot number that must be pushed past the frame's
// local region — "the callee accesses parameter i at MM[R[0] +
// local_count + i] and locals at MM[R[0] + i]" — hence the extra
// frameLocalCount term for parameters only.
func cellRef(sym *symtab.Variable, indexReg int, frameLocalCount int) string {
	var base string
	switch {
	case sym.IsGlobal:
		base = fmt.Sprintf("%d", sym.Address)
	case sym.IsParameter:
		base = fmt.Sprintf("R[0].intVal + %d", frameLocalCount+sym.Address)
	default:
		base = fmt.Sprintf("R[0].intVal + %d", sym.Address)
	}
	if indexReg >= 0 {
		return fmt.Sprintf("MM[%s + R[%d].intVal]", base, indexReg)
	}
	return fmt.Sprintf("MM[%s]", base)
}

// StoreVariable emits dst := src (register valueReg holding a value of
// type srcType), applying the promotion/truncation/runtime-check the
// compatibility table of spec §4.4 calls for.
func (e *Emitter) StoreVariable(dst *symtab.Variable, indexReg int, valueReg int, srcType symtab.DataType, frameLocalCount int) {
	cell := cellRef(dst, indexReg, frameLocalCount)
	if needsRuntimeBoolCheck(dst.Type, srcType) {
		// Known reference-implementation bug (spec §9 Open Questions):
		// the runtime guard must name the actual result register, not
		// the literal text "R[resultRegister]".
		e.line("if (R[%d].intVal != 0 && R[%d].intVal != 1) goto runtimeerror;", valueReg, valueReg)
	}
	switch {
	case dst.Type == srcType:
		e.line("%s.%s = R[%d].%s;", cell, fieldOf(dst.Type), valueReg, fieldOf(srcType))
	case dst.Type == symtab.FLOAT && srcType == symtab.INTEGER:
		e.line("%s.floatVal = (float)R[%d].intVal;", cell, valueReg)
	case dst.Type == symtab.INTEGER && srcType == symtab.FLOAT:
		e.line("%s.intVal = (int)R[%d].floatVal;", cell, valueReg)
	case dst.Type == symtab.BOOL && srcType == symtab.INTEGER:
		e.line("%s.intVal = R[%d].intVal;", cell, valueReg)
	case dst.Type == symtab.INTEGER && srcType == symtab.BOOL:
		e.line("%s.intVal = R[%d].intVal;", cell, valueReg)
	default:
		e.line("%s.%s = R[%d].%s;", cell, fieldOf(dst.Type), valueReg, fieldOf(srcType))
	}
}

// BinOp emits dest := left <op> right, where left/right are registers
// holding operands of leftType/rightType and result is max(leftType,
// rightType) (spec §3/§4.4). cop is the C infix operator text.
func (e *Emitter) BinOp(left int, leftType symtab.DataType, cop string, right int, rightType symtab.DataType, result symtab.DataType) int {
	dest := e.ctx.AllocRegister()
	e.line("R[%d].%s = %s %s %s;", dest, fieldOf(result), operand(left, leftType, result), cop, operand(right, rightType, result))
	return dest
}

// Relation emits a comparison, whose result is always BOOL (spec §4.4).
func (e *Emitter) Relation(left int, leftType symtab.DataType, cop string, right int, rightType symtab.DataType) int {
	dest := e.ctx.AllocRegister()
	cmpType := symtab.MaxType(leftType, rightType)
	e.line("R[%d].intVal = (%s %s %s) ? 1 : 0;", dest, operand(left, leftType, cmpType), cop, operand(right, rightType, cmpType))
	return dest
}

// Not emits C's logical '!' for both bool and integer operands; result
// type matches operand.
func (e *Emitter) Not(reg int, t symtab.DataType) int {
	dest := e.ctx.AllocRegister()
	e.line("R[%d].%s = !%s;", dest, fieldOf(t), operand(reg, t, t))
	return dest
}

// Negate emits unary minus.
func (e *Emitter) Negate(reg int, t symtab.DataType) int {
	dest := e.ctx.AllocRegister()
	e.line("R[%d].%s = -%s;", dest, fieldOf(t), operand(reg, t, t))
	return dest
}

// IfTest emits the conditional-branch pair opening an if statement
// (spec §4.5) and returns the monotonic id used by the labels.
func (e *Emitter) IfTest(condReg int) int {
	id := e.ctx.NextIfID()
	e.line("if (R[%d].intVal == 1) goto if%d_start; else goto else%d_start;", condReg, id, id)
	e.label(fmt.Sprintf("if%d_start", id))
	return id
}

func (e *Emitter) IfElse(id int) {
	e.line("goto endif%d;", id)
	e.label(fmt.Sprintf("else%d_start", id))
}

func (e *Emitter) IfEnd(id int) {
	e.label(fmt.Sprintf("endif%d", id))
}

// LoopCheck opens a for statement: the initializer has already been
// emitted by the caller. Returns the monotonic id and emits the check
// label the back-edge jumps to.
func (e *Emitter) LoopCheck() int {
	id := e.ctx.NextLoopID()
	e.label(fmt.Sprintf("loop%d_check", id))
	return id
}

func (e *Emitter) LoopTest(id, condReg int) {
	e.line("if (R[%d].intVal == 1) goto loop%d_start; else goto endloop%d;", condReg, id, id)
	e.label(fmt.Sprintf("loop%d_start", id))
}

func (e *Emitter) LoopEnd(id int) {
	e.line("goto loop%d_check;", id)
	e.label(fmt.Sprintf("endloop%d", id))
}

// ProcedureStart emits the entry label, reserves the frame's local
// region by decrementing the stack pointer past it, and transports each
// "in" parameter from the caller's R[200..) staging registers into the
// callee's frame (spec §4.5). localCount is the procedure's own declared
// local-slot count.
func (e *Emitter) ProcedureStart(proc *symtab.Procedure, localCount int) {
	e.label(fmt.Sprintf("%s_start", proc.Ident))
	e.line("R[0].intVal = R[0].intVal - %d;", localCount)
	for i, d := range proc.Directions {
		if !d {
			continue
		}
		param, _ := resolveVariableRef(proc.Parameters[i])
		e.line("MM[R[0].intVal + %d].%s = R[%d].%s;", localCount+i, fieldOf(param.Type), ArgBase+i, fieldOf(param.Type))
	}
}

// ProcedureEnd emits the epilogue: restore the stack pointer past the
// local frame, copy out-parameters back to the caller's staging
// registers, then jump through jumpRegister (spec §4.5). At this point
// the frame pointer's parameter-relative and the call site's
// arity-relative addressing coincide, which is why the out-parameter
// copy and the jumpRegister load both read relative to the restored R[0].
func (e *Emitter) ProcedureEnd(proc *symtab.Procedure, localCount int) {
	e.line("R[0].intVal = R[0].intVal + %d;", localCount)
	for i, d := range proc.Directions {
		if d {
			continue
		}
		param, _ := resolveVariableRef(proc.Parameters[i])
		e.line("R[%d].%s = MM[R[0].intVal + %d].%s;", ArgBase+i, fieldOf(param.Type), i, fieldOf(param.Type))
	}
	e.line("jumpRegister = MM[R[0].intVal + %d].labelVal;", proc.Arity())
	e.line("goto *jumpRegister;")
}

// CallArgument stages one actual argument into R[200+index] ahead of a
// procedure call.
func (e *Emitter) CallArgument(index int, valueReg int, argType symtab.DataType) {
	e.line("R[%d].%s = %s;", ArgBase+index, fieldOf(argType), operand(valueReg, argType, argType))
}

// Call emits the push-return-address / jump / return-label sequence of
// spec §4.5, including the unique return label itself and the stack
// pointer restore that follows it, and returns that label's name. The
// caller copies out-parameters back to their destinations afterwards.
func (e *Emitter) Call(proc *symtab.Procedure) string {
	site := proc.NextReturnSite()
	label := fmt.Sprintf("%s_return%d", proc.Ident, site)
	e.line("R[0].intVal = R[0].intVal - 1;")
	e.line("MM[R[0].intVal].labelVal = &&%s;", label)
	e.line("R[0].intVal = R[0].intVal - %d;", proc.Arity())
	e.line("goto %s_start;", proc.Ident)
	e.label(label)
	e.line("R[0].intVal = R[0].intVal + %d;", proc.Arity()+1)
	return label
}

// CallResult reads back an out-parameter that was staged into
// R[200+index] by the callee's epilogue into a fresh register usable by
// the caller's expression tree.
func (e *Emitter) CallResult(index int, t symtab.DataType) int {
	r := e.ctx.AllocRegister()
	e.line("R[%d].%s = R[%d].%s;", r, fieldOf(t), ArgBase+index, fieldOf(t))
	return r
}

// ReturnMain emits the host C function's own return from the top-level
// "return" statement (spec §4.5).
func (e *Emitter) ReturnMain() {
	e.line("return 0;")
}

// MarkRuntimeUsed flags proc as needing a trampoline to the external C
// runtime in the trailing block (spec §4.5 "Runtime wiring").
func (e *Emitter) MarkRuntimeUsed(name string) {
	e.usedRuntime[name] = true
}

// runtimeDispatch is the call-ABI-compatible trampoline to one runtime
// procedure: a label any user call site can goto_start into, that invokes
// the external C runtime function and then performs the same
// argument-transport-back and jumpRegister return as a user procedure
// epilogue (spec §4.5 "Runtime wiring", §6.3).
func runtimeDispatch(proc *symtab.Procedure) string {
	var b bytes.Buffer
	param, _ := resolveVariableRef(proc.Parameters[0])
	in := proc.Directions[0]
	fmt.Fprintf(&b, "%s_start:\n", proc.Ident)
	if in {
		fmt.Fprintf(&b, "  %s(R[%d].%s);\n", proc.Ident, ArgBase, fieldOf(param.Type))
	} else {
		fmt.Fprintf(&b, "  R[%d].%s = %s();\n", ArgBase, fieldOf(param.Type), proc.Ident)
	}
	fmt.Fprintf(&b, "  jumpRegister = MM[R[0].intVal + %d].labelVal;\n", proc.Arity())
	fmt.Fprintf(&b, "  goto *jumpRegister;\n")
	return b.String()
}

// Finish renders the complete C translation unit of spec §6.3: the
// MemoryFrame typedef, the R[]/MM[] static arrays, forward declarations
// of the eight runtime functions, and an int main containing
// programsetup/programbody, the parsed body, the trailing runtime
// trampolines for every procedure a call site actually used, and a
// runtimeerror label. table is consulted to resolve the runtime
// Procedure records by name.
func (e *Emitter) Finish(table *symtab.Table) string {
	var out bytes.Buffer

	out.WriteString("#include <stdio.h>\n")
	out.WriteString("#include <stdlib.h>\n\n")

	out.WriteString("typedef union {\n")
	out.WriteString("  int intVal;\n")
	out.WriteString("  float floatVal;\n")
	out.WriteString("  char charVal;\n")
	out.WriteString("  char *stringVal;\n")
	out.WriteString("  void *labelVal;\n")
	out.WriteString("} MemoryFrame;\n\n")

	fmt.Fprintf(&out, "static MemoryFrame R[%d];\n", RegisterSize)
	fmt.Fprintf(&out, "static MemoryFrame MM[%d];\n\n", MemorySize)

	for _, name := range []string{"getBool", "getInteger", "getFloat", "getString"} {
		sym, _ := table.Lookup(name)
		proc := sym.(*symtab.Procedure)
		param := proc.Parameters[0].(*symtab.Variable)
		fmt.Fprintf(&out, "extern %s %s(void);\n", cTypeName(param.Type), name)
	}
	for _, name := range []string{"putBool", "putInteger", "putFloat", "putString"} {
		sym, _ := table.Lookup(name)
		proc := sym.(*symtab.Procedure)
		param := proc.Parameters[0].(*symtab.Variable)
		fmt.Fprintf(&out, "extern void %s(%s);\n", name, cTypeName(param.Type))
	}
	out.WriteString("\n")

	out.WriteString("int main(void) {\n")
	out.WriteString("  void *jumpRegister;\n")
	out.WriteString("  R[0].intVal = " + fmt.Sprint(MemorySize) + ";\n")
	out.WriteString("  goto programsetup;\n")
	out.WriteString("programsetup:\n")
	out.Write(e.prelude.Bytes())
	out.WriteString("  goto programbody;\n")
	out.WriteString("programbody:\n")
	out.Write(e.body.Bytes())

	for _, name := range []string{"getBool", "getInteger", "getFloat", "getString", "putBool", "putInteger", "putFloat", "putString"} {
		if !e.usedRuntime[name] {
			continue
		}
		sym, _ := table.Lookup(name)
		out.WriteString(runtimeDispatch(sym.(*symtab.Procedure)))
	}

	out.WriteString("runtimeerror:\n")
	out.WriteString("  fprintf(stderr, \"runtime error\\n\");\n")
	out.WriteString("  abort();\n")
	out.WriteString("}\n")
	out.WriteString("#include \"runtime.c\"\n")

	return out.String()
}

func cTypeName(t symtab.DataType) string {
	switch t {
	case symtab.FLOAT:
		return "float"
	case symtab.STRINGT:
		return "char *"
	default:
		return "int"
	}
}
