package compile

import "github.com/moon45140/narcomp/symtab"

// isNumeric reports whether t may participate in arith_op/term
// ("+","-","*","/") per spec §4.4's type checking rules.
func isNumeric(t symtab.DataType) bool {
	return t == symtab.INTEGER || t == symtab.FLOAT
}

// isBoolOrInt reports whether t may participate in a not/&/| expression,
// an if/for condition, or a relation operand, per spec §4.4.
func isBoolOrInt(t symtab.DataType) bool {
	return t == symtab.BOOL || t == symtab.INTEGER
}

// assignable reports whether an expression of type src may be stored into
// a destination of type dst under the compatibility table of spec §4.4.
func assignable(dst, src symtab.DataType) bool {
	switch dst {
	case symtab.BOOL:
		return src == symtab.BOOL || src == symtab.INTEGER
	case symtab.INTEGER:
		return src == symtab.BOOL || src == symtab.INTEGER || src == symtab.FLOAT
	case symtab.FLOAT:
		return src == symtab.FLOAT || src == symtab.INTEGER
	case symtab.STRINGT:
		return src == symtab.STRINGT
	default:
		return false
	}
}

// needsRuntimeBoolCheck reports whether storing an expression of type src
// into a BOOL destination requires the 0/1 runtime guard of spec §4.4's
// compatibility table ("ok (runtime-check 0/1)").
func needsRuntimeBoolCheck(dst, src symtab.DataType) bool {
	return dst == symtab.BOOL && src == symtab.INTEGER
}

// fieldOf names the tagged-union member of MemoryFrame (spec §3) that
// holds a value of type t. BOOL shares intVal with INTEGER so that a
// condition register can be tested as "R[k].intVal == 1" regardless of
// whether it was produced by a comparison or a boolean variable load.
func fieldOf(t symtab.DataType) string {
	switch t {
	case symtab.FLOAT:
		return "floatVal"
	case symtab.STRINGT:
		return "stringVal"
	default:
		return "intVal"
	}
}
