// Package symtab implements the process-wide symbol table of spec §3/§4.2:
// one global scope plus a stack of nested local scopes, holding the
// tagged-sum Symbol records declarations resolve to.
package symtab

// DataType is the closed, ordered enumeration spec §3 uses both as a value
// type and as the promotion lattice: INVALID < BOOL < INTEGER < FLOAT <
// STRINGT. Binary operator result types are computed as the max of their
// operand types under this order.
type DataType int

const (
	INVALID DataType = iota
	BOOL
	INTEGER
	FLOAT
	STRINGT
)

func (d DataType) String() string {
	switch d {
	case BOOL:
		return "bool"
	case INTEGER:
		return "integer"
	case FLOAT:
		return "float"
	case STRINGT:
		return "string"
	default:
		return "invalid"
	}
}

// MaxType returns the higher of a, b in the promotion lattice order.
func MaxType(a, b DataType) DataType {
	if a > b {
		return a
	}
	return b
}

// Symbol is the closed tagged sum of spec §3's "Symbol records": a
// reserved word or operator entry, a scalar Variable, an Array (a Variable
// whose storage spans Length >= 1 slots), or a Procedure. Pattern-match
// with a type switch at use sites instead of the reference implementation's
// runtime downcasts (spec §9 "Polymorphic symbol records").
type Symbol interface {
	symbol()
	Name() string
}

// Reserved is a reserved-word entry: immutable, pre-populated, global.
type Reserved struct {
	Lexeme string
}

func (*Reserved) symbol()        {}
func (r *Reserved) Name() string { return r.Lexeme }

// Operator is a punctuation/operator entry: immutable, pre-populated, global.
type Operator struct {
	Lexeme string
}

func (*Operator) symbol()        {}
func (o *Operator) Name() string { return o.Lexeme }

// Variable is a scalar declaration: a named, typed storage slot.
type Variable struct {
	Ident       string
	Type        DataType
	Address     int
	IsParameter bool
	IsGlobal    bool
}

func (*Variable) symbol()        {}
func (v *Variable) Name() string { return v.Ident }

// Array is a Variable whose storage spans Length consecutive slots
// starting at Address. Length is always >= 1.
type Array struct {
	Variable
	Length int
}

func (*Array) symbol() {}

// Procedure is a callable declaration. ParamAddressCursor is the next free
// slot in the callee's own frame for an incoming parameter;
// LocalAddressCursor is the next free slot of the frame's local region,
// which is counted from 0 separately from the parameters (the emitter
// places parameters after the locals; see compile's cellRef).
// ReturnSiteCounter generates the unique <name>_return<n> label at each
// call site (spec §4.5).
type Procedure struct {
	Ident              string
	IsGlobal           bool
	Parameters         []Symbol // each a *Variable or *Array
	Directions         []bool   // true = in, false = out
	ParamAddressCursor int
	LocalAddressCursor int
	ReturnSiteCounter  int
}

func (*Procedure) symbol()        {}
func (p *Procedure) Name() string { return p.Ident }

// Arity returns the number of declared parameters.
func (p *Procedure) Arity() int { return len(p.Parameters) }

// ParamType returns the data type of the i'th formal parameter.
func (p *Procedure) ParamType(i int) DataType {
	switch v := p.Parameters[i].(type) {
	case *Variable:
		return v.Type
	case *Array:
		return v.Type
	default:
		internalErrorf("unexpected parameter symbol %T", v)
		return INVALID
	}
}

// NextReturnSite allocates and returns a unique call-site sequence number.
func (p *Procedure) NextReturnSite() int {
	p.ReturnSiteCounter++
	return p.ReturnSiteCounter
}
