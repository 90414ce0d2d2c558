package symtab

import (
	"sort"
	"testing"

	"github.com/go-test/deep"
)

func TestReservedWordsImmutable(t *testing.T) {
	tbl := NewTable()
	for _, w := range reservedWords {
		sym, ok := tbl.Lookup(w)
		if !ok {
			t.Fatalf("reserved word %q not found", w)
		}
		if _, isReserved := sym.(*Reserved); !isReserved {
			t.Fatalf("reserved word %q resolved to %T, want *Reserved", w, sym)
		}
	}
	tbl.EnterScope()
	defer tbl.ExitScope()
	for _, w := range reservedWords {
		sym, ok := tbl.Lookup(w)
		if !ok || func() bool { _, isR := sym.(*Reserved); return !isR }() {
			t.Fatalf("reserved word %q lost its kind inside a nested scope", w)
		}
	}
}

func TestRuntimeProceduresPrebound(t *testing.T) {
	tbl := NewTable()
	for _, rp := range runtimeProcs {
		sym, ok := tbl.Lookup(rp.name)
		if !ok {
			t.Fatalf("runtime procedure %q not pre-declared", rp.name)
		}
		proc, isProc := sym.(*Procedure)
		if !isProc {
			t.Fatalf("runtime procedure %q resolved to %T, want *Procedure", rp.name, sym)
		}
		if proc.Arity() != 1 {
			t.Fatalf("runtime procedure %q has arity %d, want 1", rp.name, proc.Arity())
		}
		if proc.ParamType(0) != rp.paramType {
			t.Fatalf("runtime procedure %q param type = %v, want %v", rp.name, proc.ParamType(0), rp.paramType)
		}
		if proc.Directions[0] != rp.in {
			t.Fatalf("runtime procedure %q direction = %v, want %v", rp.name, proc.Directions[0], rp.in)
		}
	}
}

// TestScopeBalance is spec §8 property 2: after a balanced EnterScope /
// ExitScope pair, the set of names visible at the outer scope is unchanged.
func TestScopeBalance(t *testing.T) {
	tbl := NewTable()
	tbl.Insert("x", &Variable{Ident: "x", Type: INTEGER, IsGlobal: true}, true)

	before := tbl.VisibleNames()
	beforeDepth := tbl.CurrentScope()

	tbl.EnterScope()
	tbl.Insert("y", &Variable{Ident: "y", Type: BOOL}, false)
	tbl.Insert("z", &Variable{Ident: "z", Type: FLOAT}, false)
	if _, ok := tbl.Lookup("y"); !ok {
		t.Fatal("y should be visible inside the nested scope")
	}
	tbl.ExitScope()

	after := tbl.VisibleNames()
	afterDepth := tbl.CurrentScope()

	if afterDepth != beforeDepth {
		t.Fatalf("scope depth leaked: before=%d after=%d", beforeDepth, afterDepth)
	}
	if diff := deep.Equal(namesOnly(before), namesOnly(after)); diff != nil {
		t.Fatalf("visible name set changed across a balanced scope push/pop: %v", diff)
	}
	if _, ok := tbl.Lookup("y"); ok {
		t.Fatal("y leaked out of its scope")
	}
}

func namesOnly(m map[string]Symbol) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func TestProcedureSelfAliasSurvivesScopeExit(t *testing.T) {
	tbl := NewTable()
	proc := &Procedure{Ident: "helper", IsGlobal: false}
	tbl.Insert("helper", proc, false) // visible to the parent scope already

	tbl.EnterScope()
	tbl.Insert("helper", proc, false) // self-entry, for recursive calls
	if sym, ok := tbl.Lookup("helper"); !ok || sym != Symbol(proc) {
		t.Fatal("procedure should resolve to itself inside its own scope")
	}
	tbl.ExitScope()

	sym, ok := tbl.Lookup("helper")
	if !ok {
		t.Fatal("procedure alias did not survive scope exit")
	}
	if sym != Symbol(proc) {
		t.Fatal("procedure alias resolved to a different record after scope exit")
	}
}
