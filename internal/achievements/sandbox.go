package achievements

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// defaultInstructionLimit bounds the Lua opcodes one predicate may execute.
// Predicates are one-line comparisons; anything that hits this limit is
// broken or hostile.
const defaultInstructionLimit = 10_000

// opcodeBudget is a context.Context whose Done() cancels after a fixed
// number of calls. GopherLua polls Done() once per opcode, which turns the
// budget into an exact instruction limit.
type opcodeBudget struct {
	context.Context
	cancel    context.CancelFunc
	remaining *atomic.Int64
}

func (b *opcodeBudget) Done() <-chan struct{} {
	if b.remaining.Add(-1) <= 0 {
		b.cancel()
	}
	return b.Context.Done()
}

// newPredicateState builds a Lua state restricted to predicate evaluation:
// only base, table, string, and math libraries; no file or code loading;
// execution capped at limit opcodes.
//
// Postcondition: The caller owns the state and must Close it.
func newPredicateState(limit int) *lua.LState {
	if limit <= 0 {
		limit = defaultInstructionLimit
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require", "print"} {
		L.SetGlobal(name, lua.LNil)
	}

	base, cancel := context.WithCancel(context.Background())
	rem := &atomic.Int64{}
	rem.Store(int64(limit))
	L.SetContext(&opcodeBudget{Context: base, cancel: cancel, remaining: rem})

	return L
}

// statsTable converts a stats map into a Lua table.
func statsTable(L *lua.LState, stats map[string]int) *lua.LTable {
	tbl := L.NewTable()
	for name, value := range stats {
		L.SetField(tbl, name, lua.LNumber(value))
	}
	return tbl
}
