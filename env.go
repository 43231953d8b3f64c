// env.go
//
// The open-addressed, revision-counted Environment of spec §4.1,
// generalized from the teacher's Env{parent, table map[string]Value}
// (interpreter.go) into the hashed-with-revision model spec §9
// explicitly adopts as authoritative over the teacher's plain-map
// approach (the spec's "legacy slot-array model" note does not apply
// here either — the teacher never had one, so there is nothing extra
// to reproduce).
package riposte

// globalRevision is the process-wide monotonic sequence the revision
// counter is drawn from (spec §3). The interpreter is single-threaded
// (spec §5), so a plain counter suffices — no atomics.
var globalRevision uint64

func nextRevision() uint64 {
	globalRevision++
	return globalRevision
}

// emptySlot is the sentinel marking an unused table slot: spec §4.1
// states "name slots equal NA iff the slot is empty," and idNA is the
// interner's reserved id for the token NA, which is not a valid bound
// identifier in the surface language.
const emptySlot uint32 = idNA

// Environment is a variable-length open-addressed name->value table
// plus the lexical/dynamic parent links, the reifying call, the dots
// names, and the revision counter spec §3/§4.1 describe.
type Environment struct {
	names []uint32
	slots []Value

	load     int
	capacity int

	lexicalParent *Environment
	dynamicParent *Environment
	call          Value // the reifying Call record, if any
	dotsNames     []uint32

	revision uint64
}

const minEnvCapacity = 8

// NewEnvironment creates a fresh environment with the given lexical and
// dynamic parents (either may be nil).
func NewEnvironment(lexicalParent, dynamicParent *Environment) *Environment {
	e := &Environment{
		lexicalParent: lexicalParent,
		dynamicParent: dynamicParent,
		capacity:      minEnvCapacity,
		revision:      nextRevision(),
	}
	e.names = make([]uint32, e.capacity)
	e.slots = make([]Value, e.capacity)
	for i := range e.names {
		e.names[i] = emptySlot
	}
	return e
}

func (e *Environment) Revision() uint64          { return e.revision }
func (e *Environment) LexicalParent() *Environment { return e.lexicalParent }
func (e *Environment) DynamicParent() *Environment { return e.dynamicParent }
func (e *Environment) Call() Value               { return e.call }
func (e *Environment) SetCall(c Value)           { e.call = c }
func (e *Environment) DotsNames() []uint32       { return e.dotsNames }
func (e *Environment) SetDotsNames(n []uint32)   { e.dotsNames = n }

func (e *Environment) probe(name uint32) int {
	mask := e.capacity - 1
	i := int(name) & mask
	for {
		n := e.names[i]
		if n == emptySlot || n == name {
			return i
		}
		i = (i + 1) & mask
	}
}

// findLocal returns the slot index for name in this frame only, or -1.
func (e *Environment) findLocal(name uint32) int {
	i := e.probe(name)
	if e.names[i] == name {
		return i
	}
	return -1
}

// Get walks the lexical parent chain, returning Nil if name is unbound
// anywhere in the chain (spec §4.1: "on miss the lexical parent chain
// is walked until either found or the chain ends (return Nil)").
func (e *Environment) Get(name uint32) Value {
	for env := e; env != nil; env = env.lexicalParent {
		if i := env.findLocal(name); i >= 0 {
			return env.slots[i]
		}
	}
	return Nil
}

// GetRaw is identical to Get but never forces a Promise binding — the
// interpreter uses this to implement iget/get distinctly (spec §4.1,
// §4.4).
func (e *Environment) GetRaw(name uint32) Value { return e.Get(name) }

// GetLocal looks up name only in this frame, without walking parents.
func (e *Environment) GetLocal(name uint32) (Value, bool) {
	i := e.findLocal(name)
	if i < 0 {
		return Nil, false
	}
	return e.slots[i], true
}

// Assign binds name to value in this frame. A Nil value deletes the
// binding (spec §4.1). Growth is triggered when load*2 would exceed
// capacity; both growth and deletion bump the revision counter.
func (e *Environment) Assign(name uint32, value Value) {
	if value.IsNil() {
		e.delete(name)
		return
	}
	i := e.probe(name)
	if e.names[i] == emptySlot {
		e.names[i] = name
		e.slots[i] = value
		e.load++
		if e.load*2 > e.capacity {
			e.grow()
		}
		return
	}
	e.slots[i] = value
}

func (e *Environment) delete(name uint32) {
	i := e.probe(name)
	if e.names[i] != name {
		return // not bound here; Assign(name, Nil) on an unbound name is a no-op
	}
	e.names[i] = emptySlot
	e.slots[i] = Value{}
	e.load--
	e.revision = nextRevision()
	// Close the probe chain: re-insert every following occupied slot so
	// linear-probe lookups for other keys that hashed past this slot
	// still terminate correctly.
	mask := e.capacity - 1
	j := (i + 1) & mask
	for e.names[j] != emptySlot {
		n, v := e.names[j], e.slots[j]
		e.names[j] = emptySlot
		e.slots[j] = Value{}
		e.load--
		e.rawInsert(n, v)
		j = (j + 1) & mask
	}
}

// rawInsert re-inserts an already-hashed (name,value) pair during
// delete-chain repair or grow, without bumping load accounting twice.
func (e *Environment) rawInsert(name uint32, v Value) {
	i := e.probe(name)
	e.names[i] = name
	e.slots[i] = v
	e.load++
}

func (e *Environment) grow() {
	oldNames, oldSlots := e.names, e.slots
	e.capacity *= 2
	e.names = make([]uint32, e.capacity)
	e.slots = make([]Value, e.capacity)
	for i := range e.names {
		e.names[i] = emptySlot
	}
	e.load = 0
	for i, n := range oldNames {
		if n != emptySlot {
			e.rawInsert(n, oldSlots[i])
		}
	}
	e.revision = nextRevision()
}

// Pointer is a fast-access cursor into a specific environment slot,
// validated by revision equality (spec §4.1, §9).
type Pointer struct {
	env      *Environment
	name     uint32
	revision uint64
	index    int
}

// MakePointer returns a cursor for name in e. The cursor is only valid
// against e itself (not the lexical chain): callers resolve a name to
// the defining frame first via Get/GetLocal semantics, mirroring the
// spec's "fast-access cursor" for repeated access to *the same
// binding*.
func (e *Environment) MakePointer(name uint32) *Pointer {
	i := e.findLocal(name)
	return &Pointer{env: e, name: name, revision: e.revision, index: i}
}

// Deref resolves a pointer: if the owning environment's revision is
// unchanged, it reads the cached slot index directly (O(1)); otherwise
// it falls back to a full lookup in that frame and refreshes the
// pointer in place (spec §4.1, invariant 3).
func (p *Pointer) Deref() Value {
	if p.env.revision == p.revision && p.index >= 0 && p.env.names[p.index] == p.name {
		return p.env.slots[p.index]
	}
	v, ok := p.env.GetLocal(p.name)
	p.revision = p.env.revision
	if ok {
		p.index = p.env.findLocal(p.name)
	} else {
		p.index = -1
	}
	return v
}
