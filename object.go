// object.go
//
// Attributed objects, and the List-based encoding of calls and
// expression sequences (spec §3 "Attributed Object", "Call record").
// An Object wraps a non-Object base value together with a small
// open-addressed name->value attribute map; calls and expressions are
// simply Lists wrapped in an Object carrying class="Call"/"Expression".
package riposte

// Object wraps a base Value with a small attribute map. Setting an
// attribute is structural: it produces a new Object rather than
// mutating this one (spec §3, §9 "Attribute maps as value").
type Object struct {
	Base  Value
	Attrs map[uint32]Value // interned attribute name -> value
}

// NewObject wraps base, unwrapping it first if it is itself an Object —
// spec §9 requires "the base value of an Object is never itself an
// Object."
func NewObject(base Value, attrs map[uint32]Value) *Object {
	for base.Tag == TagObject {
		inner := base.ptr.(*Object)
		merged := make(map[uint32]Value, len(inner.Attrs)+len(attrs))
		for k, v := range inner.Attrs {
			merged[k] = v
		}
		for k, v := range attrs {
			merged[k] = v
		}
		attrs = merged
		base = inner.Base
	}
	return &Object{Base: base, Attrs: attrs}
}

func ObjectVal(o *Object) Value { return Value{Tag: TagObject, Length: o.Base.Length, ptr: o} }

// WithAttr returns a new Object value with name bound to val (nil
// Value{} deletes the attribute), leaving the receiver untouched.
func (o *Object) WithAttr(name uint32, val Value) *Object {
	next := make(map[uint32]Value, len(o.Attrs)+1)
	for k, v := range o.Attrs {
		next[k] = v
	}
	if val.IsNil() {
		delete(next, name)
	} else {
		next[name] = val
	}
	return &Object{Base: o.Base, Attrs: next}
}

func (o *Object) Attr(name uint32) (Value, bool) {
	v, ok := o.Attrs[name]
	return v, ok
}

// Names/Class/Dim are the canonical attributes spec §3 names.
func (o *Object) Names() (Value, bool) { return o.Attr(idNames) }
func (o *Object) Class() (Value, bool) { return o.Attr(idClass) }
func (o *Object) Dim() (Value, bool)   { return o.Attr(idDim) }

// classIs reports whether the object's class attribute is the single
// interned name id (used to distinguish Call from Expression wrappers).
func (o *Object) classIs(id uint32) bool {
	c, ok := o.Class()
	if !ok || c.Tag != TagChar {
		return false
	}
	return c.AsStringID() == id
}

// IsCall / IsExpression test the wrapper class of an Object whose base
// is a List, per spec §3's Call-record / Expression-sequence encoding.
func (o *Object) IsCall() bool       { return o.classIs(idCall) }
func (o *Object) IsExpression() bool { return o.classIs(idExpr) }

// NewCall builds a Call record: a List of (callee, arg1, ..., argN)
// wrapped in class="Call", with an optional names attribute carrying
// keyword labels (empty-string id for unlabeled positions).
func NewCall(callee Value, args []Value, names []uint32) Value {
	elems := make([]Value, 0, len(args)+1)
	elems = append(elems, callee)
	elems = append(elems, args...)
	attrs := map[uint32]Value{idClass: CharFromID(idCall)}
	if names != nil {
		ns := make([]Value, len(names))
		for i, n := range names {
			ns[i] = CharFromID(n)
		}
		attrs[idNames] = ListVal(ns)
	}
	return ObjectVal(NewObject(ListVal(elems), attrs))
}

// NewExpression builds an Expression sequence: a List of statements
// wrapped in class="Expression".
func NewExpression(stmts []Value) Value {
	attrs := map[uint32]Value{idClass: CharFromID(idExpr)}
	return ObjectVal(NewObject(ListVal(stmts), attrs))
}

// CallParts extracts the callee and argument Values of a Call record.
// Panics (via InternalError, caught by the top-level handler) if val is
// not an Object wrapping a non-empty List with class="Call".
func CallParts(val Value) (callee Value, args []Value, names []uint32) {
	o, ok := AsObject(val)
	if !ok || !o.IsCall() {
		panic(&RiposteError{Kind: InternalError, Msg: "CallParts: not a Call record"})
	}
	elems := o.Base.AsList()
	if len(elems) == 0 {
		panic(&RiposteError{Kind: InternalError, Msg: "CallParts: empty Call record"})
	}
	callee = elems[0]
	args = elems[1:]
	if nv, ok := o.Names(); ok {
		ns := nv.AsList()
		names = make([]uint32, len(ns))
		for i, n := range ns {
			names[i] = n.AsStringID()
		}
	}
	return
}

// ExpressionStmts extracts the statement list of an Expression sequence.
func ExpressionStmts(val Value) []Value {
	o, ok := AsObject(val)
	if !ok || !o.IsExpression() {
		panic(&RiposteError{Kind: InternalError, Msg: "ExpressionStmts: not an Expression"})
	}
	return o.Base.AsList()
}

// AsObject returns the *Object payload of an Object-tagged Value.
func AsObject(v Value) (*Object, bool) {
	if v.Tag != TagObject {
		return nil, false
	}
	return v.ptr.(*Object), true
}

// DotsID is the interned id for the variadic marker "...".
const DotsID = idDots
