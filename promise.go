// promise.go
//
// Lazy argument values (spec §3 "Promise", §4.4 "Promise forcing").
// Grounded on the teacher's closure/body-eval pattern in
// interpreter_exec.go (execFunBodyScoped evaluates a function body in
// a freshly bound scope on demand) and its Fun.Chunk caching idiom,
// generalized here to defer that evaluation until the bound name is
// actually read, with the result memoized in place.
package riposte

// Promise is a deferred expression plus the environment it closes
// over. A Promise with a nil Proto is the symbol-promise optimization
// of spec §3: rather than re-evaluating "forward the variable x", it
// just remembers x's name and looks it up directly when forced.
type Promise struct {
	Proto *Prototype
	Env   *Environment
	Sym   uint32 // valid when Proto == nil

	forced  bool
	value   Value
	forcing bool // re-entry guard against a promise forcing itself
}

func PromiseVal(p *Promise) Value { return Value{Tag: TagPromise, Length: 1, ptr: p} }

// NewPromise builds a general-expression promise.
func NewPromise(proto *Prototype, env *Environment) *Promise {
	return &Promise{Proto: proto, Env: env}
}

// NewSymbolPromise builds the optimized symbol-promise: forcing it is
// just a lookup of sym in env, with no compiled body of its own.
func NewSymbolPromise(sym uint32, env *Environment) *Promise {
	return &Promise{Sym: sym, Env: env}
}

// Force evaluates the promise on first access and memoizes the result
// for every subsequent force (spec §3: "forcing evaluates the
// expression... and memoizes the result; subsequent forces return the
// memoized value without re-evaluating").
//
// run is the VM's expression evaluator (vm.go's runProto), passed in
// rather than imported directly so promise.go does not need to know
// about call frames or the opcode table.
func (p *Promise) Force(run func(proto *Prototype, env *Environment) Value) Value {
	if p.forced {
		return p.value
	}
	if p.forcing {
		panicErr(RuntimeError, "promise forced while already forcing (self-referential argument)")
	}
	p.forcing = true
	defer func() { p.forcing = false }()

	var v Value
	if p.Proto == nil {
		// A symbol-promise forwards whatever is bound to Sym, which may
		// itself be an unforced Promise (e.g. another forwarded
		// argument) — forcing must see through the whole chain.
		v = ForcePromiseValue(p.Env.Get(p.Sym), run)
	} else {
		v = run(p.Proto, p.Env)
	}
	p.value = v
	p.forced = true
	return v
}

// IsForced reports whether p has already been forced, without forcing it.
func (p *Promise) IsForced() bool { return p.forced }

// ForcePromiseValue forces v if it is a Promise, and returns v
// unchanged otherwise. This is the helper the VM's get opcode uses to
// implement "reading a bound name forces any promise found there"
// (spec §4.1/§4.4), while iget reads the raw (possibly unforced)
// binding.
func ForcePromiseValue(v Value, run func(proto *Prototype, env *Environment) Value) Value {
	if v.Tag != TagPromise {
		return v
	}
	return v.ptr.(*Promise).Force(run)
}
