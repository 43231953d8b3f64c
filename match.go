// match.go
//
// The call/argument matching protocol of spec §4.4: positional
// arguments fill formals up to the "..." formal (if any) in order,
// named arguments match formals by exact name first, any remaining
// unnamed arguments fill whatever formals are still unbound, and
// anything left over — excess positional or unmatched named — flows
// into "..." in call-site order, or is a MatchError if the function
// has no "...". Exact keyword matching only (spec §9 Open Question:
// prefix matching is a compatibility-layer concern, not this core's).
//
// Grounded on the teacher's curry-by-one argument binder in
// interpreter_exec.go (applyArgsScoped/applyOneScoped), generalized
// from "bind exactly one positional argument per call" to the full
// positional/named/dots protocol; the call-site-order-preservation
// detail for "..." is taken from original_source/src/interpreter.cpp.
package riposte

// Function is a closure: a compiled body plus the environment it was
// defined in (spec §3 "Function").
type Function struct {
	Proto *Prototype
	Env   *Environment

	// Native, when set, is invoked directly by vm.go's call protocol
	// instead of running Proto's bytecode — the registry (registry.go)
	// uses this to bind inline-cached primitives into the global
	// environment so they remain callable as ordinary functions (e.g.
	// `` `+`(1, 2) ``) even when the compiler's fast guard misses.
	Native func(ip *Interpreter, args []Value, names []uint32) Value
}

func FunctionVal(f *Function) Value { return Value{Tag: TagFunction, Length: 1, ptr: f} }

func AsFunction(v Value) *Function { return v.ptr.(*Function) }

// BindArguments matches argVals/argNames against proto's formals and
// binds the results into callEnv. argNames may be nil (all positional)
// or parallel to argVals with idEmpty marking an unnamed position.
//
// namedEnd is the number of formals eligible for name/position
// matching: proto.DotsIndex if the function declares "...", else all
// of proto.Params. A formal declared after "..." in the signature (an
// unusual, rarely-used shape) is not matched by this pass; it is left
// unbound, matching this core's documented simplification.
func BindArguments(callEnv *Environment, proto *Prototype, argVals []Value, argNames []uint32) {
	n := len(argVals)
	consumed := make([]bool, n)

	namedEnd := len(proto.Params)
	if proto.DotsIndex >= 0 {
		namedEnd = proto.DotsIndex
	}
	bound := make([]bool, namedEnd)
	boundVals := make([]Value, namedEnd)

	// Pass 1: exact named match. A named actual whose name matches a
	// formal already claimed by an earlier named actual is a
	// MatchError (spec §4.4's "multiple matches on same formal") —
	// raised here regardless of whether the callee has "...", since
	// this is a call-site error, not extra data for dots to collect.
	for i := 0; i < n; i++ {
		if argNames == nil || argNames[i] == idEmpty {
			continue
		}
		for f := 0; f < namedEnd; f++ {
			if proto.Params[f] != argNames[i] {
				continue
			}
			if bound[f] {
				panicErr(MatchError, "formal argument matched by multiple actual arguments")
			}
			boundVals[f] = argVals[i]
			bound[f] = true
			consumed[i] = true
			break
		}
	}

	// Pass 2: remaining unnamed actuals fill remaining unbound formals,
	// in call-site order.
	pos := 0
	for f := 0; f < namedEnd; f++ {
		if bound[f] {
			continue
		}
		for pos < n && (consumed[pos] || (argNames != nil && argNames[pos] != idEmpty)) {
			pos++
		}
		if pos >= n {
			break
		}
		boundVals[f] = argVals[pos]
		bound[f] = true
		consumed[pos] = true
		pos++
	}

	// Pass 3: defaults for whatever is still unbound. A formal with
	// neither an actual nor a default is left unbound in callEnv — a
	// later Get for it returns Nil rather than raising an error here;
	// this core does not model a distinct "missing argument" value.
	for f := 0; f < namedEnd; f++ {
		if bound[f] {
			callEnv.Assign(proto.Params[f], boundVals[f])
			continue
		}
		if proto.Defaults[f] != nil {
			callEnv.Assign(proto.Params[f], PromiseVal(NewPromise(proto.Defaults[f], callEnv)))
		}
	}

	// Pass 4: whatever is left over, in call-site order, is "...".
	if proto.DotsIndex < 0 {
		for i := 0; i < n; i++ {
			if !consumed[i] {
				panicErr(MatchError, "unused argument (function has no \"...\")")
			}
		}
		return
	}
	var dotsVals []Value
	var dotsNames []uint32
	for i := 0; i < n; i++ {
		if consumed[i] {
			continue
		}
		dotsVals = append(dotsVals, argVals[i])
		if argNames != nil {
			dotsNames = append(dotsNames, argNames[i])
		} else {
			dotsNames = append(dotsNames, idEmpty)
		}
	}
	callEnv.Assign(DotsID, ListVal(dotsVals))
	callEnv.SetDotsNames(dotsNames)
}
