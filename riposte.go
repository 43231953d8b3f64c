// riposte.go
//
// The public API surface (spec §6): construct an Interpreter, compile
// expression trees, and run them — with a single top-level recover()
// boundary turning a panicked *RiposteError into a returned error, so
// every other file in this package can just panic on failure (errors.go)
// instead of threading error returns through every call.
//
// Grounded on the teacher's interpreter.go public/private split and
// its top-level runTopWithSource recover discipline.
package riposte

import (
	"fmt"
	"log"
	"os"
)

// Interpreter is the whole execution core: interner, global
// environment, primitive registry, and the ambient logger/warnings
// this core carries regardless of which spec features a given
// embedder exercises.
type Interpreter struct {
	interner *Interner
	Global   *Environment
	Core     *Registry
	Warnings Warnings

	logger  *log.Logger
	tracer  *Tracer
}

// Option configures an Interpreter at construction time.
type Option func(*Interpreter)

// WithLogger overrides the default logger (by default: stderr, gated
// on RIPOSTE_DEBUG_TRACE per SPEC_FULL.md's ambient logging section;
// set unconditionally here so an embedder can always redirect it).
func WithLogger(l *log.Logger) Option {
	return func(ip *Interpreter) { ip.logger = l }
}

// WithTracingJIT installs the optional tracing recorder hook points of
// spec §4.6. Off by default: the trace recorder is an optional sketch,
// not a required execution path.
func WithTracingJIT(budget int) Option {
	return func(ip *Interpreter) { ip.tracer = NewTracer(budget) }
}

// NewInterpreter builds a ready-to-use Interpreter: a fresh interner,
// a fresh global environment, and the primitive registry installed
// into it.
func NewInterpreter(opts ...Option) *Interpreter {
	ip := &Interpreter{
		interner: NewInterner(),
		Global:   NewEnvironment(nil, nil),
		Core:     NewRegistry(),
	}
	if os.Getenv("RIPOSTE_DEBUG_TRACE") != "" {
		ip.logger = log.New(os.Stderr, "riposte: ", log.Lmicroseconds)
	} else {
		ip.logger = log.New(os.Stderr, "riposte: ", 0)
		ip.logger.SetOutput(discard{})
	}
	installPrimitives(ip)
	for _, opt := range opts {
		opt(ip)
	}
	return ip
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// RegisterNative binds a Go function into the interpreter under name,
// both in the primitive registry (so compiler.go's inline-cache guards
// can snapshot it) and in the global environment (so it is callable as
// an ordinary function). registry.go's installPrimitives uses this to
// install the built-in arithmetic/comparison/math primitives; embedders
// extending this core with their own natives use the same entry point.
func (ip *Interpreter) RegisterNative(name string, fn func(ip *Interpreter, args []Value, names []uint32) Value) {
	id := ip.Intern(name)
	v := FunctionVal(&Function{Native: fn})
	ip.Core.Register(id, v)
	ip.Global.Assign(id, v)
}

// Intern/Extern expose the interpreter's string interner to hosts
// building expression trees (ast.go) or embedding this core directly.
func (ip *Interpreter) Intern(s string) uint32 { return ip.interner.Intern(s) }
func (ip *Interpreter) Extern(id uint32) string { return ip.interner.Extern(id) }

func (ip *Interpreter) debugf(format string, args ...any) {
	if ip.logger != nil {
		ip.logger.Printf(format, args...)
	}
}

// Eval compiles and runs expr at top level, in the global environment.
func (ip *Interpreter) Eval(expr Value) (Value, error) {
	return ip.runTop(func() Value {
		proto := ip.Compile(expr)
		ip.debugf("eval top-level, %d instructions", len(proto.Code))
		return runProto(ip, proto, ip.Global)
	})
}

// EvalIn runs an already-compiled Prototype in a caller-supplied
// environment, for hosts that want to reuse a compiled script across
// several independent scopes.
func (ip *Interpreter) EvalIn(proto *Prototype, env *Environment) (Value, error) {
	return ip.runTop(func() Value { return runProto(ip, proto, env) })
}

// CallFunction invokes a Function value with already-built argument
// Values (e.g. literals an embedder constructed directly), outside of
// any compiled call expression.
func (ip *Interpreter) CallFunction(fn Value, args []Value, names []uint32) (Value, error) {
	return ip.runTop(func() Value { return callValue(ip, fn, args, names, ip.Global) })
}

// runTop is the single recover() boundary of spec §7: it turns a
// panicked *RiposteError (or, defensively, any other panic value)
// back into a returned error.
func (ip *Interpreter) runTop(f func() Value) (result Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			if re, ok := r.(*RiposteError); ok {
				err = re
				return
			}
			err = &RiposteError{Kind: InternalError, Msg: fmt.Sprint(r)}
		}
	}()
	result = f()
	return result, nil
}
