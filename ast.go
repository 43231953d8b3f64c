// ast.go
//
// Go-level constructors standing in for what an external parser would
// deliver (spec §6's Parser contract: "literals, Symbols, Calls, and
// Expression sequences"). This core has no lexer or grammar of its
// own — spec §1 places the surface syntax parser out of scope — so
// tests and cmd/riposte build expression trees directly through these
// helpers instead. The special-form head names (If, For, While, ...)
// match exactly what compiler.go's keyword table recognizes.
package riposte

// Sym interns name and returns a bare Symbol reference to it.
func (ip *Interpreter) Sym(name string) Value {
	return SymbolFromID(ip.Intern(name))
}

// Call builds an ordinary (unnamed-arguments) call expression.
func (ip *Interpreter) Call(callee Value, args ...Value) Value {
	return NewCall(callee, args, nil)
}

// NamedCall builds a call expression with a name (possibly idEmpty,
// i.e. "") attached to each argument position.
func (ip *Interpreter) NamedCall(callee Value, args []Value, argNames []string) Value {
	names := make([]uint32, len(argNames))
	for i, n := range argNames {
		if n == "" {
			names[i] = idEmpty
		} else {
			names[i] = ip.Intern(n)
		}
	}
	return NewCall(callee, args, names)
}

// Block builds a "{ ...; ... }" sequence: the value of a Block is the
// value of its last statement.
func (ip *Interpreter) Block(stmts ...Value) Value {
	return ip.Call(ip.Sym("{"), stmts...)
}

// Assign builds "target <- value". target must be a Symbol.
func (ip *Interpreter) Assign(target, value Value) Value {
	return ip.Call(ip.Sym("<-"), target, value)
}

// If builds a conditional; elseExpr is optional (pass Nil to omit it).
func (ip *Interpreter) If(cond, thenExpr, elseExpr Value) Value {
	if elseExpr.IsNil() {
		return ip.Call(ip.Sym("if"), cond, thenExpr)
	}
	return ip.Call(ip.Sym("if"), cond, thenExpr, elseExpr)
}

// For builds "for (v in lower:upper) body".
func (ip *Interpreter) For(v Value, lower, upper Value, body Value) Value {
	rng := ip.Call(ip.Sym(":"), lower, upper)
	return ip.Call(ip.Sym("for"), v, rng, body)
}

func (ip *Interpreter) While(cond, body Value) Value { return ip.Call(ip.Sym("while"), cond, body) }
func (ip *Interpreter) Repeat(body Value) Value      { return ip.Call(ip.Sym("repeat"), body) }
func (ip *Interpreter) Break() Value                 { return ip.Call(ip.Sym("break")) }
func (ip *Interpreter) Next() Value                  { return ip.Call(ip.Sym("next")) }

// Formal describes one function parameter: Name, with an optional
// Default expression (Nil if the parameter has none).
type Formal struct {
	Name    string
	Default Value
}

// Function builds a function literal: "function(formals) body".
// A formal named "..." marks the variadic position.
func (ip *Interpreter) Function(formals []Formal, body Value) Value {
	pairs := make([]Value, len(formals))
	for i, f := range formals {
		sym := ip.Sym(f.Name)
		if f.Default.IsNil() {
			pairs[i] = ListVal([]Value{sym})
		} else {
			pairs[i] = ListVal([]Value{sym, f.Default})
		}
	}
	return ip.Call(ip.Sym("function"), ListVal(pairs), body)
}

// Expression builds a top-level multi-statement sequence — distinct
// from Block: this is the "Expression sequence" shape spec §6's
// Parser contract hands the core a whole program as.
func (ip *Interpreter) Expression(stmts ...Value) Value {
	return NewExpression(stmts)
}

// Dots returns a reference to the variadic marker "...".
func (ip *Interpreter) Dots() Value { return SymbolFromID(DotsID) }
