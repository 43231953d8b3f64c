package riposte

import "testing"

func evalExpr(t *testing.T, ip *Interpreter, expr Value) Value {
	t.Helper()
	v, err := ip.Eval(expr)
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}
	return v
}

func TestCompileArithmeticIsRightToLeftOnStack(t *testing.T) {
	ip := NewInterpreter()
	// 10 - 3 should be 7, not -7: catches an operand-order regression.
	expr := ip.Call(ip.Sym("-"), IntVal(10), IntVal(3))
	wantInt(t, evalExpr(t, ip, expr), 7)
}

func TestCompileIfWithoutElseYieldsNullOnFalse(t *testing.T) {
	ip := NewInterpreter()
	expr := ip.If(Logical(false), IntVal(1), Nil)
	v := evalExpr(t, ip, expr)
	if v.Tag != TagNull {
		t.Fatalf("an if with no matching branch and no else should yield Null, got %#v", v)
	}
}

func TestCompileIfTrueBranch(t *testing.T) {
	ip := NewInterpreter()
	expr := ip.If(Logical(true), IntVal(1), IntVal(2))
	wantInt(t, evalExpr(t, ip, expr), 1)
}

func TestCompileForSumsRange(t *testing.T) {
	ip := NewInterpreter()
	sum := ip.Sym("sum")
	i := ip.Sym("i")
	block := ip.Block(
		ip.Assign(sum, IntVal(0)),
		ip.For(i, IntVal(1), IntVal(5), ip.Assign(sum, ip.Call(ip.Sym("+"), sum, i))),
		sum,
	)
	wantInt(t, evalExpr(t, ip, block), 15)
}

func TestCompileForEmptyRangeNeverRunsBody(t *testing.T) {
	ip := NewInterpreter()
	sum := ip.Sym("sum")
	i := ip.Sym("i")
	block := ip.Block(
		ip.Assign(sum, IntVal(0)),
		ip.For(i, IntVal(5), IntVal(1), ip.Assign(sum, IntVal(99))),
		sum,
	)
	wantInt(t, evalExpr(t, ip, block), 0)
}

func TestCompileWhileLoop(t *testing.T) {
	ip := NewInterpreter()
	n := ip.Sym("n")
	block := ip.Block(
		ip.Assign(n, IntVal(0)),
		ip.While(ip.Call(ip.Sym("<"), n, IntVal(3)), ip.Assign(n, ip.Call(ip.Sym("+"), n, IntVal(1)))),
		n,
	)
	wantInt(t, evalExpr(t, ip, block), 3)
}

func TestCompileBreakExitsLoop(t *testing.T) {
	ip := NewInterpreter()
	sum := ip.Sym("sum")
	i := ip.Sym("i")
	body := ip.Block(
		ip.If(ip.Call(ip.Sym("=="), i, IntVal(3)), ip.Break(), Nil),
		ip.Assign(sum, ip.Call(ip.Sym("+"), sum, i)),
	)
	block := ip.Block(
		ip.Assign(sum, IntVal(0)),
		ip.For(i, IntVal(1), IntVal(5), body),
		sum,
	)
	wantInt(t, evalExpr(t, ip, block), 3) // 1 + 2, stops before adding 3
}

func TestCompileNextSkipsRemainderOfIteration(t *testing.T) {
	ip := NewInterpreter()
	sum := ip.Sym("sum")
	i := ip.Sym("i")
	body := ip.Block(
		ip.If(ip.Call(ip.Sym("=="), i, IntVal(3)), ip.Next(), Nil),
		ip.Assign(sum, ip.Call(ip.Sym("+"), sum, i)),
	)
	block := ip.Block(
		ip.Assign(sum, IntVal(0)),
		ip.For(i, IntVal(1), IntVal(5), body),
		sum,
	)
	wantInt(t, evalExpr(t, ip, block), 12) // 1+2+4+5, skipping 3
}

func TestCompileFunctionLiteralAndCall(t *testing.T) {
	ip := NewInterpreter()
	add := ip.Function([]Formal{{Name: "a"}, {Name: "b"}}, ip.Call(ip.Sym("+"), ip.Sym("a"), ip.Sym("b")))
	addSym := ip.Sym("add")
	block := ip.Block(ip.Assign(addSym, add), ip.Call(addSym, IntVal(3), IntVal(4)))
	wantInt(t, evalExpr(t, ip, block), 7)
}

func TestCompileFunctionDefaultArgument(t *testing.T) {
	ip := NewInterpreter()
	inc := ip.Function([]Formal{{Name: "x"}, {Name: "by", Default: IntVal(1)}},
		ip.Call(ip.Sym("+"), ip.Sym("x"), ip.Sym("by")))
	incSym := ip.Sym("inc")
	block := ip.Block(ip.Assign(incSym, inc), ip.Call(incSym, IntVal(10)))
	wantInt(t, evalExpr(t, ip, block), 11)
}

func TestCompileDotsForwarding(t *testing.T) {
	ip := NewInterpreter()
	inner := ip.Function([]Formal{{Name: "a"}, {Name: "b"}}, ip.Call(ip.Sym("+"), ip.Sym("a"), ip.Sym("b")))
	outer := ip.Function([]Formal{{Name: "..."}}, ip.Call(ip.Sym("inner"), ip.Dots()))
	block := ip.Block(
		ip.Assign(ip.Sym("inner"), inner),
		ip.Assign(ip.Sym("outer"), outer),
		ip.Call(ip.Sym("outer"), IntVal(2), IntVal(5)),
	)
	wantInt(t, evalExpr(t, ip, block), 7)
}

func TestCompileClosureCapturesDefiningEnvironment(t *testing.T) {
	ip := NewInterpreter()
	makeAdder := ip.Function([]Formal{{Name: "n"}},
		ip.Function([]Formal{{Name: "x"}}, ip.Call(ip.Sym("+"), ip.Sym("x"), ip.Sym("n"))))
	block := ip.Block(
		ip.Assign(ip.Sym("makeAdder"), makeAdder),
		ip.Assign(ip.Sym("addFive"), ip.Call(ip.Sym("makeAdder"), IntVal(5))),
		ip.Call(ip.Sym("addFive"), IntVal(10)),
	)
	wantInt(t, evalExpr(t, ip, block), 15)
}

func TestCompileFGuardFallsBackWhenPrimitiveRebound(t *testing.T) {
	ip := NewInterpreter()
	plusSym := ip.Sym("+")
	// Compile first so the guard snapshots the original "+" binding...
	proto := ip.Compile(ip.Call(plusSym, IntVal(1), IntVal(2)))
	// ...then rebind "+" in Global (shadowing Core) to something else
	// entirely, and confirm the guard's dynamic fallback honors it.
	always42 := &Function{Native: func(ip *Interpreter, args []Value, names []uint32) Value { return IntVal(42) }}
	ip.Global.Assign(ip.Intern("+"), FunctionVal(always42))
	v, err := ip.EvalIn(proto, ip.Global)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantInt(t, v, 42)
}

func TestCompileFGuardFallsBackForUnaryMathPrimitiveRebound(t *testing.T) {
	ip := NewInterpreter()
	sqrtSym := ip.Sym("sqrt")
	proto := ip.Compile(ip.Call(sqrtSym, IntVal(9)))
	always42 := &Function{Native: func(ip *Interpreter, args []Value, names []uint32) Value { return IntVal(42) }}
	ip.Global.Assign(ip.Intern("sqrt"), FunctionVal(always42))
	v, err := ip.EvalIn(proto, ip.Global)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantInt(t, v, 42)
}

func TestCompileFGuardFallsBackForUnaryOperatorRebound(t *testing.T) {
	ip := NewInterpreter()
	minusSym := ip.Sym("-")
	proto := ip.Compile(ip.Call(minusSym, IntVal(5))) // unary "-", compiles through OpNeg
	always42 := &Function{Native: func(ip *Interpreter, args []Value, names []uint32) Value { return IntVal(42) }}
	ip.Global.Assign(ip.Intern("-"), FunctionVal(always42))
	v, err := ip.EvalIn(proto, ip.Global)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantInt(t, v, 42)
}

func TestCompileFGuardTakesFastPathForUnaryMathWhenUnchanged(t *testing.T) {
	ip := NewInterpreter()
	proto := ip.Compile(ip.Call(ip.Sym("sqrt"), IntVal(9)))
	v, err := ip.EvalIn(proto, ip.Global)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantDouble(t, v, 3)
}
