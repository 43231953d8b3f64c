package riposte

import "testing"

func TestTracerRecordsUntilBranchExit(t *testing.T) {
	tr := NewTracer(16)
	tr.StartTrace()
	if !tr.Recording() {
		t.Fatalf("StartTrace should leave the tracer recording")
	}
	tr.RecordBinary(OpAdd)
	tr.RecordUnary(OpSqrt)
	tr.Exit(ExitBranch)
	if tr.Recording() {
		t.Fatalf("Exit should stop recording")
	}
	if tr.ExitReason() != ExitBranch {
		t.Fatalf("want ExitBranch, got %v", tr.ExitReason())
	}
	if len(tr.Nodes()) != 2 {
		t.Fatalf("want 2 recorded nodes, got %d", len(tr.Nodes()))
	}
}

func TestTracerExhaustsBudget(t *testing.T) {
	tr := NewTracer(2)
	tr.StartTrace()
	tr.RecordBinary(OpAdd)
	tr.RecordBinary(OpAdd)
	tr.RecordBinary(OpAdd)
	if tr.Recording() {
		t.Fatalf("a budget-exhausted tracer should stop recording")
	}
	if tr.ExitReason() != ExitBudgetExhausted {
		t.Fatalf("want ExitBudgetExhausted, got %v", tr.ExitReason())
	}
	if len(tr.Nodes()) != 2 {
		t.Fatalf("want exactly the budget's worth of nodes, got %d", len(tr.Nodes()))
	}
}

func TestTracerIgnoresRecordsWhenNotRecording(t *testing.T) {
	tr := NewTracer(16)
	tr.RecordBinary(OpAdd)
	if len(tr.Nodes()) != 0 {
		t.Fatalf("recording before StartTrace should be a no-op")
	}
}

func TestTracingJITHookPointsFireDuringEval(t *testing.T) {
	ip := NewInterpreter(WithTracingJIT(64))
	ip.tracer.StartTrace()
	expr := ip.Call(ip.Sym("+"), IntVal(1), IntVal(2))
	v, err := ip.Eval(expr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantInt(t, v, 3)
	if len(ip.tracer.Nodes()) == 0 {
		t.Fatalf("evaluating an inline-cached binary op should record a trace node")
	}
}

func TestTracingJITExitsOnCall(t *testing.T) {
	ip := NewInterpreter(WithTracingJIT(64))
	ip.tracer.StartTrace()
	identity := ip.Function([]Formal{{Name: "x"}}, ip.Sym("x"))
	idName := ip.Sym("identity")
	block := ip.Block(ip.Assign(idName, identity), ip.Call(idName, IntVal(5)))
	_, err := ip.Eval(block)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ip.tracer.Recording() {
		t.Fatalf("a general function call should exit the trace as uninspectable")
	}
	if ip.tracer.ExitReason() != ExitUninspectableCall {
		t.Fatalf("want ExitUninspectableCall, got %v", ip.tracer.ExitReason())
	}
}
