package riposte

import (
	"strings"
	"testing"
)

func TestRiposteErrorMessageNamesKindAndLocation(t *testing.T) {
	expr := IntVal(9)
	err := newErrAt(TypeError, "not callable", expr)
	msg := err.Error()
	if !strings.Contains(msg, "TypeError") || !strings.Contains(msg, "not callable") || !strings.Contains(msg, "(at 9)") {
		t.Fatalf("error message should name its kind, reason and location, got %q", msg)
	}
}

func TestRiposteErrorWithoutLocationOmitsAt(t *testing.T) {
	err := newErr(RuntimeError, "boom")
	if strings.Contains(err.Error(), " at ") {
		t.Fatalf("an error with no ExprRef should not render a location, got %q", err.Error())
	}
}

func TestPanicErrIsCaughtByRunTop(t *testing.T) {
	ip := NewInterpreter()
	_, err := ip.runTop(func() Value {
		panicErr(MatchError, "unused argument")
		return Nil
	})
	re, ok := err.(*RiposteError)
	if !ok || re.Kind != MatchError {
		t.Fatalf("want a MatchError surfaced through runTop, got %#v", err)
	}
}

func TestRunTopWrapsForeignPanicsAsInternalError(t *testing.T) {
	ip := NewInterpreter()
	_, err := ip.runTop(func() Value {
		panic("unexpected")
	})
	re, ok := err.(*RiposteError)
	if !ok || re.Kind != InternalError {
		t.Fatalf("a non-RiposteError panic should surface as InternalError, got %#v", err)
	}
}

func TestWarningsDrainClearsBuffer(t *testing.T) {
	var w Warnings
	w.Warn("first")
	w.Warn("second")
	got := w.Drain()
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Fatalf("Drain should return buffered warnings in order, got %#v", got)
	}
	if len(w.Drain()) != 0 {
		t.Fatalf("a second Drain should see an empty buffer")
	}
}

func TestErrorKindString(t *testing.T) {
	if CompileError.String() != "CompileError" {
		t.Fatalf("want CompileError, got %q", CompileError.String())
	}
	if RuntimeError.String() != "RuntimeError" {
		t.Fatalf("want RuntimeError, got %q", RuntimeError.String())
	}
}
