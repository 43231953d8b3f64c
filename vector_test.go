package riposte

import "testing"

func TestVectorValUnpacksLengthOne(t *testing.T) {
	v := NewVector(ElemInt, 1)
	v.Set(0, IntVal(42))
	val := VectorVal(v)
	if val.ptr != nil {
		t.Fatalf("length-1 vector result should unpack to a packed scalar, got ptr=%v", val.ptr)
	}
	wantInt(t, val, 42)
}

func TestVectorValKeepsHeapFormAboveLengthOne(t *testing.T) {
	v := NewVector(ElemInt, 3)
	v.Set(0, IntVal(1))
	v.Set(1, IntVal(2))
	v.Set(2, IntVal(3))
	val := VectorVal(v)
	if val.ptr == nil {
		t.Fatalf("length-3 vector result should stay heap-backed")
	}
	if val.Length != 3 {
		t.Fatalf("want length 3, got %d", val.Length)
	}
}

func TestAsVectorSynthesizesScalarView(t *testing.T) {
	scalar := DoubleVal(2.5)
	vec := AsVector(scalar)
	if vec.Len() != 1 {
		t.Fatalf("want synthesized length 1, got %d", vec.Len())
	}
	wantDouble(t, vec.At(0), 2.5)
}

func TestVectorAtSetRoundTripsNA(t *testing.T) {
	v := NewVector(ElemLogical, 2)
	v.Set(0, NALogical)
	v.Set(1, Logical(true))
	if !v.MayHaveNA {
		t.Fatalf("setting an NA element should flip MayHaveNA")
	}
	got, na := v.At(0).AsLogical()
	if !na || got {
		t.Fatalf("element 0 should read back as NA")
	}
	wantLogical(t, v.At(1), true)
}
