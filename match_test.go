package riposte

import "testing"

func protoWithParams(ip *Interpreter, names []string, defaults []Value, dots bool) *Prototype {
	params := make([]uint32, len(names))
	dotsIndex := -1
	for i, n := range names {
		params[i] = ip.Intern(n)
		if n == "..." {
			dotsIndex = i
		}
	}
	if dots && dotsIndex < 0 {
		dotsIndex = len(params)
	}
	return &Prototype{Params: params, Defaults: make([]*Prototype, len(params)), DotsIndex: dotsIndex}
}

func TestBindArgumentsPositional(t *testing.T) {
	ip := NewInterpreter()
	proto := protoWithParams(ip, []string{"x", "y"}, nil, false)
	env := NewEnvironment(nil, nil)
	BindArguments(env, proto, []Value{IntVal(1), IntVal(2)}, nil)
	wantInt(t, env.Get(proto.Params[0]), 1)
	wantInt(t, env.Get(proto.Params[1]), 2)
}

func TestBindArgumentsNamedExactMatch(t *testing.T) {
	ip := NewInterpreter()
	proto := protoWithParams(ip, []string{"x", "y"}, nil, false)
	env := NewEnvironment(nil, nil)
	yID := ip.Intern("y")
	xID := ip.Intern("x")
	BindArguments(env, proto, []Value{IntVal(10), IntVal(20)}, []uint32{yID, xID})
	wantInt(t, env.Get(xID), 20)
	wantInt(t, env.Get(yID), 10)
}

func TestBindArgumentsNamedThenPositionalFill(t *testing.T) {
	ip := NewInterpreter()
	proto := protoWithParams(ip, []string{"x", "y", "z"}, nil, false)
	env := NewEnvironment(nil, nil)
	yID := ip.Intern("y")
	BindArguments(env, proto, []Value{IntVal(99), IntVal(1), IntVal(2)}, []uint32{yID, idEmpty, idEmpty})
	wantInt(t, env.Get(proto.Params[0]), 1) // x <- first unnamed
	wantInt(t, env.Get(yID), 99)
	wantInt(t, env.Get(proto.Params[2]), 2) // z <- second unnamed
}

func TestBindArgumentsDefaultsFillUnbound(t *testing.T) {
	ip := NewInterpreter()
	proto := protoWithParams(ip, []string{"x", "y"}, nil, false)
	proto.Defaults[1] = ip.Compile(IntVal(7))
	env := NewEnvironment(nil, nil)
	BindArguments(env, proto, []Value{IntVal(1)}, nil)
	wantInt(t, env.Get(proto.Params[0]), 1)
	v := env.Get(proto.Params[1])
	if v.Tag != TagPromise {
		t.Fatalf("an unbound formal with a default should be bound to a promise, got %#v", v)
	}
}

func TestBindArgumentsExcessGoesToDots(t *testing.T) {
	ip := NewInterpreter()
	proto := protoWithParams(ip, []string{"x"}, nil, true)
	env := NewEnvironment(nil, nil)
	nameID := ip.Intern("tag")
	BindArguments(env, proto, []Value{IntVal(1), IntVal(2), IntVal(3)}, []uint32{idEmpty, nameID, idEmpty})
	wantInt(t, env.Get(proto.Params[0]), 1)
	dots := env.Get(DotsID).AsList()
	if len(dots) != 2 {
		t.Fatalf("want 2 leftover args in \"...\", got %d", len(dots))
	}
	wantInt(t, dots[0], 2)
	wantInt(t, dots[1], 3)
	if got := env.DotsNames(); len(got) != 2 || got[0] != nameID || got[1] != idEmpty {
		t.Fatalf("dots names should preserve call-site order, got %#v", got)
	}
}

func TestBindArgumentsDuplicateNamedArgumentIsMatchErrorEvenWithDots(t *testing.T) {
	ip := NewInterpreter()
	proto := protoWithParams(ip, []string{"x"}, nil, true) // has "..."
	env := NewEnvironment(nil, nil)
	xID := ip.Intern("x")
	var caught *RiposteError
	func() {
		defer func() {
			if r := recover(); r != nil {
				caught = r.(*RiposteError)
			}
		}()
		BindArguments(env, proto, []Value{IntVal(1), IntVal(2)}, []uint32{xID, xID})
	}()
	if caught == nil || caught.Kind != MatchError {
		t.Fatalf("want a MatchError when two named actuals target the same formal, got %#v", caught)
	}
}

func TestBindArgumentsUnusedArgumentWithoutDotsIsMatchError(t *testing.T) {
	ip := NewInterpreter()
	proto := protoWithParams(ip, []string{"x"}, nil, false)
	env := NewEnvironment(nil, nil)
	var caught *RiposteError
	func() {
		defer func() {
			if r := recover(); r != nil {
				caught = r.(*RiposteError)
			}
		}()
		BindArguments(env, proto, []Value{IntVal(1), IntVal(2)}, nil)
	}()
	if caught == nil || caught.Kind != MatchError {
		t.Fatalf("want a MatchError for an excess argument with no \"...\", got %#v", caught)
	}
}
