// compiler.go
//
// Lowers an expression tree (spec §3's Value shapes: Symbol, Call,
// Expression, or any literal) into a Prototype: a constant pool plus a
// bytecode stream (spec §4.3). Grounded on the teacher's emitter
// plumbing in interpreter_exec.go (newEmitter/ensureChunkWithSource/
// jitTop) and the opcode-packing idiom of vm.go (pack/uop/uimm),
// generalized from MindScript's small fixed opcode set to the full
// table spec §4.4 names, plus the guarded inline-cache paths of §4.3.
package riposte

// Op is the bytecode opcode (spec §4.4's opcode table).
type Op uint8

const (
	OpKGet Op = iota
	OpGet
	OpIGet
	OpPop
	OpAssign
	OpClassAssign
	OpNamesAssign
	OpDimAssign
	OpIAssign
	OpForBegin
	OpForEnd
	OpWhileBegin
	OpWhileEnd
	OpRepeatBegin
	OpRepeatEnd
	OpIf1
	OpJmp
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpIDiv
	OpMod
	OpPow
	OpPos
	OpNeg
	OpLNeg
	OpLAnd
	OpLOr
	OpEq
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe
	OpAbs
	OpSign
	OpSqrt
	OpFloor
	OpCeiling
	OpTrunc
	OpRound
	OpSignif
	OpExp
	OpLog
	OpCos
	OpSin
	OpTan
	OpAcos
	OpAsin
	OpAtan
	OpDelay
	OpSymDelay
	OpCall
	OpDCall
	OpFGuard
	OpFGuard1
	OpNull
	OpRet
)

// Instruction is the four-field format of spec §4.4: an opcode and
// three integer operands whose meaning is opcode-specific (names,
// offsets, constant-pool indices, jump deltas).
type Instruction struct {
	Op      Op
	A, B, C int32
}

// Prototype is the immutable compiled form of an expression (spec §3).
type Prototype struct {
	Expr        Value // original expression, for reflection/deparsing
	Params      []uint32
	Defaults    []*Prototype // parallel to Params; nil entry means "no default"
	DotsIndex   int          // index of "..." among Params, or -1
	MaxRegister int          // stack high-water-mark (spec's "register" terminology; this VM is stack-based, see vm.go)
	Constants   []Value
	Code        []Instruction

	dispatch []opHandler // threaded-dispatch cache (vm.go), built on first run
}

var binaryArithOp = map[Op]bool{
	OpAdd: true, OpSub: true, OpMul: true, OpDiv: true, OpIDiv: true, OpMod: true, OpPow: true,
	OpEq: true, OpNeq: true, OpLt: true, OpLe: true, OpGt: true, OpGe: true,
	OpLAnd: true, OpLOr: true,
}

var unaryMathOp = map[string]Op{
	"abs": OpAbs, "sign": OpSign, "sqrt": OpSqrt, "floor": OpFloor, "ceiling": OpCeiling,
	"trunc": OpTrunc, "round": OpRound, "signif": OpSignif, "exp": OpExp, "log": OpLog,
	"cos": OpCos, "sin": OpSin, "tan": OpTan, "acos": OpAcos, "asin": OpAsin, "atan": OpAtan,
}

var binaryPrimOp = map[string]Op{
	"+": OpAdd, "-": OpSub, "*": OpMul, "/": OpDiv, "%/%": OpIDiv, "%%": OpMod, "^": OpPow,
	"==": OpEq, "!=": OpNeq, "<": OpLt, "<=": OpLe, ">": OpGt, ">=": OpGe,
	"&": OpLAnd, "|": OpLOr,
}

// compiler holds per-Interpreter compile-time state: the keyword ids
// interned once at construction (so head-symbol recognition is an
// integer compare, not a string compare) and the code and constant
// buffers being built. The loop-context stack break/next resolve
// against is passed alongside as the loops parameter.
type compiler struct {
	ip   *Interpreter
	kw   map[string]uint32
	code []Instruction
	cons []Value
	maxR int
	cur  int // current simulated stack depth, for MaxRegister tracking
}

func newCompiler(ip *Interpreter) *compiler {
	c := &compiler{ip: ip, kw: map[string]uint32{}}
	for _, name := range []string{
		"if", "for", "while", "repeat", "break", "next", "{", "(", "<-", "=", "function",
		"+", "-", "*", "/", "%/%", "%%", "^", "==", "!=", "<", "<=", ">", ">=", "!", "&", "|",
		"abs", "sign", "sqrt", "floor", "ceiling", "trunc", "round", "signif", "exp", "log",
		"cos", "sin", "tan", "acos", "asin", "atan", ":",
	} {
		c.kw[name] = ip.Intern(name)
	}
	return c
}

type loopCtx struct {
	breakPatches []int
	nextTarget   int // not set by the loop compilers; next jumps are patched via nextPatches
	nextPatches  []int
}

// Compile lowers expr into a fresh top-level Prototype, terminated by
// Ret per spec §4.3.
func (ip *Interpreter) Compile(expr Value) *Prototype {
	c := newCompiler(ip)
	var loops []loopCtx
	c.compileExpr(expr, &loops)
	c.emit(OpRet, 0, 0, 0)
	return &Prototype{Expr: expr, DotsIndex: -1, MaxRegister: c.maxR, Constants: c.cons, Code: c.code}
}

// CompileFunctionBody compiles a function's body and its formals'
// default-value expressions, given its already-parsed parameter
// names, for use by match.go/vm.go when constructing closures. A Nil
// entry in defaultExprs means that formal has no default.
func (ip *Interpreter) CompileFunctionBody(body Value, params []uint32, defaultExprs []Value, dotsIndex int) *Prototype {
	c := newCompiler(ip)
	var loops []loopCtx
	c.compileExpr(body, &loops)
	c.emit(OpRet, 0, 0, 0)

	defaults := make([]*Prototype, len(defaultExprs))
	for i, d := range defaultExprs {
		if !d.IsNil() {
			defaults[i] = ip.Compile(d)
		}
	}
	return &Prototype{
		Expr: body, Params: params, Defaults: defaults, DotsIndex: dotsIndex,
		MaxRegister: c.maxR, Constants: c.cons, Code: c.code,
	}
}

func (c *compiler) push() { c.cur++; if c.cur > c.maxR { c.maxR = c.cur } }
func (c *compiler) drop() { c.cur-- }

func (c *compiler) here() int { return len(c.code) }

func (c *compiler) emit(op Op, a, b, cc int32) int {
	c.code = append(c.code, Instruction{Op: op, A: a, B: b, C: cc})
	return len(c.code) - 1
}

func (c *compiler) patchB(idx int, target int) { c.code[idx].B = int32(target - idx) }
func (c *compiler) patchA(idx int, target int) { c.code[idx].A = int32(target - idx) }

func (c *compiler) addConst(v Value) int32 {
	c.cons = append(c.cons, v)
	return int32(len(c.cons) - 1)
}

// headSymbol returns the interned id of v's Call head if v is a Call
// whose callee is a bare Symbol, and ok=false otherwise.
func headSymbol(v Value) (id uint32, args []Value, names []uint32, ok bool) {
	o, isObj := AsObject(v)
	if !isObj || !o.IsCall() {
		return 0, nil, nil, false
	}
	callee, a, n := CallParts(v)
	if callee.Tag != TagSymbol {
		return 0, nil, nil, false
	}
	return callee.AsStringID(), a, n, true
}

// compileExpr is the single dispatch point of spec §4.3's lowering rules.
func (c *compiler) compileExpr(v Value, loops *[]loopCtx) {
	switch v.Tag {
	case TagSymbol:
		c.emit(OpGet, int32(v.AsStringID()), 0, 0)
		c.push()
		return
	case TagObject:
		o, _ := AsObject(v)
		if o.IsExpression() {
			c.compileSequence(o.Base.AsList(), loops)
			return
		}
		if o.IsCall() {
			c.compileCall(v, loops)
			return
		}
	}
	// Any other tag is a literal: push it from the constant pool.
	k := c.addConst(v)
	c.emit(OpKGet, k, 0, 0)
	c.push()
}

func (c *compiler) compileSequence(stmts []Value, loops *[]loopCtx) {
	if len(stmts) == 0 {
		c.emit(OpNull, 0, 0, 0)
		c.push()
		return
	}
	for i, s := range stmts {
		c.compileExpr(s, loops)
		if i < len(stmts)-1 {
			c.emit(OpPop, 0, 0, 0)
			c.drop()
		}
	}
}

func (c *compiler) compileCall(v Value, loops *[]loopCtx) {
	id, args, names, _ := headSymbol(v)

	switch id {
	case c.kw["{"]:
		c.compileSequence(args, loops)
		return
	case c.kw["("]:
		if len(args) == 1 {
			c.compileExpr(args[0], loops)
			return
		}
	case c.kw["<-"], c.kw["="]:
		c.compileAssign(args, loops)
		return
	case c.kw["if"]:
		c.compileIf(args, loops)
		return
	case c.kw["for"]:
		c.compileFor(args, loops)
		return
	case c.kw["while"]:
		c.compileWhile(args, loops)
		return
	case c.kw["repeat"]:
		c.compileRepeat(args, loops)
		return
	case c.kw["break"]:
		c.compileBreak(loops)
		return
	case c.kw["next"]:
		c.compileNext(loops)
		return
	case c.kw["function"]:
		c.compileFunctionLiteral(args)
		return
	case c.kw["!"]:
		if len(args) == 1 {
			c.compileInlinePrimitive(id, OpLNeg, args, loops)
			return
		}
	case c.kw["-"]:
		if len(args) == 1 {
			c.compileInlinePrimitive(id, OpNeg, args, loops)
			return
		}
	case c.kw["+"]:
		if len(args) == 1 {
			c.compileInlinePrimitive(id, OpPos, args, loops)
			return
		}
	}

	if op, ok := binaryPrimOp[c.ip.interner.Extern(id)]; ok && len(args) == 2 {
		c.compileInlinePrimitive(id, op, args, loops)
		return
	}
	if op, ok := unaryMathOp[c.ip.interner.Extern(id)]; ok && len(args) == 1 {
		c.compileInlinePrimitive(id, op, args, loops)
		return
	}

	c.compileGenericCall(v, args, names, loops)
}

// compileInlinePrimitive emits the guarded inline-cache path of spec
// §4.3 for a recognized primitive head of arity 1 or 2: fguard compares
// the primitive name's current binding against the Value seen at
// compile time; on a match it falls through to the specialized opcode
// directly over the already-evaluated operand(s); on a mismatch (the
// name has been rebound since compile time) it performs a dynamic call
// to whatever is bound now, with the same operand(s), and jumps past
// the specialized opcode. Unary heads (unary-math, "!", "-", "+") use
// OpFGuard1 over a single operand; the original binary heads keep
// using OpFGuard over two.
func (c *compiler) compileInlinePrimitive(nameID uint32, op Op, args []Value, loops *[]loopCtx) {
	expected := c.ip.Core.Get(nameID)
	specIdx := c.addConst(expected)

	switch len(args) {
	case 1:
		c.compileExpr(args[0], loops)
		guardIdx := c.emit(OpFGuard1, specIdx, int32(nameID), 0)
		c.emit(op, 0, 0, 0)
		after := c.here()
		c.code[guardIdx].C = int32(after - guardIdx)
		// unary op consumes 1, produces 1: net 0, nothing to drop.
	case 2:
		// Right-to-left operand order (spec §3/§5, original_source/src/compiler.cpp):
		// the left operand ends up on top of stack, consumed first by the kernel.
		c.compileExpr(args[1], loops)
		c.compileExpr(args[0], loops)

		guardIdx := c.emit(OpFGuard, specIdx, int32(nameID), 0)
		c.emit(op, 0, 0, 0)
		after := c.here()
		c.code[guardIdx].C = int32(after - guardIdx)
		c.drop() // binary op consumes 2, produces 1: net -1
	default:
		panicErr(CompileError, "inline primitive arity must be 1 or 2")
	}
}

// compileFunctionLiteral compiles a nested function definition into its
// own Prototype, stored as a TagCode constant. There is no dedicated
// closure-construction opcode in spec §4.4's table, so OpKGet (vm.go)
// is the one place a TagCode constant is wrapped into a Function
// closing over the environment live at the point it is pushed — the
// minimal extension this VM needs to support function literals inside
// compiled code without inventing a new instruction.
func (c *compiler) compileFunctionLiteral(args []Value) {
	if len(args) != 2 {
		panicErr(CompileError, "function takes (formals, body)")
	}
	formals := args[0].AsList()
	params := make([]uint32, len(formals))
	defaultExprs := make([]Value, len(formals))
	dotsIndex := -1
	for i, pair := range formals {
		pe := pair.AsList()
		name := pe[0]
		params[i] = name.AsStringID()
		if len(pe) > 1 {
			defaultExprs[i] = pe[1]
		}
		if name.AsStringID() == DotsID {
			dotsIndex = i
		}
	}
	proto := c.ip.CompileFunctionBody(args[1], params, defaultExprs, dotsIndex)
	k := c.addConst(Value{Tag: TagCode, ptr: proto})
	c.emit(OpKGet, k, 0, 0)
	c.push()
}

func (c *compiler) compileAssign(args []Value, loops *[]loopCtx) {
	if len(args) != 2 || args[0].Tag != TagSymbol {
		panicErr(CompileError, "assignment target must be a symbol")
	}
	c.compileExpr(args[1], loops)
	c.emit(OpAssign, int32(args[0].AsStringID()), 0, 0)
}

func (c *compiler) compileIf(args []Value, loops *[]loopCtx) {
	if len(args) < 2 || len(args) > 3 {
		panicErr(CompileError, "if takes a condition, a then-branch, and an optional else-branch")
	}
	c.compileExpr(args[0], loops)
	c.drop()
	jIf := c.emit(OpIf1, 0, 0, 0)
	c.compileExpr(args[1], loops)
	if len(args) == 3 {
		jEnd := c.emit(OpJmp, 0, 0, 0)
		c.patchA(jIf, c.here())
		c.drop()
		c.compileExpr(args[2], loops)
		c.patchA(jEnd, c.here())
	} else {
		jEnd := c.emit(OpJmp, 0, 0, 0)
		c.patchA(jIf, c.here())
		c.drop()
		c.emit(OpNull, 0, 0, 0)
		c.push()
		c.patchA(jEnd, c.here())
	}
}

func (c *compiler) compileFor(args []Value, loops *[]loopCtx) {
	if len(args) != 3 || args[0].Tag != TagSymbol {
		panicErr(CompileError, "for takes (var, range, body)")
	}
	rangeID, rangeArgs, _, ok := headSymbol(args[1])
	if !ok || rangeID != c.kw[":"] || len(rangeArgs) != 2 {
		panicErr(CompileError, "for range must be lower:upper")
	}
	c.compileExpr(rangeArgs[0], loops) // lower
	c.compileExpr(rangeArgs[1], loops) // upper
	c.drop()
	c.drop()

	beginIdx := c.emit(OpForBegin, int32(args[0].AsStringID()), 0, 0)
	*loops = append(*loops, loopCtx{})
	c.compileExpr(args[2], loops)
	c.emit(OpPop, 0, 0, 0)
	c.drop()
	endIdx := c.emit(OpForEnd, 0, 0, 0)
	c.patchA(endIdx, beginIdx+1)

	lc := (*loops)[len(*loops)-1]
	for _, p := range lc.nextPatches {
		c.patchA(p, endIdx)
	}
	*loops = (*loops)[:len(*loops)-1]
	exitIdx := c.here()
	c.patchB(beginIdx, exitIdx)
	for _, p := range lc.breakPatches {
		c.patchA(p, exitIdx)
	}
	c.emit(OpNull, 0, 0, 0)
	c.push()
}

func (c *compiler) compileWhile(args []Value, loops *[]loopCtx) {
	if len(args) != 2 {
		panicErr(CompileError, "while takes (condition, body)")
	}
	beginIdx := c.here()
	c.compileExpr(args[0], loops)
	c.drop()
	whIdx := c.emit(OpWhileBegin, 0, 0, 0)
	*loops = append(*loops, loopCtx{})
	c.compileExpr(args[1], loops)
	c.emit(OpPop, 0, 0, 0)
	c.drop()
	endIdx := c.emit(OpWhileEnd, 0, 0, 0)
	c.patchA(endIdx, beginIdx)

	lc := (*loops)[len(*loops)-1]
	for _, p := range lc.nextPatches {
		c.patchA(p, endIdx)
	}
	*loops = (*loops)[:len(*loops)-1]
	exitIdx := c.here()
	c.patchA(whIdx, exitIdx)
	for _, p := range lc.breakPatches {
		c.patchA(p, exitIdx)
	}
	c.emit(OpNull, 0, 0, 0)
	c.push()
}

func (c *compiler) compileRepeat(args []Value, loops *[]loopCtx) {
	if len(args) != 1 {
		panicErr(CompileError, "repeat takes (body)")
	}
	beginIdx := c.emit(OpRepeatBegin, 0, 0, 0)
	*loops = append(*loops, loopCtx{})
	c.compileExpr(args[0], loops)
	c.emit(OpPop, 0, 0, 0)
	c.drop()
	endIdx := c.emit(OpRepeatEnd, 0, 0, 0)
	c.patchA(endIdx, beginIdx+1)

	lc := (*loops)[len(*loops)-1]
	for _, p := range lc.nextPatches {
		c.patchA(p, endIdx)
	}
	*loops = (*loops)[:len(*loops)-1]
	exitIdx := c.here()
	for _, p := range lc.breakPatches {
		c.patchA(p, exitIdx)
	}
	c.emit(OpNull, 0, 0, 0)
	c.push()
}

func (c *compiler) compileBreak(loops *[]loopCtx) {
	if len(*loops) == 0 {
		panicErr(CompileError, "break outside a loop")
	}
	idx := c.emit(OpJmp, 0, 0, 0)
	top := len(*loops) - 1
	(*loops)[top].breakPatches = append((*loops)[top].breakPatches, idx)
}

func (c *compiler) compileNext(loops *[]loopCtx) {
	if len(*loops) == 0 {
		panicErr(CompileError, "next outside a loop")
	}
	idx := c.emit(OpJmp, 0, 0, 0)
	top := len(*loops) - 1
	(*loops)[top].nextPatches = append((*loops)[top].nextPatches, idx)
}

// compileGenericCall lowers a general function call: each argument
// becomes a promise (sym-delay for a bare symbol, delay for anything
// else) unless the compiler can see it is a plain literal, in which
// case it is compiled eagerly (spec §4.3).
func (c *compiler) compileGenericCall(call Value, args []Value, names []uint32, loops *[]loopCtx) {
	hasDots := false
	for _, a := range args {
		if a.Tag == TagSymbol && a.AsStringID() == DotsID {
			hasDots = true
		}
	}

	callee, _, _ := CallParts(call)
	c.compileExpr(callee, loops)

	for _, a := range args {
		switch {
		case a.Tag == TagSymbol && a.AsStringID() == DotsID:
			k := c.addConst(dotsSpliceVal)
			c.emit(OpKGet, k, 0, 0)
			c.push()
		case a.Tag == TagSymbol:
			c.emit(OpSymDelay, int32(a.AsStringID()), 0, 0)
			c.push()
		case isLiteral(a):
			c.compileExpr(a, loops)
		default:
			proto := c.ip.Compile(a)
			k := c.addConst(Value{Tag: TagCode, ptr: proto})
			c.emit(OpDelay, k, 0, 0)
			c.push()
		}
	}
	// Argument names get their own constant (operand B), which execCall
	// (vm.go) reads back; the call record itself is operand C.
	namesConst := c.addConst(namesToValue(names))
	callExprConst := c.addConst(call)
	if hasDots {
		c.emit(OpDCall, int32(len(args)), namesConst, callExprConst)
	} else {
		c.emit(OpCall, int32(len(args)), namesConst, callExprConst)
	}
	// The callee plus every argument are popped by execCall and replaced
	// with a single result: drop all of them, then push the result.
	for i := 0; i < len(args)+1; i++ {
		c.drop()
	}
	c.push()
}

func namesToValue(names []uint32) Value {
	if names == nil {
		return Nil
	}
	vs := make([]Value, len(names))
	for i, n := range names {
		vs[i] = CharFromID(n)
	}
	return ListVal(vs)
}

func isLiteral(v Value) bool {
	if v.Tag == TagSymbol {
		return false
	}
	if o, ok := AsObject(v); ok && (o.IsCall() || o.IsExpression()) {
		return false
	}
	return true
}
