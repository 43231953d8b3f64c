// deparse.go
//
// A minimal structural renderer used only to annotate error messages
// (errors.go) with the expression that caused them. This is not the
// language's pretty-printer — rendering interned names back to text
// needs a live Interner, which error values don't carry — so symbols
// print as "<sym#id>". A host embedding this core can attach its own
// interner-aware deparser on top; spec §1 places source-level
// presentation concerns outside the execution core.
package riposte

import "strconv"

// Deparse renders v as a compact, non-authoritative debug string.
func Deparse(v Value) string {
	switch v.Tag {
	case TagNil:
		return "<nil>"
	case TagNull:
		return "NULL"
	case TagSymbol:
		return "<sym#" + strconv.FormatUint(uint64(v.AsStringID()), 10) + ">"
	case TagList:
		elems := v.AsList()
		out := "("
		for i, e := range elems {
			if i > 0 {
				out += " "
			}
			out += Deparse(e)
		}
		return out + ")"
	case TagObject:
		o := v.ptr.(*Object)
		if o.IsCall() {
			callee, args, _ := CallParts(v)
			out := "call(" + Deparse(callee)
			for _, a := range args {
				out += ", " + Deparse(a)
			}
			return out + ")"
		}
		if o.IsExpression() {
			return "expr" + Deparse(o.Base)
		}
		return "object(" + Deparse(o.Base) + ")"
	default:
		return v.String()
	}
}
