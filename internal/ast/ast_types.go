package ast

// PathType is a named type reference, e.g. `Vec<T>` or `std::io::Error`.
type PathType struct {
	Base
	Segments []string
	Generics []TypeExpr
}

func (t *PathType) String() string      { return t.Tok.Lexeme }
func (t *PathType) Accept(v Visitor) any { return v.VisitPathType(t) }
func (t *PathType) typeNode()          {}

// RefType is `&T` or `&mut T`.
type RefType struct {
	Base
	Mut    bool
	Target TypeExpr
}

func (t *RefType) String() string      { return "&T" }
func (t *RefType) Accept(v Visitor) any { return v.VisitRefType(t) }
func (t *RefType) typeNode()          {}

// TupleType is `(A, B, C)`, or `()` (unit) when Elems is empty.
type TupleType struct {
	Base
	Elems []TypeExpr
}

func (t *TupleType) String() string      { return "(tuple)" }
func (t *TupleType) Accept(v Visitor) any { return v.VisitTupleType(t) }
func (t *TupleType) typeNode()          {}

// ArrayType is `[T; N]`, a fixed-size array.
type ArrayType struct {
	Base
	Elem TypeExpr
	Len  Expression
}

func (t *ArrayType) String() string      { return "[T; N]" }
func (t *ArrayType) Accept(v Visitor) any { return v.VisitArrayType(t) }
func (t *ArrayType) typeNode()          {}

// SliceType is `[T]`, an unsized slice (only ever appears behind a
// reference in well-formed source, but parses standalone).
type SliceType struct {
	Base
	Elem TypeExpr
}

func (t *SliceType) String() string      { return "[T]" }
func (t *SliceType) Accept(v Visitor) any { return v.VisitSliceType(t) }
func (t *SliceType) typeNode()          {}

// FnType is `fn(A, B) -> C` or a `Fn(A, B) -> C` trait-bound sugar form.
type FnType struct {
	Base
	Params  []TypeExpr
	Ret     TypeExpr
	IsTrait bool // true for `Fn`/`FnMut`/`FnOnce` sugar, false for `fn(...)`
}

func (t *FnType) String() string      { return "fn(...)" }
func (t *FnType) Accept(v Visitor) any { return v.VisitFnType(t) }
func (t *FnType) typeNode()          {}

// NeverType is `!`, the empty/bottom type.
type NeverType struct {
	Base
}

func (t *NeverType) String() string      { return "!" }
func (t *NeverType) Accept(v Visitor) any { return v.VisitNeverType(t) }
func (t *NeverType) typeNode()          {}

// InferType is the placeholder `_` in type position.
type InferType struct {
	Base
}

func (t *InferType) String() string      { return "_" }
func (t *InferType) Accept(v Visitor) any { return v.VisitInferType(t) }
func (t *InferType) typeNode()          {}
