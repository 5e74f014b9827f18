// Package hir lowers one function (or const/static initializer) body from
// the concrete internal/ast into a desugared expression/pattern IR: `for`
// becomes an explicit loop over an iterator, `if let`/`while let` become
// `match`, `a?` becomes an early-return match, and `a[b]` becomes an
// `Index::index` method call. Type inference (internal/infer) and the
// trait solver (internal/traitsolver) both work over this IR rather than
// the raw syntax tree, so they only ever need to understand one shape of
// "if" and one shape of "loop".
package hir

import "github.com/funvibe/funxy/internal/ast"

// ExprId indexes into a Body's expression arena.
type ExprId uint32

// PatId indexes into a Body's pattern arena.
type PatId uint32

const NoExpr ExprId = ^ExprId(0)

// BinOp mirrors the subset of ast.BinaryExpr operators the lowering cares
// about; kept as strings on the AST side, normalized to a small enum here
// so internal/infer can switch on operator class without string-comparing.
type BinOp string

// ExprKind tags the variant held by one Expr arena slot.
type ExprKind uint8

const (
	EMissing ExprKind = iota
	ELiteral
	EPath
	EBlock
	EIf
	EMatch
	ELoop
	ECall
	EMethodCall
	EBinary
	EUnary
	ERef
	EField
	EIndex
	ETuple
	EArray
	EArrayRepeat
	EStructLit
	EClosure
	EAssign
	EReturn
	EBreak
	EContinue
	ETry
	ERange
)

// LiteralKind tags a literal's shape; the raw text is kept for constant
// folding and hover display.
type LiteralKind uint8

const (
	LitInt LiteralKind = iota
	LitFloat
	LitString
	LitChar
	LitBool
)

// MatchArm is one lowered arm: pattern, optional guard, and body.
type MatchArm struct {
	Pat   PatId
	Guard ExprId // NoExpr if absent
	Body  ExprId
}

// Expr is one arena slot. Only the fields relevant to Kind are populated;
// this mirrors the "one big sum type via struct-of-optionals" style
// idiomatic to a Go IR where a real enum isn't available.
type Expr struct {
	Kind ExprKind
	Src  ast.Expression // originating concrete node, for source-map back-mapping

	LiteralKind LiteralKind
	Text        string // literal text / path textual form / field or method name / binary-op spelling

	Exprs  []ExprId // operands: call args, tuple/array elements, block statements, etc.
	Pats   []PatId
	Arms   []MatchArm
	Cond   ExprId
	Then   ExprId
	Else   ExprId // NoExpr if absent
	Body   ExprId
	Params []PatId // closure params
	IsMove bool
	Fields []string // struct-literal field names, parallel to Exprs
}

// Pat is one pattern arena slot, flattened the same way Expr is.
type Pat struct {
	Src  ast.Pattern
	Kind string // "bind", "wildcard", "tuple", "struct", "path", "literal", "rest", "ref"
	Name string
	Sub  []PatId
}

// Body is one function/const/static's fully lowered IR plus the source
// map back to the concrete syntax it came from.
type Body struct {
	Exprs  []Expr
	Pats   []Pat
	Params []PatId
	Tail   ExprId // NoExpr if the body's block has no tail expression

	ExprSource map[ExprId]ast.Expression
	PatSource  map[PatId]ast.Pattern
}

type lowerer struct {
	b *Body
}

func newLowerer() *lowerer {
	return &lowerer{b: &Body{ExprSource: map[ExprId]ast.Expression{}, PatSource: map[PatId]ast.Pattern{}}}
}

func (l *lowerer) pushExpr(e Expr) ExprId {
	id := ExprId(len(l.b.Exprs))
	l.b.Exprs = append(l.b.Exprs, e)
	if e.Src != nil {
		l.b.ExprSource[id] = e.Src
	}
	return id
}

func (l *lowerer) pushPat(p Pat) PatId {
	id := PatId(len(l.b.Pats))
	l.b.Pats = append(l.b.Pats, p)
	if p.Src != nil {
		l.b.PatSource[id] = p.Src
	}
	return id
}

// LowerFunction lowers a function's parameter patterns and body block into
// one Body. fn may have a nil Body (a trait method declaration with no
// default), in which case the returned Body has no expressions.
func LowerFunction(fn *ast.FunctionDecl) *Body {
	l := newLowerer()
	for _, p := range fn.Params {
		if p.Pattern != nil {
			l.b.Params = append(l.b.Params, l.lowerPat(p.Pattern))
		}
	}
	if fn.Body != nil {
		id := l.lowerBlock(fn.Body)
		l.b.Tail = id
	} else {
		l.b.Tail = NoExpr
	}
	return l.b
}

// LowerConstExpr lowers a single expression in isolation (const/static
// initializers, array-repeat counts).
func LowerConstExpr(e ast.Expression) *Body {
	l := newLowerer()
	l.b.Tail = l.lowerExpr(e)
	return l.b
}

func (l *lowerer) lowerBlock(b *ast.BlockExpr) ExprId {
	var stmts []ExprId
	for _, s := range b.Stmts {
		switch st := s.(type) {
		case *ast.ExprStmt:
			stmts = append(stmts, l.lowerExpr(st.Expr))
		case *ast.LetStmt:
			stmts = append(stmts, l.lowerLet(st))
		case *ast.ItemStmt:
			// Local item declarations don't produce a value; nameres/
			// infer treat them as already resolved via the enclosing
			// module's def map, so nothing to lower here.
		}
	}
	tail := NoExpr
	if b.Tail != nil {
		tail = l.lowerExpr(b.Tail)
	}
	return l.pushExpr(Expr{Kind: EBlock, Src: b, Exprs: stmts, Body: tail})
}

func (l *lowerer) lowerLet(st *ast.LetStmt) ExprId {
	pat := l.lowerPat(st.Pattern)
	init := NoExpr
	if st.Value != nil {
		init = l.lowerExpr(st.Value)
	}
	if st.ElseBlock != nil {
		// `let PAT = EXPR else { DIVERGE };` desugars to a match with an
		// irrefutable-arm fallthrough and a diverging else arm.
		elseId := l.lowerBlock(st.ElseBlock)
		arm := MatchArm{Pat: pat, Guard: NoExpr, Body: init}
		wildcard := l.pushPat(Pat{Kind: "wildcard"})
		return l.pushExpr(Expr{Kind: EMatch, Cond: init, Arms: []MatchArm{arm, {Pat: wildcard, Guard: NoExpr, Body: elseId}}})
	}
	return l.pushExpr(Expr{Kind: EAssign, Pats: []PatId{pat}, Exprs: []ExprId{init}, Text: "let"})
}

func (l *lowerer) lowerExpr(e ast.Expression) ExprId {
	if e == nil {
		return NoExpr
	}
	switch ex := e.(type) {
	case *ast.IntegerLiteral:
		return l.pushExpr(Expr{Kind: ELiteral, Src: ex, LiteralKind: LitInt, Text: ex.Token().Lexeme})
	case *ast.FloatLiteral:
		return l.pushExpr(Expr{Kind: ELiteral, Src: ex, LiteralKind: LitFloat, Text: ex.Token().Lexeme})
	case *ast.StringLiteral:
		return l.pushExpr(Expr{Kind: ELiteral, Src: ex, LiteralKind: LitString, Text: ex.Value})
	case *ast.CharLiteral:
		return l.pushExpr(Expr{Kind: ELiteral, Src: ex, LiteralKind: LitChar, Text: ex.Value})
	case *ast.BoolLiteral:
		return l.pushExpr(Expr{Kind: ELiteral, Src: ex, LiteralKind: LitBool, Text: ex.Token().Lexeme})
	case *ast.Identifier:
		return l.pushExpr(Expr{Kind: EPath, Src: ex, Text: ex.Name})
	case *ast.PathExpr:
		return l.pushExpr(Expr{Kind: EPath, Src: ex, Text: pathText(ex)})
	case *ast.BinaryExpr:
		lhs := l.lowerExpr(ex.Left)
		rhs := l.lowerExpr(ex.Right)
		return l.pushExpr(Expr{Kind: EBinary, Src: ex, Exprs: []ExprId{lhs, rhs}, Text: ex.Op.String()})
	case *ast.UnaryExpr:
		operand := l.lowerExpr(ex.Operand)
		return l.pushExpr(Expr{Kind: EUnary, Src: ex, Exprs: []ExprId{operand}, Text: ex.Op.String()})
	case *ast.RefExpr:
		operand := l.lowerExpr(ex.Operand)
		return l.pushExpr(Expr{Kind: ERef, Src: ex, Exprs: []ExprId{operand}, IsMove: ex.Mut})
	case *ast.CallExpr:
		callee := l.lowerExpr(ex.Callee)
		args := l.lowerExprList(ex.Args)
		return l.pushExpr(Expr{Kind: ECall, Src: ex, Exprs: append([]ExprId{callee}, args...)})
	case *ast.MethodCallExpr:
		recv := l.lowerExpr(ex.Receiver)
		args := l.lowerExprList(ex.Args)
		return l.pushExpr(Expr{Kind: EMethodCall, Src: ex, Text: ex.Method, Exprs: append([]ExprId{recv}, args...)})
	case *ast.FieldExpr:
		recv := l.lowerExpr(ex.Receiver)
		return l.pushExpr(Expr{Kind: EField, Src: ex, Exprs: []ExprId{recv}, Text: ex.Field})
	case *ast.IndexExpr:
		// `a[b]` desugars to a call on the Index trait's `index` method,
		// so infer/traitsolver never special-case indexing syntax.
		recv := l.lowerExpr(ex.Receiver)
		idx := l.lowerExpr(ex.Index)
		return l.pushExpr(Expr{Kind: EMethodCall, Src: ex, Text: "index", Exprs: []ExprId{recv, idx}})
	case *ast.TupleExpr:
		return l.pushExpr(Expr{Kind: ETuple, Src: ex, Exprs: l.lowerExprList(ex.Elems)})
	case *ast.ArrayExpr:
		if ex.RepeatN != nil {
			val := l.lowerExpr(ex.Elems[0])
			n := l.lowerExpr(ex.RepeatN)
			return l.pushExpr(Expr{Kind: EArrayRepeat, Src: ex, Exprs: []ExprId{val, n}})
		}
		return l.pushExpr(Expr{Kind: EArray, Src: ex, Exprs: l.lowerExprList(ex.Elems)})
	case *ast.StructLiteralExpr:
		var fields []string
		var vals []ExprId
		for _, f := range ex.Fields {
			fields = append(fields, f.Name)
			vals = append(vals, l.lowerExpr(f.Value))
		}
		if ex.Rest != nil {
			fields = append(fields, "..")
			vals = append(vals, l.lowerExpr(ex.Rest))
		}
		return l.pushExpr(Expr{Kind: EStructLit, Src: ex, Text: joinPath(ex.Path), Fields: fields, Exprs: vals})
	case *ast.ClosureExpr:
		var params []PatId
		for _, p := range ex.Params {
			params = append(params, l.lowerPat(p.Pattern))
		}
		body := l.lowerExpr(ex.Body)
		return l.pushExpr(Expr{Kind: EClosure, Src: ex, Params: params, Body: body, IsMove: ex.Move})
	case *ast.IfExpr:
		cond := l.lowerExpr(ex.Cond)
		then := l.lowerBlock(ex.Then)
		els := NoExpr
		if ex.Else != nil {
			els = l.lowerExpr(ex.Else)
		}
		return l.pushExpr(Expr{Kind: EIf, Src: ex, Cond: cond, Then: then, Else: els})
	case *ast.IfLetExpr:
		// `if let PAT = SCRUTINEE { THEN } else { ELSE }` desugars to a
		// two-armed match.
		scrutinee := l.lowerExpr(ex.Scrutinee)
		pat := l.lowerPat(ex.Pattern)
		then := l.lowerBlock(ex.Then)
		wildcard := l.pushPat(Pat{Kind: "wildcard"})
		elseBody := NoExpr
		if ex.Else != nil {
			elseBody = l.lowerExpr(ex.Else)
		} else {
			elseBody = l.pushExpr(Expr{Kind: ETuple})
		}
		return l.pushExpr(Expr{Kind: EMatch, Src: ex, Cond: scrutinee, Arms: []MatchArm{
			{Pat: pat, Guard: NoExpr, Body: then},
			{Pat: wildcard, Guard: NoExpr, Body: elseBody},
		}})
	case *ast.MatchExpr:
		scrutinee := l.lowerExpr(ex.Scrutinee)
		var arms []MatchArm
		for _, a := range ex.Arms {
			pat := l.lowerPat(a.Pattern)
			guard := NoExpr
			if a.Guard != nil {
				guard = l.lowerExpr(a.Guard)
			}
			arms = append(arms, MatchArm{Pat: pat, Guard: guard, Body: l.lowerExpr(a.Body)})
		}
		return l.pushExpr(Expr{Kind: EMatch, Src: ex, Cond: scrutinee, Arms: arms})
	case *ast.WhileExpr:
		cond := l.lowerExpr(ex.Cond)
		body := l.lowerBlock(ex.Body)
		inner := l.pushExpr(Expr{Kind: EIf, Cond: cond, Then: body, Else: l.pushExpr(Expr{Kind: EBreak})})
		return l.pushExpr(Expr{Kind: ELoop, Src: ex, Body: inner})
	case *ast.WhileLetExpr:
		scrutinee := l.lowerExpr(ex.Scrutinee)
		pat := l.lowerPat(ex.Pattern)
		body := l.lowerBlock(ex.Body)
		wildcard := l.pushPat(Pat{Kind: "wildcard"})
		brk := l.pushExpr(Expr{Kind: EBreak})
		matchId := l.pushExpr(Expr{Kind: EMatch, Cond: scrutinee, Arms: []MatchArm{
			{Pat: pat, Guard: NoExpr, Body: body},
			{Pat: wildcard, Guard: NoExpr, Body: brk},
		}})
		return l.pushExpr(Expr{Kind: ELoop, Src: ex, Body: matchId})
	case *ast.ForExpr:
		// `for PAT in ITER { BODY }` desugars to a loop pulling from
		// Iterator::next, matching Some(PAT) => BODY, None => break.
		iter := l.lowerExpr(ex.Iter)
		nextCall := l.pushExpr(Expr{Kind: EMethodCall, Text: "next", Exprs: []ExprId{iter}})
		pat := l.lowerPat(ex.Pattern)
		somePat := l.pushPat(Pat{Kind: "struct", Name: "Some", Sub: []PatId{pat}})
		nonePat := l.pushPat(Pat{Kind: "path", Name: "None"})
		body := l.lowerBlock(ex.Body)
		brk := l.pushExpr(Expr{Kind: EBreak})
		matchId := l.pushExpr(Expr{Kind: EMatch, Cond: nextCall, Arms: []MatchArm{
			{Pat: somePat, Guard: NoExpr, Body: body},
			{Pat: nonePat, Guard: NoExpr, Body: brk},
		}})
		return l.pushExpr(Expr{Kind: ELoop, Src: ex, Body: matchId})
	case *ast.LoopExpr:
		return l.pushExpr(Expr{Kind: ELoop, Src: ex, Body: l.lowerBlock(ex.Body)})
	case *ast.BlockExpr:
		return l.lowerBlock(ex)
	case *ast.AssignExpr:
		target := l.lowerExpr(ex.Target)
		val := l.lowerExpr(ex.Value)
		return l.pushExpr(Expr{Kind: EAssign, Src: ex, Exprs: []ExprId{target, val}, Text: ex.Op.String()})
	case *ast.ReturnExpr:
		val := NoExpr
		if ex.Value != nil {
			val = l.lowerExpr(ex.Value)
		}
		return l.pushExpr(Expr{Kind: EReturn, Src: ex, Exprs: []ExprId{val}})
	case *ast.BreakExpr:
		val := NoExpr
		if ex.Value != nil {
			val = l.lowerExpr(ex.Value)
		}
		return l.pushExpr(Expr{Kind: EBreak, Src: ex, Exprs: []ExprId{val}})
	case *ast.ContinueExpr:
		return l.pushExpr(Expr{Kind: EContinue, Src: ex})
	case *ast.TryExpr:
		// `EXPR?` desugars to matching EXPR against `Ok`/`Err` and an early
		// return on the `Err` arm; `Option`'s `Some`/`None` is not matched.
		inner := l.lowerExpr(ex.Operand)
		okPat := l.pushPat(Pat{Kind: "struct", Name: "Ok", Sub: []PatId{l.pushPat(Pat{Kind: "bind", Name: "__try_ok"})}})
		errPat := l.pushPat(Pat{Kind: "struct", Name: "Err", Sub: []PatId{l.pushPat(Pat{Kind: "bind", Name: "__try_err"})}})
		okVal := l.pushExpr(Expr{Kind: EPath, Text: "__try_ok"})
		errVal := l.pushExpr(Expr{Kind: EPath, Text: "__try_err"})
		earlyReturn := l.pushExpr(Expr{Kind: EReturn, Exprs: []ExprId{errVal}})
		return l.pushExpr(Expr{Kind: EMatch, Src: ex, Cond: inner, Arms: []MatchArm{
			{Pat: okPat, Guard: NoExpr, Body: okVal},
			{Pat: errPat, Guard: NoExpr, Body: earlyReturn},
		}})
	case *ast.RangeExpr:
		var operands []ExprId
		if ex.Start != nil {
			operands = append(operands, l.lowerExpr(ex.Start))
		}
		if ex.End != nil {
			operands = append(operands, l.lowerExpr(ex.End))
		}
		text := ".."
		if ex.Inclusive {
			text = "..="
		}
		return l.pushExpr(Expr{Kind: ERange, Src: ex, Exprs: operands, Text: text})
	case *ast.MacroCallExpr:
		return l.pushExpr(Expr{Kind: EMissing, Src: ex, Text: ex.Name})
	default:
		return l.pushExpr(Expr{Kind: EMissing})
	}
}

func (l *lowerer) lowerExprList(exprs []ast.Expression) []ExprId {
	out := make([]ExprId, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, l.lowerExpr(e))
	}
	return out
}

func (l *lowerer) lowerPat(p ast.Pattern) PatId {
	if p == nil {
		return l.pushPat(Pat{Kind: "wildcard"})
	}
	switch pt := p.(type) {
	case *ast.IdentPattern:
		return l.pushPat(Pat{Src: pt, Kind: "bind", Name: pt.Name})
	case *ast.WildcardPattern:
		return l.pushPat(Pat{Src: pt, Kind: "wildcard"})
	case *ast.LiteralPattern:
		return l.pushPat(Pat{Src: pt, Kind: "literal", Name: pt.Token().Lexeme})
	case *ast.TuplePattern:
		var sub []PatId
		for _, e := range pt.Elems {
			sub = append(sub, l.lowerPat(e))
		}
		return l.pushPat(Pat{Src: pt, Kind: "tuple", Sub: sub})
	case *ast.StructPattern:
		var sub []PatId
		for _, e := range pt.TupleElems {
			sub = append(sub, l.lowerPat(e))
		}
		for _, f := range pt.Fields {
			sub = append(sub, l.lowerPat(f.Pattern))
		}
		return l.pushPat(Pat{Src: pt, Kind: "struct", Name: joinPath(pt.Path), Sub: sub})
	case *ast.PathPattern:
		return l.pushPat(Pat{Src: pt, Kind: "path", Name: joinPath(pt.Path)})
	case *ast.RestPattern:
		return l.pushPat(Pat{Src: pt, Kind: "rest"})
	case *ast.RefPattern:
		return l.pushPat(Pat{Src: pt, Kind: "ref", Sub: []PatId{l.lowerPat(pt.Pattern)}})
	default:
		return l.pushPat(Pat{Kind: "wildcard"})
	}
}

func pathText(e ast.Expression) string {
	switch p := e.(type) {
	case *ast.PathExpr:
		return joinPath(p.Segments)
	case *ast.Identifier:
		return p.Name
	default:
		return ""
	}
}

func joinPath(segs []string) string {
	out := ""
	for i, s := range segs {
		if i > 0 {
			out += "::"
		}
		out += s
	}
	return out
}
