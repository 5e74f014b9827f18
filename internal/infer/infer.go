// Package infer runs Hindley-Milner-style bidirectional type inference over
// one function body's lowered internal/hir IR, using internal/typesystem's
// Unify as its constraint solver. It is the direct domain-specific
// replacement for a general-purpose evaluator: it never executes code, it
// only ever derives types and surfaces type errors as diagnostics.
package infer

import (
	"fmt"

	"github.com/funvibe/funxy/internal/hir"
	"github.com/funvibe/funxy/internal/typesystem"
)

// Diagnostic is one inference-time problem, carrying the ExprId it applies
// to so internal/ide can translate it into a source range via the body's
// source map.
type Diagnostic struct {
	Expr    hir.ExprId
	Message string
}

// Result is the complete output of inferring one Body: every expression
// and pattern's resolved type, plus any diagnostics raised along the way.
type Result struct {
	ExprTypes map[hir.ExprId]typesystem.Type
	PatTypes  map[hir.PatId]typesystem.Type
	ReturnType typesystem.Type
	Diagnostics []Diagnostic
	Subst     typesystem.Subst
}

// SignatureResolver looks up the type of a free name referenced from a
// body: a function, const, static, struct constructor, or enum variant.
// internal/queries supplies the real implementation backed by
// internal/nameres + a declaration-to-TFunc mapper; tests supply a fixed
// map.
type SignatureResolver interface {
	LookupValue(path string) (typesystem.Type, bool)
	LookupField(typeName, field string) (typesystem.Type, bool)
}

type checker struct {
	resolver SignatureResolver
	body     *hir.Body
	env      []map[string]typesystem.Type // scope stack, innermost last
	subst    typesystem.Subst
	fresh    int
	result   *Result
}

// Infer type-checks body, given the resolver for names the body doesn't
// bind itself, and the declared parameter types in order (nil entries mean
// "infer a fresh variable for this parameter", used for closures whose
// params have no annotation).
func Infer(body *hir.Body, paramTypes []typesystem.Type, resolver SignatureResolver) *Result {
	c := &checker{
		resolver: resolver,
		body:     body,
		subst:    typesystem.Subst{},
		result: &Result{
			ExprTypes: map[hir.ExprId]typesystem.Type{},
			PatTypes:  map[hir.PatId]typesystem.Type{},
		},
	}
	c.pushScope()
	for i, p := range body.Params {
		var t typesystem.Type
		if i < len(paramTypes) && paramTypes[i] != nil {
			t = paramTypes[i]
		} else {
			t = c.freshVar()
		}
		c.bindPat(p, t)
	}
	if body.Tail != hir.NoExpr {
		c.result.ReturnType = c.infer(body.Tail)
	} else {
		c.result.ReturnType = typesystem.TCon{Name: "Unit"}
	}
	c.popScope()
	c.result.Subst = c.subst

	for id, t := range c.result.ExprTypes {
		c.result.ExprTypes[id] = t.Apply(c.subst)
	}
	for id, t := range c.result.PatTypes {
		c.result.PatTypes[id] = t.Apply(c.subst)
	}
	c.result.ReturnType = c.result.ReturnType.Apply(c.subst)
	return c.result
}

func (c *checker) pushScope() { c.env = append(c.env, map[string]typesystem.Type{}) }
func (c *checker) popScope()  { c.env = c.env[:len(c.env)-1] }

func (c *checker) define(name string, t typesystem.Type) {
	c.env[len(c.env)-1][name] = t
}

func (c *checker) lookupLocal(name string) (typesystem.Type, bool) {
	for i := len(c.env) - 1; i >= 0; i-- {
		if t, ok := c.env[i][name]; ok {
			return t, true
		}
	}
	return nil, false
}

func (c *checker) freshVar() typesystem.Type {
	c.fresh++
	return typesystem.TVar{Name: fmt.Sprintf("t%d", c.fresh)}
}

func (c *checker) unify(a, b typesystem.Type, at hir.ExprId) typesystem.Type {
	s, err := typesystem.Unify(a.Apply(c.subst), b.Apply(c.subst))
	if err != nil {
		c.result.Diagnostics = append(c.result.Diagnostics, Diagnostic{
			Expr:    at,
			Message: fmt.Sprintf("type mismatch: %s vs %s (%v)", a.Apply(c.subst).String(), b.Apply(c.subst).String(), err),
		})
		return a
	}
	c.subst = c.subst.Compose(s)
	return a.Apply(c.subst)
}

func boolT() typesystem.Type   { return typesystem.TCon{Name: "bool"} }
func unitT() typesystem.Type   { return typesystem.TCon{Name: "Unit"} }
func neverT() typesystem.Type  { return typesystem.TCon{Name: "!"} }

func (c *checker) infer(id hir.ExprId) typesystem.Type {
	if id == hir.NoExpr {
		return unitT()
	}
	e := c.body.Exprs[id]
	var t typesystem.Type
	switch e.Kind {
	case hir.ELiteral:
		t = c.inferLiteral(e)
	case hir.EPath:
		if lt, ok := c.lookupLocal(e.Text); ok {
			t = lt
		} else if gt, ok := c.resolver.LookupValue(e.Text); ok {
			t = gt
		} else {
			t = c.freshVar()
			c.result.Diagnostics = append(c.result.Diagnostics, Diagnostic{Expr: id, Message: "unresolved name: " + e.Text})
		}
	case hir.EBlock:
		c.pushScope()
		for _, s := range e.Exprs {
			c.infer(s)
		}
		t = c.infer(e.Body)
		c.popScope()
	case hir.EBinary:
		t = c.inferBinary(id, e)
	case hir.EUnary:
		operand := c.infer(e.Exprs[0])
		if e.Text == "!" {
			t = c.unify(operand, boolT(), id)
		} else {
			t = operand
		}
	case hir.ERef:
		t = c.infer(e.Exprs[0])
	case hir.ECall:
		t = c.inferCall(id, e)
	case hir.EMethodCall:
		t = c.inferMethodCall(id, e)
	case hir.EField:
		recv := c.infer(e.Exprs[0])
		if ft, ok := c.resolver.LookupField(baseTypeName(recv), e.Text); ok {
			t = ft
		} else {
			t = c.freshVar()
		}
	case hir.ETuple:
		var elems []typesystem.Type
		for _, sub := range e.Exprs {
			elems = append(elems, c.infer(sub))
		}
		t = typesystem.TTuple{Elements: elems}
	case hir.EArray, hir.EArrayRepeat:
		var elemT typesystem.Type
		if len(e.Exprs) > 0 {
			elemT = c.infer(e.Exprs[0])
		} else {
			elemT = c.freshVar()
		}
		for _, sub := range e.Exprs[1:] {
			if e.Kind == hir.EArray {
				c.unify(elemT, c.infer(sub), id)
			}
		}
		t = typesystem.TApp{Constructor: typesystem.TCon{Name: "Array"}, Args: []typesystem.Type{elemT}}
	case hir.EStructLit:
		for _, v := range e.Exprs {
			c.infer(v)
		}
		t = typesystem.TCon{Name: e.Text}
	case hir.EClosure:
		c.pushScope()
		var params []typesystem.Type
		for _, p := range e.Params {
			pt := c.freshVar()
			c.bindPat(p, pt)
			params = append(params, pt)
		}
		ret := c.infer(e.Body)
		c.popScope()
		t = typesystem.TFunc{Params: params, ReturnType: ret}
	case hir.EIf:
		c.unify(c.infer(e.Cond), boolT(), id)
		thenT := c.infer(e.Then)
		if e.Else != hir.NoExpr {
			elseT := c.infer(e.Else)
			t = c.unify(thenT, elseT, id)
		} else {
			c.unify(thenT, unitT(), id)
			t = unitT()
		}
	case hir.EMatch:
		scrutinee := c.infer(e.Cond)
		var result typesystem.Type
		for _, arm := range e.Arms {
			c.pushScope()
			c.unifyPat(arm.Pat, scrutinee)
			if arm.Guard != hir.NoExpr {
				c.unify(c.infer(arm.Guard), boolT(), id)
			}
			bodyT := c.infer(arm.Body)
			c.popScope()
			if result == nil {
				result = bodyT
			} else {
				result = c.unify(result, bodyT, id)
			}
		}
		if result == nil {
			result = unitT()
		}
		t = result
	case hir.ELoop:
		c.infer(e.Body)
		t = c.freshVar()
	case hir.EAssign:
		if e.Text == "let" {
			valT := c.infer(e.Exprs[0])
			c.bindPat(e.Pats[0], valT)
			t = unitT()
		} else {
			target := c.infer(e.Exprs[0])
			val := c.infer(e.Exprs[1])
			c.unify(target, val, id)
			t = unitT()
		}
	case hir.EReturn:
		if len(e.Exprs) > 0 && e.Exprs[0] != hir.NoExpr {
			c.infer(e.Exprs[0])
		}
		t = neverT()
	case hir.EBreak:
		if len(e.Exprs) > 0 && e.Exprs[0] != hir.NoExpr {
			c.infer(e.Exprs[0])
		}
		t = neverT()
	case hir.EContinue:
		t = neverT()
	case hir.ERange:
		for _, sub := range e.Exprs {
			c.infer(sub)
		}
		t = typesystem.TCon{Name: "Range"}
	default:
		t = c.freshVar()
	}
	c.result.ExprTypes[id] = t
	return t
}

func (c *checker) inferLiteral(e hir.Expr) typesystem.Type {
	switch e.LiteralKind {
	case hir.LitInt:
		return typesystem.TCon{Name: "i32"}
	case hir.LitFloat:
		return typesystem.TCon{Name: "f64"}
	case hir.LitString:
		return typesystem.TApp{Constructor: typesystem.TCon{Name: "&"}, Args: []typesystem.Type{typesystem.TCon{Name: "str"}}}
	case hir.LitChar:
		return typesystem.TCon{Name: "char"}
	case hir.LitBool:
		return boolT()
	default:
		return c.freshVar()
	}
}

func (c *checker) inferBinary(id hir.ExprId, e hir.Expr) typesystem.Type {
	lhs := c.infer(e.Exprs[0])
	rhs := c.infer(e.Exprs[1])
	switch e.Text {
	case "==", "!=", "<", "<=", ">", ">=":
		c.unify(lhs, rhs, id)
		return boolT()
	case "&&", "||":
		c.unify(lhs, boolT(), id)
		c.unify(rhs, boolT(), id)
		return boolT()
	default:
		return c.unify(lhs, rhs, id)
	}
}

func (c *checker) inferCall(id hir.ExprId, e hir.Expr) typesystem.Type {
	calleeT := c.infer(e.Exprs[0])
	var args []typesystem.Type
	for _, a := range e.Exprs[1:] {
		args = append(args, c.infer(a))
	}
	fn, ok := calleeT.Apply(c.subst).(typesystem.TFunc)
	if !ok {
		ret := c.freshVar()
		c.unify(calleeT, typesystem.TFunc{Params: args, ReturnType: ret}, id)
		return ret
	}
	for i, p := range fn.Params {
		if i < len(args) {
			c.unify(p, args[i], id)
		}
	}
	return fn.ReturnType
}

func (c *checker) inferMethodCall(id hir.ExprId, e hir.Expr) typesystem.Type {
	recv := c.infer(e.Exprs[0])
	for _, a := range e.Exprs[1:] {
		c.infer(a)
	}
	if sig, ok := c.resolver.LookupValue(baseTypeName(recv) + "::" + e.Text); ok {
		if fn, ok := sig.(typesystem.TFunc); ok {
			return fn.ReturnType
		}
	}
	return c.freshVar()
}

func (c *checker) bindPat(id hir.PatId, t typesystem.Type) {
	p := c.body.Pats[id]
	switch p.Kind {
	case "bind":
		c.define(p.Name, t)
	case "tuple":
		for i, sub := range p.Sub {
			_ = i
			c.bindPat(sub, c.freshVar())
		}
	default:
		for _, sub := range p.Sub {
			c.bindPat(sub, c.freshVar())
		}
	}
	c.result.PatTypes[id] = t
}

// unifyPat types a match-arm pattern: a binding pattern takes the scrutinee
// type and sub-patterns get fresh type variables. Literal and struct-tag
// patterns are not unified against the scrutinee type.
func (c *checker) unifyPat(id hir.PatId, scrutinee typesystem.Type) {
	p := c.body.Pats[id]
	switch p.Kind {
	case "wildcard", "rest":
	case "bind":
		c.define(p.Name, scrutinee)
		c.result.PatTypes[id] = scrutinee
	case "tuple":
		for _, sub := range p.Sub {
			c.bindPat(sub, c.freshVar())
		}
		c.result.PatTypes[id] = scrutinee
	default:
		for _, sub := range p.Sub {
			c.bindPat(sub, c.freshVar())
		}
		c.result.PatTypes[id] = scrutinee
	}
}

func baseTypeName(t typesystem.Type) string {
	switch tt := t.(type) {
	case typesystem.TCon:
		return tt.Name
	case typesystem.TApp:
		return baseTypeName(tt.Constructor)
	default:
		return ""
	}
}
