package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/funvibe/funxy/internal/ast"
)

func TestParseFunctionWithIfElseAndBinary(t *testing.T) {
	src := `
fn max(a: i32, b: i32) -> i32 {
    if a > b {
        a
    } else {
        b
    }
}
`
	prog, errs := Parse(src)
	require.Empty(t, errs)
	require.Len(t, prog.Items, 1)

	fn, ok := prog.Items[0].(*ast.FunctionDecl)
	require.True(t, ok)
	require.Equal(t, "max", fn.Name)
	require.Len(t, fn.Params, 2)
	require.NotNil(t, fn.Body.Tail)

	ifExpr, ok := fn.Body.Tail.(*ast.IfExpr)
	require.True(t, ok)
	bin, ok := ifExpr.Cond.(*ast.BinaryExpr)
	require.True(t, ok)
	require.Equal(t, "a", bin.Left.(*ast.Identifier).Name)
}

func TestParseStructAndImpl(t *testing.T) {
	src := `
struct Point {
    x: i32,
    y: i32,
}

impl Point {
    fn new(x: i32, y: i32) -> Self {
        Point { x: x, y: y }
    }
}
`
	prog, errs := Parse(src)
	require.Empty(t, errs)
	require.Len(t, prog.Items, 2)

	st, ok := prog.Items[0].(*ast.StructDecl)
	require.True(t, ok)
	require.Equal(t, "Point", st.Name)
	require.Len(t, st.Fields, 2)

	impl, ok := prog.Items[1].(*ast.ImplDecl)
	require.True(t, ok)
	require.Nil(t, impl.Trait)
	require.Len(t, impl.Methods, 1)

	lit, ok := impl.Methods[0].Body.Tail.(*ast.StructLiteralExpr)
	require.True(t, ok)
	require.Equal(t, []string{"Point"}, lit.Path)
	require.Len(t, lit.Fields, 2)
}

func TestParseMatchExpression(t *testing.T) {
	src := `
fn describe(n: i32) -> String {
    match n {
        0 => "zero",
        1 | 2 => "small",
        _ => "large",
    }
}
`
	prog, errs := Parse(src)
	require.Empty(t, errs)
	fn := prog.Items[0].(*ast.FunctionDecl)
	m, ok := fn.Body.Tail.(*ast.MatchExpr)
	require.True(t, ok)
	require.Len(t, m.Arms, 3)
	_, ok = m.Arms[2].Pattern.(*ast.WildcardPattern)
	require.True(t, ok)
}

func TestParseForAndMethodCallChain(t *testing.T) {
	src := `
fn sum(items: Vec<i32>) -> i32 {
    let mut total = 0;
    for x in items.iter() {
        total = total + x;
    }
    total
}
`
	prog, errs := Parse(src)
	require.Empty(t, errs)
	fn := prog.Items[0].(*ast.FunctionDecl)
	require.Len(t, fn.Body.Stmts, 2)

	letStmt, ok := fn.Body.Stmts[0].(*ast.LetStmt)
	require.True(t, ok)
	ip, ok := letStmt.Pattern.(*ast.IdentPattern)
	require.True(t, ok)
	require.True(t, ip.Mut)

	forStmt, ok := fn.Body.Stmts[1].(*ast.ExprStmt)
	require.True(t, ok)
	forExpr, ok := forStmt.Expr.(*ast.ForExpr)
	require.True(t, ok)
	_, ok = forExpr.Iter.(*ast.MethodCallExpr)
	require.True(t, ok)
}

func TestParseTraitAndGenericImpl(t *testing.T) {
	src := `
trait Shape {
    fn area(&self) -> f64;
}

impl<T> Shape for Box<T> {
    fn area(&self) -> f64 {
        0.0
    }
}
`
	prog, errs := Parse(src)
	require.Empty(t, errs)
	require.Len(t, prog.Items, 2)

	tr := prog.Items[0].(*ast.TraitDecl)
	require.Equal(t, "Shape", tr.Name)
	require.Len(t, tr.Methods, 1)
	require.Nil(t, tr.Methods[0].Body)

	impl := prog.Items[1].(*ast.ImplDecl)
	require.NotNil(t, impl.Trait)
	require.Len(t, impl.Generics, 1)
}

func TestParseErrorRecoverySkipsToNextItem(t *testing.T) {
	src := `
fn broken( {
}

fn ok() -> i32 {
    1
}
`
	prog, errs := Parse(src)
	require.NotEmpty(t, errs)

	var names []string
	for _, it := range prog.Items {
		if fn, ok := it.(*ast.FunctionDecl); ok {
			names = append(names, fn.Name)
		}
	}
	require.Contains(t, names, "ok")
}

func TestParseQuestionOperatorAndRange(t *testing.T) {
	src := `
fn first(v: Vec<i32>) -> Option<i32> {
    let r = 0..v.len();
    let x = lookup(v)?;
    Some(x)
}
`
	prog, errs := Parse(src)
	require.Empty(t, errs)
	fn := prog.Items[0].(*ast.FunctionDecl)
	require.Len(t, fn.Body.Stmts, 2)

	letRange := fn.Body.Stmts[0].(*ast.LetStmt)
	_, ok := letRange.Value.(*ast.RangeExpr)
	require.True(t, ok)

	letTry := fn.Body.Stmts[1].(*ast.LetStmt)
	_, ok = letTry.Value.(*ast.TryExpr)
	require.True(t, ok)
}
