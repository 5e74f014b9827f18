package queries

import (
	"fmt"

	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/typesystem"
)

type typeConv struct {
	fresh int
}

// convert turns a concrete type annotation into a typesystem.Type. A nil
// TypeExpr (elided return type) becomes Unit; InferType (`_`) becomes a
// fresh variable for internal/infer to pin down.
func (c *typeConv) convert(t ast.TypeExpr) typesystem.Type {
	if t == nil {
		return typesystem.TCon{Name: "Unit"}
	}
	switch tt := t.(type) {
	case *ast.PathType:
		name := joinSegs(tt.Segments)
		if isGenericParamName(name) {
			return typesystem.TVar{Name: name}
		}
		if len(tt.Generics) == 0 {
			return typesystem.TCon{Name: name}
		}
		var args []typesystem.Type
		for _, a := range tt.Generics {
			args = append(args, c.convert(a))
		}
		return typesystem.TApp{Constructor: typesystem.TCon{Name: name}, Args: args}
	case *ast.RefType:
		return typesystem.TApp{Constructor: typesystem.TCon{Name: "&"}, Args: []typesystem.Type{c.convert(tt.Target)}}
	case *ast.TupleType:
		var elems []typesystem.Type
		for _, e := range tt.Elems {
			elems = append(elems, c.convert(e))
		}
		return typesystem.TTuple{Elements: elems}
	case *ast.ArrayType:
		return typesystem.TApp{Constructor: typesystem.TCon{Name: "Array"}, Args: []typesystem.Type{c.convert(tt.Elem)}}
	case *ast.SliceType:
		return typesystem.TApp{Constructor: typesystem.TCon{Name: "Slice"}, Args: []typesystem.Type{c.convert(tt.Elem)}}
	case *ast.FnType:
		var params []typesystem.Type
		for _, p := range tt.Params {
			params = append(params, c.convert(p))
		}
		return typesystem.TFunc{Params: params, ReturnType: c.convert(tt.Ret)}
	case *ast.NeverType:
		return typesystem.TCon{Name: "!"}
	case *ast.InferType:
		c.fresh++
		return typesystem.TVar{Name: fmt.Sprintf("inf%d", c.fresh)}
	default:
		return typesystem.TCon{Name: "Unknown"}
	}
}

func isGenericParamName(name string) bool {
	return len(name) >= 1 && len(name) <= 2 && name[0] >= 'A' && name[0] <= 'Z'
}

func joinSegs(segs []string) string {
	out := ""
	for i, s := range segs {
		if i > 0 {
			out += "::"
		}
		out += s
	}
	return out
}
