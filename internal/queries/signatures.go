package queries

import (
	"github.com/funvibe/funxy/internal/ast"
	"github.com/funvibe/funxy/internal/nameres"
	"github.com/funvibe/funxy/internal/query"
	"github.com/funvibe/funxy/internal/typesystem"
)

// sigResolver implements infer.SignatureResolver over a resolved def map,
// looking up a free name's declared signature (function, const, static) or
// a struct's field type the first time it's asked for and caching the
// result for the rest of this inference run.
type sigResolver struct {
	e      *Engine
	ctx    *query.Context
	defMap *nameres.CrateDefMap

	values map[string]typesystem.Type
	fields map[string]typesystem.Type // keyed "Type::field"
}

func newSigResolver(e *Engine, ctx *query.Context, defMap *nameres.CrateDefMap) *sigResolver {
	return &sigResolver{
		e:      e,
		ctx:    ctx,
		defMap: defMap,
		values: map[string]typesystem.Type{},
		fields: map[string]typesystem.Type{},
	}
}

func (s *sigResolver) LookupValue(path string) (typesystem.Type, bool) {
	if t, ok := s.values[path]; ok {
		return t, true
	}
	segs := splitPath(path)
	for _, scope := range s.defMap.Modules {
		def, ok := s.defMap.ResolveValue(scope.Path, segs)
		if !ok {
			continue
		}
		t, ok := s.signatureOf(def)
		if !ok {
			continue
		}
		s.values[path] = t
		return t, true
	}
	if def, ok := s.defMap.ResolveValue(s.defMap.Root, segs); ok {
		if t, ok := s.signatureOf(def); ok {
			s.values[path] = t
			return t, true
		}
	}
	return nil, false
}

func (s *sigResolver) LookupField(typeName, field string) (typesystem.Type, bool) {
	key := typeName + "::" + field
	if t, ok := s.fields[key]; ok {
		return t, true
	}
	segs := splitPath(typeName)
	for _, scope := range s.defMap.Modules {
		def, ok := s.defMap.ResolveType(scope.Path, segs)
		if !ok {
			continue
		}
		item, ok := s.itemOf(def)
		if !ok {
			continue
		}
		st, ok := item.(*ast.StructDecl)
		if !ok {
			continue
		}
		conv := &typeConv{}
		for _, f := range st.Fields {
			s.fields[typeName+"::"+f.Name] = conv.convert(f.Type)
		}
		if t, ok := s.fields[key]; ok {
			return t, true
		}
	}
	return nil, false
}

func (s *sigResolver) itemOf(def nameres.DefId) (ast.Item, bool) {
	ids := s.e.AstIds.Get(s.ctx, fromRef(def.File))
	return ids.ItemAt(def.Item)
}

func (s *sigResolver) signatureOf(def nameres.DefId) (typesystem.Type, bool) {
	item, ok := s.itemOf(def)
	if !ok {
		return nil, false
	}
	conv := &typeConv{}
	switch it := item.(type) {
	case *ast.FunctionDecl:
		var params []typesystem.Type
		for _, p := range it.Params {
			if p.IsSelf {
				continue
			}
			params = append(params, conv.convert(p.Type))
		}
		return typesystem.TFunc{Params: params, ReturnType: conv.convert(it.RetType)}, true
	case *ast.ConstDecl:
		return conv.convert(it.Type), true
	case *ast.StaticDecl:
		return conv.convert(it.Type), true
	default:
		return nil, false
	}
}

func splitPath(path string) []string {
	var segs []string
	start := 0
	for i := 0; i+1 < len(path); i++ {
		if path[i] == ':' && path[i+1] == ':' {
			segs = append(segs, path[start:i])
			i++
			start = i + 1
		}
	}
	segs = append(segs, path[start:])
	return segs
}
