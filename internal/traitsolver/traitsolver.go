// Package traitsolver answers "does type T implement trait Trait?" by
// searching the instance registry built up in internal/symbols, chasing an
// instance's own requirements (`impl<T: Clone> Clone for Vec<T>`)
// recursively. It is kept a separate package from internal/symbols because
// the registry is a flat fact table — what impls exist — while this
// package is the search procedure over it, matching the Canonical /
// InEnvironment / Obligation split spec.md draws between storage and
// solving.
package traitsolver

import (
	"fmt"

	"github.com/funvibe/funxy/internal/config"
	"github.com/funvibe/funxy/internal/symbols"
	"github.com/funvibe/funxy/internal/typesystem"
)

// Obligation is one "T: Trait" proof goal.
type Obligation struct {
	Trait string
	Args  []typesystem.Type
}

func (o Obligation) key() string {
	s := o.Trait
	for _, a := range o.Args {
		s += "|" + a.String()
	}
	return s
}

// Canonical is an obligation with its free type variables replaced by
// fresh placeholders, so two syntactically-different-but-equivalent
// obligations (`Vec<t3>: Clone` and `Vec<t9>: Clone`) become identical.
// Solve keeps no cache and does not call Canonicalize.
type Canonical struct {
	Obligation Obligation
}

func Canonicalize(o Obligation) Canonical {
	vars := map[string]string{}
	n := 0
	var rename func(t typesystem.Type) typesystem.Type
	rename = func(t typesystem.Type) typesystem.Type {
		subst := typesystem.Subst{}
		for _, v := range t.FreeTypeVariables() {
			if _, ok := vars[v.Name]; !ok {
				vars[v.Name] = fmt.Sprintf("c%d", n)
				n++
			}
			subst[v.Name] = typesystem.TVar{Name: vars[v.Name]}
		}
		return t.Apply(subst)
	}
	args := make([]typesystem.Type, len(o.Args))
	for i, a := range o.Args {
		args[i] = rename(a)
	}
	return Canonical{Obligation: Obligation{Trait: o.Trait, Args: args}}
}

// Verdict is the solver's answer to one obligation.
type Verdict uint8

const (
	Yes Verdict = iota
	No
	Ambiguous // would need more type information to decide (an unresolved TVar)
)

// Solution pairs a Yes verdict with the substitution the matching instance
// implied, and the list of further obligations that instance's own bounds
// impose (already discharged by the time Solve returns Yes, but kept for
// diagnostics/hover explaining "via impl<T: Clone> ...").
type Solution struct {
	Verdict Verdict
	Subst   typesystem.Subst
	Via     []Obligation // the instance's own requirements, for display
}

// Solve searches table for an instance satisfying obligation, recursively
// solving that instance's own requirements. An obligation whose argument
// is itself an unresolved type variable (nothing concrete enough to search
// the registry with) returns Ambiguous rather than guessing; a variable
// nested inside an argument (`Vec<t3>`) goes to the instance search as is.
func Solve(table *symbols.SymbolTable, obligation Obligation) Solution {
	return solve(table, obligation, 0, map[string]bool{})
}

func solve(table *symbols.SymbolTable, obligation Obligation, depth int, inProgress map[string]bool) Solution {
	if depth > config.DefaultSolverSizeBound {
		return Solution{Verdict: Ambiguous}
	}
	for _, a := range obligation.Args {
		if _, ok := a.(typesystem.TVar); ok {
			return Solution{Verdict: Ambiguous}
		}
	}
	key := obligation.key()
	if inProgress[key] {
		// Coinductive assumption: a trait bound that depends on itself
		// (e.g. a recursive data structure's Clone impl) is taken as
		// already satisfied once we're re-deriving it, matching how
		// rustc's trait solver treats auto-trait cycles.
		return Solution{Verdict: Yes}
	}
	inProgress[key] = true
	defer delete(inProgress, key)

	def, subst, err := table.FindMatchingImplementation(obligation.Trait, obligation.Args)
	if err != nil || def == nil {
		return Solution{Verdict: No}
	}

	var via []Obligation
	for _, req := range def.Requirements {
		reqArg, ok := subst[req.TypeVar]
		if !ok {
			return Solution{Verdict: Ambiguous}
		}
		sub := solve(table, Obligation{Trait: req.Trait, Args: []typesystem.Type{reqArg}}, depth+1, inProgress)
		if sub.Verdict != Yes {
			return Solution{Verdict: sub.Verdict}
		}
		via = append(via, Obligation{Trait: req.Trait, Args: []typesystem.Type{reqArg}})
	}
	return Solution{Verdict: Yes, Subst: subst, Via: via}
}

// ResolveMethod finds which trait (if any) declares methodName and asks
// whether recv implements it. It returns the declaring trait's name
// whenever there is one; ok reports whether recv implements that trait.
func ResolveMethod(table *symbols.SymbolTable, recv typesystem.Type, methodName string) (trait string, ok bool) {
	traitName, ok := table.GetTraitForMethod(methodName)
	if !ok {
		return "", false
	}
	sol := Solve(table, Obligation{Trait: traitName, Args: []typesystem.Type{recv}})
	return traitName, sol.Verdict == Yes
}
