// Package lowering turns declarations into program clauses. Every generator
// is a pure function of a declaration identity and a read-only Model.
package lowering

import (
	"fmt"

	"github.com/funvibe/clausegen/internal/clauses"
	"github.com/funvibe/clausegen/internal/symbols"
	"github.com/funvibe/clausegen/internal/typesystem"
)

// Model is the semantic model lowering reads from. *symbols.Table implements it.
type Model interface {
	DefKind(id typesystem.DefID) (symbols.DefKind, bool)
	DefName(id typesystem.DefID) (string, bool)
	Generics(id typesystem.DefID) (symbols.Generics, bool)
	PredicatesDefinedOn(id typesystem.DefID) []typesystem.PolyPredicate
	PredicatesOf(id typesystem.DefID) []typesystem.PolyPredicate
	ImplTraitRef(id typesystem.DefID) (typesystem.TraitRef, bool)
	ImplPolarity(id typesystem.DefID) symbols.Polarity
	TypeOf(id typesystem.DefID) (typesystem.Type, bool)
	AssociatedItem(id typesystem.DefID) (symbols.AssociatedItem, bool)
	AssociatedItemNamed(container typesystem.DefID, name string) (symbols.AssociatedItem, bool)
}

var _ Model = (*symbols.Table)(nil)

// BoundVarsFor returns one binder variable per generic parameter of id,
// parents first, so that parameter i becomes bound variable i.
func BoundVarsFor(m Model, id typesystem.DefID) ([]typesystem.Var, error) {
	g, ok := m.Generics(id)
	if !ok {
		return nil, typesystem.NewInvariantError("bound vars", "unknown declaration %s", id)
	}
	var vars []typesystem.Var
	if g.Parent.IsValid() {
		parent, err := BoundVarsFor(m, g.Parent)
		if err != nil {
			return nil, err
		}
		vars = append(vars, parent...)
	}
	if len(vars) != g.ParentCount {
		return nil, typesystem.NewInvariantError("bound vars", "%s expects %d parent parameters, found %d", id, g.ParentCount, len(vars))
	}
	for _, p := range g.Params {
		if p.Index != len(vars) {
			return nil, typesystem.NewInvariantError("bound vars", "parameter %s of %s has index %d, expected %d", p.Name, id, p.Index, len(vars))
		}
		vars = append(vars, p.Var())
	}
	return vars, nil
}

// lowerWhereClauses lowers predicates and substitutes args for the
// declaration parameters they mention.
func lowerWhereClauses(preds []typesystem.PolyPredicate, args []typesystem.Arg) ([]clauses.PolyDomainGoal, error) {
	goals, err := clauses.LowerAll(preds)
	if err != nil {
		return nil, err
	}
	for i, g := range goals {
		goals[i] = typesystem.SubstParams(g, args)
	}
	return goals, nil
}

// impliedBound builds FromEnv(wc) :- hyps under the clause binder vars. The
// where clause's own variables are hoisted after vars, so hyps, written
// against vars, are valid in the merged binder unchanged.
func impliedBound(vars []typesystem.Var, wc clauses.PolyDomainGoal, hyps []clauses.Goal) clauses.Clause {
	c := typesystem.MapBound(wc, func(g clauses.DomainGoal) clauses.ProgramClause {
		return clauses.ProgramClause{
			Goal:     clauses.ToEnvironmentAssumption(g),
			Category: clauses.CategoryImpliedBound,
		}
	}).Hoist(vars)
	c.Value.Hypotheses = hyps
	return c
}

func hypotheses(wcs []clauses.PolyDomainGoal, rewrite func(clauses.DomainGoal) clauses.DomainGoal) []clauses.Goal {
	hyps := make([]clauses.Goal, 0, len(wcs))
	for _, wc := range wcs {
		if rewrite != nil {
			wc = typesystem.MapBound(wc, rewrite)
		}
		hyps = append(hyps, clauses.FromPolyDomainGoal(wc))
	}
	return hyps
}

// freshName picks a display name for a new variable that does not collide
// with the existing ones.
func freshName(vars []typesystem.Var, base string) string {
	taken := make(map[string]bool, len(vars))
	for _, v := range vars {
		taken[v.Name] = true
	}
	name := base
	for i := 1; taken[name]; i++ {
		name = fmt.Sprintf("%s%d", base, i)
	}
	return name
}
