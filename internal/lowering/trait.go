package lowering

import (
	"github.com/funvibe/clausegen/internal/clauses"
	"github.com/funvibe/clausegen/internal/symbols"
	"github.com/funvibe/clausegen/internal/typesystem"
)

// programClausesForTrait lowers trait Trait<P1..Pn> where WC (P0 == Self):
//
//	forall<Self, P1..Pn> { Implemented(Self: Trait<P1..Pn>) :- FromEnv(Self: Trait<P1..Pn>) }
//	forall<Self, P1..Pn> { FromEnv(WC) :- FromEnv(Self: Trait<P1..Pn>) }   for each WC
//	forall<Self, P1..Pn> { WellFormed(Self: Trait<P1..Pn>) :- Implemented(Self: Trait<P1..Pn>), WellFormed(WC) }
func programClausesForTrait(m Model, id typesystem.DefID) (clauses.Clauses, error) {
	if err := expectKind(m, id, symbols.DefTrait, "trait clauses"); err != nil {
		return nil, err
	}
	vars, err := BoundVarsFor(m, id)
	if err != nil {
		return nil, err
	}
	args := typesystem.BoundArgs(vars)
	name, _ := m.DefName(id)
	traitRef := typesystem.TraitRef{Def: id, Name: name, Args: args}

	implemented := clauses.Holds{Clause: clauses.Implemented{Trait: traitRef}}
	fromEnv := clauses.ToEnvironmentAssumption(implemented)
	hyps := []clauses.Goal{fromEnv}

	out := clauses.Clauses{
		clauses.Rule(vars, implemented, clauses.CategoryImpliedBound, fromEnv),
	}

	wcs, err := lowerWhereClauses(m.PredicatesDefinedOn(id), args)
	if err != nil {
		return nil, err
	}
	for _, wc := range wcs {
		out = append(out, impliedBound(vars, wc, hyps))
	}

	wfHyps := append([]clauses.Goal{implemented}, hypotheses(wcs, clauses.ToWellFormednessGoal)...)
	out = append(out, clauses.Rule(vars, clauses.WellFormedTrait{Trait: traitRef}, clauses.CategoryWellFormed, wfHyps...))
	return out, nil
}
