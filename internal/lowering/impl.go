package lowering

import (
	"github.com/funvibe/clausegen/internal/clauses"
	"github.com/funvibe/clausegen/internal/symbols"
	"github.com/funvibe/clausegen/internal/typesystem"
)

// programClausesForImpl lowers impl<P0..Pn> Trait<A1..An> for A0 where WC:
//
//	forall<P0..Pn> { Implemented(A0: Trait<A1..An>) :- WC }
//
// Negative impls produce nothing.
func programClausesForImpl(m Model, id typesystem.DefID) (clauses.Clauses, error) {
	if err := expectKind(m, id, symbols.DefImpl, "impl clauses"); err != nil {
		return nil, err
	}
	if m.ImplPolarity(id) == symbols.Negative {
		return clauses.Clauses{}, nil
	}
	vars, err := BoundVarsFor(m, id)
	if err != nil {
		return nil, err
	}
	args := typesystem.BoundArgs(vars)

	ref, ok := m.ImplTraitRef(id)
	if !ok {
		return nil, typesystem.NewInvariantError("impl clauses", "%s has no trait reference", displayName(m, id))
	}
	traitRef := typesystem.ParamSubst(args).TraitRef(ref)

	wcs, err := lowerWhereClauses(m.PredicatesOf(id), args)
	if err != nil {
		return nil, err
	}
	goal := clauses.Holds{Clause: clauses.Implemented{Trait: traitRef}}
	return clauses.Clauses{
		clauses.Rule(vars, goal, clauses.CategoryOther, hypotheses(wcs, nil)...),
	}, nil
}
