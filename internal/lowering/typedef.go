package lowering

import (
	"github.com/funvibe/clausegen/internal/clauses"
	"github.com/funvibe/clausegen/internal/symbols"
	"github.com/funvibe/clausegen/internal/typesystem"
)

// programClausesForTypeDef lowers struct Ty<P1..Pn> where WC1, ..., WCm:
//
//	forall<P1..Pn> { WellFormed(Ty<P1..Pn>) :- WC1, ..., WCm }
//	forall<P1..Pn> { FromEnv(WC) :- FromEnv(Ty<P1..Pn>) }   for each WC
func programClausesForTypeDef(m Model, id typesystem.DefID) (clauses.Clauses, error) {
	if err := expectKind(m, id, symbols.DefAdt, "type clauses"); err != nil {
		return nil, err
	}
	vars, err := BoundVarsFor(m, id)
	if err != nil {
		return nil, err
	}
	args := typesystem.BoundArgs(vars)

	ty, ok := m.TypeOf(id)
	if !ok {
		return nil, typesystem.NewInvariantError("type clauses", "%s has no type", displayName(m, id))
	}
	ty = typesystem.ParamSubst(args).Type(ty)

	wcs, err := lowerWhereClauses(m.PredicatesOf(id), args)
	if err != nil {
		return nil, err
	}

	out := clauses.Clauses{
		clauses.Rule(vars, clauses.WellFormedTy{Ty: ty}, clauses.CategoryWellFormed, hypotheses(wcs, nil)...),
	}
	hyps := []clauses.Goal{clauses.FromEnvTy{Ty: ty}}
	for _, wc := range wcs {
		out = append(out, impliedBound(vars, wc, hyps))
	}
	return out, nil
}
