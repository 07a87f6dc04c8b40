package clauses

import (
	"github.com/funvibe/clausegen/internal/typesystem"
)

func LowerTrait(p typesystem.TraitPredicate) WhereClause {
	return Implemented{Trait: p.Trait}
}

func LowerProjection(p typesystem.ProjectionPredicate) WhereClause {
	return ProjectionEq{Projection: p.Projection, Ty: p.Ty}
}

func LowerRegionOutlives(p typesystem.RegionOutlivesPredicate) WhereClause {
	return RegionOutlives{Long: p.Long, Short: p.Short}
}

func LowerTypeOutlives(p typesystem.TypeOutlivesPredicate) WhereClause {
	return TypeOutlives{Ty: p.Ty, Region: p.Region}
}

// LowerPredicate converts a declared predicate into a where clause. Only the
// four lowerable kinds are accepted; anything else is an invariant violation.
func LowerPredicate(p typesystem.Predicate) (WhereClause, error) {
	switch pred := p.(type) {
	case typesystem.TraitPredicate:
		return LowerTrait(pred), nil
	case typesystem.ProjectionPredicate:
		return LowerProjection(pred), nil
	case typesystem.RegionOutlivesPredicate:
		return LowerRegionOutlives(pred), nil
	case typesystem.TypeOutlivesPredicate:
		return LowerTypeOutlives(pred), nil
	case nil:
		return nil, typesystem.NewInvariantError("lower predicate", "nil predicate")
	default:
		return nil, typesystem.NewInvariantError("lower predicate", "unexpected predicate kind %T: %s", p, p.String())
	}
}

// LowerPoly lowers the predicate under its binder into a Holds goal and
// re-binds it over the same variables.
func LowerPoly(p typesystem.PolyPredicate) (PolyDomainGoal, error) {
	wc, err := LowerPredicate(p.Value)
	if err != nil {
		return PolyDomainGoal{}, err
	}
	return typesystem.MapBound(p, func(typesystem.Predicate) DomainGoal {
		return Holds{Clause: wc}
	}), nil
}

// LowerAll lowers every predicate, keeping their order.
func LowerAll(ps []typesystem.PolyPredicate) ([]PolyDomainGoal, error) {
	out := make([]PolyDomainGoal, 0, len(ps))
	for _, p := range ps {
		g, err := LowerPoly(p)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

// FromPolyDomainGoal turns a bound domain goal into a hypothesis. A binder
// without variables is dropped.
func FromPolyDomainGoal(g PolyDomainGoal) Goal {
	if len(g.Vars) == 0 {
		return g.Instantiate(nil)
	}
	return ForAll{Vars: g.Vars, Body: g.Value}
}
