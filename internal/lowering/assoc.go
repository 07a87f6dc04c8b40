package lowering

import (
	"github.com/funvibe/clausegen/internal/clauses"
	"github.com/funvibe/clausegen/internal/symbols"
	"github.com/funvibe/clausegen/internal/typesystem"
)

// programClausesForAssocTypeDef lowers trait Trait<P1..Pn> { type Item<Pn+1..Pm>; }
// Writing proj for <Self as Trait<P1..Pn>>::Item<Pn+1..Pm> and skolem for
// (Trait::Item)<Self, P1..Pm>, all under forall<Self, P1..Pm>:
//
//	ProjectionEq(proj == skolem)
//	WellFormed(skolem) :- Implemented(Self: Trait<P1..Pn>)
//	FromEnv(Self: Trait<P1..Pn>) :- FromEnv(skolem)
//	forall<.., U> { ProjectionEq(proj == U) :- Normalize(proj -> U) }
func programClausesForAssocTypeDef(m Model, id typesystem.DefID) (clauses.Clauses, error) {
	const op = "associated type clauses"
	if err := expectKind(m, id, symbols.DefAssocTypeInTrait, op); err != nil {
		return nil, err
	}
	item, ok := m.AssociatedItem(id)
	if !ok {
		return nil, typesystem.NewInvariantError(op, "%s is not an associated item", displayName(m, id))
	}
	if item.ContainerKind != symbols.DefTrait {
		return nil, typesystem.NewInvariantError(op, "%s: container is a %s, not a trait", item.Name, item.ContainerKind)
	}

	vars, err := BoundVarsFor(m, id)
	if err != nil {
		return nil, err
	}
	g, _ := m.Generics(id)
	args := typesystem.BoundArgs(vars)
	traitName, _ := m.DefName(item.Container)
	traitRef := typesystem.TraitRef{Def: item.Container, Name: traitName, Args: args[:g.ParentCount]}

	proj := typesystem.TProjection{Trait: traitRef, Item: item.Name, ItemDef: id, Args: args[g.ParentCount:]}
	skolem := typesystem.TPlaceholder{Projection: proj}

	placeholderEq := clauses.Fact(vars,
		clauses.Holds{Clause: clauses.ProjectionEq{Projection: proj, Ty: skolem}},
		clauses.CategoryOther)

	wf := clauses.Rule(vars,
		clauses.WellFormedTy{Ty: skolem},
		clauses.CategoryWellFormed,
		clauses.Holds{Clause: clauses.Implemented{Trait: traitRef}})

	impliedTrait := clauses.Rule(vars,
		clauses.FromEnvTrait{Trait: traitRef},
		clauses.CategoryImpliedBound,
		clauses.FromEnvTy{Ty: skolem})

	// U goes after every parameter of the trait and of the item itself.
	normVars, u := typesystem.FreshVar(vars, typesystem.Var{Name: freshName(vars, "U"), Kind: typesystem.Star})
	uTy := u.(typesystem.Type)
	normalize := clauses.Rule(normVars,
		clauses.Holds{Clause: clauses.ProjectionEq{Projection: proj, Ty: uTy}},
		clauses.CategoryOther,
		clauses.Normalize{Projection: proj, Ty: uTy})

	return clauses.Clauses{placeholderEq, wf, impliedTrait, normalize}, nil
}

// programClausesForAssocTypeValue lowers
// impl<P0..Pn> Trait<A1..An> for A0 { type Item<Pn+1..Pm> = T; }:
//
//	forall<P0..Pm> { Normalize(<A0 as Trait<A1..An>>::Item<Pn+1..Pm> -> T) :- Implemented(A0: Trait<A1..An>) }
//
// Where clauses written on the associated type definition in the trait are
// not part of the rule.
func programClausesForAssocTypeValue(m Model, id typesystem.DefID) (clauses.Clauses, error) {
	const op = "associated type value clauses"
	if err := expectKind(m, id, symbols.DefAssocTypeInImpl, op); err != nil {
		return nil, err
	}
	item, ok := m.AssociatedItem(id)
	if !ok {
		return nil, typesystem.NewInvariantError(op, "%s is not an associated item", displayName(m, id))
	}
	if item.ContainerKind != symbols.DefImpl {
		return nil, typesystem.NewInvariantError(op, "%s: container is a %s, not an impl", item.Name, item.ContainerKind)
	}

	vars, err := BoundVarsFor(m, id)
	if err != nil {
		return nil, err
	}
	g, _ := m.Generics(id)
	args := typesystem.BoundArgs(vars)
	subst := typesystem.ParamSubst(args)

	ref, ok := m.ImplTraitRef(item.Container)
	if !ok {
		return nil, typesystem.NewInvariantError(op, "%s has no trait reference", displayName(m, item.Container))
	}
	traitRef := subst.TraitRef(ref)

	def, ok := m.AssociatedItemNamed(ref.Def, item.Name)
	if !ok {
		return nil, typesystem.NewInvariantError(op, "trait %s has no associated type %s", ref.Name, item.Name)
	}

	ty, ok := m.TypeOf(id)
	if !ok {
		return nil, typesystem.NewInvariantError(op, "%s has no value", item.Name)
	}
	ty = subst.Type(ty)

	proj := typesystem.TProjection{Trait: traitRef, Item: item.Name, ItemDef: def.Def, Args: args[g.ParentCount:]}
	return clauses.Clauses{
		clauses.Rule(vars,
			clauses.Normalize{Projection: proj, Ty: ty},
			clauses.CategoryOther,
			clauses.Holds{Clause: clauses.Implemented{Trait: traitRef}}),
	}, nil
}
