package symbols

import (
	"github.com/funvibe/clausegen/internal/typesystem"
)

func (t *Table) DefKind(id typesystem.DefID) (DefKind, bool) {
	d, ok := t.decls[id]
	if !ok {
		return DefUnknown, false
	}
	return d.Kind, true
}

func (t *Table) DefName(id typesystem.DefID) (string, bool) {
	d, ok := t.decls[id]
	if !ok {
		return "", false
	}
	return d.Name, true
}

func (t *Table) Generics(id typesystem.DefID) (Generics, bool) {
	d, ok := t.decls[id]
	if !ok {
		return Generics{}, false
	}
	g := Generics{Parent: d.Parent, Params: d.Params}
	if d.Parent.IsValid() {
		g.ParentCount = len(t.AllParams(d.Parent))
	}
	return g, true
}

// AllParams returns the full parameter list of id, parents first.
func (t *Table) AllParams(id typesystem.DefID) []GenericParam {
	d, ok := t.decls[id]
	if !ok {
		return nil
	}
	var params []GenericParam
	if d.Parent.IsValid() {
		params = append(params, t.AllParams(d.Parent)...)
	}
	return append(params, d.Params...)
}

// ResolveParam finds a parameter in scope of id by name, innermost first.
func (t *Table) ResolveParam(id typesystem.DefID, name string) (GenericParam, bool) {
	params := t.AllParams(id)
	for i := len(params) - 1; i >= 0; i-- {
		if params[i].Name == name {
			return params[i], true
		}
	}
	return GenericParam{}, false
}

// PredicatesDefinedOn returns the where clauses written on id itself.
func (t *Table) PredicatesDefinedOn(id typesystem.DefID) []typesystem.PolyPredicate {
	d, ok := t.decls[id]
	if !ok {
		return nil
	}
	return d.Predicates
}

// PredicatesOf returns every predicate in force inside id: the parent's
// first, then its own. Traits add the implicit Self: Trait<P1..Pn>.
func (t *Table) PredicatesOf(id typesystem.DefID) []typesystem.PolyPredicate {
	d, ok := t.decls[id]
	if !ok {
		return nil
	}
	var preds []typesystem.PolyPredicate
	if d.Parent.IsValid() {
		preds = append(preds, t.PredicatesOf(d.Parent)...)
	}
	preds = append(preds, d.Predicates...)
	if ref, ok := t.IdentityTraitRef(id); ok {
		preds = append(preds, typesystem.Dummy(typesystem.Predicate(typesystem.TraitPredicate{Trait: ref})))
	}
	return preds
}

// TypeOf returns the self type of a struct, the value of an associated type
// binding or the signature of a fn.
func (t *Table) TypeOf(id typesystem.DefID) (typesystem.Type, bool) {
	d, ok := t.decls[id]
	if !ok || d.Ty == nil {
		return nil, false
	}
	return d.Ty, true
}
