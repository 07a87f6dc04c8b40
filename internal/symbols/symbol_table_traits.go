package symbols

import (
	"fmt"

	"github.com/funvibe/clausegen/internal/typesystem"
)

// SelfParam is the implicit receiver of every trait, always at index 0.
const SelfParam = "Self"

// DefineTrait declares trait name<params>. The receiver Self is prepended.
func (t *Table) DefineTrait(name string, params ...string) (*Decl, error) {
	return t.define(&Decl{
		Path:   name,
		Name:   name,
		Kind:   DefTrait,
		Params: newParams(0, append([]string{SelfParam}, params...)),
	})
}

// DefineAssocType declares an associated type inside a trait. Its own
// parameters follow the trait's.
func (t *Table) DefineAssocType(traitID typesystem.DefID, name string, params ...string) (*Decl, error) {
	trait, ok := t.decls[traitID]
	if !ok || trait.Kind != DefTrait {
		return nil, fmt.Errorf("associated type %s: container is not a trait", name)
	}
	return t.define(&Decl{
		Path:   trait.Path + "::" + name,
		Name:   name,
		Kind:   DefAssocTypeInTrait,
		Parent: traitID,
		Params: newParams(len(t.AllParams(traitID)), params),
	})
}

// IdentityTraitRef is Self: Trait<P1..Pn> over the trait's own parameters.
func (t *Table) IdentityTraitRef(id typesystem.DefID) (typesystem.TraitRef, bool) {
	d, ok := t.decls[id]
	if !ok || d.Kind != DefTrait {
		return typesystem.TraitRef{}, false
	}
	return typesystem.TraitRef{Def: d.Def, Name: d.Name, Args: paramArgs(d.Params)}, true
}

// FindAssociated looks up an associated item of a trait or impl by name.
func (t *Table) FindAssociated(container typesystem.DefID, name string) (*Decl, bool) {
	d, ok := t.decls[container]
	if !ok {
		return nil, false
	}
	for _, id := range d.Children {
		if c := t.decls[id]; c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// AssociatedItem describes id as a member of its container.
func (t *Table) AssociatedItem(id typesystem.DefID) (AssociatedItem, bool) {
	d, ok := t.decls[id]
	if !ok || !d.Parent.IsValid() {
		return AssociatedItem{}, false
	}
	parent := t.decls[d.Parent]
	return AssociatedItem{Def: d.Def, Name: d.Name, Container: parent.Def, ContainerKind: parent.Kind}, true
}

// AssociatedItemNamed is FindAssociated described as an AssociatedItem.
func (t *Table) AssociatedItemNamed(container typesystem.DefID, name string) (AssociatedItem, bool) {
	d, ok := t.FindAssociated(container, name)
	if !ok {
		return AssociatedItem{}, false
	}
	return t.AssociatedItem(d.Def)
}
