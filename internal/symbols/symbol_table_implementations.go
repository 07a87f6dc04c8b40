package symbols

import (
	"fmt"

	"github.com/funvibe/clausegen/internal/typesystem"
)

// DefineImpl declares impl<params>, named impl#N in definition order. The
// implemented trait reference is set afterwards with SetImplTrait, once the
// parameters can be referenced.
func (t *Table) DefineImpl(polarity Polarity, params ...string) (*Decl, error) {
	n := 0
	for _, d := range t.decls {
		if d.Kind == DefImpl {
			n++
		}
	}
	path := fmt.Sprintf("impl#%d", n)
	return t.define(&Decl{
		Path:     path,
		Name:     path,
		Kind:     DefImpl,
		Polarity: polarity,
		Params:   newParams(0, params),
	})
}

func (t *Table) SetImplTrait(id typesystem.DefID, ref typesystem.TraitRef) error {
	d, ok := t.decls[id]
	if !ok || d.Kind != DefImpl {
		return fmt.Errorf("set impl trait: %s is not an impl", id)
	}
	if len(ref.Args) == 0 {
		return fmt.Errorf("set impl trait: %s has no receiver", ref.Name)
	}
	d.Trait = ref
	return nil
}

// DefineAssocValue declares the binding of an associated type inside an impl.
func (t *Table) DefineAssocValue(implID typesystem.DefID, name string, params ...string) (*Decl, error) {
	impl, ok := t.decls[implID]
	if !ok || impl.Kind != DefImpl {
		return nil, fmt.Errorf("associated type %s: container is not an impl", name)
	}
	return t.define(&Decl{
		Path:   impl.Path + "::" + name,
		Name:   name,
		Kind:   DefAssocTypeInImpl,
		Parent: implID,
		Params: newParams(len(impl.Params), params),
	})
}

// DefineAdt declares a nominal type name<params>; its self type is the type
// applied to its own parameters.
func (t *Table) DefineAdt(name string, params ...string) (*Decl, error) {
	d, err := t.define(&Decl{
		Path:   name,
		Name:   name,
		Kind:   DefAdt,
		Params: newParams(0, params),
	})
	if err != nil {
		return nil, err
	}
	d.Ty = typesystem.TCon{Name: name, Def: d.Def, Args: paramArgs(d.Params)}
	return d, nil
}

// DefineFn declares a free function. Its signature is set with SetType.
func (t *Table) DefineFn(name string, params ...string) (*Decl, error) {
	return t.define(&Decl{
		Path:   name,
		Name:   name,
		Kind:   DefFn,
		Params: newParams(0, params),
	})
}

// SetType sets the value of an associated type binding or a fn signature.
func (t *Table) SetType(id typesystem.DefID, ty typesystem.Type) error {
	d, ok := t.decls[id]
	if !ok {
		return fmt.Errorf("set type: unknown declaration %s", id)
	}
	switch d.Kind {
	case DefAssocTypeInImpl, DefFn:
		d.Ty = ty
		return nil
	default:
		return fmt.Errorf("set type: %s is a %s", d.Path, d.Kind)
	}
}

func (t *Table) ImplTraitRef(id typesystem.DefID) (typesystem.TraitRef, bool) {
	d, ok := t.decls[id]
	if !ok || d.Kind != DefImpl || len(d.Trait.Args) == 0 {
		return typesystem.TraitRef{}, false
	}
	return d.Trait, true
}

func (t *Table) ImplPolarity(id typesystem.DefID) Polarity {
	if d, ok := t.decls[id]; ok {
		return d.Polarity
	}
	return Positive
}
