package typesystem

// Mapper rewrites the leaves of a value (parameters and bound variables)
// while tracking the binders entered on the way down. Nil hooks leave the
// corresponding leaves unchanged.
type Mapper struct {
	ParamType   func(m *Mapper, t TParam) Type
	ParamRegion func(m *Mapper, r RParam) Region
	BoundType   func(m *Mapper, t TBound) Type
	BoundRegion func(m *Mapper, r RBound) Region

	scopes [][]Var
}

// Depth is the number of binders entered below the value being mapped.
func (m *Mapper) Depth() int { return len(m.scopes) }

// Enter pushes a binder; every Enter must be paired with Exit.
func (m *Mapper) Enter(vars []Var) { m.scopes = append(m.scopes, vars) }

func (m *Mapper) Exit() { m.scopes = m.scopes[:len(m.scopes)-1] }

// Lookup resolves a bound variable against the binders entered so far.
func (m *Mapper) Lookup(depth, index int) (Var, bool) {
	level := len(m.scopes) - 1 - depth
	if depth < 0 || level < 0 || index < 0 || index >= len(m.scopes[level]) {
		return Var{}, false
	}
	return m.scopes[level][index], true
}

func (m *Mapper) Arg(a Arg) Arg {
	switch arg := a.(type) {
	case Type:
		return m.Type(arg)
	case Region:
		return m.Region(arg)
	default:
		return a
	}
}

func (m *Mapper) Args(args []Arg) []Arg {
	if args == nil {
		return nil
	}
	out := make([]Arg, len(args))
	for i, a := range args {
		out[i] = m.Arg(a)
	}
	return out
}

func (m *Mapper) Types(ts []Type) []Type {
	if ts == nil {
		return nil
	}
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = m.Type(t)
	}
	return out
}

func (m *Mapper) Type(t Type) Type {
	if t == nil {
		return nil
	}
	switch typ := t.(type) {
	case TParam:
		if m.ParamType != nil {
			return m.ParamType(m, typ)
		}
		return typ
	case TBound:
		if m.BoundType != nil {
			return m.BoundType(m, typ)
		}
		return typ
	case TCon:
		return TCon{Name: typ.Name, Def: typ.Def, Args: m.Args(typ.Args)}
	case TTuple:
		return TTuple{Elements: m.Types(typ.Elements)}
	case TRef:
		return TRef{Region: m.Region(typ.Region), Elem: m.Type(typ.Elem)}
	case TFunc:
		return TFunc{Params: m.Types(typ.Params), ReturnType: m.Type(typ.ReturnType)}
	case TForall:
		m.Enter(typ.Vars)
		defer m.Exit()
		return TForall{Vars: typ.Vars, Type: m.Type(typ.Type)}
	case TProjection:
		return m.Projection(typ)
	case TPlaceholder:
		return TPlaceholder{Projection: m.Projection(typ.Projection)}
	default:
		return t
	}
}

func (m *Mapper) Region(r Region) Region {
	if r == nil {
		return nil
	}
	switch reg := r.(type) {
	case RParam:
		if m.ParamRegion != nil {
			return m.ParamRegion(m, reg)
		}
		return reg
	case RBound:
		if m.BoundRegion != nil {
			return m.BoundRegion(m, reg)
		}
		return reg
	default:
		return r
	}
}

func (m *Mapper) TraitRef(r TraitRef) TraitRef {
	return TraitRef{Def: r.Def, Name: r.Name, Args: m.Args(r.Args)}
}

func (m *Mapper) Projection(p TProjection) TProjection {
	return TProjection{
		Trait:   m.TraitRef(p.Trait),
		Item:    p.Item,
		ItemDef: p.ItemDef,
		Args:    m.Args(p.Args),
	}
}

// shiftArg moves every variable escaping a by amount binders outward.
func shiftArg(a Arg, amount int) Arg {
	if amount == 0 || a == nil {
		return a
	}
	return shifter(amount).Arg(a)
}

func shifter(amount int) *Mapper {
	return &Mapper{
		BoundType: func(m *Mapper, t TBound) Type {
			if t.Depth >= m.Depth() {
				t.Depth += amount
			}
			return t
		},
		BoundRegion: func(m *Mapper, r RBound) Region {
			if r.Depth >= m.Depth() {
				r.Depth += amount
			}
			return r
		},
	}
}
