package typesystem

// WalkTypes lists t and every type nested in it, outermost first. Types
// under a for<> binder are not entered: they may mention its variables.
func WalkTypes(t Type) []Type {
	var out []Type
	var walk func(t Type)
	walkArgs := func(args []Arg) {
		for _, a := range args {
			if ty, ok := a.(Type); ok {
				walk(ty)
			}
		}
	}
	walk = func(t Type) {
		if t == nil {
			return
		}
		out = append(out, t)
		switch typ := t.(type) {
		case TCon:
			walkArgs(typ.Args)
		case TTuple:
			for _, el := range typ.Elements {
				walk(el)
			}
		case TRef:
			walk(typ.Elem)
		case TFunc:
			for _, p := range typ.Params {
				walk(p)
			}
			walk(typ.ReturnType)
		case TProjection:
			walkArgs(typ.Trait.Args)
			walkArgs(typ.Args)
		case TPlaceholder:
			walkArgs(typ.Projection.Trait.Args)
			walkArgs(typ.Projection.Args)
		}
	}
	walk(t)
	return out
}
