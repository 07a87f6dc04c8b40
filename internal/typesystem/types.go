package typesystem

import (
	"fmt"
	"strings"
)

// Arg is a generic argument: either a Type or a Region.
type Arg interface {
	String() string
	Kind() Kind
}

// Type is the interface for all types in our system.
type Type interface {
	Arg
	typeNode()
}

// Var declares one variable of a binder. Names are only used for display.
type Var struct {
	Name string
	Kind Kind
}

func (v Var) String() string {
	if v.Name != "" {
		return v.Name
	}
	if IsLifetime(v.Kind) {
		return "'_"
	}
	return "_"
}

// TParam is an early-bound generic parameter of a declaration, referenced by
// its position in the declaration's parameter list (parents first).
type TParam struct {
	Index int
	Name  string
}

func (t TParam) String() string {
	if t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("P%d", t.Index)
}

func (t TParam) Kind() Kind { return Star }
func (t TParam) typeNode()  {}

// TBound is a type variable bound by an enclosing binder. Depth counts the
// binders between the variable and the one that binds it (0 = innermost);
// Index is the variable's slot in that binder.
type TBound struct {
	Depth int
	Index int
	Name  string
}

func (t TBound) String() string {
	if t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("^%d_%d", t.Depth, t.Index)
}

func (t TBound) Kind() Kind { return Star }
func (t TBound) typeNode()  {}

// TCon represents a nominal type applied to its arguments (e.g. Vec<T>, u32).
// Def is NoDefID for builtin types.
type TCon struct {
	Name string
	Def  DefID
	Args []Arg
}

func (t TCon) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	return t.Name + "<" + joinArgs(t.Args) + ">"
}

func (t TCon) Kind() Kind { return Star }
func (t TCon) typeNode()  {}

// TTuple represents a tuple type (e.g. (u32, bool)).
type TTuple struct {
	Elements []Type
}

func (t TTuple) String() string {
	parts := make([]string, len(t.Elements))
	for i, el := range t.Elements {
		parts[i] = el.String()
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (t TTuple) Kind() Kind { return Star }
func (t TTuple) typeNode()  {}

// TRef is a reference type &'r T.
type TRef struct {
	Region Region
	Elem   Type
}

func (t TRef) String() string {
	return fmt.Sprintf("&%s %s", t.Region.String(), t.Elem.String())
}

func (t TRef) Kind() Kind { return Star }
func (t TRef) typeNode()  {}

// TFunc represents a function pointer type (e.g. fn(u32) -> bool).
type TFunc struct {
	Params     []Type
	ReturnType Type
}

func (t TFunc) String() string {
	params := make([]string, len(t.Params))
	for i, p := range t.Params {
		params[i] = p.String()
	}
	s := "fn(" + strings.Join(params, ", ") + ")"
	if t.ReturnType != nil {
		s += " -> " + t.ReturnType.String()
	}
	return s
}

func (t TFunc) Kind() Kind { return Star }
func (t TFunc) typeNode()  {}

// TForall represents a higher-ranked type (e.g. for<'a> fn(&'a T)).
// Variables bound here are TBound/RBound at depth 0 inside Type.
type TForall struct {
	Vars []Var
	Type Type
}

func (t TForall) String() string {
	return fmt.Sprintf("for<%s> %s", joinVars(t.Vars), t.Type.String())
}

func (t TForall) Kind() Kind { return Star }
func (t TForall) typeNode()  {}

// TraitRef names a trait applied to its arguments. Args[0] is the receiver (Self).
type TraitRef struct {
	Def  DefID
	Name string
	Args []Arg
}

// SelfType returns the receiver of the trait reference.
func (r TraitRef) SelfType() Type {
	if len(r.Args) == 0 {
		return nil
	}
	t, _ := r.Args[0].(Type)
	return t
}

// TraitArgs returns the arguments following the receiver.
func (r TraitRef) TraitArgs() []Arg {
	if len(r.Args) <= 1 {
		return nil
	}
	return r.Args[1:]
}

// Path renders the trait applied to its non-receiver arguments (Trait<A>).
func (r TraitRef) Path() string {
	if args := r.TraitArgs(); len(args) > 0 {
		return r.Name + "<" + joinArgs(args) + ">"
	}
	return r.Name
}

func (r TraitRef) String() string {
	self := "?"
	if s := r.SelfType(); s != nil {
		self = s.String()
	}
	return self + ": " + r.Path()
}

// Qualified renders <Self as Trait<A>>.
func (r TraitRef) Qualified() string {
	self := "?"
	if s := r.SelfType(); s != nil {
		self = s.String()
	}
	return "<" + self + " as " + r.Path() + ">"
}

// TProjection is an associated type of a trait reference, applied to the
// associated type's own arguments: <Self as Trait<A>>::Item<B>.
type TProjection struct {
	Trait   TraitRef
	Item    string
	ItemDef DefID
	Args    []Arg
}

func (t TProjection) String() string {
	s := t.Trait.Qualified() + "::" + t.Item
	if len(t.Args) > 0 {
		s += "<" + joinArgs(t.Args) + ">"
	}
	return s
}

func (t TProjection) Kind() Kind { return Star }
func (t TProjection) typeNode()  {}

// TPlaceholder is the opaque stand-in for a projection that has not been
// normalized: (Trait::Item)<Self, A, B>.
type TPlaceholder struct {
	Projection TProjection
}

func (t TPlaceholder) String() string {
	args := append(append([]Arg{}, t.Projection.Trait.Args...), t.Projection.Args...)
	return fmt.Sprintf("(%s::%s)<%s>", t.Projection.Trait.Name, t.Projection.Item, joinArgs(args))
}

func (t TPlaceholder) Kind() Kind { return Star }
func (t TPlaceholder) typeNode()  {}

// BoundArgs maps every variable of a binder to itself, seen from directly
// inside that binder.
func BoundArgs(vars []Var) []Arg {
	args := make([]Arg, len(vars))
	for i, v := range vars {
		if IsLifetime(v.Kind) {
			args[i] = RBound{Depth: 0, Index: i, Name: v.Name}
		} else {
			args[i] = TBound{Depth: 0, Index: i, Name: v.Name}
		}
	}
	return args
}

// FreshVar appends a new variable to vars and returns the extended list with
// the variable as seen from directly inside the binder.
func FreshVar(vars []Var, v Var) ([]Var, Arg) {
	index := len(vars)
	extended := append(append(make([]Var, 0, index+1), vars...), v)
	if IsLifetime(v.Kind) {
		return extended, RBound{Depth: 0, Index: index, Name: v.Name}
	}
	return extended, TBound{Depth: 0, Index: index, Name: v.Name}
}

func joinArgs(args []Arg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

func joinVars(vars []Var) string {
	parts := make([]string, len(vars))
	for i, v := range vars {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}
