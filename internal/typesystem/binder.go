package typesystem

import "fmt"

// Foldable is implemented by every value that can sit inside a Binder.
type Foldable[T any] interface {
	Fold(m *Mapper) T
	String() string
}

// Binder marks Value as universally quantified over Vars. Inside Value the
// variables of this binder are TBound/RBound with Depth equal to the number
// of inner binders crossed to reach them.
type Binder[T Foldable[T]] struct {
	Vars  []Var
	Value T
}

func Bind[T Foldable[T]](vars []Var, value T) Binder[T] {
	return Binder[T]{Vars: vars, Value: value}
}

// Dummy wraps a value that mentions no variables of the new binder.
// Variables escaping value are shifted so they keep pointing at the same binders.
func Dummy[T Foldable[T]](value T) Binder[T] {
	return Binder[T]{Value: Shift(value, 1)}
}

func (b Binder[T]) Fold(m *Mapper) Binder[T] {
	m.Enter(b.Vars)
	defer m.Exit()
	return Binder[T]{Vars: b.Vars, Value: b.Value.Fold(m)}
}

func (b Binder[T]) String() string {
	if len(b.Vars) == 0 {
		return b.Value.String()
	}
	return fmt.Sprintf("forall<%s> { %s }", joinVars(b.Vars), b.Value.String())
}

// MapBound rewrites the value under the binder, keeping its variables.
// f must not move the value across binders.
func MapBound[T Foldable[T], U Foldable[U]](b Binder[T], f func(T) U) Binder[U] {
	return Binder[U]{Vars: b.Vars, Value: f(b.Value)}
}

// Instantiate substitutes args for the binder's variables and removes the binder.
// Variables bound further out are shifted inward by one.
func (b Binder[T]) Instantiate(args []Arg) T {
	m := &Mapper{
		BoundType: func(m *Mapper, t TBound) Type {
			d := m.Depth()
			switch {
			case t.Depth == d:
				if t.Index < len(args) {
					if ty, ok := shiftArg(args[t.Index], d).(Type); ok {
						return ty
					}
				}
			case t.Depth > d:
				t.Depth--
			}
			return t
		},
		BoundRegion: func(m *Mapper, r RBound) Region {
			d := m.Depth()
			switch {
			case r.Depth == d:
				if r.Index < len(args) {
					if reg, ok := shiftArg(args[r.Index], d).(Region); ok {
						return reg
					}
				}
			case r.Depth > d:
				r.Depth--
			}
			return r
		},
	}
	return b.Value.Fold(m)
}

// Hoist merges b with the binder directly enclosing it, whose variables are
// outer. The result binds outer followed by b.Vars: the enclosing binder's
// variables keep their slots, b's variables move after them.
func (b Binder[T]) Hoist(outer []Var) Binder[T] {
	n := len(outer)
	m := &Mapper{
		BoundType: func(m *Mapper, t TBound) Type {
			d := m.Depth()
			switch {
			case t.Depth == d:
				t.Index += n
			case t.Depth == d+1:
				t.Depth = d
			case t.Depth > d+1:
				t.Depth--
			}
			return t
		},
		BoundRegion: func(m *Mapper, r RBound) Region {
			d := m.Depth()
			switch {
			case r.Depth == d:
				r.Index += n
			case r.Depth == d+1:
				r.Depth = d
			case r.Depth > d+1:
				r.Depth--
			}
			return r
		},
	}
	vars := append(append(make([]Var, 0, n+len(b.Vars)), outer...), b.Vars...)
	return Binder[T]{Vars: vars, Value: b.Value.Fold(m)}
}

// Shift moves every variable escaping v by amount binders outward, as needed
// when v is placed under amount new binders.
func Shift[T Foldable[T]](v T, amount int) T {
	if amount == 0 {
		return v
	}
	return v.Fold(shifter(amount))
}

// SubstParams replaces the declaration parameters in v with args, indexed by
// parameter position. Arguments are shifted past every binder they cross.
// Parameters without an argument are left in place.
func SubstParams[T Foldable[T]](v T, args []Arg) T {
	return v.Fold(ParamSubst(args))
}

// ParamSubst is the mapper behind SubstParams, for values that are not
// Foldable themselves (types, trait references).
func ParamSubst(args []Arg) *Mapper {
	return &Mapper{
		ParamType: func(m *Mapper, t TParam) Type {
			if t.Index < len(args) {
				if ty, ok := shiftArg(args[t.Index], m.Depth()).(Type); ok {
					return ty
				}
			}
			return t
		},
		ParamRegion: func(m *Mapper, r RParam) Region {
			if r.Index < len(args) {
				if reg, ok := shiftArg(args[r.Index], m.Depth()).(Region); ok {
					return reg
				}
			}
			return r
		},
	}
}

// Validate checks that every bound variable in b resolves to a variable of
// the right kind in b or in a binder nested inside it. When closed is set,
// declaration parameters are rejected too: the value must be fully quantified.
func Validate[T Foldable[T]](b Binder[T], closed bool) error {
	var err error
	check := func(m *Mapper, depth, index int, kind Kind, leaf string) {
		if err != nil {
			return
		}
		v, ok := m.Lookup(depth, index)
		if !ok {
			err = NewInvariantError("validate binder", "%s (depth %d, slot %d) escapes %s", leaf, depth, index, b.String())
			return
		}
		if !v.Kind.Equal(kind) {
			err = NewInvariantError("validate binder", "%s is used as kind %s but bound as %s in %s", leaf, kind, v.Kind, b.String())
		}
	}
	m := &Mapper{
		BoundType: func(m *Mapper, t TBound) Type {
			check(m, t.Depth, t.Index, Star, t.String())
			return t
		},
		BoundRegion: func(m *Mapper, r RBound) Region {
			check(m, r.Depth, r.Index, Lifetime, r.String())
			return r
		},
	}
	if closed {
		m.ParamType = func(m *Mapper, t TParam) Type {
			if err == nil {
				err = NewInvariantError("validate binder", "free parameter %s in %s", t.String(), b.String())
			}
			return t
		}
		m.ParamRegion = func(m *Mapper, r RParam) Region {
			if err == nil {
				err = NewInvariantError("validate binder", "free parameter %s in %s", r.String(), b.String())
			}
			return r
		}
	}
	b.Fold(m)
	return err
}
