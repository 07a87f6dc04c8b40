package symbols

import (
	"github.com/funvibe/clausegen/internal/typesystem"
)

type DefKind int

const (
	DefUnknown DefKind = iota
	DefTrait
	DefImpl
	DefAdt
	DefAssocTypeInTrait
	DefAssocTypeInImpl
	DefFn
)

func (k DefKind) String() string {
	switch k {
	case DefTrait:
		return "trait"
	case DefImpl:
		return "impl"
	case DefAdt:
		return "struct"
	case DefAssocTypeInTrait:
		return "associated type"
	case DefAssocTypeInImpl:
		return "associated type value"
	case DefFn:
		return "fn"
	default:
		return "unknown"
	}
}

type Polarity int

const (
	Positive Polarity = iota
	Negative // exclusion impl: impl !Trait for T
)

func (p Polarity) String() string {
	if p == Negative {
		return "negative"
	}
	return "positive"
}

// GenericParam is one generic parameter. Index is its position in the full
// parameter list of the declaration, parents first.
type GenericParam struct {
	Name  string
	Index int
	Kind  typesystem.Kind
}

// Arg returns the parameter used as an argument of its own declaration.
func (p GenericParam) Arg() typesystem.Arg {
	if typesystem.IsLifetime(p.Kind) {
		return typesystem.RParam{Index: p.Index, Name: p.Name}
	}
	return typesystem.TParam{Index: p.Index, Name: p.Name}
}

// Var returns the binder variable standing for the parameter.
func (p GenericParam) Var() typesystem.Var {
	return typesystem.Var{Name: p.Name, Kind: p.Kind}
}

// Generics lists the parameters a declaration introduces on top of its parent's.
type Generics struct {
	Parent      typesystem.DefID
	ParentCount int
	Params      []GenericParam
}

// Count is the length of the full parameter list.
func (g Generics) Count() int { return g.ParentCount + len(g.Params) }

// AssociatedItem describes an item declared inside a trait or impl.
type AssociatedItem struct {
	Def           typesystem.DefID
	Name          string
	Container     typesystem.DefID
	ContainerKind DefKind
}

// Dump requests attached to a declaration.
const (
	DumpClauses = "clauses"
	DumpEnv     = "env"
)

// Decl is one declaration of the semantic model.
type Decl struct {
	Def    typesystem.DefID
	Path   string // Trait, Trait::Item, impl#2, impl#2::Item
	Name   string
	Kind   DefKind
	Parent typesystem.DefID

	Params     []GenericParam // own parameters only
	Predicates []typesystem.PolyPredicate

	Trait    typesystem.TraitRef // impls
	Polarity Polarity            // impls
	Ty       typesystem.Type     // struct self type, associated type value, fn signature

	Children []typesystem.DefID
	Dump     []string
	File     string
}

// Wants reports whether the declaration carries the given dump request.
func (d *Decl) Wants(request string) bool {
	for _, r := range d.Dump {
		if r == request {
			return true
		}
	}
	return false
}
