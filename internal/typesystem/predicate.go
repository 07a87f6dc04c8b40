package typesystem

import "fmt"

// Predicate is a constraint as declared on a declaration (a where clause),
// already resolved to semantic form.
type Predicate interface {
	String() string
	Fold(m *Mapper) Predicate
	predicateNode()
}

// PolyPredicate is a predicate under its own binder, e.g. for<'a> T: Trait<'a>.
type PolyPredicate = Binder[Predicate]

// TraitPredicate requires Self to implement a trait: T: Trait<A>.
type TraitPredicate struct {
	Trait TraitRef
}

func (p TraitPredicate) String() string { return p.Trait.String() }
func (p TraitPredicate) Fold(m *Mapper) Predicate {
	return TraitPredicate{Trait: m.TraitRef(p.Trait)}
}
func (p TraitPredicate) predicateNode() {}

// ProjectionPredicate requires an associated type to equal a type:
// <T as Trait>::Item == U.
type ProjectionPredicate struct {
	Projection TProjection
	Ty         Type
}

func (p ProjectionPredicate) String() string {
	return fmt.Sprintf("%s == %s", p.Projection.String(), p.Ty.String())
}
func (p ProjectionPredicate) Fold(m *Mapper) Predicate {
	return ProjectionPredicate{Projection: m.Projection(p.Projection), Ty: m.Type(p.Ty)}
}
func (p ProjectionPredicate) predicateNode() {}

// RegionOutlivesPredicate is 'long: 'short.
type RegionOutlivesPredicate struct {
	Long  Region
	Short Region
}

func (p RegionOutlivesPredicate) String() string {
	return fmt.Sprintf("%s: %s", p.Long.String(), p.Short.String())
}
func (p RegionOutlivesPredicate) Fold(m *Mapper) Predicate {
	return RegionOutlivesPredicate{Long: m.Region(p.Long), Short: m.Region(p.Short)}
}
func (p RegionOutlivesPredicate) predicateNode() {}

// TypeOutlivesPredicate is T: 'r.
type TypeOutlivesPredicate struct {
	Ty     Type
	Region Region
}

func (p TypeOutlivesPredicate) String() string {
	return fmt.Sprintf("%s: %s", p.Ty.String(), p.Region.String())
}
func (p TypeOutlivesPredicate) Fold(m *Mapper) Predicate {
	return TypeOutlivesPredicate{Ty: m.Type(p.Ty), Region: m.Region(p.Region)}
}
func (p TypeOutlivesPredicate) predicateNode() {}

// WellFormedPredicate requires an argument to be well-formed.
type WellFormedPredicate struct {
	Arg Arg
}

func (p WellFormedPredicate) String() string { return fmt.Sprintf("WellFormed(%s)", p.Arg.String()) }
func (p WellFormedPredicate) Fold(m *Mapper) Predicate {
	return WellFormedPredicate{Arg: m.Arg(p.Arg)}
}
func (p WellFormedPredicate) predicateNode() {}

// ObjectSafePredicate requires a trait to be object safe.
type ObjectSafePredicate struct {
	Trait DefID
	Name  string
}

func (p ObjectSafePredicate) String() string           { return fmt.Sprintf("ObjectSafe(%s)", p.Name) }
func (p ObjectSafePredicate) Fold(m *Mapper) Predicate { return p }
func (p ObjectSafePredicate) predicateNode()           {}

// ClosureKindPredicate requires a closure to implement a closure kind.
type ClosureKindPredicate struct {
	Closure DefID
	Name    string
	Kind    string
}

func (p ClosureKindPredicate) String() string {
	return fmt.Sprintf("ClosureKind(%s, %s)", p.Name, p.Kind)
}
func (p ClosureKindPredicate) Fold(m *Mapper) Predicate { return p }
func (p ClosureKindPredicate) predicateNode()           {}

// SubtypePredicate is Sub <: Super.
type SubtypePredicate struct {
	Sub   Type
	Super Type
}

func (p SubtypePredicate) String() string {
	return fmt.Sprintf("%s <: %s", p.Sub.String(), p.Super.String())
}
func (p SubtypePredicate) Fold(m *Mapper) Predicate {
	return SubtypePredicate{Sub: m.Type(p.Sub), Super: m.Type(p.Super)}
}
func (p SubtypePredicate) predicateNode() {}

// ConstEvaluatablePredicate requires a constant to be evaluatable.
type ConstEvaluatablePredicate struct {
	Def  DefID
	Name string
	Args []Arg
}

func (p ConstEvaluatablePredicate) String() string {
	if len(p.Args) == 0 {
		return fmt.Sprintf("ConstEvaluatable(%s)", p.Name)
	}
	return fmt.Sprintf("ConstEvaluatable(%s<%s>)", p.Name, joinArgs(p.Args))
}
func (p ConstEvaluatablePredicate) Fold(m *Mapper) Predicate {
	return ConstEvaluatablePredicate{Def: p.Def, Name: p.Name, Args: m.Args(p.Args)}
}
func (p ConstEvaluatablePredicate) predicateNode() {}
