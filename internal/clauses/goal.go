package clauses

import (
	"fmt"

	"github.com/funvibe/clausegen/internal/typesystem"
)

// DomainGoal is the unit of provable fact; it heads every program clause.
type DomainGoal interface {
	Goal
	Fold(m *typesystem.Mapper) DomainGoal
	domainGoalNode()
}

// Holds is a where clause being true.
type Holds struct {
	Clause WhereClause
}

func (g Holds) String() string { return g.Clause.String() }
func (g Holds) Fold(m *typesystem.Mapper) DomainGoal {
	return Holds{Clause: g.Clause.Fold(m)}
}
func (g Holds) FoldGoal(m *typesystem.Mapper) Goal { return g.Fold(m) }
func (g Holds) domainGoalNode()                    {}
func (g Holds) goalNode()                          {}

// WellFormedTrait: the trait reference is well-formed.
type WellFormedTrait struct {
	Trait typesystem.TraitRef
}

func (g WellFormedTrait) String() string { return fmt.Sprintf("WellFormed(%s)", g.Trait.String()) }
func (g WellFormedTrait) Fold(m *typesystem.Mapper) DomainGoal {
	return WellFormedTrait{Trait: m.TraitRef(g.Trait)}
}
func (g WellFormedTrait) FoldGoal(m *typesystem.Mapper) Goal { return g.Fold(m) }
func (g WellFormedTrait) domainGoalNode()                    {}
func (g WellFormedTrait) goalNode()                          {}

// WellFormedTy: the type is well-formed.
type WellFormedTy struct {
	Ty typesystem.Type
}

func (g WellFormedTy) String() string { return fmt.Sprintf("WellFormed(%s)", g.Ty.String()) }
func (g WellFormedTy) Fold(m *typesystem.Mapper) DomainGoal {
	return WellFormedTy{Ty: m.Type(g.Ty)}
}
func (g WellFormedTy) FoldGoal(m *typesystem.Mapper) Goal { return g.Fold(m) }
func (g WellFormedTy) domainGoalNode()                    {}
func (g WellFormedTy) goalNode()                          {}

// FromEnvTrait: the trait reference was assumed by the caller's environment.
type FromEnvTrait struct {
	Trait typesystem.TraitRef
}

func (g FromEnvTrait) String() string { return fmt.Sprintf("FromEnv(%s)", g.Trait.String()) }
func (g FromEnvTrait) Fold(m *typesystem.Mapper) DomainGoal {
	return FromEnvTrait{Trait: m.TraitRef(g.Trait)}
}
func (g FromEnvTrait) FoldGoal(m *typesystem.Mapper) Goal { return g.Fold(m) }
func (g FromEnvTrait) domainGoalNode()                    {}
func (g FromEnvTrait) goalNode()                          {}

// FromEnvTy: the type was assumed well-formed by the caller's environment.
type FromEnvTy struct {
	Ty typesystem.Type
}

func (g FromEnvTy) String() string { return fmt.Sprintf("FromEnv(%s)", g.Ty.String()) }
func (g FromEnvTy) Fold(m *typesystem.Mapper) DomainGoal {
	return FromEnvTy{Ty: m.Type(g.Ty)}
}
func (g FromEnvTy) FoldGoal(m *typesystem.Mapper) Goal { return g.Fold(m) }
func (g FromEnvTy) domainGoalNode()                    {}
func (g FromEnvTy) goalNode()                          {}

// Normalize: the projection normalizes to Ty.
type Normalize struct {
	Projection typesystem.TProjection
	Ty         typesystem.Type
}

func (g Normalize) String() string {
	return fmt.Sprintf("Normalize(%s -> %s)", g.Projection.String(), g.Ty.String())
}
func (g Normalize) Fold(m *typesystem.Mapper) DomainGoal {
	return Normalize{Projection: m.Projection(g.Projection), Ty: m.Type(g.Ty)}
}
func (g Normalize) FoldGoal(m *typesystem.Mapper) Goal { return g.Fold(m) }
func (g Normalize) domainGoalNode()                    {}
func (g Normalize) goalNode()                          {}

// PolyDomainGoal is a domain goal under its own binder.
type PolyDomainGoal = typesystem.Binder[DomainGoal]

// ToEnvironmentAssumption maps Holds(Implemented(r)) to FromEnv(r) and
// leaves every other goal unchanged.
func ToEnvironmentAssumption(g DomainGoal) DomainGoal {
	if h, ok := g.(Holds); ok {
		if impl, ok := h.Clause.(Implemented); ok {
			return FromEnvTrait{Trait: impl.Trait}
		}
	}
	return g
}

// ToWellFormednessGoal maps Holds(Implemented(r)) to WellFormed(r) and
// leaves every other goal unchanged.
func ToWellFormednessGoal(g DomainGoal) DomainGoal {
	if h, ok := g.(Holds); ok {
		if impl, ok := h.Clause.(Implemented); ok {
			return WellFormedTrait{Trait: impl.Trait}
		}
	}
	return g
}
