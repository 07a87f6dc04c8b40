// Package clauses is the logic vocabulary produced by lowering: where
// clauses, domain goals, goals and program clauses, plus the conversions
// from declared predicates into that vocabulary.
package clauses

import (
	"fmt"

	"github.com/funvibe/clausegen/internal/typesystem"
)

// WhereClause is one atomic requirement that can hold.
type WhereClause interface {
	String() string
	Fold(m *typesystem.Mapper) WhereClause
	whereClauseNode()
}

// Implemented holds when the receiver implements the trait.
type Implemented struct {
	Trait typesystem.TraitRef
}

func (w Implemented) String() string { return fmt.Sprintf("Implemented(%s)", w.Trait.String()) }
func (w Implemented) Fold(m *typesystem.Mapper) WhereClause {
	return Implemented{Trait: m.TraitRef(w.Trait)}
}
func (w Implemented) whereClauseNode() {}

// ProjectionEq holds when the projection equals Ty.
type ProjectionEq struct {
	Projection typesystem.TProjection
	Ty         typesystem.Type
}

func (w ProjectionEq) String() string {
	return fmt.Sprintf("ProjectionEq(%s == %s)", w.Projection.String(), w.Ty.String())
}
func (w ProjectionEq) Fold(m *typesystem.Mapper) WhereClause {
	return ProjectionEq{Projection: m.Projection(w.Projection), Ty: m.Type(w.Ty)}
}
func (w ProjectionEq) whereClauseNode() {}

// RegionOutlives holds when Long outlives Short.
type RegionOutlives struct {
	Long  typesystem.Region
	Short typesystem.Region
}

func (w RegionOutlives) String() string {
	return fmt.Sprintf("RegionOutlives(%s: %s)", w.Long.String(), w.Short.String())
}
func (w RegionOutlives) Fold(m *typesystem.Mapper) WhereClause {
	return RegionOutlives{Long: m.Region(w.Long), Short: m.Region(w.Short)}
}
func (w RegionOutlives) whereClauseNode() {}

// TypeOutlives holds when every region in Ty outlives Region.
type TypeOutlives struct {
	Ty     typesystem.Type
	Region typesystem.Region
}

func (w TypeOutlives) String() string {
	return fmt.Sprintf("TypeOutlives(%s: %s)", w.Ty.String(), w.Region.String())
}
func (w TypeOutlives) Fold(m *typesystem.Mapper) WhereClause {
	return TypeOutlives{Ty: m.Type(w.Ty), Region: m.Region(w.Region)}
}
func (w TypeOutlives) whereClauseNode() {}
