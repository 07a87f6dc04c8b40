package lowering

import (
	"fmt"

	"github.com/funvibe/clausegen/internal/clauses"
	"github.com/funvibe/clausegen/internal/symbols"
	"github.com/funvibe/clausegen/internal/typesystem"
)

type generator func(m Model, id typesystem.DefID) (clauses.Clauses, error)

var generators = map[symbols.DefKind]generator{
	symbols.DefTrait:            programClausesForTrait,
	symbols.DefImpl:             programClausesForImpl,
	symbols.DefAdt:              programClausesForTypeDef,
	symbols.DefAssocTypeInTrait: programClausesForAssocTypeDef,
	symbols.DefAssocTypeInImpl:  programClausesForAssocTypeValue,
}

// ProgramClausesFor returns the clause set of a declaration. Kinds without a
// generator (fns) yield no clauses. Every clause is checked to be closed and
// consistently bound before it is returned.
func ProgramClausesFor(m Model, id typesystem.DefID) (clauses.Clauses, error) {
	kind, ok := m.DefKind(id)
	if !ok {
		return nil, typesystem.NewInvariantError("program clauses", "unknown declaration %s", id)
	}
	gen, ok := generators[kind]
	if !ok {
		return clauses.Clauses{}, nil
	}
	cs, err := gen(m, id)
	if err != nil {
		return nil, fmt.Errorf("program clauses for %s: %w", displayName(m, id), err)
	}
	for _, c := range cs {
		if err := typesystem.Validate(c, true); err != nil {
			return nil, fmt.Errorf("program clauses for %s: %w", displayName(m, id), err)
		}
	}
	return cs, nil
}

func displayName(m Model, id typesystem.DefID) string {
	if name, ok := m.DefName(id); ok {
		return name
	}
	return id.String()
}

func expectKind(m Model, id typesystem.DefID, want symbols.DefKind, op string) error {
	kind, ok := m.DefKind(id)
	if !ok || kind != want {
		return typesystem.NewInvariantError(op, "%s is a %s, not a %s", displayName(m, id), kind, want)
	}
	return nil
}
