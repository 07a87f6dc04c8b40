package lowering

import (
	"github.com/funvibe/clausegen/internal/clauses"
	"github.com/funvibe/clausegen/internal/symbols"
	"github.com/funvibe/clausegen/internal/typesystem"
)

// Environment is the set of assumptions in force inside a declaration.
// Its clauses mention the declaration's parameters as rigid, free params.
type Environment struct {
	Def     typesystem.DefID
	Clauses clauses.Clauses
}

// EnvironmentFor collects the caller-supplied assumptions of id: every
// predicate in force (parents and the implicit Self: Trait included) as a
// FromEnv fact, then FromEnv(T) for every type mentioned in an impl header
// or a fn signature.
func EnvironmentFor(m Model, id typesystem.DefID) (Environment, error) {
	kind, ok := m.DefKind(id)
	if !ok {
		return Environment{}, typesystem.NewInvariantError("environment", "unknown declaration %s", id)
	}
	wcs, err := clauses.LowerAll(m.PredicatesOf(id))
	if err != nil {
		return Environment{}, err
	}

	env := Environment{Def: id}
	for _, wc := range wcs {
		env.Clauses = append(env.Clauses, typesystem.MapBound(wc, func(g clauses.DomainGoal) clauses.ProgramClause {
			return clauses.ProgramClause{Goal: clauses.ToEnvironmentAssumption(g), Category: clauses.CategoryOther}
		}))
	}

	var inputs []typesystem.Type
	switch kind {
	case symbols.DefImpl:
		if ref, ok := m.ImplTraitRef(id); ok {
			for _, a := range ref.Args {
				if ty, ok := a.(typesystem.Type); ok {
					inputs = append(inputs, typesystem.WalkTypes(ty)...)
				}
			}
		}
	case symbols.DefFn:
		if sig, ok := m.TypeOf(id); ok {
			inputs = typesystem.WalkTypes(sig)
			if _, isFn := sig.(typesystem.TFunc); isFn {
				inputs = inputs[1:]
			}
		}
	}
	seen := make(map[string]bool)
	for _, ty := range inputs {
		if seen[ty.String()] {
			continue
		}
		seen[ty.String()] = true
		env.Clauses = append(env.Clauses, clauses.Fact(nil, clauses.FromEnvTy{Ty: ty}, clauses.CategoryOther))
	}

	for _, c := range env.Clauses {
		if err := typesystem.Validate(c, false); err != nil {
			return Environment{}, err
		}
	}
	return env, nil
}

// Source supplies the clause set of a declaration, e.g. from a memo.
type Source func(id typesystem.DefID) (clauses.Clauses, error)

// ProgramClausesForEnv returns the environment's clauses followed by the
// implied-bound clauses they reach, transitively.
func ProgramClausesForEnv(m Model, env Environment) (clauses.Clauses, error) {
	return ProgramClausesForEnvWith(m, env, func(id typesystem.DefID) (clauses.Clauses, error) {
		return ProgramClausesFor(m, id)
	})
}

// ProgramClausesForEnvWith is ProgramClausesForEnv reading clause sets from
// source. A FromEnv(T: Trait) head reaches the implied-bound clauses of
// Trait; a FromEnv(Ty) head reaches those of the nominal type or associated
// type Ty names. Each declaration is visited once, so the closure terminates.
// Clauses are deduplicated by rendering and kept in discovery order.
func ProgramClausesForEnvWith(m Model, env Environment, source Source) (clauses.Clauses, error) {
	var out clauses.Clauses
	seen := make(map[string]bool)
	add := func(c clauses.Clause) bool {
		s := c.String()
		if seen[s] {
			return false
		}
		seen[s] = true
		out = append(out, c)
		return true
	}

	var queue clauses.Clauses
	for _, c := range env.Clauses {
		if add(c) {
			queue = append(queue, c)
		}
	}

	visited := make(map[typesystem.DefID]bool)
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		for _, def := range impliedDefs(c.Value.Goal) {
			if visited[def] {
				continue
			}
			visited[def] = true
			if _, ok := m.DefKind(def); !ok {
				continue
			}
			cs, err := source(def)
			if err != nil {
				return nil, err
			}
			for _, ic := range cs {
				if ic.Value.Category == clauses.CategoryImpliedBound && add(ic) {
					queue = append(queue, ic)
				}
			}
		}
	}
	return out, nil
}

// impliedDefs lists the declarations whose implied bounds a goal pulls in.
func impliedDefs(g clauses.DomainGoal) []typesystem.DefID {
	switch goal := g.(type) {
	case clauses.FromEnvTrait:
		return []typesystem.DefID{goal.Trait.Def}
	case clauses.FromEnvTy:
		switch ty := goal.Ty.(type) {
		case typesystem.TCon:
			if ty.Def.IsValid() {
				return []typesystem.DefID{ty.Def}
			}
		case typesystem.TProjection:
			return []typesystem.DefID{ty.ItemDef}
		case typesystem.TPlaceholder:
			return []typesystem.DefID{ty.Projection.ItemDef}
		}
	}
	return nil
}
