package clauses

import (
	"fmt"
	"strings"

	"github.com/funvibe/clausegen/internal/typesystem"
)

// Goal is a hypothesis of a program clause: a domain goal or a goal
// quantified over its own variables.
type Goal interface {
	String() string
	FoldGoal(m *typesystem.Mapper) Goal
	goalNode()
}

// ForAll is a universally quantified goal. Variables of Vars are bound at
// depth 0 inside Body.
type ForAll struct {
	Vars []typesystem.Var
	Body Goal
}

func (g ForAll) String() string {
	return typesystem.Bind(g.Vars, goalString{g.Body}).String()
}

func (g ForAll) FoldGoal(m *typesystem.Mapper) Goal {
	m.Enter(g.Vars)
	defer m.Exit()
	return ForAll{Vars: g.Vars, Body: g.Body.FoldGoal(m)}
}

func (g ForAll) goalNode() {}

// goalString lets a goal be printed through Binder.String.
type goalString struct{ g Goal }

func (s goalString) Fold(m *typesystem.Mapper) goalString { return goalString{s.g.FoldGoal(m)} }
func (s goalString) String() string                       { return s.g.String() }

// Category is a hint for the solver's strategy; it never affects soundness.
type Category int

const (
	CategoryOther Category = iota
	CategoryImpliedBound
	CategoryWellFormed
)

func (c Category) String() string {
	switch c {
	case CategoryImpliedBound:
		return "ImpliedBound"
	case CategoryWellFormed:
		return "WellFormed"
	default:
		return "Other"
	}
}

// ProgramClause is the rule Goal :- Hypotheses (a conjunction).
type ProgramClause struct {
	Goal       DomainGoal
	Hypotheses []Goal
	Category   Category
}

func (c ProgramClause) String() string {
	if len(c.Hypotheses) == 0 {
		return c.Goal.String()
	}
	hyps := make([]string, len(c.Hypotheses))
	for i, h := range c.Hypotheses {
		hyps[i] = h.String()
	}
	return fmt.Sprintf("%s :- %s", c.Goal.String(), strings.Join(hyps, ", "))
}

func (c ProgramClause) Fold(m *typesystem.Mapper) ProgramClause {
	var hyps []Goal
	if c.Hypotheses != nil {
		hyps = make([]Goal, len(c.Hypotheses))
		for i, h := range c.Hypotheses {
			hyps[i] = h.FoldGoal(m)
		}
	}
	return ProgramClause{Goal: c.Goal.Fold(m), Hypotheses: hyps, Category: c.Category}
}

// Clause is a program clause universally quantified over its binder.
type Clause = typesystem.Binder[ProgramClause]

// Clauses is the ordered clause set of one declaration.
type Clauses []Clause

// Strings renders every clause, in order.
func (cs Clauses) Strings() []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}

// Fact builds a clause with no hypotheses.
func Fact(vars []typesystem.Var, goal DomainGoal, category Category) Clause {
	return typesystem.Bind(vars, ProgramClause{Goal: goal, Category: category})
}

// Rule builds a clause goal :- hyps.
func Rule(vars []typesystem.Var, goal DomainGoal, category Category, hyps ...Goal) Clause {
	return typesystem.Bind(vars, ProgramClause{Goal: goal, Hypotheses: hyps, Category: category})
}
