// Package datalog exports clause sets as Mangle Datalog source.
//
// Variables of a clause's binder become X0, X1, ...; variables of binders
// nested inside it (quantified hypotheses, higher-ranked types) become
// Y<n>_<index>, where n numbers the nested binders of the clause in the order
// they are met, so sibling binders never share a variable. Datalog has no nested quantifiers, so a quantified
// hypothesis is flattened into its body: the export is meant for inspection,
// not for solving.
package datalog

import (
	"fmt"
	"strings"

	"github.com/google/mangle/ast"
	"github.com/google/mangle/parse"

	"github.com/funvibe/clausegen/internal/clauses"
	"github.com/funvibe/clausegen/internal/typesystem"
)

// Predicate names used by the export.
const (
	PredImplemented     = "implemented"
	PredProjectionEq    = "projection_eq"
	PredRegionOutlives  = "region_outlives"
	PredTypeOutlives    = "type_outlives"
	PredWellFormedTrait = "well_formed_trait"
	PredWellFormedTy    = "well_formed_ty"
	PredFromEnvTrait    = "from_env_trait"
	PredFromEnvTy       = "from_env_ty"
	PredNormalize       = "normalize"
)

// Clause converts one program clause.
func Clause(c clauses.Clause) (ast.Clause, error) {
	e := &exporter{}
	e.push(c.Vars, func(i int) string { return fmt.Sprintf("X%d", i) })
	head, err := e.goal(c.Value.Goal)
	if err != nil {
		return ast.Clause{}, err
	}
	var premises []ast.Term
	for _, h := range c.Value.Hypotheses {
		atom, err := e.hypothesis(h)
		if err != nil {
			return ast.Clause{}, err
		}
		premises = append(premises, atom)
	}
	return ast.Clause{Head: head, Premises: premises}, nil
}

// Render converts every clause and emits one rule per line.
func Render(cs clauses.Clauses) (string, error) {
	var sb strings.Builder
	for _, c := range cs {
		dc, err := Clause(c)
		if err != nil {
			return "", fmt.Errorf("datalog export of %s: %w", c.String(), err)
		}
		sb.WriteString(dc.String())
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// Check parses src as a Mangle unit.
func Check(src string) error {
	if _, err := parse.Unit(strings.NewReader(src)); err != nil {
		return fmt.Errorf("mangle parse failed: %w", err)
	}
	return nil
}

type exporter struct {
	scopes [][]string
	nested int
}

func (e *exporter) push(vars []typesystem.Var, name func(i int) string) {
	names := make([]string, len(vars))
	for i := range vars {
		names[i] = name(i)
	}
	e.scopes = append(e.scopes, names)
}

func (e *exporter) pushNested(vars []typesystem.Var) {
	e.nested++
	n := e.nested
	e.push(vars, func(i int) string { return fmt.Sprintf("Y%d_%d", n, i) })
}

func (e *exporter) pop() { e.scopes = e.scopes[:len(e.scopes)-1] }

func (e *exporter) bound(depth, index int, leaf string) (ast.BaseTerm, error) {
	level := len(e.scopes) - 1 - depth
	if depth < 0 || level < 0 || index < 0 || index >= len(e.scopes[level]) {
		return nil, typesystem.NewInvariantError("datalog export", "%s escapes its binders", leaf)
	}
	return ast.Variable{Symbol: e.scopes[level][index]}, nil
}

func (e *exporter) hypothesis(g clauses.Goal) (ast.Atom, error) {
	switch goal := g.(type) {
	case clauses.ForAll:
		e.pushNested(goal.Vars)
		defer e.pop()
		return e.hypothesis(goal.Body)
	case clauses.DomainGoal:
		return e.goal(goal)
	}
	return ast.Atom{}, typesystem.NewInvariantError("datalog export", "unsupported goal %s", g.String())
}

func (e *exporter) goal(g clauses.DomainGoal) (ast.Atom, error) {
	switch goal := g.(type) {
	case clauses.Holds:
		return e.whereClause(goal.Clause)
	case clauses.WellFormedTrait:
		return e.traitAtom(PredWellFormedTrait, goal.Trait)
	case clauses.FromEnvTrait:
		return e.traitAtom(PredFromEnvTrait, goal.Trait)
	case clauses.WellFormedTy:
		return e.atom(PredWellFormedTy, goal.Ty)
	case clauses.FromEnvTy:
		return e.atom(PredFromEnvTy, goal.Ty)
	case clauses.Normalize:
		return e.atom(PredNormalize, goal.Projection, goal.Ty)
	}
	return ast.Atom{}, typesystem.NewInvariantError("datalog export", "unsupported domain goal %s", g.String())
}

func (e *exporter) whereClause(wc clauses.WhereClause) (ast.Atom, error) {
	switch c := wc.(type) {
	case clauses.Implemented:
		return e.traitAtom(PredImplemented, c.Trait)
	case clauses.ProjectionEq:
		return e.atom(PredProjectionEq, c.Projection, c.Ty)
	case clauses.RegionOutlives:
		return e.atom(PredRegionOutlives, c.Long, c.Short)
	case clauses.TypeOutlives:
		return e.atom(PredTypeOutlives, c.Ty, c.Region)
	}
	return ast.Atom{}, typesystem.NewInvariantError("datalog export", "unsupported where clause %s", wc.String())
}

func (e *exporter) traitAtom(pred string, ref typesystem.TraitRef) (ast.Atom, error) {
	args, err := e.args(ref.Args)
	if err != nil {
		return ast.Atom{}, err
	}
	return ast.NewAtom(pred, ast.String(ref.Name), list(args...)), nil
}

func (e *exporter) atom(pred string, args ...typesystem.Arg) (ast.Atom, error) {
	terms, err := e.args(args)
	if err != nil {
		return ast.Atom{}, err
	}
	return ast.NewAtom(pred, terms...), nil
}

func (e *exporter) args(args []typesystem.Arg) ([]ast.BaseTerm, error) {
	out := make([]ast.BaseTerm, 0, len(args))
	for _, a := range args {
		t, err := e.arg(a)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (e *exporter) arg(a typesystem.Arg) (ast.BaseTerm, error) {
	switch arg := a.(type) {
	case typesystem.Type:
		return e.ty(arg)
	case typesystem.Region:
		return e.region(arg)
	}
	return nil, typesystem.NewInvariantError("datalog export", "unsupported argument %v", a)
}

func (e *exporter) region(r typesystem.Region) (ast.BaseTerm, error) {
	switch reg := r.(type) {
	case typesystem.RBound:
		return e.bound(reg.Depth, reg.Index, reg.String())
	default:
		return ast.String(r.String()), nil
	}
}

// ty encodes a type as a list whose head names the constructor.
func (e *exporter) ty(t typesystem.Type) (ast.BaseTerm, error) {
	switch typ := t.(type) {
	case typesystem.TBound:
		return e.bound(typ.Depth, typ.Index, typ.String())
	case typesystem.TParam:
		return ast.String(typ.String()), nil
	case typesystem.TCon:
		args, err := e.args(typ.Args)
		if err != nil {
			return nil, err
		}
		return list(append([]ast.BaseTerm{ast.String(typ.Name)}, args...)...), nil
	case typesystem.TTuple:
		elems, err := e.types(typ.Elements)
		if err != nil {
			return nil, err
		}
		return list(append([]ast.BaseTerm{ast.String("()")}, elems...)...), nil
	case typesystem.TRef:
		reg, err := e.region(typ.Region)
		if err != nil {
			return nil, err
		}
		elem, err := e.ty(typ.Elem)
		if err != nil {
			return nil, err
		}
		return list(ast.String("&"), reg, elem), nil
	case typesystem.TFunc:
		params, err := e.types(typ.Params)
		if err != nil {
			return nil, err
		}
		ret := ast.BaseTerm(list(ast.String("()")))
		if typ.ReturnType != nil {
			if ret, err = e.ty(typ.ReturnType); err != nil {
				return nil, err
			}
		}
		return list(ast.String("fn"), list(params...), ret), nil
	case typesystem.TForall:
		e.pushNested(typ.Vars)
		defer e.pop()
		body, err := e.ty(typ.Type)
		if err != nil {
			return nil, err
		}
		return list(ast.String("for"), body), nil
	case typesystem.TProjection:
		return e.projection("::", typ)
	case typesystem.TPlaceholder:
		return e.projection("placeholder", typ.Projection)
	}
	return nil, typesystem.NewInvariantError("datalog export", "unsupported type %s", t.String())
}

func (e *exporter) types(ts []typesystem.Type) ([]ast.BaseTerm, error) {
	out := make([]ast.BaseTerm, 0, len(ts))
	for _, t := range ts {
		term, err := e.ty(t)
		if err != nil {
			return nil, err
		}
		out = append(out, term)
	}
	return out, nil
}

func (e *exporter) projection(tag string, p typesystem.TProjection) (ast.BaseTerm, error) {
	traitArgs, err := e.args(p.Trait.Args)
	if err != nil {
		return nil, err
	}
	itemArgs, err := e.args(p.Args)
	if err != nil {
		return nil, err
	}
	return list(ast.String(tag), ast.String(p.Trait.Name), list(traitArgs...), ast.String(p.Item), list(itemArgs...)), nil
}

func list(args ...ast.BaseTerm) ast.ApplyFn {
	return ast.ApplyFn{Function: ast.FunctionSym{Symbol: "fn:list", Arity: len(args)}, Args: args}
}
