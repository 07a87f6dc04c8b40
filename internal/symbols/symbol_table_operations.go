package symbols

import (
	"fmt"

	"github.com/funvibe/clausegen/internal/typesystem"
)

// Table owns every declaration of one program. It is built once and then
// only read; lowering never observes it change.
type Table struct {
	decls  map[typesystem.DefID]*Decl
	byPath map[string]typesystem.DefID
	roots  []typesystem.DefID
}

func NewTable() *Table {
	return &Table{
		decls:  make(map[typesystem.DefID]*Decl),
		byPath: make(map[string]typesystem.DefID),
	}
}

// define registers d under its path. Nested declarations are attached to
// their parent in declaration order.
func (t *Table) define(d *Decl) (*Decl, error) {
	if d.Path == "" {
		return nil, fmt.Errorf("declaration %q has no path", d.Name)
	}
	if _, exists := t.byPath[d.Path]; exists {
		return nil, fmt.Errorf("duplicate declaration %s", d.Path)
	}
	d.Def = typesystem.NewDefID(d.Path)
	if d.Parent.IsValid() {
		parent, ok := t.decls[d.Parent]
		if !ok {
			return nil, fmt.Errorf("declaration %s: unknown parent %s", d.Path, d.Parent)
		}
		parent.Children = append(parent.Children, d.Def)
	} else {
		t.roots = append(t.roots, d.Def)
	}
	t.decls[d.Def] = d
	t.byPath[d.Path] = d.Def
	return d, nil
}

// Get returns the declaration with the given identity.
func (t *Table) Get(id typesystem.DefID) (*Decl, bool) {
	d, ok := t.decls[id]
	return d, ok
}

// Lookup finds a declaration by path.
func (t *Table) Lookup(path string) (*Decl, bool) {
	id, ok := t.byPath[path]
	if !ok {
		return nil, false
	}
	return t.decls[id], true
}

// Roots returns the top-level declarations in definition order.
func (t *Table) Roots() []typesystem.DefID {
	return t.roots
}

func (t *Table) Len() int { return len(t.decls) }

// Walk visits the declaration tree depth-first, parents before children, in
// definition order. It stops at the first error.
func (t *Table) Walk(fn func(d *Decl) error) error {
	var visit func(ids []typesystem.DefID) error
	visit = func(ids []typesystem.DefID) error {
		for _, id := range ids {
			d := t.decls[id]
			if err := fn(d); err != nil {
				return err
			}
			if err := visit(d.Children); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(t.roots)
}

// AddPredicate appends a declared where clause to a declaration.
func (t *Table) AddPredicate(id typesystem.DefID, p typesystem.PolyPredicate) error {
	d, ok := t.decls[id]
	if !ok {
		return fmt.Errorf("unknown declaration %s", id)
	}
	d.Predicates = append(d.Predicates, p)
	return nil
}

// newParams numbers own parameters after the parent's.
func newParams(offset int, names []string) []GenericParam {
	params := make([]GenericParam, len(names))
	for i, n := range names {
		kind := typesystem.Star
		if len(n) > 0 && n[0] == '\'' {
			kind = typesystem.Lifetime
		}
		params[i] = GenericParam{Name: n, Index: offset + i, Kind: kind}
	}
	return params
}

func paramArgs(params []GenericParam) []typesystem.Arg {
	args := make([]typesystem.Arg, len(params))
	for i, p := range params {
		args[i] = p.Arg()
	}
	return args
}
