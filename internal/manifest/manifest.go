// Package manifest loads declaration manifests: YAML files describing traits,
// structs, impls and fns, with their where clauses written as expressions.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/clausegen/internal/symbols"
	"github.com/funvibe/clausegen/internal/typesystem"
)

// Manifest is the top-level document.
type Manifest struct {
	Items []Item `yaml:"items"`

	file string
}

// Item is one declaration. Exactly one of Trait, Struct, Impl, Fn (top level)
// or Type (inside a trait or impl) names it.
type Item struct {
	Trait  string `yaml:"trait,omitempty"`
	Struct string `yaml:"struct,omitempty"`
	Impl   string `yaml:"impl,omitempty"` // "Trait<A> for Type"
	Fn     string `yaml:"fn,omitempty"`
	Type   string `yaml:"type,omitempty"`

	Params   []string `yaml:"params,omitempty"`
	Where    []string `yaml:"where,omitempty"`
	Value    string   `yaml:"value,omitempty"` // associated type value inside an impl
	Sig      string   `yaml:"sig,omitempty"`   // fn signature, e.g. fn(T) -> u32
	Negative bool     `yaml:"negative,omitempty"`
	Dump     []string `yaml:"dump,omitempty"`
	Items    []Item   `yaml:"items,omitempty"`
}

// Label names the item in diagnostics.
func (it Item) Label() string {
	switch {
	case it.Trait != "":
		return "trait " + it.Trait
	case it.Struct != "":
		return "struct " + it.Struct
	case it.Impl != "":
		return "impl " + it.Impl
	case it.Fn != "":
		return "fn " + it.Fn
	case it.Type != "":
		return "type " + it.Type
	}
	return "item"
}

func (it Item) kinds() int {
	n := 0
	for _, s := range []string{it.Trait, it.Struct, it.Impl, it.Fn, it.Type} {
		if s != "" {
			n++
		}
	}
	return n
}

// Load reads and decodes a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes a manifest. Unknown keys are rejected.
func Parse(data []byte, file string) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var m Manifest
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse %s: %w", file, err)
	}
	m.file = file
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	for _, it := range m.Items {
		if err := m.validateItem(it, ""); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manifest) validateItem(it Item, container string) error {
	fail := func(format string, args ...any) error {
		return &ParseError{File: m.file, Item: it.Label(), Msg: fmt.Sprintf(format, args...)}
	}
	if it.kinds() != 1 {
		return fail("item must have exactly one of trait, struct, impl, fn, type")
	}
	switch {
	case container == "" && it.Type != "":
		return fail("associated types must be nested in a trait or impl")
	case container != "" && it.Type == "":
		return fail("only associated types can be nested in %s", container)
	case len(it.Items) > 0 && it.Trait == "" && it.Impl == "":
		return fail("only traits and impls have nested items")
	case it.Negative && it.Impl == "":
		return fail("only impls can be negative")
	case it.Value != "" && container != "impl":
		return fail("value is only allowed on associated types inside impls")
	case it.Value == "" && container == "impl":
		return fail("associated type in impl needs a value")
	case it.Sig != "" && it.Fn == "":
		return fail("sig is only allowed on fns")
	}
	for _, d := range it.Dump {
		if d != symbols.DumpClauses && d != symbols.DumpEnv {
			return fail("unknown dump request %q (expected %s or %s)", d, symbols.DumpClauses, symbols.DumpEnv)
		}
	}
	kind := "trait"
	if it.Impl != "" {
		kind = "impl"
	}
	for _, nested := range it.Items {
		if err := m.validateItem(nested, kind); err != nil {
			return err
		}
	}
	return nil
}

type pending struct {
	item Item
	decl *symbols.Decl
	self typesystem.Type
}

// Build declares every item in a fresh table. Names are declared first so
// expressions may refer to items defined later in the file.
func (m *Manifest) Build() (*symbols.Table, error) {
	tbl := symbols.NewTable()
	var work []*pending

	declare := func(it Item, d *symbols.Decl, err error) (*pending, error) {
		if err != nil {
			return nil, &ParseError{File: m.file, Item: it.Label(), Msg: err.Error()}
		}
		d.Dump = it.Dump
		d.File = m.file
		p := &pending{item: it, decl: d}
		work = append(work, p)
		return p, nil
	}

	for _, it := range m.Items {
		switch {
		case it.Trait != "":
			d, err := tbl.DefineTrait(it.Trait, it.Params...)
			if _, err := declare(it, d, err); err != nil {
				return nil, err
			}
			for _, nested := range it.Items {
				nd, err := tbl.DefineAssocType(d.Def, nested.Type, nested.Params...)
				if _, err := declare(nested, nd, err); err != nil {
					return nil, err
				}
			}
		case it.Struct != "":
			d, err := tbl.DefineAdt(it.Struct, it.Params...)
			if _, err := declare(it, d, err); err != nil {
				return nil, err
			}
		case it.Fn != "":
			d, err := tbl.DefineFn(it.Fn, it.Params...)
			if _, err := declare(it, d, err); err != nil {
				return nil, err
			}
		case it.Impl != "":
			polarity := symbols.Positive
			if it.Negative {
				polarity = symbols.Negative
			}
			d, err := tbl.DefineImpl(polarity, it.Params...)
			if _, err := declare(it, d, err); err != nil {
				return nil, err
			}
			for _, nested := range it.Items {
				nd, err := tbl.DefineAssocValue(d.Def, nested.Type, nested.Params...)
				if _, err := declare(nested, nd, err); err != nil {
					return nil, err
				}
			}
		}
	}

	// Impl headers first: Self inside an impl is its receiver type.
	selfOf := make(map[typesystem.DefID]typesystem.Type)
	for _, p := range work {
		if p.decl.Kind != symbols.DefImpl {
			continue
		}
		ref, err := ParseImplHeader(p.item.Impl, Scope{Table: tbl, Owner: p.decl})
		if err != nil {
			return nil, m.locate(err, p.item)
		}
		if err := tbl.SetImplTrait(p.decl.Def, ref); err != nil {
			return nil, m.locate(err, p.item)
		}
		selfOf[p.decl.Def] = ref.SelfType()
	}
	for _, p := range work {
		if p.decl.Kind == symbols.DefImpl {
			p.self = selfOf[p.decl.Def]
		} else if p.decl.Kind == symbols.DefAssocTypeInImpl {
			p.self = selfOf[p.decl.Parent]
		}
	}

	for _, p := range work {
		scope := Scope{Table: tbl, Owner: p.decl, Self: p.self}
		for _, w := range p.item.Where {
			preds, err := ParsePredicates(w, scope)
			if err != nil {
				return nil, m.locate(err, p.item)
			}
			for _, pred := range preds {
				if err := tbl.AddPredicate(p.decl.Def, pred); err != nil {
					return nil, m.locate(err, p.item)
				}
			}
		}
		if err := m.resolveType(tbl, p, scope); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

func (m *Manifest) resolveType(tbl *symbols.Table, p *pending, scope Scope) error {
	switch p.decl.Kind {
	case symbols.DefAssocTypeInImpl:
		impl, _ := tbl.Get(p.decl.Parent)
		if _, ok := tbl.FindAssociated(impl.Trait.Def, p.decl.Name); !ok {
			return &ParseError{File: m.file, Item: p.item.Label(), Msg: fmt.Sprintf("trait %s has no associated type %s", impl.Trait.Name, p.decl.Name)}
		}
		ty, err := ParseType(p.item.Value, scope)
		if err != nil {
			return m.locate(err, p.item)
		}
		return tbl.SetType(p.decl.Def, ty)
	case symbols.DefFn:
		if p.item.Sig == "" {
			return nil
		}
		ty, err := ParseType(p.item.Sig, scope)
		if err != nil {
			return m.locate(err, p.item)
		}
		if _, ok := ty.(typesystem.TFunc); !ok {
			return &ParseError{File: m.file, Item: p.item.Label(), Expr: p.item.Sig, Msg: "sig must be a fn type"}
		}
		return tbl.SetType(p.decl.Def, ty)
	}
	return nil
}

// locate fills in where an error happened.
func (m *Manifest) locate(err error, it Item) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		pe.File = m.file
		pe.Item = it.Label()
		return pe
	}
	return &ParseError{File: m.file, Item: it.Label(), Msg: err.Error()}
}

// LoadTable loads a manifest file and builds its declaration table.
func LoadTable(path string) (*symbols.Table, error) {
	m, err := Load(path)
	if err != nil {
		return nil, err
	}
	return m.Build()
}
