package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/clausegen/internal/lowering"
	"github.com/funvibe/clausegen/internal/symbols"
)

func TestLoadTable(t *testing.T) {
	tbl, err := LoadTable(filepath.Join("testdata", "collections.yaml"))
	require.NoError(t, err)

	var paths []string
	require.NoError(t, tbl.Walk(func(d *symbols.Decl) error {
		paths = append(paths, d.Path)
		return nil
	}))
	assert.Equal(t, []string{
		"Clone", "Sized", "Collection", "Collection::Iter", "Vec",
		"impl#0", "impl#0::Iter", "impl#1", "first",
	}, paths)

	impl, ok := tbl.Lookup("impl#0")
	require.True(t, ok)
	assert.Equal(t, "Vec<X>: Collection<u32>", impl.Trait.String())
	assert.Equal(t, []string{symbols.DumpClauses, symbols.DumpEnv}, impl.Dump)
	assert.True(t, impl.Wants(symbols.DumpEnv))
	assert.Equal(t, filepath.Join("testdata", "collections.yaml"), impl.File)

	value, _ := tbl.Lookup("impl#0::Iter")
	ty, ok := tbl.TypeOf(value.Def)
	require.True(t, ok)
	assert.Equal(t, "&'a Vec<X>", ty.String())

	neg, _ := tbl.Lookup("impl#1")
	assert.Equal(t, symbols.Negative, neg.Polarity)

	first, _ := tbl.Lookup("first")
	sig, ok := tbl.TypeOf(first.Def)
	require.True(t, ok)
	assert.Equal(t, "fn(&'static C) -> u32", sig.String())
	require.Len(t, first.Predicates, 2)
	assert.Equal(t, "forall<'a> { <C as Collection<u32>>::Iter<'a> == &'a u32 }", first.Predicates[1].String())
}

func TestManifestLowersEndToEnd(t *testing.T) {
	tbl, err := LoadTable(filepath.Join("testdata", "collections.yaml"))
	require.NoError(t, err)

	tests := []struct {
		path string
		want []string
	}{
		{"impl#0", []string{
			"forall<X> { Implemented(Vec<X>: Collection<u32>) :- Implemented(X: Clone), TypeOutlives(X: 'static) }",
		}},
		{"impl#0::Iter", []string{
			"forall<X, 'a> { Normalize(<Vec<X> as Collection<u32>>::Iter<'a> -> &'a Vec<X>) :- Implemented(Vec<X>: Collection<u32>) }",
		}},
		{"impl#1", nil},
		{"Vec", []string{
			"forall<T> { WellFormed(Vec<T>) :- Implemented(T: Sized) }",
			"forall<T> { FromEnv(T: Sized) :- FromEnv(Vec<T>) }",
		}},
		{"Collection", []string{
			"forall<Self, T> { Implemented(Self: Collection<T>) :- FromEnv(Self: Collection<T>) }",
			"forall<Self, T> { FromEnv(Self: Clone) :- FromEnv(Self: Collection<T>) }",
			"forall<Self, T> { WellFormed(Self: Collection<T>) :- Implemented(Self: Collection<T>), WellFormed(Self: Clone) }",
		}},
		{"first", nil},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			d, ok := tbl.Lookup(tt.path)
			require.True(t, ok)
			cs, err := lowering.ProgramClausesFor(tbl, d.Def)
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, cs)
				return
			}
			assert.Equal(t, tt.want, cs.Strings())
		})
	}
}

func TestParseManifestErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		msg  string
	}{
		{"unknown key", "items:\n  - tratt: Foo\n", "field tratt not found"},
		{"two kinds", "items:\n  - trait: Foo\n    struct: Bar\n", "exactly one of"},
		{"top level type", "items:\n  - type: Item\n", "must be nested"},
		{"struct with items", "items:\n  - struct: S\n    items:\n      - type: X\n", "only traits and impls"},
		{"negative trait", "items:\n  - trait: T\n    negative: true\n", "only impls can be negative"},
		{"value in trait", "items:\n  - trait: T\n    items:\n      - type: X\n        value: u32\n", "value is only allowed"},
		{"missing value", "items:\n  - impl: T for u32\n    items:\n      - type: X\n", "needs a value"},
		{"bad dump", "items:\n  - trait: T\n    dump: [everything]\n", "unknown dump request"},
		{"sig on trait", "items:\n  - trait: T\n    sig: fn()\n", "sig is only allowed on fns"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), "bad.yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		item string
		msg  string
	}{
		{"unknown trait in where", "items:\n  - struct: S\n    params: [T]\n    where: [\"T: Missing\"]\n", "struct S", "unknown trait Missing"},
		{"duplicate", "items:\n  - trait: T\n  - trait: T\n", "trait T", "duplicate declaration T"},
		{"impl of unknown assoc", "items:\n  - trait: T\n  - impl: T for u32\n    items:\n      - type: X\n        value: u32\n", "type X", "trait T has no associated type X"},
		{"Self in impl header", "items:\n  - trait: T\n  - impl: T for Self\n", "impl T for Self", "unknown type Self"},
		{"sig not fn", "items:\n  - fn: f\n    sig: u32\n", "fn f", "sig must be a fn type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse([]byte(tt.yaml), "bad.yaml")
			require.NoError(t, err)
			_, err = m.Build()
			require.Error(t, err)
			var pe *ParseError
			require.True(t, errors.As(err, &pe), err.Error())
			assert.Equal(t, "bad.yaml", pe.File)
			assert.Equal(t, tt.item, pe.Item)
			assert.Contains(t, pe.Msg, tt.msg)
		})
	}
}

func TestEmptyManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	tbl, err := LoadTable(path)
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read manifest")
}
