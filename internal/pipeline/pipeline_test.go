package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/clausegen/internal/cache"
	"github.com/funvibe/clausegen/internal/config"
	"github.com/funvibe/clausegen/internal/manifest"
	"github.com/funvibe/clausegen/internal/symbols"
)

const collections = "../manifest/testdata/collections.yaml"

func TestRunDumpRequests(t *testing.T) {
	ctx := Default().Run(NewContext(context.Background(), collections))
	require.NoError(t, ctx.Err())

	var keys []string
	for _, s := range ctx.Sections {
		keys = append(keys, s.Key())
	}
	assert.Equal(t, []string{
		"Collection/clauses", "Collection::Iter/clauses", "Vec/clauses",
		"impl#0/clauses", "impl#0/env", "impl#0::Iter/clauses", "impl#1/clauses", "first/env",
	}, keys)
	out := string(ctx.Output)
	assert.Contains(t, out, "== clauses of impl#0 (impl) ==\nforall<X> { Implemented(Vec<X>: Collection<u32>) :- Implemented(X: Clone), TypeOutlives(X: 'static) }\n")
	assert.Contains(t, out, "== clauses of impl#1 (impl) ==\n(no clauses)\n")
}

func TestRunTargets(t *testing.T) {
	ctx := NewContext(context.Background(), collections)
	ctx.Selection = SelectTargets
	ctx.Targets = []Target{{Path: "Vec", Request: symbols.DumpClauses}}
	ctx = Default().Run(ctx)
	require.NoError(t, ctx.Err())
	assert.Equal(t, strings.Join([]string{
		"== clauses of Vec (struct) ==",
		"forall<T> { FromEnv(T: Sized) :- FromEnv(Vec<T>) }",
		"forall<T> { WellFormed(Vec<T>) :- Implemented(T: Sized) }",
		"",
	}, "\n"), string(ctx.Output))
}

func TestRunUnknownTarget(t *testing.T) {
	ctx := NewContext(context.Background(), collections)
	ctx.Selection = SelectTargets
	ctx.Targets = []Target{{Path: "Missing", Request: symbols.DumpClauses}}
	ctx = Default().Run(ctx)
	assert.ErrorContains(t, ctx.Err(), `no declaration "Missing"`)
}

func TestRunDatalog(t *testing.T) {
	ctx := NewContext(context.Background(), collections)
	ctx.Selection = SelectAll
	ctx.Format = config.FormatDatalog
	ctx = Default().Run(ctx)
	require.NoError(t, ctx.Err())
	out := string(ctx.Output)
	assert.Contains(t, out, "# clauses of Collection\n")
	assert.Contains(t, out, "normalize(")
	assert.NotContains(t, out, "# clauses of impl#1\n")
}

func TestRunCollectsLoadErrors(t *testing.T) {
	ctx := NewContext(context.Background(), "inline.yaml")
	ctx.Source = []byte("items:\n  - struct: S\n    where: [\"T: Clone\"]\n")
	ctx = Default().Run(ctx)
	require.Error(t, ctx.Err())
	var pe *manifest.ParseError
	assert.ErrorAs(t, ctx.Err(), &pe)
	assert.Nil(t, ctx.Table)
	assert.Empty(t, ctx.Output)
}

func TestRunUsesDumpStore(t *testing.T) {
	store, err := cache.OpenDumpStore(context.Background(), filepath.Join(t.TempDir(), "dumps.db"))
	require.NoError(t, err)
	defer store.Close()

	run := func() *PipelineContext {
		ctx := NewContext(context.Background(), collections)
		ctx.Store = store
		return Default().Run(ctx)
	}
	first := run()
	require.NoError(t, first.Err())
	require.NotEmpty(t, first.Sections)
	assert.NotNil(t, first.Sections[0].Clauses)

	second := run()
	require.NoError(t, second.Err())
	assert.Equal(t, first.Output, second.Output)
	assert.Nil(t, second.Sections[0].Clauses, "second run reads sections back from the store")
	assert.Zero(t, second.Memo.Len())
}

func TestRunTargetsUseDumpStore(t *testing.T) {
	store, err := cache.OpenDumpStore(context.Background(), filepath.Join(t.TempDir(), "dumps.db"))
	require.NoError(t, err)
	defer store.Close()

	run := func() *PipelineContext {
		ctx := NewContext(context.Background(), collections)
		ctx.Selection = SelectTargets
		ctx.Targets = []Target{{Path: "Vec", Request: symbols.DumpClauses}}
		ctx.Store = store
		return Default().Run(ctx)
	}
	first := run()
	require.NoError(t, first.Err())
	lines, ok, err := store.Get(context.Background(), first.Sections[0].Key(), first.Fingerprint)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.Sections[0].Lines, lines)

	second := run()
	require.NoError(t, second.Err())
	assert.Equal(t, first.Output, second.Output)
	assert.Zero(t, second.Memo.Len())
}

func TestProcessorFunc(t *testing.T) {
	var seen []string
	stage := func(name string) Processor {
		return ProcessorFunc(func(ctx *PipelineContext) *PipelineContext {
			seen = append(seen, name)
			return ctx
		})
	}
	New(stage("a"), stage("b")).Run(NewContext(context.Background(), ""))
	assert.Equal(t, []string{"a", "b"}, seen)
}
