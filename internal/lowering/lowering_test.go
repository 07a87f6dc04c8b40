package lowering

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/clausegen/internal/clauses"
	"github.com/funvibe/clausegen/internal/symbols"
	"github.com/funvibe/clausegen/internal/typesystem"
)

func pred(p typesystem.Predicate) typesystem.PolyPredicate {
	return typesystem.Bind(nil, p)
}

func traitPred(d *symbols.Decl, args ...typesystem.Arg) typesystem.Predicate {
	return typesystem.TraitPredicate{Trait: typesystem.TraitRef{Def: d.Def, Name: d.Name, Args: args}}
}

func selfParam() typesystem.Arg { return typesystem.TParam{Index: 0, Name: "Self"} }

func lower(t *testing.T, tbl *symbols.Table, path string) clauses.Clauses {
	t.Helper()
	d, ok := tbl.Lookup(path)
	require.True(t, ok, path)
	cs, err := ProgramClausesFor(tbl, d.Def)
	require.NoError(t, err)
	return cs
}

func TestTraitWithoutWhereClauses(t *testing.T) {
	tbl := symbols.NewTable()
	_, err := tbl.DefineTrait("I")
	require.NoError(t, err)

	cs := lower(t, tbl, "I")
	assert.Equal(t, []string{
		"forall<Self> { Implemented(Self: I) :- FromEnv(Self: I) }",
		"forall<Self> { WellFormed(Self: I) :- Implemented(Self: I) }",
	}, cs.Strings())
	assert.Equal(t, clauses.CategoryImpliedBound, cs[0].Value.Category)
	assert.Equal(t, clauses.CategoryWellFormed, cs[1].Value.Category)
	assert.Len(t, cs[1].Value.Hypotheses, 1)
}

func TestTraitWithSuperTrait(t *testing.T) {
	tbl := symbols.NewTable()
	i, err := tbl.DefineTrait("I")
	require.NoError(t, err)
	i2, err := tbl.DefineTrait("I2", "P")
	require.NoError(t, err)
	require.NoError(t, tbl.AddPredicate(i2.Def, pred(traitPred(i, selfParam()))))

	cs := lower(t, tbl, "I2")
	require.Len(t, cs, 3)
	assert.Equal(t, []string{
		"forall<Self, P> { Implemented(Self: I2<P>) :- FromEnv(Self: I2<P>) }",
		"forall<Self, P> { FromEnv(Self: I) :- FromEnv(Self: I2<P>) }",
		"forall<Self, P> { WellFormed(Self: I2<P>) :- Implemented(Self: I2<P>), WellFormed(Self: I) }",
	}, cs.Strings())

	i2Ref := typesystem.TraitRef{Def: i2.Def, Name: "I2", Args: []typesystem.Arg{
		typesystem.TBound{Index: 0, Name: "Self"},
		typesystem.TBound{Index: 1, Name: "P"},
	}}
	require.Len(t, cs[1].Value.Hypotheses, 1)
	if diff := cmp.Diff(clauses.Goal(clauses.FromEnvTrait{Trait: i2Ref}), cs[1].Value.Hypotheses[0]); diff != "" {
		t.Errorf("implied bound hypothesis mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, clauses.CategoryImpliedBound, cs[1].Value.Category)
}

func TestTraitClauseCount(t *testing.T) {
	for n := 0; n < 5; n++ {
		tbl := symbols.NewTable()
		base, err := tbl.DefineTrait("Base", "'r")
		require.NoError(t, err)
		tr, err := tbl.DefineTrait("Tr", "A", "'b")
		require.NoError(t, err)
		for i := 0; i < n; i++ {
			require.NoError(t, tbl.AddPredicate(tr.Def, pred(traitPred(base, typesystem.TParam{Index: 1, Name: "A"}, typesystem.RParam{Index: 2, Name: "'b"}))))
		}
		cs := lower(t, tbl, "Tr")
		require.Len(t, cs, 2+n)
		assert.Contains(t, cs[0].String(), "Implemented(Self: Tr<A, 'b>) :- FromEnv")
		for i := 1; i <= n; i++ {
			assert.Equal(t, "forall<Self, A, 'b> { FromEnv(A: Base<'b>) :- FromEnv(Self: Tr<A, 'b>) }", cs[i].String())
		}
		assert.Len(t, cs[n+1].Value.Hypotheses, 1+n)
		assert.IsType(t, clauses.WellFormedTrait{}, cs[n+1].Value.Goal)
	}
}

func TestHigherRankedWhereClause(t *testing.T) {
	tbl := symbols.NewTable()
	tr, err := tbl.DefineTrait("Tr", "'x")
	require.NoError(t, err)
	callable, err := tbl.DefineTrait("Callable", "F")
	require.NoError(t, err)
	// for<'x> F: Tr<'x>
	require.NoError(t, tbl.AddPredicate(callable.Def, typesystem.Bind(
		[]typesystem.Var{{Name: "'x", Kind: typesystem.Lifetime}},
		traitPred(tr, typesystem.TParam{Index: 1, Name: "F"}, typesystem.RBound{Index: 0, Name: "'x"}),
	)))

	cs := lower(t, tbl, "Callable")
	assert.Equal(t, []string{
		"forall<Self, F> { Implemented(Self: Callable<F>) :- FromEnv(Self: Callable<F>) }",
		"forall<Self, F, 'x> { FromEnv(F: Tr<'x>) :- FromEnv(Self: Callable<F>) }",
		"forall<Self, F> { WellFormed(Self: Callable<F>) :- Implemented(Self: Callable<F>), forall<'x> { WellFormed(F: Tr<'x>) } }",
	}, cs.Strings())

	implied := cs[1].Value.Goal.(clauses.FromEnvTrait)
	assert.Equal(t, []typesystem.Arg{
		typesystem.TBound{Depth: 0, Index: 1, Name: "F"},
		typesystem.RBound{Depth: 0, Index: 2, Name: "'x"},
	}, implied.Trait.Args)

	wf := cs[2].Value.Hypotheses[1].(clauses.ForAll)
	inner := wf.Body.(clauses.WellFormedTrait)
	assert.Equal(t, typesystem.TBound{Depth: 1, Index: 1, Name: "F"}, inner.Trait.Args[0])
}

func buildImpl(t *testing.T, polarity symbols.Polarity) (*symbols.Table, *symbols.Decl) {
	t.Helper()
	tbl := symbols.NewTable()
	i, err := tbl.DefineTrait("I")
	require.NoError(t, err)
	clone, err := tbl.DefineTrait("Clone")
	require.NoError(t, err)
	vec, err := tbl.DefineAdt("Vec", "T")
	require.NoError(t, err)

	impl, err := tbl.DefineImpl(polarity, "T")
	require.NoError(t, err)
	tyT := typesystem.TParam{Index: 0, Name: "T"}
	require.NoError(t, tbl.SetImplTrait(impl.Def, typesystem.TraitRef{Def: i.Def, Name: "I", Args: []typesystem.Arg{
		typesystem.TCon{Name: "Vec", Def: vec.Def, Args: []typesystem.Arg{tyT}},
	}}))
	require.NoError(t, tbl.AddPredicate(impl.Def, pred(traitPred(clone, tyT))))
	require.NoError(t, tbl.AddPredicate(impl.Def, pred(typesystem.TypeOutlivesPredicate{Ty: tyT, Region: typesystem.RStatic{}})))
	return tbl, impl
}

func TestImplClause(t *testing.T) {
	tbl, impl := buildImpl(t, symbols.Positive)
	cs, err := ProgramClausesFor(tbl, impl.Def)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, "forall<T> { Implemented(Vec<T>: I) :- Implemented(T: Clone), TypeOutlives(T: 'static) }", cs[0].String())

	hyps := cs[0].Value.Hypotheses
	require.Len(t, hyps, 2)
	assert.IsType(t, clauses.Holds{}, hyps[0])
	assert.Equal(t, "Implemented(T: Clone)", hyps[0].String())
	assert.Equal(t, "TypeOutlives(T: 'static)", hyps[1].String())
	assert.Equal(t, clauses.CategoryOther, cs[0].Value.Category)
}

func TestImplPolarityToggle(t *testing.T) {
	tbl, impl := buildImpl(t, symbols.Positive)
	cs, err := ProgramClausesFor(tbl, impl.Def)
	require.NoError(t, err)
	assert.Len(t, cs, 1)

	impl.Polarity = symbols.Negative
	cs, err = ProgramClausesFor(tbl, impl.Def)
	require.NoError(t, err)
	assert.Empty(t, cs)

	impl.Polarity = symbols.Positive
	cs, err = ProgramClausesFor(tbl, impl.Def)
	require.NoError(t, err)
	assert.Len(t, cs, 1)
}

func TestTypeDef(t *testing.T) {
	tbl := symbols.NewTable()
	clone, err := tbl.DefineTrait("Clone")
	require.NoError(t, err)
	pair, err := tbl.DefineAdt("Pair", "'a", "T")
	require.NoError(t, err)
	tyT := typesystem.TParam{Index: 1, Name: "T"}
	require.NoError(t, tbl.AddPredicate(pair.Def, pred(traitPred(clone, tyT))))
	require.NoError(t, tbl.AddPredicate(pair.Def, pred(typesystem.TypeOutlivesPredicate{Ty: tyT, Region: typesystem.RParam{Index: 0, Name: "'a"}})))

	cs := lower(t, tbl, "Pair")
	assert.Equal(t, []string{
		"forall<'a, T> { WellFormed(Pair<'a, T>) :- Implemented(T: Clone), TypeOutlives(T: 'a) }",
		"forall<'a, T> { FromEnv(T: Clone) :- FromEnv(Pair<'a, T>) }",
		"forall<'a, T> { TypeOutlives(T: 'a) :- FromEnv(Pair<'a, T>) }",
	}, cs.Strings())
	assert.Equal(t, clauses.CategoryWellFormed, cs[0].Value.Category)

	unit, err := tbl.DefineAdt("Unit")
	require.NoError(t, err)
	cs, err = ProgramClausesFor(tbl, unit.Def)
	require.NoError(t, err)
	assert.Equal(t, []string{"WellFormed(Unit)"}, cs.Strings())
}

func buildCollection(t *testing.T) *symbols.Table {
	t.Helper()
	tbl := symbols.NewTable()
	coll, err := tbl.DefineTrait("Collection", "T")
	require.NoError(t, err)
	_, err = tbl.DefineAssocType(coll.Def, "Iter", "'a")
	require.NoError(t, err)
	vec, err := tbl.DefineAdt("Vec", "X")
	require.NoError(t, err)

	impl, err := tbl.DefineImpl(symbols.Positive, "X")
	require.NoError(t, err)
	tyX := typesystem.TParam{Index: 0, Name: "X"}
	require.NoError(t, tbl.SetImplTrait(impl.Def, typesystem.TraitRef{Def: coll.Def, Name: "Collection", Args: []typesystem.Arg{
		typesystem.TCon{Name: "Vec", Def: vec.Def, Args: []typesystem.Arg{tyX}},
		typesystem.TCon{Name: "u32"},
	}}))
	value, err := tbl.DefineAssocValue(impl.Def, "Iter", "'a")
	require.NoError(t, err)
	require.NoError(t, tbl.SetType(value.Def, typesystem.TRef{Region: typesystem.RParam{Index: 1, Name: "'a"}, Elem: tyX}))
	return tbl
}

func TestAssocTypeDef(t *testing.T) {
	tbl := buildCollection(t)
	cs := lower(t, tbl, "Collection::Iter")
	assert.Equal(t, []string{
		"forall<Self, T, 'a> { ProjectionEq(<Self as Collection<T>>::Iter<'a> == (Collection::Iter)<Self, T, 'a>) }",
		"forall<Self, T, 'a> { WellFormed((Collection::Iter)<Self, T, 'a>) :- Implemented(Self: Collection<T>) }",
		"forall<Self, T, 'a> { FromEnv(Self: Collection<T>) :- FromEnv((Collection::Iter)<Self, T, 'a>) }",
		"forall<Self, T, 'a, U> { ProjectionEq(<Self as Collection<T>>::Iter<'a> == U) :- Normalize(<Self as Collection<T>>::Iter<'a> -> U) }",
	}, cs.Strings())

	assert.Equal(t, []clauses.Category{
		clauses.CategoryOther, clauses.CategoryWellFormed, clauses.CategoryImpliedBound, clauses.CategoryOther,
	}, []clauses.Category{cs[0].Value.Category, cs[1].Value.Category, cs[2].Value.Category, cs[3].Value.Category})

	trait, _ := tbl.Lookup("Collection")
	u := cs[3].Value.Goal.(clauses.Holds).Clause.(clauses.ProjectionEq).Ty.(typesystem.TBound)
	for _, p := range tbl.AllParams(trait.Def) {
		assert.Greater(t, u.Index, p.Index)
	}
	assert.Equal(t, 0, u.Depth)
	assert.Equal(t, 3, u.Index)
	assert.Len(t, cs[3].Vars, 4)
}

func TestAssocTypeDefFreshNameAvoidsParams(t *testing.T) {
	tbl := symbols.NewTable()
	tr, err := tbl.DefineTrait("Tr", "U")
	require.NoError(t, err)
	_, err = tbl.DefineAssocType(tr.Def, "Out")
	require.NoError(t, err)

	cs := lower(t, tbl, "Tr::Out")
	assert.Equal(t, "forall<Self, U, U1> { ProjectionEq(<Self as Tr<U>>::Out == U1) :- Normalize(<Self as Tr<U>>::Out -> U1) }", cs[3].String())
}

func TestAssocTypeValue(t *testing.T) {
	tbl := buildCollection(t)
	cs := lower(t, tbl, "impl#0::Iter")
	require.Len(t, cs, 1)
	assert.Equal(t, "forall<X, 'a> { Normalize(<Vec<X> as Collection<u32>>::Iter<'a> -> &'a X) :- Implemented(Vec<X>: Collection<u32>) }", cs[0].String())

	norm, ok := cs[0].Value.Goal.(clauses.Normalize)
	require.True(t, ok)
	def, _ := tbl.Lookup("Collection::Iter")
	assert.Equal(t, def.Def, norm.Projection.ItemDef)

	require.Len(t, cs[0].Value.Hypotheses, 1)
	impl, _ := tbl.Lookup("impl#0")
	ref, _ := tbl.ImplTraitRef(impl.Def)
	want := clauses.Holds{Clause: clauses.Implemented{Trait: typesystem.ParamSubst([]typesystem.Arg{typesystem.TBound{Index: 0, Name: "X"}}).TraitRef(ref)}}
	assert.Equal(t, clauses.Goal(want), cs[0].Value.Hypotheses[0])
}

// Where clauses on the trait's associated type definition do not reach the
// Normalize rule of an impl's value. This pins the current, incomplete rule.
func TestAssocTypeValueIgnoresDefinitionWhereClauses(t *testing.T) {
	tbl := buildCollection(t)
	sized, err := tbl.DefineTrait("Sized")
	require.NoError(t, err)
	def, _ := tbl.Lookup("Collection::Iter")
	require.NoError(t, tbl.AddPredicate(def.Def, pred(traitPred(sized, selfParam()))))

	cs := lower(t, tbl, "impl#0::Iter")
	require.Len(t, cs, 1)
	assert.Len(t, cs[0].Value.Hypotheses, 1)
	assert.NotContains(t, cs[0].String(), "Sized")
}

func TestDispatcher(t *testing.T) {
	tbl := buildCollection(t)
	f, err := tbl.DefineFn("main")
	require.NoError(t, err)

	cs, err := ProgramClausesFor(tbl, f.Def)
	require.NoError(t, err)
	assert.Empty(t, cs)

	_, err = ProgramClausesFor(tbl, typesystem.NewDefID("missing"))
	assert.True(t, errors.Is(err, typesystem.ErrInvariant))

	first := lower(t, tbl, "Collection::Iter")
	second := lower(t, tbl, "Collection::Iter")
	if diff := cmp.Diff(first.Strings(), second.Strings()); diff != "" {
		t.Errorf("lowering is not deterministic (-first +second):\n%s", diff)
	}
}

func TestGeneratorsRejectWrongKinds(t *testing.T) {
	tbl := buildCollection(t)
	trait, _ := tbl.Lookup("Collection")
	impl, _ := tbl.Lookup("impl#0")
	def, _ := tbl.Lookup("Collection::Iter")
	value, _ := tbl.Lookup("impl#0::Iter")

	tests := []struct {
		name string
		gen  generator
		id   typesystem.DefID
	}{
		{"trait on impl", programClausesForTrait, impl.Def},
		{"impl on trait", programClausesForImpl, trait.Def},
		{"type def on trait", programClausesForTypeDef, trait.Def},
		{"assoc def on value", programClausesForAssocTypeDef, value.Def},
		{"assoc value on def", programClausesForAssocTypeValue, def.Def},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.gen(tbl, tt.id)
			require.Error(t, err)
			assert.True(t, errors.Is(err, typesystem.ErrInvariant), err.Error())
		})
	}
}

// wrongContainer reports every associated item as living in the wrong kind of container.
type wrongContainer struct {
	*symbols.Table
}

func (w wrongContainer) AssociatedItem(id typesystem.DefID) (symbols.AssociatedItem, bool) {
	item, ok := w.Table.AssociatedItem(id)
	if item.ContainerKind == symbols.DefTrait {
		item.ContainerKind = symbols.DefImpl
	} else {
		item.ContainerKind = symbols.DefTrait
	}
	return item, ok
}

func TestAssocContainerMismatch(t *testing.T) {
	tbl := buildCollection(t)
	def, _ := tbl.Lookup("Collection::Iter")
	value, _ := tbl.Lookup("impl#0::Iter")
	m := wrongContainer{tbl}

	_, err := ProgramClausesFor(m, def.Def)
	require.ErrorIs(t, err, typesystem.ErrInvariant)
	assert.ErrorContains(t, err, "not a trait")

	_, err = ProgramClausesFor(m, value.Def)
	require.ErrorIs(t, err, typesystem.ErrInvariant)
	assert.ErrorContains(t, err, "not an impl")
}

func TestUnsupportedPredicateAborts(t *testing.T) {
	tbl := symbols.NewTable()
	tr, err := tbl.DefineTrait("Tr")
	require.NoError(t, err)
	require.NoError(t, tbl.AddPredicate(tr.Def, pred(typesystem.ObjectSafePredicate{Trait: tr.Def, Name: "Tr"})))

	_, err = ProgramClausesFor(tbl, tr.Def)
	require.ErrorIs(t, err, typesystem.ErrInvariant)
	assert.ErrorContains(t, err, "ObjectSafe(Tr)")
}

func TestBoundVarsFor(t *testing.T) {
	tbl := buildCollection(t)
	def, _ := tbl.Lookup("Collection::Iter")
	vars, err := BoundVarsFor(tbl, def.Def)
	require.NoError(t, err)
	assert.Equal(t, []typesystem.Var{
		{Name: "Self", Kind: typesystem.Star},
		{Name: "T", Kind: typesystem.Star},
		{Name: "'a", Kind: typesystem.Lifetime},
	}, vars)

	_, err = BoundVarsFor(tbl, typesystem.NewDefID("nope"))
	assert.ErrorIs(t, err, typesystem.ErrInvariant)
}
