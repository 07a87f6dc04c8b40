package cache

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/clausegen/internal/clauses"
	"github.com/funvibe/clausegen/internal/lowering"
	"github.com/funvibe/clausegen/internal/symbols"
	"github.com/funvibe/clausegen/internal/typesystem"
)

func traitTable(t *testing.T) (*symbols.Table, *symbols.Decl) {
	t.Helper()
	tbl := symbols.NewTable()
	d, err := tbl.DefineTrait("Show")
	require.NoError(t, err)
	return tbl, d
}

func TestMemoComputesOnce(t *testing.T) {
	tbl, show := traitTable(t)
	var calls atomic.Int32
	release := make(chan struct{})
	source := func(id typesystem.DefID) (clauses.Clauses, error) {
		calls.Add(1)
		<-release
		return lowering.ProgramClausesFor(tbl, id)
	}
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	memo := NewMemo(source, WithMetrics(metrics))

	const workers = 8
	var wg sync.WaitGroup
	results := make([]clauses.Clauses, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cs, err := memo.ProgramClauses(show.Def)
			assert.NoError(t, err)
			results[i] = cs
		}(i)
	}
	for calls.Load() == 0 {
		runtime.Gosched()
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, cs := range results {
		assert.Equal(t, results[0].Strings(), cs.Strings())
	}
	assert.Equal(t, 1, memo.Len())
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Misses))

	_, err := memo.ProgramClauses(show.Def)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.Hits), float64(1))
}

func TestMemoDoesNotCacheErrors(t *testing.T) {
	_, show := traitTable(t)
	boom := errors.New("boom")
	fail := true
	var calls int
	memo := NewMemo(func(typesystem.DefID) (clauses.Clauses, error) {
		calls++
		if fail {
			return nil, boom
		}
		return clauses.Clauses{}, nil
	}, WithMetrics(NewMetrics(prometheus.NewRegistry())))

	_, err := memo.ProgramClauses(show.Def)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, float64(1), testutil.ToFloat64(memo.metrics.Errors))
	assert.Equal(t, 0, memo.Len())

	fail = false
	cs, err := memo.ProgramClauses(show.Def)
	require.NoError(t, err)
	assert.Empty(t, cs)
	assert.Equal(t, 2, calls)
}

func TestMemoInvalidate(t *testing.T) {
	tbl, show := traitTable(t)
	var calls int
	memo := NewMemo(func(id typesystem.DefID) (clauses.Clauses, error) {
		calls++
		return lowering.ProgramClausesFor(tbl, id)
	})

	_, err := memo.ProgramClauses(show.Def)
	require.NoError(t, err)
	memo.Invalidate(show.Def)
	_, err = memo.ProgramClauses(show.Def)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	memo.Reset()
	assert.Equal(t, 0, memo.Len())
}

// blockingSource returns version clause sets, blocking its first call until
// release is closed. The version is read before blocking.
func blockingSource(version, calls *atomic.Int32, started, release chan struct{}) lowering.Source {
	return func(typesystem.DefID) (clauses.Clauses, error) {
		n := version.Load()
		if calls.Add(1) == 1 {
			close(started)
			<-release
		}
		return make(clauses.Clauses, n), nil
	}
}

func TestMemoInvalidateDuringComputation(t *testing.T) {
	_, show := traitTable(t)
	var version, calls atomic.Int32
	version.Store(1)
	started, release := make(chan struct{}), make(chan struct{})
	memo := NewMemo(blockingSource(&version, &calls, started, release))

	done := make(chan clauses.Clauses)
	go func() {
		cs, err := memo.ProgramClauses(show.Def)
		assert.NoError(t, err)
		done <- cs
	}()
	<-started
	version.Store(2)
	memo.Invalidate(show.Def)

	fresh, err := memo.ProgramClauses(show.Def)
	require.NoError(t, err)
	assert.Len(t, fresh, 2)

	close(release)
	assert.Len(t, <-done, 1)

	cs, err := memo.ProgramClauses(show.Def)
	require.NoError(t, err)
	assert.Len(t, cs, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestMemoInvalidateDropsInFlightResult(t *testing.T) {
	_, show := traitTable(t)
	var version, calls atomic.Int32
	version.Store(1)
	started, release := make(chan struct{}), make(chan struct{})
	memo := NewMemo(blockingSource(&version, &calls, started, release))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := memo.ProgramClauses(show.Def)
		assert.NoError(t, err)
	}()
	<-started
	version.Store(2)
	memo.Invalidate(show.Def)
	close(release)
	<-done
	assert.Equal(t, 0, memo.Len())

	cs, err := memo.ProgramClauses(show.Def)
	require.NoError(t, err)
	assert.Len(t, cs, 2)
	assert.Equal(t, int32(2), calls.Load())
}

func TestMemoResetDropsInFlightResult(t *testing.T) {
	_, show := traitTable(t)
	var version, calls atomic.Int32
	version.Store(1)
	started, release := make(chan struct{}), make(chan struct{})
	memo := NewMemo(blockingSource(&version, &calls, started, release))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := memo.ProgramClauses(show.Def)
		assert.NoError(t, err)
	}()
	<-started
	version.Store(3)
	memo.Reset()
	close(release)
	<-done
	assert.Equal(t, 0, memo.Len())

	cs, err := memo.ProgramClauses(show.Def)
	require.NoError(t, err)
	assert.Len(t, cs, 3)
	assert.Equal(t, 1, memo.Len())
}

func TestMemoAsEnvironmentSource(t *testing.T) {
	tbl, show := traitTable(t)
	memo := NewMemo(Lower(tbl))
	env, err := lowering.EnvironmentFor(tbl, show.Def)
	require.NoError(t, err)

	cached, err := lowering.ProgramClausesForEnvWith(tbl, env, memo.Source())
	require.NoError(t, err)
	direct, err := lowering.ProgramClausesForEnv(tbl, env)
	require.NoError(t, err)
	assert.Equal(t, direct.Strings(), cached.Strings())
	assert.Equal(t, 1, memo.Len())
}
