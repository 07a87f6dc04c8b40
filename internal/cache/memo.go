// Package cache memoizes clause sets per declaration and persists rendered
// dumps between runs.
package cache

import (
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/funvibe/clausegen/internal/clauses"
	"github.com/funvibe/clausegen/internal/logging"
	"github.com/funvibe/clausegen/internal/lowering"
	"github.com/funvibe/clausegen/internal/typesystem"
)

// Memo maps declaration identities to their clause sets. Concurrent first
// lookups of one identity share a single computation. Failed computations
// are not remembered. Returned clause sets are shared and must not be
// modified.
type Memo struct {
	compute lowering.Source
	metrics *Metrics
	logger  *slog.Logger

	mu      sync.RWMutex
	entries map[typesystem.DefID]clauses.Clauses
	gens    map[typesystem.DefID]uint64
	epoch   uint64
	group   singleflight.Group
}

// stamp identifies the state of one key when a computation starts. Results
// computed under an outdated stamp are returned to their callers but not
// stored.
type stamp struct {
	epoch uint64
	gen   uint64
}

func (c *Memo) stampLocked(id typesystem.DefID) stamp {
	return stamp{epoch: c.epoch, gen: c.gens[id]}
}

func flightKey(id typesystem.DefID, st stamp) string {
	return fmt.Sprintf("%s/%d/%d", id.String(), st.epoch, st.gen)
}

// Option configures a Memo.
type Option func(*Memo)

// WithMetrics records hits, misses and errors.
func WithMetrics(m *Metrics) Option {
	return func(c *Memo) { c.metrics = m }
}

// WithLogger logs misses at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(c *Memo) { c.logger = l }
}

// NewMemo creates a memo in front of compute.
func NewMemo(compute lowering.Source, opts ...Option) *Memo {
	c := &Memo{
		compute: compute,
		logger:  logging.NewNop(),
		entries: make(map[typesystem.DefID]clauses.Clauses),
		gens:    make(map[typesystem.DefID]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lower is the uncached clause source for a model.
func Lower(m lowering.Model) lowering.Source {
	return func(id typesystem.DefID) (clauses.Clauses, error) {
		return lowering.ProgramClausesFor(m, id)
	}
}

// ProgramClauses returns the clause set of id, computing it on first use.
// Lookups that start after Invalidate or Reset never join a computation
// started before it.
func (c *Memo) ProgramClauses(id typesystem.DefID) (clauses.Clauses, error) {
	c.mu.RLock()
	cs, ok := c.entries[id]
	st := c.stampLocked(id)
	c.mu.RUnlock()
	if ok {
		c.metrics.hit()
		return cs, nil
	}

	v, err, _ := c.group.Do(flightKey(id, st), func() (any, error) {
		c.mu.RLock()
		cs, ok := c.entries[id]
		current := c.stampLocked(id) == st
		c.mu.RUnlock()
		if ok && current {
			c.metrics.hit()
			return cs, nil
		}
		c.metrics.miss()
		c.logger.Debug("clause cache miss", "def", id.String())
		cs, err := c.compute(id)
		if err != nil {
			c.metrics.fail()
			return nil, err
		}
		c.mu.Lock()
		if c.stampLocked(id) == st {
			c.entries[id] = cs
		} else {
			c.logger.Debug("dropping clause set computed before invalidation", "def", id.String())
		}
		c.mu.Unlock()
		return cs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(clauses.Clauses), nil
}

// Source exposes the memo as a clause source.
func (c *Memo) Source() lowering.Source {
	return c.ProgramClauses
}

// Invalidate forgets the clause set of id. A computation of id still in
// flight is not stored.
func (c *Memo) Invalidate(id typesystem.DefID) {
	c.mu.Lock()
	st := c.stampLocked(id)
	delete(c.entries, id)
	c.gens[id]++
	c.mu.Unlock()
	c.group.Forget(flightKey(id, st))
}

// Reset forgets every clause set and discards every computation in flight.
func (c *Memo) Reset() {
	c.mu.Lock()
	c.entries = make(map[typesystem.DefID]clauses.Clauses)
	c.gens = make(map[typesystem.DefID]uint64)
	c.epoch++
	c.mu.Unlock()
}

func (c *Memo) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
