package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/funvibe/clausegen/internal/cache"
	"github.com/funvibe/clausegen/internal/dump"
	"github.com/funvibe/clausegen/internal/logging"
	"github.com/funvibe/clausegen/internal/manifest"
	"github.com/funvibe/clausegen/internal/symbols"
)

// Selection decides which sections a run produces.
type Selection int

const (
	// SelectDumpRequests answers the dump requests written in the manifest.
	SelectDumpRequests Selection = iota
	// SelectTargets answers PipelineContext.Targets.
	SelectTargets
	// SelectAll produces the clause set of every declaration.
	SelectAll
)

// Target asks for one section.
type Target struct {
	Path    string
	Request string // symbols.DumpClauses or symbols.DumpEnv
}

// PipelineContext carries one run's inputs, intermediate results and
// diagnostics between stages.
type PipelineContext struct {
	Context      context.Context
	ManifestPath string
	Selection    Selection
	Targets      []Target
	Format       string // config.FormatText or config.FormatDatalog
	Color        bool
	Logger       *slog.Logger

	// Optional collaborators.
	Memo  *cache.Memo
	Store *cache.DumpStore

	Source      []byte
	Fingerprint string
	Manifest    *manifest.Manifest
	Table       *symbols.Table
	Sections    []dump.Section
	Output      []byte

	Errors []error
}

// NewContext prepares a run over the manifest at path.
func NewContext(ctx context.Context, path string) *PipelineContext {
	return &PipelineContext{
		Context:      ctx,
		ManifestPath: path,
		Logger:       logging.NewNop(),
	}
}

// AddError records a diagnostic.
func (c *PipelineContext) AddError(err error) {
	c.Errors = append(c.Errors, err)
}

// AddErrorf records a formatted diagnostic.
func (c *PipelineContext) AddErrorf(format string, args ...any) {
	c.AddError(fmt.Errorf(format, args...))
}

// Err joins every recorded diagnostic.
func (c *PipelineContext) Err() error {
	return errors.Join(c.Errors...)
}
