package pipeline

import (
	"bytes"
	"fmt"
	"os"

	"github.com/funvibe/clausegen/internal/cache"
	"github.com/funvibe/clausegen/internal/config"
	"github.com/funvibe/clausegen/internal/datalog"
	"github.com/funvibe/clausegen/internal/dump"
	"github.com/funvibe/clausegen/internal/manifest"
	"github.com/funvibe/clausegen/internal/symbols"
)

// LoadProcessor reads the manifest and builds its declaration table.
type LoadProcessor struct{}

func (LoadProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Source == nil {
		data, err := os.ReadFile(ctx.ManifestPath)
		if err != nil {
			ctx.AddErrorf("failed to read manifest: %w", err)
			return ctx
		}
		ctx.Source = data
	}
	ctx.Fingerprint = cache.Fingerprint(ctx.Source)

	m, err := manifest.Parse(ctx.Source, ctx.ManifestPath)
	if err != nil {
		ctx.AddError(err)
		return ctx
	}
	ctx.Manifest = m
	tbl, err := m.Build()
	if err != nil {
		ctx.AddError(err)
		return ctx
	}
	ctx.Table = tbl
	ctx.Logger.Debug("manifest loaded", "path", ctx.ManifestPath, "declarations", tbl.Len())
	return ctx
}

// LowerProcessor produces the selected sections. A failing section is
// reported and the others are still produced.
type LowerProcessor struct{}

func (LowerProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Table == nil {
		return ctx
	}
	d := dump.New(ctx.Table, ctx.Logger)
	if ctx.Memo == nil {
		ctx.Memo = cache.NewMemo(cache.Lower(ctx.Table), cache.WithLogger(ctx.Logger))
	}
	d.Source = ctx.Memo.Source()
	if ctx.Store != nil && ctx.Format != config.FormatDatalog {
		d.Cache = storeCache{ctx: ctx}
	}

	if ctx.Selection == SelectDumpRequests {
		sections, err := d.Collect()
		ctx.Sections = append(ctx.Sections, sections...)
		if err != nil {
			ctx.AddError(err)
		}
		return ctx
	}

	targets, err := selectTargets(ctx)
	if err != nil {
		ctx.AddError(err)
		return ctx
	}
	for _, t := range targets {
		decl, _ := ctx.Table.Lookup(t.Path)
		sec, err := d.Section(decl, t.Request)
		if err != nil {
			ctx.AddError(err)
			continue
		}
		ctx.Sections = append(ctx.Sections, sec)
	}
	return ctx
}

// storeCache serves dump sections from the persistent store of a run. Store
// failures are logged and treated as misses.
type storeCache struct {
	ctx *PipelineContext
}

func (c storeCache) Lines(key string) ([]string, bool) {
	lines, ok, err := c.ctx.Store.Get(c.ctx.Context, key, c.ctx.Fingerprint)
	if err != nil {
		c.ctx.Logger.Warn("dump cache read failed", "key", key, "err", err)
		return nil, false
	}
	return lines, ok
}

func (c storeCache) Store(key string, lines []string) {
	if err := c.ctx.Store.Put(c.ctx.Context, key, c.ctx.Fingerprint, lines); err != nil {
		c.ctx.Logger.Warn("dump cache write failed", "key", key, "err", err)
	}
}

func selectTargets(ctx *PipelineContext) ([]Target, error) {
	if ctx.Selection == SelectAll {
		var out []Target
		err := ctx.Table.Walk(func(d *symbols.Decl) error {
			out = append(out, Target{Path: d.Path, Request: symbols.DumpClauses})
			return nil
		})
		return out, err
	}
	for _, t := range ctx.Targets {
		if _, ok := ctx.Table.Lookup(t.Path); !ok {
			return nil, fmt.Errorf("%s: no declaration %q", ctx.ManifestPath, t.Path)
		}
	}
	return ctx.Targets, nil
}

// RenderProcessor prints the sections in the requested format.
type RenderProcessor struct{}

func (RenderProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Table == nil {
		return ctx
	}
	var buf bytes.Buffer
	switch ctx.Format {
	case config.FormatDatalog:
		for _, sec := range ctx.Sections {
			if len(sec.Clauses) == 0 {
				continue
			}
			src, err := datalog.Render(sec.Clauses)
			if err != nil {
				ctx.AddError(err)
				continue
			}
			fmt.Fprintf(&buf, "# %s of %s\n%s", sec.Request, sec.Path, src)
		}
		if err := datalog.Check(buf.String()); err != nil {
			ctx.AddError(err)
		}
	default:
		d := &dump.Dumper{Color: ctx.Color}
		if err := d.Write(&buf, ctx.Sections); err != nil {
			ctx.AddError(err)
		}
	}
	ctx.Output = buf.Bytes()
	return ctx
}
