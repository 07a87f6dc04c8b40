// Package dump reports produced clauses for declarations that ask for it.
// It walks the declaration tree and, for each dump request it finds, renders
// the requested clause set one clause per line, sorted.
package dump

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/funvibe/clausegen/internal/clauses"
	"github.com/funvibe/clausegen/internal/logging"
	"github.com/funvibe/clausegen/internal/lowering"
	"github.com/funvibe/clausegen/internal/symbols"
	"github.com/funvibe/clausegen/internal/typesystem"
)

// Tree is the declaration tree being walked.
type Tree interface {
	lowering.Model
	Walk(fn func(d *symbols.Decl) error) error
}

// Section is the rendered answer to one dump request. Clauses is nil when
// the section was read back from a store.
type Section struct {
	Path    string
	Kind    symbols.DefKind
	Request string
	Lines   []string
	Clauses clauses.Clauses
}

// Key identifies the section among the others of one manifest.
func (s Section) Key() string { return s.Path + "/" + s.Request }

// Cache keeps rendered section lines between runs, keyed by Section.Key.
type Cache interface {
	Lines(key string) ([]string, bool)
	Store(key string, lines []string)
}

// Dumper collects and prints dump sections.
type Dumper struct {
	Tree   Tree
	Source lowering.Source // clause sets; defaults to lowering.ProgramClausesFor
	Cache  Cache           // optional
	Color  bool
	Logger *slog.Logger
}

func New(tree Tree, logger *slog.Logger) *Dumper {
	return &Dumper{Tree: tree, Logger: logger}
}

func (d *Dumper) source() lowering.Source {
	if d.Source != nil {
		return d.Source
	}
	return func(id typesystem.DefID) (clauses.Clauses, error) {
		return lowering.ProgramClausesFor(d.Tree, id)
	}
}

func (d *Dumper) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return logging.NewNop()
}

// Collect walks the tree and answers every dump request, in tree order and,
// within a declaration, in request order. A failing request is reported in
// the joined error and the remaining ones are still answered.
func (d *Dumper) Collect() ([]Section, error) {
	var (
		out  []Section
		errs []error
	)
	err := d.Tree.Walk(func(decl *symbols.Decl) error {
		for _, req := range decl.Dump {
			sec, err := d.Section(decl, req)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			d.logger().Debug("dump", "path", decl.Path, "request", req, "clauses", len(sec.Lines))
			out = append(out, sec)
		}
		return nil
	})
	if err != nil {
		errs = append(errs, err)
	}
	return out, errors.Join(errs...)
}

// Section answers one request for one declaration. With a Cache, stored
// lines are returned without lowering anything.
func (d *Dumper) Section(decl *symbols.Decl, request string) (Section, error) {
	sec := Section{Path: decl.Path, Kind: decl.Kind, Request: request}
	if request != symbols.DumpClauses && request != symbols.DumpEnv {
		return Section{}, fmt.Errorf("dump %s: unknown request %q", decl.Path, request)
	}
	if d.Cache != nil {
		if lines, ok := d.Cache.Lines(sec.Key()); ok {
			sec.Lines = lines
			return sec, nil
		}
	}

	var (
		cs  clauses.Clauses
		err error
	)
	if request == symbols.DumpEnv {
		cs, err = d.Environment(decl.Def)
	} else {
		cs, err = d.source()(decl.Def)
	}
	if err != nil {
		return Section{}, fmt.Errorf("dump %s of %s: %w", request, decl.Path, err)
	}
	sec.Lines, sec.Clauses = Lines(cs), cs
	if d.Cache != nil {
		d.Cache.Store(sec.Key(), sec.Lines)
	}
	return sec, nil
}

// Environment returns the environment clauses in force inside id together
// with the implied bounds they reach.
func (d *Dumper) Environment(id typesystem.DefID) (clauses.Clauses, error) {
	env, err := lowering.EnvironmentFor(d.Tree, id)
	if err != nil {
		return nil, err
	}
	return lowering.ProgramClausesForEnvWith(d.Tree, env, d.source())
}

// Lines renders every clause once, sorted lexicographically.
func Lines(cs clauses.Clauses) []string {
	lines := cs.Strings()
	sort.Strings(lines)
	return lines
}

// Write prints sections separated by blank lines.
func (d *Dumper) Write(w io.Writer, sections []Section) error {
	p := NewPrinter(d.Color)
	for i, sec := range sections {
		if i > 0 {
			p.Newline()
		}
		p.Section(sec)
	}
	_, err := w.Write(p.Bytes())
	return err
}

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiCyan  = "\033[36m"
)

// Printer builds dump output.
type Printer struct {
	buf   bytes.Buffer
	color bool
}

func NewPrinter(color bool) *Printer {
	return &Printer{color: color}
}

func (p *Printer) Bytes() []byte  { return p.buf.Bytes() }
func (p *Printer) String() string { return p.buf.String() }
func (p *Printer) Newline()       { p.buf.WriteByte('\n') }
func (p *Printer) write(s string) { p.buf.WriteString(s) }

func (p *Printer) styled(style, s string) {
	if p.color {
		p.write(style + s + ansiReset)
		return
	}
	p.write(s)
}

// Section prints a header followed by one clause per line.
func (p *Printer) Section(sec Section) {
	p.styled(ansiBold+ansiCyan, fmt.Sprintf("== %s of %s (%s) ==", sec.Request, sec.Path, sec.Kind))
	p.Newline()
	if len(sec.Lines) == 0 {
		p.styled(ansiDim, "(no clauses)")
		p.Newline()
		return
	}
	for _, line := range sec.Lines {
		p.Clause(line)
		p.Newline()
	}
}

// Clause prints one rendered clause, dimming the rule arrow.
func (p *Printer) Clause(line string) {
	if !p.color {
		p.write(line)
		return
	}
	head, body, ok := strings.Cut(line, " :- ")
	if !ok {
		p.write(line)
		return
	}
	p.write(head)
	p.styled(ansiDim, " :- ")
	p.write(body)
}
