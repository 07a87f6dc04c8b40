package main

import (
	"github.com/spf13/cobra"

	"github.com/funvibe/clausegen/internal/cache"
	"github.com/funvibe/clausegen/internal/config"
	"github.com/funvibe/clausegen/internal/dump"
	"github.com/funvibe/clausegen/internal/pipeline"
	"github.com/funvibe/clausegen/internal/symbols"
)

func newDumpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <manifest>",
		Short: "Answer the dump requests written in a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, args[0], pipeline.SelectDumpRequests, nil)
		},
	}
}

func newClausesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clauses <manifest> <path>...",
		Short: "Print the program clauses of declarations",
		Long:  "Print the program clauses of declarations, named by path: Trait, Trait::Item, Type, impl#0, impl#0::Item.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, args[0], pipeline.SelectTargets, targets(args[1:], symbols.DumpClauses))
		},
	}
}

func newEnvCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "env <manifest> <path>...",
		Short: "Print the environment clauses in force inside declarations",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, args[0], pipeline.SelectTargets, targets(args[1:], symbols.DumpEnv))
		},
	}
}

func newDatalogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "datalog <manifest>",
		Short: "Print every clause of a manifest as a Datalog unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.cfg.Format = config.FormatDatalog
			return a.run(cmd, args[0], pipeline.SelectAll, nil)
		},
	}
}

func targets(paths []string, request string) []pipeline.Target {
	out := make([]pipeline.Target, len(paths))
	for i, p := range paths {
		out[i] = pipeline.Target{Path: p, Request: request}
	}
	return out
}

func (a *app) run(cmd *cobra.Command, manifestPath string, sel pipeline.Selection, tgts []pipeline.Target) error {
	out := cmd.OutOrStdout()
	color, err := dump.UseColor(a.cfg.Color, out)
	if err != nil {
		return err
	}

	pctx := pipeline.NewContext(cmd.Context(), manifestPath)
	pctx.Selection = sel
	pctx.Targets = tgts
	pctx.Format = a.cfg.Format
	pctx.Color = color
	pctx.Logger = a.logger

	if a.cfg.Cache.Path != "" {
		store, err := cache.OpenDumpStore(cmd.Context(), a.cfg.Cache.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		pctx.Store = store
	}

	pctx = pipeline.Default().Run(pctx)
	if _, err := out.Write(pctx.Output); err != nil {
		return err
	}
	return pctx.Err()
}
