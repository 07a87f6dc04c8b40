package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/funvibe/clausegen/internal/cache"
	"github.com/funvibe/clausegen/internal/manifest"
	"github.com/funvibe/clausegen/internal/rpc"
	"github.com/funvibe/clausegen/internal/symbols"
)

func newExportCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <manifest> [path...]",
		Short: "Write clause sets as a protobuf bundle",
		Long:  "Write the clause sets of the named declarations (all of them by default) as a clausegen.v1.Bundle message.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl, err := manifest.LoadTable(args[0])
			if err != nil {
				return err
			}
			paths, err := exportPaths(tbl, args[1:])
			if err != nil {
				return err
			}
			memo := cache.NewMemo(cache.Lower(tbl), cache.WithLogger(a.logger))
			items := make([]rpc.Item, 0, len(paths))
			for _, p := range paths {
				d, ok := tbl.Lookup(p)
				if !ok {
					return fmt.Errorf("%s: no declaration %q", args[0], p)
				}
				cs, err := memo.ProgramClauses(d.Def)
				if err != nil {
					return err
				}
				items = append(items, rpc.Item{Path: d.Path, Kind: d.Kind.String(), Clauses: cs})
			}
			data, err := rpc.EncodeBundle(items...)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("writing bundle: %w", err)
			}
			a.logger.Info("bundle written", "path", output, "items", len(items), "bytes", len(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "clauses.pb", "Bundle file to write")
	return cmd
}

// exportPaths returns the requested paths, or every declaration in walk
// order when none are given.
func exportPaths(tree interface {
	Walk(fn func(d *symbols.Decl) error) error
}, requested []string) ([]string, error) {
	if len(requested) > 0 {
		return requested, nil
	}
	var paths []string
	err := tree.Walk(func(d *symbols.Decl) error {
		paths = append(paths, d.Path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing declarations: %w", err)
	}
	return paths, nil
}
