package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/funvibe/clausegen/internal/config"
	"github.com/funvibe/clausegen/internal/logging"
)

// app is the state shared by every command once flags and config are read.
type app struct {
	configPath string
	format     string
	color      string
	logLevel   string
	cachePath  string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "clausegen",
		Short: "Lower trait declarations into logic program clauses",
		Long: `clausegen reads a YAML manifest of traits, structs, impls and fns and
prints the program clauses a trait solver would use for them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to clausegen.yaml (default: search upwards from the working directory)")
	flags.StringVar(&a.format, "format", "", "Output format: text or datalog")
	flags.StringVar(&a.color, "color", "", "Color output: auto, always or never")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&a.cachePath, "cache", "", "SQLite file caching rendered dumps")

	root.AddCommand(
		newDumpCmd(a),
		newClausesCmd(a),
		newEnvCmd(a),
		newDatalogCmd(a),
		newExportCmd(a),
		newServeCmd(a),
	)
	return root
}

// setup loads the config and applies flag overrides.
func (a *app) setup(cmd *cobra.Command) error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadConfig(a.configPath)
	} else {
		a.cfg, _, err = config.Discover(".")
	}
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		a.cfg.Format = a.format
	}
	if flags.Changed("color") {
		a.cfg.Color = a.color
	}
	if flags.Changed("log-level") {
		a.cfg.Log.Level = a.logLevel
	}
	if flags.Changed("cache") {
		a.cfg.Cache.Path = a.cachePath
	}
	switch a.cfg.Format {
	case config.FormatText, config.FormatDatalog:
	default:
		return fmt.Errorf("invalid format %q", a.cfg.Format)
	}

	level, err := logging.ParseLevel(a.cfg.Log.Level)
	if err != nil {
		return err
	}
	a.logger = logging.New(level, os.Stderr)
	return nil
}
