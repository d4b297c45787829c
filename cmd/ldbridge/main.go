// Package main provides the ldbridge binary: JSON-LD translation, merge-patch
// compilation and compaction on the command line, backed by a SQL triple
// store.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/twinfer/ldbridge"
	"github.com/twinfer/ldbridge/config"
	"github.com/twinfer/ldbridge/jsonld"
)

const appName = "ldbridge"

func main() {
	if err := run(&app{}, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if jsonld.IsBadRequest(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// run executes the command line in args and releases the store and writes
// metrics afterwards, also when the command failed.
func run(a *app, args []string, stdin io.Reader, stdout io.Writer) (err error) {
	defer func() {
		err = errors.Join(err, a.teardown())
	}()
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	return cmd.Execute()
}

// app carries what every subcommand shares. It is filled in by the root
// command's PersistentPreRunE and released by teardown.
type app struct {
	configPath  string
	logLevel    string
	dbPath      string
	metricsFile string

	cfg      *config.Config
	log      *slog.Logger
	registry *prometheus.Registry
	opts     *jsonld.Options
	store    *ldbridge.TripleStore
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           appName,
		Short:         "JSON-LD to RDF bridge",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `ldbridge converts JSON-LD documents to N-Triples, compiles JSON Merge
Patches on JSON-LD resources into SPARQL Updates and compacts stored
resources back into JSON-LD bound to a context IRI.

Settings come from an optional YAML file and the environment
(JSONLD_STRICT, JSONLD_PERSIST_CONTEXT, JSONLD_CONTEXT_MINIMAL,
COMPACTION_URI, COMPACTION_PRELOAD, JSONLD_FETCH_TIMEOUT, LOG_LEVEL,
STORE_DRIVER, STORE_DSN).`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config")
	cmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "Store DSN; overrides the config")
	cmd.PersistentFlags().StringVar(&a.metricsFile, "metrics-file", "", "Write engine metrics in Prometheus text format to this file on exit")

	cmd.AddCommand(
		translateCmd(a),
		patchCmd(a),
		compactCmd(a),
		putCmd(a),
		getCmd(a),
		storeCmd(a),
	)
	return cmd
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.dbPath != "" {
		cfg.Store.DSN = a.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.log)

	loader, err := cfg.NewLoader()
	if err != nil {
		return err
	}
	a.registry = prometheus.NewRegistry()
	a.opts = cfg.EngineOptions(loader, a.log, jsonld.NewMetrics(a.registry))
	a.log.Debug("configured engine",
		"strict", cfg.Strict,
		"persist_context", cfg.PersistContext,
		"limit_compaction", cfg.LimitCompaction,
		"preloaded", len(loader.Injected()))
	return nil
}

// openStore opens the configured store on first use.
func (a *app) openStore() (*ldbridge.TripleStore, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := a.cfg.OpenStore(a.log)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	a.store = store
	return store, nil
}

func (a *app) teardown() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	if a.metricsFile != "" && a.registry != nil {
		errs = append(errs, prometheus.WriteToTextfile(a.metricsFile, a.registry))
	}
	return errors.Join(errs...)
}

// readInput reads the file named by args[0], or stdin when there is none or
// it is "-".
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return data, nil
}
