package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/piprate/json-gold/ld"
	"github.com/spf13/cobra"

	"github.com/twinfer/ldbridge/jsonld"
	"github.com/twinfer/ldbridge/rdf"
)

func translateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "translate [file]",
		Short: "Convert a JSON-LD document to N-Triples",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			out, err := jsonld.NewTranslator(a.opts).Translate(input)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}
}

func patchCmd(a *app) *cobra.Command {
	var (
		context string
		apply   bool
	)
	cmd := &cobra.Command{
		Use:   "patch [file]",
		Short: "Compile a JSON Merge Patch into a SPARQL Update",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			script, err := jsonld.NewMergePatchCompiler(a.opts).ToSparql(input, a.defaultContext(context))
			if err != nil {
				return err
			}
			if !apply {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), script)
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			return store.ApplyUpdate(script)
		},
	}
	cmd.Flags().StringVar(&context, "context", "", "Context IRI for patches without @context; defaults to the configured compaction IRI")
	cmd.Flags().BoolVar(&apply, "apply", false, "Apply the update to the store instead of printing it")
	return cmd
}

func compactCmd(a *app) *cobra.Command {
	var context string
	cmd := &cobra.Command{
		Use:   "compact [file]",
		Short: "Compact a JSON-LD document against a context IRI",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			out, err := jsonld.NewCompactor(a.opts).Compact(input, a.defaultContext(context))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&context, "context", "", "Context IRI; defaults to the configured compaction IRI")
	return cmd
}

func putCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "put [file]",
		Short: "Translate a JSON-LD document and add its triples to the store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			triples, err := jsonld.NewTranslator(a.opts).Translate(input)
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			n, err := store.LoadNTriples(triples)
			if err != nil {
				return err
			}
			a.log.Info("stored document", "triples", n)
			return nil
		},
	}
}

func getCmd(a *app) *cobra.Command {
	var context string
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Render the stored triples as compacted JSON-LD",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			lines, err := store.Triples()
			if err != nil {
				return err
			}
			opts := ld.NewJsonLdOptions("")
			opts.Format = "application/n-quads"
			expanded, err := ld.NewJsonLdProcessor().FromRDF(rdf.JoinLines(lines), opts)
			if err != nil {
				return fmt.Errorf("failed to convert stored triples: %w", err)
			}
			doc, err := jsonld.FromInterface(expanded)
			if err != nil {
				return err
			}
			out, err := jsonld.NewCompactor(a.opts).Compact(doc.Bytes(), a.defaultContext(context))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&context, "context", "", "Context IRI; defaults to the configured compaction IRI")
	return cmd
}

func storeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Maintain the triple store",
	}

	var loadFormat string
	load := &cobra.Command{
		Use:   "load [file]",
		Short: "Add N-Triples or exported JSON triples to the store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			r, closeInput, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer closeInput()
			var n int64
			switch loadFormat {
			case "nt":
				n, err = store.ReadFrom(r)
			case "json":
				n, err = store.ImportJSON(r)
			default:
				return fmt.Errorf("unknown format %q", loadFormat)
			}
			if err != nil {
				return err
			}
			a.log.Info("loaded triples", "format", loadFormat, "bytes", n, "total", store.EstimateFactCount())
			return nil
		},
	}
	load.Flags().StringVar(&loadFormat, "format", "nt", "Input format (nt, json)")

	apply := &cobra.Command{
		Use:   "apply [file]",
		Short: "Apply a SPARQL Update produced by the patch command",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			return store.ApplyUpdate(string(script))
		},
	}

	var dumpFormat string
	dump := &cobra.Command{
		Use:   "dump",
		Short: "Write every stored triple",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			switch dumpFormat {
			case "nt":
				_, err = store.WriteTo(cmd.OutOrStdout())
			case "json":
				_, err = store.ExportJSON(cmd.OutOrStdout())
			default:
				err = fmt.Errorf("unknown format %q", dumpFormat)
			}
			return err
		},
	}
	dump.Flags().StringVar(&dumpFormat, "format", "nt", "Output format (nt, json)")

	cmd.AddCommand(load, apply, dump)
	return cmd
}

// defaultContext returns the flag value, falling back to the configured
// compaction IRI.
func (a *app) defaultContext(flag string) string {
	if strings.TrimSpace(flag) != "" {
		return flag
	}
	return a.cfg.DefaultContext
}

// openInput opens the file named by args[0], or stdin when there is none or
// it is "-".
func openInput(cmd *cobra.Command, args []string) (io.Reader, func(), error) {
	if len(args) == 0 || args[0] == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, func() { f.Close() }, nil
}
