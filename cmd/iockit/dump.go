package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/junioryono/ioc/dump"
)

func newDumpCmd(a *app) *cobra.Command {
	var (
		compact  bool
		verbose  bool
		maxDepth int
	)

	cmd := &cobra.Command{
		Use:   "dump [file]",
		Short: "Dump the YAML or JSON documents in file (or stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			name := "stdin"
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in, name = f, args[0]
			}

			docs, err := decodeDocuments(in)
			if err != nil {
				return fmt.Errorf("decode %s: %w", name, err)
			}
			a.setup.Logger.Debug("decoded documents", "source", name, "count", len(docs))

			out := cmd.OutOrStdout()
			for i, doc := range docs {
				if i > 0 {
					fmt.Fprintln(out, "---")
				}
				switch {
				case compact:
					fmt.Fprintln(out, dump.Compact(doc))
				case verbose:
					fmt.Fprint(out, dump.Verbose(doc))
				default:
					fmt.Fprintln(out, dump.ValueWith(doc, dump.Options{MaxDepth: maxDepth}))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&compact, "compact", false, "print each document on one line")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "print each document with full type annotations")
	cmd.Flags().IntVar(&maxDepth, "max-depth", dump.DefaultMaxDepth, "deepest nesting printed")
	cmd.MarkFlagsMutuallyExclusive("compact", "verbose")

	return cmd
}

// decodeDocuments reads every document of a YAML stream. JSON input is
// valid YAML.
func decodeDocuments(r io.Reader) ([]any, error) {
	dec := yaml.NewDecoder(r)

	var docs []any
	for {
		var doc any
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
}
