package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/scribe/internal/engine"
)

var errInvalid = errors.New("document is invalid")

func newValidateCmd(a *app) *cobra.Command {
	var (
		from     string
		notEmpty bool
		minWords int
		maxWords int
	)

	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a document against the schema",
		Long: `Parses a JSON or HTML document and checks its structure against the
schema. Optional content rules check emptiness and word counts.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			doc, _, err := a.decode(name, from)
			if err != nil {
				return fmt.Errorf("%w: %w", errInvalid, err)
			}
			if err := doc.Check(); err != nil {
				return fmt.Errorf("%w: %w", errInvalid, err)
			}

			var results []engine.ValidationResult
			if notEmpty {
				results = append(results, engine.ValidateNotEmpty(doc))
			}
			if minWords > 0 {
				results = append(results, engine.ValidateMinWords(doc, minWords))
			}
			if maxWords > 0 {
				results = append(results, engine.ValidateMaxWords(doc, maxWords))
			}

			var failed []string
			for _, r := range results {
				failed = append(failed, r.Errors...)
			}
			out := cmd.OutOrStdout()
			for _, msg := range failed {
				fmt.Fprintln(out, msg)
			}
			if len(failed) > 0 {
				return errInvalid
			}
			fmt.Fprintf(out, "valid (%d words)\n", engine.CountWords(doc))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "input format (json or html); detected from the extension by default")
	cmd.Flags().BoolVar(&notEmpty, "not-empty", false, "fail for an empty document")
	cmd.Flags().IntVar(&minWords, "min-words", 0, "fail below this many words")
	cmd.Flags().IntVar(&maxWords, "max-words", 0, "fail above this many words")
	return cmd
}
