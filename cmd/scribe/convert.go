package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/scribe/internal/engine"
)

func newConvertCmd(a *app) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a document between JSON, HTML and text",
		Long: `Reads a JSON or HTML document (stdin when no file or "-" is given),
checks it against the schema, and writes it in the --to format.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			doc, _, err := a.decode(name, from)
			if err != nil {
				return err
			}

			format, err := engine.ParseFormat(to)
			if err != nil {
				return err
			}
			out, err := engine.Encode(doc, format)
			if err != nil {
				return err
			}
			a.logger.Debug("converted", "from", name, "to", format, "bytes", len(out))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "input format (json or html); detected from the extension by default")
	cmd.Flags().StringVar(&to, "to", "json", "output format (json, html or text)")
	return cmd
}
