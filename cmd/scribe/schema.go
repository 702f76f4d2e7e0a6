package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/scribe/internal/engine/schema"
)

func newSchemaCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect document schemas",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "ls",
			Short: "List the built-in schema names",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				for _, name := range a.registry.Names() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the node and mark types of the configured schema",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				s, err := a.schema()
				if err != nil {
					return err
				}
				return printSchema(cmd.OutOrStdout(), a.cfg.Schema.Name, s)
			},
		},
	)
	return cmd
}

func printSchema(w io.Writer, name string, s *schema.Schema) error {
	fmt.Fprintf(w, "schema %s (top %s, default block %s)\n\n",
		name, s.TopNodeType().Name, blockName(s.DefaultBlockType()))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NODE\tCONTENT\tGROUP\tATTRS")
	for _, t := range s.NodeTypes() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Name, dash(t.Spec.Content), dash(t.Spec.Group), attrList(t.Spec.Attrs))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(s.MarkTypes()) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MARK\tINCLUSIVE\tATTRS")
	for _, m := range s.MarkTypes() {
		fmt.Fprintf(tw, "%s\t%t\t%s\n", m.Name, m.Inclusive(), attrList(m.Spec.Attrs))
	}
	return tw.Flush()
}

func blockName(t *schema.NodeType) string {
	if t == nil {
		return "none"
	}
	return t.Name
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// attrList renders attributes sorted by name; required ones carry a "!".
func attrList(attrs map[string]schema.AttrSpec) string {
	if len(attrs) == 0 {
		return "-"
	}
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	slices.Sort(names)

	parts := make([]string, len(names))
	for i, name := range names {
		spec := attrs[name]
		if spec.HasDefault {
			parts[i] = fmt.Sprintf("%s=%v", name, spec.Default)
		} else {
			parts[i] = name + "!"
		}
	}
	return strings.Join(parts, " ")
}
