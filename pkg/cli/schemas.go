package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tpcollect/pkg/schema"
)

// SchemasCmd returns the schemas command
func SchemasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schemas",
		Short: "List the measurement forms and the columns they append",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			bold := color.New(color.Bold)
			for _, tab := range schema.Tabs() {
				fmt.Fprintln(out, bold.Sprint(tab.Label))
				for _, key := range tab.Schemas {
					s, _ := schema.Lookup(key)
					var cols []string
					for _, f := range s.Fields {
						if f.InputOnly {
							continue
						}
						name := f.Name
						if f.Required {
							name += "*"
						}
						cols = append(cols, name)
					}
					fmt.Fprintf(out, "  %-12s -> %-16s %s\n", s.Key, color.New(color.FgCyan).Sprint(s.Resource), strings.Join(cols, ", "))
				}
			}
			return nil
		},
	}
}

// PlantIDCmd returns the plant-id command
func PlantIDCmd() *cobra.Command {
	var second bool

	cmd := &cobra.Command{
		Use:   "plant-id <noma>",
		Short: "Print the sunflower identifier of a student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := schema.PlantID(args[0], second)
			if id == "" {
				return fmt.Errorf("empty NOMA")
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&second, "second", false, "second sunflower, after the first one died")
	return cmd
}
