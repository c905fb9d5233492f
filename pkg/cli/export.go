package cli

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"tpcollect/pkg/export"
	"tpcollect/pkg/schema"
)

// ExportCmd returns the export command
func ExportCmd() *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export <schema>",
		Short: "Write the full history of a form as csv or xlsx",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, ok := schema.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown schema %q", args[0])
			}
			if format != export.FormatCSV && format != export.FormatXLSX {
				return fmt.Errorf("unknown format %q (csv or xlsx)", format)
			}
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			name, err := a.Viewer.Export(cmd.Context(), w, s.Resource, s.Label, format)
			if err != nil {
				return err
			}
			log.WithFields(log.Fields{"schema": s.Key, "suggested_name": name}).Info("export written")
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", export.FormatCSV, "csv or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}
