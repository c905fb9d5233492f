package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tpcollect/pkg/app"
	"tpcollect/pkg/config"
	"tpcollect/pkg/schema"
	"tpcollect/pkg/sheets"
)

// CheckCmd returns the check command
func CheckCmd() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the credentials and resource configuration",
		Long: `Check that the service account fields are present, that every resource key
used by a form resolves to a spreadsheet, and with --remote that each one can be read.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewDatastore(configPath)
			if err != nil {
				return err
			}
			problems := checkConfig(cmd.OutOrStdout(), cfg)
			if remote && problems == 0 {
				a, err := app.New(cfg)
				if err != nil {
					return err
				}
				defer a.Close()
				for _, key := range schema.Resources() {
					if _, err := a.Store.ReadAll(cmd.Context(), key); err != nil {
						report(cmd.OutOrStdout(), false, "read %s: %v", key, err)
						problems++
						continue
					}
					report(cmd.OutOrStdout(), true, "read %s", key)
				}
			}
			if problems > 0 {
				return fmt.Errorf("configuration has %d problem(s)", problems)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "also read every resource")
	return cmd
}

func checkConfig(out io.Writer, cfg *config.Config) int {
	problems := 0
	fmt.Fprintf(out, "config: %s (backend %s)\n", cfg.Filename, cfg.Store.Backend)
	report(out, true, "time zone %s", cfg.Location())
	if cfg.Store.Backend != config.BackendSheets {
		return problems
	}
	if err := sheets.CheckServiceAccount(cfg.Store.Connections.GSheets); err != nil {
		report(out, false, "%v", err)
		problems++
	} else {
		report(out, true, "service account %s", cfg.Store.Connections.GSheets.ClientEmail)
	}
	for _, key := range schema.Resources() {
		ref, ok := cfg.ResourceURL(key)
		if !ok {
			report(out, false, "%s: no url", key)
			problems++
			continue
		}
		id, err := sheets.SpreadsheetID(ref)
		if err != nil {
			report(out, false, "%s: %v", key, err)
			problems++
			continue
		}
		report(out, true, "%s -> %s", key, id)
	}
	return problems
}

func report(out io.Writer, ok bool, format string, args ...interface{}) {
	icon := color.New(color.FgGreen).Sprint("✓")
	if !ok {
		icon = color.New(color.FgRed).Sprint("✗")
	}
	fmt.Fprintf(out, "  %s %s\n", icon, fmt.Sprintf(format, args...))
}
