// Package cli holds the tpcollect operator commands.
package cli

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"tpcollect/pkg/app"
	"tpcollect/pkg/config"
)

var (
	configPath string
	verbose    bool
)

// RootCmd returns the tpcollect command tree.
func RootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tpcollect",
		Short: "Lab course measurement collection",
		Long: `tpcollect serves the measurement forms of the plant physiology practicals
and appends every submission to its spreadsheet.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
			log.SetFormatter(&log.TextFormatter{
				FullTimestamp: true,
			})
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the toml config (default $"+config.EnvFilename+" or "+config.DefaultFilename+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(ServeCmd())
	rootCmd.AddCommand(SchemasCmd())
	rootCmd.AddCommand(ExportCmd())
	rootCmd.AddCommand(CheckCmd())
	rootCmd.AddCommand(PlantIDCmd())
	return rootCmd
}

func loadApp() (*app.App, error) {
	cfg, err := config.NewDatastore(configPath)
	if err != nil {
		return nil, err
	}
	return app.New(cfg)
}
