package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NMFR/website"
	"github.com/NMFR/website/views"
)

var outputDir string

func init() {
	buildCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default: from config)")
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Export the site as static files",
	Long: `Build loads the content directory, runs every post through the
transformation pipeline, and writes the rendered site, sitemap, RSS
feed, and web manifest to the output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := website.LoadConfig(configFile)
		if err != nil {
			return err
		}
		if outputDir != "" {
			cfg.OutputDir = outputDir
		}

		app := website.New(cfg, views.Funcs())
		defer app.Close()

		if err := app.Init(); err != nil {
			return err
		}
		if err := app.ReloadContent(); err != nil {
			return err
		}
		for _, problem := range app.Problems() {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning:", problem)
		}

		result, err := app.Export(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), result.String())
		return nil
	},
}
