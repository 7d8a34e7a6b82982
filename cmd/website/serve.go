package main

import (
	"github.com/spf13/cobra"

	"github.com/NMFR/website"
	"github.com/NMFR/website/views"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the site over HTTP",
	Long: `Serve loads the content directory, runs every post through the
transformation pipeline, and serves the site with the admin surface
enabled. Content files are watched and reloaded on change.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := website.LoadConfig(configFile)
		if err != nil {
			return err
		}
		app := website.New(cfg, views.Funcs())
		defer app.Close()
		return app.Start()
	},
}
