package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NMFR/website"
	"github.com/NMFR/website/content"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the config and every content file",
	Long: `Validate loads the configuration and every content file, reporting
frontmatter and pipeline problems without writing anything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := website.LoadConfig(configFile)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}

		docs, problems, err := content.Load(cfg.ContentDir, cfg.ContentGlob)
		if err != nil {
			return err
		}

		for _, p := range problems {
			fmt.Fprintln(cmd.ErrOrStderr(), "problem:", p.String())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d valid documents, %d problems\n", len(docs), len(problems))
		if len(problems) > 0 {
			return fmt.Errorf("%d content files failed validation", len(problems))
		}
		return nil
	},
}
