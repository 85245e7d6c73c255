package cli

import (
	"fmt"

	"classical-quiz-service/internal/config"
	"classical-quiz-service/internal/logger"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewCatalogCmd prints the configured catalog as a table.
func NewCatalogCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the samples of the configured catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(*configPath)
			if err != nil {
				return err
			}
			cfg.Audio.Enabled = false

			deps, err := buildComponents(cmd.Context(), cfg, logger.Nop(), false)
			if err != nil {
				return err
			}
			defer deps.Close()

			items, err := deps.loader.LoadCatalog(cmd.Context())
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"ID", "Composer", "Title", "Portrait", "Sample"})
			for _, item := range items {
				t.AppendRow(table.Row{item.ID, item.Composer, item.Title, item.Portrait, item.URI})
			}
			t.AppendFooter(table.Row{"", "", "", "Total", fmt.Sprintf("%d", len(items))})
			t.Render()
			return nil
		},
	}
}
