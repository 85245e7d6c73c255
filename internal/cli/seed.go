package cli

import (
	"fmt"

	"classical-quiz-service/internal/config"
	"classical-quiz-service/internal/infra/file"
	pgstore "classical-quiz-service/internal/infra/postgres"
	"classical-quiz-service/internal/logger"
	"github.com/spf13/cobra"
)

// NewSeedCmd loads a catalog file into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var catalogPath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the sample catalog file into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
			if err != nil {
				return err
			}
			defer log.Sync()

			if catalogPath == "" {
				catalogPath = cfg.Catalog.Path
			}
			if catalogPath == "" {
				return fmt.Errorf("no catalog file: set catalog.path or pass --catalog")
			}
			if err := runMigrationsWithConfig(cmd.Context(), cfg, log); err != nil {
				return err
			}

			items, err := file.NewCatalogLoader(catalogPath).LoadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			db := pgstore.OpenDB(cfg.Postgres.URL)
			defer db.Close()

			n, err := pgstore.Seed(cmd.Context(), db, items)
			if err != nil {
				return err
			}
			log.Info("catalog seeded", "path", catalogPath, "samples", len(items), "rows", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog YAML file (defaults to catalog.path)")
	return cmd
}
