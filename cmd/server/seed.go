package main

import (
	"fmt"

	"github.com/ashureev/cleia/internal/seed"
	"github.com/spf13/cobra"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load domains and personas from a YAML catalog",
	Long: `Loads a catalog of domains and personas into the database. Existing domains
and personas are matched by name and left untouched, so the command can be re-run.

Example:
  cleia seed --file catalog.yaml`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		catalog, err := seed.LoadFile(seedFile)
		if err != nil {
			return err
		}

		repo, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(repo)

		if cfg.AutoMigrate {
			if err := repo.Migrate(); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
		}

		res, err := seed.Apply(cmd.Context(), repo, catalog)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "domains: %d created, %d existing; personas: %d created, %d skipped\n",
			res.DomainsCreated, res.DomainsExisting, res.PersonasCreated, res.PersonasSkipped)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "catalog.yaml", "catalog YAML file")
}
