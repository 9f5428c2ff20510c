package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(_ *cobra.Command, _ []string) error {
		repo, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(repo)

		if err := repo.Migrate(); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		return nil
	},
}
