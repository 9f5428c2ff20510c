// C-LEIA - requirements elicitation API server
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ashureev/cleia/internal/config"
	"github.com/ashureev/cleia/internal/store"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	envFile  string
	cfg      *config.Config
	logLevel = new(slog.LevelVar)
)

var rootCmd = &cobra.Command{
	Use:   "cleia",
	Short: "C-LEIA requirements elicitation API",
	Long: `C-LEIA serves the requirements-elicitation exercise: students pick a business
domain and a simulated stakeholder persona, interview it through a local LLM and
submit their requirements. Running without a subcommand starts the server.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig(_ *cobra.Command, _ []string) error {
	if err := godotenv.Load(envFile); err != nil {
		slog.Info("No .env file found, using environment variables", "path", envFile)
	}

	loaded, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	cfg = loaded
	logLevel.Set(cfg.SlogLevel())
	return nil
}

// openStore opens the configured database and verifies it answers.
func openStore() (*store.SQLStore, error) {
	repo, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	slog.Info("Database connected", "dialect", repo.Dialect().Name)
	return repo, nil
}

func closeStore(repo *store.SQLStore) {
	if err := repo.Close(); err != nil {
		slog.Error("Failed to close repository", "error", err)
	}
}
