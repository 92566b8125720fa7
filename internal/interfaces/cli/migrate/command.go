package migrate

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"helpbot/internal/infrastructure/config"
	"helpbot/internal/infrastructure/database"
	"helpbot/internal/infrastructure/persistence/models"
	"helpbot/internal/shared/logger"
)

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Bring the database schema up to date with the current models.`,
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	cmd.AddCommand(newUpCommand())

	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply schema changes",
		RunE:  runUp,
	}
}

func runUp(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger().Named("migrate")

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	log.Infow("running migrations", "driver", cfg.Database.Driver)

	if err := database.Get().AutoMigrate(
		&models.TicketModel{},
		&models.UserModel{},
		&models.AnalyticsModel{},
		&models.GameModel{},
	); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	log.Infow("migrations completed")
	return nil
}
