// Command resetdb wipes every complaint record and rewrites the JSON backup
// as an empty snapshot. Meant for local development, not production.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/civicgrid/complaint-intake/internal/config"
	"github.com/civicgrid/complaint-intake/internal/core/usecase"
	"github.com/civicgrid/complaint-intake/internal/infrastructure/backup/jsonfile"
	"github.com/civicgrid/complaint-intake/internal/infrastructure/repository/sqlite"
	"github.com/civicgrid/complaint-intake/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.NewJSONLogger("resetdb", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx := context.Background()

	db, err := sqlite.OpenDB(cfg.DBPath)
	if err != nil {
		logger.Error("open_database_failed", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := sqlite.NewComplaintRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("ensure_schema_failed", "error", err)
		os.Exit(1)
	}

	admin := usecase.NewAdminUseCase(repo, jsonfile.New(cfg.BackupPath))
	if err := admin.Reset(ctx); err != nil {
		logger.Error("reset_failed", "error", err)
		os.Exit(1)
	}

	logger.Info("database_reset", "db_path", cfg.DBPath, "backup_path", cfg.BackupPath)
}
