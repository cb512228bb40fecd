package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"pharmatrack/m/internal/api"
	"pharmatrack/m/internal/config"
	"pharmatrack/m/internal/database"
	"pharmatrack/m/internal/migrations"
	"pharmatrack/m/internal/pharmacy"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := config.NewLogger(cfg)

	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	svc := pharmacy.NewService(pharmacy.NewStore(db))
	handler, err := api.New(svc, logger, cfg)
	if err != nil {
		logger.Error("build handler", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("pharmatrack server starting", slog.String("addr", cfg.AppAddr))
	if err := http.ListenAndServe(cfg.AppAddr, handler.Router()); err != nil {
		logger.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}
}
