package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"studyhub/config"
	"studyhub/db"
	"studyhub/handlers"
)

func main() {
	// A missing .env is fine; the environment itself may be configured.
	godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := config.FromEnv()

	database, err := db.Open(cfg.DatabaseDSN)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(context.Background(), database); err != nil {
		logger.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	transport, err := handlers.NewTransport(cfg)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	server := handlers.NewServer(database, transport, logger)
	router := server.Router(prometheus.DefaultRegisterer)

	logger.Info("server listening", "addr", cfg.Addr, "transport", cfg.AuthTransport)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
