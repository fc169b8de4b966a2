package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/meridianhq/portal-backend/internal/config"
	"github.com/meridianhq/portal-backend/internal/db"
	"github.com/meridianhq/portal-backend/internal/logger"
	"github.com/meridianhq/portal-backend/internal/model"
	"github.com/meridianhq/portal-backend/internal/server"
	"go.uber.org/zap"
)

var (
	gitSHA    = "dev"
	buildTime = "unknown"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer zl.Sync()

	conn, err := db.Connect(cfg)
	if err != nil {
		zl.Fatal("db connect error", zap.Error(err))
	}
	if err := conn.AutoMigrate(
		&model.Payment{},
		&model.BillingInformation{},
		&model.Purchase{},
		&model.LineItem{},
		&model.TransactionResponse{},
	); err != nil {
		zl.Fatal("auto migrate error", zap.Error(err))
	}

	srv := server.New(conn, cfg, gitSHA, buildTime)

	addr := ":" + cfg.Port
	zl.Info("starting server", zap.String("addr", addr))
	if err := srv.Start(addr); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}
