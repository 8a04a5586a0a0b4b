package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Sajeel041/FIX-POINT/internal/alerts"
	"github.com/Sajeel041/FIX-POINT/internal/config"
	"github.com/Sajeel041/FIX-POINT/internal/logger"
)

// worker delivers the e-mail alerts enqueued by the API.
func main() {
	cfg := config.Read()
	cfg.ServiceName = "fixpoint-worker"

	log, err := logger.InitLogger(cfg)
	if err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.Alerts.RedisAddr == "" {
		log.Fatal("REDIS_ADDR is required by the worker")
	}

	mailer, err := alerts.NewMailer(cfg.Mail, log.Named("mailer"))
	if err != nil {
		log.Fatal("Failed to configure mailer", zap.Error(err))
	}

	srv := alerts.NewServer(cfg.Alerts, log.Named("asynq"))
	log.Info("Alert worker starting",
		zap.String("redis", cfg.Alerts.RedisAddr),
		zap.String("mail_provider", cfg.Mail.Provider),
	)
	// Run blocks until SIGTERM or SIGINT and drains in-flight tasks.
	if err := srv.Run(alerts.NewProcessor(mailer, log.Named("processor")).Mux()); err != nil {
		log.Fatal("Worker stopped", zap.Error(err))
	}
}
