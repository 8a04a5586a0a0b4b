package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Sajeel041/FIX-POINT/internal/alerts"
	"github.com/Sajeel041/FIX-POINT/internal/auth"
	"github.com/Sajeel041/FIX-POINT/internal/config"
	"github.com/Sajeel041/FIX-POINT/internal/db"
	"github.com/Sajeel041/FIX-POINT/internal/logger"
	"github.com/Sajeel041/FIX-POINT/internal/marketplace"
	"github.com/Sajeel041/FIX-POINT/internal/messaging"
	"github.com/Sajeel041/FIX-POINT/internal/server"
	"github.com/Sajeel041/FIX-POINT/internal/tracing"
	"github.com/Sajeel041/FIX-POINT/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.InitLogger(cfg)
	if err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	st, err := db.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}

	engineOpts := []marketplace.Option{
		marketplace.WithLogger(log.Named("marketplace")),
		marketplace.WithReconcileGrace(cfg.Lifecycle.ReconcileGrace),
	}
	chatOpts := []messaging.Option{messaging.WithLogger(log.Named("chat"))}
	var authOpts []auth.Option

	// Alerts are optional; without Redis nothing is enqueued.
	if cfg.Alerts.RedisAddr != "" {
		client := alerts.NewClient(cfg.Alerts)
		defer client.Close()
		queue := alerts.NewQueue(client, st, cfg.Alerts.AppURL, log.Named("alerts"))
		engineOpts = append(engineOpts, marketplace.WithNotifier(queue))
		chatOpts = append(chatOpts, messaging.WithNotifier(queue))
		authOpts = append(authOpts, auth.WithWelcomer(queue))
		log.Info("Alerts enabled", zap.String("redis", cfg.Alerts.RedisAddr))
	}

	var hub *messaging.Hub
	if cfg.Chat.PushEnabled {
		hub = messaging.NewHub(log.Named("hub"), cfg.Server.AllowedOrigins)
		chatOpts = append(chatOpts, messaging.WithHub(hub))
	}

	engine := marketplace.NewEngine(st, engineOpts...)
	e := server.New(server.Deps{
		Config:      cfg,
		Store:       st,
		Tokens:      utils.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL),
		Engine:      engine,
		Chat:        messaging.NewService(st, chatOpts...),
		Hub:         hub,
		AuthOptions: authOpts,
		Log:         log,
	})

	go engine.RunReconciler(ctx, cfg.Lifecycle.ReconcileInterval)

	go func() {
		log.Info("API server listening", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
	if err := st.Close(shutdownCtx); err != nil {
		log.Error("Store close failed", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("Tracer shutdown failed", zap.Error(err))
	}
}
