package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rupaya-app/rupaya/internal/auth"
	"github.com/rupaya-app/rupaya/internal/config"
	"github.com/rupaya-app/rupaya/internal/handlers"
	"github.com/rupaya-app/rupaya/internal/middleware"
	"github.com/rupaya-app/rupaya/internal/service"
	"github.com/rupaya-app/rupaya/internal/storage/sqlite"
	"github.com/rupaya-app/rupaya/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("storage initialized", "database", cfg.DBPath)

	jwtManager := auth.NewJWTManager(cfg.JWTKey, cfg.TokenTTL)
	authenticator := auth.NewPasswordAuthenticator(store)

	groupService := service.NewGroupService(store)
	billService := service.NewBillService(store, groupService)
	summaryService := service.NewSummaryService(store, groupService)
	authService := service.NewAuthService(store, authenticator, jwtManager)

	router := handlers.NewRouter(
		handlers.NewAuthHandler(authService),
		handlers.NewGroupHandler(groupService),
		handlers.NewBillHandler(billService),
		handlers.NewSummaryHandler(summaryService),
		middleware.NewAuth(jwtManager),
	)

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}
