package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoPolymarket/vaultscope/internal/app"
	"github.com/GoPolymarket/vaultscope/internal/config"
	"github.com/GoPolymarket/vaultscope/internal/handler"
	"github.com/GoPolymarket/vaultscope/internal/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize Logger
	logger.Init(cfg.Log.Level)

	// 3. Initialize Sources, Services and Snapshot Store
	a := app.New(cfg)
	defer a.Close()

	// 4. Initialize Handlers
	vaultHandler := handler.NewVaultHandler(a.Vaults, a.Aggregator, cfg.Vaults.PageSize)
	riskHandler := handler.NewRiskHandler()

	// 5. Setup Router
	gin.SetMode(gin.ReleaseMode)
	r := handler.NewRouter(cfg, vaultHandler, riskHandler)

	// 6. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("vaultscope started", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	logger.Info("server exiting")
}
