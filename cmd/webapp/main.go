// Command webapp runs the plugin web UI backend: protected code deployment
// and view management against a secure-computation server, with a local
// sqlite audit trail.
//
// # Configuration
//
// Configuration comes from the environment (a .env file is honored):
//
//	WEBAPP_ADDR         HTTP listen address (default ":8090")
//	WEBAPP_SERVER_URL   Base URL of the secure-computation server (required)
//	WEBAPP_HISTORY_DB   Path to the sqlite audit database (default "history.db")
//
// # Usage
//
//	WEBAPP_SERVER_URL=http://localhost:9876 go run ./cmd/webapp
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cosmian/scs/compute"
	"github.com/cosmian/scs/webapp"
)

type config struct {
	Addr      string `env:"WEBAPP_ADDR" envDefault:":8090"`
	ServerURL string `env:"WEBAPP_SERVER_URL,required"`
	HistoryDB string `env:"WEBAPP_HISTORY_DB" envDefault:"history.db"`
}

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Absent .env files are fine; the environment stands alone.
	godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	history, err := webapp.OpenHistoryStore(cfg.HistoryDB)
	if err != nil {
		log.Fatal("opening history store", zap.Error(err))
	}
	defer history.Close()

	handler := webapp.NewHandler(compute.New(cfg.ServerURL), history, log)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("webapp backend listening",
			zap.String("addr", cfg.Addr),
			zap.String("server_url", cfg.ServerURL))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	log.Info("shutting down webapp backend")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
