package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/railseat/config"
	"github.com/Domenick1991/railseat/internal/bootstrap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer app.Close()

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := app.Cache.Ping(checkCtx); err != nil {
		log.Printf("WARNING: redis unavailable: %v", err)
	}
	if err := app.Producer.CheckConnection(checkCtx); err != nil {
		log.Printf("WARNING: kafka unavailable: %v", err)
	}
	cancel()

	router := bootstrap.NewRouter(app.Reservations, app.Schedules, app.Sessions, app.Users)
	if err := bootstrap.Run(ctx, cfg, router); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
