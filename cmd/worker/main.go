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
	"github.com/Domenick1991/railseat/internal/kafka"
	"github.com/Domenick1991/railseat/internal/notify"
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

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	notifier := notify.NewNotifier(os.Stdout)

	go func() {
		err := consumer.ConsumeEvents(ctx, func(ctx context.Context, event kafka.ReservationEvent) error {
			if err := notifier.Send(ctx, event); err != nil {
				log.Printf("worker: notify: %v", err)
			}
			return nil
		})
		if err != nil && ctx.Err() == nil {
			log.Printf("consumer stopped: %v", err)
		}
	}()

	sweep := time.NewTicker(cfg.Worker.ExpirationSweep())
	defer sweep.Stop()

	for {
		select {
		case <-sweep.C:
			expired, err := app.Reservations.ExpireStale(ctx)
			if err != nil {
				log.Printf("expire reservations error: %v", err)
				continue
			}
			if len(expired) > 0 {
				log.Printf("expired %d reservations", len(expired))
			}
		case <-ctx.Done():
			log.Printf("shutting down worker")
			return
		}
	}
}
