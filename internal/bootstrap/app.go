package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/Domenick1991/railseat/config"
	"github.com/Domenick1991/railseat/internal/cache"
	"github.com/Domenick1991/railseat/internal/clock"
	"github.com/Domenick1991/railseat/internal/inventory"
	"github.com/Domenick1991/railseat/internal/kafka"
	"github.com/Domenick1991/railseat/internal/lock"
	"github.com/Domenick1991/railseat/internal/payment"
	"github.com/Domenick1991/railseat/internal/pricing"
	"github.com/Domenick1991/railseat/internal/repository"
	"github.com/Domenick1991/railseat/internal/service/reservation"
	"github.com/Domenick1991/railseat/internal/service/schedules"
	"github.com/Domenick1991/railseat/internal/service/session"
	"github.com/Domenick1991/railseat/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
)

// App holds the wired services shared by the HTTP server and the worker.
type App struct {
	Pool         *pgxpool.Pool
	Cache        *cache.RedisCache
	Producer     *kafka.Producer
	Users        repository.UserRepository
	Reservations *reservation.Service
	Schedules    *schedules.ScheduleService
	Sessions     *session.Service
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := migrations.Apply(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Reservation.SchedulesCacheTTL())
	producer := kafka.NewProducer(cfg.Kafka.Brokers)

	app := &App{Pool: pool, Cache: redisCache, Producer: producer}
	if err := app.wire(cfg); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) wire(cfg *config.Config) error {
	lockStore, err := newLockStore(cfg.Lock, a.Pool, a.Cache)
	if err != nil {
		return err
	}
	locks := lock.NewManager(lockStore,
		lock.WithMaxAttempts(cfg.Lock.MaxAttempts),
		lock.WithRetryDelay(cfg.Lock.RetryDelay()),
	)

	scheduleRepo := repository.NewScheduleRepository(a.Pool)
	reservationRepo := repository.NewReservationRepository(a.Pool)
	settingsRepo := repository.NewSettingsRepository(a.Pool)
	a.Users = repository.NewUserRepository(a.Pool)

	seats := inventory.New(repository.NewInventoryStore(a.Pool),
		inventory.WithMaxAttempts(cfg.Reservation.InventoryMaxAttempts))
	system := clock.NewSystem()
	world := clock.NewWorld(system, settingsRepo)

	a.Reservations = reservation.NewService(
		scheduleRepo,
		reservationRepo,
		seats,
		locks,
		payment.NewOffline(0),
		a.Producer,
		world,
		cfg.Kafka.ReservationTopic,
		reservation.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		reservation.WithMaxLookahead(cfg.Reservation.MaxLookahead),
		reservation.WithHoldTTL(cfg.Reservation.HoldTTL()),
		reservation.WithPricing(pricing.NewCalculator(cfg.Reservation.BasePrice)),
		reservation.WithClock(system),
	)
	a.Schedules = schedules.NewScheduleService(scheduleRepo, settingsRepo, seats, locks, a.Cache, world, system)
	a.Sessions = session.NewService(a.Users, system,
		session.WithIdleTimeout(cfg.Session.IdleTimeout()),
		session.WithPollingInterval(cfg.Session.PollingInterval()),
		session.WithMaxActiveUsers(cfg.Session.MaxActiveUsers),
	)
	return nil
}

func newLockStore(cfg config.LockConfig, pool *pgxpool.Pool, kv lock.KeyValueLocker) (lock.Store, error) {
	switch cfg.Backend {
	case config.LockBackendRedis:
		return lock.FromKeyValue(kv, cfg.TTL()), nil
	case config.LockBackendPostgres:
		return repository.NewLockStore(pool, cfg.TTL()), nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Backend)
	}
}

func (a *App) Close() {
	if a.Producer != nil {
		if err := a.Producer.Close(); err != nil {
			log.Printf("bootstrap: close producer: %v", err)
		}
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			log.Printf("bootstrap: close redis: %v", err)
		}
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}
