package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	Lock        LockConfig        `yaml:"lock"`
	Reservation ReservationConfig `yaml:"reservation"`
	Worker      WorkerConfig      `yaml:"worker"`
	Session     SessionConfig     `yaml:"session"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	ReservationTopic   string   `yaml:"reservation_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

// LockConfig tunes the per-schedule lock. Backend is "redis" or "postgres".
// A zero TTL keeps a marker until it is released.
type LockConfig struct {
	Backend      string `yaml:"backend"`
	MaxAttempts  int    `yaml:"max_attempts"`
	RetryDelayMS int    `yaml:"retry_delay_ms"`
	TTLSeconds   int    `yaml:"ttl_seconds"`
}

func (l LockConfig) RetryDelay() time.Duration {
	return time.Duration(l.RetryDelayMS) * time.Millisecond
}

func (l LockConfig) TTL() time.Duration {
	return time.Duration(l.TTLSeconds) * time.Second
}

type ReservationConfig struct {
	MaxLookahead         int `yaml:"max_lookahead"`
	BasePrice            int `yaml:"base_price"`
	HoldTTLMinutes       int `yaml:"hold_ttl_minutes"`
	SchedulesCacheTTLSec int `yaml:"schedules_cache_ttl_seconds"`
	InventoryMaxAttempts int `yaml:"inventory_max_attempts"`
}

func (r ReservationConfig) HoldTTL() time.Duration {
	return time.Duration(r.HoldTTLMinutes) * time.Minute
}

func (r ReservationConfig) SchedulesCacheTTL() time.Duration {
	return time.Duration(r.SchedulesCacheTTLSec) * time.Second
}

type WorkerConfig struct {
	ExpirationSweepSeconds int `yaml:"expiration_sweep_seconds"`
}

func (w WorkerConfig) ExpirationSweep() time.Duration {
	return time.Duration(w.ExpirationSweepSeconds) * time.Second
}

// SessionConfig drives the waiting room: a user counts as active for
// IdleTimeoutSeconds after their last reservation activity.
type SessionConfig struct {
	IdleTimeoutSeconds int `yaml:"idle_timeout_seconds"`
	PollingIntervalMS  int `yaml:"polling_interval_ms"`
	MaxActiveUsers     int `yaml:"max_active_users"`
}

func (s SessionConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutSeconds) * time.Second
}

func (s SessionConfig) PollingInterval() time.Duration {
	return time.Duration(s.PollingIntervalMS) * time.Millisecond
}

const (
	LockBackendRedis    = "redis"
	LockBackendPostgres = "postgres"
)

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg = cfg.WithDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Lock.Backend == "" {
		c.Lock.Backend = LockBackendRedis
	}
	if c.Lock.MaxAttempts == 0 {
		c.Lock.MaxAttempts = 10
	}
	if c.Lock.RetryDelayMS == 0 {
		c.Lock.RetryDelayMS = 100
	}
	if c.Reservation.MaxLookahead == 0 {
		c.Reservation.MaxLookahead = 10
	}
	if c.Reservation.BasePrice == 0 {
		c.Reservation.BasePrice = 1000
	}
	if c.Reservation.HoldTTLMinutes == 0 {
		c.Reservation.HoldTTLMinutes = 10
	}
	if c.Reservation.SchedulesCacheTTLSec == 0 {
		c.Reservation.SchedulesCacheTTLSec = 1
	}
	if c.Reservation.InventoryMaxAttempts == 0 {
		c.Reservation.InventoryMaxAttempts = 32
	}
	if c.Worker.ExpirationSweepSeconds == 0 {
		c.Worker.ExpirationSweepSeconds = 30
	}
	if c.Session.IdleTimeoutSeconds == 0 {
		c.Session.IdleTimeoutSeconds = 10
	}
	if c.Session.PollingIntervalMS == 0 {
		c.Session.PollingIntervalMS = 500
	}
	if c.Session.MaxActiveUsers == 0 {
		c.Session.MaxActiveUsers = 5
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "railseat-worker"
	}
	return c
}

func (c *Config) validate() error {
	switch c.Lock.Backend {
	case LockBackendRedis, LockBackendPostgres:
	default:
		return fmt.Errorf("unknown lock backend %q", c.Lock.Backend)
	}
	if c.Lock.MaxAttempts < 0 || c.Lock.RetryDelayMS < 0 || c.Lock.TTLSeconds < 0 {
		return fmt.Errorf("lock settings must not be negative")
	}
	if c.Reservation.MaxLookahead < 0 {
		return fmt.Errorf("reservation.max_lookahead must not be negative")
	}
	if c.Session.IdleTimeoutSeconds < 0 || c.Session.PollingIntervalMS < 0 || c.Session.MaxActiveUsers < 0 {
		return fmt.Errorf("session settings must not be negative")
	}
	return nil
}
