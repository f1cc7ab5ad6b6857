package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config конфигурация сервиса
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Logs     LogsConfig     `toml:"logs"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Redis    RedisConfig    `toml:"redis"`
	Booking  BookingConfig  `toml:"booking"`
	Calendar CalendarConfig `toml:"calendar"`
	Sync     SyncConfig     `toml:"sync"`
}

type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`     // секунды
	WriteTimeout    int `toml:"write_timeout"`    // секунды
	IdleTimeout     int `toml:"idle_timeout"`     // секунды
	ShutdownTimeout int `toml:"shutdown_timeout"` // секунды
}

type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// URL строка подключения для golang-migrate
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

type RedisConfig struct {
	Enabled  bool          `toml:"enabled"`
	Addr     string        `toml:"addr"`
	Password string        `toml:"password"`
	DB       int           `toml:"db"`
	SlotsTTL time.Duration `toml:"slots_ttl"`
}

type BookingConfig struct {
	Timezone string `toml:"timezone"` // таймзона площадки, от нее считается "сегодня"
}

type CalendarConfig struct {
	Enabled         bool          `toml:"enabled"`
	CredentialsFile string        `toml:"credentials_file"`
	CalendarID      string        `toml:"calendar_id"`
	Timezone        string        `toml:"timezone"`
	Timeout         time.Duration `toml:"timeout"`
	EventDuration   time.Duration `toml:"event_duration"`
}

type SyncConfig struct {
	PollInterval   time.Duration `toml:"poll_interval"`
	BatchSize      int           `toml:"batch_size"`
	Lease          time.Duration `toml:"lease"`
	RetryBaseDelay time.Duration `toml:"retry_base_delay"`
	RetryMaxDelay  time.Duration `toml:"retry_max_delay"`
}

// Load читает TOML-файл. Перед разбором подставляются переменные окружения ${VAR},
// значения из .env подгружаются, если файл существует
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaults()
	if _, err := toml.Decode(os.ExpandEnv(string(data)), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 30,
		},
		Database: DatabaseConfig{
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Logs: LogsConfig{Level: "info"},
		Metrics: MetricsConfig{
			Path:        "/metrics",
			ServiceName: "agency-booking-service",
		},
		Redis:   RedisConfig{SlotsTTL: 30 * time.Second},
		Booking: BookingConfig{Timezone: "Asia/Almaty"},
		Calendar: CalendarConfig{
			CalendarID:    "primary",
			Timezone:      "Asia/Almaty",
			Timeout:       10 * time.Second,
			EventDuration: time.Hour,
		},
		Sync: SyncConfig{
			PollInterval:   5 * time.Second,
			BatchSize:      20,
			Lease:          time.Minute,
			RetryBaseDelay: 5 * time.Second,
			RetryMaxDelay:  10 * time.Minute,
		},
	}
}

// Validate проверяет обязательные поля
func (c *Config) Validate() error {
	switch {
	case c.Server.HTTPPort <= 0:
		return errors.New("config: server.http_port must be positive")
	case c.Database.Host == "" || c.Database.DBName == "":
		return errors.New("config: database.host and database.dbname are required")
	case c.Redis.Enabled && c.Redis.Addr == "":
		return errors.New("config: redis.addr is required when redis is enabled")
	case c.Calendar.Enabled && c.Calendar.CredentialsFile == "":
		return errors.New("config: calendar.credentials_file is required when calendar is enabled")
	case c.Calendar.Timeout <= 0 || c.Calendar.EventDuration <= 0:
		return errors.New("config: calendar.timeout and calendar.event_duration must be positive")
	case c.Sync.BatchSize <= 0 || c.Sync.PollInterval <= 0 || c.Sync.Lease <= 0:
		return errors.New("config: sync.batch_size, sync.poll_interval and sync.lease must be positive")
	case c.Sync.RetryBaseDelay <= 0 || c.Sync.RetryMaxDelay < c.Sync.RetryBaseDelay:
		return errors.New("config: sync.retry_max_delay must be >= sync.retry_base_delay > 0")
	}

	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		return fmt.Errorf("config: booking.timezone: %w", err)
	}
	if _, err := time.LoadLocation(c.Calendar.Timezone); err != nil {
		return fmt.Errorf("config: calendar.timezone: %w", err)
	}
	return nil
}
