package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvironment    = "development"
	defaultSessionCost    = 10
	defaultWelcomeCredits = 50
	defaultSweepInterval  = 5 * time.Minute
)

type Config struct {
	TelegramToken  string        `mapstructure:"TELEGRAM_TOKEN"`
	DBDSN          string        `mapstructure:"DB_DSN"`
	Environment    string        `mapstructure:"ENV"`
	SessionCost    int64         `mapstructure:"SESSION_COST"`
	WelcomeCredits int64         `mapstructure:"WELCOME_CREDITS"`
	SweepInterval  time.Duration `mapstructure:"SWEEP_INTERVAL"`
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	return FromEnv()
}

// FromEnv собирает конфиг из переменных окружения
func FromEnv() (*Config, error) {
	cfg := &Config{
		DBDSN:         os.Getenv("DB_DSN"),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		Environment:   os.Getenv("ENV"),
	}

	if cfg.Environment == "" {
		cfg.Environment = defaultEnvironment
	}

	var err error
	if cfg.SessionCost, err = intFromEnv("SESSION_COST", defaultSessionCost); err != nil {
		return nil, err
	}
	if cfg.SessionCost <= 0 {
		return nil, fmt.Errorf("SESSION_COST must be positive, got %d", cfg.SessionCost)
	}

	if cfg.WelcomeCredits, err = intFromEnv("WELCOME_CREDITS", defaultWelcomeCredits); err != nil {
		return nil, err
	}
	if cfg.WelcomeCredits < 0 {
		return nil, fmt.Errorf("WELCOME_CREDITS must not be negative, got %d", cfg.WelcomeCredits)
	}

	if cfg.SweepInterval, err = durationFromEnv("SWEEP_INTERVAL", defaultSweepInterval); err != nil {
		return nil, err
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is required but not set")
	}

	return cfg, nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

// IsProduction проверяет, что бот запущен в продакшене
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func intFromEnv(key string, def int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return value, nil
}

func durationFromEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}

	// "0" отключает фоновую задачу
	if raw == "0" {
		return 0, nil
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return value, nil
}
