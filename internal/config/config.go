// Package config содержит логику чтения конфигурации клиента парковок.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	defaultAPIAddress  = "http://localhost:3000/api"
	defaultHTTPTimeout = 15 * time.Second
)

// Config содержит параметры конфигурации клиента парковок.
type Config struct {
	APIAddress   string        `env:"PARKING_API_ADDRESS"`
	HTTPTimeout  time.Duration `env:"PARKING_HTTP_TIMEOUT"`
	Email        string        `env:"PARKING_EMAIL"`
	DefaultLotID int64         `env:"PARKING_DEFAULT_LOT"`

	// Args содержит позиционные аргументы после разбора флагов:
	// имя подкоманды и её параметры.
	Args []string `env:"-"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных
// окружения; значения окружения имеют приоритет. Файл .env, если он
// есть рядом, подгружается до разбора.
func Parse(args []string) (*Config, error) {
	// .env опционален, его отсутствие не является ошибкой.
	_ = godotenv.Load()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envAPIAddress := cfg.APIAddress
	envTimeout := cfg.HTTPTimeout
	envEmail := cfg.Email
	envLotID := cfg.DefaultLotID

	fs := flag.NewFlagSet("parkingclient", flag.ContinueOnError)
	fs.StringVar(&cfg.APIAddress, "a", defaultAPIAddress, "base address of the parking API")
	fs.DurationVar(&cfg.HTTPTimeout, "t", defaultHTTPTimeout, "HTTP request timeout")
	fs.StringVar(&cfg.Email, "u", "", "account email for login")
	fs.Int64Var(&cfg.DefaultLotID, "p", 0, "default parking lot id")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if envAPIAddress != "" {
		cfg.APIAddress = envAPIAddress
	}
	if envTimeout != 0 {
		cfg.HTTPTimeout = envTimeout
	}
	if envEmail != "" {
		cfg.Email = envEmail
	}
	if envLotID != 0 {
		cfg.DefaultLotID = envLotID
	}

	if cfg.APIAddress == "" {
		cfg.APIAddress = defaultAPIAddress
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = defaultHTTPTimeout
	}

	cfg.Args = fs.Args()

	return cfg, nil
}
