package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath  = ".env"
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	defaultRunAddress = ":8080"
	defaultMigrations = "migrations"
	defaultSecret     = "dev-secret-change-in-production"
)

type Config struct {
	Env    string
	DB     db
	Server server
	Logger logger
	Auth   auth
	Ledger ledger
}

type db struct {
	DatabaseURI string `env:"DATABASE_URI"`
	Migrations  string `env:"MIGRATIONS_PATH"`
}

type server struct {
	RunAddress string `env:"RUN_ADDRESS"`
}

type logger struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

type auth struct {
	Secret   string        `env:"JWT_SECRET"`
	TokenTTL time.Duration `env:"TOKEN_TTL"`
}

// ledger - журнал примененных операций в Redis (опционально)
type ledger struct {
	RedisURL string        `env:"REDIS_URL"`
	TTL      time.Duration `env:"LEDGER_TTL"`
}

// MustLoad загружает конфигурацию сервера из окружения и .env
func MustLoad() *Config {
	config := load()
	if err := config.validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	return config
}

// MustLoadAuth загружает конфигурацию для команд, которым нужна только подпись токенов
func MustLoadAuth() *Config {
	config := load()
	if err := config.validateAuth(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	return config
}

func load() *Config {
	if err := godotenv.Load(envPath); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	viper.AutomaticEnv()
	viper.SetDefault("APP_ENV", EnvLocal)
	viper.SetDefault("RUN_ADDRESS", defaultRunAddress)
	viper.SetDefault("MIGRATIONS_PATH", defaultMigrations)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("JWT_SECRET", defaultSecret)
	viper.SetDefault("TOKEN_TTL", "720h")
	viper.SetDefault("LEDGER_TTL", "168h")

	return &Config{
		Env: viper.GetString("APP_ENV"),
		DB: db{
			DatabaseURI: viper.GetString("DATABASE_URI"),
			Migrations:  viper.GetString("MIGRATIONS_PATH"),
		},
		Server: server{RunAddress: viper.GetString("RUN_ADDRESS")},
		Logger: logger{LogLevel: viper.GetString("LOG_LEVEL")},
		Auth: auth{
			Secret:   viper.GetString("JWT_SECRET"),
			TokenTTL: viper.GetDuration("TOKEN_TTL"),
		},
		Ledger: ledger{
			RedisURL: viper.GetString("REDIS_URL"),
			TTL:      viper.GetDuration("LEDGER_TTL"),
		},
	}
}

func (c *Config) validate() error {
	if c.DB.DatabaseURI == "" {
		return fmt.Errorf("DATABASE_URI is required")
	}
	return c.validateAuth()
}

func (c *Config) validateAuth() error {
	if c.Auth.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Env == EnvProd && c.Auth.Secret == defaultSecret {
		return fmt.Errorf("JWT_SECRET must be set in prod")
	}
	return nil
}
