package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerAddress = "localhost:8080"
	defaultLogLevel      = "info"
	defaultEnv           = "local"
	defaultConfigDir     = ".wellnest"
)

type Config struct {
	Env           string `mapstructure:"app_env"`
	ServerAddress string `mapstructure:"server_address"`
	LogLevel      string `mapstructure:"log_level"`
	LogFile       string `mapstructure:"log_file"`
	ConfigDir     string `mapstructure:"config_dir"`
	TokenPath     string `mapstructure:"token_path"`
	DataPath      string `mapstructure:"data_path"`
	EnableTLS     bool   `mapstructure:"enable_tls"`

	// ProbeInterval - период проверки доступности сервера
	ProbeInterval time.Duration `mapstructure:"probe_interval"`
	HTTPTimeout   time.Duration `mapstructure:"http_timeout"`

	Cache CacheConfig `mapstructure:"cache"`
}

// CacheConfig настройки кэша запросов
type CacheConfig struct {
	GCTime          time.Duration `mapstructure:"gc_time"`
	StaleTime       time.Duration `mapstructure:"stale_time"`
	PersistThrottle time.Duration `mapstructure:"persist_throttle"`
	MaxAge          time.Duration `mapstructure:"max_age"`
	Buster          string        `mapstructure:"buster"`
	QueryRetries    int           `mapstructure:"query_retries"`
	MutationRetries int           `mapstructure:"mutation_retries"`
}

// MustLoad загружает конфигурацию клиента
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("Ошибка конфигурации: %v", err))
	}
	return cfg
}

// Load загружает конфигурацию из .env, переменных окружения и viper
func Load() (*Config, error) {
	// Определяем путь к .env файлу (относительно места запуска)
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = "../.env"
	}

	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			fmt.Printf("Ошибка загрузки .env файла: %v\n", err)
		}
	}

	viper.AutomaticEnv()

	viper.SetDefault("APP_ENV", defaultEnv)
	viper.SetDefault("SERVER_ADDRESS", defaultServerAddress)
	viper.SetDefault("LOG_LEVEL", defaultLogLevel)
	viper.SetDefault("CONFIG_DIR", defaultConfigDir)
	viper.SetDefault("ENABLE_TLS", false)
	viper.SetDefault("PROBE_INTERVAL_SECONDS", 10)
	viper.SetDefault("HTTP_TIMEOUT_SECONDS", 30)
	viper.SetDefault("CACHE_GC_TIME", "24h")
	viper.SetDefault("CACHE_STALE_TIME", "5m")
	viper.SetDefault("CACHE_PERSIST_THROTTLE", "1s")
	viper.SetDefault("CACHE_MAX_AGE", "168h")
	viper.SetDefault("CACHE_BUSTER", "")
	viper.SetDefault("QUERY_RETRIES", 2)
	viper.SetDefault("MUTATION_RETRIES", 1)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	configDir := viper.GetString("CONFIG_DIR")
	if configDir == defaultConfigDir {
		configDir = filepath.Join(homeDir, configDir)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("ошибка создания директории конфигурации: %w", err)
	}

	tokenPath := viper.GetString("TOKEN_PATH")
	if tokenPath == "" {
		tokenPath = filepath.Join(configDir, "token")
	}
	dataPath := viper.GetString("DATA_PATH")
	if dataPath == "" {
		dataPath = filepath.Join(configDir, "wellnest.db")
	}

	config := &Config{
		Env:           viper.GetString("APP_ENV"),
		ServerAddress: viper.GetString("SERVER_ADDRESS"),
		LogLevel:      viper.GetString("LOG_LEVEL"),
		LogFile:       viper.GetString("LOG_FILE"),
		ConfigDir:     configDir,
		TokenPath:     tokenPath,
		DataPath:      dataPath,
		EnableTLS:     viper.GetBool("ENABLE_TLS"),
		ProbeInterval: time.Duration(viper.GetInt("PROBE_INTERVAL_SECONDS")) * time.Second,
		HTTPTimeout:   time.Duration(viper.GetInt("HTTP_TIMEOUT_SECONDS")) * time.Second,
		Cache: CacheConfig{
			GCTime:          viper.GetDuration("CACHE_GC_TIME"),
			StaleTime:       viper.GetDuration("CACHE_STALE_TIME"),
			PersistThrottle: viper.GetDuration("CACHE_PERSIST_THROTTLE"),
			MaxAge:          viper.GetDuration("CACHE_MAX_AGE"),
			Buster:          viper.GetString("CACHE_BUSTER"),
			QueryRetries:    viper.GetInt("QUERY_RETRIES"),
			MutationRetries: viper.GetInt("MUTATION_RETRIES"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.ServerAddress == "" {
		return fmt.Errorf("server_address не может быть пустым")
	}
	if c.ProbeInterval <= 0 {
		return fmt.Errorf("probe_interval должен быть положительным")
	}
	if c.Cache.StaleTime > c.Cache.GCTime {
		return fmt.Errorf("cache stale_time не может превышать gc_time")
	}
	if c.Cache.QueryRetries < 0 || c.Cache.MutationRetries < 0 {
		return fmt.Errorf("количество повторов не может быть отрицательным")
	}
	return nil
}

// IsProd проверяет, prod ли окружение
func (c *Config) IsProd() bool {
	return c.Env == "prod"
}

// IsLocal проверяет, local ли окружение
func (c *Config) IsLocal() bool {
	return c.Env == "local" || c.Env == ""
}
