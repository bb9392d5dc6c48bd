package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	API       APIConfig
	Cron      CronConfig
	AutoGen   AutoGenConfig
	Generator GeneratorConfig
	Email     EmailConfig
	Telegram  TelegramConfig
	NATS      NATSConfig
}

type ServerConfig struct {
	Port     int
	Env      string // "development", "production"
	LogLevel string
}

type DatabaseConfig struct {
	Host    string
	Port    string
	Name    string
	User    string
	Pass    string
	Charset string
}

type RedisConfig struct {
	Addr string
	Pass string
	DB   int
}

type APIConfig struct {
	Key string
}

type CronConfig struct {
	Secret    string
	Enabled   bool
	Spec      string
	// Read notifications and finished sweep runs older than this are purged.
	Retention time.Duration
}

type AutoGenConfig struct {
	MaxRetries int
	RetryDelay time.Duration
	LeaseTTL   time.Duration
}

type GeneratorConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

type EmailConfig struct {
	ResendAPIKey string
	From         string
	AppURL       string
}

type TelegramConfig struct {
	Token string
}

type NATSConfig struct {
	URL string
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Server: ServerConfig{
			Port:     v.GetInt("APP_PORT"),
			Env:      v.GetString("APP_ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			Host:    v.GetString("DB_HOST"),
			Port:    v.GetString("DB_PORT"),
			Name:    v.GetString("DB_NAME"),
			User:    v.GetString("DB_USER"),
			Pass:    v.GetString("DB_PASS"),
			Charset: v.GetString("DB_CHARSET"),
		},
		Redis: RedisConfig{
			Addr: v.GetString("REDIS_ADDR"),
			Pass: v.GetString("REDIS_PASS"),
			DB:   v.GetInt("REDIS_DB"),
		},
		API: APIConfig{
			Key: v.GetString("API_KEY"),
		},
		Cron: CronConfig{
			Secret:    v.GetString("CRON_SECRET"),
			Enabled:   v.GetBool("CRON_ENABLED"),
			Spec:      v.GetString("CRON_SPEC"),
			Retention: duration(v, "NOTIFICATION_RETENTION", 30*24*time.Hour),
		},
		AutoGen: AutoGenConfig{
			MaxRetries: v.GetInt("AUTOGEN_MAX_RETRIES"),
			RetryDelay: duration(v, "AUTOGEN_RETRY_DELAY", time.Hour),
			LeaseTTL:   duration(v, "AUTOGEN_LEASE_TTL", 10*time.Minute),
		},
		Generator: GeneratorConfig{
			URL:     v.GetString("GENERATOR_URL"),
			Token:   v.GetString("GENERATOR_TOKEN"),
			Timeout: duration(v, "GENERATOR_TIMEOUT", 60*time.Second),
		},
		Email: EmailConfig{
			ResendAPIKey: v.GetString("RESEND_API_KEY"),
			From:         v.GetString("EMAIL_FROM"),
			AppURL:       v.GetString("APP_URL"),
		},
		Telegram: TelegramConfig{
			Token: v.GetString("TELEGRAM_BOT_TOKEN"),
		},
		NATS: NATSConfig{
			URL: v.GetString("NATS_URL"),
		},
	}

	if cfg.AutoGen.MaxRetries < 0 {
		log.Printf("WARNING: invalid AUTOGEN_MAX_RETRIES=%d, using 2", cfg.AutoGen.MaxRetries)
		cfg.AutoGen.MaxRetries = 2
	}

	if cfg.Database.Name == "" {
		log.Println("WARNING: DB_NAME is not set")
	}
	if cfg.Generator.URL == "" {
		log.Println("WARNING: GENERATOR_URL is not set")
	}
	if cfg.Cron.Secret == "" {
		log.Println("WARNING: CRON_SECRET is not set, /api/cron is disabled")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", 8080)
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_CHARSET", "utf8mb4")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CRON_ENABLED", true)
	v.SetDefault("CRON_SPEC", "@every 1m")
	v.SetDefault("AUTOGEN_MAX_RETRIES", 2)
	v.SetDefault("EMAIL_FROM", "Trade Ideas <notifications@example.com>")
	v.SetDefault("APP_URL", "http://localhost:3000")
}

// duration accepts Go duration strings; anything unparsable falls back.
func duration(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	raw := v.GetString(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("WARNING: invalid %s=%q, using %s", key, raw, fallback)
		return fallback
	}
	return d
}

// IsDevelopment reports whether APP_ENV selects development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// DSN returns the MySQL DSN string for GORM.
func (d *DatabaseConfig) DSN() string {
	return d.User + ":" + d.Pass + "@tcp(" + d.Host + ":" + d.Port + ")/" + d.Name + "?charset=" + d.Charset + "&parseTime=True&loc=UTC"
}
