package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ModePolling = "polling"
	ModeWebhook = "webhook"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	SessionMemory = "memory"
	SessionRedis  = "redis"
)

// Config ilovaning konfiguratsiyasi
type Config struct {
	TelegramToken string
	AdminChatID   int64
	Environment   string
	LogLevel      string

	Mode        string
	HTTPAddr    string
	WebhookPath string

	DBDriver    string
	DBPath      string
	PostgresDSN string

	SessionStore  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration

	SeqURL   string
	SeqToken string

	PublicBaseURL string
	ContactPhone  string
	ContactEmail  string
}

// Load konfiguratsiyani yuklash
func Load() (*Config, error) {
	// .env faylini yuklash (mavjud bo'lsa)
	_ = godotenv.Load()

	config := &Config{
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Mode:          strings.ToLower(getEnv("BOT_MODE", ModePolling)),
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		WebhookPath:   getEnv("WEBHOOK_PATH", "/webhook"),
		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
		DBPath:        getEnv("DB_PATH", "data/cars.db"),
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		SessionStore:  strings.ToLower(getEnv("SESSION_STORE", SessionMemory)),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		SeqURL:        os.Getenv("SEQ_URL"),
		SeqToken:      os.Getenv("SEQ_TOKEN"),
		PublicBaseURL: strings.TrimRight(os.Getenv("PUBLIC_BASE_URL"), "/"),
		ContactPhone:  getEnv("CONTACT_PHONE", "+996 555 123 456"),
		ContactEmail:  getEnv("CONTACT_EMAIL", "info@suvtekin.kg"),
	}

	if rawID := os.Getenv("ADMIN_CHAT_ID"); rawID != "" {
		parsed, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_CHAT_ID noto'g'ri formatda: %v", err)
		}
		config.AdminChatID = parsed
	}

	redisDB, err := getEnvAsInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	config.RedisDB = redisDB

	ttlHours, err := getEnvAsInt("SESSION_TTL_HOURS", 24)
	if err != nil {
		return nil, err
	}
	config.SessionTTL = time.Duration(ttlHours) * time.Hour

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate qiymatlarni tekshirish
func (c *Config) validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable bo'sh")
	}

	switch c.Mode {
	case ModePolling, ModeWebhook:
	default:
		return fmt.Errorf("BOT_MODE noma'lum: %q (polling yoki webhook)", c.Mode)
	}

	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH bo'sh bo'lmasligi kerak")
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("DB_DRIVER=postgres uchun POSTGRES_DSN kerak")
		}
	default:
		return fmt.Errorf("DB_DRIVER noma'lum: %q", c.DBDriver)
	}

	switch c.SessionStore {
	case SessionMemory, SessionRedis:
	default:
		return fmt.Errorf("SESSION_STORE noma'lum: %q", c.SessionStore)
	}

	if !strings.HasPrefix(c.WebhookPath, "/") {
		return fmt.Errorf("WEBHOOK_PATH '/' bilan boshlanishi kerak: %q", c.WebhookPath)
	}

	return nil
}

// IsProduction production muhitimi
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultVal, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s noto'g'ri formatda: %v", key, err)
	}
	return val, nil
}
