package shared

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string

	Store          string
	MySQLDSN       string
	MigrateOnStart bool
	RedisAddr      string
	RedisDB        int
	RedisPass      string

	HotelServiceURL   string
	HotelServiceKey   string
	PaymentServiceURL string
	PaymentServiceKey string
	PaymentTimeout    time.Duration
	UpstreamRPS       int

	HotelIDs      []int64
	Workers       int
	CacheTTL      time.Duration
	PendingTTL    time.Duration
	SweepInterval time.Duration

	CORSOrigins  []string
	MaxBodyBytes int64

	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPassword  string
	SMTPFromName  string
	SMTPFromEmail string
}

// Load reads the environment, after merging a .env file from the working
// directory when one exists. Variables already set win over the file.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg(".env loaded")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		}
		return def
	}
	seconds := func(k string, def int) time.Duration {
		return time.Duration(atoi(k, def)) * time.Second
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8082"),
		MetricsAddr: env("METRICS_ADDR", ""),

		Store:          strings.ToLower(env("STORE", StoreMySQL)),
		MySQLDSN:       env("MYSQL_DSN", "root:root@tcp(localhost:3306)/reservite?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		MigrateOnStart: envBool("MIGRATE_ON_START", false),
		RedisAddr:      envDefined("REDIS_ADDR", "localhost:6379"),
		RedisDB:        atoi("REDIS_DB", 0),
		RedisPass:      env("REDIS_PASSWORD", ""),

		HotelServiceURL:   env("HOTEL_SERVICE_URL", "http://localhost:8084"),
		HotelServiceKey:   env("HOTEL_SERVICE_KEY", ""),
		PaymentServiceURL: env("PAYMENT_SERVICE_URL", "http://localhost:8085"),
		PaymentServiceKey: env("PAYMENT_SERVICE_KEY", ""),
		PaymentTimeout:    seconds("PAYMENT_TIMEOUT_SECONDS", 15),
		UpstreamRPS:       atoi("UPSTREAM_RPS", 5),

		HotelIDs:      parseIDs(env("HOTEL_IDS", "")),
		Workers:       atoi("SYNC_WORKERS", 8),
		CacheTTL:      seconds("CACHE_TTL_SECONDS", 900),
		PendingTTL:    seconds("PENDING_TTL_SECONDS", 1800),
		SweepInterval: seconds("SWEEP_INTERVAL_SECONDS", 60),

		CORSOrigins:  splitList(env("CORS_ORIGINS", "http://localhost:3000")),
		MaxBodyBytes: int64(atoi("MAX_BODY_BYTES", 1<<20)),

		SMTPHost:      env("SMTP_HOST", ""),
		SMTPPort:      atoi("SMTP_PORT", 587),
		SMTPUser:      env("SMTP_USER", ""),
		SMTPPassword:  env("SMTP_PASSWORD", ""),
		SMTPFromName:  env("SMTP_FROM_NAME", "Reservite"),
		SMTPFromEmail: env("SMTP_FROM_EMAIL", "no-reply@reservite.local"),
	}
	if c.SMTPHost == "" {
		log.Info().Msg("SMTP_HOST is empty, confirmation emails disabled")
	}
	return c
}

// Validate reports settings the binaries cannot start with.
func (c Config) Validate() error {
	if c.Store != StoreMySQL && c.Store != StoreMemory {
		return fmt.Errorf("STORE must be %q or %q, got %q", StoreMySQL, StoreMemory, c.Store)
	}
	if c.PendingTTL <= 0 {
		return fmt.Errorf("PENDING_TTL_SECONDS must be positive")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("SYNC_WORKERS must be positive")
	}
	return nil
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// envDefined is env for settings where an explicit empty value means "off":
// the default applies only when k is unset.
func envDefined(k, def string) string {
	if v, ok := os.LookupEnv(k); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parseIDs reads "1, 2,3"; entries that are not positive integers are logged
// and skipped.
func parseIDs(s string) []int64 {
	var out []int64
	for _, p := range splitList(s) {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n <= 0 {
			log.Warn().Str("value", p).Msg("HOTEL_IDS: skipping invalid id")
			continue
		}
		out = append(out, n)
	}
	return out
}
