package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// devSecret is only accepted when APP_ENV is dev or test.
const devSecret = "01230123012301230123012301230123"

const minSecretLen = 32

type Config struct {
	Env   string
	Port  int
	DBURL string

	// UsersStore is "postgres" or "memory"
	UsersStore string

	DBMaxConns       int32
	DBAcquireTimeout time.Duration

	SecretKey     string
	CookieName    string
	CookieDomain  string
	CookieSecure  bool
	SessionTTL    time.Duration
	MaxBodyBytes  int64
	AllowedOrigin []string

	JWTAccessTTLMinutes int

	LoginRateLimit  int
	LoginRateWindow time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OTLPEndpoint    string
	ServiceName     string
	OTelSampleRatio float64
}

func Load() Config {
	// a missing .env file is fine, real deployments use the environment
	_ = godotenv.Load()

	return Config{
		Env:   getEnv("APP_ENV", "dev"),
		Port:  getEnvInt("PORT", 8080),
		DBURL: buildDBURL(),

		UsersStore: getEnv("USERS_STORE", "postgres"),

		DBMaxConns:       int32(getEnvInt("DB_MAX_CONNS", 10)),
		DBAcquireTimeout: getEnvDuration("DB_ACQUIRE_TIMEOUT", 3*time.Second),

		SecretKey:     getEnv("SECRET_KEY", devSecret),
		CookieName:    getEnv("COOKIE_NAME", "_ged"),
		CookieDomain:  getEnv("COOKIE_DOMAIN", getEnv("DOMAIN", "localhost")),
		CookieSecure:  getEnvBool("COOKIE_SECURE", false),
		SessionTTL:    getEnvDuration("SESSION_TTL", 24*time.Hour),
		MaxBodyBytes:  int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),
		AllowedOrigin: getEnvList("CORS_ALLOWED_ORIGINS"),

		JWTAccessTTLMinutes: getEnvInt("JWT_ACCESS_TTL_MINUTES", 15),

		LoginRateLimit:  getEnvInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow: getEnvDuration("LOGIN_RATE_WINDOW", time.Minute),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:     getEnv("OTEL_SERVICE_NAME", "userhub-api"),
		OTelSampleRatio: getEnvFloat("OTEL_SAMPLE_RATIO", 1),
	}
}

// Validate reports configuration that would make cookies forgeable or the
// server unusable.
func (c Config) Validate() error {
	if len(c.SecretKey) < minSecretLen {
		return fmt.Errorf("SECRET_KEY must be at least %d bytes", minSecretLen)
	}

	if c.SecretKey == devSecret && c.Env != "dev" && c.Env != "test" {
		return errors.New("SECRET_KEY must be set outside dev")
	}

	if c.CookieName == "" {
		return errors.New("COOKIE_NAME must not be empty")
	}

	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}

	if c.UsersStore != "postgres" && c.UsersStore != "memory" {
		return fmt.Errorf("USERS_STORE must be postgres or memory, got %q", c.UsersStore)
	}

	if c.DBMaxConns <= 0 {
		return errors.New("DB_MAX_CONNS must be positive")
	}

	return nil
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

func buildDBURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "userhub")
	pass := getEnv("DB_PASSWORD", "userhub")
	name := getEnv("DB_NAME", "userhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)
		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return b
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fallback
		}
		return d
	}
	return fallback
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
