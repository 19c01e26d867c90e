package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env  string
	Port int

	DBURL string

	JWTSecret           string
	JWTAccessTTLMinutes int
	JWTRefreshTTLDays   int

	// bootstrap admin, skipped when either field is empty
	AdminEmail    string
	AdminPassword string
	AdminName     string

	CORSOrigins []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OtelEndpoint string

	StatsCacheTTLSeconds int

	// requests per minute; the auth limit guards login/register only
	APIRateLimitPerMin  int
	AuthRateLimitPerMin int

	// cross-project subtask policy, see the tasks handler
	EnforceParentProject bool
}

func Load() Config {
	return Config{
		Env:                 getEnv("APP_ENV", "dev"),
		Port:                getEnvInt("PORT", 8080),
		DBURL:               buildDBURL(),
		JWTSecret:           getEnv("JWT_SECRET", "dev-only-secret"),
		JWTAccessTTLMinutes: getEnvInt("JWT_ACCESS_TTL_MIN", 15),
		JWTRefreshTTLDays:   getEnvInt("JWT_REFRESH_TTL_DAYS", 7),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Administrator"),

		CORSOrigins: splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		OtelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		StatsCacheTTLSeconds: getEnvInt("STATS_CACHE_TTL_SECONDS", 30),

		APIRateLimitPerMin:  getEnvInt("API_RATE_LIMIT_PER_MIN", 300),
		AuthRateLimitPerMin: getEnvInt("AUTH_RATE_LIMIT_PER_MIN", 10),

		EnforceParentProject: getEnvBool("TASKS_ENFORCE_PARENT_PROJECT", false),
	}
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

func (c Config) RefreshTTL() time.Duration {
	return time.Duration(c.JWTRefreshTTLDays) * 24 * time.Hour
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "projectdesk")
	pass := getEnv("DB_PASSWORD", "projectdesk")
	name := getEnv("DB_NAME", "projectdesk")
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
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
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

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)

		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
