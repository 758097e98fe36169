package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures everything the server needs from the environment.
type Config struct {
	Addr        string
	DatabaseURL string
	HTTP        HTTPConfig
	Redis       RedisConfig
	Geolocation GeolocationConfig
}

// HTTPConfig configures server-side timeouts. Complaint payloads are small,
// so the defaults lean conservative.
type HTTPConfig struct {
	ReadHeaderTimeout time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// RedisConfig configures the optional Redis connection. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// GeolocationConfig configures the outbound country lookup client.
// CacheTTL of zero disables the Redis-backed lookup cache, keeping the
// one-resolution-per-submission behavior exact.
type GeolocationConfig struct {
	BaseURL        string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	CacheTTL       time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Addr:        envString("COMPLAINTDESK_ADDR", ":8080"),
		DatabaseURL: envString("COMPLAINTDESK_DATABASE_URL", ""),
		HTTP: HTTPConfig{
			ReadHeaderTimeout: envDuration("COMPLAINTDESK_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
			IdleTimeout:       envDuration("COMPLAINTDESK_HTTP_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout:   envDuration("COMPLAINTDESK_HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			URL:          envString("COMPLAINTDESK_REDIS_URL", ""),
			PoolSize:     envInt("COMPLAINTDESK_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("COMPLAINTDESK_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("COMPLAINTDESK_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("COMPLAINTDESK_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("COMPLAINTDESK_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Geolocation: GeolocationConfig{
			BaseURL:        envString("GEOLOCATION_URL", "http://localhost:8081"),
			ConnectTimeout: envDuration("GEOLOCATION_CONNECT_TIMEOUT", 2*time.Second),
			ReadTimeout:    envDuration("GEOLOCATION_READ_TIMEOUT", 2*time.Second),
			CacheTTL:       envDuration("GEOLOCATION_CACHE_TTL", 0),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
