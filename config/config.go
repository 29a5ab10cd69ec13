package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the agent reads from the environment.
type Config struct {
	Port string

	BackendURL   string
	BackendWSURL string
	BackendToken string

	JWTSecret   string
	AgentUserID string

	MongoURI  string
	MongoDB   string
	RedisAddr string

	ReconnectBase time.Duration
	ReconnectCap  time.Duration

	AvailabilityCacheTTL time.Duration
	RateLimitPerSec      int

	PublicSiteURL string
}

// Load reads .env (if present) and returns a populated Config.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	return &Config{
		Port: normalizePort(os.Getenv("PORT")),

		BackendURL:   getEnv("BACKEND_URL", "http://localhost:4000/api"),
		BackendWSURL: getEnv("BACKEND_WS_URL", "ws://localhost:4000/ws/notifications"),
		BackendToken: os.Getenv("BACKEND_TOKEN"),

		JWTSecret:   getEnv("JWT_SECRET", "change-me"),
		AgentUserID: getEnv("AGENT_USER_ID", "villas-agent"),

		MongoURI:  os.Getenv("MONGO_URI"),
		MongoDB:   getEnv("MONGO_DB", "villas"),
		RedisAddr: os.Getenv("REDIS_ADDR"),

		ReconnectBase: time.Duration(getEnvInt("RECONNECT_BASE_MS", 1000)) * time.Millisecond,
		ReconnectCap:  time.Duration(getEnvInt("RECONNECT_CAP_MS", 30000)) * time.Millisecond,

		AvailabilityCacheTTL: time.Duration(getEnvInt("AVAILABILITY_CACHE_TTL_MIN", 10)) * time.Minute,
		RateLimitPerSec:      getEnvInt("RATE_LIMIT_PER_SEC", 5),

		PublicSiteURL: getEnv("PUBLIC_SITE_URL", "http://localhost:3000"),
	}
}

func normalizePort(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] != ':' {
		return ":" + port
	}
	return port
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil && n > 0 {
			return n
		}
		log.Printf("⚠️ invalid %s=%q, using %d", key, val, fallback)
	}
	return fallback
}
