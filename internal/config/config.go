package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Catalog source
	CatalogURL     string        // http(s):// endpoint or file:// path to a JSON/YAML catalog
	CatalogTimeout time.Duration // per-request timeout
	CatalogRate    time.Duration // minimum spacing between outbound fetches (0 = unlimited)
	ReloadInterval time.Duration // periodic catalog refresh (default: 6h)

	// Bag store
	DBPath string // SQLite database file

	// Redis (optional cache, empty addr = disabled)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password when Redis is enabled
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	// Recommendation engine
	Engine        string        // "genai" | "openai"
	EngineAPIKey  string        // empty disables recommendations
	EngineModel   string        // empty => engine default
	EngineBaseURL string        // optional override for OpenAI-compatible endpoints
	EngineTimeout time.Duration // per-call timeout

	// Sessions
	SearchDebounce       time.Duration // quiet period before typed search is committed
	SessionIdleTTL       time.Duration // sessions idle longer than this are evicted
	SessionSweepInterval time.Duration // how often the sweeper runs

	// Access restrictions
	AllowedHosts []string // optional, restrict ops routes to specific Host headers
	AllowedCIDRS []string // optional, restrict ops routes to specific IPs / CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	CORSOrigins  []string // optional, origins allowed to call the API from a browser

	// Per-IP limit on analysis triggers
	RecommendBurst  int
	RecommendPerMin int
}

func Load() *Config {
	loadEnvFile(getenv("BAGBUILDER_ENV_FILE", ".env"))

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("BAGBUILDER_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("BAGBUILDER_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("BAGBUILDER_LOG_LEVEL", "info"),
		PrettyLog: mustBool("BAGBUILDER_PRETTY_LOG", true),

		// Catalog
		CatalogURL:     getenv("BAGBUILDER_CATALOG_URL", "https://discit-api.fly.dev/disc"),
		CatalogTimeout: mustDuration("BAGBUILDER_CATALOG_TIMEOUT", 15*time.Second),
		CatalogRate:    mustDuration("BAGBUILDER_CATALOG_RATE", time.Second),
		ReloadInterval: mustDuration("BAGBUILDER_RELOAD_INTERVAL", 6*time.Hour),

		DBPath: getenv("BAGBUILDER_DB_PATH", "./data/bagbuilder.db"),

		// Redis settings
		RedisAddr:             getenv("BAGBUILDER_REDIS_ADDR", ""),
		RedisUser:             getenv("BAGBUILDER_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("BAGBUILDER_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("BAGBUILDER_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("BAGBUILDER_REDIS_DB", 0),
		RedisDT:               mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Engine
		Engine:        strings.ToLower(getenv("BAGBUILDER_ENGINE", "genai")),
		EngineAPIKey:  getenv("BAGBUILDER_ENGINE_API_KEY", ""),
		EngineModel:   getenv("BAGBUILDER_ENGINE_MODEL", ""),
		EngineBaseURL: getenv("BAGBUILDER_ENGINE_BASE_URL", ""),
		EngineTimeout: mustDuration("BAGBUILDER_ENGINE_TIMEOUT", 60*time.Second),

		// Sessions
		SearchDebounce:       mustDuration("BAGBUILDER_SEARCH_DEBOUNCE", 300*time.Millisecond),
		SessionIdleTTL:       mustDuration("BAGBUILDER_SESSION_IDLE_TTL", 2*time.Hour),
		SessionSweepInterval: mustDuration("BAGBUILDER_SESSION_SWEEP_INTERVAL", 10*time.Minute),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("BAGBUILDER_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("BAGBUILDER_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("BAGBUILDER_TRUST_PROXY", true),
		CORSOrigins:  splitAndTrim(getenv("BAGBUILDER_CORS_ORIGINS", "")),

		RecommendBurst:  getenvInt("BAGBUILDER_RECOMMEND_BURST", 3),
		RecommendPerMin: getenvInt("BAGBUILDER_RECOMMEND_PER_MIN", 6),
	}

	// Redis password is only mandatory once Redis is enabled
	if cfg.RedisAddr != "" && cfg.RedisPasswordRequired {
		cfg.RedisPassword = requireEnv("BAGBUILDER_REDIS_PASSWORD")
	}

	if cfg.Engine != "genai" && cfg.Engine != "openai" {
		panic(fmt.Sprintf("❌ FATAL: BAGBUILDER_ENGINE must be genai or openai, got %q", cfg.Engine))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	const mask = "***REDACTED***"
	if c.RedisPassword != "" {
		c.RedisPassword = mask
	}
	if c.RedisUser != "" {
		c.RedisUser = mask
	}
	if c.EngineAPIKey != "" {
		c.EngineAPIKey = mask
	}
	return c
}

// loadEnvFile loads KEY=value pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func loadEnvFile(path string) {
	if path == "" {
		return
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("[WARN] failed to load env file %s: %v\n", path, err)
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
