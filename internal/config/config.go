package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gookit/validate"
	"github.com/joho/godotenv"
)

const envPrefix = "MINICHANNELS_"

const (
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

type Config struct {
	ListenPort      string        `validate:"required"` // ex: ":8080"
	ShutdownTimeout time.Duration `validate:"required"` // ex: 5s

	LogLevel  string `validate:"required|in:debug,info,warn,error"`
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Storage string `validate:"required|in:redis,memory"`

	// Grid
	GridFile           string        // path to the pixel YAML file, empty = empty grid
	GridSize           int           `validate:"required|min:1"`
	GridReloadInterval time.Duration `validate:"required"`

	// Verification
	VerificationAmount    float64       // amount of the verification transfer
	VerificationDelay     time.Duration `validate:"required"`
	VerificationMaxChecks int           `validate:"required|min:1"`

	// Submissions
	SubmissionGCInterval  time.Duration `validate:"required"`
	SubmissionGCThreshold time.Duration `validate:"required"`
	AdminToken            string        // bearer token for moderation, empty = moderation disabled

	// View cache and metrics
	CacheEnabled   bool
	CacheSizeMB    int `validate:"min:0"`
	CacheTTL       time.Duration
	MetricsEnabled bool

	NotificationCapacity int `validate:"required|min:1"`

	// Redis, only used when Storage is "redis"
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	// Access restrictions
	OpsCIDRs        []string // CIDRs allowed on /metrics and /reload, empty = loopback only
	TrustProxy      bool     // true => trust X-Forwarded-For / X-Real-IP
	RateLimitBurst  int      `validate:"required|min:1"`
	RateLimitPerMin int      `validate:"required|min:1"`
}

// Load reads the configuration from the environment, after loading a .env
// file from the working directory when one exists. An invalid configuration
// panics.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(fmt.Sprintf("❌ FATAL: cannot read .env file: %v", err))
	}

	cfg := &Config{
		// Server settings
		ListenPort:      getenv("LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("LOG_LEVEL", "info"),
		PrettyLog: mustBool("PRETTY_LOG", false),

		Storage: getenv("STORAGE", StorageRedis),

		// Grid
		GridFile:           getenv("GRID_FILE", ""),
		GridSize:           getenvInt("GRID_SIZE", 100*100),
		GridReloadInterval: mustDuration("GRID_RELOAD_INTERVAL", 5*time.Minute),

		// Verification
		VerificationAmount:    getenvFloat("VERIFICATION_AMOUNT", 0.01),
		VerificationDelay:     mustDuration("VERIFICATION_DELAY", 3*time.Second),
		VerificationMaxChecks: getenvInt("VERIFICATION_MAX_CHECKS", 3),

		// Submissions
		SubmissionGCInterval:  mustDuration("SUBMISSION_GC_INTERVAL", 24*time.Hour),
		SubmissionGCThreshold: mustDuration("SUBMISSION_GC_THRESHOLD", 30*24*time.Hour),
		AdminToken:            getenv("ADMIN_TOKEN", ""),

		CacheEnabled:   mustBool("CACHE_ENABLED", true),
		CacheSizeMB:    getenvInt("CACHE_SIZE_MB", 16),
		CacheTTL:       mustDuration("CACHE_TTL", time.Minute),
		MetricsEnabled: mustBool("METRICS_ENABLED", true),

		NotificationCapacity: getenvInt("NOTIFICATION_CAPACITY", 50),

		// Redis settings
		RedisAddr:           getenv("REDIS_ADDR", "localhost:6379"),
		RedisUser:           getenv("REDIS_USERNAME", ""),
		RedisPassword:       getenv("REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		OpsCIDRs:        splitAndTrim(getenv("OPS_CIDRS", "")),
		TrustProxy:      mustBool("TRUST_PROXY", false),
		RateLimitBurst:  getenvInt("RATE_LIMIT_BURST", 20),
		RateLimitPerMin: getenvInt("RATE_LIMIT_PER_MIN", 120),
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: invalid configuration: %v", err))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Validate checks struct tags first, then the rules tags cannot express.
func (c *Config) Validate() error {
	v := validate.Struct(c)
	if !v.Validate() {
		return errors.New(v.Errors.One())
	}

	if c.VerificationAmount <= 0 {
		return fmt.Errorf("VerificationAmount must be > 0, got %v", c.VerificationAmount)
	}
	for name, d := range map[string]time.Duration{
		"ShutdownTimeout":       c.ShutdownTimeout,
		"GridReloadInterval":    c.GridReloadInterval,
		"VerificationDelay":     c.VerificationDelay,
		"SubmissionGCInterval":  c.SubmissionGCInterval,
		"SubmissionGCThreshold": c.SubmissionGCThreshold,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be > 0, got %v", name, d)
		}
	}
	for _, cidr := range c.OpsCIDRs {
		if _, err := parsePrefix(cidr); err != nil {
			return fmt.Errorf("invalid ops CIDR %q: %w", cidr, err)
		}
	}
	if c.Storage == StorageRedis && c.RedisAddr == "" {
		return errors.New("RedisAddr is required when Storage is redis")
	}
	return nil
}

// Redacted returns a copy safe to log.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.RedisPassword != "" {
		cp.RedisPassword = "***REDACTED***"
	}
	if cp.AdminToken != "" {
		cp.AdminToken = "***REDACTED***"
	}
	return cp
}

// OpsPrefixes returns the parsed ops CIDRs. Bare addresses become /32 or
// /128 prefixes.
func (c *Config) OpsPrefixes() []netip.Prefix {
	out := make([]netip.Prefix, 0, len(c.OpsCIDRs))
	for _, cidr := range c.OpsCIDRs {
		if p, err := parsePrefix(cidr); err == nil {
			out = append(out, p)
		}
	}
	return out
}

func parsePrefix(s string) (netip.Prefix, error) {
	if strings.Contains(s, "/") {
		return netip.ParsePrefix(s)
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(envPrefix + key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(envPrefix + key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(envPrefix + key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(envPrefix + key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(envPrefix + key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
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
