package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates application configuration. Values come from the environment; an
// optional YAML file named by CONFIG_FILE supplies defaults under the same keys.
type Config struct {
	Env                 string
	LogLevel            string
	HTTPAddr            string
	CORSOrigins         []string
	BackendURL          string
	BackendTimeout      time.Duration
	Currency            string
	AvailabilityTimeout time.Duration
	DraftTTL            time.Duration
	CacheTTL            time.Duration
	RedisAddr           string
	MongoURI            string
	MongoDB             string
	KafkaBrokers        []string
	KafkaTopicPrefix    string
	IdempotencyTTL      time.Duration
	OutboxPollInterval  time.Duration
	RetryBackoff        []time.Duration
	S3Endpoint          string
	S3PublicEndpoint    string
	S3AccessKey         string
	S3SecretKey         string
	S3Bucket            string
	S3UseSSL            bool
	StripeAPIKey        string
	JWTSecret           string
	JWTIssuer           string
}

type lookup struct {
	file map[string]string
}

// Load parses configuration from CONFIG_FILE (if set) and the current environment.
func Load() (Config, error) {
	l := lookup{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &l.file); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg := Config{
		Env:              l.getEnv("APP_ENV", "dev"),
		LogLevel:         l.getEnv("LOG_LEVEL", "info"),
		HTTPAddr:         l.getEnv("HTTP_ADDR", ":8080"),
		CORSOrigins:      splitList(l.getEnv("CORS_ORIGINS", "http://localhost:5173")),
		BackendURL:       strings.TrimRight(l.getEnv("BACKEND_URL", ""), "/"),
		Currency:         strings.ToUpper(l.getEnv("CURRENCY", "USD")),
		RedisAddr:        l.getEnv("REDIS_ADDR", ""),
		MongoURI:         l.getEnv("MONGO_URI", ""),
		MongoDB:          l.getEnv("MONGO_DB", "carrental"),
		KafkaBrokers:     splitList(l.getEnv("KAFKA_BROKERS", "")),
		KafkaTopicPrefix: l.getEnv("KAFKA_TOPIC_PREFIX", ""),
		S3Endpoint:       l.getEnv("S3_ENDPOINT", ""),
		S3PublicEndpoint: l.getEnv("S3_PUBLIC_ENDPOINT", ""),
		S3AccessKey:      l.getEnv("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:      l.getEnv("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:         l.getEnv("S3_BUCKET", "vehicle-photos"),
		StripeAPIKey:     l.getEnv("STRIPE_API_KEY", ""),
		JWTSecret:        l.getEnv("JWT_SECRET", ""),
		JWTIssuer:        l.getEnv("JWT_ISSUER", ""),
	}

	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"BACKEND_TIMEOUT", 30 * time.Second, &cfg.BackendTimeout},
		{"AVAILABILITY_TIMEOUT", 20 * time.Second, &cfg.AvailabilityTimeout},
		{"DRAFT_TTL", 24 * time.Hour, &cfg.DraftTTL},
		{"CACHE_TTL", 2 * time.Minute, &cfg.CacheTTL},
		{"IDEMP_TTL", 168 * time.Hour, &cfg.IdempotencyTTL},
		{"OUTBOX_POLL_INTERVAL", 500 * time.Millisecond, &cfg.OutboxPollInterval},
	}
	for _, d := range durations {
		v, err := l.parseDurationEnv(d.key, d.def)
		if err != nil {
			return Config{}, err
		}
		*d.dst = v
	}

	for _, raw := range splitList(l.getEnv("RETRY_BACKOFF", "1s,5s,30s")) {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}
	useSSL, err := l.parseBoolEnv("S3_USE_SSL", false)
	if err != nil {
		return Config{}, err
	}
	cfg.S3UseSSL = useSSL
	if cfg.S3PublicEndpoint == "" {
		cfg.S3PublicEndpoint = cfg.S3Endpoint
	}

	if cfg.BackendURL == "" {
		return Config{}, fmt.Errorf("BACKEND_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if len(cfg.Currency) != 3 {
		return Config{}, fmt.Errorf("invalid CURRENCY %q", cfg.Currency)
	}
	if cfg.AvailabilityTimeout <= 0 {
		return Config{}, fmt.Errorf("AVAILABILITY_TIMEOUT must be positive")
	}
	return cfg, nil
}

func (l lookup) getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v := strings.TrimSpace(l.file[key]); v != "" {
		return v
	}
	return def
}

func (l lookup) parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := l.getEnv(key, "")
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func (l lookup) parseBoolEnv(key string, def bool) (bool, error) {
	raw := l.getEnv(key, "")
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
