// Package config assembles the runtime configuration of every factfeed
// binary: defaults, then an optional YAML file, then environment overrides.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ConfigFileEnv points at an optional YAML file.
const ConfigFileEnv = "FACTFEED_CONFIG"

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	DB        DBConfig        `yaml:"db"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      AuthConfig      `yaml:"auth"`
	FactCheck FactCheckConfig `yaml:"fact_check"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Ingest    IngestConfig    `yaml:"ingest"`
}

type HTTPConfig struct {
	Addr         string   `yaml:"addr"`
	AllowOrigins []string `yaml:"allow_origins"`
}

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Password string `yaml:"password"`
	// CacheTTL bounds how long analytics responses are served from cache.
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type AuthConfig struct {
	// JWTSecret verifies HS256 bearer tokens. Empty disables authentication,
	// every write then answers 401.
	JWTSecret string `yaml:"jwt_secret"`
}

type FactCheckConfig struct {
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	HTTPTimeout  time.Duration `yaml:"http_timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
	// Timeouts bound a whole job per mode, from submit to terminal state.
	Timeouts map[string]time.Duration `yaml:"timeouts"`
	// StaleGrace is added to a job's timeout before the sweeper fails it.
	StaleGrace time.Duration `yaml:"stale_grace"`
}

type AnalyticsConfig struct {
	CredibilityDeadband float64 `yaml:"credibility_deadband"`
	VolumeDeadband      float64 `yaml:"volume_deadband"`
	FalseRateDeadband   float64 `yaml:"false_rate_deadband"`
}

type RateLimitConfig struct {
	// Requests allowed per client ip per Window. 0 disables the limiter.
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

type ScheduleConfig struct {
	Ingest    string `yaml:"ingest"`
	Reconcile string `yaml:"reconcile"`
	Sweep     string `yaml:"sweep"`
}

type IngestConfig struct {
	UserAgent   string        `yaml:"user_agent"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:         ":8080",
			AllowOrigins: []string{"*"},
		},
		DB: DBConfig{
			Host: "localhost",
			Port: "5432",
			Name: "factfeed",
		},
		Redis: RedisConfig{
			Port:     "6379",
			CacheTTL: 5 * time.Minute,
		},
		FactCheck: FactCheckConfig{
			BaseURL:      "http://localhost:8000",
			HTTPTimeout:  15 * time.Second,
			PollInterval: 5 * time.Second,
			Timeouts: map[string]time.Duration{
				"standard":  time.Minute,
				"thorough":  5 * time.Minute,
				"synthesis": 15 * time.Minute,
			},
			StaleGrace: time.Minute,
		},
		Analytics: AnalyticsConfig{
			CredibilityDeadband: 2.0,
			VolumeDeadband:      2,
			FalseRateDeadband:   0.02,
		},
		RateLimit: RateLimitConfig{
			Requests: 120,
			Window:   time.Minute,
		},
		Schedule: ScheduleConfig{
			Ingest:    "*/15 * * * *",
			Reconcile: "0 * * * *",
			Sweep:     "*/5 * * * *",
		},
		Ingest: IngestConfig{
			UserAgent:   "factfeed/1.0 (+https://github.com/Luismorlan/factfeed)",
			HTTPTimeout: 20 * time.Second,
		},
	}
}

// Load builds the config from defaults, the YAML file named by
// FACTFEED_CONFIG (if any) and the environment. Dotenv files must already be
// loaded.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := mergeFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read config %s", path)
	}
	// Unmarshal over the defaults so absent keys keep their default value.
	// Maps are merged key by key by yaml.v3.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf(err, "parse config %s", path)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.HTTP.Addr, "HTTP_ADDR")
	setString(&cfg.DB.Host, "DB_HOST")
	setString(&cfg.DB.Port, "DB_PORT")
	setString(&cfg.DB.User, "DB_USER")
	setString(&cfg.DB.Password, "DB_PASS")
	setString(&cfg.DB.Name, "DB_NAME")
	setString(&cfg.Redis.Host, "REDIS_HOST")
	setString(&cfg.Redis.Port, "REDIS_PORT")
	setString(&cfg.Redis.Password, "REDIS_PASSWD")
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.FactCheck.BaseURL, "FACTCHECK_BASE_URL")
	setString(&cfg.FactCheck.APIKey, "FACTCHECK_API_KEY")

	durations := []struct {
		dst *time.Duration
		key string
	}{
		{&cfg.FactCheck.PollInterval, "FACTCHECK_POLL_INTERVAL"},
		{&cfg.FactCheck.HTTPTimeout, "FACTCHECK_HTTP_TIMEOUT"},
		{&cfg.FactCheck.StaleGrace, "FACTCHECK_STALE_GRACE"},
		{&cfg.Redis.CacheTTL, "ANALYTICS_CACHE_TTL"},
		{&cfg.RateLimit.Window, "RATE_LIMIT_WINDOW"},
	}
	for _, d := range durations {
		if err := setDuration(d.dst, d.key); err != nil {
			return err
		}
	}
	for _, mode := range []string{"standard", "thorough", "synthesis"} {
		var d time.Duration
		key := "FACTCHECK_TIMEOUT_" + strings.ToUpper(mode)
		if os.Getenv(key) == "" {
			continue
		}
		if err := setDuration(&d, key); err != nil {
			return err
		}
		if cfg.FactCheck.Timeouts == nil {
			cfg.FactCheck.Timeouts = map[string]time.Duration{}
		}
		cfg.FactCheck.Timeouts[mode] = d
	}

	if v := os.Getenv("RATE_LIMIT_REQUESTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "RATE_LIMIT_REQUESTS")
		}
		cfg.RateLimit.Requests = n
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return errors.Wrap(err, key)
	}
	*dst = d
	return nil
}
