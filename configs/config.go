package configs

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "FARMACIA_"

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		Env      string `koanf:"env"`
		HTTPAddr string `koanf:"http_addr"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout     time.Duration `koanf:"read_timeout"`
		WriteTimeout    time.Duration `koanf:"write_timeout"`
		IdleTimeout     time.Duration `koanf:"idle_timeout"`
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	} `koanf:"http"`

	Log struct {
		Level string `koanf:"level"`
		File  string `koanf:"file"`
	} `koanf:"log"`

	Database struct {
		Host            string        `koanf:"host"`
		Port            int           `koanf:"port"`
		Name            string        `koanf:"name"`
		User            string        `koanf:"user"`
		Password        string        `koanf:"password"`
		SSLMode         string        `koanf:"sslmode"`
		MaxOpenConns    int           `koanf:"max_open_conns"`
		MaxIdleConns    int           `koanf:"max_idle_conns"`
		ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
		QueryTimeout    time.Duration `koanf:"query_timeout"`
	} `koanf:"database"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
	} `koanf:"redis"`

	Session struct {
		Store      string        `koanf:"store"` // memory | redis
		TTL        time.Duration `koanf:"ttl"`
		CookieName string        `koanf:"cookie_name"`
		Secure     bool          `koanf:"secure_cookie"`
	} `koanf:"session"`

	Webhook struct {
		URL           string        `koanf:"url"`
		Timeout       time.Duration `koanf:"timeout"`
		RedirectField string        `koanf:"redirect_field"`
		UserAgent     string        `koanf:"user_agent"`
	} `koanf:"webhook"`

	Checkout struct {
		// DuplicateWindow > 0 rejects an identical checkout from the same customer inside the window.
		DuplicateWindow time.Duration `koanf:"duplicate_window"`
	} `koanf:"checkout"`

	Security struct {
		JWTSecret          string        `koanf:"jwt_secret"`
		Issuer             string        `koanf:"issuer"`
		Audience           string        `koanf:"audience"`
		TokenTTL           time.Duration `koanf:"token_ttl"`
		LoginRatePerMinute int           `koanf:"login_rate_per_minute"`
		LoginBurst         int           `koanf:"login_burst"`
	} `koanf:"security"`

	Reporting struct {
		RequireToken bool           `koanf:"require_token"`
		Clients      []ClientConfig `koanf:"clients"`
	} `koanf:"reporting"`

	Events struct {
		Transport string `koanf:"transport"` // none | rabbitmq | kafka
		Publish   bool   `koanf:"publish"`
	} `koanf:"events"`

	Rabbit struct {
		URL         string `koanf:"url"`
		Exchange    string `koanf:"exchange"`
		StatusQueue string `koanf:"status_queue"`
		Prefetch    int    `koanf:"prefetch"`

		RequeueDelay time.Duration `koanf:"requeue_delay"`
	} `koanf:"rabbitmq"`

	Kafka struct {
		Brokers     []string `koanf:"brokers"`
		GroupID     string   `koanf:"group_id"`
		StatusTopic string   `koanf:"status_topic"`
		Version     string   `koanf:"version"`        // e.g. 2.6.0
		Offset      string   `koanf:"initial_offset"` // newest | oldest
	} `koanf:"kafka"`

	Dashboard struct {
		HTTPAddr     string        `koanf:"http_addr"`
		APIURL       string        `koanf:"api_url"`
		PollInterval time.Duration `koanf:"poll_interval"`
		CacheTTL     time.Duration `koanf:"cache_ttl"`
		Cache        string        `koanf:"cache"` // memory | redis
		RecentLimit  int           `koanf:"recent_limit"`

		// client credentials for a reporting API that requires a token
		TokenURL     string `koanf:"token_url"`
		ClientID     string `koanf:"client_id"`
		ClientSecret string `koanf:"client_secret"`
	} `koanf:"dashboard"`
}

// ClientConfig is a reporting API client allowed to request bearer tokens.
type ClientConfig struct {
	ID      string   `koanf:"id"`
	Secret  string   `koanf:"secret"`
	Perms   []string `koanf:"perms"`
	Enabled bool     `koanf:"enabled"`
}

// legacyEnv maps the deployment variables of the first release onto config keys.
var legacyEnv = map[string]string{
	"DB_HOST":         "database.host",
	"DB_PORT":         "database.port",
	"DB_NAME":         "database.name",
	"DB_USER":         "database.user",
	"DB_PASSWORD":     "database.password",
	"N8N_WEBHOOK_URL": "webhook.url",
}

func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")
	// 1) base
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// 2) env override (dev/staging/prod). Optional: allow missing for local runs.
	_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())

	// 3) legacy DB_* variables
	for name, key := range legacyEnv {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			if err := k.Set(key, v); err != nil {
				return Config{}, fmt.Errorf("legacy env %s: %w", name, err)
			}
		}
	}

	// 4) environment variables override (prefix FARMACIA_, nested with __)
	// e.g. FARMACIA_DATABASE__PASSWORD, FARMACIA_WEBHOOK__URL
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if cfg.App.Env == "" {
		cfg.App.Env = envName
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	if c.Database.Host == "" || c.Database.Name == "" {
		return fmt.Errorf("database.host and database.name required")
	}
	if c.Webhook.URL == "" {
		return fmt.Errorf("webhook.url required")
	}
	if len(c.Security.JWTSecret) < 16 {
		return fmt.Errorf("security.jwt_secret must be at least 16 bytes")
	}
	switch c.Session.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("session.store must be memory or redis, got %q", c.Session.Store)
	}
	switch c.Events.Transport {
	case "", "none", "rabbitmq", "kafka":
	default:
		return fmt.Errorf("events.transport must be none, rabbitmq or kafka, got %q", c.Events.Transport)
	}
	switch c.Dashboard.Cache {
	case "", "memory", "redis":
	default:
		return fmt.Errorf("dashboard.cache must be memory or redis, got %q", c.Dashboard.Cache)
	}
	if c.Events.Transport == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required when events.transport is kafka")
	}
	if (c.Events.Transport == "rabbitmq" || c.Events.Publish) && c.Rabbit.URL == "" {
		return fmt.Errorf("rabbitmq.url required for rabbitmq events")
	}
	return nil
}

// DSN renders the lib/pq connection string.
func (c Config) DSN() string {
	port := c.Database.Port
	if port == 0 {
		port = 5432
	}
	ssl := c.Database.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Database.Host, port, c.Database.Name, c.Database.User, c.Database.Password, ssl)
}
