// Package config loads the server configuration from an optional YAML
// file with environment-variable overrides on top. Defaults alone are
// enough for local development against an unauthenticated Redis.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML can carry "15m" style values.
type Duration time.Duration

// Std converts back to the standard type.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("config: duration must be a string like \"15m\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: bad duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the human-readable form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Server is the full process configuration.
type Server struct {
	ListenAddr      string   `yaml:"listen_addr"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	LogLevel        string   `yaml:"log_level"`

	Redis    Redis    `yaml:"redis"`
	JWT      JWT      `yaml:"jwt"`
	OIDC     OIDC     `yaml:"oidc"`
	Cookie   Cookie   `yaml:"cookie"`
	Security Security `yaml:"security"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWT struct {
	// Secret is the HS256 signing key. Required outside of tests.
	Secret     string   `yaml:"secret"`
	AccessTTL  Duration `yaml:"access_ttl"`
	RefreshTTL Duration `yaml:"refresh_ttl"`
	Issuer     string   `yaml:"issuer"`
}

type OIDC struct {
	IssuerURL    string `yaml:"issuer_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// Enabled reports whether federated login should be wired at all.
func (o OIDC) Enabled() bool {
	return o.ClientID != ""
}

type Cookie struct {
	Domain string `yaml:"domain"`
	Secure bool   `yaml:"secure"`
}

type Security struct {
	EnableLoginThrottle   bool     `yaml:"enable_login_throttle"`
	EnableIPThrottle      bool     `yaml:"enable_ip_throttle"`
	EnableRefreshThrottle bool     `yaml:"enable_refresh_throttle"`
	MaxLoginAttempts      int      `yaml:"max_login_attempts"`
	LoginCooldown         Duration `yaml:"login_cooldown"`
	MaxRefreshAttempts    int      `yaml:"max_refresh_attempts"`
	RefreshCooldown       Duration `yaml:"refresh_cooldown"`
}

func defaults() *Server {
	return &Server{
		ListenAddr:      ":8080",
		ShutdownTimeout: Duration(10 * time.Second),
		LogLevel:        "info",
		Redis: Redis{
			Addr: "localhost:6379",
		},
		JWT: JWT{
			AccessTTL:  Duration(15 * time.Minute),
			RefreshTTL: Duration(7 * 24 * time.Hour),
		},
		Security: Security{
			MaxLoginAttempts:   10,
			LoginCooldown:      Duration(5 * time.Minute),
			MaxRefreshAttempts: 30,
			RefreshCooldown:    Duration(time.Minute),
		},
	}
}

// Load builds the configuration: defaults, then the YAML file if path
// names one that exists, then environment variables. A missing file is
// not an error; an unreadable or malformed one is.
func Load(path string) (*Server, error) {
	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv lets deployment environments override the file without
// templating it. Only settings that plausibly differ per environment
// get a variable.
func applyEnv(cfg *Server) error {
	setString(&cfg.ListenAddr, "AUTHLEDGER_LISTEN_ADDR")
	setString(&cfg.LogLevel, "AUTHLEDGER_LOG_LEVEL")
	setString(&cfg.Redis.Addr, "AUTHLEDGER_REDIS_ADDR")
	setString(&cfg.Redis.Password, "AUTHLEDGER_REDIS_PASSWORD")
	setString(&cfg.JWT.Secret, "AUTHLEDGER_JWT_SECRET")
	setString(&cfg.JWT.Issuer, "AUTHLEDGER_JWT_ISSUER")
	setString(&cfg.OIDC.IssuerURL, "AUTHLEDGER_OIDC_ISSUER_URL")
	setString(&cfg.OIDC.ClientID, "AUTHLEDGER_OIDC_CLIENT_ID")
	setString(&cfg.OIDC.ClientSecret, "AUTHLEDGER_OIDC_CLIENT_SECRET")
	setString(&cfg.OIDC.RedirectURL, "AUTHLEDGER_OIDC_REDIRECT_URL")
	setString(&cfg.Cookie.Domain, "AUTHLEDGER_COOKIE_DOMAIN")

	if err := setBool(&cfg.Cookie.Secure, "AUTHLEDGER_COOKIE_SECURE"); err != nil {
		return err
	}
	if err := setInt(&cfg.Redis.DB, "AUTHLEDGER_REDIS_DB"); err != nil {
		return err
	}
	if err := setDuration(&cfg.JWT.AccessTTL, "AUTHLEDGER_ACCESS_TTL"); err != nil {
		return err
	}
	return setDuration(&cfg.JWT.RefreshTTL, "AUTHLEDGER_REFRESH_TTL")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = parsed
	return nil
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = parsed
	return nil
}

func setDuration(dst *Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*dst = Duration(parsed)
	return nil
}

// Validate catches settings that would fail deep inside the engine.
func (s *Server) Validate() error {
	if s.JWT.Secret == "" {
		return errors.New("config: jwt secret is required")
	}
	if s.JWT.AccessTTL <= 0 || s.JWT.RefreshTTL <= 0 {
		return errors.New("config: token TTLs must be positive")
	}
	return nil
}
