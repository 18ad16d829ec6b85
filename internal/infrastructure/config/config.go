// Package config loads and validates agent configuration from config.toml
// and AGENT_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all agent configuration
type Config struct {
	App       AppConfig
	Identity  IdentityConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// IdentityConfig holds the identity service connection and sync behavior
// settings. Required fields have no defaults and fail validation when empty.
type IdentityConfig struct {
	AuthURL  string
	Username string
	Password string

	ProjectName       string
	DomainName        string
	UserDomainName    string
	ProjectDomainName string
	RegionName        string
	Interface         string
	VerifySSL         bool

	DefaultRole           string
	CreateUsersIfNotExist bool
	SyncUserEmails        bool
	UserEnabledByDefault  bool

	MaxRetryAttempts  int
	RetryDelaySeconds int
	TimeoutSeconds    int

	// Components is the static component list reported for each resource;
	// the identity service itself has no measurable components.
	Components []string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	CORSOrigins    []string
	TrustedProxies []string
}

// TelemetryConfig holds OpenTelemetry tracing configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
}

// Load reads configuration from config.toml (working directory or /etc/agent)
// and AGENT_* environment variables, applies defaults and validates.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/agent")
	v.SetEnvPrefix("AGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; environment variables may carry everything
	}

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Identity: IdentityConfig{
			AuthURL:               v.GetString("identity.auth_url"),
			Username:              v.GetString("identity.username"),
			Password:              v.GetString("identity.password"),
			ProjectName:           v.GetString("identity.project_name"),
			DomainName:            v.GetString("identity.domain_name"),
			UserDomainName:        v.GetString("identity.user_domain_name"),
			ProjectDomainName:     v.GetString("identity.project_domain_name"),
			RegionName:            v.GetString("identity.region_name"),
			Interface:             v.GetString("identity.interface"),
			VerifySSL:             getBoolDefault(v, "identity.verify_ssl", true),
			DefaultRole:           v.GetString("identity.default_role"),
			CreateUsersIfNotExist: getBoolDefault(v, "identity.create_users_if_not_exist", true),
			SyncUserEmails:        getBoolDefault(v, "identity.sync_user_emails", true),
			UserEnabledByDefault:  getBoolDefault(v, "identity.user_enabled_by_default", true),
			MaxRetryAttempts:      v.GetInt("identity.max_retry_attempts"),
			RetryDelaySeconds:     v.GetInt("identity.retry_delay_seconds"),
			TimeoutSeconds:        v.GetInt("identity.timeout_seconds"),
			Components:            v.GetStringSlice("identity.components"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			CORSOrigins:    v.GetStringSlice("http.cors_origins"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getBoolDefault reads a bool key treating "not set" as the given default,
// because viper's GetBool collapses both to false.
func getBoolDefault(v *viper.Viper, key string, def bool) bool {
	if !v.IsSet(key) {
		return def
	}
	return v.GetBool(key)
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "sitesync-agent"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8085"
	}
	if cfg.Identity.ProjectName == "" {
		cfg.Identity.ProjectName = "admin"
	}
	if cfg.Identity.DomainName == "" {
		cfg.Identity.DomainName = "Default"
	}
	if cfg.Identity.UserDomainName == "" {
		cfg.Identity.UserDomainName = cfg.Identity.DomainName
	}
	if cfg.Identity.ProjectDomainName == "" {
		cfg.Identity.ProjectDomainName = cfg.Identity.DomainName
	}
	if cfg.Identity.Interface == "" {
		cfg.Identity.Interface = "public"
	}
	if cfg.Identity.DefaultRole == "" {
		cfg.Identity.DefaultRole = "_member_"
	}
	if cfg.Identity.MaxRetryAttempts == 0 {
		cfg.Identity.MaxRetryAttempts = 2
	}
	if cfg.Identity.RetryDelaySeconds == 0 {
		cfg.Identity.RetryDelaySeconds = 5
	}
	if cfg.Identity.TimeoutSeconds == 0 {
		cfg.Identity.TimeoutSeconds = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		if cfg.App.Env == "production" {
			cfg.Log.Format = "json"
		} else {
			cfg.Log.Format = "console"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 120 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
}

// validate checks configuration invariants that have no sensible fallback
func (c *Config) validate() error {
	if err := c.Identity.Validate(); err != nil {
		return err
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return fmt.Errorf("invalid log.level %q", c.Log.Level)
	}
	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be in [0,1], got %v", c.Telemetry.SamplingRatio)
	}
	return nil
}

// Validate checks the identity service settings. It is exported separately
// because diagnostics re-runs it at runtime.
func (c *IdentityConfig) Validate() error {
	if c.AuthURL == "" {
		return fmt.Errorf("identity.auth_url is required")
	}
	if !strings.HasPrefix(c.AuthURL, "http://") && !strings.HasPrefix(c.AuthURL, "https://") {
		return fmt.Errorf("invalid identity.auth_url %q: must start with http:// or https://", c.AuthURL)
	}
	if c.Username == "" || c.Password == "" {
		return fmt.Errorf("identity.username and identity.password cannot be empty")
	}
	switch c.Interface {
	case "public", "internal", "admin":
	default:
		return fmt.Errorf("invalid identity.interface %q: must be one of public, internal, admin", c.Interface)
	}
	if c.MaxRetryAttempts < 0 {
		return fmt.Errorf("identity.max_retry_attempts must be non-negative")
	}
	if c.RetryDelaySeconds < 0 {
		return fmt.Errorf("identity.retry_delay_seconds must be non-negative")
	}
	return nil
}

// Redacted returns the identity settings with the password masked, for
// startup logging.
func (c *IdentityConfig) Redacted() map[string]any {
	return map[string]any{
		"auth_url":                  c.AuthURL,
		"username":                  c.Username,
		"password":                  "***REDACTED***",
		"project_name":              c.ProjectName,
		"domain_name":               c.DomainName,
		"user_domain_name":          c.UserDomainName,
		"project_domain_name":       c.ProjectDomainName,
		"region_name":               c.RegionName,
		"interface":                 c.Interface,
		"verify_ssl":                c.VerifySSL,
		"default_role":              c.DefaultRole,
		"create_users_if_not_exist": c.CreateUsersIfNotExist,
		"sync_user_emails":          c.SyncUserEmails,
		"user_enabled_by_default":   c.UserEnabledByDefault,
		"max_retry_attempts":        c.MaxRetryAttempts,
		"retry_delay_seconds":       c.RetryDelaySeconds,
	}
}
