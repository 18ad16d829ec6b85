package keystone

import (
	"errors"
	"strings"
	"time"

	"github.com/sitesync/agent/internal/infrastructure/config"
)

// Errors for client configuration
var (
	ErrConfigMissingAuthURL     = errors.New("keystone: auth URL is required")
	ErrConfigInvalidAuthURL     = errors.New("keystone: auth URL must start with http:// or https://")
	ErrConfigMissingCredentials = errors.New("keystone: username and password are required")
	ErrConfigMissingDomain      = errors.New("keystone: domain name is required")
)

// Config holds the connection and behavior settings for one identity
// service endpoint.
type Config struct {
	// AuthURL is the identity service endpoint, with or without the /v3 suffix
	AuthURL  string
	Username string
	Password string

	// UserDomainName scopes the service account credentials
	UserDomainName string
	// ProjectName and ProjectDomainName scope the issued token
	ProjectName       string
	ProjectDomainName string
	// DomainName is the directory all managed projects and users live in
	DomainName string

	DefaultRole           string
	CreateUsersIfNotExist bool
	SyncUserEmails        bool
	UserEnabledByDefault  bool

	VerifySSL bool
	Timeout   time.Duration

	MaxRetryAttempts int
	RetryDelay       time.Duration
}

// FromIdentity maps the agent-level identity settings onto a client config.
func FromIdentity(ic config.IdentityConfig) *Config {
	return &Config{
		AuthURL:               ic.AuthURL,
		Username:              ic.Username,
		Password:              ic.Password,
		UserDomainName:        ic.UserDomainName,
		ProjectName:           ic.ProjectName,
		ProjectDomainName:     ic.ProjectDomainName,
		DomainName:            ic.DomainName,
		DefaultRole:           ic.DefaultRole,
		CreateUsersIfNotExist: ic.CreateUsersIfNotExist,
		SyncUserEmails:        ic.SyncUserEmails,
		UserEnabledByDefault:  ic.UserEnabledByDefault,
		VerifySSL:             ic.VerifySSL,
		Timeout:               time.Duration(ic.TimeoutSeconds) * time.Second,
		MaxRetryAttempts:      ic.MaxRetryAttempts,
		RetryDelay:            time.Duration(ic.RetryDelaySeconds) * time.Second,
	}
}

// Validate checks that the config can produce a working client.
func (c *Config) Validate() error {
	if c.AuthURL == "" {
		return ErrConfigMissingAuthURL
	}
	if !strings.HasPrefix(c.AuthURL, "http://") && !strings.HasPrefix(c.AuthURL, "https://") {
		return ErrConfigInvalidAuthURL
	}
	if c.Username == "" || c.Password == "" {
		return ErrConfigMissingCredentials
	}
	if c.DomainName == "" {
		return ErrConfigMissingDomain
	}
	return nil
}

// baseURL normalizes the endpoint to a v3 root without a trailing slash.
func (c *Config) baseURL() string {
	u := strings.TrimRight(c.AuthURL, "/")
	if !strings.HasSuffix(u, "/v3") {
		u += "/v3"
	}
	return u
}
