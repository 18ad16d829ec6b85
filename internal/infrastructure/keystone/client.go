// Package keystone implements the identity gateway against a Keystone v3
// compatible HTTP API. The client keeps no entity state between calls; the
// only thing cached is the authentication token.
package keystone

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sitesync/agent/internal/domain/provisioning"
	"github.com/sitesync/agent/internal/infrastructure/retry"
	"github.com/sitesync/agent/internal/infrastructure/telemetry"
)

// maxResponseSize is the maximum allowed response size from the identity
// service (10MB)
const maxResponseSize = 10 * 1024 * 1024

// tokenExpirySkew renews tokens slightly before the service-side deadline
const tokenExpirySkew = 30 * time.Second

// subjectTokenHeader carries the issued token in auth responses and
// authenticates every other request.
const (
	subjectTokenHeader = "X-Subject-Token"
	authTokenHeader    = "X-Auth-Token"
)

// Client talks to one Keystone v3 endpoint and implements
// provisioning.IdentityGateway.
type Client struct {
	cfg        *Config
	httpClient *http.Client
	log        *zap.Logger
	policy     retry.Policy

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient builds a client from a validated config. The connection is not
// exercised here; Ping does that on demand.
func NewClient(cfg *Config, log *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport := http.DefaultTransport
	if !cfg.VerifySSL {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		transport = t
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	policy := retry.DefaultPolicy()
	if cfg.MaxRetryAttempts > 0 {
		policy.MaxAttempts = cfg.MaxRetryAttempts
	}
	if cfg.RetryDelay > 0 {
		policy.BaseDelay = cfg.RetryDelay
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		log:    log.Named("keystone"),
		policy: policy,
	}, nil
}

// Ping performs a full authentication round-trip, discarding the cached
// token first so a stale one cannot mask a broken endpoint.
func (c *Client) Ping(ctx context.Context) error {
	c.invalidateToken()
	_, err := c.currentToken(ctx)
	return err
}

// GetToken returns a valid auth token, authenticating first when the cached
// one is absent or about to expire.
func (c *Client) GetToken(ctx context.Context) (string, error) {
	return c.currentToken(ctx)
}

// currentToken returns a valid token, authenticating when the cached one is
// absent or about to expire.
func (c *Client) currentToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-tokenExpirySkew)) {
		return c.token, nil
	}
	return c.authenticateLocked(ctx)
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.tokenExpiry = time.Time{}
	c.mu.Unlock()
}

// authenticateLocked issues a scoped password authentication request.
// Callers must hold c.mu.
func (c *Client) authenticateLocked(ctx context.Context) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "keystone.authenticate")
	defer span.End()

	reqBody := tokenRequest{
		Auth: authBlock{
			Identity: identityBlock{
				Methods: []string{"password"},
				Password: passwordBlock{
					User: userCredentials{
						Name:     c.cfg.Username,
						Password: c.cfg.Password,
						Domain:   domainRef{Name: c.cfg.UserDomainName},
					},
				},
			},
			Scope: &scopeBlock{
				Project: &projectScope{
					Name:   c.cfg.ProjectName,
					Domain: domainRef{Name: c.cfg.ProjectDomainName},
				},
			},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("keystone: failed to encode auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.baseURL()+"/auth/tokens", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("keystone: failed to create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		telemetry.RecordError(span, err)
		return "", fmt.Errorf("keystone: authentication request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("keystone: failed to read auth response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		apiErr := &APIError{
			Status:  resp.StatusCode,
			Method:  http.MethodPost,
			Path:    "/auth/tokens",
			Message: parseErrorMessage(body),
		}
		telemetry.RecordError(span, apiErr)
		return "", apiErr
	}

	token := resp.Header.Get(subjectTokenHeader)
	if token == "" {
		return "", fmt.Errorf("keystone: auth response carries no %s header", subjectTokenHeader)
	}

	c.token = token
	c.tokenExpiry = time.Now().Add(time.Hour)
	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err == nil && tr.Token.ExpiresAt != "" {
		if exp, err := time.Parse(time.RFC3339, tr.Token.ExpiresAt); err == nil {
			c.tokenExpiry = exp
		}
	}

	c.log.Debug("authenticated against identity service",
		zap.String("auth_url", c.cfg.AuthURL),
		zap.Time("token_expiry", c.tokenExpiry),
	)
	return c.token, nil
}

// do performs one API call with retries. A 401 answer invalidates the
// cached token and the request is re-sent once with a fresh one before the
// failure counts against the retry budget.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	name := method + " " + path
	return retry.Do(ctx, c.policy, c.log, name, func(ctx context.Context) error {
		err := c.doOnce(ctx, method, path, query, in, out)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			c.invalidateToken()
			err = c.doOnce(ctx, method, path, query, in, out)
		}
		if errors.As(err, &apiErr) && isPermanentStatus(apiErr.Status) {
			return retry.Permanent(err)
		}
		return err
	})
}

func (c *Client) doOnce(ctx context.Context, method, path string, query url.Values, in, out any) error {
	ctx, span := telemetry.StartSpan(ctx, "keystone."+method+" "+path)
	defer span.End()

	token, err := c.currentToken(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	var bodyReader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("keystone: failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	u := c.cfg.baseURL() + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return fmt.Errorf("keystone: failed to create request: %w", err)
	}
	req.Header.Set(authTokenHeader, token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("keystone: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("keystone: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{
			Status:  resp.StatusCode,
			Method:  method,
			Path:    path,
			Message: parseErrorMessage(body),
		}
		telemetry.RecordError(span, apiErr)
		return apiErr
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("keystone: failed to parse response: %w", err)
		}
	}
	return nil
}

// parseErrorMessage pulls the human-readable message out of an identity
// service error body, tolerating non-JSON answers.
func parseErrorMessage(body []byte) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error.Message != "" {
		return er.Error.Message
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(bytes.TrimSpace(body))
}

// Ensure Client implements the gateway interface
var _ provisioning.IdentityGateway = (*Client)(nil)
