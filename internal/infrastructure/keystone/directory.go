package keystone

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/sitesync/agent/internal/domain/provisioning"
)

// GetDirectory looks up a domain by name. Returns nil when the domain is
// absent or the lookup failed; failures are only logged.
func (c *Client) GetDirectory(ctx context.Context, name string) *provisioning.Directory {
	dir, err := c.findDomain(ctx, name)
	if err != nil {
		c.log.Warn("domain lookup failed",
			zap.String("domain", name),
			zap.Error(err),
		)
		return nil
	}
	return dir
}

// findDomain returns (nil, nil) when the domain does not exist.
func (c *Client) findDomain(ctx context.Context, name string) (*provisioning.Directory, error) {
	query := url.Values{"name": {name}}
	var resp domainListResponse
	if err := c.do(ctx, http.MethodGet, "/domains", query, nil, &resp); err != nil {
		return nil, err
	}
	for _, d := range resp.Domains {
		if d.Name == name {
			return &provisioning.Directory{
				ID:      d.ID,
				Name:    d.Name,
				Enabled: d.Enabled,
			}, nil
		}
	}
	return nil, nil
}

// EnsureDirectory returns the named domain, creating it if necessary. A
// create conflict means another writer won the race; the follow-up lookup
// resolves it.
func (c *Client) EnsureDirectory(ctx context.Context, name string) (*provisioning.Directory, error) {
	if dir := c.GetDirectory(ctx, name); dir != nil {
		return dir, nil
	}

	body := domainEnvelope{Domain: domainResource{
		Name:        name,
		Description: "Created by sitesync-agent",
		Enabled:     true,
	}}
	var created domainEnvelope
	err := c.do(ctx, http.MethodPost, "/domains", nil, body, &created)
	if err != nil {
		if IsConflict(err) {
			if dir := c.GetDirectory(ctx, name); dir != nil {
				return dir, nil
			}
		}
		return nil, err
	}

	c.log.Info("created domain",
		zap.String("domain", name),
		zap.String("domain_id", created.Domain.ID),
	)
	return &provisioning.Directory{
		ID:      created.Domain.ID,
		Name:    created.Domain.Name,
		Enabled: created.Domain.Enabled,
	}, nil
}
