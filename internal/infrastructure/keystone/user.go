package keystone

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/sitesync/agent/internal/domain/provisioning"
)

// GetUser looks up a user by name inside the configured domain. Returns nil
// when the user is absent or the lookup failed.
func (c *Client) GetUser(ctx context.Context, username string) *provisioning.User {
	user, err := c.findUser(ctx, username)
	if err != nil {
		c.log.Warn("user lookup failed",
			zap.String("username", username),
			zap.Error(err),
		)
		return nil
	}
	return user
}

func (c *Client) findUser(ctx context.Context, username string) (*provisioning.User, error) {
	dir, err := c.findDomain(ctx, c.cfg.DomainName)
	if err != nil {
		return nil, err
	}
	if dir == nil {
		return nil, nil
	}

	query := url.Values{
		"name":      {username},
		"domain_id": {dir.ID},
	}
	var resp userListResponse
	if err := c.do(ctx, http.MethodGet, "/users", query, nil, &resp); err != nil {
		return nil, err
	}
	for _, u := range resp.Users {
		if u.Name == username {
			return toDomainUser(u), nil
		}
	}
	return nil, nil
}

// getUserByID resolves a user by id, for role assignment expansion.
func (c *Client) getUserByID(ctx context.Context, id string) (*provisioning.User, error) {
	var resp userEnvelope
	if err := c.do(ctx, http.MethodGet, "/users/"+id, nil, nil, &resp); err != nil {
		return nil, err
	}
	return toDomainUser(resp.User), nil
}

// EnsureUser returns the named user, creating it when allowed by
// configuration. When the user already exists and email synchronization is
// on, a differing stored email is updated; an update failure is logged and
// swallowed so membership flow is never blocked by a cosmetic field.
func (c *Client) EnsureUser(ctx context.Context, username, email string) (*provisioning.User, error) {
	if user := c.GetUser(ctx, username); user != nil {
		if c.cfg.SyncUserEmails && email != "" && user.Email != email {
			if err := c.updateUserEmail(ctx, user.ID, email); err != nil {
				c.log.Warn("user email sync failed",
					zap.String("username", username),
					zap.Error(err),
				)
			} else {
				user.Email = email
			}
		}
		return user, nil
	}

	if !c.cfg.CreateUsersIfNotExist {
		return nil, provisioning.ErrUserAutoCreateDisabled
	}

	dir, err := c.EnsureDirectory(ctx, c.cfg.DomainName)
	if err != nil {
		return nil, err
	}

	body := userEnvelope{User: userResource{
		Name:     username,
		Email:    email,
		DomainID: dir.ID,
		Enabled:  c.cfg.UserEnabledByDefault,
	}}
	var created userEnvelope
	err = c.do(ctx, http.MethodPost, "/users", nil, body, &created)
	if err != nil {
		if IsConflict(err) {
			if user := c.GetUser(ctx, username); user != nil {
				return user, nil
			}
		}
		return nil, err
	}

	c.log.Info("created user",
		zap.String("username", username),
		zap.String("user_id", created.User.ID),
	)
	return toDomainUser(created.User), nil
}

func (c *Client) updateUserEmail(ctx context.Context, userID, email string) error {
	body := userUpdateEnvelope{User: userUpdate{Email: &email}}
	return c.do(ctx, http.MethodPatch, "/users/"+userID, nil, body, nil)
}

// ListUsers returns every user in the configured domain. An absent domain
// yields an empty list.
func (c *Client) ListUsers(ctx context.Context) ([]provisioning.User, error) {
	dir, err := c.findDomain(ctx, c.cfg.DomainName)
	if err != nil {
		return nil, err
	}
	if dir == nil {
		return []provisioning.User{}, nil
	}

	query := url.Values{"domain_id": {dir.ID}}
	var resp userListResponse
	if err := c.do(ctx, http.MethodGet, "/users", query, nil, &resp); err != nil {
		return nil, err
	}

	users := make([]provisioning.User, 0, len(resp.Users))
	for _, u := range resp.Users {
		users = append(users, *toDomainUser(u))
	}
	return users, nil
}

func toDomainUser(u userResource) *provisioning.User {
	return &provisioning.User{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		DirectoryID: u.DomainID,
		Enabled:     u.Enabled,
	}
}
