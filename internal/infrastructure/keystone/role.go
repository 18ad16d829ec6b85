package keystone

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/sitesync/agent/internal/domain/provisioning"
)

// GetRole looks up a role by name. Returns nil when the role is absent or
// the lookup failed.
func (c *Client) GetRole(ctx context.Context, name string) *provisioning.Role {
	role, err := c.findRole(ctx, name)
	if err != nil {
		c.log.Warn("role lookup failed",
			zap.String("role", name),
			zap.Error(err),
		)
		return nil
	}
	return role
}

func (c *Client) findRole(ctx context.Context, name string) (*provisioning.Role, error) {
	query := url.Values{"name": {name}}
	var resp roleListResponse
	if err := c.do(ctx, http.MethodGet, "/roles", query, nil, &resp); err != nil {
		return nil, err
	}
	for _, r := range resp.Roles {
		if r.Name == name {
			return &provisioning.Role{ID: r.ID, Name: r.Name}, nil
		}
	}
	return nil, nil
}

// EnsureRole returns the named role, creating it if necessary.
func (c *Client) EnsureRole(ctx context.Context, name string) (*provisioning.Role, error) {
	if role := c.GetRole(ctx, name); role != nil {
		return role, nil
	}

	body := roleEnvelope{Role: roleResource{Name: name}}
	var created roleEnvelope
	err := c.do(ctx, http.MethodPost, "/roles", nil, body, &created)
	if err != nil {
		if IsConflict(err) {
			if role := c.GetRole(ctx, name); role != nil {
				return role, nil
			}
		}
		return nil, err
	}

	c.log.Info("created role",
		zap.String("role", name),
		zap.String("role_id", created.Role.ID),
	)
	return &provisioning.Role{ID: created.Role.ID, Name: created.Role.Name}, nil
}

// AssignRole grants roleName to the user in the project, creating the role
// first when it does not exist. An already-present grant is success.
func (c *Client) AssignRole(ctx context.Context, user *provisioning.User, project *provisioning.Project, roleName string) error {
	role, err := c.EnsureRole(ctx, roleName)
	if err != nil {
		return err
	}

	path := "/projects/" + project.ID + "/users/" + user.ID + "/roles/" + role.ID
	if err := c.do(ctx, http.MethodPut, path, nil, nil, nil); err != nil {
		if IsConflict(err) {
			return nil
		}
		return err
	}

	c.log.Info("granted role",
		zap.String("username", user.Name),
		zap.String("project", project.Name),
		zap.String("role", roleName),
	)
	return nil
}

// RevokeRole removes one named grant. An absent role or grant is success;
// revoking what does not exist leaves the desired state in place.
func (c *Client) RevokeRole(ctx context.Context, user *provisioning.User, project *provisioning.Project, roleName string) error {
	role := c.GetRole(ctx, roleName)
	if role == nil {
		return nil
	}

	path := "/projects/" + project.ID + "/users/" + user.ID + "/roles/" + role.ID
	if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}

	c.log.Info("revoked role",
		zap.String("username", user.Name),
		zap.String("project", project.Name),
		zap.String("role", roleName),
	)
	return nil
}

// RevokeAllRoles removes every role the user holds in the project. A failed
// revoke does not stop the loop; the first failure is returned after all
// assignments have been attempted.
func (c *Client) RevokeAllRoles(ctx context.Context, user *provisioning.User, project *provisioning.Project) error {
	assignments, err := c.listAssignments(ctx, url.Values{
		"user.id":          {user.ID},
		"scope.project.id": {project.ID},
	})
	if err != nil {
		return err
	}

	var firstErr error
	for _, a := range assignments {
		path := "/projects/" + project.ID + "/users/" + user.ID + "/roles/" + a.Role.ID
		if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil && !IsNotFound(err) {
			c.log.Warn("role revocation failed",
				zap.String("username", user.Name),
				zap.String("project", project.Name),
				zap.String("role_id", a.Role.ID),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// ListProjectUsers resolves the project's role assignments back to
// usernames. Users that cannot be resolved are logged and skipped.
func (c *Client) ListProjectUsers(ctx context.Context, project *provisioning.Project) ([]string, error) {
	assignments, err := c.listAssignments(ctx, url.Values{
		"scope.project.id": {project.ID},
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	usernames := make([]string, 0, len(assignments))
	for _, a := range assignments {
		if a.User.ID == "" || seen[a.User.ID] {
			continue
		}
		seen[a.User.ID] = true

		user, err := c.getUserByID(ctx, a.User.ID)
		if err != nil {
			c.log.Warn("skipping unresolvable user in project listing",
				zap.String("user_id", a.User.ID),
				zap.String("project", project.Name),
				zap.Error(err),
			)
			continue
		}
		usernames = append(usernames, user.Name)
	}
	return usernames, nil
}

func (c *Client) listAssignments(ctx context.Context, query url.Values) ([]roleAssignment, error) {
	var resp roleAssignmentListResponse
	if err := c.do(ctx, http.MethodGet, "/role_assignments", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.RoleAssignments, nil
}
