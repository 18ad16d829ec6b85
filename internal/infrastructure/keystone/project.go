package keystone

import (
	"context"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/sitesync/agent/internal/domain/provisioning"
)

// GetProject looks up a project by name inside the configured domain.
// Returns nil when the project is absent or the lookup failed.
func (c *Client) GetProject(ctx context.Context, name string) *provisioning.Project {
	project, err := c.findProject(ctx, name)
	if err != nil {
		c.log.Warn("project lookup failed",
			zap.String("project", name),
			zap.Error(err),
		)
		return nil
	}
	return project
}

func (c *Client) findProject(ctx context.Context, name string) (*provisioning.Project, error) {
	dir, err := c.findDomain(ctx, c.cfg.DomainName)
	if err != nil {
		return nil, err
	}
	if dir == nil {
		// No domain means no projects in it
		return nil, nil
	}

	query := url.Values{
		"name":      {name},
		"domain_id": {dir.ID},
	}
	var resp projectListResponse
	if err := c.do(ctx, http.MethodGet, "/projects", query, nil, &resp); err != nil {
		return nil, err
	}
	for _, p := range resp.Projects {
		if p.Name == name {
			return &provisioning.Project{
				ID:          p.ID,
				Name:        p.Name,
				DirectoryID: p.DomainID,
				Description: p.Description,
				Enabled:     p.Enabled,
			}, nil
		}
	}
	return nil, nil
}

// CreateProject creates the named project in the configured domain,
// creating the domain first when it is missing. A conflict on create is
// resolved by a follow-up lookup.
func (c *Client) CreateProject(ctx context.Context, name, description string) (*provisioning.Project, error) {
	dir, err := c.EnsureDirectory(ctx, c.cfg.DomainName)
	if err != nil {
		return nil, err
	}

	body := projectEnvelope{Project: projectResource{
		Name:        name,
		DomainID:    dir.ID,
		Description: description,
		Enabled:     true,
	}}
	var created projectEnvelope
	err = c.do(ctx, http.MethodPost, "/projects", nil, body, &created)
	if err != nil {
		if IsConflict(err) {
			if project := c.GetProject(ctx, name); project != nil {
				return project, nil
			}
		}
		return nil, err
	}

	c.log.Info("created project",
		zap.String("project", name),
		zap.String("project_id", created.Project.ID),
	)
	return &provisioning.Project{
		ID:          created.Project.ID,
		Name:        created.Project.Name,
		DirectoryID: created.Project.DomainID,
		Description: created.Project.Description,
		Enabled:     created.Project.Enabled,
	}, nil
}

// DeleteProject removes the named project. Returns false without error when
// the project is already gone.
func (c *Client) DeleteProject(ctx context.Context, name string) (bool, error) {
	project := c.GetProject(ctx, name)
	if project == nil {
		return false, nil
	}

	err := c.do(ctx, http.MethodDelete, "/projects/"+project.ID, nil, nil, nil)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	c.log.Info("deleted project",
		zap.String("project", name),
		zap.String("project_id", project.ID),
	)
	return true, nil
}

// EnableProject marks the named project enabled.
func (c *Client) EnableProject(ctx context.Context, name string) error {
	return c.setProjectEnabled(ctx, name, true)
}

// DisableProject marks the named project disabled, blocking authentication
// against it without destroying any state.
func (c *Client) DisableProject(ctx context.Context, name string) error {
	return c.setProjectEnabled(ctx, name, false)
}

func (c *Client) setProjectEnabled(ctx context.Context, name string, enabled bool) error {
	project := c.GetProject(ctx, name)
	if project == nil {
		return provisioning.ErrProjectNotFound
	}
	if project.Enabled == enabled {
		return nil
	}

	body := projectUpdateEnvelope{Project: projectUpdate{Enabled: &enabled}}
	if err := c.do(ctx, http.MethodPatch, "/projects/"+project.ID, nil, body, nil); err != nil {
		return err
	}

	c.log.Info("updated project state",
		zap.String("project", name),
		zap.Bool("enabled", enabled),
	)
	return nil
}
