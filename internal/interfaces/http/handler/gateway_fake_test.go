package handler

import (
	"context"
	"fmt"

	"github.com/sitesync/agent/internal/domain/provisioning"
)

// fakeGateway is a minimal in-memory IdentityGateway for routing tests.
// Behavior-level gateway tests live next to the keystone client; these
// tests only need enough state to drive the HTTP surface.
type fakeGateway struct {
	directories map[string]*provisioning.Directory
	projects    map[string]*provisioning.Project
	users       map[string]*provisioning.User
	roles       map[string]*provisioning.Role
	// grants maps project name -> username -> role name
	grants map[string]map[string]map[string]bool

	pingErr error
	nextID  int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		directories: make(map[string]*provisioning.Directory),
		projects:    make(map[string]*provisioning.Project),
		users:       make(map[string]*provisioning.User),
		roles:       make(map[string]*provisioning.Role),
		grants:      make(map[string]map[string]map[string]bool),
	}
}

var _ provisioning.IdentityGateway = (*fakeGateway)(nil)

func (g *fakeGateway) newID() string {
	g.nextID++
	return fmt.Sprintf("id-%d", g.nextID)
}

func (g *fakeGateway) Ping(ctx context.Context) error { return g.pingErr }

func (g *fakeGateway) GetDirectory(ctx context.Context, name string) *provisioning.Directory {
	return g.directories[name]
}

func (g *fakeGateway) EnsureDirectory(ctx context.Context, name string) (*provisioning.Directory, error) {
	if d, ok := g.directories[name]; ok {
		return d, nil
	}
	d := &provisioning.Directory{ID: g.newID(), Name: name, Enabled: true}
	g.directories[name] = d
	return d, nil
}

func (g *fakeGateway) GetProject(ctx context.Context, name string) *provisioning.Project {
	return g.projects[name]
}

func (g *fakeGateway) CreateProject(ctx context.Context, name, description string) (*provisioning.Project, error) {
	if p, ok := g.projects[name]; ok {
		return p, nil
	}
	dir, _ := g.EnsureDirectory(ctx, "Default")
	p := &provisioning.Project{
		ID:          g.newID(),
		Name:        name,
		DirectoryID: dir.ID,
		Description: description,
		Enabled:     true,
	}
	g.projects[name] = p
	return p, nil
}

func (g *fakeGateway) DeleteProject(ctx context.Context, name string) (bool, error) {
	if _, ok := g.projects[name]; !ok {
		return false, nil
	}
	delete(g.projects, name)
	delete(g.grants, name)
	return true, nil
}

func (g *fakeGateway) EnableProject(ctx context.Context, name string) error {
	return g.setProjectEnabled(name, true)
}

func (g *fakeGateway) DisableProject(ctx context.Context, name string) error {
	return g.setProjectEnabled(name, false)
}

func (g *fakeGateway) setProjectEnabled(name string, enabled bool) error {
	p, ok := g.projects[name]
	if !ok {
		return provisioning.ErrProjectNotFound
	}
	p.Enabled = enabled
	return nil
}

func (g *fakeGateway) GetUser(ctx context.Context, username string) *provisioning.User {
	return g.users[username]
}

func (g *fakeGateway) EnsureUser(ctx context.Context, username, email string) (*provisioning.User, error) {
	if u, ok := g.users[username]; ok {
		return u, nil
	}
	u := &provisioning.User{ID: g.newID(), Name: username, Email: email, Enabled: true}
	g.users[username] = u
	return u, nil
}

func (g *fakeGateway) ListUsers(ctx context.Context) ([]provisioning.User, error) {
	out := make([]provisioning.User, 0, len(g.users))
	for _, u := range g.users {
		out = append(out, *u)
	}
	return out, nil
}

func (g *fakeGateway) GetRole(ctx context.Context, name string) *provisioning.Role {
	return g.roles[name]
}

func (g *fakeGateway) EnsureRole(ctx context.Context, name string) (*provisioning.Role, error) {
	if r, ok := g.roles[name]; ok {
		return r, nil
	}
	r := &provisioning.Role{ID: g.newID(), Name: name}
	g.roles[name] = r
	return r, nil
}

func (g *fakeGateway) AssignRole(ctx context.Context, user *provisioning.User, project *provisioning.Project, roleName string) error {
	if _, err := g.EnsureRole(ctx, roleName); err != nil {
		return err
	}
	if g.grants[project.Name] == nil {
		g.grants[project.Name] = make(map[string]map[string]bool)
	}
	if g.grants[project.Name][user.Name] == nil {
		g.grants[project.Name][user.Name] = make(map[string]bool)
	}
	g.grants[project.Name][user.Name][roleName] = true
	return nil
}

func (g *fakeGateway) RevokeRole(ctx context.Context, user *provisioning.User, project *provisioning.Project, roleName string) error {
	delete(g.grants[project.Name][user.Name], roleName)
	return nil
}

func (g *fakeGateway) RevokeAllRoles(ctx context.Context, user *provisioning.User, project *provisioning.Project) error {
	delete(g.grants[project.Name], user.Name)
	return nil
}

func (g *fakeGateway) ListProjectUsers(ctx context.Context, project *provisioning.Project) ([]string, error) {
	usernames := make([]string, 0)
	for username, roles := range g.grants[project.Name] {
		if len(roles) > 0 {
			usernames = append(usernames, username)
		}
	}
	return usernames, nil
}
