package provisioning

import (
	"context"
	"fmt"

	"github.com/sitesync/agent/internal/domain/provisioning"
)

// fakeGateway is an in-memory IdentityGateway with hooks for forcing
// failures on specific users or lookups.
type fakeGateway struct {
	directories map[string]*provisioning.Directory
	projects    map[string]*provisioning.Project
	users       map[string]*provisioning.User
	roles       map[string]*provisioning.Role
	// grants maps project name -> username -> set of role names
	grants map[string]map[string]map[string]bool

	nextID       int
	createCalls  int
	pingErr      error
	lookupsFail  bool
	assignErrFor map[string]error
	ensureErrFor map[string]error
	revokeErrFor map[string]error
	listUsersErr error
}

var _ provisioning.IdentityGateway = (*fakeGateway)(nil)

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		directories:  make(map[string]*provisioning.Directory),
		projects:     make(map[string]*provisioning.Project),
		users:        make(map[string]*provisioning.User),
		roles:        make(map[string]*provisioning.Role),
		grants:       make(map[string]map[string]map[string]bool),
		assignErrFor: make(map[string]error),
		ensureErrFor: make(map[string]error),
		revokeErrFor: make(map[string]error),
	}
}

func (f *fakeGateway) newID(kind string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", kind, f.nextID)
}

func (f *fakeGateway) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeGateway) GetDirectory(ctx context.Context, name string) *provisioning.Directory {
	if f.lookupsFail {
		return nil
	}
	return f.directories[name]
}

func (f *fakeGateway) EnsureDirectory(ctx context.Context, name string) (*provisioning.Directory, error) {
	if dir := f.directories[name]; dir != nil {
		return dir, nil
	}
	dir := &provisioning.Directory{ID: f.newID("dom"), Name: name, Enabled: true}
	f.directories[name] = dir
	return dir, nil
}

func (f *fakeGateway) GetProject(ctx context.Context, name string) *provisioning.Project {
	if f.lookupsFail {
		return nil
	}
	return f.projects[name]
}

func (f *fakeGateway) CreateProject(ctx context.Context, name, description string) (*provisioning.Project, error) {
	f.createCalls++
	if p := f.projects[name]; p != nil {
		return p, nil
	}
	dir, _ := f.EnsureDirectory(ctx, "Default")
	p := &provisioning.Project{
		ID:          f.newID("proj"),
		Name:        name,
		DirectoryID: dir.ID,
		Description: description,
		Enabled:     true,
	}
	f.projects[name] = p
	return p, nil
}

func (f *fakeGateway) DeleteProject(ctx context.Context, name string) (bool, error) {
	if f.projects[name] == nil {
		return false, nil
	}
	delete(f.projects, name)
	delete(f.grants, name)
	return true, nil
}

func (f *fakeGateway) EnableProject(ctx context.Context, name string) error {
	return f.setEnabled(name, true)
}

func (f *fakeGateway) DisableProject(ctx context.Context, name string) error {
	return f.setEnabled(name, false)
}

func (f *fakeGateway) setEnabled(name string, enabled bool) error {
	p := f.projects[name]
	if p == nil {
		return provisioning.ErrProjectNotFound
	}
	p.Enabled = enabled
	return nil
}

func (f *fakeGateway) GetUser(ctx context.Context, username string) *provisioning.User {
	if f.lookupsFail {
		return nil
	}
	return f.users[username]
}

func (f *fakeGateway) EnsureUser(ctx context.Context, username, email string) (*provisioning.User, error) {
	if err := f.ensureErrFor[username]; err != nil {
		return nil, err
	}
	if u := f.users[username]; u != nil {
		return u, nil
	}
	u := &provisioning.User{ID: f.newID("user"), Name: username, Email: email, Enabled: true}
	f.users[username] = u
	return u, nil
}

func (f *fakeGateway) ListUsers(ctx context.Context) ([]provisioning.User, error) {
	if f.listUsersErr != nil {
		return nil, f.listUsersErr
	}
	users := make([]provisioning.User, 0, len(f.users))
	for _, u := range f.users {
		users = append(users, *u)
	}
	return users, nil
}

func (f *fakeGateway) GetRole(ctx context.Context, name string) *provisioning.Role {
	if f.lookupsFail {
		return nil
	}
	return f.roles[name]
}

func (f *fakeGateway) EnsureRole(ctx context.Context, name string) (*provisioning.Role, error) {
	if r := f.roles[name]; r != nil {
		return r, nil
	}
	r := &provisioning.Role{ID: f.newID("role"), Name: name}
	f.roles[name] = r
	return r, nil
}

func (f *fakeGateway) AssignRole(ctx context.Context, user *provisioning.User, project *provisioning.Project, roleName string) error {
	if err := f.assignErrFor[user.Name]; err != nil {
		return err
	}
	if _, err := f.EnsureRole(ctx, roleName); err != nil {
		return err
	}
	f.grantsFor(project.Name, user.Name)[roleName] = true
	return nil
}

func (f *fakeGateway) RevokeRole(ctx context.Context, user *provisioning.User, project *provisioning.Project, roleName string) error {
	delete(f.grantsFor(project.Name, user.Name), roleName)
	return nil
}

func (f *fakeGateway) RevokeAllRoles(ctx context.Context, user *provisioning.User, project *provisioning.Project) error {
	if err := f.revokeErrFor[user.Name]; err != nil {
		return err
	}
	if byUser := f.grants[project.Name]; byUser != nil {
		delete(byUser, user.Name)
	}
	return nil
}

func (f *fakeGateway) ListProjectUsers(ctx context.Context, project *provisioning.Project) ([]string, error) {
	usernames := make([]string, 0)
	for username, roles := range f.grants[project.Name] {
		if len(roles) > 0 {
			usernames = append(usernames, username)
		}
	}
	return usernames, nil
}

func (f *fakeGateway) grantsFor(projectName, username string) map[string]bool {
	byUser, ok := f.grants[projectName]
	if !ok {
		byUser = make(map[string]map[string]bool)
		f.grants[projectName] = byUser
	}
	roles, ok := byUser[username]
	if !ok {
		roles = make(map[string]bool)
		byUser[username] = roles
	}
	return roles
}

// roleCount returns how many roles the user holds in the project.
func (f *fakeGateway) roleCount(projectName, username string) int {
	return len(f.grants[projectName][username])
}
