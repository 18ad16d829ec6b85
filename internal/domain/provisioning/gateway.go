package provisioning

import "context"

// Directory is a flat namespace ("domain") holding projects and users.
// Created lazily on first use, never deleted by this engine.
type Directory struct {
	ID      string
	Name    string
	Enabled bool
}

// Project is the provisioned unit corresponding to one external resource.
type Project struct {
	ID          string
	Name        string
	DirectoryID string
	Description string
	Enabled     bool
}

// User is one member identity within a directory. Users are created on
// demand and never deleted by this engine; removing membership only revokes
// role assignments.
type User struct {
	ID          string
	Name        string
	Email       string
	DirectoryID string
	Enabled     bool
}

// Role is a named permission grant, created lazily if absent.
type Role struct {
	ID   string
	Name string
}

// IdentityGateway is the typed surface over the identity service primitives.
// All relationships are resolved by name lookup at call time.
//
// Lookup (Get*) methods return nil both when the entity does not exist and
// when the lookup itself failed; failures are logged inside the gateway.
// Callers therefore cannot tell "not found" from "lookup failed", a known
// limitation that keeps the synchronizers simple.
//
// Mutating methods return an error only after retries are exhausted; a
// conflict on create is resolved by a follow-up lookup and is not an error.
type IdentityGateway interface {
	// Ping performs an authentication round-trip against the service.
	Ping(ctx context.Context) error

	GetDirectory(ctx context.Context, name string) *Directory
	EnsureDirectory(ctx context.Context, name string) (*Directory, error)

	GetProject(ctx context.Context, name string) *Project
	CreateProject(ctx context.Context, name, description string) (*Project, error)
	// DeleteProject returns false without error when the project is absent.
	DeleteProject(ctx context.Context, name string) (bool, error)
	EnableProject(ctx context.Context, name string) error
	DisableProject(ctx context.Context, name string) error

	GetUser(ctx context.Context, username string) *User
	EnsureUser(ctx context.Context, username, email string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)

	GetRole(ctx context.Context, name string) *Role
	EnsureRole(ctx context.Context, name string) (*Role, error)

	// AssignRole grants roleName to the user in the project; an
	// already-granted conflict is success.
	AssignRole(ctx context.Context, user *User, project *Project, roleName string) error
	RevokeRole(ctx context.Context, user *User, project *Project, roleName string) error
	// RevokeAllRoles revokes every role the user holds in the project.
	// Individual revoke failures do not stop the loop; the first failure is
	// reported after all assignments have been attempted.
	RevokeAllRoles(ctx context.Context, user *User, project *Project) error

	// ListProjectUsers resolves the project's role assignments back to
	// usernames. Users that cannot be resolved are skipped.
	ListProjectUsers(ctx context.Context, project *Project) ([]string, error)
}
