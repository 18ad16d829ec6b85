package keystone

// Keystone v3 wire shapes. Only the fields this client reads or writes are
// declared; the service tolerates absent optional fields.

type tokenRequest struct {
	Auth authBlock `json:"auth"`
}

type authBlock struct {
	Identity identityBlock `json:"identity"`
	Scope    *scopeBlock   `json:"scope,omitempty"`
}

type identityBlock struct {
	Methods  []string      `json:"methods"`
	Password passwordBlock `json:"password"`
}

type passwordBlock struct {
	User userCredentials `json:"user"`
}

type userCredentials struct {
	Name     string    `json:"name"`
	Password string    `json:"password"`
	Domain   domainRef `json:"domain"`
}

type domainRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type scopeBlock struct {
	Project *projectScope `json:"project,omitempty"`
}

type projectScope struct {
	Name   string    `json:"name"`
	Domain domainRef `json:"domain"`
}

type tokenResponse struct {
	Token struct {
		ExpiresAt string `json:"expires_at"`
	} `json:"token"`
}

type domainResource struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
}

type domainEnvelope struct {
	Domain domainResource `json:"domain"`
}

type domainListResponse struct {
	Domains []domainResource `json:"domains"`
}

type projectResource struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	DomainID    string `json:"domain_id,omitempty"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
}

type projectEnvelope struct {
	Project projectResource `json:"project"`
}

type projectListResponse struct {
	Projects []projectResource `json:"projects"`
}

// projectUpdate carries a partial update; only non-nil fields are sent.
type projectUpdate struct {
	Enabled     *bool   `json:"enabled,omitempty"`
	Description *string `json:"description,omitempty"`
}

type projectUpdateEnvelope struct {
	Project projectUpdate `json:"project"`
}

type userResource struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	DomainID string `json:"domain_id,omitempty"`
	Enabled  bool   `json:"enabled"`
}

type userEnvelope struct {
	User userResource `json:"user"`
}

type userListResponse struct {
	Users []userResource `json:"users"`
}

type userUpdate struct {
	Email   *string `json:"email,omitempty"`
	Enabled *bool   `json:"enabled,omitempty"`
}

type userUpdateEnvelope struct {
	User userUpdate `json:"user"`
}

type roleResource struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type roleEnvelope struct {
	Role roleResource `json:"role"`
}

type roleListResponse struct {
	Roles []roleResource `json:"roles"`
}

type roleAssignment struct {
	User struct {
		ID string `json:"id"`
	} `json:"user"`
	Role struct {
		ID string `json:"id"`
	} `json:"role"`
	Scope struct {
		Project struct {
			ID string `json:"id"`
		} `json:"project"`
	} `json:"scope"`
}

type roleAssignmentListResponse struct {
	RoleAssignments []roleAssignment `json:"role_assignments"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Title   string `json:"title"`
	} `json:"error"`
}
