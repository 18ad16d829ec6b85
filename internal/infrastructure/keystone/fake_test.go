package keystone

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// fault forces a canned status on the next matching requests.
type fault struct {
	method     string
	pathPrefix string
	status     int
	times      int
}

// fakeKeystone is an in-memory Keystone v3 lookalike backing the client
// tests. It implements just enough of the API surface the client touches.
type fakeKeystone struct {
	server *httptest.Server

	mu        sync.Mutex
	token     string
	authCalls int
	faults    []fault

	domains  map[string]*domainResource
	projects map[string]*projectResource
	users    map[string]*userResource
	roles    map[string]*roleResource
	// grants maps "projectID/userID/roleID" to true
	grants map[string]bool
}

func newFakeKeystone(t *testing.T) *fakeKeystone {
	f := &fakeKeystone{
		domains:  make(map[string]*domainResource),
		projects: make(map[string]*projectResource),
		users:    make(map[string]*userResource),
		roles:    make(map[string]*roleResource),
		grants:   make(map[string]bool),
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeKeystone) clientConfig() *Config {
	return &Config{
		AuthURL:               f.server.URL + "/v3",
		Username:              "agent",
		Password:              "secret",
		UserDomainName:        "Default",
		ProjectName:           "admin",
		ProjectDomainName:     "Default",
		DomainName:            "Default",
		DefaultRole:           "_member_",
		CreateUsersIfNotExist: true,
		SyncUserEmails:        true,
		UserEnabledByDefault:  true,
		VerifySSL:             true,
		Timeout:               5 * time.Second,
		MaxRetryAttempts:      1,
		RetryDelay:            time.Millisecond,
	}
}

// failNext makes the next n requests matching method and path prefix answer
// with the given status.
func (f *fakeKeystone) failNext(method, pathPrefix string, status, n int) {
	f.mu.Lock()
	f.faults = append(f.faults, fault{method: method, pathPrefix: pathPrefix, status: status, times: n})
	f.mu.Unlock()
}

// expireToken invalidates the issued token so the next request answers 401.
func (f *fakeKeystone) expireToken() {
	f.mu.Lock()
	f.token = ""
	f.mu.Unlock()
}

func (f *fakeKeystone) countAuthCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authCalls
}

func (f *fakeKeystone) countDomains() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.domains)
}

func (f *fakeKeystone) countGrants() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.grants)
}

func (f *fakeKeystone) newID(kind string) string {
	return kind + "-" + uuid.NewString()
}

func (f *fakeKeystone) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/v3")

	for i := range f.faults {
		ft := &f.faults[i]
		if ft.times > 0 && ft.method == r.Method && strings.HasPrefix(path, ft.pathPrefix) {
			ft.times--
			writeError(w, ft.status)
			return
		}
	}

	if r.Method == http.MethodPost && path == "/auth/tokens" {
		f.handleAuth(w, r)
		return
	}

	if f.token == "" || r.Header.Get("X-Auth-Token") != f.token {
		writeError(w, http.StatusUnauthorized)
		return
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case parts[0] == "domains":
		f.handleDomains(w, r, parts)
	case parts[0] == "projects" && len(parts) == 6 && parts[2] == "users" && parts[4] == "roles":
		f.handleGrant(w, r, parts)
	case parts[0] == "projects":
		f.handleProjects(w, r, parts)
	case parts[0] == "users":
		f.handleUsers(w, r, parts)
	case parts[0] == "roles":
		f.handleRoles(w, r, parts)
	case parts[0] == "role_assignments":
		f.handleAssignments(w, r)
	default:
		writeError(w, http.StatusNotFound)
	}
}

func (f *fakeKeystone) handleAuth(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest)
		return
	}
	user := req.Auth.Identity.Password.User
	if user.Name != "agent" || user.Password != "secret" {
		writeError(w, http.StatusUnauthorized)
		return
	}
	f.authCalls++
	f.token = fmt.Sprintf("tok-%d", f.authCalls)
	w.Header().Set("X-Subject-Token", f.token)
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]any{"token": map[string]any{
		"expires_at": time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	}})
}

func (f *fakeKeystone) handleDomains(w http.ResponseWriter, r *http.Request, parts []string) {
	switch r.Method {
	case http.MethodGet:
		name := r.URL.Query().Get("name")
		out := domainListResponse{Domains: []domainResource{}}
		for _, d := range f.domains {
			if name == "" || d.Name == name {
				out.Domains = append(out.Domains, *d)
			}
		}
		writeJSON(w, out)
	case http.MethodPost:
		var env domainEnvelope
		json.NewDecoder(r.Body).Decode(&env)
		for _, d := range f.domains {
			if d.Name == env.Domain.Name {
				writeError(w, http.StatusConflict)
				return
			}
		}
		d := env.Domain
		d.ID = f.newID("dom")
		f.domains[d.ID] = &d
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, domainEnvelope{Domain: d})
	default:
		writeError(w, http.StatusMethodNotAllowed)
	}
}

func (f *fakeKeystone) handleProjects(w http.ResponseWriter, r *http.Request, parts []string) {
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			name := r.URL.Query().Get("name")
			domainID := r.URL.Query().Get("domain_id")
			out := projectListResponse{Projects: []projectResource{}}
			for _, p := range f.projects {
				if (name == "" || p.Name == name) && (domainID == "" || p.DomainID == domainID) {
					out.Projects = append(out.Projects, *p)
				}
			}
			writeJSON(w, out)
		case http.MethodPost:
			var env projectEnvelope
			json.NewDecoder(r.Body).Decode(&env)
			for _, p := range f.projects {
				if p.Name == env.Project.Name && p.DomainID == env.Project.DomainID {
					writeError(w, http.StatusConflict)
					return
				}
			}
			p := env.Project
			p.ID = f.newID("proj")
			f.projects[p.ID] = &p
			w.WriteHeader(http.StatusCreated)
			writeJSON(w, projectEnvelope{Project: p})
		default:
			writeError(w, http.StatusMethodNotAllowed)
		}
		return
	}

	p, ok := f.projects[parts[1]]
	if !ok {
		writeError(w, http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, projectEnvelope{Project: *p})
	case http.MethodPatch:
		var env projectUpdateEnvelope
		json.NewDecoder(r.Body).Decode(&env)
		if env.Project.Enabled != nil {
			p.Enabled = *env.Project.Enabled
		}
		if env.Project.Description != nil {
			p.Description = *env.Project.Description
		}
		writeJSON(w, projectEnvelope{Project: *p})
	case http.MethodDelete:
		delete(f.projects, p.ID)
		for key := range f.grants {
			if strings.HasPrefix(key, p.ID+"/") {
				delete(f.grants, key)
			}
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed)
	}
}

func (f *fakeKeystone) handleUsers(w http.ResponseWriter, r *http.Request, parts []string) {
	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			name := r.URL.Query().Get("name")
			domainID := r.URL.Query().Get("domain_id")
			out := userListResponse{Users: []userResource{}}
			for _, u := range f.users {
				if (name == "" || u.Name == name) && (domainID == "" || u.DomainID == domainID) {
					out.Users = append(out.Users, *u)
				}
			}
			writeJSON(w, out)
		case http.MethodPost:
			var env userEnvelope
			json.NewDecoder(r.Body).Decode(&env)
			for _, u := range f.users {
				if u.Name == env.User.Name && u.DomainID == env.User.DomainID {
					writeError(w, http.StatusConflict)
					return
				}
			}
			u := env.User
			u.ID = f.newID("user")
			f.users[u.ID] = &u
			w.WriteHeader(http.StatusCreated)
			writeJSON(w, userEnvelope{User: u})
		default:
			writeError(w, http.StatusMethodNotAllowed)
		}
		return
	}

	u, ok := f.users[parts[1]]
	if !ok {
		writeError(w, http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, userEnvelope{User: *u})
	case http.MethodPatch:
		var env userUpdateEnvelope
		json.NewDecoder(r.Body).Decode(&env)
		if env.User.Email != nil {
			u.Email = *env.User.Email
		}
		if env.User.Enabled != nil {
			u.Enabled = *env.User.Enabled
		}
		writeJSON(w, userEnvelope{User: *u})
	default:
		writeError(w, http.StatusMethodNotAllowed)
	}
}

func (f *fakeKeystone) handleRoles(w http.ResponseWriter, r *http.Request, parts []string) {
	switch r.Method {
	case http.MethodGet:
		name := r.URL.Query().Get("name")
		out := roleListResponse{Roles: []roleResource{}}
		for _, role := range f.roles {
			if name == "" || role.Name == name {
				out.Roles = append(out.Roles, *role)
			}
		}
		writeJSON(w, out)
	case http.MethodPost:
		var env roleEnvelope
		json.NewDecoder(r.Body).Decode(&env)
		for _, role := range f.roles {
			if role.Name == env.Role.Name {
				writeError(w, http.StatusConflict)
				return
			}
		}
		role := env.Role
		role.ID = f.newID("role")
		f.roles[role.ID] = &role
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, roleEnvelope{Role: role})
	default:
		writeError(w, http.StatusMethodNotAllowed)
	}
}

func (f *fakeKeystone) handleGrant(w http.ResponseWriter, r *http.Request, parts []string) {
	key := parts[1] + "/" + parts[3] + "/" + parts[5]
	switch r.Method {
	case http.MethodPut:
		if f.grants[key] {
			writeError(w, http.StatusConflict)
			return
		}
		f.grants[key] = true
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		if !f.grants[key] {
			writeError(w, http.StatusNotFound)
			return
		}
		delete(f.grants, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed)
	}
}

func (f *fakeKeystone) handleAssignments(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user.id")
	projectID := r.URL.Query().Get("scope.project.id")
	out := roleAssignmentListResponse{RoleAssignments: []roleAssignment{}}
	for key := range f.grants {
		parts := strings.Split(key, "/")
		if projectID != "" && parts[0] != projectID {
			continue
		}
		if userID != "" && parts[1] != userID {
			continue
		}
		var a roleAssignment
		a.Scope.Project.ID = parts[0]
		a.User.ID = parts[1]
		a.Role.ID = parts[2]
		out.RoleAssignments = append(out.RoleAssignments, a)
	}
	writeJSON(w, out)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{
		"code":    status,
		"message": http.StatusText(status),
		"title":   http.StatusText(status),
	}})
}
