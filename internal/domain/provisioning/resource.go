package provisioning

// ResourceInput is the fixed field contract for inbound resource objects
// from the orchestration platform. There is no runtime introspection of
// unknown shapes: callers populate exactly these fields.
type ResourceInput struct {
	// ExternalID is the platform's stable identifier, required for creation
	ExternalID string
	// Name is the human-readable resource name, used for the description
	Name string
	// BackendID is set by the platform on delete/update calls and absent on create
	BackendID string
	// Description is an optional free-form description
	Description string
}

// EffectiveBackendID returns the identifier this engine should operate on:
// the platform-assigned backend id when present, otherwise the external id.
// Empty means the resource cannot be addressed at all.
func (r ResourceInput) EffectiveBackendID() string {
	if r.BackendID != "" {
		return r.BackendID
	}
	return r.ExternalID
}

// Description used for projects when the platform supplies no name.
const defaultProjectDescription = "Managed project"

// ProjectDescription derives the project description from the resource,
// preferring the display name over the raw description.
func (r ResourceInput) ProjectDescription() string {
	if r.Name != "" {
		return "Managed: " + r.Name
	}
	if r.Description != "" {
		return r.Description
	}
	return defaultProjectDescription
}

// ResourceMetadata is the projection of a project returned to the platform.
type ResourceMetadata struct {
	BackendID   string `json:"backend_id"`
	ProjectID   string `json:"project_id"`
	ProjectName string `json:"project_name"`
	Directory   string `json:"directory"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description"`
}

// Map renders the metadata as a flat map. An absent project is represented
// by an empty map, never an error.
func (m *ResourceMetadata) Map() map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return map[string]any{
		"backend_id":   m.BackendID,
		"project_id":   m.ProjectID,
		"project_name": m.ProjectName,
		"directory":    m.Directory,
		"enabled":      m.Enabled,
		"description":  m.Description,
	}
}
