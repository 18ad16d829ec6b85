package dto

// CreateResourceRequest is the payload for provisioning a resource
type CreateResourceRequest struct {
	ExternalID  string `json:"external_id" binding:"required"`
	Name        string `json:"name"`
	BackendID   string `json:"backend_id"`
	Description string `json:"description"`
}

// DeleteResourceRequest is the payload for deprovisioning a resource
type DeleteResourceRequest struct {
	ExternalID string `json:"external_id"`
	BackendID  string `json:"backend_id"`
}

// ResourceResponse reports the backend identifier a lifecycle operation acted on
type ResourceResponse struct {
	BackendID string `json:"backend_id"`
}

// ResourceStateResponse reports the outcome of an enable/disable style operation
type ResourceStateResponse struct {
	BackendID string `json:"backend_id"`
	Applied   bool   `json:"applied"`
}

// ResourceMetadataResponse carries backend metadata for a resource
type ResourceMetadataResponse struct {
	BackendID string         `json:"backend_id"`
	Metadata  map[string]any `json:"metadata"`
}

// MembershipRequest is the payload for adding or removing users
type MembershipRequest struct {
	Usernames []string `json:"usernames" binding:"required,min=1,dive,required"`
}

// MembershipResponse lists the usernames an operation actually touched
type MembershipResponse struct {
	BackendID string   `json:"backend_id"`
	Usernames []string `json:"usernames"`
}

// ComponentsResponse lists the accounting components the agent serves
type ComponentsResponse struct {
	Components []string `json:"components"`
}

// GenerateUsernameRequest is the payload for deriving a username from an email
type GenerateUsernameRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// UsernameResponse carries a derived or resolved username
type UsernameResponse struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

// PingResponse reports identity service reachability
type PingResponse struct {
	Status string `json:"status"`
}
