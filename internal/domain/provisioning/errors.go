package provisioning

import "errors"

var (
	// ErrResourceIdentifierMissing indicates a create call without a stable
	// external identifier; no backend id can exist without one.
	ErrResourceIdentifierMissing = errors.New("provisioning: resource has no external identifier")
	// ErrBackendIDTooLong indicates a backend identifier beyond the service limit
	ErrBackendIDTooLong = errors.New("provisioning: backend identifier exceeds 255 characters")
	// ErrProjectNotFound indicates the target project does not exist.
	// Membership sync never creates projects; creation belongs to the
	// resource lifecycle exclusively.
	ErrProjectNotFound = errors.New("provisioning: project not found")
	// ErrUserAutoCreateDisabled indicates a membership grant for an unknown
	// user while auto-creation is turned off
	ErrUserAutoCreateDisabled = errors.New("provisioning: user not found and auto-creation disabled")
	// ErrEmailMissing indicates a username operation on a member without an email
	ErrEmailMissing = errors.New("provisioning: member has no email address")
	// ErrEmailUnusable indicates an email whose local part sanitizes to nothing
	ErrEmailUnusable = errors.New("provisioning: email cannot be converted to a valid username")
)
