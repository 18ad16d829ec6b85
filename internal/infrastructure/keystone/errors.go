package keystone

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx answer from the identity service.
type APIError struct {
	Status  int
	Method  string
	Path    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("keystone: %s %s returned HTTP %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("keystone: %s %s returned HTTP %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the identity service.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsConflict reports whether err is a 409 from the identity service, which
// the client treats as "already exists".
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict
}

// isPermanentStatus reports whether a status code cannot be cured by
// retrying the same request.
func isPermanentStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return status >= 400 && status < 500
}
