package provisioning

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sitesync/agent/internal/domain/provisioning"
)

// UsernameService derives candidate usernames from email addresses and
// resolves existing users by email within the configured directory.
type UsernameService struct {
	gateway provisioning.IdentityGateway
	log     *zap.Logger
}

// NewUsernameService creates a new UsernameService.
func NewUsernameService(gateway provisioning.IdentityGateway, log *zap.Logger) *UsernameService {
	return &UsernameService{gateway: gateway, log: log}
}

// GenerateUsername derives a deterministic candidate username from the
// email's local part.
func (s *UsernameService) GenerateUsername(email string) (string, error) {
	return provisioning.UsernameFromEmail(email)
}

// LookupUsername finds an existing user by email match. Returns an empty
// string when no user carries that email.
func (s *UsernameService) LookupUsername(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", provisioning.ErrEmailMissing
	}

	users, err := s.gateway.ListUsers(ctx)
	if err != nil {
		return "", err
	}
	for _, u := range users {
		if u.Email != "" && strings.EqualFold(u.Email, email) {
			return u.Name, nil
		}
	}
	return "", nil
}
