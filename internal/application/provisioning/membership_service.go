package provisioning

import (
	"context"

	"go.uber.org/zap"

	"github.com/sitesync/agent/internal/domain/provisioning"
	"github.com/sitesync/agent/internal/infrastructure/telemetry"
)

// MembershipService maps add/remove-users operations onto role assignment
// grants and revocations with per-user failure isolation.
type MembershipService struct {
	gateway     provisioning.IdentityGateway
	defaultRole string
	log         *zap.Logger
}

// NewMembershipService creates a new MembershipService. defaultRole is the
// single role granted on the add path.
func NewMembershipService(gateway provisioning.IdentityGateway, defaultRole string, log *zap.Logger) *MembershipService {
	return &MembershipService{
		gateway:     gateway,
		defaultRole: defaultRole,
		log:         log,
	}
}

// AddUsers grants the default role to each username in the resource's
// project and returns the set of usernames actually granted. The project
// must already exist: membership sync never creates projects, so an absent
// project fails the whole call with zero grants. One user's failure never
// blocks the others.
func (s *MembershipService) AddUsers(ctx context.Context, backendID string, usernames []string) ([]string, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "membership", "add_users",
		telemetry.WithAttribute(telemetry.SpanAttrUserCount, len(usernames)))
	defer span.End()

	if backendID == "" {
		return []string{}, nil
	}
	name := provisioning.SanitizeName(backendID)
	telemetry.SetAttributes(span, telemetry.SpanAttrBackendID, name)

	project := s.gateway.GetProject(ctx, name)
	if project == nil {
		telemetry.RecordError(span, provisioning.ErrProjectNotFound)
		return []string{}, provisioning.ErrProjectNotFound
	}

	added := make([]string, 0, len(usernames))
	for _, username := range usernames {
		if err := s.addUser(ctx, project, username); err != nil {
			s.log.Error("failed to add user to project",
				zap.String("username", username),
				zap.String("backend_id", name),
				zap.Error(err),
			)
			continue
		}
		added = append(added, username)
	}

	s.log.Info("membership grants applied",
		zap.String("backend_id", name),
		zap.Int("requested", len(usernames)),
		zap.Int("added", len(added)),
	)
	return added, nil
}

func (s *MembershipService) addUser(ctx context.Context, project *provisioning.Project, username string) error {
	user, err := s.gateway.EnsureUser(ctx, username, "")
	if err != nil {
		return err
	}
	return s.gateway.AssignRole(ctx, user, project, s.defaultRole)
}

// RemoveUsers revokes every role each username holds in the resource's
// project and returns the usernames actually removed. An empty backend
// identifier or an absent project is vacuous success; there is nothing to
// remove. Per-user failures are isolated exactly as in AddUsers.
func (s *MembershipService) RemoveUsers(ctx context.Context, backendID string, usernames []string) ([]string, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "membership", "remove_users",
		telemetry.WithAttribute(telemetry.SpanAttrUserCount, len(usernames)))
	defer span.End()

	if backendID == "" {
		return []string{}, nil
	}
	name := provisioning.SanitizeName(backendID)
	telemetry.SetAttributes(span, telemetry.SpanAttrBackendID, name)

	project := s.gateway.GetProject(ctx, name)
	if project == nil {
		s.log.Warn("removal requested for absent project, nothing to remove",
			zap.String("backend_id", name),
		)
		return []string{}, nil
	}

	removed := make([]string, 0, len(usernames))
	for _, username := range usernames {
		user := s.gateway.GetUser(ctx, username)
		if user == nil {
			s.log.Warn("user not found during removal, skipping",
				zap.String("username", username),
				zap.String("backend_id", name),
			)
			continue
		}
		// Removal revokes every role the user holds, not just the default
		// one; grant and revoke are asymmetric.
		if err := s.gateway.RevokeAllRoles(ctx, user, project); err != nil {
			s.log.Error("failed to remove user from project",
				zap.String("username", username),
				zap.String("backend_id", name),
				zap.Error(err),
			)
			continue
		}
		removed = append(removed, username)
	}

	s.log.Info("membership revocations applied",
		zap.String("backend_id", name),
		zap.Int("requested", len(usernames)),
		zap.Int("removed", len(removed)),
	)
	return removed, nil
}

// ListResourceUsers returns the usernames currently holding any role in the
// resource's project. An absent project yields an empty list.
func (s *MembershipService) ListResourceUsers(ctx context.Context, backendID string) ([]string, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "membership", "list_users")
	defer span.End()

	if backendID == "" {
		return []string{}, nil
	}
	name := provisioning.SanitizeName(backendID)
	telemetry.SetAttributes(span, telemetry.SpanAttrBackendID, name)

	project := s.gateway.GetProject(ctx, name)
	if project == nil {
		return []string{}, nil
	}

	usernames, err := s.gateway.ListProjectUsers(ctx, project)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return usernames, nil
}
