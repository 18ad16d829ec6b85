// Package provisioning contains the application services that turn
// orchestration platform operations into identity service calls: resource
// lifecycle, membership synchronization, diagnostics and username handling.
package provisioning

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sitesync/agent/internal/domain/provisioning"
	"github.com/sitesync/agent/internal/infrastructure/telemetry"
)

// ResourceService drives one project through its lifecycle:
// Absent -> Provisioning -> Active <-> Disabled -> Deleted.
type ResourceService struct {
	gateway    provisioning.IdentityGateway
	components []string
	log        *zap.Logger
}

// NewResourceService creates a new ResourceService. components is the static
// component list reported for each resource.
func NewResourceService(gateway provisioning.IdentityGateway, components []string, log *zap.Logger) *ResourceService {
	return &ResourceService{
		gateway:    gateway,
		components: components,
		log:        log,
	}
}

// CreateResource provisions a project for the resource and returns its
// backend identifier. Creation is idempotent: calling it N times with the
// same external identifier performs at most one creation and always returns
// the same backend identifier.
func (s *ResourceService) CreateResource(ctx context.Context, input provisioning.ResourceInput) (string, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "resource", "create")
	defer span.End()

	if input.ExternalID == "" {
		return "", provisioning.ErrResourceIdentifierMissing
	}

	backendID := provisioning.SanitizeName(input.ExternalID)
	if err := provisioning.ValidateBackendID(backendID); err != nil {
		return "", err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrBackendID, backendID)

	if existing := s.gateway.GetProject(ctx, backendID); existing != nil {
		s.log.Info("resource already provisioned",
			zap.String("backend_id", backendID),
			zap.String("project_id", existing.ID),
		)
		return backendID, nil
	}

	project, err := s.gateway.CreateProject(ctx, backendID, input.ProjectDescription())
	if err != nil {
		telemetry.RecordError(span, err)
		return "", err
	}

	s.log.Info("resource provisioned",
		zap.String("backend_id", backendID),
		zap.String("project_id", project.ID),
	)
	return backendID, nil
}

// DeleteResource removes the project behind the resource. An empty backend
// identifier or an already-absent project is success; there is nothing to
// delete.
func (s *ResourceService) DeleteResource(ctx context.Context, input provisioning.ResourceInput) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "resource", "delete")
	defer span.End()

	backendID := input.EffectiveBackendID()
	if backendID == "" {
		s.log.Warn("delete requested without a backend identifier, nothing to do")
		return nil
	}

	name := provisioning.SanitizeName(backendID)
	telemetry.SetAttributes(span, telemetry.SpanAttrBackendID, name)

	removed, err := s.gateway.DeleteProject(ctx, name)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if !removed {
		s.log.Info("resource already absent", zap.String("backend_id", name))
		return nil
	}

	s.log.Info("resource deleted", zap.String("backend_id", name))
	return nil
}

// DisableResource marks the resource's project disabled. Returns false
// without error when the project does not exist.
func (s *ResourceService) DisableResource(ctx context.Context, backendID string) (bool, error) {
	return s.setEnabled(ctx, backendID, false)
}

// EnableResource marks the resource's project enabled. Returns false
// without error when the project does not exist.
func (s *ResourceService) EnableResource(ctx context.Context, backendID string) (bool, error) {
	return s.setEnabled(ctx, backendID, true)
}

// PauseResource is identical to DisableResource; there is no separate
// suspended state.
func (s *ResourceService) PauseResource(ctx context.Context, backendID string) (bool, error) {
	return s.DisableResource(ctx, backendID)
}

// DownscaleResource is identical to DisableResource; the identity service
// has no quota dimension to scale down.
func (s *ResourceService) DownscaleResource(ctx context.Context, backendID string) (bool, error) {
	return s.DisableResource(ctx, backendID)
}

// RestoreResource is identical to EnableResource.
func (s *ResourceService) RestoreResource(ctx context.Context, backendID string) (bool, error) {
	return s.EnableResource(ctx, backendID)
}

func (s *ResourceService) setEnabled(ctx context.Context, backendID string, enabled bool) (bool, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "resource", "set_enabled",
		telemetry.WithAttribute("enabled", enabled))
	defer span.End()

	if backendID == "" {
		return false, nil
	}
	name := provisioning.SanitizeName(backendID)
	telemetry.SetAttributes(span, telemetry.SpanAttrBackendID, name)

	var err error
	if enabled {
		err = s.gateway.EnableProject(ctx, name)
	} else {
		err = s.gateway.DisableProject(ctx, name)
	}
	if errors.Is(err, provisioning.ErrProjectNotFound) {
		s.log.Warn("state change requested for absent resource",
			zap.String("backend_id", name),
			zap.Bool("enabled", enabled),
		)
		return false, nil
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return false, err
	}
	return true, nil
}

// GetResourceMetadata projects the resource's current state into a flat
// map. An absent project yields an empty map, never an error.
func (s *ResourceService) GetResourceMetadata(ctx context.Context, backendID string) map[string]any {
	ctx, span := telemetry.StartServiceSpan(ctx, "resource", "metadata")
	defer span.End()

	if backendID == "" {
		return map[string]any{}
	}
	name := provisioning.SanitizeName(backendID)

	project := s.gateway.GetProject(ctx, name)
	if project == nil {
		return map[string]any{}
	}

	meta := &provisioning.ResourceMetadata{
		BackendID:   name,
		ProjectID:   project.ID,
		ProjectName: project.Name,
		Directory:   project.DirectoryID,
		Enabled:     project.Enabled,
		Description: project.Description,
	}
	return meta.Map()
}

// ListComponents returns the statically configured component identifiers.
// The identity service tracks no measurable components, so this never
// queries the backend.
func (s *ResourceService) ListComponents() []string {
	if s.components == nil {
		return []string{}
	}
	return s.components
}
