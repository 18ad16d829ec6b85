package provisioning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sitesync/agent/internal/domain/provisioning"
	"github.com/sitesync/agent/internal/infrastructure/config"
	"github.com/sitesync/agent/internal/infrastructure/telemetry"
)

// CheckStatus is the outcome of one diagnostic check.
type CheckStatus string

const (
	CheckPassed  CheckStatus = "passed"
	CheckWarning CheckStatus = "warning"
	CheckFailed  CheckStatus = "failed"
)

// Check is one entry of a diagnostics report.
type Check struct {
	Name   string      `json:"name"`
	Status CheckStatus `json:"status"`
	Detail string      `json:"detail,omitempty"`
}

// Report aggregates all diagnostic checks. Passed is true when no check
// failed; warnings do not fail the report.
type Report struct {
	Passed      bool      `json:"passed"`
	Checks      []Check   `json:"checks"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Render produces a human-readable report for operator display.
func (r *Report) Render() string {
	var b strings.Builder
	if r.Passed {
		b.WriteString("diagnostics: all checks passed\n")
	} else {
		b.WriteString("diagnostics: FAILED\n")
	}
	for _, c := range r.Checks {
		fmt.Fprintf(&b, "  [%-7s] %s", c.Status, c.Name)
		if c.Detail != "" {
			fmt.Fprintf(&b, ": %s", c.Detail)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// DiagnosticsService runs the read-only composite health check. It never
// mutates identity service state.
type DiagnosticsService struct {
	gateway  provisioning.IdentityGateway
	identity config.IdentityConfig
	log      *zap.Logger
}

// NewDiagnosticsService creates a new DiagnosticsService.
func NewDiagnosticsService(gateway provisioning.IdentityGateway, identity config.IdentityConfig, log *zap.Logger) *DiagnosticsService {
	return &DiagnosticsService{
		gateway:  gateway,
		identity: identity,
		log:      log,
	}
}

// Ping performs a connectivity and authentication round-trip.
func (s *DiagnosticsService) Ping(ctx context.Context) error {
	return s.gateway.Ping(ctx)
}

// Run executes the ordered checks, continuing past individual failures:
// connectivity, directory presence (absence is a warning, the directory may
// be created lazily later), default role presence (warning) and static
// configuration validity.
func (s *DiagnosticsService) Run(ctx context.Context) *Report {
	ctx, span := telemetry.StartServiceSpan(ctx, "diagnostics", "run")
	defer span.End()

	report := &Report{
		Passed:      true,
		GeneratedAt: time.Now().UTC(),
	}
	add := func(c Check) {
		if c.Status == CheckFailed {
			report.Passed = false
		}
		report.Checks = append(report.Checks, c)
	}

	if err := s.gateway.Ping(ctx); err != nil {
		add(Check{Name: "connectivity", Status: CheckFailed, Detail: err.Error()})
	} else {
		add(Check{Name: "connectivity", Status: CheckPassed})
	}

	if dir := s.gateway.GetDirectory(ctx, s.identity.DomainName); dir == nil {
		add(Check{
			Name:   "directory",
			Status: CheckWarning,
			Detail: fmt.Sprintf("directory %q not found; it will be created on first use", s.identity.DomainName),
		})
	} else {
		add(Check{Name: "directory", Status: CheckPassed})
	}

	if role := s.gateway.GetRole(ctx, s.identity.DefaultRole); role == nil {
		add(Check{
			Name:   "default_role",
			Status: CheckWarning,
			Detail: fmt.Sprintf("role %q not found; it will be created on first grant", s.identity.DefaultRole),
		})
	} else {
		add(Check{Name: "default_role", Status: CheckPassed})
	}

	if err := s.identity.Validate(); err != nil {
		add(Check{Name: "configuration", Status: CheckFailed, Detail: err.Error()})
	} else {
		add(Check{Name: "configuration", Status: CheckPassed})
	}

	if !report.Passed {
		s.log.Warn("diagnostics failed", zap.Int("checks", len(report.Checks)))
	}
	return report
}
