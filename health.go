package appshell

import "time"

// HealthStatus represents the overall health state derived from the
// lifecycle statuses of the registered applications.
type HealthStatus int

const (
	// HealthStatusUnknown indicates that health cannot be determined.
	HealthStatusUnknown HealthStatus = iota

	// HealthStatusHealthy indicates every application is in a good state.
	HealthStatusHealthy

	// HealthStatusDegraded indicates some applications have failed or
	// been skipped while others are operating normally.
	HealthStatusDegraded

	// HealthStatusUnhealthy indicates every registered application has
	// failed or been skipped.
	HealthStatusUnhealthy
)

// String returns the string representation of the health status.
func (s HealthStatus) String() string {
	switch s {
	case HealthStatusHealthy:
		return "healthy"
	case HealthStatusDegraded:
		return "degraded"
	case HealthStatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so reports serialize with
// readable status names.
func (s HealthStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// AppHealth is the health view of one application.
type AppHealth struct {
	// Name is the application name.
	Name string `json:"name"`

	// Status is the application's lifecycle status.
	Status AppStatus `json:"status"`

	// Health is the status mapped onto the health scale.
	Health HealthStatus `json:"health"`

	// Message carries the last error for unhealthy applications.
	Message string `json:"message,omitempty"`
}

// HealthReport aggregates application health into one snapshot.
type HealthReport struct {
	// Status is the aggregate health across all applications.
	Status HealthStatus `json:"status"`

	// Apps holds the per-application views in registration order.
	Apps []AppHealth `json:"apps,omitempty"`

	// GeneratedAt indicates when the report was assembled.
	GeneratedAt time.Time `json:"generatedAt"`
}

// Health reports aggregate health derived from application statuses. An
// empty registry is healthy; failures degrade the report, and a registry
// where everything has failed or been skipped is unhealthy.
func (s *Shell) Health() HealthReport {
	report := HealthReport{GeneratedAt: time.Now()}

	s.mu.RLock()
	for _, rt := range s.registry.ordered() {
		ah := AppHealth{
			Name:   rt.descriptor.Name,
			Status: rt.status,
			Health: appHealthFor(rt.status),
		}
		if ah.Health != HealthStatusHealthy && rt.lastErr != nil {
			ah.Message = rt.lastErr.Error()
		}
		report.Apps = append(report.Apps, ah)
	}
	s.mu.RUnlock()

	report.Status = aggregateHealth(report.Apps)
	return report
}

func appHealthFor(status AppStatus) HealthStatus {
	switch {
	case status.Failed():
		return HealthStatusUnhealthy
	case status == StatusSkipped:
		return HealthStatusDegraded
	default:
		return HealthStatusHealthy
	}
}

func aggregateHealth(apps []AppHealth) HealthStatus {
	if len(apps) == 0 {
		return HealthStatusHealthy
	}
	impaired := 0
	for _, ah := range apps {
		if ah.Health != HealthStatusHealthy {
			impaired++
		}
	}
	switch impaired {
	case 0:
		return HealthStatusHealthy
	case len(apps):
		return HealthStatusUnhealthy
	default:
		return HealthStatusDegraded
	}
}
