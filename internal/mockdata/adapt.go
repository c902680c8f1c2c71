// internal/mockdata/adapt.go
package mockdata

import "github.com/arixstoo/Junction/internal/model"

// LiveSeverity maps the mock schema's two-tier severity onto the live
// schema's four tiers. Warning lands on the middle tier.
func LiveSeverity(severity string) string {
	if severity == StatusCritical {
		return model.SeverityCritical
	}
	return model.SeverityMedium
}

// MockSeverity is the reverse mapping, for displaying live alerts in
// two-tier surfaces.
func MockSeverity(severity string) string {
	if severity == model.SeverityCritical {
		return StatusCritical
	}
	return StatusWarning
}

// Live translates a mock-schema alert into the live API schema. The two
// shapes are kept as distinct types with this adapter at the boundary.
func (a Alert) Live() model.Alert {
	parameter := ParameterKey(a.Parameter)
	if parameter == "" {
		parameter = a.Parameter
	}
	return model.Alert{
		ID:             a.ID,
		PondID:         a.PondID,
		AlertType:      "threshold",
		Parameter:      parameter,
		CurrentValue:   a.Value,
		ThresholdValue: a.Threshold,
		Severity:       LiveSeverity(a.Severity),
		Message:        a.Message,
		IsResolved:     !a.IsActive,
		SMSSent:        a.Notifications.SMS,
		CreatedAt:      a.Timestamp,
		ResolvedAt:     a.ResolvedAt,
	}
}
