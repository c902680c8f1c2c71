// internal/mockdata/thresholds.go
package mockdata

import "github.com/arixstoo/Junction/internal/model"

// Parameter status classification.
const (
	StatusNormal   = "normal"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

// Pond overall status.
const (
	PondHealthy  = "healthy"
	PondWarning  = "warning"
	PondCritical = "critical"
)

// check describes one monitored parameter: its logical key (used in API
// query strings and ids), French display name, CSV column, and unit.
type check struct {
	Key     string
	Display string
	Column  string
	Unit    string
	Icon    string
}

var checks = []check{
	{Key: "temperature", Display: "Température", Column: "Temp", Unit: "°C", Icon: "🌡️"},
	{Key: "ph", Display: "pH", Column: "pH", Unit: "", Icon: "⚗️"},
	{Key: "oxygen", Display: "Oxygène", Column: "DO", Unit: "mg/L", Icon: "💧"},
	{Key: "turbidity", Display: "Turbidité", Column: "Turbidity", Unit: "NTU", Icon: "🌊"},
	{Key: "nitrate", Display: "Nitrate", Column: "Nitrate", Unit: "mg/L", Icon: "🧪"},
	{Key: "nitrite", Display: "Nitrite", Column: "Nitrite", Unit: "mg/L", Icon: "🧪"},
	{Key: "ammonia", Display: "Ammoniac", Column: "Ammonia", Unit: "mg/L", Icon: "⚠️"},
}

// parameterKeys are the classified parameters plus water level, which is
// reported but never alerts.
var parameterKeys = []string{
	"temperature", "ph", "oxygen", "turbidity", "nitrate", "nitrite", "ammonia", "waterLevel",
}

// Classify buckets a parameter value into normal/warning/critical using the
// fixed per-parameter thresholds.
func Classify(parameter string, value float64) string {
	switch parameter {
	case "temperature":
		if value > 30 {
			return StatusCritical
		}
		if value > 27 || value < 20 {
			return StatusWarning
		}
	case "ph":
		if value > 9 || value < 6 {
			return StatusCritical
		}
		if value > 8.5 || value < 6.5 {
			return StatusWarning
		}
	case "oxygen":
		if value < 3 {
			return StatusCritical
		}
		if value < 5 {
			return StatusWarning
		}
	case "turbidity":
		if value > 15 {
			return StatusCritical
		}
		if value > 10 {
			return StatusWarning
		}
	case "nitrate":
		if value > 50 {
			return StatusCritical
		}
		if value > 30 {
			return StatusWarning
		}
	case "nitrite":
		if value > 1 {
			return StatusCritical
		}
		if value > 0.5 {
			return StatusWarning
		}
	case "ammonia":
		if value > 2 {
			return StatusCritical
		}
		if value > 1 {
			return StatusWarning
		}
	}
	return StatusNormal
}

func fptr(v float64) *float64 { return &v }

// Bounds returns the warning/critical bounds for a parameter, for chart
// threshold lines. Absent bounds stay nil.
func Bounds(parameter string) model.Thresholds {
	switch parameter {
	case "temperature":
		return model.Thresholds{WarningLow: fptr(20), WarningHigh: fptr(27), CriticalHigh: fptr(30)}
	case "ph":
		return model.Thresholds{WarningLow: fptr(6.5), WarningHigh: fptr(8.5), CriticalLow: fptr(6), CriticalHigh: fptr(9)}
	case "oxygen":
		return model.Thresholds{WarningLow: fptr(5), CriticalLow: fptr(3)}
	case "turbidity":
		return model.Thresholds{WarningHigh: fptr(10), CriticalHigh: fptr(15)}
	case "nitrate":
		return model.Thresholds{WarningHigh: fptr(30), CriticalHigh: fptr(50)}
	case "nitrite":
		return model.Thresholds{WarningHigh: fptr(0.5), CriticalHigh: fptr(1)}
	case "ammonia":
		return model.Thresholds{WarningHigh: fptr(1), CriticalHigh: fptr(2)}
	}
	return model.Thresholds{}
}

// violatedBound returns the bound a value crossed to reach the given
// severity, for the live schema's threshold_value field.
func violatedBound(parameter string, value float64, severity string) float64 {
	b := Bounds(parameter)
	if severity == StatusCritical {
		if b.CriticalHigh != nil && value > *b.CriticalHigh {
			return *b.CriticalHigh
		}
		if b.CriticalLow != nil && value < *b.CriticalLow {
			return *b.CriticalLow
		}
	}
	if b.WarningHigh != nil && value > *b.WarningHigh {
		return *b.WarningHigh
	}
	if b.WarningLow != nil && value < *b.WarningLow {
		return *b.WarningLow
	}
	return 0
}

// ParameterKey maps a display name (e.g. "Température") back to its logical
// key. Unknown names return "".
func ParameterKey(display string) string {
	for _, c := range checks {
		if c.Display == display {
			return c.Key
		}
	}
	return ""
}

// DisplayName maps a logical key to its display name.
func DisplayName(parameter string) string {
	for _, c := range checks {
		if c.Key == parameter {
			return c.Display
		}
	}
	if parameter == "waterLevel" {
		return "Niveau d'eau"
	}
	return parameter
}

// Unit returns the display unit for a parameter key.
func Unit(parameter string) string {
	for _, c := range checks {
		if c.Key == parameter {
			return c.Unit
		}
	}
	if parameter == "waterLevel" {
		return "m"
	}
	return ""
}

// rowValue pulls a logical parameter out of a raw row.
func rowValue(r Row, parameter string) (float64, bool) {
	switch parameter {
	case "temperature":
		return r.Temp, true
	case "ph":
		return r.PH, true
	case "oxygen":
		return r.DO, true
	case "turbidity":
		return r.Turbidity, true
	case "nitrate":
		return r.Nitrate, true
	case "nitrite":
		return r.Nitrite, true
	case "ammonia":
		return r.Ammonia, true
	case "waterLevel":
		return r.WaterLevel, true
	}
	return 0, false
}

// defaultValue is the center used for synthetic series when no real data
// exists for a pond.
func defaultValue(parameter string) float64 {
	switch parameter {
	case "temperature":
		return 25
	case "ph":
		return 7.2
	case "oxygen":
		return 6.5
	case "turbidity":
		return 5
	case "nitrate":
		return 20
	case "nitrite":
		return 0.3
	case "ammonia":
		return 0.5
	case "waterLevel":
		return 1.5
	}
	return 0
}

// variance is the spread applied around the base value for synthetic series.
func variance(parameter string) float64 {
	switch parameter {
	case "temperature":
		return 3
	case "ph":
		return 0.5
	case "oxygen":
		return 2
	case "turbidity":
		return 2
	case "nitrate":
		return 5
	case "nitrite":
		return 0.2
	case "ammonia":
		return 0.3
	case "waterLevel":
		return 0.2
	}
	return 1
}
