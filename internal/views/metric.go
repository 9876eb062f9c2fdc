package views

import (
	"encoding/json"
	"fmt"
	"math"
)

// sentinelND is the wire form of a metric that cannot be determined. It is a
// distinguished marker, deliberately neither zero nor null: zero would read
// as "no change" and null as "no history", and both readings are wrong.
const sentinelND = "N.D."

// Metric is a derived numeric that may be non-determinable. The distinction
// lives in the type; the sentinel string appears only at the JSON boundary.
type Metric struct {
	value float64
	known bool
}

// Numeric returns a determined metric.
func Numeric(v float64) Metric { return Metric{value: v, known: true} }

// NotDeterminable returns the undetermined metric.
func NotDeterminable() Metric { return Metric{} }

// Value returns the numeric value and whether it is determined.
func (m Metric) Value() (float64, bool) { return m.value, m.known }

// String renders the metric for human-facing output.
func (m Metric) String() string {
	if !m.known {
		return sentinelND
	}
	return trimFloat(m.value)
}

func trimFloat(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.1f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

// MarshalJSON writes a number, or the sentinel string when undetermined.
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.known {
		return json.Marshal(sentinelND)
	}
	return json.Marshal(m.value)
}

// UnmarshalJSON accepts both wire forms.
func (m *Metric) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != sentinelND {
			return fmt.Errorf("unknown metric sentinel %q", s)
		}
		*m = NotDeterminable()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Numeric(v)
	return nil
}

// round2 rounds to two decimals, the precision carried on the wire.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
