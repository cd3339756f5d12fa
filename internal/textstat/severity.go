package textstat

// Severity grades a finding for display.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Band returns high above hi, medium above mid, low otherwise.
func Band(v, mid, hi float64) Severity {
	switch {
	case v > hi:
		return SeverityHigh
	case v > mid:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
