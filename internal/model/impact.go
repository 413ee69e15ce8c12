package model

// Impact is the severity the rule engine attached to a finding.
// Values are kept exactly as the engine returned them; an empty Impact means
// the engine reported none (typical for passes).
type Impact string

// Impact levels reported by axe-core, from least to most severe.
const (
	ImpactNone     Impact = ""
	ImpactMinor    Impact = "minor"
	ImpactModerate Impact = "moderate"
	ImpactSerious  Impact = "serious"
	ImpactCritical Impact = "critical"
)

// String returns the impact as reported, or "-" when none was reported.
func (i Impact) String() string {
	if i == ImpactNone {
		return "-"
	}
	return string(i)
}

// Present reports whether the engine attached an impact.
func (i Impact) Present() bool {
	return i != ImpactNone
}

// Rank orders impacts for display. Unknown values rank with ImpactNone.
// The rank never affects a pass/fail verdict.
func (i Impact) Rank() int {
	switch i {
	case ImpactMinor:
		return 1
	case ImpactModerate:
		return 2
	case ImpactSerious:
		return 3
	case ImpactCritical:
		return 4
	default:
		return 0
	}
}

// Impacts returns the known impact levels from most to least severe.
func Impacts() []Impact {
	return []Impact{ImpactCritical, ImpactSerious, ImpactModerate, ImpactMinor}
}
