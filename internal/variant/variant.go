// Package variant names the two sides of the cold-start comparison.
package variant

import "fmt"

// Variant is one side of the A/B deployment.
type Variant int

const (
	// FastStart pulls through a SOCI index and starts lazily.
	FastStart Variant = iota
	// Baseline pulls the full image before starting.
	Baseline
)

// Variants returns every variant, fast-start first.
func Variants() []Variant {
	return []Variant{FastStart, Baseline}
}

// FastStart reports whether v is the SOCI-enabled side.
func (v Variant) FastStart() bool {
	return v == FastStart
}

// ServiceName is the service-identity tag. It doubles as the ECS service
// name and the ServiceName metric dimension value.
func (v Variant) ServiceName() string {
	if v.FastStart() {
		return "SociService"
	}
	return "NonSociService"
}

// Suffix is appended to task families and log stream prefixes.
func (v Variant) Suffix() string {
	if v.FastStart() {
		return "soci"
	}
	return "non-soci"
}

// Label is the human readable name used on the dashboard.
func (v Variant) Label() string {
	if v.FastStart() {
		return "SOCI"
	}
	return "Non-SOCI"
}

func (v Variant) String() string {
	return v.Suffix()
}

// Parse accepts a suffix or a service name.
func Parse(s string) (Variant, error) {
	for _, v := range Variants() {
		if s == v.Suffix() || s == v.ServiceName() {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown variant %q", s)
}
