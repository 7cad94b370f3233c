package variant

// Metric ids used inside ImprovementExpression.
const (
	FastStartMetricID = "m1"
	BaselineMetricID  = "m2"
)

// ImprovementExpression is the CloudWatch metric math form of Improvement.
const ImprovementExpression = "100 * (" + BaselineMetricID + " - " + FastStartMetricID + ") / " + BaselineMetricID

// Improvement is the percentage by which fast undercuts baseline.
// A regression (fast > baseline) yields a negative value; a zero baseline
// follows IEEE division.
func Improvement(baseline, fast float64) float64 {
	return 100 * (baseline - fast) / baseline
}
