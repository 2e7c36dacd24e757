package alerts

import (
	"strconv"
	"strings"

	"github.com/rh-john/ocp-eip-monitoring/internal/aggregate"
)

// evalCondition evaluates a rule condition string against a published bundle.
//
// Supported expressions (field operator value):
//
//	health_score < 50
//	stability_score < 60
//	mismatch_total > 0
//	malfunctioning_total > 0
//	critical_total > 0
//	overcommitted_total > 0
//	utilization_percent < 50
//	unassigned_total > 10
//	gini > 0.5
//	nodes_with_errors > 0
//	cpic_error_total > 0
//	changes_last_hour > 20
//
// Returns (fires bool, triggering value float64).
// Returns (false, 0) if the expression cannot be parsed or the field is unknown.
func evalCondition(cond string, b *aggregate.Bundle) (bool, float64) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	threshold, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return false, 0
	}

	v, ok := numericField(field, b)
	if !ok {
		return false, 0
	}
	return compareFloat(v, op, threshold), v
}

// numericField maps a field name to its value in the bundle.
func numericField(field string, b *aggregate.Bundle) (float64, bool) {
	switch field {
	case "health_score":
		return b.HealthScore, true
	case "stability_score":
		return b.StabilityScore, true
	case "mismatch_total":
		return float64(b.MismatchTotal), true
	case "malfunctioning_total":
		return float64(b.Malfunctioning), true
	case "critical_total":
		return float64(b.Critical), true
	case "overcommitted_total":
		return float64(b.Overcommitted), true
	case "utilization_percent":
		return b.UtilizationPct, true
	case "unassigned_total":
		return float64(b.Unassigned), true
	case "gini":
		return b.Gini, true
	case "nodes_with_errors":
		return float64(b.NodesWithErrors), true
	case "cpic_error_total":
		return float64(b.CPICError), true
	case "changes_last_hour":
		return float64(b.ChangesLastHour), true
	default:
		return 0, false
	}
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	default:
		return false
	}
}
