package aggregate

// Health score weights. The score is a heuristic indicator, not an exact SLA
// figure: assignment ratio carries up to 50 points, unassigned IPs cost up to
// 20, high utilization and fair distribution earn bonuses.
const (
	assignmentWeight  = 50.0
	unassignedPenalty = 20.0
	highUtilBonus     = 20.0 // ratio > 0.8
	midUtilBonus      = 10.0 // ratio > 0.6
	veryFairBonus     = 15.0 // previous-cycle Gini < 0.1
	fairBonus         = 10.0 // previous-cycle Gini < 0.3
	changePenaltyUnit = 2.0  // stability points per change event
	maxChangePenalty  = 50.0
)

// healthScore computes the 0–100 cluster health score. The fairness bonus is
// keyed on the previous cycle's Gini value; hasPrevGini is false on the first
// cycle. When nothing is configured the score is 0.
func healthScore(configured, assigned int, prevGini float64, hasPrevGini bool) float64 {
	if configured <= 0 {
		return 0
	}

	ratio := float64(assigned) / float64(configured)
	score := ratio * assignmentWeight

	unassigned := float64(configured-assigned) / float64(configured)
	score -= unassigned * unassignedPenalty

	switch {
	case ratio > 0.8:
		score += highUtilBonus
	case ratio > 0.6:
		score += midUtilBonus
	}

	if hasPrevGini {
		switch {
		case prevGini < 0.1:
			score += veryFairBonus
		case prevGini < 0.3:
			score += fairBonus
		}
	}

	return clamp(score, 0, 100)
}

// stabilityScore starts at 100 and subtracts 2 points per change event
// retained in the last hour, capped at 50, floored at 0.
func stabilityScore(changeEvents int) float64 {
	penalty := changePenaltyUnit * float64(changeEvents)
	if penalty > maxChangePenalty {
		penalty = maxChangePenalty
	}
	return clamp(100-penalty, 0, 100)
}

// clamp restricts v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
