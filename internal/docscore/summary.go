package docscore

import "math"

// MaxScore is the upper bound of a documentation score.
const MaxScore = 100

// Aggregate totals the criterion scores into a Summary. The total is rounded
// half up and clamped to [0, MaxScore]. Findings follow criterion order.
func Aggregate(scores []CriterionScore, stats Stats) Summary {
	var total float64
	findings := []Finding{}
	for _, s := range scores {
		total += s.Points
		if s.finding != nil && s.Points < s.Max {
			f := *s.finding
			f.Criterion = s.Name
			findings = append(findings, f)
		}
	}

	criteria := make([]CriterionScore, len(scores))
	copy(criteria, scores)

	return Summary{
		Score:    clampScore(roundHalfUp(total)),
		Findings: findings,
		Criteria: criteria,
		Stats:    stats,
	}
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

func clampScore(score int) int {
	return max(0, min(MaxScore, score))
}
