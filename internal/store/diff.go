package store

import (
	"fmt"
	"sort"
)

// MetricHigherIsBetter maps metric names to whether higher values are
// better. Unknown metrics are assumed higher-is-better.
var MetricHigherIsBetter = map[string]bool{
	"repositories":       true,
	"candidates":         true,
	"avg_score":          true,
	"median_score":       true,
	"min_score":          true,
	"max_score":          true,
	"with_readme":        true,
	"with_docs_folder":   true,
	"avg_comment_ratio":  true,
	"avg_markdown_files": true,
	"skipped":            false,
	"filtered":           false,
}

// HigherIsBetter reports the preferred direction for a metric.
func HigherIsBetter(name string) bool {
	if v, ok := MetricHigherIsBetter[name]; ok {
		return v
	}
	return true
}

// Compare loads the metrics and scores of two snapshots and returns their
// differences.
func (db *DB) Compare(prev, curr *Snapshot) (*SnapshotDiff, error) {
	prevMetrics, err := db.GetAggregateMetrics(prev.ID)
	if err != nil {
		return nil, fmt.Errorf("loading previous metrics: %w", err)
	}
	currMetrics, err := db.GetAggregateMetrics(curr.ID)
	if err != nil {
		return nil, fmt.Errorf("loading current metrics: %w", err)
	}
	prevScores, err := db.GetRepoScores(prev.ID)
	if err != nil {
		return nil, fmt.Errorf("loading previous scores: %w", err)
	}
	currScores, err := db.GetRepoScores(curr.ID)
	if err != nil {
		return nil, fmt.Errorf("loading current scores: %w", err)
	}

	return &SnapshotDiff{
		Previous:     prev,
		Current:      curr,
		Deltas:       ComputeDeltas(prevMetrics, currMetrics),
		Repositories: ComputeRepoDeltas(prevScores, currScores),
	}, nil
}

// ComputeDeltas compares two sets of aggregate metrics, in the order of curr.
func ComputeDeltas(prev, curr []AggregateMetric) []MetricDelta {
	prevMap := make(map[string]float64)
	for _, m := range prev {
		prevMap[m.MetricName] = m.MetricValue
	}

	var deltas []MetricDelta
	for _, m := range curr {
		prevVal := prevMap[m.MetricName]
		delta := m.MetricValue - prevVal
		deltas = append(deltas, MetricDelta{
			Name:      m.MetricName,
			Previous:  prevVal,
			Current:   m.MetricValue,
			Delta:     delta,
			Direction: direction(delta, HigherIsBetter(m.MetricName)),
		})
	}
	return deltas
}

// ComputeRepoDeltas pairs repositories across two snapshots. Repositories
// present in only one snapshot are reported as new or removed. The result
// is sorted by repository name.
func ComputeRepoDeltas(prev, curr []RepoScore) []RepoDelta {
	prevMap := make(map[string]int, len(prev))
	for _, rs := range prev {
		prevMap[rs.Repository] = rs.Score
	}

	var deltas []RepoDelta
	seen := make(map[string]bool, len(curr))
	for _, rs := range curr {
		seen[rs.Repository] = true
		p, ok := prevMap[rs.Repository]
		if !ok {
			deltas = append(deltas, RepoDelta{Repository: rs.Repository, Current: rs.Score, Delta: rs.Score, Direction: DirectionNew})
			continue
		}
		d := rs.Score - p
		deltas = append(deltas, RepoDelta{
			Repository: rs.Repository,
			Previous:   p,
			Current:    rs.Score,
			Delta:      d,
			Direction:  direction(float64(d), true),
		})
	}
	for _, rs := range prev {
		if !seen[rs.Repository] {
			deltas = append(deltas, RepoDelta{Repository: rs.Repository, Previous: rs.Score, Delta: -rs.Score, Direction: DirectionRemoved})
		}
	}

	sort.Slice(deltas, func(i, j int) bool { return deltas[i].Repository < deltas[j].Repository })
	return deltas
}

func direction(delta float64, higherIsBetter bool) string {
	switch {
	case delta == 0:
		return DirectionUnchanged
	case (delta > 0) == higherIsBetter:
		return DirectionImproved
	default:
		return DirectionRegressed
	}
}
