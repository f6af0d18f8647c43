// Package store provides SQLite persistence for reposcout run history.
package store

import "time"

// Snapshot is one recorded run.
type Snapshot struct {
	ID      int64     `json:"id"`
	TakenAt time.Time `json:"taken_at"`
	Command string    `json:"command"`
	Version string    `json:"version"`
}

// RepoScore is a repository's documentation score within a snapshot.
type RepoScore struct {
	ID            int64   `json:"id"`
	SnapshotID    int64   `json:"snapshot_id"`
	Repository    string  `json:"repository"`
	URL           string  `json:"url,omitempty"`
	Stars         int     `json:"stars"`
	Forks         int     `json:"forks"`
	OpenIssues    int     `json:"open_issues"`
	Score         int     `json:"score"`
	ReadmeWords   int     `json:"readme_words"`
	CommentRatio  float64 `json:"comment_ratio"`
	MarkdownFiles int     `json:"markdown_files"`
	HasDocsFolder bool    `json:"has_docs_folder"`
}

// FindingRow is one issue/suggestion pair recorded for a repository.
type FindingRow struct {
	ID         int64  `json:"id"`
	SnapshotID int64  `json:"snapshot_id"`
	Repository string `json:"repository"`
	Criterion  string `json:"criterion"`
	Issue      string `json:"issue"`
	Suggestion string `json:"suggestion"`
}

// AggregateMetric represents a named metric value within a snapshot.
type AggregateMetric struct {
	ID          int64   `json:"id"`
	SnapshotID  int64   `json:"snapshot_id"`
	MetricName  string  `json:"metric_name"`
	MetricValue float64 `json:"metric_value"`
	Detail      string  `json:"detail,omitempty"`
}

// Run is everything recorded for one snapshot.
type Run struct {
	Command  string
	Version  string
	Scores   []RepoScore
	Findings []FindingRow
	Metrics  map[string]float64
}

// SnapshotDiff represents the comparison between two snapshots.
type SnapshotDiff struct {
	Previous     *Snapshot     `json:"previous"`
	Current      *Snapshot     `json:"current"`
	Deltas       []MetricDelta `json:"deltas"`
	Repositories []RepoDelta   `json:"repositories"`
}

// Delta directions.
const (
	DirectionImproved  = "improved"
	DirectionRegressed = "regressed"
	DirectionUnchanged = "unchanged"
	DirectionNew       = "new"
	DirectionRemoved   = "removed"
)

// MetricDelta represents the change in a single metric between snapshots.
type MetricDelta struct {
	Name      string  `json:"name"`
	Previous  float64 `json:"previous"`
	Current   float64 `json:"current"`
	Delta     float64 `json:"delta"`
	Direction string  `json:"direction"`
}

// RepoDelta is the change in one repository's score between snapshots.
type RepoDelta struct {
	Repository string `json:"repository"`
	Previous   int    `json:"previous"`
	Current    int    `json:"current"`
	Delta      int    `json:"delta"`
	Direction  string `json:"direction"`
}
