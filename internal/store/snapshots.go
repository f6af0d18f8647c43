package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// CreateSnapshot inserts a new snapshot and returns its ID.
func (db *DB) CreateSnapshot(command, version string) (int64, error) {
	return createSnapshot(db.conn, command, version)
}

func createSnapshot(x execer, command, version string) (int64, error) {
	result, err := x.Exec(
		"INSERT INTO snapshots (taken_at, command, version) VALUES (?, ?, ?)",
		time.Now().UTC().Format(time.RFC3339Nano), command, version,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// RecordRun stores a snapshot with its scores, findings and metrics in a
// single transaction and returns the snapshot ID.
func (db *DB) RecordRun(run Run) (int64, error) {
	var id int64
	err := db.withTx(func(tx *sql.Tx) error {
		var err error
		if id, err = createSnapshot(tx, run.Command, run.Version); err != nil {
			return fmt.Errorf("creating snapshot: %w", err)
		}

		for i := range run.Scores {
			rs := run.Scores[i]
			rs.SnapshotID = id
			if err := insertRepoScore(tx, &rs); err != nil {
				return fmt.Errorf("inserting score for %s: %w", rs.Repository, err)
			}
		}
		for i := range run.Findings {
			f := run.Findings[i]
			f.SnapshotID = id
			if err := insertFinding(tx, &f); err != nil {
				return fmt.Errorf("inserting finding for %s: %w", f.Repository, err)
			}
		}

		// Sorted so row order is reproducible.
		names := make([]string, 0, len(run.Metrics))
		for name := range run.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := insertAggregateMetric(tx, id, name, run.Metrics[name], ""); err != nil {
				return fmt.Errorf("inserting metric %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("recording run: %w", err)
	}
	return id, nil
}

// GetLatestSnapshot returns the most recent snapshot, or nil if none exist.
func (db *DB) GetLatestSnapshot() (*Snapshot, error) {
	row := db.conn.QueryRow("SELECT id, taken_at, command, version FROM snapshots ORDER BY id DESC LIMIT 1")
	return scanSnapshot(row)
}

// GetSnapshot returns a snapshot by ID.
func (db *DB) GetSnapshot(id int64) (*Snapshot, error) {
	row := db.conn.QueryRow("SELECT id, taken_at, command, version FROM snapshots WHERE id = ?", id)
	return scanSnapshot(row)
}

// GetSnapshotN returns the Nth most recent snapshot (1 = latest, 2 = previous, etc.).
func (db *DB) GetSnapshotN(n int) (*Snapshot, error) {
	if n < 1 {
		return nil, fmt.Errorf("snapshot index must be at least 1, got %d", n)
	}
	row := db.conn.QueryRow(
		"SELECT id, taken_at, command, version FROM snapshots ORDER BY id DESC LIMIT 1 OFFSET ?",
		n-1,
	)
	return scanSnapshot(row)
}

// GetRecentSnapshots returns up to n snapshots, newest first.
func (db *DB) GetRecentSnapshots(n int) ([]Snapshot, error) {
	rows, err := db.conn.Query(
		"SELECT id, taken_at, command, version FROM snapshots ORDER BY id DESC LIMIT ?", n,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var snapshots []Snapshot
	for rows.Next() {
		var s Snapshot
		var takenAt string
		if err := rows.Scan(&s.ID, &takenAt, &s.Command, &s.Version); err != nil {
			return nil, err
		}
		s.TakenAt, _ = time.Parse(time.RFC3339Nano, takenAt)
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

func scanSnapshot(row *sql.Row) (*Snapshot, error) {
	var s Snapshot
	var takenAt string
	err := row.Scan(&s.ID, &takenAt, &s.Command, &s.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.TakenAt, _ = time.Parse(time.RFC3339Nano, takenAt)
	return &s, nil
}

// InsertRepoScore inserts a repository score for a snapshot.
func (db *DB) InsertRepoScore(rs *RepoScore) error {
	return insertRepoScore(db.conn, rs)
}

func insertRepoScore(x execer, rs *RepoScore) error {
	_, err := x.Exec(
		`INSERT INTO repo_scores
		(snapshot_id, repository, url, stars, forks, open_issues, score,
		 readme_words, comment_ratio, markdown_files, has_docs_folder)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rs.SnapshotID, rs.Repository, rs.URL, rs.Stars, rs.Forks, rs.OpenIssues,
		rs.Score, rs.ReadmeWords, rs.CommentRatio, rs.MarkdownFiles, rs.HasDocsFolder,
	)
	return err
}

// InsertFinding inserts a finding for a snapshot.
func (db *DB) InsertFinding(f *FindingRow) error {
	return insertFinding(db.conn, f)
}

func insertFinding(x execer, f *FindingRow) error {
	_, err := x.Exec(
		`INSERT INTO findings (snapshot_id, repository, criterion, issue, suggestion)
		VALUES (?, ?, ?, ?, ?)`,
		f.SnapshotID, f.Repository, f.Criterion, f.Issue, f.Suggestion,
	)
	return err
}

// InsertAggregateMetric inserts an aggregate metric for a snapshot.
func (db *DB) InsertAggregateMetric(snapshotID int64, name string, value float64, detail string) error {
	return insertAggregateMetric(db.conn, snapshotID, name, value, detail)
}

func insertAggregateMetric(x execer, snapshotID int64, name string, value float64, detail string) error {
	_, err := x.Exec(
		"INSERT INTO aggregate_metrics (snapshot_id, metric_name, metric_value, detail) VALUES (?, ?, ?, ?)",
		snapshotID, name, value, detail,
	)
	return err
}

// GetAggregateMetrics returns all aggregate metrics for a snapshot.
func (db *DB) GetAggregateMetrics(snapshotID int64) ([]AggregateMetric, error) {
	rows, err := db.conn.Query(
		"SELECT id, snapshot_id, metric_name, metric_value, detail FROM aggregate_metrics WHERE snapshot_id = ? ORDER BY id",
		snapshotID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var metrics []AggregateMetric
	for rows.Next() {
		var m AggregateMetric
		var detail sql.NullString
		if err := rows.Scan(&m.ID, &m.SnapshotID, &m.MetricName, &m.MetricValue, &detail); err != nil {
			return nil, err
		}
		m.Detail = detail.String
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// GetRepoScores returns all repository scores for a snapshot, highest first.
func (db *DB) GetRepoScores(snapshotID int64) ([]RepoScore, error) {
	rows, err := db.conn.Query(
		`SELECT id, snapshot_id, repository, url, stars, forks, open_issues, score,
		 readme_words, comment_ratio, markdown_files, has_docs_folder
		 FROM repo_scores WHERE snapshot_id = ? ORDER BY score DESC, id`,
		snapshotID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var scores []RepoScore
	for rows.Next() {
		var rs RepoScore
		var url sql.NullString
		if err := rows.Scan(
			&rs.ID, &rs.SnapshotID, &rs.Repository, &url, &rs.Stars, &rs.Forks,
			&rs.OpenIssues, &rs.Score, &rs.ReadmeWords, &rs.CommentRatio,
			&rs.MarkdownFiles, &rs.HasDocsFolder,
		); err != nil {
			return nil, err
		}
		rs.URL = url.String
		scores = append(scores, rs)
	}
	return scores, rows.Err()
}

// GetFindings returns the findings recorded for a snapshot in insertion order.
func (db *DB) GetFindings(snapshotID int64) ([]FindingRow, error) {
	rows, err := db.conn.Query(
		`SELECT id, snapshot_id, repository, criterion, issue, suggestion
		 FROM findings WHERE snapshot_id = ? ORDER BY id`,
		snapshotID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var findings []FindingRow
	for rows.Next() {
		var f FindingRow
		if err := rows.Scan(&f.ID, &f.SnapshotID, &f.Repository, &f.Criterion, &f.Issue, &f.Suggestion); err != nil {
			return nil, err
		}
		findings = append(findings, f)
	}
	return findings, rows.Err()
}
