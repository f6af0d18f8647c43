package app

import (
	"slices"

	"github.com/blackwell-systems/reposcout/internal/docscore"
	"github.com/blackwell-systems/reposcout/internal/scraper"
	"github.com/blackwell-systems/reposcout/internal/store"
)

// runEntry is one scored repository or local project, ready to persist.
type runEntry struct {
	Name       string
	URL        string
	Stars      int
	Forks      int
	OpenIssues int
	Summary    docscore.Summary
}

// scanEntries converts scraper results into run entries.
func scanEntries(results []scraper.Result) []runEntry {
	entries := make([]runEntry, 0, len(results))
	for _, r := range results {
		entries = append(entries, runEntry{
			Name:       r.FullName,
			URL:        r.HTMLURL,
			Stars:      r.StargazersCount,
			Forks:      r.ForksCount,
			OpenIssues: r.OpenIssuesCount,
			Summary:    r.Documentation,
		})
	}
	return entries
}

// buildRun flattens entries into the rows and aggregate metrics stored for
// one snapshot. extra metrics (such as skipped counts) are merged in.
func buildRun(command string, entries []runEntry, extra map[string]float64) store.Run {
	run := store.Run{
		Command: command,
		Version: appVersion,
		Metrics: aggregateMetrics(entries),
	}
	for k, v := range extra {
		run.Metrics[k] = v
	}
	for _, e := range entries {
		stats := e.Summary.Stats
		run.Scores = append(run.Scores, store.RepoScore{
			Repository:    e.Name,
			URL:           e.URL,
			Stars:         e.Stars,
			Forks:         e.Forks,
			OpenIssues:    e.OpenIssues,
			Score:         e.Summary.Score,
			ReadmeWords:   stats.ReadmeWordCount,
			CommentRatio:  stats.CodeCommentRatio,
			MarkdownFiles: stats.MarkdownFileCount,
			HasDocsFolder: len(stats.DocsFolders) > 0,
		})
		for _, f := range e.Summary.Findings {
			run.Findings = append(run.Findings, store.FindingRow{
				Repository: e.Name,
				Criterion:  f.Criterion,
				Issue:      f.Issue,
				Suggestion: f.Suggestion,
			})
		}
	}
	return run
}

// aggregateMetrics summarizes the scores of a run.
func aggregateMetrics(entries []runEntry) map[string]float64 {
	m := map[string]float64{"repositories": float64(len(entries))}
	if len(entries) == 0 {
		return m
	}

	scores := make([]int, 0, len(entries))
	var total, ratio, markdown float64
	var withReadme, withDocs int
	for _, e := range entries {
		s := e.Summary
		scores = append(scores, s.Score)
		total += float64(s.Score)
		ratio += s.Stats.CodeCommentRatio
		markdown += float64(s.Stats.MarkdownFileCount)
		if s.Stats.HasReadme {
			withReadme++
		}
		if len(s.Stats.DocsFolders) > 0 {
			withDocs++
		}
	}
	slices.Sort(scores)

	n := float64(len(entries))
	m["avg_score"] = total / n
	m["median_score"] = median(scores)
	m["min_score"] = float64(scores[0])
	m["max_score"] = float64(scores[len(scores)-1])
	m["with_readme"] = float64(withReadme)
	m["with_docs_folder"] = float64(withDocs)
	m["avg_comment_ratio"] = ratio / n
	m["avg_markdown_files"] = markdown / n
	return m
}

// median expects sorted input.
func median(sorted []int) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return float64(sorted[n/2])
	}
	return float64(sorted[n/2-1]+sorted[n/2]) / 2
}
