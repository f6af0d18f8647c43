package docscore

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Extract derives documentation metrics from a snapshot. It never fails:
// missing or undecodable input yields zero-valued metrics.
func Extract(snap Snapshot, cfg Config) Stats {
	readme := normalizeText(snap.ReadmeText)

	stats := Stats{
		HasReadme:         strings.TrimSpace(readme) != "",
		ReadmeSections:    []string{},
		DocsFolders:       docsFolders(snap.FilePaths, cfg.DocsFolderPatterns),
		CodeCommentRatio:  normalizeRatio(snap.CommentRatio),
		MarkdownFileCount: len(snap.MarkdownFiles),
	}
	if stats.HasReadme {
		stats.ReadmeWordCount = len(strings.Fields(readme))
		stats.ReadmeSections = ReadmeSections(readme)
	}
	return stats
}

// normalizeText maps content that is not valid UTF-8 to the empty string so
// one badly encoded file scores as missing instead of failing the batch.
func normalizeText(s string) string {
	if !utf8.ValidString(s) {
		return ""
	}
	return s
}

func normalizeRatio(r float64) float64 {
	if math.IsNaN(r) || math.IsInf(r, 0) || r < 0 {
		return 0
	}
	return r
}

// docsFolders returns, for each path containing a segment that matches one of
// patterns, the path prefix ending at the first matching segment.
// Duplicates are dropped; first-seen order is kept.
func docsFolders(paths, patterns []string) []string {
	folders := []string{}
	if len(patterns) == 0 {
		return folders
	}

	want := make(map[string]bool, len(patterns))
	for _, p := range patterns {
		p = strings.ToLower(strings.Trim(strings.TrimSpace(p), "/"))
		if p != "" {
			want[p] = true
		}
	}

	seen := make(map[string]bool)
	for _, p := range paths {
		p = strings.ReplaceAll(p, `\`, "/")
		p = strings.TrimPrefix(p, "./")
		p = strings.Trim(p, "/")
		if p == "" {
			continue
		}

		segs := strings.Split(p, "/")
		for i, seg := range segs {
			if !want[strings.ToLower(seg)] {
				continue
			}
			folder := strings.Join(segs[:i+1], "/")
			if !seen[folder] {
				seen[folder] = true
				folders = append(folders, folder)
			}
			break
		}
	}
	return folders
}
