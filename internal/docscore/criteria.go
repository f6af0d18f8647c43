package docscore

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Criterion maxima. The markdown maximum comes from MarkdownConfig.
const (
	ReadmeMaxPoints       = 40
	DocsFolderMaxPoints   = 20
	CommentRatioMaxPoints = 20
	SectionsMaxPoints     = 20
)

// criterion scores one rule and describes its shortfall. Criteria run in
// the order they appear in criteria.
type criterion func(stats Stats, cfg Config, md MarkdownResult) CriterionScore

var criteria = []criterion{
	readmeCriterion,
	docsFolderCriterion,
	commentRatioCriterion,
	sectionsCriterion,
	markdownCriterion,
}

// ScoreCriteria applies every criterion to stats and returns their scores in
// fixed order: readme, docs folder, comment ratio, sections, markdown.
func ScoreCriteria(stats Stats, cfg Config, md MarkdownResult) []CriterionScore {
	scores := make([]CriterionScore, 0, len(criteria))
	for _, c := range criteria {
		s := c(stats, cfg, md)
		s.Points = math.Max(0, s.Points)
		scores = append(scores, s)
	}
	return scores
}

// Points maps each criterion name to the points it earned.
func Points(scores []CriterionScore) map[string]float64 {
	m := make(map[string]float64, len(scores))
	for _, s := range scores {
		m[s.Name] = s.Points
	}
	return m
}

func readmeCriterion(stats Stats, cfg Config, _ MarkdownResult) CriterionScore {
	s := CriterionScore{Name: CriterionReadme, Max: ReadmeMaxPoints}
	if !stats.HasReadme {
		s.finding = &Finding{
			Issue:      "No README found",
			Suggestion: "Add a README describing what the project does and how to use it",
		}
		return s
	}

	s.Points = ReadmeMaxPoints * math.Min(1, float64(stats.ReadmeWordCount)/float64(cfg.MinReadmeWords))
	if stats.ReadmeWordCount < cfg.MinReadmeWords {
		s.finding = &Finding{
			Issue:      fmt.Sprintf("README is too short (%d words)", stats.ReadmeWordCount),
			Suggestion: fmt.Sprintf("Expand README to at least %d words", cfg.MinReadmeWords),
		}
	}
	return s
}

func docsFolderCriterion(stats Stats, cfg Config, _ MarkdownResult) CriterionScore {
	s := CriterionScore{Name: CriterionDocsFolder, Max: DocsFolderMaxPoints}
	if !cfg.RequireDocsFolder || len(stats.DocsFolders) > 0 {
		s.Points = DocsFolderMaxPoints
		return s
	}

	folder := "docs"
	if len(cfg.DocsFolderPatterns) > 0 {
		folder = cfg.DocsFolderPatterns[0]
	}
	s.finding = &Finding{
		Issue:      "No documentation folder found",
		Suggestion: fmt.Sprintf("Add a documentation folder (e.g. %s/)", folder),
	}
	return s
}

func commentRatioCriterion(stats Stats, cfg Config, _ MarkdownResult) CriterionScore {
	s := CriterionScore{Name: CriterionCommentRatio, Max: CommentRatioMaxPoints}
	if stats.CodeCommentRatio >= cfg.MinCodeCommentRatio {
		s.Points = CommentRatioMaxPoints
		return s
	}

	s.Points = CommentRatioMaxPoints * stats.CodeCommentRatio / cfg.MinCodeCommentRatio
	s.finding = &Finding{
		Issue:      fmt.Sprintf("Low code comment ratio (%s%%)", formatPercent(stats.CodeCommentRatio)),
		Suggestion: fmt.Sprintf("Increase code comments to at least %s%% of code lines", formatPercent(cfg.MinCodeCommentRatio)),
	}
	return s
}

func sectionsCriterion(stats Stats, _ Config, _ MarkdownResult) CriterionScore {
	s := CriterionScore{Name: CriterionReadmeSections, Max: SectionsMaxPoints}
	n := len(stats.ReadmeSections)
	s.Points = SectionsMaxPoints * math.Min(1, float64(n)/FullSectionCredit)
	if n >= FullSectionCredit {
		return s
	}

	s.finding = &Finding{
		Issue:      fmt.Sprintf("README is missing standard sections (found %d of %d)", n, FullSectionCredit),
		Suggestion: "Add README sections such as " + strings.Join(missingSections(stats.ReadmeSections, FullSectionCredit-n), ", "),
	}
	return s
}

// missingSections returns up to n canonical section names not in have,
// in vocabulary order.
func missingSections(have []string, n int) []string {
	present := make(map[string]bool, len(have))
	for _, h := range have {
		present[h] = true
	}
	var out []string
	for _, sec := range sectionVocabulary {
		if len(out) == n {
			break
		}
		if !present[sec.name] {
			out = append(out, sec.name)
		}
	}
	return out
}

func markdownCriterion(_ Stats, cfg Config, md MarkdownResult) CriterionScore {
	s := CriterionScore{Name: CriterionMarkdown, Max: cfg.Markdown.MaxPoints(), Points: md.Points}
	if !cfg.Markdown.Enabled {
		s.Points = 0
		return s
	}

	switch {
	case md.FileCount < cfg.Markdown.MinFiles:
		s.finding = &Finding{
			Issue:      fmt.Sprintf("Too few markdown documentation files (%d)", md.FileCount),
			Suggestion: fmt.Sprintf("Add at least %d markdown documentation files", cfg.Markdown.MinFiles),
		}
	case md.GrammarChecked && md.GrammarPoints < cfg.Markdown.Quality.GrammarWeight:
		s.finding = &Finding{
			Issue:      "Markdown files contain grammar issues",
			Suggestion: "Proofread markdown documentation",
		}
	case cfg.Markdown.Quality.Enabled && !md.GrammarChecked:
		s.finding = &Finding{
			Issue:      "Markdown grammar could not be checked",
			Suggestion: "Check that the grammar server is reachable and markdown files are readable",
		}
	}
	return s
}

// formatPercent renders a percentage with at most one decimal place and no
// trailing zeros: 3.5 -> "3.5", 5 -> "5".
func formatPercent(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}
