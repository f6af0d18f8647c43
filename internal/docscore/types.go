// Package docscore computes a deterministic 0-100 documentation quality
// score for a repository from its README, file listing, comment ratio and
// markdown corpus, together with paired issues and suggestions.
package docscore

import (
	"encoding/json"

	"github.com/blackwell-systems/reposcout/internal/filter"
)

// Config holds the scoring thresholds. It is validated once by NewEngine and
// never mutated afterwards.
type Config struct {
	// MinReadmeWords is the README length that earns full README credit.
	MinReadmeWords int `json:"min_readme_words"`

	// MinCodeCommentRatio is the comment ratio (percent) that earns full credit.
	MinCodeCommentRatio float64 `json:"min_code_comment_ratio"`

	// RequireDocsFolder makes the docs-folder criterion conditional on a
	// matching folder. When false the criterion always earns full credit.
	RequireDocsFolder bool `json:"require_docs_folder"`

	// DocsFolderPatterns are folder names that count as documentation folders.
	DocsFolderPatterns []string `json:"docs_folder_patterns"`

	Markdown MarkdownConfig `json:"markdown_scoring"`

	// ScoreThreshold is not applied by the engine. It travels with the scoring
	// configuration so callers can admit or reject evaluated repositories.
	ScoreThreshold filter.ScoreFilter `json:"-"`
}

// MarkdownConfig configures the markdown corpus criterion.
type MarkdownConfig struct {
	Enabled  bool          `json:"enabled"`
	Weight   float64       `json:"weight"`
	MinFiles int           `json:"min_files"`
	Quality  QualityConfig `json:"quality_checks"`
}

// QualityConfig configures the optional grammar contribution.
type QualityConfig struct {
	Enabled          bool    `json:"enabled"`
	GrammarWeight    float64 `json:"grammar_weight"`
	MaxGrammarErrors int     `json:"max_grammar_errors"`
}

// MaxPoints returns the most the markdown criterion can earn. The grammar
// bonus only counts when quality checks are on.
func (m MarkdownConfig) MaxPoints() float64 {
	if !m.Enabled {
		return 0
	}
	if m.Quality.Enabled {
		return m.Weight + m.Quality.GrammarWeight
	}
	return m.Weight
}

// MarkdownFile is an auxiliary markdown document found in the repository.
type MarkdownFile struct {
	Path      string `json:"path"`
	WordCount int    `json:"word_count"`

	// Text is optional and only read when grammar checks are enabled.
	Text string `json:"-"`
}

// Snapshot is the raw repository data the engine scores. It is supplied by a
// fetcher and treated as read-only.
type Snapshot struct {
	// ReadmeText is the README content. Empty means no README.
	ReadmeText string

	// FilePaths are slash-separated paths relative to the repository root.
	FilePaths []string

	// CommentRatio is the percentage of comment lines relative to code lines.
	CommentRatio float64

	MarkdownFiles []MarkdownFile
}

// Stats are the metrics derived from a Snapshot.
type Stats struct {
	HasReadme         bool     `json:"has_readme"`
	ReadmeWordCount   int      `json:"readme_word_count"`
	ReadmeSections    []string `json:"readme_sections"`
	DocsFolders       []string `json:"docs_folders"`
	CodeCommentRatio  float64  `json:"code_comment_ratio"`
	MarkdownFileCount int      `json:"markdown_file_count"`
}

// Criterion names, in the fixed order they are scored and reported.
const (
	CriterionReadme         = "readme"
	CriterionDocsFolder     = "docs_folder"
	CriterionCommentRatio   = "comment_ratio"
	CriterionReadmeSections = "readme_sections"
	CriterionMarkdown       = "markdown"
)

// CriterionScore is the points one criterion earned out of its maximum.
type CriterionScore struct {
	Name   string  `json:"name"`
	Points float64 `json:"points"`
	Max    float64 `json:"max"`

	finding *Finding
}

// Finding pairs a shortfall with the action that would fix it.
type Finding struct {
	Criterion  string `json:"criterion"`
	Issue      string `json:"issue"`
	Suggestion string `json:"suggestion"`
}

// Summary is the result of evaluating one repository.
type Summary struct {
	Score    int              `json:"score"`
	Findings []Finding        `json:"findings"`
	Criteria []CriterionScore `json:"criteria"`
	Stats    Stats            `json:"stats"`
}

// Issues returns the issue text of every finding, in criterion order.
func (s Summary) Issues() []string {
	issues := make([]string, len(s.Findings))
	for i, f := range s.Findings {
		issues[i] = f.Issue
	}
	return issues
}

// Suggestions returns the suggestion text of every finding. Suggestions()[i]
// always belongs to Issues()[i].
func (s Summary) Suggestions() []string {
	suggestions := make([]string, len(s.Findings))
	for i, f := range s.Findings {
		suggestions[i] = f.Suggestion
	}
	return suggestions
}

// MarshalJSON adds the flat issues and suggestions lists that report
// consumers expect next to the paired findings.
func (s Summary) MarshalJSON() ([]byte, error) {
	type plain Summary
	return json.Marshal(struct {
		plain
		Issues      []string `json:"issues"`
		Suggestions []string `json:"suggestions"`
	}{
		plain:       plain(s),
		Issues:      s.Issues(),
		Suggestions: s.Suggestions(),
	})
}
