package docscore

import (
	"errors"
	"fmt"
)

// ConfigError describes one invalid scoring setting.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Key, e.Reason)
}

// DefaultConfig returns the stock scoring thresholds.
func DefaultConfig() Config {
	return Config{
		MinReadmeWords:      200,
		MinCodeCommentRatio: 5,
		RequireDocsFolder:   true,
		DocsFolderPatterns:  []string{"docs", "doc", "documentation", "wiki"},
		Markdown: MarkdownConfig{
			Enabled:  true,
			Weight:   5,
			MinFiles: 3,
			Quality: QualityConfig{
				Enabled:          false,
				GrammarWeight:    5,
				MaxGrammarErrors: 10,
			},
		},
	}
}

// Validate reports every setting that would make scoring undefined, such as
// a zero divisor. All problems are returned together.
func (c Config) Validate() error {
	var errs []error
	add := func(key, reason string) {
		errs = append(errs, &ConfigError{Key: key, Reason: reason})
	}

	if c.MinReadmeWords <= 0 {
		add("min_readme_words", fmt.Sprintf("must be positive, got %d", c.MinReadmeWords))
	}
	if c.MinCodeCommentRatio <= 0 {
		add("min_code_comment_ratio", fmt.Sprintf("must be positive, got %g", c.MinCodeCommentRatio))
	}
	if c.RequireDocsFolder && len(c.DocsFolderPatterns) == 0 {
		add("docs_folder_patterns", "must not be empty when require_docs_folder is set")
	}
	if c.Markdown.Enabled {
		if c.Markdown.Weight < 0 {
			add("markdown_scoring.weight", fmt.Sprintf("must not be negative, got %g", c.Markdown.Weight))
		}
		if c.Markdown.MinFiles <= 0 {
			add("markdown_scoring.min_files", fmt.Sprintf("must be positive, got %d", c.Markdown.MinFiles))
		}
		if q := c.Markdown.Quality; q.Enabled {
			if q.GrammarWeight < 0 {
				add("markdown_scoring.quality_checks.grammar_weight", fmt.Sprintf("must not be negative, got %g", q.GrammarWeight))
			}
			if q.MaxGrammarErrors <= 0 {
				add("markdown_scoring.quality_checks.max_grammar_errors", fmt.Sprintf("must be positive, got %d", q.MaxGrammarErrors))
			}
		}
	}
	if c.ScoreThreshold.Enabled {
		if err := c.ScoreThreshold.Range.Validate(); err != nil {
			add("score_threshold", err.Error())
		}
	}

	return errors.Join(errs...)
}
