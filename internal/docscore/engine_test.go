package docscore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/reposcout/internal/filter"
)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

// textFiles returns n markdown files that all carry text.
func textFiles(n int) []MarkdownFile {
	files := make([]MarkdownFile, n)
	for i := range files {
		files[i] = MarkdownFile{Path: fmt.Sprintf("doc%d.md", i), Text: words(20)}
	}
	return files
}

func mustEngine(t *testing.T, cfg Config, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, opts...)
	require.NoError(t, err)
	return e
}

func criterionPoints(s Summary, name string) float64 {
	for _, c := range s.Criteria {
		if c.Name == name {
			return c.Points
		}
	}
	return -1
}

// ---------------------------------------------------------------------------
// Scenarios
// ---------------------------------------------------------------------------

func TestEvaluate_ShortReadmeNoDocsLowComments(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	snap := Snapshot{
		ReadmeText:   words(150),
		CommentRatio: 3.5,
	}

	s := e.Evaluate(context.Background(), snap)

	// 40*150/200 = 30, docs 0, 20*3.5/5 = 14, sections 0, markdown 0.
	assert.Equal(t, 44, s.Score)
	issues := s.Issues()
	assert.Contains(t, issues, "README is too short (150 words)")
	assert.Contains(t, issues, "No documentation folder found")
	assert.Contains(t, issues, "Low code comment ratio (3.5%)")
	assert.Contains(t, s.Suggestions(), "Expand README to at least 200 words")
}

func TestEvaluate_NoReadme(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	snap := Snapshot{
		FilePaths:    []string{"docs/index.md"},
		CommentRatio: 50,
	}

	s := e.Evaluate(context.Background(), snap)

	assert.Equal(t, 0.0, criterionPoints(s, CriterionReadme))
	assert.False(t, s.Stats.HasReadme)
	assert.Equal(t, 0, s.Stats.ReadmeWordCount)
	assert.Empty(t, s.Stats.ReadmeSections)
	require.NotEmpty(t, s.Findings)
	assert.Equal(t, "No README found", s.Findings[0].Issue)
	assert.Equal(t, CriterionReadme, s.Findings[0].Criterion)
}

func TestEvaluate_MarkdownDisabledContributesNothing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Markdown.Enabled = false
	e := mustEngine(t, cfg)

	files := []MarkdownFile{{Path: "a.md"}, {Path: "b.md"}, {Path: "c.md"}, {Path: "d.md"}}
	s := e.Evaluate(context.Background(), Snapshot{MarkdownFiles: files})

	assert.Equal(t, 0.0, criterionPoints(s, CriterionMarkdown))
	for _, f := range s.Findings {
		assert.NotEqual(t, CriterionMarkdown, f.Criterion)
	}
}

func TestEvaluate_PerfectRepositoryClampsTo100(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	readme := "# Project\n\n## Installation\n\n## Usage\n\n## API\n\n## License\n\n" + words(300)
	snap := Snapshot{
		ReadmeText:   readme,
		FilePaths:    []string{"docs/intro.md", "main.go"},
		CommentRatio: 12,
		MarkdownFiles: []MarkdownFile{
			{Path: "docs/intro.md"}, {Path: "CONTRIBUTING.md"}, {Path: "CHANGELOG.md"},
		},
	}

	s := e.Evaluate(context.Background(), snap)

	// 40+20+20+20+5 = 105, clamped.
	assert.Equal(t, 100, s.Score)
	assert.Empty(t, s.Findings)
}

func TestEvaluate_FindingsFollowCriterionOrder(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	s := e.Evaluate(context.Background(), Snapshot{})

	var order []string
	for _, f := range s.Findings {
		order = append(order, f.Criterion)
	}
	assert.Equal(t, []string{
		CriterionReadme, CriterionDocsFolder, CriterionCommentRatio,
		CriterionReadmeSections, CriterionMarkdown,
	}, order)
	assert.Len(t, s.Suggestions(), len(s.Issues()))
}

func TestEvaluate_DocsFolderNotRequired(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RequireDocsFolder = false
	e := mustEngine(t, cfg)

	s := e.Evaluate(context.Background(), Snapshot{})
	assert.Equal(t, float64(DocsFolderMaxPoints), criterionPoints(s, CriterionDocsFolder))
}

// ---------------------------------------------------------------------------
// Properties
// ---------------------------------------------------------------------------

func TestEvaluate_ScoreAlwaysInRange(t *testing.T) {
	configs := []Config{DefaultConfig()}
	big := DefaultConfig()
	big.Markdown.Weight = 80
	big.Markdown.Quality.Enabled = true
	big.Markdown.Quality.GrammarWeight = 50
	configs = append(configs, big)
	small := DefaultConfig()
	small.MinReadmeWords = 1
	small.MinCodeCommentRatio = 0.1
	configs = append(configs, small)

	checker := CheckerFunc(func(context.Context, string) (int, error) { return 0, nil })
	snaps := []Snapshot{
		{},
		{ReadmeText: words(10000), CommentRatio: 1e9},
		{ReadmeText: "\xff\xfe", CommentRatio: -40},
		{ReadmeText: words(5), MarkdownFiles: make([]MarkdownFile, 50)},
	}

	for _, cfg := range configs {
		e := mustEngine(t, cfg, WithChecker(checker))
		for _, snap := range snaps {
			s := e.Evaluate(context.Background(), snap)
			if s.Score < 0 || s.Score > MaxScore {
				t.Errorf("score %d out of range for %+v", s.Score, snap)
			}
		}
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	snap := Snapshot{
		ReadmeText:   "# X\n\n## Usage\n\n" + words(120),
		FilePaths:    []string{"doc/a.md", "docs/b.md"},
		CommentRatio: 2.25,
	}
	first := e.Evaluate(context.Background(), snap)
	second := e.Evaluate(context.Background(), snap)
	assert.Equal(t, first, second)
}

func TestReadmePoints_MonotonicUntilThreshold(t *testing.T) {
	cfg := DefaultConfig()
	prev := -1.0
	for n := 0; n <= 2*cfg.MinReadmeWords; n += 7 {
		stats := Stats{HasReadme: n > 0, ReadmeWordCount: n}
		pts := readmeCriterion(stats, cfg, MarkdownResult{}).Points
		if pts < prev {
			t.Fatalf("README points decreased at %d words: %.3f < %.3f", n, pts, prev)
		}
		if n >= cfg.MinReadmeWords && pts != ReadmeMaxPoints {
			t.Fatalf("expected plateau at %d words, got %.3f", n, pts)
		}
		prev = pts
	}
}

func TestReadmePoints_Boundaries(t *testing.T) {
	cfg := DefaultConfig()

	full := readmeCriterion(Stats{HasReadme: true, ReadmeWordCount: cfg.MinReadmeWords}, cfg, MarkdownResult{})
	if full.Points != ReadmeMaxPoints {
		t.Errorf("expected %d points at threshold, got %v", ReadmeMaxPoints, full.Points)
	}
	if full.finding != nil {
		t.Errorf("expected no finding at threshold, got %+v", full.finding)
	}

	zero := readmeCriterion(Stats{HasReadme: true, ReadmeWordCount: 0}, cfg, MarkdownResult{})
	if zero.Points != 0 {
		t.Errorf("expected 0 points for 0 words, got %v", zero.Points)
	}
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{44.0, 44}, {44.49, 44}, {44.5, 45}, {0.5, 1}, {99.5, 100},
	}
	for _, tc := range tests {
		if got := roundHalfUp(tc.in); got != tc.want {
			t.Errorf("roundHalfUp(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

func TestNewEngine_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinReadmeWords = 0
	cfg.Markdown.MinFiles = 0

	_, err := NewEngine(cfg)
	require.Error(t, err)

	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, err.Error(), "min_readme_words")
	assert.Contains(t, err.Error(), "markdown_scoring.min_files")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantKey string
	}{
		{"defaults", func(*Config) {}, ""},
		{"comment ratio", func(c *Config) { c.MinCodeCommentRatio = 0 }, "min_code_comment_ratio"},
		{"no patterns", func(c *Config) { c.DocsFolderPatterns = nil }, "docs_folder_patterns"},
		{"no patterns but not required", func(c *Config) { c.DocsFolderPatterns = nil; c.RequireDocsFolder = false }, ""},
		{"negative weight", func(c *Config) { c.Markdown.Weight = -1 }, "markdown_scoring.weight"},
		{"disabled markdown ignores min files", func(c *Config) { c.Markdown.Enabled = false; c.Markdown.MinFiles = 0 }, ""},
		{"grammar errors", func(c *Config) {
			c.Markdown.Quality.Enabled = true
			c.Markdown.Quality.MaxGrammarErrors = 0
		}, "max_grammar_errors"},
		{"inverted threshold", func(c *Config) {
			c.ScoreThreshold = filter.ScoreFilter{
				Enabled: true,
				Range:   filter.Range[int]{Min: filter.Bounded(80), Max: filter.Bounded(20)},
			}
		}, "score_threshold"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantKey == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantKey)
		})
	}
}

func TestEngine_ConfigIsCopied(t *testing.T) {
	cfg := DefaultConfig()
	e := mustEngine(t, cfg)
	cfg.DocsFolderPatterns[0] = "mutated"

	got := e.Config()
	assert.Equal(t, "docs", got.DocsFolderPatterns[0])
}

// ---------------------------------------------------------------------------
// Markdown corpus
// ---------------------------------------------------------------------------

func TestMarkdownScorer_LinearRamp(t *testing.T) {
	cfg := DefaultConfig().Markdown // weight 5, min files 3
	m := NewMarkdownScorer(cfg, nil, 0, nil)

	tests := []struct {
		files int
		want  float64
	}{
		{0, 0}, {1, 5.0 / 3}, {3, 5}, {10, 5},
	}
	for _, tc := range tests {
		res := m.Score(context.Background(), make([]MarkdownFile, tc.files))
		assert.InDelta(t, tc.want, res.Points, 1e-9, "files=%d", tc.files)
	}
}

func qualityConfig() MarkdownConfig {
	cfg := DefaultConfig().Markdown
	cfg.Quality = QualityConfig{Enabled: true, GrammarWeight: 5, MaxGrammarErrors: 10}
	return cfg
}

func TestMarkdownScorer_GrammarAveraged(t *testing.T) {
	counts := map[string]int{"a.md": 0, "b.md": 5, "c.md": 20}
	checker := CheckerFunc(func(_ context.Context, text string) (int, error) {
		return counts[text], nil
	})
	m := NewMarkdownScorer(qualityConfig(), checker, time.Second, nil)

	files := []MarkdownFile{
		{Path: "a.md", Text: "a.md"},
		{Path: "b.md", Text: "b.md"},
		{Path: "c.md", Text: "c.md"},
	}
	res := m.Score(context.Background(), files)

	// Per file: 5, 2.5, 0 -> mean 2.5. Base 5.
	assert.True(t, res.GrammarChecked)
	assert.InDelta(t, 2.5, res.GrammarPoints, 1e-9)
	assert.InDelta(t, 7.5, res.Points, 1e-9)
}

func TestMarkdownScorer_GrammarCappedAtWeightPlusBonus(t *testing.T) {
	checker := CheckerFunc(func(context.Context, string) (int, error) { return 0, nil })
	m := NewMarkdownScorer(qualityConfig(), checker, time.Second, nil)

	res := m.Score(context.Background(), textFiles(8))
	assert.InDelta(t, 10, res.Points, 1e-9)
}

func TestMarkdownScorer_CheckerFailureIsSoft(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	checker := CheckerFunc(func(context.Context, string) (int, error) {
		return 0, errors.New("connection refused")
	})
	m := NewMarkdownScorer(qualityConfig(), checker, time.Second, logger)

	res := m.Score(context.Background(), textFiles(3))

	assert.False(t, res.GrammarChecked)
	assert.Equal(t, 0.0, res.GrammarPoints)
	assert.InDelta(t, 5, res.Points, 1e-9)
	assert.Contains(t, buf.String(), "grammar check failed")
}

func TestMarkdownScorer_ZeroErrorsLoggedDifferentlyFromFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	checker := CheckerFunc(func(context.Context, string) (int, error) { return 0, nil })
	m := NewMarkdownScorer(qualityConfig(), checker, time.Second, logger)

	m.Score(context.Background(), []MarkdownFile{{Path: "x.md", Text: "Hello world."}})

	assert.NotContains(t, buf.String(), "grammar check failed")
	assert.Contains(t, buf.String(), "errors=0")
}

func TestMarkdownScorer_CheckerTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	checker := CheckerFunc(func(context.Context, string) (int, error) {
		<-block // ignores its context on purpose
		return 0, nil
	})
	m := NewMarkdownScorer(qualityConfig(), checker, 20*time.Millisecond, nil)

	start := time.Now()
	res := m.Score(context.Background(), textFiles(3))

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.False(t, res.GrammarChecked)
	assert.InDelta(t, 5, res.Points, 1e-9)
}

func TestMarkdownScorer_NoopCheckerContributesZero(t *testing.T) {
	m := NewMarkdownScorer(qualityConfig(), NoopChecker{}, time.Second, nil)
	res := m.Score(context.Background(), textFiles(3))
	assert.False(t, res.GrammarChecked)
	assert.InDelta(t, 5, res.Points, 1e-9)
}

func TestEvaluate_GrammarIssueReported(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Markdown.Quality = QualityConfig{Enabled: true, GrammarWeight: 5, MaxGrammarErrors: 10}
	checker := CheckerFunc(func(context.Context, string) (int, error) { return 10, nil })
	e := mustEngine(t, cfg, WithChecker(checker))

	s := e.Evaluate(context.Background(), Snapshot{MarkdownFiles: textFiles(3)})

	last := s.Findings[len(s.Findings)-1]
	assert.Equal(t, CriterionMarkdown, last.Criterion)
	assert.Equal(t, "Markdown files contain grammar issues", last.Issue)
}

func TestMarkdownScorer_FilesWithoutTextSkipGrammar(t *testing.T) {
	var calls int
	checker := CheckerFunc(func(context.Context, string) (int, error) {
		calls++
		return 10, nil
	})
	m := NewMarkdownScorer(qualityConfig(), checker, time.Second, nil)

	files := []MarkdownFile{
		{Path: "a.md", Text: "Some documentation text."},
		{Path: "b.md"},
		{Path: "c.md", Text: "   \n"},
		{Path: "d.md"},
	}
	res := m.Score(context.Background(), files)

	assert.Equal(t, 1, calls)
	assert.True(t, res.GrammarChecked)
	assert.Equal(t, 4, res.FileCount)
	assert.InDelta(t, 0, res.GrammarPoints, 1e-9)
	assert.InDelta(t, 5, res.Points, 1e-9)
}

func TestMarkdownScorer_NoTextMeansNotChecked(t *testing.T) {
	checker := CheckerFunc(func(context.Context, string) (int, error) {
		t.Error("checker called for a file without text")
		return 0, nil
	})
	m := NewMarkdownScorer(qualityConfig(), checker, time.Second, nil)

	res := m.Score(context.Background(), make([]MarkdownFile, 3))

	assert.False(t, res.GrammarChecked)
	assert.Equal(t, 0.0, res.GrammarPoints)
	assert.InDelta(t, 5, res.Points, 1e-9)
}

func TestEvaluate_GrammarUncheckedReported(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Markdown.Quality = QualityConfig{Enabled: true, GrammarWeight: 5, MaxGrammarErrors: 10}
	checker := CheckerFunc(func(context.Context, string) (int, error) {
		return 0, errors.New("connection refused")
	})
	e := mustEngine(t, cfg, WithChecker(checker))

	s := e.Evaluate(context.Background(), Snapshot{MarkdownFiles: textFiles(3)})

	assert.InDelta(t, 5, criterionPoints(s, CriterionMarkdown), 1e-9)
	last := s.Findings[len(s.Findings)-1]
	assert.Equal(t, CriterionMarkdown, last.Criterion)
	assert.Equal(t, "Markdown grammar could not be checked", last.Issue)
}

func TestSummary_MarshalJSONIncludesFlatLists(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	s := e.Evaluate(context.Background(), Snapshot{ReadmeText: words(10)})

	data, err := s.MarshalJSON()
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"score":`)
	assert.Contains(t, out, `"issues":["README is too short (10 words)"`)
	assert.Contains(t, out, `"suggestions":[`)
	assert.Contains(t, out, `"findings":[`)
}
