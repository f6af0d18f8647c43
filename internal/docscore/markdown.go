package docscore

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"
)

// MarkdownResult is the markdown criterion's outcome.
type MarkdownResult struct {
	Points        float64 `json:"points"`
	BasePoints    float64 `json:"base_points"`
	GrammarPoints float64 `json:"grammar_points"`

	// GrammarChecked is true only when every file with text was checked
	// successfully and at least one such file exists.
	GrammarChecked bool `json:"grammar_checked"`
	FileCount      int  `json:"file_count"`
}

// MarkdownScorer scores a repository's auxiliary markdown files.
type MarkdownScorer struct {
	cfg     MarkdownConfig
	checker TextQualityChecker
	timeout time.Duration
	logger  *slog.Logger
}

// NewMarkdownScorer returns a scorer for cfg. A nil checker is replaced by
// NoopChecker and a nil logger discards output.
func NewMarkdownScorer(cfg MarkdownConfig, checker TextQualityChecker, timeout time.Duration, logger *slog.Logger) *MarkdownScorer {
	if checker == nil {
		checker = NoopChecker{}
	}
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &MarkdownScorer{cfg: cfg, checker: checker, timeout: timeout, logger: logger}
}

// Score returns points in [0, cfg.MaxPoints()].
//
// Base points ramp linearly with the file count up to MinFiles. With quality
// checks on, the grammar score of each file with text is averaged and
// added. Files without text (not downloaded) count toward the base only.
// Checker failures are logged and zero the grammar part; they never fail
// scoring.
func (m *MarkdownScorer) Score(ctx context.Context, files []MarkdownFile) MarkdownResult {
	res := MarkdownResult{FileCount: len(files)}
	if !m.cfg.Enabled || m.cfg.MinFiles <= 0 {
		return res
	}

	n := min(len(files), m.cfg.MinFiles)
	res.BasePoints = m.cfg.Weight * float64(n) / float64(m.cfg.MinFiles)

	q := m.cfg.Quality
	if q.Enabled && len(files) > 0 && q.MaxGrammarErrors > 0 {
		res.GrammarPoints, res.GrammarChecked = m.grammar(ctx, files)
	}

	res.Points = math.Min(res.BasePoints+res.GrammarPoints, m.cfg.MaxPoints())
	return res
}

func (m *MarkdownScorer) grammar(ctx context.Context, files []MarkdownFile) (float64, bool) {
	q := m.cfg.Quality
	var total float64
	checked := 0
	for _, f := range files {
		text := normalizeText(f.Text)
		if strings.TrimSpace(text) == "" {
			m.logger.Debug("grammar check skipped; no text", "file", f.Path)
			continue
		}
		errCount, err := checkWithTimeout(ctx, m.checker, text, m.timeout)
		if err != nil {
			m.logger.Warn("grammar check failed; grammar contribution set to zero",
				"file", f.Path, "error", err)
			return 0, false
		}
		m.logger.Debug("grammar check", "file", f.Path, "errors", errCount)

		ratio := 1 - float64(errCount)/float64(q.MaxGrammarErrors)
		total += q.GrammarWeight * math.Max(0, ratio)
		checked++
	}
	if checked == 0 {
		return 0, false
	}
	return total / float64(checked), true
}
