package docscore

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

// Engine evaluates repository snapshots against a fixed Config. It holds no
// mutable state, so one Engine may evaluate many snapshots concurrently.
type Engine struct {
	cfg      Config
	markdown *MarkdownScorer
}

// Option customizes an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	checker TextQualityChecker
	timeout time.Duration
	logger  *slog.Logger
}

// WithChecker injects the text quality checker used by markdown grammar checks.
func WithChecker(c TextQualityChecker) Option {
	return func(o *engineOptions) { o.checker = c }
}

// WithCheckTimeout bounds each checker call.
func WithCheckTimeout(d time.Duration) Option {
	return func(o *engineOptions) { o.timeout = d }
}

// WithLogger sets the logger used for recoverable conditions.
func WithLogger(l *slog.Logger) Option {
	return func(o *engineOptions) { o.logger = l }
}

// NewEngine validates cfg and returns an Engine for it. Invalid configuration
// is rejected here so evaluation itself cannot fail.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scoring config: %w", err)
	}

	var o engineOptions
	for _, opt := range opts {
		opt(&o)
	}

	// Copy slices so later edits by the caller cannot change scoring.
	cfg.DocsFolderPatterns = slices.Clone(cfg.DocsFolderPatterns)

	return &Engine{
		cfg:      cfg,
		markdown: NewMarkdownScorer(cfg.Markdown, o.checker, o.timeout, o.logger),
	}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config {
	cfg := e.cfg
	cfg.DocsFolderPatterns = slices.Clone(e.cfg.DocsFolderPatterns)
	return cfg
}

// Evaluate scores one snapshot. It never fails: bad input scores low.
func (e *Engine) Evaluate(ctx context.Context, snap Snapshot) Summary {
	stats := Extract(snap, e.cfg)
	md := e.markdown.Score(ctx, snap.MarkdownFiles)
	return Aggregate(ScoreCriteria(stats, e.cfg, md), stats)
}

// Evaluate scores snap with cfg and no text quality checker.
func Evaluate(ctx context.Context, snap Snapshot, cfg Config) (Summary, error) {
	e, err := NewEngine(cfg)
	if err != nil {
		return Summary{}, err
	}
	return e.Evaluate(ctx, snap), nil
}
