package app

import (
	"fmt"
	"log/slog"

	"github.com/blackwell-systems/reposcout/internal/config"
	"github.com/blackwell-systems/reposcout/internal/docscore"
	"github.com/blackwell-systems/reposcout/internal/grammar"
	"github.com/blackwell-systems/reposcout/internal/store"
)

// newEngine builds the scoring engine from cfg. The LanguageTool checker is
// only attached when grammar checks are enabled.
func newEngine(cfg *config.Config, logger *slog.Logger) (*docscore.Engine, error) {
	scoring := cfg.Scoring.DocScore()
	opts := []docscore.Option{docscore.WithLogger(logger)}
	if scoring.Markdown.Enabled && scoring.Markdown.Quality.Enabled {
		checker := grammar.New(cfg.Grammar.Endpoint, cfg.Grammar.Language, cfg.Grammar.Timeout)
		opts = append(opts, docscore.WithChecker(checker), docscore.WithCheckTimeout(cfg.Grammar.Timeout))
	}
	return docscore.NewEngine(scoring, opts...)
}

// saveRun stores run in the history database and returns the snapshot ID.
func saveRun(run store.Run) (int64, error) {
	db, err := store.Open(config.DBPath())
	if err != nil {
		return 0, fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	return db.RecordRun(run)
}
