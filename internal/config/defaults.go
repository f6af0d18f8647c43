// Package config provides configuration loading and defaults for reposcout.
package config

import (
	"time"

	"github.com/blackwell-systems/reposcout/internal/docscore"
)

// DefaultConfigDir is the default location for reposcout configuration.
const DefaultConfigDir = "~/.config/reposcout"

// DefaultDBName is the filename for the SQLite run history.
const DefaultDBName = "reposcout.db"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "reposcout.yaml"

// TokenEnv is the environment variable holding the GitHub API token.
const TokenEnv = "GITHUB_TOKEN"

// DefaultGitHub holds the default API client settings.
var DefaultGitHub = GitHub{
	BaseURL:        "https://api.github.com",
	Timeout:        30 * time.Second,
	RateLimitPause: 60 * time.Second,
	PerPage:        100,
	ActivityDays:   30,
	CacheSize:      1024,
	SampleFiles:    40,
}

// DefaultSearch holds the default search settings.
var DefaultSearch = Search{
	Topics:   []string{"golang"},
	MaxRepos: 50,
}

// DefaultScoring mirrors docscore.DefaultConfig in configuration form.
var DefaultScoring = func() Scoring {
	d := docscore.DefaultConfig()
	return Scoring{
		MinReadmeWords:      d.MinReadmeWords,
		MinCodeCommentRatio: d.MinCodeCommentRatio,
		RequireDocsFolder:   d.RequireDocsFolder,
		DocsFolderPatterns:  d.DocsFolderPatterns,
		Markdown: MarkdownScoring{
			Enabled:  d.Markdown.Enabled,
			Weight:   d.Markdown.Weight,
			MinFiles: d.Markdown.MinFiles,
			QualityChecks: QualityChecks{
				Enabled:          d.Markdown.Quality.Enabled,
				GrammarWeight:    d.Markdown.Quality.GrammarWeight,
				MaxGrammarErrors: d.Markdown.Quality.MaxGrammarErrors,
			},
		},
	}
}()

// DefaultGrammar points at the public LanguageTool API.
var DefaultGrammar = Grammar{
	Endpoint: "https://api.languagetool.org",
	Language: "en-US",
	Timeout:  docscore.DefaultCheckTimeout,
}

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Path:   "output",
	Format: "json",
	Color:  true,
	Width:  80,
}

// DefaultPerformance holds the default concurrency settings.
var DefaultPerformance = Performance{
	MaxConcurrency: 4,
}
