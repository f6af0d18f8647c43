package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reposcout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	t.Setenv(TokenEnv, "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultGitHub.BaseURL, cfg.GitHub.BaseURL)
	assert.Equal(t, DefaultGitHub.Timeout, cfg.GitHub.Timeout)
	assert.Equal(t, 200, cfg.Scoring.MinReadmeWords)
	assert.Equal(t, 5.0, cfg.Scoring.MinCodeCommentRatio)
	assert.True(t, cfg.Scoring.RequireDocsFolder)
	assert.Equal(t, []string{"docs", "doc", "documentation", "wiki"}, cfg.Scoring.DocsFolderPatterns)
	assert.Equal(t, 5.0, cfg.Scoring.Markdown.Weight)
	assert.False(t, cfg.Scoring.ScoreThreshold.Enabled)
	assert.Nil(t, cfg.Search.Stars.Min)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoad_FileValues(t *testing.T) {
	t.Setenv(TokenEnv, "ghp_test")
	path := writeConfig(t, `
github:
  timeout: 5s
  rate_limit_pause: 2m
search:
  topics: [python, cli]
  max_repos: 7
  stars:
    min: 100
  pushed:
    within_days: 30
scoring:
  min_readme_words: 300
  docs_folder_patterns: [docs]
  markdown_scoring:
    quality_checks:
      enabled: true
      grammar_weight: 3
  score_threshold:
    enabled: true
    min: 50
output:
  format: HTML
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ghp_test", cfg.Token)
	assert.Equal(t, 5*time.Second, cfg.GitHub.Timeout)
	assert.Equal(t, 2*time.Minute, cfg.GitHub.RateLimitPause)
	assert.Equal(t, []string{"python", "cli"}, cfg.Search.Topics)
	assert.Equal(t, 7, cfg.Search.MaxRepos)
	require.NotNil(t, cfg.Search.Stars.Min)
	assert.Equal(t, 100, *cfg.Search.Stars.Min)
	assert.Nil(t, cfg.Search.Stars.Max)
	assert.Equal(t, "html", cfg.Output.Format)

	ds := cfg.Scoring.DocScore()
	assert.Equal(t, 300, ds.MinReadmeWords)
	assert.True(t, ds.Markdown.Quality.Enabled)
	assert.Equal(t, 3.0, ds.Markdown.Quality.GrammarWeight)
	assert.Equal(t, 10, ds.Markdown.Quality.MaxGrammarErrors)
	assert.True(t, ds.ScoreThreshold.Enabled)
	assert.False(t, ds.ScoreThreshold.Admit(45))
	assert.True(t, ds.ScoreThreshold.Admit(50))

	search, err := cfg.Search.Filter()
	require.NoError(t, err)
	assert.True(t, search.Pushed.WithinDays.IsBounded())
}

func TestLoad_RejectsInvalidScoring(t *testing.T) {
	path := writeConfig(t, `
scoring:
  min_readme_words: 0
  markdown_scoring:
    min_files: 0
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_readme_words")
	assert.Contains(t, err.Error(), "min_files")
}

func TestLoad_RejectsInvertedStars(t *testing.T) {
	path := writeConfig(t, `
search:
  stars:
    min: 500
    max: 10
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search.stars")
}

func TestLoad_RejectsConflictingPushWindow(t *testing.T) {
	path := writeConfig(t, `
search:
  pushed:
    within_days: 10
    after: "2024-01-01"
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_RejectsUnknownFormat(t *testing.T) {
	path := writeConfig(t, "output:\n  format: xml\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output.format")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("REPOSCOUT_SEARCH_MAX_REPOS", "3")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Search.MaxRepos)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeConfig(t, "scoring: [this is: not valid")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x"), expandPath("~/x"))
	assert.Equal(t, "/abs", expandPath("/abs"))
}
