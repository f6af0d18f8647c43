package app

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/reposcout/internal/config"
	"github.com/blackwell-systems/reposcout/internal/docscore"
	"github.com/blackwell-systems/reposcout/internal/github"
	"github.com/blackwell-systems/reposcout/internal/scraper"
	"github.com/blackwell-systems/reposcout/internal/store"
)

func summary(score int, findings ...docscore.Finding) docscore.Summary {
	return docscore.Summary{
		Score:    score,
		Findings: findings,
		Stats: docscore.Stats{
			HasReadme:         score > 0,
			ReadmeWordCount:   score * 3,
			CodeCommentRatio:  float64(score) / 10,
			MarkdownFileCount: 2,
		},
	}
}

func TestAggregateMetrics(t *testing.T) {
	entries := []runEntry{
		{Name: "a", Summary: summary(40)},
		{Name: "b", Summary: summary(80)},
		{Name: "c", Summary: summary(60)},
		{Name: "d", Summary: summary(0)},
	}
	entries[1].Summary.Stats.DocsFolders = []string{"docs"}

	m := aggregateMetrics(entries)
	assert.Equal(t, 4.0, m["repositories"])
	assert.Equal(t, 45.0, m["avg_score"])
	assert.Equal(t, 50.0, m["median_score"])
	assert.Equal(t, 0.0, m["min_score"])
	assert.Equal(t, 80.0, m["max_score"])
	assert.Equal(t, 3.0, m["with_readme"])
	assert.Equal(t, 1.0, m["with_docs_folder"])
	assert.Equal(t, 2.0, m["avg_markdown_files"])
}

func TestAggregateMetrics_Empty(t *testing.T) {
	m := aggregateMetrics(nil)
	assert.Equal(t, map[string]float64{"repositories": 0}, m)
}

func TestBuildRun(t *testing.T) {
	results := []scraper.Result{
		{
			Repository: github.Repository{
				FullName:        "octo/cat",
				HTMLURL:         "https://github.com/octo/cat",
				StargazersCount: 12,
				ForksCount:      3,
				OpenIssuesCount: 1,
			},
			Documentation: summary(70, docscore.Finding{
				Criterion:  docscore.CriterionDocsFolder,
				Issue:      "No documentation folder",
				Suggestion: "Add a docs/ folder",
			}),
		},
	}

	run := buildRun("scan", scanEntries(results), map[string]float64{"skipped": 2})
	assert.Equal(t, "scan", run.Command)
	assert.Equal(t, appVersion, run.Version)

	require.Len(t, run.Scores, 1)
	rs := run.Scores[0]
	assert.Equal(t, "octo/cat", rs.Repository)
	assert.Equal(t, "https://github.com/octo/cat", rs.URL)
	assert.Equal(t, 12, rs.Stars)
	assert.Equal(t, 70, rs.Score)
	assert.Equal(t, 210, rs.ReadmeWords)
	assert.False(t, rs.HasDocsFolder)

	require.Len(t, run.Findings, 1)
	assert.Equal(t, "octo/cat", run.Findings[0].Repository)
	assert.Equal(t, "Add a docs/ folder", run.Findings[0].Suggestion)

	assert.Equal(t, 2.0, run.Metrics["skipped"])
	assert.Equal(t, 70.0, run.Metrics["avg_score"])
}

func TestMedian(t *testing.T) {
	tests := []struct {
		in   []int
		want float64
	}{
		{nil, 0},
		{[]int{5}, 5},
		{[]int{1, 2}, 1.5},
		{[]int{1, 2, 9}, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, median(tt.in), "median(%v)", tt.in)
	}
}

func TestRepoChanges(t *testing.T) {
	deltas := []store.RepoDelta{
		{Repository: "a", Delta: 2, Direction: store.DirectionImproved},
		{Repository: "b", Delta: 0, Direction: store.DirectionUnchanged},
		{Repository: "c", Delta: -9, Direction: store.DirectionRegressed},
		{Repository: "d", Delta: 5, Direction: store.DirectionNew},
	}

	got := repoChanges(deltas, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].Repository)
	assert.Equal(t, "d", got[1].Repository)

	assert.Len(t, repoChanges(deltas, 0), 3)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestScoreLocal(t *testing.T) {
	root := t.TempDir()

	good := filepath.Join(root, "good")
	require.NoError(t, os.MkdirAll(filepath.Join(good, ".git"), 0o755))
	writeFile(t, filepath.Join(good, "README.md"), "# Good\n\n## Installation\n\nRun it.\n\n## Usage\n\n"+strings.Repeat("word ", 250)+"\n\n## License\n\nMIT\n")
	writeFile(t, filepath.Join(good, "docs", "guide.md"), "# Guide\n\nMore words here.\n")
	writeFile(t, filepath.Join(good, "main.go"), "package main\n\n// main runs.\nfunc main() {}\n")

	bare := filepath.Join(root, "bare")
	require.NoError(t, os.MkdirAll(filepath.Join(bare, ".git"), 0o755))
	writeFile(t, filepath.Join(bare, "main.go"), "package main\nfunc main() {}\n")

	engine, err := docscore.NewEngine(docscore.DefaultConfig())
	require.NoError(t, err)

	results, err := scoreLocal(t.Context(), engine, []string{root})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "good", results[0].Project.Name)
	assert.True(t, results[0].Project.HasReadme)
	assert.Greater(t, results[0].Documentation.Score, results[1].Documentation.Score)
	assert.Equal(t, []string{"docs"}, results[0].Documentation.Stats.DocsFolders)
	assert.NotEmpty(t, results[1].Documentation.Findings)
}

func TestScoreLocal_PlainDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "README.md"), "# Notes\n\nJust a folder.\n")

	engine, err := docscore.NewEngine(docscore.DefaultConfig())
	require.NoError(t, err)

	results, err := scoreLocal(t.Context(), engine, []string{dir})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, filepath.Base(dir), results[0].Project.Name)
}

func TestScoreLocal_MissingDir(t *testing.T) {
	engine, err := docscore.NewEngine(docscore.DefaultConfig())
	require.NoError(t, err)

	_, err = scoreLocal(t.Context(), engine, []string{filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)
}

func TestCheckToken(t *testing.T) {
	assert.False(t, checkToken("").Passed)

	c := checkToken("ghp_secretvalue")
	assert.True(t, c.Passed)
	assert.NotContains(t, c.Message, "secretvalue")
}

func TestCheckOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	c := checkOutputDir(dir)
	assert.True(t, c.Passed, c.Message)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCheckDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reposcout.db")
	assert.False(t, checkDatabase(path).Passed)

	writeFile(t, path, "")
	assert.True(t, checkDatabase(path).Passed)
}

func TestCheckGrammar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/languages" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	cfg := &config.Config{}
	assert.True(t, checkGrammar(t.Context(), cfg).Passed, "disabled checks pass")

	cfg.Scoring.Markdown.Enabled = true
	cfg.Scoring.Markdown.QualityChecks.Enabled = true
	cfg.Grammar.Endpoint = srv.URL + "/"
	assert.True(t, checkGrammar(t.Context(), cfg).Passed)

	cfg.Grammar.Endpoint = srv.URL + "/missing"
	assert.False(t, checkGrammar(t.Context(), cfg).Passed)

	cfg.Grammar.Endpoint = ""
	assert.False(t, checkGrammar(t.Context(), cfg).Passed)
}

func TestBuildInfo_String(t *testing.T) {
	assert.Equal(t, "dev", BuildInfo{}.String())
	assert.Equal(t, "1.2.0", BuildInfo{Version: "1.2.0"}.String())
	assert.Equal(t, "1.2.0 (abc123)", BuildInfo{Version: "1.2.0", Commit: "abc123"}.String())
}

func TestRun_ExitCodes(t *testing.T) {
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		if f := rootCmd.Flags().Lookup("version"); f != nil {
			_ = f.Value.Set("false")
		}
	})

	assert.Equal(t, 1, Run(BuildInfo{Version: appVersion}, []string{"no-such-command"}))
	assert.Contains(t, errOut.String(), "error:")

	assert.Equal(t, 0, Run(BuildInfo{Version: appVersion, Commit: "abc123"}, []string{"--version"}))
	assert.Contains(t, out.String(), "(abc123)")
}
