package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/blackwell-systems/reposcout/internal/docscore"
	"github.com/blackwell-systems/reposcout/internal/filter"
)

// Config is the top-level reposcout configuration.
type Config struct {
	GitHub      GitHub      `mapstructure:"github"`
	Search      Search      `mapstructure:"search"`
	Scoring     Scoring     `mapstructure:"scoring"`
	Grammar     Grammar     `mapstructure:"grammar"`
	Output      Output      `mapstructure:"output"`
	Performance Performance `mapstructure:"performance"`

	// Token is read from GITHUB_TOKEN, never from the config file.
	Token string `mapstructure:"-"`
}

// GitHub configures the API client.
type GitHub struct {
	BaseURL              string        `mapstructure:"base_url"`
	Timeout              time.Duration `mapstructure:"timeout"`
	RateLimitPause       time.Duration `mapstructure:"rate_limit_pause"`
	PerPage              int           `mapstructure:"per_page"`
	ActivityDays         int           `mapstructure:"activity_days"`
	IncludeOwnerActivity bool          `mapstructure:"include_owner_activity"`
	CacheSize            int           `mapstructure:"cache_size"`
	SampleFiles          int           `mapstructure:"sample_files"`
}

// Search configures repository discovery.
type Search struct {
	Topics   []string `mapstructure:"topics"`
	MaxRepos int      `mapstructure:"max_repos"`
	Stars    Stars    `mapstructure:"stars"`
	Pushed   Pushed   `mapstructure:"pushed"`
}

// Stars is an optional star-count range.
type Stars struct {
	Min *int `mapstructure:"min"`
	Max *int `mapstructure:"max"`
}

// Pushed restricts repositories by last push, relative or absolute.
type Pushed struct {
	WithinDays *int   `mapstructure:"within_days"`
	After      string `mapstructure:"after"`
}

// Scoring is the documentation scoring section.
type Scoring struct {
	MinReadmeWords      int             `mapstructure:"min_readme_words"`
	MinCodeCommentRatio float64         `mapstructure:"min_code_comment_ratio"`
	RequireDocsFolder   bool            `mapstructure:"require_docs_folder"`
	DocsFolderPatterns  []string        `mapstructure:"docs_folder_patterns"`
	Markdown            MarkdownScoring `mapstructure:"markdown_scoring"`
	ScoreThreshold      ScoreThreshold  `mapstructure:"score_threshold"`
}

// MarkdownScoring configures the markdown corpus criterion.
type MarkdownScoring struct {
	Enabled       bool          `mapstructure:"enabled"`
	Weight        float64       `mapstructure:"weight"`
	MinFiles      int           `mapstructure:"min_files"`
	QualityChecks QualityChecks `mapstructure:"quality_checks"`
}

// QualityChecks configures the grammar contribution.
type QualityChecks struct {
	Enabled          bool    `mapstructure:"enabled"`
	GrammarWeight    float64 `mapstructure:"grammar_weight"`
	MaxGrammarErrors int     `mapstructure:"max_grammar_errors"`
}

// ScoreThreshold optionally bounds the scores admitted into results.
type ScoreThreshold struct {
	Enabled bool `mapstructure:"enabled"`
	Min     *int `mapstructure:"min"`
	Max     *int `mapstructure:"max"`
}

// Grammar configures the LanguageTool checker.
type Grammar struct {
	Endpoint string        `mapstructure:"endpoint"`
	Language string        `mapstructure:"language"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Output defines output preferences.
type Output struct {
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
	Width  int    `mapstructure:"width"`
}

// Performance bounds concurrent repository evaluation.
type Performance struct {
	MaxConcurrency int `mapstructure:"max_concurrency"`
}

// DocScore converts the scoring section into engine configuration.
func (s Scoring) DocScore() docscore.Config {
	return docscore.Config{
		MinReadmeWords:      s.MinReadmeWords,
		MinCodeCommentRatio: s.MinCodeCommentRatio,
		RequireDocsFolder:   s.RequireDocsFolder,
		DocsFolderPatterns:  s.DocsFolderPatterns,
		Markdown: docscore.MarkdownConfig{
			Enabled:  s.Markdown.Enabled,
			Weight:   s.Markdown.Weight,
			MinFiles: s.Markdown.MinFiles,
			Quality: docscore.QualityConfig{
				Enabled:          s.Markdown.QualityChecks.Enabled,
				GrammarWeight:    s.Markdown.QualityChecks.GrammarWeight,
				MaxGrammarErrors: s.Markdown.QualityChecks.MaxGrammarErrors,
			},
		},
		ScoreThreshold: s.ScoreThreshold.Filter(),
	}
}

// Filter converts the threshold into a score filter.
func (t ScoreThreshold) Filter() filter.ScoreFilter {
	return filter.ScoreFilter{
		Enabled: t.Enabled,
		Range:   filter.Range[int]{Min: filter.FromPtr(t.Min), Max: filter.FromPtr(t.Max)},
	}
}

// Filter converts the search section into search pre-filters.
func (s Search) Filter() (filter.Search, error) {
	pushed, err := filter.NewPushWindow(s.Pushed.WithinDays, s.Pushed.After)
	if err != nil {
		return filter.Search{}, err
	}
	stars := filter.Range[int]{Min: filter.FromPtr(s.Stars.Min), Max: filter.FromPtr(s.Stars.Max)}
	if err := stars.Validate(); err != nil {
		return filter.Search{}, fmt.Errorf("search.stars: %w", err)
	}
	return filter.Search{Stars: stars, Pushed: pushed}, nil
}

// Validate checks every section. Scoring problems are fatal before any
// repository is evaluated.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Scoring.DocScore().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("scoring: %w", err))
	}
	if _, err := c.Search.Filter(); err != nil {
		errs = append(errs, err)
	}
	if c.Search.MaxRepos <= 0 {
		errs = append(errs, fmt.Errorf("search.max_repos must be positive, got %d", c.Search.MaxRepos))
	}
	if c.GitHub.PerPage <= 0 || c.GitHub.PerPage > 100 {
		errs = append(errs, fmt.Errorf("github.per_page must be in 1..100, got %d", c.GitHub.PerPage))
	}
	switch c.Output.Format {
	case "json", "html":
	default:
		errs = append(errs, fmt.Errorf("output.format must be json or html, got %q", c.Output.Format))
	}
	return errors.Join(errs...)
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location),
// applies REPOSCOUT_* environment overrides and defaults, reads the GitHub
// token from the environment or a .env file, and validates the result.
func Load(cfgFile string) (*Config, error) {
	// A missing .env file is fine; the token may come from the environment.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("REPOSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(expandPath(DefaultConfigDir))
		v.AddConfigPath(".")
		v.SetConfigName("reposcout")
		v.SetConfigType("yaml")
	}

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Output.Path = expandPath(cfg.Output.Path)
	cfg.Output.Format = strings.ToLower(cfg.Output.Format)
	cfg.Token = strings.TrimSpace(os.Getenv(TokenEnv))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("github.base_url", DefaultGitHub.BaseURL)
	v.SetDefault("github.timeout", DefaultGitHub.Timeout)
	v.SetDefault("github.rate_limit_pause", DefaultGitHub.RateLimitPause)
	v.SetDefault("github.per_page", DefaultGitHub.PerPage)
	v.SetDefault("github.activity_days", DefaultGitHub.ActivityDays)
	v.SetDefault("github.include_owner_activity", DefaultGitHub.IncludeOwnerActivity)
	v.SetDefault("github.cache_size", DefaultGitHub.CacheSize)
	v.SetDefault("github.sample_files", DefaultGitHub.SampleFiles)

	v.SetDefault("search.topics", DefaultSearch.Topics)
	v.SetDefault("search.max_repos", DefaultSearch.MaxRepos)

	v.SetDefault("scoring.min_readme_words", DefaultScoring.MinReadmeWords)
	v.SetDefault("scoring.min_code_comment_ratio", DefaultScoring.MinCodeCommentRatio)
	v.SetDefault("scoring.require_docs_folder", DefaultScoring.RequireDocsFolder)
	v.SetDefault("scoring.docs_folder_patterns", DefaultScoring.DocsFolderPatterns)
	v.SetDefault("scoring.markdown_scoring.enabled", DefaultScoring.Markdown.Enabled)
	v.SetDefault("scoring.markdown_scoring.weight", DefaultScoring.Markdown.Weight)
	v.SetDefault("scoring.markdown_scoring.min_files", DefaultScoring.Markdown.MinFiles)
	v.SetDefault("scoring.markdown_scoring.quality_checks.enabled", DefaultScoring.Markdown.QualityChecks.Enabled)
	v.SetDefault("scoring.markdown_scoring.quality_checks.grammar_weight", DefaultScoring.Markdown.QualityChecks.GrammarWeight)
	v.SetDefault("scoring.markdown_scoring.quality_checks.max_grammar_errors", DefaultScoring.Markdown.QualityChecks.MaxGrammarErrors)
	v.SetDefault("scoring.score_threshold.enabled", false)

	v.SetDefault("grammar.endpoint", DefaultGrammar.Endpoint)
	v.SetDefault("grammar.language", DefaultGrammar.Language)
	v.SetDefault("grammar.timeout", DefaultGrammar.Timeout)

	v.SetDefault("output.path", DefaultOutput.Path)
	v.SetDefault("output.format", DefaultOutput.Format)
	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("output.width", DefaultOutput.Width)

	v.SetDefault("performance.max_concurrency", DefaultPerformance.MaxConcurrency)
}

// DBPath returns the full path to the SQLite database.
func DBPath() string {
	return filepath.Join(expandPath(DefaultConfigDir), DefaultDBName)
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
