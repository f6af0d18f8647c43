// Package scraper discovers repositories by topic, fetches their
// documentation snapshots and ranks them by documentation score.
package scraper

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/reposcout/internal/docscore"
	"github.com/blackwell-systems/reposcout/internal/filter"
	"github.com/blackwell-systems/reposcout/internal/github"
)

const (
	// DefaultMaxConcurrency is used when the configured value is invalid.
	DefaultMaxConcurrency = 4

	// maxSearchResults is the most the search API returns for one query.
	maxSearchResults = 1000
)

// Source is the subset of the GitHub client the scraper uses.
type Source interface {
	SearchRepositories(ctx context.Context, query string, page int) (github.SearchPage, error)
	PerPage() int
	GetRepository(ctx context.Context, owner, name string) (github.Repository, error)
	OwnerActivity(ctx context.Context, login string, days int, now time.Time) (github.Activity, error)
}

// SnapshotSource builds the documentation snapshot of a repository.
type SnapshotSource interface {
	Build(ctx context.Context, repo github.Repository) (docscore.Snapshot, error)
}

// Evaluator scores a snapshot.
type Evaluator interface {
	Evaluate(ctx context.Context, snap docscore.Snapshot) docscore.Summary
}

// Progress reports evaluation progress.
type Progress interface {
	Increment(n int)
	Complete()
}

type noopProgress struct{}

func (noopProgress) Increment(int) {}
func (noopProgress) Complete()     {}

// Options controls a run.
type Options struct {
	Topics         []string
	MaxRepos       int
	Search         filter.Search
	Threshold      filter.ScoreFilter
	MaxConcurrency int

	// OwnerActivity attaches the owner's recent event summary to each result.
	OwnerActivity bool
	ActivityDays  int

	// StartProgress is called once with the number of repositories to
	// evaluate. Nil disables progress reporting.
	StartProgress func(total int) Progress

	Logger *slog.Logger
	Now    func() time.Time
}

// Result is one evaluated repository.
type Result struct {
	github.Repository
	Documentation docscore.Summary `json:"documentation"`
}

// Skip records a repository that could not be evaluated.
type Skip struct {
	Repository string `json:"repository"`
	Err        error  `json:"-"`
}

// Report is the outcome of a run.
type Report struct {
	// Results are admitted by the score threshold, highest score first.
	Results []Result
	// Candidates is the number of repositories found by search.
	Candidates int
	Skipped    []Skip
	// Filtered counts evaluated repositories rejected by the threshold.
	Filtered int
}

// Scraper ties search, snapshot building and scoring together.
type Scraper struct {
	source    Source
	snapshots SnapshotSource
	engine    Evaluator
	opts      Options
	logger    *slog.Logger
}

// New returns a scraper.
func New(source Source, snapshots SnapshotSource, engine Evaluator, opts Options) *Scraper {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = DefaultMaxConcurrency
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scraper{source: source, snapshots: snapshots, engine: engine, opts: opts, logger: logger}
}

// Run searches every topic, evaluates the candidates concurrently and
// returns the admitted results. A repository that fails to fetch is logged
// and skipped. Cancelling ctx stops scheduling further repositories and
// returns ctx's error.
func (s *Scraper) Run(ctx context.Context) (*Report, error) {
	now := s.opts.Now()

	candidates, err := s.collect(ctx, now)
	if err != nil {
		return nil, err
	}

	report := &Report{Candidates: len(candidates)}
	slots := make([]*Result, len(candidates))

	progress := Progress(noopProgress{})
	if s.opts.StartProgress != nil {
		progress = s.opts.StartProgress(len(candidates))
	}
	defer progress.Complete()

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.opts.MaxConcurrency)

	for i, repo := range candidates {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			defer progress.Increment(1)
			if ctx.Err() != nil {
				return nil
			}
			res, err := s.evaluate(ctx, repo, now)
			if err != nil {
				s.logger.Warn("skipping repository", "repo", repo.FullName, "error", err)
				mu.Lock()
				report.Skipped = append(report.Skipped, Skip{Repository: repo.FullName, Err: err})
				mu.Unlock()
				return nil
			}
			slots[i] = res
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(report.Skipped, func(a, b Skip) int { return cmp.Compare(a.Repository, b.Repository) })

	for _, res := range slots {
		if res == nil {
			continue
		}
		if !s.opts.Threshold.Admit(res.Documentation.Score) {
			report.Filtered++
			continue
		}
		report.Results = append(report.Results, *res)
	}
	slices.SortStableFunc(report.Results, func(a, b Result) int {
		return cmp.Compare(b.Documentation.Score, a.Documentation.Score)
	})

	return report, nil
}

// collect pages through search results for each topic until MaxRepos
// distinct repositories are found. Search failures for one topic are logged;
// they are returned only if no candidates were found at all.
func (s *Scraper) collect(ctx context.Context, now time.Time) ([]github.Repository, error) {
	var out []github.Repository
	var errs []error
	seen := make(map[string]bool)
	perPage := max(s.source.PerPage(), 1)

	for _, topic := range s.opts.Topics {
		if len(out) >= s.opts.MaxRepos {
			break
		}
		query := s.opts.Search.Query(topic, now)
		s.logger.Info("searching", "topic", topic, "query", query)

		for page := 1; len(out) < s.opts.MaxRepos && (page-1)*perPage < maxSearchResults; page++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			result, err := s.source.SearchRepositories(ctx, query, page)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				s.logger.Warn("search failed", "topic", topic, "page", page, "error", err)
				errs = append(errs, err)
				break
			}
			if len(result.Items) == 0 {
				break
			}
			for _, repo := range result.Items {
				if len(out) >= s.opts.MaxRepos {
					break
				}
				if seen[repo.FullName] {
					continue
				}
				if !s.opts.Search.Admit(repo.StargazersCount, repo.PushedAt, now) {
					continue
				}
				seen[repo.FullName] = true
				out = append(out, repo)
			}
			if page*perPage >= result.TotalCount {
				break
			}
		}
	}

	if len(out) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("searching repositories: %w", errors.Join(errs...))
	}
	return out, nil
}

// evaluate fetches details and the snapshot of one repository and scores it.
func (s *Scraper) evaluate(ctx context.Context, hit github.Repository, now time.Time) (*Result, error) {
	repo, err := s.source.GetRepository(ctx, hit.Owner.Login, hit.Name)
	if err != nil {
		return nil, err
	}

	snap, err := s.snapshots.Build(ctx, repo)
	if err != nil {
		return nil, err
	}
	summary := s.engine.Evaluate(ctx, snap)
	s.logger.Debug("evaluated", "repo", repo.FullName, "score", summary.Score)

	if s.opts.OwnerActivity && repo.Owner.Login != "" {
		activity, err := s.source.OwnerActivity(ctx, repo.Owner.Login, s.opts.ActivityDays, now)
		if err != nil {
			s.logger.Warn("owner activity unavailable", "owner", repo.Owner.Login, "error", err)
		} else {
			repo.Owner.RecentActivity = &activity
		}
	}

	return &Result{Repository: repo, Documentation: summary}, nil
}
