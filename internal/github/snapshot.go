package github

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/reposcout/internal/docscore"
	"github.com/blackwell-systems/reposcout/internal/scanner"
)

const (
	defaultSampleFiles = 40
	fetchConcurrency   = 4

	// maxSampleBytes skips blobs too large to be hand-written docs or code.
	maxSampleBytes = 512 * 1024
)

// SnapshotBuilder assembles docscore snapshots from the API. Markdown text
// and source files are sampled: at most sampleFiles of each are downloaded.
type SnapshotBuilder struct {
	client      *Client
	sampleFiles int
	logger      *slog.Logger
}

// NewSnapshotBuilder returns a builder backed by client.
func NewSnapshotBuilder(client *Client, sampleFiles int, logger *slog.Logger) *SnapshotBuilder {
	if sampleFiles <= 0 {
		sampleFiles = defaultSampleFiles
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SnapshotBuilder{client: client, sampleFiles: sampleFiles, logger: logger}
}

// Build fetches the README, the recursive tree, sampled markdown files and
// sampled source files of repo. README and tree failures are returned;
// individual file failures are logged and skipped.
func (b *SnapshotBuilder) Build(ctx context.Context, repo Repository) (docscore.Snapshot, error) {
	owner, name := repo.Owner.Login, repo.Name
	if owner == "" || name == "" {
		owner, name, _ = strings.Cut(repo.FullName, "/")
	}

	readme, err := b.client.GetReadme(ctx, owner, name)
	if err != nil {
		return docscore.Snapshot{}, err
	}

	ref := repo.DefaultBranch
	if ref == "" {
		ref = "HEAD"
	}
	tree, err := b.client.GetTree(ctx, owner, name, ref)
	if err != nil {
		return docscore.Snapshot{}, err
	}
	if tree.Truncated {
		b.logger.Debug("tree listing truncated", "repo", repo.FullName, "entries", len(tree.Entries))
	}

	snap := docscore.Snapshot{ReadmeText: readme}
	var markdown, sources []TreeEntry
	for _, e := range tree.Entries {
		if e.Type != "blob" {
			continue
		}
		snap.FilePaths = append(snap.FilePaths, e.Path)
		switch {
		case scanner.IsMarkdown(e.Path) && !scanner.IsRootReadme(e.Path):
			markdown = append(markdown, e)
		case scanner.IsSource(e.Path) && e.Size <= maxSampleBytes:
			sources = append(sources, e)
		}
	}

	fetch := func(entries []TreeEntry) ([][]byte, error) {
		return b.fetchAll(ctx, owner, name, ref, entries)
	}

	mdTexts, err := fetch(head(markdown, b.sampleFiles))
	if err != nil {
		return docscore.Snapshot{}, err
	}
	for i, e := range markdown {
		f := docscore.MarkdownFile{Path: e.Path}
		if i < len(mdTexts) && mdTexts[i] != nil {
			f.Text = string(mdTexts[i])
			f.WordCount = len(strings.Fields(f.Text))
		}
		snap.MarkdownFiles = append(snap.MarkdownFiles, f)
	}

	srcTexts, err := fetch(head(sources, b.sampleFiles))
	if err != nil {
		return docscore.Snapshot{}, err
	}
	var lines scanner.LineCounts
	for i, body := range srcTexts {
		if body == nil {
			continue
		}
		c, err := scanner.CountLines(sources[i].Path, bytes.NewReader(body))
		if err != nil {
			continue
		}
		lines = lines.Add(c)
	}
	snap.CommentRatio = lines.Ratio()

	return snap, nil
}

// fetchAll downloads entries concurrently into index-aligned slots. A failed
// file leaves a nil slot; only context cancellation aborts.
func (b *SnapshotBuilder) fetchAll(ctx context.Context, owner, name, ref string, entries []TreeEntry) ([][]byte, error) {
	out := make([][]byte, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	for i, e := range entries {
		g.Go(func() error {
			body, err := b.client.GetFileContent(gctx, owner, name, e.Path, ref)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				b.logger.Debug("skipping file", "repo", owner+"/"+name, "path", e.Path, "error", err)
				return nil
			}
			out[i] = body
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching files for %s/%s: %w", owner, name, err)
	}
	return out, nil
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
