package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// SearchRepositories returns one page (1-based) of repositories matching
// query, most-starred first.
func (c *Client) SearchRepositories(ctx context.Context, query string, page int) (SearchPage, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("sort", "stars")
	q.Set("order", "desc")
	q.Set("per_page", strconv.Itoa(c.perPage))
	q.Set("page", strconv.Itoa(max(page, 1)))

	var result SearchPage
	if err := c.getJSON(ctx, "/search/repositories", q, &result); err != nil {
		return SearchPage{}, fmt.Errorf("searching %q: %w", query, err)
	}
	return result, nil
}

// PerPage returns the search page size in use.
func (c *Client) PerPage() int {
	return c.perPage
}

// GetRepository returns repository details.
func (c *Client) GetRepository(ctx context.Context, owner, name string) (Repository, error) {
	var repo Repository
	if err := c.getJSON(ctx, repoPath(owner, name), nil, &repo); err != nil {
		return Repository{}, fmt.Errorf("fetching %s/%s: %w", owner, name, err)
	}
	return repo, nil
}

// GetReadme returns the raw text of the repository README, or "" when the
// repository has none.
func (c *Client) GetReadme(ctx context.Context, owner, name string) (string, error) {
	body, err := c.get(ctx, repoPath(owner, name)+"/readme", nil, acceptRaw)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("fetching README for %s/%s: %w", owner, name, err)
	}
	return string(body), nil
}

// GetTree returns the recursive tree at ref. Empty repositories yield an
// empty tree.
func (c *Client) GetTree(ctx context.Context, owner, name, ref string) (Tree, error) {
	q := url.Values{}
	q.Set("recursive", "1")

	var tree Tree
	err := c.getJSON(ctx, repoPath(owner, name)+"/git/trees/"+url.PathEscape(ref), q, &tree)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 409 {
			return Tree{}, nil
		}
		return Tree{}, fmt.Errorf("fetching tree for %s/%s@%s: %w", owner, name, ref, err)
	}
	return tree, nil
}

// GetFileContent returns the raw content of path at ref.
func (c *Client) GetFileContent(ctx context.Context, owner, name, path, ref string) ([]byte, error) {
	var q url.Values
	if ref != "" {
		q = url.Values{}
		q.Set("ref", ref)
	}
	body, err := c.get(ctx, repoPath(owner, name)+"/contents/"+escapePath(path), q, acceptRaw)
	if err != nil {
		return nil, fmt.Errorf("fetching %s from %s/%s: %w", path, owner, name, err)
	}
	return body, nil
}

func repoPath(owner, name string) string {
	return "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(name)
}

func escapePath(p string) string {
	parts := strings.Split(strings.TrimPrefix(p, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
