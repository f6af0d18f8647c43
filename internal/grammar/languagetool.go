// Package grammar checks markdown text against a LanguageTool server.
package grammar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/blackwell-systems/reposcout/internal/docscore"
)

const (
	checkPath      = "/v2/check"
	defaultTimeout = 10 * time.Second

	// maxTextBytes keeps requests under the public server's size limit.
	maxTextBytes = 20000
)

// Client calls the LanguageTool /v2/check endpoint.
type Client struct {
	endpoint string
	language string
	http     *http.Client
}

var _ docscore.TextQualityChecker = (*Client)(nil)

// New returns a client for the LanguageTool server at endpoint. An empty
// endpoint yields a client whose checks report docscore.ErrCheckerUnavailable.
func New(endpoint, language string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if language == "" {
		language = "en-US"
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		language: language,
		http:     &http.Client{Timeout: timeout},
	}
}

// checkResponse is the subset of the LanguageTool response we need.
type checkResponse struct {
	Matches []struct {
		Message string `json:"message"`
		Rule    struct {
			ID       string `json:"id"`
			Category struct {
				ID string `json:"id"`
			} `json:"category"`
		} `json:"rule"`
	} `json:"matches"`
}

// Check returns the number of problems LanguageTool reports for text.
// Code blocks are stripped first so source snippets are not proofread.
func (c *Client) Check(ctx context.Context, text string) (int, error) {
	if c.endpoint == "" {
		return 0, docscore.ErrCheckerUnavailable
	}

	prose := StripCode(text)
	if strings.TrimSpace(prose) == "" {
		return 0, nil
	}
	if len(prose) > maxTextBytes {
		prose = truncateUTF8(prose, maxTextBytes)
	}

	form := url.Values{}
	form.Set("text", prose)
	form.Set("language", c.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+checkPath, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("languagetool returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed checkResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("parsing response: %w", err)
	}
	return countProblems(parsed), nil
}

// countProblems ignores typography-only matches such as curly quotes.
func countProblems(r checkResponse) int {
	n := 0
	for _, m := range r.Matches {
		if m.Rule.Category.ID == "TYPOGRAPHY" {
			continue
		}
		n++
	}
	return n
}

// StripCode removes fenced code blocks and inline code spans.
func StripCode(text string) string {
	var sb strings.Builder
	inFence := false
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		sb.WriteString(stripInlineCode(line))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func stripInlineCode(line string) string {
	var sb strings.Builder
	inCode := false
	for _, r := range line {
		if r == '`' {
			inCode = !inCode
			continue
		}
		if !inCode {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
