package output

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blackwell-systems/reposcout/internal/github"
	"github.com/blackwell-systems/reposcout/internal/scraper"
)

// Report formats.
const (
	FormatJSON = "json"
	FormatHTML = "html"
)

// Metadata describes the run that produced a report.
type Metadata struct {
	Timestamp  time.Time        `json:"timestamp"`
	Settings   any              `json:"settings"`
	RateLimit  github.RateLimit `json:"rate_limit"`
	Candidates int              `json:"candidates"`
	Skipped    []string         `json:"skipped,omitempty"`
	Filtered   int              `json:"filtered"`
}

// Document is the content of a saved report.
type Document struct {
	Metadata     Metadata         `json:"metadata"`
	Repositories []scraper.Result `json:"repositories"`
}

// NewDocument builds a report document from a scraper report.
func NewDocument(r *scraper.Report, settings any, rate github.RateLimit, now time.Time) Document {
	doc := Document{
		Metadata: Metadata{
			Timestamp:  now.UTC(),
			Settings:   settings,
			RateLimit:  rate,
			Candidates: r.Candidates,
			Filtered:   r.Filtered,
		},
		Repositories: r.Results,
	}
	for _, s := range r.Skipped {
		doc.Metadata.Skipped = append(doc.Metadata.Skipped, s.Repository)
	}
	if doc.Repositories == nil {
		doc.Repositories = []scraper.Result{}
	}
	return doc
}

// ReportPath returns <dir>/repositories.<format>.
func ReportPath(dir, format string) string {
	return filepath.Join(dir, "repositories."+format)
}

// SaveReport writes doc to ReportPath(dir, format), creating dir as needed,
// and returns the path written.
func SaveReport(dir, format string, doc Document) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := ReportPath(dir, format)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating report: %w", err)
	}
	if err := WriteReport(f, format, doc); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing report: %w", err)
	}
	return path, nil
}

// WriteReport renders doc in the given format.
func WriteReport(w io.Writer, format string, doc Document) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		return WriteJSON(w, doc)
	case FormatHTML:
		return WriteHTML(w, doc)
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

var htmlFuncs = template.FuncMap{
	"join": strings.Join,
	"orDefault": func(s, def string) string {
		if strings.TrimSpace(s) == "" {
			return def
		}
		return s
	},
	"scoreClass": func(score int) string {
		switch {
		case score >= 70:
			return "good"
		case score >= 40:
			return "fair"
		default:
			return "poor"
		}
	},
	"toJSON": func(v any) (string, error) {
		b, err := json.MarshalIndent(v, "", "  ")
		return string(b), err
	},
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return "unknown"
		}
		return t.UTC().Format(time.RFC3339)
	},
}

var reportTemplate = template.Must(template.New("report").Funcs(htmlFuncs).Parse(htmlReport))

// WriteHTML renders doc as a standalone HTML page.
func WriteHTML(w io.Writer, doc Document) error {
	if err := reportTemplate.Execute(w, doc); err != nil {
		return fmt.Errorf("rendering HTML: %w", err)
	}
	return nil
}

const htmlReport = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>reposcout report</title>
<style>
body { font-family: -apple-system, Arial, sans-serif; margin: 2rem; }
table { width: 100%; border-collapse: collapse; }
th, td { border: 1px solid #ddd; padding: 8px; vertical-align: top; }
th { background-color: #f2f2f2; text-align: left; }
.good { color: #2e7d32; font-weight: bold; }
.fair { color: #f9a825; font-weight: bold; }
.poor { color: #c62828; font-weight: bold; }
ul.issues { margin: 0; padding-left: 1.2rem; }
</style>
</head>
<body>
<h1>reposcout report</h1>
<table>
<thead>
<tr>
<th>Repository</th>
<th>Description</th>
<th>Stars</th>
<th>Forks</th>
<th>Open Issues</th>
<th>Documentation Score</th>
<th>Issues</th>
</tr>
</thead>
<tbody>
{{- range .Repositories}}
<tr>
<td><a href="{{.HTMLURL}}">{{.FullName}}</a></td>
<td>{{orDefault .Description "No description"}}</td>
<td>{{.StargazersCount}}</td>
<td>{{.ForksCount}}</td>
<td>{{.OpenIssuesCount}}</td>
<td class="{{scoreClass .Documentation.Score}}">{{.Documentation.Score}}</td>
<td>{{with .Documentation.Findings}}<ul class="issues">{{range .}}<li>{{.Issue}}</li>{{end}}</ul>{{else}}None{{end}}</td>
</tr>
{{- else}}
<tr><td colspan="7">No repositories matched.</td></tr>
{{- end}}
</tbody>
</table>
<h2>Metadata</h2>
<p><strong>Timestamp:</strong> {{formatTime .Metadata.Timestamp}}</p>
<p><strong>Candidates:</strong> {{.Metadata.Candidates}}, <strong>filtered by score:</strong> {{.Metadata.Filtered}}</p>
{{- with .Metadata.Skipped}}
<p><strong>Skipped:</strong> {{join . ", "}}</p>
{{- end}}
<h3>Settings</h3>
<pre>{{toJSON .Metadata.Settings}}</pre>
<h3>Rate Limit Information</h3>
<p>Rate limit remaining: {{.Metadata.RateLimit.Remaining}}</p>
<p>Rate limit reset time: {{formatTime .Metadata.RateLimit.Reset}}</p>
</body>
</html>
`
