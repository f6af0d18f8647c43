package docscore

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/text/cases"
)

// FullSectionCredit is the number of canonical README sections that earns
// the whole sections criterion.
const FullSectionCredit = 4

// sectionVocabulary lists the canonical README sections in reporting
// priority. A heading matches a section when it contains any keyword.
var sectionVocabulary = []struct {
	name     string
	keywords []string
}{
	{"installation", []string{"installation", "install", "setup", "getting started"}},
	{"usage", []string{"usage", "how to use", "quick start", "quickstart"}},
	{"api", []string{"api"}},
	{"configuration", []string{"configuration", "config", "settings"}},
	{"contributing", []string{"contributing", "contribute", "contribution"}},
	{"license", []string{"license", "licence"}},
	{"examples", []string{"example"}},
	{"testing", []string{"testing", "tests"}},
	{"features", []string{"features"}},
	{"documentation", []string{"documentation"}},
	{"faq", []string{"faq", "frequently asked"}},
	{"changelog", []string{"changelog", "release notes"}},
	{"support", []string{"support"}},
}

// Heading-like paragraph limits.
const (
	maxTitleWords = 6
	maxTitleRunes = 60
)

// ReadmeSections returns the canonical section names whose keywords appear
// in the README's headings, in the order the headings first mention them.
func ReadmeSections(readme string) []string {
	found := []string{}
	if strings.TrimSpace(readme) == "" {
		return found
	}

	fold := cases.Fold()
	seen := make(map[string]bool)
	for _, heading := range headings([]byte(readme)) {
		h := fold.String(heading)
		for _, sec := range sectionVocabulary {
			if seen[sec.name] {
				continue
			}
			for _, kw := range sec.keywords {
				if strings.Contains(h, kw) {
					seen[sec.name] = true
					found = append(found, sec.name)
					break
				}
			}
		}
	}
	return found
}

// headings walks the markdown AST and returns the text of every heading plus
// every top-level single-line paragraph that looks like a title.
func headings(source []byte) []string {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var out []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if t := strings.TrimSpace(string(node.Text(source))); t != "" {
				out = append(out, t)
			}
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph:
			if node.Parent() == nil || node.Parent().Kind() != ast.KindDocument {
				return ast.WalkSkipChildren, nil
			}
			if node.Lines().Len() != 1 {
				return ast.WalkSkipChildren, nil
			}
			seg := node.Lines().At(0)
			line := strings.TrimSpace(string(seg.Value(source)))
			if isTitleLine(line) {
				out = append(out, line)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return out
}

// isTitleLine reports whether line is short and every word starts with an
// upper-case letter or a non-letter.
func isTitleLine(line string) bool {
	if line == "" || utf8.RuneCountInString(line) > maxTitleRunes {
		return false
	}
	if strings.ContainsAny(line[len(line)-1:], ".,;!?") {
		return false
	}
	words := strings.Fields(line)
	if len(words) > maxTitleWords {
		return false
	}

	letters := false
	for _, w := range words {
		r, _ := utf8.DecodeRuneInString(w)
		if unicode.IsLetter(r) {
			letters = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return letters
}
