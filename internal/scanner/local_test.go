package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestLocalSnapshot(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"README.md":              "# Demo\n\nA small demo project.\n",
		"docs/guide.md":          "Read this guide carefully.",
		"docs/api/reference.md":  "one two three",
		"main.go":                "// comment\npackage main\n\nfunc main() {}\n",
		"node_modules/x/y.js":    "// skipped\n",
		".github/workflows/a.md": "hidden",
		"LICENSE":                "MIT",
	})

	snap, err := LocalSnapshot(root)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(snap.ReadmeText, "A small demo project.") {
		t.Errorf("unexpected README text %q", snap.ReadmeText)
	}

	wantPaths := []string{"LICENSE", "README.md", "docs/api/reference.md", "docs/guide.md", "main.go"}
	if len(snap.FilePaths) != len(wantPaths) {
		t.Fatalf("FilePaths = %v, want %v", snap.FilePaths, wantPaths)
	}
	for i, want := range wantPaths {
		if snap.FilePaths[i] != want {
			t.Errorf("FilePaths[%d] = %q, want %q", i, snap.FilePaths[i], want)
		}
	}

	if len(snap.MarkdownFiles) != 2 {
		t.Fatalf("expected 2 markdown files (README excluded), got %d", len(snap.MarkdownFiles))
	}
	if snap.MarkdownFiles[0].Path != "docs/api/reference.md" || snap.MarkdownFiles[0].WordCount != 3 {
		t.Errorf("unexpected first markdown file %+v", snap.MarkdownFiles[0])
	}

	// 1 comment line over 2 code lines.
	if snap.CommentRatio != 50 {
		t.Errorf("CommentRatio = %v, want 50", snap.CommentRatio)
	}
}

func TestLocalSnapshot_NoReadme(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"src/lib.rs": "fn f() {}\n"})

	snap, err := LocalSnapshot(root)
	if err != nil {
		t.Fatal(err)
	}
	if snap.ReadmeText != "" {
		t.Errorf("expected empty README, got %q", snap.ReadmeText)
	}
	if snap.CommentRatio != 0 {
		t.Errorf("CommentRatio = %v, want 0", snap.CommentRatio)
	}
}

func TestLocalSnapshot_NotADirectory(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LocalSnapshot(file); err == nil {
		t.Error("expected error for a file path")
	}
	if _, err := LocalSnapshot(filepath.Join(root, "missing")); err == nil {
		t.Error("expected error for a missing path")
	}
}

func TestReadmeRank(t *testing.T) {
	tests := []struct {
		rel  string
		want int
	}{
		{"README.md", 0},
		{"readme.MD", 0},
		{"README.rst", 2},
		{"README", 4},
		{"docs/README.md", -1},
		{"CONTRIBUTING.md", -1},
	}
	for _, tc := range tests {
		if got := ReadmeRank(tc.rel); got != tc.want {
			t.Errorf("ReadmeRank(%q) = %d, want %d", tc.rel, got, tc.want)
		}
	}
}

func TestFindReadme_PrefersMarkdown(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"README": "plain", "README.md": "md"})
	if got := findReadme(root); got != "README.md" {
		t.Errorf("findReadme() = %q, want README.md", got)
	}
}

func TestIsMarkdown(t *testing.T) {
	for name, want := range map[string]bool{
		"a.md":          true,
		"b.MARKDOWN":    true,
		"c.mdx":         true,
		"d.txt":         false,
		"docs/e.md.bak": false,
	} {
		if got := IsMarkdown(name); got != want {
			t.Errorf("IsMarkdown(%q) = %v, want %v", name, got, want)
		}
	}
}
