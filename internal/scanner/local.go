package scanner

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/reposcout/internal/docscore"
)

// maxFileBytes bounds the files read for comment counting and markdown text.
const maxFileBytes = 1 << 20

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"third_party":  true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"__pycache__":  true,
}

// readmeNames are checked in order; the first match wins.
var readmeNames = []string{"README.md", "README.markdown", "README.rst", "README.txt", "README"}

// IsMarkdown reports whether name has a markdown extension.
func IsMarkdown(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown", ".mdx":
		return true
	}
	return false
}

// IsRootReadme reports whether rel (slash separated, relative to the
// repository root) is a top-level README.
func IsRootReadme(rel string) bool {
	if strings.Contains(rel, "/") {
		return false
	}
	for _, name := range readmeNames {
		if strings.EqualFold(rel, name) {
			return true
		}
	}
	return false
}

// ReadmeRank orders README candidates; lower is preferred, -1 means rel is
// not a README.
func ReadmeRank(rel string) int {
	if strings.Contains(rel, "/") {
		return -1
	}
	for i, name := range readmeNames {
		if strings.EqualFold(rel, name) {
			return i
		}
	}
	return -1
}

// findReadme returns the name of the preferred README in dir, or "".
func findReadme(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	best, bestRank := "", len(readmeNames)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if r := ReadmeRank(e.Name()); r >= 0 && r < bestRank {
			best, bestRank = e.Name(), r
		}
	}
	return best
}

// LocalSnapshot walks a checkout and assembles the documentation snapshot
// the scoring engine consumes: README text, the relative file listing,
// markdown files other than the root README, and the comment ratio over
// recognized source files.
func LocalSnapshot(dir string) (docscore.Snapshot, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return docscore.Snapshot{}, fmt.Errorf("reading %s: %w", dir, err)
	}
	if !info.IsDir() {
		return docscore.Snapshot{}, fmt.Errorf("%s is not a directory", dir)
	}

	var snap docscore.Snapshot
	var lines LineCounts

	if name := findReadme(dir); name != "" {
		data, err := readLimited(filepath.Join(dir, name))
		if err != nil {
			return docscore.Snapshot{}, err
		}
		snap.ReadmeText = string(data)
	}

	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != dir && (skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		snap.FilePaths = append(snap.FilePaths, rel)

		switch {
		case IsMarkdown(rel) && !IsRootReadme(rel):
			data, err := readLimited(p)
			if err != nil {
				return err
			}
			text := string(data)
			snap.MarkdownFiles = append(snap.MarkdownFiles, docscore.MarkdownFile{
				Path:      rel,
				WordCount: len(strings.Fields(text)),
				Text:      text,
			})
		case IsSource(rel):
			f, err := os.Open(p)
			if err != nil {
				return err
			}
			c, err := CountLines(rel, f)
			_ = f.Close()
			if err != nil {
				// Overlong lines usually mean generated or minified code.
				return nil
			}
			lines = lines.Add(c)
		}
		return nil
	})
	if err != nil {
		return docscore.Snapshot{}, fmt.Errorf("walking %s: %w", dir, err)
	}

	snap.CommentRatio = lines.Ratio()
	return snap, nil
}

func readLimited(p string) ([]byte, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, maxFileBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	return data, nil
}
