package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DiscoverProjects returns the git repositories found in paths. A path that
// is itself a repository is returned as-is; otherwise its immediate
// subdirectories containing a .git/ directory are returned.
func DiscoverProjects(paths []string) ([]Project, error) {
	var projects []Project
	seen := make(map[string]bool)

	add := func(projectPath string) {
		abs, err := filepath.Abs(projectPath)
		if err != nil {
			abs = projectPath
		}
		if seen[abs] {
			return
		}
		seen[abs] = true
		projects = append(projects, Project{
			Path:            abs,
			Name:            filepath.Base(abs),
			HasGit:          true,
			HasReadme:       findReadme(abs) != "",
			PrimaryLanguage: detectLanguage(abs),
		})
	}

	for _, root := range paths {
		if isGitRepo(root) {
			add(root)
			continue
		}

		entries, err := os.ReadDir(root)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			// Skip hidden directories.
			if strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			projectPath := filepath.Join(root, entry.Name())
			if !isGitRepo(projectPath) {
				continue
			}
			add(projectPath)
		}
	}

	// Sort by name.
	sort.Slice(projects, func(i, j int) bool {
		return strings.ToLower(projects[i].Name) < strings.ToLower(projects[j].Name)
	})

	return projects, nil
}

func isGitRepo(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil && info.IsDir()
}

// detectLanguage infers the primary language from the presence of
// well-known project files.
func detectLanguage(projectPath string) string {
	// Ordered by specificity: check more specific indicators first.
	indicators := []struct {
		file string
		lang string
	}{
		{"go.mod", "Go"},
		{"Cargo.toml", "Rust"},
		{"package.json", "JavaScript"},
		{"pyproject.toml", "Python"},
		{"setup.py", "Python"},
		{"pom.xml", "Java"},
		{"build.gradle", "Java"},
		{"Gemfile", "Ruby"},
	}

	for _, ind := range indicators {
		if _, err := os.Stat(filepath.Join(projectPath, ind.file)); err == nil {
			return ind.lang
		}
	}
	return ""
}
