// Package scanner discovers local checkouts and turns them into
// documentation snapshots.
package scanner

// Project represents a discovered local checkout.
type Project struct {
	// Path is the absolute filesystem path to the project root.
	Path string `json:"path"`

	// Name is the directory name of the project.
	Name string `json:"name"`

	// HasGit indicates whether the project is a git repository.
	HasGit bool `json:"has_git"`

	// HasReadme indicates whether a README file exists in the project root.
	HasReadme bool `json:"has_readme"`

	// PrimaryLanguage is inferred from well-known project files.
	PrimaryLanguage string `json:"primary_language,omitempty"`
}
