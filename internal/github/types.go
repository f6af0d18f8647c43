package github

import "time"

// Owner is the account that owns a repository.
type Owner struct {
	Login   string `json:"login"`
	Type    string `json:"type"`
	HTMLURL string `json:"html_url"`

	// RecentActivity is filled in when owner activity is requested.
	RecentActivity *Activity `json:"recent_activity,omitempty"`
}

// Repository is the subset of repository fields reposcout reports on.
type Repository struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	Owner           Owner     `json:"owner"`
	Description     string    `json:"description"`
	HTMLURL         string    `json:"html_url"`
	Language        string    `json:"language"`
	DefaultBranch   string    `json:"default_branch"`
	Topics          []string  `json:"topics"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	OpenIssuesCount int       `json:"open_issues_count"`
	Archived        bool      `json:"archived"`
	Fork            bool      `json:"fork"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	PushedAt        time.Time `json:"pushed_at"`
}

// SearchPage is one page of repository search results.
type SearchPage struct {
	TotalCount        int          `json:"total_count"`
	IncompleteResults bool         `json:"incomplete_results"`
	Items             []Repository `json:"items"`
}

// TreeEntry is one node of a recursive git tree listing.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"` // "blob", "tree" or "commit"
	Size int64  `json:"size"`
}

// Tree is a recursive git tree.
type Tree struct {
	SHA       string      `json:"sha"`
	Entries   []TreeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

// Event is a public user event.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Repo      struct {
		Name string `json:"name"`
	} `json:"repo"`
}

// Activity summarizes a user's recent public events.
type Activity struct {
	TotalContributions int            `json:"total_contributions"`
	ContributionTypes  map[string]int `json:"contribution_types"`
	RecentEvents       []Event        `json:"recent_events"`
	ActivityDates      []time.Time    `json:"activity_dates"`
}
