package models

import "strings"

// RepoID identifies a repository on the hosting platform.
type RepoID struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

func (r RepoID) FullName() string {
	return r.Owner + "/" + r.Name
}

// CacheKey is the normalized form used to memoize analyses. GitHub owner and
// repository names are case-insensitive.
func (r RepoID) CacheKey(summarize bool) string {
	flag := "0"
	if summarize {
		flag = "1"
	}
	return "github.com/" + strings.ToLower(r.FullName()) + "::llm=" + flag
}

// RepoInfo is the subset of the platform's repository payload the analysis
// consumes.
type RepoInfo struct {
	FullName      string
	Description   *string
	HTMLURL       string
	Stars         int
	Forks         int
	OpenIssues    int
	License       *string
	Topics        []string
	DefaultBranch string
}

// RepoMeta is the metadata block of an analysis, including the derived health
// score.
type RepoMeta struct {
	FullName      string   `json:"full_name"`
	Description   *string  `json:"description"`
	HTMLURL       string   `json:"html_url"`
	Stars         int      `json:"stars"`
	Forks         int      `json:"forks"`
	OpenIssues    int      `json:"open_issues"`
	License       *string  `json:"license"`
	Topics        []string `json:"topics"`
	DefaultBranch string   `json:"default_branch"`
	HealthScore   int      `json:"healthScore"`
}

type Contributor struct {
	Login         string `json:"login"`
	Contributions int    `json:"contributions"`
	AvatarURL     string `json:"avatar_url"`
}

// CommitWeek is one week of the trailing commit activity window.
type CommitWeek struct {
	Week  int64 `json:"week"`
	Total int   `json:"total"`
}

// TreeEntry is one flattened entry of a recursive tree listing.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

const TreeEntryBlob = "blob"

type FileSnippet struct {
	Path    string `json:"path"`
	Snippet string `json:"snippet"`
}

type AnalysisResult struct {
	Meta           RepoMeta       `json:"meta"`
	Languages      map[string]int `json:"languages"`
	Contributors   []Contributor  `json:"contributors"`
	CommitActivity []CommitWeek   `json:"commitActivity"`
	Files          []FileSnippet  `json:"files"`
	LLMSummary     string         `json:"llmSummary"`
}
