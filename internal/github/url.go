package github

import (
	"regexp"
	"strings"

	"github.com/kevinmichaelchen/repo-analyzer/internal/models"
)

var repoURLPattern = regexp.MustCompile(`(?i)github\.com[/:]([\w.-]+)/([\w.-]+?)(?:\.git)?(?:[/?#]|$)`)

// ParseRepoURL extracts owner and repository name from URLs such as
// https://github.com/owner/repo, github.com/owner/repo.git or
// https://github.com/owner/repo/tree/main/docs.
func ParseRepoURL(raw string) (models.RepoID, bool) {
	m := repoURLPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return models.RepoID{}, false
	}
	owner, name := m[1], m[2]
	if isDots(owner) || isDots(name) {
		return models.RepoID{}, false
	}
	return models.RepoID{Owner: owner, Name: name}, true
}

func isDots(s string) bool {
	return strings.Trim(s, ".") == ""
}
