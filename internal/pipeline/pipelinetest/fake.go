// Package pipelinetest provides in-memory doubles of the analysis
// collaborators.
package pipelinetest

import (
	"context"
	"errors"
	"sync"

	"github.com/kevinmichaelchen/repo-analyzer/internal/github"
	"github.com/kevinmichaelchen/repo-analyzer/internal/models"
)

// Source serves canned repository data. A non-nil entry in Errors makes the
// named method fail; Files maps a path to its raw content.
type Source struct {
	Info       *models.RepoInfo
	Langs      map[string]int
	Contribs   []models.Contributor
	Activity   []models.CommitWeek
	ReadmeText string
	Commit     string
	Tree       string
	Entries    []models.TreeEntry
	Files      map[string][]byte
	Errors     map[string]error

	mu       sync.Mutex
	calls    map[string]int
	branches []string
}

// NewSource returns a Source describing a small healthy repository.
func NewSource() *Source {
	desc := "A cat"
	license := "MIT"
	return &Source{
		Info: &models.RepoInfo{
			FullName:      "octo/cat",
			Description:   &desc,
			HTMLURL:       "https://github.com/octo/cat",
			Stars:         1200,
			Forks:         30,
			OpenIssues:    4,
			License:       &license,
			Topics:        []string{"cats"},
			DefaultBranch: "main",
		},
		Langs:      map[string]int{"Go": 12000, "Shell": 300},
		Contribs:   []models.Contributor{{Login: "alice", Contributions: 10, AvatarURL: "https://a/alice"}},
		Activity:   []models.CommitWeek{{Week: 1700000000, Total: 5}},
		ReadmeText: "# Cat",
		Commit:     "c0ffee",
		Tree:       "7ree",
		Entries: []models.TreeEntry{
			{Path: "b/x.png", Type: models.TreeEntryBlob},
			{Path: "src/a.js", Type: models.TreeEntryBlob},
			{Path: "lib/y.js", Type: models.TreeEntryBlob},
			{Path: "index.ts", Type: models.TreeEntryBlob},
		},
		Files: map[string][]byte{
			"src/a.js": []byte("export const a = 1"),
			"lib/y.js": []byte("module.exports = {}"),
			"index.ts": []byte("import './src/a'"),
		},
		Errors: map[string]error{},
	}
}

// Fail makes the named method return a RequestError with the given status.
func (s *Source) Fail(method string, status int) *Source {
	s.Errors[method] = &github.RequestError{URL: "https://api.github.test/" + method, StatusCode: status, Body: "boom"}
	return s
}

// Calls reports how many times the named method ran.
func (s *Source) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// Branches lists the branch of every RawFile call.
func (s *Source) Branches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.branches...)
}

// TotalCalls reports how many remote calls ran overall.
func (s *Source) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func (s *Source) record(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[method]++
	return s.Errors[method]
}

func (s *Source) Repository(_ context.Context, _ models.RepoID) (*models.RepoInfo, error) {
	if err := s.record("Repository"); err != nil {
		return nil, err
	}
	info := *s.Info
	return &info, nil
}

func (s *Source) Languages(_ context.Context, _ models.RepoID) (map[string]int, error) {
	if err := s.record("Languages"); err != nil {
		return nil, err
	}
	return s.Langs, nil
}

func (s *Source) Contributors(_ context.Context, _ models.RepoID) ([]models.Contributor, error) {
	if err := s.record("Contributors"); err != nil {
		return nil, err
	}
	return s.Contribs, nil
}

func (s *Source) CommitActivity(_ context.Context, _ models.RepoID) ([]models.CommitWeek, error) {
	if err := s.record("CommitActivity"); err != nil {
		return nil, err
	}
	return s.Activity, nil
}

func (s *Source) Readme(_ context.Context, _ models.RepoID) (string, error) {
	if err := s.record("Readme"); err != nil {
		return "", err
	}
	return s.ReadmeText, nil
}

func (s *Source) BranchHead(_ context.Context, _ models.RepoID, _ string) (string, error) {
	if err := s.record("BranchHead"); err != nil {
		return "", err
	}
	return s.Commit, nil
}

func (s *Source) CommitTree(_ context.Context, _ models.RepoID, _ string) (string, error) {
	if err := s.record("CommitTree"); err != nil {
		return "", err
	}
	return s.Tree, nil
}

func (s *Source) ListTree(_ context.Context, _ models.RepoID, _ string) ([]models.TreeEntry, error) {
	if err := s.record("ListTree"); err != nil {
		return nil, err
	}
	return s.Entries, nil
}

func (s *Source) RawFile(_ context.Context, _ models.RepoID, branch, path string, limit int64) ([]byte, error) {
	if err := s.record("RawFile"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.branches = append(s.branches, branch)
	s.mu.Unlock()

	body, ok := s.Files[path]
	if !ok {
		return nil, &github.RequestError{URL: "https://raw.test/" + path, StatusCode: 404, Body: "404: Not Found"}
	}
	if int64(len(body)) > limit {
		body = body[:limit]
	}
	return body, nil
}

// Summarizer returns Text, or Err when set, and records the prompts it saw.
type Summarizer struct {
	Text string
	Err  error

	mu      sync.Mutex
	prompts []string
}

// Prompts returns the prompts received so far.
func (s *Summarizer) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

func (s *Summarizer) Summarize(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	return s.Text, nil
}

// ErrQuota is a canned summarization failure.
var ErrQuota = errors.New("quota exceeded")
