package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/kevinmichaelchen/repo-analyzer/internal/models"
	"golang.org/x/oauth2"
)

const (
	contributorsPerPage = 50

	apiTimeout   = 20 * time.Second
	statsTimeout = 30 * time.Second
	treeTimeout  = 30 * time.Second
	rawTimeout   = 20 * time.Second

	// readmeMaxBytes bounds the README download; callers trim to characters.
	readmeMaxBytes = 4 * 50000
)

type Config struct {
	Token      string
	APIURL     string
	RawURL     string
	UserAgent  string
	HTTPClient *http.Client
}

// Client talks to the GitHub REST API and the raw-content mirror.
type Client struct {
	gh         *gh.Client
	httpClient *http.Client
	rawBase    string
	userAgent  string
}

func NewClient(cfg Config) (*Client, error) {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(ctx, ts)
	}

	client := gh.NewClient(httpClient)
	if cfg.APIURL != "" {
		base, err := url.Parse(cfg.APIURL)
		if err != nil {
			return nil, fmt.Errorf("parsing GitHub API URL: %w", err)
		}
		client.BaseURL = base
	}
	if cfg.UserAgent != "" {
		client.UserAgent = cfg.UserAgent
	}

	rawBase := cfg.RawURL
	if rawBase == "" {
		rawBase = "https://raw.githubusercontent.com/"
	}
	if !strings.HasSuffix(rawBase, "/") {
		rawBase += "/"
	}

	return &Client{
		gh:         client,
		httpClient: httpClient,
		rawBase:    rawBase,
		userAgent:  client.UserAgent,
	}, nil
}

func (c *Client) apiURL(format string, args ...any) string {
	return c.gh.BaseURL.String() + fmt.Sprintf(format, args...)
}

// Repository fetches the repository metadata.
func (c *Client) Repository(ctx context.Context, id models.RepoID) (*models.RepoInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	repo, resp, err := c.gh.Repositories.Get(ctx, id.Owner, id.Name)
	if err != nil {
		return nil, normalize(c.apiURL("repos/%s/%s", id.Owner, id.Name), resp, err)
	}

	info := &models.RepoInfo{
		FullName:      repo.GetFullName(),
		Description:   repo.Description,
		HTMLURL:       repo.GetHTMLURL(),
		Stars:         repo.GetStargazersCount(),
		Forks:         repo.GetForksCount(),
		OpenIssues:    repo.GetOpenIssuesCount(),
		Topics:        repo.Topics,
		DefaultBranch: repo.GetDefaultBranch(),
	}
	if l := repo.GetLicense(); l != nil {
		name := l.GetSPDXID()
		if name == "" {
			name = l.GetName()
		}
		if name != "" {
			info.License = &name
		}
	}
	if info.Topics == nil {
		info.Topics = []string{}
	}
	return info, nil
}

func (c *Client) Languages(ctx context.Context, id models.RepoID) (map[string]int, error) {
	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	langs, resp, err := c.gh.Repositories.ListLanguages(ctx, id.Owner, id.Name)
	if err != nil {
		return nil, normalize(c.apiURL("repos/%s/%s/languages", id.Owner, id.Name), resp, err)
	}
	if langs == nil {
		langs = map[string]int{}
	}
	return langs, nil
}

// Contributors returns the first page of contributors, in platform order.
func (c *Client) Contributors(ctx context.Context, id models.RepoID) ([]models.Contributor, error) {
	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	opts := &gh.ListContributorsOptions{ListOptions: gh.ListOptions{PerPage: contributorsPerPage}}
	list, resp, err := c.gh.Repositories.ListContributors(ctx, id.Owner, id.Name, opts)
	if err != nil {
		return nil, normalize(c.apiURL("repos/%s/%s/contributors", id.Owner, id.Name), resp, err)
	}

	out := make([]models.Contributor, 0, len(list))
	for _, ct := range list {
		if len(out) == contributorsPerPage {
			break
		}
		out = append(out, models.Contributor{
			Login:         ct.GetLogin(),
			Contributions: ct.GetContributions(),
			AvatarURL:     ct.GetAvatarURL(),
		})
	}
	return out, nil
}

// CommitActivity returns weekly commit totals for the trailing year. GitHub
// answers 202 while it computes the statistics; that surfaces as an error.
func (c *Client) CommitActivity(ctx context.Context, id models.RepoID) ([]models.CommitWeek, error) {
	ctx, cancel := context.WithTimeout(ctx, statsTimeout)
	defer cancel()

	weeks, resp, err := c.gh.Repositories.ListCommitActivity(ctx, id.Owner, id.Name)
	if err != nil {
		return nil, normalize(c.apiURL("repos/%s/%s/stats/commit_activity", id.Owner, id.Name), resp, err)
	}

	out := make([]models.CommitWeek, 0, len(weeks))
	for _, w := range weeks {
		out = append(out, models.CommitWeek{
			Week:  w.GetWeek().Unix(),
			Total: w.GetTotal(),
		})
	}
	return out, nil
}

// Readme resolves the README's download URL and fetches its raw text.
func (c *Client) Readme(ctx context.Context, id models.RepoID) (string, error) {
	apiCtx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	content, resp, err := c.gh.Repositories.GetReadme(apiCtx, id.Owner, id.Name, nil)
	if err != nil {
		return "", normalize(c.apiURL("repos/%s/%s/readme", id.Owner, id.Name), resp, err)
	}
	if content.GetDownloadURL() == "" {
		return "", nil
	}

	body, err := c.Get(ctx, content.GetDownloadURL(), Options{Timeout: rawTimeout, Limit: readmeMaxBytes})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// BranchHead resolves the commit SHA a branch points at.
func (c *Client) BranchHead(ctx context.Context, id models.RepoID, branch string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	ref, resp, err := c.gh.Git.GetRef(ctx, id.Owner, id.Name, "heads/"+branch)
	if err != nil {
		return "", normalize(c.apiURL("repos/%s/%s/git/ref/heads/%s", id.Owner, id.Name, branch), resp, err)
	}
	sha := ref.GetObject().GetSHA()
	if sha == "" {
		return "", fmt.Errorf("ref heads/%s of %s has no object", branch, id.FullName())
	}
	return sha, nil
}

// CommitTree resolves the tree SHA of a commit.
func (c *Client) CommitTree(ctx context.Context, id models.RepoID, commitSHA string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()

	commit, resp, err := c.gh.Git.GetCommit(ctx, id.Owner, id.Name, commitSHA)
	if err != nil {
		return "", normalize(c.apiURL("repos/%s/%s/git/commits/%s", id.Owner, id.Name, commitSHA), resp, err)
	}
	sha := commit.GetTree().GetSHA()
	if sha == "" {
		return "", fmt.Errorf("commit %s of %s has no tree", commitSHA, id.FullName())
	}
	return sha, nil
}

// ListTree returns the flattened recursive listing of a tree.
func (c *Client) ListTree(ctx context.Context, id models.RepoID, treeSHA string) ([]models.TreeEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, treeTimeout)
	defer cancel()

	tree, resp, err := c.gh.Git.GetTree(ctx, id.Owner, id.Name, treeSHA, true)
	if err != nil {
		return nil, normalize(c.apiURL("repos/%s/%s/git/trees/%s?recursive=1", id.Owner, id.Name, treeSHA), resp, err)
	}

	entries := make([]models.TreeEntry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		entries = append(entries, models.TreeEntry{Path: e.GetPath(), Type: e.GetType()})
	}
	return entries, nil
}

// RawFile fetches up to limit leading bytes of a file from the raw-content
// mirror.
func (c *Client) RawFile(ctx context.Context, id models.RepoID, branch, path string, limit int64) ([]byte, error) {
	u := c.rawBase + escapePath(id.Owner) + "/" + escapePath(id.Name) + "/" +
		escapePath(branch) + "/" + escapePath(path)
	return c.Get(ctx, u, Options{Timeout: rawTimeout, Limit: limit})
}
