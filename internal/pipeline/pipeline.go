// Package pipeline sequences the remote fetches, file selection, scoring and
// summarization of one repository analysis and reports each stage as it is
// entered.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/kevinmichaelchen/repo-analyzer/internal/github"
	"github.com/kevinmichaelchen/repo-analyzer/internal/health"
	"github.com/kevinmichaelchen/repo-analyzer/internal/llm"
	"github.com/kevinmichaelchen/repo-analyzer/internal/log"
	"github.com/kevinmichaelchen/repo-analyzer/internal/models"
	"github.com/kevinmichaelchen/repo-analyzer/internal/prompt"
	"github.com/kevinmichaelchen/repo-analyzer/internal/selector"
)

const fallbackBranch = "main"

// Source is the remote data the analysis reads. *github.Client satisfies it.
type Source interface {
	Repository(ctx context.Context, id models.RepoID) (*models.RepoInfo, error)
	Languages(ctx context.Context, id models.RepoID) (map[string]int, error)
	Contributors(ctx context.Context, id models.RepoID) ([]models.Contributor, error)
	CommitActivity(ctx context.Context, id models.RepoID) ([]models.CommitWeek, error)
	Readme(ctx context.Context, id models.RepoID) (string, error)
	BranchHead(ctx context.Context, id models.RepoID, branch string) (string, error)
	CommitTree(ctx context.Context, id models.RepoID, commitSHA string) (string, error)
	ListTree(ctx context.Context, id models.RepoID, treeSHA string) ([]models.TreeEntry, error)
	RawFile(ctx context.Context, id models.RepoID, branch, path string, limit int64) ([]byte, error)
}

type Options struct {
	// Summarize enables the building-prompt and summarizing stages. When it
	// is false neither stage is entered, so two fewer Progress events are
	// emitted, and LLMSummary is llm.Disabled.
	Summarize bool
}

type Analyzer struct {
	src Source
	sum llm.Summarizer
}

func New(src Source, sum llm.Summarizer) *Analyzer {
	return &Analyzer{src: src, sum: sum}
}

// Analyze returns the lazy event sequence of one analysis: a Progress event
// per stage entered, then exactly one Result or Failed event. Nothing is
// fetched until the sequence is ranged over, and nothing more is fetched once
// the consumer stops.
func (a *Analyzer) Analyze(ctx context.Context, id models.RepoID, opts Options) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		r := &run{
			Analyzer: a,
			ctx:      ctx,
			id:       id,
			opts:     opts,
			yield:    yield,
			logger:   log.With("repo", id.FullName()),
		}
		r.execute()
	}
}

// run carries the state of a single Analyze invocation.
type run struct {
	*Analyzer
	ctx    context.Context
	id     models.RepoID
	opts   Options
	yield  func(Event) bool
	logger *slog.Logger
}

func (r *run) enter(stage Stage) bool {
	r.logger.Debug("entering stage", "stage", stage)
	return r.yield(Event{Kind: Progress, Stage: stage, Message: stage.Message()})
}

func (r *run) fail(stage Stage, err error) {
	r.logger.Error("analysis failed", "stage", stage, "err", err)
	r.yield(Event{Kind: Failed, Stage: stage, Err: err})
}

func (r *run) degraded(stage Stage, err error) {
	args := []any{"stage", stage, "err", err}
	var reqErr *github.RequestError
	if errors.As(err, &reqErr) && reqErr.HasStatus() {
		args = append(args, "status", reqErr.StatusCode)
	}
	r.logger.Warn("stage degraded", args...)
}

func (r *run) execute() {
	if !r.enter(StageMetadata) {
		return
	}
	info, err := r.src.Repository(r.ctx, r.id)
	if err != nil {
		r.fail(StageMetadata, err)
		return
	}

	if !r.enter(StageLanguages) {
		return
	}
	languages, err := r.src.Languages(r.ctx, r.id)
	if err != nil {
		r.fail(StageLanguages, err)
		return
	}
	if languages == nil {
		languages = map[string]int{}
	}

	if !r.enter(StageContributors) {
		return
	}
	contributors := r.contributors()

	if !r.enter(StageCommitActivity) {
		return
	}
	activity := r.commitActivity()

	if !r.enter(StageReadme) {
		return
	}
	readme := r.readme()

	if !r.enter(StageTree) {
		return
	}
	files := r.files(info.DefaultBranch)

	meta := models.RepoMeta{
		FullName:      info.FullName,
		Description:   info.Description,
		HTMLURL:       info.HTMLURL,
		Stars:         info.Stars,
		Forks:         info.Forks,
		OpenIssues:    info.OpenIssues,
		License:       info.License,
		Topics:        info.Topics,
		DefaultBranch: info.DefaultBranch,
		HealthScore:   health.Score(info.Stars, info.Forks, activity, contributors),
	}
	if meta.Topics == nil {
		meta.Topics = []string{}
	}

	summary := llm.Disabled
	if r.opts.Summarize {
		if !r.enter(StagePrompt) {
			return
		}
		text, err := prompt.Build(meta, readme, files)
		if err != nil {
			r.degraded(StagePrompt, err)
			summary = llm.Placeholder(fmt.Errorf("building prompt: %w", err))
		} else {
			if !r.enter(StageSummarize) {
				return
			}
			summary = r.summarize(text)
		}
	}

	result := &models.AnalysisResult{
		Meta:           meta,
		Languages:      languages,
		Contributors:   contributors,
		CommitActivity: activity,
		Files:          trimFiles(files),
		LLMSummary:     summary,
	}
	r.logger.Info("analysis complete", "files", len(result.Files), "health_score", meta.HealthScore)
	r.yield(Event{Kind: Result, Result: result})
}

func (r *run) contributors() []models.Contributor {
	list, err := r.src.Contributors(r.ctx, r.id)
	if err != nil {
		r.degraded(StageContributors, err)
		return []models.Contributor{}
	}
	if list == nil {
		return []models.Contributor{}
	}
	return list
}

func (r *run) commitActivity() []models.CommitWeek {
	weeks, err := r.src.CommitActivity(r.ctx, r.id)
	if err != nil {
		r.degraded(StageCommitActivity, err)
		return []models.CommitWeek{}
	}
	if weeks == nil {
		return []models.CommitWeek{}
	}
	return weeks
}

func (r *run) readme() string {
	text, err := r.src.Readme(r.ctx, r.id)
	if err != nil {
		r.degraded(StageReadme, err)
		return ""
	}
	return selector.Trim(text, selector.ReadmeChars)
}

// files resolves the branch head down to its recursive tree listing, selects
// the candidate files and fetches their snippets. Any failure before the
// selection yields no files; a failure on one file drops only that file.
func (r *run) files(branch string) []models.FileSnippet {
	if branch == "" {
		branch = fallbackBranch
	}

	entries, err := r.tree(branch)
	if err != nil {
		r.degraded(StageTree, err)
		return []models.FileSnippet{}
	}

	selected := selector.Select(entries, selector.FetchLimit)
	files := make([]models.FileSnippet, 0, len(selected))
	for _, e := range selected {
		raw, err := r.src.RawFile(r.ctx, r.id, branch, e.Path, selector.SnippetBytes)
		if err != nil {
			r.logger.Warn("skipping file", "path", e.Path, "err", err)
			continue
		}
		snippet, ok := selector.Snippet(raw, selector.SnippetBytes)
		if !ok {
			r.logger.Warn("skipping file", "path", e.Path, "err", "content is not valid UTF-8")
			continue
		}
		files = append(files, models.FileSnippet{Path: e.Path, Snippet: snippet})
	}
	return files
}

func (r *run) tree(branch string) ([]models.TreeEntry, error) {
	commit, err := r.src.BranchHead(r.ctx, r.id, branch)
	if err != nil {
		return nil, fmt.Errorf("resolving branch %s: %w", branch, err)
	}
	tree, err := r.src.CommitTree(r.ctx, r.id, commit)
	if err != nil {
		return nil, fmt.Errorf("resolving tree of %s: %w", commit, err)
	}
	entries, err := r.src.ListTree(r.ctx, r.id, tree)
	if err != nil {
		return nil, fmt.Errorf("listing tree %s: %w", tree, err)
	}
	return entries, nil
}

func (r *run) summarize(text string) string {
	summary, err := r.sum.Summarize(r.ctx, text)
	if err != nil {
		r.degraded(StageSummarize, err)
		return llm.Placeholder(err)
	}
	return summary
}

// trimFiles copies the snippets into their smaller result form.
func trimFiles(files []models.FileSnippet) []models.FileSnippet {
	out := make([]models.FileSnippet, 0, len(files))
	for _, f := range files {
		out = append(out, models.FileSnippet{Path: f.Path, Snippet: selector.Trim(f.Snippet, selector.ResultSnippetChars)})
	}
	return out
}
