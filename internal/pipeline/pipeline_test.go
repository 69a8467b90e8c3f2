package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/kevinmichaelchen/repo-analyzer/internal/github"
	"github.com/kevinmichaelchen/repo-analyzer/internal/llm"
	"github.com/kevinmichaelchen/repo-analyzer/internal/log"
	"github.com/kevinmichaelchen/repo-analyzer/internal/models"
	"github.com/kevinmichaelchen/repo-analyzer/internal/pipeline"
	"github.com/kevinmichaelchen/repo-analyzer/internal/pipeline/pipelinetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var octocat = models.RepoID{Owner: "octo", Name: "cat"}

func collect(seq func(func(pipeline.Event) bool)) []pipeline.Event {
	var events []pipeline.Event
	for ev := range seq {
		events = append(events, ev)
	}
	return events
}

func progressStages(events []pipeline.Event) []pipeline.Stage {
	var stages []pipeline.Stage
	for _, ev := range events {
		if ev.Kind == pipeline.Progress {
			stages = append(stages, ev.Stage)
		}
	}
	return stages
}

func TestAnalyzeHappyPath(t *testing.T) {
	src := pipelinetest.NewSource()
	sum := &pipelinetest.Summarizer{Text: "A cat library."}

	events := collect(pipeline.New(src, sum).Analyze(context.Background(), octocat, pipeline.Options{Summarize: true}))

	assert.Equal(t, pipeline.Stages, progressStages(events))
	for _, ev := range events[:len(events)-1] {
		assert.Equal(t, ev.Stage.Message(), ev.Message)
	}

	last := events[len(events)-1]
	require.Equal(t, pipeline.Result, last.Kind)
	res := last.Result
	require.NotNil(t, res)

	assert.Equal(t, "octo/cat", res.Meta.FullName)
	assert.Equal(t, "MIT", *res.Meta.License)
	assert.Equal(t, 9, res.Meta.HealthScore)
	assert.Equal(t, map[string]int{"Go": 12000, "Shell": 300}, res.Languages)
	assert.Len(t, res.Contributors, 1)
	assert.Len(t, res.CommitActivity, 1)
	assert.Equal(t, "A cat library.", res.LLMSummary)

	var paths []string
	for _, f := range res.Files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"src/a.js", "lib/y.js", "index.ts"}, paths)
	assert.Equal(t, []string{"main", "main", "main"}, src.Branches())

	prompts := sum.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "README (truncated):\n# Cat")
	assert.Contains(t, prompts[0], "--- File: src/a.js ---\nexport const a = 1")
}

func TestAnalyzeLanguagesFailureIsFatal(t *testing.T) {
	src := pipelinetest.NewSource().Fail("Languages", http.StatusInternalServerError)

	events := collect(pipeline.New(src, &pipelinetest.Summarizer{}).Analyze(context.Background(), octocat, pipeline.Options{Summarize: true}))

	require.Len(t, events, 3)
	assert.Equal(t, []pipeline.Stage{pipeline.StageMetadata, pipeline.StageLanguages}, progressStages(events))

	last := events[2]
	assert.Equal(t, pipeline.Failed, last.Kind)
	assert.Equal(t, pipeline.StageLanguages, last.Stage)
	assert.Nil(t, last.Result)

	var reqErr *github.RequestError
	require.True(t, errors.As(last.Err, &reqErr))
	assert.Equal(t, http.StatusInternalServerError, reqErr.StatusCode)
	assert.Zero(t, src.Calls("Contributors"))
}

func TestAnalyzeMetadataFailureIsFatal(t *testing.T) {
	src := pipelinetest.NewSource().Fail("Repository", http.StatusNotFound)

	events := collect(pipeline.New(src, &pipelinetest.Summarizer{}).Analyze(context.Background(), octocat, pipeline.Options{}))

	require.Len(t, events, 2)
	assert.Equal(t, pipeline.Failed, events[1].Kind)
	assert.Equal(t, pipeline.StageMetadata, events[1].Stage)
	assert.Zero(t, src.Calls("Languages"))
}

func TestAnalyzeDegradedStages(t *testing.T) {
	src := pipelinetest.NewSource().
		Fail("Contributors", http.StatusForbidden).
		Fail("CommitActivity", http.StatusAccepted).
		Fail("Readme", http.StatusNotFound).
		Fail("ListTree", http.StatusBadGateway)
	sum := &pipelinetest.Summarizer{Err: &llm.SummarizationError{Cause: pipelinetest.ErrQuota}}

	events := collect(pipeline.New(src, sum).Analyze(context.Background(), octocat, pipeline.Options{Summarize: true}))

	assert.Equal(t, pipeline.Stages, progressStages(events))
	last := events[len(events)-1]
	require.Equal(t, pipeline.Result, last.Kind)

	res := last.Result
	assert.Equal(t, "octo/cat", res.Meta.FullName)
	assert.NotEmpty(t, res.Languages)
	assert.NotNil(t, res.Contributors)
	assert.Empty(t, res.Contributors)
	assert.NotNil(t, res.CommitActivity)
	assert.Empty(t, res.CommitActivity)
	assert.NotNil(t, res.Files)
	assert.Empty(t, res.Files)
	assert.Equal(t, "LLM summarization failed: summarization: quota exceeded", res.LLMSummary)
	assert.Zero(t, src.Calls("RawFile"))

	// stars 1200 and forks 30 only
	assert.Equal(t, 8, res.Meta.HealthScore)
}

func TestAnalyzeLogsStatusOfDegradedStages(t *testing.T) {
	var buf bytes.Buffer
	log.Initialize(slog.LevelWarn, &buf)
	t.Cleanup(func() { log.Initialize(slog.LevelInfo, os.Stderr) })

	src := pipelinetest.NewSource().
		Fail("Contributors", http.StatusForbidden).
		Fail("CommitTree", http.StatusNotFound)
	src.Errors["Readme"] = errors.New("connection reset")

	collect(pipeline.New(src, &pipelinetest.Summarizer{Text: "ok"}).Analyze(context.Background(), octocat, pipeline.Options{}))

	var contributors, tree, readme string
	for _, line := range strings.Split(buf.String(), "\n") {
		switch {
		case strings.Contains(line, "stage="+string(pipeline.StageContributors)):
			contributors = line
		case strings.Contains(line, "stage="+string(pipeline.StageTree)):
			tree = line
		case strings.Contains(line, "stage="+string(pipeline.StageReadme)):
			readme = line
		}
	}
	assert.Contains(t, contributors, "status=403")
	assert.Contains(t, tree, "status=404")
	require.NotEmpty(t, readme)
	assert.NotContains(t, readme, "status=")
}

func TestAnalyzeTreeSubsequenceStopsAtFirstFailure(t *testing.T) {
	src := pipelinetest.NewSource().Fail("BranchHead", http.StatusNotFound)

	events := collect(pipeline.New(src, &pipelinetest.Summarizer{Text: "ok"}).Analyze(context.Background(), octocat, pipeline.Options{Summarize: true}))

	res := events[len(events)-1].Result
	require.NotNil(t, res)
	assert.Empty(t, res.Files)
	assert.Zero(t, src.Calls("CommitTree"))
	assert.Zero(t, src.Calls("ListTree"))
}

func TestAnalyzeDropsUnreadableFiles(t *testing.T) {
	src := pipelinetest.NewSource()
	delete(src.Files, "lib/y.js")
	src.Files["index.ts"] = []byte{0xff, 0xfe, 0x00}

	events := collect(pipeline.New(src, &pipelinetest.Summarizer{Text: "ok"}).Analyze(context.Background(), octocat, pipeline.Options{Summarize: true}))

	res := events[len(events)-1].Result
	require.NotNil(t, res)
	require.Len(t, res.Files, 1)
	assert.Equal(t, "src/a.js", res.Files[0].Path)
}

func TestAnalyzeTrimsResultSnippetsButPromptsWithMore(t *testing.T) {
	src := pipelinetest.NewSource()
	src.Files["src/a.js"] = []byte(strings.Repeat("x", 9000))
	src.ReadmeText = strings.Repeat("r", 60000)
	sum := &pipelinetest.Summarizer{Text: "ok"}

	events := collect(pipeline.New(src, sum).Analyze(context.Background(), octocat, pipeline.Options{Summarize: true}))

	res := events[len(events)-1].Result
	require.NotNil(t, res)
	assert.Len(t, res.Files[0].Snippet, 2000)

	prompt := sum.Prompts()[0]
	assert.Contains(t, prompt, strings.Repeat("x", 5000)+"\n")
	assert.NotContains(t, prompt, strings.Repeat("x", 5001))
	assert.Contains(t, prompt, strings.Repeat("r", 50000)+"\n")
	assert.NotContains(t, prompt, strings.Repeat("r", 50001))
}

func TestAnalyzeWithoutSummarization(t *testing.T) {
	src := pipelinetest.NewSource()
	sum := &pipelinetest.Summarizer{Text: "unused"}

	events := collect(pipeline.New(src, sum).Analyze(context.Background(), octocat, pipeline.Options{Summarize: false}))

	assert.Equal(t, pipeline.Stages[:6], progressStages(events))
	res := events[len(events)-1].Result
	require.NotNil(t, res)
	assert.Equal(t, llm.Disabled, res.LLMSummary)
	assert.Empty(t, sum.Prompts())
}

func TestAnalyzeUnconfiguredSummarizer(t *testing.T) {
	sum, err := llm.New(context.Background(), llm.Config{Provider: llm.ProviderGemini})
	require.NoError(t, err)

	events := collect(pipeline.New(pipelinetest.NewSource(), sum).Analyze(context.Background(), octocat, pipeline.Options{Summarize: true}))

	res := events[len(events)-1].Result
	require.NotNil(t, res)
	assert.True(t, strings.HasPrefix(res.LLMSummary, "LLM summarization failed: "))
}

func TestAnalyzeFallsBackToMainBranch(t *testing.T) {
	src := pipelinetest.NewSource()
	src.Info.DefaultBranch = ""

	collect(pipeline.New(src, &pipelinetest.Summarizer{Text: "ok"}).Analyze(context.Background(), octocat, pipeline.Options{}))

	assert.Equal(t, []string{"main", "main", "main"}, src.Branches())
}

func TestAnalyzeIsLazyAndStoppable(t *testing.T) {
	src := pipelinetest.NewSource()
	seq := pipeline.New(src, &pipelinetest.Summarizer{Text: "ok"}).Analyze(context.Background(), octocat, pipeline.Options{Summarize: true})
	assert.Zero(t, src.TotalCalls())

	for ev := range seq {
		if ev.Stage == pipeline.StageContributors {
			break
		}
	}
	assert.Equal(t, 1, src.Calls("Repository"))
	assert.Equal(t, 1, src.Calls("Languages"))
	assert.Zero(t, src.Calls("Contributors"))
	assert.Equal(t, 2, src.TotalCalls())
}
