package pipeline

import "github.com/kevinmichaelchen/repo-analyzer/internal/models"

type Kind int

const (
	Progress Kind = iota
	Result
	Failed
)

func (k Kind) String() string {
	switch k {
	case Progress:
		return "progress"
	case Result:
		return "result"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

// Stage names a step of the analysis.
type Stage string

const (
	StageMetadata       Stage = "fetching-metadata"
	StageLanguages      Stage = "fetching-languages"
	StageContributors   Stage = "fetching-contributors"
	StageCommitActivity Stage = "fetching-commit-activity"
	StageReadme         Stage = "fetching-readme"
	StageTree           Stage = "listing-tree"
	StagePrompt         Stage = "building-prompt"
	StageSummarize      Stage = "summarizing"
)

// Stages lists every stage in execution order.
var Stages = []Stage{
	StageMetadata,
	StageLanguages,
	StageContributors,
	StageCommitActivity,
	StageReadme,
	StageTree,
	StagePrompt,
	StageSummarize,
}

var stageMessages = map[Stage]string{
	StageMetadata:       "Fetching repository metadata",
	StageLanguages:      "Fetching languages",
	StageContributors:   "Fetching contributors",
	StageCommitActivity: "Fetching commit activity",
	StageReadme:         "Fetching README",
	StageTree:           "Listing repository file tree",
	StagePrompt:         "Preparing prompt for LLM summarization",
	StageSummarize:      "Summarizing with LLM",
}

// Message is the human-readable progress text of the stage.
func (s Stage) Message() string {
	if m, ok := stageMessages[s]; ok {
		return m
	}
	return string(s)
}

// Event is one element of an analysis sequence. Stage and Message are set on
// Progress events, Result on the Result event, and Stage and Err on the
// Failed event.
type Event struct {
	Kind    Kind
	Stage   Stage
	Message string
	Result  *models.AnalysisResult
	Err     error
}
