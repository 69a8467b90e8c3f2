package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/kevinmichaelchen/repo-analyzer/internal/github"
	"github.com/kevinmichaelchen/repo-analyzer/internal/log"
	"github.com/kevinmichaelchen/repo-analyzer/internal/pipeline"
)

const (
	cachedStage   = "cached"
	cachedMessage = "Serving cached analysis"
	doneMessage   = "Analysis complete"

	msgMissingRepoURL = "repoUrl query param required"
	msgInvalidRepoURL = "Invalid GitHub repo URL"
	msgRateLimited    = "Too many requests, please try again later"
)

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "GitHub Repo Analyzer API is running")
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// analyzeStream serves GET /api/analyze-stream?repoUrl=<url>&llm=<0|1>.
func (s *Server) analyzeStream(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	raw := q.Get("repoUrl")
	if raw == "" {
		JSON(w, http.StatusBadRequest, ErrorResponse{Error: msgMissingRepoURL})
		return
	}
	id, ok := github.ParseRepoURL(raw)
	if !ok {
		JSON(w, http.StatusBadRequest, ErrorResponse{Error: msgInvalidRepoURL})
		return
	}
	summarize := wantsSummary(q.Get("llm"))
	key := id.CacheKey(summarize)

	logger := log.With("request_id", middleware.GetReqID(r.Context()), "repo", id.FullName())

	st, err := openStream(w)
	if err != nil {
		logger.Warn("opening event stream", "err", err)
		return
	}

	if res, ok := s.cache.Get(key); ok {
		logger.Info("serving cached analysis", "key", key)
		if err := st.send(eventProgress, progressPayload{Stage: cachedStage, Message: cachedMessage}); err != nil {
			return
		}
		if err := st.send(eventResult, res); err != nil {
			return
		}
		_ = st.send(eventDone, donePayload{Message: doneMessage})
		return
	}

	for ev := range s.analyzer.Analyze(r.Context(), id, pipeline.Options{Summarize: summarize}) {
		var err error
		switch ev.Kind {
		case pipeline.Progress:
			err = st.send(eventProgress, progressPayload{Stage: string(ev.Stage), Message: ev.Message})
		case pipeline.Result:
			// A run cut short by a disconnect carries degraded defaults.
			if r.Context().Err() == nil {
				s.cache.Set(key, ev.Result, s.cfg.CacheTTL)
			}
			if err = st.send(eventResult, ev.Result); err == nil {
				err = st.send(eventDone, donePayload{Message: doneMessage})
			}
		case pipeline.Failed:
			err = st.send(eventError, errorPayload{Error: ev.Err.Error()})
		}
		if err != nil {
			logger.Debug("client went away", "err", err)
			return
		}
	}
}

// wantsSummary reads the llm query flag. Summarization is on unless the
// caller opts out explicitly.
func wantsSummary(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "0", "false", "no", "off":
		return false
	default:
		return true
	}
}
