package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const (
	eventProgress = "progress"
	eventResult   = "result"
	eventDone     = "done"
	eventError    = "error"
)

type progressPayload struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

type donePayload struct {
	Message string `json:"message"`
}

type errorPayload struct {
	Error string `json:"error"`
}

// stream writes named server-sent events, flushing after each one.
type stream struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func openStream(w http.ResponseWriter) (*stream, error) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	s := &stream{w: w, rc: http.NewResponseController(w)}
	if err := s.flush(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *stream) send(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return s.flush()
}

func (s *stream) flush() error {
	if err := s.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}
