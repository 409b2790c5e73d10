package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/eventstore"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/interpreter"
	"github.com/pseudonym0us/sign-me-up-hand-sign-translator-dev/internal/protocol"
)

type transcripts interface {
	Transcript(sessionID string) (protocol.Transcript, error)
	Sessions() []string
	Apply(ctx context.Context, sessionID, action string) (protocol.Transcript, error)
}

type timeline interface {
	ListSessionEvents(ctx context.Context, sessionID string, limit int) ([]eventstore.Event, error)
}

type api struct {
	transcripts transcripts
	timeline    timeline
	ready       func() bool
	metrics     http.Handler
	log         *slog.Logger
}

func (a *api) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", a.handleHealth)
	mux.HandleFunc("GET /readyz", a.handleReady)
	if a.metrics != nil {
		mux.Handle("GET /metrics", a.metrics)
	}
	mux.HandleFunc("GET /v1/sessions", a.handleSessions)
	mux.HandleFunc("GET /v1/sessions/{id}/transcript", a.handleTranscript)
	mux.HandleFunc("GET /v1/sessions/{id}/events", a.handleEvents)
	mux.HandleFunc("POST /v1/sessions/{id}/commands", a.handleCommand)
	return mux
}

func (a *api) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (a *api) handleReady(w http.ResponseWriter, _ *http.Request) {
	if a.ready != nil && a.ready() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}

func (a *api) handleSessions(w http.ResponseWriter, _ *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string][]string{"sessions": a.transcripts.Sessions()})
}

func (a *api) handleTranscript(w http.ResponseWriter, r *http.Request) {
	tr, err := a.transcripts.Transcript(r.PathValue("id"))
	if errors.Is(err, interpreter.ErrUnknownSession) {
		a.writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	a.writeJSON(w, http.StatusOK, tr)
}

func (a *api) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			a.writeError(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	events, err := a.timeline.ListSessionEvents(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		a.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if events == nil {
		events = []eventstore.Event{}
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (a *api) handleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd protocol.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	tr, err := a.transcripts.Apply(r.Context(), r.PathValue("id"), cmd.Action)
	if errors.Is(err, interpreter.ErrUnknownSession) {
		a.writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		a.writeError(w, http.StatusBadRequest, err)
		return
	}
	a.writeJSON(w, http.StatusOK, tr)
}

func (a *api) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log.Warn("failed to write response", slog.String("error", err.Error()))
	}
}

func (a *api) writeError(w http.ResponseWriter, status int, err error) {
	a.writeJSON(w, status, map[string]string{"error": err.Error()})
}
