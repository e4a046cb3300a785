package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/lumera/portal/internal/analytics"
	"github.com/lumera/portal/internal/infra/telemetry"
	"github.com/lumera/portal/internal/observability"
)

const metricVisitorSessions = "lumera_visitor_sessions_total"

func (s *httpServer) ingestVisitor(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sessions == nil {
		writeError(w, http.StatusServiceUnavailable, "session store unavailable")
		return
	}
	if !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "ingestion rate exceeded")
		return
	}
	limitRequestBody(w, r)
	var session analytics.VisitorSession
	if err := decodeBody(r, &session); err != nil {
		writeDecodeError(w, err)
		return
	}
	if strings.TrimSpace(session.UserAgent) == "" {
		session.UserAgent = r.UserAgent()
	}
	if session.Timestamp.IsZero() {
		session.Timestamp = time.Now().UTC()
	}
	if session.SessionDurationSeconds < 0 {
		writeError(w, http.StatusBadRequest, "sessionDurationSeconds must be >= 0")
		return
	}

	stored, err := s.deps.Sessions.Insert(r.Context(), session)
	if err != nil {
		writeStateError(w, err)
		return
	}
	device := analytics.ClassifyDevice(stored.UserAgent)
	observability.Telemetry().IncCounter(metricVisitorSessions, 1, telemetry.VisitorLabels(string(device)))

	s.feed.broadcast(stored)
	writeJSON(w, http.StatusCreated, stored)
}

func (s *httpServer) listVisitors(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sessions == nil {
		writeError(w, http.StatusServiceUnavailable, "session store unavailable")
		return
	}
	query, err := parseSessionQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sessions, err := s.deps.Sessions.List(r.Context(), query)
	if err != nil {
		writeStateError(w, err)
		return
	}
	if sessions == nil {
		sessions = []analytics.VisitorSession{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *httpServer) visitorSummary(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sessions == nil {
		writeError(w, http.StatusServiceUnavailable, "session store unavailable")
		return
	}
	query, err := parseSessionQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sessions, err := s.deps.Sessions.List(r.Context(), query)
	if err != nil {
		writeStateError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics.Summarize(sessions))
}
