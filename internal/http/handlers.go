package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"moneymanager/internal/amqp"
	"moneymanager/internal/core"
	"moneymanager/internal/log"
)

// ClientIDHeader identifies the caller's filter session.
const ClientIDHeader = "X-Client-ID"

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	for _, check := range s.opts.ReadinessChecks {
		if err := check(r.Context()); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	mp := ParseMonthParams(r.URL.Query(), s.now())
	d := s.opts.Reports.Dashboard(r.Context(), mp.Year, mp.Month)
	writeJSON(w, http.StatusOK, s.pres.dashboard(d))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	kind, err := core.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	top, err := ParseCountParam(q, "top", s.opts.TopN)
	if err != nil {
		writeError(w, r, err)
		return
	}
	mp := ParseMonthParams(q, s.now())
	rep := s.opts.Reports.Summary(r.Context(), kind, mp.Year, mp.Month, top)
	writeJSON(w, http.StatusOK, s.pres.summary(rep))
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	kind, err := core.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	label, err := ParseLabel(r.URL.Query().Get("label"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep := s.opts.Reports.Series(r.Context(), kind, label)
	writeJSON(w, http.StatusOK, SeriesJSON{Kind: kind, Buckets: s.pres.buckets(rep.Buckets), Status: status(rep.Status)})
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request) {
	kind, err := core.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := ParseCountParam(r.URL.Query(), "n", s.opts.TopN)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep := s.opts.Reports.Top(r.Context(), kind, n)
	writeJSON(w, http.StatusOK, TopJSON{Kind: kind, Records: s.pres.records(rep.Records), Status: status(rep.Status)})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	kind, err := core.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	req, err := DecodeSearchRequest(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	criteria, err := req.Criteria(kind)
	if err != nil {
		writeError(w, r, err)
		return
	}

	clientID := clientIDFrom(r)
	w.Header().Set(ClientIDHeader, clientID)
	out, err := s.opts.Search.Search(r.Context(), clientID, criteria, req.Supersede)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.pres.outcome(out))
}

// handleSearchState returns the caller's last search outcome.
func (s *Server) handleSearchState(w http.ResponseWriter, r *http.Request) {
	clientID := strings.TrimSpace(r.Header.Get(ClientIDHeader))
	if clientID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorJSON{Error: ClientIDHeader + " header required"})
		return
	}
	out, ok := s.opts.Search.State(clientID)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorJSON{Error: "no search session"})
		return
	}
	writeJSON(w, http.StatusOK, s.pres.outcome(out))
}

func (s *Server) handleSearchReset(w http.ResponseWriter, r *http.Request) {
	clientID := strings.TrimSpace(r.Header.Get(ClientIDHeader))
	if clientID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorJSON{Error: ClientIDHeader + " header required"})
		return
	}
	out, ok := s.opts.Search.Reset(clientID)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorJSON{Error: "no search session"})
		return
	}
	writeJSON(w, http.StatusOK, s.pres.outcome(out))
}

// handleRefresh queues a refresh of one kind, or both when kind is absent.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.opts.Publisher == nil {
		writeError(w, r, ErrRefreshUnavailable)
		return
	}
	var kind core.Kind
	if v := r.URL.Query().Get("kind"); v != "" {
		k, err := core.ParseKind(v)
		if err != nil {
			writeError(w, r, err)
			return
		}
		kind = k
	}
	msg := amqp.NewRefreshMessage(kind, amqp.ReasonManual)
	if err := s.opts.Publisher.PublishRefresh(r.Context(), msg); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Refresh publish failed",
			log.FieldOperation, log.OpPublish, log.FieldError, err)
		writeJSON(w, http.StatusServiceUnavailable, ErrorJSON{Error: "refresh could not be queued"})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "queued", "kinds": msg.Kinds()})
}

func clientIDFrom(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(ClientIDHeader)); id != "" {
		return id
	}
	return uuid.NewString()
}
