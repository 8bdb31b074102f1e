package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ddtips/dashboard/internal/model"
	"github.com/ddtips/dashboard/internal/report"
)

// reportKind parses {kind} and the optional ?at=YYYY-MM-DD reference day.
// Reports cover the period before the reference day, which defaults to today.
func (s *Service) reportKind(w http.ResponseWriter, r *http.Request) (report.Kind, time.Time, bool) {
	kind, err := report.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return "", time.Time{}, false
	}
	if s.reports == nil {
		writeError(w, "reports are not configured", http.StatusServiceUnavailable)
		return "", time.Time{}, false
	}

	at := s.now()
	if raw := r.URL.Query().Get("at"); raw != "" {
		day, err := time.ParseInLocation(model.DateLayout, raw, s.loc)
		if err != nil {
			writeError(w, "at must be YYYY-MM-DD", http.StatusBadRequest)
			return "", time.Time{}, false
		}
		at = day
	}
	return kind, at, true
}

// PreviewReport handles GET /api/v1/reports/{kind}
func (s *Service) PreviewReport(w http.ResponseWriter, r *http.Request) {
	kind, at, ok := s.reportKind(w, r)
	if !ok {
		return
	}

	rep, err := s.reports.Generate(r.Context(), kind, at)
	if err != nil {
		slog.Error("report preview failed", "kind", kind, "error", err)
		writeError(w, "failed to build report", http.StatusInternalServerError)
		return
	}

	writeJSON(w, rep, http.StatusOK)
}

// SendReportResponse is the body returned from POST /reports/{kind}/send.
type SendReportResponse struct {
	Sent   bool          `json:"sent"`
	Report report.Report `json:"report"`
}

// SendReport handles POST /api/v1/reports/{kind}/send (admin)
func (s *Service) SendReport(w http.ResponseWriter, r *http.Request) {
	kind, at, ok := s.reportKind(w, r)
	if !ok {
		return
	}

	rep, sent, err := s.reports.RunOnce(r.Context(), kind, at)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, SendReportResponse{Sent: sent, Report: rep}, http.StatusOK)
}

// NotifyRequest is the JSON body for POST /notify.
type NotifyRequest struct {
	Message string `json:"message" validate:"required,max=4096"`
}

// Notify handles POST /api/v1/notify (admin)
// The message is passed through as Telegram HTML.
func (s *Service) Notify(w http.ResponseWriter, r *http.Request) {
	var req NotifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validate.Struct(req); err != nil {
		writeError(w, "validation error: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.notifier.Send(r.Context(), req.Message); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, r.Context().Err()) {
			status = http.StatusRequestTimeout
		}
		writeError(w, "failed to send message", status)
		return
	}

	writeJSON(w, map[string]bool{"success": true}, http.StatusOK)
}
