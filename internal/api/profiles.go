package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ddtips/dashboard/internal/model"
	"github.com/ddtips/dashboard/internal/report"
)

// RegisterRequest is the JSON body for POST /profiles.
type RegisterRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

// ApprovalRequest is the JSON body for PATCH /admin/profiles/{profileID}.
type ApprovalRequest struct {
	Approved bool `json:"approved"`
}

// Register handles POST /api/v1/profiles
// Stores a pending profile and tells the admin chat. Registering an email
// twice returns the existing profile.
func (s *Service) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validate.Struct(req); err != nil {
		writeError(w, "validation error: "+err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	profile, created, err := s.registerProfile(ctx, req.Email)
	if err != nil {
		slog.Error("create profile failed", "error", err)
		writeError(w, "failed to create profile", http.StatusInternalServerError)
		return
	}
	if !created {
		writeJSON(w, profile, http.StatusOK)
		return
	}

	slog.Info("profile registered", "profile_id", profile.ID, "email", profile.Email)

	msg := fmt.Sprintf("<b>🆕 Nov uporabnik čaka na potrditev</b>\nEmail: <b>%s</b>", report.EscapeHTML(profile.Email))
	if err := s.notifier.Send(ctx, msg); err != nil {
		slog.Warn("admin notification failed", "profile_id", profile.ID, "error", err)
	}

	writeJSON(w, profile, http.StatusCreated)
}

// ListProfiles handles GET /api/v1/admin/profiles
// Pending profiles come first.
func (s *Service) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.store.ListProfiles(r.Context())
	if err != nil {
		writeError(w, "failed to load profiles", http.StatusInternalServerError)
		return
	}
	if profiles == nil {
		profiles = []model.Profile{}
	}

	writeJSON(w, profiles, http.StatusOK)
}

// SetApproval handles PATCH /api/v1/admin/profiles/{profileID}
func (s *Service) SetApproval(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "profileID")

	var req ApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.store.SetApproval(r.Context(), id, req.Approved); err != nil {
		writeStoreError(w, "profile", err)
		return
	}

	slog.Info("profile approval changed", "profile_id", id, "approved", req.Approved)
	writeJSON(w, map[string]interface{}{"id": id, "approved": req.Approved}, http.StatusOK)
}

// DeleteProfile handles DELETE /api/v1/admin/profiles/{profileID}
func (s *Service) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "profileID")

	if err := s.store.DeleteProfile(r.Context(), id); err != nil {
		writeStoreError(w, "profile", err)
		return
	}

	slog.Info("profile deleted", "profile_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// registerProfile returns the profile for email, creating a pending one when
// none exists. The lookup and insert run under s.mu so concurrent
// registrations of one email create a single profile.
func (s *Service) registerProfile(ctx context.Context, email string) (model.Profile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.ListProfiles(ctx)
	if err != nil {
		return model.Profile{}, false, fmt.Errorf("load profiles: %w", err)
	}
	for _, p := range existing {
		if p.Email == email {
			return p, false, nil
		}
	}

	profile := model.Profile{
		ID:        uuid.New().String(),
		Email:     email,
		Approved:  false,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.UpsertProfile(ctx, &profile); err != nil {
		return model.Profile{}, false, fmt.Errorf("store profile: %w", err)
	}
	return profile, true, nil
}
