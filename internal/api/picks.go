package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ddtips/dashboard/internal/model"
	"github.com/ddtips/dashboard/internal/picks"
)

// predictionScanLimit bounds how many recent predictions a picks request
// reads.
const predictionScanLimit = 4000

// Predictions handles GET /api/v1/predictions and /api/v1/ddbot1
func (s *Service) Predictions(w http.ResponseWriter, r *http.Request) {
	params := picks.ParseParams(r.URL.Query())

	preds, err := s.store.ListPredictions(r.Context(), predictionScanLimit)
	if err != nil {
		slog.Error("list predictions failed", "error", err)
		writeError(w, "failed to load predictions", http.StatusInternalServerError)
		return
	}

	writeJSON(w, picks.Derive(preds, params, s.today()), http.StatusOK)
}

// IngestPredictions handles POST /api/v1/admin/predictions
// The body is a JSON array of predictions, each with its match.
func (s *Service) IngestPredictions(w http.ResponseWriter, r *http.Request) {
	var preds []model.Prediction
	if err := json.NewDecoder(r.Body).Decode(&preds); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	for _, p := range preds {
		if p.ID <= 0 || p.MatchID == nil {
			writeError(w, "every prediction needs an id and a match_id", http.StatusBadRequest)
			return
		}
	}

	ctx := r.Context()
	for i := range preds {
		if err := s.store.UpsertPrediction(ctx, &preds[i]); err != nil {
			slog.Error("upsert prediction failed", "prediction_id", preds[i].ID, "error", err)
			writeError(w, "failed to store predictions", http.StatusInternalServerError)
			return
		}
	}

	slog.Info("predictions ingested", "count", len(preds))
	writeJSON(w, map[string]int{"upserted": len(preds)}, http.StatusOK)
}

// Quote handles GET /api/v1/quote
func (s *Service) Quote(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.quotes.Random(r.Context()), http.StatusOK)
}
