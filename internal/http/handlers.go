package http

import (
	"context"
	"net/http"
	"time"

	"spendcast/internal/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks the backing store with a short deadline.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status, code := "ready", http.StatusOK
	checks := map[string]any{
		"rate_limiter": map[string]any{
			"active_clients": s.rateLimiter.ActiveClients(),
			"rejected":       s.rateLimiter.Rejected(),
		},
	}

	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			checks["storage"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["storage"] = "ok"
		}
	}

	NewJSONResponse().Status(code).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	t, err := req.Transaction()
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}

	created, err := s.transactions.Create(r.Context(), t)
	if err != nil {
		s.writeError(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(newTransactionResponse(created)).Write(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	items, err := s.transactions.List(r.Context())
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	out := make([]TransactionResponse, 0, len(items))
	for _, t := range items {
		out = append(out, newTransactionResponse(t))
	}
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	if err := s.transactions.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handlePredictNextMonth(w http.ResponseWriter, r *http.Request) {
	var req PredictionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpPredict, err)
		return
	}
	category, err := parseCategoryField(req.Category)
	if err != nil {
		s.writeError(w, r, log.OpPredict, err)
		return
	}

	prediction, err := s.predictions.PredictNextMonth(r.Context(), category)
	if err != nil {
		s.writeError(w, r, log.OpPredict, err)
		return
	}
	s.structured.LogPredictionCreated(r.Context(), prediction)
	NewJSONResponse().Body(newPredictionResponse(prediction)).Write(w)
}

func (s *Server) handleListPredictions(w http.ResponseWriter, r *http.Request) {
	params, err := parseListPredictionsParams(r.URL.Query())
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	preds, err := s.predictions.ListPredictions(r.Context(), params.Category, params.Limit)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	out := make([]PredictionResponse, 0, len(preds))
	for _, p := range preds {
		out = append(out, newPredictionResponse(p))
	}
	NewJSONResponse().Body(out).Write(w)
}
