package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"finpulse/internal/budget"
	"finpulse/internal/core"
	"finpulse/internal/limits"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

type createTransactionRequest struct {
	Type     string `json:"type"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
}

// handleCreateTransaction is the producer surface: the caller gets a
// response only after the snapshot update is durably applied.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req createTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid amount")
		return
	}

	var snap core.Snapshot
	switch core.TxType(req.Type) {
	case core.Income:
		snap, err = s.engine.RecordIncome(r.Context(), amount)
	case core.Expense:
		snap, err = s.engine.RecordExpense(r.Context(), amount, req.Category)
	default:
		writeError(w, r, http.StatusBadRequest, "type must be income or expense")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction record failed",
			"type", req.Type, "error", err)
		writeError(w, r, http.StatusInternalServerError, "transaction not recorded")
		return
	}

	writeJSON(w, r, http.StatusCreated, map[string]any{
		"status":   "recorded",
		"type":     req.Type,
		"amount":   amount,
		"category": req.Category,
		"snapshot": snap,
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, r, http.StatusOK, s.engine.Snapshot(r.Context()))
}

type setLimitRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) handleLimit(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit, configured, err := s.store.DailyLimit(r.Context())
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "limit unreadable")
			return
		}
		if !configured {
			writeJSON(w, r, http.StatusOK, map[string]any{"configured": false})
			return
		}
		writeJSON(w, r, http.StatusOK, map[string]any{"configured": true, "limit": limit})

	case http.MethodPut:
		var req setLimitRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid request body")
			return
		}
		amount, err := core.ParseAmount(req.Amount)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid amount")
			return
		}
		if err := s.store.SetDailyLimit(r.Context(), amount); err != nil {
			writeError(w, r, http.StatusInternalServerError, "limit not saved")
			return
		}
		writeJSON(w, r, http.StatusOK, map[string]any{"configured": true, "limit": amount})

	case http.MethodDelete:
		if err := s.store.ClearDailyLimit(r.Context()); err != nil {
			writeError(w, r, http.StatusInternalServerError, "limit not cleared")
			return
		}
		writeJSON(w, r, http.StatusOK, map[string]any{"configured": false})

	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLimitStatus(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	ev := s.engine.EvaluateDailyLimit(r.Context())
	writeJSON(w, r, http.StatusOK, struct {
		limits.Evaluation
		Behavior string `json:"behavior"`
	}{Evaluation: ev, Behavior: limits.BehaviorTag(ev)})
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, r, http.StatusOK, s.engine.ProjectMonth(r.Context()))
}

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, r, http.StatusOK, s.engine.ProjectMonthRisk(r.Context()))
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"suggestions": s.engine.ReductionSuggestions(r.Context()),
	})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"alerts": s.engine.CheckBudgetAlerts(r.Context()),
	})
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		mapping, err := s.store.RecommendedBudget(r.Context())
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "budget unreadable")
			return
		}
		writeJSON(w, r, http.StatusOK, map[string]any{"budget": mapping})

	case http.MethodPut:
		var req map[string]string
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid request body")
			return
		}
		mapping := make(map[string]decimal.Decimal, len(req))
		for category, raw := range req {
			ceiling, err := core.ParseAmount(raw)
			if err != nil {
				writeError(w, r, http.StatusBadRequest, "invalid ceiling for category "+category)
				return
			}
			mapping[category] = ceiling
		}
		if err := s.store.SetRecommendedBudget(r.Context(), mapping); err != nil {
			writeError(w, r, http.StatusInternalServerError, "budget not saved")
			return
		}
		writeJSON(w, r, http.StatusOK, map[string]any{"budget": mapping})

	default:
		w.Header().Set("Allow", "GET, PUT")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type budgetSuggestRequest struct {
	Income string `json:"income"`
	Save   bool   `json:"save"`
}

// handleBudgetSuggest computes the recommended allocation for an income
// and optionally persists it as the active budget.
func (s *Server) handleBudgetSuggest(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req budgetSuggestRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	income, err := core.ParseAmount(req.Income)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid income")
		return
	}

	allocation, err := budget.SuggestAllocation(income)
	if err != nil {
		if errors.Is(err, core.ErrInvalidAmount) {
			writeError(w, r, http.StatusBadRequest, "invalid income")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "allocation failed")
		return
	}

	if req.Save {
		if err := s.store.SetRecommendedBudget(r.Context(), allocation); err != nil {
			writeError(w, r, http.StatusInternalServerError, "budget not saved")
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"budget": allocation, "saved": req.Save})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 7*time.Second)
	defer cancel()

	report, err := s.engine.Analytics(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Analytics scan failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "analytics unavailable")
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if err := s.engine.Reset(r.Context()); err != nil {
		writeError(w, r, http.StatusInternalServerError, "reset failed")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "reset"})
}
