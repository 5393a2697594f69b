package http

import (
	"net/http"

	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// budgetSurface tracks the budget total in its own currency.
const budgetSurface = "budget-total"

type budgetResponse struct {
	Budget  core.Budget `json:"budget"`
	Active  bool        `json:"active"`
	Display string      `json:"display,omitempty"`
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	b := s.budgets.Current(r.Context())
	if b == nil {
		respondError(w, r, budget.ErrNoBudget, log.ComponentBudget, log.OpRead)
		return
	}
	writeJSON(w, http.StatusOK, s.budgetView(*b))
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), "")
		return
	}
	b, err := s.budgets.Create(r.Context(), req.candidate(), s.now())
	if err != nil {
		respondError(w, r, err, log.ComponentBudget, log.OpCreate)
		return
	}
	writeJSON(w, http.StatusCreated, s.budgetView(b))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.budgets.Delete(r.Context(), s.now()); err != nil {
		respondError(w, r, err, log.ComponentBudget, log.OpDelete)
		return
	}
	s.currency.Untrack(budgetSurface)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) budgetView(b core.Budget) budgetResponse {
	display, _ := s.currency.Track(budgetSurface, b.Total.Float(), b.Currency.OrBase())
	return budgetResponse{
		Budget:  b,
		Active:  b.Active(s.now()),
		Display: display,
	}
}
