package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// amountSurfacePrefix namespaces the tracked display surfaces of transaction amounts.
const amountSurfacePrefix = "txn-"

// transactionView is a stored transaction plus its amount rendered in the
// display currency.
type transactionView struct {
	core.Transaction
	Display string `json:"display,omitempty"`
}

type transactionListResponse struct {
	Currency     core.Currency     `json:"currency"`
	Count        int               `json:"count"`
	Transactions []transactionView `json:"transactions"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txns := s.txns.List(r.Context())
	log.FromContext(r.Context()).DebugContext(r.Context(), "Transactions listed",
		log.FieldOperation, log.OpList,
		log.FieldCount, len(txns))
	writeJSON(w, http.StatusOK, s.listResponse(r, txns, true))
}

func (s *Server) handleSearchTransactions(w http.ResponseWriter, r *http.Request) {
	query := sanitizeInput(r.URL.Query().Get("q"))
	txns := s.txns.Search(r.Context(), query, queryBool(r, "regex"))
	log.FromContext(r.Context()).DebugContext(r.Context(), "Transactions searched",
		log.FieldOperation, log.OpSearch,
		log.FieldQuery, query,
		log.FieldCount, len(txns))
	writeJSON(w, http.StatusOK, s.listResponse(r, txns, false))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), "")
		return
	}
	txn, err := s.txns.Create(r.Context(), req.input(), s.now())
	if err != nil {
		respondError(w, r, err, log.ComponentTransaction, log.OpCreate)
		return
	}
	writeJSON(w, http.StatusCreated, s.view(r, txn))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	txn, err := s.txns.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, log.ComponentTransaction, log.OpRead)
		return
	}
	writeJSON(w, http.StatusOK, s.view(r, txn))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), "")
		return
	}
	txn, err := s.txns.Update(r.Context(), chi.URLParam(r, "id"), req.patch(), s.now())
	if err != nil {
		respondError(w, r, err, log.ComponentTransaction, log.OpUpdate)
		return
	}
	writeJSON(w, http.StatusOK, s.view(r, txn))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.txns.Delete(r.Context(), chi.URLParam(r, "id"), s.now()); err != nil {
		respondError(w, r, err, log.ComponentTransaction, log.OpDelete)
		return
	}
	// Ids were renumbered; re-track against the new ones.
	s.trackAmounts(r, s.txns.List(r.Context()), true)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listResponse(r *http.Request, txns []core.Transaction, prune bool) transactionListResponse {
	views := s.trackAmounts(r, txns, prune)
	return transactionListResponse{
		Currency:     s.currency.Current(),
		Count:        len(views),
		Transactions: views,
	}
}

// trackAmounts registers every amount as a display surface keyed by
// transaction id. With prune, surfaces of ids no longer listed are dropped.
func (s *Server) trackAmounts(r *http.Request, txns []core.Transaction, prune bool) []transactionView {
	views := make([]transactionView, 0, len(txns))
	live := make(map[string]bool, len(txns))
	for _, t := range txns {
		views = append(views, s.view(r, t))
		live[amountSurface(t.ID)] = true
	}
	if prune {
		for surface := range s.currency.Rendered() {
			if strings.HasPrefix(surface, amountSurfacePrefix) && !live[surface] {
				s.currency.Untrack(surface)
			}
		}
	}
	return views
}

func (s *Server) view(r *http.Request, t core.Transaction) transactionView {
	display, err := s.currency.Track(amountSurface(t.ID), t.Amount.Float(), t.Currency.OrBase())
	if err != nil {
		// Legacy records may carry a currency the rate table no longer knows.
		slog.DebugContext(r.Context(), "Amount not tracked",
			log.FieldComponent, log.ComponentHTTP,
			log.FieldTransactionID, t.ID,
			log.FieldCurrency, string(t.Currency),
			log.FieldError, err)
	}
	return transactionView{Transaction: t, Display: display}
}

func amountSurface(id string) string {
	return amountSurfacePrefix + id + "-amount"
}
