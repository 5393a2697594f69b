package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type rateView struct {
	Code core.Currency `json:"code"`
	Rate float64       `json:"rate"`
}

type currencyResponse struct {
	Currency  core.Currency `json:"currency"`
	Available []rateView    `json:"available"`
}

type currencyChangeResponse struct {
	Previous core.Currency     `json:"previous"`
	Currency core.Currency     `json:"currency"`
	Amounts  map[string]string `json:"amounts"`
}

type amountsResponse struct {
	Currency core.Currency     `json:"currency"`
	Amounts  map[string]string `json:"amounts"`
}

func (s *Server) handleGetCurrency(w http.ResponseWriter, r *http.Request) {
	conv := s.currency.Converter()
	available := make([]rateView, 0, len(core.Currencies()))
	for _, code := range core.Currencies() {
		if rate, err := conv.Rate(code); err == nil {
			available = append(available, rateView{Code: code, Rate: rate})
		}
	}
	writeJSON(w, http.StatusOK, currencyResponse{
		Currency:  s.currency.Current(),
		Available: available,
	})
}

func (s *Server) handleSetCurrency(w http.ResponseWriter, r *http.Request) {
	var req currencyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), "")
		return
	}
	code, err := core.ParseCurrency(req.Currency)
	if err != nil {
		respondError(w, r, core.Invalid("currency", err), log.ComponentCurrency, log.OpUpdate)
		return
	}
	change, err := s.currency.SetDisplayCurrency(r.Context(), code)
	if err != nil {
		respondError(w, r, err, log.ComponentCurrency, log.OpUpdate)
		return
	}
	writeJSON(w, http.StatusOK, currencyChangeResponse{
		Previous: change.Previous,
		Currency: change.Current,
		Amounts:  change.Rendered,
	})
}

// handleAmounts re-renders every tracked surface in the display currency.
func (s *Server) handleAmounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, amountsResponse{
		Currency: s.currency.Current(),
		Amounts:  s.currency.Rendered(),
	})
}
