package http

import (
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// handleStats serves the statistics in the display currency, or in the
// currency named by ?currency= without changing the selection.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	display := s.currency.Current()
	if raw := strings.TrimSpace(r.URL.Query().Get("currency")); raw != "" {
		cur, err := core.ParseCurrency(raw)
		if err != nil {
			respondError(w, r, core.Invalid("currency", err), log.ComponentStats, log.OpRead)
			return
		}
		display = cur
	}
	st, err := s.stats.SnapshotIn(r.Context(), display, s.now())
	if err != nil {
		respondError(w, r, err, log.ComponentStats, log.OpRead)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.stats.Report(r.Context(), s.now())
	if err != nil {
		respondError(w, r, err, log.ComponentStats, log.OpRead)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
