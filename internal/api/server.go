// Package api provides a read-only HTTP view of the running market:
// the agent's outstanding needs and price memory, plus ledger totals.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/talgya/haggle/internal/exchange"
	"github.com/talgya/haggle/internal/persistence"
	"github.com/talgya/haggle/internal/trader"
)

// Server serves market state over HTTP.
type Server struct {
	Trader *trader.Trader
	World  *exchange.World
	DB     *persistence.DB // optional
	Port   int
}

// Start begins serving in a goroutine.
func (s *Server) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/partners", s.handlePartners)

	addr := fmt.Sprintf(":%d", s.Port)
	go func() {
		slog.Info("api listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			slog.Error("api server stopped", "error", err)
		}
	}()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := struct {
		Step   int                 `json:"step"`
		Agent  trader.Snapshot     `json:"agent"`
		Ledger *persistence.Totals `json:"ledger,omitempty"`
	}{
		Step:  s.World.CurrentStep(),
		Agent: s.Trader.State(),
	}

	if s.DB != nil {
		totals, err := s.DB.LedgerTotals()
		if err != nil {
			slog.Error("ledger totals failed", "error", err)
		} else {
			resp.Ledger = &totals
		}
	}

	writeJSON(w, resp)
}

func (s *Server) handlePartners(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.World.PartnerContracts())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("encode response failed", "error", err)
	}
}
