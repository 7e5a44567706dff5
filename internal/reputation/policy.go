// Package reputation vets counterparties before the agent enters a
// negotiation, based on their recorded breach history and, optionally,
// their agent type.
package reputation

import (
	"log/slog"

	"github.com/talgya/haggle/internal/negotiation"
)

// DefaultLookback is how many prior periods of breach history a vet
// considers.
const DefaultLookback = 20

// Ledger supplies per-partner breach records. The persistence layer's
// breach table implements it; tests use an in-memory stub.
type Ledger interface {
	// BreachLevels returns the breach levels recorded for a partner at or
	// after sinceStep. An unknown partner yields an empty slice, not an
	// error.
	BreachLevels(partner negotiation.PartnerID, sinceStep int) ([]float64, error)
}

// Policy decides which partners are worth negotiating with.
type Policy struct {
	Ledger   Ledger
	Lookback int // periods of history to consider; 0 means DefaultLookback

	// TypeOf reports a partner's agent type when the host exposes world
	// introspection. Left nil, type filtering is disabled.
	TypeOf  func(negotiation.PartnerID) string
	OwnType string
}

// Admit reports whether the agent should negotiate with a partner at the
// given period. A partner with any breach in the lookback window is refused.
// A missing ledger admits everyone.
func (p *Policy) Admit(partner negotiation.PartnerID, step int) bool {
	if p == nil || p.Ledger == nil {
		return true
	}
	lookback := p.Lookback
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	since := step - lookback
	if since < 0 {
		since = 0
	}
	levels, err := p.Ledger.BreachLevels(partner, since)
	if err != nil {
		slog.Warn("breach history unavailable, admitting partner", "partner", partner, "error", err)
		return true
	}
	total := 0.0
	for _, lvl := range levels {
		total += lvl
	}
	return total <= 0
}

// Filter drops inadmissible partners and, when at least one partner shares
// the agent's own type, restricts the pool to those partners.
func (p *Policy) Filter(partners []negotiation.PartnerID, step int) []negotiation.PartnerID {
	if p == nil {
		return partners
	}
	kept := make([]negotiation.PartnerID, 0, len(partners))
	for _, id := range partners {
		if p.Admit(id, step) {
			kept = append(kept, id)
		}
	}
	if p.TypeOf == nil || p.OwnType == "" {
		return kept
	}

	sameType := kept[:0:0]
	for _, id := range kept {
		if p.TypeOf(id) == p.OwnType {
			sameType = append(sameType, id)
		}
	}
	if len(sameType) == 0 {
		return kept
	}
	return sameType
}
