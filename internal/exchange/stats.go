// Run statistics — aggregate views over what the market produced. All
// accessors take the world lock, so they are safe to call while Run is
// still writing.
package exchange

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/talgya/haggle/internal/negotiation"
	"github.com/talgya/haggle/internal/trader"
)

// PartnerCount is a per-partner contract tally.
type PartnerCount struct {
	Partner   negotiation.PartnerID `json:"partner"`
	Contracts int                   `json:"contracts"`
}

// PartnerContracts returns contract counts per partner, ordered by partner
// ID.
func (w *World) PartnerContracts() []PartnerCount {
	w.mu.Lock()
	defer w.mu.Unlock()

	ids := maps.Keys(w.perPartner)
	slices.Sort(ids)

	out := make([]PartnerCount, 0, len(ids))
	for _, id := range ids {
		out = append(out, PartnerCount{Partner: id, Contracts: w.perPartner[id]})
	}
	return out
}

// PeriodReports returns a copy of the per-period reports accumulated so far.
func (w *World) PeriodReports() []trader.PeriodReport {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]trader.PeriodReport, len(w.reports))
	copy(out, w.reports)
	return out
}

// Shortfalls sums the unmet requirement across all closed periods. Negative
// remainders (over-secured periods) do not offset positive ones.
func (w *World) Shortfalls() (buy, sell int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, r := range w.reports {
		if r.OutstandingBuy > 0 {
			buy += r.OutstandingBuy
		}
		if r.OutstandingSell > 0 {
			sell += r.OutstandingSell
		}
	}
	return buy, sell
}

// CurrentStep returns the most recently processed period.
func (w *World) CurrentStep() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}
