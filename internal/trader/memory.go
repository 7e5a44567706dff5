// Opponent price memory — running best-price extrema, split into
// within-period offers and cross-period accepted agreements.
package trader

import "github.com/talgya/haggle/internal/negotiation"

// partnerPrices is a per-partner best-price map that lazily seeds each
// partner at the direction's worst value on first access. A partner never
// seen before is not an error, just an unconstraining entry.
type partnerPrices struct {
	dir    negotiation.Direction
	prices map[negotiation.PartnerID]float64
}

func newPartnerPrices(d negotiation.Direction) partnerPrices {
	return partnerPrices{dir: d, prices: make(map[negotiation.PartnerID]float64)}
}

// Get returns the tracked best price for a partner, seeding it first if
// needed.
func (p *partnerPrices) Get(id negotiation.PartnerID) float64 {
	if v, ok := p.prices[id]; ok {
		return v
	}
	seed := p.dir.WorstPrice()
	p.prices[id] = seed
	return seed
}

// Improve tightens the tracked price toward the more favorable of the stored
// and offered values.
func (p *partnerPrices) Improve(id negotiation.PartnerID, price float64) {
	p.prices[id] = p.dir.BetterPrice(p.Get(id), price)
}

// PeriodMemory holds price observations that only matter within the current
// period. It is rebuilt whole at every period boundary.
type PeriodMemory struct {
	bestSeen  [2]float64       // best price observed this period, per direction
	bestOffer [2]partnerPrices // best offer from each partner this period
}

// NewPeriodMemory returns period memory with every tracker at its worst seed.
func NewPeriodMemory() PeriodMemory {
	m := PeriodMemory{}
	for _, d := range []negotiation.Direction{negotiation.Selling, negotiation.Buying} {
		m.bestSeen[d] = d.WorstPrice()
		m.bestOffer[d] = newPartnerPrices(d)
	}
	return m
}

// BestSeen returns the best price observed this period in a direction.
func (m *PeriodMemory) BestSeen(d negotiation.Direction) float64 {
	return m.bestSeen[d]
}

// BestOffer returns the best price a specific partner has offered this
// period.
func (m *PeriodMemory) BestOffer(d negotiation.Direction, id negotiation.PartnerID) float64 {
	return m.bestOffer[d].Get(id)
}

// RecordOffer folds an incoming offer price into both the global and the
// per-partner tracker.
func (m *PeriodMemory) RecordOffer(d negotiation.Direction, id negotiation.PartnerID, price float64) {
	m.bestSeen[d] = d.BetterPrice(m.bestSeen[d], price)
	m.bestOffer[d].Improve(id, price)
}

// RecordAgreement folds an agreed price into the period's best-seen tracker.
func (m *PeriodMemory) RecordAgreement(d negotiation.Direction, price float64) {
	m.bestSeen[d] = d.BetterPrice(m.bestSeen[d], price)
}

// CrossMemory holds accepted-price extrema across the agent's whole
// lifetime. It only ever tightens: maxima for selling, minima for buying.
type CrossMemory struct {
	bestAccepted   [2]float64
	bestAcceptedBy [2]partnerPrices
}

// NewCrossMemory returns lifetime memory with every tracker at its worst
// seed.
func NewCrossMemory() CrossMemory {
	m := CrossMemory{}
	for _, d := range []negotiation.Direction{negotiation.Selling, negotiation.Buying} {
		m.bestAccepted[d] = d.WorstPrice()
		m.bestAcceptedBy[d] = newPartnerPrices(d)
	}
	return m
}

// BestAccepted returns the best price ever agreed in a direction.
func (m *CrossMemory) BestAccepted(d negotiation.Direction) float64 {
	return m.bestAccepted[d]
}

// BestAcceptedBy returns the best price ever agreed with a specific partner.
func (m *CrossMemory) BestAcceptedBy(d negotiation.Direction, id negotiation.PartnerID) float64 {
	return m.bestAcceptedBy[d].Get(id)
}

// RecordAgreement tightens both the global and the per-partner accepted-price
// tracker with a concluded contract's price.
func (m *CrossMemory) RecordAgreement(d negotiation.Direction, id negotiation.PartnerID, price float64) {
	m.bestAccepted[d] = d.BetterPrice(m.bestAccepted[d], price)
	m.bestAcceptedBy[d].Improve(id, price)
}
