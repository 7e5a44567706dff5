// Decision layer — composes need tracking, price memory, and the concession
// strategy into the two operations the exchange invokes on the agent.
package trader

import (
	"log/slog"
	"sync"

	"github.com/talgya/haggle/internal/negotiation"
)

// Trader is the negotiating agent. All state is agent-private; a single
// mutex serializes the exchange's callbacks so interleaved sessions cannot
// lose memory updates.
type Trader struct {
	mu     sync.Mutex
	cfg    Config
	step   int // current simulated period, used as delivery time on offers
	needs  Needs
	period PeriodMemory
	cross  CrossMemory
}

// New creates a trader with the given strategy parameters.
func New(cfg Config) *Trader {
	return &Trader{
		cfg:    cfg,
		period: NewPeriodMemory(),
		cross:  NewCrossMemory(),
	}
}

// StartPeriod resets per-period state for a new simulated period: the
// exogenous requirement becomes the outstanding need and within-period price
// memory is discarded. Lifetime accepted-price memory survives.
func (t *Trader) StartPeriod(step, buyNeed, sellNeed int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.step = step
	t.needs.Reset(buyNeed, sellNeed)
	t.period = NewPeriodMemory()
}

// PeriodReport summarizes a closed period. Outstanding values are the raw
// remainders; negative means the agent over-secured.
type PeriodReport struct {
	Step            int `json:"step"`
	OutstandingBuy  int `json:"outstanding_buy"`
	OutstandingSell int `json:"outstanding_sell"`
}

// EndPeriod closes the current period and reports what was left unsecured.
func (t *Trader) EndPeriod() PeriodReport {
	t.mu.Lock()
	defer t.mu.Unlock()
	return PeriodReport{
		Step:            t.step,
		OutstandingBuy:  t.needs.Remaining(negotiation.Buying),
		OutstandingSell: t.needs.Remaining(negotiation.Selling),
	}
}

// Propose builds the agent's counter-offer for the session's current round,
// or returns nil when no quantity is wanted (the negotiation is withdrawn).
// A malformed session is rejected without touching any state.
func (t *Trader) Propose(s *negotiation.Session) (*negotiation.Offer, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	need := t.needs.Remaining(s.Direction)
	if need <= 0 {
		return nil, nil
	}

	lo, hi := t.priceRange(s)
	th := Threshold(s.Round, s.Rounds, t.cfg.ConcessionExponent)
	return &negotiation.Offer{
		Quantity: clampQuantity(need, s.MinQuantity, s.MaxQuantity),
		Step:     t.step,
		Price:    targetPrice(s.Direction, lo, hi, th),
	}, nil
}

// Respond evaluates an incoming offer: End when nothing is wanted, Reject
// when the quantity overshoots the need or the price misses the concession
// threshold, Accept otherwise. Whatever the verdict, the partner's price is
// recorded — it narrows the interval for every later negotiation this
// period.
func (t *Trader) Respond(s *negotiation.Session, offer negotiation.Offer) (negotiation.Response, error) {
	if err := s.Validate(); err != nil {
		return negotiation.Reject, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	resp := t.decide(s, offer)
	t.period.RecordOffer(s.Direction, s.Partner, offer.Price)
	return resp, nil
}

func (t *Trader) decide(s *negotiation.Session, offer negotiation.Offer) negotiation.Response {
	need := t.needs.Remaining(s.Direction)
	if need <= 0 {
		return negotiation.End
	}
	if offer.Quantity > need {
		return negotiation.Reject
	}
	lo, hi := t.priceRange(s)
	th := Threshold(s.Round, s.Rounds, t.cfg.ConcessionExponent)
	if goodPrice(s.Direction, lo, hi, th, offer.Price) {
		return negotiation.Accept
	}
	return negotiation.Reject
}

// OnSuccess records a concluded agreement: the need shrinks by the agreed
// quantity (no clamping — overshoot leaves a negative remainder) and both
// the within-period and lifetime accepted-price trackers tighten.
func (t *Trader) OnSuccess(c negotiation.Contract) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.needs.Secure(c.Direction, c.Quantity)
	t.period.RecordAgreement(c.Direction, c.Price)
	t.cross.RecordAgreement(c.Direction, c.Partner, c.Price)
	slog.Debug("agreement secured",
		"partner", c.Partner,
		"direction", c.Direction.String(),
		"quantity", c.Quantity,
		"price", c.Price,
	)
}

// OnFailure is invoked when a session ends without agreement. The strategy
// keeps no per-session state, so there is nothing to unwind.
func (t *Trader) OnFailure(s *negotiation.Session) {
	slog.Debug("negotiation failed",
		"partner", s.Partner,
		"direction", s.Direction.String(),
	)
}

// Snapshot is a read-only view of the agent's state for observation
// endpoints. Best-accepted prices are nil until a first agreement lands in
// that direction.
type Snapshot struct {
	Step             int      `json:"step"`
	OutstandingBuy   int      `json:"outstanding_buy"`
	OutstandingSell  int      `json:"outstanding_sell"`
	BestAcceptedSell *float64 `json:"best_accepted_sell,omitempty"`
	BestAcceptedBuy  *float64 `json:"best_accepted_buy,omitempty"`
}

// State returns a snapshot of the current period and lifetime memory.
func (t *Trader) State() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		Step:            t.step,
		OutstandingBuy:  t.needs.Remaining(negotiation.Buying),
		OutstandingSell: t.needs.Remaining(negotiation.Selling),
	}
	for _, d := range []negotiation.Direction{negotiation.Selling, negotiation.Buying} {
		best := t.cross.BestAccepted(d)
		if best == d.WorstPrice() {
			continue
		}
		v := best
		if d == negotiation.Selling {
			snap.BestAcceptedSell = &v
		} else {
			snap.BestAcceptedBuy = &v
		}
	}
	return snap
}

// clampQuantity fits the outstanding need into the session's legal quantity
// bounds.
func clampQuantity(need, minQty, maxQty int) int {
	q := need
	if q > maxQty {
		q = maxQty
	}
	if q < minQty {
		q = minQty
	}
	return q
}
