// Concession strategy — the power-law threshold schedule and the
// memory-narrowed price interval it concedes across.
package trader

import (
	"math"

	"github.com/talgya/haggle/internal/negotiation"
)

// Threshold maps negotiation progress to a concession fraction in [0, 1]:
// 1 at the first round (most self-favoring stance), 0 at the last (stance
// collapsed onto the counterpart's bound). The exponent shapes the curve;
// below 1 it back-loads concession toward the deadline.
//
// Callers must guarantee rounds > 1; Session.Validate enforces this before
// any decision is computed.
func Threshold(round, rounds int, exponent float64) float64 {
	return math.Pow(float64(rounds-round-1)/float64(rounds-1), exponent)
}

// targetPrice places the proposal inside (lo, hi) at the current concession
// fraction: a seller starts at hi and slides toward lo, a buyer the reverse.
func targetPrice(d negotiation.Direction, lo, hi, th float64) float64 {
	if d == negotiation.Selling {
		return lo + th*(hi-lo)
	}
	return hi - th*(hi-lo)
}

// goodPrice is the acceptance predicate: the incoming price must clear the
// same threshold applied from the other side. Computing the boundary through
// targetPrice keeps the accept boundary and the proposal target on one
// concession curve down to the last bit.
func goodPrice(d negotiation.Direction, lo, hi, th, price float64) bool {
	boundary := targetPrice(d, lo, hi, th)
	if d == negotiation.Selling {
		return price >= boundary
	}
	return price <= boundary
}

// priceRange narrows the session's legal price bounds using accumulated
// memory. Every remembered price enters as a candidate scaled by its own
// slack; candidates combine via max on the floor when selling, min on the
// ceiling when buying. RangeSlack caps how far the conceding bound may move,
// so the interval can neither collapse nor invert.
func (t *Trader) priceRange(s *negotiation.Session) (lo, hi float64) {
	lo, hi = s.MinPrice, s.MaxPrice
	d := s.Direction

	candidates := [4]struct{ price, slack float64 }{
		{t.period.BestSeen(d), t.cfg.StepPriceSlack},
		{t.cross.BestAccepted(d), t.cfg.AccPriceSlack},
		{t.period.BestOffer(d, s.Partner), t.cfg.OppPriceSlack},
		{t.cross.BestAcceptedBy(d, s.Partner), t.cfg.OppAccPriceSlack},
	}

	if d == negotiation.Selling {
		floor := lo
		for _, c := range candidates {
			// A worst-seed price of 0 under an infinite slack yields
			// 0 * -Inf; skip the NaN rather than poison the fold.
			v := c.price * (1 - c.slack)
			if math.IsNaN(v) {
				continue
			}
			floor = math.Max(floor, v)
		}
		lo = math.Min(hi*(1-t.cfg.RangeSlack), floor)
	} else {
		ceiling := hi
		for _, c := range candidates {
			v := c.price * (1 + c.slack)
			if math.IsNaN(v) {
				continue
			}
			ceiling = math.Min(ceiling, v)
		}
		hi = math.Max(lo*(1+t.cfg.RangeSlack), ceiling)
	}
	return lo, hi
}
