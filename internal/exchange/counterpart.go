// Counterpart agents — the simulated partners on the far side of each
// negotiation. They concede linearly from their favorable bound toward a
// per-session reservation price.
package exchange

import (
	"math/rand"

	"github.com/talgya/haggle/internal/negotiation"
)

// Counterpart is one simulated partner: a supplier sells to the trader, a
// consumer buys from it.
type Counterpart struct {
	ID       negotiation.PartnerID
	Type     string
	Selling  bool    // true for suppliers (the trader buys from them)
	Reserve  float64 // reservation price for the current session
	Breacher bool    // breaches contracts at an elevated rate
}

// prepare draws a fresh reservation price inside the session's band. A
// supplier reserves somewhere in the lower half, a consumer in the upper.
func (c *Counterpart) prepare(minPrice, maxPrice float64, rng *rand.Rand) {
	mid := (minPrice + maxPrice) / 2
	if c.Selling {
		c.Reserve = minPrice + rng.Float64()*(mid-minPrice)
	} else {
		c.Reserve = mid + rng.Float64()*(maxPrice-mid)
	}
}

// limit returns the counterpart's current concession limit: the worst price
// it would sign at this round. It starts at the favorable bound and slides
// linearly onto the reservation price at the deadline.
func (c *Counterpart) limit(round, rounds int, minPrice, maxPrice float64) float64 {
	frac := float64(rounds-round-1) / float64(rounds-1)
	if c.Selling {
		return c.Reserve + frac*(maxPrice-c.Reserve)
	}
	return c.Reserve - frac*(c.Reserve-minPrice)
}

// Propose returns the counterpart's offer for the given round.
func (c *Counterpart) Propose(round, rounds, minQty, maxQty int, minPrice, maxPrice float64, rng *rand.Rand) negotiation.Offer {
	qty := minQty
	if maxQty > minQty {
		qty += rng.Intn(maxQty - minQty + 1)
	}
	return negotiation.Offer{
		Quantity: qty,
		Price:    c.limit(round, rounds, minPrice, maxPrice),
	}
}

// Accepts reports whether an offered price clears the counterpart's current
// limit.
func (c *Counterpart) Accepts(price float64, round, rounds int, minPrice, maxPrice float64) bool {
	lim := c.limit(round, rounds, minPrice, maxPrice)
	if c.Selling {
		return price >= lim
	}
	return price <= lim
}
