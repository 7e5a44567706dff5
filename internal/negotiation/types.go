// Package negotiation defines the shared vocabulary for one-shot commodity
// negotiations: trade directions, offers, responses, and the per-session
// context the exchange hands to an agent.
package negotiation

import (
	"errors"
	"fmt"
	"math"
)

// PartnerID identifies a counterparty agent.
type PartnerID string

// Direction is the agent's side of a negotiation.
type Direction uint8

const (
	Selling Direction = iota
	Buying
)

func (d Direction) String() string {
	if d == Selling {
		return "sell"
	}
	return "buy"
}

// WorstPrice returns the seed value for a "best price so far" tracker:
// a running maximum starts at 0 when selling, a running minimum at +Inf
// when buying.
func (d Direction) WorstPrice() float64 {
	if d == Selling {
		return 0
	}
	return math.Inf(1)
}

// BetterPrice returns the more favorable of two prices for this direction:
// the higher when selling, the lower when buying.
func (d Direction) BetterPrice(a, b float64) float64 {
	if d == Selling {
		return math.Max(a, b)
	}
	return math.Min(a, b)
}

// Opposite returns the counterparty's direction.
func (d Direction) Opposite() Direction {
	if d == Selling {
		return Buying
	}
	return Selling
}

// Offer is a single (quantity, delivery step, unit price) proposal.
type Offer struct {
	Quantity int     `json:"quantity"`
	Step     int     `json:"step"` // delivery period
	Price    float64 `json:"price"`
}

// Response is the agent's reply to an incoming offer.
type Response uint8

const (
	Accept Response = iota
	Reject
	End // terminate the negotiation, no counter-offer wanted
)

func (r Response) String() string {
	switch r {
	case Accept:
		return "accept"
	case Reject:
		return "reject"
	default:
		return "end"
	}
}

// Contract is a concluded agreement, delivered back to the agent after the
// session closes.
type Contract struct {
	ID        string    `json:"id"`
	Partner   PartnerID `json:"partner"`
	Direction Direction `json:"direction"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price"`
	Step      int       `json:"step"` // delivery period
}

// ErrMalformedSession marks a session whose bounds cannot support a
// negotiation. Operations reject such sessions without touching agent state.
var ErrMalformedSession = errors.New("malformed negotiation session")

// Session describes one live negotiation from the agent's point of view.
// The exchange owns it; agents read it only.
type Session struct {
	ID          string    `json:"id"`
	Partner     PartnerID `json:"partner"`
	Direction   Direction `json:"direction"`
	MinPrice    float64   `json:"min_price"`
	MaxPrice    float64   `json:"max_price"`
	MinQuantity int       `json:"min_quantity"`
	MaxQuantity int       `json:"max_quantity"`
	Round       int       `json:"round"`  // current round, 0-based
	Rounds      int       `json:"rounds"` // total round budget
}

// Validate checks the session bounds. The concession curve divides by
// Rounds-1, so a budget of one round (or less) is unusable.
func (s *Session) Validate() error {
	if s.Rounds <= 1 {
		return fmt.Errorf("%w: round budget %d", ErrMalformedSession, s.Rounds)
	}
	if s.MinPrice > s.MaxPrice {
		return fmt.Errorf("%w: price bounds inverted (%.2f > %.2f)", ErrMalformedSession, s.MinPrice, s.MaxPrice)
	}
	return nil
}
