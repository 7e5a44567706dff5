// Package trader implements the adaptive negotiating agent: need tracking,
// opponent price memory, and the concession strategy that turns both into
// proposals and accept/reject decisions.
package trader

import "math"

// Config holds the concession and slack parameters. Each slack is a
// multiplicative tolerance applied to a remembered price before it narrows
// the acceptable interval; a slack of 0 means "never concede past that
// price", +Inf disables the constraint entirely.
type Config struct {
	// ConcessionExponent controls curve convexity. Values below 1 hold the
	// price early and concede rapidly near the deadline.
	ConcessionExponent float64

	StepPriceSlack   float64 // own best price seen this period
	AccPriceSlack    float64 // own best accepted price, all time
	OppPriceSlack    float64 // partner's best offer this period
	OppAccPriceSlack float64 // partner's best accepted price, all time

	// RangeSlack keeps the interval from collapsing: the conceding bound
	// never moves within this fraction of the opposite bound.
	RangeSlack float64
}

// DefaultConfig returns the tuned defaults: stubborn against the agent's own
// within-period concessions, permissive toward a partner's proven history.
func DefaultConfig() Config {
	return Config{
		ConcessionExponent: 0.2,
		StepPriceSlack:     0,
		AccPriceSlack:      math.Inf(1),
		OppPriceSlack:      0,
		OppAccPriceSlack:   0.2,
		RangeSlack:         0.03,
	}
}
