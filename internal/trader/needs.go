// Need tracking — outstanding per-period quantity for each trade direction.
package trader

import "github.com/talgya/haggle/internal/negotiation"

// Needs tracks how much quantity the agent still has to secure this period,
// per direction. Quantities come from the exogenous requirement at period
// start and are decremented as agreements land.
type Needs struct {
	remaining [2]int
}

// Reset loads the exogenous requirement for a new period.
func (n *Needs) Reset(buyQty, sellQty int) {
	n.remaining[negotiation.Buying] = buyQty
	n.remaining[negotiation.Selling] = sellQty
}

// Remaining returns the outstanding quantity for a direction. It can go
// negative when an agreement overshoots the need; Secure does not clamp.
func (n *Needs) Remaining(d negotiation.Direction) int {
	return n.remaining[d]
}

// Secure records an agreed quantity against the outstanding need.
func (n *Needs) Secure(d negotiation.Direction, qty int) {
	n.remaining[d] -= qty
}

// None reports whether no further quantity is wanted in this direction.
// Negative remainders count as satisfied.
func (n *Needs) None(d negotiation.Direction) bool {
	return n.remaining[d] <= 0
}
