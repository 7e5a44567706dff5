// Package exchange hosts the simulated one-shot commodity market: periods,
// exogenous requirements, partner agents, and the alternating-offers
// sessions that drive the trader.
package exchange

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/haggle/internal/negotiation"
	"github.com/talgya/haggle/internal/persistence"
	"github.com/talgya/haggle/internal/reputation"
	"github.com/talgya/haggle/internal/trader"
)

// Config holds market simulation parameters.
type Config struct {
	Seed         int64
	Periods      int
	Rounds       int // round budget per session
	Suppliers    int
	Consumers    int
	BaseNeed     int     // mean exogenous quantity per period
	BasePrice    float64 // mid price level the band wanders around
	BreachChance float64 // base chance a counterpart breaches a contract
}

// DefaultConfig returns a small deterministic market.
func DefaultConfig() Config {
	return Config{
		Seed:         42,
		Periods:      50,
		Rounds:       20,
		Suppliers:    4,
		Consumers:    4,
		BaseNeed:     10,
		BasePrice:    15,
		BreachChance: 0.05,
	}
}

// World wires the trader, its admission policy, the counterparts, and the
// ledger into a runnable market.
type World struct {
	cfg   Config
	rng   *rand.Rand
	noise opensimplex.Noise

	Trader *trader.Trader
	Policy *reputation.Policy
	DB     *persistence.DB // optional; nil disables the ledger

	Suppliers []*Counterpart
	Consumers []*Counterpart

	// mu guards the run state below: the API server reads it while Run
	// is still writing.
	mu         sync.Mutex
	step       int
	reports    []trader.PeriodReport
	perPartner map[negotiation.PartnerID]int
}

// counterpartTypes cycles over spawned counterparts so type filtering has
// something to bite on.
var counterpartTypes = []string{"greedy", "adaptive", "haggle"}

// NewWorld creates a market with freshly spawned counterparts. Every fourth
// counterpart is a habitual breacher, which gives the reputation policy
// history to act on.
func NewWorld(cfg Config, t *trader.Trader, pol *reputation.Policy, db *persistence.DB) *World {
	w := &World{
		cfg:        cfg,
		rng:        rand.New(rand.NewSource(cfg.Seed)),
		noise:      opensimplex.New(cfg.Seed),
		Trader:     t,
		Policy:     pol,
		DB:         db,
		perPartner: make(map[negotiation.PartnerID]int),
	}
	for i := 0; i < cfg.Suppliers; i++ {
		w.Suppliers = append(w.Suppliers, &Counterpart{
			ID:       negotiation.PartnerID(fmt.Sprintf("S%02d", i+1)),
			Type:     counterpartTypes[i%len(counterpartTypes)],
			Selling:  true,
			Breacher: i%4 == 3,
		})
	}
	for i := 0; i < cfg.Consumers; i++ {
		w.Consumers = append(w.Consumers, &Counterpart{
			ID:       negotiation.PartnerID(fmt.Sprintf("C%02d", i+1)),
			Type:     counterpartTypes[i%len(counterpartTypes)],
			Selling:  false,
			Breacher: i%4 == 3,
		})
	}
	return w
}

// TypeOf reports a counterpart's agent type, for the reputation policy's
// type filter.
func (w *World) TypeOf(id negotiation.PartnerID) string {
	for _, c := range w.Suppliers {
		if c.ID == id {
			return c.Type
		}
	}
	for _, c := range w.Consumers {
		if c.ID == id {
			return c.Type
		}
	}
	return ""
}

// Run steps the market through all configured periods.
func (w *World) Run() error {
	for p := 0; p < w.cfg.Periods; p++ {
		if err := w.RunPeriod(p); err != nil {
			return fmt.Errorf("period %d: %w", p, err)
		}
	}
	return nil
}

// RunPeriod executes one full period: load the exogenous requirement, run a
// session against every admitted partner on each side, then close the period
// into the ledger.
func (w *World) RunPeriod(step int) error {
	w.mu.Lock()
	w.step = step
	w.mu.Unlock()

	buyNeed, sellNeed := w.requirement(step)
	minPrice, maxPrice := w.priceBand(step)
	w.Trader.StartPeriod(step, buyNeed, sellNeed)

	slog.Debug("period start",
		"step", step,
		"buy_need", buyNeed,
		"sell_need", sellNeed,
		"price_min", fmt.Sprintf("%.2f", minPrice),
		"price_max", fmt.Sprintf("%.2f", maxPrice),
	)

	contracts := 0
	var spent, earned float64

	for _, c := range w.admitted(w.Suppliers, step) {
		contract, err := w.runSession(c, negotiation.Buying, minPrice, maxPrice)
		if err != nil {
			return err
		}
		if contract != nil {
			contracts++
			spent += float64(contract.Quantity) * contract.Price
		}
	}
	for _, c := range w.admitted(w.Consumers, step) {
		contract, err := w.runSession(c, negotiation.Selling, minPrice, maxPrice)
		if err != nil {
			return err
		}
		if contract != nil {
			contracts++
			earned += float64(contract.Quantity) * contract.Price
		}
	}

	report := w.Trader.EndPeriod()
	w.mu.Lock()
	w.reports = append(w.reports, report)
	w.mu.Unlock()

	if w.DB != nil {
		row := persistence.PeriodRow{
			Step:            step,
			RequiredBuy:     buyNeed,
			RequiredSell:    sellNeed,
			OutstandingBuy:  report.OutstandingBuy,
			OutstandingSell: report.OutstandingSell,
			Contracts:       contracts,
			Spent:           spent,
			Earned:          earned,
		}
		if err := w.DB.SavePeriod(row); err != nil {
			return err
		}
	}
	return nil
}

// requirement derives the period's exogenous buy/sell quantities from
// smooth noise over the period index, so demand drifts instead of jumping.
func (w *World) requirement(step int) (buy, sell int) {
	base := float64(w.cfg.BaseNeed)
	buy = int(math.Round(base + base*0.5*w.noise.Eval2(float64(step)*0.13, 0)))
	sell = int(math.Round(base + base*0.5*w.noise.Eval2(float64(step)*0.13, 50)))
	if buy < 0 {
		buy = 0
	}
	if sell < 0 {
		sell = 0
	}
	return buy, sell
}

// priceBand derives the period's legal price bounds from a drifting
// mid-price.
func (w *World) priceBand(step int) (minPrice, maxPrice float64) {
	mid := w.cfg.BasePrice * (1 + 0.2*w.noise.Eval2(float64(step)*0.09, 100))
	return mid * 0.7, mid * 1.3
}

// admitted filters a counterpart pool through the reputation policy.
func (w *World) admitted(pool []*Counterpart, step int) []*Counterpart {
	if w.Policy == nil {
		return pool
	}
	ids := make([]negotiation.PartnerID, len(pool))
	for i, c := range pool {
		ids[i] = c.ID
	}
	kept := make(map[negotiation.PartnerID]bool)
	for _, id := range w.Policy.Filter(ids, step) {
		kept[id] = true
	}
	out := make([]*Counterpart, 0, len(pool))
	for _, c := range pool {
		if kept[c.ID] {
			out = append(out, c)
		}
	}
	return out
}

// runSession drives one alternating-offers negotiation to agreement or
// exhaustion of the round budget. The counterpart opens each round; the
// trader counters.
func (w *World) runSession(c *Counterpart, d negotiation.Direction, minPrice, maxPrice float64) (*negotiation.Contract, error) {
	s := &negotiation.Session{
		ID:          uuid.NewString(),
		Partner:     c.ID,
		Direction:   d,
		MinPrice:    minPrice,
		MaxPrice:    maxPrice,
		MinQuantity: 1,
		MaxQuantity: w.cfg.BaseNeed,
		Rounds:      w.cfg.Rounds,
	}
	c.prepare(minPrice, maxPrice, w.rng)

	for r := 0; r < s.Rounds; r++ {
		s.Round = r

		incoming := c.Propose(r, s.Rounds, s.MinQuantity, s.MaxQuantity, minPrice, maxPrice, w.rng)
		resp, err := w.Trader.Respond(s, incoming)
		if err != nil {
			return nil, err
		}
		switch resp {
		case negotiation.Accept:
			return w.conclude(c, s, incoming)
		case negotiation.End:
			w.Trader.OnFailure(s)
			return nil, nil
		}

		counter, err := w.Trader.Propose(s)
		if err != nil {
			return nil, err
		}
		if counter == nil {
			w.Trader.OnFailure(s)
			return nil, nil
		}
		if c.Accepts(counter.Price, r, s.Rounds, minPrice, maxPrice) {
			return w.conclude(c, s, *counter)
		}
	}

	w.Trader.OnFailure(s)
	return nil, nil
}

// conclude turns an accepted offer into a contract, feeds it back to the
// trader, records it, and rolls for a counterpart breach.
func (w *World) conclude(c *Counterpart, s *negotiation.Session, o negotiation.Offer) (*negotiation.Contract, error) {
	w.mu.Lock()
	contract := negotiation.Contract{
		ID:        uuid.NewString(),
		Partner:   s.Partner,
		Direction: s.Direction,
		Quantity:  o.Quantity,
		Price:     o.Price,
		Step:      w.step,
	}
	w.perPartner[s.Partner]++
	w.mu.Unlock()

	w.Trader.OnSuccess(contract)

	if w.DB != nil {
		if err := w.DB.SaveContract(contract); err != nil {
			return nil, err
		}
		chance := w.cfg.BreachChance
		if c.Breacher {
			chance *= 4
		}
		if w.rng.Float64() < chance {
			level := 0.2 + 0.6*w.rng.Float64()
			if err := w.DB.SaveBreach(c.ID, contract.Step, level); err != nil {
				return nil, err
			}
			slog.Debug("contract breached", "partner", c.ID, "step", contract.Step, "level", fmt.Sprintf("%.2f", level))
		}
	}
	return &contract, nil
}
