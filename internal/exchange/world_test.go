package exchange

import (
	"math"
	"math/rand"
	"path/filepath"
	"sync"
	"testing"

	"github.com/talgya/haggle/internal/negotiation"
	"github.com/talgya/haggle/internal/persistence"
	"github.com/talgya/haggle/internal/reputation"
	"github.com/talgya/haggle/internal/trader"
)

func testWorld(t *testing.T, cfg Config, pol *reputation.Policy, db *persistence.DB) *World {
	t.Helper()
	return NewWorld(cfg, trader.New(trader.DefaultConfig()), pol, db)
}

func TestRequirementDeterministicAndNonNegative(t *testing.T) {
	cfg := DefaultConfig()
	a := testWorld(t, cfg, nil, nil)
	b := testWorld(t, cfg, nil, nil)

	for step := 0; step < 100; step++ {
		buyA, sellA := a.requirement(step)
		buyB, sellB := b.requirement(step)
		if buyA != buyB || sellA != sellB {
			t.Fatalf("step %d: same seed diverged (%d,%d) vs (%d,%d)", step, buyA, sellA, buyB, sellB)
		}
		if buyA < 0 || sellA < 0 {
			t.Fatalf("step %d: negative requirement (%d,%d)", step, buyA, sellA)
		}
	}
}

func TestPriceBandOrdered(t *testing.T) {
	w := testWorld(t, DefaultConfig(), nil, nil)
	for step := 0; step < 100; step++ {
		lo, hi := w.priceBand(step)
		if lo <= 0 || lo >= hi {
			t.Fatalf("step %d: bad band (%v, %v)", step, lo, hi)
		}
	}
}

func TestCounterpartConcession(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	c := &Counterpart{ID: "S01", Selling: true}
	c.prepare(10, 20, rng)

	if c.Reserve < 10 || c.Reserve > 15 {
		t.Fatalf("supplier reserve %v outside lower half of (10, 20)", c.Reserve)
	}
	if lim := c.limit(0, 20, 10, 20); math.Abs(lim-20) > 1e-9 {
		t.Errorf("opening limit = %v, want favorable bound 20", lim)
	}
	if lim := c.limit(19, 20, 10, 20); lim != c.Reserve {
		t.Errorf("deadline limit = %v, want reserve %v", lim, c.Reserve)
	}

	if !c.Accepts(20, 10, 20, 10, 20) {
		t.Error("supplier refused the ceiling price")
	}
	if c.Accepts(c.Reserve-1, 19, 20, 10, 20) {
		t.Error("supplier signed below its reserve")
	}
}

func TestRunProducesContractsAndReports(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Periods = 10
	w := testWorld(t, cfg, nil, nil)

	if err := w.Run(); err != nil {
		t.Fatal(err)
	}
	if got := len(w.PeriodReports()); got != cfg.Periods {
		t.Fatalf("reports = %d, want %d", got, cfg.Periods)
	}
	if len(w.PartnerContracts()) == 0 {
		t.Fatal("no contracts concluded in 10 periods")
	}

	counts := w.PartnerContracts()
	for i := 1; i < len(counts); i++ {
		if counts[i-1].Partner >= counts[i].Partner {
			t.Fatalf("partner counts not sorted: %v", counts)
		}
	}
}

func TestObserversDuringRun(t *testing.T) {
	// The API server reads world state while Run is still writing; the
	// accessors must stay safe under the race detector.
	cfg := DefaultConfig()
	cfg.Periods = 20
	w := testWorld(t, cfg, nil, nil)

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				w.PartnerContracts()
				w.PeriodReports()
				w.Shortfalls()
				w.CurrentStep()
			}
		}()
	}

	err := w.Run()
	close(done)
	wg.Wait()
	if err != nil {
		t.Fatal(err)
	}

	if got := len(w.PeriodReports()); got != cfg.Periods {
		t.Fatalf("reports = %d, want %d", got, cfg.Periods)
	}
}

type stubLedger map[negotiation.PartnerID]float64

func (l stubLedger) BreachLevels(partner negotiation.PartnerID, sinceStep int) ([]float64, error) {
	if lvl, ok := l[partner]; ok {
		return []float64{lvl}, nil
	}
	return nil, nil
}

func TestAdmittedExcludesBreachers(t *testing.T) {
	pol := &reputation.Policy{Ledger: stubLedger{"S01": 0.8}}
	w := testWorld(t, DefaultConfig(), pol, nil)

	kept := w.admitted(w.Suppliers, 5)
	if len(kept) != len(w.Suppliers)-1 {
		t.Fatalf("admitted %d suppliers, want %d", len(kept), len(w.Suppliers)-1)
	}
	for _, c := range kept {
		if c.ID == "S01" {
			t.Fatal("breacher S01 admitted")
		}
	}
}

func TestRunWithLedger(t *testing.T) {
	db, err := persistence.Open(filepath.Join(t.TempDir(), "world.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	cfg := DefaultConfig()
	cfg.Periods = 5
	pol := &reputation.Policy{Ledger: db}
	w := testWorld(t, cfg, pol, db)

	if err := w.Run(); err != nil {
		t.Fatal(err)
	}

	totals, err := db.LedgerTotals()
	if err != nil {
		t.Fatal(err)
	}
	var recorded int
	for _, pc := range w.PartnerContracts() {
		recorded += pc.Contracts
	}
	if totals.Contracts != recorded {
		t.Errorf("ledger has %d contracts, world counted %d", totals.Contracts, recorded)
	}
}
