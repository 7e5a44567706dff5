package reputation

import (
	"testing"

	"github.com/talgya/haggle/internal/negotiation"
)

// stubLedger maps partner → recorded (step, level) pairs.
type stubLedger map[negotiation.PartnerID][][2]float64

func (l stubLedger) BreachLevels(partner negotiation.PartnerID, sinceStep int) ([]float64, error) {
	var out []float64
	for _, rec := range l[partner] {
		if int(rec[0]) >= sinceStep {
			out = append(out, rec[1])
		}
	}
	return out, nil
}

func TestAdmitRefusesRecentBreacher(t *testing.T) {
	ledger := stubLedger{
		"bad":  {{10, 0.5}},
		"aged": {{1, 0.9}},
	}
	p := &Policy{Ledger: ledger, Lookback: 20}

	if p.Admit("bad", 25) {
		t.Error("partner with breach at step 10 admitted at step 25 (lookback 20)")
	}
	if !p.Admit("aged", 25) {
		t.Error("partner whose only breach is outside the lookback was refused")
	}
	if !p.Admit("clean", 25) {
		t.Error("unknown partner refused")
	}
}

func TestAdmitWithoutLedger(t *testing.T) {
	var p *Policy
	if !p.Admit("anyone", 0) {
		t.Error("nil policy must admit")
	}
	p = &Policy{}
	if !p.Admit("anyone", 0) {
		t.Error("ledgerless policy must admit")
	}
}

func TestFilterDropsBreachers(t *testing.T) {
	ledger := stubLedger{"bad": {{10, 1.0}}}
	p := &Policy{Ledger: ledger}

	got := p.Filter([]negotiation.PartnerID{"good", "bad", "other"}, 15)
	if len(got) != 2 || got[0] != "good" || got[1] != "other" {
		t.Errorf("Filter = %v, want [good other]", got)
	}
}

func TestFilterPrefersOwnType(t *testing.T) {
	types := map[negotiation.PartnerID]string{
		"a": "haggle",
		"b": "greedy",
		"c": "haggle",
	}
	p := &Policy{
		TypeOf:  func(id negotiation.PartnerID) string { return types[id] },
		OwnType: "haggle",
	}

	got := p.Filter([]negotiation.PartnerID{"a", "b", "c"}, 0)
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("Filter = %v, want own-type partners [a c]", got)
	}

	// No same-type partner in the pool: the filter must not empty it.
	got = p.Filter([]negotiation.PartnerID{"b"}, 0)
	if len(got) != 1 || got[0] != "b" {
		t.Errorf("Filter = %v, want [b] when no own-type partner exists", got)
	}
}
