package negotiation

import (
	"errors"
	"math"
	"testing"
)

func TestDirectionSeeds(t *testing.T) {
	if got := Selling.WorstPrice(); got != 0 {
		t.Errorf("selling worst = %v, want 0", got)
	}
	if got := Buying.WorstPrice(); !math.IsInf(got, 1) {
		t.Errorf("buying worst = %v, want +Inf", got)
	}
}

func TestBetterPrice(t *testing.T) {
	if got := Selling.BetterPrice(12, 15); got != 15 {
		t.Errorf("selling better(12, 15) = %v, want 15", got)
	}
	if got := Buying.BetterPrice(12, 15); got != 12 {
		t.Errorf("buying better(12, 15) = %v, want 12", got)
	}
}

func TestOpposite(t *testing.T) {
	if Selling.Opposite() != Buying || Buying.Opposite() != Selling {
		t.Error("Opposite is not an involution over the two directions")
	}
}

func TestSessionValidate(t *testing.T) {
	cases := []struct {
		name string
		s    Session
		ok   bool
	}{
		{"valid", Session{MinPrice: 10, MaxPrice: 20, Rounds: 11}, true},
		{"equal bounds", Session{MinPrice: 10, MaxPrice: 10, Rounds: 2}, true},
		{"one round", Session{MinPrice: 10, MaxPrice: 20, Rounds: 1}, false},
		{"zero rounds", Session{MinPrice: 10, MaxPrice: 20, Rounds: 0}, false},
		{"inverted prices", Session{MinPrice: 20, MaxPrice: 10, Rounds: 11}, false},
	}
	for _, tc := range cases {
		err := tc.s.Validate()
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrMalformedSession) {
			t.Errorf("%s: err = %v, want ErrMalformedSession", tc.name, err)
		}
	}
}
