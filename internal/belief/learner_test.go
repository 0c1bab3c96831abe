package belief

import (
	"testing"

	"github.com/mr-tron/base58"

	"solana-trading-core/internal/domain"
)

func validSig() string {
	raw := make([]byte, 64)
	raw[0] = 0x01
	return base58.Encode(raw)
}

func TestObserve_AccumulatesEvidence(t *testing.T) {
	l := NewLearner()
	sig := validSig()

	for i := 0; i < 3; i++ {
		if !l.Observe("strat-1", domain.SourceAuto, sig, true) {
			t.Fatalf("observation %d rejected", i)
		}
	}
	l.Observe("strat-1", domain.SourceAuto, sig, false)

	b, ok := l.Belief("strat-1")
	if !ok {
		t.Fatal("belief record missing")
	}
	if b.Wins != 3 || b.Losses != 1 || b.Total != 4 {
		t.Errorf("unexpected counters: %+v", b)
	}
	// Prior (1,1) plus 3 wins and 1 loss: mean 4/6.
	if got := l.Preference("strat-1"); got != 4.0/6.0 {
		t.Errorf("expected posterior mean %v, got %v", 4.0/6.0, got)
	}
}

func TestObserve_DropsNonQualifyingEvidence(t *testing.T) {
	l := NewLearner()
	sig := validSig()

	cases := []struct {
		name   string
		id     string
		source domain.EntrySource
		sig    string
	}{
		{"manual entry", "strat-1", domain.SourceManual, sig},
		{"missing signature", "strat-1", domain.SourceAuto, ""},
		{"garbage signature", "strat-1", domain.SourceAuto, "not-base58-!!!"},
		{"empty strategy", "", domain.SourceAuto, sig},
	}

	for _, tc := range cases {
		if l.Observe(tc.id, tc.source, tc.sig, true) {
			t.Errorf("%s: observation should be dropped", tc.name)
		}
	}
	if len(l.All()) != 0 {
		t.Errorf("no beliefs should exist, got %v", l.All())
	}
}

func TestPreference_UnknownStrategySitsAtPrior(t *testing.T) {
	l := NewLearner()
	if got := l.Preference("never-seen"); got != 0.5 {
		t.Errorf("expected prior mean 0.5, got %v", got)
	}
}

func TestAll_SortedByStrategyID(t *testing.T) {
	l := NewLearner()
	sig := validSig()

	l.Observe("zeta", domain.SourceAuto, sig, true)
	l.Observe("alpha", domain.SourceAuto, sig, false)
	l.Observe("mid", domain.SourceAuto, sig, true)

	all := l.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].StrategyID >= all[i].StrategyID {
			t.Fatalf("records not sorted: %s before %s", all[i-1].StrategyID, all[i].StrategyID)
		}
	}
}

func TestBelief_ReturnsCopy(t *testing.T) {
	l := NewLearner()
	l.Observe("strat-1", domain.SourceAuto, validSig(), true)

	b, _ := l.Belief("strat-1")
	b.Wins = 999

	again, _ := l.Belief("strat-1")
	if again.Wins != 1 {
		t.Errorf("mutating the returned copy leaked into the learner: %+v", again)
	}
}
