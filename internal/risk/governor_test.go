package risk

import (
	"strings"
	"testing"
	"time"

	"solana-trading-core/internal/domain"
)

func msAt(hour int) int64 {
	return time.Date(2026, 4, 10, hour, 0, 0, 0, time.UTC).UnixMilli()
}

func TestGovernor_TripsOnConsecutiveLosses(t *testing.T) {
	g := NewDefaultGovernor()
	now := msAt(10)

	for i := 0; i < 3; i++ {
		if ok, _ := g.Allow(domain.AssetMemecoin, now); !ok {
			t.Fatalf("breaker tripped early at loss %d", i)
		}
		g.RecordClose(domain.AssetMemecoin, -0.05, now)
	}

	ok, reason := g.Allow(domain.AssetMemecoin, now)
	if ok {
		t.Fatal("expected memecoin breaker tripped after 3 losses")
	}
	if !strings.Contains(reason, "consecutive losses") {
		t.Errorf("expected consecutive-loss reason, got %q", reason)
	}
}

func TestGovernor_ClassesAreIndependent(t *testing.T) {
	g := NewDefaultGovernor()
	now := msAt(10)

	for i := 0; i < 3; i++ {
		g.RecordClose(domain.AssetMemecoin, -0.05, now)
	}

	if ok, _ := g.Allow(domain.AssetMemecoin, now); ok {
		t.Error("memecoin should be halted")
	}
	for _, class := range []domain.AssetClass{domain.AssetBags, domain.AssetBluechip, domain.AssetXStock, domain.AssetIndex, domain.AssetPrestock} {
		if ok, reason := g.Allow(class, now); !ok {
			t.Errorf("%s should be unaffected: %s", class, reason)
		}
	}
}

func TestGovernor_TripsOnDailyLossTotal(t *testing.T) {
	g := NewDefaultGovernor()
	now := msAt(10)

	// The win clears the consecutive counter and offsets the total,
	// but the net still crosses bluechip's 15% daily limit.
	g.RecordClose(domain.AssetBluechip, -0.08, now)
	g.RecordClose(domain.AssetBluechip, 0.02, now)
	g.RecordClose(domain.AssetBluechip, -0.10, now)
	if ok, _ := g.Allow(domain.AssetBluechip, now); ok {
		t.Fatal("expected daily-loss trip at net 16% against a 15% limit")
	}

	_, reason := g.Allow(domain.AssetBluechip, now)
	if !strings.Contains(reason, "daily loss") {
		t.Errorf("expected daily-loss reason, got %q", reason)
	}
}

func TestGovernor_DailyLossIsNetOfWins(t *testing.T) {
	g := NewDefaultGovernor()
	now := msAt(10)

	g.RecordClose(domain.AssetBluechip, -0.10, now)
	g.RecordClose(domain.AssetBluechip, 0.08, now)
	g.RecordClose(domain.AssetBluechip, -0.10, now)

	// Net -12%, still inside the 15% limit.
	if ok, reason := g.Allow(domain.AssetBluechip, now); !ok {
		t.Fatalf("wins must offset the daily total: %s", reason)
	}
	state := g.ClassState(domain.AssetBluechip, now)
	if state.DailyLossPct < 0.12-1e-9 || state.DailyLossPct > 0.12+1e-9 {
		t.Errorf("expected net daily loss 0.12, got %v", state.DailyLossPct)
	}

	g.RecordClose(domain.AssetBluechip, -0.04, now)
	if ok, _ := g.Allow(domain.AssetBluechip, now); ok {
		t.Error("net 16% must trip the 15% limit")
	}
}

func TestGovernor_ProfitableDayReportsNoLoss(t *testing.T) {
	g := NewDefaultGovernor()
	now := msAt(10)

	g.RecordClose(domain.AssetBluechip, 0.20, now)
	g.RecordClose(domain.AssetBluechip, -0.05, now)

	state := g.ClassState(domain.AssetBluechip, now)
	if state.DailyLossPct != 0 {
		t.Errorf("net-positive day must report zero daily loss, got %v", state.DailyLossPct)
	}
	if ok, reason := g.Allow(domain.AssetBluechip, now); !ok {
		t.Errorf("net-positive day must not trip: %s", reason)
	}
}

func TestGovernor_WinResetsConsecutiveButNotCooldown(t *testing.T) {
	g := NewDefaultGovernor()
	now := msAt(10)

	for i := 0; i < 3; i++ {
		g.RecordClose(domain.AssetMemecoin, -0.05, now)
	}
	if ok, _ := g.Allow(domain.AssetMemecoin, now); ok {
		t.Fatal("breaker should be tripped")
	}

	// A win during cooldown clears the loss streak but the halt holds
	// for the full cooldown window.
	g.RecordClose(domain.AssetMemecoin, 0.10, now+60_000)
	if ok, _ := g.Allow(domain.AssetMemecoin, now+120_000); ok {
		t.Error("win must not clear an active cooldown")
	}

	state := g.ClassState(domain.AssetMemecoin, now+120_000)
	if state.ConsecutiveLosses != 0 {
		t.Errorf("win should reset the consecutive counter, got %d", state.ConsecutiveLosses)
	}
}

func TestGovernor_LazyCooldownReset(t *testing.T) {
	g := NewDefaultGovernor()
	now := msAt(10)

	for i := 0; i < 3; i++ {
		g.RecordClose(domain.AssetMemecoin, -0.05, now)
	}

	// Memecoin cooldown is 30 minutes. One millisecond short: halted.
	almost := now + 30*60_000
	if ok, _ := g.Allow(domain.AssetMemecoin, almost); ok {
		t.Error("cooldown boundary should still be halted")
	}

	after := now + 30*60_000 + 1
	if ok, reason := g.Allow(domain.AssetMemecoin, after); !ok {
		t.Errorf("breaker should re-arm after cooldown: %s", reason)
	}

	state := g.ClassState(domain.AssetMemecoin, after)
	if state.Tripped || state.ConsecutiveLosses != 0 || state.Reason != "" {
		t.Errorf("expected a clean cell after reset, got %+v", state)
	}
}

func TestGovernor_GlobalBreakerHaltsEverything(t *testing.T) {
	limits := DefaultClassLimits
	for i := range limits {
		limits[i] = domain.BreakerLimits{MaxConsecutiveLosses: 100, MaxDailyLossPct: 100, CooldownMinutes: 30}
	}
	g := NewGovernor(limits, domain.BreakerLimits{MaxConsecutiveLosses: 4, MaxDailyLossPct: 10, CooldownMinutes: 60})
	now := msAt(10)

	// Spread losses across classes; only the global counter sees them
	// all.
	g.RecordClose(domain.AssetMemecoin, -0.05, now)
	g.RecordClose(domain.AssetBags, -0.05, now)
	g.RecordClose(domain.AssetBluechip, -0.05, now)
	g.RecordClose(domain.AssetIndex, -0.05, now)

	for class := domain.AssetClass(0); class < domain.NumAssetClasses; class++ {
		ok, reason := g.Allow(class, now)
		if ok {
			t.Errorf("%s should be halted by the global breaker", class)
		} else if !strings.Contains(reason, "global") {
			t.Errorf("expected global reason for %s, got %q", class, reason)
		}
	}
}

func TestGovernor_DailyTotalRollsAtUTCMidnight(t *testing.T) {
	g := NewDefaultGovernor()
	day1 := time.Date(2026, 4, 10, 23, 0, 0, 0, time.UTC).UnixMilli()

	// 10% of bluechip's 15% daily limit before midnight.
	g.RecordClose(domain.AssetBluechip, -0.10, day1)

	// After midnight the daily total is back at zero, so another 10%
	// does not trip.
	day2 := time.Date(2026, 4, 11, 1, 0, 0, 0, time.UTC).UnixMilli()
	g.RecordClose(domain.AssetBluechip, 0.01, day2) // clears the streak, rolls the day
	g.RecordClose(domain.AssetBluechip, -0.10, day2)

	if ok, reason := g.Allow(domain.AssetBluechip, day2); !ok {
		t.Errorf("daily total should have rolled at midnight: %s", reason)
	}

	state := g.ClassState(domain.AssetBluechip, day2)
	if state.DailyLossPct > 0.10+1e-9 {
		t.Errorf("expected only the post-midnight loss counted, got %v", state.DailyLossPct)
	}
}
