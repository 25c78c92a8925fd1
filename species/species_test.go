package species

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func testSpecies(t *testing.T) *Species {
	t.Helper()
	sp := NewSpecies("piab", "Picea abies", Allometry{
		HDLow: 60, HDHigh: 120,
		WoodDensity: 420, FormFactor: 0.44,
		TurnoverFoliage: 0.2, TurnoverRoot: 0.3, FinerootFoliageRatio: 0.8,
		RatioWF:   2.5,
		MaxDbh:    150, MaxHeight: 50,
	}, DispersalParams{AS1: 30, AS2: 200, KS: 0.8}, 0.002)
	if err := sp.SetLightResponse("min(1, 1.5*lri)"); err != nil {
		t.Fatal(err)
	}
	if err := sp.SetDeathProbStress("max(0, stress - 0.2) * 0.1"); err != nil {
		t.Fatal(err)
	}
	if err := sp.SetLRICorrection("min(1, lri * (0.9 + 0.2*relh))", 20); err != nil {
		t.Fatal(err)
	}
	return sp
}

func TestRelativeHeightGrowthInterpolates(t *testing.T) {
	sp := testSpecies(t)
	if diff := cmp.Diff(60.0, sp.RelativeHeightGrowth(0), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("x=0: (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(120.0, sp.RelativeHeightGrowth(1), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("x=1: (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(90.0, sp.RelativeHeightGrowth(0.5), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("x=0.5: (-want +got):\n%s", diff)
	}
}

func TestLRICorrectionClampedTo1(t *testing.T) {
	sp := testSpecies(t)
	got := sp.LRICorrection(1, 1)
	if got > 1.0000001 {
		t.Errorf("LRICorrection(1,1) = %v, want <= 1", got)
	}
}

func TestDeathProbStressZeroBelowThreshold(t *testing.T) {
	sp := testSpecies(t)
	if got := sp.DeathProbStress(0.1); got != 0 {
		t.Errorf("DeathProbStress(0.1) = %v, want 0", got)
	}
	if got := sp.DeathProbStress(0.5); got <= 0 {
		t.Errorf("DeathProbStress(0.5) = %v, want > 0", got)
	}
}

func TestSpeciesSetDuplicateRejected(t *testing.T) {
	ss := NewSpeciesSet[int]()
	sp := testSpecies(t)
	if err := ss.Add(sp); err != nil {
		t.Fatal(err)
	}
	if err := ss.Add(sp); err == nil {
		t.Fatal("expected error on duplicate Add")
	}
}

func TestStampContainerRoundTrip(t *testing.T) {
	c := NewStampContainer[string]()
	key := StampKey{SpeciesID: "piab", DbhClass: 3, HClass: 2}
	c.Set(key, "stamp-data")
	got, ok := c.Get(key)
	if !ok || got != "stamp-data" {
		t.Errorf("Get(%v) = %q, %v; want \"stamp-data\", true", key, got, ok)
	}
	if _, ok := c.Get(StampKey{SpeciesID: "other"}); ok {
		t.Error("expected miss for unknown key")
	}
}
