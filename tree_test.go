package forest

import (
	"math"
	"testing"

	"github.com/ctessum/geom"
	"github.com/dendrolab/forest/species"
)

func testTreeSpecies(t *testing.T) *species.Species {
	t.Helper()
	sp := species.NewSpecies("piab", "Picea abies", species.Allometry{
		HDLow: 60, HDHigh: 100,
		WoodDensity: 420, FormFactor: 0.5,
		SpecificLeafArea: 6,
		TurnoverFoliage:  0.2, TurnoverRoot: 0.3, FinerootFoliageRatio: 0.8,
		RatioWF: 2.5, MaxDbh: 150, MaxHeight: 50,
	}, species.DispersalParams{AS1: 30, AS2: 200, KS: 0.8}, 0.001)
	if err := sp.SetLightResponse("min(1, lri)"); err != nil {
		t.Fatal(err)
	}
	if err := sp.SetDeathProbStress("max(0, stress-0.3)*0.2"); err != nil {
		t.Fatal(err)
	}
	if err := sp.SetLRICorrection("min(1, lri)", 10); err != nil {
		t.Fatal(err)
	}
	return sp
}

func testLIFGrid() (*Grid[float64], *Grid[HeightCell]) {
	lif := NewGrid[float64](geom.Point{}, 2, 60, 60)
	lif.Initialize(1)
	hg := NewGrid[HeightCell](geom.Point{}, 10, 12, 12)
	return lif, hg
}

func TestApplyLIPFloorsAtPoint02(t *testing.T) {
	lif, hg := testLIFGrid()
	sp := testTreeSpecies(t)
	ru := NewResourceUnit(Index{}, 0, 10000, 10000, NewRand(1, 0))
	tree, err := NewTree(1, sp, ru, Index{X: 30, Y: 30}, 30, 20)
	if err != nil {
		t.Fatal(err)
	}
	st := NewStamp(16)
	for y := -8; y < 8; y++ {
		for x := -8; x < 8; x++ {
			st.Set(x, y, 0.9)
		}
	}
	reader := NewStamp(4)
	st.SetReader(reader)
	tree.Stamp = st
	tree.Opacity = 1

	tree.ApplyLIP(lif, hg)

	center := lif.Get(Index{X: 30, Y: 30})
	want := math.Max(1-st.At(0, 0)*tree.Opacity, 0.02)
	if math.Abs(center-want) > 1e-9 {
		t.Errorf("center LIF = %v, want %v", center, want)
	}
	lif.ForEach(func(_ Index, v *float64) {
		if *v < 0.02-1e-12 {
			t.Fatalf("LIF value %v below the 0.02 floor", *v)
		}
	})
}

func TestMortalityDiesWhenFoliageZero(t *testing.T) {
	sp := testTreeSpecies(t)
	ru := NewResourceUnit(Index{}, 0, 10000, 10000, NewRand(1, 0))
	tree, err := NewTree(2, sp, ru, Index{X: 5, Y: 5}, 10, 8)
	if err != nil {
		t.Fatal(err)
	}
	tree.Foliage = 0
	tree.Mortality(NewRand(1, 0))
	if !tree.IsDead() {
		t.Error("expected tree with zero foliage to die")
	}
}

func TestNewTreeRejectsSmallDbh(t *testing.T) {
	sp := testTreeSpecies(t)
	ru := NewResourceUnit(Index{}, 0, 10000, 10000, NewRand(1, 0))
	if _, err := NewTree(3, sp, ru, Index{}, 2, 3); err == nil {
		t.Fatal("expected error creating a tree with dbh < 5")
	}
}

func TestGrowDiameterIncreasesDbh(t *testing.T) {
	sp := testTreeSpecies(t)
	ru := NewResourceUnit(Index{}, 0, 10000, 10000, NewRand(1, 0))
	tree, err := NewTree(4, sp, ru, Index{X: 5, Y: 5}, 20, 15)
	if err != nil {
		t.Fatal(err)
	}
	tree.LRI = 0.8
	ru.LRImodifier = 1
	startDbh := tree.Dbh
	if err := tree.growDiameter(5); err != nil {
		t.Fatal(err)
	}
	if tree.Dbh <= startDbh {
		t.Errorf("Dbh = %v, want > %v after positive net stem NPP", tree.Dbh, startDbh)
	}
}
