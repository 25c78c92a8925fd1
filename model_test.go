package forest

import (
	"strings"
	"testing"

	"github.com/dendrolab/forest/climate"
	"github.com/dendrolab/forest/config"
	"github.com/dendrolab/forest/environment"
	"github.com/dendrolab/forest/species"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Model.World.CellSize = 2
	cfg.Model.World.Width = 200
	cfg.Model.World.Height = 200
	cfg.Model.World.Buffer = 20
	cfg.System.Settings.Multithreading = false
	cfg.System.Settings.RandomSeed = 42
	return cfg
}

func TestNewModelLaysOutResourceUnits(t *testing.T) {
	m, err := NewModel(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(m.resourceUnits) != 4 {
		t.Fatalf("len(resourceUnits) = %d, want 4 for a 200x200m project (2x2 RUs)", len(m.resourceUnits))
	}
	for _, ru := range m.resourceUnits {
		if !ru.IsStockable() {
			t.Errorf("resource unit %d should be stockable", ru.ID)
		}
	}
}

func TestRunYearAdvancesYearCounter(t *testing.T) {
	m, err := NewModel(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if m.Year() != 1 {
		t.Fatalf("Year() = %d, want 1 before any RunYear call", m.Year())
	}
	if err := m.RunYear(); err != nil {
		t.Fatal(err)
	}
	if m.Year() != 2 {
		t.Fatalf("Year() = %d, want 2 after one RunYear call", m.Year())
	}
}

func TestRunYearGrowsASingleTree(t *testing.T) {
	cfg := testConfig()
	// Mortality is disabled so the test's single-tree survival assertion
	// does not depend on the seeded RNG draw against a stress-driven death
	// probability (zero NPP here, absent a Climate, drives stress to 1).
	cfg.Model.Settings.MortalityEnabled = false
	m, err := NewModel(cfg)
	if err != nil {
		t.Fatal(err)
	}
	sp := testTreeSpecies(t)
	ss := species.NewSpeciesSet[*Stamp]()
	if err := ss.Add(sp); err != nil {
		t.Fatal(err)
	}
	if err := m.AddSpeciesSet("default", ss); err != nil {
		t.Fatal(err)
	}

	ru := m.resourceUnits[0]
	ru.Species = ss
	tr, err := NewTree(m.NewTreeID(), sp, ru, Index{X: 30, Y: 30}, 30, 20)
	if err != nil {
		t.Fatal(err)
	}
	st := NewStamp(16)
	for y := -8; y < 8; y++ {
		for x := -8; x < 8; x++ {
			st.Set(x, y, 0.3)
		}
	}
	st.SetReader(NewStamp(4))
	tr.Stamp = st
	tr.Opacity = 1
	tr.Foliage = 5
	tr.LeafArea = 30
	ru.Trees = append(ru.Trees, tr)

	dbhBefore := tr.Dbh
	if err := m.RunYear(); err != nil {
		t.Fatal(err)
	}
	if len(ru.Trees) != 1 {
		t.Fatalf("len(ru.Trees) = %d, want the single tree to survive its first year", len(ru.Trees))
	}
	if ru.Trees[0].Dbh < dbhBefore {
		t.Errorf("dbh shrank from %v to %v", dbhBefore, ru.Trees[0].Dbh)
	}
	if ru.Trees[0].LRI < 0 || ru.Trees[0].LRI > 1 {
		t.Errorf("LRI = %v, want in [0,1] (§8 property 3)", ru.Trees[0].LRI)
	}
}

func TestApplyPatternKeepsLIFWithinFloor(t *testing.T) {
	cfg := testConfig()
	m, err := NewModel(cfg)
	if err != nil {
		t.Fatal(err)
	}
	sp := testTreeSpecies(t)
	ss := species.NewSpeciesSet[*Stamp]()
	_ = ss.Add(sp)
	if err := m.AddSpeciesSet("default", ss); err != nil {
		t.Fatal(err)
	}

	ru := m.resourceUnits[0]
	ru.Species = ss
	tr, err := NewTree(m.NewTreeID(), sp, ru, Index{X: 30, Y: 30}, 30, 20)
	if err != nil {
		t.Fatal(err)
	}
	st := NewStamp(16)
	for y := -8; y < 8; y++ {
		for x := -8; x < 8; x++ {
			st.Set(x, y, 0.99)
		}
	}
	st.SetReader(NewStamp(4))
	tr.Stamp = st
	tr.Opacity = 1
	ru.Trees = append(ru.Trees, tr)

	if err := m.applyPattern(); err != nil {
		t.Fatal(err)
	}
	for i, v := range m.LIF.Data() {
		if v < 0.02 || v > 1 {
			t.Fatalf("LIF cell %d = %v, want in [0.02, 1] (§8 property 2)", i, v)
		}
	}
}

func TestTorusIndexWrapsWithinResourceUnit(t *testing.T) {
	// A cell one past the east edge of the first 50-wide RU (ruOffset=0,
	// buffer=10, so the RU's block is [10, 60)) should wrap back to the RU's
	// own west edge.
	got := TorusIndex(10+50, 50, 10, 0)
	if got != 10 {
		t.Errorf("TorusIndex wrapped to %d, want 10 (the RU's west edge)", got)
	}
	got = TorusIndex(10-1, 50, 10, 0)
	if got != 10+49 {
		t.Errorf("TorusIndex wrapped to %d, want %d (the RU's east edge)", got, 10+49)
	}
}

func TestApplyEnvironmentAssignsSpeciesAndClimateByMatrixIndex(t *testing.T) {
	m, err := NewModel(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	sp := testTreeSpecies(t)
	ss := species.NewSpeciesSet[*Stamp]()
	if err := ss.Add(sp); err != nil {
		t.Fatal(err)
	}
	if err := m.AddSpeciesSet("default", ss); err != nil {
		t.Fatal(err)
	}

	cl, err := climate.Load("site1", []climate.Day{{Year: 1, Month: 1, DOY: 1, TempAvg: 5}})
	if err != nil {
		t.Fatal(err)
	}
	m.AddClimate("site1", cl)

	csv := "x,y,model.species.source,model.climate.tableName\n0,0,default,site1\n"
	env, err := environment.Load(strings.NewReader(csv), environment.Matrix)
	if err != nil {
		t.Fatal(err)
	}

	unresolved := m.ApplyEnvironment(env)
	if len(unresolved) != 0 {
		t.Fatalf("unresolved = %v, want none", unresolved)
	}

	var ru *ResourceUnit
	for _, r := range m.resourceUnits {
		if r.Index.X == 0 && r.Index.Y == 0 {
			ru = r
		}
	}
	if ru == nil {
		t.Fatal("no resource unit at index (0,0)")
	}
	if ru.Species != ss {
		t.Error("resource unit (0,0) should have the matched species set")
	}
	if ru.Climate != cl {
		t.Error("resource unit (0,0) should have the matched climate")
	}
}

func TestApplyEnvironmentReportsUnresolvedNames(t *testing.T) {
	m, err := NewModel(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	csv := "x,y,model.species.source\n0,0,missing\n"
	env, err := environment.Load(strings.NewReader(csv), environment.Matrix)
	if err != nil {
		t.Fatal(err)
	}
	unresolved := m.ApplyEnvironment(env)
	if len(unresolved) != 1 {
		t.Fatalf("unresolved = %v, want one entry for the unregistered species source", unresolved)
	}
}

func TestHarvestAboveDbh(t *testing.T) {
	m, err := NewModel(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	sp := testTreeSpecies(t)
	ru := m.resourceUnits[0]
	for i := 0; i < 10; i++ {
		tr, err := NewTree(i, sp, ru, Index{}, 10, 10)
		if err != nil {
			t.Fatal(err)
		}
		ru.Trees = append(ru.Trees, tr)
	}
	ru.Trees[0].Dbh = 80
	n := m.HarvestAboveDbh(50)
	if n != 1 {
		t.Fatalf("HarvestAboveDbh = %d, want 1", n)
	}
	if !ru.Trees[0].IsDead() {
		t.Error("harvested tree should be flagged dead")
	}
}
