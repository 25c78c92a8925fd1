package forest

import "testing"

func TestLRImodifierDefaultsTo1WhenWLAZero(t *testing.T) {
	ru := NewResourceUnit(Index{}, 0, 10000, 10000, NewRand(1, 0))
	ru.UpdateLRImodifier()
	if ru.LRImodifier != 1 {
		t.Errorf("LRImodifier = %v, want 1 when WLA == 0", ru.LRImodifier)
	}
}

func TestLRImodifierScalesUnderstockedUnit(t *testing.T) {
	ru := NewResourceUnit(Index{}, 0, 10000, 10000, NewRand(1, 0))
	ru.WLA = 100
	ru.LRIsum = 50 // mean LRI 0.5, understocked relative to cStockedAreaPerRU
	ru.UpdateLRImodifier()
	if ru.LRImodifier <= 1 {
		t.Errorf("LRImodifier = %v, want > 1 for an understocked unit", ru.LRImodifier)
	}
}

func TestCleanTreeListCompactsDeadTrees(t *testing.T) {
	sp := testTreeSpecies(t)
	ru := NewResourceUnit(Index{}, 0, 10000, 10000, NewRand(1, 0))
	for i := 0; i < 3; i++ {
		tr, err := NewTree(i, sp, ru, Index{}, 10, 10)
		if err != nil {
			t.Fatal(err)
		}
		ru.Trees = append(ru.Trees, tr)
	}
	ru.Trees[1].SetDead()
	ru.CleanTreeList(true)
	if len(ru.Trees) != 2 {
		t.Fatalf("len(Trees) = %d, want 2 after compaction", len(ru.Trees))
	}
	for _, tr := range ru.Trees {
		if tr.IsDead() {
			t.Error("compacted list still contains a dead tree")
		}
	}
}

func TestNotStockableUnitIsAddressable(t *testing.T) {
	ru := NewResourceUnit(Index{X: 3, Y: 4}, -1, 10000, 0, NewRand(1, 0))
	if ru.IsStockable() {
		t.Error("expected IsStockable() == false for id == -1")
	}
	if ru.Index.X != 3 || ru.Index.Y != 4 {
		t.Error("not-stockable unit should still carry its grid index")
	}
}
