package modules

import "testing"

type fakeCtx struct {
	year          int
	killed, harvested []float64
}

func (c *fakeCtx) Year() int                        { return c.year }
func (c *fakeCtx) ResourceUnitCount() int            { return 1 }
func (c *fakeCtx) KillFraction(frac float64) int     { c.killed = append(c.killed, frac); return 1 }
func (c *fakeCtx) HarvestAboveDbh(minDbh float64) int { c.harvested = append(c.harvested, minDbh); return 1 }

type recordingModule struct {
	name  string
	calls *[]string
}

func (m recordingModule) Name() string { return m.name }
func (m recordingModule) Setup(ctx Context) error         { *m.calls = append(*m.calls, m.name+":Setup"); return nil }
func (m recordingModule) YearBegin(ctx Context) error     { *m.calls = append(*m.calls, m.name+":YearBegin"); return nil }
func (m recordingModule) CalculateWater(ctx Context) error { *m.calls = append(*m.calls, m.name+":CalculateWater"); return nil }
func (m recordingModule) Run(ctx Context) error           { *m.calls = append(*m.calls, m.name+":Run"); return nil }

type noShuffleRand struct{}

func (noShuffleRand) Shuffle(n int, swap func(i, j int)) {}

func TestRegistryDispatchesAllLifecycleCallbacks(t *testing.T) {
	var calls []string
	r := NewRegistry()
	r.Register(recordingModule{name: "a", calls: &calls})
	r.Register(recordingModule{name: "b", calls: &calls})
	ctx := &fakeCtx{year: 5}

	if err := r.Setup(ctx, noShuffleRand{}); err != nil {
		t.Fatal(err)
	}
	if err := r.YearBegin(ctx, noShuffleRand{}); err != nil {
		t.Fatal(err)
	}
	if err := r.CalculateWater(ctx, noShuffleRand{}); err != nil {
		t.Fatal(err)
	}
	if err := r.Run(ctx, noShuffleRand{}); err != nil {
		t.Fatal(err)
	}

	want := []string{"a:Setup", "b:Setup", "a:YearBegin", "b:YearBegin", "a:CalculateWater", "b:CalculateWater", "a:Run", "b:Run"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestRegistryLen(t *testing.T) {
	r := NewRegistry()
	r.Register(recordingModule{name: "a", calls: &[]string{}})
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}
