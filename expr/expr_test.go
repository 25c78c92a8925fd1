package expr

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestEvalArithmetic(t *testing.T) {
	e, err := New("2*x + 1")
	if err != nil {
		t.Fatal(err)
	}
	got, err := e.Eval1("x", 3)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(7.0, got); diff != "" {
		t.Errorf("unexpected value (-want +got):\n%s", diff)
	}
}

func TestEvalBuiltins(t *testing.T) {
	tests := []struct {
		src  string
		vars map[string]float64
		want float64
	}{
		{"min(3, 1, 2)", nil, 1},
		{"max(3, 1, 2)", nil, 3},
		{"if(x > 0, 1, -1)", map[string]float64{"x": 5}, 1},
		{"if(x > 0, 1, -1)", map[string]float64{"x": -5}, -1},
		{"sqrt(x)", map[string]float64{"x": 16}, 4},
		{"polygon(x, 0,0, 10,100)", map[string]float64{"x": 5}, 50},
		{"polygon(x, 0,0, 10,100)", map[string]float64{"x": -5}, 0},
		{"polygon(x, 0,0, 10,100)", map[string]float64{"x": 50}, 100},
	}
	for _, tt := range tests {
		e, err := New(tt.src)
		if err != nil {
			t.Fatalf("%s: %v", tt.src, err)
		}
		got, err := e.Eval(NewMapBinder(tt.vars))
		if err != nil {
			t.Fatalf("%s: %v", tt.src, err)
		}
		if diff := cmp.Diff(tt.want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
			t.Errorf("%s: unexpected value (-want +got):\n%s", tt.src, diff)
		}
	}
}

func TestEvalStrictUnbound(t *testing.T) {
	e, err := New("x + y")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.EvalStrict(NewMapBinder(map[string]float64{"x": 1})); err == nil {
		t.Fatal("expected error for unbound variable y")
	}
}

func TestLinearize1DExactAtEndpoints(t *testing.T) {
	e, err := New("x*x")
	if err != nil {
		t.Fatal(err)
	}
	f, err := e.Linearize1D("x", 0, 10, 20)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(0.0, f(0), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("lo endpoint: (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(100.0, f(10), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("hi endpoint: (-want +got):\n%s", diff)
	}
}

func TestLinearize1DErrorShrinksWithSteps(t *testing.T) {
	e, err := New("x*x")
	if err != nil {
		t.Fatal(err)
	}
	coarse, err := New("x*x")
	if err != nil {
		t.Fatal(err)
	}
	fFine, err := e.Linearize1D("x", 0, 10, 200)
	if err != nil {
		t.Fatal(err)
	}
	fCoarse, err := coarse.Linearize1D("x", 0, 10, 5)
	if err != nil {
		t.Fatal(err)
	}
	x := 3.3
	want := x * x
	errFine := math.Abs(fFine(x) - want)
	errCoarse := math.Abs(fCoarse(x) - want)
	if errFine > errCoarse {
		t.Errorf("expected finer linearization to have lower error: fine=%v coarse=%v", errFine, errCoarse)
	}
}

func TestLinearize2DExactAtCorners(t *testing.T) {
	e, err := New("lri * rh")
	if err != nil {
		t.Fatal(err)
	}
	f, err := e.Linearize2D("lri", "rh", 0, 1, 10, 0, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(0.0, f(0, 0), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("corner (0,0): (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(1.0, f(1, 1), cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("corner (1,1): (-want +got):\n%s", diff)
	}
}
