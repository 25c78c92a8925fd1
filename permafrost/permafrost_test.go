package permafrost

import "testing"

func baseParams() Params {
	return Params{
		DeepSoilDepth:       5,
		LambdaSnow:          0.3,
		LambdaOrganicLayer:  0.25,
		OrganicLayerDensity: 60,
		MaxFreezeThawPerDay: 10,
		EFusion:             0.334,
		InitialDepthFrozen:  1,
	}
}

func TestValidateRejectsZeroLambda(t *testing.T) {
	p := baseParams()
	p.LambdaSnow = 0
	if err := p.Validate(); err == nil {
		t.Fatal("expected error when lambdaSnow*lambdaOrganicLayer == 0")
	}
}

func TestSetupInitializesFromSeasonalDepth(t *testing.T) {
	wc := &WaterCycle{Content: 200, FieldCapacity: 250, PermanentWiltingPoint: 50, SoilDepthMM: 1000, ThetaSat: 0.4}
	a, err := Setup(baseParams(), wc, 40, 20)
	if err != nil {
		t.Fatal(err)
	}
	if a.Bottom() != 1 {
		t.Errorf("Bottom() = %v, want 1 (seasonal permafrost depth)", a.Bottom())
	}
	if a.Top() != 0 {
		t.Errorf("Top() = %v, want 0", a.Top())
	}
}

func TestNewYearUpdatesRunningMeanTemperature(t *testing.T) {
	wc := &WaterCycle{Content: 200, FieldCapacity: 250, PermanentWiltingPoint: 50, SoilDepthMM: 1000, ThetaSat: 0.4}
	a, err := Setup(baseParams(), wc, 40, 20)
	if err != nil {
		t.Fatal(err)
	}
	a.NewYear(1, 1, -5)
	first := a.DeepSoilTemperature()
	if first >= 0 {
		t.Errorf("DeepSoilTemperature() = %v, want < 0 after one cold year from a zero start", first)
	}
	for i := 0; i < 50; i++ {
		a.NewYear(1, 1, -5)
	}
	if a.DeepSoilTemperature() > -4.9 {
		t.Errorf("DeepSoilTemperature() = %v, want to asymptote near -5 after many years", a.DeepSoilTemperature())
	}
}

func TestRunGrowsFrozenLayerWhenCold(t *testing.T) {
	wc := &WaterCycle{Content: 200, FieldCapacity: 250, PermanentWiltingPoint: 50, SoilDepthMM: 1000, ThetaSat: 0.4, SnowDepth: 0.2}
	a, err := Setup(baseParams(), wc, 40, 20)
	if err != nil {
		t.Fatal(err)
	}
	startBottom := a.Bottom()
	for day := 0; day < 60; day++ {
		a.Run(wc, -10, false)
	}
	if a.Bottom() < startBottom {
		t.Errorf("Bottom() = %v, want >= starting depth %v after 60 cold days", a.Bottom(), startBottom)
	}
	if a.Bottom() > maxPermafrostDepth {
		t.Errorf("Bottom() = %v, want <= maxPermafrostDepth %v", a.Bottom(), maxPermafrostDepth)
	}
}
