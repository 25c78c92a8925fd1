package climate

import (
	"testing"

	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/go-cmp/cmp"
)

func sampleDays() []Day {
	var days []Day
	doy := 1
	for _, m := range []struct {
		month int
		n     int
		temp  float64
	}{{1, 31, -2}, {7, 31, 20}} {
		for i := 0; i < m.n; i++ {
			days = append(days, Day{Year: 2020, Month: m.month, DOY: doy, TempAvg: m.temp, TempMin: m.temp - 3, TempMax: m.temp + 3, Precip: 1})
			doy++
		}
	}
	for i := 0; i < 31; i++ {
		days = append(days, Day{Year: 2021, Month: 1, DOY: i + 1, TempAvg: 1, TempMin: -1, TempMax: 3, Precip: 2})
	}
	return days
}

func TestNextYearAdvancesAndAggregates(t *testing.T) {
	c, err := Load("test", sampleDays())
	if err != nil {
		t.Fatal(err)
	}
	if !c.NextYear() {
		t.Fatal("expected a first year of data")
	}
	if c.CurrentYear() != 2020 {
		t.Fatalf("CurrentYear() = %d, want 2020", c.CurrentYear())
	}
	if got := c.AnnualFrostDays(); got != 31 {
		t.Errorf("AnnualFrostDays() = %d, want 31 (January only, all below 0)", got)
	}
	months := c.Months()
	if len(months) != 2 {
		t.Fatalf("len(Months()) = %d, want 2", len(months))
	}
	if diff := cmp.Diff(20.0, months[1].MeanTemp, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("July mean temp (-want +got):\n%s", diff)
	}

	if !c.NextYear() {
		t.Fatal("expected a second year of data")
	}
	if c.CurrentYear() != 2021 {
		t.Fatalf("CurrentYear() = %d, want 2021", c.CurrentYear())
	}
	if c.NextYear() {
		t.Fatal("expected no third year of data")
	}
}

func TestLoadRejectsEmpty(t *testing.T) {
	if _, err := Load("empty", nil); err == nil {
		t.Fatal("expected error loading empty climate series")
	}
}
