/*
Copyright © 2013 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package climate holds daily climate time series and the monthly
// aggregates derived from them, mirroring how the teacher reduces a raw
// per-timestep meteorology array to the summary statistics a downstream
// science routine actually consumes (see the monthly/annual reductions in
// run.go's Results()) rather than re-scanning daily records on every call.
package climate

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Day is one daily climate observation. Temperatures are in Celsius,
// precipitation in mm, radiation in MJ/m2/day, VPD in kPa.
type Day struct {
	Year    int
	Month   int // 1-12
	DOY     int // day of year, 1-based
	TempMin float64
	TempMax float64
	TempAvg float64
	Precip  float64
	Radiation float64
	VPD     float64
}

// Month is a monthly aggregate of a Climate's daily records, cached by
// nextYear() so per-tree growth code (§4.3) never re-sums daily records.
type Month struct {
	Year           int
	Month          int
	MeanTemp       float64
	PrecipSum      float64
	RadiationSum   float64
	GDD            float64 // growing-degree-days accumulated within the month, base 5C
	FrostDays      int
}

// Climate is one named daily climate series (selected per resource unit via
// the Environment CSV's model.climate.tableName column, §6) plus the
// derived monthly/annual aggregates for the years it has already advanced
// through.
type Climate struct {
	Name string

	days []Day // sorted by (Year, DOY), immutable after Load

	yearStart int // index into days of the first day of the current year
	yearEnd   int // index one past the last day of the current year (exclusive)
	curYear   int

	months []Month // aggregates for curYear, rebuilt each nextYear()

	annualTempSum   float64 // temperature-sum (degree-days, base 0C) for curYear
	annualFrostDays int
	annualMeanTemp  float64
	annualPrecip    float64
}

// Load builds a Climate from an unsorted slice of daily records, sorting
// them into chronological order and positioning the series immediately
// before its first year (so the first nextYear() call lands on it).
func Load(name string, days []Day) (*Climate, error) {
	if len(days) == 0 {
		return nil, fmt.Errorf("climate %q: no daily records", name)
	}
	cp := make([]Day, len(days))
	copy(cp, days)
	sort.Slice(cp, func(i, j int) bool {
		if cp[i].Year != cp[j].Year {
			return cp[i].Year < cp[j].Year
		}
		return cp[i].DOY < cp[j].DOY
	})
	c := &Climate{Name: name, days: cp, curYear: cp[0].Year - 1}
	return c, nil
}

// CurrentYear returns the calendar year the climate is currently positioned
// at (the year before the first year of data, before the first NextYear()
// call of a run).
func (c *Climate) CurrentYear() int { return c.curYear }

// NextYear advances the series by one calendar year, rebuilding the monthly
// and annual aggregates for the new year (§4.10: "for each Climate c:
// c.nextYear()"). Returns false if no further years of data are available,
// in which case the series holds at the last year it successfully loaded.
func (c *Climate) NextYear() bool {
	target := c.curYear + 1
	start := -1
	end := len(c.days)
	for i, d := range c.days {
		if d.Year == target && start == -1 {
			start = i
		}
		if d.Year > target {
			end = i
			break
		}
	}
	if start == -1 {
		return false
	}
	c.curYear = target
	c.yearStart, c.yearEnd = start, end
	c.rebuildAggregates()
	return true
}

func (c *Climate) rebuildAggregates() {
	byMonth := make(map[int][]Day)
	c.annualTempSum = 0
	c.annualFrostDays = 0
	c.annualPrecip = 0
	var temps []float64
	for _, d := range c.days[c.yearStart:c.yearEnd] {
		byMonth[d.Month] = append(byMonth[d.Month], d)
		if d.TempAvg > 0 {
			c.annualTempSum += d.TempAvg
		}
		if d.TempMin < 0 {
			c.annualFrostDays++
		}
		c.annualPrecip += d.Precip
		temps = append(temps, d.TempAvg)
	}
	c.annualMeanTemp = stat.Mean(temps, nil)

	c.months = c.months[:0]
	for m := 1; m <= 12; m++ {
		rows, ok := byMonth[m]
		if !ok {
			continue
		}
		month := Month{Year: c.curYear, Month: m}
		var mtemps []float64
		for _, d := range rows {
			mtemps = append(mtemps, d.TempAvg)
			month.PrecipSum += d.Precip
			month.RadiationSum += d.Radiation
			if d.TempAvg > 5 {
				month.GDD += d.TempAvg - 5
			}
			if d.TempMin < 0 {
				month.FrostDays++
			}
		}
		month.MeanTemp = stat.Mean(mtemps, nil)
		c.months = append(c.months, month)
	}
}

// Days returns the current year's daily records, in chronological order.
func (c *Climate) Days() []Day { return c.days[c.yearStart:c.yearEnd] }

// Months returns the current year's monthly aggregates, in calendar order.
func (c *Climate) Months() []Month { return c.months }

// AnnualTemperatureSum returns the sum of positive daily mean temperatures
// over the current year (a standard growing-degree accumulator used by
// p_abiotic's temperature-sum response, §4.7).
func (c *Climate) AnnualTemperatureSum() float64 { return c.annualTempSum }

// AnnualFrostDays returns the count of days with TempMin < 0 in the current
// year, feeding p_abiotic's frost-day response.
func (c *Climate) AnnualFrostDays() int { return c.annualFrostDays }

// AnnualMeanTemperature returns the mean daily temperature over the current
// year, used by the permafrost module's 10-year running deep-soil
// temperature mean (§4.9).
func (c *Climate) AnnualMeanTemperature() float64 { return c.annualMeanTemp }

// AnnualPrecipitation returns total precipitation over the current year, mm.
func (c *Climate) AnnualPrecipitation() float64 { return c.annualPrecip }
