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

// Package permafrost implements the seasonal active-layer freeze/thaw model
// coupled to a ResourceUnit's water cycle, ported from
// original_source/src/core/permafrost.cpp (§4.9).
package permafrost

import (
	"fmt"
	"math"
)

const maxPermafrostDepth = 2.0 // m; soil below this depth is never tracked

// Params are the site's thermal/geometric permafrost parameters
// (§6 model.settings.permafrost.*).
type Params struct {
	DeepSoilDepth        float64 // m
	LambdaSnow           float64 // W/m/K
	LambdaOrganicLayer   float64 // W/m/K
	OrganicLayerDensity  float64 // kg/m3
	MaxFreezeThawPerDay  float64 // mm/day
	OnlySimulate         bool    // diagnostics only, no water-cycle feedback
	EFusion              float64 // MJ/litre, latent heat of fusion of water
	InitialDepthFrozen   float64 // m
	OrganicLayerDefaultDepth float64
}

// Validate enforces §4.9's "fails with PermafrostInvalidParameter if
// lambdaSnow * lambdaOrganicLayer = 0".
func (p Params) Validate() error {
	if p.LambdaSnow*p.LambdaOrganicLayer == 0 {
		return fmt.Errorf("permafrost: lambdaSnow or lambdaOrganicLayer is invalid (0)")
	}
	return nil
}

// WaterCycle is the minimal water-bucket contract the active layer reads
// from and writes back to; a concrete water-cycle implementation satisfies
// it.
type WaterCycle struct {
	Content           float64 // mm, current soil water content
	FieldCapacity     float64 // mm
	PermanentWiltingPoint float64 // mm
	SoilDepthMM       float64 // mm, total modeled soil depth
	SnowDepth         float64 // m
	ThetaSat          float64 // porosity, volumetric fraction
	SoilIsCoarseSand  bool    // >= 50% sand
}

// ActiveLayer tracks one ResourceUnit's frozen/thawed active-layer
// geometry and the derived thermal conductivities (§3, §4.9).
type ActiveLayer struct {
	Params Params

	top        float64 // m, depth to top of the frozen zone
	bottom     float64 // m, depth to bottom of the frozen zone
	topFrozen  bool
	freezeBack float64 // m

	deepSoilTemperature float64 // 10-yr running mean annual air temp, C
	solDepth            float64 // m, organic layer depth

	soilDepth float64 // m, WaterCycle.SoilDepthMM / 1000
	fc, pwp   float64 // cached initial field capacity / PWP

	currentSoilFrozen float64 // m
	currentWaterFrozen float64 // mm

	kDry, kSat, kIce float64

	MaxFreezeDepth float64
	MaxThawDepth   float64
	MaxSnowDepth   float64
}

// Setup validates params and initializes the active layer against the
// given water cycle snapshot (§4.9's setup()). pctSand/pctClay parameterize
// thermal conductivity via Farouki's relation.
func Setup(params Params, wc *WaterCycle, pctSand, pctClay float64) (*ActiveLayer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	a := &ActiveLayer{Params: params}
	if params.InitialDepthFrozen < maxPermafrostDepth {
		a.bottom = params.InitialDepthFrozen
	} else {
		a.bottom = maxPermafrostDepth
	}
	a.top = 0
	a.topFrozen = true
	a.freezeBack = 0
	a.solDepth = params.OrganicLayerDefaultDepth
	a.soilDepth = wc.SoilDepthMM / 1000
	a.pwp = wc.PermanentWiltingPoint
	a.fc = wc.FieldCapacity

	a.currentSoilFrozen = math.Min(params.InitialDepthFrozen, a.soilDepth)
	fracFrozen := 0.0
	if a.soilDepth > 0 {
		fracFrozen = a.currentSoilFrozen / a.soilDepth
	}
	a.currentWaterFrozen = wc.Content * fracFrozen

	if !params.OnlySimulate {
		wc.Content -= a.currentWaterFrozen
		wc.SoilDepthMM -= a.currentSoilFrozen * 1000
		wc.FieldCapacity = a.fc * (1 - fracFrozen)
		wc.PermanentWiltingPoint = a.pwp * (1 - fracFrozen)
	}

	a.setupThermalConductivity(wc, pctSand, pctClay)
	return a, nil
}

func (a *ActiveLayer) setupThermalConductivity(wc *WaterCycle, pctSand, pctClay float64) {
	a.Params.LambdaSnow = a.Params.LambdaSnow // no-op, documents that these are fixed at setup
	vwcSat := wc.ThetaSat
	rhoSoil := 2700 * (1 - vwcSat)
	a.kDry = (0.135*rhoSoil + 64.7) / (2700 - 0.947*rhoSoil)

	const kWater = 0.57
	const kIce = 2.29
	kSol := (8.8*pctSand + 2.92*pctClay) / (pctSand + pctClay)
	a.kSat = math.Pow(kSol, 1-vwcSat) * math.Pow(kWater, vwcSat)
	a.kIce = math.Pow(kSol, 1-vwcSat) * math.Pow(kIce, vwcSat)
}

// NewYear recomputes the organic layer depth from the snag litter pools'
// aboveground biomass and updates the 10-year running deep-soil
// temperature mean (§4.9's newYear()). youngLabileAboveground/
// youngRefractoryAboveground are the t/ha aboveground biomass of the
// litter and woody snag pools (0 if no soil carbon cycle is active, in
// which case solDepth keeps its configured default).
func (a *ActiveLayer) NewYear(youngLabileAboveground, youngRefractoryAboveground, meanAnnualTemp float64) {
	totalBiomass := youngLabileAboveground + youngRefractoryAboveground
	if a.Params.OrganicLayerDensity > 0 && totalBiomass > 0 {
		a.solDepth = totalBiomass * 0.1 / a.Params.OrganicLayerDensity
	}
	a.deepSoilTemperature = 0.9*a.deepSoilTemperature + 0.1*meanAnnualTemp
}

// DeepSoilTemperature returns the current 10-year running mean used as the
// ground boundary condition.
func (a *ActiveLayer) DeepSoilTemperature() float64 { return a.deepSoilTemperature }

// Bottom and Top expose the active layer's current geometry, m.
func (a *ActiveLayer) Bottom() float64 { return a.bottom }
func (a *ActiveLayer) Top() float64    { return a.top }

// ftResult is one calcFreezeThaw call's output.
type ftResult struct {
	deltaMM   float64
	deltaSoil float64
	newDepth  float64
}

// calcFreezeThaw computes the thermal-resistance-driven freeze/thaw advance
// of the active layer boundary at depth "at", given daily mean temperature
// temp, following §4.9's Farouki-relation resistance stack: snow + organic
// layer + soil when fromAbove, or a fixed-distance deep-soil flux
// otherwise.
func (a *ActiveLayer) calcFreezeThaw(wc *WaterCycle, at, temp float64, lowerIceEdge, fromAbove bool) ftResult {
	result := ftResult{newDepth: at}
	if a.top == 0 && a.bottom == 0 && temp >= 0 {
		return result
	}
	if a.top == 0 && a.bottom >= maxPermafrostDepth && temp <= 0 {
		return result
	}

	const cTempIce = 0.0
	var rTotal float64
	if fromAbove {
		lambdaSoil := a.thermalConductivity(wc, false)
		rTotal = wc.SnowDepth/a.Params.LambdaSnow + a.solDepth/a.Params.LambdaOrganicLayer + math.Max(at, 0.05)/lambdaSoil
	} else {
		distToLayer := math.Max(a.Params.DeepSoilDepth-at, 0.5)
		lambdaSoil := a.thermalConductivity(wc, true)
		if temp < cTempIce {
			lambdaSoil = a.thermalConductivityFrozen()
		}
		rTotal = distToLayer / lambdaSoil
	}

	i := 1 / rTotal * (temp - cTempIce)
	eInput := i * 86400 / 1000000
	deltaMM := eInput / a.Params.EFusion
	deltaMM = math.Max(math.Min(deltaMM, a.Params.MaxFreezeThawPerDay), -a.Params.MaxFreezeThawPerDay)

	currentWaterContent := 0.0
	if wc.SoilDepthMM > 0 {
		currentWaterContent = wc.Content / wc.SoilDepthMM
	}
	if i > 0 && a.currentSoilFrozen > 0 {
		currentWaterContent = a.currentWaterFrozen / a.currentSoilFrozen / 1000
	}

	var deltaSoil float64
	if currentWaterContent > 0 && wc.SoilDepthMM > 100 && at < a.soilDepth {
		deltaSoil = deltaMM / currentWaterContent / 1000
	} else if a.fc > 0 {
		deltaSoil = deltaMM / (a.fc / a.soilDepth)
	}

	var newDepth float64
	if lowerIceEdge {
		newDepth = at - deltaSoil
	} else {
		newDepth = at + deltaSoil
	}

	if deltaSoil == 0 && deltaMM < 0 {
		deltaMM = 0
	}

	if newDepth < 0 {
		if deltaSoil != 0 {
			factor := math.Abs(at / deltaSoil)
			deltaMM *= factor
			deltaSoil *= factor
		}
		newDepth = 0
	} else if at > a.soilDepth && newDepth > a.soilDepth {
		deltaMM = 0
		deltaSoil = 0
	} else if (at <= a.soilDepth && newDepth > a.soilDepth) || (at >= a.soilDepth && newDepth < a.soilDepth) {
		if deltaSoil != 0 {
			factor := 1 - math.Abs((newDepth-a.soilDepth)/deltaSoil)
			deltaMM *= factor
			deltaSoil *= factor
		}
	}

	if newDepth > maxPermafrostDepth {
		newDepth = maxPermafrostDepth
	}

	return ftResult{deltaMM: deltaMM, deltaSoil: deltaSoil, newDepth: newDepth}
}

func (a *ActiveLayer) thermalConductivity(wc *WaterCycle, fromBelow bool) float64 {
	relWater := 1.0
	if !fromBelow && wc.FieldCapacity > 0.001 {
		relWater = clamp(wc.Content/wc.FieldCapacity, 0.001, 1)
	}
	var kE float64
	if wc.SoilIsCoarseSand {
		kE = 1 + 0.7*math.Log10(relWater)
	} else {
		kE = 1 + math.Log10(relWater)
	}
	return a.kDry + (a.kSat-a.kDry)*kE
}

func (a *ActiveLayer) thermalConductivityFrozen() float64 {
	relWater := 1.0
	if a.currentSoilFrozen > 0 {
		relWater = a.currentWaterFrozen / a.currentSoilFrozen * 0.001
	}
	return a.kDry + (a.kIce-a.kDry)*relWater
}

// Run advances the active layer by one day given the daily mean temperature
// and applies the resulting water-cycle feedback, following §4.9's daily
// state machine (thaw from above / freeze back / grow frozen layer / ground
// flux).
func (a *ActiveLayer) Run(wc *WaterCycle, meanTemp float64, isMarch1 bool) {
	var delta, deltaGround ftResult

	if meanTemp > 0 {
		if a.freezeBack > 0 {
			delta = a.calcFreezeThaw(wc, a.freezeBack, meanTemp, true, true)
			a.freezeBack = delta.newDepth
		} else {
			delta = a.calcFreezeThaw(wc, a.top, meanTemp, false, true)
			a.top = delta.newDepth
			if a.top > 0 {
				a.topFrozen = false
			}
			if a.top >= a.bottom {
				a.bottom = 0
				a.top = 0
				a.freezeBack = 0
			}
		}
	}
	if meanTemp < 0 {
		if a.topFrozen {
			delta = a.calcFreezeThaw(wc, a.bottom, meanTemp, true, true)
			a.bottom = delta.newDepth
		} else {
			delta = a.calcFreezeThaw(wc, a.freezeBack, meanTemp, true, true)
			a.freezeBack = delta.newDepth
			if a.freezeBack >= a.top {
				a.topFrozen = true
				a.bottom = math.Max(a.top, a.bottom)
				a.top = 0
				a.freezeBack = 0
			}
		}
		if isMarch1 {
			if a.freezeBack < a.top && a.freezeBack > 0 {
				a.topFrozen = true
				a.bottom = math.Max(a.top, a.bottom)
				a.freezeBack = 0
				a.top = 0
			}
		}
	}

	if a.deepSoilTemperature < 0 {
		deltaGround = a.calcFreezeThaw(wc, a.top, a.deepSoilTemperature, false, false)
		a.top = deltaGround.newDepth
	}
	if a.deepSoilTemperature > 0 {
		deltaGround = a.calcFreezeThaw(wc, a.bottom, a.deepSoilTemperature, true, false)
		a.bottom = deltaGround.newDepth
	}

	deltaMM := delta.deltaMM + deltaGround.deltaMM
	deltaSoil := delta.deltaSoil + deltaGround.deltaSoil

	if deltaMM != 0 && deltaSoil != 0 && !a.Params.OnlySimulate {
		wc.Content = math.Max(wc.Content+deltaMM, 0)
		a.currentWaterFrozen = clamp(a.currentWaterFrozen-deltaMM, 0, a.fc)

		wc.SoilDepthMM = math.Max(wc.SoilDepthMM+deltaSoil*1000, 0)
		a.currentSoilFrozen = clamp(a.currentSoilFrozen-deltaSoil, 0, a.soilDepth)

		unfrozen := 1.0
		if a.soilDepth > 0 {
			unfrozen = 1 - a.currentSoilFrozen/a.soilDepth
		}
		wc.PermanentWiltingPoint = math.Max(a.pwp*unfrozen, 0)
		wc.FieldCapacity = a.fc * unfrozen
		if wc.FieldCapacity < 0.000001 {
			wc.FieldCapacity = 0
			wc.PermanentWiltingPoint = 0
		}
		if wc.Content < 0.000001 {
			wc.Content = 0
		}
	}

	maxThaw := a.top
	if a.bottom == 0 {
		maxThaw = maxPermafrostDepth
	}
	a.MaxThawDepth = math.Max(a.MaxThawDepth, maxThaw)
	a.MaxFreezeDepth = math.Max(a.MaxFreezeDepth, a.bottom)
	a.MaxSnowDepth = math.Max(a.MaxSnowDepth, wc.SnowDepth)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
