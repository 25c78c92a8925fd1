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

// Package soil implements the ICBM/2N (Kötterer & Andrén 2001) analytically
// integrated annual soil carbon-nitrogen pool solver, ported from
// original_source/src/core/soil.cpp: two young pools (labile and
// refractory litter) feeding a single old (SOM) pool, each with its own
// first-order decay rate.
package soil

import (
	"fmt"
	"math"
)

// Flux is a carbon+nitrogen input or output quantity, in t/ha.
type Flux struct {
	C, N float64
}

// CN returns the C:N ratio of the flux, or 0 if it carries no nitrogen
// (an empty flux, per §4.6's "0 if IL empty").
func (f Flux) CN() float64 {
	if f.N == 0 {
		return 0
	}
	return f.C / f.N
}

// Params are the site-level ICBM/2N rate parameters (§6
// model.settings.soil.* and model.site.somDecompRate/soilHumificationRate).
type Params struct {
	KYL float64 // k_l: young labile pool decomposition rate, 1/yr
	KYR float64 // k_r: young refractory pool decomposition rate, 1/yr
	KO  float64 // k_o: SOM decomposition rate, 1/yr

	H float64 // humification fraction

	QB float64 // microbial C/N ratio
	QH float64 // SOM C/N ratio

	EL float64 // labile pool microbial efficiency
	ER float64 // refractory pool microbial efficiency

	Leaching float64 // N leaching fraction
}

// Validate enforces §6's site-parameterization invariants ("fail with
// InvalidSite if... qb, qh, el, er, leach, h, k_o fall outside (0, 1]
// except qb, qh which are open-ended positive") plus §4.6's "all C, N, and
// rate parameters are strictly positive at setup" invariant for KYL/KYR.
func (p Params) Validate() error {
	if p.QB <= 0 || p.QH <= 0 {
		return fmt.Errorf("soil: qb and qh must be positive, got qb=%v qh=%v", p.QB, p.QH)
	}
	for name, v := range map[string]float64{"el": p.EL, "er": p.ER, "leach": p.Leaching, "h": p.H} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("soil: %s must be in (0, 1], got %v", name, v)
		}
	}
	for name, v := range map[string]float64{"k_l": p.KYL, "k_r": p.KYR, "k_o": p.KO} {
		if v <= 0 {
			return fmt.Errorf("soil: %s must be strictly positive, got %v", name, v)
		}
	}
	return nil
}

// Pool is one ResourceUnit's ICBM/2N state: young labile (YL), young
// refractory (YR) and old (SOM) carbon-nitrogen pools (§3, §4.6).
type Pool struct {
	Params Params

	YL Flux
	YR Flux
	SOM Flux

	AvailableNitrogen float64 // kg/ha, derived each AdvanceYear call
}

// NewPool validates params and returns a Pool with the given initial state.
func NewPool(params Params, yl, yr, som Flux) (*Pool, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if yl.C <= 0 || yr.C <= 0 || som.C <= 0 {
		return nil, fmt.Errorf("soil: initial pool carbon must be strictly positive")
	}
	return &Pool{Params: params, YL: yl, YR: yr, SOM: som}, nil
}

// AdvanceYear integrates the pools forward one year given this year's
// litter (il) and woody (ir) inputs and the climate decomposition factor
// re, following the closed-form annual solution in §4.6 (a direct
// translation of SoilParams::calculateYear in soil.cpp).
func (p *Pool) AdvanceYear(il, ir Flux, re float64) error {
	pm := p.Params

	ylSS := 0.0
	if il.C > 0 {
		ylSS = il.C / (pm.KYL * re)
	}
	yrSS := 0.0
	if ir.C > 0 {
		yrSS = ir.C / (pm.KYR * re)
	}
	inTotalC := il.C + ir.C
	oSS := pm.H * inTotalC / (pm.KO * re)

	cl := pm.EL*(1-pm.H)/pm.QB - pm.H*(1-pm.EL)/pm.QH
	cr := pm.ER*(1-pm.H)/pm.QB - pm.H*(1-pm.ER)/pm.QH

	ynlSS := 0.0
	if il.C > 0 && il.CN() > 0 {
		ynlSS = il.C / (pm.KYL * re * (1 - pm.H)) * ((1-pm.EL)/il.CN() + cl)
	}
	ynrSS := 0.0
	if ir.C > 0 && ir.CN() > 0 {
		ynrSS = ir.C / (pm.KYR * re * (1 - pm.H)) * ((1-pm.ER)/ir.CN() + cr)
	}

	al := pm.H * (pm.KYL*re*p.YL.C - il.C) / ((pm.KO - pm.KYL) * re)
	ar := pm.H * (pm.KYR*re*p.YR.C - ir.C) / ((pm.KO - pm.KYR) * re)

	lfactor := math.Exp(-pm.KYL * re)
	rfactor := math.Exp(-pm.KYR * re)

	newYLC := ylSS + (p.YL.C-ylSS)*lfactor
	newYLN := ynlSS +
		(p.YL.N-ynlSS-cl/(pm.EL-pm.H)*(p.YL.C-ylSS))*math.Exp(-pm.KYL*re*(1-pm.H)/(1-pm.EL)) +
		cl/(pm.EL-pm.H)*(p.YL.C-ylSS)*lfactor

	newYRC := yrSS + (p.YR.C-yrSS)*rfactor
	newYRN := ynrSS +
		(p.YR.N-ynrSS-cr/(pm.ER-pm.H)*(p.YR.C-yrSS))*math.Exp(-pm.KYR*re*(1-pm.H)/(1-pm.ER)) +
		cr/(pm.ER-pm.H)*(p.YR.C-yrSS)*rfactor

	onSS := oSS / pm.QH

	newSOMC := oSS + (p.SOM.C-oSS-al-ar)*math.Exp(-pm.KO*re) + al*lfactor + ar*rfactor
	newSOMN := onSS + (p.SOM.N-onSS-(al+ar)/pm.QH)*math.Exp(-pm.KO*re) +
		al/pm.QH*lfactor + ar/pm.QH*rfactor

	p.YL = Flux{C: newYLC, N: newYLN}
	p.YR = Flux{C: newYRC, N: newYRN}
	p.SOM = Flux{C: newSOMC, N: newSOMN}

	navLabile := pm.KYL * re * (1 - pm.H) / (1 - pm.EL) * (p.YL.N - pm.EL*p.YL.C/pm.QB)
	navRefr := pm.KYR * re * (1 - pm.H) / (1 - pm.ER) * (p.YR.N - pm.ER*p.YR.C/pm.QB)
	navSOM := pm.KO * re * p.SOM.N * (1 - pm.Leaching)
	nav := (navLabile + navRefr + navSOM) * 1000 // t/ha -> kg/ha
	if nav < 0 {
		nav = 0
	}
	p.AvailableNitrogen = nav

	if p.YL.C < 0 || p.YR.C < 0 || p.SOM.C < 0 {
		return fmt.Errorf("soil: pool carbon went negative after integration (YL.C=%v YR.C=%v SOM.C=%v)", p.YL.C, p.YR.C, p.SOM.C)
	}
	return nil
}
