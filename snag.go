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

package forest

import "github.com/dendrolab/forest/soil"

// Snag is a ResourceUnit's standing-dead/litter turnover inbox: senesced
// foliage and fine roots (litter pool) and coarse woody/root debris (woody
// pool) accumulate here during tree growth (§4.3 steps 5-6) until
// CarbonCycle converts them into the year's ICBM/2N inputs.
type Snag struct {
	litterC, litterN float64
	woodC, woodN     float64

	// CNRatioFoliage and CNRatioWood convert a tree's senesced biomass (C
	// only) into the (C, N) pairs the soil solver needs; iLand keeps these
	// per-species, but a single ratio per pool is a faithful simplification
	// given the specification leaves species parameterization unspecified.
	CNRatioFoliage float64
	CNRatioWood    float64
}

// NewSnag returns an empty Snag with representative C:N ratios (foliage
// litter decomposes faster and has a tighter C:N ratio than woody debris).
func NewSnag() *Snag {
	return &Snag{CNRatioFoliage: 40, CNRatioWood: 150}
}

// AddLitter deposits senesced foliage/fine-root carbon (kg) into the litter
// (young labile) inbox.
func (s *Snag) AddLitter(massC float64) {
	s.litterC += massC
	s.litterN += massC / s.CNRatioFoliage
}

// AddWoody deposits coarse wood/root turnover carbon (kg) into the woody
// (young refractory) inbox.
func (s *Snag) AddWoody(massC float64) {
	s.woodC += massC
	s.woodN += massC / s.CNRatioWood
}

// Turnover drains the year's accumulated litter and woody inputs as the
// (IL, IR) pair the soil solver consumes, converting kg/ha (tree-level,
// already per-unit since a ResourceUnit is ~1 ha) to t/ha as the ICBM/2N
// pools are kept internally (§4.6: "pools are kept in t/ha internally").
func (s *Snag) Turnover() (il, ir soil.Flux) {
	const kgToT = 1.0 / 1000
	il = soil.Flux{C: s.litterC * kgToT, N: s.litterN * kgToT}
	ir = soil.Flux{C: s.woodC * kgToT, N: s.woodN * kgToT}
	s.litterC, s.litterN = 0, 0
	s.woodC, s.woodN = 0, 0
	return il, ir
}
