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

package regen

import (
	"math"

	"github.com/dendrolab/forest/species"
)

// Randomizer is the minimal facade Establishment needs from the model's
// thread-safe random generator (§5), kept as a tiny local interface so this
// package never imports the root forest package (see package doc).
type Randomizer interface {
	Float64() float64
}

// AbioticParams are the per-species response-curve parameters combined into
// p_abiotic (§4.7): temperature-sum, frost-day, moisture and nitrogen
// responses. The specification leaves their functional form unspecified
// beyond naming the four drivers; these follow iLand's typical
// Michaelis-Menten-shaped responses (original_source/src/core/species.cpp's
// *Response functions), each saturating toward 1 as its driver exceeds the
// species' minimum requirement.
type AbioticParams struct {
	MinTempSum   float64 // degree-days (base 0C) below which establishment is impossible
	MaxFrostDays int     // frost days above which establishment is impossible
	KMoisture    float64 // half-saturation constant for the moisture response
	KNitrogen    float64 // half-saturation constant (kg/ha) for the nitrogen response
}

// saturating returns x/(x+k) for k > 0, 1 for k <= 0 (no limitation
// configured), the Michaelis-Menten response shape iLand uses throughout
// its site-response functions.
func saturating(x, k float64) float64 {
	if k <= 0 {
		return 1
	}
	if x < 0 {
		x = 0
	}
	return x / (x + k)
}

// PAbiotic combines the four site drivers into the establishment
// probability multiplier of §4.7.
func PAbiotic(p AbioticParams, tempSum float64, frostDays int, moisture, nitrogen float64) float64 {
	if tempSum < p.MinTempSum {
		return 0
	}
	if p.MaxFrostDays > 0 && frostDays > p.MaxFrostDays {
		return 0
	}
	return saturating(moisture, p.KMoisture) * saturating(nitrogen, p.KNitrogen)
}

// saplingReaderRelativeHeight is the nominal 4 m sapling height §4.7 uses
// for the LRI correction lookup ("LRIcorrection(lif[cell], 4/dominant_height)").
const saplingReaderRelativeHeight = 4.0

// Establishment evaluates the §4.7 establishment screen for one species on
// one 2 m cell and, if it succeeds, installs a new sapling. grassEffect
// multiplicatively dampens pAbiotic (§3.1 supplement, GrassCover); pass 1
// when grass cover is disabled.
func Establishment(cell *Cell, sp *species.Species, lif, dominantHeight, seedValue, pAbiotic, grassEffect float64, rnd Randomizer) bool {
	if cell.MaxHeight() >= PromotionHeight {
		return false
	}
	if cell.Has(sp.ID) {
		return false
	}
	relHeight := 1.0
	if dominantHeight > 0 {
		relHeight = saplingReaderRelativeHeight / dominantHeight
	}
	lifCorrected := sp.LRICorrection(lif, relHeight)
	r := rnd.Float64()
	if seedValue*pAbiotic*grassEffect*lifCorrected > r {
		cell.Establish(sp.ID)
		return true
	}
	return false
}
