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

import (
	"math"

	"github.com/dendrolab/forest/climate"
	"github.com/dendrolab/forest/permafrost"
	"github.com/dendrolab/forest/soil"
	"github.com/dendrolab/forest/species"
)

// SpeciesStat is a ResourceUnit's running per-species production and
// statistics block (§3 "ResourceUnit... a per-species statistics block").
type SpeciesStat struct {
	LeafAreaResponseSum float64 // sum of leafArea*lightResponse this year, the 3PG interception denominator
	GPPperArea          float64 // kg biomass / m2 / year, set by production(ru)
	LiveTrees           int
	TotalLeafArea       float64
}

// ResourceUnit is the 1-ha parallel-scheduling unit: it owns a contiguous,
// append-only tree list, per-species statistics, a Snag pool, a Soil pool,
// a Permafrost active-layer tracker and the LRI accumulator used to derive
// LRImodifier (§3, §4.4).
type ResourceUnit struct {
	ID int // -1 means "not stockable": addressable but growth is disabled

	Index    Index // position in the 100 m resource-unit grid
	RUArea   float64
	StockableArea float64

	Climate *climate.Climate
	Species *species.SpeciesSet[*Stamp]

	Trees []*Tree

	perSpecies map[string]*SpeciesStat

	// WLA/LRIsum accumulate during readPattern; LRImodifier is derived from
	// them once per year by calcLightResponse's caller (§4.4).
	WLA         float64
	LRIsum      float64
	LRImodifier float64

	Snag       *Snag
	Soil       *soil.Pool
	Permafrost *permafrost.ActiveLayer

	rnd *Rand
}

// NewResourceUnit constructs a stockable unit at the given grid index.
func NewResourceUnit(idx Index, id int, ruArea, stockableArea float64, rnd *Rand) *ResourceUnit {
	return &ResourceUnit{
		ID:            id,
		Index:         idx,
		RUArea:        ruArea,
		StockableArea: stockableArea,
		perSpecies:    make(map[string]*SpeciesStat),
		Snag:          NewSnag(),
		rnd:           rnd,
	}
}

// IsStockable reports whether per-tree growth runs on this unit (§3).
func (ru *ResourceUnit) IsStockable() bool { return ru.ID != -1 }

// speciesStat returns (creating if necessary) the stat block for sp.
func (ru *ResourceUnit) speciesStat(spID string) *SpeciesStat {
	st, ok := ru.perSpecies[spID]
	if !ok {
		st = &SpeciesStat{}
		ru.perSpecies[spID] = st
	}
	return st
}

// NewYear resets the unit's per-year accumulators ahead of applyPattern
// (§4.10's "for each ResourceUnit ru: ru.newYear()").
func (ru *ResourceUnit) NewYear() {
	ru.WLA = 0
	ru.LRIsum = 0
	for _, st := range ru.perSpecies {
		st.LeafAreaResponseSum = 0
		st.LiveTrees = 0
		st.TotalLeafArea = 0
	}
}

// AccumulateLRI records one tree's contribution to the unit's LRImodifier
// inputs, called from readPattern immediately after readLIF sets tree.LRI
// (§4.4).
func (ru *ResourceUnit) AccumulateLRI(t *Tree) {
	ru.WLA += t.LeafArea
	ru.LRIsum += t.LeafArea * t.LRI
	st := ru.speciesStat(t.Species.ID)
	st.TotalLeafArea += t.LeafArea
	st.LiveTrees++
}

// cStockedAreaPerRU is the nominal fully-stocked leaf area basis used by
// LRImodifier; iLand derives it from stand density parameters. We take it
// as the unit's stockable area directly (1 m2 ground per m2 of reference
// leaf area), which keeps LRImodifier dimensionless and bounded exactly as
// the formula in §4.4 requires.
func (ru *ResourceUnit) cStockedAreaPerRU() float64 { return ru.StockableArea }

// UpdateLRImodifier computes LRImodifier from the accumulated (WLA, LRIsum)
// per §4.4. Per the Open Question in §9, WLA == 0 (no trees, or a
// not-stockable unit) explicitly defaults the modifier to 1 rather than
// dividing by zero.
func (ru *ResourceUnit) UpdateLRImodifier() {
	if ru.WLA <= 0 {
		ru.LRImodifier = 1
		return
	}
	cArea := ru.cStockedAreaPerRU()
	denom := math.Max(ru.LRIsum/ru.WLA*cArea, 1)
	ru.LRImodifier = cArea / denom
}

// InterceptedArea is §4.3 step 1's per-tree effective area: it returns
// leafArea*lightResponse, or 0 while no tree of sp has added to the
// species' LeafAreaResponseSum this year. The result is not divided by that
// sum and not scaled to a stand-level interception total, so the per-unit
// sum of effective areas is the plain sum of leafArea*lightResponse over
// the species' trees.
func (ru *ResourceUnit) InterceptedArea(sp *species.Species, leafArea, lightResponse float64) float64 {
	st := ru.speciesStat(sp.ID)
	if st.LeafAreaResponseSum <= 0 {
		return 0
	}
	return leafArea * lightResponse
}

// AddLeafAreaResponse accumulates one tree's leafArea*lightResponse into its
// species' LeafAreaResponseSum, called from the model's grow pass right
// after CalcLightResponse; NewYear resets the sum.
func (ru *ResourceUnit) AddLeafAreaResponse(sp *species.Species, leafArea, lightResponse float64) {
	st := ru.speciesStat(sp.ID)
	st.LeafAreaResponseSum += leafArea * lightResponse
}

// GPPperArea returns the species' current stand-level GPP per unit
// intercepted leaf area, as set by Production.
func (ru *ResourceUnit) GPPperArea(sp *species.Species) float64 {
	return ru.speciesStat(sp.ID).GPPperArea
}

// Production runs the unit's stand-level 3PG-style GPP calculation for
// every species present, producing the GPPperArea figure §4.3 step 2
// multiplies by a tree's effective interception area. Utilizable radiation
// is the current climate year's radiation sum attenuated by a species
// light-use efficiency; this is the ambient-stack-free core science the
// specification deliberately leaves unparameterized ("does not specify the
// contents of the species parameterization").
func (ru *ResourceUnit) Production(lightUseEfficiency map[string]float64) {
	if ru.Climate == nil {
		return
	}
	radiation := ru.Climate.Months()
	var totalRad float64
	for _, m := range radiation {
		totalRad += m.RadiationSum
	}
	for spID, st := range ru.perSpecies {
		if st.TotalLeafArea <= 0 {
			st.GPPperArea = 0
			continue
		}
		lue := lightUseEfficiency[spID]
		if lue <= 0 {
			lue = 0.00025 // kg biomass per MJ, a representative 3PG epsilon
		}
		st.GPPperArea = totalRad * lue
	}
}

// CleanTreeList removes dead trees from storage, compacting the slice and
// optionally recomputing per-species live counts; mirrors the deferred
// cleanTreeList sweep from §3 so Tree pointers stay stable for the rest of
// the year.
func (ru *ResourceUnit) CleanTreeList(recomputeStats bool) {
	live := ru.Trees[:0]
	for _, t := range ru.Trees {
		if !t.IsDead() {
			live = append(live, t)
		}
	}
	ru.Trees = live
	if recomputeStats {
		for _, st := range ru.perSpecies {
			st.LiveTrees = 0
		}
		for _, t := range ru.Trees {
			ru.speciesStat(t.Species.ID).LiveTrees++
		}
	}
}

// YearEnd is the end-of-year hook RunYear calls for every unit after the
// tree lists are cleaned. It does nothing: snag turnover and the soil
// advance run in CarbonCycle.
func (ru *ResourceUnit) YearEnd() {}

// CarbonCycle advances the Snag pool then feeds its outputs into the Soil
// ICBM/2N solver for one year (§4.5 "carbonCycle(ru): advance snag, then
// soil").
func (ru *ResourceUnit) CarbonCycle(climateFactorRE float64) error {
	il, ir := ru.Snag.Turnover()
	if ru.Soil == nil {
		return nil
	}
	return ru.Soil.AdvanceYear(il, ir, climateFactorRE)
}
