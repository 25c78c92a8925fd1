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

	"github.com/dendrolab/forest/species"
)

// TreeFlag holds the boolean status bits carried on a Tree (§3).
type TreeFlag uint8

const (
	TreeDead TreeFlag = 1 << iota
	TreeDebug
)

// Tree is one individual's complete state: dimensions, biomass pools and
// light-competition bookkeeping (§3 "Tree"). Its lifetime is a single
// simulation year; CleanTreeList compaction may invalidate pointers to it
// at year end, so no component may retain a *Tree across years.
type Tree struct {
	ID  int
	Age int

	Dbh    float64 // cm
	Height float64 // m

	Pos Index // integer LIF-grid index of the tree's stem position

	Foliage    float64 // kg
	Wood       float64 // kg, aboveground woody biomass excluding stem reserve
	FineRoot   float64 // kg
	CoarseRoot float64 // kg
	NPPReserve float64 // kg

	LeafArea      float64 // m2
	Opacity       float64 // crown opacity used by applyLIP/readLIF
	LRI           float64
	LightResponse float64
	StressIndex   float64

	LastDiameterIncrement float64 // cm, most recent year's dbh increment

	Flags TreeFlag

	RU      *ResourceUnit
	Species *species.Species
	Stamp   *Stamp
}

func (t *Tree) IsDead() bool  { return t.Flags&TreeDead != 0 }
func (t *Tree) SetDead()      { t.Flags |= TreeDead }

// NewTree creates a living tree with dbh >= 5 cm, per §3's "A Tree is
// created alive with dbh≥5 cm".
func NewTree(id int, sp *species.Species, ru *ResourceUnit, pos Index, dbh, height float64) (*Tree, error) {
	if dbh < 5 {
		return nil, newError(GrowthInvariantViolation, "NewTree", "dbh %v < 5 cm minimum for a new tree", dbh)
	}
	return &Tree{ID: id, Species: sp, RU: ru, Pos: pos, Dbh: dbh, Height: height, Opacity: 1}, nil
}

// checkDimensions enforces §7's GrowthInvariantViolation sanity range.
func (t *Tree) checkDimensions(op string) error {
	if t.Dbh < 0 || t.Dbh > 10000 {
		return newError(GrowthInvariantViolation, op, "tree %d: dbh %v out of range [0, 10000]", t.ID, t.Dbh)
	}
	if t.Height < 0 || t.Height > 1000 {
		return newError(GrowthInvariantViolation, op, "tree %d: height %v out of range [0, 1000]", t.ID, t.Height)
	}
	if t.Foliage < 0 {
		return newError(GrowthInvariantViolation, op, "tree %d: foliage %v < 0", t.ID, t.Foliage)
	}
	return nil
}

// HeightGrid implements §4.2's heightGrid(tree): bump the dominant-height
// cell containing the tree, and lift the cardinal neighbor's height too
// when the tree sits within the reader stamp's offset of the cell's edge.
func (t *Tree) HeightGrid(hg *Grid[HeightCell]) {
	hIdx := Index{X: t.Pos.X / cPxPerHeight, Y: t.Pos.Y / cPxPerHeight}
	if !hg.IsIndexValid(hIdx) {
		return
	}
	hg.At(hIdx).Bump(t.Height)

	readerOffset := t.Stamp.Offset()
	if r := t.Stamp.Reader(); r != nil {
		readerOffset = r.Offset()
	}
	localX := t.Pos.X % cPxPerHeight
	localY := t.Pos.Y % cPxPerHeight

	bump := func(nIdx Index) {
		if hg.IsIndexValid(nIdx) {
			hg.At(nIdx).Bump(t.Height)
		}
	}
	if localX < readerOffset {
		bump(Index{X: hIdx.X - 1, Y: hIdx.Y})
	}
	if localX >= cPxPerHeight-readerOffset {
		bump(Index{X: hIdx.X + 1, Y: hIdx.Y})
	}
	if localY < readerOffset {
		bump(Index{X: hIdx.X, Y: hIdx.Y - 1})
	}
	if localY >= cPxPerHeight-readerOffset {
		bump(Index{X: hIdx.X, Y: hIdx.Y + 1})
	}
}

// dominantHeightAt returns the 10 m cell's recorded height at the LIF index
// idx, or 0 if the cell is outside the height grid.
func dominantHeightAt(hg *Grid[HeightCell], idx Index) float64 {
	hIdx := Index{X: idx.X / cPxPerHeight, Y: idx.Y / cPxPerHeight}
	if !hg.IsIndexValid(hIdx) {
		return 0
	}
	return hg.Get(hIdx).Height
}

// ApplyLIP stamps the tree's light-influence pattern onto the LIF grid,
// per §4.2's applyLIP pseudocode. Cells that fall outside the (buffered)
// LIF grid are silently skipped, matching the spec's "recovered by silent
// no-op because the grid includes a buffer".
func (t *Tree) ApplyLIP(lif *Grid[float64], hg *Grid[HeightCell]) {
	st := t.Stamp
	off := st.Offset()
	for y := -off; y < st.Size()-off; y++ {
		for x := -off; x < st.Size()-off; x++ {
			cellIdx := Index{X: t.Pos.X + x, Y: t.Pos.Y + y}
			if !lif.IsIndexValid(cellIdx) {
				continue
			}
			localDom := dominantHeightAt(hg, cellIdx)
			z := math.Max(t.Height-st.DistanceToCenter(x, y), 0)
			zZstar := 1.0
			if localDom > 0 {
				if z < localDom {
					zZstar = z / localDom
				}
			}
			factor := 1 - st.At(x, y)*t.Opacity*zZstar
			if factor < 0.02 {
				factor = 0.02
			}
			*lif.At(cellIdx) *= factor
		}
	}
}

// ReadLIF reads the tree's light resource index off the LIF grid through
// its reader stamp and applies the species' 2-D LRI correction, per §4.2's
// readLIF pseudocode.
func (t *Tree) ReadLIF(lif *Grid[float64], hg *Grid[HeightCell], dominantHeight float64) {
	reader := t.Stamp.Reader()
	if reader == nil {
		t.LRI = 1
		return
	}
	d := dOffset(t.Stamp, reader)
	off := reader.Offset()

	var sum float64
	for y := -off; y < reader.Size()-off; y++ {
		for x := -off; x < reader.Size()-off; x++ {
			cellIdx := Index{X: t.Pos.X + x, Y: t.Pos.Y + y}
			if !lif.IsIndexValid(cellIdx) {
				continue
			}
			localDom := dominantHeightAt(hg, cellIdx)
			z := math.Max(t.Height-reader.DistanceToCenter(x, y), 0)
			zZstar := 1.0
			if localDom > 0 && z < localDom {
				zZstar = z / localDom
			}
			ownValue := 1 - t.Stamp.OffsetValue(x, y, d)*t.Opacity*zZstar
			if ownValue < 0.02 {
				ownValue = 0.02
			}
			contrib := (lif.Get(cellIdx) / ownValue) * reader.At(x, y)

			hIdx := Index{X: cellIdx.X / cPxPerHeight, Y: cellIdx.Y / cPxPerHeight}
			if hg.IsIndexValid(hIdx) && hg.Get(hIdx).IsForestOutside() {
				contrib *= 0.1
			}
			sum += contrib
		}
	}

	relHeight := 1.0
	if dominantHeight > 0 {
		relHeight = t.Height / dominantHeight
	}
	lri := t.Species.LRICorrection(sum, relHeight)
	if lri > 1 {
		lri = 1
	}
	t.LRI = lri
}

// CalcLightResponse implements §4.4's calcLightResponse: the tree's growth
// multiplier from combined LRI and the resource unit's LRImodifier.
func (t *Tree) CalcLightResponse() {
	x := t.LRI * t.RU.LRImodifier
	if x < 0 {
		x = 0
	}
	if x > 1 {
		x = 1
	}
	t.LightResponse = t.Species.LightResponse(x)
}

// Grow runs the full §4.3 growth pipeline for one tree in one year.
func (t *Tree) Grow() error {
	if t.IsDead() {
		return nil
	}
	sp := t.Species
	ru := t.RU

	effectiveArea := ru.InterceptedArea(sp, t.LeafArea, t.LightResponse)
	rawGPP := ru.GPPperArea(sp) * effectiveArea
	gpp := rawGPP * sp.Aging(t.Height, float64(t.Age))
	npp := gpp * 0.47

	toFol := sp.Allometry.TurnoverFoliage
	toRoot := sp.Allometry.TurnoverRoot
	frFoliageRatio := sp.Allometry.FinerootFoliageRatio
	b := sp.AllometricRatioWF()

	foliageAllo := t.Foliage
	reserveSize := foliageAllo * (1 + frFoliageRatio)

	// Root fraction from the stand-level production response; absent a
	// parameterized prod3PG root-fraction curve (left unspecified by the
	// specification), a conservative constant fraction is used, matching
	// iLand's typical calibrated range of 15-20% of NPP to roots.
	apctRoot := 0.17
	woodyMass := sp.StemVolumeFactor() * sp.WoodDensity() * t.Dbh * t.Dbh * t.Height
	if woodyMass <= 0 {
		woodyMass = 1
	}

	var apctWood float64
	if npp > 0 {
		apctWood = (foliageAllo*toRoot/npp + b*(1-apctRoot) - b*foliageAllo*toFol/npp) / (foliageAllo/woodyMass + b)
	}
	apctWood = clampf(apctWood, 0, 1-apctRoot)
	apctFoliage := 1 - apctRoot - apctWood

	senFol := t.Foliage * toFol
	senRoot := t.FineRoot * toRoot
	ru.Snag.AddLitter(senFol + senRoot)

	rootAlloc := apctRoot * npp
	fineRootTarget := t.Foliage*frFoliageRatio - t.FineRoot
	fineRootRefill := math.Min(math.Max(fineRootTarget, 0), rootAlloc)
	t.FineRoot += fineRootRefill - senRoot
	if t.FineRoot < 0 {
		t.FineRoot = 0
	}
	coarseRootAlloc := rootAlloc - fineRootRefill
	maxCoarseRoot := woodyMass * 0.25 // allometric cap on coarse-root biomass relative to stem
	if t.CoarseRoot+coarseRootAlloc > maxCoarseRoot {
		excess := t.CoarseRoot + coarseRootAlloc - maxCoarseRoot
		coarseRootAlloc -= excess
		ru.Snag.AddWoody(excess)
	}
	t.CoarseRoot += coarseRootAlloc

	t.Foliage += apctFoliage*npp - senFol
	if t.Foliage < 0 {
		t.Foliage = 0
	}
	t.LeafArea = t.Foliage * sp.Allometry.SpecificLeafArea

	denom := toFol*foliageAllo + toRoot*foliageAllo*frFoliageRatio + reserveSize
	stress := 0.0
	if denom > 0 {
		stress = 1 - npp/denom
	}
	if stress < 0 {
		stress = 0
	}
	t.StressIndex = stress

	reserveDelta := math.Max(0, apctWood*npp*0.1) // a fraction of woody NPP tops up the reserve before stem growth
	t.NPPReserve += reserveDelta
	stemFraction := sp.AllometricFractionStem(t.Dbh)
	netStemNPP := (apctWood*npp - reserveDelta) * stemFraction
	if netStemNPP < 0 {
		netStemNPP = 0
	}
	t.Wood += apctWood*npp - reserveDelta - netStemNPP

	if err := t.growDiameter(netStemNPP); err != nil {
		return err
	}

	if err := t.checkDimensions("Tree.Grow"); err != nil {
		return err
	}

	return nil
}

// growDiameter implements §4.3 step 10: estimate d_inc from the linearized
// stem-mass derivative, then refine by bracketed bisection whenever the
// linear estimate's residual exceeds 1 kg.
func (t *Tree) growDiameter(netStemNPP float64) error {
	sp := t.Species
	vf := sp.StemVolumeFactor()
	rho := sp.WoodDensity()
	d := t.Dbh / 100 // cm -> m
	h := t.Height

	hd := sp.RelativeHeightGrowth(t.LRI * t.RU.LRImodifier)

	stemMass := func(dm, hm float64) float64 { return vf * rho * dm * dm * hm }

	const dDelta = 0.001 // m, finite-difference step for the initial estimate
	denom := vf * rho * (d + dDelta) * (d + dDelta) * (2*h/math.Max(d, 1e-6) + hd)
	var dInc float64
	if denom > 0 {
		dInc = netStemNPP / denom
	}

	newMass := stemMass(d+dInc, h+dInc*hd)
	residual := newMass - (stemMass(d, h) + netStemNPP)

	if math.Abs(residual) > 1 {
		lo, hi := 0.0, 0.02
		step := 0.01
		f := func(x float64) float64 {
			return stemMass(d+x, h+x*hd) - (stemMass(d, h) + netStemNPP)
		}
		flo, fhi := f(lo), f(hi)
		for flo*fhi > 0 && hi < 10 {
			hi += step
			fhi = f(hi)
		}
		for step >= 1e-5 {
			mid := (lo + hi) / 2
			fmid := f(mid)
			if (fmid > 0) == (flo > 0) {
				lo, flo = mid, fmid
			} else {
				hi, fhi = mid, fmid
			}
			step /= 2
		}
		dInc = (lo + hi) / 2
	}

	t.LastDiameterIncrement = dInc * 100
	t.Dbh += 100 * dInc
	t.Height += dInc * hd
	return nil
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Mortality implements §4.3's die()/p_death check: a tree with essentially
// no foliage dies outright; otherwise compare the combined intrinsic and
// stress-driven death probability against a uniform draw.
func (t *Tree) Mortality(rnd *Rand) {
	if t.IsDead() {
		return
	}
	if t.Foliage < 1e-6 {
		t.SetDead()
		return
	}
	pDeath := t.Species.DeathProbIntrinsic + t.Species.DeathProbStress(t.StressIndex)
	if rnd.Float64() < pDeath {
		t.SetDead()
	}
}
