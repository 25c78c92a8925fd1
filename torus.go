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

import "math"

// TorusIndex implements §4.2's periodic-boundary index translation:
//
//	bufferOffset + ruOffset + ((idx - bufferOffset + cPxPerRU) mod cPxPerRU)
//
// It wraps a LIF-grid coordinate into the single resource unit's own
// cPxPerRU-wide block starting at bufferOffset + ruOffset, so a tree whose stamp spills
// past the unit's edge reads back in from the opposite edge of the same
// unit — the periodic boundary a small single-RU project needs to avoid
// edge artifacts (§9 "Torus mode").
func TorusIndex(idx, cPxPerRUSize, bufferOffset, ruOffset int) int {
	wrapped := (idx - bufferOffset + cPxPerRUSize) % cPxPerRUSize
	if wrapped < 0 {
		wrapped += cPxPerRUSize
	}
	return bufferOffset + ruOffset + wrapped
}

// torusCell translates a LIF-grid offset (x, y) from tree t's stem position
// into the wrapped index inside t's own resource unit's 50x50 block, per
// TorusIndex applied independently on each axis.
func (m *Model) torusCell(t *Tree, ru *ResourceUnit, dx, dy int) Index {
	// The RU grid shares the LIF grid's origin, so unit X's block starts at
	// LIF index X*cPxPerRU; that block start is passed as ruOffset with a
	// zero bufferOffset.
	ruOriginX := ru.Index.X * cPxPerRU
	ruOriginY := ru.Index.Y * cPxPerRU
	return Index{
		X: TorusIndex(t.Pos.X+dx, cPxPerRU, 0, ruOriginX),
		Y: TorusIndex(t.Pos.Y+dy, cPxPerRU, 0, ruOriginY),
	}
}

// heightGridTorus is heightGrid(tree) (§4.2) with every cardinal lookup
// wrapped through torusCell instead of clipped at the grid edge.
func (m *Model) heightGridTorus(t *Tree, ru *ResourceUnit) {
	local := m.torusCell(t, ru, 0, 0)
	hIdx := Index{X: local.X / cPxPerHeight, Y: local.Y / cPxPerHeight}
	if m.Height.IsIndexValid(hIdx) {
		m.Height.At(hIdx).Bump(t.Height)
	}

	readerOffset := t.Stamp.Offset()
	if r := t.Stamp.Reader(); r != nil {
		readerOffset = r.Offset()
	}
	localX := local.X % cPxPerHeight
	localY := local.Y % cPxPerHeight

	bump := func(nIdx Index) {
		if m.Height.IsIndexValid(nIdx) {
			m.Height.At(nIdx).Bump(t.Height)
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

// applyLIPTorus is ApplyLIP (§4.2) with every stamp cell addressed through
// torusCell instead of being dropped when it falls outside the buffered
// grid.
func (m *Model) applyLIPTorus(t *Tree, ru *ResourceUnit) {
	st := t.Stamp
	off := st.Offset()
	for y := -off; y < st.Size()-off; y++ {
		for x := -off; x < st.Size()-off; x++ {
			cellIdx := m.torusCell(t, ru, x, y)
			if !m.LIF.IsIndexValid(cellIdx) {
				continue
			}
			localDom := dominantHeightAt(m.Height, cellIdx)
			z := math.Max(t.Height-st.DistanceToCenter(x, y), 0)
			zZstar := 1.0
			if localDom > 0 && z < localDom {
				zZstar = z / localDom
			}
			factor := 1 - st.At(x, y)*t.Opacity*zZstar
			if factor < 0.02 {
				factor = 0.02
			}
			*m.LIF.At(cellIdx) *= factor
		}
	}
}

// readLIFTorus is ReadLIF (§4.2) with every reader-stamp cell addressed
// through torusCell.
func (m *Model) readLIFTorus(t *Tree, ru *ResourceUnit, dominantHeight float64) {
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
			cellIdx := m.torusCell(t, ru, x, y)
			if !m.LIF.IsIndexValid(cellIdx) {
				continue
			}
			localDom := dominantHeightAt(m.Height, cellIdx)
			z := math.Max(t.Height-reader.DistanceToCenter(x, y), 0)
			zZstar := 1.0
			if localDom > 0 && z < localDom {
				zZstar = z / localDom
			}
			ownValue := 1 - t.Stamp.OffsetValue(x, y, d)*t.Opacity*zZstar
			if ownValue < 0.02 {
				ownValue = 0.02
			}
			contrib := (m.LIF.Get(cellIdx) / ownValue) * reader.At(x, y)

			hIdx := Index{X: cellIdx.X / cPxPerHeight, Y: cellIdx.Y / cPxPerHeight}
			if m.Height.IsIndexValid(hIdx) && m.Height.Get(hIdx).IsForestOutside() {
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
