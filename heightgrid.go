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

// HeightFlag marks the status of a 10 m dominant-height cell (§3).
type HeightFlag uint8

const (
	// HeightValid marks a cell inside the project rectangle.
	HeightValid HeightFlag = 1 << iota
	// HeightForestOutside marks a fixed, non-simulated forest cell outside
	// the project used to provide a light boundary condition.
	HeightForestOutside
	// HeightRadiating marks an outside cell adjacent to a valid cell, whose
	// height contributes to the valid cell's dominant-height neighbor bump.
	HeightRadiating
)

// HeightCell is one cell of the 10 m dominant-height grid: the tallest tree
// height recorded this year, a population count and status flags (§3).
type HeightCell struct {
	Height float64
	Count  int
	Flags  HeightFlag
}

// IsForestOutside reports whether hgv in the spec's readLIF pseudocode
// should apply the 0.1 shade bleed-in factor.
func (c HeightCell) IsForestOutside() bool { return c.Flags&HeightForestOutside != 0 }

// Bump raises the cell's recorded height to max(h, current) and increments
// its tree count, matching heightGrid(tree)'s per-cell update (§4.2).
func (c *HeightCell) Bump(h float64) {
	if h > c.Height {
		c.Height = h
	}
	c.Count++
}

// cPxPerHeight and cPxPerRU are the grid-resolution ratios fixed by §3:
// 5 LIF cells per height cell side, 50 LIF cells per resource-unit side.
const (
	cPxPerHeight = 5
	cPxPerRU     = 50
)
