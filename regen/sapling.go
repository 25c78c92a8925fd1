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

// PromotionHeight is the height (m) at which a sapling is promoted to a
// tree (§3 "Sapling", §4.7, §8 "Sapling promotion occurs the first year in
// which sapling height >= 1.3 m").
const PromotionHeight = 1.3

// Sapling is one species' regeneration cohort on a single 2 m cell (§3).
type Sapling struct {
	SpeciesID   string
	Height      float64 // m
	Age         int
	StressYears int // consecutive years of near-zero height growth, for a stress-driven sapling mortality screen
}

// Cell is a 2 m sapling cell: at most one cohort per species (§3 "up to one
// sapling record per species").
type Cell struct {
	saplings map[string]*Sapling
}

func newCell() *Cell { return &Cell{saplings: make(map[string]*Sapling)} }

// MaxHeight returns the tallest sapling on the cell, 0 if none, matching
// sapHeight(cell) in §4.7's establishment pseudocode.
func (c *Cell) MaxHeight() float64 {
	var h float64
	for _, s := range c.saplings {
		if s.Height > h {
			h = s.Height
		}
	}
	return h
}

// Has reports whether speciesID already has a cohort on this cell.
func (c *Cell) Has(speciesID string) bool {
	_, ok := c.saplings[speciesID]
	return ok
}

// Establish creates a new 0.05 m tall sapling of speciesID on the cell. The
// caller (Establishment) is responsible for the §4.7 "skip" checks before
// calling this.
func (c *Cell) Establish(speciesID string) *Sapling {
	s := &Sapling{SpeciesID: speciesID, Height: 0.05, Age: 0}
	c.saplings[speciesID] = s
	return s
}

// Saplings returns the cell's cohorts, for growth/promotion iteration.
func (c *Cell) Saplings() map[string]*Sapling { return c.saplings }

// Remove deletes a cohort, used when SaplingGrowth promotes it to a tree.
func (c *Cell) Remove(speciesID string) { delete(c.saplings, speciesID) }

// Grid is the 2 m sapling layer covering one resource unit (or the whole
// landscape), independent of the root package's Grid[T] for the same
// import-cycle reason as SeedMap (see package doc).
type Grid struct {
	cells        []*Cell
	sizeX, sizeY int
}

// NewGrid allocates an empty sapling grid of sizeX by sizeY 2 m cells.
func NewGrid(sizeX, sizeY int) *Grid {
	g := &Grid{cells: make([]*Cell, sizeX*sizeY), sizeX: sizeX, sizeY: sizeY}
	for i := range g.cells {
		g.cells[i] = newCell()
	}
	return g
}

func (g *Grid) valid(p Pos) bool {
	return p.X >= 0 && p.X < g.sizeX && p.Y >= 0 && p.Y < g.sizeY
}

// At returns the cell at p, or nil if p is outside the grid.
func (g *Grid) At(p Pos) *Cell {
	if !g.valid(p) {
		return nil
	}
	return g.cells[p.Y*g.sizeX+p.X]
}

// ForEach calls f for every cell with its position.
func (g *Grid) ForEach(f func(Pos, *Cell)) {
	for i, c := range g.cells {
		f(Pos{X: i % g.sizeX, Y: i / g.sizeX}, c)
	}
}

// GrowthInput is the per-species, per-year growth rate supplied to
// GrowSapling; a faithful model would derive it from the same
// light-response/NPP machinery as adult trees, but the specification
// leaves sapling-layer production unparameterized beyond "Sapling growth
// updates height and age" (§4.7), so a configurable annual height
// increment stands in for it.
type GrowthInput struct {
	AnnualHeightIncrement float64 // m/year, before stress dampening
	LightResponse         float64 // in [0,1], dampens the increment the way calcLightResponse dampens adult GPP
}

// GrowSapling advances one year of height and age for s, returning true if
// it should be promoted to a tree this year (height crossed
// PromotionHeight). A sapling whose effective increment is negligible for
// several consecutive years accumulates StressYears, mirroring the
// species-level stress accounting adult trees get from §4.3's stress index.
func GrowSapling(s *Sapling, in GrowthInput) (promote bool) {
	s.Age++
	inc := in.AnnualHeightIncrement * in.LightResponse
	if inc < 0.01 {
		s.StressYears++
	} else {
		s.StressYears = 0
	}
	s.Height += inc
	if s.Height < 0 {
		s.Height = 0
	}
	return s.Height >= PromotionHeight
}
