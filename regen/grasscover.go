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

import "math"

// GrassCover is a per-resource-unit ground-vegetation layer: a 0-1 "grass
// effect" raster at the 2 m resolution that multiplicatively reduces the
// abiotic establishment probability (§4.10's unspecified
// "grassCover.execute()" call; supplemented from iLand's grasscover.cpp per
// SPEC_FULL §3.1, since the annual driver invokes it but spec.md never
// defines it). Growth follows a degree-day-driven logistic curve; decay
// follows a constant per-year browsing/trampling rate.
type GrassCover struct {
	effect       []float64
	sizeX, sizeY int

	MaxCover     float64 // upper bound of the growth target and of cover, in [0,1]
	GDDHalfCover float64 // degree-days at which the growth target is MaxCover/2
	DecayRate    float64 // annual browsing/trampling fractional decay
}

// NewGrassCover allocates a zero-cover raster over sizeX by sizeY 2 m cells.
func NewGrassCover(sizeX, sizeY int, maxCover, gddHalfCover, decayRate float64) *GrassCover {
	return &GrassCover{
		effect: make([]float64, sizeX*sizeY), sizeX: sizeX, sizeY: sizeY,
		MaxCover: maxCover, GDDHalfCover: gddHalfCover, DecayRate: decayRate,
	}
}

func (g *GrassCover) valid(p Pos) bool {
	return p.X >= 0 && p.X < g.sizeX && p.Y >= 0 && p.Y < g.sizeY
}

// Cover returns the grass cover fraction at p, 0 outside the raster.
func (g *GrassCover) Cover(p Pos) float64 {
	if !g.valid(p) {
		return 0
	}
	return g.effect[p.Y*g.sizeX+p.X]
}

// Execute advances the raster by one year given the year's accumulated
// growing-degree-days: a logistic growth term pulls every cell toward
// MaxCover, then every cell loses the fraction DecayRate of its cover
// (browsing/trampling), so cover settles below the growth target,
// following grasscover.cpp's growth-then-decay structure.
func (g *GrassCover) Execute(gdd float64) {
	growth := g.MaxCover / (1 + math.Exp(-(gdd-g.GDDHalfCover)/math.Max(g.GDDHalfCover, 1)*4))
	for i := range g.effect {
		g.effect[i] += (growth - g.effect[i]) * 0.3
		g.effect[i] -= g.effect[i] * g.DecayRate
		if g.effect[i] < 0 {
			g.effect[i] = 0
		}
		if g.effect[i] > g.MaxCover {
			g.effect[i] = g.MaxCover
		}
	}
}

// EstablishmentMultiplier returns 1 - Cover(p), the abiotic-probability
// dampener Establishment applies per cell.
func (g *GrassCover) EstablishmentMultiplier(p Pos) float64 {
	return 1 - g.Cover(p)
}
