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

	"github.com/ctessum/geom"
)

// Index is a 2-D integer grid index. X grows east, Y grows north; (0,0) is
// the south-west cell, matching the teacher's row-major, south-at-y=0 raster
// convention (see the CTM grid handling in vargrid.go).
type Index struct {
	X, Y int
}

// Grid is a dense row-major raster mapping an integer Index to a value of
// type T, with a shared metric rectangle and cell size binding every cell to
// a location on the ground. It is the common implementation backing the
// light-influence field (2 m), the dominant-height grid (10 m) and the
// resource-unit grid (100 m); the three grids are distinguished only by
// CellSize and the type T they hold.
type Grid[T any] struct {
	data     []T
	rect     geom.Bounds
	cellSize float64
	sizeX    int
	sizeY    int
}

// NewGrid creates a grid of sizeX by sizeY cells of the given cellSize, with
// its origin at lowerLeft.
func NewGrid[T any](lowerLeft geom.Point, cellSize float64, sizeX, sizeY int) *Grid[T] {
	g := &Grid[T]{
		cellSize: cellSize,
		sizeX:    sizeX,
		sizeY:    sizeY,
		rect: geom.Bounds{
			Min: lowerLeft,
			Max: geom.Point{X: lowerLeft.X + cellSize*float64(sizeX), Y: lowerLeft.Y + cellSize*float64(sizeY)},
		},
	}
	g.data = make([]T, sizeX*sizeY)
	return g
}

// NewGridRect creates a grid whose cells cover metric rectangle r at the
// given cellSize, rounding sizeX/sizeY up so that the cell rectangle fully
// covers r. This is the "(metricRect, cellSize)" setup form.
func NewGridRect[T any](r geom.Bounds, cellSize float64) *Grid[T] {
	sizeX := int(math.Ceil((r.Max.X - r.Min.X) / cellSize))
	sizeY := int(math.Ceil((r.Max.Y - r.Min.Y) / cellSize))
	return NewGrid[T](r.Min, cellSize, sizeX, sizeY)
}

// CellSize returns the side length of one grid cell, in meters.
func (g *Grid[T]) CellSize() float64 { return g.cellSize }

// SizeX and SizeY return the grid dimensions in cells.
func (g *Grid[T]) SizeX() int { return g.sizeX }
func (g *Grid[T]) SizeY() int { return g.sizeY }

// Rect returns the metric rectangle spanned by the grid.
func (g *Grid[T]) Rect() geom.Bounds { return g.rect }

// Len returns the total number of cells.
func (g *Grid[T]) Len() int { return len(g.data) }

// IsIndexValid reports whether idx addresses a cell inside the grid.
func (g *Grid[T]) IsIndexValid(idx Index) bool {
	return idx.X >= 0 && idx.X < g.sizeX && idx.Y >= 0 && idx.Y < g.sizeY
}

// CoordValid reports whether the metric coordinate p falls inside the grid's
// rectangle.
func (g *Grid[T]) CoordValid(p geom.Point) bool {
	return p.X >= g.rect.Min.X && p.X < g.rect.Max.X && p.Y >= g.rect.Min.Y && p.Y < g.rect.Max.Y
}

// linear converts a valid Index to a slice offset: idx = y*sizeX + x.
func (g *Grid[T]) linear(idx Index) int { return idx.Y*g.sizeX + idx.X }

// indexOf recovers (x, y) from a linear offset: the inverse of linear.
func (g *Grid[T]) indexOf(linear int) Index {
	return Index{X: linear % g.sizeX, Y: linear / g.sizeX}
}

// IndexAt converts a metric coordinate to the containing cell index:
// floor((x-x0)/cs), floor((y-y0)/cs).
func (g *Grid[T]) IndexAt(p geom.Point) Index {
	return Index{
		X: int(math.Floor((p.X - g.rect.Min.X) / g.cellSize)),
		Y: int(math.Floor((p.Y - g.rect.Min.Y) / g.cellSize)),
	}
}

// CellCenter returns the metric coordinate of the center of cell idx.
func (g *Grid[T]) CellCenter(idx Index) geom.Point {
	return geom.Point{
		X: g.rect.Min.X + (float64(idx.X)+0.5)*g.cellSize,
		Y: g.rect.Min.Y + (float64(idx.Y)+0.5)*g.cellSize,
	}
}

// CellRect returns the metric rectangle of cell idx.
func (g *Grid[T]) CellRect(idx Index) geom.Bounds {
	x0 := g.rect.Min.X + float64(idx.X)*g.cellSize
	y0 := g.rect.Min.Y + float64(idx.Y)*g.cellSize
	return geom.Bounds{Min: geom.Point{X: x0, Y: y0}, Max: geom.Point{X: x0 + g.cellSize, Y: y0 + g.cellSize}}
}

// Get returns the value stored at idx. Callers must validate idx with
// IsIndexValid first; Get does not bounds-check so that the hot stamping
// loops (applyLIP/readLIF) stay allocation- and check-free.
func (g *Grid[T]) Get(idx Index) T { return g.data[g.linear(idx)] }

// Set stores v at idx.
func (g *Grid[T]) Set(idx Index, v T) { g.data[g.linear(idx)] = v }

// At returns a pointer to the cell at idx, for in-place mutation.
func (g *Grid[T]) At(idx Index) *T { return &g.data[g.linear(idx)] }

// GetCoord returns the value of the cell containing p.
func (g *Grid[T]) GetCoord(p geom.Point) T { return g.Get(g.IndexAt(p)) }

// Data exposes the backing row-major slice directly, for bulk numeric work
// (e.g. the light core's Calculations-style parallel map, or feeding a
// sparse.DenseArray-shaped NetCDF writer).
func (g *Grid[T]) Data() []T { return g.data }

// Wipe zeroes every cell (the zero value of T).
func (g *Grid[T]) Wipe() {
	var zero T
	for i := range g.data {
		g.data[i] = zero
	}
}

// Initialize fills every cell with v.
func (g *Grid[T]) Initialize(v T) {
	for i := range g.data {
		g.data[i] = v
	}
}

// ForEach calls f for every cell in row-major order, passing the cell's
// Index and a pointer so f may mutate it in place.
func (g *Grid[T]) ForEach(f func(Index, *T)) {
	for i := range g.data {
		f(g.indexOf(i), &g.data[i])
	}
}

// Runner iterates over a sub-rectangle of a grid (given in index space).
// Advancing is pure pointer/offset arithmetic: next() moves linearly through
// the sub-rectangle and skips lineLength cells at each row wrap, mirroring
// the teacher's GridRunner-style offset walks used when stamping a tree's
// light-influence pattern onto the LIF grid.
type Runner[T any] struct {
	g          *Grid[T]
	firstX     int
	firstY     int
	cols, rows int
	lineLength int // sizeX - cols
	cur        int // linear offset of the current cell
	col        int // column counter within the current row, 0..cols-1
	row        int
	done       bool
}

// NewRunner builds a Runner over the index sub-rectangle [minIdx, maxIdx)
// (maxIdx exclusive on both axes). The rectangle is clipped to the grid.
func NewRunner[T any](g *Grid[T], minIdx, maxIdx Index) *Runner[T] {
	x0, y0 := minIdx.X, minIdx.Y
	x1, y1 := maxIdx.X, maxIdx.Y
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > g.sizeX {
		x1 = g.sizeX
	}
	if y1 > g.sizeY {
		y1 = g.sizeY
	}
	r := &Runner[T]{g: g, firstX: x0, firstY: y0, cols: x1 - x0, rows: y1 - y0}
	if r.cols <= 0 || r.rows <= 0 {
		r.done = true
		return r
	}
	r.lineLength = g.sizeX - r.cols
	r.cur = g.linear(Index{X: x0, Y: y0})
	return r
}

// Done reports whether the runner has exhausted the sub-rectangle.
func (r *Runner[T]) Done() bool { return r.done }

// Index returns the index of the current cell.
func (r *Runner[T]) Index() Index { return r.g.indexOf(r.cur) }

// Value returns a pointer to the current cell.
func (r *Runner[T]) Value() *T { return &r.g.data[r.cur] }

// Next advances the runner to the following cell in the sub-rectangle,
// wrapping to the next row (skipping lineLength cells of the full grid
// width) when a row is exhausted.
func (r *Runner[T]) Next() bool {
	if r.done {
		return false
	}
	r.col++
	if r.col >= r.cols {
		r.col = 0
		r.row++
		if r.row >= r.rows {
			r.done = true
			return false
		}
		r.cur += r.lineLength + 1
		return true
	}
	r.cur++
	return true
}

// Neighbor4 returns the index-valid 4-neighborhood (W, E, S, N) of idx,
// omitting any neighbor that would fall outside the grid.
func (g *Grid[T]) Neighbor4(idx Index) []Index {
	cand := []Index{
		{X: idx.X - 1, Y: idx.Y},
		{X: idx.X + 1, Y: idx.Y},
		{X: idx.X, Y: idx.Y - 1},
		{X: idx.X, Y: idx.Y + 1},
	}
	return g.filterValid(cand)
}

// Neighbor8 returns the index-valid 8-neighborhood of idx.
func (g *Grid[T]) Neighbor8(idx Index) []Index {
	cand := make([]Index, 0, 8)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			cand = append(cand, Index{X: idx.X + dx, Y: idx.Y + dy})
		}
	}
	return g.filterValid(cand)
}

func (g *Grid[T]) filterValid(cand []Index) []Index {
	o := cand[:0]
	for _, c := range cand {
		if g.IsIndexValid(c) {
			o = append(o, c)
		}
	}
	return o
}

// Averaged returns a coarser grid whose cell size is g.CellSize()*factor,
// each output cell holding the arithmetic mean of the input cells it covers.
// factor must evenly divide both grid dimensions.
func Averaged(g *Grid[float64], factor int) *Grid[float64] {
	out := NewGrid[float64](g.rect.Min, g.cellSize*float64(factor), g.sizeX/factor, g.sizeY/factor)
	counts := make([]int, len(out.data))
	for i, v := range g.data {
		idx := g.indexOf(i)
		oidx := Index{X: idx.X / factor, Y: idx.Y / factor}
		lin := out.linear(oidx)
		out.data[lin] += v
		counts[lin]++
	}
	for i := range out.data {
		if counts[i] > 0 {
			out.data[i] /= float64(counts[i])
		}
	}
	return out
}

// Normalized returns a copy of g scaled so that the sum of all cells equals
// target.
func Normalized(g *Grid[float64], target float64) *Grid[float64] {
	var sum float64
	for _, v := range g.data {
		sum += v
	}
	out := NewGrid[float64](g.rect.Min, g.cellSize, g.sizeX, g.sizeY)
	if sum == 0 {
		return out
	}
	factor := target / sum
	for i, v := range g.data {
		out.data[i] = v * factor
	}
	return out
}
