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

package expr

import (
	"sync"
	"sync/atomic"
)

// linearization1D is a precomputed sample table for an expression known to be
// called with a single scalar argument x in [lo, hi]. It is built once,
// guarded by a build-once atomic flag so concurrent readers (one per
// resource-unit goroutine during growth) never race the build.
type linearization1D struct {
	lo, hi float64
	steps  int
	values []float64

	built uint32
	mu    sync.Mutex
}

// linearization2D is the 2-D analog, used by the species LRI correction table
// keyed on (LRI, relative height).
type linearization2D struct {
	loX, hiX float64
	loY, hiY float64
	stepsX   int
	stepsY   int
	values   []float64 // row-major, stepsY rows of stepsX columns

	built uint32
	mu    sync.Mutex
}

// Linearize1D builds (or returns the cached) 1-D linearization of e over
// [lo, hi] sampled at the given number of steps, then returns a closure
// evaluating by linear interpolation. varName is the expression's sole
// variable. Linearization is exact at lo and hi and its interpolation error
// shrinks monotonically as steps increases, since each additional step only
// refines an existing linear segment.
func (e *Expression) Linearize1D(varName string, lo, hi float64, steps int) (func(x float64) float64, error) {
	e.mu.Lock()
	if e.lin == nil {
		e.lin = &linearization1D{lo: lo, hi: hi, steps: steps}
	}
	lin := e.lin
	e.mu.Unlock()

	if atomic.LoadUint32(&lin.built) == 0 {
		lin.mu.Lock()
		if lin.built == 0 {
			values := make([]float64, steps+1)
			step := (hi - lo) / float64(steps)
			for i := 0; i <= steps; i++ {
				x := lo + float64(i)*step
				if i == steps {
					x = hi
				}
				v, err := e.Eval1(varName, x)
				if err != nil {
					lin.mu.Unlock()
					return nil, err
				}
				values[i] = v
			}
			lin.values = values
			atomic.StoreUint32(&lin.built, 1)
		}
		lin.mu.Unlock()
	}

	return func(x float64) float64 { return lin.interp(x) }, nil
}

func (lin *linearization1D) interp(x float64) float64 {
	if x <= lin.lo {
		return lin.values[0]
	}
	if x >= lin.hi {
		return lin.values[lin.steps]
	}
	step := (lin.hi - lin.lo) / float64(lin.steps)
	pos := (x - lin.lo) / step
	i := int(pos)
	if i >= lin.steps {
		i = lin.steps - 1
	}
	frac := pos - float64(i)
	return lin.values[i] + frac*(lin.values[i+1]-lin.values[i])
}

// Linearize2D builds (or returns the cached) 2-D linearization of e over
// [loX,hiX] x [loY,hiY] sampled at stepsX by stepsY, evaluating the two-
// variable expression with varX and varY bound to the grid coordinates.
func (e *Expression) Linearize2D(varX, varY string, loX, hiX float64, stepsX int, loY, hiY float64, stepsY int) (func(x, y float64) float64, error) {
	e.mu.Lock()
	if e.lin2d == nil {
		e.lin2d = &linearization2D{loX: loX, hiX: hiX, stepsX: stepsX, loY: loY, hiY: hiY, stepsY: stepsY}
	}
	lin := e.lin2d
	e.mu.Unlock()

	if atomic.LoadUint32(&lin.built) == 0 {
		lin.mu.Lock()
		if lin.built == 0 {
			values := make([]float64, (stepsX+1)*(stepsY+1))
			stepX := (hiX - loX) / float64(stepsX)
			stepY := (hiY - loY) / float64(stepsY)
			for j := 0; j <= stepsY; j++ {
				y := loY + float64(j)*stepY
				if j == stepsY {
					y = hiY
				}
				for i := 0; i <= stepsX; i++ {
					x := loX + float64(i)*stepX
					if i == stepsX {
						x = hiX
					}
					v, err := e.Eval(NewMapBinder(map[string]float64{varX: x, varY: y}))
					if err != nil {
						lin.mu.Unlock()
						return nil, err
					}
					values[j*(stepsX+1)+i] = v
				}
			}
			lin.values = values
			atomic.StoreUint32(&lin.built, 1)
		}
		lin.mu.Unlock()
	}

	return func(x, y float64) float64 { return lin.interp(x, y) }, nil
}

func (lin *linearization2D) interp(x, y float64) float64 {
	if x < lin.loX {
		x = lin.loX
	}
	if x > lin.hiX {
		x = lin.hiX
	}
	if y < lin.loY {
		y = lin.loY
	}
	if y > lin.hiY {
		y = lin.hiY
	}
	stepX := (lin.hiX - lin.loX) / float64(lin.stepsX)
	stepY := (lin.hiY - lin.loY) / float64(lin.stepsY)

	px := (x - lin.loX) / stepX
	py := (y - lin.loY) / stepY
	i := int(px)
	j := int(py)
	if i >= lin.stepsX {
		i = lin.stepsX - 1
	}
	if j >= lin.stepsY {
		j = lin.stepsY - 1
	}
	fx := px - float64(i)
	fy := py - float64(j)

	w := lin.stepsX + 1
	v00 := lin.values[j*w+i]
	v10 := lin.values[j*w+i+1]
	v01 := lin.values[(j+1)*w+i]
	v11 := lin.values[(j+1)*w+i+1]

	v0 := v00 + fx*(v10-v00)
	v1 := v01 + fx*(v11-v01)
	return v0 + fy*(v1-v0)
}
