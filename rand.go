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

import "math/rand"

// Rand is the thread-safe random facade required by §5: one generator per
// worker, keyed by a seed derived deterministically from the model's
// configured seed and the resource unit's index, so a single-threaded rerun
// with the same seed is bit-identical while concurrent workers never share
// a *rand.Rand (which is not itself safe for concurrent use).
type Rand struct {
	r *rand.Rand
}

// NewRand derives a per-worker generator from the model seed and a worker
// index (typically the ResourceUnit's linear grid index).
func NewRand(modelSeed int64, workerIndex int) *Rand {
	return &Rand{r: rand.New(rand.NewSource(modelSeed ^ int64(workerIndex)*2654435761))}
}

// Float64 returns a uniform random value in [0, 1), used by mortality draws
// and the establishment screen (§4.3, §4.7).
func (r *Rand) Float64() float64 { return r.r.Float64() }

// NormFloat64 returns a standard-normal random draw.
func (r *Rand) NormFloat64() float64 { return r.r.NormFloat64() }

// Intn returns a uniform random integer in [0, n).
func (r *Rand) Intn(n int) int { return r.r.Intn(n) }

// Shuffle randomizes the order of a slice of length n in place, used for the
// modules registry's randomized dispatch order (§4.10, §15).
func (r *Rand) Shuffle(n int, swap func(i, j int)) { r.r.Shuffle(n, swap) }
