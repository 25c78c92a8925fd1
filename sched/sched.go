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

// Package sched implements the data-parallel map over resource units used
// once per annual phase (§4.5, §5, §13), a direct generalization of the
// teacher's Calculations() round-robin worker pool in run.go: instead of
// locking each cell, workers here rely on the commutative-operation
// discipline the specification mandates (multiplicative LIF decrement, max-
// based height-grid update) so no per-cell lock is needed at all.
package sched

import (
	"runtime"
	"sync"
)

// Runner executes a function over a slice of items, either concurrently
// (round-robin across GOMAXPROCS goroutines, mirroring Calculations()) or
// single-threaded when Deterministic is set — required by §5's "a config
// flag disables concurrency" for bit-identical reruns.
type Runner struct {
	Deterministic bool
}

// Each applies f to item i for every i in [0, n). Errors from workers are
// collected and the first one is returned once every worker has finished,
// matching §5's "errors raised in a worker are caught at the phase barrier
// and re-raised on the driver thread".
func (r Runner) Each(n int, f func(i int) error) error {
	if n == 0 {
		return nil
	}
	if r.Deterministic {
		for i := 0; i < n; i++ {
			if err := f(i); err != nil {
				return err
			}
		}
		return nil
	}

	nprocs := runtime.GOMAXPROCS(0)
	if nprocs > n {
		nprocs = n
	}
	var wg sync.WaitGroup
	errs := make([]error, nprocs)
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			for ii := pp; ii < n; ii += nprocs {
				if err := f(ii); err != nil {
					errs[pp] = err
					return
				}
			}
		}(pp)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
