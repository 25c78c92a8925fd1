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

// Package modules hosts the disturbance plug-in registry of §2 component 15
// and §4.10/§15: fire, wind and management modules, each implementing the
// small Module interface the specification says is the only thing the core
// prescribes about them ("the individual disturbance plug-ins... each is
// invoked through a small defined interface", §1). This mirrors how the
// teacher's science package never hard-codes a chemical mechanism — see
// mechanism.go's Mechanism interface in the teacher repo — but instead lets
// each concrete science/chem implementation register itself.
//
// To avoid an import cycle (the root forest package drives the registry,
// so a Module cannot import forest back), every method here takes a Context
// interface that the concrete plug-ins operate through rather than a
// forest.Model pointer; forest.Model implements Context.
package modules

import "fmt"

// Context is the landscape-level surface a disturbance module is allowed to
// touch, satisfied by *forest.Model. It intentionally exposes only
// coarse-grained operations (not individual Tree/ResourceUnit access) so a
// plug-in cannot violate the concurrency discipline of §5.
type Context interface {
	// Year returns the simulation year the module is currently running in.
	Year() int

	// ResourceUnitCount returns the number of resource units in the
	// landscape, for modules that need to size their own per-RU state.
	ResourceUnitCount() int

	// KillFraction kills a uniform random fraction (0-1) of living trees
	// landscape-wide and returns the number killed, the coarse mechanism
	// fire/wind stubs use to demonstrate a stand-replacing disturbance
	// without the module needing per-tree access.
	KillFraction(frac float64) int

	// HarvestAboveDbh removes every living tree with dbh >= minDbh (cm) and
	// returns the number removed, the mechanism the management stub uses.
	HarvestAboveDbh(minDbh float64) int
}

// Module is the disturbance plug-in interface dispatched each year by
// Registry.Run, per §4.10's "modules.run() // disturbance modules,
// randomized order" and §15's "Hosts disturbance plug-ins; dispatches
// setup, yearBegin, calculateWater, and run in randomized order."
type Module interface {
	// Name identifies the module for logging and Registry bookkeeping.
	Name() string

	// Setup is called once before the first simulated year.
	Setup(ctx Context) error

	// YearBegin is called at the start of every year, before TimeEvents,
	// Climate.NextYear and the light/growth phases (§4.10).
	YearBegin(ctx Context) error

	// CalculateWater is called during the water-cycle phase, giving a
	// module the chance to modify water availability before production
	// (e.g. a canopy-gap module changing interception).
	CalculateWater(ctx Context) error

	// Run executes the module's disturbance for the year.
	Run(ctx Context) error
}

// Randomizer is the minimal facade Registry.Run needs to shuffle dispatch
// order, kept local so this package does not import the root forest
// package's concrete Rand type.
type Randomizer interface {
	Shuffle(n int, swap func(i, j int))
}

// Registry holds the set of disturbance modules active in a run and
// dispatches their lifecycle callbacks.
type Registry struct {
	modules []Module
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry { return &Registry{} }

// Register adds m to the registry. Order of registration does not matter:
// Run always shuffles dispatch order.
func (r *Registry) Register(m Module) { r.modules = append(r.modules, m) }

// Len returns the number of registered modules.
func (r *Registry) Len() int { return len(r.modules) }

// shuffledOrder returns a permutation of [0,len(r.modules)) via rnd.Shuffle,
// the dispatch order every lifecycle callback uses per §15: "dispatches
// setup, yearBegin, calculateWater, and run in randomized order."
func (r *Registry) shuffledOrder(rnd Randomizer) []int {
	order := make([]int, len(r.modules))
	for i := range order {
		order[i] = i
	}
	rnd.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	return order
}

// Setup calls Setup on every registered module, in randomized order (§15).
func (r *Registry) Setup(ctx Context, rnd Randomizer) error {
	for _, i := range r.shuffledOrder(rnd) {
		m := r.modules[i]
		if err := m.Setup(ctx); err != nil {
			return fmt.Errorf("modules: %s: Setup: %w", m.Name(), err)
		}
	}
	return nil
}

// YearBegin calls YearBegin on every registered module, in randomized order
// (§15).
func (r *Registry) YearBegin(ctx Context, rnd Randomizer) error {
	for _, i := range r.shuffledOrder(rnd) {
		m := r.modules[i]
		if err := m.YearBegin(ctx); err != nil {
			return fmt.Errorf("modules: %s: YearBegin: %w", m.Name(), err)
		}
	}
	return nil
}

// CalculateWater calls CalculateWater on every registered module, in
// randomized order (§15).
func (r *Registry) CalculateWater(ctx Context, rnd Randomizer) error {
	for _, i := range r.shuffledOrder(rnd) {
		m := r.modules[i]
		if err := m.CalculateWater(ctx); err != nil {
			return fmt.Errorf("modules: %s: CalculateWater: %w", m.Name(), err)
		}
	}
	return nil
}

// Run dispatches Run on every registered module in a randomized order
// (§4.10, §15).
func (r *Registry) Run(ctx Context, rnd Randomizer) error {
	for _, i := range r.shuffledOrder(rnd) {
		m := r.modules[i]
		if err := m.Run(ctx); err != nil {
			return fmt.Errorf("modules: %s: Run: %w", m.Name(), err)
		}
	}
	return nil
}
