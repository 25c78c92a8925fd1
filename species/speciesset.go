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

package species

import "fmt"

// StampKey identifies one cell of the shared stamp container: a species plus
// a (dbh, height) size class, matching §3's "Stamps are immutable after
// setup... chosen by (species, dbh bin, h bin)".
type StampKey struct {
	SpeciesID string
	DbhClass  int
	HClass    int
}

// StampContainer is the shared, read-only-after-setup lookup table mapping
// (species, size class) to a stamp of type S. It is generic over S so this
// package never needs to import the root forest package's concrete *Stamp
// type, which in turn imports species — parameterizing over S keeps the
// dependency graph a DAG (root forest package instantiates
// StampContainer[*forest.Stamp]).
type StampContainer[S any] struct {
	stamps map[StampKey]S
}

// NewStampContainer returns an empty container ready for Set calls during
// setup.
func NewStampContainer[S any]() *StampContainer[S] {
	return &StampContainer[S]{stamps: make(map[StampKey]S)}
}

// Set installs the stamp for the given key. Intended to be called only
// during SpeciesSet setup, before any Tree references a stamp.
func (c *StampContainer[S]) Set(key StampKey, s S) { c.stamps[key] = s }

// Get returns the stamp for key and whether it was found.
func (c *StampContainer[S]) Get(key StampKey) (S, bool) {
	s, ok := c.stamps[key]
	return s, ok
}

// SpeciesSet owns a group of Species that share one stamp container and one
// light-influence coordinate system (§2 component 4, §3 "ownership and
// lifecycle": Species and SpeciesSet outlive all trees).
type SpeciesSet[S any] struct {
	species map[string]*Species
	order   []string // insertion order, for deterministic iteration (newYear, regeneration)
	Stamps  *StampContainer[S]
}

// NewSpeciesSet returns an empty SpeciesSet with a fresh stamp container.
func NewSpeciesSet[S any]() *SpeciesSet[S] {
	return &SpeciesSet[S]{
		species: make(map[string]*Species),
		Stamps:  NewStampContainer[S](),
	}
}

// Add registers sp in the set. Adding the same ID twice is a setup error.
func (ss *SpeciesSet[S]) Add(sp *Species) error {
	if _, exists := ss.species[sp.ID]; exists {
		return fmt.Errorf("species: duplicate species id %q in SpeciesSet", sp.ID)
	}
	ss.species[sp.ID] = sp
	ss.order = append(ss.order, sp.ID)
	return nil
}

// Get looks up a species by ID.
func (ss *SpeciesSet[S]) Get(id string) (*Species, bool) {
	sp, ok := ss.species[id]
	return sp, ok
}

// MustGet is like Get but panics if id is not registered, for call sites
// downstream of setup validation where a missing species indicates a
// programming error rather than a malformed project file.
func (ss *SpeciesSet[S]) MustGet(id string) *Species {
	sp, ok := ss.species[id]
	if !ok {
		panic(fmt.Sprintf("species: unknown species id %q", id))
	}
	return sp
}

// All iterates the set's species in registration order.
func (ss *SpeciesSet[S]) All() []*Species {
	out := make([]*Species, 0, len(ss.order))
	for _, id := range ss.order {
		out = append(out, ss.species[id])
	}
	return out
}

// Len returns the number of species in the set.
func (ss *SpeciesSet[S]) Len() int { return len(ss.species) }
