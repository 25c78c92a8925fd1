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

// Package wind is a stub disturbance plug-in (§1, §4.10, §15), analogous to
// package fire: wind throw is out of scope beyond its invocation contract.
// This stub applies a small annual background kill probability, independent
// of the fire module's stand-replacing event, to exercise the registry
// dispatching more than one Module per year in randomized order.
package wind

import (
	"github.com/dendrolab/forest/modules"
	log "github.com/sirupsen/logrus"
)

// Module is a stub windthrow disturbance: each year it kills a small
// AnnualKillFraction of the landscape's living trees.
type Module struct {
	AnnualKillFraction float64
}

// New returns a wind Module with the given annual kill fraction.
func New(annualKillFraction float64) *Module {
	return &Module{AnnualKillFraction: annualKillFraction}
}

func (m *Module) Name() string { return "wind" }

func (m *Module) Setup(ctx modules.Context) error       { return nil }
func (m *Module) YearBegin(ctx modules.Context) error   { return nil }
func (m *Module) CalculateWater(ctx modules.Context) error { return nil }

func (m *Module) Run(ctx modules.Context) error {
	if m.AnnualKillFraction <= 0 {
		return nil
	}
	killed := ctx.KillFraction(m.AnnualKillFraction)
	log.WithFields(log.Fields{"module": "wind", "year": ctx.Year(), "killed": killed}).Debug("windthrow background mortality")
	return nil
}
