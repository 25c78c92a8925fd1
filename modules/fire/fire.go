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

// Package fire is a stub disturbance plug-in proving out the
// modules.Module interface (§1, §4.10, §15). Fire is out of scope for this
// specification beyond its invocation contract; this module implements a
// minimal, deterministic-given-seed stand-replacing event on a configured
// return interval, enough to exercise Setup/YearBegin/CalculateWater/Run.
package fire

import (
	"github.com/dendrolab/forest/modules"
	log "github.com/sirupsen/logrus"
)

// Module is a stub fire disturbance: every ReturnIntervalYears years it
// kills KillFraction of the landscape's living trees.
type Module struct {
	ReturnIntervalYears int
	KillFraction        float64

	yearsSinceFire int
}

// New returns a fire Module with the given return interval and kill
// fraction.
func New(returnIntervalYears int, killFraction float64) *Module {
	return &Module{ReturnIntervalYears: returnIntervalYears, KillFraction: killFraction}
}

func (m *Module) Name() string { return "fire" }

func (m *Module) Setup(ctx modules.Context) error {
	m.yearsSinceFire = 0
	return nil
}

func (m *Module) YearBegin(ctx modules.Context) error {
	m.yearsSinceFire++
	return nil
}

func (m *Module) CalculateWater(ctx modules.Context) error { return nil }

func (m *Module) Run(ctx modules.Context) error {
	if m.ReturnIntervalYears <= 0 || m.yearsSinceFire < m.ReturnIntervalYears {
		return nil
	}
	killed := ctx.KillFraction(m.KillFraction)
	log.WithFields(log.Fields{"module": "fire", "year": ctx.Year(), "killed": killed}).Info("fire event")
	m.yearsSinceFire = 0
	return nil
}
