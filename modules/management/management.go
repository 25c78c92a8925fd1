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

// Package management is a stub disturbance plug-in standing in for the
// scripting host the specification treats as out of scope ("the individual
// disturbance plug-ins (fire, wind, management scripts)... the scripting
// host" are named as external collaborators in §1). Unlike fire/wind, a
// management intervention is scheduled rather than stochastic: it harvests
// every tree above a configured dbh threshold in a configured year.
package management

import (
	"github.com/dendrolab/forest/modules"
	log "github.com/sirupsen/logrus"
)

// Module is a stub management plug-in: a single scheduled harvest above a
// dbh threshold.
type Module struct {
	HarvestYear int
	MinDbh      float64
}

// New returns a management Module scheduled to harvest trees with
// dbh >= minDbh in harvestYear.
func New(harvestYear int, minDbh float64) *Module {
	return &Module{HarvestYear: harvestYear, MinDbh: minDbh}
}

func (m *Module) Name() string { return "management" }

func (m *Module) Setup(ctx modules.Context) error         { return nil }
func (m *Module) YearBegin(ctx modules.Context) error     { return nil }
func (m *Module) CalculateWater(ctx modules.Context) error { return nil }

func (m *Module) Run(ctx modules.Context) error {
	if ctx.Year() != m.HarvestYear {
		return nil
	}
	removed := ctx.HarvestAboveDbh(m.MinDbh)
	log.WithFields(log.Fields{"module": "management", "year": ctx.Year(), "removed": removed}).Info("scheduled harvest")
	return nil
}
