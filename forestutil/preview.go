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

package forestutil

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/dendrolab/forest"
)

// heightGridXYZ adapts a dominant-height grid to plotter.GridXYZ, the same
// heatmap-rendering approach the teacher's mapserver/eioserve packages use
// for their concentration-map PNGs (there via a broken color scale; here a
// plain diverging palette is enough for a diagnostic preview).
type heightGridXYZ struct {
	grid *forest.Grid[forest.HeightCell]
}

func (g heightGridXYZ) Dims() (c, r int) { return g.grid.SizeX(), g.grid.SizeY() }
func (g heightGridXYZ) Z(c, r int) float64 {
	return g.grid.Get(forest.Index{X: c, Y: r}).Height
}
func (g heightGridXYZ) X(c int) float64 { return float64(c) }
func (g heightGridXYZ) Y(r int) float64 { return float64(r) }

// writeGridPreview renders m's dominant-height grid as a heatmap PNG at
// outPath, for the "grid" subcommand's --preview flag.
func writeGridPreview(m *forest.Model, outPath string) error {
	p, err := plot.New()
	if err != nil {
		return fmt.Errorf("forestutil: creating plot: %w", err)
	}
	p.Title.Text = "dominant height (m)"

	var lo, hi float64
	for _, c := range m.Height.Data() {
		if c.Height < lo {
			lo = c.Height
		}
		if c.Height > hi {
			hi = c.Height
		}
	}
	cm := moreland.SmoothBlueRed()
	if err := cm.SetMin(lo); err != nil {
		return fmt.Errorf("forestutil: setting palette min: %w", err)
	}
	if err := cm.SetMax(hi); err != nil {
		return fmt.Errorf("forestutil: setting palette max: %w", err)
	}

	h := plotter.NewHeatMap(heightGridXYZ{grid: m.Height}, cm.Palette(255))
	p.Add(h)

	if err := p.Save(8*vg.Inch, 8*vg.Inch, outPath); err != nil {
		return fmt.Errorf("forestutil: saving grid preview to %s: %w", outPath, err)
	}
	return nil
}
