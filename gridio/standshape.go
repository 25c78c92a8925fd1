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

package gridio

import (
	"fmt"
	"strconv"
	"strings"

	shp "github.com/jonas-p/go-shp"

	"github.com/ctessum/geom"
)

// Stand is one polygon read from a stand-grid shapefile (model.world.
// standGrid.fileName, §6): a management unit footprint with an integer ID
// used to key environment-table rows in Row grid mode.
type Stand struct {
	ID     int
	Bounds geom.Bounds
}

// ReadStandShapefile reads the stand polygons from path, matching IDs from
// idField (case-insensitive). It is a direct consumer of go-shp rather than
// geom/encoding/shp's reflection-based Decoder since only the bounding
// box and an integer ID are needed, not the full polygon geometry.
func ReadStandShapefile(path, idField string) ([]Stand, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gridio: opening stand shapefile %s: %w", path, err)
	}
	defer r.Close()

	idIdx := -1
	for i, f := range r.Fields() {
		if strings.EqualFold(fieldName(f), idField) {
			idIdx = i
			break
		}
	}
	if idIdx < 0 {
		return nil, fmt.Errorf("gridio: stand shapefile %s has no field %q", path, idField)
	}

	var stands []Stand
	for r.Next() {
		n, shape := r.Shape()
		box := shape.BBox()
		id, err := strconv.Atoi(strings.TrimSpace(r.Attribute(idIdx)))
		if err != nil {
			return nil, fmt.Errorf("gridio: stand shapefile %s record %d: parsing %s: %w", path, n, idField, err)
		}
		stands = append(stands, Stand{
			ID: id,
			Bounds: geom.Bounds{
				Min: geom.Point{X: box.MinX, Y: box.MinY},
				Max: geom.Point{X: box.MaxX, Y: box.MaxY},
			},
		})
	}
	return stands, nil
}

func fieldName(f shp.Field) string {
	b := make([]byte, 0, len(f.Name))
	for _, c := range f.Name {
		if c == 0 {
			break
		}
		b = append(b, byte(c))
	}
	return string(b)
}
