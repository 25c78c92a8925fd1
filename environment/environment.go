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

// Package environment maps a resource-unit position to the climate table,
// species set and per-RU settings overrides that position should use (§4.12,
// §6 "Environment CSV"). It is grounded on the teacher's Environment CSV
// reading idiom in inmaputil/config.go (GetStringMapString /
// getStringMapStringSlice): a header-driven table where any column matching
// a settings key becomes a per-row override, read here with the standard
// library's encoding/csv the way the teacher reads its own small
// delimited config tables rather than pulling in a third CSV dependency.
package environment

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dendrolab/forest/config"
)

// Mode selects how a CSV row is matched to a resource unit.
type Mode int

const (
	// Matrix mode matches rows by integer 1-ha (x, y) indices.
	Matrix Mode = iota
	// Grid mode matches rows by an "id" column against a raster's cell
	// values (the raster itself is read by package gridio).
	Grid
)

// specialColumns select a shared Species/Climate object instead of
// overriding a Config setting (§6).
const (
	colSpeciesSource  = "model.species.source"
	colClimateTable   = "model.climate.tableName"
)

// Row is one resource unit's environment assignment: the raw column values
// plus the two special selectors, keyed by position.
type Row struct {
	X, Y int // matrix-mode key
	ID   int // grid-mode key

	SpeciesSource string
	ClimateTable  string

	Overrides map[string]float64 // settings-key -> value, every column that is not a special column and parses as a float
}

// Environment is the parsed CSV table plus the mode used to key it.
type Environment struct {
	Mode Mode

	byXY map[[2]int]*Row
	byID map[int]*Row
}

// Load parses an Environment CSV (§6): a header row, then one row per
// resource unit. In Matrix mode columns "x","y" are mandatory; in Grid mode
// column "id" is mandatory. Any other column whose header matches a §6
// settings key becomes that row's override for the resource unit at its
// position; "model.species.source" and "model.climate.tableName" select
// shared objects instead.
func Load(r io.Reader, mode Mode) (*Environment, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("environment: reading header: %w", err)
	}
	env := &Environment{Mode: mode, byXY: map[[2]int]*Row{}, byID: map[int]*Row{}}

	colIdx := map[string]int{}
	for i, h := range header {
		colIdx[strings.TrimSpace(h)] = i
	}
	if mode == Matrix {
		if _, ok := colIdx["x"]; !ok {
			return nil, fmt.Errorf("environment: matrix mode requires an \"x\" column")
		}
		if _, ok := colIdx["y"]; !ok {
			return nil, fmt.Errorf("environment: matrix mode requires a \"y\" column")
		}
	} else if _, ok := colIdx["id"]; !ok {
		return nil, fmt.Errorf("environment: grid mode requires an \"id\" column")
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("environment: %w", err)
		}
		row := &Row{Overrides: map[string]float64{}}
		for col, idx := range colIdx {
			if idx >= len(rec) {
				continue
			}
			val := rec[idx]
			switch col {
			case "x":
				row.X, _ = strconv.Atoi(val)
			case "y":
				row.Y, _ = strconv.Atoi(val)
			case "id":
				row.ID, _ = strconv.Atoi(val)
			case colSpeciesSource:
				row.SpeciesSource = val
			case colClimateTable:
				row.ClimateTable = val
			default:
				if f, err := strconv.ParseFloat(val, 64); err == nil {
					row.Overrides[col] = f
				}
			}
		}
		if mode == Matrix {
			env.byXY[[2]int{row.X, row.Y}] = row
		} else {
			env.byID[row.ID] = row
		}
	}
	return env, nil
}

// AtMatrix returns the row for the 1-ha (x, y) index, and whether one was
// found (Matrix mode).
func (e *Environment) AtMatrix(x, y int) (*Row, bool) {
	r, ok := e.byXY[[2]int{x, y}]
	return r, ok
}

// AtID returns the row for a raster id (Grid mode).
func (e *Environment) AtID(id int) (*Row, bool) {
	r, ok := e.byID[id]
	return r, ok
}

// Apply patches cfg with the row's settings overrides, matching §6's "Any
// column whose name matches a settings key overrides that key for the
// resource unit containing the row's coordinate."
func (r *Row) Apply(cfg *config.Config) (unrecognized []string) {
	for key, val := range r.Overrides {
		if !cfg.Set(key, val) {
			unrecognized = append(unrecognized, key)
		}
	}
	return unrecognized
}
