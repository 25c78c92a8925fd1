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
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// Checkpoint is the model's own restart format (§6: model.world.* resolves
// against it in *grid* mode). It stores every named grid (LIF, height,
// resource-unit state, ...) as a COARDS NetCDF variable over shared ny/nx
// dimensions, following aim.go's write pattern of one cdf.Header built up
// with AddVariable/AddAttribute before a single cdf.Create.
type Checkpoint struct {
	Year   int
	NX, NY int

	grids map[string]*sparse.DenseArray
	order []string
}

// NewCheckpoint returns an empty checkpoint sized nx by ny for the given
// simulation year.
func NewCheckpoint(year, nx, ny int) *Checkpoint {
	return &Checkpoint{Year: year, NX: nx, NY: ny, grids: map[string]*sparse.DenseArray{}}
}

// PutGrid stores values (row-major, len==nx*ny) under name, overwriting any
// grid already stored with that name.
func (c *Checkpoint) PutGrid(name string, values []float64) error {
	if len(values) != c.NX*c.NY {
		return fmt.Errorf("gridio: checkpoint: grid %q has %d values, want %d", name, len(values), c.NX*c.NY)
	}
	arr := sparse.ZerosDense(c.NY, c.NX)
	copy(arr.Elements, values)
	if _, ok := c.grids[name]; !ok {
		c.order = append(c.order, name)
	}
	c.grids[name] = arr
	return nil
}

// Grid returns the stored values for name, or nil if it was never put.
func (c *Checkpoint) Grid(name string) []float64 {
	arr, ok := c.grids[name]
	if !ok {
		return nil
	}
	out := make([]float64, len(arr.Elements))
	copy(out, arr.Elements)
	return out
}

// WriteFile writes the checkpoint to path in NetCDF format.
func (c *Checkpoint) WriteFile(path string) error {
	h := cdf.NewHeader([]string{"ny", "nx"}, []int{c.NY, c.NX})
	for _, name := range c.order {
		h.AddVariable(name, []string{"ny", "nx"}, []float32{0})
	}
	h.AddAttribute("", "year", []int32{int32(c.Year)})
	h.Define()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("gridio: checkpoint: creating %s: %w", path, err)
	}
	defer f.Close()

	cf, err := cdf.Create(f, h)
	if err != nil {
		return fmt.Errorf("gridio: checkpoint: writing header to %s: %w", path, err)
	}
	for _, name := range c.order {
		if err := writeGrid(cf, name, c.grids[name]); err != nil {
			return err
		}
	}
	return nil
}

func writeGrid(f *cdf.File, name string, data *sparse.DenseArray) error {
	data32 := make([]float32, len(data.Elements))
	for i, v := range data.Elements {
		data32[i] = float32(v)
	}
	end := f.Header.Lengths(name)
	start := make([]int, len(end))
	w := f.Writer(name, start, end)
	_, err := w.Write(data32)
	if err != nil {
		return fmt.Errorf("gridio: checkpoint: writing variable %s: %w", name, err)
	}
	return nil
}

// ReadCheckpointFile opens a NetCDF checkpoint written by WriteFile and
// loads every declared variable.
func ReadCheckpointFile(path string) (*Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gridio: checkpoint: opening %s: %w", path, err)
	}
	defer f.Close()

	cf, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("gridio: checkpoint: reading header of %s: %w", path, err)
	}

	var ny, nx int
	for i, d := range cf.Header.Dimensions(cf.Header.Variables()[0]) {
		n := cf.Header.Lengths(cf.Header.Variables()[0])[i]
		switch d {
		case "ny":
			ny = n
		case "nx":
			nx = n
		}
	}

	year := 0
	if v, ok := cf.Header.GetAttribute("", "year").([]int32); ok && len(v) > 0 {
		year = int(v[0])
	}

	c := NewCheckpoint(year, nx, ny)
	for _, name := range cf.Header.Variables() {
		end := cf.Header.Lengths(name)
		start := make([]int, len(end))
		r := cf.Reader(name, start, end)
		buf := make([]float32, nx*ny)
		if _, err := r.Read(buf); err != nil {
			return nil, fmt.Errorf("gridio: checkpoint: reading variable %s: %w", name, err)
		}
		values := make([]float64, len(buf))
		for i, v := range buf {
			values[i] = float64(v)
		}
		if err := c.PutGrid(name, values); err != nil {
			return nil, err
		}
	}
	return c, nil
}
