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

// Package gridio reads and writes the raster file formats named in §6:
// ESRI ASCII grids for DEM/stand-grid/environment-grid input, and NetCDF
// for the model's own checkpoint/restart format. Cell footprints are built
// with github.com/ctessum/geom, the same library the teacher uses for its
// CTM cell geometry (preproc.go's grid construction), and the NetCDF layer
// is grounded on github.com/ctessum/cdf, the teacher's meteorology/
// background-concentration I/O driver.
package gridio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
)

// ASCIIRaster is a parsed ESRI ASCII grid: a 6-line header
// (ncols/nrows/xllcorner/yllcorner/cellsize/NODATA_value) followed by
// nrows*ncols whitespace-separated values, row-major from the top.
type ASCIIRaster struct {
	NCols, NRows   int
	XLLCorner      float64
	YLLCorner      float64
	CellSize       float64
	NoDataValue    float64
	Data           []float64 // row-major, row 0 is the northernmost row
}

// ReadASCII parses an ESRI ASCII raster from r.
func ReadASCII(r io.Reader) (*ASCIIRaster, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	ras := &ASCIIRaster{NoDataValue: -9999}
	header := map[string]float64{}
	headerKeys := []string{"ncols", "nrows", "xllcorner", "yllcorner", "cellsize", "nodata_value"}
	for len(header) < len(headerKeys) {
		if !sc.Scan() {
			return nil, fmt.Errorf("gridio: ascii: truncated header: %w", sc.Err())
		}
		fields := strings.Fields(sc.Text())
		if len(fields) != 2 {
			return nil, fmt.Errorf("gridio: ascii: malformed header line %q", sc.Text())
		}
		key := strings.ToLower(fields[0])
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("gridio: ascii: header value %q: %w", fields[1], err)
		}
		header[key] = v
	}
	ras.NCols = int(header["ncols"])
	ras.NRows = int(header["nrows"])
	ras.XLLCorner = header["xllcorner"]
	ras.YLLCorner = header["yllcorner"]
	ras.CellSize = header["cellsize"]
	if v, ok := header["nodata_value"]; ok {
		ras.NoDataValue = v
	}

	ras.Data = make([]float64, 0, ras.NCols*ras.NRows)
	for sc.Scan() {
		for _, f := range strings.Fields(sc.Text()) {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("gridio: ascii: cell value %q: %w", f, err)
			}
			ras.Data = append(ras.Data, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("gridio: ascii: reading body: %w", err)
	}
	if len(ras.Data) != ras.NCols*ras.NRows {
		return nil, fmt.Errorf("gridio: ascii: got %d cell values, want %d", len(ras.Data), ras.NCols*ras.NRows)
	}
	return ras, nil
}

// ReadASCIIFile opens and parses path.
func ReadASCIIFile(path string) (*ASCIIRaster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gridio: opening %s: %w", path, err)
	}
	defer f.Close()
	return ReadASCII(f)
}

// WriteASCII writes ras in ESRI ASCII grid format to w.
func WriteASCII(w io.Writer, ras *ASCIIRaster) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ncols %d\n", ras.NCols)
	fmt.Fprintf(bw, "nrows %d\n", ras.NRows)
	fmt.Fprintf(bw, "xllcorner %g\n", ras.XLLCorner)
	fmt.Fprintf(bw, "yllcorner %g\n", ras.YLLCorner)
	fmt.Fprintf(bw, "cellsize %g\n", ras.CellSize)
	fmt.Fprintf(bw, "NODATA_value %g\n", ras.NoDataValue)
	for row := 0; row < ras.NRows; row++ {
		vals := ras.Data[row*ras.NCols : (row+1)*ras.NCols]
		strs := make([]string, len(vals))
		for i, v := range vals {
			strs[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		fmt.Fprintln(bw, strings.Join(strs, " "))
	}
	return bw.Flush()
}

// At returns the cell value at (col, row), row 0 being northernmost.
func (r *ASCIIRaster) At(col, row int) float64 {
	return r.Data[row*r.NCols+col]
}

// IsNoData reports whether v equals the raster's NODATA_value.
func (r *ASCIIRaster) IsNoData(v float64) bool { return v == r.NoDataValue }

// CellRect returns the map-space footprint of (col, row) as a geom.Polygon,
// the same cell-rectangle construction forest.Grid[T].CellRect uses for the
// simulation's own grids, so a stand/environment/DEM raster reprojects onto
// model space without a second geometry representation.
func (r *ASCIIRaster) CellRect(col, row int) geom.Polygon {
	// Row 0 is the northernmost row; y decreases with increasing row index.
	x0 := r.XLLCorner + float64(col)*r.CellSize
	yTop := r.YLLCorner + float64(r.NRows)*r.CellSize
	y0 := yTop - float64(row+1)*r.CellSize
	x1, y1 := x0+r.CellSize, y0+r.CellSize
	return geom.Polygon{{
		{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0},
	}}
}

// Bounds returns the overall map-space extent of the raster.
func (r *ASCIIRaster) Bounds() geom.Bounds {
	return geom.Bounds{
		Min: geom.Point{X: r.XLLCorner, Y: r.YLLCorner},
		Max: geom.Point{X: r.XLLCorner + float64(r.NCols)*r.CellSize, Y: r.YLLCorner + float64(r.NRows)*r.CellSize},
	}
}
