package gridio

import (
	"path/filepath"
	"strings"
	"testing"
)

const sampleASCII = `ncols 3
nrows 2
xllcorner 100
yllcorner 200
cellsize 10
NODATA_value -9999
1 2 3
4 5 -9999
`

func TestReadASCIIParsesHeaderAndBody(t *testing.T) {
	ras, err := ReadASCII(strings.NewReader(sampleASCII))
	if err != nil {
		t.Fatal(err)
	}
	if ras.NCols != 3 || ras.NRows != 2 {
		t.Fatalf("dims = %d x %d, want 3 x 2", ras.NCols, ras.NRows)
	}
	if ras.CellSize != 10 || ras.XLLCorner != 100 || ras.YLLCorner != 200 {
		t.Errorf("unexpected georeferencing: %+v", ras)
	}
	if ras.At(0, 0) != 1 || ras.At(2, 0) != 3 || ras.At(1, 1) != 5 {
		t.Errorf("unexpected cell values: %v", ras.Data)
	}
	if !ras.IsNoData(ras.At(2, 1)) {
		t.Error("expected (2,1) to be NODATA")
	}
}

func TestWriteASCIIRoundTrips(t *testing.T) {
	ras, err := ReadASCII(strings.NewReader(sampleASCII))
	if err != nil {
		t.Fatal(err)
	}
	var buf strings.Builder
	if err := WriteASCII(&buf, ras); err != nil {
		t.Fatal(err)
	}
	roundTripped, err := ReadASCII(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("re-parsing written raster: %v", err)
	}
	for i := range ras.Data {
		if ras.Data[i] != roundTripped.Data[i] {
			t.Fatalf("round trip mismatch at %d: %v != %v", i, ras.Data[i], roundTripped.Data[i])
		}
	}
}

func TestCellRectAnchorsToLowerLeft(t *testing.T) {
	ras, err := ReadASCII(strings.NewReader(sampleASCII))
	if err != nil {
		t.Fatal(err)
	}
	// bottom-left cell of the raster (row NRows-1) should touch the
	// lower-left corner of the overall bounds.
	rect := ras.CellRect(0, ras.NRows-1)
	if rect[0][0].X != ras.XLLCorner || rect[0][0].Y != ras.YLLCorner {
		t.Errorf("bottom-left cell corner = %v, want (%g,%g)", rect[0][0], ras.XLLCorner, ras.YLLCorner)
	}
}

func TestCheckpointPutAndGetGridRoundTrips(t *testing.T) {
	c := NewCheckpoint(7, 2, 2)
	values := []float64{1, 2, 3, 4}
	if err := c.PutGrid("lif", values); err != nil {
		t.Fatal(err)
	}
	got := c.Grid("lif")
	for i := range values {
		if got[i] != values[i] {
			t.Fatalf("Grid(%q)[%d] = %v, want %v", "lif", i, got[i], values[i])
		}
	}
	if c.Grid("missing") != nil {
		t.Error("Grid for an unput name should return nil")
	}
}

func TestCheckpointPutGridRejectsWrongSize(t *testing.T) {
	c := NewCheckpoint(1, 2, 2)
	if err := c.PutGrid("lif", []float64{1, 2, 3}); err == nil {
		t.Error("expected an error for a mis-sized grid")
	}
}

func TestCheckpointWriteFileThenReadCheckpointFileRoundTrips(t *testing.T) {
	c := NewCheckpoint(42, 2, 3)
	lif := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}
	height := []float64{1, 2, 3, 4, 5, 6}
	if err := c.PutGrid("lif", lif); err != nil {
		t.Fatal(err)
	}
	if err := c.PutGrid("height", height); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "checkpoint.ncf")
	if err := c.WriteFile(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := ReadCheckpointFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Year != 42 || loaded.NX != 2 || loaded.NY != 3 {
		t.Fatalf("loaded = %+v, want Year=42 NX=2 NY=3", loaded)
	}
	gotLIF := loaded.Grid("lif")
	for i := range lif {
		if gotLIF[i] != float64(float32(lif[i])) {
			t.Errorf("lif[%d] = %v, want %v", i, gotLIF[i], lif[i])
		}
	}
}
