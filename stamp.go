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

package forest

import "math"

// StampSizes are the allowed square stamp side lengths.
var StampSizes = [...]int{4, 8, 12, 16, 24, 32, 48, 64}

// Stamp is a square float kernel representing one species' light-influence
// footprint, at 2 m resolution, for one (dbh, h) size class. size is always
// one of StampSizes; offset is the index of the logical center and is always
// size/2.
type Stamp struct {
	size   int
	offset int
	data   []float32

	reader *Stamp // companion reader stamp used during LRI readout, or nil

	crownRadius float64
	crownArea   float64
}

// NewStamp allocates a zeroed Stamp of the given size.
func NewStamp(size int) *Stamp {
	return &Stamp{size: size, offset: size / 2, data: make([]float32, size*size)}
}

// Size returns the stamp's side length.
func (s *Stamp) Size() int { return s.size }

// Offset returns the index of the logical center cell (always size/2).
func (s *Stamp) Offset() int { return s.offset }

func (s *Stamp) index(x, y int) int { return (y+s.offset)*s.size + (x + s.offset) }

// At returns the kernel value at offset (x, y) from the stamp center.
func (s *Stamp) At(x, y int) float64 { return float64(s.data[s.index(x, y)]) }

// Set stores v at offset (x, y) from the stamp center.
func (s *Stamp) Set(x, y int, v float64) { s.data[s.index(x, y)] = float32(v) }

// Reader returns the paired reader stamp, or nil if none has been set.
func (s *Stamp) Reader() *Stamp { return s.reader }

// SetReader attaches r as s's reader stamp and copies its crown radius.
func (s *Stamp) SetReader(r *Stamp) {
	s.reader = r
	s.SetCrownRadius(r.crownRadius)
}

// CrownRadius and CrownArea return the cached crown dimensions associated
// with this stamp.
func (s *Stamp) CrownRadius() float64 { return s.crownRadius }
func (s *Stamp) CrownArea() float64   { return s.crownArea }

// SetCrownRadius sets the crown radius and derives the crown area (π r²).
func (s *Stamp) SetCrownRadius(r float64) {
	s.crownRadius = r
	s.crownArea = r * r * math.Pi
}

// DistanceToCenter returns the planar distance in grid cells from the stamp
// center to offset (x, y); used for the 45°-cone height falloff in applyLIP.
func (s *Stamp) DistanceToCenter(x, y int) float64 {
	return math.Hypot(float64(x), float64(y))
}

// dOffset returns writer.offset - reader.offset: the shift that maps a
// reader-stamp index back onto writer-stamp coordinates (§4.2).
func dOffset(writer, reader *Stamp) int { return writer.offset - reader.offset }

// OffsetValue returns the writer stamp's value at reader-relative offset
// (x, y), translated into the writer's own coordinate system via d.
func (s *Stamp) OffsetValue(x, y, d int) float64 { return s.At(x+d, y+d) }
