// Package landmark implements the alternating fixed/moving landmark picking
// protocol and the fixed-capacity table it fills.
package landmark

import (
	"fmt"
	"strconv"
	"strings"

	"landmark-picker/pkg/geometry"
)

// ImageRef identifies one of the two annotated images.
type ImageRef int

const (
	Fixed  ImageRef = iota // Reference image
	Moving                 // Image to be aligned
)

func (r ImageRef) String() string {
	switch r {
	case Fixed:
		return "fixed"
	case Moving:
		return "moving"
	default:
		return "unknown"
	}
}

// Other returns the opposite image.
func (r ImageRef) Other() ImageRef {
	if r == Fixed {
		return Moving
	}
	return Fixed
}

// Columns per table row: fixed x, fixed y, moving x, moving y.
const Columns = 4

// Row is one landmark: a fixed point and a moving point, either of which may
// still be unset.
type Row struct {
	Fixed     geometry.Point
	Moving    geometry.Point
	HasFixed  bool
	HasMoving bool
}

// Point returns the stored point for ref and whether it is set.
func (r Row) Point(ref ImageRef) (geometry.Point, bool) {
	if ref == Fixed {
		return r.Fixed, r.HasFixed
	}
	return r.Moving, r.HasMoving
}

// Complete reports whether both points are set.
func (r Row) Complete() bool {
	return r.HasFixed && r.HasMoving
}

// Values returns the four grid columns, using sentinel for unset points.
func (r Row) Values(sentinel int) [Columns]int {
	v := [Columns]int{sentinel, sentinel, sentinel, sentinel}
	if r.HasFixed {
		v[0], v[1] = r.Fixed.X, r.Fixed.Y
	}
	if r.HasMoving {
		v[2], v[3] = r.Moving.X, r.Moving.Y
	}
	return v
}

// Table is a fixed-capacity ordered list of landmark rows.
type Table struct {
	rows []Row
}

// NewTable creates an empty table with the given number of rows.
func NewTable(capacity int) (*Table, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("landmark capacity must be at least 1, got %d", capacity)
	}
	return &Table{rows: make([]Row, capacity)}, nil
}

// Capacity returns the number of rows.
func (t *Table) Capacity() int {
	return len(t.rows)
}

// Row returns a copy of row i.
func (t *Table) Row(i int) Row {
	return t.rows[i]
}

// Rows returns a copy of all rows.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// Clone returns an independent copy of the table.
func (t *Table) Clone() *Table {
	return &Table{rows: t.Rows()}
}

// Points returns the set points for ref keyed by row index.
func (t *Table) Points(ref ImageRef) map[int]geometry.Point {
	out := make(map[int]geometry.Point)
	for i, r := range t.rows {
		if p, ok := r.Point(ref); ok {
			out[i] = p
		}
	}
	return out
}

func (t *Table) set(slot int, p geometry.Point) {
	row := &t.rows[slot/2]
	if slot%2 == 0 {
		row.Fixed, row.HasFixed = p, true
	} else {
		row.Moving, row.HasMoving = p, true
	}
}

func (t *Table) clear() {
	for i := range t.rows {
		t.rows[i] = Row{}
	}
}

// Format renders the table as the landmark text grid: one line per row,
// every column followed by a single space, unset columns shown as sentinel.
func (t *Table) Format(sentinel int) string {
	var sb strings.Builder
	for _, r := range t.rows {
		for _, v := range r.Values(sentinel) {
			sb.WriteString(strconv.Itoa(v))
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
