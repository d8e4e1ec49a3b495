package lagmap

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LagMap is a square grid of sample lags indexed by cell coordinates
// i (x) and j (y), both in [-Radius, Radius]. Cells outside the membrane
// hold NaN. A LagMap is not modified after Compute returns it.
type LagMap struct {
	radius int
	side   int

	// grid rows are j+radius and columns i+radius, so row 0 is the bottom
	// edge. nil when side is 0.
	grid *mat.Dense
}

func newLagMap(radius int, data []float64) *LagMap {
	side := 2*radius + 1
	if side < 0 {
		side = 0
	}
	lm := &LagMap{radius: radius, side: side}
	if side > 0 {
		lm.grid = mat.NewDense(side, side, data)
	}
	return lm
}

// FromValues rebuilds a LagMap from a row-major slice as returned by Values.
// It returns false when len(values) does not match the radius.
func FromValues(radius int, values []float64) (*LagMap, bool) {
	side := 2*radius + 1
	if side < 0 {
		side = 0
	}
	if len(values) != side*side {
		return nil, false
	}
	data := make([]float64, len(values))
	copy(data, values)
	return newLagMap(radius, data), true
}

// Radius returns the integer grid radius.
func (lm *LagMap) Radius() int { return lm.radius }

// Size returns the side length of the grid, 2*Radius+1, or 0 for an empty map.
func (lm *LagMap) Size() int { return lm.side }

// Contains reports whether (i, j) is a grid cell.
func (lm *LagMap) Contains(i, j int) bool {
	return lm.side > 0 && i >= -lm.radius && i <= lm.radius && j >= -lm.radius && j <= lm.radius
}

// At returns the lag at cell (i, j), or NaN when the cell is masked or
// outside the grid.
func (lm *LagMap) At(i, j int) float64 {
	if !lm.Contains(i, j) {
		return math.NaN()
	}
	return lm.grid.At(j+lm.radius, i+lm.radius)
}

// Inside reports whether (i, j) holds a defined lag.
func (lm *LagMap) Inside(i, j int) bool {
	return !math.IsNaN(lm.At(i, j))
}

// Dense returns the underlying matrix (row j+Radius, column i+Radius).
// Callers must not modify it. Returns nil for an empty map.
func (lm *LagMap) Dense() *mat.Dense { return lm.grid }

// Values returns a row-major copy of the grid, bottom row first.
func (lm *LagMap) Values() []float64 {
	if lm.grid == nil {
		return nil
	}
	raw := lm.grid.RawMatrix()
	out := make([]float64, 0, lm.side*lm.side)
	for r := 0; r < raw.Rows; r++ {
		out = append(out, raw.Data[r*raw.Stride:r*raw.Stride+raw.Cols]...)
	}
	return out
}

// DefinedCount returns the number of cells inside the membrane.
func (lm *LagMap) DefinedCount() int {
	if lm.grid == nil {
		return 0
	}
	return floats.Count(func(v float64) bool { return !math.IsNaN(v) }, lm.grid.RawMatrix().Data)
}

// Range returns the smallest and largest defined lag. ok is false when no
// cell is defined.
func (lm *LagMap) Range() (lo, hi float64, ok bool) {
	if lm.grid == nil {
		return 0, 0, false
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range lm.grid.RawMatrix().Data {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		ok = true
	}
	if !ok {
		return 0, 0, false
	}
	return lo, hi, true
}

// Dims, Z, X and Y let a LagMap be drawn directly as a gonum plotter.GridXYZ.
// Column c maps to i = c-Radius and row r to j = r-Radius.

// Dims returns the number of columns and rows.
func (lm *LagMap) Dims() (c, r int) { return lm.side, lm.side }

// Z returns the lag at column c, row r.
func (lm *LagMap) Z(c, r int) float64 { return lm.grid.At(r, c) }

// X returns the cell coordinate of column c.
func (lm *LagMap) X(c int) float64 { return float64(c - lm.radius) }

// Y returns the cell coordinate of row r.
func (lm *LagMap) Y(r int) float64 { return float64(r - lm.radius) }
