package lagmap

import (
	"errors"
	"fmt"
	"math"
)

// ErrMismatch is returned when lag maps cannot be combined.
var ErrMismatch = errors.New("lagmap: mismatched inputs")

// Cell is a grid cell coordinate.
type Cell struct {
	I int `json:"i"`
	J int `json:"j"`
}

// Candidates returns every defined cell whose lag equals lag, ordered by row
// then column. lag is rounded half to even first, matching the stored values.
func (lm *LagMap) Candidates(lag float64) []Cell {
	if lm.grid == nil || math.IsNaN(lag) {
		return nil
	}
	want := math.RoundToEven(lag)
	var cells []Cell
	for row := 0; row < lm.side; row++ {
		for col := 0; col < lm.side; col++ {
			if lm.grid.At(row, col) == want {
				cells = append(cells, Cell{I: col - lm.radius, J: row - lm.radius})
			}
		}
	}
	return cells
}

// Intersect returns the cells consistent with every (maps[k], lags[k]) pair,
// e.g. the lags observed on several sensor pairs around the same membrane.
// All maps must share a radius.
func Intersect(maps []*LagMap, lags []float64) ([]Cell, error) {
	if len(maps) != len(lags) {
		return nil, fmt.Errorf("%d maps but %d lags: %w", len(maps), len(lags), ErrMismatch)
	}
	if len(maps) == 0 {
		return nil, nil
	}
	for k, lm := range maps[1:] {
		if lm.radius != maps[0].radius {
			return nil, fmt.Errorf("map %d has radius %d, want %d: %w", k+1, lm.radius, maps[0].radius, ErrMismatch)
		}
	}

	var cells []Cell
	for _, c := range maps[0].Candidates(lags[0]) {
		match := true
		for k := 1; k < len(maps); k++ {
			if maps[k].At(c.I, c.J) != math.RoundToEven(lags[k]) {
				match = false
				break
			}
		}
		if match {
			cells = append(cells, c)
		}
	}
	return cells, nil
}
