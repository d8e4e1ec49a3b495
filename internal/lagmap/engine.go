package lagmap

import (
	"math"
	"runtime"
	"sync"
)

// Engine computes lag maps, spreading grid rows over Workers goroutines.
// Every cell is independent, so the result does not depend on Workers.
type Engine struct {
	// Workers is the number of goroutines used per map. Values below 1 mean one.
	Workers int
}

// NewEngine returns an Engine with one worker per available CPU.
func NewEngine() *Engine {
	return &Engine{Workers: runtime.GOMAXPROCS(0)}
}

// Compute returns the lag map for p using an engine sized to GOMAXPROCS.
func Compute(p Params) *LagMap {
	return NewEngine().Compute(p)
}

// rowSet is the list of grid rows a single worker fills.
type rowSet struct {
	rows []int
}

// assignRows distributes rows across workers round robin so that the costly
// middle rows of the disc are shared evenly.
func assignRows(workerCount, side int) []rowSet {
	if workerCount < 1 {
		workerCount = 1
	}
	if workerCount > side {
		workerCount = max(side, 1)
	}
	sets := make([]rowSet, workerCount)
	for row := 0; row < side; row++ {
		idx := row % workerCount
		sets[idx].rows = append(sets[idx].rows, row)
	}
	return sets
}

// cellKernel holds the per-map constants shared by all workers.
type cellKernel struct {
	radius     int
	side       int
	limitSq    float64
	speed      float64
	sampleRate float64
	ax, ay     float64
	bx, by     float64
}

func newCellKernel(p Params, radius, side int) cellKernel {
	limit := float64(radius) + p.Tolerance*p.Scale
	return cellKernel{
		radius:     radius,
		side:       side,
		limitSq:    limit * limit,
		speed:      p.scaledSpeed(),
		sampleRate: p.SampleRate,
		ax:         p.MicA.X,
		ay:         p.MicA.Y,
		bx:         p.MicB.X,
		by:         p.MicB.Y,
	}
}

// fillRow writes one grid row (j = row-radius) into dst.
func (k cellKernel) fillRow(row int, dst []float64) {
	j := float64(row - k.radius)
	for col := 0; col < k.side; col++ {
		i := float64(col - k.radius)
		if i*i+j*j > k.limitSq {
			dst[col] = math.NaN()
			continue
		}
		lagA := math.Sqrt((i-k.ax)*(i-k.ax)+(j-k.ay)*(j-k.ay)) / k.speed
		lagB := math.Sqrt((i-k.bx)*(i-k.bx)+(j-k.by)*(j-k.by)) / k.speed
		dst[col] = math.RoundToEven((lagA - lagB) * k.sampleRate)
	}
}

// Compute returns the lag map for p.
func (e *Engine) Compute(p Params) *LagMap {
	radius := p.Membrane().GridRadius()
	side := 2*radius + 1
	if side < 0 {
		side = 0
	}
	data := make([]float64, side*side)
	kernel := newCellKernel(p, radius, side)

	sets := assignRows(e.Workers, side)
	debugf("lagmap: radius=%d side=%d workers=%d mic_a=(%.2f,%.2f) mic_b=(%.2f,%.2f)",
		radius, side, len(sets), p.MicA.X, p.MicA.Y, p.MicB.X, p.MicB.Y)

	if len(sets) == 1 {
		for _, row := range sets[0].rows {
			kernel.fillRow(row, data[row*side:(row+1)*side])
		}
		return newLagMap(radius, data)
	}

	var wg sync.WaitGroup
	for _, set := range sets {
		wg.Add(1)
		go func(rows []int) {
			defer wg.Done()
			for _, row := range rows {
				kernel.fillRow(row, data[row*side:(row+1)*side])
			}
		}(set.rows)
	}
	wg.Wait()

	return newLagMap(radius, data)
}
