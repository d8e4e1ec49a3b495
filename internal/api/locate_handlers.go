package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/banshee-data/ghostnote/internal/config"
	"github.com/banshee-data/ghostnote/internal/httputil"
	"github.com/banshee-data/ghostnote/internal/lagmap"
)

const maxLocatePairs = 8

// LocateResponse lists the cells consistent with every observed lag.
type LocateResponse struct {
	Radius int           `json:"radius"`
	Cells  []lagmap.Cell `json:"cells"`
}

// sensorPair is one pair=fa,phiA,fb,phiB,lag query value.
type sensorPair struct {
	micA, micB *config.SensorConfig
	lag        float64
}

func parsePair(raw string) (sensorPair, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 5 {
		return sensorPair{}, fmt.Errorf("pair %q: want fraction,degrees,fraction,degrees,lag", raw)
	}
	a, err := config.ParseSensor(parts[0] + "," + parts[1])
	if err != nil {
		return sensorPair{}, fmt.Errorf("pair %q: %w", raw, err)
	}
	b, err := config.ParseSensor(parts[2] + "," + parts[3])
	if err != nil {
		return sensorPair{}, fmt.Errorf("pair %q: %w", raw, err)
	}
	lag, err := strconv.ParseFloat(strings.TrimSpace(parts[4]), 64)
	if err != nil || math.IsNaN(lag) || math.IsInf(lag, 0) {
		return sensorPair{}, fmt.Errorf("pair %q: lag must be a finite number", raw)
	}
	return sensorPair{micA: a, micB: b, lag: lag}, nil
}

// handleLocate intersects the lag maps of up to maxLocatePairs sensor pairs.
// Each pair is "fraction,degrees,fraction,degrees,lag"; the membrane comes
// from the usual d, sr, scale, c and tol parameters.
func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	p, err := s.paramsFromRequest(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	raws := r.URL.Query()["pair"]
	if len(raws) == 0 || len(raws) > maxLocatePairs {
		httputil.BadRequest(w, fmt.Sprintf("want between 1 and %d pair parameters, got %d", maxLocatePairs, len(raws)))
		return
	}

	radius := p.Membrane().Radius()
	maps := make([]*lagmap.LagMap, 0, len(raws))
	lags := make([]float64, 0, len(raws))
	for _, raw := range raws {
		pair, err := parsePair(raw)
		if err != nil {
			httputil.BadRequest(w, err.Error())
			return
		}
		pp := p
		pp.MicA = lagmap.PlaceSensor(*pair.micA.Fraction, *pair.micA.PhiDeg, radius)
		pp.MicB = lagmap.PlaceSensor(*pair.micB.Fraction, *pair.micB.PhiDeg, radius)
		maps = append(maps, s.compute(pp))
		lags = append(lags, pair.lag)
	}

	cells, err := lagmap.Intersect(maps, lags)
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	if cells == nil {
		cells = []lagmap.Cell{}
	}
	httputil.WriteJSONOK(w, LocateResponse{Radius: maps[0].Radius(), Cells: cells})
}
