package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/banshee-data/ghostnote/internal/config"
	"github.com/banshee-data/ghostnote/internal/coords"
	"github.com/banshee-data/ghostnote/internal/httputil"
	"github.com/banshee-data/ghostnote/internal/lagmap"
	"github.com/banshee-data/ghostnote/internal/monitoring"
	"github.com/banshee-data/ghostnote/internal/render"
)

// LagMapResponse is the JSON form of a lag map. Values are row-major from
// the bottom row (j = -radius) with masked cells as null.
type LagMapResponse struct {
	ID      string         `json:"id,omitempty"`
	Params  lagmap.Params  `json:"params"`
	Radius  int            `json:"radius"`
	Size    int            `json:"size"`
	Min     *float64       `json:"min"`
	Max     *float64       `json:"max"`
	Defined int            `json:"defined"`
	MicA    coords.Point2D `json:"mic_a"`
	MicB    coords.Point2D `json:"mic_b"`
	Values  []*float64     `json:"values"`
}

func newLagMapResponse(id string, p lagmap.Params, lm *lagmap.LagMap) LagMapResponse {
	resp := LagMapResponse{
		ID:      id,
		Params:  p,
		Radius:  lm.Radius(),
		Size:    lm.Size(),
		Defined: lm.DefinedCount(),
		MicA:    p.MicA,
		MicB:    p.MicB,
		Values:  make([]*float64, 0, lm.Size()*lm.Size()),
	}
	if lo, hi, ok := lm.Range(); ok && isFinite(lo) && isFinite(hi) {
		resp.Min, resp.Max = &lo, &hi
	}
	// A zero speed of sound divides by zero; JSON has no spelling for that.
	for _, v := range lm.Values() {
		if !isFinite(v) {
			resp.Values = append(resp.Values, nil)
			continue
		}
		resp.Values = append(resp.Values, &v)
	}
	return resp
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// paramsFromRequest overlays the query parameters on the server config.
// d and tol are in centimetres, c in m/s, sr in Hz.
func (s *Server) paramsFromRequest(r *http.Request) (lagmap.Params, error) {
	cfg := s.cfg.Clone()
	q := r.URL.Query()

	for _, m := range []struct {
		name string
		dst  **config.SensorConfig
	}{
		{"mic_a", &cfg.MicA},
		{"mic_b", &cfg.MicB},
	} {
		raw := q.Get(m.name)
		if raw == "" {
			continue
		}
		sensor, err := config.ParseSensor(raw)
		if err != nil {
			return lagmap.Params{}, fmt.Errorf("invalid %s: %w", m.name, err)
		}
		*m.dst = sensor
	}

	floatParams := []struct {
		name string
		dst  **float64
		def  float64
	}{
		{"d", &cfg.Diameter, cfg.GetDiameterCM()},
		{"sr", &cfg.SampleRateHz, cfg.GetSampleRateHz()},
		{"scale", &cfg.Scale, cfg.GetScale()},
		{"c", &cfg.SpeedOfSoundMPS, cfg.GetSpeedOfSoundMPS()},
		{"tol", &cfg.ToleranceCM, cfg.GetToleranceCM()},
	}
	for _, f := range floatParams {
		v, err := httputil.QueryFloat(r, f.name, f.def)
		if err != nil {
			return lagmap.Params{}, err
		}
		*f.dst = &v
	}
	// d is always centimetres; the converted default above already is too.
	cm := "cm"
	cfg.DiameterUnits = &cm

	p := cfg.Params()
	// Compare before converting to int so huge diameters cannot wrap negative.
	if gr := math.RoundToEven(p.Membrane().Radius()); gr > maxGridRadius {
		return lagmap.Params{}, fmt.Errorf("grid radius %.0f exceeds the limit of %d cells", gr, maxGridRadius)
	}
	return p, nil
}

func (s *Server) compute(p lagmap.Params) *lagmap.LagMap {
	done := monitoring.Timed("lagmap d=%gcm scale=%g sr=%g", p.Diameter, p.Scale, p.SampleRate)
	defer done()
	return s.engine.Compute(p)
}

// figure renders without the mask tolerance so the plot stops at the rim.
func (s *Server) figure(p lagmap.Params) *render.Figure {
	done := monitoring.Timed("figure d=%gcm scale=%g sr=%g", p.Diameter, p.Scale, p.SampleRate)
	defer done()
	return render.FigureFromParams(s.engine, p)
}

func (s *Server) handleLagMap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	p, err := s.paramsFromRequest(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, newLagMapResponse("", p, s.compute(p)))
}

func (s *Server) handleLagMapChart(w http.ResponseWriter, r *http.Request) {
	s.serveRendered(w, r, "text/html; charset=utf-8", render.WriteHTML)
}

func (s *Server) handleLagMapPNG(w http.ResponseWriter, r *http.Request) {
	s.serveRendered(w, r, "image/png", render.WritePNG)
}

func (s *Server) serveRendered(w http.ResponseWriter, r *http.Request, contentType string, write func(io.Writer, *render.Figure) error) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	p, err := s.paramsFromRequest(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	fig := s.figure(p)
	if title := r.URL.Query().Get("title"); title != "" {
		fig.Options.Title = title
	}

	var buf bytes.Buffer
	if err := write(&buf, fig); err != nil {
		if errors.Is(err, render.ErrEmptyMap) {
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.InternalServerError(w, fmt.Sprintf("failed to render lag map: %v", err))
		return
	}
	httputil.WriteBytes(w, contentType, buf.Bytes())
}
