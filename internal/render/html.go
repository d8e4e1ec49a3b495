package render

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteHTML renders fig as a standalone echarts heatmap page. Masked cells
// are omitted from the series.
func WriteHTML(w io.Writer, fig *Figure) error {
	hm, err := newHeatMapChart(fig)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := hm.Render(&buf); err != nil {
		return fmt.Errorf("failed to render heatmap: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write html: %w", err)
	}
	return nil
}

func newHeatMapChart(fig *Figure) (*charts.HeatMap, error) {
	if fig == nil || fig.Map == nil || fig.Map.Size() == 0 {
		return nil, ErrEmptyMap
	}
	o := fig.Options.withDefaults()
	lm := fig.Map

	pal, err := lagPalette()
	if err != nil {
		return nil, err
	}

	axis := make([]string, lm.Size())
	for k := range axis {
		axis[k] = strconv.Itoa(k - lm.Radius())
	}

	data := make([]opts.HeatMapData, 0, lm.DefinedCount())
	cols, rows := lm.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := lm.Z(c, r)
			if math.IsNaN(v) {
				continue
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{c, r, v}})
		}
	}

	lo, hi := lagBounds(lm)
	px := fmt.Sprintf("%dpx", int(o.Size.Dots(96)))
	subtitle := fmt.Sprintf("%s=(%.1f, %.1f) %s=(%.1f, %.1f) radius=%d cells",
		o.Labels[0], fig.MicA.X, fig.MicA.Y, o.Labels[1], fig.MicB.X, fig.MicB.Y, lm.Radius())

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: o.Title, Width: px, Height: px, AssetsHost: o.AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: o.Title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: axis, Name: "x (cells)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: axis, Name: "y (cells)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(o.Colorbar),
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: hexColors(pal)},
		}),
	)
	hm.SetXAxis(axis).AddSeries("lag", data)
	return hm, nil
}
