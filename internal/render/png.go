package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/ghostnote/internal/coords"
)

// circleSegments is the number of line segments in the membrane outline.
const circleSegments = 180

var (
	black = color.Black
	white = color.White
)

// WritePNG draws fig as a PNG heatmap. Masked cells are left transparent.
func WritePNG(w io.Writer, fig *Figure) error {
	p, err := newPlot(fig)
	if err != nil {
		return err
	}
	size := fig.Options.withDefaults().Size
	wt, err := p.WriterTo(size, size, "png")
	if err != nil {
		return fmt.Errorf("failed to create png canvas: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write png: %w", err)
	}
	return nil
}

func newPlot(fig *Figure) (*plot.Plot, error) {
	if fig == nil || fig.Map == nil || fig.Map.Size() == 0 {
		return nil, ErrEmptyMap
	}
	o := fig.Options.withDefaults()
	lm := fig.Map
	r := float64(lm.Radius())

	pal, err := lagPalette()
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = o.Title
	p.X.Label.Text = "x (cells)"
	p.Y.Label.Text = "y (cells)"

	hm := plotter.NewHeatMap(lm, pal)
	hm.Min, hm.Max = lagBounds(lm)
	hm.NaN = color.Transparent
	p.Add(hm)

	outline, err := plotter.NewLine(circle(r))
	if err != nil {
		return nil, fmt.Errorf("failed to build outline: %w", err)
	}
	outline.Color = black
	outline.Width = vg.Points(1)
	p.Add(outline)

	// Mic A is white ringed in black and mic B the reverse.
	markers := []struct {
		pos       coords.Point2D
		label     string
		fill, rim color.Color
	}{
		{fig.MicA, o.Labels[0], white, black},
		{fig.MicB, o.Labels[1], black, white},
	}
	for _, m := range markers {
		dot, rim, err := micMarker(m.pos, m.fill, m.rim)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s marker: %w", m.label, err)
		}
		p.Add(dot, rim)
		if o.Legend {
			p.Legend.Add(m.label, dot, rim)
		}
	}

	if o.Colorbar {
		thumbs := plotter.PaletteThumbnailers(pal)
		// Thumbnails run from the top colour down.
		for k := len(thumbs) - 1; k >= 0; k-- {
			v := hm.Min + float64(k)*(hm.Max-hm.Min)/float64(len(thumbs)-1)
			p.Legend.Add(fmt.Sprintf("%.4g", v), thumbs[k])
		}
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	pad := r + 1
	p.X.Min, p.X.Max = -pad, pad
	p.Y.Min, p.Y.Max = -pad, pad
	return p, nil
}

func circle(r float64) plotter.XYs {
	pts := make(plotter.XYs, circleSegments+1)
	for k := range pts {
		a := 2 * math.Pi * float64(k) / circleSegments
		pts[k] = plotter.XY{X: r * math.Cos(a), Y: r * math.Sin(a)}
	}
	return pts
}

func micMarker(pos coords.Point2D, fill, rim color.Color) (*plotter.Scatter, *plotter.Scatter, error) {
	xy := plotter.XYs{{X: pos.X, Y: pos.Y}}
	dot, err := plotter.NewScatter(xy)
	if err != nil {
		return nil, nil, err
	}
	dot.GlyphStyle = draw.GlyphStyle{Color: fill, Radius: vg.Points(4), Shape: draw.CircleGlyph{}}

	ring, err := plotter.NewScatter(xy)
	if err != nil {
		return nil, nil, err
	}
	ring.GlyphStyle = draw.GlyphStyle{Color: rim, Radius: vg.Points(4), Shape: draw.RingGlyph{}}
	return dot, ring, nil
}
