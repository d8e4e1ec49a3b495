// Package render draws lag maps as PNG heatmaps (gonum/plot) and as
// interactive HTML heatmaps (go-echarts).
package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/ghostnote/internal/coords"
	"github.com/banshee-data/ghostnote/internal/fsutil"
	"github.com/banshee-data/ghostnote/internal/lagmap"
)

// ErrEmptyMap is returned when a figure has no cells to draw.
var ErrEmptyMap = errors.New("render: lag map has no cells")

// paletteName is the diverging brewer scheme used by both renderers.
const (
	paletteName   = "RdYlGn"
	paletteColors = 11
)

// Options controls figure decoration.
type Options struct {
	// Labels name mic A and mic B in the legend and subtitle.
	Labels [2]string
	Title  string
	// Size is the width and height of the PNG output.
	Size     vg.Length
	Colorbar bool
	Legend   bool
	// AssetsHost overrides where the HTML output loads echarts from.
	AssetsHost string
}

// DefaultOptions returns the standard figure decoration.
func DefaultOptions() Options {
	return Options{
		Labels:   [2]string{"Mic A", "Mic B"},
		Title:    "Lag (samples)",
		Size:     6 * vg.Inch,
		Colorbar: true,
		Legend:   true,
	}
}

// withDefaults fills empty labels, title and size.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	for k := range o.Labels {
		if o.Labels[k] == "" {
			o.Labels[k] = def.Labels[k]
		}
	}
	if o.Title == "" {
		o.Title = def.Title
	}
	if o.Size <= 0 {
		o.Size = def.Size
	}
	return o
}

// Figure is a lag map together with the sensor positions it was computed for.
type Figure struct {
	Map        *lagmap.LagMap
	MicA, MicB coords.Point2D
	Options    Options
}

// NewFigure returns a figure for lm with default options.
func NewFigure(lm *lagmap.LagMap, micA, micB coords.Point2D) *Figure {
	return &Figure{Map: lm, MicA: micA, MicB: micB, Options: DefaultOptions()}
}

// LagsFromPolar computes and wraps the map for two sensors given in polar
// form, where R is a fraction of the membrane radius and Phi is in degrees.
// The mask tolerance in p is ignored so the disc matches the membrane edge.
func LagsFromPolar(eng *lagmap.Engine, micA, micB coords.Polar, p lagmap.Params) *Figure {
	radius := p.Membrane().Radius()
	p.MicA = lagmap.PlaceSensor(micA.R, micA.Phi, radius)
	p.MicB = lagmap.PlaceSensor(micB.R, micB.Phi, radius)
	return FigureFromParams(eng, p)
}

// FigureFromParams computes and wraps the map for p with a zero mask
// tolerance, so no defined cell is drawn outside the membrane outline.
func FigureFromParams(eng *lagmap.Engine, p lagmap.Params) *Figure {
	p.Tolerance = 0
	return NewFigure(eng.Compute(p), p.MicA, p.MicB)
}

// SaveFile writes fig to path, choosing PNG or HTML from the extension.
func SaveFile(fsys fsutil.FileSystem, path string, fig *Figure) error {
	var write func(io.Writer, *Figure) error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		write = WritePNG
	case ".html", ".htm":
		write = WriteHTML
	default:
		return fmt.Errorf("unsupported output extension %q (want .png or .html)", ext)
	}

	f, err := fsutil.CreateAll(fsys, path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f, fig); err != nil {
		f.Close()
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

func lagPalette() (palette.Palette, error) {
	pal, err := brewer.GetPalette(brewer.TypeAny, paletteName, paletteColors)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s palette: %w", paletteName, err)
	}
	return pal, nil
}

// hexColors converts a palette to CSS colour strings.
func hexColors(pal palette.Palette) []string {
	cols := pal.Colors()
	out := make([]string, len(cols))
	for k, c := range cols {
		rgba := color.NRGBAModel.Convert(c).(color.NRGBA)
		out[k] = fmt.Sprintf("#%02x%02x%02x", rgba.R, rgba.G, rgba.B)
	}
	return out
}

// lagBounds returns the colour scale range, widened when every cell holds
// the same lag.
func lagBounds(lm *lagmap.LagMap) (lo, hi float64) {
	lo, hi, ok := lm.Range()
	if !ok {
		return -0.5, 0.5
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}
	return lo, hi
}
