package lagmap

import (
	"math"

	"github.com/banshee-data/ghostnote/internal/coords"
)

// Defaults carried over from the drum the maps were first built for.
const (
	DefaultDiameterCM   = 14 * 2.54 // 14 inch head
	DefaultSampleRate   = 96000.0
	DefaultScale        = 1.0
	DefaultSpeedOfSound = 343.0 // air, m/s
	DefaultToleranceCM  = 1.0
)

// Membrane is a disc of Diameter (cm) sampled at Scale cells per cm.
type Membrane struct {
	Diameter float64
	Scale    float64
}

// Radius returns the unrounded radius in grid cells. Renderers use it for
// display extents and sensor placement.
func (m Membrane) Radius() float64 {
	return m.Diameter * m.Scale / 2
}

// GridRadius returns the integer grid radius, rounding half to even.
func (m Membrane) GridRadius() int {
	return int(math.RoundToEven(m.Radius()))
}

// Params holds every input of a lag map computation.
type Params struct {
	// MicA and MicB are sensor positions in grid cells relative to the centre.
	MicA coords.Point2D `json:"mic_a"`
	MicB coords.Point2D `json:"mic_b"`

	Diameter     float64 `json:"diameter_cm"`
	SampleRate   float64 `json:"sample_rate_hz"`
	Scale        float64 `json:"scale"`
	SpeedOfSound float64 `json:"speed_of_sound_mps"`

	// Tolerance widens the inclusion radius at the edge, in cm before scaling.
	Tolerance float64 `json:"tolerance_cm"`
}

// DefaultParams returns Params with the package defaults and both sensors at
// the centre.
func DefaultParams() Params {
	return Params{
		Diameter:     DefaultDiameterCM,
		SampleRate:   DefaultSampleRate,
		Scale:        DefaultScale,
		SpeedOfSound: DefaultSpeedOfSound,
		Tolerance:    DefaultToleranceCM,
	}
}

// Membrane returns the membrane described by p.
func (p Params) Membrane() Membrane {
	return Membrane{Diameter: p.Diameter, Scale: p.Scale}
}

// scaledSpeed converts the speed of sound from m/s to grid cells per second.
func (p Params) scaledSpeed() float64 {
	return p.SpeedOfSound * p.Scale * 100
}

// PlaceSensor returns the cartesian position of a sensor placed at fraction
// of radius along phiDeg.
func PlaceSensor(fraction, phiDeg, radius float64) coords.Point2D {
	return coords.Polar{R: fraction * radius, Phi: phiDeg}.Cartesian()
}
