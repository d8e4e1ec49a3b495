package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/ghostnote/internal/lagmap"
	"github.com/banshee-data/ghostnote/internal/units"
)

// DefaultConfigPath is the path to the canonical lag map defaults file.
const DefaultConfigPath = "config/lagmap.defaults.json"

// SensorConfig places a sensor as a fraction of the membrane radius along an
// azimuth in degrees (counter-clockwise from +x).
type SensorConfig struct {
	Fraction *float64 `json:"fraction,omitempty"`
	PhiDeg   *float64 `json:"phi_deg,omitempty"`
}

// LagConfig represents the root configuration for lag map computation.
// The schema matches the query parameters of the /api/lagmap endpoint so the
// same values can be used for both batch runs and the HTTP surface.
type LagConfig struct {
	// Membrane
	Diameter      *float64 `json:"diameter,omitempty"`
	DiameterUnits *string  `json:"diameter_units,omitempty"` // cm, mm, m or in
	Scale         *float64 `json:"scale,omitempty"`
	ToleranceCM   *float64 `json:"tolerance_cm,omitempty"`

	// Acquisition
	SampleRateHz    *float64 `json:"sample_rate_hz,omitempty"`
	SpeedOfSoundMPS *float64 `json:"speed_of_sound_mps,omitempty"`

	// Sensors
	MicA *SensorConfig `json:"mic_a,omitempty"`
	MicB *SensorConfig `json:"mic_b,omitempty"`

	// Engine
	Workers *int `json:"workers,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyLagConfig returns a LagConfig with all fields set to nil.
func EmptyLagConfig() *LagConfig {
	return &LagConfig{}
}

// DefaultLagConfig returns a LagConfig with every field set to its default.
func DefaultLagConfig() *LagConfig {
	return &LagConfig{
		Diameter:        ptrFloat64(14),
		DiameterUnits:   ptrString(units.Inch),
		Scale:           ptrFloat64(lagmap.DefaultScale),
		ToleranceCM:     ptrFloat64(lagmap.DefaultToleranceCM),
		SampleRateHz:    ptrFloat64(lagmap.DefaultSampleRate),
		SpeedOfSoundMPS: ptrFloat64(units.SpeedOfSoundAir),
		MicA:            &SensorConfig{Fraction: ptrFloat64(1), PhiDeg: ptrFloat64(0)},
		MicB:            &SensorConfig{Fraction: ptrFloat64(1), PhiDeg: ptrFloat64(180)},
		Workers:         ptrInt(0),
	}
}

// LoadLagConfig loads a LagConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file fall back to defaults through the Get* methods.
func LoadLagConfig(path string) (*LagConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyLagConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *LagConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,       // from cmd/
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadLagConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the structural fields of the configuration. Numeric
// membrane and acquisition values are passed to the engine unchecked.
func (c *LagConfig) Validate() error {
	if c.DiameterUnits != nil && !units.IsValid(*c.DiameterUnits) {
		return fmt.Errorf("diameter_units must be one of %s, got %q", units.GetValidUnitsString(), *c.DiameterUnits)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	return nil
}

// GetDiameterCM returns the membrane diameter converted to centimetres.
func (c *LagConfig) GetDiameterCM() float64 {
	if c.Diameter == nil {
		return lagmap.DefaultDiameterCM
	}
	return units.ToCentimeters(*c.Diameter, c.GetDiameterUnits())
}

// GetDiameterUnits returns the diameter_units value or the default (cm).
// The default only applies to an explicit diameter; the default diameter is
// already in centimetres.
func (c *LagConfig) GetDiameterUnits() string {
	if c.DiameterUnits == nil || *c.DiameterUnits == "" {
		return units.CM
	}
	return *c.DiameterUnits
}

// GetScale returns the scale value or the default.
func (c *LagConfig) GetScale() float64 {
	if c.Scale == nil {
		return lagmap.DefaultScale
	}
	return *c.Scale
}

// GetToleranceCM returns the tolerance_cm value or the default.
func (c *LagConfig) GetToleranceCM() float64 {
	if c.ToleranceCM == nil {
		return lagmap.DefaultToleranceCM
	}
	return *c.ToleranceCM
}

// GetSampleRateHz returns the sample_rate_hz value or the default.
func (c *LagConfig) GetSampleRateHz() float64 {
	if c.SampleRateHz == nil {
		return lagmap.DefaultSampleRate
	}
	return *c.SampleRateHz
}

// GetSpeedOfSoundMPS returns the speed_of_sound_mps value or the default (air).
func (c *LagConfig) GetSpeedOfSoundMPS() float64 {
	if c.SpeedOfSoundMPS == nil {
		return units.SpeedOfSoundAir
	}
	return *c.SpeedOfSoundMPS
}

// GetWorkers returns the workers value or the default (0, one per CPU).
func (c *LagConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// GetMicA returns mic A's radius fraction and azimuth, defaulting to the +x edge.
func (c *LagConfig) GetMicA() (fraction, phiDeg float64) {
	return c.MicA.get(1, 0)
}

// GetMicB returns mic B's radius fraction and azimuth, defaulting to the -x edge.
func (c *LagConfig) GetMicB() (fraction, phiDeg float64) {
	return c.MicB.get(1, 180)
}

func (s *SensorConfig) get(defFraction, defPhi float64) (float64, float64) {
	fraction, phi := defFraction, defPhi
	if s == nil {
		return fraction, phi
	}
	if s.Fraction != nil {
		fraction = *s.Fraction
	}
	if s.PhiDeg != nil {
		phi = *s.PhiDeg
	}
	return fraction, phi
}

// Params builds engine parameters from the configuration, placing both
// sensors on the membrane at the unrounded radius.
func (c *LagConfig) Params() lagmap.Params {
	p := lagmap.Params{
		Diameter:     c.GetDiameterCM(),
		SampleRate:   c.GetSampleRateHz(),
		Scale:        c.GetScale(),
		SpeedOfSound: c.GetSpeedOfSoundMPS(),
		Tolerance:    c.GetToleranceCM(),
	}
	radius := p.Membrane().Radius()
	fa, phiA := c.GetMicA()
	fb, phiB := c.GetMicB()
	p.MicA = lagmap.PlaceSensor(fa, phiA, radius)
	p.MicB = lagmap.PlaceSensor(fb, phiB, radius)
	return p
}

// Clone returns a shallow copy of c. Fields may be reassigned on the copy
// without affecting c; pointees are shared and must not be modified.
func (c *LagConfig) Clone() *LagConfig {
	out := *c
	return &out
}

// ParseSensor parses a "fraction,degrees" pair such as "0.8,135".
func ParseSensor(s string) (*SensorConfig, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("sensor %q: want fraction,degrees", s)
	}
	fraction, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("sensor %q: invalid fraction: %w", s, err)
	}
	phi, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("sensor %q: invalid degrees: %w", s, err)
	}
	if !isFinite(fraction) || !isFinite(phi) {
		return nil, fmt.Errorf("sensor %q: values must be finite", s)
	}
	return &SensorConfig{Fraction: &fraction, PhiDeg: &phi}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
