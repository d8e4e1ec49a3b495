// Package units provides shared constants and conversions for length units
// and propagation speeds.
package units

import "strings"

// Length unit constants
const (
	CM   = "cm"
	MM   = "mm"
	M    = "m"
	Inch = "in"
)

// SpeedOfSoundAir is the speed of sound in dry air at 20°C, in m/s.
const SpeedOfSoundAir = 343.0

// ValidLengthUnits contains all valid length unit values
var ValidLengthUnits = []string{CM, MM, M, Inch}

// centimetres per unit
var cmPerUnit = map[string]float64{
	CM:   1,
	MM:   0.1,
	M:    100,
	Inch: 2.54,
}

// IsValid checks if the given unit is in the list of valid length units
func IsValid(unit string) bool {
	for _, validUnit := range ValidLengthUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidLengthUnits, ", ")
}

// ToCentimeters converts a length in the given unit to centimetres.
// Unknown units are treated as centimetres.
func ToCentimeters(length float64, unit string) float64 {
	if f, ok := cmPerUnit[unit]; ok {
		return length * f
	}
	return length
}

// ConvertLength converts a length between two units.
// Unknown units are treated as centimetres.
func ConvertLength(length float64, from, to string) float64 {
	cm := ToCentimeters(length, from)
	if f, ok := cmPerUnit[to]; ok {
		return cm / f
	}
	return cm
}
