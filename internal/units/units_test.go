package units

import (
	"math"
	"testing"
)

func TestConvertLength(t *testing.T) {
	tests := []struct {
		name     string
		length   float64
		from, to string
		expected float64
	}{
		{"14 inch drum to cm", 14, Inch, CM, 35.56},
		{"cm to mm", 35.56, CM, MM, 355.6},
		{"m to cm", 1.5, M, CM, 150},
		{"mm to inch", 25.4, MM, Inch, 1},
		{"same unit", 12, CM, CM, 12},
		{"unknown source defaults to cm", 10, "furlong", MM, 100},
		{"unknown target defaults to cm", 1, M, "furlong", 100},
		{"negative lengths pass through", -2, Inch, CM, -5.08},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertLength(tt.length, tt.from, tt.to)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("ConvertLength(%f, %s, %s) = %f, want %f", tt.length, tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"valid cm", CM, true},
		{"valid mm", MM, true},
		{"valid m", M, true},
		{"valid in", Inch, true},
		{"invalid unit", "invalid", false},
		{"empty string", "", false},
		{"case sensitive", "CM", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValid(tt.unit)
			if result != tt.expected {
				t.Errorf("IsValid(%s) = %v, want %v", tt.unit, result, tt.expected)
			}
		})
	}
}

func TestGetValidUnitsString(t *testing.T) {
	if got := GetValidUnitsString(); got != "cm, mm, m, in" {
		t.Errorf("GetValidUnitsString() = %q", got)
	}
}
