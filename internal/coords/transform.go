// Package coords converts between 2D cartesian/polar and 3D cartesian/spherical
// coordinates. All angles at the API surface are in degrees.
package coords

import (
	"errors"
	"fmt"
	"math"
)

// ErrDomain is returned when a transform is undefined for its input.
var ErrDomain = errors.New("coords: input outside transform domain")

func radians(deg float64) float64 { return deg * math.Pi / 180.0 }
func degrees(rad float64) float64 { return rad * 180.0 / math.Pi }

// wrapDegrees maps the output of atan2 into [0, 360).
func wrapDegrees(rad float64) float64 {
	if rad < 0 {
		rad += 2 * math.Pi
	}
	deg := degrees(rad)
	// -0 and values that round up to a full turn both belong at 0.
	if deg == 0 || deg >= 360 {
		return 0
	}
	return deg
}

// CartesianToPolar converts (x, y) to radius and azimuth in degrees.
// The azimuth is measured counter-clockwise from +x and lies in [0, 360).
// At the origin the azimuth is 0.
func CartesianToPolar(x, y float64) (r, phiDeg float64) {
	r = math.Hypot(x, y)
	phiDeg = wrapDegrees(math.Atan2(y, x))
	return
}

// CartesianToPolarNormalized is CartesianToPolar with the radius divided by
// rNorm, e.g. to express a sensor position as a fraction of the membrane radius.
func CartesianToPolarNormalized(x, y, rNorm float64) (r, phiDeg float64) {
	r, phiDeg = CartesianToPolar(x, y)
	return r / rNorm, phiDeg
}

// PolarToCartesian converts radius and azimuth in degrees to (x, y).
func PolarToCartesian(r, phiDeg float64) (x, y float64) {
	phi := radians(phiDeg)
	x = r * math.Cos(phi)
	y = r * math.Sin(phi)
	return
}

// remapTheta applies the sign-dependent theta convention shared by both 3D
// transforms: negative values are negated, non-negative values become 90-theta.
// Positive input therefore reads as an elevation above the x-y plane and
// negative input as a polar angle from +z.
func remapTheta(thetaDeg float64) float64 {
	if thetaDeg < 0 {
		return -thetaDeg
	}
	return 90 - thetaDeg
}

// SphericalToCartesian converts (r, phi, theta) to (x, y, z).
// phi is the azimuth in the x-y plane from +x. theta follows remapTheta, so
// theta=90 points along +z and theta=-90 lies in the x-y plane.
func SphericalToCartesian(r, phiDeg, thetaDeg float64) (x, y, z float64) {
	phi := radians(phiDeg)
	theta := radians(remapTheta(thetaDeg))

	sinTheta := math.Sin(theta)
	x = r * math.Cos(phi) * sinTheta
	y = r * math.Sin(phi) * sinTheta
	z = r * math.Cos(theta)
	return
}

// CartesianToSpherical converts (x, y, z) to (r, phi, theta) using the same
// theta remap as SphericalToCartesian. The remap is applied to the polar angle
// from acos, which is never negative, so theta is always 90 minus that angle.
// The two functions are not exact inverses of each other.
//
// Returns ErrDomain at the origin, where theta is undefined.
func CartesianToSpherical(x, y, z float64) (r, phiDeg, thetaDeg float64, err error) {
	r = math.Sqrt(x*x + y*y + z*z)
	if r == 0 {
		return 0, 0, 0, fmt.Errorf("cartesian (%g, %g, %g) has zero radius: %w", x, y, z, ErrDomain)
	}
	phiDeg = wrapDegrees(math.Atan2(y, x))
	thetaDeg = remapTheta(degrees(math.Acos(z / r)))
	return r, phiDeg, thetaDeg, nil
}
