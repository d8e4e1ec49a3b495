package coords

import "math"

// Point2D is a position in a cartesian plane. Units depend on context: grid
// cells for lag maps, physical length elsewhere.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Polar is a 2D position as radius and azimuth in degrees.
type Polar struct {
	R   float64 `json:"r"`
	Phi float64 `json:"phi"`
}

// Point3D is a position in 3D cartesian space.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Spherical is a 3D position as radius, azimuth and theta in degrees.
// Theta uses the convention documented on SphericalToCartesian.
type Spherical struct {
	R     float64 `json:"r"`
	Phi   float64 `json:"phi"`
	Theta float64 `json:"theta"`
}

// Polar returns p in polar form.
func (p Point2D) Polar() Polar {
	r, phi := CartesianToPolar(p.X, p.Y)
	return Polar{R: r, Phi: phi}
}

// Distance returns the euclidean distance between p and q.
func (p Point2D) Distance(q Point2D) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Cartesian returns p in cartesian form.
func (p Polar) Cartesian() Point2D {
	x, y := PolarToCartesian(p.R, p.Phi)
	return Point2D{X: x, Y: y}
}

// Spherical returns p in spherical form, or ErrDomain at the origin.
func (p Point3D) Spherical() (Spherical, error) {
	r, phi, theta, err := CartesianToSpherical(p.X, p.Y, p.Z)
	if err != nil {
		return Spherical{}, err
	}
	return Spherical{R: r, Phi: phi, Theta: theta}, nil
}

// Cartesian returns s in cartesian form.
func (s Spherical) Cartesian() Point3D {
	x, y, z := SphericalToCartesian(s.R, s.Phi, s.Theta)
	return Point3D{X: x, Y: y, Z: z}
}
