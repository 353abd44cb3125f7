package geometry

import (
	"errors"
	"fmt"
	"math"
)

// Epsilon Precision constant for float64 comparisons.
// AngleEpsilon is the tolerance (in degrees) used when an angle is compared
// against a field-of-view or gate boundary.
const (
	Epsilon      = 1e-9
	AngleEpsilon = 1e-6
)

// ErrDivideByZero is returned by Div when the scalar is zero.
var ErrDivideByZero = errors.New("vector cannot be divided by zero")

// Vector3 represents a 3D vector or point. Y is the vertical axis, the ground
// plane is XZ and a yaw of 0 degrees looks down +Z.
// Fields are public because they are fundamental data, not internal state:
// v := Vector3{X: 1, Z: 2}
type Vector3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

var (
	Zero    = Vector3{}
	Up      = Vector3{Y: 1}
	Forward = Vector3{Z: 1}
	Right   = Vector3{X: 1}
)

// NewVector3 creates a new Vector3.
func NewVector3(x, y, z float64) Vector3 {
	return Vector3{X: x, Y: y, Z: z}
}

// FromYaw returns the unit ground-plane direction for a heading in degrees,
// measured clockwise from +Z toward +X: (sin(yaw), 0, cos(yaw)).
func FromYaw(degrees float64) Vector3 {
	rad := degrees * math.Pi / 180
	x := math.Sin(rad)
	z := math.Cos(rad)

	// Handle standard floating point precision issues near zero
	if math.Abs(x) < Epsilon {
		x = 0
	}
	if math.Abs(z) < Epsilon {
		z = 0
	}
	return Vector3{X: x, Z: z}
}

// ---------------------------------------------------------------------
// Stringer Interface
// ---------------------------------------------------------------------

// String implements the fmt.Stringer interface.
func (v Vector3) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v.X, v.Y, v.Z)
}

// ---------------------------------------------------------------------
// Arithmetic Operations
// Value receivers returning new values: cheap for a three-float struct.
// ---------------------------------------------------------------------

// Add adds two vectors and returns the result.
func (v Vector3) Add(other Vector3) Vector3 {
	return Vector3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Sub subtracts the other vector from the current vector.
func (v Vector3) Sub(other Vector3) Vector3 {
	return Vector3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Mul scales the vector by a scalar value.
func (v Vector3) Mul(scalar float64) Vector3 {
	return Vector3{v.X * scalar, v.Y * scalar, v.Z * scalar}
}

// Neg returns the opposite vector.
func (v Vector3) Neg() Vector3 {
	return v.Mul(-1)
}

// Div scales the vector by 1/scalar.
// If scalar is zero it returns an Inf vector together with ErrDivideByZero.
func (v Vector3) Div(scalar float64) (Vector3, error) {
	if scalar == 0 {
		return Vector3{math.Inf(1), math.Inf(1), math.Inf(1)}, ErrDivideByZero
	}
	return Vector3{v.X / scalar, v.Y / scalar, v.Z / scalar}, nil
}

// ---------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------

// Dot calculates the dot product of two vectors.
func (v Vector3) Dot(other Vector3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross calculates the cross product v x other.
func (v Vector3) Cross(other Vector3) Vector3 {
	return Vector3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// ---------------------------------------------------------------------
// Magnitude and Normalization
// ---------------------------------------------------------------------

// LenSqr calculates the squared magnitude of the vector. Use for comparisons.
func (v Vector3) LenSqr() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// Len calculates the magnitude (length) of the vector.
func (v Vector3) Len() float64 {
	return math.Sqrt(v.LenSqr())
}

// Normalize returns a unit vector in the same direction.
// Returns a zero vector if the length is effectively zero.
func (v Vector3) Normalize() Vector3 {
	l := v.Len()
	if l < Epsilon {
		return Zero
	}
	return v.Mul(1 / l)
}

// IsZero reports whether the vector is effectively the zero vector.
func (v Vector3) IsZero() bool {
	return v.Len() < Epsilon
}

// ---------------------------------------------------------------------
// Geometric Utilities
// ---------------------------------------------------------------------

// DistanceTo calculates the Euclidean distance to another vector.
func (v Vector3) DistanceTo(other Vector3) float64 {
	return v.Sub(other).Len()
}

// DistanceSquaredTo calculates the squared Euclidean distance to another vector.
func (v Vector3) DistanceSquaredTo(other Vector3) float64 {
	return v.Sub(other).LenSqr()
}

// Flat projects the vector onto the ground plane (Y = 0).
func (v Vector3) Flat() Vector3 {
	return Vector3{X: v.X, Z: v.Z}
}

// Yaw returns the heading of the vector on the ground plane in degrees,
// in the same convention as FromYaw. Range: (-180, 180].
func (v Vector3) Yaw() float64 {
	return math.Atan2(v.X, v.Z) * 180 / math.Pi
}

// RotateY rotates the vector around the vertical axis by degrees, clockwise
// seen from above, so that Forward.RotateY(a) == FromYaw(a).
func (v Vector3) RotateY(degrees float64) Vector3 {
	rad := degrees * math.Pi / 180
	cosTheta := math.Cos(rad)
	sinTheta := math.Sin(rad)
	return Vector3{
		X: v.X*cosTheta + v.Z*sinTheta,
		Y: v.Y,
		Z: -v.X*sinTheta + v.Z*cosTheta,
	}
}

// AngleBetween returns the unsigned angle in degrees between a and b, in [0, 180].
// A zero-length operand yields 0.
func AngleBetween(a, b Vector3) float64 {
	if a.IsZero() || b.IsZero() {
		return 0
	}
	// atan2(|a x b|, a.b) stays accurate near 0 and 180 where acos does not.
	return math.Atan2(a.Cross(b).Len(), a.Dot(b)) * 180 / math.Pi
}

// WithinAngle reports whether angle <= limit, tolerating AngleEpsilon of
// floating-point error so that a direction exactly on the boundary passes.
func WithinAngle(angle, limit float64) bool {
	return angle <= limit+AngleEpsilon
}

// BelowAngle reports whether angle < limit strictly: a direction on the
// boundary (within AngleEpsilon) is rejected.
func BelowAngle(angle, limit float64) bool {
	return angle < limit-AngleEpsilon
}

// ---------------------------------------------------------------------
// Comparison
// ---------------------------------------------------------------------

// Eq checks if two vectors are approximately equal using the Epsilon constant.
func (v Vector3) Eq(other Vector3) bool {
	return math.Abs(v.X-other.X) <= Epsilon &&
		math.Abs(v.Y-other.Y) <= Epsilon &&
		math.Abs(v.Z-other.Z) <= Epsilon
}

// IsFinite reports whether every component is a finite number.
func (v Vector3) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}
